package evaluations

import (
	"context"
	"strings"
	"testing"
	"time"

	"course-backend/internal/decision"
	"course-backend/internal/entropy"
	"course-backend/internal/heuristics"
	"course-backend/internal/judge"
	"course-backend/internal/lessons"
	"course-backend/internal/queue"
)

type staticJudge struct {
	verdict judge.Verdict
	err     error
	calls   *int
}

func (s staticJudge) EvaluateLesson(ctx context.Context, input judge.EvaluateInput) (judge.Verdict, error) {
	_ = ctx
	_ = input
	if s.calls != nil {
		*s.calls++
	}
	return s.verdict, s.err
}

type captureQueue struct {
	messages []queue.Message
	err      error
}

func (q *captureQueue) Send(ctx context.Context, msg queue.Message) error {
	_ = ctx
	if q.err != nil {
		return q.err
	}
	q.messages = append(q.messages, msg)
	return nil
}

func testSpec() lessons.Specification {
	return lessons.Specification{
		LessonID: "lesson-1",
		Title:    "Binary Search",
		Objectives: []lessons.LearningObjective{
			{ID: "obj-1", Statement: "Explain how binary search halves the search space"},
		},
		Sections: []lessons.SectionOutline{
			{Title: "Concept", RequiredKeywords: []string{"binary", "search"}},
		},
	}
}

func testBody() lessons.ContentBody {
	prose := strings.Repeat("Binary search repeatedly halves a sorted array to find a target value quickly. ", 8)
	return lessons.ContentBody{
		Intro: "This lesson introduces binary search on sorted arrays.",
		Sections: []lessons.Section{
			{Title: "Concept", Prose: prose},
		},
		Examples: []lessons.WorkedExample{
			{Problem: "Find 7 in [1, 3, 5, 7, 9].", Walkthrough: "Check the middle element, then recurse into the half that can contain 7."},
		},
		Exercises: []lessons.Exercise{
			{Question: "Find 4 in [2, 4, 6, 8].", Solution: "The middle element 4 matches immediately."},
		},
	}
}

// lenientHeuristics relaxes the gate thresholds so short test fixtures pass
// the cheap checks and reach the judge.
func lenientHeuristics() heuristics.Config {
	cfg := heuristics.DefaultConfig()
	cfg.MinWordCount = 10
	cfg.MinWordsPerSection = 5
	cfg.MinKeywordCoverage = 0
	cfg.MinGradeLevel = 0
	cfg.MaxGradeLevel = 30
	cfg.RequiredSections = nil
	return cfg
}

func setupService(t *testing.T, judgeClient judge.Client) (*Service, *MemoryRepo) {
	t.Helper()
	repo := NewMemoryRepo()
	cascade := &judge.Cascade{
		Judge:        judgeClient,
		HeuristicCfg: lenientHeuristics(),
	}
	svc := &Service{
		Repo:       repo,
		Cascade:    cascade,
		Engine:     decision.NewEngine(decision.DefaultThresholds()),
		EntropyCfg: entropy.DefaultConfig(),
	}
	return svc, repo
}

func createQueued(t *testing.T, repo *MemoryRepo, id string, logprobs []entropy.TokenLogprob) Evaluation {
	t.Helper()
	evaluation := Evaluation{
		ID:       id,
		LessonID: "lesson-1",
		UserID:   "user-1",
		Status:   StatusQueued,
		Payload: Payload{
			Spec:     testSpec(),
			Content:  testBody(),
			Logprobs: logprobs,
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), evaluation); err != nil {
		t.Fatalf("create evaluation: %v", err)
	}
	return evaluation
}
