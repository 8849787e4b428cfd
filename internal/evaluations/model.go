package evaluations

import (
	"time"

	"course-backend/internal/decision"
	"course-backend/internal/entropy"
	"course-backend/internal/heuristics"
	"course-backend/internal/judge"
	"course-backend/internal/lessons"
)

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Payload is everything the pipeline needs to judge one draft. Stored with
// the evaluation so the worker can process it without a second lookup.
type Payload struct {
	Spec     lessons.Specification  `json:"spec"`
	Content  lessons.ContentBody    `json:"content"`
	Logprobs []entropy.TokenLogprob `json:"logprobs,omitempty"`
}

// Outcome is the persisted result of a completed evaluation.
type Outcome struct {
	Heuristics     heuristics.Result      `json:"heuristics"`
	Verdict        *judge.Verdict         `json:"verdict,omitempty"`
	Entropy        entropy.AnalysisResult `json:"entropy"`
	Decision       decision.Result        `json:"decision"`
	JudgeCalls     int                    `json:"judgeCalls"`
	PartialSuccess bool                   `json:"partialSuccess"`
}

// Evaluation represents one judge-and-decide job for a lesson draft.
type Evaluation struct {
	ID             string     `json:"id"`
	LessonID       string     `json:"lessonId"`
	UserID         string     `json:"userId"`
	Status         string     `json:"status"`
	IterationCount int        `json:"iterationCount"`
	PreviousScores []float64  `json:"previousScores,omitempty"`
	ContentHash    string     `json:"contentHash"`
	Payload        Payload    `json:"-"`
	Outcome        *Outcome   `json:"outcome,omitempty"`
	ErrorMessage   *string    `json:"errorMessage,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	StartedAt      *time.Time `json:"startedAt,omitempty"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}
