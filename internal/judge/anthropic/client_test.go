package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"course-backend/internal/judge"
	"course-backend/internal/lessons"
)

const verdictJSON = `{
	"overallScore": 0.87,
	"passed": true,
	"confidence": "high",
	"criteriaScores": {
		"learning_objective_alignment": 0.9,
		"pedagogical_structure": 0.85,
		"factual_accuracy": 0.92,
		"clarity_readability": 0.8,
		"engagement_examples": 0.75,
		"completeness": 0.88
	},
	"issues": [
		{"criterion": "engagement_examples", "severity": "minor", "location": "Light Reactions", "description": "Example could be more concrete."}
	],
	"strengths": ["Accurate chemistry"],
	"recommendation": "accept"
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient("test-key", "test-model")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	client.endpoint = server.URL
	return client, server
}

func evaluateInput() judge.EvaluateInput {
	return judge.EvaluateInput{
		Spec: lessons.Specification{
			LessonID: "lesson-1",
			Title:    "Photosynthesis",
			Objectives: []lessons.LearningObjective{
				{ID: "o1", Statement: "Explain light capture"},
			},
			Sections: []lessons.SectionOutline{{Title: "Introduction", Archetype: "overview"}},
		},
		Content: lessons.ContentBody{Intro: "Plants convert light."},
	}
}

func TestEvaluateLessonParsesVerdict(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if r.Header.Get("Anthropic-Version") == "" {
			t.Errorf("missing version header")
		}
		resp := map[string]any{
			"content": []map[string]string{{"type": "text", "text": verdictJSON}},
			"usage":   map[string]int{"input_tokens": 900, "output_tokens": 400},
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	verdict, err := client.EvaluateLesson(context.Background(), evaluateInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if verdict.OverallScore != 0.87 {
		t.Fatalf("expected score 0.87, got %.2f", verdict.OverallScore)
	}
	if verdict.Confidence != judge.ConfidenceHigh {
		t.Fatalf("expected high confidence, got %s", verdict.Confidence)
	}
	if verdict.TokensUsed != 1300 {
		t.Fatalf("expected 1300 tokens, got %d", verdict.TokensUsed)
	}
	if verdict.JudgeModel != "test-model" {
		t.Fatalf("expected model recorded, got %q", verdict.JudgeModel)
	}
	if len(verdict.Issues) != 1 || verdict.Issues[0].Location != "Light Reactions" {
		t.Fatalf("expected parsed issue, got %+v", verdict.Issues)
	}
}

func TestEvaluateLessonStripsCodeFences(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fenced := "```json\n" + verdictJSON + "\n```"
		resp := map[string]any{
			"content": []map[string]string{{"type": "text", "text": fenced}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	verdict, err := client.EvaluateLesson(context.Background(), evaluateInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !verdict.Passed {
		t.Fatal("expected passed verdict")
	}
}

func TestEvaluateLessonClampsScores(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw := `{"overallScore": 1.4, "passed": true, "confidence": "medium", "criteriaScores": {"factual_accuracy": -0.2}}`
		resp := map[string]any{
			"content": []map[string]string{{"type": "text", "text": raw}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	verdict, err := client.EvaluateLesson(context.Background(), evaluateInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if verdict.OverallScore != 1.0 {
		t.Fatalf("expected clamped score 1.0, got %.2f", verdict.OverallScore)
	}
	if verdict.CriteriaScores.FactualAccuracy != 0 {
		t.Fatalf("expected clamped criteria score 0, got %.2f", verdict.CriteriaScores.FactualAccuracy)
	}
}

func TestEvaluateLessonAPIError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"type":"overloaded_error"}}`, http.StatusTooManyRequests)
	})

	_, err := client.EvaluateLesson(context.Background(), evaluateInput())
	if err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient("", ""); err == nil {
		t.Fatal("expected error without api key")
	}
}
