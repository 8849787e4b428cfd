package judge

import (
	"context"
	"errors"

	"course-backend/internal/lessons"
)

// EvaluateInput carries everything a judge backend needs to grade a draft.
type EvaluateInput struct {
	Spec    lessons.Specification
	Content lessons.ContentBody
	// HeuristicSummary gives the judge the cheap-filter findings so its
	// attention goes to what the heuristics cannot measure.
	HeuristicSummary string
}

// Client abstracts model-judge providers.
type Client interface {
	EvaluateLesson(ctx context.Context, input EvaluateInput) (Verdict, error)
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("judge not implemented")

// PlaceholderClient is a stub implementation until provider wiring is added.
type PlaceholderClient struct{}

// EvaluateLesson returns ErrNotImplemented.
func (PlaceholderClient) EvaluateLesson(ctx context.Context, input EvaluateInput) (Verdict, error) {
	_ = ctx
	_ = input
	return Verdict{}, ErrNotImplemented
}
