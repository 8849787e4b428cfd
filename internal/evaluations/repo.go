package evaluations

import (
	"context"
	"time"
)

// Repo defines persistence operations for evaluations.
type Repo interface {
	Create(ctx context.Context, evaluation Evaluation) error
	GetByID(ctx context.Context, evaluationID string) (Evaluation, error)
	GetLatestForLesson(ctx context.Context, userID, lessonID string) (Evaluation, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Evaluation, error)
	UpdateStatusOutcomeAndError(ctx context.Context, evaluationID, status string, outcome *Outcome, errorMessage *string, startedAt, completedAt *time.Time) error
}
