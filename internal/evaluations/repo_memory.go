package evaluations

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores evaluations in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu     sync.RWMutex
	byID   map[string]Evaluation
	byUser map[string][]Evaluation
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:   make(map[string]Evaluation),
		byUser: make(map[string][]Evaluation),
	}
}

// Create stores the evaluation.
func (r *MemoryRepo) Create(ctx context.Context, evaluation Evaluation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[evaluation.ID] = evaluation
	r.byUser[evaluation.UserID] = append(r.byUser[evaluation.UserID], evaluation)
	return nil
}

// GetByID returns an evaluation by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, evaluationID string) (Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return Evaluation{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	evaluation, ok := r.byID[evaluationID]
	if !ok {
		return Evaluation{}, ErrNotFound
	}
	return evaluation, nil
}

// GetLatestForLesson returns the newest evaluation for a user's lesson.
func (r *MemoryRepo) GetLatestForLesson(ctx context.Context, userID, lessonID string) (Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return Evaluation{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest Evaluation
	found := false
	for _, evaluation := range r.byUser[userID] {
		if evaluation.LessonID != lessonID {
			continue
		}
		if !found || evaluation.CreatedAt.After(latest.CreatedAt) {
			latest = evaluation
			found = true
		}
	}
	if !found {
		return Evaluation{}, ErrNotFound
	}
	return latest, nil
}

// UpdateStatusOutcomeAndError updates status/outcome/error fields and timestamps.
func (r *MemoryRepo) UpdateStatusOutcomeAndError(ctx context.Context, evaluationID, status string, outcome *Outcome, errorMessage *string, startedAt, completedAt *time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	evaluation, ok := r.byID[evaluationID]
	if !ok {
		return ErrNotFound
	}
	evaluation.Status = status
	if outcome != nil {
		evaluation.Outcome = outcome
	}
	if errorMessage != nil {
		evaluation.ErrorMessage = errorMessage
	}
	if startedAt != nil {
		evaluation.StartedAt = startedAt
	} else if status == StatusProcessing && evaluation.StartedAt == nil {
		now := time.Now().UTC()
		evaluation.StartedAt = &now
	}
	if completedAt != nil {
		evaluation.CompletedAt = completedAt
	} else if (status == StatusCompleted || status == StatusFailed) && evaluation.CompletedAt == nil {
		now := time.Now().UTC()
		evaluation.CompletedAt = &now
	}
	evaluation.UpdatedAt = time.Now().UTC()
	r.byID[evaluationID] = evaluation

	userEvaluations := r.byUser[evaluation.UserID]
	for i := range userEvaluations {
		if userEvaluations[i].ID == evaluationID {
			userEvaluations[i] = evaluation
			break
		}
	}
	r.byUser[evaluation.UserID] = userEvaluations

	return nil
}

// ListByUser returns evaluations for a user, newest first, with limit/offset.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Evaluation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	userEvaluations := r.byUser[userID]
	r.mu.RUnlock()

	if len(userEvaluations) == 0 || offset >= len(userEvaluations) {
		return []Evaluation{}, nil
	}

	evaluations := make([]Evaluation, len(userEvaluations))
	copy(evaluations, userEvaluations)
	sort.Slice(evaluations, func(i, j int) bool {
		return evaluations[i].CreatedAt.After(evaluations[j].CreatedAt)
	})

	end := len(evaluations)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return evaluations[offset:end], nil
}

var _ Repo = (*MemoryRepo)(nil)
