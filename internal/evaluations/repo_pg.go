package evaluations

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const evaluationColumns = `id, lesson_id, user_id, status, iteration_count, previous_scores,
       content_hash, payload, outcome, error_message, started_at, completed_at, created_at, updated_at`

// Create inserts a new evaluation.
func (r *PGRepo) Create(ctx context.Context, evaluation Evaluation) error {
	const query = `
INSERT INTO evaluations (
	id, lesson_id, user_id, status, iteration_count, previous_scores, content_hash, payload, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	payload, err := json.Marshal(evaluation.Payload)
	if err != nil {
		return err
	}
	scores, err := marshalScores(evaluation.PreviousScores)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		evaluation.ID,
		evaluation.LessonID,
		evaluation.UserID,
		evaluation.Status,
		evaluation.IterationCount,
		scores,
		evaluation.ContentHash,
		payload,
		evaluation.CreatedAt,
	)
	return err
}

// GetByID returns an evaluation by ID.
func (r *PGRepo) GetByID(ctx context.Context, evaluationID string) (Evaluation, error) {
	const query = `
SELECT ` + evaluationColumns + `
FROM evaluations
WHERE id = $1
LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, evaluationID)
	return scanEvaluation(row)
}

// GetLatestForLesson returns the newest evaluation for a user's lesson.
func (r *PGRepo) GetLatestForLesson(ctx context.Context, userID, lessonID string) (Evaluation, error) {
	const query = `
SELECT ` + evaluationColumns + `
FROM evaluations
WHERE user_id = $1 AND lesson_id = $2
ORDER BY created_at DESC
LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, userID, lessonID)
	return scanEvaluation(row)
}

// UpdateStatusOutcomeAndError updates status/outcome/error fields and timestamps.
func (r *PGRepo) UpdateStatusOutcomeAndError(ctx context.Context, evaluationID, status string, outcome *Outcome, errorMessage *string, startedAt, completedAt *time.Time) error {
	const query = `
UPDATE evaluations
SET status = $1,
    outcome = COALESCE($2::jsonb, outcome),
    error_message = COALESCE($3::text, error_message),
    started_at = CASE
        WHEN $4::timestamptz IS NOT NULL THEN $4::timestamptz
        WHEN $1 = 'processing' AND started_at IS NULL THEN now()
        ELSE started_at
    END,
    completed_at = CASE
        WHEN $5::timestamptz IS NOT NULL THEN $5::timestamptz
        WHEN ($1 = 'completed' OR $1 = 'failed') AND completed_at IS NULL THEN now()
        ELSE completed_at
    END,
    updated_at = now()
WHERE id = $6::uuid`

	var payload any
	if outcome != nil {
		encoded, err := json.Marshal(outcome)
		if err != nil {
			return err
		}
		payload = encoded
	}

	res, err := r.DB.ExecContext(ctx, query, status, payload, errorMessage, startedAt, completedAt, evaluationID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser lists evaluations for a user ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Evaluation, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	const query = `
SELECT ` + evaluationColumns + `
FROM evaluations
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Evaluation
	for rows.Next() {
		evaluation, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, evaluation)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvaluation(row rowScanner) (Evaluation, error) {
	var e Evaluation
	var previousScores sql.NullString
	var contentHash sql.NullString
	var payload sql.NullString
	var outcome sql.NullString
	var errorMessage sql.NullString
	var startedAt sql.NullTime
	var completedAt sql.NullTime

	err := row.Scan(
		&e.ID,
		&e.LessonID,
		&e.UserID,
		&e.Status,
		&e.IterationCount,
		&previousScores,
		&contentHash,
		&payload,
		&outcome,
		&errorMessage,
		&startedAt,
		&completedAt,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Evaluation{}, ErrNotFound
		}
		return Evaluation{}, err
	}
	if previousScores.Valid {
		if err := json.Unmarshal([]byte(previousScores.String), &e.PreviousScores); err != nil {
			e.PreviousScores = nil
		}
	}
	if contentHash.Valid {
		e.ContentHash = contentHash.String
	}
	if payload.Valid {
		if err := json.Unmarshal([]byte(payload.String), &e.Payload); err != nil {
			e.Payload = Payload{}
		}
	}
	if outcome.Valid {
		var decoded Outcome
		if err := json.Unmarshal([]byte(outcome.String), &decoded); err == nil {
			e.Outcome = &decoded
		}
	}
	if errorMessage.Valid {
		e.ErrorMessage = &errorMessage.String
	}
	if startedAt.Valid {
		e.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		e.CompletedAt = &completedAt.Time
	}
	return e, nil
}

func marshalScores(scores []float64) ([]byte, error) {
	if scores == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(scores)
}
