package evaluations

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreateMarshalsPayload(t *testing.T) {
	repo, mock := newMockRepo(t)
	evaluation := Evaluation{
		ID:             "eval-1",
		LessonID:       "lesson-1",
		UserID:         "user-1",
		Status:         StatusQueued,
		IterationCount: 2,
		PreviousScores: []float64{0.55, 0.68},
		ContentHash:    "deadbeef",
		Payload: Payload{
			Spec:    testSpec(),
			Content: testBody(),
		},
		CreatedAt: time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO evaluations").
		WithArgs(
			evaluation.ID,
			evaluation.LessonID,
			evaluation.UserID,
			evaluation.Status,
			evaluation.IterationCount,
			[]byte(`[0.55,0.68]`),
			evaluation.ContentHash,
			sqlmock.AnyArg(), // payload json
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), evaluation); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDDecodesOutcome(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	columns := []string{
		"id", "lesson_id", "user_id", "status", "iteration_count", "previous_scores",
		"content_hash", "payload", "outcome", "error_message", "started_at", "completed_at", "created_at", "updated_at",
	}
	outcomeJSON := `{"decision":{"action":"accept","reason":"score 0.95 meets acceptance threshold 0.90"},"judgeCalls":1}`
	rows := sqlmock.NewRows(columns).AddRow(
		"eval-1", "lesson-1", "user-1", StatusCompleted, 1, `[0.7]`,
		"deadbeef", `{}`, outcomeJSON, nil, now, now, now, now,
	)
	mock.ExpectQuery("SELECT (.+) FROM evaluations").
		WithArgs("eval-1").
		WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), "eval-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
	if len(got.PreviousScores) != 1 || got.PreviousScores[0] != 0.7 {
		t.Fatalf("expected previous scores [0.7], got %v", got.PreviousScores)
	}
	if got.Outcome == nil || got.Outcome.JudgeCalls != 1 {
		t.Fatalf("expected decoded outcome, got %#v", got.Outcome)
	}
	if got.StartedAt == nil || got.CompletedAt == nil {
		t.Fatalf("expected timestamps decoded")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	columns := []string{
		"id", "lesson_id", "user_id", "status", "iteration_count", "previous_scores",
		"content_hash", "payload", "outcome", "error_message", "started_at", "completed_at", "created_at", "updated_at",
	}
	mock.ExpectQuery("SELECT (.+) FROM evaluations").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(columns))

	if _, err := repo.GetByID(context.Background(), "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoUpdateReturnsNotFoundOnZeroRows(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("UPDATE evaluations").
		WithArgs(StatusProcessing, nil, nil, sqlmock.AnyArg(), nil, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	startedAt := time.Now().UTC()
	err := repo.UpdateStatusOutcomeAndError(context.Background(), "missing", StatusProcessing, nil, nil, &startedAt, nil)
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListByUserClampsLimit(t *testing.T) {
	repo, mock := newMockRepo(t)
	columns := []string{
		"id", "lesson_id", "user_id", "status", "iteration_count", "previous_scores",
		"content_hash", "payload", "outcome", "error_message", "started_at", "completed_at", "created_at", "updated_at",
	}
	mock.ExpectQuery("SELECT (.+) FROM evaluations").
		WithArgs("user-1", 100, 0).
		WillReturnRows(sqlmock.NewRows(columns))

	if _, err := repo.ListByUser(context.Background(), "user-1", 500, -3); err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
