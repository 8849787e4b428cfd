package evaluations

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"course-backend/internal/decision"
	"course-backend/internal/judge"
	"course-backend/internal/shared/server/middleware"
)

func setupEvaluationRouter(t *testing.T) (*gin.Engine, *MemoryRepo, *captureQueue) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc, repo := setupService(t, staticJudge{
		verdict: judge.Verdict{OverallScore: 0.95, Passed: true, Confidence: judge.ConfidenceHigh},
	})
	q := &captureQueue{}
	svc.Queue = q

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Identity())
	api := router.Group("/api/v1")
	NewHandler(svc).RegisterRoutes(api)
	return router, repo, q
}

func evaluatePayload(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(evaluateRequest{
		Spec:    testSpec(),
		Content: testBody(),
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return body
}

func TestStartEvaluationAccepted(t *testing.T) {
	router, repo, q := setupEvaluationRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/lessons/lesson-1/evaluate", bytes.NewReader(evaluatePayload(t)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "pipeline-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %s", resp.Code, resp.Body.String())
	}

	var created struct {
		EvaluationID string `json:"evaluationId"`
		Status       string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.EvaluationID == "" {
		t.Fatalf("expected evaluationId, got empty")
	}
	if created.Status != StatusQueued {
		t.Fatalf("expected status queued, got %q", created.Status)
	}

	stored, err := repo.GetByID(context.Background(), created.EvaluationID)
	if err != nil {
		t.Fatalf("get evaluation: %v", err)
	}
	if stored.UserID != "pipeline-1" {
		t.Fatalf("expected user from identity header, got %q", stored.UserID)
	}
	if stored.Payload.Spec.LessonID != "lesson-1" {
		t.Fatalf("expected spec lessonId forced to path param, got %q", stored.Payload.Spec.LessonID)
	}
	if len(q.messages) != 1 {
		t.Fatalf("expected 1 queued message, got %d", len(q.messages))
	}
}

func TestStartEvaluationRejectsMalformedBody(t *testing.T) {
	router, _, _ := setupEvaluationRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/lessons/lesson-1/evaluate", bytes.NewReader([]byte("{not-json")))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestStartEvaluationRejectsInvalidSpec(t *testing.T) {
	router, _, _ := setupEvaluationRouter(t)

	payload := evaluateRequest{Spec: testSpec(), Content: testBody()}
	payload.Spec.Objectives = nil
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/lessons/lesson-1/evaluate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestGetEvaluationNotFound(t *testing.T) {
	router, _, _ := setupEvaluationRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/evaluations/missing", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}

func TestGetEvaluationIncludesOutcomeWhenCompleted(t *testing.T) {
	router, repo, _ := setupEvaluationRouter(t)

	evaluation := createQueued(t, repo, "eval-done", nil)
	outcome := &Outcome{
		Verdict:  &judge.Verdict{OverallScore: 0.95, Passed: true},
		Decision: decision.Result{Action: decision.ActionAccept, Reason: "score 0.95 meets acceptance threshold 0.90"},
	}
	completedAt := time.Now().UTC()
	if err := repo.UpdateStatusOutcomeAndError(context.Background(), evaluation.ID, StatusCompleted, outcome, nil, nil, &completedAt); err != nil {
		t.Fatalf("complete evaluation: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/evaluations/"+evaluation.ID, nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var got struct {
		Status  string `json:"status"`
		Outcome *struct {
			Decision decision.Result `json:"decision"`
		} `json:"outcome"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q", got.Status)
	}
	if got.Outcome == nil || got.Outcome.Decision.Action != decision.ActionAccept {
		t.Fatalf("expected accept decision in outcome, got %#v", got.Outcome)
	}
}

func TestListEvaluationsScopedToUser(t *testing.T) {
	router, repo, _ := setupEvaluationRouter(t)

	mine := Evaluation{
		ID: "eval-mine", LessonID: "lesson-1", UserID: "pipeline-1",
		Status: StatusQueued, Payload: Payload{Spec: testSpec(), Content: testBody()},
		CreatedAt: time.Now().UTC(),
	}
	other := Evaluation{
		ID: "eval-other", LessonID: "lesson-2", UserID: "pipeline-2",
		Status: StatusQueued, Payload: Payload{Spec: testSpec(), Content: testBody()},
		CreatedAt: time.Now().UTC(),
	}
	for _, e := range []Evaluation{mine, other} {
		if err := repo.Create(context.Background(), e); err != nil {
			t.Fatalf("create evaluation: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/evaluations", nil)
	req.Header.Set("X-User-Id", "pipeline-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var got []struct {
		EvaluationID string `json:"evaluationId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 1 || got[0].EvaluationID != "eval-mine" {
		t.Fatalf("expected only the caller's evaluation, got %#v", got)
	}
}
