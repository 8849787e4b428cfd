package evaluations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"course-backend/internal/decision"
	"course-backend/internal/entropy"
	"course-backend/internal/judge"
	"course-backend/internal/lessons"
	"course-backend/internal/queue"
	"course-backend/internal/shared/metrics"
	"course-backend/internal/shared/telemetry"
	"course-backend/internal/shared/util"
)

// DefaultQualityThreshold marks accepted-but-mediocre outcomes as partial
// successes so downstream publishing can treat them differently.
const DefaultQualityThreshold = 0.75

// CreateInput is everything a caller submits to start an evaluation.
type CreateInput struct {
	LessonID string
	UserID   string
	Spec     lessons.Specification
	Content  lessons.ContentBody
	Logprobs []entropy.TokenLogprob
}

// Service contains business logic for evaluations.
type Service struct {
	Repo             Repo
	Cascade          *judge.Cascade
	Engine           *decision.Engine
	EntropyCfg       entropy.Config
	Queue            queue.Client
	QualityThreshold float64
}

// Create enqueues a new evaluation. With a queue configured the heavy work
// is handed to the worker; otherwise it completes asynchronously in-process.
func (s *Service) Create(ctx context.Context, input CreateInput) (Evaluation, error) {
	if input.LessonID == "" || input.UserID == "" {
		return Evaluation{}, errors.New("lessonID and userID are required")
	}
	if err := lessons.ValidateSpecification(&input.Spec); err != nil {
		return Evaluation{}, err
	}

	evaluation := Evaluation{
		ID:       uuid.NewString(),
		LessonID: input.LessonID,
		UserID:   input.UserID,
		Status:   StatusQueued,
		Payload: Payload{
			Spec:     input.Spec,
			Content:  input.Content,
			Logprobs: input.Logprobs,
		},
		ContentHash: util.HashContent(input.Content.Markdown()),
		CreatedAt:   time.Now().UTC(),
	}

	// A repeat evaluation of the same lesson carries the refinement history
	// forward so the decision engine can spot diminishing returns.
	if previous, err := s.Repo.GetLatestForLesson(ctx, input.UserID, input.LessonID); err == nil {
		evaluation.IterationCount = previous.IterationCount + 1
		evaluation.PreviousScores = append(append([]float64{}, previous.PreviousScores...), previousScore(previous))
	} else if !errors.Is(err, ErrNotFound) {
		return Evaluation{}, err
	}

	if err := s.Repo.Create(ctx, evaluation); err != nil {
		return Evaluation{}, err
	}

	if s.Queue != nil {
		msg := queue.Message{
			EvaluationID: evaluation.ID,
			RequestID:    requestIDFromContext(ctx),
			EnqueuedAt:   time.Now().UTC().Format(time.RFC3339),
			Version:      1,
		}
		if err := s.Queue.Send(ctx, msg); err != nil {
			return Evaluation{}, fmt.Errorf("enqueue evaluation: %w", err)
		}
		return evaluation, nil
	}

	go s.completeAsync(backgroundWithRequestID(ctx), evaluation.ID)

	return evaluation, nil
}

// Get returns an evaluation by ID.
func (s *Service) Get(ctx context.Context, evaluationID string) (Evaluation, error) {
	if evaluationID == "" {
		return Evaluation{}, errors.New("evaluationID is required")
	}
	return s.Repo.GetByID(ctx, evaluationID)
}

// List returns evaluations for a user ordered newest-first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Evaluation, error) {
	if userID == "" {
		return nil, errors.New("userID is required")
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// Process runs the full judge-and-decide pipeline for a queued evaluation.
// Exported for the queue worker; Create uses it via completeAsync.
func (s *Service) Process(ctx context.Context, evaluationID string) error {
	startedAt := time.Now().UTC()
	if err := s.Repo.UpdateStatusOutcomeAndError(ctx, evaluationID, StatusProcessing, nil, nil, &startedAt, nil); err != nil {
		return fmt.Errorf("set processing failed: %w", err)
	}

	evaluation, err := s.Repo.GetByID(ctx, evaluationID)
	if err != nil {
		return fmt.Errorf("evaluation lookup: %w", err)
	}
	metrics.IncEvaluationStarted()
	telemetry.Info("evaluation.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"user_id":           evaluation.UserID,
		"lesson_id":         evaluation.LessonID,
		"evaluation_id":     evaluation.ID,
		"status":            StatusProcessing,
		"status_transition": "queued->processing",
	})
	if s.Cascade == nil || s.Engine == nil {
		return errors.New("missing cascade or decision engine")
	}

	cascade, err := s.Cascade.Evaluate(ctx, evaluation.Payload.Spec, evaluation.Payload.Content)
	if err != nil {
		return fmt.Errorf("cascade evaluate: %w", err)
	}

	entropyResult := entropy.Analyze(evaluation.Payload.Content.PlainText(), evaluation.Payload.Logprobs, s.EntropyCfg)

	dec, err := s.decide(evaluation, cascade, entropyResult)
	if err != nil {
		return fmt.Errorf("decision: %w", err)
	}

	outcome := &Outcome{
		Heuristics:     cascade.Heuristics,
		Verdict:        cascade.Verdict,
		Entropy:        entropyResult,
		Decision:       dec,
		JudgeCalls:     cascade.JudgeCalls,
		PartialSuccess: dec.Action == decision.ActionAccept && overallScore(cascade) < s.qualityThreshold(),
	}

	completedAt := time.Now().UTC()
	if err := s.Repo.UpdateStatusOutcomeAndError(ctx, evaluationID, StatusCompleted, outcome, nil, nil, &completedAt); err != nil {
		return fmt.Errorf("set outcome failed: %w", err)
	}
	metrics.IncEvaluationCompleted()
	metrics.AddJudgeCalls(cascade.JudgeCalls)
	metrics.IncDecisionAction(string(dec.Action))
	metrics.ObserveEvaluationDurationMs(durationMs(&startedAt, &completedAt))
	telemetry.Info("evaluation.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"user_id":           evaluation.UserID,
		"lesson_id":         evaluation.LessonID,
		"evaluation_id":     evaluation.ID,
		"status":            StatusCompleted,
		"status_transition": "processing->completed",
		"action":            string(dec.Action),
		"judge_calls":       cascade.JudgeCalls,
		"partial_success":   outcome.PartialSuccess,
		"duration_ms":       durationMs(&startedAt, &completedAt),
	})
	return nil
}

// decide maps the cascade and entropy outputs onto a routing decision.
func (s *Service) decide(evaluation Evaluation, cascade judge.CascadeResult, entropyResult entropy.AnalysisResult) (decision.Result, error) {
	var dec decision.Result
	if cascade.Verdict == nil {
		// Heuristics rejected before any judge call. There is no verdict to
		// grade against, so the content goes straight back for regeneration.
		dec = decision.Result{
			Action:                  decision.ActionRegenerate,
			Reason:                  "failed heuristic gate: " + strings.Join(cascade.FailureReasons, "; "),
			FeedbackForRegeneration: heuristicFeedback(cascade),
		}
	} else {
		decCtx := decision.Context{
			Score:                     cascade.Verdict.OverallScore,
			Confidence:                cascade.Verdict.Confidence,
			Issues:                    cascade.Verdict.Issues,
			IterationCount:            evaluation.IterationCount,
			PreviousScores:            evaluation.PreviousScores,
			ContentAffectedPercentage: decision.ContentAffectedPercentage(cascade.Verdict.Issues, len(evaluation.Payload.Content.Sections)),
		}
		var err error
		dec, err = s.Engine.MakeDecision(decCtx)
		if err != nil {
			return decision.Result{}, err
		}
	}

	// High token entropy overrides an accept: hallucination risk needs a
	// human eye even when the judge liked the prose.
	if dec.Action == decision.ActionAccept && entropy.ShouldTriggerVerification(entropyResult, s.EntropyCfg) {
		dec = decision.Result{
			Action: decision.ActionEscalateToHuman,
			Reason: fmt.Sprintf("accepted by judge but %d high-entropy spans require factual verification", len(entropyResult.FlaggedSpans)),
		}
	}
	return dec, nil
}

func (s *Service) qualityThreshold() float64 {
	if s.QualityThreshold > 0 {
		return s.QualityThreshold
	}
	return DefaultQualityThreshold
}

func (s *Service) completeAsync(ctx context.Context, evaluationID string) {
	defer func() {
		if r := recover(); r != nil {
			s.failEvaluation(ctx, evaluationID, fmt.Errorf("panic: %v", r), nil)
		}
	}()
	startedAt := time.Now().UTC()
	if err := s.Process(ctx, evaluationID); err != nil {
		s.failEvaluation(ctx, evaluationID, err, &startedAt)
	}
}

func (s *Service) failEvaluation(ctx context.Context, evaluationID string, err error, startedAt *time.Time) {
	msg := sanitizeError(err)
	completedAt := time.Now().UTC()
	if updateErr := s.Repo.UpdateStatusOutcomeAndError(context.Background(), evaluationID, StatusFailed, nil, &msg, nil, &completedAt); updateErr != nil {
		telemetry.Error("evaluation.fail_update", map[string]any{
			"evaluation_id": evaluationID,
			"error":         updateErr.Error(),
			"original":      msg,
		})
	}
	metrics.IncEvaluationFailed()
	if startedAt != nil {
		metrics.ObserveEvaluationDurationMs(durationMs(startedAt, &completedAt))
	}
	telemetry.Info("evaluation.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"evaluation_id":     evaluationID,
		"status":            StatusFailed,
		"status_transition": "processing->failed",
		"error_code":        classifyFailure(err),
		"error":             msg,
		"duration_ms":       durationMs(startedAt, &completedAt),
	})
}

func previousScore(evaluation Evaluation) float64 {
	if evaluation.Outcome == nil {
		return 0
	}
	if evaluation.Outcome.Verdict != nil {
		return evaluation.Outcome.Verdict.OverallScore
	}
	return evaluation.Outcome.Heuristics.Score
}

func overallScore(cascade judge.CascadeResult) float64 {
	if cascade.Verdict != nil {
		return cascade.Verdict.OverallScore
	}
	return cascade.Heuristics.Score
}

func heuristicFeedback(cascade judge.CascadeResult) string {
	var b strings.Builder
	b.WriteString("Automated checks rejected this draft before judging.\n\nProblems found:\n")
	for _, reason := range cascade.FailureReasons {
		b.WriteString("- " + reason + "\n")
	}
	if len(cascade.Heuristics.Suggestions) > 0 {
		b.WriteString("\nSuggested fixes:\n")
		for _, suggestion := range cascade.Heuristics.Suggestions {
			b.WriteString("- " + suggestion + "\n")
		}
	}
	return b.String()
}

func durationMs(startedAt, completedAt *time.Time) float64 {
	if startedAt == nil || completedAt == nil {
		return 0
	}
	return float64(completedAt.Sub(*startedAt).Microseconds()) / 1000.0
}

func classifyFailure(err error) string {
	if err == nil {
		return ErrorCodeInternal
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorCodeJudgeTimeout
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") && strings.Contains(msg, "judge"):
		return ErrorCodeJudgeTimeout
	case strings.Contains(msg, "parse judge verdict") || strings.Contains(msg, "judge response"):
		return ErrorCodeJudgeSchema
	case strings.Contains(msg, "specification") || strings.Contains(msg, "required"):
		return ErrorCodeValidation
	case strings.Contains(msg, "set processing") || strings.Contains(msg, "set outcome") || strings.Contains(msg, "lookup"):
		return ErrorCodeStorage
	default:
		return ErrorCodeInternal
	}
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
