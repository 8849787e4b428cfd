package evaluations

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"course-backend/internal/entropy"
	"course-backend/internal/lessons"
	"course-backend/internal/shared/server/middleware"
	"course-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the evaluations service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches evaluation routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/lessons/:id/evaluate", h.startEvaluation)
	rg.GET("/evaluations", h.listEvaluations)
	rg.GET("/evaluations/:id", h.getEvaluation)
}

type evaluateRequest struct {
	Spec     lessons.Specification  `json:"spec"`
	Content  lessons.ContentBody    `json:"content"`
	Logprobs []entropy.TokenLogprob `json:"logprobs"`
}

func (h *Handler) startEvaluation(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	lessonID := c.Param("id")
	if lessonID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "lesson id is required", nil)
		return
	}

	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	req.Spec.LessonID = lessonID

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	evaluation, err := h.Svc.Create(ctx, CreateInput{
		LessonID: lessonID,
		UserID:   userID,
		Spec:     req.Spec,
		Content:  req.Content,
		Logprobs: req.Logprobs,
	})
	if err != nil {
		switch {
		case errors.Is(err, lessons.ErrNilSpecification), isValidationError(err):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start evaluation", nil)
		}
		return
	}

	respond.Accepted(c, gin.H{
		"evaluationId": evaluation.ID,
		"status":       evaluation.Status,
		"iteration":    evaluation.IterationCount,
	})
}

func (h *Handler) getEvaluation(c *gin.Context) {
	evaluationID := c.Param("id")
	if evaluationID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "evaluation id is required", nil)
		return
	}

	evaluation, err := h.Svc.Get(c.Request.Context(), evaluationID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "evaluation not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch evaluation", nil)
		}
		return
	}

	resp := gin.H{
		"id":        evaluation.ID,
		"lessonId":  evaluation.LessonID,
		"status":    evaluation.Status,
		"iteration": evaluation.IterationCount,
		"createdAt": evaluation.CreatedAt,
	}
	if evaluation.Status == StatusCompleted && evaluation.Outcome != nil {
		resp["outcome"] = evaluation.Outcome
	}
	if evaluation.Status == StatusFailed && evaluation.ErrorMessage != nil {
		resp["error"] = *evaluation.ErrorMessage
	}

	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) listEvaluations(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	limit := 20
	offset := 0

	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit < 0 {
		limit = 0
	}

	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	evaluations, err := h.Svc.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list evaluations", nil)
		return
	}

	resp := make([]gin.H, 0, len(evaluations))
	for _, e := range evaluations {
		item := gin.H{
			"evaluationId": e.ID,
			"lessonId":     e.LessonID,
			"status":       e.Status,
			"iteration":    e.IterationCount,
			"createdAt":    e.CreatedAt,
		}
		if e.Status == StatusCompleted && e.Outcome != nil {
			item["action"] = e.Outcome.Decision.Action
			if e.Outcome.Verdict != nil {
				item["score"] = e.Outcome.Verdict.OverallScore
			}
		}
		resp = append(resp, item)
	}

	respond.JSON(c, http.StatusOK, resp)
}

func isValidationError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "specification") || strings.Contains(msg, "required")
}
