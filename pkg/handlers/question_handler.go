package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cropdesk/review-engine/pkg/auth"
	"github.com/cropdesk/review-engine/pkg/models"
	"github.com/cropdesk/review-engine/pkg/services"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// PageIndexResponse for GET /questions/{qid}/page-index
type PageIndexResponse struct {
	QuestionID uuid.UUID `json:"question_id"`
	Page       int       `json:"page"`
}

// ============================================================================
// Handler
// ============================================================================

// QuestionHandler handles allocation queue and question detail HTTP requests.
type QuestionHandler struct {
	allocationService services.AllocationService
	reviewService     services.ReviewService
	logger            *zap.Logger
}

// NewQuestionHandler creates a new question handler.
func NewQuestionHandler(
	allocationService services.AllocationService,
	reviewService services.ReviewService,
	logger *zap.Logger,
) *QuestionHandler {
	return &QuestionHandler{
		allocationService: allocationService,
		reviewService:     reviewService,
		logger:            logger,
	}
}

// RegisterRoutes registers the question handler's routes on the given mux.
func (h *QuestionHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/questions",
		authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("GET /api/questions/{qid}",
		authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("GET /api/questions/{qid}/page-index",
		authMiddleware.RequireAuth(h.PageIndex))
}

// List handles GET /api/questions
func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseAllocationFilter(r)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_filter", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "limit", 0)

	result, err := h.allocationService.List(r.Context(), filter, page, pageSize)
	if err != nil {
		h.logger.Error("Failed to list allocated questions", zap.Error(err))
		writeServiceError(w, h.logger, "list_questions_failed", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: result}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/questions/{qid}
func (h *QuestionHandler) Get(w http.ResponseWriter, r *http.Request) {
	questionID, ok := ParseQuestionID(w, r, h.logger)
	if !ok {
		return
	}

	actionType, err := parseActionType(r.URL.Query().Get("action_type"))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_action_type", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	question, err := h.reviewService.GetQuestion(r.Context(), questionID, actionType)
	if err != nil {
		h.logger.Error("Failed to load question",
			zap.String("question_id", questionID.String()),
			zap.Error(err))
		writeServiceError(w, h.logger, "get_question_failed", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: question}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// PageIndex handles GET /api/questions/{qid}/page-index
func (h *QuestionHandler) PageIndex(w http.ResponseWriter, r *http.Request) {
	questionID, ok := ParseQuestionID(w, r, h.logger)
	if !ok {
		return
	}

	filter, err := parseAllocationFilter(r)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_filter", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	page, err := h.allocationService.PageIndexOf(r.Context(), filter, questionID, queryInt(r, "limit", 0))
	if err != nil {
		h.logger.Error("Failed to resolve question page",
			zap.String("question_id", questionID.String()),
			zap.Error(err))
		writeServiceError(w, h.logger, "page_index_failed", err)
		return
	}

	response := PageIndexResponse{QuestionID: questionID, Page: page}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ============================================================================
// Query parsing
// ============================================================================

func parseAllocationFilter(r *http.Request) (models.AllocationFilter, error) {
	q := r.URL.Query()
	filter := models.AllocationFilter{
		Source: q.Get("source"),
		State:  q.Get("state"),
		Crop:   q.Get("crop"),
		Domain: q.Get("domain"),
	}

	for _, raw := range strings.Split(q.Get("status"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		status := models.QuestionStatus(raw)
		if !models.IsValidQuestionStatus(status) {
			return models.AllocationFilter{}, fmt.Errorf("unknown status %q", raw)
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	if raw := q.Get("priority"); raw != "" {
		priority := models.QuestionPriority(raw)
		if !models.IsValidPriority(priority) {
			return models.AllocationFilter{}, fmt.Errorf("unknown priority %q", raw)
		}
		filter.Priority = priority
	}

	if raw := q.Get("user_id"); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			return models.AllocationFilter{}, fmt.Errorf("invalid user_id %q", raw)
		}
		filter.UserID = userID
	}

	if raw := q.Get("created_after"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return models.AllocationFilter{}, fmt.Errorf("invalid created_after %q", raw)
		}
		filter.CreatedAfter = &t
	}
	if raw := q.Get("created_before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return models.AllocationFilter{}, fmt.Errorf("invalid created_before %q", raw)
		}
		filter.CreatedBefore = &t
	}

	if raw := q.Get("min_answers"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return models.AllocationFilter{}, fmt.Errorf("invalid min_answers %q", raw)
		}
		filter.MinAnswers = &n
	}
	if raw := q.Get("max_answers"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return models.AllocationFilter{}, fmt.Errorf("invalid max_answers %q", raw)
		}
		filter.MaxAnswers = &n
	}

	actionType, err := parseActionType(q.Get("action_type"))
	if err != nil {
		return models.AllocationFilter{}, err
	}
	filter.ActionType = actionType

	filter.ReviewLevel = queryInt(r, "review_level", 0)
	return filter, nil
}

// parseActionType normalizes the queue selector. The legacy client spells
// the reroute queue "re-roted"; both spellings are accepted.
func parseActionType(raw string) (models.AllocationActionType, error) {
	switch raw {
	case "", string(models.ActionTypeAllocated):
		return models.ActionTypeAllocated, nil
	case string(models.ActionTypeReroute), "re-roted":
		return models.ActionTypeReroute, nil
	default:
		return "", fmt.Errorf("unknown action_type %q", raw)
	}
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
