package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cropdesk/review-engine/pkg/apperrors"
	"github.com/cropdesk/review-engine/pkg/auth"
	"github.com/cropdesk/review-engine/pkg/jsonutil"
	"github.com/cropdesk/review-engine/pkg/models"
	"github.com/cropdesk/review-engine/pkg/services"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// SubmitAnswerRequest for POST /questions/{qid}/answers
type SubmitAnswerRequest struct {
	Answer    string                       `json:"answer"`
	Sources   jsonutil.FlexibleStringSlice `json:"sources"`
	Remarks   string                       `json:"remarks,omitempty"`
	RequestID uuid.UUID                    `json:"request_id,omitempty"`
}

// SubmitReviewRequest for POST /questions/{qid}/review. It is a tagged
// payload: type selects the queue the review acts in, status selects the
// transition. The reason and answer fields used depend on status.
type SubmitReviewRequest struct {
	Type                  string                       `json:"type"`
	Status                string                       `json:"status"`
	Parameters            *models.Checklist            `json:"parameters,omitempty"`
	Override              bool                         `json:"override,omitempty"`
	ApprovedAnswer        *uuid.UUID                   `json:"approvedAnswer,omitempty"`
	RejectedAnswer        *uuid.UUID                   `json:"rejectedAnswer,omitempty"`
	ModifiedAnswer        *uuid.UUID                   `json:"modifiedAnswer,omitempty"`
	ReasonForRejection    string                       `json:"reasonForRejection,omitempty"`
	ReasonForModification string                       `json:"reasonForModification,omitempty"`
	Answer                string                       `json:"answer,omitempty"`
	Sources               jsonutil.FlexibleStringSlice `json:"sources,omitempty"`
	Remarks               string                       `json:"remarks,omitempty"`
	RequestID             uuid.UUID                    `json:"request_id,omitempty"`
}

// RerouteRequest for POST /questions/{qid}/reroute
type RerouteRequest struct {
	AnswerID   uuid.UUID `json:"answer_id"`
	ReroutedTo uuid.UUID `json:"rerouted_to"`
	Comment    string    `json:"comment,omitempty"`
	RequestID  uuid.UUID `json:"request_id,omitempty"`
}

// RejectRerouteRequest for POST /reroutes/{rid}/reject
type RejectRerouteRequest struct {
	QuestionID  uuid.UUID `json:"question_id"`
	ModeratorID uuid.UUID `json:"moderator_id"`
	ExpertID    uuid.UUID `json:"expert_id"`
	Reason      string    `json:"reason"`
	RequestID   uuid.UUID `json:"request_id,omitempty"`
}

// ============================================================================
// Handler
// ============================================================================

// ReviewHandler handles review transition HTTP requests.
type ReviewHandler struct {
	reviewService  services.ReviewService
	rerouteService services.RerouteService
	logger         *zap.Logger
}

// NewReviewHandler creates a new review handler.
func NewReviewHandler(
	reviewService services.ReviewService,
	rerouteService services.RerouteService,
	logger *zap.Logger,
) *ReviewHandler {
	return &ReviewHandler{
		reviewService:  reviewService,
		rerouteService: rerouteService,
		logger:         logger,
	}
}

// RegisterRoutes registers the review handler's routes on the given mux.
// Reroute creation is moderator-only; everything else needs any reviewer
// role.
func (h *ReviewHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/questions/{qid}/answers",
		authMiddleware.RequireAuth(h.SubmitAnswer))
	mux.HandleFunc("POST /api/questions/{qid}/review",
		authMiddleware.RequireAuth(h.SubmitReview))
	mux.HandleFunc("POST /api/questions/{qid}/reroute",
		authMiddleware.RequireRole(models.RoleModerator)(h.Reroute))
	mux.HandleFunc("POST /api/reroutes/{rid}/reject",
		authMiddleware.RequireAuth(h.RejectReroute))
}

// SubmitAnswer handles POST /api/questions/{qid}/answers
func (h *ReviewHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	questionID, ok := ParseQuestionID(w, r, h.logger)
	if !ok {
		return
	}

	var req SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	item, err := h.reviewService.SubmitInitialAnswer(r.Context(), questionID, models.AnswerInput{
		Text:    req.Answer,
		Sources: []string(req.Sources),
		Remarks: req.Remarks,
	}, req.RequestID)
	if err != nil {
		h.logger.Warn("Initial answer rejected",
			zap.String("question_id", questionID.String()),
			zap.Error(err))
		writeServiceError(w, h.logger, "submit_answer_failed", err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: item}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// SubmitReview handles POST /api/questions/{qid}/review
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	questionID, ok := ParseQuestionID(w, r, h.logger)
	if !ok {
		return
	}

	var req SubmitReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if _, err := parseActionType(req.Type); err != nil {
		writeServiceError(w, h.logger, "submit_review_failed",
			fmt.Errorf("%w: %s", apperrors.ErrValidation, err))
		return
	}
	if req.Parameters == nil {
		writeServiceError(w, h.logger, "submit_review_failed",
			fmt.Errorf("%w: checklist parameters are required", apperrors.ErrValidation))
		return
	}

	item, err := h.dispatchReview(r, questionID, &req)
	if err != nil {
		h.logger.Warn("Review rejected",
			zap.String("question_id", questionID.String()),
			zap.String("status", req.Status),
			zap.Error(err))
		writeServiceError(w, h.logger, "submit_review_failed", err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: item}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// dispatchReview maps the tagged payload to the matching decision
// constructor and state machine operation.
func (h *ReviewHandler) dispatchReview(r *http.Request, questionID uuid.UUID, req *SubmitReviewRequest) (*models.HistoryItem, error) {
	switch models.ReviewAction(req.Status) {
	case models.ActionAccepted:
		if req.ApprovedAnswer == nil {
			return nil, fmt.Errorf("%w: approvedAnswer is required", apperrors.ErrValidation)
		}
		decision, err := models.NewAcceptDecision(questionID, *req.ApprovedAnswer, *req.Parameters, req.Override)
		if err != nil {
			return nil, err
		}
		if req.RequestID != uuid.Nil {
			decision.RequestID = req.RequestID
		}
		return h.reviewService.Accept(r.Context(), decision)

	case models.ActionRejected:
		if req.RejectedAnswer == nil {
			return nil, fmt.Errorf("%w: rejectedAnswer is required", apperrors.ErrValidation)
		}
		decision, err := models.NewRejectDecision(questionID, *req.RejectedAnswer, *req.Parameters, req.ReasonForRejection, models.AnswerInput{
			Text:    req.Answer,
			Sources: []string(req.Sources),
			Remarks: req.Remarks,
		})
		if err != nil {
			return nil, err
		}
		if req.RequestID != uuid.Nil {
			decision.RequestID = req.RequestID
		}
		return h.reviewService.Reject(r.Context(), decision)

	case models.ActionModified:
		if req.ModifiedAnswer == nil {
			return nil, fmt.Errorf("%w: modifiedAnswer is required", apperrors.ErrValidation)
		}
		decision, err := models.NewModifyDecision(questionID, *req.ModifiedAnswer, *req.Parameters, req.ReasonForModification, models.AnswerInput{
			Text:    req.Answer,
			Sources: []string(req.Sources),
			Remarks: req.Remarks,
		})
		if err != nil {
			return nil, err
		}
		if req.RequestID != uuid.Nil {
			decision.RequestID = req.RequestID
		}
		return h.reviewService.Modify(r.Context(), decision)

	default:
		return nil, fmt.Errorf("%w: unknown review status %q", apperrors.ErrValidation, req.Status)
	}
}

// Reroute handles POST /api/questions/{qid}/reroute
func (h *ReviewHandler) Reroute(w http.ResponseWriter, r *http.Request) {
	questionID, ok := ParseQuestionID(w, r, h.logger)
	if !ok {
		return
	}

	var req RerouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	decision, err := models.NewRerouteDecision(questionID, req.AnswerID, req.ReroutedTo, req.Comment)
	if err != nil {
		writeServiceError(w, h.logger, "reroute_failed", err)
		return
	}
	if req.RequestID != uuid.Nil {
		decision.RequestID = req.RequestID
	}

	reroute, err := h.rerouteService.Reroute(r.Context(), decision)
	if err != nil {
		h.logger.Warn("Reroute rejected",
			zap.String("question_id", questionID.String()),
			zap.Error(err))
		writeServiceError(w, h.logger, "reroute_failed", err)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: reroute}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// RejectReroute handles POST /api/reroutes/{rid}/reject
func (h *ReviewHandler) RejectReroute(w http.ResponseWriter, r *http.Request) {
	rerouteID, ok := ParseRerouteID(w, r, h.logger)
	if !ok {
		return
	}

	var req RejectRerouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	decision, err := models.NewRejectRerouteDecision(rerouteID, req.QuestionID, req.ModeratorID, req.ExpertID, req.Reason)
	if err != nil {
		writeServiceError(w, h.logger, "reject_reroute_failed", err)
		return
	}
	if req.RequestID != uuid.Nil {
		decision.RequestID = req.RequestID
	}

	if err := h.rerouteService.RejectReroute(r.Context(), decision); err != nil {
		h.logger.Warn("Reroute decline rejected",
			zap.String("reroute_id", rerouteID.String()),
			zap.Error(err))
		writeServiceError(w, h.logger, "reject_reroute_failed", err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
