// Package workbench is the reviewer-facing client core: the allocation
// queue paginator, the draft cache, and the session that coordinates
// selection, fetches, and submits against the review API.
package workbench

import (
	"context"

	"github.com/google/uuid"

	"github.com/cropdesk/review-engine/pkg/models"
)

// QuestionFull is a question with its full history ledger, as returned by
// the review API.
type QuestionFull struct {
	Question      *models.Question      `json:"question"`
	Submission    *models.Submission    `json:"submission"`
	DisplayStatus models.QuestionStatus `json:"display_status"`
	Reroute       *models.Reroute       `json:"reroute,omitempty"`
}

// ReviewAPI is the transport-agnostic contract the workbench consumes.
// pkg/client implements it over HTTP; tests substitute fakes.
type ReviewAPI interface {
	// ListAllocatedQuestions returns one page of the reviewer's queue.
	ListAllocatedQuestions(ctx context.Context, filter models.AllocationFilter, page, pageSize int) (*models.QuestionPage, error)

	// QuestionPageIndex resolves which page a question occupies under the
	// filter, for jump-to-question navigation.
	QuestionPageIndex(ctx context.Context, filter models.AllocationFilter, questionID uuid.UUID, pageSize int) (int, error)

	// GetQuestion loads a question with its ledger.
	GetQuestion(ctx context.Context, questionID uuid.UUID, actionType models.AllocationActionType) (*QuestionFull, error)

	// SubmitInitialAnswer opens a fresh review iteration.
	SubmitInitialAnswer(ctx context.Context, questionID uuid.UUID, answer models.AnswerInput, requestID uuid.UUID) (*models.HistoryItem, error)

	// Accept, Reject and Modify submit review transitions.
	Accept(ctx context.Context, decision models.AcceptDecision) (*models.HistoryItem, error)
	Reject(ctx context.Context, decision models.RejectDecision) (*models.HistoryItem, error)
	Modify(ctx context.Context, decision models.ModifyDecision) (*models.HistoryItem, error)

	// Reroute escalates the answer under review; RejectReroute declines
	// an escalation.
	Reroute(ctx context.Context, decision models.RerouteDecision) (*models.Reroute, error)
	RejectReroute(ctx context.Context, decision models.RejectRerouteDecision) error
}
