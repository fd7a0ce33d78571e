package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/cropdesk/review-engine/pkg/models"
	"github.com/cropdesk/review-engine/pkg/services"
)

// mockReviewService records the last decision it saw and returns canned
// results.
type mockReviewService struct {
	question *services.QuestionWithLedger
	item     *models.HistoryItem
	err      error

	lastAccept *models.AcceptDecision
	lastReject *models.RejectDecision
	lastModify *models.ModifyDecision
	lastAnswer *models.AnswerInput
}

func (m *mockReviewService) GetQuestion(ctx context.Context, questionID uuid.UUID, actionType models.AllocationActionType) (*services.QuestionWithLedger, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.question, nil
}

func (m *mockReviewService) SubmitInitialAnswer(ctx context.Context, questionID uuid.UUID, answer models.AnswerInput, requestID uuid.UUID) (*models.HistoryItem, error) {
	m.lastAnswer = &answer
	if m.err != nil {
		return nil, m.err
	}
	return m.item, nil
}

func (m *mockReviewService) Accept(ctx context.Context, decision models.AcceptDecision) (*models.HistoryItem, error) {
	m.lastAccept = &decision
	if m.err != nil {
		return nil, m.err
	}
	return m.item, nil
}

func (m *mockReviewService) Reject(ctx context.Context, decision models.RejectDecision) (*models.HistoryItem, error) {
	m.lastReject = &decision
	if m.err != nil {
		return nil, m.err
	}
	return m.item, nil
}

func (m *mockReviewService) Modify(ctx context.Context, decision models.ModifyDecision) (*models.HistoryItem, error) {
	m.lastModify = &decision
	if m.err != nil {
		return nil, m.err
	}
	return m.item, nil
}

var _ services.ReviewService = (*mockReviewService)(nil)

type mockRerouteService struct {
	reroute *models.Reroute
	err     error

	lastReroute *models.RerouteDecision
	lastReject  *models.RejectRerouteDecision
}

func (m *mockRerouteService) Reroute(ctx context.Context, decision models.RerouteDecision) (*models.Reroute, error) {
	m.lastReroute = &decision
	if m.err != nil {
		return nil, m.err
	}
	return m.reroute, nil
}

func (m *mockRerouteService) RejectReroute(ctx context.Context, decision models.RejectRerouteDecision) error {
	m.lastReject = &decision
	return m.err
}

var _ services.RerouteService = (*mockRerouteService)(nil)

type mockAllocationService struct {
	page       *models.QuestionPage
	pageIndex  int
	err        error
	lastFilter models.AllocationFilter
}

func (m *mockAllocationService) List(ctx context.Context, filter models.AllocationFilter, page, pageSize int) (*models.QuestionPage, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, m.err
	}
	return m.page, nil
}

func (m *mockAllocationService) PageIndexOf(ctx context.Context, filter models.AllocationFilter, questionID uuid.UUID, pageSize int) (int, error) {
	m.lastFilter = filter
	if m.err != nil {
		return 0, m.err
	}
	return m.pageIndex, nil
}

var _ services.AllocationService = (*mockAllocationService)(nil)
