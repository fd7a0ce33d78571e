package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cropdesk/review-engine/pkg/models"
	"github.com/cropdesk/review-engine/pkg/services"
)

func TestListQuestions(t *testing.T) {
	alloc := &mockAllocationService{page: &models.QuestionPage{
		Items:      []models.QuestionSummary{{ID: uuid.New(), Text: "q1"}},
		Page:       1,
		PageSize:   10,
		TotalCount: 1,
	}}
	h := NewQuestionHandler(alloc, &mockReviewService{}, zap.NewNop())

	r := httptest.NewRequest(http.MethodGet, "/api/questions?status=open,in-review&crop=paddy&action_type=allocated", nil)
	w := httptest.NewRecorder()
	h.List(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []models.QuestionStatus{models.QuestionStatusOpen, models.QuestionStatusInReview}, alloc.lastFilter.Statuses)
	assert.Equal(t, "paddy", alloc.lastFilter.Crop)
	assert.Equal(t, models.ActionTypeAllocated, alloc.lastFilter.ActionType)

	var resp ApiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestListQuestions_BadStatus(t *testing.T) {
	h := NewQuestionHandler(&mockAllocationService{}, &mockReviewService{}, zap.NewNop())

	r := httptest.NewRequest(http.MethodGet, "/api/questions?status=bogus", nil)
	w := httptest.NewRecorder()
	h.List(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListQuestions_LegacyRerouteSpelling(t *testing.T) {
	alloc := &mockAllocationService{page: &models.QuestionPage{}}
	h := NewQuestionHandler(alloc, &mockReviewService{}, zap.NewNop())

	r := httptest.NewRequest(http.MethodGet, "/api/questions?action_type=re-roted", nil)
	w := httptest.NewRecorder()
	h.List(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ActionTypeReroute, alloc.lastFilter.ActionType)
}

func TestGetQuestion(t *testing.T) {
	questionID := uuid.New()
	review := &mockReviewService{question: &services.QuestionWithLedger{
		Question:      &models.Question{ID: questionID, Text: "q"},
		Submission:    &models.Submission{},
		DisplayStatus: models.QuestionStatusOpen,
	}}
	h := NewQuestionHandler(&mockAllocationService{}, review, zap.NewNop())

	r := httptest.NewRequest(http.MethodGet, "/api/questions/"+questionID.String(), nil)
	r.SetPathValue("qid", questionID.String())
	w := httptest.NewRecorder()
	h.Get(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetQuestion_BadActionType(t *testing.T) {
	h := NewQuestionHandler(&mockAllocationService{}, &mockReviewService{}, zap.NewNop())

	questionID := uuid.New()
	r := httptest.NewRequest(http.MethodGet, "/api/questions/"+questionID.String()+"?action_type=bogus", nil)
	r.SetPathValue("qid", questionID.String())
	w := httptest.NewRecorder()
	h.Get(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPageIndex(t *testing.T) {
	alloc := &mockAllocationService{pageIndex: 3}
	h := NewQuestionHandler(alloc, &mockReviewService{}, zap.NewNop())

	questionID := uuid.New()
	r := httptest.NewRequest(http.MethodGet, "/api/questions/"+questionID.String()+"/page-index?limit=10", nil)
	r.SetPathValue("qid", questionID.String())
	w := httptest.NewRecorder()
	h.PageIndex(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool              `json:"success"`
		Data    PageIndexResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Data.Page)
	assert.Equal(t, questionID, resp.Data.QuestionID)
}
