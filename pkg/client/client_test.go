package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cropdesk/review-engine/pkg/models"
	"github.com/cropdesk/review-engine/pkg/retry"
	"github.com/cropdesk/review-engine/pkg/workbench"
)

func TestListAllocatedQuestions(t *testing.T) {
	questionID := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/questions", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "paddy", r.URL.Query().Get("crop"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": models.QuestionPage{
				Items:      []models.QuestionSummary{{ID: questionID, Text: "q"}},
				Page:       2,
				PageSize:   10,
				TotalCount: 11,
				HasNext:    false,
			},
		})
	}))
	defer server.Close()

	c := NewClient(server.URL, "test-token", zap.NewNop())
	page, err := c.ListAllocatedQuestions(context.Background(), models.AllocationFilter{Crop: "paddy"}, 2, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, questionID, page.Items[0].ID)
	assert.False(t, page.HasNext)
}

func TestAccept_WirePayload(t *testing.T) {
	questionID := uuid.New()
	answerID := uuid.New()

	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/questions/"+questionID.String()+"/review", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    models.HistoryItem{Status: models.HistoryStatusApproved},
		})
	}))
	defer server.Close()

	decision, err := models.NewAcceptDecision(questionID, answerID, models.Checklist{
		ContextRelevance:         true,
		TechnicalAccuracy:        true,
		PracticalUtility:         true,
		ValueInsight:             true,
		CredibilityTrust:         true,
		ReadabilityCommunication: true,
	}, false)
	require.NoError(t, err)

	c := NewClient(server.URL, "test-token", zap.NewNop())
	item, err := c.Accept(context.Background(), decision)
	require.NoError(t, err)
	assert.Equal(t, models.HistoryStatusApproved, item.Status)

	assert.Equal(t, "allocated", got["type"])
	assert.Equal(t, "accepted", got["status"])
	assert.Equal(t, answerID.String(), got["approvedAnswer"])
	assert.Equal(t, decision.RequestID.String(), got["request_id"])
}

func TestRejectReroute_NoBodyExpected(t *testing.T) {
	rerouteID := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/reroutes/"+rerouteID.String()+"/reject", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer server.Close()

	decision, err := models.NewRejectRerouteDecision(rerouteID, uuid.New(), uuid.New(), uuid.New(), "outside my crop domain")
	require.NoError(t, err)

	c := NewClient(server.URL, "test-token", zap.NewNop())
	require.NoError(t, c.RejectReroute(context.Background(), decision))
}

func TestErrorStatusSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"conflict","message":"stale answer"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "test-token", zap.NewNop())
	_, err := c.GetQuestion(context.Background(), uuid.New(), models.ActionTypeAllocated)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")
}

func TestGetRetriesServerFaults(t *testing.T) {
	var calls int
	questionID := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    workbench.QuestionFull{Question: &models.Question{ID: questionID}},
		})
	}))
	defer server.Close()

	c := NewClient(server.URL, "test-token", zap.NewNop())
	c.retryCfg = &retry.Config{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}

	got, err := c.GetQuestion(context.Background(), questionID, models.ActionTypeAllocated)
	require.NoError(t, err)
	assert.Equal(t, questionID, got.Question.ID)
	assert.Equal(t, 2, calls)
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewClient(server.URL, "test-token", zap.NewNop())
	c.retryCfg = &retry.Config{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}

	_, err := c.GetQuestion(context.Background(), uuid.New(), models.ActionTypeAllocated)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
