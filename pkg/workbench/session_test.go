package workbench

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cropdesk/review-engine/pkg/apperrors"
	"github.com/cropdesk/review-engine/pkg/models"
)

func newTestSession(t *testing.T, api *fakeAPI) *Session {
	t.Helper()
	cache := newTestCache(t, newMemStore(), newFakeClock())
	return NewSession(api, NewPaginator(api, models.AllocationFilter{}, 10), cache, zap.NewNop())
}

func TestStart_SelectsFirstItem(t *testing.T) {
	api := &fakeAPI{queue: makeQueue(5), pageSize: 10}
	s := newTestSession(t, api)

	question, err := s.Start(context.Background())
	require.NoError(t, err)
	require.NotNil(t, question)
	assert.Equal(t, api.queue[0].ID, question.Question.ID)
	assert.Equal(t, api.queue[0].ID, s.Selected())
}

func TestStart_RestoresPersistedSelection(t *testing.T) {
	api := &fakeAPI{queue: makeQueue(5), pageSize: 10}
	s := newTestSession(t, api)

	// The previous session left a pointer at the third queue item.
	s.Drafts().SetSelected(api.queue[2].ID)

	question, err := s.Start(context.Background())
	require.NoError(t, err)
	require.NotNil(t, question)
	assert.Equal(t, api.queue[2].ID, question.Question.ID)
}

func TestStart_PersistedSelectionGoneFallsBackToFirst(t *testing.T) {
	api := &fakeAPI{queue: makeQueue(5), pageSize: 10}
	s := newTestSession(t, api)

	s.Drafts().SetSelected(uuid.New())

	question, err := s.Start(context.Background())
	require.NoError(t, err)
	require.NotNil(t, question)
	assert.Equal(t, api.queue[0].ID, question.Question.ID)
}

func TestStart_EmptyQueue(t *testing.T) {
	api := &fakeAPI{queue: nil, pageSize: 10}
	s := newTestSession(t, api)

	question, err := s.Start(context.Background())
	require.NoError(t, err)
	assert.Nil(t, question)
}

func TestSelect_StaleResultDiscarded(t *testing.T) {
	questionID := uuid.New()
	api := &fakeAPI{queue: []models.QuestionSummary{{ID: questionID}}, pageSize: 10}

	release := make(chan struct{})
	entered := make(chan struct{}, 2)
	var calls int
	var mu sync.Mutex
	slowAPI := &gatedAPI{fakeAPI: api, onGet: func() {
		mu.Lock()
		calls++
		first := calls == 1
		mu.Unlock()
		entered <- struct{}{}
		if first {
			<-release
		}
	}}

	s := NewSession(slowAPI, NewPaginator(slowAPI, models.AllocationFilter{}, 10), newTestCache(t, newMemStore(), newFakeClock()), zap.NewNop())

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = s.Select(context.Background(), questionID)
	}()

	<-entered

	// A second select for the same question supersedes the first.
	got, err := s.Select(context.Background(), questionID)
	require.NoError(t, err)
	require.NotNil(t, got)

	close(release)
	wg.Wait()
	assert.ErrorIs(t, firstErr, ErrStaleResult)
}

// gatedAPI wraps fakeAPI with a hook before GetQuestion returns.
type gatedAPI struct {
	*fakeAPI
	onGet func()
}

func (g *gatedAPI) GetQuestion(ctx context.Context, questionID uuid.UUID, actionType models.AllocationActionType) (*QuestionFull, error) {
	if g.onGet != nil {
		g.onGet()
	}
	return g.fakeAPI.GetQuestion(ctx, questionID, actionType)
}

func TestSubmit_AtMostOneInFlightPerQuestion(t *testing.T) {
	questionID := uuid.New()
	answerID := uuid.New()
	api := &fakeAPI{
		queue:      []models.QuestionSummary{{ID: questionID}},
		pageSize:   10,
		submitGate: make(chan struct{}),
	}
	s := newTestSession(t, api)

	decision, err := models.NewAcceptDecision(questionID, answerID, allTrue(), false)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = s.Accept(context.Background(), decision)
	}()

	// Wait until the first submit is holding the in-flight slot.
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.inFlight[questionID]
	}, time.Second, time.Millisecond)

	_, err = s.Accept(context.Background(), decision)
	assert.ErrorIs(t, err, apperrors.ErrSubmitInFlight)

	close(api.submitGate)
	wg.Wait()
	require.NoError(t, firstErr)

	// Slot released: a later submit is allowed again.
	_, err = s.Accept(context.Background(), decision)
	assert.NoError(t, err)
}

func TestSubmit_ClearsDraftAndRefreshesQueue(t *testing.T) {
	questionID := uuid.New()
	answerID := uuid.New()
	api := &fakeAPI{queue: []models.QuestionSummary{{ID: questionID}}, pageSize: 10}
	s := newTestSession(t, api)

	s.Drafts().Set(questionID, models.Draft{Answer: "scratch"})

	decision, err := models.NewAcceptDecision(questionID, answerID, allTrue(), false)
	require.NoError(t, err)

	listCallsBefore := api.listCalls
	_, err = s.Accept(context.Background(), decision)
	require.NoError(t, err)

	_, ok := s.Drafts().Get(questionID)
	assert.False(t, ok, "draft survives a successful submit")
	assert.Greater(t, api.listCalls, listCallsBefore, "queue not refreshed")
}

func TestSubmit_GatePrecheckBlocksBeforeNetwork(t *testing.T) {
	questionID := uuid.New()
	answerID := uuid.New()
	api := &fakeAPI{queue: []models.QuestionSummary{{ID: questionID}}, pageSize: 10}
	s := newTestSession(t, api)

	params := allTrue()
	params.TechnicalAccuracy = false
	decision, err := models.NewAcceptDecision(questionID, answerID, params, false)
	require.NoError(t, err)

	_, err = s.Accept(context.Background(), decision)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Empty(t, api.submitted, "blocked submit must not reach the network")
}

func TestSubmitInitialAnswer_FromDraft(t *testing.T) {
	questionID := uuid.New()
	api := &fakeAPI{queue: []models.QuestionSummary{{ID: questionID}}, pageSize: 10}
	s := newTestSession(t, api)

	s.Drafts().Set(questionID, models.Draft{
		Answer:  "Use X fertilizer",
		Sources: []string{"https://a.example"},
	})

	item, err := s.SubmitInitialAnswer(context.Background(), questionID)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, []uuid.UUID{questionID}, api.submitted)
}

func TestSubmitInitialAnswer_NoDraft(t *testing.T) {
	questionID := uuid.New()
	api := &fakeAPI{queue: []models.QuestionSummary{{ID: questionID}}, pageSize: 10}
	s := newTestSession(t, api)

	_, err := s.SubmitInitialAnswer(context.Background(), questionID)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func allTrue() models.Checklist {
	return models.Checklist{
		ContextRelevance:         true,
		TechnicalAccuracy:        true,
		PracticalUtility:         true,
		ValueInsight:             true,
		CredibilityTrust:         true,
		ReadabilityCommunication: true,
	}
}
