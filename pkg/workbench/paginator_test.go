package workbench

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cropdesk/review-engine/pkg/apperrors"
	"github.com/cropdesk/review-engine/pkg/models"
)

// fakeAPI serves a fixed queue split into pages and counts calls.
type fakeAPI struct {
	queue    []models.QuestionSummary
	pageSize int

	listCalls      int
	pageIndexCalls int

	// pageIndexResult, when >0, overrides the computed page lookup to
	// simulate a stale server-side index.
	pageIndexResult int

	question  *QuestionFull
	getErr    error
	submitErr error

	// submitGate, when non-nil, blocks mutating calls until closed.
	submitGate chan struct{}

	mu        sync.Mutex
	submitted []uuid.UUID
}

func (f *fakeAPI) ListAllocatedQuestions(ctx context.Context, filter models.AllocationFilter, page, pageSize int) (*models.QuestionPage, error) {
	f.listCalls++
	if pageSize <= 0 {
		pageSize = f.pageSize
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(f.queue) {
		start = len(f.queue)
	}
	if end > len(f.queue) {
		end = len(f.queue)
	}
	return &models.QuestionPage{
		Items:      f.queue[start:end],
		Page:       page,
		PageSize:   pageSize,
		TotalCount: len(f.queue),
		HasNext:    end < len(f.queue),
	}, nil
}

func (f *fakeAPI) QuestionPageIndex(ctx context.Context, filter models.AllocationFilter, questionID uuid.UUID, pageSize int) (int, error) {
	f.pageIndexCalls++
	if f.pageIndexResult > 0 {
		return f.pageIndexResult, nil
	}
	if pageSize <= 0 {
		pageSize = f.pageSize
	}
	for i, item := range f.queue {
		if item.ID == questionID {
			return i/pageSize + 1, nil
		}
	}
	return 0, apperrors.ErrNotFound
}

func (f *fakeAPI) GetQuestion(ctx context.Context, questionID uuid.UUID, actionType models.AllocationActionType) (*QuestionFull, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.question != nil {
		return f.question, nil
	}
	return &QuestionFull{
		Question:   &models.Question{ID: questionID},
		Submission: &models.Submission{},
	}, nil
}

func (f *fakeAPI) waitSubmit(questionID uuid.UUID) (*models.HistoryItem, error) {
	if f.submitGate != nil {
		<-f.submitGate
	}
	f.mu.Lock()
	f.submitted = append(f.submitted, questionID)
	f.mu.Unlock()
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &models.HistoryItem{Status: models.HistoryStatusApproved}, nil
}

func (f *fakeAPI) SubmitInitialAnswer(ctx context.Context, questionID uuid.UUID, answer models.AnswerInput, requestID uuid.UUID) (*models.HistoryItem, error) {
	return f.waitSubmit(questionID)
}

func (f *fakeAPI) Accept(ctx context.Context, decision models.AcceptDecision) (*models.HistoryItem, error) {
	return f.waitSubmit(decision.QuestionID)
}

func (f *fakeAPI) Reject(ctx context.Context, decision models.RejectDecision) (*models.HistoryItem, error) {
	return f.waitSubmit(decision.QuestionID)
}

func (f *fakeAPI) Modify(ctx context.Context, decision models.ModifyDecision) (*models.HistoryItem, error) {
	return f.waitSubmit(decision.QuestionID)
}

func (f *fakeAPI) Reroute(ctx context.Context, decision models.RerouteDecision) (*models.Reroute, error) {
	if _, err := f.waitSubmit(decision.QuestionID); err != nil {
		return nil, err
	}
	return &models.Reroute{ID: uuid.New(), QuestionID: decision.QuestionID}, nil
}

func (f *fakeAPI) RejectReroute(ctx context.Context, decision models.RejectRerouteDecision) error {
	_, err := f.waitSubmit(decision.QuestionID)
	return err
}

var _ ReviewAPI = (*fakeAPI)(nil)

func makeQueue(n int) []models.QuestionSummary {
	queue := make([]models.QuestionSummary, n)
	for i := range queue {
		queue[i] = models.QuestionSummary{ID: uuid.New()}
	}
	return queue
}

func TestFetchNextPage_Monotonic(t *testing.T) {
	api := &fakeAPI{queue: makeQueue(25), pageSize: 10}
	p := NewPaginator(api, models.AllocationFilter{}, 10)

	first, err := p.FetchNextPage(context.Background())
	require.NoError(t, err)
	assert.Len(t, first, 10)
	assert.True(t, p.HasNextPage())

	second, err := p.FetchNextPage(context.Background())
	require.NoError(t, err)
	assert.Len(t, second, 10)

	third, err := p.FetchNextPage(context.Background())
	require.NoError(t, err)
	assert.Len(t, third, 5)
	assert.False(t, p.HasNextPage())

	// Exhausted queue: further fetches are free no-ops.
	again, err := p.FetchNextPage(context.Background())
	require.NoError(t, err)
	assert.Empty(t, again)
	assert.Equal(t, 3, api.listCalls)
	assert.Len(t, p.Items(), 25)
}

func TestJumpToQuestion_FetchesExactlyToTargetPage(t *testing.T) {
	api := &fakeAPI{queue: makeQueue(50), pageSize: 10}
	p := NewPaginator(api, models.AllocationFilter{}, 10)

	_, err := p.FetchNextPage(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, api.listCalls)

	// Target sits on page 3: the jump needs exactly two more fetches.
	target := api.queue[25]
	got, err := p.JumpToQuestion(context.Background(), target.ID)
	require.NoError(t, err)
	assert.Equal(t, target.ID, got.ID)
	assert.Equal(t, 3, api.listCalls)
	assert.Equal(t, 1, api.pageIndexCalls)
	assert.Len(t, p.Items(), 30)
}

func TestJumpToQuestion_AlreadyLoaded(t *testing.T) {
	api := &fakeAPI{queue: makeQueue(10), pageSize: 10}
	p := NewPaginator(api, models.AllocationFilter{}, 10)

	_, err := p.FetchNextPage(context.Background())
	require.NoError(t, err)

	got, err := p.JumpToQuestion(context.Background(), api.queue[3].ID)
	require.NoError(t, err)
	assert.Equal(t, api.queue[3].ID, got.ID)
	assert.Equal(t, 1, api.listCalls, "no extra fetch for a loaded question")
	assert.Equal(t, 0, api.pageIndexCalls)
}

func TestJumpToQuestion_ExhaustedFallsBackToFirst(t *testing.T) {
	api := &fakeAPI{queue: makeQueue(15), pageSize: 10}
	p := NewPaginator(api, models.AllocationFilter{}, 10)

	_, err := p.FetchNextPage(context.Background())
	require.NoError(t, err)

	// The target left the queue after the server indexed it; the
	// paginator walks to the end and falls back to the first item.
	vanished := api.queue[12].ID
	api.queue = append(api.queue[:12], api.queue[13:]...)
	api.pageIndexResult = 2

	got, err := p.JumpToQuestion(context.Background(), vanished)
	require.NoError(t, err)
	assert.Equal(t, p.Items()[0].ID, got.ID)
	assert.False(t, p.HasNextPage())
}

func TestReset(t *testing.T) {
	api := &fakeAPI{queue: makeQueue(5), pageSize: 10}
	p := NewPaginator(api, models.AllocationFilter{}, 10)

	_, err := p.FetchNextPage(context.Background())
	require.NoError(t, err)
	require.Len(t, p.Items(), 5)

	p.Reset(models.AllocationFilter{Crop: "paddy"})
	assert.Empty(t, p.Items())
	assert.True(t, p.HasNextPage())
	assert.Equal(t, "paddy", p.Filter().Crop)
}
