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

	"github.com/cropdesk/review-engine/pkg/models"
)

// fakeClock drives debounce timers by hand.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := t.stopped
	t.stopped = true
	return !was
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{f: f}
	c.timers = append(c.timers, t)
	return t
}

// fire runs all pending timers, as if their delay elapsed.
func (c *fakeClock) fire() {
	c.mu.Lock()
	timers := c.timers
	c.timers = nil
	c.mu.Unlock()
	for _, t := range timers {
		if !t.stopped {
			t.f()
		}
	}
}

// memStore records every save so tests can inspect write coalescing.
type memStore struct {
	mu    sync.Mutex
	state *State
	saves int
}

func newMemStore() *memStore {
	return &memStore{state: NewState()}
}

func (s *memStore) Load(ctx context.Context) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := &State{Drafts: make(map[uuid.UUID]models.Draft), SelectedQuestion: s.state.SelectedQuestion}
	for id, d := range s.state.Drafts {
		clone.Drafts[id] = d
	}
	return clone, nil
}

func (s *memStore) Save(ctx context.Context, state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.saves++
	return nil
}

func (s *memStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func newTestCache(t *testing.T, store PersistedStore, clock Clock) *DraftCache {
	t.Helper()
	cache, err := NewDraftCache(context.Background(), store, clock, time.Second, zap.NewNop())
	require.NoError(t, err)
	return cache
}

func TestDraftCache_CoalescesWrites(t *testing.T) {
	store := newMemStore()
	clock := newFakeClock()
	cache := newTestCache(t, store, clock)

	questionID := uuid.New()
	cache.Set(questionID, models.Draft{Answer: "v1"})
	cache.Set(questionID, models.Draft{Answer: "v2"})
	cache.Set(questionID, models.Draft{Answer: "v3"})

	assert.Equal(t, 0, store.saveCount(), "edits alone must not hit the store")

	clock.fire()
	assert.Equal(t, 1, store.saveCount(), "one flush per edit burst")

	state, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v3", state.Drafts[questionID].Answer, "only the latest value persists")
}

func TestDraftCache_RoundTrip(t *testing.T) {
	store := newMemStore()
	clock := newFakeClock()
	cache := newTestCache(t, store, clock)

	questionID := uuid.New()
	cache.Set(questionID, models.Draft{
		Answer:  "Use X fertilizer",
		Sources: []string{"https://a.example"},
		Remarks: "tentative",
	})
	require.NoError(t, cache.Flush(context.Background()))

	// A fresh cache over the same store sees the draft, as after a
	// process restart.
	reloaded := newTestCache(t, store, clock)
	draft, ok := reloaded.Get(questionID)
	require.True(t, ok)
	assert.Equal(t, "Use X fertilizer", draft.Answer)
	assert.Equal(t, []string{"https://a.example"}, draft.Sources)
	assert.Equal(t, "tentative", draft.Remarks)
}

func TestDraftCache_FlushBeatsDebounce(t *testing.T) {
	store := newMemStore()
	clock := newFakeClock()
	cache := newTestCache(t, store, clock)

	questionID := uuid.New()
	cache.Set(questionID, models.Draft{Answer: "latest"})
	require.NoError(t, cache.Flush(context.Background()))
	assert.Equal(t, 1, store.saveCount())

	// The debounce timer firing afterwards must not write again.
	clock.fire()
	assert.Equal(t, 1, store.saveCount())
}

func TestDraftCache_ClearedNeverResurrects(t *testing.T) {
	store := newMemStore()
	clock := newFakeClock()
	cache := newTestCache(t, store, clock)

	questionID := uuid.New()
	cache.Set(questionID, models.Draft{Answer: "doomed"})
	require.NoError(t, cache.Flush(context.Background()))

	require.NoError(t, cache.Clear(context.Background(), questionID))
	_, ok := cache.Get(questionID)
	assert.False(t, ok)

	// A stale debounce firing after the clear must not bring it back.
	clock.fire()

	reloaded := newTestCache(t, store, clock)
	_, ok = reloaded.Get(questionID)
	assert.False(t, ok, "cleared draft reappeared from the store")
}

func TestDraftCache_SelectedPointerPersists(t *testing.T) {
	store := newMemStore()
	clock := newFakeClock()
	cache := newTestCache(t, store, clock)

	questionID := uuid.New()
	cache.SetSelected(questionID)
	require.NoError(t, cache.Flush(context.Background()))

	reloaded := newTestCache(t, store, clock)
	assert.Equal(t, questionID, reloaded.Selected())
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := t.TempDir() + "/workbench.json"
	store := NewFileStore(path)

	state, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, state.Drafts)

	questionID := uuid.New()
	state.Drafts[questionID] = models.Draft{Answer: "persisted"}
	state.SelectedQuestion = questionID
	require.NoError(t, store.Save(context.Background(), state))

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "persisted", loaded.Drafts[questionID].Answer)
	assert.Equal(t, questionID, loaded.SelectedQuestion)
}
