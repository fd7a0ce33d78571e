package workbench

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cropdesk/review-engine/pkg/models"
)

// DefaultFlushDelay bounds how long an edited draft may sit unpersisted.
const DefaultFlushDelay = 2 * time.Second

// DraftCache holds per-question in-progress answers, decoupled from the
// server-confirmed state. Writes are coalesced: edits update memory
// immediately and schedule one persistence flush per burst. Clear persists
// synchronously, so a cleared draft never reappears after a restart.
type DraftCache struct {
	mu     sync.Mutex
	store  PersistedStore
	clock  Clock
	delay  time.Duration
	logger *zap.Logger

	state *State
	timer Timer
	dirty bool
}

// NewDraftCache loads persisted state and returns a ready cache.
func NewDraftCache(ctx context.Context, store PersistedStore, clock Clock, delay time.Duration, logger *zap.Logger) (*DraftCache, error) {
	state, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if delay <= 0 {
		delay = DefaultFlushDelay
	}
	return &DraftCache{
		store:  store,
		clock:  clock,
		delay:  delay,
		logger: logger,
		state:  state,
	}, nil
}

// Get returns the draft for a question, if one exists.
func (c *DraftCache) Get(questionID uuid.UUID) (models.Draft, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	draft, ok := c.state.Drafts[questionID]
	return draft, ok
}

// Set overwrites the draft for a question and schedules a flush. Callers
// invoke it on every edit; only the latest value reaches the store.
func (c *DraftCache) Set(questionID uuid.UUID, draft models.Draft) {
	c.mu.Lock()
	defer c.mu.Unlock()

	draft.UpdatedAt = c.clock.Now()
	c.state.Drafts[questionID] = draft
	c.markDirtyLocked()
}

// Clear removes the draft for a question and persists immediately. Called
// the instant a submit for the question succeeds.
func (c *DraftCache) Clear(ctx context.Context, questionID uuid.UUID) error {
	c.mu.Lock()
	delete(c.state.Drafts, questionID)
	c.mu.Unlock()
	return c.Flush(ctx)
}

// SetSelected records the active question pointer for restart restore.
func (c *DraftCache) SetSelected(questionID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SelectedQuestion = questionID
	c.markDirtyLocked()
}

// Selected returns the persisted selection pointer, or uuid.Nil.
func (c *DraftCache) Selected() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.SelectedQuestion
}

// Flush persists the current state now, cancelling any pending debounce.
// Submit paths call it so the store always holds the latest edits before
// a draft is read for submission.
func (c *DraftCache) Flush(ctx context.Context) error {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.dirty = false
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	return c.store.Save(ctx, snapshot)
}

// markDirtyLocked schedules a deferred flush unless one is already pending.
func (c *DraftCache) markDirtyLocked() {
	c.dirty = true
	if c.timer != nil {
		return
	}
	c.timer = c.clock.AfterFunc(c.delay, func() {
		c.mu.Lock()
		c.timer = nil
		if !c.dirty {
			c.mu.Unlock()
			return
		}
		c.dirty = false
		snapshot := c.snapshotLocked()
		c.mu.Unlock()

		if err := c.store.Save(context.Background(), snapshot); err != nil {
			c.logger.Warn("Draft flush failed", zap.Error(err))
		}
	})
}

func (c *DraftCache) snapshotLocked() *State {
	snapshot := &State{
		Drafts:           make(map[uuid.UUID]models.Draft, len(c.state.Drafts)),
		SelectedQuestion: c.state.SelectedQuestion,
	}
	for id, draft := range c.state.Drafts {
		snapshot.Drafts[id] = draft
	}
	return snapshot
}
