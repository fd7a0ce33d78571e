package workbench

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/cropdesk/review-engine/pkg/models"
)

// State is the workbench's persisted scratch state: per-question drafts
// plus the last selected question, restored across process restarts.
type State struct {
	Drafts           map[uuid.UUID]models.Draft `json:"drafts"`
	SelectedQuestion uuid.UUID                  `json:"selected_question,omitempty"`
}

// NewState returns an empty state.
func NewState() *State {
	return &State{Drafts: make(map[uuid.UUID]models.Draft)}
}

// PersistedStore persists workbench state across restarts. Load returns an
// empty state, not an error, when nothing has been saved yet.
type PersistedStore interface {
	Load(ctx context.Context) (*State, error)
	Save(ctx context.Context, state *State) error
}

// ============================================================================
// File store
// ============================================================================

// FileStore persists state as a JSON file. Writes go through a temp file
// and rename so a crash mid-write never corrupts the previous state.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed store at the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(ctx context.Context) (*State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewState(), nil
		}
		return nil, fmt.Errorf("failed to read workbench state: %w", err)
	}

	state := NewState()
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("failed to parse workbench state: %w", err)
	}
	if state.Drafts == nil {
		state.Drafts = make(map[uuid.UUID]models.Draft)
	}
	return state, nil
}

func (s *FileStore) Save(ctx context.Context, state *State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode workbench state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write workbench state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace workbench state: %w", err)
	}
	return nil
}

var _ PersistedStore = (*FileStore)(nil)

// ============================================================================
// Redis store
// ============================================================================

// RedisStore persists state as a single JSON value, keyed per reviewer, so
// a workbench session can move between machines.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a redis-backed store. reviewerID scopes the key.
func NewRedisStore(client *redis.Client, reviewerID uuid.UUID) *RedisStore {
	return &RedisStore{
		client: client,
		key:    "workbench:state:" + reviewerID.String(),
	}
}

func (s *RedisStore) Load(ctx context.Context) (*State, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return NewState(), nil
		}
		return nil, fmt.Errorf("failed to read workbench state: %w", err)
	}

	state := NewState()
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("failed to parse workbench state: %w", err)
	}
	if state.Drafts == nil {
		state.Drafts = make(map[uuid.UUID]models.Draft)
	}
	return state, nil
}

func (s *RedisStore) Save(ctx context.Context, state *State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode workbench state: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write workbench state: %w", err)
	}
	return nil
}

var _ PersistedStore = (*RedisStore)(nil)
