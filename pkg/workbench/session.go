package workbench

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cropdesk/review-engine/pkg/apperrors"
	"github.com/cropdesk/review-engine/pkg/gate"
	"github.com/cropdesk/review-engine/pkg/models"
)

// ErrStaleResult marks a fetch whose result arrived after a newer request
// for the same selection superseded it. Callers drop the result.
var ErrStaleResult = errors.New("stale result superseded by a newer request")

// Session coordinates the reviewer's workbench: queue pagination, question
// selection, draft edits, and submits. Fetches may overlap; a newer fetch
// for the same selection supersedes older ones. Submits are at most one in
// flight per question.
type Session struct {
	api       ReviewAPI
	paginator *Paginator
	drafts    *DraftCache
	logger    *zap.Logger

	mu          sync.Mutex
	selected    uuid.UUID
	generations map[uuid.UUID]uint64
	inFlight    map[uuid.UUID]bool
}

// NewSession creates a session over the given API, paginator and drafts.
func NewSession(api ReviewAPI, paginator *Paginator, drafts *DraftCache, logger *zap.Logger) *Session {
	return &Session{
		api:         api,
		paginator:   paginator,
		drafts:      drafts,
		logger:      logger,
		generations: make(map[uuid.UUID]uint64),
		inFlight:    make(map[uuid.UUID]bool),
	}
}

// Start fetches the first queue page and restores the selection: the
// persisted pointer if that question is still in the queue, otherwise the
// first queue item. Returns the selected question with its ledger, or nil
// when the queue is empty.
func (s *Session) Start(ctx context.Context) (*QuestionFull, error) {
	if _, err := s.paginator.FetchNextPage(ctx); err != nil {
		return nil, err
	}

	items := s.paginator.Items()
	if len(items) == 0 {
		return nil, nil
	}

	target := items[0].ID
	if persisted := s.drafts.Selected(); persisted != uuid.Nil {
		for _, item := range items {
			if item.ID == persisted {
				target = persisted
				break
			}
		}
	}
	return s.Select(ctx, target)
}

// Select makes a question the active selection and loads it with its
// ledger. If a newer Select for the same question lands while this one's
// fetch is in flight, the older result is discarded with ErrStaleResult.
func (s *Session) Select(ctx context.Context, questionID uuid.UUID) (*QuestionFull, error) {
	s.mu.Lock()
	s.selected = questionID
	s.generations[questionID]++
	generation := s.generations[questionID]
	s.mu.Unlock()

	s.drafts.SetSelected(questionID)

	question, err := s.api.GetQuestion(ctx, questionID, s.paginator.Filter().ActionType)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected != questionID || s.generations[questionID] != generation {
		return nil, ErrStaleResult
	}
	return question, nil
}

// Selected returns the active question id, or uuid.Nil.
func (s *Session) Selected() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Drafts exposes the session's draft cache.
func (s *Session) Drafts() *DraftCache {
	return s.drafts
}

// Queue exposes the session's paginator.
func (s *Session) Queue() *Paginator {
	return s.paginator
}

// SubmitInitialAnswer submits a fresh answer built from the question's
// draft.
func (s *Session) SubmitInitialAnswer(ctx context.Context, questionID uuid.UUID) (*models.HistoryItem, error) {
	return submit(ctx, s, questionID, func(ctx context.Context) (*models.HistoryItem, error) {
		if err := s.drafts.Flush(ctx); err != nil {
			return nil, err
		}
		draft, ok := s.drafts.Get(questionID)
		if !ok || draft.Empty() {
			return nil, fmt.Errorf("%w: nothing drafted for this question", apperrors.ErrValidation)
		}
		return s.api.SubmitInitialAnswer(ctx, questionID, models.AnswerInput{
			Text:    draft.Answer,
			Sources: draft.Sources,
			Remarks: draft.Remarks,
		}, uuid.New())
	})
}

// Accept submits an accept transition. The gate verdict is checked before
// any network call; a blocked verdict without override fails locally.
func (s *Session) Accept(ctx context.Context, decision models.AcceptDecision) (*models.HistoryItem, error) {
	verdict := gate.Evaluate(decision.Parameters, models.ActionAccepted)
	if verdict.DisablesSubmit() && !decision.Override {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrChecklistBlocked, verdict.Suggestion)
	}
	return submit(ctx, s, decision.QuestionID, func(ctx context.Context) (*models.HistoryItem, error) {
		return s.api.Accept(ctx, decision)
	})
}

// Reject submits a reject transition with the replacement answer drawn
// from the decision. Gate pre-check runs locally.
func (s *Session) Reject(ctx context.Context, decision models.RejectDecision) (*models.HistoryItem, error) {
	if verdict := gate.Evaluate(decision.Parameters, models.ActionRejected); !verdict.OK() {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrChecklistBlocked, verdict.Suggestion)
	}
	return submit(ctx, s, decision.QuestionID, func(ctx context.Context) (*models.HistoryItem, error) {
		if err := s.drafts.Flush(ctx); err != nil {
			return nil, err
		}
		return s.api.Reject(ctx, decision)
	})
}

// Modify submits a modify transition. Gate pre-check runs locally.
func (s *Session) Modify(ctx context.Context, decision models.ModifyDecision) (*models.HistoryItem, error) {
	if verdict := gate.Evaluate(decision.Parameters, models.ActionModified); !verdict.OK() {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrChecklistBlocked, verdict.Suggestion)
	}
	return submit(ctx, s, decision.QuestionID, func(ctx context.Context) (*models.HistoryItem, error) {
		if err := s.drafts.Flush(ctx); err != nil {
			return nil, err
		}
		return s.api.Modify(ctx, decision)
	})
}

// RejectReroute declines an escalation.
func (s *Session) RejectReroute(ctx context.Context, decision models.RejectRerouteDecision) error {
	_, err := submit(ctx, s, decision.QuestionID, func(ctx context.Context) (*models.HistoryItem, error) {
		return nil, s.api.RejectReroute(ctx, decision)
	})
	return err
}

// submit wraps a mutating call with the per-question in-flight guard and
// the post-success bookkeeping: clear the draft, refresh the queue.
func submit(ctx context.Context, s *Session, questionID uuid.UUID, fn func(ctx context.Context) (*models.HistoryItem, error)) (*models.HistoryItem, error) {
	s.mu.Lock()
	if s.inFlight[questionID] {
		s.mu.Unlock()
		return nil, fmt.Errorf("question %s: %w", questionID, apperrors.ErrSubmitInFlight)
	}
	s.inFlight[questionID] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, questionID)
		s.mu.Unlock()
	}()

	item, err := fn(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.drafts.Clear(ctx, questionID); err != nil {
		s.logger.Warn("Draft clear after submit failed",
			zap.String("question_id", questionID.String()),
			zap.Error(err))
	}

	s.paginator.Reset(s.paginator.Filter())
	if _, err := s.paginator.FetchNextPage(ctx); err != nil {
		s.logger.Warn("Queue refresh after submit failed",
			zap.String("question_id", questionID.String()),
			zap.Error(err))
	}
	return item, nil
}
