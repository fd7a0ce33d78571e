package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/cropdesk/review-engine/pkg/diff"
)

// HistoryStatus is the status recorded on a single ledger entry.
type HistoryStatus string

const (
	HistoryStatusInReview HistoryStatus = "in-review"
	HistoryStatusReviewed HistoryStatus = "reviewed"
	HistoryStatusApproved HistoryStatus = "approved"
	HistoryStatusRejected HistoryStatus = "rejected"
	HistoryStatusModified HistoryStatus = "modified"
	HistoryStatusRerouted HistoryStatus = "re-routed"
)

// ValidHistoryStatuses contains all valid ledger entry statuses.
var ValidHistoryStatuses = []HistoryStatus{
	HistoryStatusInReview,
	HistoryStatusReviewed,
	HistoryStatusApproved,
	HistoryStatusRejected,
	HistoryStatusModified,
	HistoryStatusRerouted,
}

// IsValidHistoryStatus checks if the given status is valid.
func IsValidHistoryStatus(s HistoryStatus) bool {
	for _, v := range ValidHistoryStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Review carries the checklist and verdict attached to an accept, reject,
// or modify ledger entry.
type Review struct {
	Parameters Checklist    `json:"parameters"`
	Reason     string       `json:"reason,omitempty"`
	Action     ReviewAction `json:"action"`
}

// RerouteInfo records the escalation details on a re-routed ledger entry.
type RerouteInfo struct {
	RerouteID   uuid.UUID `json:"reroute_id"`
	ReroutedTo  uuid.UUID `json:"rerouted_to"`
	Comment     string    `json:"comment,omitempty"`
	ModeratorID uuid.UUID `json:"moderator_id"`
}

// HistoryItem is one immutable review event in a submission's ledger.
// Entries are never edited or removed; every reviewer action appends a
// new one.
type HistoryItem struct {
	ID             uuid.UUID     `json:"id"`
	Status         HistoryStatus `json:"status"`
	UpdatedBy      uuid.UUID     `json:"updated_by"`
	CreatedAt      time.Time     `json:"created_at"`
	Answer         *Answer       `json:"answer,omitempty"`
	ApprovedAnswer *uuid.UUID    `json:"approved_answer,omitempty"`
	RejectedAnswer *uuid.UUID    `json:"rejected_answer,omitempty"`
	ModifiedAnswer *uuid.UUID    `json:"modified_answer,omitempty"`
	Review         *Review       `json:"review,omitempty"`
	Reroute        *RerouteInfo  `json:"reroute,omitempty"`
	Modification   []diff.Change `json:"modification,omitempty"`
}

// Submission is the single active review chain for a question. It holds the
// ordered history ledger, oldest entry first.
type Submission struct {
	ID         uuid.UUID     `json:"id"`
	QuestionID uuid.UUID     `json:"question_id"`
	History    []HistoryItem `json:"history"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// ReviewableAnswer returns the single answer a reviewer may currently act
// on: scanning the ledger newest to oldest, the first entry whose status is
// neither approved nor rejected and which carries a non-nil answer. Older
// answers are display-only. Returns nil if no pending answer exists.
//
// Every transition and every view must go through this method; it is the
// only implementation of the selection rule in the repository.
func (s *Submission) ReviewableAnswer() *HistoryItem {
	for i := len(s.History) - 1; i >= 0; i-- {
		item := &s.History[i]
		if item.Status == HistoryStatusApproved || item.Status == HistoryStatusRejected {
			continue
		}
		if item.Answer != nil {
			return item
		}
	}
	return nil
}

// Tail returns the newest ledger entry, or nil for an empty ledger.
func (s *Submission) Tail() *HistoryItem {
	if len(s.History) == 0 {
		return nil
	}
	return &s.History[len(s.History)-1]
}

// Resolved reports whether the ledger tail is terminal, i.e. nothing is
// pending review. An empty ledger counts as resolved.
func (s *Submission) Resolved() bool {
	return s.ReviewableAnswer() == nil && (s.Tail() == nil || s.Tail().Status != HistoryStatusRerouted)
}

// DeriveStatus computes the question-level status from the ledger.
// delayedAfter is the review window; a pending answer older than the window
// reports delayed, which is a display-only state the engine never accepts
// as a requested transition.
func (s *Submission) DeriveStatus(now time.Time, delayedAfter time.Duration) QuestionStatus {
	tail := s.Tail()
	if tail == nil {
		return QuestionStatusOpen
	}
	if tail.Status == HistoryStatusRerouted {
		return QuestionStatusRerouted
	}
	reviewable := s.ReviewableAnswer()
	if reviewable == nil {
		if tail.Status == HistoryStatusApproved {
			return QuestionStatusClosed
		}
		return QuestionStatusOpen
	}
	if delayedAfter > 0 && now.Sub(reviewable.CreatedAt) > delayedAfter {
		return QuestionStatusDelayed
	}
	return QuestionStatusInReview
}

// NextIteration returns the iteration number the next appended answer
// should carry.
func (s *Submission) NextIteration() int {
	n := 0
	for i := range s.History {
		if s.History[i].Answer != nil {
			n++
		}
	}
	return n + 1
}
