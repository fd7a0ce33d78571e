package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cropdesk/review-engine/pkg/apperrors"
)

// MinReasonLength is the minimum trimmed length of a rejection,
// modification, or reroute-decline reason.
const MinReasonLength = 8

// ValidateReason enforces the reason-length rule shared by reject, modify,
// and reject-reroute.
func ValidateReason(reason string) error {
	if len(strings.TrimSpace(reason)) < MinReasonLength {
		return fmt.Errorf("%w: reason must be at least %d characters", apperrors.ErrValidation, MinReasonLength)
	}
	return nil
}

// AnswerInput is the reviewer-authored answer content carried by initial
// submissions and by reject/modify replacements.
type AnswerInput struct {
	Text    string   `json:"text"`
	Sources []string `json:"sources"`
	Remarks string   `json:"remarks,omitempty"`
}

// Validate checks the answer content rules: non-blank text and at least one
// source. Sources are normalized (trimmed, deduplicated) in place.
func (a *AnswerInput) Validate() error {
	if strings.TrimSpace(a.Text) == "" {
		return fmt.Errorf("%w: answer text is required", apperrors.ErrValidation)
	}
	a.Sources = NormalizeSources(a.Sources)
	if len(a.Sources) == 0 {
		return fmt.Errorf("%w: at least one source is required", apperrors.ErrValidation)
	}
	return nil
}

// Each review decision is its own type carrying only the fields that action
// needs, validated at construction. A decision that constructs successfully
// is safe to hand to the state machine; remaining failures are ledger-state
// dependent (no reviewable answer, id mismatch) or network-level.

// AcceptDecision approves the answer currently under review.
type AcceptDecision struct {
	RequestID         uuid.UUID
	QuestionID        uuid.UUID
	ReviewingAnswerID uuid.UUID
	Parameters        Checklist
	// Override records that the reviewer explicitly confirmed submission
	// despite an advisory checklist suggestion.
	Override bool
}

// NewAcceptDecision validates and builds an AcceptDecision.
func NewAcceptDecision(questionID, reviewingAnswerID uuid.UUID, params Checklist, override bool) (AcceptDecision, error) {
	if questionID == uuid.Nil || reviewingAnswerID == uuid.Nil {
		return AcceptDecision{}, fmt.Errorf("%w: question and answer ids are required", apperrors.ErrValidation)
	}
	return AcceptDecision{
		RequestID:         uuid.New(),
		QuestionID:        questionID,
		ReviewingAnswerID: reviewingAnswerID,
		Parameters:        params,
		Override:          override,
	}, nil
}

// RejectDecision rejects the answer under review and supplies the
// reviewer's own replacement answer as the new pending iteration.
type RejectDecision struct {
	RequestID         uuid.UUID
	QuestionID        uuid.UUID
	ReviewingAnswerID uuid.UUID
	Parameters        Checklist
	Reason            string
	Replacement       AnswerInput
}

// NewRejectDecision validates and builds a RejectDecision.
func NewRejectDecision(questionID, reviewingAnswerID uuid.UUID, params Checklist, reason string, replacement AnswerInput) (RejectDecision, error) {
	if questionID == uuid.Nil || reviewingAnswerID == uuid.Nil {
		return RejectDecision{}, fmt.Errorf("%w: question and answer ids are required", apperrors.ErrValidation)
	}
	if err := ValidateReason(reason); err != nil {
		return RejectDecision{}, err
	}
	if err := replacement.Validate(); err != nil {
		return RejectDecision{}, err
	}
	return RejectDecision{
		RequestID:         uuid.New(),
		QuestionID:        questionID,
		ReviewingAnswerID: reviewingAnswerID,
		Parameters:        params,
		Reason:            reason,
		Replacement:       replacement,
	}, nil
}

// ModifyDecision replaces the answer under review with a revised version,
// recording a word-level modification diff for the audit view.
type ModifyDecision struct {
	RequestID         uuid.UUID
	QuestionID        uuid.UUID
	ReviewingAnswerID uuid.UUID
	Parameters        Checklist
	Reason            string
	Revised           AnswerInput
}

// NewModifyDecision validates and builds a ModifyDecision.
func NewModifyDecision(questionID, reviewingAnswerID uuid.UUID, params Checklist, reason string, revised AnswerInput) (ModifyDecision, error) {
	if questionID == uuid.Nil || reviewingAnswerID == uuid.Nil {
		return ModifyDecision{}, fmt.Errorf("%w: question and answer ids are required", apperrors.ErrValidation)
	}
	if err := ValidateReason(reason); err != nil {
		return ModifyDecision{}, err
	}
	if err := revised.Validate(); err != nil {
		return ModifyDecision{}, err
	}
	return ModifyDecision{
		RequestID:         uuid.New(),
		QuestionID:        questionID,
		ReviewingAnswerID: reviewingAnswerID,
		Parameters:        params,
		Reason:            reason,
		Revised:           revised,
	}, nil
}

// RerouteDecision escalates the answer under review to another reviewer
// pool.
type RerouteDecision struct {
	RequestID  uuid.UUID
	QuestionID uuid.UUID
	AnswerID   uuid.UUID
	ReroutedTo uuid.UUID
	Comment    string
}

// NewRerouteDecision validates and builds a RerouteDecision.
func NewRerouteDecision(questionID, answerID, reroutedTo uuid.UUID, comment string) (RerouteDecision, error) {
	if questionID == uuid.Nil || answerID == uuid.Nil {
		return RerouteDecision{}, fmt.Errorf("%w: question and answer ids are required", apperrors.ErrValidation)
	}
	if reroutedTo == uuid.Nil {
		return RerouteDecision{}, fmt.Errorf("%w: reroute target is required", apperrors.ErrValidation)
	}
	return RerouteDecision{
		RequestID:  uuid.New(),
		QuestionID: questionID,
		AnswerID:   answerID,
		ReroutedTo: reroutedTo,
		Comment:    comment,
	}, nil
}

// RejectRerouteDecision declines an escalation itself, independent of the
// quality of the underlying answer. The question returns to the
// originating moderator's queue.
type RejectRerouteDecision struct {
	RequestID   uuid.UUID
	RerouteID   uuid.UUID
	QuestionID  uuid.UUID
	ModeratorID uuid.UUID
	ExpertID    uuid.UUID
	Reason      string
}

// NewRejectRerouteDecision validates and builds a RejectRerouteDecision.
func NewRejectRerouteDecision(rerouteID, questionID, moderatorID, expertID uuid.UUID, reason string) (RejectRerouteDecision, error) {
	if rerouteID == uuid.Nil || questionID == uuid.Nil {
		return RejectRerouteDecision{}, fmt.Errorf("%w: reroute and question ids are required", apperrors.ErrValidation)
	}
	if err := ValidateReason(reason); err != nil {
		return RejectRerouteDecision{}, err
	}
	return RejectRerouteDecision{
		RequestID:   uuid.New(),
		RerouteID:   rerouteID,
		QuestionID:  questionID,
		ModeratorID: moderatorID,
		ExpertID:    expertID,
		Reason:      reason,
	}, nil
}
