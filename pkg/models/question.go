// Package models contains domain types for the review engine.
package models

import (
	"time"

	"github.com/google/uuid"
)

// QuestionStatus represents the lifecycle status of a question, derived
// from the latest ledger entry of its submission.
type QuestionStatus string

const (
	QuestionStatusOpen     QuestionStatus = "open"
	QuestionStatusInReview QuestionStatus = "in-review"
	QuestionStatusDelayed  QuestionStatus = "delayed"
	QuestionStatusRerouted QuestionStatus = "re-routed"
	QuestionStatusClosed   QuestionStatus = "closed"
)

// ValidQuestionStatuses contains all valid question status values.
var ValidQuestionStatuses = []QuestionStatus{
	QuestionStatusOpen,
	QuestionStatusInReview,
	QuestionStatusDelayed,
	QuestionStatusRerouted,
	QuestionStatusClosed,
}

// IsValidQuestionStatus checks if the given status is valid.
func IsValidQuestionStatus(s QuestionStatus) bool {
	for _, v := range ValidQuestionStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// QuestionPriority represents the triage priority of a question.
type QuestionPriority string

const (
	PriorityLow    QuestionPriority = "low"
	PriorityMedium QuestionPriority = "medium"
	PriorityHigh   QuestionPriority = "high"
)

// IsValidPriority checks if the given priority is valid.
func IsValidPriority(p QuestionPriority) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// QuestionDetails holds the agronomic context a question was asked in.
type QuestionDetails struct {
	State    string `json:"state,omitempty"`
	District string `json:"district,omitempty"`
	Crop     string `json:"crop,omitempty"`
	Season   string `json:"season,omitempty"`
	Domain   string `json:"domain,omitempty"`
}

// Question is an agricultural question routed through the review pipeline.
// Questions are created by ingestion and never deleted by this engine;
// status is mutated only by the review state machine.
type Question struct {
	ID                uuid.UUID        `json:"id"`
	Text              string           `json:"text"`
	Status            QuestionStatus   `json:"status"`
	Priority          QuestionPriority `json:"priority"`
	Source            string           `json:"source,omitempty"`
	Details           QuestionDetails  `json:"details"`
	TotalAnswersCount int              `json:"total_answers_count"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// QuestionSummary is the compact shape returned by allocation queue listings.
type QuestionSummary struct {
	ID                uuid.UUID        `json:"id"`
	Text              string           `json:"text"`
	Status            QuestionStatus   `json:"status"`
	Priority          QuestionPriority `json:"priority"`
	Source            string           `json:"source,omitempty"`
	Details           QuestionDetails  `json:"details"`
	TotalAnswersCount int              `json:"total_answers_count"`
	CreatedAt         time.Time        `json:"created_at"`
}
