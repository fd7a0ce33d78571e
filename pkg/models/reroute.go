package models

import (
	"time"

	"github.com/google/uuid"
)

// RerouteStatus tracks the escalation sub-state of a reroute.
type RerouteStatus string

const (
	RerouteStatusPending  RerouteStatus = "pending"
	RerouteStatusResolved RerouteStatus = "resolved"
	RerouteStatusDeclined RerouteStatus = "declined"
)

// Reroute is an escalation of an in-progress review to a different
// reviewer pool. The receiving reviewer either handles the answer through
// the normal accept/reject/modify set or declines the escalation itself.
type Reroute struct {
	ID          uuid.UUID     `json:"id"`
	QuestionID  uuid.UUID     `json:"question_id"`
	AnswerID    uuid.UUID     `json:"answer_id"`
	ReroutedTo  uuid.UUID     `json:"rerouted_to"`
	Comment     string        `json:"comment,omitempty"`
	ModeratorID uuid.UUID     `json:"moderator_id"`
	Status      RerouteStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
