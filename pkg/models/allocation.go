package models

import (
	"time"

	"github.com/google/uuid"
)

// AllocationActionType selects which review queue a listing draws from:
// normally allocated questions or escalations awaiting the reviewer.
type AllocationActionType string

const (
	ActionTypeAllocated AllocationActionType = "allocated"
	ActionTypeReroute   AllocationActionType = "reroute"
)

// AllocationFilter narrows the question supply presented to a reviewer.
// Zero values mean "no constraint".
type AllocationFilter struct {
	Statuses      []QuestionStatus     `json:"statuses,omitempty"`
	Source        string               `json:"source,omitempty"`
	State         string               `json:"state,omitempty"`
	Crop          string               `json:"crop,omitempty"`
	Domain        string               `json:"domain,omitempty"`
	UserID        uuid.UUID            `json:"user_id,omitempty"`
	Priority      QuestionPriority     `json:"priority,omitempty"`
	CreatedAfter  *time.Time           `json:"created_after,omitempty"`
	CreatedBefore *time.Time           `json:"created_before,omitempty"`
	MinAnswers    *int                 `json:"min_answers,omitempty"`
	MaxAnswers    *int                 `json:"max_answers,omitempty"`
	ActionType    AllocationActionType `json:"action_type,omitempty"`
	ReviewLevel   int                  `json:"review_level,omitempty"`
}

// QuestionPage is one page of the allocation queue.
type QuestionPage struct {
	Items      []QuestionSummary `json:"items"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalCount int               `json:"total_count"`
	HasNext    bool              `json:"has_next"`
}
