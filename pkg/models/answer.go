package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Answer is one drafted answer iteration for a question. Answers are
// immutable after creation: a "modification" produces a brand-new Answer
// carried by a new ledger entry, never an in-place edit.
type Answer struct {
	ID            uuid.UUID `json:"id"`
	Text          string    `json:"text"`
	Sources       []string  `json:"sources"`
	Remarks       string    `json:"remarks,omitempty"`
	ApprovalCount int       `json:"approval_count"`
	AuthorID      uuid.UUID `json:"author_id"`
	Iteration     int       `json:"iteration"`
	IsFinalAnswer bool      `json:"is_final_answer"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NormalizeSources trims, drops empty entries, and deduplicates source URLs
// while preserving their original order.
func NormalizeSources(sources []string) []string {
	seen := make(map[string]struct{}, len(sources))
	out := make([]string, 0, len(sources))
	for _, s := range sources {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
