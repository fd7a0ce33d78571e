package models

import "time"

// Draft is a reviewer's locally cached, unsubmitted answer-in-progress for
// one question. Drafts live only on the client: they are persisted across
// reloads and deleted the moment a submission for their question succeeds.
type Draft struct {
	Answer    string    `json:"answer"`
	Sources   []string  `json:"sources,omitempty"`
	Remarks   string    `json:"remarks,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Empty reports whether the draft carries no content at all.
func (d Draft) Empty() bool {
	return d.Answer == "" && len(d.Sources) == 0 && d.Remarks == ""
}
