package models

// ReviewAction is the reviewer's intended verdict on the answer under review.
type ReviewAction string

const (
	ActionAccepted ReviewAction = "accepted"
	ActionRejected ReviewAction = "rejected"
	ActionModified ReviewAction = "modified"
)

// IsValidReviewAction checks if the given action is valid.
func IsValidReviewAction(a ReviewAction) bool {
	return a == ActionAccepted || a == ActionRejected || a == ActionModified
}

// Checklist is the quality gate attached to every review action. All six
// parameters are always fully specified; there is no partial state.
type Checklist struct {
	ContextRelevance         bool `json:"context_relevance"`
	TechnicalAccuracy        bool `json:"technical_accuracy"`
	PracticalUtility         bool `json:"practical_utility"`
	ValueInsight             bool `json:"value_insight"`
	CredibilityTrust         bool `json:"credibility_trust"`
	ReadabilityCommunication bool `json:"readability_communication"`
}

// Parameters returns the six flags in their canonical order.
func (c Checklist) Parameters() [6]bool {
	return [6]bool{
		c.ContextRelevance,
		c.TechnicalAccuracy,
		c.PracticalUtility,
		c.ValueInsight,
		c.CredibilityTrust,
		c.ReadabilityCommunication,
	}
}

// DisabledCount returns how many of the six parameters are unchecked.
func (c Checklist) DisabledCount() int {
	n := 0
	for _, p := range c.Parameters() {
		if !p {
			n++
		}
	}
	return n
}

// AllEnabled reports whether every parameter is checked.
func (c Checklist) AllEnabled() bool {
	return c.DisabledCount() == 0
}
