// Package gate implements the checklist quality gate that decides which
// review actions a checklist state permits. Evaluation is pure: it never
// inspects ledger history or network state, and is re-run on every
// checklist change.
package gate

import "github.com/cropdesk/review-engine/pkg/models"

// Suggestion texts surfaced to the reviewer.
const (
	SuggestionEnableValueInsight  = "Enable Value & Insight to proceed with modification"
	SuggestionDisableValueInsight = "Disable Value & Insight to reject this answer"
	SuggestionCriteriaUnmet       = "Some criteria are unmet; consider modifying or rejecting instead"
	SuggestionConsiderRejecting   = "Several criteria are unmet; consider rejecting instead"
)

// Verdict is the outcome of evaluating a checklist against an intended
// action. An empty suggestion means the action may proceed. A non-blocking
// suggestion is advisory: strict call sites still disable submission on it,
// advisory call sites let the reviewer confirm past it.
type Verdict struct {
	Suggestion string
	Blocking   bool
}

// OK reports whether the checklist permits the action outright.
func (v Verdict) OK() bool {
	return v.Suggestion == ""
}

// DisablesSubmit reports whether a strict call site should disable the
// submit control. Any suggestion, advisory or blocking, disables it there;
// the reviewer clears it by resetting the checklist or overriding.
func (v Verdict) DisablesSubmit() bool {
	return !v.OK()
}

// Evaluate maps a fully-specified checklist plus the intended action to a
// verdict. It is a pure function of its inputs.
func Evaluate(c models.Checklist, action models.ReviewAction) Verdict {
	switch action {
	case models.ActionModified:
		if !c.ValueInsight {
			return Verdict{Suggestion: SuggestionEnableValueInsight, Blocking: true}
		}
		return Verdict{}
	case models.ActionRejected:
		if c.ValueInsight {
			return Verdict{Suggestion: SuggestionDisableValueInsight, Blocking: true}
		}
		return Verdict{}
	case models.ActionAccepted:
		switch disabled := c.DisabledCount(); {
		case disabled == 0:
			return Verdict{}
		case disabled <= 2:
			return Verdict{Suggestion: SuggestionCriteriaUnmet}
		default:
			return Verdict{Suggestion: SuggestionConsiderRejecting}
		}
	}
	return Verdict{}
}

// DefaultChecklist returns the checklist state a review dialog opens with
// for the given action: accept starts all-enabled, reject all-disabled,
// modify with only Value & Insight enabled.
func DefaultChecklist(action models.ReviewAction) models.Checklist {
	switch action {
	case models.ActionAccepted:
		return models.Checklist{
			ContextRelevance:         true,
			TechnicalAccuracy:        true,
			PracticalUtility:         true,
			ValueInsight:             true,
			CredibilityTrust:         true,
			ReadabilityCommunication: true,
		}
	case models.ActionModified:
		return models.Checklist{ValueInsight: true}
	default:
		return models.Checklist{}
	}
}
