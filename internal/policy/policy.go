// internal/policy/policy.go
package policy

import "ticket-autopilot/internal/models"

// Default routing thresholds. Production values come from configuration;
// these are the fallbacks.
const (
	DefaultApproveThreshold = 0.75
	DefaultDraftThreshold   = 0.40
)

// Thresholds maps a confidence score to a routing action. Rules are checked
// in order, first match wins:
//
//	confidence >= Approve → PENDING_APPROVAL
//	confidence >= Draft   → SAVE_DRAFT
//	otherwise             → ESCALATE
type Thresholds struct {
	Approve float64
	Draft   float64
}

// Default returns the stock thresholds.
func Default() Thresholds {
	return Thresholds{
		Approve: DefaultApproveThreshold,
		Draft:   DefaultDraftThreshold,
	}
}

// Decide routes a confidence score. Pure and total: every float maps to
// exactly one action.
func (t Thresholds) Decide(confidence float64) models.Action {
	switch {
	case confidence >= t.Approve:
		return models.ActionPendingApproval
	case confidence >= t.Draft:
		return models.ActionSaveDraft
	default:
		return models.ActionEscalate
	}
}
