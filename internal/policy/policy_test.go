// internal/policy/policy_test.go
package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ticket-autopilot/internal/models"
)

func TestDecide_Thresholds(t *testing.T) {
	p := Default()

	tests := []struct {
		name       string
		confidence float64
		expected   models.Action
	}{
		{name: "full confidence auto-queues", confidence: 1.0, expected: models.ActionPendingApproval},
		{name: "approve boundary is inclusive", confidence: 0.75, expected: models.ActionPendingApproval},
		{name: "just below approve saves draft", confidence: 0.749, expected: models.ActionSaveDraft},
		{name: "mid confidence saves draft", confidence: 0.6, expected: models.ActionSaveDraft},
		{name: "draft boundary is inclusive", confidence: 0.40, expected: models.ActionSaveDraft},
		{name: "just below draft escalates", confidence: 0.399, expected: models.ActionEscalate},
		{name: "zero confidence escalates", confidence: 0.0, expected: models.ActionEscalate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, p.Decide(tt.confidence))
		})
	}
}

func TestDecide_Totality(t *testing.T) {
	p := Default()

	// Sweep the full range; every score must map to exactly one valid action.
	for c := 0.0; c <= 1.0; c += 0.01 {
		action := p.Decide(c)
		assert.True(t, action.Valid(), "confidence %.2f produced invalid action %q", c, action)
	}
}

func TestDecide_CustomThresholds(t *testing.T) {
	p := Thresholds{Approve: 0.9, Draft: 0.5}

	assert.Equal(t, models.ActionPendingApproval, p.Decide(0.95))
	assert.Equal(t, models.ActionSaveDraft, p.Decide(0.75))
	assert.Equal(t, models.ActionEscalate, p.Decide(0.45))
}
