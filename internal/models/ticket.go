// internal/models/ticket.go
package models

// Action is the routing decision for a synthesized reply.
type Action string

const (
	ActionPendingApproval Action = "PENDING_APPROVAL"
	ActionSaveDraft       Action = "SAVE_DRAFT"
	ActionEscalate        Action = "ESCALATE"
)

// Valid reports whether a is one of the three routing actions.
func (a Action) Valid() bool {
	switch a {
	case ActionPendingApproval, ActionSaveDraft, ActionEscalate:
		return true
	}
	return false
}

// Draft lifecycle statuses. PENDING_APPROVAL and SAVE_DRAFT mirror the
// ingest action; ADMIN_DRAFT marks a human override; SENT and REJECTED are
// terminal.
const (
	StatusPendingApproval = "PENDING_APPROVAL"
	StatusSaveDraft       = "SAVE_DRAFT"
	StatusAdminDraft      = "ADMIN_DRAFT"
	StatusSent            = "SENT"
	StatusRejected        = "REJECTED"
)

// Ticket is an inbound support request. TicketID may be empty; the workflow
// generates one in that case. Tickets are consumed once and never persisted
// directly.
type Ticket struct {
	TicketID  string `json:"ticket_id,omitempty"`
	UserEmail string `json:"user_email"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
}
