// internal/models/records.go
package models

import "time"

// RetrievedContext is one knowledge-base passage returned by the retrieval
// engine, with a similarity score normalized to [0,1].
type RetrievedContext struct {
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"meta"`
	Score    float64                `json:"score"`
}

// SynthesisResult is the output of answer synthesis for one ticket.
type SynthesisResult struct {
	Answer     string             `json:"answer"`
	Confidence float64            `json:"confidence"`
	Contexts   []RetrievedContext `json:"contexts"`
}

// DraftRecord is the current workflow state for one ticket. One record per
// ticket_id; every save fully overwrites the previous record. Field names
// are relied on by external tooling and must not change.
type DraftRecord struct {
	TicketID        string    `json:"ticket_id"`
	Email           string    `json:"email"`
	DraftBody       string    `json:"draft_body"`
	Confidence      float64   `json:"confidence"`
	Status          string    `json:"status"`
	ExternalDraftID string    `json:"external_draft_id,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// LedgerEntry is one routing decision. Entries are append-only; the ledger
// is the authoritative decision history while the DraftRecord is only the
// current snapshot.
type LedgerEntry struct {
	TicketID   string    `json:"ticket_id"`
	UserEmail  string    `json:"user_email"`
	Subject    string    `json:"subject"`
	Answer     string    `json:"answer"`
	Confidence float64   `json:"confidence"`
	Action     Action    `json:"action"`
	Timestamp  time.Time `json:"timestamp"`
}

// TicketLogEntry is one operational-audit record. The answer text itself is
// never stored here, only a one-way fingerprint of it.
type TicketLogEntry struct {
	TicketID   string    `json:"ticket_id"`
	Email      string    `json:"email"`
	Confidence float64   `json:"confidence"`
	Action     string    `json:"action"`
	AnswerHash string    `json:"answer_hash"`
	Timestamp  time.Time `json:"timestamp"`
}
