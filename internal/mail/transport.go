// internal/mail/transport.go

// Package mail stages outbound drafts with the mail provider and finalizes
// sends. Staging and sending are deliberately split: the workflow stages a
// draft at ingest time and only an explicit approval may send it.
package mail

import "context"

// StagedDraft identifies a provider-side draft that has not been sent.
type StagedDraft struct {
	ExternalDraftID   string `json:"external_draft_id"`
	ProviderMessageID string `json:"provider_message_id"`
}

// SendResult is the provider's receipt for a finalized send.
type SendResult struct {
	MessageID string `json:"message_id"`
	ThreadID  string `json:"thread_id,omitempty"`
}

// Transport is the mail-provider contract the workflow depends on.
type Transport interface {
	// StageDraft creates a provider-side draft and returns its opaque id.
	// Nothing is delivered.
	StageDraft(ctx context.Context, to, subject, body string) (StagedDraft, error)

	// FinalizeSend delivers a previously staged draft. Fails with a typed
	// error when the id is unknown or the draft has expired.
	FinalizeSend(ctx context.Context, externalDraftID string) (SendResult, error)
}
