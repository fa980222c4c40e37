// Package errors provides standardized error handling for the ticket pipeline.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Lookup / workflow errors
	ErrCodeDraftNotFound    ErrorCode = "DRAFT_NOT_FOUND"
	ErrCodeHistoryNotFound  ErrorCode = "HISTORY_NOT_FOUND"
	ErrCodeInvalidAction    ErrorCode = "INVALID_ACTION"
	ErrCodeMissingStagedID  ErrorCode = "MISSING_STAGED_DRAFT_ID"
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// Collaborator errors
	ErrCodeRetrievalFailed     ErrorCode = "RETRIEVAL_FAILED"
	ErrCodeMailStagingFailed   ErrorCode = "MAIL_STAGING_FAILED"
	ErrCodeMailSendFailed      ErrorCode = "MAIL_SEND_FAILED"
	ErrCodeStagedDraftUnknown  ErrorCode = "STAGED_DRAFT_UNKNOWN"
	ErrCodeStorageReadFailed   ErrorCode = "STORAGE_READ_FAILED"
	ErrCodeStorageWriteFailed  ErrorCode = "STORAGE_WRITE_FAILED"
	ErrCodeLedgerAppendFailed  ErrorCode = "LEDGER_APPEND_FAILED"
	ErrCodeTicketLogFailed     ErrorCode = "TICKET_LOG_FAILED"
	ErrCodeCorruptRecord       ErrorCode = "CORRUPT_RECORD"
	ErrCodeNotificationFailed  ErrorCode = "NOTIFICATION_FAILED"
	ErrCodeDatabaseUnavailable ErrorCode = "DATABASE_UNAVAILABLE"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewDraftNotFoundError marks a lookup for a ticket with no persisted draft.
func NewDraftNotFoundError(ticketID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDraftNotFound,
		Message:   "No draft found for ticket",
		Details:   fmt.Sprintf("ticketId: %s", ticketID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewHistoryNotFoundError marks a decision-history lookup with no entries.
func NewHistoryNotFoundError(ticketID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeHistoryNotFound,
		Message:   "No decisions recorded for ticket",
		Details:   fmt.Sprintf("ticketId: %s", ticketID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidActionError marks an override with a disallowed target action.
func NewInvalidActionError(action string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidAction,
		Message:   "Requested action is not permitted",
		Details:   fmt.Sprintf("action: %s", action),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingStagedIDError marks an approval attempt on a draft that was never
// staged with the mail provider.
func NewMissingStagedIDError(ticketID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingStagedID,
		Message:   "Draft has no staged mail draft id, cannot send",
		Details:   fmt.Sprintf("ticketId: %s", ticketID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationFailedError marks a malformed inbound payload.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Request validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRetrievalFailedError creates a retryable knowledge-base retrieval error.
func NewRetrievalFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRetrievalFailed,
		Message:   "Knowledge-base retrieval error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewMailStagingFailedError creates a retryable mail-provider staging error.
func NewMailStagingFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMailStagingFailed,
		Message:   "Failed to stage outbound draft with mail provider",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewMailSendFailedError creates a retryable mail-provider send error.
func NewMailSendFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMailSendFailed,
		Message:   "Failed to finalize send with mail provider",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStagedDraftUnknownError marks a finalize-send for an id the provider no
// longer knows (expired or never created).
func NewStagedDraftUnknownError(draftID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeStagedDraftUnknown,
		Message:   "Staged mail draft unknown or expired",
		Details:   fmt.Sprintf("draftId: %s", draftID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStorageReadFailedError creates a retryable storage read error.
func NewStorageReadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStorageReadFailed,
		Message:   "Storage read error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStorageWriteFailedError creates a retryable storage write error.
func NewStorageWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStorageWriteFailed,
		Message:   "Storage write error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLedgerAppendFailedError creates a retryable ledger append error. Append
// failures abort the triggering request so no decision is lost silently.
func NewLedgerAppendFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLedgerAppendFailed,
		Message:   "Decision ledger append error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTicketLogFailedError marks both ticket-log sinks failing.
func NewTicketLogFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTicketLogFailed,
		Message:   "Ticket log write failed in all sinks",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCorruptRecordError marks stored data that no longer parses as the
// expected record shape. Never defaulted to an empty record.
func NewCorruptRecordError(location string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCorruptRecord,
		Message:   "Stored record failed to parse",
		Details:   fmt.Sprintf("location: %s, error: %s", location, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Classification Helpers
// ==========================

// IsNotFound reports whether err is a missing-draft or missing-history error.
func IsNotFound(err error) bool {
	code, ok := codeOf(err)
	return ok && (code == ErrCodeDraftNotFound || code == ErrCodeHistoryNotFound)
}

// IsInvalidTransition reports whether err is a rejected workflow transition.
func IsInvalidTransition(err error) bool {
	code, ok := codeOf(err)
	return ok && (code == ErrCodeInvalidAction || code == ErrCodeMissingStagedID || code == ErrCodeValidationFailed)
}

// IsCorruptRecord reports whether err is an unparseable stored record.
func IsCorruptRecord(err error) bool {
	code, ok := codeOf(err)
	return ok && code == ErrCodeCorruptRecord
}

// HTTPStatus maps an error to the status code the API layer returns:
// not-found lookups to 404, rejected transitions to 400, everything else
// (collaborator and storage failures) to 500.
func HTTPStatus(err error) int {
	switch {
	case IsNotFound(err):
		return http.StatusNotFound
	case IsInvalidTransition(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func codeOf(err error) (ErrorCode, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code, true
	}
	return "", false
}
