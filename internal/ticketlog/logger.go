// internal/ticketlog/logger.go

// Package ticketlog is the operational audit trail: every processed ticket
// is dual-written to a queryable PostgreSQL table and an append-only JSONL
// file. The answer text never lands here, only a one-way fingerprint of it.
// Nothing in the workflow reads this back.
package ticketlog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"ticket-autopilot/internal/common/database"
	apperrors "ticket-autopilot/internal/common/errors"
	"ticket-autopilot/internal/common/logger"
	"ticket-autopilot/internal/models"
)

const fingerprintHexLen = 16

const schema = `
CREATE TABLE IF NOT EXISTS ticket_logs (
	id          BIGSERIAL PRIMARY KEY,
	ticket_id   TEXT NOT NULL,
	email       TEXT NOT NULL,
	confidence  DOUBLE PRECISION NOT NULL,
	action      TEXT NOT NULL,
	answer_hash TEXT NOT NULL,
	timestamp   TIMESTAMPTZ NOT NULL
)`

const insertQuery = `
INSERT INTO ticket_logs (ticket_id, email, confidence, action, answer_hash, timestamp)
VALUES ($1, $2, $3, $4, $5, $6)`

// TicketLogger dual-writes audit records. Each sink is best-effort; the call
// fails only when both sinks fail.
type TicketLogger struct {
	db        *database.PostgresClient
	jsonlPath string
	log       logger.Logger

	mu sync.Mutex // serializes JSONL appends
}

func New(db *database.PostgresClient, jsonlPath string, log logger.Logger) *TicketLogger {
	return &TicketLogger{db: db, jsonlPath: jsonlPath, log: log}
}

// EnsureSchema creates the ticket_logs table and the JSONL parent directory.
func (t *TicketLogger) EnsureSchema(ctx context.Context) error {
	if _, err := t.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create ticket_logs table: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(t.jsonlPath), 0o755); err != nil {
		return fmt.Errorf("create ticket log directory: %w", err)
	}
	return nil
}

// Log fingerprints the answer and writes the entry to both sinks, structured
// store first. A single sink failing is logged and swallowed; both failing
// returns an error so the loss is observable upstream.
// The action is a free string: routing actions at ingest, draft statuses or
// admin tags (SENT, ESCALATED_BY_ADMIN) for human actions.
func (t *TicketLogger) Log(ctx context.Context, ticketID, email string, confidence float64, action, answer string) error {
	entry := models.TicketLogEntry{
		TicketID:   ticketID,
		Email:      email,
		Confidence: confidence,
		Action:     action,
		AnswerHash: Fingerprint(answer),
		Timestamp:  time.Now().UTC(),
	}

	dbErr := t.writeStructured(ctx, entry)
	if dbErr != nil {
		t.log.Warn("ticket log structured sink failed", map[string]interface{}{
			"ticket_id": ticketID,
			"error":     dbErr,
		})
	}

	fileErr := t.writeLine(entry)
	if fileErr != nil {
		t.log.Warn("ticket log file sink failed", map[string]interface{}{
			"ticket_id": ticketID,
			"error":     fileErr,
		})
	}

	if dbErr != nil && fileErr != nil {
		return apperrors.NewTicketLogFailedError(fmt.Errorf("structured: %v, file: %v", dbErr, fileErr))
	}
	return nil
}

func (t *TicketLogger) writeStructured(ctx context.Context, entry models.TicketLogEntry) error {
	_, err := t.db.Exec(ctx, insertQuery,
		entry.TicketID, entry.Email, entry.Confidence,
		entry.Action, entry.AnswerHash, entry.Timestamp)
	return err
}

func (t *TicketLogger) writeLine(entry models.TicketLogEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := os.OpenFile(t.jsonlPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(append(line, '\n'))
	return err
}

// Fingerprint returns the 16-hex-char SHA-256 prefix used in place of the
// raw answer text.
func Fingerprint(answer string) string {
	sum := sha256.Sum256([]byte(answer))
	return hex.EncodeToString(sum[:])[:fingerprintHexLen]
}
