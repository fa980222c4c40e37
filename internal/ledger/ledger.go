// internal/ledger/ledger.go

// Package ledger records every routing decision, append-only. Rows are never
// updated or deleted; the serial id preserves append order per ticket.
package ledger

import (
	"context"
	"fmt"
	"time"

	"ticket-autopilot/internal/common/database"
	apperrors "ticket-autopilot/internal/common/errors"
	"ticket-autopilot/internal/common/logger"
	"ticket-autopilot/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS decision_ledger (
	id         BIGSERIAL PRIMARY KEY,
	ticket_id  TEXT NOT NULL,
	user_email TEXT NOT NULL,
	subject    TEXT NOT NULL,
	answer     TEXT NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	action     TEXT NOT NULL,
	timestamp  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS decision_ledger_ticket_idx ON decision_ledger (ticket_id)`

const appendQuery = `
INSERT INTO decision_ledger (ticket_id, user_email, subject, answer, confidence, action, timestamp)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`

const historyQuery = `
SELECT ticket_id, user_email, subject, answer, confidence, action, timestamp
FROM decision_ledger WHERE ticket_id = $1 ORDER BY id`

// Ledger is the authoritative decision history, stored in PostgreSQL.
type Ledger struct {
	db  *database.PostgresClient
	log logger.Logger
}

func New(db *database.PostgresClient, log logger.Logger) *Ledger {
	return &Ledger{db: db, log: log}
}

// EnsureSchema creates the decision_ledger table if it does not exist.
func (l *Ledger) EnsureSchema(ctx context.Context) error {
	if _, err := l.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create decision_ledger table: %w", err)
	}
	return nil
}

// Append writes one entry and returns its location. A failed append must
// surface to the caller: losing the record of a decision silently is worse
// than failing the request.
func (l *Ledger) Append(ctx context.Context, entry models.LedgerEntry) (string, error) {
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	var id int64
	err := l.db.QueryRow(ctx, appendQuery,
		entry.TicketID, entry.UserEmail, entry.Subject,
		entry.Answer, entry.Confidence, string(entry.Action), ts,
	).Scan(&id)
	if err != nil {
		return "", apperrors.NewLedgerAppendFailedError(err)
	}

	l.log.Debug("decision appended", map[string]interface{}{
		"ticket_id": entry.TicketID,
		"action":    entry.Action,
		"ledger_id": id,
	})
	return fmt.Sprintf("decision_ledger/%d", id), nil
}

// History returns every decision for ticketID, oldest first.
func (l *Ledger) History(ctx context.Context, ticketID string) ([]models.LedgerEntry, error) {
	rows, err := l.db.Query(ctx, historyQuery, ticketID)
	if err != nil {
		return nil, apperrors.NewStorageReadFailedError(err)
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		var entry models.LedgerEntry
		var action string
		err := rows.Scan(&entry.TicketID, &entry.UserEmail, &entry.Subject,
			&entry.Answer, &entry.Confidence, &action, &entry.Timestamp)
		if err != nil {
			return nil, apperrors.NewCorruptRecordError("decision_ledger/"+ticketID, err)
		}
		entry.Action = models.Action(action)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageReadFailedError(err)
	}
	return entries, nil
}
