// internal/draftstore/store.go

// Package draftstore owns the current workflow state of each ticket: one
// durable row per ticket_id, fully overwritten on every save. It is the
// single source of truth for draft status; history lives in the ledger.
package draftstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ticket-autopilot/internal/common/database"
	apperrors "ticket-autopilot/internal/common/errors"
	"ticket-autopilot/internal/common/logger"
	"ticket-autopilot/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS ticket_drafts (
	ticket_id         TEXT PRIMARY KEY,
	email             TEXT NOT NULL,
	draft_body        TEXT NOT NULL,
	confidence        DOUBLE PRECISION NOT NULL,
	status            TEXT NOT NULL,
	external_draft_id TEXT,
	updated_at        TIMESTAMPTZ NOT NULL
)`

const upsertQuery = `
INSERT INTO ticket_drafts (ticket_id, email, draft_body, confidence, status, external_draft_id, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (ticket_id) DO UPDATE SET
	email             = EXCLUDED.email,
	draft_body        = EXCLUDED.draft_body,
	confidence        = EXCLUDED.confidence,
	status            = EXCLUDED.status,
	external_draft_id = EXCLUDED.external_draft_id,
	updated_at        = EXCLUDED.updated_at`

const selectQuery = `
SELECT ticket_id, email, draft_body, confidence, status, external_draft_id, updated_at
FROM ticket_drafts WHERE ticket_id = $1`

const listPendingQuery = `
SELECT ticket_id, email, draft_body, confidence, status, external_draft_id, updated_at
FROM ticket_drafts WHERE status IN ($1, $2, $3) ORDER BY updated_at`

// Store persists DraftRecords in PostgreSQL.
type Store struct {
	db  *database.PostgresClient
	log logger.Logger
}

func New(db *database.PostgresClient, log logger.Logger) *Store {
	return &Store{db: db, log: log}
}

// EnsureSchema creates the ticket_drafts table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create ticket_drafts table: %w", err)
	}
	return nil
}

// Save upserts the record for record.TicketID and returns its location. The
// upsert replaces every column, so no field from a prior save survives. The
// single-statement write is what keeps concurrent saves for one key from
// interleaving.
func (s *Store) Save(ctx context.Context, record models.DraftRecord) (string, error) {
	externalID := sql.NullString{String: record.ExternalDraftID, Valid: record.ExternalDraftID != ""}

	updatedAt := record.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(ctx, upsertQuery,
		record.TicketID, record.Email, record.DraftBody,
		record.Confidence, record.Status, externalID, updatedAt,
	)
	if err != nil {
		return "", apperrors.NewStorageWriteFailedError(err)
	}

	location := "ticket_drafts/" + record.TicketID
	s.log.Debug("draft saved", map[string]interface{}{
		"ticket_id": record.TicketID,
		"status":    record.Status,
	})
	return location, nil
}

// Load returns the record for ticketID, or a not-found error.
func (s *Store) Load(ctx context.Context, ticketID string) (models.DraftRecord, error) {
	row := s.db.QueryRow(ctx, selectQuery, ticketID)

	record, err := scanDraft(row.Scan)
	if err == sql.ErrNoRows {
		return models.DraftRecord{}, apperrors.NewDraftNotFoundError(ticketID)
	}
	if err != nil {
		return models.DraftRecord{}, apperrors.NewCorruptRecordError("ticket_drafts/"+ticketID, err)
	}
	return record, nil
}

// ListPending returns every draft a human still needs to act on, oldest
// update first.
func (s *Store) ListPending(ctx context.Context) ([]models.DraftRecord, error) {
	rows, err := s.db.Query(ctx, listPendingQuery,
		models.StatusPendingApproval, models.StatusSaveDraft, models.StatusAdminDraft)
	if err != nil {
		return nil, apperrors.NewStorageReadFailedError(err)
	}
	defer rows.Close()

	var records []models.DraftRecord
	for rows.Next() {
		record, err := scanDraft(rows.Scan)
		if err != nil {
			return nil, apperrors.NewCorruptRecordError("ticket_drafts", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageReadFailedError(err)
	}
	return records, nil
}

func scanDraft(scan func(dest ...interface{}) error) (models.DraftRecord, error) {
	var record models.DraftRecord
	var externalID sql.NullString

	err := scan(&record.TicketID, &record.Email, &record.DraftBody,
		&record.Confidence, &record.Status, &externalID, &record.UpdatedAt)
	if err != nil {
		return models.DraftRecord{}, err
	}
	record.ExternalDraftID = externalID.String
	return record, nil
}
