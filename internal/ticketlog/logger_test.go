// internal/ticketlog/logger_test.go
package ticketlog

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-autopilot/internal/common/database"
	apperrors "ticket-autopilot/internal/common/errors"
	"ticket-autopilot/internal/common/logger"
	"ticket-autopilot/internal/models"
)

func newTestTicketLogger(t *testing.T, jsonlPath string) (*TicketLogger, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return New(&database.PostgresClient{DB: db}, jsonlPath, logger.NewNoOpLogger()), mock
}

func readLines(t *testing.T, path string) []models.TicketLogEntry {
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var entries []models.TicketLogEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry models.TicketLogEntry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	require.NoError(t, scanner.Err())
	return entries
}

func TestFingerprint(t *testing.T) {
	fp := Fingerprint("some answer text")

	assert.Len(t, fp, 16)
	assert.Regexp(t, "^[0-9a-f]{16}$", fp)
	assert.Equal(t, fp, Fingerprint("some answer text"))
	assert.NotEqual(t, fp, Fingerprint("different answer"))
}

func TestLog_BothSinks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickets.jsonl")
	tl, mock := newTestTicketLogger(t, path)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ticket_logs")).
		WithArgs("T-1", "user@example.com", 0.8, string(models.ActionPendingApproval),
			Fingerprint("the answer"), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := tl.Log(context.Background(), "T-1", "user@example.com", 0.8, string(models.ActionPendingApproval), "the answer")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	entries := readLines(t, path)
	require.Len(t, entries, 1)
	assert.Equal(t, "T-1", entries[0].TicketID)
	assert.Equal(t, Fingerprint("the answer"), entries[0].AnswerHash)
	assert.NotContains(t, entries[0].AnswerHash, "the answer")
}

func TestLog_StructuredSinkFailureIsBestEffort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickets.jsonl")
	tl, mock := newTestTicketLogger(t, path)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ticket_logs")).
		WillReturnError(errors.New("db down"))

	err := tl.Log(context.Background(), "T-1", "user@example.com", 0.2, string(models.ActionEscalate), "answer")
	require.NoError(t, err)

	// The file sink still got the line.
	assert.Len(t, readLines(t, path), 1)
}

func TestLog_FileSinkFailureIsBestEffort(t *testing.T) {
	// Point the JSONL path at a directory so the open fails.
	tl, mock := newTestTicketLogger(t, t.TempDir())

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ticket_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := tl.Log(context.Background(), "T-1", "user@example.com", 0.2, string(models.ActionEscalate), "answer")
	assert.NoError(t, err)
}

func TestLog_BothSinksFailing(t *testing.T) {
	tl, mock := newTestTicketLogger(t, t.TempDir())

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ticket_logs")).
		WillReturnError(errors.New("db down"))

	err := tl.Log(context.Background(), "T-1", "user@example.com", 0.2, string(models.ActionEscalate), "answer")
	require.Error(t, err)

	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeTicketLogFailed, stdErr.Code)
}

func TestLog_AppendsAcrossCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickets.jsonl")
	tl, mock := newTestTicketLogger(t, path)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ticket_logs")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ticket_logs")).WillReturnResult(sqlmock.NewResult(2, 1))

	require.NoError(t, tl.Log(context.Background(), "T-1", "a@example.com", 0.8, string(models.ActionPendingApproval), "first"))
	require.NoError(t, tl.Log(context.Background(), "T-2", "b@example.com", 0.5, string(models.ActionSaveDraft), "second"))

	entries := readLines(t, path)
	require.Len(t, entries, 2)
	assert.Equal(t, "T-1", entries[0].TicketID)
	assert.Equal(t, "T-2", entries[1].TicketID)
}
