// internal/workflow/orchestrator.go

// Package workflow is the state machine tying the pipeline together: it runs
// synthesis and policy for incoming tickets, persists draft, ledger and audit
// records, and processes human approve/reject/override actions against the
// persisted state. Approval is the only transition that sends mail.
package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "ticket-autopilot/internal/common/errors"
	"ticket-autopilot/internal/common/logger"
	"ticket-autopilot/internal/common/metrics"
	"ticket-autopilot/internal/mail"
	"ticket-autopilot/internal/models"
	"ticket-autopilot/internal/policy"
)

// Synthesizer produces a draft answer with a confidence score for a query.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string) (models.SynthesisResult, error)
}

// DraftStore is the keyed current-state storage for drafts.
type DraftStore interface {
	Save(ctx context.Context, record models.DraftRecord) (string, error)
	Load(ctx context.Context, ticketID string) (models.DraftRecord, error)
	ListPending(ctx context.Context) ([]models.DraftRecord, error)
}

// DecisionLedger is the append-only decision history.
type DecisionLedger interface {
	Append(ctx context.Context, entry models.LedgerEntry) (string, error)
	History(ctx context.Context, ticketID string) ([]models.LedgerEntry, error)
}

// AuditLogger is the dual-write operational ticket log.
type AuditLogger interface {
	Log(ctx context.Context, ticketID, email string, confidence float64, action, answer string) error
}

// EscalationNotifier alerts the human queue about escalated tickets.
type EscalationNotifier interface {
	NotifyEscalation(ctx context.Context, ticketID, userEmail, subject string, confidence float64, source string)
}

// MetricsRecorder mirrors ticket outcomes to the OpenTelemetry meter.
type MetricsRecorder interface {
	RecordTicketProcessed(ctx context.Context, action string)
	RecordTicketDuration(ctx context.Context, duration time.Duration, action string)
}

// ProcessResult is the outcome of ticket ingestion. The email is not sent
// here regardless of action.
type ProcessResult struct {
	TicketID        string                    `json:"ticket_id"`
	UserEmail       string                    `json:"user_email"`
	DraftReply      string                    `json:"draft_reply"`
	Confidence      float64                   `json:"confidence"`
	Action          models.Action             `json:"action"`
	DraftLocation   string                    `json:"draft_saved,omitempty"`
	ExternalDraftID string                    `json:"external_draft_id,omitempty"`
	ContextsUsed    []models.RetrievedContext `json:"contexts_used"`
}

// ApproveResult is the receipt for a finalized send.
type ApproveResult struct {
	TicketID  string `json:"ticket_id"`
	Status    string `json:"status"`
	MessageID string `json:"message_id"`
}

// RejectResult confirms a rejection.
type RejectResult struct {
	TicketID string `json:"ticket_id"`
	Status   string `json:"status"`
}

// OverrideResult confirms an admin override.
type OverrideResult struct {
	TicketID       string `json:"ticket_id"`
	OverrideAction string `json:"override_action"`
	Status         string `json:"status"`
}

// PendingResult lists drafts awaiting human action.
type PendingResult struct {
	Count int                  `json:"count"`
	Items []models.DraftRecord `json:"items"`
}

// HistoryResult is the decision history for one ticket, oldest first.
type HistoryResult struct {
	TicketID       string               `json:"ticket_id"`
	LatestDecision *models.LedgerEntry  `json:"latest_decision"`
	History        []models.LedgerEntry `json:"history"`
}

// Orchestrator drives the per-ticket workflow.
type Orchestrator struct {
	synth    Synthesizer
	policy   policy.Thresholds
	drafts   DraftStore
	ledger   DecisionLedger
	audit    AuditLogger
	mailer   mail.Transport
	notifier EscalationNotifier
	obs      MetricsRecorder
	log      logger.Logger

	locks sync.Map // ticket_id -> *sync.Mutex
}

func New(synth Synthesizer, thresholds policy.Thresholds, drafts DraftStore, ledger DecisionLedger,
	audit AuditLogger, mailer mail.Transport, notifier EscalationNotifier, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		synth:    synth,
		policy:   thresholds,
		drafts:   drafts,
		ledger:   ledger,
		audit:    audit,
		mailer:   mailer,
		notifier: notifier,
		log:      log,
	}
}

// WithObservability attaches an OpenTelemetry recorder. Optional; prometheus
// counters are always kept.
func (o *Orchestrator) WithObservability(rec MetricsRecorder) *Orchestrator {
	o.obs = rec
	return o
}

// lockTicket serializes state mutations per ticket_id. Different tickets
// proceed independently.
func (o *Orchestrator) lockTicket(ticketID string) func() {
	v, _ := o.locks.LoadOrStore(ticketID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// ProcessTicket ingests one ticket: synthesize, decide, persist. On the
// draft path the ordering is fixed: ledger append, then mail staging, then
// draft save. The draft row must never claim a staged id that was not
// actually created.
func (o *Orchestrator) ProcessTicket(ctx context.Context, ticket models.Ticket) (ProcessResult, error) {
	start := time.Now()

	ticketID := ticket.TicketID
	if ticketID == "" {
		ticketID = uuid.NewString()
	}

	query := "Subject: " + ticket.Subject + "\nMessage: " + ticket.Message
	synthesized, err := o.synth.Synthesize(ctx, query)
	if err != nil {
		o.recordFailure("process_ticket", err)
		return ProcessResult{}, err
	}

	action := o.policy.Decide(synthesized.Confidence)

	result := ProcessResult{
		TicketID:     ticketID,
		UserEmail:    ticket.UserEmail,
		DraftReply:   synthesized.Answer,
		Confidence:   synthesized.Confidence,
		Action:       action,
		ContextsUsed: synthesized.Contexts,
	}

	switch action {
	case models.ActionSaveDraft, models.ActionPendingApproval:
		unlock := o.lockTicket(ticketID)
		location, staged, err := o.persistDraftPath(ctx, ticketID, ticket, synthesized, action)
		unlock()
		if err != nil {
			o.recordFailure("process_ticket", err)
			return ProcessResult{}, err
		}
		result.DraftLocation = location
		result.ExternalDraftID = staged

	case models.ActionEscalate:
		o.notifier.NotifyEscalation(ctx, ticketID, ticket.UserEmail, ticket.Subject, synthesized.Confidence, "ingest")
	}

	o.auditBestEffort(ctx, ticketID, ticket.UserEmail, synthesized.Confidence, string(action), synthesized.Answer)

	metrics.TicketsProcessed.WithLabelValues(string(action)).Inc()
	metrics.TicketProcessDuration.WithLabelValues("process_ticket").Observe(time.Since(start).Seconds())
	if o.obs != nil {
		o.obs.RecordTicketProcessed(ctx, string(action))
		o.obs.RecordTicketDuration(ctx, time.Since(start), string(action))
	}
	o.log.Info("ticket processed", map[string]interface{}{
		"ticket_id":  ticketID,
		"action":     action,
		"confidence": synthesized.Confidence,
	})
	return result, nil
}

func (o *Orchestrator) persistDraftPath(ctx context.Context, ticketID string, ticket models.Ticket,
	synthesized models.SynthesisResult, action models.Action) (location, externalDraftID string, err error) {

	_, err = o.ledger.Append(ctx, models.LedgerEntry{
		TicketID:   ticketID,
		UserEmail:  ticket.UserEmail,
		Subject:    ticket.Subject,
		Answer:     synthesized.Answer,
		Confidence: synthesized.Confidence,
		Action:     action,
		Timestamp:  time.Now().UTC(),
	})
	if err != nil {
		return "", "", err
	}

	staged, err := o.mailer.StageDraft(ctx, ticket.UserEmail, ticket.Subject, synthesized.Answer)
	if err != nil {
		return "", "", err
	}

	location, err = o.drafts.Save(ctx, models.DraftRecord{
		TicketID:        ticketID,
		Email:           ticket.UserEmail,
		DraftBody:       synthesized.Answer,
		Confidence:      synthesized.Confidence,
		Status:          string(action),
		ExternalDraftID: staged.ExternalDraftID,
		UpdatedAt:       time.Now().UTC(),
	})
	if err != nil {
		return "", "", err
	}
	return location, staged.ExternalDraftID, nil
}

// ApproveTicket finalizes the send for a staged draft. This is the only
// operation that delivers mail.
func (o *Orchestrator) ApproveTicket(ctx context.Context, ticketID string) (ApproveResult, error) {
	unlock := o.lockTicket(ticketID)
	defer unlock()

	record, err := o.drafts.Load(ctx, ticketID)
	if err != nil {
		o.recordFailure("approve_ticket", err)
		return ApproveResult{}, err
	}
	if record.ExternalDraftID == "" {
		err := apperrors.NewMissingStagedIDError(ticketID)
		o.recordFailure("approve_ticket", err)
		return ApproveResult{}, err
	}

	sent, err := o.mailer.FinalizeSend(ctx, record.ExternalDraftID)
	if err != nil {
		o.recordFailure("approve_ticket", err)
		return ApproveResult{}, err
	}

	record.Status = models.StatusSent
	record.UpdatedAt = time.Now().UTC()
	if _, err := o.drafts.Save(ctx, record); err != nil {
		o.recordFailure("approve_ticket", err)
		return ApproveResult{}, err
	}

	o.auditBestEffort(ctx, ticketID, record.Email, record.Confidence, models.StatusSent, record.DraftBody)
	o.log.Info("ticket approved and sent", map[string]interface{}{
		"ticket_id":  ticketID,
		"message_id": sent.MessageID,
	})
	return ApproveResult{
		TicketID:  ticketID,
		Status:    "EMAIL_SENT",
		MessageID: sent.MessageID,
	}, nil
}

// RejectTicket marks a draft rejected. No mail-provider call is made.
func (o *Orchestrator) RejectTicket(ctx context.Context, ticketID string) (RejectResult, error) {
	unlock := o.lockTicket(ticketID)
	defer unlock()

	record, err := o.drafts.Load(ctx, ticketID)
	if err != nil {
		o.recordFailure("reject_ticket", err)
		return RejectResult{}, err
	}

	record.Status = models.StatusRejected
	record.UpdatedAt = time.Now().UTC()
	if _, err := o.drafts.Save(ctx, record); err != nil {
		o.recordFailure("reject_ticket", err)
		return RejectResult{}, err
	}

	o.auditBestEffort(ctx, ticketID, record.Email, record.Confidence, models.StatusRejected, record.DraftBody)
	return RejectResult{TicketID: ticketID, Status: models.StatusRejected}, nil
}

// OverrideDecision lets an admin re-route an existing draft. Only SAVE_DRAFT
// and ESCALATE are accepted; forcing a send this way is disallowed.
func (o *Orchestrator) OverrideDecision(ctx context.Context, ticketID, newAction string) (OverrideResult, error) {
	action := models.Action(strings.ToUpper(newAction))
	if action != models.ActionSaveDraft && action != models.ActionEscalate {
		err := apperrors.NewInvalidActionError(newAction)
		o.recordFailure("override_decision", err)
		return OverrideResult{}, err
	}

	unlock := o.lockTicket(ticketID)
	defer unlock()

	record, err := o.drafts.Load(ctx, ticketID)
	if err != nil {
		o.recordFailure("override_decision", err)
		return OverrideResult{}, err
	}

	var status string
	if action == models.ActionSaveDraft {
		record.Status = models.StatusAdminDraft
		record.UpdatedAt = time.Now().UTC()
		if _, err := o.drafts.Save(ctx, record); err != nil {
			o.recordFailure("override_decision", err)
			return OverrideResult{}, err
		}
		status = "DRAFT_SAVED_BY_ADMIN"
	} else {
		// Escalation leaves the stored record untouched.
		o.notifier.NotifyEscalation(ctx, ticketID, record.Email, "", record.Confidence, "admin_override")
		status = "ESCALATED_BY_ADMIN"
	}

	o.auditBestEffort(ctx, ticketID, record.Email, record.Confidence, "ADMIN_OVERRIDE_"+string(action), record.DraftBody)
	o.log.Info("decision overridden", map[string]interface{}{
		"ticket_id": ticketID,
		"action":    action,
	})
	return OverrideResult{
		TicketID:       ticketID,
		OverrideAction: string(action),
		Status:         status,
	}, nil
}

// ListPending returns every draft still awaiting a human decision.
func (o *Orchestrator) ListPending(ctx context.Context) (PendingResult, error) {
	records, err := o.drafts.ListPending(ctx)
	if err != nil {
		o.recordFailure("pending_approvals", err)
		return PendingResult{}, err
	}
	if records == nil {
		records = []models.DraftRecord{}
	}
	return PendingResult{Count: len(records), Items: records}, nil
}

// DecisionHistory returns the full ledger for one ticket, oldest first, with
// the latest decision extracted for convenience.
func (o *Orchestrator) DecisionHistory(ctx context.Context, ticketID string) (HistoryResult, error) {
	entries, err := o.ledger.History(ctx, ticketID)
	if err != nil {
		o.recordFailure("decision_status", err)
		return HistoryResult{}, err
	}
	if len(entries) == 0 {
		err := apperrors.NewHistoryNotFoundError(ticketID)
		o.recordFailure("decision_status", err)
		return HistoryResult{}, err
	}
	return HistoryResult{
		TicketID:       ticketID,
		LatestDecision: &entries[len(entries)-1],
		History:        entries,
	}, nil
}

// auditBestEffort writes the operational log entry. The triggering request
// is already committed at this point, so a dual-sink failure is surfaced to
// metrics and logs rather than the caller.
func (o *Orchestrator) auditBestEffort(ctx context.Context, ticketID, email string, confidence float64, action, answer string) {
	if err := o.audit.Log(ctx, ticketID, email, confidence, action, answer); err != nil {
		metrics.TicketsFailed.WithLabelValues("ticket_log", string(apperrors.ErrCodeTicketLogFailed)).Inc()
		o.log.Error("ticket log write failed in all sinks", map[string]interface{}{
			"ticket_id": ticketID,
			"error":     err,
		})
	}
}

func (o *Orchestrator) recordFailure(operation string, err error) {
	code := "UNKNOWN"
	var stdErr *apperrors.StandardError
	if errors.As(err, &stdErr) {
		code = string(stdErr.Code)
	}
	metrics.TicketsFailed.WithLabelValues(operation, code).Inc()
}
