// internal/notify/notifier.go

// Package notify alerts the human support queue when a ticket is escalated.
// Notification is best-effort: the escalation itself is already recorded by
// the ticket log, so a failed publish never fails the request.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"ticket-autopilot/internal/common/config"
	"ticket-autopilot/internal/common/logger"
)

type snsAPI interface {
	Publish(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Notifier publishes escalation events to an SNS topic.
type Notifier struct {
	sns      snsAPI
	topicARN string
	enabled  bool
	log      logger.Logger
}

func New(snsClient snsAPI, cfg config.NotificationConfig, log logger.Logger) *Notifier {
	return &Notifier{
		sns:      snsClient,
		topicARN: cfg.Escalation.TopicARN,
		enabled:  cfg.Escalation.Enabled,
		log:      log,
	}
}

type escalationEvent struct {
	TicketID   string    `json:"ticket_id"`
	UserEmail  string    `json:"user_email"`
	Subject    string    `json:"subject"`
	Confidence float64   `json:"confidence"`
	Source     string    `json:"source"` // "ingest" or "admin_override"
	Timestamp  time.Time `json:"timestamp"`
}

// NotifyEscalation publishes one escalation event. Returns without publishing
// when notifications are disabled.
func (n *Notifier) NotifyEscalation(ctx context.Context, ticketID, userEmail, subject string, confidence float64, source string) {
	if !n.enabled || n.sns == nil {
		return
	}

	payload, err := json.Marshal(escalationEvent{
		TicketID:   ticketID,
		UserEmail:  userEmail,
		Subject:    subject,
		Confidence: confidence,
		Source:     source,
		Timestamp:  time.Now().UTC(),
	})
	if err != nil {
		n.log.Error("failed to marshal escalation event", map[string]interface{}{
			"ticket_id": ticketID,
			"error":     err,
		})
		return
	}

	_, err = n.sns.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String("Ticket escalated: " + ticketID),
		Message:  aws.String(string(payload)),
	})
	if err != nil {
		n.log.Warn("escalation publish failed", map[string]interface{}{
			"ticket_id": ticketID,
			"topic":     n.topicARN,
			"error":     err,
		})
		return
	}

	n.log.Info("escalation notified", map[string]interface{}{
		"ticket_id": ticketID,
		"source":    source,
	})
}
