// internal/mail/sesoutbox.go
package mail

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"ticket-autopilot/internal/common/config"
	apperrors "ticket-autopilot/internal/common/errors"
	"ticket-autopilot/internal/common/logger"
	"ticket-autopilot/internal/common/metrics"
)

const draftKeyPrefix = "outbox:draft:"

// sesAPI is the slice of the SES client the outbox needs.
type sesAPI interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// stagedPayload is the composed message persisted in Redis between staging
// and send. SES has no provider-side draft object, so the outbox holds the
// draft itself under an opaque id with a TTL.
type stagedPayload struct {
	To       string    `json:"to"`
	Subject  string    `json:"subject"`
	Body     string    `json:"body"`
	StagedAt time.Time `json:"staged_at"`
}

// SESOutbox implements Transport on SES with Redis as the staging area.
type SESOutbox struct {
	redis   *redis.Client
	ses     sesAPI
	from    string
	prefix  string
	ttl     time.Duration
	timeout time.Duration
	log     logger.Logger
}

func NewSESOutbox(rdb *redis.Client, sesClient sesAPI, cfg config.MailConfig, log logger.Logger) *SESOutbox {
	return &SESOutbox{
		redis:   rdb,
		ses:     sesClient,
		from:    cfg.FromEmail,
		prefix:  cfg.SubjectPrefix,
		ttl:     time.Duration(cfg.StageTTL) * time.Second,
		timeout: time.Duration(cfg.Timeout) * time.Millisecond,
		log:     log,
	}
}

func (o *SESOutbox) StageDraft(ctx context.Context, to, subject, body string) (StagedDraft, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	payload, err := json.Marshal(stagedPayload{
		To:       to,
		Subject:  o.prefix + subject,
		Body:     body,
		StagedAt: time.Now().UTC(),
	})
	if err != nil {
		return StagedDraft{}, apperrors.NewMailStagingFailedError(err)
	}

	draftID := uuid.NewString()
	if err := o.redis.Set(ctx, draftKeyPrefix+draftID, payload, o.ttl).Err(); err != nil {
		metrics.MailStagingFailures.Inc()
		return StagedDraft{}, apperrors.NewMailStagingFailedError(err)
	}

	o.log.Info("outbound draft staged", map[string]interface{}{
		"draft_id": draftID,
		"to":       to,
	})
	return StagedDraft{
		ExternalDraftID:   draftID,
		ProviderMessageID: uuid.NewString(),
	}, nil
}

func (o *SESOutbox) FinalizeSend(ctx context.Context, externalDraftID string) (SendResult, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	key := draftKeyPrefix + externalDraftID
	raw, err := o.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return SendResult{}, apperrors.NewStagedDraftUnknownError(externalDraftID)
	}
	if err != nil {
		return SendResult{}, apperrors.NewMailSendFailedError(err)
	}

	var payload stagedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return SendResult{}, apperrors.NewCorruptRecordError(key, err)
	}

	out, err := o.ses.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(o.from),
		Destination: &types.Destination{
			ToAddresses: []string{payload.To},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(payload.Subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(payload.Body)},
			},
		},
	})
	if err != nil {
		return SendResult{}, apperrors.NewMailSendFailedError(err)
	}

	// Draft consumed; a second finalize for the same id must fail as unknown.
	if err := o.redis.Del(ctx, key).Err(); err != nil {
		o.log.Warn("failed to delete consumed draft key", map[string]interface{}{
			"draft_id": externalDraftID,
			"error":    err,
		})
	}

	metrics.DraftsSent.Inc()
	o.log.Info("draft sent", map[string]interface{}{
		"draft_id":   externalDraftID,
		"message_id": aws.ToString(out.MessageId),
	})
	return SendResult{MessageID: aws.ToString(out.MessageId)}, nil
}
