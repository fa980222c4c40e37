// internal/notify/notifier_test.go
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-autopilot/internal/common/config"
	"ticket-autopilot/internal/common/logger"
)

type fakeSNS struct {
	published []sns.PublishInput
	err       error
}

func (f *fakeSNS) Publish(_ context.Context, input *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.published = append(f.published, *input)
	return &sns.PublishOutput{MessageId: aws.String("sns-1")}, nil
}

func notifierConfig(enabled bool) config.NotificationConfig {
	var cfg config.NotificationConfig
	cfg.Escalation.Enabled = enabled
	cfg.Escalation.TopicARN = "arn:aws:sns:us-east-1:000000000000:escalations"
	return cfg
}

func TestNotifyEscalation(t *testing.T) {
	fake := &fakeSNS{}
	n := New(fake, notifierConfig(true), logger.NewNoOpLogger())

	n.NotifyEscalation(context.Background(), "T-1", "user@example.com", "login issue", 0.2, "ingest")

	require.Len(t, fake.published, 1)
	input := fake.published[0]
	assert.Equal(t, "arn:aws:sns:us-east-1:000000000000:escalations", aws.ToString(input.TopicArn))
	assert.Equal(t, "Ticket escalated: T-1", aws.ToString(input.Subject))

	var event map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(input.Message)), &event))
	assert.Equal(t, "T-1", event["ticket_id"])
	assert.Equal(t, "ingest", event["source"])
	assert.Equal(t, 0.2, event["confidence"])
}

func TestNotifyEscalation_Disabled(t *testing.T) {
	fake := &fakeSNS{}
	n := New(fake, notifierConfig(false), logger.NewNoOpLogger())

	n.NotifyEscalation(context.Background(), "T-1", "user@example.com", "subj", 0.2, "ingest")

	assert.Empty(t, fake.published)
}

func TestNotifyEscalation_PublishFailureSwallowed(t *testing.T) {
	fake := &fakeSNS{err: errors.New("sns down")}
	n := New(fake, notifierConfig(true), logger.NewNoOpLogger())

	// Must not panic or propagate; best-effort by contract.
	n.NotifyEscalation(context.Background(), "T-1", "user@example.com", "subj", 0.2, "admin_override")
}
