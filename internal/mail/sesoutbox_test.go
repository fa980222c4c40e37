// internal/mail/sesoutbox_test.go
package mail

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-autopilot/internal/common/config"
	apperrors "ticket-autopilot/internal/common/errors"
	"ticket-autopilot/internal/common/logger"
)

type fakeSES struct {
	sent []ses.SendEmailInput
	err  error
}

func (f *fakeSES) SendEmail(_ context.Context, input *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, *input)
	return &ses.SendEmailOutput{MessageId: aws.String("msg-001")}, nil
}

func newTestOutbox(t *testing.T, sesClient sesAPI) (*SESOutbox, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := config.MailConfig{
		FromEmail:     "support@example.com",
		SubjectPrefix: "Re: ",
		StageTTL:      60,
		Timeout:       1000,
	}
	return NewSESOutbox(rdb, sesClient, cfg, logger.NewNoOpLogger()), mr
}

func TestStageDraft(t *testing.T) {
	outbox, mr := newTestOutbox(t, &fakeSES{})

	staged, err := outbox.StageDraft(context.Background(), "user@example.com", "login issue", "draft body")
	require.NoError(t, err)

	assert.NotEmpty(t, staged.ExternalDraftID)
	assert.NotEmpty(t, staged.ProviderMessageID)

	// Payload is in Redis under the draft id, with the configured TTL.
	key := draftKeyPrefix + staged.ExternalDraftID
	assert.True(t, mr.Exists(key))
	assert.InDelta(t, 60*time.Second, mr.TTL(key), float64(time.Second))
}

func TestFinalizeSend(t *testing.T) {
	fake := &fakeSES{}
	outbox, mr := newTestOutbox(t, fake)

	staged, err := outbox.StageDraft(context.Background(), "user@example.com", "login issue", "draft body")
	require.NoError(t, err)

	result, err := outbox.FinalizeSend(context.Background(), staged.ExternalDraftID)
	require.NoError(t, err)
	assert.Equal(t, "msg-001", result.MessageID)

	require.Len(t, fake.sent, 1)
	input := fake.sent[0]
	assert.Equal(t, "support@example.com", aws.ToString(input.Source))
	assert.Equal(t, []string{"user@example.com"}, input.Destination.ToAddresses)
	assert.Equal(t, "Re: login issue", aws.ToString(input.Message.Subject.Data))
	assert.Equal(t, "draft body", aws.ToString(input.Message.Body.Text.Data))

	// Draft is consumed.
	assert.False(t, mr.Exists(draftKeyPrefix+staged.ExternalDraftID))
}

func TestFinalizeSend_UnknownID(t *testing.T) {
	outbox, _ := newTestOutbox(t, &fakeSES{})

	_, err := outbox.FinalizeSend(context.Background(), "never-staged")
	require.Error(t, err)

	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeStagedDraftUnknown, stdErr.Code)
}

func TestFinalizeSend_ExpiredDraft(t *testing.T) {
	outbox, mr := newTestOutbox(t, &fakeSES{})

	staged, err := outbox.StageDraft(context.Background(), "user@example.com", "subj", "body")
	require.NoError(t, err)

	mr.FastForward(61 * time.Second)

	_, err = outbox.FinalizeSend(context.Background(), staged.ExternalDraftID)
	require.Error(t, err)

	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeStagedDraftUnknown, stdErr.Code)
}

func TestFinalizeSend_SecondSendFails(t *testing.T) {
	outbox, _ := newTestOutbox(t, &fakeSES{})

	staged, err := outbox.StageDraft(context.Background(), "user@example.com", "subj", "body")
	require.NoError(t, err)

	_, err = outbox.FinalizeSend(context.Background(), staged.ExternalDraftID)
	require.NoError(t, err)

	_, err = outbox.FinalizeSend(context.Background(), staged.ExternalDraftID)
	require.Error(t, err)
	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeStagedDraftUnknown, stdErr.Code)
}

func TestFinalizeSend_ProviderFailureKeepsDraft(t *testing.T) {
	fake := &fakeSES{err: errors.New("ses unavailable")}
	outbox, mr := newTestOutbox(t, fake)

	staged, err := outbox.StageDraft(context.Background(), "user@example.com", "subj", "body")
	require.NoError(t, err)

	_, err = outbox.FinalizeSend(context.Background(), staged.ExternalDraftID)
	require.Error(t, err)

	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeMailSendFailed, stdErr.Code)

	// Draft survives a failed send and can be retried.
	assert.True(t, mr.Exists(draftKeyPrefix + staged.ExternalDraftID))
}

func TestFinalizeSend_CorruptPayload(t *testing.T) {
	outbox, mr := newTestOutbox(t, &fakeSES{})

	require.NoError(t, mr.Set(draftKeyPrefix+"bad", "{not json"))

	_, err := outbox.FinalizeSend(context.Background(), "bad")
	require.Error(t, err)
	assert.True(t, apperrors.IsCorruptRecord(err))
}
