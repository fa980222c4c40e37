// internal/synthesis/synthesizer_test.go
package synthesis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ticket-autopilot/internal/common/errors"
	"ticket-autopilot/internal/common/logger"
	"ticket-autopilot/internal/models"
	"ticket-autopilot/internal/retrieval"
)

type stubEngine struct {
	contexts []models.RetrievedContext
	err      error
	block    bool
}

func (s *stubEngine) Retrieve(ctx context.Context, _ string, _ int) ([]models.RetrievedContext, error) {
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.contexts, s.err
}

func (s *stubEngine) Index(context.Context, []retrieval.Document) error { return nil }

func makeContexts(n int) []models.RetrievedContext {
	out := make([]models.RetrievedContext, n)
	for i := range out {
		out[i] = models.RetrievedContext{Text: "passage text", Score: 0.9}
	}
	return out
}

func newSynthesizer(engine retrieval.Engine) *Synthesizer {
	return New(engine, 3, 400, 50*time.Millisecond, logger.NewNoOpLogger())
}

func TestSynthesize_FallbackOnZeroContexts(t *testing.T) {
	s := newSynthesizer(&stubEngine{})

	result, err := s.Synthesize(context.Background(), "how do I reset my password")
	require.NoError(t, err)

	assert.Equal(t, FallbackAnswer, result.Answer)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Empty(t, result.Contexts)
}

func TestSynthesize_ConfidenceFormula(t *testing.T) {
	tests := []struct {
		contexts int
		expected float64
	}{
		{contexts: 1, expected: 0.6},
		{contexts: 2, expected: 0.8},
		{contexts: 3, expected: 1.0},
	}

	for _, tt := range tests {
		s := newSynthesizer(&stubEngine{contexts: makeContexts(tt.contexts)})

		result, err := s.Synthesize(context.Background(), "query")
		require.NoError(t, err)
		assert.Equal(t, tt.expected, result.Confidence, "n=%d", tt.contexts)
		assert.Len(t, result.Contexts, tt.contexts)
	}
}

func TestSynthesize_CapsAtTopK(t *testing.T) {
	// Engine returning more than topK must not push confidence past the cap.
	s := newSynthesizer(&stubEngine{contexts: makeContexts(5)})

	result, err := s.Synthesize(context.Background(), "query")
	require.NoError(t, err)

	assert.Equal(t, 1.0, result.Confidence)
	assert.Len(t, result.Contexts, 3)
}

func TestSynthesize_SnippetTruncation(t *testing.T) {
	long := strings.Repeat("a", 1000)
	s := newSynthesizer(&stubEngine{contexts: []models.RetrievedContext{{Text: long, Score: 0.9}}})

	result, err := s.Synthesize(context.Background(), "query")
	require.NoError(t, err)

	assert.Contains(t, result.Answer, "- "+strings.Repeat("a", 400)+"...")
	assert.NotContains(t, result.Answer, strings.Repeat("a", 401))
}

func TestSynthesize_TemplatedBody(t *testing.T) {
	s := newSynthesizer(&stubEngine{contexts: []models.RetrievedContext{
		{Text: "first passage", Score: 0.9},
		{Text: "second passage", Score: 0.7},
	}})

	result, err := s.Synthesize(context.Background(), "query")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.Answer, "Hello,\n\n"))
	assert.Contains(t, result.Answer, "- first passage...")
	assert.Contains(t, result.Answer, "- second passage...")
	assert.True(t, strings.HasSuffix(result.Answer, "Regards,\nSupport Team"))
}

func TestSynthesize_TimeoutDegradesToFallback(t *testing.T) {
	s := newSynthesizer(&stubEngine{block: true})

	result, err := s.Synthesize(context.Background(), "query")
	require.NoError(t, err)

	assert.Equal(t, FallbackAnswer, result.Answer)
	assert.Equal(t, 0.0, result.Confidence)
}

func TestSynthesize_RetrievalErrorPropagates(t *testing.T) {
	s := newSynthesizer(&stubEngine{err: errors.New("index unavailable")})

	_, err := s.Synthesize(context.Background(), "query")
	require.Error(t, err)

	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeRetrievalFailed, stdErr.Code)
}
