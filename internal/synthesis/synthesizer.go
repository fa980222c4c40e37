// internal/synthesis/synthesizer.go
package synthesis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	apperrors "ticket-autopilot/internal/common/errors"
	"ticket-autopilot/internal/common/logger"
	"ticket-autopilot/internal/models"
	"ticket-autopilot/internal/retrieval"
)

// FallbackAnswer is returned verbatim when retrieval produces no grounding.
// Dashboards match on this text, so it is part of the external contract.
const FallbackAnswer = "Hello,\n\n" +
	"We could not find relevant information for your request. " +
	"Your ticket has been escalated to a support agent.\n\n" +
	"Regards,\nSupport Team"

// Synthesizer builds a draft reply from retrieved knowledge-base passages
// and scores it by retrieval strength. It never fabricates an answer: zero
// contexts means the fixed fallback with confidence 0.0.
type Synthesizer struct {
	engine          retrieval.Engine
	topK            int
	snippetMaxChars int
	timeout         time.Duration
	log             logger.Logger
}

func New(engine retrieval.Engine, topK, snippetMaxChars int, timeout time.Duration, log logger.Logger) *Synthesizer {
	return &Synthesizer{
		engine:          engine,
		topK:            topK,
		snippetMaxChars: snippetMaxChars,
		timeout:         timeout,
		log:             log,
	}
}

// Synthesize retrieves up to topK contexts for the query and composes the
// reply. A retrieval timeout degrades to the fallback path; any other
// retrieval fault propagates as a collaborator failure.
func (s *Synthesizer) Synthesize(ctx context.Context, query string) (models.SynthesisResult, error) {
	rctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	contexts, err := s.engine.Retrieve(rctx, query, s.topK)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.log.Warn("retrieval timed out, degrading to fallback answer", map[string]interface{}{
				"timeout": s.timeout.String(),
			})
			contexts = nil
		} else {
			return models.SynthesisResult{}, apperrors.NewRetrievalFailedError(err)
		}
	}

	if len(contexts) == 0 {
		return models.SynthesisResult{
			Answer:     FallbackAnswer,
			Confidence: 0.0,
			Contexts:   []models.RetrievedContext{},
		}, nil
	}

	if len(contexts) > s.topK {
		contexts = contexts[:s.topK]
	}

	snippets := make([]string, 0, len(contexts))
	for _, c := range contexts {
		snippets = append(snippets, "- "+truncate(c.Text, s.snippetMaxChars)+"...")
	}

	answer := fmt.Sprintf(
		"Hello,\n\nBased on our knowledge base, here is the relevant information:\n\n%s\n\n"+
			"If you need further clarification, the ticket will be escalated.\n\nRegards,\nSupport Team",
		strings.Join(snippets, "\n\n"),
	)

	return models.SynthesisResult{
		Answer:     answer,
		Confidence: scoreConfidence(len(contexts)),
		Contexts:   contexts,
	}, nil
}

func scoreConfidence(n int) float64 {
	return math.Round(math.Min(1.0, 0.4+0.2*float64(n))*100) / 100
}

func truncate(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) > maxChars {
		runes = runes[:maxChars]
	}
	return strings.TrimSpace(string(runes))
}
