// internal/retrieval/memory.go
package retrieval

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"ticket-autopilot/internal/models"
)

// MemoryEngine is a brute-force in-process backend: token-overlap cosine
// similarity over everything indexed. Meant for development and tests, not
// for large corpora.
type MemoryEngine struct {
	mu   sync.RWMutex
	docs []Document
}

func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{}
}

func (e *MemoryEngine) Index(_ context.Context, docs []Document) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.docs = append(e.docs, docs...)
	return nil
}

func (e *MemoryEngine) Retrieve(_ context.Context, query string, topK int) ([]models.RetrievedContext, error) {
	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return nil, nil
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	scored := make([]models.RetrievedContext, 0, len(e.docs))
	for _, doc := range e.docs {
		score := cosineOverlap(queryTokens, tokenize(doc.Text))
		if score <= 0 {
			continue
		}
		scored = append(scored, models.RetrievedContext{
			Text:     doc.Text,
			Metadata: doc.Metadata,
			Score:    roundScore(score),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

func tokenize(s string) map[string]struct{} {
	tokens := map[string]struct{}{}
	for _, word := range strings.Fields(strings.ToLower(s)) {
		word = strings.Trim(word, ".,;:!?\"'()[]")
		if len(word) > 1 {
			tokens[word] = struct{}{}
		}
	}
	return tokens
}

func cosineOverlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for token := range a {
		if _, ok := b[token]; ok {
			shared++
		}
	}
	return float64(shared) / math.Sqrt(float64(len(a))*float64(len(b)))
}
