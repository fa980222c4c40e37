// internal/retrieval/engine.go
package retrieval

import (
	"context"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	"ticket-autopilot/internal/common/config"
	"ticket-autopilot/internal/models"
)

// Document is one indexable knowledge-base chunk.
type Document struct {
	ID       string                 `json:"id"`
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"meta"`
}

// Engine retrieves knowledge-base passages for a query. Implementations are
// constructed once at startup and shared read-only across requests.
type Engine interface {
	// Retrieve returns up to topK contexts ordered by descending similarity.
	// An empty result is not an error.
	Retrieve(ctx context.Context, query string, topK int) ([]models.RetrievedContext, error)

	// Index adds documents to the knowledge base.
	Index(ctx context.Context, docs []Document) error
}

// New builds the engine named by configuration. The backend is fixed here;
// there is no fallback chain between backends at runtime.
func New(cfg config.RetrievalConfig, es *elasticsearch.Client) (Engine, error) {
	switch cfg.Backend {
	case "elasticsearch":
		if es == nil {
			return nil, fmt.Errorf("elasticsearch backend selected but no client provided")
		}
		return NewElasticsearchEngine(es, cfg.IndexName), nil
	case "memory":
		return NewMemoryEngine(), nil
	default:
		return nil, fmt.Errorf("unknown retrieval backend %q", cfg.Backend)
	}
}
