// internal/retrieval/elasticsearch.go
package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"ticket-autopilot/internal/models"
)

var ErrSearchFailed = errors.New("SEARCH_QUERY_FAILED")

// ElasticsearchEngine retrieves passages with a full-text match query and
// normalizes hit scores against the best hit so callers see [0,1]
// similarities regardless of the scoring function in use.
type ElasticsearchEngine struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticsearchEngine(client *elasticsearch.Client, index string) *ElasticsearchEngine {
	return &ElasticsearchEngine{
		client: client,
		index:  index,
	}
}

func (e *ElasticsearchEngine) Retrieve(ctx context.Context, query string, topK int) ([]models.RetrievedContext, error) {
	body := map[string]interface{}{
		"size": topK,
		"query": map[string]interface{}{
			"match": map[string]interface{}{
				"text": query,
			},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("%w: encode query: %v", ErrSearchFailed, err)
	}

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(e.index),
		e.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: status %s", ErrSearchFailed, res.Status())
	}

	var parsed struct {
		Hits struct {
			MaxScore float64 `json:"max_score"`
			Hits     []struct {
				Score  float64 `json:"_score"`
				Source struct {
					Text     string                 `json:"text"`
					Metadata map[string]interface{} `json:"meta"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSearchFailed, err)
	}

	contexts := make([]models.RetrievedContext, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		similarity := 0.0
		if parsed.Hits.MaxScore > 0 {
			similarity = roundScore(hit.Score / parsed.Hits.MaxScore)
		}
		contexts = append(contexts, models.RetrievedContext{
			Text:     hit.Source.Text,
			Metadata: hit.Source.Metadata,
			Score:    similarity,
		})
	}

	return contexts, nil
}

func (e *ElasticsearchEngine) Index(ctx context.Context, docs []Document) error {
	for _, doc := range docs {
		payload, err := json.Marshal(map[string]interface{}{
			"text": doc.Text,
			"meta": doc.Metadata,
		})
		if err != nil {
			return fmt.Errorf("marshal document %s: %w", doc.ID, err)
		}

		req := esapi.IndexRequest{
			Index:      e.index,
			DocumentID: doc.ID,
			Body:       strings.NewReader(string(payload)),
		}
		res, err := req.Do(ctx, e.client)
		if err != nil {
			return fmt.Errorf("index document %s: %w", doc.ID, err)
		}
		res.Body.Close()
		if res.IsError() {
			return fmt.Errorf("index document %s: status %s", doc.ID, res.Status())
		}
	}
	return nil
}

func roundScore(s float64) float64 {
	return math.Round(math.Max(0, math.Min(1, s))*1000) / 1000
}
