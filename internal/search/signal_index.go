package search

import (
	"context"
	"encoding/json"
	"fmt"

	"signals-api/internal/client"
	"signals-api/internal/config"
	"signals-api/internal/model"
)

// SignalIndex is the full-text search surface over published signals.
type SignalIndex interface {
	Index(ctx context.Context, signal *model.Signal) error
	Search(ctx context.Context, query string) ([]*model.Signal, error)
}

type esSignalIndex struct {
	es    *client.ESClient
	index string
}

// NewSignalIndex wires a SignalIndex onto Elasticsearch.
func NewSignalIndex(es *client.ESClient, cfg *config.Config) SignalIndex {
	return &esSignalIndex{es: es, index: cfg.Elasticsearch.Index}
}

func (i *esSignalIndex) Index(ctx context.Context, signal *model.Signal) error {
	return i.es.IndexDocument(ctx, i.index, signal.ID, signal)
}

func (i *esSignalIndex) Search(ctx context.Context, query string) ([]*model.Signal, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"title^2", "description", "index", "from"},
			},
		},
	}

	res, err := i.es.Search(ctx, i.index, body)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch search error: %s", res.String())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source model.Signal `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("error decoding search response: %w", err)
	}

	signals := make([]*model.Signal, 0, len(parsed.Hits.Hits))
	for idx := range parsed.Hits.Hits {
		signals = append(signals, &parsed.Hits.Hits[idx].Source)
	}
	return signals, nil
}
