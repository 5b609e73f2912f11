package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// NoResultsSentinel is returned by Retriever.Search when the store has no
// matching records. It is a fixed text distinguishable from real hits.
const NoResultsSentinel = "No relevant vaccine information found in the database."

// hitSeparator joins formatted hits in the context block fed to the model.
const hitSeparator = "\n\n---\n\n"

// Searcher is the vector-lookup capability the Retriever composes with an
// Embedder. Satisfied by *Store; tests use an in-memory index.
type Searcher interface {
	Search(ctx context.Context, vector []float32, topK int) ([]Hit, error)
}

// Retriever turns a query string into a formatted context block: embed the
// query, look up nearest records, format hits. The formatted text is the
// entire contract surface passed back to the model as tool output.
type Retriever struct {
	embedder Embedder
	store    Searcher
	topK     int
	logger   *slog.Logger
}

// NewRetriever creates a Retriever with the given default topK.
func NewRetriever(embedder Embedder, store Searcher, topK int, logger *slog.Logger) (*Retriever, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if store == nil {
		return nil, errors.New("store is required")
	}
	if topK < 1 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{embedder: embedder, store: store, topK: topK, logger: logger}, nil
}

// Search embeds query with query-purpose tagging, finds the nearest
// records, and returns them as one labeled, separator-joined text block in
// non-increasing similarity order.
func (r *Retriever) Search(ctx context.Context, query string) (string, error) {
	vector, err := r.embedder.Embed(ctx, query, PurposeQuery)
	if err != nil {
		return "", fmt.Errorf("embedding query: %w", err)
	}

	hits, err := r.store.Search(ctx, vector, r.topK)
	if err != nil {
		return "", fmt.Errorf("searching store: %w", err)
	}

	if len(hits) == 0 {
		r.logger.Debug("retrieval found nothing", "query_len", len(query))
		return NoResultsSentinel, nil
	}

	r.logger.Debug("retrieval hits", "count", len(hits), "top_similarity", hits[0].Similarity)
	return formatHits(hits), nil
}

// formatHits renders each hit as a labeled source block.
func formatHits(hits []Hit) string {
	blocks := make([]string, 0, len(hits))
	for _, h := range hits {
		blocks = append(blocks, fmt.Sprintf("SOURCE (Vaccine: %s, Topic: %s):\n%s",
			h.VaccineName, h.Topic, h.Content))
	}
	return strings.Join(blocks, hitSeparator)
}
