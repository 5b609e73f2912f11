package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"
)

// Purpose selects the embedding task type. Document and query embeddings
// are allowed to differ for the same text and must not be conflated:
// ingestion always uses PurposeDocument, search always uses PurposeQuery.
type Purpose string

const (
	// PurposeDocument tags ingestion-time embeddings.
	PurposeDocument Purpose = "RETRIEVAL_DOCUMENT"

	// PurposeQuery tags search-time embeddings.
	PurposeQuery Purpose = "RETRIEVAL_QUERY"
)

// Embedder turns text into a fixed-length vector.
// Implementations must be safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string, purpose Purpose) ([]float32, error)
}

// GeminiEmbedder is the production Embedder on the Gemini embedding API.
type GeminiEmbedder struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewGeminiEmbedder creates a GeminiEmbedder.
// timeout bounds every Embed call.
func NewGeminiEmbedder(client *genai.Client, model string, timeout time.Duration, logger *slog.Logger) (*GeminiEmbedder, error) {
	if client == nil {
		return nil, errors.New("genai client is required")
	}
	if model == "" {
		return nil, errors.New("embedder model is required")
	}
	if timeout <= 0 {
		return nil, errors.New("timeout must be positive")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GeminiEmbedder{client: client, model: model, timeout: timeout, logger: logger}, nil
}

// Embed generates a VectorDimension-length embedding for text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string, purpose Purpose) ([]float32, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	dim := VectorDimension
	resp, err := e.client.Models.EmbedContent(callCtx, e.model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		&genai.EmbedContentConfig{
			TaskType:             string(purpose),
			OutputDimensionality: &dim,
		})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: embedding after %s", ErrTimeout, e.timeout)
		}
		return nil, fmt.Errorf("%w: embedding: %v", ErrUnavailable, err)
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("%w: empty embedding response", ErrUnavailable)
	}

	values := resp.Embeddings[0].Values
	if len(values) != int(VectorDimension) {
		return nil, fmt.Errorf("%w: embedder returned %d dimensions, want %d",
			ErrUnavailable, len(values), VectorDimension)
	}

	e.logger.Debug("embedded text", "purpose", purpose, "text_len", len(text))
	return values, nil
}
