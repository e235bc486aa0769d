package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/poiesic/recommendit/ai"
	"github.com/poiesic/recommendit/core"
)

var (
	// ErrEmptyResponse indicates the provider returned no embeddings.
	ErrEmptyResponse = errors.New("provider returned no embeddings")

	// ErrUnexpectedDimension indicates an embedding of the wrong length.
	ErrUnexpectedDimension = errors.New("provider returned unexpected embedding dimension")

	// ErrCountMismatch indicates a batch response of the wrong size.
	ErrCountMismatch = errors.New("provider returned wrong number of embeddings")
)

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
type Embedder struct {
	embedder  embeddings.Embedder
	dimension int
	logger    *slog.Logger
}

// newEmbedder is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	httpClient := &http.Client{
		Timeout:   config.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(config.APIKey),
		openai.WithEmbeddingModel(config.Model),
		openai.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, err
	}

	// Newlines are replaced with spaces before every request
	embedder, err := embeddings.NewEmbedder(client,
		embeddings.WithStripNewLines(true),
		embeddings.WithBatchSize(config.BatchSize),
	)
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder:  embedder,
		dimension: config.Dimension,
		logger:    slog.Default().With("component", "openai-embedder"),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("generating embedding for single text", "length", len(text))

	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings in a batch.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, core.NewProviderError(err)
	}

	if len(vectors) == 0 {
		e.logger.Warn("embedder returned empty result")
		return nil, core.NewProviderError(ErrEmptyResponse)
	}
	if len(vectors) != len(texts) {
		return nil, core.NewProviderError(fmt.Errorf("%w: got %d, want %d", ErrCountMismatch, len(vectors), len(texts)))
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, core.NewProviderError(fmt.Errorf("%w: text %d", ErrEmptyResponse, i))
		}
		if e.dimension > 0 && len(v) != e.dimension {
			return nil, core.NewProviderError(fmt.Errorf("%w: got %d, want %d", ErrUnexpectedDimension, len(v), e.dimension))
		}
	}

	return vectors, nil
}
