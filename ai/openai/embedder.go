package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/docbot/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
// The vector dimension is probed once at construction and fixed thereafter.
type Embedder struct {
	embedder  embeddings.Embedder
	batchSize int
	dimension int
	logger    *slog.Logger
}

// newEmbedder is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newEmbedder(ctx context.Context, config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	e := &Embedder{
		embedder:  embedder,
		batchSize: config.EmbedBatchSize,
		logger:    slog.Default().With("component", "openai-embedder"),
	}

	// Probe the model once so every later call can rely on a known dimension.
	// A service that cannot embed at construction time cannot embed later either.
	probe, err := embedder.EmbedQuery(ctx, "dimension probe")
	if err != nil {
		e.logger.Error("embedding model unavailable", "host", config.EmbeddingHost, "model", config.EmbeddingModel, "err", err)
		return nil, fmt.Errorf("probe embedding model %q: %w", config.EmbeddingModel, err)
	}
	if len(probe) == 0 {
		return nil, fmt.Errorf("embedding model %q returned an empty vector", config.EmbeddingModel)
	}
	e.dimension = len(probe)
	e.logger.Info("embedding model ready", "model", config.EmbeddingModel, "dimension", e.dimension)

	return e, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
// It verifies the embedding service is reachable and records the vector
// dimension before returning.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(ctx context.Context, config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(ctx, config)
}

// Dimension reports the length of vectors produced by the configured model.
func (e *Embedder) Dimension() int {
	return e.dimension
}

// EmbedQuery generates a vector embedding for a single query string.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	e.logger.Debug("generating embedding for query", "length", len(text))

	vector, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		e.logger.Error("failed to generate query embedding", "err", err)
		return nil, err
	}
	return vector, nil
}

// EmbedTexts generates vector embeddings for multiple text strings.
// Inputs are sent to the service in batches of the configured size. A batch
// that fails is retried once as two half-sized requests before the error is
// returned, which recovers from request-size limits on some local servers.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		batch, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			e.logger.Error("failed to generate embeddings", "batch_start", start, "err", err)
			return nil, err
		}
		vectors = append(vectors, batch...)
	}

	if len(vectors) != len(texts) {
		e.logger.Error("embedding count mismatch", "want", len(texts), "got", len(vectors))
		return nil, ai.ErrEmbeddingCount
	}
	return vectors, nil
}

func (e *Embedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err == nil {
		return vectors, nil
	}
	if len(texts) < 2 {
		return nil, err
	}

	// Retry once in halves.
	e.logger.Warn("batch embedding failed, retrying in halves", "size", len(texts), "err", err)
	mid := len(texts) / 2
	left, lerr := e.embedder.EmbedDocuments(ctx, texts[:mid])
	if lerr != nil {
		return nil, lerr
	}
	right, rerr := e.embedder.EmbedDocuments(ctx, texts[mid:])
	if rerr != nil {
		return nil, rerr
	}
	return append(left, right...), nil
}
