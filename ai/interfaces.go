package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates a vector embedding for a single query string.
	// Returns an error if the embedding generation fails.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dimension reports the length of the vectors this embedder produces.
	// The value is fixed for the lifetime of the embedder.
	Dimension() int
}

// Generator produces chat completions from a system prompt and a user prompt.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate returns the completion text for the given prompts.
	// The model parameter selects the generation model; an empty string
	// uses the generator's configured default.
	// Returns an error if the completion fails or is empty.
	Generate(ctx context.Context, system, prompt, model string) (string, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder and Generator instances, ensuring they
// share configuration and resources appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Generator returns the chat completion service.
	// The returned Generator is safe for concurrent use.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
