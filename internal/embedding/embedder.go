// Package embedding provides text embedding providers and caching.
package embedding

import "context"

// Embedder maps text to a fixed-length embedding vector. Implementations must
// be deterministic: identical input always yields the identical vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ModelName() string
	Close() error
}
