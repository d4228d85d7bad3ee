// Package embedder maps text to fixed-length embedding vectors.
package embedder

import "context"

// Embedder generates embedding vectors for text. An implementation is bound
// to one credential and one model for its lifetime, so every vector it
// produces lives in the same embedding space.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	ModelInfo() string
}

// Factory builds an Embedder bound to a caller-supplied credential. The
// service receives credentials per request, so embedders are constructed per
// call rather than at startup.
type Factory func(credential string) Embedder
