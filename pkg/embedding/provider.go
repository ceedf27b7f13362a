package embedding

import "context"

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string) ([]float32, error)
	// GenerateBatch embeds texts in one provider round trip where the
	// backend supports it. Result order matches input order.
	GenerateBatch(ctx context.Context, texts []string) ([][]float32, error)
}
