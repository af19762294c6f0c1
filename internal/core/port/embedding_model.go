package port

import "context"

// EmbeddingResult is the output of the embedding model for one clip.
type EmbeddingResult struct {
	Vector       []float64
	QualityScore float64
	Metadata     map[string]any
}

// EmbeddingModel turns raw audio into a fixed-length voice embedding.
// The engine never inspects audio bytes itself.
type EmbeddingModel interface {
	GenerateEmbedding(ctx context.Context, audio []byte, metadata map[string]any) (EmbeddingResult, error)
}
