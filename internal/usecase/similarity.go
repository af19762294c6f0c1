package usecase

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// SimilarityScorer computes cosine similarity between embedding vectors.
// Pure and stateless; safe for concurrent use.
type SimilarityScorer struct{}

// NewSimilarityScorer constructs a similarity scorer.
func NewSimilarityScorer() *SimilarityScorer {
	return &SimilarityScorer{}
}

// CosineSimilarity returns the cosine of the angle between a and b,
// clamped to [-1, 1]. A zero-norm vector cannot be similar to anything,
// so either norm being zero yields 0.0 rather than an error. Callers in
// this domain clamp negative results to 0 when consuming.
func (s *SimilarityScorer) CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, fmt.Errorf("cosine similarity: %w", ErrEmptyInput)
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("cosine similarity: %w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 0, nil
	}

	sim := floats.Dot(a, b) / (normA * normB)
	if sim > 1 {
		sim = 1
	}
	if sim < -1 {
		sim = -1
	}
	return sim, nil
}
