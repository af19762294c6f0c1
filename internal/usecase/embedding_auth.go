package usecase

import (
	"fmt"
	"math"

	"github.com/asotorev/voice-gateway-sub001/internal/core/domain"
)

// EmbeddingAuthConfig carries the thresholds and weights of the
// embedding factor. Validated once at construction.
type EmbeddingAuthConfig struct {
	MinimumEmbeddingsRequired int
	AverageWeight             float64
	MaxWeight                 float64
	AuthenticationThreshold   float64
	HighConfidenceThreshold   float64
}

// DefaultEmbeddingAuthConfig returns the production defaults.
func DefaultEmbeddingAuthConfig() EmbeddingAuthConfig {
	return EmbeddingAuthConfig{
		MinimumEmbeddingsRequired: 1,
		AverageWeight:             0.6,
		MaxWeight:                 0.4,
		AuthenticationThreshold:   0.80,
		HighConfidenceThreshold:   0.85,
	}
}

// Validate rejects weight and threshold values outside the contract.
func (c EmbeddingAuthConfig) Validate() error {
	if c.MinimumEmbeddingsRequired < 1 {
		return fmt.Errorf("%w: minimum embeddings required must be >= 1", ErrInvalidConfig)
	}
	if math.Abs(c.AverageWeight+c.MaxWeight-1.0) > 1e-9 {
		return fmt.Errorf("%w: confidence weights must sum to 1.0", ErrInvalidConfig)
	}
	if c.AverageWeight < 0 || c.MaxWeight < 0 {
		return fmt.Errorf("%w: confidence weights must be non-negative", ErrInvalidConfig)
	}
	if c.AuthenticationThreshold < 0 || c.AuthenticationThreshold > 1 {
		return fmt.Errorf("%w: authentication threshold must be within [0,1]", ErrInvalidConfig)
	}
	if c.HighConfidenceThreshold < 0 || c.HighConfidenceThreshold > 1 {
		return fmt.Errorf("%w: high confidence threshold must be within [0,1]", ErrInvalidConfig)
	}
	return nil
}

// EmbeddingAuthenticator compares a captured embedding against a user's
// enrolled set and renders the voice-factor verdict.
type EmbeddingAuthenticator struct {
	scorer *SimilarityScorer
	cfg    EmbeddingAuthConfig
}

// NewEmbeddingAuthenticator constructs an embedding authenticator.
func NewEmbeddingAuthenticator(scorer *SimilarityScorer, cfg EmbeddingAuthConfig) (*EmbeddingAuthenticator, error) {
	if scorer == nil {
		scorer = NewSimilarityScorer()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &EmbeddingAuthenticator{scorer: scorer, cfg: cfg}, nil
}

// Compare scores the input embedding against every usable stored sample.
// Stored entries without a vector are skipped with a recorded detail.
// Negative cosine values are clamped to 0 before aggregation.
func (a *EmbeddingAuthenticator) Compare(input []float64, stored []domain.VoiceEmbedding) (domain.SimilarityComparison, error) {
	var cmp domain.SimilarityComparison
	if len(input) == 0 {
		return cmp, fmt.Errorf("compare embeddings: %w", ErrEmptyInput)
	}

	for i, emb := range stored {
		detail := domain.SampleComparison{SampleIndex: i, QualityScore: emb.QualityScore}
		if !emb.HasVector() {
			detail.Skipped = true
			detail.SkipReason = "missing vector"
			cmp.Details = append(cmp.Details, detail)
			continue
		}

		sim, err := a.scorer.CosineSimilarity(input, emb.Vector)
		if err != nil {
			return domain.SimilarityComparison{}, fmt.Errorf("compare embeddings: sample %d: %w", i, err)
		}
		if sim < 0 {
			sim = 0
		}

		detail.Similarity = sim
		cmp.Details = append(cmp.Details, detail)
		cmp.Similarities = append(cmp.Similarities, sim)
	}

	if len(cmp.Similarities) < a.cfg.MinimumEmbeddingsRequired {
		return domain.SimilarityComparison{}, fmt.Errorf(
			"compare embeddings: %w: have %d usable, need %d",
			ErrInsufficientData, len(cmp.Similarities), a.cfg.MinimumEmbeddingsRequired,
		)
	}

	cmp.Average = mean(cmp.Similarities)
	cmp.Max = cmp.Similarities[0]
	cmp.Min = cmp.Similarities[0]
	for _, sim := range cmp.Similarities[1:] {
		if sim > cmp.Max {
			cmp.Max = sim
		}
		if sim < cmp.Min {
			cmp.Min = sim
		}
	}
	cmp.QualityWeightedAverage = qualityWeightedAverage(cmp)

	return cmp, nil
}

// Decide renders the pass/fail verdict and confidence for a comparison.
// The high-confidence flag is informational and does not gate the
// decision.
func (a *EmbeddingAuthenticator) Decide(cmp domain.SimilarityComparison) (passed bool, confidence float64, highConfidence bool) {
	confidence = a.cfg.AverageWeight*cmp.Average + a.cfg.MaxWeight*cmp.Max
	passed = confidence >= a.cfg.AuthenticationThreshold
	highConfidence = confidence >= a.cfg.HighConfidenceThreshold
	return passed, confidence, highConfidence
}

// qualityWeightedAverage weights each similarity by the quality score of
// its stored sample, renormalizing weights to sum 1. When every quality
// score is zero it falls back to the unweighted average.
func qualityWeightedAverage(cmp domain.SimilarityComparison) float64 {
	var weightSum, weighted float64
	for _, d := range cmp.Details {
		if d.Skipped {
			continue
		}
		weightSum += d.QualityScore
		weighted += d.QualityScore * d.Similarity
	}
	if weightSum == 0 {
		return cmp.Average
	}
	return weighted / weightSum
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
