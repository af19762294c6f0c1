package usecase

import (
	"errors"
	"math"
	"testing"

	"github.com/asotorev/voice-gateway-sub001/internal/core/domain"
)

func newTestAuthenticator(t *testing.T, cfg EmbeddingAuthConfig) *EmbeddingAuthenticator {
	t.Helper()
	auth, err := NewEmbeddingAuthenticator(nil, cfg)
	if err != nil {
		t.Fatalf("NewEmbeddingAuthenticator: %v", err)
	}
	return auth
}

func storedEmbedding(vector []float64, quality float64) domain.VoiceEmbedding {
	return domain.VoiceEmbedding{Vector: vector, QualityScore: quality}
}

func TestCompareAggregates(t *testing.T) {
	auth := newTestAuthenticator(t, DefaultEmbeddingAuthConfig())

	input := []float64{1, 0}
	stored := []domain.VoiceEmbedding{
		storedEmbedding([]float64{1, 0}, 0.9), // similarity 1.0
		storedEmbedding([]float64{0, 1}, 0.1), // similarity 0.0
	}

	cmp, err := auth.Compare(input, stored)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}

	if cmp.ComparedCount() != 2 {
		t.Fatalf("expected 2 compared samples, got %d", cmp.ComparedCount())
	}
	if math.Abs(cmp.Average-0.5) > 1e-9 {
		t.Fatalf("expected average 0.5, got %v", cmp.Average)
	}
	if cmp.Max != 1.0 || cmp.Min != 0.0 {
		t.Fatalf("expected max 1.0 / min 0.0, got %v / %v", cmp.Max, cmp.Min)
	}
	// weights 0.9 and 0.1 renormalize to themselves over 1.0
	if math.Abs(cmp.QualityWeightedAverage-0.9) > 1e-9 {
		t.Fatalf("expected quality-weighted average 0.9, got %v", cmp.QualityWeightedAverage)
	}
}

func TestCompareSkipsMalformedEntries(t *testing.T) {
	auth := newTestAuthenticator(t, DefaultEmbeddingAuthConfig())

	stored := []domain.VoiceEmbedding{
		storedEmbedding(nil, 0.8),
		storedEmbedding([]float64{1, 0}, 0.9),
	}

	cmp, err := auth.Compare([]float64{1, 0}, stored)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if cmp.ComparedCount() != 1 {
		t.Fatalf("expected 1 compared sample, got %d", cmp.ComparedCount())
	}
	if len(cmp.Details) != 2 {
		t.Fatalf("expected 2 details, got %d", len(cmp.Details))
	}
	if !cmp.Details[0].Skipped || cmp.Details[0].SkipReason == "" {
		t.Fatalf("expected first detail to record the skip, got %+v", cmp.Details[0])
	}
}

func TestCompareZeroQualityFallsBackToUnweighted(t *testing.T) {
	auth := newTestAuthenticator(t, DefaultEmbeddingAuthConfig())

	stored := []domain.VoiceEmbedding{
		storedEmbedding([]float64{1, 0}, 0),
		storedEmbedding([]float64{0, 1}, 0),
	}

	cmp, err := auth.Compare([]float64{1, 0}, stored)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if cmp.QualityWeightedAverage != cmp.Average {
		t.Fatalf("expected fallback to unweighted average, got %v vs %v", cmp.QualityWeightedAverage, cmp.Average)
	}
}

func TestCompareInsufficientData(t *testing.T) {
	cfg := DefaultEmbeddingAuthConfig()
	cfg.MinimumEmbeddingsRequired = 2
	auth := newTestAuthenticator(t, cfg)

	stored := []domain.VoiceEmbedding{
		storedEmbedding([]float64{1, 0}, 0.9),
		storedEmbedding(nil, 0.9),
	}

	if _, err := auth.Compare([]float64{1, 0}, stored); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestCompareEmptyInput(t *testing.T) {
	auth := newTestAuthenticator(t, DefaultEmbeddingAuthConfig())

	if _, err := auth.Compare(nil, []domain.VoiceEmbedding{storedEmbedding([]float64{1}, 1)}); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestCompareClampsNegativeSimilarity(t *testing.T) {
	auth := newTestAuthenticator(t, DefaultEmbeddingAuthConfig())

	cmp, err := auth.Compare([]float64{1, 1}, []domain.VoiceEmbedding{storedEmbedding([]float64{-1, -1}, 0.9)})
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if cmp.Similarities[0] != 0 {
		t.Fatalf("expected negative similarity clamped to 0, got %v", cmp.Similarities[0])
	}
}

func TestDecideBlendsAverageAndMax(t *testing.T) {
	auth := newTestAuthenticator(t, DefaultEmbeddingAuthConfig())

	cmp := domain.SimilarityComparison{Average: 0.8, Max: 0.9}
	passed, confidence, high := auth.Decide(cmp)

	want := 0.6*0.8 + 0.4*0.9
	if math.Abs(confidence-want) > 1e-9 {
		t.Fatalf("expected confidence %v, got %v", want, confidence)
	}
	if !passed {
		t.Fatalf("expected pass at confidence %v", confidence)
	}
	if high {
		t.Fatalf("did not expect high confidence at %v", confidence)
	}
}

func TestDecideHighConfidenceFlag(t *testing.T) {
	auth := newTestAuthenticator(t, DefaultEmbeddingAuthConfig())

	passed, confidence, high := auth.Decide(domain.SimilarityComparison{Average: 0.9, Max: 0.9})
	if !passed || !high {
		t.Fatalf("expected pass with high confidence at %v", confidence)
	}
}

func TestEmbeddingAuthConfigValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*EmbeddingAuthConfig)
	}{
		{"weights do not sum to one", func(c *EmbeddingAuthConfig) { c.AverageWeight = 0.5 }},
		{"negative weight", func(c *EmbeddingAuthConfig) { c.AverageWeight = -0.4; c.MaxWeight = 1.4 }},
		{"threshold above one", func(c *EmbeddingAuthConfig) { c.AuthenticationThreshold = 1.5 }},
		{"minimum below one", func(c *EmbeddingAuthConfig) { c.MinimumEmbeddingsRequired = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultEmbeddingAuthConfig()
			tc.mutate(&cfg)
			if _, err := NewEmbeddingAuthenticator(nil, cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
