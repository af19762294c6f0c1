package domain

import "time"

// VoiceEmbedding is one enrolled voice sample reduced to its biometric
// signature. Immutable once created; enrollment only ever appends.
type VoiceEmbedding struct {
	Vector       []float64
	QualityScore float64
	CreatedAt    time.Time
	Metadata     map[string]any
}

// HasVector reports whether the embedding carries a usable vector.
// Stored entries without one are skipped during comparison, not fatal.
func (e VoiceEmbedding) HasVector() bool {
	return len(e.Vector) > 0
}

// SampleComparison records the outcome of comparing the input embedding
// against a single stored sample.
type SampleComparison struct {
	SampleIndex  int
	Similarity   float64
	QualityScore float64
	Skipped      bool
	SkipReason   string
}

// SimilarityComparison aggregates one input embedding against a user's
// stored enrollment set. Similarities holds one entry per stored sample
// actually compared; skipped entries appear only in Details.
type SimilarityComparison struct {
	Similarities           []float64
	Average                float64
	Max                    float64
	Min                    float64
	QualityWeightedAverage float64
	Details                []SampleComparison
}

// ComparedCount returns the number of stored samples that produced a
// similarity score.
func (c SimilarityComparison) ComparedCount() int {
	return len(c.Similarities)
}
