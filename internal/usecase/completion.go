package usecase

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/asotorev/voice-gateway-sub001/internal/core/domain"
)

// Quality buckets and consistency bounds for enrollment evaluation.
const (
	excellentQuality = 0.9
	goodQuality      = 0.8

	minSampleInterval  = 10 * time.Second
	maxSampleInterval  = 45 * time.Minute
	temporalPassRatio  = 0.8
	spreadThreshold    = 0.5
	consistencyPassBar = 0.7
)

// CompletionConfig carries the enrollment completion criteria.
type CompletionConfig struct {
	RequiredSamples      int
	MinQualityScore      float64
	MinAcceptableSamples int
	AllowQualityOverride bool
}

// DefaultCompletionConfig returns the production defaults.
func DefaultCompletionConfig() CompletionConfig {
	return CompletionConfig{
		RequiredSamples:      3,
		MinQualityScore:      0.7,
		MinAcceptableSamples: 3,
		AllowQualityOverride: true,
	}
}

// Validate rejects criteria outside the contract.
func (c CompletionConfig) Validate() error {
	if c.RequiredSamples < 1 {
		return fmt.Errorf("%w: required samples must be >= 1", ErrInvalidConfig)
	}
	if c.MinQualityScore < 0 || c.MinQualityScore > 1 {
		return fmt.Errorf("%w: minimum quality score must be within [0,1]", ErrInvalidConfig)
	}
	if c.MinAcceptableSamples < 1 {
		return fmt.Errorf("%w: minimum acceptable samples must be >= 1", ErrInvalidConfig)
	}
	return nil
}

// CompletionChecker decides whether an enrollment has collected enough
// good, coherent samples. Pure function of its inputs.
type CompletionChecker struct {
	cfg CompletionConfig
}

// NewCompletionChecker constructs a completion checker.
func NewCompletionChecker(cfg CompletionConfig) (*CompletionChecker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &CompletionChecker{cfg: cfg}, nil
}

// Check evaluates the three completion criteria for one snapshot.
// Consistency is advisory: a snapshot that clears sample count and
// quality is complete even when consistency fails, with a confidence
// floor. A separate quality override forces completion for uniformly
// excellent samples.
func (c *CompletionChecker) Check(user domain.UserCredential, progress domain.ProgressAnalysis) domain.CompletionAnalysis {
	basic := c.checkBasic(user)
	quality := c.checkQuality(user)
	consistency := c.checkConsistency(user)

	analysis := domain.CompletionAnalysis{
		BasicCheck:       basic,
		QualityCheck:     quality,
		ConsistencyCheck: consistency,
	}

	confidence := 0.0
	if basic.Passed {
		confidence += 0.4
		analysis.DecisionReasons = append(analysis.DecisionReasons, "sample count criterion satisfied")
	}
	if quality.Passed {
		confidence += 0.4
		analysis.DecisionReasons = append(analysis.DecisionReasons, "quality criterion satisfied")
	}
	if consistency.Passed {
		confidence += 0.2
		analysis.DecisionReasons = append(analysis.DecisionReasons, "consistency criterion satisfied")
	}

	switch {
	case basic.Passed && quality.Passed && consistency.Passed:
		analysis.IsComplete = true
		analysis.Confidence = confidence
	case c.cfg.AllowQualityOverride && quality.AverageQuality >= excellentQuality && quality.AcceptableCount >= c.cfg.RequiredSamples:
		analysis.IsComplete = true
		analysis.Confidence = math.Max(confidence, 0.9)
		analysis.DecisionReasons = append(analysis.DecisionReasons, "quality override applied")
	case basic.Passed && quality.Passed:
		analysis.IsComplete = true
		analysis.Confidence = math.Max(confidence, 0.85)
		analysis.DecisionReasons = append(analysis.DecisionReasons, "consistency advisory overridden")
	default:
		analysis.IsComplete = false
		analysis.Confidence = confidence
	}

	analysis.Recommendations = c.recommendations(basic, quality, consistency)

	return analysis
}

// ShouldPersistUpdate reports whether the completion verdict warrants a
// storage write: the status flipped, or the user is not yet marked
// complete and confidence crossed the early-commit bar.
func (c *CompletionChecker) ShouldPersistUpdate(analysis domain.CompletionAnalysis, currentStored bool) bool {
	if analysis.IsComplete != currentStored {
		return true
	}
	return !currentStored && analysis.Confidence >= 0.95
}

func (c *CompletionChecker) checkBasic(user domain.UserCredential) domain.BasicCheck {
	check := domain.BasicCheck{
		SamplesCollected: user.SampleCount(),
		SamplesRequired:  c.cfg.RequiredSamples,
		AlreadyComplete:  user.RegistrationComplete,
	}
	check.Passed = user.RegistrationComplete || user.SampleCount() >= c.cfg.RequiredSamples
	return check
}

func (c *CompletionChecker) checkQuality(user domain.UserCredential) domain.QualityCheck {
	check := domain.QualityCheck{RequiredCount: c.cfg.MinAcceptableSamples}

	var sum float64
	for _, emb := range user.Embeddings {
		q := emb.QualityScore
		sum += q
		switch {
		case q >= excellentQuality:
			check.ExcellentSamples++
		case q >= goodQuality:
			check.GoodSamples++
		case q >= c.cfg.MinQualityScore:
			check.AcceptableSamples++
		default:
			check.PoorSamples++
		}
		if q >= c.cfg.MinQualityScore {
			check.AcceptableCount++
		}
	}
	if n := user.SampleCount(); n > 0 {
		check.AverageQuality = sum / float64(n)
	}
	check.Passed = check.AcceptableCount >= c.cfg.MinAcceptableSamples
	return check
}

func (c *CompletionChecker) checkConsistency(user domain.UserCredential) domain.ConsistencyCheck {
	if user.SampleCount() < 2 {
		return domain.ConsistencyCheck{
			Passed:           true,
			ConsistencyScore: 1.0,
			Reason:           "insufficient_data",
		}
	}

	check := domain.ConsistencyCheck{
		TemporalConsistent: c.temporalConsistent(user.Embeddings),
	}

	similarityConsistent, computed := embeddingSpreadConsistent(user.Embeddings)
	check.SimilarityComputed = computed
	check.SimilarityConsistent = similarityConsistent

	score := 0.0
	if check.TemporalConsistent {
		score += 0.5
	}
	switch {
	case !computed:
		// Benefit of the doubt when vectors are missing.
		score += 0.3
	case similarityConsistent:
		score += 0.5
	}

	check.ConsistencyScore = score
	check.Passed = score >= consistencyPassBar
	if !check.Passed {
		check.Reason = "samples diverge in timing or signal"
	}
	return check
}

// temporalConsistent sorts creation timestamps and requires at least 80%
// of the inter-sample intervals to fall inside [10s, 45min].
func (c *CompletionChecker) temporalConsistent(embeddings []domain.VoiceEmbedding) bool {
	times := make([]time.Time, len(embeddings))
	for i, emb := range embeddings {
		times[i] = emb.CreatedAt
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	total := len(times) - 1
	if total == 0 {
		return true
	}
	inRange := 0
	for i := 1; i < len(times); i++ {
		gap := times[i].Sub(times[i-1])
		if gap >= minSampleInterval && gap <= maxSampleInterval {
			inRange++
		}
	}
	return float64(inRange)/float64(total) >= temporalPassRatio
}

// embeddingSpreadConsistent checks that the L2 norms and arithmetic
// means of the stored vectors do not spread beyond the fixed threshold.
// Returns computed=false when fewer than two usable vectors exist.
func embeddingSpreadConsistent(embeddings []domain.VoiceEmbedding) (consistent, computed bool) {
	var norms, means []float64
	for _, emb := range embeddings {
		if !emb.HasVector() {
			continue
		}
		norms = append(norms, floats.Norm(emb.Vector, 2))
		means = append(means, mean(emb.Vector))
	}
	if len(norms) < 2 {
		return false, false
	}
	return popStdDev(norms) < spreadThreshold && popStdDev(means) < spreadThreshold, true
}

func popStdDev(values []float64) float64 {
	m := mean(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

func (c *CompletionChecker) recommendations(basic domain.BasicCheck, quality domain.QualityCheck, consistency domain.ConsistencyCheck) []string {
	var recs []string
	if !basic.Passed {
		missing := basic.SamplesRequired - basic.SamplesCollected
		recs = append(recs, fmt.Sprintf("record %d more voice sample(s) to reach the required %d", missing, basic.SamplesRequired))
	}
	if !quality.Passed {
		missing := quality.RequiredCount - quality.AcceptableCount
		recs = append(recs, fmt.Sprintf("provide %d more sample(s) with quality at or above %.2f", missing, c.cfg.MinQualityScore))
	}
	if !consistency.Passed {
		if !consistency.TemporalConsistent {
			recs = append(recs, fmt.Sprintf("record samples between %s and %s apart", minSampleInterval, maxSampleInterval))
		}
		if consistency.SimilarityComputed && !consistency.SimilarityConsistent {
			recs = append(recs, "re-record samples in a consistent environment and tone")
		}
	}
	return recs
}
