package usecase

import (
	"fmt"
	"time"

	"github.com/asotorev/voice-gateway-sub001/internal/core/domain"
)

const trendBand = 0.1

// ProgressConfig carries the enrollment progress parameters.
type ProgressConfig struct {
	RequiredSamples    int
	RegistrationWindow time.Duration
}

// DefaultProgressConfig returns the production defaults.
func DefaultProgressConfig() ProgressConfig {
	return ProgressConfig{
		RequiredSamples:    3,
		RegistrationWindow: 45 * time.Minute,
	}
}

// Validate rejects parameters outside the contract.
func (c ProgressConfig) Validate() error {
	if c.RequiredSamples < 1 {
		return fmt.Errorf("%w: required samples must be >= 1", ErrInvalidConfig)
	}
	if c.RegistrationWindow <= 0 {
		return fmt.Errorf("%w: registration window must be positive", ErrInvalidConfig)
	}
	return nil
}

// ProgressAnalyzer derives enrollment progress metrics from a snapshot.
// Deterministic for a fixed clock; identical snapshots yield identical
// analyses.
type ProgressAnalyzer struct {
	cfg ProgressConfig
	now func() time.Time
}

// NewProgressAnalyzer constructs a progress analyzer.
func NewProgressAnalyzer(cfg ProgressConfig) (*ProgressAnalyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &ProgressAnalyzer{cfg: cfg, now: time.Now}, nil
}

// WithClock overrides the time source, primarily for tests.
func (a *ProgressAnalyzer) WithClock(now func() time.Time) *ProgressAnalyzer {
	if now != nil {
		a.now = now
	}
	return a
}

// Analyze computes the progress view for one snapshot.
func (a *ProgressAnalyzer) Analyze(user domain.UserCredential) domain.ProgressAnalysis {
	collected := user.SampleCount()
	remaining := a.cfg.RequiredSamples - collected
	if remaining < 0 {
		remaining = 0
	}

	pct := 100 * float64(collected) / float64(a.cfg.RequiredSamples)
	if pct > 100 {
		pct = 100
	}

	avgQuality := averageQuality(user.Embeddings)
	elapsed := a.now().Sub(user.CreatedAt)
	urgency := a.urgency(elapsed)

	return domain.ProgressAnalysis{
		SamplesCollected:     collected,
		SamplesRemaining:     remaining,
		CompletionPercentage: pct,
		AverageQuality:       avgQuality,
		QualityTrend:         qualityTrend(user.Embeddings),
		UrgencyLevel:         urgency,
		ElapsedMinutes:       elapsed.Minutes(),
		RegistrationScore:    registrationScore(pct, avgQuality, urgency),
	}
}

// qualityTrend compares the mean quality of the last two samples to the
// mean of all earlier ones. With no earlier samples to compare against
// the trend is stable.
func qualityTrend(embeddings []domain.VoiceEmbedding) domain.QualityTrend {
	if len(embeddings) == 0 {
		return domain.TrendNoData
	}
	if len(embeddings) < 3 {
		return domain.TrendStable
	}

	split := len(embeddings) - 2
	var earlier, recent float64
	for i, emb := range embeddings {
		if i < split {
			earlier += emb.QualityScore
		} else {
			recent += emb.QualityScore
		}
	}
	earlier /= float64(split)
	recent /= 2

	switch {
	case recent > earlier+trendBand:
		return domain.TrendImproving
	case recent < earlier-trendBand:
		return domain.TrendDeclining
	default:
		return domain.TrendStable
	}
}

func (a *ProgressAnalyzer) urgency(elapsed time.Duration) domain.UrgencyLevel {
	ratio := float64(elapsed) / float64(a.cfg.RegistrationWindow)
	switch {
	case ratio >= 1.0:
		return domain.UrgencyExpired
	case ratio >= 0.8:
		return domain.UrgencyUrgent
	case ratio >= 0.6:
		return domain.UrgencyModerate
	default:
		return domain.UrgencyLow
	}
}

func registrationScore(pct, avgQuality float64, urgency domain.UrgencyLevel) float64 {
	penalty := 0.0
	switch urgency {
	case domain.UrgencyModerate:
		penalty = -5
	case domain.UrgencyUrgent:
		penalty = -15
	case domain.UrgencyExpired:
		penalty = -50
	}

	score := pct + (avgQuality-0.5)*20 + penalty
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func averageQuality(embeddings []domain.VoiceEmbedding) float64 {
	if len(embeddings) == 0 {
		return 0
	}
	var sum float64
	for _, emb := range embeddings {
		sum += emb.QualityScore
	}
	return sum / float64(len(embeddings))
}
