package usecase

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/asotorev/voice-gateway-sub001/internal/core/domain"
)

func newTestAnalyzer(t *testing.T, cfg ProgressConfig, now time.Time) *ProgressAnalyzer {
	t.Helper()
	analyzer, err := NewProgressAnalyzer(cfg)
	if err != nil {
		t.Fatalf("NewProgressAnalyzer: %v", err)
	}
	return analyzer.WithClock(func() time.Time { return now })
}

func userWithQualities(created time.Time, qualities ...float64) domain.UserCredential {
	user := domain.UserCredential{UserID: "user-1", CreatedAt: created}
	for i, q := range qualities {
		user.Embeddings = append(user.Embeddings, domain.VoiceEmbedding{
			Vector:       []float64{1, 0},
			QualityScore: q,
			CreatedAt:    created.Add(time.Duration(i) * time.Minute),
		})
	}
	return user
}

func TestAnalyzeEmptySnapshot(t *testing.T) {
	created := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	analyzer := newTestAnalyzer(t, DefaultProgressConfig(), created.Add(5*time.Minute))

	progress := analyzer.Analyze(domain.UserCredential{UserID: "user-1", CreatedAt: created})
	if progress.QualityTrend != domain.TrendNoData {
		t.Fatalf("expected no_data trend, got %s", progress.QualityTrend)
	}
	if progress.CompletionPercentage != 0 {
		t.Fatalf("expected 0%% completion, got %v", progress.CompletionPercentage)
	}
	if progress.SamplesCollected != 0 || progress.SamplesRemaining != 3 {
		t.Fatalf("unexpected counts: %+v", progress)
	}
}

func TestAnalyzeCompletionPercentageCapped(t *testing.T) {
	created := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	analyzer := newTestAnalyzer(t, DefaultProgressConfig(), created.Add(5*time.Minute))

	progress := analyzer.Analyze(userWithQualities(created, 0.8, 0.8, 0.8, 0.8, 0.8))
	if progress.CompletionPercentage != 100 {
		t.Fatalf("expected capped 100%%, got %v", progress.CompletionPercentage)
	}
	if progress.SamplesRemaining != 0 {
		t.Fatalf("expected 0 remaining, got %d", progress.SamplesRemaining)
	}
}

func TestAnalyzeQualityTrend(t *testing.T) {
	created := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	analyzer := newTestAnalyzer(t, DefaultProgressConfig(), created.Add(5*time.Minute))

	cases := []struct {
		name      string
		qualities []float64
		want      domain.QualityTrend
	}{
		{"improving", []float64{0.5, 0.7, 0.9}, domain.TrendImproving},
		{"declining", []float64{0.9, 0.6, 0.6}, domain.TrendDeclining},
		{"stable", []float64{0.8, 0.82, 0.78}, domain.TrendStable},
		{"too few for comparison", []float64{0.4, 0.9}, domain.TrendStable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			progress := analyzer.Analyze(userWithQualities(created, tc.qualities...))
			if progress.QualityTrend != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, progress.QualityTrend)
			}
		})
	}
}

func TestAnalyzeUrgency(t *testing.T) {
	created := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		elapsed time.Duration
		want    domain.UrgencyLevel
	}{
		{"low", 10 * time.Minute, domain.UrgencyLow},
		{"moderate", 30 * time.Minute, domain.UrgencyModerate},
		{"urgent", 40 * time.Minute, domain.UrgencyUrgent},
		{"expired", 50 * time.Minute, domain.UrgencyExpired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			analyzer := newTestAnalyzer(t, DefaultProgressConfig(), created.Add(tc.elapsed))
			progress := analyzer.Analyze(userWithQualities(created, 0.8))
			if progress.UrgencyLevel != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, progress.UrgencyLevel)
			}
		})
	}
}

func TestAnalyzeRegistrationScore(t *testing.T) {
	created := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	// 2 of 3 samples, average quality 0.8, urgent window position:
	// 66.67 + (0.8-0.5)*20 - 15
	analyzer := newTestAnalyzer(t, DefaultProgressConfig(), created.Add(40*time.Minute))
	progress := analyzer.Analyze(userWithQualities(created, 0.8, 0.8))

	want := 100.0*2.0/3.0 + 6 - 15
	if math.Abs(progress.RegistrationScore-want) > 1e-9 {
		t.Fatalf("expected score %v, got %v", want, progress.RegistrationScore)
	}
}

func TestAnalyzeRegistrationScoreClamped(t *testing.T) {
	created := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	analyzer := newTestAnalyzer(t, DefaultProgressConfig(), created.Add(5*time.Minute))
	progress := analyzer.Analyze(userWithQualities(created, 0.95, 0.95, 0.95))
	if progress.RegistrationScore != 100 {
		t.Fatalf("expected clamp at 100, got %v", progress.RegistrationScore)
	}

	expired := newTestAnalyzer(t, DefaultProgressConfig(), created.Add(2*time.Hour))
	progress = expired.Analyze(domain.UserCredential{UserID: "user-1", CreatedAt: created})
	if progress.RegistrationScore != 0 {
		t.Fatalf("expected clamp at 0, got %v", progress.RegistrationScore)
	}
}

func TestAnalyzeIdempotent(t *testing.T) {
	created := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	analyzer := newTestAnalyzer(t, DefaultProgressConfig(), created.Add(20*time.Minute))
	user := userWithQualities(created, 0.7, 0.8, 0.9)

	first := analyzer.Analyze(user)
	second := analyzer.Analyze(user)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical analyses: %+v vs %+v", first, second)
	}
}

func TestProgressConfigValidation(t *testing.T) {
	if _, err := NewProgressAnalyzer(ProgressConfig{RequiredSamples: 0, RegistrationWindow: time.Minute}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if _, err := NewProgressAnalyzer(ProgressConfig{RequiredSamples: 3}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
