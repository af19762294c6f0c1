package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/asotorev/voice-gateway-sub001/internal/core/domain"
	"github.com/asotorev/voice-gateway-sub001/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for development environments.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, userID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.String("user_id", userID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishUserRegistered logs voice.user.registered events.
func (p *StubPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	payload := map[string]any{
		"user_id":       event.UserID,
		"email":         event.Email,
		"registered_at": event.RegisteredAt,
		"metadata":      event.Metadata,
	}
	p.logEvent("voice.user.registered", event.UserID, event.RegisteredAt, payload)
	return nil
}

// PublishSampleRecorded logs voice.sample.recorded events.
func (p *StubPublisher) PublishSampleRecorded(_ context.Context, event domain.SampleRecordedEvent) error {
	payload := map[string]any{
		"user_id":               event.UserID,
		"sample_id":             event.SampleID,
		"quality_score":         event.QualityScore,
		"samples_collected":     event.SamplesCollected,
		"samples_remaining":     event.SamplesRemaining,
		"completion_percentage": event.CompletionPercentage,
		"recorded_at":           event.RecordedAt,
		"metadata":              event.Metadata,
	}
	p.logEvent("voice.sample.recorded", event.UserID, event.RecordedAt, payload)
	return nil
}

// PublishRegistrationCompleted logs voice.registration.completed events.
func (p *StubPublisher) PublishRegistrationCompleted(_ context.Context, event domain.RegistrationCompletedEvent) error {
	payload := map[string]any{
		"user_id":           event.UserID,
		"samples_collected": event.SamplesCollected,
		"confidence":        event.Confidence,
		"completed_at":      event.CompletedAt,
		"metadata":          event.Metadata,
	}
	p.logEvent("voice.registration.completed", event.UserID, event.CompletedAt, payload)
	return nil
}

// PublishAuthenticationDecided logs voice.authentication.decided events.
func (p *StubPublisher) PublishAuthenticationDecided(_ context.Context, event domain.AuthenticationDecidedEvent) error {
	payload := map[string]any{
		"user_id":             event.UserID,
		"outcome":             event.Outcome,
		"combined_confidence": event.CombinedConfidence,
		"embedding_passed":    event.EmbeddingPassed,
		"passphrase_passed":   event.PassphrasePassed,
		"high_confidence":     event.HighConfidence,
		"decided_at":          event.DecidedAt,
		"metadata":            event.Metadata,
	}
	p.logEvent("voice.authentication.decided", event.UserID, event.DecidedAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
