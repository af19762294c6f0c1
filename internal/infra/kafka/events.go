package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/asotorev/voice-gateway-sub001/internal/core/domain"
	"github.com/asotorev/voice-gateway-sub001/internal/core/port"
	"github.com/asotorev/voice-gateway-sub001/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	UserID    string           `json:"user_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, userID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	if span := trace.SpanFromContext(ctx); span != nil {
		if sc := span.SpanContext(); sc.IsValid() {
			metadata["trace_id"] = sc.TraceID().String()
		}
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		UserID:    userID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishUserRegistered publishes voice.user.registered events.
func (p *EventPublisher) PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error {
	payload := struct {
		UserID       string         `json:"user_id"`
		Email        string         `json:"email"`
		RegisteredAt time.Time      `json:"registered_at"`
		Metadata     map[string]any `json:"metadata,omitempty"`
	}{
		UserID:       event.UserID,
		Email:        event.Email,
		RegisteredAt: event.RegisteredAt.UTC(),
		Metadata:     event.Metadata,
	}

	return p.publish(ctx, event.EventID, "voice.user.registered", event.UserID, event.RegisteredAt, payload)
}

// PublishSampleRecorded publishes voice.sample.recorded events.
func (p *EventPublisher) PublishSampleRecorded(ctx context.Context, event domain.SampleRecordedEvent) error {
	payload := struct {
		UserID               string         `json:"user_id"`
		SampleID             string         `json:"sample_id"`
		QualityScore         float64        `json:"quality_score"`
		SamplesCollected     int            `json:"samples_collected"`
		SamplesRemaining     int            `json:"samples_remaining"`
		CompletionPercentage float64        `json:"completion_percentage"`
		RecordedAt           time.Time      `json:"recorded_at"`
		Metadata             map[string]any `json:"metadata,omitempty"`
	}{
		UserID:               event.UserID,
		SampleID:             event.SampleID,
		QualityScore:         event.QualityScore,
		SamplesCollected:     event.SamplesCollected,
		SamplesRemaining:     event.SamplesRemaining,
		CompletionPercentage: event.CompletionPercentage,
		RecordedAt:           event.RecordedAt.UTC(),
		Metadata:             event.Metadata,
	}

	return p.publish(ctx, event.EventID, "voice.sample.recorded", event.UserID, event.RecordedAt, payload)
}

// PublishRegistrationCompleted publishes voice.registration.completed events.
func (p *EventPublisher) PublishRegistrationCompleted(ctx context.Context, event domain.RegistrationCompletedEvent) error {
	payload := struct {
		UserID           string         `json:"user_id"`
		SamplesCollected int            `json:"samples_collected"`
		Confidence       float64        `json:"confidence"`
		CompletedAt      time.Time      `json:"completed_at"`
		Metadata         map[string]any `json:"metadata,omitempty"`
	}{
		UserID:           event.UserID,
		SamplesCollected: event.SamplesCollected,
		Confidence:       event.Confidence,
		CompletedAt:      event.CompletedAt.UTC(),
		Metadata:         event.Metadata,
	}

	return p.publish(ctx, event.EventID, "voice.registration.completed", event.UserID, event.CompletedAt, payload)
}

// PublishAuthenticationDecided publishes voice.authentication.decided events.
// The payload carries outcome and confidence only; transcripts and
// vectors never leave the process.
func (p *EventPublisher) PublishAuthenticationDecided(ctx context.Context, event domain.AuthenticationDecidedEvent) error {
	payload := struct {
		UserID             string         `json:"user_id"`
		Outcome            string         `json:"outcome"`
		CombinedConfidence float64        `json:"combined_confidence"`
		EmbeddingPassed    bool           `json:"embedding_passed"`
		PassphrasePassed   bool           `json:"passphrase_passed"`
		HighConfidence     bool           `json:"high_confidence"`
		DecidedAt          time.Time      `json:"decided_at"`
		Metadata           map[string]any `json:"metadata,omitempty"`
	}{
		UserID:             event.UserID,
		Outcome:            event.Outcome,
		CombinedConfidence: event.CombinedConfidence,
		EmbeddingPassed:    event.EmbeddingPassed,
		PassphrasePassed:   event.PassphrasePassed,
		HighConfidence:     event.HighConfidence,
		DecidedAt:          event.DecidedAt.UTC(),
		Metadata:           event.Metadata,
	}

	return p.publish(ctx, event.EventID, "voice.authentication.decided", event.UserID, event.DecidedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
