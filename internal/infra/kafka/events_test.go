package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap/zaptest"

	"github.com/asotorev/voice-gateway-sub001/internal/core/domain"
	"github.com/asotorev/voice-gateway-sub001/internal/infra/config"
)

type fakeAsyncProducer struct {
	input  chan *sarama.ProducerMessage
	errors chan *sarama.ProducerError
}

func newFakeAsyncProducer() *fakeAsyncProducer {
	return &fakeAsyncProducer{
		input:  make(chan *sarama.ProducerMessage, 1),
		errors: make(chan *sarama.ProducerError, 1),
	}
}

func (f *fakeAsyncProducer) AsyncClose() {}

func (f *fakeAsyncProducer) Close() error { return nil }

func (f *fakeAsyncProducer) Input() chan<- *sarama.ProducerMessage { return f.input }

func (f *fakeAsyncProducer) Successes() <-chan *sarama.ProducerMessage { return nil }

func (f *fakeAsyncProducer) Errors() <-chan *sarama.ProducerError { return f.errors }

func (f *fakeAsyncProducer) IsTransactional() bool { return false }

func (f *fakeAsyncProducer) BeginTxn() error { return nil }

func (f *fakeAsyncProducer) CommitTxn() error { return nil }

func (f *fakeAsyncProducer) AbortTxn() error { return nil }

func (f *fakeAsyncProducer) AddOffsetsToTxn(offsets map[string][]*sarama.PartitionOffsetMetadata, groupID string) error {
	return nil
}

func (f *fakeAsyncProducer) AddMessageToTxn(msg *sarama.ConsumerMessage, groupID string, metadata *string) error {
	return nil
}

func (f *fakeAsyncProducer) TxnStatus() sarama.ProducerTxnStatusFlag {
	return sarama.ProducerTxnStatusFlag(0)
}

func newTestPublisher(t *testing.T, asyncProducer *fakeAsyncProducer) *EventPublisher {
	t.Helper()
	producer := &Producer{
		producer: asyncProducer,
		logger:   zaptest.NewLogger(t),
		cfg: config.KafkaSettings{
			TopicPrefix: "voice",
		},
		errChan: make(chan error, 1),
		done:    make(chan struct{}),
	}

	return NewEventPublisher(producer, config.AppSettings{
		Name: "voice-gateway",
		Env:  "test",
	}, zaptest.NewLogger(t))
}

func TestPublishAuthenticationDecided(t *testing.T) {
	asyncProducer := newFakeAsyncProducer()
	publisher := newTestPublisher(t, asyncProducer)

	decidedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	event := domain.AuthenticationDecidedEvent{
		EventID:            "event-123",
		UserID:             "user-789",
		Outcome:            "rejected_voice",
		CombinedConfidence: 0.55,
		EmbeddingPassed:    false,
		PassphrasePassed:   true,
		DecidedAt:          decidedAt,
		Metadata:           map[string]any{"source": "unit-test"},
	}

	if err := publisher.PublishAuthenticationDecided(context.Background(), event); err != nil {
		t.Fatalf("PublishAuthenticationDecided returned error: %v", err)
	}

	select {
	case msg := <-asyncProducer.input:
		if msg.Topic != "voice.authentication.decided" {
			t.Fatalf("unexpected topic: %s", msg.Topic)
		}

		bytes, err := msg.Value.Encode()
		if err != nil {
			t.Fatalf("Value.Encode returned error: %v", err)
		}

		var envelope map[string]any
		if err := json.Unmarshal(bytes, &envelope); err != nil {
			t.Fatalf("failed to unmarshal envelope: %v", err)
		}

		if got := envelope["event_type"]; got != "voice.authentication.decided" {
			t.Fatalf("unexpected event_type: %v", got)
		}

		if got := envelope["user_id"]; got != event.UserID {
			t.Fatalf("unexpected user_id: %v", got)
		}

		timestamp, ok := envelope["timestamp"].(string)
		if !ok {
			t.Fatalf("timestamp not a string: %T", envelope["timestamp"])
		}
		if timestamp != decidedAt.Format(time.RFC3339Nano) {
			t.Fatalf("unexpected timestamp: %s", timestamp)
		}

		payload, ok := envelope["payload"].(map[string]any)
		if !ok {
			t.Fatalf("payload not a map: %T", envelope["payload"])
		}

		if got := payload["outcome"]; got != event.Outcome {
			t.Fatalf("unexpected outcome: %v", got)
		}

		confidence, ok := payload["combined_confidence"].(float64)
		if !ok {
			t.Fatalf("combined_confidence not numeric: %T", payload["combined_confidence"])
		}
		if confidence != event.CombinedConfidence {
			t.Fatalf("unexpected combined_confidence: %v", confidence)
		}

		if got := payload["passphrase_passed"]; got != true {
			t.Fatalf("unexpected passphrase_passed: %v", got)
		}

		// The payload must never carry transcripts or vectors.
		for _, forbidden := range []string{"transcript", "vector", "embedding", "passphrase"} {
			if _, present := payload[forbidden]; present {
				t.Fatalf("payload leaks %q", forbidden)
			}
		}

		envelopeMetadata, ok := envelope["metadata"].(map[string]any)
		if !ok {
			t.Fatalf("envelope metadata not a map: %T", envelope["metadata"])
		}
		if envelopeMetadata["service"] != "voice-gateway" {
			t.Fatalf("unexpected metadata service: %v", envelopeMetadata["service"])
		}
		if envelopeMetadata["environment"] != "test" {
			t.Fatalf("unexpected metadata environment: %v", envelopeMetadata["environment"])
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message on async producer input channel")
	}
}

func TestPublishSampleRecorded(t *testing.T) {
	asyncProducer := newFakeAsyncProducer()
	publisher := newTestPublisher(t, asyncProducer)

	recordedAt := time.Date(2026, 3, 10, 12, 5, 0, 0, time.UTC)
	event := domain.SampleRecordedEvent{
		EventID:              "evt-001",
		UserID:               "user-123",
		SampleID:             "sample-456",
		QualityScore:         0.92,
		SamplesCollected:     2,
		SamplesRemaining:     1,
		CompletionPercentage: 66.67,
		RecordedAt:           recordedAt,
		Metadata:             map[string]any{"source": "unit-test"},
	}

	if err := publisher.PublishSampleRecorded(context.Background(), event); err != nil {
		t.Fatalf("PublishSampleRecorded returned error: %v", err)
	}

	select {
	case msg := <-asyncProducer.input:
		if msg.Topic != "voice.sample.recorded" {
			t.Fatalf("unexpected topic: %s", msg.Topic)
		}

		bytes, err := msg.Value.Encode()
		if err != nil {
			t.Fatalf("Value.Encode returned error: %v", err)
		}

		var envelope map[string]any
		if err := json.Unmarshal(bytes, &envelope); err != nil {
			t.Fatalf("failed to unmarshal envelope: %v", err)
		}

		payload, ok := envelope["payload"].(map[string]any)
		if !ok {
			t.Fatalf("payload not a map: %T", envelope["payload"])
		}

		if got := payload["sample_id"]; got != event.SampleID {
			t.Fatalf("unexpected sample_id: %v", got)
		}

		collected, ok := payload["samples_collected"].(float64)
		if !ok {
			t.Fatalf("samples_collected not numeric: %T", payload["samples_collected"])
		}
		if int(collected) != event.SamplesCollected {
			t.Fatalf("unexpected samples_collected: %v", collected)
		}

		quality, ok := payload["quality_score"].(float64)
		if !ok {
			t.Fatalf("quality_score not numeric: %T", payload["quality_score"])
		}
		if quality != event.QualityScore {
			t.Fatalf("unexpected quality_score: %v", quality)
		}

		metadata, ok := payload["metadata"].(map[string]any)
		if !ok {
			t.Fatalf("payload metadata not a map: %T", payload["metadata"])
		}
		if metadata["source"] != "unit-test" {
			t.Fatalf("metadata did not round-trip: %v", metadata)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message on async producer input channel")
	}
}

func TestTopicNameAppliesPrefixOnce(t *testing.T) {
	producer := &Producer{cfg: config.KafkaSettings{TopicPrefix: "voice"}}

	if got := producer.TopicName("sample.recorded"); got != "voice.sample.recorded" {
		t.Fatalf("unexpected topic: %s", got)
	}
	if got := producer.TopicName("voice.sample.recorded"); got != "voice.sample.recorded" {
		t.Fatalf("prefix applied twice: %s", got)
	}
}
