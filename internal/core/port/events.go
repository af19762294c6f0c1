package port

import (
	"context"

	"github.com/asotorev/voice-gateway-sub001/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error
	PublishSampleRecorded(ctx context.Context, event domain.SampleRecordedEvent) error
	PublishRegistrationCompleted(ctx context.Context, event domain.RegistrationCompletedEvent) error
	PublishAuthenticationDecided(ctx context.Context, event domain.AuthenticationDecidedEvent) error
}
