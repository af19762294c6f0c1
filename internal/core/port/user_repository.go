package port

import (
	"context"
	"time"

	"github.com/asotorev/voice-gateway-sub001/internal/core/domain"
)

// UserRepository exposes persistence behavior for users and their
// enrolled voice embeddings.
type UserRepository interface {
	Create(ctx context.Context, user domain.UserCredential) error
	GetByID(ctx context.Context, id string) (*domain.UserCredential, error)
	GetByEmail(ctx context.Context, email string) (*domain.UserCredential, error)
	AppendEmbedding(ctx context.Context, userID string, embedding domain.VoiceEmbedding) error
	UpdateCompletion(ctx context.Context, userID string, complete bool, completedAt time.Time) error
}
