package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/asotorev/voice-gateway-sub001/internal/core/domain"
	"github.com/asotorev/voice-gateway-sub001/internal/core/port"
	applogger "github.com/asotorev/voice-gateway-sub001/internal/infra/logger"
	"github.com/asotorev/voice-gateway-sub001/internal/infra/security"
	"github.com/asotorev/voice-gateway-sub001/internal/repository"
)

// RegistrationService creates users with a generated spoken passphrase.
// The plaintext passphrase is returned exactly once, at creation; only
// its word-set digest is stored.
type RegistrationService struct {
	users     port.UserRepository
	events    port.EventPublisher
	wordCount int
	logger    *zap.Logger
	now       func() time.Time
}

// NewRegistrationService constructs a registration service.
func NewRegistrationService(users port.UserRepository, events port.EventPublisher, wordCount int, logger *zap.Logger) (*RegistrationService, error) {
	if users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if wordCount < 1 {
		return nil, fmt.Errorf("%w: passphrase word count must be >= 1", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{
		users:     users,
		events:    events,
		wordCount: wordCount,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// WithClock overrides the time source, primarily for tests.
func (s *RegistrationService) WithClock(now func() time.Time) *RegistrationService {
	if now != nil {
		s.now = now
	}
	return s
}

// Register creates a new user and returns the generated passphrase in
// speaking order. The caller must show it to the user immediately; it
// is not recoverable afterwards.
func (s *RegistrationService) Register(ctx context.Context, email, name string) (domain.UserCredential, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if email == "" {
		return domain.UserCredential{}, "", fmt.Errorf("email is required")
	}
	if name == "" {
		return domain.UserCredential{}, "", fmt.Errorf("name is required")
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return domain.UserCredential{}, "", fmt.Errorf("lookup email: %w", err)
	}
	if existing != nil {
		return domain.UserCredential{}, "", ErrEmailTaken
	}

	words, err := security.GeneratePassphrase(s.wordCount)
	if err != nil {
		return domain.UserCredential{}, "", fmt.Errorf("generate passphrase: %w", err)
	}

	canonical := make([]string, len(words))
	copy(canonical, words)
	sort.Strings(canonical)

	now := s.now().UTC()
	user := domain.UserCredential{
		UserID:         uuid.NewString(),
		Email:          email,
		Name:           name,
		PassphraseHash: HashWords(canonical),
		CreatedAt:      now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.UserCredential{}, "", ErrEmailTaken
		}
		return domain.UserCredential{}, "", fmt.Errorf("create user: %w", err)
	}

	if s.events != nil {
		event := domain.UserRegisteredEvent{
			EventID:      uuid.NewString(),
			UserID:       user.UserID,
			Email:        email,
			RegisteredAt: now,
		}
		if err := s.events.PublishUserRegistered(ctx, event); err != nil {
			s.logger.Warn("publish user registered event failed",
				zap.String("user_id", user.UserID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("user registered",
		zap.String("user_id", user.UserID),
		zap.String("email", applogger.MaskEmail(email)),
		zap.String("passphrase_digest", applogger.MaskDigest(user.PassphraseHash)),
		zap.Int("passphrase_words", s.wordCount),
	)

	return user, strings.Join(words, " "), nil
}
