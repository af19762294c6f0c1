package usecase

import (
	"context"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/asotorev/voice-gateway-sub001/internal/core/domain"
	"github.com/asotorev/voice-gateway-sub001/internal/core/port"
	"github.com/asotorev/voice-gateway-sub001/internal/infra/security"
)

// AuthService runs the authentication pipeline: embed and transcribe
// the captured clip, evaluate both factors, and issue an access token
// on acceptance. Transcripts and vectors never reach the logs.
type AuthService struct {
	users       port.UserRepository
	model       port.EmbeddingModel
	transcriber port.Transcriber
	combiner    *DualFactorCombiner
	events      port.EventPublisher
	tokens      *security.TokenIssuer
	language    string
	logger      *zap.Logger
	now         func() time.Time
}

// NewAuthService constructs an authentication service.
func NewAuthService(
	users port.UserRepository,
	model port.EmbeddingModel,
	transcriber port.Transcriber,
	combiner *DualFactorCombiner,
	events port.EventPublisher,
	tokens *security.TokenIssuer,
	language string,
	logger *zap.Logger,
) (*AuthService, error) {
	if users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if model == nil {
		return nil, fmt.Errorf("embedding model is required")
	}
	if transcriber == nil {
		return nil, fmt.Errorf("transcriber is required")
	}
	if combiner == nil {
		return nil, fmt.Errorf("dual factor combiner is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token issuer is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:       users,
		model:       model,
		transcriber: transcriber,
		combiner:    combiner,
		events:      events,
		tokens:      tokens,
		language:    language,
		logger:      logger,
		now:         time.Now,
	}, nil
}

// WithClock overrides the time source, primarily for tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	if now != nil {
		s.now = now
	}
	return s
}

// AuthResult is the outcome of one authentication attempt. AccessToken
// is set only when the decision outcome is authenticated.
type AuthResult struct {
	Decision    domain.AuthenticationDecision
	AccessToken string
}

// Authenticate evaluates one captured clip against the user's stored
// credential. Rejections are values carried in the result, never errors.
func (s *AuthService) Authenticate(ctx context.Context, userID string, audio []byte) (AuthResult, error) {
	if len(audio) == 0 {
		return AuthResult{}, fmt.Errorf("authenticate: %w", ErrEmptyInput)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("load user: %w", err)
	}

	embedding, err := s.model.GenerateEmbedding(ctx, audio, map[string]any{"purpose": "authentication"})
	if err != nil {
		return AuthResult{}, fmt.Errorf("generate embedding: %w", err)
	}

	transcript, err := s.transcriber.Transcribe(ctx, audio, s.language)
	if err != nil {
		return AuthResult{}, fmt.Errorf("transcribe audio: %w", err)
	}

	decision, err := s.combiner.Authenticate(*user, embedding.Vector, transcript)
	if err != nil {
		return AuthResult{}, fmt.Errorf("evaluate factors: %w", err)
	}

	result := AuthResult{Decision: decision}
	if decision.Authenticated() {
		token, err := s.tokens.Issue(userID, decision.CombinedConfidence)
		if err != nil {
			return AuthResult{}, fmt.Errorf("issue access token: %w", err)
		}
		result.AccessToken = token
	}

	s.publishDecision(ctx, userID, decision)

	s.logger.Info("authentication decided",
		zap.String("user_id", userID),
		zap.String("outcome", string(decision.Outcome)),
		zap.Bool("embedding_passed", decision.EmbeddingPassed),
		zap.Bool("passphrase_passed", decision.PassphrasePassed),
	)

	return result, nil
}

func (s *AuthService) publishDecision(ctx context.Context, userID string, decision domain.AuthenticationDecision) {
	if s.events == nil {
		return
	}
	event := domain.AuthenticationDecidedEvent{
		EventID:            uuid.NewString(),
		UserID:             userID,
		Outcome:            string(decision.Outcome),
		CombinedConfidence: decision.CombinedConfidence,
		EmbeddingPassed:    decision.EmbeddingPassed,
		PassphrasePassed:   decision.PassphrasePassed,
		HighConfidence:     decision.EmbeddingHighConf,
		DecidedAt:          s.now().UTC(),
	}
	if err := s.events.PublishAuthenticationDecided(ctx, event); err != nil {
		s.logger.Warn("publish authentication decided event failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}
