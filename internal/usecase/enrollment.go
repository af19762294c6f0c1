package usecase

import (
	"context"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/asotorev/voice-gateway-sub001/internal/core/domain"
	"github.com/asotorev/voice-gateway-sub001/internal/core/port"
	"github.com/asotorev/voice-gateway-sub001/internal/repository"
)

// EnrollmentService runs the sample-recording pipeline: store the clip,
// obtain its embedding, append it to the user's enrollment set, and
// re-evaluate progress and completion.
type EnrollmentService struct {
	users    port.UserRepository
	audio    port.AudioStore
	model    port.EmbeddingModel
	events   port.EventPublisher
	progress *ProgressAnalyzer
	checker  *CompletionChecker
	logger   *zap.Logger
	now      func() time.Time
}

// NewEnrollmentService constructs an enrollment service.
func NewEnrollmentService(
	users port.UserRepository,
	audio port.AudioStore,
	model port.EmbeddingModel,
	events port.EventPublisher,
	progress *ProgressAnalyzer,
	checker *CompletionChecker,
	logger *zap.Logger,
) (*EnrollmentService, error) {
	if users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if audio == nil {
		return nil, fmt.Errorf("audio store is required")
	}
	if model == nil {
		return nil, fmt.Errorf("embedding model is required")
	}
	if progress == nil || checker == nil {
		return nil, fmt.Errorf("progress analyzer and completion checker are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		users:    users,
		audio:    audio,
		model:    model,
		events:   events,
		progress: progress,
		checker:  checker,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// WithClock overrides the time source, primarily for tests.
func (s *EnrollmentService) WithClock(now func() time.Time) *EnrollmentService {
	if now != nil {
		s.now = now
	}
	return s
}

// RecordSample ingests one enrollment clip for the user and returns the
// new sample id with the refreshed progress and completion analyses.
// Audio bytes are opaque; only the embedding model interprets them.
func (s *EnrollmentService) RecordSample(ctx context.Context, userID string, audio []byte, contentType string) (string, domain.ProgressAnalysis, domain.CompletionAnalysis, error) {
	var (
		zeroProgress   domain.ProgressAnalysis
		zeroCompletion domain.CompletionAnalysis
	)
	if len(audio) == 0 {
		return "", zeroProgress, zeroCompletion, fmt.Errorf("record sample: %w", ErrEmptyInput)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", zeroProgress, zeroCompletion, fmt.Errorf("load user: %w", err)
	}
	if user.RegistrationComplete {
		return "", zeroProgress, zeroCompletion, ErrRegistrationAlreadyComplete
	}

	sampleID := uuid.NewString()
	key, err := s.audio.Put(ctx, userID, sampleID, audio, contentType)
	if err != nil {
		return "", zeroProgress, zeroCompletion, fmt.Errorf("store audio: %w", err)
	}

	result, err := s.model.GenerateEmbedding(ctx, audio, map[string]any{
		"sample_id":    sampleID,
		"storage_key":  key,
		"content_type": contentType,
	})
	if err != nil {
		return "", zeroProgress, zeroCompletion, fmt.Errorf("generate embedding: %w", err)
	}

	now := s.now().UTC()
	embedding := domain.VoiceEmbedding{
		Vector:       result.Vector,
		QualityScore: result.QualityScore,
		CreatedAt:    now,
		Metadata: map[string]any{
			"sample_id":    sampleID,
			"storage_key":  key,
			"content_type": contentType,
		},
	}

	if err := s.users.AppendEmbedding(ctx, userID, embedding); err != nil {
		return "", zeroProgress, zeroCompletion, fmt.Errorf("persist embedding: %w", err)
	}

	snapshot := *user
	snapshot.Embeddings = append(snapshot.Embeddings, embedding)

	progress := s.progress.Analyze(snapshot)
	completion := s.checker.Check(snapshot, progress)

	if s.checker.ShouldPersistUpdate(completion, user.RegistrationComplete) {
		if err := s.users.UpdateCompletion(ctx, userID, completion.IsComplete, now); err != nil {
			return "", zeroProgress, zeroCompletion, fmt.Errorf("persist completion: %w", err)
		}
	}

	s.publishSampleRecorded(ctx, snapshot, sampleID, embedding, progress, now)
	if completion.IsComplete && !user.RegistrationComplete {
		s.publishRegistrationCompleted(ctx, snapshot, completion, now)
	}

	s.logger.Info("voice sample recorded",
		zap.String("user_id", userID),
		zap.Int("samples_collected", progress.SamplesCollected),
		zap.Bool("registration_complete", completion.IsComplete),
	)

	return sampleID, progress, completion, nil
}

// SampleAudio returns the stored clip for one of the user's enrollment
// samples. The storage key recorded with the embedding must resolve to
// the same user; a foreign or missing key reads as not found so keys
// never leak across users.
func (s *EnrollmentService) SampleAudio(ctx context.Context, userID, sampleID string) ([]byte, string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, "", fmt.Errorf("load user: %w", err)
	}

	for _, embedding := range user.Embeddings {
		id, _ := embedding.Metadata["sample_id"].(string)
		if id != sampleID {
			continue
		}
		key, _ := embedding.Metadata["storage_key"].(string)
		if key == "" {
			break
		}
		owner, err := s.audio.UserIDFromKey(key)
		if err != nil || owner != user.UserID {
			break
		}

		audio, err := s.audio.Get(ctx, key)
		if err != nil {
			return nil, "", fmt.Errorf("load audio: %w", err)
		}

		contentType, _ := embedding.Metadata["content_type"].(string)
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		return audio, contentType, nil
	}

	return nil, "", fmt.Errorf("sample %s: %w", sampleID, repository.ErrNotFound)
}

// Status returns the read-only progress view for polling endpoints.
func (s *EnrollmentService) Status(ctx context.Context, userID string) (domain.ProgressAnalysis, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.ProgressAnalysis{}, fmt.Errorf("load user: %w", err)
	}
	return s.progress.Analyze(*user), nil
}

func (s *EnrollmentService) publishSampleRecorded(ctx context.Context, user domain.UserCredential, sampleID string, embedding domain.VoiceEmbedding, progress domain.ProgressAnalysis, now time.Time) {
	if s.events == nil {
		return
	}
	event := domain.SampleRecordedEvent{
		EventID:              uuid.NewString(),
		UserID:               user.UserID,
		SampleID:             sampleID,
		QualityScore:         embedding.QualityScore,
		SamplesCollected:     progress.SamplesCollected,
		SamplesRemaining:     progress.SamplesRemaining,
		CompletionPercentage: progress.CompletionPercentage,
		RecordedAt:           now,
	}
	if err := s.events.PublishSampleRecorded(ctx, event); err != nil {
		s.logger.Warn("publish sample recorded event failed",
			zap.String("user_id", user.UserID),
			zap.Error(err),
		)
	}
}

func (s *EnrollmentService) publishRegistrationCompleted(ctx context.Context, user domain.UserCredential, completion domain.CompletionAnalysis, now time.Time) {
	if s.events == nil {
		return
	}
	event := domain.RegistrationCompletedEvent{
		EventID:          uuid.NewString(),
		UserID:           user.UserID,
		SamplesCollected: user.SampleCount(),
		Confidence:       completion.Confidence,
		CompletedAt:      now,
	}
	if err := s.events.PublishRegistrationCompleted(ctx, event); err != nil {
		s.logger.Warn("publish registration completed event failed",
			zap.String("user_id", user.UserID),
			zap.Error(err),
		)
	}
}
