package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/asotorev/voice-gateway-sub001/internal/core/port"
	"github.com/asotorev/voice-gateway-sub001/internal/infra/config"
)

// S3AudioStore persists audio clips in S3. Keys follow
// <prefix>/<user_id>/<sample_id>.<ext> so ownership can be recovered
// from the key alone.
type S3AudioStore struct {
	client *s3.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// NewS3AudioStore constructs an S3-backed audio store using the default
// AWS credential chain.
func NewS3AudioStore(ctx context.Context, cfg config.AudioSettings, logger *zap.Logger) (*S3AudioStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("audio bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	logger.Info("S3 audio store initialized",
		zap.String("bucket", cfg.Bucket),
		zap.String("region", cfg.Region),
		zap.String("key_prefix", cfg.KeyPrefix),
	)

	return &S3AudioStore{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.KeyPrefix, "/"),
		logger: logger,
	}, nil
}

// Put uploads one clip and returns its object key.
func (s *S3AudioStore) Put(ctx context.Context, userID, sampleID string, audio []byte, contentType string) (string, error) {
	if userID == "" || sampleID == "" {
		return "", fmt.Errorf("user id and sample id are required")
	}

	key := fmt.Sprintf("%s/%s/%s%s", s.prefix, userID, sampleID, extensionFor(contentType))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(audio),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put audio object: %w", err)
	}

	return key, nil
}

// Get downloads one clip by key.
func (s *S3AudioStore) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get audio object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio object: %w", err)
	}
	return data, nil
}

// UserIDFromKey extracts the owning user from an object key.
func (s *S3AudioStore) UserIDFromKey(key string) (string, error) {
	trimmed := strings.Trim(key, "/")
	parts := strings.Split(trimmed, "/")
	if s.prefix != "" {
		if len(parts) < 3 || parts[0] != s.prefix {
			return "", fmt.Errorf("key %q does not match <prefix>/<user_id>/<object>", key)
		}
		return parts[1], nil
	}
	if len(parts) < 2 {
		return "", fmt.Errorf("key %q does not match <user_id>/<object>", key)
	}
	return parts[0], nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "audio/mpeg":
		return ".mp3"
	case "audio/ogg":
		return ".ogg"
	case "audio/webm":
		return ".webm"
	default:
		return ".bin"
	}
}

var _ port.AudioStore = (*S3AudioStore)(nil)
