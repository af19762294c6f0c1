package ml

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"go.uber.org/zap"

	"github.com/asotorev/voice-gateway-sub001/internal/core/port"
	"github.com/asotorev/voice-gateway-sub001/internal/infra/config"
)

// LambdaEmbedder implements port.EmbeddingModel by invoking the
// embedding-generator Lambda synchronously. Audio travels base64-encoded
// inside the request payload; the function replies with the vector and
// a quality score.
type LambdaEmbedder struct {
	client   *lambda.Client
	function string
	logger   *zap.Logger
}

// NewLambdaEmbedder constructs a Lambda-backed embedding model.
func NewLambdaEmbedder(ctx context.Context, cfg config.EmbeddingSettings, logger *zap.Logger) (*LambdaEmbedder, error) {
	if cfg.FunctionName == "" {
		return nil, fmt.Errorf("embedding function name is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	logger.Info("Lambda embedder initialized",
		zap.String("function", cfg.FunctionName),
		zap.String("region", cfg.Region),
	)

	return &LambdaEmbedder{
		client:   lambda.NewFromConfig(awsCfg),
		function: cfg.FunctionName,
		logger:   logger,
	}, nil
}

type embeddingRequest struct {
	Audio    []byte         `json:"audio"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type embeddingResponse struct {
	Embedding    []float64      `json:"embedding"`
	QualityScore float64        `json:"quality_score"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	Error        string         `json:"error,omitempty"`
}

// GenerateEmbedding invokes the Lambda and decodes its reply.
func (e *LambdaEmbedder) GenerateEmbedding(ctx context.Context, audio []byte, metadata map[string]any) (port.EmbeddingResult, error) {
	if len(audio) == 0 {
		return port.EmbeddingResult{}, fmt.Errorf("audio payload is empty")
	}

	payload, err := json.Marshal(embeddingRequest{Audio: audio, Metadata: metadata})
	if err != nil {
		return port.EmbeddingResult{}, fmt.Errorf("marshal embedding request: %w", err)
	}

	out, err := e.client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName: aws.String(e.function),
		Payload:      payload,
	})
	if err != nil {
		return port.EmbeddingResult{}, fmt.Errorf("invoke embedding function: %w", err)
	}
	if out.FunctionError != nil {
		return port.EmbeddingResult{}, fmt.Errorf("embedding function failed: %s", aws.ToString(out.FunctionError))
	}

	var resp embeddingResponse
	if err := json.Unmarshal(out.Payload, &resp); err != nil {
		return port.EmbeddingResult{}, fmt.Errorf("decode embedding response: %w", err)
	}
	if resp.Error != "" {
		return port.EmbeddingResult{}, fmt.Errorf("embedding function rejected input: %s", resp.Error)
	}
	if len(resp.Embedding) == 0 {
		return port.EmbeddingResult{}, fmt.Errorf("embedding function returned an empty vector")
	}

	return port.EmbeddingResult{
		Vector:       resp.Embedding,
		QualityScore: resp.QualityScore,
		Metadata:     resp.Metadata,
	}, nil
}

var _ port.EmbeddingModel = (*LambdaEmbedder)(nil)
