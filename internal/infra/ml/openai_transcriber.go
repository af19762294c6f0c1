package ml

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/asotorev/voice-gateway-sub001/internal/core/port"
	"github.com/asotorev/voice-gateway-sub001/internal/infra/config"
)

// OpenAITranscriber implements port.Transcriber using the OpenAI audio
// transcription API. Only the transcript text comes back; audio is not
// retained locally after the call.
type OpenAITranscriber struct {
	client   openai.Client
	model    string
	language string
	logger   *zap.Logger
}

// NewOpenAITranscriber constructs a Whisper-backed transcriber.
func NewOpenAITranscriber(cfg config.SpeechSettings, logger *zap.Logger) (*OpenAITranscriber, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("speech api key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "whisper-1"
	}

	logger.Info("OpenAI transcriber initialized",
		zap.String("model", model),
		zap.String("language", cfg.Language),
	)

	return &OpenAITranscriber{
		client:   openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:    model,
		language: cfg.Language,
		logger:   logger,
	}, nil
}

// Transcribe converts one audio clip to text.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, audio []byte, languageHint string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("audio payload is empty")
	}

	language := languageHint
	if language == "" {
		language = t.language
	}

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(audio), "clip.wav", "audio/wav"),
		Model: openai.AudioModel(t.model),
	}
	if language != "" {
		params.Language = openai.String(language)
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("transcribe audio: %w", err)
	}

	return strings.TrimSpace(resp.Text), nil
}

var _ port.Transcriber = (*OpenAITranscriber)(nil)
