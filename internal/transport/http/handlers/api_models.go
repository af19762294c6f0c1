package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/asotorev/voice-gateway-sub001/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// RegisterRequest defines the voice registration payload.
type RegisterRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name" binding:"required"`
}

// RegisterResponse contains the created user and the generated
// passphrase. The passphrase appears here exactly once; only its digest
// is stored server-side.
type RegisterResponse struct {
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Passphrase string    `json:"passphrase"`
	CreatedAt  time.Time `json:"created_at"`
}

// ProgressView is the API shape of an enrollment progress analysis.
type ProgressView struct {
	SamplesCollected     int     `json:"samples_collected"`
	SamplesRemaining     int     `json:"samples_remaining"`
	CompletionPercentage float64 `json:"completion_percentage"`
	AverageQuality       float64 `json:"average_quality"`
	QualityTrend         string  `json:"quality_trend"`
	UrgencyLevel         string  `json:"urgency_level"`
	ElapsedMinutes       float64 `json:"elapsed_minutes"`
	RegistrationScore    float64 `json:"registration_score"`
}

func newProgressView(p domain.ProgressAnalysis) ProgressView {
	return ProgressView{
		SamplesCollected:     p.SamplesCollected,
		SamplesRemaining:     p.SamplesRemaining,
		CompletionPercentage: p.CompletionPercentage,
		AverageQuality:       p.AverageQuality,
		QualityTrend:         string(p.QualityTrend),
		UrgencyLevel:         string(p.UrgencyLevel),
		ElapsedMinutes:       p.ElapsedMinutes,
		RegistrationScore:    p.RegistrationScore,
	}
}

// CompletionView is the API shape of a completion analysis.
type CompletionView struct {
	IsComplete      bool     `json:"is_complete"`
	Confidence      float64  `json:"confidence"`
	DecisionReasons []string `json:"decision_reasons,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

func newCompletionView(a domain.CompletionAnalysis) CompletionView {
	return CompletionView{
		IsComplete:      a.IsComplete,
		Confidence:      a.Confidence,
		DecisionReasons: a.DecisionReasons,
		Recommendations: a.Recommendations,
	}
}

// SampleResponse is returned after one enrollment clip is processed.
type SampleResponse struct {
	SampleID   string         `json:"sample_id"`
	Progress   ProgressView   `json:"progress"`
	Completion CompletionView `json:"completion"`
}

// StatusResponse is the read-only enrollment status view.
type StatusResponse struct {
	UserID   string       `json:"user_id"`
	Progress ProgressView `json:"progress"`
}

// AuthDecisionView is the API shape of an authentication decision.
type AuthDecisionView struct {
	Outcome              string  `json:"outcome"`
	Authenticated        bool    `json:"authenticated"`
	CombinedConfidence   float64 `json:"combined_confidence"`
	EmbeddingPassed      bool    `json:"embedding_passed"`
	EmbeddingConfidence  float64 `json:"embedding_confidence"`
	HighConfidence       bool    `json:"high_confidence"`
	PassphrasePassed     bool    `json:"passphrase_passed"`
	PassphraseConfidence float64 `json:"passphrase_confidence"`
}

func newAuthDecisionView(d domain.AuthenticationDecision) AuthDecisionView {
	return AuthDecisionView{
		Outcome:              string(d.Outcome),
		Authenticated:        d.Authenticated(),
		CombinedConfidence:   d.CombinedConfidence,
		EmbeddingPassed:      d.EmbeddingPassed,
		EmbeddingConfidence:  d.EmbeddingConfidence,
		HighConfidence:       d.EmbeddingHighConf,
		PassphrasePassed:     d.PassphrasePassed,
		PassphraseConfidence: d.PassphraseConfidence,
	}
}

// AuthResponse carries the decision for one authentication attempt.
// AccessToken is present only when the outcome is authenticated.
type AuthResponse struct {
	Decision    AuthDecisionView `json:"decision"`
	AccessToken string           `json:"access_token,omitempty"`
	TokenType   string           `json:"token_type,omitempty"`
	ExpiresIn   int              `json:"expires_in,omitempty"`
}

// HealthResponse describes the liveness payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse describes the readiness payload with per-dependency detail.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
