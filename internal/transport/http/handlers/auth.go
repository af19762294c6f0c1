package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/asotorev/voice-gateway-sub001/internal/repository"
	"github.com/asotorev/voice-gateway-sub001/internal/usecase"
)

// DecisionRecorder counts authentication outcomes for metrics.
type DecisionRecorder interface {
	CountDecision(outcome string)
}

// AuthHandler exposes the voice authentication endpoint.
type AuthHandler struct {
	auth      *usecase.AuthService
	metrics   DecisionRecorder
	tokenTTL  time.Duration
	tokenType string
}

func NewAuthHandler(auth *usecase.AuthService, metrics DecisionRecorder, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		auth:      auth,
		metrics:   metrics,
		tokenTTL:  tokenTTL,
		tokenType: "Bearer",
	}
}

// RegisterRoutes binds authentication endpoints.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, middlewares ...gin.HandlerFunc) {
	handlers := append([]gin.HandlerFunc{}, middlewares...)
	handlers = append(handlers, h.Authenticate)
	r.POST("/voice", handlers...)
}

// Authenticate godoc
// @Summary Authenticate a user with a voice clip
// @Description Evaluates the clip against the stored voiceprint and passphrase. Rejections return 200 with the decision; only infrastructure failures are errors.
// @Tags Authentication
// @Accept mpfd
// @Produce json
// @Param user_id formData string true "User ID"
// @Param audio formData file true "Audio clip"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/auth/voice [post]
func (h *AuthHandler) Authenticate(c *gin.Context) {
	userID := strings.TrimSpace(c.PostForm("user_id"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "user_id is required"))
		return
	}

	audio, _, err := readAudio(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, err.Error()))
		return
	}

	result, err := h.auth.Authenticate(c.Request.Context(), userID, audio)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "user not found"},
			{Err: usecase.ErrEmptyInput, Status: http.StatusBadRequest, Message: "audio payload is empty"},
			{Err: usecase.ErrDimensionMismatch, Status: http.StatusBadRequest, Message: "embedding dimensions do not match enrollment"},
			{Err: usecase.ErrInsufficientData, Status: http.StatusUnprocessableEntity, Message: "not enough enrolled samples to authenticate"},
		}, http.StatusInternalServerError, "failed to authenticate")
		return
	}

	if h.metrics != nil {
		h.metrics.CountDecision(string(result.Decision.Outcome))
	}

	resp := AuthResponse{Decision: newAuthDecisionView(result.Decision)}
	if result.AccessToken != "" {
		resp.AccessToken = result.AccessToken
		resp.TokenType = h.tokenType
		resp.ExpiresIn = int(h.tokenTTL.Seconds())
	}

	c.JSON(http.StatusOK, resp)
}
