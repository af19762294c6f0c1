package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/asotorev/voice-gateway-sub001/internal/repository"
	"github.com/asotorev/voice-gateway-sub001/internal/transport/http/middleware"
	"github.com/asotorev/voice-gateway-sub001/internal/usecase"
)

// maxAudioBytes caps uploads at 10 MiB; enrollment clips are a few
// seconds of speech.
const maxAudioBytes = 10 << 20

// EnrollmentHandler exposes voice sample upload and status endpoints.
type EnrollmentHandler struct {
	enrollment *usecase.EnrollmentService
}

func NewEnrollmentHandler(enrollment *usecase.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollment: enrollment}
}

// RegisterRoutes binds enrollment endpoints.
func (h *EnrollmentHandler) RegisterRoutes(r *gin.RouterGroup, sampleMiddlewares ...gin.HandlerFunc) {
	handlers := append([]gin.HandlerFunc{}, sampleMiddlewares...)
	handlers = append(handlers, h.RecordSample)
	r.POST("/:id/samples", handlers...)
	r.GET("/:id/status", h.Status)
}

// RegisterAudioRoutes binds the authenticated clip download endpoint.
func (h *EnrollmentHandler) RegisterAudioRoutes(r *gin.RouterGroup, middlewares ...gin.HandlerFunc) {
	handlers := append([]gin.HandlerFunc{}, middlewares...)
	handlers = append(handlers, h.SampleAudio)
	r.GET("/:id/samples/:sample_id/audio", handlers...)
}

// RecordSample godoc
// @Summary Upload one enrollment voice sample
// @Description Accepts an audio clip, stores it, and returns refreshed enrollment progress.
// @Tags Enrollment
// @Accept mpfd
// @Produce json
// @Param id path string true "User ID"
// @Param audio formData file true "Audio clip"
// @Success 200 {object} SampleResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/users/{id}/samples [post]
func (h *EnrollmentHandler) RecordSample(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("id"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "user id is required"))
		return
	}

	audio, contentType, err := readAudio(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, err.Error()))
		return
	}

	sampleID, progress, completion, err := h.enrollment.RecordSample(c.Request.Context(), userID, audio, contentType)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "user not found"},
			{Err: usecase.ErrRegistrationAlreadyComplete, Status: http.StatusConflict, Message: "registration already complete"},
			{Err: usecase.ErrEmptyInput, Status: http.StatusBadRequest, Message: "audio payload is empty"},
		}, http.StatusInternalServerError, "failed to record sample")
		return
	}

	c.JSON(http.StatusOK, SampleResponse{
		SampleID:   sampleID,
		Progress:   newProgressView(progress),
		Completion: newCompletionView(completion),
	})
}

// SampleAudio godoc
// @Summary Download one enrollment clip
// @Description Streams the stored audio for a sample. Requires a bearer access token whose subject matches the user.
// @Tags Enrollment
// @Produce octet-stream
// @Param id path string true "User ID"
// @Param sample_id path string true "Sample ID"
// @Success 200 {file} binary
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/users/{id}/samples/{sample_id}/audio [get]
func (h *EnrollmentHandler) SampleAudio(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("id"))
	sampleID := strings.TrimSpace(c.Param("sample_id"))
	if userID == "" || sampleID == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "user id and sample id are required"))
		return
	}

	if subject, ok := middleware.AuthSubject(c); ok && subject != userID {
		c.JSON(http.StatusForbidden, NewErrorResponse(c, "token subject does not match user"))
		return
	}

	audio, contentType, err := h.enrollment.SampleAudio(c.Request.Context(), userID, sampleID)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "sample not found"},
		}, http.StatusInternalServerError, "failed to load sample audio")
		return
	}

	c.Data(http.StatusOK, contentType, audio)
}

// Status godoc
// @Summary Enrollment progress for a user
// @Description Returns the read-only progress analysis used by clients to drive the enrollment flow.
// @Tags Enrollment
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} StatusResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/users/{id}/status [get]
func (h *EnrollmentHandler) Status(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("id"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "user id is required"))
		return
	}

	progress, err := h.enrollment.Status(c.Request.Context(), userID)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "user not found"},
		}, http.StatusInternalServerError, "failed to load status")
		return
	}

	c.JSON(http.StatusOK, StatusResponse{
		UserID:   userID,
		Progress: newProgressView(progress),
	})
}

// readAudio extracts the audio clip from a multipart "audio" field, or
// from the raw body when the request carries an audio content type.
func readAudio(c *gin.Context) ([]byte, string, error) {
	contentType := c.ContentType()

	if strings.HasPrefix(contentType, "multipart/") || contentType == "application/x-www-form-urlencoded" {
		file, err := c.FormFile("audio")
		if err != nil {
			return nil, "", fmt.Errorf("audio file is required")
		}
		if file.Size > maxAudioBytes {
			return nil, "", fmt.Errorf("audio file exceeds %d bytes", maxAudioBytes)
		}

		src, err := file.Open()
		if err != nil {
			return nil, "", fmt.Errorf("open audio file: %w", err)
		}
		defer src.Close()

		data, err := io.ReadAll(io.LimitReader(src, maxAudioBytes+1))
		if err != nil {
			return nil, "", fmt.Errorf("read audio file: %w", err)
		}
		if len(data) > maxAudioBytes {
			return nil, "", fmt.Errorf("audio file exceeds %d bytes", maxAudioBytes)
		}

		fileType := file.Header.Get("Content-Type")
		if fileType == "" {
			fileType = "audio/wav"
		}
		return data, fileType, nil
	}

	if strings.HasPrefix(contentType, "audio/") {
		data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxAudioBytes+1))
		if err != nil {
			return nil, "", fmt.Errorf("read request body: %w", err)
		}
		if len(data) > maxAudioBytes {
			return nil, "", fmt.Errorf("audio payload exceeds %d bytes", maxAudioBytes)
		}
		return data, contentType, nil
	}

	return nil, "", fmt.Errorf("expected multipart audio upload or audio/* body")
}
