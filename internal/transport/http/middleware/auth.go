package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	authProblemType  = "https://voice-gateway.example.com/errors/unauthorized"
	authProblemTitle = "Unauthorized"

	authSubjectKey = "auth_subject"
)

// TokenVerifier validates an access token and returns its subject.
type TokenVerifier interface {
	Parse(token string) (string, error)
}

// authProblem is an RFC 9457 compatible error payload for rejected
// credentials.
type authProblem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance"`
	TraceID  string `json:"trace_id,omitempty"`
}

// RequireAuth rejects requests without a valid bearer access token and
// stores the token subject in the request context.
func RequireAuth(tokens TokenVerifier, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		const prefix = "Bearer "

		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, prefix) {
			respondUnauthorized(c, "missing bearer token")
			return
		}

		subject, err := tokens.Parse(strings.TrimSpace(strings.TrimPrefix(header, prefix)))
		if err != nil {
			logger.Debug("access token rejected", zap.Error(err))
			respondUnauthorized(c, "invalid access token")
			return
		}

		c.Set(authSubjectKey, subject)
		c.Next()
	}
}

// AuthSubject returns the token subject stored by RequireAuth.
func AuthSubject(c *gin.Context) (string, bool) {
	value, ok := c.Get(authSubjectKey)
	if !ok {
		return "", false
	}
	subject, ok := value.(string)
	return subject, ok && subject != ""
}

func respondUnauthorized(c *gin.Context, detail string) {
	instance := c.FullPath()
	if instance == "" {
		instance = c.Request.URL.Path
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized, authProblem{
		Type:     authProblemType,
		Title:    authProblemTitle,
		Status:   http.StatusUnauthorized,
		Detail:   detail,
		Instance: instance,
		TraceID:  GetTraceID(c),
	})
}
