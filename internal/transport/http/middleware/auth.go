package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ErlanBelekov/taskapi/internal/domain"
	"github.com/ErlanBelekov/taskapi/internal/metrics"
	"github.com/ErlanBelekov/taskapi/internal/reqctx"
	"github.com/ErlanBelekov/taskapi/internal/token"
)

const (
	errUnauthorized = "Unauthorized"

	// ContextUserID holds the raw userId claim; absent when the token had none.
	ContextUserID = "userID"
)

// TokenVerifier is satisfied by *token.Codec.
type TokenVerifier interface {
	Verify(tokenString string) (*token.Claims, error)
}

// Auth validates a Bearer token and sets "userID" in the gin context.
//
// Any token the codec accepts is honored, including a magic-link token that
// has not expired yet: the two flavors share one format.
func Auth(verifier TokenVerifier, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, raw, ok := strings.Cut(c.GetHeader("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			reject(c, logger, fmt.Errorf("%w: missing bearer token", domain.ErrUnauthorized))
			return
		}

		claims, err := verifier.Verify(strings.TrimSpace(raw))
		if err != nil {
			reject(c, logger, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err))
			return
		}

		if claims.UserID != "" {
			c.Set(ContextUserID, claims.UserID)
			c.Request = c.Request.WithContext(reqctx.WithUserID(c.Request.Context(), claims.UserID))
		}
		c.Next()
	}
}

func reject(c *gin.Context, logger *slog.Logger, err error) {
	metrics.BearerRejectionsTotal.Inc()
	logger.DebugContext(c.Request.Context(), "bearer rejected", "error", err)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
}
