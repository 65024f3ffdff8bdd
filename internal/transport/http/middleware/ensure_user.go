package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ErlanBelekov/taskapi/internal/domain"
)

const (
	contextUser = "user"

	errClaimMissing = "User ID claim is missing."
	errClaimInvalid = "Invalid User ID claim."
	errUserNotFound = "User not found."
)

// UserFinder is satisfied by repository.UserRepository.
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
}

// EnsureUser runs after Auth. It resolves the userId claim to a stored user
// and makes it available to handlers through CurrentUser.
func EnsureUser(users UserFinder, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetString(ContextUserID)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errClaimMissing})
			return
		}

		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": errClaimInvalid})
			return
		}

		user, err := users.FindByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": errUserNotFound})
				return
			}
			logger.ErrorContext(c.Request.Context(), "ensure user lookup", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				gin.H{"error": "Internal server error"})
			return
		}

		c.Set(contextUser, user)
		c.Next()
	}
}

// CurrentUser returns the user stored by EnsureUser, or nil outside of it.
func CurrentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(contextUser)
	if !ok {
		return nil
	}
	user, _ := v.(*domain.User)
	return user
}
