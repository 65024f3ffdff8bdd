package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ErlanBelekov/taskapi/internal/domain"
)

// authUsecaser is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type authUsecaser interface {
	RequestMagicLink(ctx context.Context, email string) error
	VerifyMagicLink(ctx context.Context, tokenString string) (string, error)
}

type AuthHandler struct {
	authUsecase authUsecaser
	logger      *slog.Logger
}

func NewAuthHandler(authUsecase authUsecaser, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authUsecase: authUsecase,
		logger:      logger.With("component", "auth_handler"),
	}
}

// POST /auth?email=<address>
// Mails a magic link. The response never carries the token and does not
// reveal whether the address was already known or the mail went out.
func (h *AuthHandler) RequestMagicLink(c *gin.Context) {
	ctx := c.Request.Context()

	err := h.authUsecase.RequestMagicLink(ctx, c.Query("email"))
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidEmail):
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidEmail})
		return
	case errors.Is(err, domain.ErrEmailDelivery):
		h.logger.ErrorContext(ctx, "magic link delivery", "error", err)
	default:
		h.logger.ErrorContext(ctx, "request magic link", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.Status(http.StatusOK)
}

// POST /auth/validate?tokenString=<magic link token>
// Redeems the token; the body of a 200 is the access token itself.
func (h *AuthHandler) Validate(c *gin.Context) {
	ctx := c.Request.Context()

	tokenString := c.Query("tokenString")
	if tokenString == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidToken})
		return
	}

	access, err := h.authUsecase.VerifyMagicLink(ctx, tokenString)
	if err != nil {
		if errors.Is(err, domain.ErrTokenInvalid) {
			h.logger.InfoContext(ctx, "magic link rejected", "reason", err.Error())
			c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidToken})
			return
		}
		h.logger.ErrorContext(ctx, "verify magic link", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.String(http.StatusOK, access)
}
