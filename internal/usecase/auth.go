package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ErlanBelekov/taskapi/internal/domain"
	"github.com/ErlanBelekov/taskapi/internal/email"
	"github.com/ErlanBelekov/taskapi/internal/metrics"
	"github.com/ErlanBelekov/taskapi/internal/repository"
	"github.com/ErlanBelekov/taskapi/internal/token"
)

// TokenCodec is satisfied by *token.Codec.
type TokenCodec interface {
	Mint(userID int64, ttl time.Duration) (string, error)
	Verify(tokenString string) (*token.Claims, error)
}

type AuthConfig struct {
	MagicLinkTTL   time.Duration
	AccessTokenTTL time.Duration
	MagicLinkBase  string
}

type AuthUsecase struct {
	users    repository.UserRepository
	tokens   repository.MagicTokenRepository
	codec    TokenCodec
	email    email.Sender
	link     *email.MagicLink
	validate *validator.Validate
	cfg      AuthConfig
	now      func() time.Time
}

func NewAuthUsecase(
	users repository.UserRepository,
	tokens repository.MagicTokenRepository,
	codec TokenCodec,
	emailSender email.Sender,
	cfg AuthConfig,
) *AuthUsecase {
	return &AuthUsecase{
		users:    users,
		tokens:   tokens,
		codec:    codec,
		email:    emailSender,
		link:     email.NewMagicLink(cfg.MagicLinkBase, cfg.MagicLinkTTL),
		validate: validator.New(),
		cfg:      cfg,
		now:      time.Now,
	}
}

// WithClock replaces the clock used for the store expiry comparison.
func (u *AuthUsecase) WithClock(now func() time.Time) *AuthUsecase {
	u.now = now
	return u
}

// RequestMagicLink finds or creates the user, mints a magic-link token,
// persists it and emails it. The token is never returned to the caller.
//
// A mail failure is reported as domain.ErrEmailDelivery after the token row
// already exists; the caller decides whether to surface it.
func (u *AuthUsecase) RequestMagicLink(ctx context.Context, emailAddr string) error {
	if err := u.validate.Var(emailAddr, "required,email"); err != nil {
		return domain.ErrInvalidEmail
	}

	user, err := u.users.FindOrCreate(ctx, emailAddr)
	if err != nil {
		return fmt.Errorf("find or create user: %w", err)
	}

	value, err := u.codec.Mint(user.ID, u.cfg.MagicLinkTTL)
	if err != nil {
		return fmt.Errorf("mint magic token: %w", err)
	}

	if _, err = u.tokens.Create(ctx, user.ID, value, u.cfg.MagicLinkTTL); err != nil {
		return fmt.Errorf("store magic token: %w", err)
	}

	if err = u.email.Send(ctx, emailAddr, email.MagicLinkSubject, u.link.Body(value)); err != nil {
		metrics.MagicLinkDeliveryFailuresTotal.Inc()
		return fmt.Errorf("%w: %w", domain.ErrEmailDelivery, err)
	}

	metrics.MagicLinksIssuedTotal.Inc()
	return nil
}

// VerifyMagicLink redeems a magic-link token for an access token.
//
// Every rejection wraps domain.ErrTokenInvalid with the specific reason so
// it can be logged; callers must only expose the wrapped sentinel. Errors
// that do not wrap ErrTokenInvalid are infrastructure failures.
func (u *AuthUsecase) VerifyMagicLink(ctx context.Context, tokenString string) (string, error) {
	access, err := u.redeem(ctx, tokenString)
	switch {
	case err == nil:
		metrics.MagicLinkRedemptionsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	case errors.Is(err, domain.ErrTokenInvalid):
		metrics.MagicLinkRedemptionsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
	default:
		metrics.MagicLinkRedemptionsTotal.WithLabelValues(metrics.OutcomeError).Inc()
	}
	return access, err
}

func (u *AuthUsecase) redeem(ctx context.Context, tokenString string) (string, error) {
	claims, err := u.codec.Verify(tokenString)
	if err != nil {
		return "", invalid(err.Error())
	}

	if claims.UserID == "" {
		return "", invalid("userId claim not found")
	}
	userID, err := claims.ParseUserID()
	if err != nil {
		return "", invalid("userId claim not an integer")
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", invalid("user not found")
		}
		return "", fmt.Errorf("find user: %w", err)
	}

	mt, err := u.tokens.FindByValue(ctx, tokenString)
	if err != nil {
		if errors.Is(err, domain.ErrMagicTokenNotFound) {
			return "", invalid("token not found")
		}
		return "", fmt.Errorf("find magic token: %w", err)
	}

	if mt.Used {
		return "", invalid("already used")
	}
	if mt.Expired(u.now()) {
		return "", invalid("expired")
	}

	// The conditional update is the real single-use guard; the Used check
	// above only short-circuits the common replay.
	if err = u.tokens.MarkUsed(ctx, mt.ID); err != nil {
		if errors.Is(err, domain.ErrTokenAlreadyUsed) {
			return "", invalid("already used")
		}
		return "", fmt.Errorf("mark magic token used: %w", err)
	}

	access, err := u.codec.Mint(user.ID, u.cfg.AccessTokenTTL)
	if err != nil {
		return "", fmt.Errorf("mint access token: %w", err)
	}
	return access, nil
}

func invalid(reason string) error {
	return fmt.Errorf("%w: %s", domain.ErrTokenInvalid, reason)
}
