package handler_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/ErlanBelekov/taskapi/internal/domain"
	"github.com/ErlanBelekov/taskapi/internal/transport/http/handler"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeAuthUsecase implements the unexported authUsecaser interface via method matching.
type fakeAuthUsecase struct {
	requestMagicLink func(ctx context.Context, email string) error
	verifyMagicLink  func(ctx context.Context, tokenString string) (string, error)
}

func (f *fakeAuthUsecase) RequestMagicLink(ctx context.Context, email string) error {
	return f.requestMagicLink(ctx, email)
}

func (f *fakeAuthUsecase) VerifyMagicLink(ctx context.Context, tokenString string) (string, error) {
	return f.verifyMagicLink(ctx, tokenString)
}

func newAuthEngine(uc *fakeAuthUsecase) *gin.Engine {
	h := handler.NewAuthHandler(uc, testLogger)

	r := gin.New()
	r.POST("/auth", h.RequestMagicLink)
	r.POST("/auth/validate", h.Validate)
	return r
}

func do(r http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

// ---- RequestMagicLink ----

func TestRequestMagicLink_PassesQueryEmail(t *testing.T) {
	var got string
	uc := &fakeAuthUsecase{
		requestMagicLink: func(_ context.Context, email string) error {
			got = email
			return nil
		},
	}

	w := do(newAuthEngine(uc), http.MethodPost, "/auth?email=a%40b.com")

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if got != "a@b.com" {
		t.Errorf("email = %q, want a@b.com", got)
	}
	if w.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", w.Body.String())
	}
}

func TestRequestMagicLink_InvalidEmail_Returns400(t *testing.T) {
	uc := &fakeAuthUsecase{
		requestMagicLink: func(_ context.Context, _ string) error { return domain.ErrInvalidEmail },
	}

	w := do(newAuthEngine(uc), http.MethodPost, "/auth?email=nope")

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Invalid email.") {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestRequestMagicLink_DeliveryFailure_Returns200(t *testing.T) {
	uc := &fakeAuthUsecase{
		requestMagicLink: func(_ context.Context, _ string) error {
			return fmt.Errorf("%w: %w", domain.ErrEmailDelivery, errors.New("resend 503"))
		},
	}

	w := do(newAuthEngine(uc), http.MethodPost, "/auth?email=a%40b.com")

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 (must not reveal delivery state)", w.Code)
	}
}

func TestRequestMagicLink_StoreFailure_Returns500(t *testing.T) {
	uc := &fakeAuthUsecase{
		requestMagicLink: func(_ context.Context, _ string) error { return errors.New("db down") },
	}

	w := do(newAuthEngine(uc), http.MethodPost, "/auth?email=a%40b.com")

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "db down") {
		t.Error("internal error leaked to client")
	}
}

// ---- Validate ----

func TestValidate_MissingToken_Returns400(t *testing.T) {
	w := do(newAuthEngine(&fakeAuthUsecase{}), http.MethodPost, "/auth/validate")

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestValidate_InvalidToken_Returns400WithUniformMessage(t *testing.T) {
	for _, reason := range []string{"expired", "already used", "token not found", "user not found"} {
		t.Run(reason, func(t *testing.T) {
			uc := &fakeAuthUsecase{
				verifyMagicLink: func(_ context.Context, _ string) (string, error) {
					return "", fmt.Errorf("%w: %s", domain.ErrTokenInvalid, reason)
				},
			}

			w := do(newAuthEngine(uc), http.MethodPost, "/auth/validate?tokenString=x")

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
			if !strings.Contains(w.Body.String(), "Invalid token.") {
				t.Errorf("body = %q", w.Body.String())
			}
			if strings.Contains(w.Body.String(), reason) {
				t.Errorf("reason %q leaked to client", reason)
			}
		})
	}
}

func TestValidate_InternalError_Returns500(t *testing.T) {
	uc := &fakeAuthUsecase{
		verifyMagicLink: func(_ context.Context, _ string) (string, error) {
			return "", errors.New("db down")
		},
	}

	w := do(newAuthEngine(uc), http.MethodPost, "/auth/validate?tokenString=x")

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestValidate_Success_BodyIsAccessToken(t *testing.T) {
	const access = "header.payload.signature"
	var got string
	uc := &fakeAuthUsecase{
		verifyMagicLink: func(_ context.Context, tokenString string) (string, error) {
			got = tokenString
			return access, nil
		},
	}

	w := do(newAuthEngine(uc), http.MethodPost, "/auth/validate?tokenString=magic")

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if got != "magic" {
		t.Errorf("redeemed %q, want magic", got)
	}
	if w.Body.String() != access {
		t.Errorf("body = %q, want %q", w.Body.String(), access)
	}
}
