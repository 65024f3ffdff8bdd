package httptransport

import (
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"

	"github.com/ErlanBelekov/taskapi/internal/transport/http/handler"
	"github.com/ErlanBelekov/taskapi/internal/transport/http/middleware"
)

type RouterDeps struct {
	Logger        *slog.Logger
	AuthHandler   *handler.AuthHandler
	TaskHandler   *handler.TaskHandler
	Verifier      middleware.TokenVerifier
	Users         middleware.UserFinder
	AuthRateLimit *middleware.RateLimiter

	// TrustedProxies may set X-Forwarded-For; nil trusts none.
	TrustedProxies []string
}

func NewRouter(deps RouterDeps) (*gin.Engine, error) {
	r := gin.New()
	// gin trusts every proxy by default; ClientIP keys the rate limiter.
	if err := r.SetTrustedProxies(deps.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(deps.Logger))
	r.Use(middleware.Metrics())

	// Public auth routes
	auth := r.Group("/auth")
	auth.POST("", deps.AuthRateLimit.Middleware(), deps.AuthHandler.RequestMagicLink)
	auth.POST("/validate", deps.AuthHandler.Validate)

	// Protected task routes
	tasks := r.Group("/tasks",
		middleware.Auth(deps.Verifier, deps.Logger),
		middleware.EnsureUser(deps.Users, deps.Logger),
	)
	tasks.GET("", deps.TaskHandler.List)
	tasks.GET("/:id", deps.TaskHandler.GetByID)
	tasks.POST("", deps.TaskHandler.Create)
	tasks.PUT("", deps.TaskHandler.Update)
	tasks.DELETE("", deps.TaskHandler.Delete)

	return r, nil
}
