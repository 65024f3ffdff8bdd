package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Env      string `env:"ENV"       envDefault:"local" validate:"required,oneof=local staging production"`
	Port     string `env:"PORT"      envDefault:"8080"  validate:"required"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"  validate:"oneof=debug info warn error"`

	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`
	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	// Token settings have no defaults: a deployment must state them explicitly.
	JWTIssuer             string `env:"JWT_ISSUER,required"               validate:"required"`
	JWTAudience           string `env:"JWT_AUDIENCE,required"             validate:"required"`
	JWTSecret             string `env:"JWT_SECRET,required"               validate:"required,min=32"`
	MagicLinkTTLMinutes   int    `env:"MAGIC_LINK_TTL_MINUTES,required"   validate:"required,min=1,max=1440"`
	AccessTokenTTLMinutes int    `env:"ACCESS_TOKEN_TTL_MINUTES,required" validate:"required,min=1,max=43200"`

	ResendAPIKey      string `env:"RESEND_API_KEY"      validate:"required_if=Env production,required_if=Env staging"`
	ResendFrom        string `env:"RESEND_FROM"         validate:"required_if=Env production,required_if=Env staging"`
	MagicLinkBase     string `env:"MAGIC_LINK_BASE_URL" envDefault:"http://localhost:8080/login" validate:"url"`
	AuthRatePerMinute int    `env:"AUTH_RATE_PER_MINUTE" envDefault:"10" validate:"min=1,max=1000"`

	// Proxies whose X-Forwarded-For is believed. Empty: the peer address is the client.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:"," validate:"dive,cidr|ip"`
}

// Load reads an optional .env file, then the process environment.
// Variables already set in the environment win over .env values.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) MagicLinkTTL() time.Duration {
	return time.Duration(c.MagicLinkTTLMinutes) * time.Minute
}

func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}

func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
