package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	StatusUp   = "up"
	StatusDown = "down"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependency is a named backend checked by Readiness.
type Dependency struct {
	Name   string
	Pinger Pinger
}

type CheckResult struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type HealthResult struct {
	Status string                 `json:"status"`
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

type Checker struct {
	deps    []Dependency
	timeout time.Duration
	logger  *slog.Logger
	gauge   *prometheus.GaugeVec
}

// NewChecker creates a health checker and registers its Prometheus gauge.
func NewChecker(logger *slog.Logger, reg prometheus.Registerer, deps ...Dependency) *Checker {
	gauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "taskapi",
		Name:      "health_check_up",
		Help:      "Whether a dependency is reachable. 1 = up, 0 = down.",
	}, []string{"dependency"})
	reg.MustRegister(gauge)

	return &Checker{
		deps:    deps,
		timeout: 2 * time.Second,
		logger:  logger.With("component", "health"),
		gauge:   gauge,
	}
}

// Liveness reports "up" whenever the process can answer at all.
func (c *Checker) Liveness(_ context.Context) HealthResult {
	return HealthResult{Status: StatusUp}
}

// Readiness pings every dependency and reports per-check status.
// One failing dependency marks the whole result down.
func (c *Checker) Readiness(ctx context.Context) HealthResult {
	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result := HealthResult{
		Status: StatusUp,
		Checks: make(map[string]CheckResult, len(c.deps)),
	}

	for _, dep := range c.deps {
		if err := dep.Pinger.Ping(checkCtx); err != nil {
			c.logger.WarnContext(ctx, "health check failed", "dependency", dep.Name, "error", err)
			result.Status = StatusDown
			result.Checks[dep.Name] = CheckResult{Status: StatusDown, Error: err.Error()}
			c.gauge.WithLabelValues(dep.Name).Set(0)
			continue
		}
		result.Checks[dep.Name] = CheckResult{Status: StatusUp}
		c.gauge.WithLabelValues(dep.Name).Set(1)
	}

	return result
}

// WriteJSON writes r with 200 when up and 503 otherwise.
func WriteJSON(w http.ResponseWriter, r HealthResult) {
	status := http.StatusOK
	if r.Status != StatusUp {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(r)
}
