package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ErlanBelekov/taskapi/internal/health"
)

const namespace = "taskapi"

var (
	// Auth metrics

	MagicLinksIssuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "magic_links_issued_total",
		Help:      "Magic link tokens persisted and handed to the mail sender.",
	})

	MagicLinkDeliveryFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "magic_link_delivery_failures_total",
		Help:      "Magic link emails the mail sender failed to accept.",
	})

	MagicLinkRedemptionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "magic_link_redemptions_total",
		Help:      "Magic link redemption attempts, by outcome.",
	}, []string{"outcome"})

	BearerRejectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bearer_rejections_total",
		Help:      "Requests rejected for a missing or invalid bearer token.",
	})

	RateLimitedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter, by route.",
	}, []string{"path"})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

// Redemption outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		MagicLinksIssuedTotal,
		MagicLinkDeliveryFailuresTotal,
		MagicLinkRedemptionsTotal,
		BearerRejectionsTotal,
		RateLimitedTotal,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// NewServer exposes /metrics and the health probes on a separate port so
// they are never routed through the public API.
func NewServer(addr string, checker *health.Checker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		health.WriteJSON(w, checker.Liveness(r.Context()))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		health.WriteJSON(w, checker.Readiness(r.Context()))
	})
	return &http.Server{Addr: addr, Handler: mux}
}
