// Package metrics holds the Prometheus collectors Fleura records into.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcomes recorded for gateway calls and reconciliations.
const (
	OutcomeOK          = "ok"
	OutcomeUserError   = "user_error"
	OutcomeGraphQL     = "graphql_error"
	OutcomeTransport   = "transport_error"
	OutcomeRateLimited = "rate_limited"
)

// Recorder is the set of collectors for one Fleura process. A nil *Recorder
// is valid and records nothing.
type Recorder struct {
	Registry *prometheus.Registry

	gatewayRequests  *prometheus.CounterVec
	gatewayDuration  *prometheus.HistogramVec
	reconciliations  *prometheus.CounterVec
	cartDirty        prometheus.Gauge
	sessionLifecycle *prometheus.CounterVec
}

// New builds a Recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		Registry: prometheus.NewRegistry(),
		gatewayRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fleura",
				Subsystem: "gateway",
				Name:      "requests_total",
				Help:      "Storefront API calls by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		gatewayDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "fleura",
				Subsystem: "gateway",
				Name:      "request_duration_seconds",
				Help:      "Storefront API call latency.",
				Buckets:   prometheus.ExponentialBuckets(0.025, 2, 9), // 25ms to ~6.4s
			},
			[]string{"operation"},
		),
		reconciliations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fleura",
				Subsystem: "cart",
				Name:      "reconciliations_total",
				Help:      "Cart reconciliations against the gateway by outcome.",
			},
			[]string{"outcome"},
		),
		cartDirty: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "fleura",
				Subsystem: "cart",
				Name:      "dirty",
				Help:      "1 when the local cart carries unconfirmed optimistic changes.",
			},
		),
		sessionLifecycle: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fleura",
				Subsystem: "session",
				Name:      "events_total",
				Help:      "Session lifecycle events (login, logout, expired).",
			},
			[]string{"event"},
		),
	}
	r.Registry.MustRegister(r.gatewayRequests, r.gatewayDuration, r.reconciliations, r.cartDirty, r.sessionLifecycle)
	return r
}

// ObserveGateway records one gateway call.
func (r *Recorder) ObserveGateway(operation, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.gatewayRequests.WithLabelValues(operation, outcome).Inc()
	r.gatewayDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveReconcile records a cart reconciliation attempt.
func (r *Recorder) ObserveReconcile(outcome string) {
	if r == nil {
		return
	}
	r.reconciliations.WithLabelValues(outcome).Inc()
}

// SetCartDirty mirrors the cart's dirty flag.
func (r *Recorder) SetCartDirty(dirty bool) {
	if r == nil {
		return
	}
	if dirty {
		r.cartDirty.Set(1)
		return
	}
	r.cartDirty.Set(0)
}

// ObserveSession counts a session lifecycle event.
func (r *Recorder) ObserveSession(event string) {
	if r == nil {
		return
	}
	r.sessionLifecycle.WithLabelValues(event).Inc()
}

// Handler exposes the registry over HTTP.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{})
}

// Serve runs a /metrics listener on addr until ctx is cancelled.
func (r *Recorder) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
