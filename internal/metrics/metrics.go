package metrics

import (
	"errors"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	linesClassified = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "devdeck",
			Subsystem: "logs",
			Name:      "lines_classified_total",
			Help:      "Number of log lines classified, by service and level.",
		}, []string{"service", "level"},
	)
	renderFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "devdeck",
			Subsystem: "logs",
			Name:      "render_fallbacks_total",
			Help:      "Number of log lines whose HTML rendering degraded to plain escaping.",
		},
	)
	healthChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "devdeck",
			Subsystem: "health",
			Name:      "checks_total",
			Help:      "Number of health check results ingested, by status.",
		}, []string{"status"},
	)
	healthChangesSeen = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "devdeck",
			Subsystem: "health",
			Name:      "changes_total",
			Help:      "Number of per-service health transitions detected.",
		}, []string{"to"},
	)
	effectiveStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "devdeck",
			Subsystem: "services",
			Name:      "effective_status",
			Help:      "Current effective status per service; exactly one series per service is set to 1.",
		}, []string{"service", "status"},
	)

	// effPrev remembers each service's last reported status so a change
	// retires the stale series instead of leaving two series at 1.
	effMu   sync.Mutex
	effPrev = map[string]string{}
	streamClients = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "devdeck",
			Subsystem: "stream",
			Name:      "clients",
			Help:      "Currently connected streaming clients per transport.",
		}, []string{"transport"},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{linesClassified, renderFallbacks, healthChecks, healthChangesSeen, effectiveStatus, streamClients}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler that serves Prometheus metrics for the DefaultGatherer.
// The caller is responsible for starting an HTTP server and wiring the route.
func Handler() http.Handler { return promhttp.Handler() }

// Below are lightweight helpers used by internal packages to record metrics.
// They no-op if Register hasn't been called.

func IncLineClassified(service, level string) {
	if regOK.Load() {
		linesClassified.WithLabelValues(service, level).Inc()
	}
}

func IncRenderFallback() {
	if regOK.Load() {
		renderFallbacks.Inc()
	}
}

func IncHealthCheck(status string) {
	if regOK.Load() {
		healthChecks.WithLabelValues(status).Inc()
	}
}

func IncHealthChange(to string) {
	if regOK.Load() {
		healthChangesSeen.WithLabelValues(to).Inc()
	}
}

func SetEffectiveStatus(service, status string) {
	if !regOK.Load() {
		return
	}
	effMu.Lock()
	if prev, ok := effPrev[service]; ok && prev != status {
		effectiveStatus.DeleteLabelValues(service, prev)
	}
	effPrev[service] = status
	effMu.Unlock()
	effectiveStatus.WithLabelValues(service, status).Set(1)
}

func SetStreamClients(transport string, n int) {
	if regOK.Load() {
		streamClients.WithLabelValues(transport).Set(float64(n))
	}
}
