package devdeck

import (
	"net/http"
	"time"

	cfg "github.com/kaelos/devdeck/internal/config"
	"github.com/kaelos/devdeck/internal/health"
	"github.com/kaelos/devdeck/internal/history"
	"github.com/kaelos/devdeck/internal/history/factory"
	"github.com/kaelos/devdeck/internal/loglens"
	"github.com/kaelos/devdeck/internal/metrics"
	"github.com/kaelos/devdeck/internal/registry"
	iapi "github.com/kaelos/devdeck/internal/server"
	"github.com/kaelos/devdeck/internal/status"
	"github.com/kaelos/devdeck/internal/stream"
	"github.com/prometheus/client_golang/prometheus"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Level = loglens.Level

type Rules = loglens.Rules

type Override = loglens.Override

type Service = registry.Service

type ServiceUpdate = registry.ServiceUpdate

type LogEntry = registry.Entry

type HealthReport = health.Report

type CheckResult = health.CheckResult

type HealthSummary = health.Summary

type Counts = status.Counts

type HistorySink = history.Sink

const (
	LevelUnset   = loglens.LevelUnset
	LevelInfo    = loglens.LevelInfo
	LevelWarning = loglens.LevelWarning
	LevelError   = loglens.LevelError
)

// Dashboard is a thin facade over the internal registry and stream hub.
// It provides a stable public API for embedding.

type Dashboard struct {
	reg *registry.Registry
	hub *stream.Hub
}

// Options configures an embedded Dashboard. The zero value uses the
// same defaults as the daemon.
type Options struct {
	LogBuffer    int
	OperationTTL time.Duration
	ErrorTTL     time.Duration
	Rules        Rules
}

func New() (*Dashboard, error) { return NewWithOptions(Options{}) }

func NewWithOptions(o Options) (*Dashboard, error) {
	reg, err := registry.New(registry.Options{
		LogBuffer:    o.LogBuffer,
		OperationTTL: o.OperationTTL,
		ErrorTTL:     o.ErrorTTL,
		Rules:        o.Rules,
	})
	if err != nil {
		return nil, err
	}
	return &Dashboard{reg: reg, hub: stream.NewHub()}, nil
}

func (d *Dashboard) UpsertServices(updates []ServiceUpdate) { d.reg.UpsertServices(updates) }
func (d *Dashboard) ApplyHealth(report HealthReport)        { d.reg.ApplyHealth(report) }
func (d *Dashboard) Services() []Service                    { return d.reg.Services() }
func (d *Dashboard) Counts() Counts                         { return d.reg.Counts() }
func (d *Dashboard) Report() (HealthReport, bool)           { return d.reg.Report() }
func (d *Dashboard) Project() string                        { return d.reg.Project() }
func (d *Dashboard) AppendLog(service, line string, explicit Level, stderr bool) LogEntry {
	return d.reg.AppendLog(service, line, explicit, stderr)
}
func (d *Dashboard) Logs(service string, level Level, limit int) []LogEntry {
	return d.reg.Logs(service, level, limit)
}
func (d *Dashboard) Overrides() []Override              { return d.reg.Overrides() }
func (d *Dashboard) AddOverride(o Override) error       { return d.reg.AddOverride(o) }
func (d *Dashboard) RemoveOverride(text string) (bool, error) {
	return d.reg.RemoveOverride(text)
}

// Close shuts down the stream hub. Pending broadcasts are dropped.
func (d *Dashboard) Close() { d.hub.Close() }

// ServerConfig configures the HTTP surface for an embedded Dashboard.
type ServerConfig struct {
	Addr              string
	BasePath          string
	Upstream          string
	HistoryDSN        string
	HealthInterval    time.Duration
	HeartbeatInterval time.Duration
}

// NewHTTPServer starts an HTTP server exposing the dashboard API backed
// by this Dashboard's registry and hub.
func (d *Dashboard) NewHTTPServer(sc ServerConfig) (*http.Server, error) {
	var sink history.Sink
	if sc.HistoryDSN != "" {
		s, err := factory.NewSinkFromDSN(sc.HistoryDSN)
		if err != nil {
			return nil, err
		}
		sink = s
	}
	return iapi.NewServer(sc.Addr, iapi.Options{
		Registry:          d.reg,
		Hub:               d.hub,
		Sink:              sink,
		BasePath:          sc.BasePath,
		Upstream:          sc.Upstream,
		HealthInterval:    sc.HealthInterval,
		HeartbeatInterval: sc.HeartbeatInterval,
	})
}

// Handler returns the dashboard API as an http.Handler for mounting
// into an existing server or a non-gin framework.
func (d *Dashboard) Handler(basePath string) http.Handler {
	r := iapi.NewRouter(iapi.Options{Registry: d.reg, Hub: d.hub, BasePath: basePath})
	return r.Handler()
}

func LoadConfig(path string) (cfg.Config, error) { return cfg.Load(path) }

// Rendering and classification helpers (public facade)

func ToSafeHTML(raw string) string    { return loglens.ToSafeHTML(raw) }
func StripANSI(raw string) string     { return loglens.StripANSI(raw) }
func ServiceColor(name string) string { return loglens.ServiceColor(name) }
func ParseLevel(s string) Level       { return loglens.ParseLevel(s) }

func NewSinkFromDSN(dsn string) (HistorySink, error) { return factory.NewSinkFromDSN(dsn) }

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }

// ServeMetrics starts an HTTP server on addr exposing /metrics using the default registry.
// It returns any immediate listen error; otherwise it runs the server in the caller goroutine.
func ServeMetrics(addr string) error {
	http.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           nil,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv.ListenAndServe()
}
