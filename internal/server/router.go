// Package server exposes the dashboard HTTP API: read endpoints for the
// browser, ingest endpoints for the orchestrator, and the streaming
// endpoints (SSE and websocket) in between.
package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kaelos/devdeck/internal/health"
	"github.com/kaelos/devdeck/internal/history"
	"github.com/kaelos/devdeck/internal/loglens"
	"github.com/kaelos/devdeck/internal/metrics"
	"github.com/kaelos/devdeck/internal/registry"
	"github.com/kaelos/devdeck/internal/status"
	"github.com/kaelos/devdeck/internal/stream"
)

// Options wire a Router's collaborators. Registry and Hub are required;
// the rest are optional.
type Options struct {
	Registry *registry.Registry
	Hub      *stream.Hub
	Logger   *slog.Logger
	Sink     history.Sink             // exports health changes and error lines
	Sampler  *metrics.ResourceSampler // samples resource usage for reported PIDs
	BasePath string
	Upstream string // orchestrator base URL for forwarding lifecycle ops

	// HealthInterval is the default SSE resend interval; requests can
	// override it within the 1s..60s clamp.
	HealthInterval    time.Duration
	HeartbeatInterval time.Duration
}

// Router provides the embeddable dashboard API.
// Endpoints under {basePath}:
//
//	GET  /api/ping
//	GET  /api/project
//	GET  /api/services
//	GET  /api/services/resources
//	GET  /api/status/summary
//	POST /api/services/start|stop|restart?name=...
//	POST /api/ingest/services
//	POST /api/ingest/health
//	POST /api/ingest/logs
//	GET  /api/logs?service=&level=&limit=&format=
//	GET/POST/DELETE /api/logs/classifications
//	GET  /api/health
//	GET  /api/health/stream?interval=...
//	GET  /api/ws
//	GET  /metrics
type Router struct {
	reg      *registry.Registry
	hub      *stream.Hub
	log      *slog.Logger
	sink     history.Sink
	sampler  *metrics.ResourceSampler
	detector *health.ChangeDetector
	basePath string
	upstream string
	client   *http.Client

	healthInterval time.Duration
	heartbeat      time.Duration
}

// NewRouter constructs a Router with a configurable basePath.
func NewRouter(opts Options) *Router {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	hi := opts.HealthInterval
	if hi <= 0 {
		hi = 5 * time.Second
	}
	hb := opts.HeartbeatInterval
	if hb <= 0 {
		hb = 30 * time.Second
	}
	return &Router{
		reg:            opts.Registry,
		hub:            opts.Hub,
		log:            log,
		sink:           opts.Sink,
		sampler:        opts.Sampler,
		detector:       health.NewChangeDetector(),
		basePath:       sanitizeBase(opts.BasePath),
		upstream:       opts.Upstream,
		client:         &http.Client{Timeout: 10 * time.Second},
		healthInterval: hi,
		heartbeat:      hb,
	}
}

// Handler returns an http.Handler powered by gin that can be mounted in
// any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	api := group.Group("/api")

	api.GET("/ping", r.handlePing)
	api.GET("/project", r.handleProject)
	api.GET("/services", r.handleServices)
	api.GET("/services/resources", r.handleResources)
	api.GET("/status/summary", r.handleSummary)
	api.POST("/services/start", r.lifecycleHandler(status.OpStarting, "start"))
	api.POST("/services/stop", r.lifecycleHandler(status.OpStopping, "stop"))
	api.POST("/services/restart", r.lifecycleHandler(status.OpRestarting, "restart"))
	api.POST("/ingest/services", r.handleIngestServices)
	api.POST("/ingest/health", r.handleIngestHealth)
	api.POST("/ingest/logs", r.handleIngestLogs)
	api.GET("/logs", r.handleLogs)
	api.GET("/logs/classifications", r.handleListClassifications)
	api.POST("/logs/classifications", r.handleAddClassification)
	api.DELETE("/logs/classifications", r.handleDeleteClassification)
	api.GET("/health", r.handleHealth)
	api.GET("/health/stream", r.handleHealthStream)
	api.GET("/ws", r.handleWS)

	group.GET("/metrics", gin.WrapH(metrics.Handler()))
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
func NewServer(addr string, opts Options) (*http.Server, error) {
	r := NewRouter(opts)
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.ListenAndServe() }()
	return server, nil
}

// --- Handlers ---

type errorResp struct {
	Error string `json:"error"`
}

type okResp struct {
	OK bool `json:"ok"`
}

func (r *Router) handlePing(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{"status": "ok"})
}

func (r *Router) handleProject(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{"name": r.reg.Project()})
}

func (r *Router) handleServices(c *gin.Context) {
	writeJSON(c, http.StatusOK, r.reg.Services())
}

func (r *Router) handleSummary(c *gin.Context) {
	writeJSON(c, http.StatusOK, r.reg.Counts())
}

func (r *Router) handleResources(c *gin.Context) {
	if r.sampler == nil {
		writeJSON(c, http.StatusNotFound, errorResp{Error: "resource sampling disabled"})
		return
	}
	report, ok := r.reg.Report()
	if ok {
		for _, res := range report.Services {
			if res.PID <= 0 {
				continue
			}
			if _, err := r.sampler.Sample(res.ServiceName, int32(res.PID)); err != nil {
				r.log.Debug("resource sample failed", "service", res.ServiceName, "pid", res.PID, "error", err)
			}
		}
	}
	writeJSON(c, http.StatusOK, r.sampler.Latest())
}

// lifecycleHandler records the in-flight operation for optimistic UI
// and forwards the request to the upstream orchestrator when one is
// configured. The dashboard itself never manages processes.
func (r *Router) lifecycleHandler(op status.Operation, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Query("name")
		if name == "" {
			writeJSON(c, http.StatusBadRequest, errorResp{Error: "name query param required"})
			return
		}
		if !isSafeName(name) {
			writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid name: allowed [A-Za-z0-9._-] and no '..' or path separators"})
			return
		}
		r.reg.MarkOperation(name, op)
		if r.upstream != "" {
			if err := r.forward(c.Request.Context(), action, name); err != nil {
				r.reg.ClearOperation(name)
				writeJSON(c, http.StatusBadGateway, errorResp{Error: err.Error()})
				return
			}
		}
		r.broadcastServices()
		writeJSON(c, http.StatusOK, okResp{OK: true})
	}
}

func (r *Router) forward(ctx context.Context, action, name string) error {
	u := fmt.Sprintf("%s/api/services/%s?name=%s", r.upstream, action, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("upstream %s: %w", action, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("upstream %s returned %d: %s", action, resp.StatusCode, string(body))
	}
	return nil
}

func (r *Router) handleIngestServices(c *gin.Context) {
	var updates []registry.ServiceUpdate
	if err := c.ShouldBindJSON(&updates); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	r.reg.UpsertServices(updates)
	for _, u := range updates {
		eff := status.Resolve(status.NormalizeProcess(u.Status), status.NormalizeHealth(u.Health), status.OpNone)
		metrics.SetEffectiveStatus(u.Name, eff.Status)
	}
	r.broadcastServices()
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleIngestHealth(c *gin.Context) {
	var report health.Report
	if err := c.ShouldBindJSON(&report); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	if report.Timestamp.IsZero() {
		report.Timestamp = time.Now().UTC()
	}
	if report.Summary.Total == 0 && len(report.Services) > 0 {
		report.Summary = health.Summarize(report.Services)
	}
	r.reg.ApplyHealth(report)

	changes := r.detector.Detect(report)
	for _, ch := range changes {
		metrics.IncHealthChange(string(ch.NewStatus))
		r.export(c.Request.Context(), history.Event{
			Type:       history.EventHealthChange,
			OccurredAt: ch.Timestamp,
			Service:    ch.Service,
			OldStatus:  string(ch.OldStatus),
			NewStatus:  string(ch.NewStatus),
			Detail:     ch.Reason,
		})
	}

	r.broadcast(stream.TopicHealth, stream.EventHealth, report)
	for _, ch := range changes {
		r.broadcast(stream.TopicHealth, stream.EventHealthChange, ch)
	}
	r.broadcastServices()
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

type ingestLine struct {
	Text   string `json:"text"`
	Level  string `json:"level,omitempty"`
	Stderr bool   `json:"stderr,omitempty"`
}

type ingestLogsReq struct {
	Service string       `json:"service"`
	Lines   []ingestLine `json:"lines"`
}

func (r *Router) handleIngestLogs(c *gin.Context) {
	var req ingestLogsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	if req.Service == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "service required"})
		return
	}
	entries := make([]registry.Entry, 0, len(req.Lines))
	for _, line := range req.Lines {
		e := r.reg.AppendLog(req.Service, line.Text, loglens.ParseLevel(line.Level), line.Stderr)
		entries = append(entries, e)
		if e.Level == loglens.LevelError {
			r.export(c.Request.Context(), history.Event{
				Type:       history.EventLogError,
				OccurredAt: e.Timestamp,
				Service:    e.Service,
				Detail:     loglens.StripANSI(e.Line),
			})
		}
	}
	r.broadcast(stream.TopicLogs, stream.EventLogs, entries)
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

// logEntry is the read-side log shape; html is included only when
// format=html is requested.
type logEntry struct {
	Service   string    `json:"service"`
	Line      string    `json:"line"`
	HTML      string    `json:"html,omitempty"`
	Level     string    `json:"level"`
	Color     string    `json:"color"`
	Timestamp time.Time `json:"timestamp"`
}

func (r *Router) handleLogs(c *gin.Context) {
	service := c.Query("service")
	if service != "" && !isSafeName(service) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid service name"})
		return
	}
	level := loglens.ParseLevel(c.Query("level"))
	limit := 0
	if ls := c.Query("limit"); ls != "" {
		if _, err := fmt.Sscanf(ls, "%d", &limit); err != nil || limit < 0 {
			writeJSON(c, http.StatusBadRequest, errorResp{Error: "limit must be a non-negative integer"})
			return
		}
	}
	wantHTML := c.Query("format") == "html"

	entries := r.reg.Logs(service, level, limit)
	out := make([]logEntry, 0, len(entries))
	for _, e := range entries {
		le := logEntry{
			Service:   e.Service,
			Line:      loglens.StripANSI(e.Line),
			Level:     e.Level.String(),
			Color:     loglens.ServiceColor(e.Service),
			Timestamp: e.Timestamp,
		}
		if wantHTML {
			le.HTML = e.HTML
		}
		out = append(out, le)
	}
	writeJSON(c, http.StatusOK, out)
}

func (r *Router) handleListClassifications(c *gin.Context) {
	writeJSON(c, http.StatusOK, r.reg.Overrides())
}

func (r *Router) handleAddClassification(c *gin.Context) {
	var o loglens.Override
	if err := c.ShouldBindJSON(&o); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	if o.Text == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "text required"})
		return
	}
	if err := r.reg.AddOverride(o); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleDeleteClassification(c *gin.Context) {
	text := c.Query("text")
	if text == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "text query param required"})
		return
	}
	removed, err := r.reg.RemoveOverride(text)
	if err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: err.Error()})
		return
	}
	if !removed {
		writeJSON(c, http.StatusNotFound, errorResp{Error: "no override with that text"})
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleHealth(c *gin.Context) {
	report, ok := r.reg.Report()
	if !ok {
		writeJSON(c, http.StatusNotFound, errorResp{Error: "no health report ingested yet"})
		return
	}
	writeJSON(c, http.StatusOK, report)
}

// --- helpers ---

func (r *Router) broadcastServices() {
	r.broadcast(stream.TopicServices, stream.EventServices, r.reg.Services())
}

func (r *Router) broadcast(topic stream.Topic, eventType string, data any) {
	payload, err := stream.Encode(eventType, data)
	if err != nil {
		r.log.Warn("event encode failed", "type", eventType, "error", err)
		return
	}
	r.hub.Broadcast(topic, payload)
}

// export sends one event to the history sink, if configured. Export
// failures are logged; they never fail the ingest request.
func (r *Router) export(ctx context.Context, e history.Event) {
	if r.sink == nil {
		return
	}
	if err := r.sink.Send(ctx, e); err != nil {
		r.log.Warn("history export failed", "type", e.Type, "service", e.Service, "error", err)
	}
}
