// Package registry holds the dashboard's current view of the project:
// service snapshots, the latest health report, per-service log buffers
// and in-flight operations. It is a passive store; ingestion handlers
// write into it and read handlers derive display data out of it. The
// registry owns no goroutines.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kaelos/devdeck/internal/health"
	"github.com/kaelos/devdeck/internal/loglens"
	"github.com/kaelos/devdeck/internal/metrics"
	"github.com/kaelos/devdeck/internal/status"
)

const (
	defaultLogBuffer    = 500
	defaultOperationTTL = 30 * time.Second
	defaultErrorTTL     = 5 * time.Minute
)

// Options configure a Registry. Zero values pick sane defaults.
type Options struct {
	// LogBuffer is the per-service ring capacity.
	LogBuffer int
	// OperationTTL bounds how long an in-flight operation keeps
	// overriding the reported status when no snapshot confirms it.
	OperationTTL time.Duration
	// ErrorTTL bounds how long an error-classified line keeps the
	// hasActiveLogErrors signal raised.
	ErrorTTL time.Duration
	// Rules seed the classifier; empty rules use the built-ins.
	Rules loglens.Rules
	// Now is injectable for tests.
	Now func() time.Time
}

// ServiceUpdate is one pushed snapshot as it arrives on the wire.
type ServiceUpdate struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Health string `json:"health,omitempty"`
}

// Service is a resolved, display-ready view of one service.
type Service struct {
	Name      string               `json:"name"`
	Status    status.ProcessStatus `json:"status"`
	Health    status.HealthState   `json:"health"`
	Effective status.Effective     `json:"effective"`
	Color     string               `json:"color"`
}

// Entry is one stored log line, classified and rendered at ingestion.
type Entry struct {
	Service   string       `json:"service"`
	Line      string       `json:"line"`
	HTML      string       `json:"html"`
	Level     loglens.Level `json:"level"`
	Stderr    bool         `json:"stderr,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

type opEntry struct {
	op      status.Operation
	expires time.Time
}

// Registry is safe for concurrent use.
type Registry struct {
	mu  sync.RWMutex
	now func() time.Time

	project string

	rules      loglens.Rules
	classifier *loglens.Classifier

	order     []string
	snapshots map[string]status.Snapshot

	report  *health.Report
	summary *status.HealthSummary

	logs   map[string]*ring
	logCap int

	ops   map[string]opEntry
	opTTL time.Duration

	lastErrorAt time.Time
	errTTL      time.Duration
}

// New builds a Registry. It fails only when the seed rules do not
// compile.
func New(opts Options) (*Registry, error) {
	cls, err := loglens.NewClassifier(opts.Rules)
	if err != nil {
		return nil, fmt.Errorf("registry: compile rules: %w", err)
	}
	r := &Registry{
		now:        time.Now,
		rules:      opts.Rules,
		classifier: cls,
		snapshots:  make(map[string]status.Snapshot),
		logs:       make(map[string]*ring),
		logCap:     opts.LogBuffer,
		ops:        make(map[string]opEntry),
		opTTL:      opts.OperationTTL,
		errTTL:     opts.ErrorTTL,
	}
	if opts.Now != nil {
		r.now = opts.Now
	}
	if r.logCap <= 0 {
		r.logCap = defaultLogBuffer
	}
	if r.opTTL <= 0 {
		r.opTTL = defaultOperationTTL
	}
	if r.errTTL <= 0 {
		r.errTTL = defaultErrorTTL
	}
	return r, nil
}

// SetProject records the project name shown by the dashboard.
func (r *Registry) SetProject(name string) {
	r.mu.Lock()
	r.project = name
	r.mu.Unlock()
}

// Project returns the project name.
func (r *Registry) Project() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.project
}

// UpsertServices ingests pushed snapshots. Statuses are normalized on
// the way in; a confirmed snapshot clears any matching in-flight
// operation so optimistic state never outlives ground truth.
func (r *Registry) UpsertServices(updates []ServiceUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range updates {
		name := strings.TrimSpace(u.Name)
		if name == "" {
			continue
		}
		proc := status.NormalizeProcess(u.Status)
		snap, known := r.snapshots[name]
		if !known {
			r.order = append(r.order, name)
			snap = status.Snapshot{Name: name}
		}
		snap.Status = proc
		if u.Health != "" {
			snap.Health = status.NormalizeHealth(u.Health)
		}
		r.snapshots[name] = snap

		if op, ok := r.ops[name]; ok && opConfirmed(op.op, proc) {
			delete(r.ops, name)
		}
	}
}

// opConfirmed reports whether a snapshot state satisfies the pending
// operation's expected outcome.
func opConfirmed(op status.Operation, proc status.ProcessStatus) bool {
	switch op {
	case status.OpStarting, status.OpRestarting:
		return proc == status.ProcRunning || proc == status.ProcFailed
	case status.OpStopping:
		return proc == status.ProcStopped || proc == status.ProcFailed
	default:
		return true
	}
}

// ApplyHealth ingests a full health report: per-service health states
// refine the snapshots and the report's summary becomes the
// authoritative aggregate until the next report.
func (r *Registry) ApplyHealth(report health.Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if report.Project != "" {
		r.project = report.Project
	}
	for _, res := range report.Services {
		snap, known := r.snapshots[res.ServiceName]
		if !known {
			r.order = append(r.order, res.ServiceName)
			snap = status.Snapshot{Name: res.ServiceName, Status: status.ProcRunning}
		}
		snap.Health = res.Status.State()
		r.snapshots[res.ServiceName] = snap
		metrics.IncHealthCheck(string(health.Normalize(string(res.Status))))
	}
	r.report = &report
	sum := report.Summary.Counts()
	r.summary = &sum
}

// Report returns the latest ingested health report, if any.
func (r *Registry) Report() (health.Report, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.report == nil {
		return health.Report{}, false
	}
	return *r.report, true
}

// MarkOperation records a user-initiated lifecycle operation so the
// next reads reflect it immediately. The mark expires after the
// operation TTL unless a snapshot confirms it first.
func (r *Registry) MarkOperation(name string, op status.Operation) {
	if op == status.OpNone {
		return
	}
	r.mu.Lock()
	r.ops[name] = opEntry{op: op, expires: r.now().Add(r.opTTL)}
	r.mu.Unlock()
}

// ClearOperation drops any pending mark for a service.
func (r *Registry) ClearOperation(name string) {
	r.mu.Lock()
	delete(r.ops, name)
	r.mu.Unlock()
}

func (r *Registry) pendingOp(name string, now time.Time) status.Operation {
	e, ok := r.ops[name]
	if !ok || now.After(e.expires) {
		return status.OpNone
	}
	return e.op
}

// AppendLog classifies and renders one line, stores it in the service's
// ring and returns the stored entry. Error-classified lines raise the
// active-error signal.
func (r *Registry) AppendLog(service, line string, explicit loglens.Level, stderr bool) Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	html, fellBack := loglens.RenderHTML(line)
	if fellBack {
		metrics.IncRenderFallback()
	}
	e := Entry{
		Service:   service,
		Line:      line,
		HTML:      html,
		Level:     r.classifier.Classify(loglens.StripANSI(line), explicit, stderr),
		Stderr:    stderr,
		Timestamp: now,
	}
	metrics.IncLineClassified(service, e.Level.String())
	buf, ok := r.logs[service]
	if !ok {
		buf = newRing(r.logCap)
		r.logs[service] = buf
	}
	buf.push(e)
	if e.Level == loglens.LevelError {
		r.lastErrorAt = now
	}
	return e
}

// Logs returns stored entries, newest last. Empty service means all
// services merged by timestamp; LevelUnset means no level filter;
// limit <= 0 means no cap.
func (r *Registry) Logs(service string, level loglens.Level, limit int) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Entry
	if service != "" {
		if buf, ok := r.logs[service]; ok {
			out = buf.items()
		}
	} else {
		for _, buf := range r.logs {
			out = append(out, buf.items()...)
		}
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Timestamp.Before(out[j].Timestamp)
		})
	}
	if level != loglens.LevelUnset {
		filtered := out[:0:0]
		for _, e := range out {
			if e.Level == level {
				filtered = append(filtered, e)
			}
		}
		out = filtered
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// HasActiveLogErrors reports whether an error-classified line was seen
// within the error TTL.
func (r *Registry) HasActiveLogErrors() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeLogErrorsLocked(r.now())
}

func (r *Registry) activeLogErrorsLocked(now time.Time) bool {
	return !r.lastErrorAt.IsZero() && now.Sub(r.lastErrorAt) <= r.errTTL
}

// Services returns resolved views in first-seen order.
func (r *Registry) Services() []Service {
	r.mu.RLock()
	defer r.mu.RUnlock()
	now := r.now()
	out := make([]Service, 0, len(r.order))
	for _, name := range r.order {
		snap := r.snapshots[name]
		op := r.pendingOp(name, now)
		out = append(out, Service{
			Name:      name,
			Status:    snap.Status,
			Health:    snap.Health,
			Effective: status.Resolve(snap.Status, snap.Health, op),
			Color:     loglens.ServiceColor(name),
		})
	}
	return out
}

// Counts aggregates the dashboard-wide roll-up. The latest report's
// summary, when present, is authoritative.
func (r *Registry) Counts() status.Counts {
	r.mu.RLock()
	defer r.mu.RUnlock()
	now := r.now()
	snaps := make([]status.Snapshot, 0, len(r.order))
	for _, name := range r.order {
		snap := r.snapshots[name]
		snap.Op = r.pendingOp(name, now)
		snaps = append(snaps, snap)
	}
	return status.Aggregate(snaps, r.summary, r.activeLogErrorsLocked(now))
}

// Overrides returns the current classification overrides.
func (r *Registry) Overrides() []loglens.Override {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]loglens.Override, len(r.rules.Overrides))
	copy(out, r.rules.Overrides)
	return out
}

// AddOverride installs a classification override, replacing any
// existing override with the same text.
func (r *Registry) AddOverride(o loglens.Override) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := r.rules
	next.Overrides = nil
	for _, cur := range r.rules.Overrides {
		if !strings.EqualFold(cur.Text, o.Text) {
			next.Overrides = append(next.Overrides, cur)
		}
	}
	next.Overrides = append(next.Overrides, o)
	cls, err := loglens.NewClassifier(next)
	if err != nil {
		return err
	}
	r.rules = next
	r.classifier = cls
	return nil
}

// RemoveOverride deletes an override by its text, reporting whether
// anything was removed.
func (r *Registry) RemoveOverride(text string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := r.rules
	next.Overrides = nil
	removed := false
	for _, cur := range r.rules.Overrides {
		if strings.EqualFold(cur.Text, text) {
			removed = true
			continue
		}
		next.Overrides = append(next.Overrides, cur)
	}
	if !removed {
		return false, nil
	}
	cls, err := loglens.NewClassifier(next)
	if err != nil {
		return false, err
	}
	r.rules = next
	r.classifier = cls
	return true, nil
}
