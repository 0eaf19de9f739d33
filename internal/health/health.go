// Package health defines the health-report wire contract consumed from
// the orchestrator's probe stream and the aggregation over it.
package health

import (
	"time"

	"github.com/kaelos/devdeck/internal/status"
)

// Status is the probe-level health state as it appears on the wire.
// Unlike status.HealthState it keeps "starting" distinct, because the
// stream summary counts starting services separately.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
	StatusStarting  Status = "starting"
	StatusUnknown   Status = "unknown"
)

// Normalize maps a wire string to a Status; unrecognized values map to
// unknown rather than erroring.
func Normalize(s string) Status {
	switch Status(s) {
	case StatusHealthy, StatusDegraded, StatusUnhealthy, StatusStarting, StatusUnknown:
		return Status(s)
	default:
		return StatusUnknown
	}
}

// State collapses a wire Status onto the two-axis model used by the
// status resolver, where "starting" is not a health value.
func (s Status) State() status.HealthState {
	return status.NormalizeHealth(string(s))
}

// CheckType indicates the probe method.
type CheckType string

const (
	CheckTypeHTTP    CheckType = "http"
	CheckTypePort    CheckType = "port"
	CheckTypeProcess CheckType = "process"
)

// CheckResult is one probe outcome. Durations marshal as nanoseconds;
// use the conversion helpers for display units.
type CheckResult struct {
	ServiceName  string         `json:"serviceName"`
	Status       Status         `json:"status"`
	CheckType    CheckType      `json:"checkType"`
	Endpoint     string         `json:"endpoint,omitempty"`
	ResponseTime time.Duration  `json:"responseTime"`
	StatusCode   int            `json:"statusCode,omitempty"`
	Error        string         `json:"error,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
	Details      map[string]any `json:"details,omitempty"`
	Port         int            `json:"port,omitempty"`
	PID          int            `json:"pid,omitempty"`
	Uptime       time.Duration  `json:"uptime,omitempty"`
}

// ResponseTimeMillis converts the nanosecond response time to
// milliseconds for display.
func (r CheckResult) ResponseTimeMillis() float64 {
	return float64(r.ResponseTime) / float64(time.Millisecond)
}

// UptimeSeconds converts the nanosecond uptime to seconds for display.
func (r CheckResult) UptimeSeconds() float64 {
	return float64(r.Uptime) / float64(time.Second)
}

// Summary provides overall statistics over one report.
type Summary struct {
	Total     int    `json:"total"`
	Healthy   int    `json:"healthy"`
	Degraded  int    `json:"degraded"`
	Unhealthy int    `json:"unhealthy"`
	Starting  int    `json:"starting"`
	Unknown   int    `json:"unknown"`
	Overall   Status `json:"overall"`
}

// Counts converts a Summary to the resolver's aggregate input.
func (s Summary) Counts() status.HealthSummary {
	return status.HealthSummary{
		Healthy:   s.Healthy,
		Degraded:  s.Degraded,
		Unhealthy: s.Unhealthy,
		Starting:  s.Starting,
		Unknown:   s.Unknown,
	}
}

// Report is a full health-check pass over the project's services.
type Report struct {
	Timestamp time.Time     `json:"timestamp"`
	Project   string        `json:"project"`
	Services  []CheckResult `json:"services"`
	Summary   Summary       `json:"summary"`
}

// Summarize aggregates probe results. Overall precedence: any
// unhealthy service makes the project unhealthy, then degraded, then
// starting, then unknown; only an all-healthy set is healthy.
func Summarize(results []CheckResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch Normalize(string(r.Status)) {
		case StatusHealthy:
			s.Healthy++
		case StatusDegraded:
			s.Degraded++
		case StatusUnhealthy:
			s.Unhealthy++
		case StatusStarting:
			s.Starting++
		default:
			s.Unknown++
		}
	}
	switch {
	case s.Unhealthy > 0:
		s.Overall = StatusUnhealthy
	case s.Degraded > 0:
		s.Overall = StatusDegraded
	case s.Starting > 0:
		s.Overall = StatusStarting
	case s.Unknown > 0:
		s.Overall = StatusUnknown
	case s.Healthy > 0:
		s.Overall = StatusHealthy
	default:
		s.Overall = StatusUnknown
	}
	return s
}
