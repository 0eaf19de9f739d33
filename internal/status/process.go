// Package status merges process lifecycle state with health-check
// results into a single display status per service and aggregates
// per-service statuses into dashboard-wide counts. All functions are
// pure: this package consumes states produced elsewhere and never
// drives transitions.
package status

import "strings"

// ProcessStatus is the run state of a service's process as reported by
// the orchestrator.
type ProcessStatus string

const (
	ProcNotStarted ProcessStatus = "not-started"
	ProcStarting   ProcessStatus = "starting"
	ProcRunning    ProcessStatus = "running"
	ProcStopping   ProcessStatus = "stopping"
	ProcStopped    ProcessStatus = "stopped"
	ProcRestarting ProcessStatus = "restarting"
	ProcCompleted  ProcessStatus = "completed"
	ProcFailed     ProcessStatus = "failed"
)

// processAliases maps deprecated wire values still emitted by older
// orchestrators onto their current equivalents.
var processAliases = map[string]ProcessStatus{
	"ready":       ProcRunning,
	"error":       ProcFailed,
	"watching":    ProcRunning,
	"building":    ProcRunning,
	"built":       ProcCompleted,
	"not-running": ProcNotStarted,
}

// NormalizeProcess maps a wire string to a ProcessStatus, resolving
// deprecated aliases. Unrecognized values fall back to not-started
// rather than passing through.
func NormalizeProcess(s string) ProcessStatus {
	v := strings.ToLower(strings.TrimSpace(s))
	switch ProcessStatus(v) {
	case ProcNotStarted, ProcStarting, ProcRunning, ProcStopping,
		ProcStopped, ProcRestarting, ProcCompleted, ProcFailed:
		return ProcessStatus(v)
	}
	if alias, ok := processAliases[v]; ok {
		return alias
	}
	return ProcNotStarted
}

// Operation is a user-initiated action still in flight. Optimistic UI:
// while one is pending it overrides whatever the backend last reported.
type Operation string

const (
	OpNone       Operation = ""
	OpStarting   Operation = "starting"
	OpStopping   Operation = "stopping"
	OpRestarting Operation = "restarting"
)

// ParseOperation maps a wire string to an Operation; unrecognized
// values mean no operation.
func ParseOperation(s string) Operation {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "start", "starting":
		return OpStarting
	case "stop", "stopping":
		return OpStopping
	case "restart", "restarting":
		return OpRestarting
	default:
		return OpNone
	}
}
