package status

// Severity groups effective statuses for rendering and counting.
type Severity string

const (
	SeverityOK      Severity = "ok"
	SeverityWarn    Severity = "warn"
	SeverityError   Severity = "error"
	SeverityNeutral Severity = "neutral"
)

// Effective is the single display-ready status derived from lifecycle,
// health and any in-flight operation. It is recomputed per call and
// never persisted.
type Effective struct {
	Status   string   `json:"status"`
	Label    string   `json:"label"`
	Severity Severity `json:"severity"`
}

// rule is one row of the resolution table, matched top-down.
type rule struct {
	op     Operation     // OpNone matches only when no op is in flight
	proc   ProcessStatus // "" matches any process status
	health HealthState   // "" matches any health state
	eff    Effective
}

// resolutionRules encode the precedence:
//  1. An in-flight user operation overrides everything; optimistic UI
//     beats possibly-stale server state.
//  2. Terminal and transitional process states each map to a fixed
//     label regardless of health; a stopped process failing a stale
//     liveness probe must not display as unhealthy.
//  3. Only a live process has its label refined by health.
var resolutionRules = []rule{
	{op: OpStarting, eff: Effective{Status: "starting", Label: "Starting", Severity: SeverityWarn}},
	{op: OpStopping, eff: Effective{Status: "stopping", Label: "Stopping", Severity: SeverityWarn}},
	{op: OpRestarting, eff: Effective{Status: "restarting", Label: "Restarting", Severity: SeverityWarn}},

	{proc: ProcStopped, eff: Effective{Status: "stopped", Label: "Stopped", Severity: SeverityNeutral}},
	{proc: ProcStopping, eff: Effective{Status: "stopping", Label: "Stopping", Severity: SeverityWarn}},
	{proc: ProcStarting, eff: Effective{Status: "starting", Label: "Starting", Severity: SeverityWarn}},
	{proc: ProcRestarting, eff: Effective{Status: "restarting", Label: "Restarting", Severity: SeverityWarn}},
	{proc: ProcFailed, eff: Effective{Status: "failed", Label: "Failed", Severity: SeverityError}},
	{proc: ProcNotStarted, eff: Effective{Status: "not-started", Label: "Not Started", Severity: SeverityNeutral}},
	{proc: ProcCompleted, eff: Effective{Status: "completed", Label: "Completed", Severity: SeverityOK}},

	{proc: ProcRunning, health: HealthHealthy, eff: Effective{Status: "healthy", Label: "Running", Severity: SeverityOK}},
	{proc: ProcRunning, health: HealthDegraded, eff: Effective{Status: "degraded", Label: "Degraded", Severity: SeverityWarn}},
	{proc: ProcRunning, health: HealthUnhealthy, eff: Effective{Status: "unhealthy", Label: "Unhealthy", Severity: SeverityError}},
	{proc: ProcRunning, health: HealthUnknown, eff: Effective{Status: "running", Label: "Running", Severity: SeverityNeutral}},
}

func (r rule) matches(proc ProcessStatus, health HealthState, op Operation) bool {
	if r.op != OpNone {
		return r.op == op
	}
	if op != OpNone {
		return false
	}
	if r.proc != "" && r.proc != proc {
		return false
	}
	if r.health != "" && r.health != health {
		return false
	}
	return true
}

// Resolve computes the effective display status for one service.
// Inputs are normalized first, so malformed wire values resolve to a
// defined fallback instead of erroring.
func Resolve(proc ProcessStatus, health HealthState, op Operation) Effective {
	proc = NormalizeProcess(string(proc))
	health = NormalizeHealth(string(health))
	for _, r := range resolutionRules {
		if r.matches(proc, health, op) {
			return r.eff
		}
	}
	// Unreachable with normalized inputs; keep the fallback defined anyway.
	return Effective{Status: string(ProcNotStarted), Label: "Not Started", Severity: SeverityNeutral}
}
