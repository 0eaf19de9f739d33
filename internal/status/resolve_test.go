package status

import "testing"

func TestResolvePrecedence(t *testing.T) {
	cases := []struct {
		name   string
		proc   ProcessStatus
		health HealthState
		op     Operation
		want   string
	}{
		{"stopped beats healthy", ProcStopped, HealthHealthy, OpNone, "stopped"},
		{"stopped beats unhealthy", ProcStopped, HealthUnhealthy, OpNone, "stopped"},
		{"failed beats healthy", ProcFailed, HealthHealthy, OpNone, "failed"},
		{"stopping reported regardless of health", ProcStopping, HealthHealthy, OpNone, "stopping"},
		{"starting reported regardless of health", ProcStarting, HealthUnhealthy, OpNone, "starting"},
		{"restarting reported regardless of health", ProcRestarting, HealthDegraded, OpNone, "restarting"},
		{"not-started", ProcNotStarted, HealthUnknown, OpNone, "not-started"},
		{"completed", ProcCompleted, HealthUnknown, OpNone, "completed"},
		{"running healthy", ProcRunning, HealthHealthy, OpNone, "healthy"},
		{"running degraded", ProcRunning, HealthDegraded, OpNone, "degraded"},
		{"running unhealthy", ProcRunning, HealthUnhealthy, OpNone, "unhealthy"},
		{"running unknown health", ProcRunning, HealthUnknown, OpNone, "running"},
		{"inflight start beats stopped", ProcStopped, HealthUnknown, OpStarting, "starting"},
		{"inflight stop beats healthy running", ProcRunning, HealthHealthy, OpStopping, "stopping"},
		{"inflight restart beats failed", ProcFailed, HealthUnknown, OpRestarting, "restarting"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Resolve(tc.proc, tc.health, tc.op)
			if got.Status != tc.want {
				t.Fatalf("Resolve(%v, %v, %v) = %q, want %q", tc.proc, tc.health, tc.op, got.Status, tc.want)
			}
		})
	}
}

func TestResolveSeverities(t *testing.T) {
	if got := Resolve(ProcRunning, HealthUnhealthy, OpNone).Severity; got != SeverityError {
		t.Fatalf("running+unhealthy severity = %v", got)
	}
	if got := Resolve(ProcRunning, HealthDegraded, OpNone).Severity; got != SeverityWarn {
		t.Fatalf("running+degraded severity = %v", got)
	}
	if got := Resolve(ProcRunning, HealthHealthy, OpNone).Severity; got != SeverityOK {
		t.Fatalf("running+healthy severity = %v", got)
	}
	if got := Resolve(ProcStopped, HealthHealthy, OpNone).Severity; got != SeverityNeutral {
		t.Fatalf("stopped severity = %v", got)
	}
}

func TestNormalizeProcess(t *testing.T) {
	cases := map[string]ProcessStatus{
		"running":     ProcRunning,
		"Running":     ProcRunning,
		"ready":       ProcRunning,
		"watching":    ProcRunning,
		"building":    ProcRunning,
		"built":       ProcCompleted,
		"error":       ProcFailed,
		"failed":      ProcFailed,
		"stopped":     ProcStopped,
		"not-running": ProcNotStarted,
		"":            ProcNotStarted,
		"bogus":       ProcNotStarted,
	}
	for in, want := range cases {
		if got := NormalizeProcess(in); got != want {
			t.Fatalf("NormalizeProcess(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNormalizeHealth(t *testing.T) {
	cases := map[string]HealthState{
		"healthy":   HealthHealthy,
		"DEGRADED":  HealthDegraded,
		"unhealthy": HealthUnhealthy,
		"unknown":   HealthUnknown,
		// Lifecycle values leaking into the health axis must not pass through.
		"starting": HealthUnknown,
		"running":  HealthUnknown,
		"":         HealthUnknown,
		"weird":    HealthUnknown,
	}
	for in, want := range cases {
		if got := NormalizeHealth(in); got != want {
			t.Fatalf("NormalizeHealth(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestResolveDeterministic(t *testing.T) {
	first := Resolve(ProcRunning, HealthDegraded, OpNone)
	for i := 0; i < 100; i++ {
		if got := Resolve(ProcRunning, HealthDegraded, OpNone); got != first {
			t.Fatal("Resolve is not deterministic")
		}
	}
}
