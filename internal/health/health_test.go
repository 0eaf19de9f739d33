package health

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSummarizeOverallPrecedence(t *testing.T) {
	mk := func(statuses ...Status) []CheckResult {
		out := make([]CheckResult, len(statuses))
		for i, s := range statuses {
			out[i] = CheckResult{ServiceName: string(rune('a' + i)), Status: s}
		}
		return out
	}
	cases := []struct {
		name string
		in   []CheckResult
		want Status
	}{
		{"unhealthy wins", mk(StatusHealthy, StatusDegraded, StatusUnhealthy), StatusUnhealthy},
		{"degraded over starting", mk(StatusStarting, StatusDegraded), StatusDegraded},
		{"starting over unknown", mk(StatusUnknown, StatusStarting), StatusStarting},
		{"unknown over healthy", mk(StatusHealthy, StatusUnknown), StatusUnknown},
		{"all healthy", mk(StatusHealthy, StatusHealthy), StatusHealthy},
		{"empty", nil, StatusUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Summarize(tc.in)
			if got.Overall != tc.want {
				t.Fatalf("overall = %q, want %q", got.Overall, tc.want)
			}
			if got.Total != len(tc.in) {
				t.Fatalf("total = %d, want %d", got.Total, len(tc.in))
			}
		})
	}
}

func TestSummarizeCountsUnrecognized(t *testing.T) {
	got := Summarize([]CheckResult{
		{ServiceName: "a", Status: "bogus"},
		{ServiceName: "b", Status: StatusHealthy},
	})
	if got.Unknown != 1 || got.Healthy != 1 {
		t.Fatalf("unexpected summary %+v", got)
	}
}

func TestCheckResultDurationsMarshalAsNanoseconds(t *testing.T) {
	r := CheckResult{
		ServiceName:  "api",
		Status:       StatusHealthy,
		ResponseTime: 42 * time.Millisecond,
		Uptime:       90 * time.Second,
	}
	raw, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := m["responseTime"].(float64); got != 42e6 {
		t.Fatalf("responseTime on the wire = %v, want 42e6 ns", got)
	}
	if got := r.ResponseTimeMillis(); got != 42 {
		t.Fatalf("ResponseTimeMillis = %v, want 42", got)
	}
	if got := r.UptimeSeconds(); got != 90 {
		t.Fatalf("UptimeSeconds = %v, want 90", got)
	}
}

func TestNormalizeStatus(t *testing.T) {
	cases := map[string]Status{
		"healthy":   StatusHealthy,
		"starting":  StatusStarting,
		"unhealthy": StatusUnhealthy,
		"":          StatusUnknown,
		"HEALTHY":   StatusUnknown, // wire values are lowercase by contract
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestChangeDetector(t *testing.T) {
	d := NewChangeDetector()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	first := Report{Timestamp: ts, Services: []CheckResult{
		{ServiceName: "api", Status: StatusStarting},
		{ServiceName: "web", Status: StatusHealthy},
	}}
	if got := d.Detect(first); len(got) != 0 {
		t.Fatalf("first report must emit no changes, got %v", got)
	}

	second := Report{Timestamp: ts.Add(time.Second), Services: []CheckResult{
		{ServiceName: "api", Status: StatusHealthy},
		{ServiceName: "web", Status: StatusUnhealthy, Error: "connection refused"},
	}}
	got := d.Detect(second)
	if len(got) != 2 {
		t.Fatalf("changes = %d, want 2", len(got))
	}
	byName := map[string]Change{}
	for _, c := range got {
		byName[c.Service] = c
	}
	if c := byName["api"]; c.OldStatus != StatusStarting || c.NewStatus != StatusHealthy {
		t.Fatalf("api change = %+v", c)
	}
	if c := byName["web"]; c.NewStatus != StatusUnhealthy || c.Reason != "connection refused" {
		t.Fatalf("web change = %+v", c)
	}

	// Unchanged report emits nothing.
	if got := d.Detect(second); len(got) != 0 {
		t.Fatalf("steady state must emit no changes, got %v", got)
	}

	// A service dropped and re-added counts as first sight again.
	third := Report{Timestamp: ts.Add(2 * time.Second), Services: []CheckResult{
		{ServiceName: "api", Status: StatusHealthy},
	}}
	d.Detect(third)
	fourth := Report{Timestamp: ts.Add(3 * time.Second), Services: []CheckResult{
		{ServiceName: "api", Status: StatusHealthy},
		{ServiceName: "web", Status: StatusHealthy},
	}}
	if got := d.Detect(fourth); len(got) != 0 {
		t.Fatalf("re-added service must not emit a change, got %v", got)
	}
}

func TestStateCollapsesStarting(t *testing.T) {
	if got := StatusStarting.State(); string(got) != "unknown" {
		t.Fatalf("starting collapses to unknown on the health axis, got %q", got)
	}
	if got := StatusDegraded.State(); string(got) != "degraded" {
		t.Fatalf("degraded maps to degraded, got %q", got)
	}
}
