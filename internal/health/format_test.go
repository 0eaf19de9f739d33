package health

import (
	"testing"
	"time"
)

func TestFormatPlaceholders(t *testing.T) {
	var r CheckResult
	if got := r.FormatResponseTime(); got != "-" {
		t.Errorf("FormatResponseTime = %q", got)
	}
	if got := r.FormatUptime(); got != "-" {
		t.Errorf("FormatUptime = %q", got)
	}
	if got := r.FormatPort(); got != "-" {
		t.Errorf("FormatPort = %q", got)
	}
	if got := r.FormatEndpoint(); got != "-" {
		t.Errorf("FormatEndpoint = %q", got)
	}
	if got := r.FormatTimestamp(); got != "-" {
		t.Errorf("FormatTimestamp = %q", got)
	}
}

func TestFormatValues(t *testing.T) {
	r := CheckResult{
		ResponseTime: 42 * time.Millisecond,
		Uptime:       90 * time.Second,
		Port:         8080,
		Endpoint:     "/healthz",
	}
	if got := r.FormatResponseTime(); got != "42.0ms" {
		t.Errorf("FormatResponseTime = %q", got)
	}
	if got := r.FormatUptime(); got != "1m30s" {
		t.Errorf("FormatUptime = %q", got)
	}
	if got := r.FormatPort(); got != "8080" {
		t.Errorf("FormatPort = %q", got)
	}
	if got := r.FormatEndpoint(); got != "/healthz" {
		t.Errorf("FormatEndpoint = %q", got)
	}

	r.Uptime = 3*time.Hour + 5*time.Minute
	if got := r.FormatUptime(); got != "3h5m" {
		t.Errorf("FormatUptime hours = %q", got)
	}
	r.Uptime = 12 * time.Second
	if got := r.FormatUptime(); got != "12s" {
		t.Errorf("FormatUptime seconds = %q", got)
	}
}
