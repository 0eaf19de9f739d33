package health

import (
	"fmt"
	"time"
)

// Display formatting for optional wire fields. Absent values render as
// a fixed placeholder instead of a zero that looks like data.

const placeholder = "-"

// FormatResponseTime renders a probe round-trip in milliseconds.
func (r CheckResult) FormatResponseTime() string {
	if r.ResponseTime <= 0 {
		return placeholder
	}
	return fmt.Sprintf("%.1fms", r.ResponseTimeMillis())
}

// FormatUptime renders uptime in a compact h/m/s form.
func (r CheckResult) FormatUptime() string {
	if r.Uptime <= 0 {
		return placeholder
	}
	d := r.Uptime.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh%dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm%ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// FormatPort renders the probed port, or the placeholder when none was
// reported.
func (r CheckResult) FormatPort() string {
	if r.Port <= 0 {
		return placeholder
	}
	return fmt.Sprintf("%d", r.Port)
}

// FormatEndpoint renders the probe endpoint.
func (r CheckResult) FormatEndpoint() string {
	if r.Endpoint == "" {
		return placeholder
	}
	return r.Endpoint
}

// FormatTimestamp renders the check time as local wall clock.
func (r CheckResult) FormatTimestamp() string {
	if r.Timestamp.IsZero() {
		return placeholder
	}
	return r.Timestamp.Local().Format("15:04:05")
}
