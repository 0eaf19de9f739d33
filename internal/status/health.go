package status

import "strings"

// HealthState is the probe-derived health axis, independent of process
// lifecycle. The two axes must never be conflated: a lifecycle value
// arriving in the health field ("starting") normalizes to unknown.
type HealthState string

const (
	HealthHealthy   HealthState = "healthy"
	HealthDegraded  HealthState = "degraded"
	HealthUnhealthy HealthState = "unhealthy"
	HealthUnknown   HealthState = "unknown"
)

// NormalizeHealth maps a wire string to a HealthState. Unrecognized
// values map to unknown, including the lifecycle-flavored "starting"
// some checkers report during a grace period. Tightening this would
// turn benign wire drift into display errors.
func NormalizeHealth(s string) HealthState {
	switch HealthState(strings.ToLower(strings.TrimSpace(s))) {
	case HealthHealthy:
		return HealthHealthy
	case HealthDegraded:
		return HealthDegraded
	case HealthUnhealthy:
		return HealthUnhealthy
	default:
		return HealthUnknown
	}
}
