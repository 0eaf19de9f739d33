package health

import (
	"sync"
	"time"
)

// Change records one service transitioning between health states.
type Change struct {
	Service   string    `json:"service"`
	OldStatus Status    `json:"oldStatus"`
	NewStatus Status    `json:"newStatus"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ChangeDetector diffs successive reports and emits per-service
// transitions. Safe for concurrent use.
type ChangeDetector struct {
	mu   sync.Mutex
	prev map[string]Status
}

func NewChangeDetector() *ChangeDetector {
	return &ChangeDetector{prev: make(map[string]Status)}
}

// Detect returns the transitions between the previously observed report
// and this one, then remembers the new state. A service seen for the
// first time produces no change; services missing from the new report
// are forgotten.
func (d *ChangeDetector) Detect(report Report) []Change {
	d.mu.Lock()
	defer d.mu.Unlock()

	var changes []Change
	next := make(map[string]Status, len(report.Services))
	for _, r := range report.Services {
		cur := Normalize(string(r.Status))
		next[r.ServiceName] = cur
		old, seen := d.prev[r.ServiceName]
		if !seen || old == cur {
			continue
		}
		changes = append(changes, Change{
			Service:   r.ServiceName,
			OldStatus: old,
			NewStatus: cur,
			Reason:    r.Error,
			Timestamp: report.Timestamp,
		})
	}
	d.prev = next
	return changes
}

// Reset forgets all remembered state.
func (d *ChangeDetector) Reset() {
	d.mu.Lock()
	d.prev = make(map[string]Status)
	d.mu.Unlock()
}
