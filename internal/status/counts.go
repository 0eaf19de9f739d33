package status

// Snapshot is the minimal per-service view Aggregate needs.
type Snapshot struct {
	Name   string        `json:"name"`
	Status ProcessStatus `json:"status"`
	Health HealthState   `json:"health,omitempty"`
	Op     Operation     `json:"-"`
}

// Counts is the dashboard-wide roll-up. The four buckets never sum to
// more than Total; not-started and completed services stay uncounted.
type Counts struct {
	Running int `json:"running"`
	Warn    int `json:"warn"`
	Error   int `json:"error"`
	Stopped int `json:"stopped"`
	Total   int `json:"total"`
}

// HealthSummary is an externally supplied aggregate, typically from a
// health-report stream. When present it is authoritative.
type HealthSummary struct {
	Healthy   int `json:"healthy"`
	Degraded  int `json:"degraded"`
	Unhealthy int `json:"unhealthy"`
	Starting  int `json:"starting"`
	Unknown   int `json:"unknown"`
}

// Aggregate computes status counts over a collection of services.
//
// Stopped services are counted first and subtracted from any
// health-derived unhealthy count: a stopped service usually fails its
// liveness probe, and that must not double-count as an error.
//
// With an external summary the summary wins and activeLogErrors is
// ignored: a stream-level aggregate already reflects ground truth.
// Without one, each service is bucketed via the Resolve precedence;
// then, if log-level errors were seen but no service-level error
// exists, running services are demoted to warn rather than the signal
// being dropped.
func Aggregate(services []Snapshot, summary *HealthSummary, activeLogErrors bool) Counts {
	c := Counts{Total: len(services)}
	for _, s := range services {
		if NormalizeProcess(string(s.Status)) == ProcStopped {
			c.Stopped++
		}
	}

	if summary != nil {
		c.Error = summary.Unhealthy - c.Stopped
		if c.Error < 0 {
			c.Error = 0
		}
		c.Warn = summary.Degraded + summary.Unknown + summary.Starting
		c.Running = summary.Healthy
		clampToTotal(&c)
		return c
	}

	for _, s := range services {
		if NormalizeProcess(string(s.Status)) == ProcStopped {
			continue
		}
		eff := Resolve(s.Status, s.Health, s.Op)
		switch bucketFor(eff) {
		case SeverityError:
			c.Error++
		case SeverityWarn:
			c.Warn++
		case SeverityOK:
			c.Running++
		}
	}

	if activeLogErrors && c.Error == 0 {
		c.Warn += c.Running
		c.Running = 0
	}
	return c
}

// bucketFor maps an effective status to a counting bucket. A live
// process with unknown health counts as running: no adverse signal is
// not a warning. Completed and not-started services stay uncounted.
func bucketFor(eff Effective) Severity {
	switch eff.Status {
	case "failed", "unhealthy":
		return SeverityError
	case "degraded", "starting", "stopping", "restarting":
		return SeverityWarn
	case "healthy", "running":
		return SeverityOK
	default:
		return SeverityNeutral
	}
}

// clampToTotal caps the buckets so an inconsistent external summary
// can never push running+warn+error+stopped past total.
func clampToTotal(c *Counts) {
	avail := c.Total - c.Stopped
	if avail < 0 {
		avail = 0
	}
	if c.Error > avail {
		c.Error = avail
	}
	avail -= c.Error
	if c.Warn > avail {
		c.Warn = avail
	}
	avail -= c.Warn
	if c.Running > avail {
		c.Running = avail
	}
}
