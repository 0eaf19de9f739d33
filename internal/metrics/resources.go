package metrics

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v4/process"
)

// ResourceUsage holds one CPU/memory sample for a service process. PIDs
// come from ingested health reports; the daemon never owns the process.
type ResourceUsage struct {
	Service    string    `json:"service"`
	PID        int32     `json:"pid"`
	CPUPercent float64   `json:"cpuPercent"`
	MemoryMB   float64   `json:"memoryMb"`
	MemoryRSS  uint64    `json:"memoryRss"`
	NumThreads int32     `json:"numThreads"`
	NumFDs     int32     `json:"numFds,omitempty"` // Unix only
	Timestamp  time.Time `json:"timestamp"`
}

// ResourceSampler samples resource usage for known service PIDs and
// exports the latest values as gauges.
type ResourceSampler struct {
	mu     sync.RWMutex
	latest map[string]ResourceUsage

	cpuPercent *prometheus.GaugeVec
	memoryMB   *prometheus.GaugeVec
	numThreads *prometheus.GaugeVec
}

func NewResourceSampler() *ResourceSampler {
	return &ResourceSampler{
		latest: make(map[string]ResourceUsage),
		cpuPercent: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "devdeck",
				Subsystem: "resources",
				Name:      "cpu_percent",
				Help:      "CPU usage percentage per service process.",
			}, []string{"service"},
		),
		memoryMB: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "devdeck",
				Subsystem: "resources",
				Name:      "memory_mb",
				Help:      "Resident memory in MB per service process.",
			}, []string{"service"},
		),
		numThreads: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "devdeck",
				Subsystem: "resources",
				Name:      "num_threads",
				Help:      "Thread count per service process.",
			}, []string{"service"},
		),
	}
}

// RegisterMetrics registers the sampler's gauges.
func (s *ResourceSampler) RegisterMetrics(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{s.cpuPercent, s.memoryMB, s.numThreads} {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// Sample reads current usage for one PID and records it under the
// service name.
func (s *ResourceSampler) Sample(service string, pid int32) (ResourceUsage, error) {
	proc, err := process.NewProcess(pid)
	if err != nil {
		return ResourceUsage{}, fmt.Errorf("process handle for pid %d: %w", pid, err)
	}

	// CPU percent needs a prior sample for accuracy; 0 on first read is fine.
	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		slog.Debug("cpu percent unavailable", "service", service, "pid", pid, "error", err)
		cpuPercent = 0
	}
	memInfo, err := proc.MemoryInfo()
	if err != nil {
		return ResourceUsage{}, fmt.Errorf("memory info for pid %d: %w", pid, err)
	}
	numThreads, err := proc.NumThreads()
	if err != nil {
		numThreads = 0
	}

	u := ResourceUsage{
		Service:    service,
		PID:        pid,
		CPUPercent: cpuPercent,
		MemoryMB:   float64(memInfo.RSS) / 1024 / 1024,
		MemoryRSS:  memInfo.RSS,
		NumThreads: numThreads,
		Timestamp:  time.Now().UTC(),
	}
	if runtime.GOOS != "windows" {
		if numFDs, err := proc.NumFDs(); err == nil {
			u.NumFDs = numFDs
		}
	}

	s.mu.Lock()
	s.latest[service] = u
	s.mu.Unlock()

	s.cpuPercent.WithLabelValues(service).Set(u.CPUPercent)
	s.memoryMB.WithLabelValues(service).Set(u.MemoryMB)
	s.numThreads.WithLabelValues(service).Set(float64(u.NumThreads))
	return u, nil
}

// Latest returns the most recent samples, one per service.
func (s *ResourceSampler) Latest() []ResourceUsage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ResourceUsage, 0, len(s.latest))
	for _, u := range s.latest {
		out = append(out, u)
	}
	return out
}

// Forget drops a service's sample and its gauge series, for services
// that disappeared from health reports.
func (s *ResourceSampler) Forget(service string) {
	s.mu.Lock()
	delete(s.latest, service)
	s.mu.Unlock()
	s.cpuPercent.DeleteLabelValues(service)
	s.memoryMB.DeleteLabelValues(service)
	s.numThreads.DeleteLabelValues(service)
}
