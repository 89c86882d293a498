package validationservice

import (
	"sync/atomic"
	"time"
)

// Metrics tracks post-processing counters using lock-free atomics.
// All methods are safe for concurrent use.
type Metrics struct {
	validationsTotal atomic.Uint64
	validationsValid atomic.Uint64

	findingsSuppressed     atomic.Uint64
	findingsBelowThreshold atomic.Uint64

	// Timing, in nanoseconds.
	validationTimeTotal atomic.Uint64
	validationTimeMin   atomic.Uint64
	validationTimeMax   atomic.Uint64
}

// NewMetrics creates a Metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	// Min starts at max uint64 so the first sample becomes the minimum.
	m.validationTimeMin.Store(^uint64(0))
	return m
}

// RecordValidation records one completed validation run.
func (m *Metrics) RecordValidation(duration time.Duration, valid bool) {
	m.validationsTotal.Add(1)
	if valid {
		m.validationsValid.Add(1)
	}

	ns := uint64(duration.Nanoseconds())
	m.validationTimeTotal.Add(ns)

	for {
		old := m.validationTimeMin.Load()
		if ns >= old || m.validationTimeMin.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.validationTimeMax.Load()
		if ns <= old || m.validationTimeMax.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordSuppressed counts findings dropped by the suppression filter.
func (m *Metrics) RecordSuppressed(n int) {
	if n > 0 {
		m.findingsSuppressed.Add(uint64(n))
	}
}

// RecordBelowThreshold counts findings dropped by the severity threshold.
func (m *Metrics) RecordBelowThreshold(n int) {
	if n > 0 {
		m.findingsBelowThreshold.Add(uint64(n))
	}
}

// MetricsSnapshot is a point-in-time view of the counters.
type MetricsSnapshot struct {
	ValidationsTotal       uint64        `json:"validationsTotal"`
	ValidationsValid       uint64        `json:"validationsValid"`
	FindingsSuppressed     uint64        `json:"findingsSuppressed"`
	FindingsBelowThreshold uint64        `json:"findingsBelowThreshold"`
	AverageValidationTime  time.Duration `json:"averageValidationTimeNs"`
	MinValidationTime      time.Duration `json:"minValidationTimeNs"`
	MaxValidationTime      time.Duration `json:"maxValidationTimeNs"`
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		ValidationsTotal:       m.validationsTotal.Load(),
		ValidationsValid:       m.validationsValid.Load(),
		FindingsSuppressed:     m.findingsSuppressed.Load(),
		FindingsBelowThreshold: m.findingsBelowThreshold.Load(),
		MaxValidationTime:      time.Duration(m.validationTimeMax.Load()),
	}
	if s.ValidationsTotal > 0 {
		s.AverageValidationTime = time.Duration(m.validationTimeTotal.Load() / s.ValidationsTotal)
	}
	if minNs := m.validationTimeMin.Load(); minNs != ^uint64(0) {
		s.MinValidationTime = time.Duration(minNs)
	}
	return s
}
