package orderbox

import "time"

// Metrics captures scheduler-level telemetry.
type Metrics interface {
	// ObserveSweepDuration records the time spent processing one due sweep.
	ObserveSweepDuration(duration time.Duration)
	// AddDelivered increments the count of confirmed submissions.
	AddDelivered(count int)
	// AddRetried increments the count of entries rescheduled after failure.
	AddRetried(count int)
	// AddAbandoned increments the count of entries dropped by policy.
	AddAbandoned(count int)
	// AddErrors increments the count of submission errors.
	AddErrors(count int)
	// SetPending updates the current pending order count.
	SetPending(count int)
}

// NopMetrics is a no-op metrics recorder.
type NopMetrics struct{}

// ObserveSweepDuration implements Metrics.
func (NopMetrics) ObserveSweepDuration(time.Duration) {}

// AddDelivered implements Metrics.
func (NopMetrics) AddDelivered(int) {}

// AddRetried implements Metrics.
func (NopMetrics) AddRetried(int) {}

// AddAbandoned implements Metrics.
func (NopMetrics) AddAbandoned(int) {}

// AddErrors implements Metrics.
func (NopMetrics) AddErrors(int) {}

// SetPending implements Metrics.
func (NopMetrics) SetPending(int) {}
