package orderbox

import "time"

const (
	// DefaultBackoffBase is the delay after the first failed attempt.
	DefaultBackoffBase = 2 * time.Second
	// DefaultBackoffCap bounds the delay regardless of attempt count.
	DefaultBackoffCap = 60 * time.Second
)

// BackoffPolicy computes how long to wait before the next submission
// attempt. The queue never computes delays itself; it persists whatever
// the scheduler's policy decides, so policies change without touching
// stored state.
type BackoffPolicy interface {
	// NextDelay returns the wait before attempt number attempts runs.
	NextDelay(attempts int) time.Duration
}

// BackoffFunc adapts a function to BackoffPolicy.
type BackoffFunc func(attempts int) time.Duration

// NextDelay implements BackoffPolicy.
func (fn BackoffFunc) NextDelay(attempts int) time.Duration {
	return fn(attempts)
}

// ExponentialBackoff doubles the delay per attempt, capped. With the
// defaults the schedule is 2s, 4s, 8s, ... 60s.
func ExponentialBackoff(base, cap time.Duration) BackoffFunc {
	if base <= 0 {
		base = DefaultBackoffBase
	}
	if cap <= 0 {
		cap = DefaultBackoffCap
	}

	return func(attempts int) time.Duration {
		if attempts <= 0 {
			return 0
		}
		delay := base
		for i := 1; i < attempts; i++ {
			delay *= 2
			if delay >= cap {
				return cap
			}
		}
		if delay > cap {
			return cap
		}

		return delay
	}
}
