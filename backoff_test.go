package orderbox

import (
	"testing"
	"time"
)

func TestExponentialBackoffCurve(t *testing.T) {
	policy := ExponentialBackoff(time.Second, 60*time.Second)

	cases := []struct {
		attempts int
		delay    time.Duration
	}{
		{attempts: 0, delay: 0},
		{attempts: 1, delay: time.Second},
		{attempts: 2, delay: 2 * time.Second},
		{attempts: 3, delay: 4 * time.Second},
		{attempts: 6, delay: 32 * time.Second},
		{attempts: 7, delay: 60 * time.Second},
		{attempts: 30, delay: 60 * time.Second},
	}
	for _, tc := range cases {
		if got := policy.NextDelay(tc.attempts); got != tc.delay {
			t.Fatalf("attempts %d: expected %v, got %v", tc.attempts, tc.delay, got)
		}
	}
}

func TestExponentialBackoffDefaults(t *testing.T) {
	policy := ExponentialBackoff(0, 0)

	if got := policy.NextDelay(1); got != DefaultBackoffBase {
		t.Fatalf("expected base delay %v, got %v", DefaultBackoffBase, got)
	}
	if got := policy.NextDelay(100); got != DefaultBackoffCap {
		t.Fatalf("expected capped delay %v, got %v", DefaultBackoffCap, got)
	}
}

func TestBackoffFuncAdapter(t *testing.T) {
	var seen int
	policy := BackoffFunc(func(attempts int) time.Duration {
		seen = attempts
		return time.Minute
	})

	if got := policy.NextDelay(4); got != time.Minute {
		t.Fatalf("expected fixed delay, got %v", got)
	}
	if seen != 4 {
		t.Fatalf("expected attempts passed through, got %d", seen)
	}
}
