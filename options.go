package orderbox

import "time"

const defaultPollInterval = 15 * time.Second

// SchedulerConfig defines how the Scheduler polls and submits orders.
type SchedulerConfig struct {
	PollInterval      time.Duration
	Clock             Clock
	Backoff           BackoffPolicy
	FailureClassifier FailureClassifier
	ErrorHandler      FailureHandler
	Logger            Logger
	Metrics           Metrics
	SubmitTimeout     time.Duration
	PendingInterval   time.Duration
}

func (c SchedulerConfig) withDefaults() SchedulerConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.Clock == nil {
		c.Clock = SystemClock{}
	}
	if c.Backoff == nil {
		c.Backoff = ExponentialBackoff(DefaultBackoffBase, DefaultBackoffCap)
	}
	if c.FailureClassifier == nil {
		c.FailureClassifier = RetryAlways
	}
	if c.Logger == nil {
		c.Logger = NopLogger{}
	}
	if c.Metrics == nil {
		c.Metrics = NopMetrics{}
	}

	return c
}

// SchedulerOption configures Scheduler behavior.
type SchedulerOption func(*SchedulerConfig)

// WithPollInterval sets the delay between empty sweeps.
func WithPollInterval(interval time.Duration) SchedulerOption {
	return func(c *SchedulerConfig) {
		c.PollInterval = interval
	}
}

// WithClock sets the scheduler clock.
func WithClock(clock Clock) SchedulerOption {
	return func(c *SchedulerConfig) {
		c.Clock = clock
	}
}

// WithBackoff sets the retry backoff policy.
func WithBackoff(policy BackoffPolicy) SchedulerOption {
	return func(c *SchedulerConfig) {
		c.Backoff = policy
	}
}

// WithFailureClassifier sets the retry/abandon decision policy.
func WithFailureClassifier(classifier FailureClassifier) SchedulerOption {
	return func(c *SchedulerConfig) {
		c.FailureClassifier = classifier
	}
}

// WithErrorHandler registers a callback for submission failures.
func WithErrorHandler(handler FailureHandler) SchedulerOption {
	return func(c *SchedulerConfig) {
		c.ErrorHandler = handler
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(logger Logger) SchedulerOption {
	return func(c *SchedulerConfig) {
		c.Logger = logger
	}
}

// WithMetrics sets the scheduler metrics recorder.
func WithMetrics(metrics Metrics) SchedulerOption {
	return func(c *SchedulerConfig) {
		c.Metrics = metrics
	}
}

// WithSubmitTimeout sets a per-order submission timeout.
func WithSubmitTimeout(timeout time.Duration) SchedulerOption {
	return func(c *SchedulerConfig) {
		c.SubmitTimeout = timeout
	}
}

// WithPendingInterval sets the minimum interval between pending count
// samples. Use a positive value to enable sampling or zero to keep it
// disabled. The default is disabled.
func WithPendingInterval(interval time.Duration) SchedulerOption {
	return func(c *SchedulerConfig) {
		c.PendingInterval = interval
	}
}
