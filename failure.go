package orderbox

import "context"

// FailureAction defines how a failed submission should be handled.
type FailureAction int

const (
	// FailureRetry reschedules the order for another attempt.
	FailureRetry FailureAction = iota
	// FailureAbandon drops the order from the queue immediately.
	FailureAbandon
)

// FailureClassifier decides whether a submission failure is retryable.
// The abandonment threshold is policy owned by the caller, not by the
// queue; the queue only ever sees the resulting action.
type FailureClassifier func(ctx context.Context, order PendingOrder, err error) FailureAction

// RetryAlways keeps every failed order in the queue. This is the default.
func RetryAlways(context.Context, PendingOrder, error) FailureAction {
	return FailureRetry
}

// AbandonAfter abandons an order once the failed attempt would reach
// maxAttempts.
func AbandonAfter(maxAttempts int) FailureClassifier {
	return func(_ context.Context, order PendingOrder, _ error) FailureAction {
		if maxAttempts > 0 && order.Attempts+1 >= maxAttempts {
			return FailureAbandon
		}

		return FailureRetry
	}
}
