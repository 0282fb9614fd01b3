package orderbox

import (
	"context"
	"time"
)

// Queue is the durable pending-order store polled by the Scheduler.
type Queue interface {
	// Due returns every order eligible at now, oldest first by enqueue
	// time. Ordering by creation rather than by retry time keeps early
	// orders from being starved behind newer ones with shorter backoff.
	Due(ctx context.Context, now time.Time) ([]PendingOrder, error)
	// RecordFailure persists the attempt counter and the next retry time
	// decided by the scheduler's backoff policy.
	RecordFailure(ctx context.Context, id int64, attempts int, nextAttemptAtMillis int64) error
	// RecordSuccess removes the order. Deletion is the delivered signal;
	// there is no status column.
	RecordSuccess(ctx context.Context, id int64) error
}

// Abandoner removes orders dropped by caller policy. Queues that cannot
// distinguish abandonment fall back to RecordFailure.
type Abandoner interface {
	// RecordAbandoned removes an order without delivering it.
	RecordAbandoned(ctx context.Context, id int64) error
}

// PendingCounter provides a total count of queued orders.
type PendingCounter interface {
	// PendingCount returns the current number of pending orders.
	PendingCount(ctx context.Context) (int, error)
}
