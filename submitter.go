package orderbox

import "context"

// Submitter delivers a single pending order to the backend.
type Submitter interface {
	// Submit attempts delivery and returns an error on failure.
	Submit(ctx context.Context, order PendingOrder) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, order PendingOrder) error

// Submit implements Submitter.
func (fn SubmitterFunc) Submit(ctx context.Context, order PendingOrder) error {
	return fn(ctx, order)
}
