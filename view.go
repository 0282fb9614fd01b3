package orderbox

import "context"

// Query computes the full result set of a live view.
type Query[T any] func(ctx context.Context) ([]T, error)

// WatchConfig defines live view behavior.
type WatchConfig struct {
	Logger  Logger
	OnError func(error)
}

func (c WatchConfig) withDefaults() WatchConfig {
	if c.Logger == nil {
		c.Logger = NopLogger{}
	}
	if c.OnError == nil {
		logger := c.Logger
		c.OnError = func(err error) {
			logger.Warn("live view query failed", "err", err)
		}
	}

	return c
}

// WatchOption configures a live view.
type WatchOption func(*WatchConfig)

// WithWatchLogger sets the logger used for query failures.
func WithWatchLogger(logger Logger) WatchOption {
	return func(c *WatchConfig) {
		c.Logger = logger
	}
}

// WithWatchOnError sets a callback for query failures. The last good
// emission stands until a recompute succeeds.
func WithWatchOnError(fn func(error)) WatchOption {
	return func(c *WatchConfig) {
		c.OnError = fn
	}
}

// View is a query result that is recomputed and redelivered whenever a
// source table commits a write. Recomputation for one view is never
// reentered concurrently with itself; signals arriving mid-recompute are
// coalesced by the subscription.
type View[T any] struct {
	sub    *Subscription
	out    chan []T
	cancel context.CancelFunc
	done   chan struct{}
}

// Watch subscribes query to the given tables, runs it once immediately and
// then once per coalesced change signal. Canceling ctx or calling Close
// stops recomputation and closes Updates.
func Watch[T any](ctx context.Context, hub *Hub, tables []string, query Query[T], opts ...WatchOption) *View[T] {
	var cfg WatchConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg = cfg.withDefaults()

	ctx, cancel := context.WithCancel(ctx)
	view := &View[T]{
		sub:    hub.Subscribe(tables...),
		out:    make(chan []T, 1),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go view.run(ctx, query, cfg.OnError)

	return view
}

// Updates returns the stream of full result sets. Delivery is latest-wins:
// a slow subscriber observes the newest set, never a backlog of stale ones.
// The channel is closed once the view stops.
func (v *View[T]) Updates() <-chan []T {
	return v.out
}

// Close stops recomputation and releases the subscription. It blocks until
// the view goroutine has exited, so no query outlives the view.
func (v *View[T]) Close() {
	v.cancel()
	<-v.done
}

func (v *View[T]) run(ctx context.Context, query Query[T], onError func(error)) {
	defer close(v.done)
	defer close(v.out)
	defer v.sub.Close()

	v.recompute(ctx, query, onError)
	for {
		select {
		case <-ctx.Done():
			return
		case <-v.sub.Signals():
			v.recompute(ctx, query, onError)
		}
	}
}

func (v *View[T]) recompute(ctx context.Context, query Query[T], onError func(error)) {
	items, err := query(ctx)
	if err != nil {
		if ctx.Err() == nil {
			onError(err)
		}

		return
	}
	v.emit(ctx, items)
}

func (v *View[T]) emit(ctx context.Context, items []T) {
	for {
		select {
		case <-ctx.Done():
			return
		case v.out <- items:
			return
		default:
		}

		// Channel full: displace the stale set and retry.
		select {
		case <-v.out:
		default:
		}
	}
}
