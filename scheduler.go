package orderbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// FailureHandler is called when a submission attempt returns an error.
type FailureHandler func(ctx context.Context, order PendingOrder, err error)

// Scheduler polls a Queue for due orders and submits each through a
// Submitter. On failure it applies the configured backoff policy and
// writes the new retry state back into the queue; on success it removes
// the order. Delivery is at-least-once: a crash between submit and
// RecordSuccess resubmits on the next sweep.
type Scheduler struct {
	queue     Queue
	submitter Submitter
	cfg       SchedulerConfig

	pendingMu sync.Mutex
	pendingAt time.Time
}

// NewScheduler constructs a Scheduler with defaults and optional settings.
func NewScheduler(queue Queue, submitter Submitter, opts ...SchedulerOption) *Scheduler {
	if queue == nil {
		panic("orderbox: nil Queue")
	}
	if submitter == nil {
		panic("orderbox: nil Submitter")
	}

	var cfg SchedulerConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg = cfg.withDefaults()

	return &Scheduler{
		queue:     queue,
		submitter: submitter,
		cfg:       cfg,
	}
}

// Run polls the queue until the context is canceled. Cancellation is a
// clean shutdown, not an error.
func (s *Scheduler) Run(ctx context.Context) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrSchedulerPanic, rec)
			s.cfg.Logger.Error("order sync panic", "panic", rec)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		processed, sweepErr := s.SweepOnce(ctx)
		if sweepErr != nil {
			if errors.Is(sweepErr, context.Canceled) {
				return nil
			}
			s.cfg.Logger.Error("order sync sweep failed", "err", sweepErr)

			return sweepErr
		}

		if processed == 0 {
			s.maybeRecordPending(ctx)
			if sleepErr := s.sleep(ctx, s.cfg.PollInterval); sleepErr != nil {
				return nil
			}
		}
	}
}

// SweepOnce fetches and processes every currently-due order, oldest first.
// It returns the number of orders acted on (delivered, rescheduled or
// abandoned). A submission failure handles one entry and moves on; only
// queue-level errors abort the sweep.
func (s *Scheduler) SweepOnce(ctx context.Context) (int, error) {
	start := time.Now()
	defer func() {
		s.cfg.Metrics.ObserveSweepDuration(time.Since(start))
	}()

	due, err := s.queue.Due(ctx, s.cfg.Clock.Now())
	if err != nil {
		return 0, fmt.Errorf("orderbox: due query failed: %w", err)
	}

	processed := 0
	for i := range due {
		if err := s.attempt(ctx, due[i]); err != nil {
			return processed, err
		}
		processed++
	}

	return processed, nil
}

func (s *Scheduler) attempt(ctx context.Context, order PendingOrder) error {
	submitCtx := ctx
	cancel := func() {}
	if s.cfg.SubmitTimeout > 0 {
		submitCtx, cancel = context.WithTimeout(ctx, s.cfg.SubmitTimeout)
	}
	err := s.submitter.Submit(submitCtx, order)
	cancel()

	if err == nil {
		if recErr := s.queue.RecordSuccess(ctx, order.ID); recErr != nil {
			return fmt.Errorf("orderbox: record success failed: %w", recErr)
		}
		s.cfg.Metrics.AddDelivered(1)
		s.cfg.Logger.Debug("order delivered", "id", order.ID, "outlet", order.OutletID)

		return nil
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.cfg.Metrics.AddErrors(1)
	if s.cfg.ErrorHandler != nil {
		s.cfg.ErrorHandler(ctx, order, err)
	}

	if s.cfg.FailureClassifier(ctx, order, err) == FailureAbandon {
		return s.abandon(ctx, order, err)
	}

	return s.reschedule(ctx, order, err)
}

func (s *Scheduler) reschedule(ctx context.Context, order PendingOrder, cause error) error {
	attempts := order.Attempts + 1
	nextAt := s.cfg.Clock.Now().Add(s.cfg.Backoff.NextDelay(attempts))
	if err := s.queue.RecordFailure(ctx, order.ID, attempts, nextAt.UnixMilli()); err != nil {
		return fmt.Errorf("orderbox: record failure failed: %w", err)
	}
	s.cfg.Metrics.AddRetried(1)
	s.cfg.Logger.Warn("order submission failed",
		"id", order.ID, "attempts", attempts, "next_attempt_at", nextAt, "err", cause)

	return nil
}

func (s *Scheduler) abandon(ctx context.Context, order PendingOrder, cause error) error {
	abandoner, ok := s.queue.(Abandoner)
	if !ok {
		s.cfg.Logger.Warn("queue does not support abandonment; rescheduling", "id", order.ID)

		return s.reschedule(ctx, order, cause)
	}

	if err := abandoner.RecordAbandoned(ctx, order.ID); err != nil {
		return fmt.Errorf("orderbox: abandon failed: %w", err)
	}
	s.cfg.Metrics.AddAbandoned(1)
	s.cfg.Logger.Warn("order abandoned", "id", order.ID, "attempts", order.Attempts+1, "err", cause)

	return nil
}

func (s *Scheduler) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Scheduler) maybeRecordPending(ctx context.Context) {
	counter, ok := s.queue.(PendingCounter)
	if !ok {
		return
	}
	if s.cfg.PendingInterval <= 0 {
		return
	}
	if ctx.Err() != nil {
		return
	}

	now := s.cfg.Clock.Now()
	s.pendingMu.Lock()
	nextAllowed := s.pendingAt.Add(s.cfg.PendingInterval)
	if !s.pendingAt.IsZero() && now.Before(nextAllowed) {
		s.pendingMu.Unlock()

		return
	}
	s.pendingAt = now
	s.pendingMu.Unlock()

	count, err := counter.PendingCount(ctx)
	if err != nil {
		s.cfg.Logger.Warn("pending count failed", "err", err)

		return
	}

	s.cfg.Metrics.SetPending(count)
}
