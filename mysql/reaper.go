package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/afterten/orderbox"
)

const (
	defaultReapLimit      = 1000
	defaultReapEvery      = time.Hour
	defaultReapLockPrefix = "orderbox:reap:"
)

// ReapOptions defines which queued orders to abandon.
type ReapOptions struct {
	// MaxAttempts abandons orders with at least this many attempts (0 disables).
	MaxAttempts int
	// OlderThan abandons orders enqueued at or before this time (zero disables).
	OlderThan time.Time
	// Limit caps the number of rows removed per call (0 uses the default).
	Limit int
}

// ReapResult reports how many orders were abandoned.
type ReapResult struct {
	Abandoned int64
}

// ReaperConfig controls periodic abandonment of stuck orders.
type ReaperConfig struct {
	// TablePrefix must match the store's prefix.
	TablePrefix string
	// MaxAttempts abandons orders with at least this many attempts (0 disables).
	MaxAttempts int
	// MaxAge abandons orders older than now-MaxAge (0 disables). At least
	// one of MaxAttempts and MaxAge must be set.
	MaxAge time.Duration
	// CheckEvery is the interval between reap runs.
	CheckEvery time.Duration
	// Limit caps the number of rows removed per run (0 uses the default).
	Limit int
	// LockName is the advisory lock name. Defaults to orderbox:reap:<table>.
	LockName string
	// Hub receives a pending-orders notification after a reap removes rows.
	Hub *orderbox.Hub
	// Clock overrides the time source (useful for tests).
	Clock orderbox.Clock
	// Logger receives warnings about reap failures.
	Logger orderbox.Logger
}

// Reaper periodically abandons orders that retry will never deliver:
// too many attempts, or enqueued too long ago. An advisory lock keeps
// concurrent processes from double-sweeping the same table.
type Reaper struct {
	store *Store
	cfg   ReaperConfig
}

// Reap abandons queued orders matching opts and reports how many rows
// were removed. At least one criterion must be set.
func (s *Store) Reap(ctx context.Context, opts ReapOptions) (ReapResult, error) {
	if opts.MaxAttempts <= 0 && opts.OlderThan.IsZero() {
		return ReapResult{}, ErrReapPolicyRequired
	}
	limit := opts.Limit
	if limit == 0 {
		limit = defaultReapLimit
	}
	if limit < 0 {
		return ReapResult{}, ErrReapLimitInvalid
	}

	predicate := ""
	args := make([]any, 0, 3)
	if opts.MaxAttempts > 0 {
		predicate = "attempts >= ?"
		args = append(args, opts.MaxAttempts)
	}
	if !opts.OlderThan.IsZero() {
		if predicate != "" {
			predicate += " OR "
		}
		predicate += "created_at_millis <= ?"
		args = append(args, opts.OlderThan.UnixMilli())
	}
	args = append(args, limit)

	// #nosec G201 -- table and predicate are internal and sanitized.
	query := fmt.Sprintf(
		"DELETE FROM %s WHERE %s ORDER BY id LIMIT ?",
		s.tables.pending,
		predicate,
	)
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return ReapResult{}, fmt.Errorf("orderbox mysql: reap delete failed: %w", err)
	}
	abandoned, err := res.RowsAffected()
	if err != nil {
		return ReapResult{}, fmt.Errorf("orderbox mysql: reap rows failed: %w", err)
	}
	if abandoned > 0 {
		s.cfg.Hub.Publish(orderbox.TablePendingOrders)
	}

	return ReapResult{Abandoned: abandoned}, nil
}

// NewReaper creates a reaper with defaults applied.
func NewReaper(db *sql.DB, cfg ReaperConfig) (*Reaper, error) {
	if db == nil {
		return nil, ErrDBRequired
	}
	if cfg.MaxAttempts <= 0 && cfg.MaxAge <= 0 {
		return nil, ErrReapPolicyRequired
	}
	if cfg.MaxAge < 0 {
		return nil, ErrReapAgeInvalid
	}
	if cfg.Clock == nil {
		cfg.Clock = orderbox.SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = orderbox.NopLogger{}
	}
	if cfg.CheckEvery <= 0 {
		cfg.CheckEvery = defaultReapEvery
	}
	if cfg.Limit == 0 {
		cfg.Limit = defaultReapLimit
	}
	if cfg.Limit < 0 {
		return nil, ErrReapLimitInvalid
	}

	storeOpts := []Option{
		WithTablePrefix(cfg.TablePrefix),
		WithClock(cfg.Clock),
		WithLogger(cfg.Logger),
	}
	if cfg.Hub != nil {
		storeOpts = append(storeOpts, WithHub(cfg.Hub))
	}
	store, err := NewStore(db, storeOpts...)
	if err != nil {
		return nil, err
	}
	if cfg.LockName == "" {
		cfg.LockName = defaultReapLockPrefix + store.tables.pending
	}

	return &Reaper{store: store, cfg: cfg}, nil
}

// Run periodically abandons stuck orders until the context is canceled.
func (r *Reaper) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.CheckEvery)
	defer ticker.Stop()

	if _, err := r.Ensure(ctx); err != nil {
		r.cfg.Logger.Warn("order reap failed", "err", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.Ensure(ctx); err != nil {
				r.cfg.Logger.Warn("order reap failed", "err", err)
			}
		}
	}
}

// Ensure executes a single reap pass under the advisory lock.
func (r *Reaper) Ensure(ctx context.Context) (ReapResult, error) {
	conn, err := r.store.db.Conn(ctx)
	if err != nil {
		return ReapResult{}, fmt.Errorf("orderbox mysql: reap conn failed: %w", err)
	}
	defer conn.Close()

	locked, err := r.tryLock(ctx, conn)
	if err != nil {
		return ReapResult{}, err
	}
	if !locked {
		r.cfg.Logger.Debug("order reap lock held by another session")

		return ReapResult{}, nil
	}
	defer r.releaseLock(ctx, conn)

	opts := ReapOptions{
		MaxAttempts: r.cfg.MaxAttempts,
		Limit:       r.cfg.Limit,
	}
	if r.cfg.MaxAge > 0 {
		opts.OlderThan = r.cfg.Clock.Now().Add(-r.cfg.MaxAge)
	}

	return r.store.Reap(ctx, opts)
}

func (r *Reaper) tryLock(ctx context.Context, conn *sql.Conn) (bool, error) {
	var got sql.NullInt64
	if err := conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, 0)", r.cfg.LockName).Scan(&got); err != nil {
		return false, fmt.Errorf("orderbox mysql: acquire reap lock failed: %w", err)
	}
	if !got.Valid || got.Int64 == 0 {
		return false, nil
	}

	return true, nil
}

func (r *Reaper) releaseLock(ctx context.Context, conn *sql.Conn) {
	var released sql.NullInt64
	if err := conn.QueryRowContext(ctx, "SELECT RELEASE_LOCK(?)", r.cfg.LockName).Scan(&released); err != nil {
		r.cfg.Logger.Warn("order reap release lock failed", "err", err)
	}
}
