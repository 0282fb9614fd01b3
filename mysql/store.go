package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/afterten/orderbox"
)

// Executor allows running store statements within an existing transaction.
type Executor interface {
	// ExecContext executes a statement with the provided context.
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Store is the MySQL-backed local data layer: catalog cache, draft cart
// and the pending order outbox, with change notification on every write.
type Store struct {
	db      *sql.DB
	cfg     Config
	queries queries
	tables  tables
}

var _ orderbox.Queue = (*Store)(nil)
var _ orderbox.Abandoner = (*Store)(nil)
var _ orderbox.PendingCounter = (*Store)(nil)

// NewStore constructs a MySQL store with validated configuration.
func NewStore(db *sql.DB, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrDBRequired
	}

	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg = cfg.withDefaults()

	t, err := tablesWithPrefix(cfg.TablePrefix)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:      db,
		cfg:     cfg,
		queries: newQueries(t),
		tables:  t,
	}, nil
}

// MustNewStore constructs a MySQL store or panics on error.
func MustNewStore(db *sql.DB, opts ...Option) *Store {
	store, err := NewStore(db, opts...)
	if err != nil {
		panic(err)
	}

	return store
}

// Notifier returns the hub publishing table change notifications for this
// store. Subscribe to it directly or through the Live* views.
func (s *Store) Notifier() *orderbox.Hub {
	return s.cfg.Hub
}

// withTx runs fn in a transaction and publishes the listed tables only
// after the commit succeeds, so subscribers never observe a notification
// for state that was rolled back.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error, changed ...string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("orderbox mysql: begin tx failed: %w", err)
	}

	if err := fn(tx); err != nil {
		rollbackErr := tx.Rollback()

		return errors.Join(err, rollbackErr)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("orderbox mysql: commit failed: %w", err)
	}

	s.cfg.Hub.Publish(changed...)

	return nil
}

// Reset deletes all locally cached state: catalog, cart and pending
// orders. Intended for sign-out and for tests.
func (s *Store) Reset(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, query := range []string{
			s.queries.deleteVariations,
			s.queries.deleteProducts,
			s.queries.clearCart,
			fmt.Sprintf("DELETE FROM %s", s.tables.pending),
		} {
			if _, err := tx.ExecContext(ctx, query); err != nil {
				return fmt.Errorf("orderbox mysql: reset failed: %w", err)
			}
		}

		return nil
	}, orderbox.TableProducts, orderbox.TableVariations, orderbox.TableCart, orderbox.TablePendingOrders)
}

// nullStr maps the empty string to SQL NULL for nullable text columns.
func nullStr(s string) any {
	if s == "" {
		return nil
	}

	return s
}
