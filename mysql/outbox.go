package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/afterten/orderbox"
)

// Enqueue durably stores an order draft before any network attempt is
// made. The returned order carries the assigned row ID and, when the
// draft had none, a generated client reference. The order becomes due
// immediately.
func (s *Store) Enqueue(ctx context.Context, draft orderbox.OrderDraft) (orderbox.PendingOrder, error) {
	var order orderbox.PendingOrder
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		order, err = s.enqueue(ctx, tx, draft, s.cfg.Clock.Now())

		return err
	}, orderbox.TablePendingOrders)
	if err != nil {
		return orderbox.PendingOrder{}, err
	}

	return order, nil
}

// EnqueueTx stores an order draft using an existing transaction, so the
// caller can clear the cart and enqueue atomically. The caller publishes
// change notifications after its own commit.
func (s *Store) EnqueueTx(ctx context.Context, exec Executor, draft orderbox.OrderDraft) (orderbox.PendingOrder, error) {
	if exec == nil {
		return orderbox.PendingOrder{}, ErrExecutorRequired
	}

	return s.enqueue(ctx, exec, draft, s.cfg.Clock.Now())
}

func (s *Store) enqueue(ctx context.Context, exec Executor, draft orderbox.OrderDraft, now time.Time) (orderbox.PendingOrder, error) {
	if err := orderbox.ValidateDraft(draft, s.cfg.ValidateItems); err != nil {
		return orderbox.PendingOrder{}, err
	}

	clientRef := draft.ClientRef
	if clientRef == "" {
		clientRef = uuid.NewString()
	}
	createdAt := now.UnixMilli()

	res, err := exec.ExecContext(
		ctx,
		s.queries.insertOrder,
		draft.OutletID,
		draft.EmployeeName,
		clientRef,
		[]byte(draft.Items),
		createdAt,
		createdAt,
	)
	if err != nil {
		return orderbox.PendingOrder{}, fmt.Errorf("orderbox mysql: insert order failed: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return orderbox.PendingOrder{}, fmt.Errorf("orderbox mysql: order id failed: %w", err)
	}

	return orderbox.PendingOrder{
		ID:                  id,
		OutletID:            draft.OutletID,
		EmployeeName:        draft.EmployeeName,
		ClientRef:           clientRef,
		Items:               draft.Items,
		CreatedAtMillis:     createdAt,
		Attempts:            0,
		NextAttemptAtMillis: createdAt,
	}, nil
}

// PlaceOrder clears the draft cart and enqueues the order in one
// transaction, so a crash between the two cannot lose the order or leave
// a stale cart behind it.
func (s *Store) PlaceOrder(ctx context.Context, draft orderbox.OrderDraft) (orderbox.PendingOrder, error) {
	var order orderbox.PendingOrder
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		order, err = s.enqueue(ctx, tx, draft, s.cfg.Clock.Now())
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, s.queries.clearCart); err != nil {
			return fmt.Errorf("orderbox mysql: clear cart failed: %w", err)
		}

		return nil
	}, orderbox.TableCart, orderbox.TablePendingOrders)
	if err != nil {
		return orderbox.PendingOrder{}, err
	}

	return order, nil
}

// Due returns every order whose retry time has arrived, oldest enqueue
// first.
func (s *Store) Due(ctx context.Context, now time.Time) ([]orderbox.PendingOrder, error) {
	return s.selectOrders(ctx, s.queries.selectDue, now.UnixMilli())
}

// PendingOrders returns all queued orders, oldest first, for the pending
// orders screen.
func (s *Store) PendingOrders(ctx context.Context) ([]orderbox.PendingOrder, error) {
	return s.selectOrders(ctx, s.queries.selectOrders)
}

// Order returns one queued order by ID, or ErrOrderNotFound.
func (s *Store) Order(ctx context.Context, id int64) (orderbox.PendingOrder, error) {
	row := s.db.QueryRowContext(ctx, s.queries.selectOrder, id)

	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return orderbox.PendingOrder{}, orderbox.ErrOrderNotFound
	}
	if err != nil {
		return orderbox.PendingOrder{}, err
	}

	return order, nil
}

// RecordFailure persists the new attempt counter and retry time. Both
// columns only move forward; a delayed write from an older attempt can
// never rewind state persisted by a newer one. Recording against a row
// that has since been delivered or abandoned is a no-op.
func (s *Store) RecordFailure(ctx context.Context, id int64, attempts int, nextAttemptAtMillis int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.queries.updateBackoff, attempts, nextAttemptAtMillis, id); err != nil {
			return fmt.Errorf("orderbox mysql: record failure failed: %w", err)
		}

		return nil
	}, orderbox.TablePendingOrders)
}

// RecordSuccess removes the delivered order. Row deletion is the only
// delivered signal; deleting an already absent row is a no-op.
func (s *Store) RecordSuccess(ctx context.Context, id int64) error {
	return s.deleteOrder(ctx, id)
}

// RecordAbandoned removes an order given up on by retry policy.
func (s *Store) RecordAbandoned(ctx context.Context, id int64) error {
	return s.deleteOrder(ctx, id)
}

func (s *Store) deleteOrder(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.queries.deleteOrder, id); err != nil {
			return fmt.Errorf("orderbox mysql: delete order failed: %w", err)
		}

		return nil
	}, orderbox.TablePendingOrders)
}

// PendingCount returns the number of queued orders.
func (s *Store) PendingCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, s.queries.countPending).Scan(&count); err != nil {
		return 0, fmt.Errorf("orderbox mysql: pending count failed: %w", err)
	}

	return count, nil
}

func (s *Store) selectOrders(ctx context.Context, query string, args ...any) ([]orderbox.PendingOrder, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("orderbox mysql: select orders failed: %w", err)
	}
	defer rows.Close()

	orders := make([]orderbox.PendingOrder, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("orderbox mysql: order rows failed: %w", err)
	}

	return orders, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (orderbox.PendingOrder, error) {
	var (
		order orderbox.PendingOrder
		items []byte
	)

	if err := row.Scan(
		&order.ID,
		&order.OutletID,
		&order.EmployeeName,
		&order.ClientRef,
		&items,
		&order.CreatedAtMillis,
		&order.Attempts,
		&order.NextAttemptAtMillis,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return orderbox.PendingOrder{}, err
		}

		return orderbox.PendingOrder{}, fmt.Errorf("orderbox mysql: scan order failed: %w", err)
	}
	order.Items = items

	return order, nil
}
