// Package postgres provides a PostgreSQL pending-order queue for server-side
// deployments that share one database across processes. It implements the
// same queue contract as the mysql store but carries no catalog or cart:
// those stay device-local.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/afterten/orderbox"
)

var (
	// ErrPoolRequired is returned when a nil pool is provided.
	ErrPoolRequired = errors.New("orderbox postgres: pool is required")
	// ErrInvalidTable is returned when the table name has disallowed characters.
	ErrInvalidTable = errors.New("orderbox postgres: invalid table name")
)

// Config defines PostgreSQL queue behavior.
type Config struct {
	// Table is the pending orders table name.
	Table string
	// Clock is the time source for enqueue timestamps.
	Clock orderbox.Clock
	// Hub, when set, receives a pending-orders notification after writes.
	Hub *orderbox.Hub
	// ValidateItems controls JSON validation of order item snapshots.
	ValidateItems    bool
	validateItemsSet bool
}

func (c Config) withDefaults() Config {
	if c.Table == "" {
		c.Table = orderbox.TablePendingOrders
	}
	if c.Clock == nil {
		c.Clock = orderbox.SystemClock{}
	}
	if !c.validateItemsSet {
		c.ValidateItems = true
	}

	return c
}

// Option configures the PostgreSQL queue.
type Option func(*Config)

// WithTable sets the pending orders table name.
func WithTable(table string) Option {
	return func(c *Config) {
		c.Table = table
	}
}

// WithClock sets the time source used by the queue.
func WithClock(clock orderbox.Clock) Option {
	return func(c *Config) {
		c.Clock = clock
	}
}

// WithHub sets a change notification hub.
func WithHub(hub *orderbox.Hub) Option {
	return func(c *Config) {
		c.Hub = hub
	}
}

// WithValidateItems enables or disables JSON validation of item snapshots.
func WithValidateItems(enabled bool) Option {
	return func(c *Config) {
		c.ValidateItems = enabled
		c.validateItemsSet = true
	}
}

// validateTable permits identifier characters with an optional schema
// qualifier, e.g. "pending_orders" or "app.pending_orders". Table names
// are interpolated into SQL text and must never come from user input.
func validateTable(table string) error {
	if table == "" {
		return fmt.Errorf("%w: empty", ErrInvalidTable)
	}

	dots := 0
	for _, r := range table {
		switch {
		case r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case r == '.':
			dots++
			if dots > 1 {
				return fmt.Errorf("%w: %s", ErrInvalidTable, table)
			}
		default:
			return fmt.Errorf("%w: %s", ErrInvalidTable, table)
		}
	}
	if table[0] == '.' || table[len(table)-1] == '.' {
		return fmt.Errorf("%w: %s", ErrInvalidTable, table)
	}

	return nil
}

const pendingCols = "id, outlet_id, employee_name, client_ref, items_json, created_at_millis, attempts, next_attempt_at_millis"

type queries struct {
	insertOrder   string
	selectDue     string
	selectOrder   string
	updateBackoff string
	deleteOrder   string
	countPending  string
}

func newQueries(table string) queries {
	return queries{
		insertOrder: fmt.Sprintf(
			"INSERT INTO %s (outlet_id, employee_name, client_ref, items_json, created_at_millis, attempts, next_attempt_at_millis) "+
				"VALUES ($1, $2, $3, $4, $5, 0, $6) RETURNING id",
			table,
		),
		selectDue: fmt.Sprintf(
			"SELECT %s FROM %s WHERE next_attempt_at_millis <= $1 ORDER BY created_at_millis ASC, id ASC",
			pendingCols, table,
		),
		selectOrder: fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", pendingCols, table),
		// GREATEST keeps the stored state monotonic, matching the mysql
		// store: attempts never decrease and the retry time never moves
		// backwards, whatever the caller passes.
		updateBackoff: fmt.Sprintf(
			"UPDATE %s SET attempts = GREATEST(attempts, $1), next_attempt_at_millis = GREATEST(next_attempt_at_millis, $2) WHERE id = $3",
			table,
		),
		deleteOrder:  fmt.Sprintf("DELETE FROM %s WHERE id = $1", table),
		countPending: fmt.Sprintf("SELECT COUNT(*) FROM %s", table),
	}
}

// Queue is a PostgreSQL-backed pending order queue.
type Queue struct {
	pool    *pgxpool.Pool
	cfg     Config
	queries queries
}

var _ orderbox.Queue = (*Queue)(nil)
var _ orderbox.Abandoner = (*Queue)(nil)
var _ orderbox.PendingCounter = (*Queue)(nil)

// NewQueue constructs a PostgreSQL queue with validated configuration.
func NewQueue(pool *pgxpool.Pool, opts ...Option) (*Queue, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}

	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg = cfg.withDefaults()

	if err := validateTable(cfg.Table); err != nil {
		return nil, err
	}

	return &Queue{pool: pool, cfg: cfg, queries: newQueries(cfg.Table)}, nil
}

// Enqueue durably stores an order draft. The order becomes due immediately.
func (q *Queue) Enqueue(ctx context.Context, draft orderbox.OrderDraft) (orderbox.PendingOrder, error) {
	if err := orderbox.ValidateDraft(draft, q.cfg.ValidateItems); err != nil {
		return orderbox.PendingOrder{}, err
	}

	clientRef := draft.ClientRef
	if clientRef == "" {
		clientRef = uuid.NewString()
	}
	createdAt := q.cfg.Clock.Now().UnixMilli()

	var id int64
	err := q.pool.QueryRow(ctx, q.queries.insertOrder,
		draft.OutletID, draft.EmployeeName, clientRef, []byte(draft.Items), createdAt, createdAt,
	).Scan(&id)
	if err != nil {
		return orderbox.PendingOrder{}, fmt.Errorf("orderbox postgres: insert order failed: %w", err)
	}

	q.publish()

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

// Due returns every order whose retry time has arrived, oldest enqueue first.
func (q *Queue) Due(ctx context.Context, now time.Time) ([]orderbox.PendingOrder, error) {
	rows, err := q.pool.Query(ctx, q.queries.selectDue, now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("orderbox postgres: select due failed: %w", err)
	}
	defer rows.Close()

	orders := make([]orderbox.PendingOrder, 0)
	for rows.Next() {
		var (
			order orderbox.PendingOrder
			items []byte
		)
		if err := rows.Scan(
			&order.ID, &order.OutletID, &order.EmployeeName, &order.ClientRef,
			&items, &order.CreatedAtMillis, &order.Attempts, &order.NextAttemptAtMillis,
		); err != nil {
			return nil, fmt.Errorf("orderbox postgres: scan order failed: %w", err)
		}
		order.Items = items
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("orderbox postgres: order rows failed: %w", err)
	}

	return orders, nil
}

// RecordFailure persists the new attempt counter and retry time. Both
// columns only move forward.
func (q *Queue) RecordFailure(ctx context.Context, id int64, attempts int, nextAttemptAtMillis int64) error {
	if _, err := q.pool.Exec(ctx, q.queries.updateBackoff, attempts, nextAttemptAtMillis, id); err != nil {
		return fmt.Errorf("orderbox postgres: record failure failed: %w", err)
	}

	q.publish()

	return nil
}

// RecordSuccess removes the delivered order.
func (q *Queue) RecordSuccess(ctx context.Context, id int64) error {
	return q.deleteOrder(ctx, id)
}

// RecordAbandoned removes an order given up on by retry policy.
func (q *Queue) RecordAbandoned(ctx context.Context, id int64) error {
	return q.deleteOrder(ctx, id)
}

func (q *Queue) deleteOrder(ctx context.Context, id int64) error {
	if _, err := q.pool.Exec(ctx, q.queries.deleteOrder, id); err != nil {
		return fmt.Errorf("orderbox postgres: delete order failed: %w", err)
	}

	q.publish()

	return nil
}

// Order returns one queued order by ID, or orderbox.ErrOrderNotFound.
func (q *Queue) Order(ctx context.Context, id int64) (orderbox.PendingOrder, error) {
	var (
		order orderbox.PendingOrder
		items []byte
	)
	err := q.pool.QueryRow(ctx, q.queries.selectOrder, id).Scan(
		&order.ID, &order.OutletID, &order.EmployeeName, &order.ClientRef,
		&items, &order.CreatedAtMillis, &order.Attempts, &order.NextAttemptAtMillis,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return orderbox.PendingOrder{}, orderbox.ErrOrderNotFound
	}
	if err != nil {
		return orderbox.PendingOrder{}, fmt.Errorf("orderbox postgres: select order failed: %w", err)
	}
	order.Items = items

	return order, nil
}

// PendingCount returns the number of queued orders.
func (q *Queue) PendingCount(ctx context.Context) (int, error) {
	var count int
	if err := q.pool.QueryRow(ctx, q.queries.countPending).Scan(&count); err != nil {
		return 0, fmt.Errorf("orderbox postgres: pending count failed: %w", err)
	}

	return count, nil
}

func (q *Queue) publish() {
	if q.cfg.Hub != nil {
		q.cfg.Hub.Publish(orderbox.TablePendingOrders)
	}
}
