package postgres

import (
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/afterten/orderbox"
)

func TestNewQueueValidation(t *testing.T) {
	if _, err := NewQueue(nil); !errors.Is(err, ErrPoolRequired) {
		t.Fatalf("expected ErrPoolRequired, got %v", err)
	}
	if _, err := NewQueue(&pgxpool.Pool{}, WithTable("pending; DROP TABLE x")); !errors.Is(err, ErrInvalidTable) {
		t.Fatalf("expected ErrInvalidTable, got %v", err)
	}
}

func TestNewQueueDefaults(t *testing.T) {
	queue, err := NewQueue(&pgxpool.Pool{})
	if err != nil {
		t.Fatalf("new queue: %v", err)
	}
	if queue.cfg.Table != orderbox.TablePendingOrders {
		t.Fatalf("unexpected table %q", queue.cfg.Table)
	}
	if queue.cfg.Clock == nil {
		t.Fatalf("expected a default clock")
	}
	if !queue.cfg.ValidateItems {
		t.Fatalf("expected item validation on by default")
	}
}

func TestNewQueueOptions(t *testing.T) {
	hub := orderbox.NewHub()
	queue, err := NewQueue(&pgxpool.Pool{},
		WithTable("app_pending_orders"),
		WithHub(hub),
		WithValidateItems(false),
	)
	if err != nil {
		t.Fatalf("new queue: %v", err)
	}
	if queue.cfg.Table != "app_pending_orders" {
		t.Fatalf("unexpected table %q", queue.cfg.Table)
	}
	if queue.cfg.Hub != hub {
		t.Fatalf("expected the provided hub")
	}
	if queue.cfg.ValidateItems {
		t.Fatalf("expected item validation off")
	}
}

func TestValidateTable(t *testing.T) {
	valid := []string{"pending_orders", "POS1_pending", "app.pending_orders"}
	for _, table := range valid {
		if err := validateTable(table); err != nil {
			t.Fatalf("expected valid table %q: %v", table, err)
		}
	}

	invalid := []string{"", "pending-orders", "pending;drop", "a..b", ".pending", "pending.", `pending"orders`, "pending orders"}
	for _, table := range invalid {
		err := validateTable(table)
		if !errors.Is(err, ErrInvalidTable) {
			t.Fatalf("expected invalid table %q, got %v", table, err)
		}
	}
}

func TestQueriesUseTable(t *testing.T) {
	q := newQueries("app.pending_orders")
	for _, query := range []string{q.insertOrder, q.selectDue, q.selectOrder, q.updateBackoff, q.deleteOrder, q.countPending} {
		if !strings.Contains(query, "app.pending_orders") {
			t.Fatalf("query does not reference the configured table: %s", query)
		}
	}
}

func TestInsertQueryShape(t *testing.T) {
	q := newQueries("pending_orders")
	if !strings.Contains(q.insertOrder, "RETURNING id") {
		t.Fatalf("insert must return the assigned id: %s", q.insertOrder)
	}
	if !strings.Contains(q.insertOrder, ", 0, $6)") {
		t.Fatalf("insert must start orders at zero attempts: %s", q.insertOrder)
	}
}

func TestDueQueryOrdersByAge(t *testing.T) {
	q := newQueries("pending_orders")
	if !strings.Contains(q.selectDue, "next_attempt_at_millis <= $1") {
		t.Fatalf("due query must filter on the retry time: %s", q.selectDue)
	}
	if !strings.Contains(q.selectDue, "ORDER BY created_at_millis ASC, id ASC") {
		t.Fatalf("due query must order oldest enqueue first: %s", q.selectDue)
	}
}

func TestBackoffQueryIsMonotonic(t *testing.T) {
	q := newQueries("pending_orders")
	if !strings.Contains(q.updateBackoff, "attempts = GREATEST(attempts, $1)") {
		t.Fatalf("attempts must never decrease: %s", q.updateBackoff)
	}
	if !strings.Contains(q.updateBackoff, "next_attempt_at_millis = GREATEST(next_attempt_at_millis, $2)") {
		t.Fatalf("retry time must never move backwards: %s", q.updateBackoff)
	}
}
