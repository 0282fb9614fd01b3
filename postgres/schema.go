package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/afterten/orderbox"
)

// EnsureSchema creates the pending orders table if it does not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, opts ...Option) error {
	if pool == nil {
		return ErrPoolRequired
	}

	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg = cfg.withDefaults()

	if err := validateTable(cfg.Table); err != nil {
		return err
	}

	// Index names cannot carry a schema qualifier; use the bare table name.
	bare := cfg.Table
	if i := strings.LastIndexByte(bare, '.'); i >= 0 {
		bare = bare[i+1:]
	}

	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	outlet_id TEXT NOT NULL,
	employee_name TEXT NOT NULL,
	client_ref TEXT NOT NULL,
	items_json JSONB NOT NULL,
	created_at_millis BIGINT NOT NULL,
	attempts INT NOT NULL DEFAULT 0,
	next_attempt_at_millis BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_%s_due ON %s (next_attempt_at_millis, created_at_millis)`,
		cfg.Table, bare, cfg.Table)

	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("orderbox postgres: create schema failed: %w", err)
	}

	return nil
}

// DefaultTable is the table name used when none is configured.
const DefaultTable = orderbox.TablePendingOrders
