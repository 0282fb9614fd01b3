package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// The store predates the pack/transfer/mass catalog fields, so the schema
// is kept as an ordered migration chain instead of one CREATE script:
// version 1 is the original product shape, version 2 widens it. Databases
// created by older builds migrate forward; fresh databases replay the
// whole chain.
type migration struct {
	version int
	steps   func(t tables) []step
}

// step is one DDL statement of a migration. DDL in MySQL commits
// implicitly, so a version can fail half-applied; each step therefore
// carries a guard naming the column or index it creates. On replay the
// guard skips steps whose effect is already in place, letting Migrate
// converge after a crash between statements.
type step struct {
	table  string
	column string
	index  string
	stmt   string
}

var schemaMigrations = []migration{
	{version: 1, steps: schemaV1},
	{version: 2, steps: schemaV2},
}

// Migrate brings the database to the current schema version. Each version
// is applied step by step, skipping steps whose guard reports the effect
// already present, and recorded once complete; a failed run resumes at the
// unfinished version.
func Migrate(ctx context.Context, db *sql.DB, opts ...Option) error {
	if db == nil {
		return ErrDBRequired
	}

	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg = cfg.withDefaults()

	t, err := tablesWithPrefix(cfg.TablePrefix)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, versionTableSchema(t)); err != nil {
		return fmt.Errorf("orderbox mysql: create version table failed: %w", err)
	}

	current, err := currentVersion(ctx, db, t)
	if err != nil {
		return err
	}

	last := 0
	for _, m := range schemaMigrations {
		if m.version <= last {
			return ErrMigrationOrder
		}
		last = m.version

		if m.version <= current {
			continue
		}
		for _, s := range m.steps(t) {
			apply, err := s.pending(ctx, db)
			if err != nil {
				return fmt.Errorf("orderbox mysql: migration %d guard failed: %w", m.version, err)
			}
			if !apply {
				continue
			}
			if _, err := db.ExecContext(ctx, s.stmt); err != nil {
				return fmt.Errorf("orderbox mysql: migration %d failed: %w", m.version, err)
			}
		}
		if _, err := db.ExecContext(ctx,
			fmt.Sprintf("INSERT INTO %s (version) VALUES (?)", t.version), m.version); err != nil {
			return fmt.Errorf("orderbox mysql: record migration %d failed: %w", m.version, err)
		}
		cfg.Logger.Info("schema migrated", "version", m.version)
	}

	return nil
}

// pending reports whether the step still needs to run. Unguarded steps
// must be idempotent on their own (CREATE TABLE IF NOT EXISTS).
func (s step) pending(ctx context.Context, db *sql.DB) (bool, error) {
	switch {
	case s.column != "":
		return columnMissing(ctx, db, s.table, s.column)
	case s.index != "":
		return indexMissing(ctx, db, s.table, s.index)
	default:
		return true, nil
	}
}

func splitTable(name string) (schema, table string) {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

func columnMissing(ctx context.Context, db *sql.DB, name, column string) (bool, error) {
	schema, table := splitTable(name)
	var n int
	query := `SELECT COUNT(*) FROM information_schema.COLUMNS
 WHERE TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE()) AND TABLE_NAME = ? AND COLUMN_NAME = ?`
	if err := db.QueryRowContext(ctx, query, schema, table, column).Scan(&n); err != nil {
		return false, fmt.Errorf("orderbox mysql: column check failed: %w", err)
	}

	return n == 0, nil
}

func indexMissing(ctx context.Context, db *sql.DB, name, index string) (bool, error) {
	schema, table := splitTable(name)
	var n int
	query := `SELECT COUNT(*) FROM information_schema.STATISTICS
 WHERE TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE()) AND TABLE_NAME = ? AND INDEX_NAME = ?`
	if err := db.QueryRowContext(ctx, query, schema, table, index).Scan(&n); err != nil {
		return false, fmt.Errorf("orderbox mysql: index check failed: %w", err)
	}

	return n == 0, nil
}

// SchemaVersion returns the highest applied migration version, zero for a
// fresh database.
func SchemaVersion(ctx context.Context, db *sql.DB, opts ...Option) (int, error) {
	if db == nil {
		return 0, ErrDBRequired
	}

	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg = cfg.withDefaults()

	t, err := tablesWithPrefix(cfg.TablePrefix)
	if err != nil {
		return 0, err
	}

	if _, err := db.ExecContext(ctx, versionTableSchema(t)); err != nil {
		return 0, fmt.Errorf("orderbox mysql: create version table failed: %w", err)
	}

	return currentVersion(ctx, db, t)
}

func currentVersion(ctx context.Context, db *sql.DB, t tables) (int, error) {
	var version int
	query := fmt.Sprintf("SELECT COALESCE(MAX(version), 0) FROM %s", t.version)
	if err := db.QueryRowContext(ctx, query).Scan(&version); err != nil {
		return 0, fmt.Errorf("orderbox mysql: read schema version failed: %w", err)
	}

	return version, nil
}

func versionTableSchema(t tables) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	version INT NOT NULL,
	applied_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
	PRIMARY KEY (version)
)`, t.version)
}

func schemaV1(t tables) []step {
	return []step{
		{stmt: fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id VARCHAR(64) NOT NULL,
	sku VARCHAR(64) NULL,
	name VARCHAR(255) NOT NULL,
	image_url VARCHAR(1024) NULL,
	uom VARCHAR(32) NOT NULL DEFAULT 'each',
	cost DECIMAL(18,6) NOT NULL DEFAULT 0,
	has_variations TINYINT(1) NOT NULL DEFAULT 0,
	active TINYINT(1) NOT NULL DEFAULT 1,
	units_per_uom DECIMAL(18,6) NOT NULL DEFAULT 1,
	default_warehouse_id VARCHAR(64) NULL,
	PRIMARY KEY (id),
	INDEX idx_products_name (name)
)`, t.products)},
		{stmt: fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id VARCHAR(64) NOT NULL,
	product_id VARCHAR(64) NOT NULL,
	name VARCHAR(255) NOT NULL,
	image_url VARCHAR(1024) NULL,
	uom VARCHAR(32) NOT NULL DEFAULT 'each',
	cost DECIMAL(18,6) NOT NULL DEFAULT 0,
	active TINYINT(1) NOT NULL DEFAULT 1,
	units_per_uom DECIMAL(18,6) NOT NULL DEFAULT 1,
	default_warehouse_id VARCHAR(64) NULL,
	PRIMARY KEY (id),
	INDEX idx_variations_product (product_id, name)
)`, t.variations)},
		{stmt: fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	line_key VARCHAR(191) NOT NULL,
	product_id VARCHAR(64) NOT NULL,
	variation_id VARCHAR(64) NULL,
	name VARCHAR(255) NOT NULL,
	uom VARCHAR(32) NOT NULL DEFAULT 'each',
	unit_price DECIMAL(18,6) NOT NULL DEFAULT 0,
	qty INT NOT NULL DEFAULT 0,
	units_per_uom DECIMAL(18,6) NOT NULL DEFAULT 1,
	PRIMARY KEY (line_key)
)`, t.cart)},
		{stmt: fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGINT NOT NULL AUTO_INCREMENT,
	outlet_id VARCHAR(64) NOT NULL,
	employee_name VARCHAR(255) NOT NULL,
	client_ref CHAR(36) NOT NULL,
	items_json MEDIUMTEXT NOT NULL,
	created_at_millis BIGINT NOT NULL,
	attempts INT NOT NULL DEFAULT 0,
	next_attempt_at_millis BIGINT NOT NULL,
	PRIMARY KEY (id),
	INDEX idx_pending_due (next_attempt_at_millis, created_at_millis)
)`, t.pending)},
	}
}

func schemaV2(t tables) []step {
	return []step{
		// Existing rows default to visible so a migrated catalog does not
		// blank the ordering screen before the next refresh. The guard
		// column is the last one each ALTER adds; the statement commits
		// atomically, so its presence means the whole ALTER landed.
		{table: t.products, column: "outlet_order_visible", stmt: fmt.Sprintf(`ALTER TABLE %s
	ADD COLUMN item_kind VARCHAR(64) NULL AFTER image_url,
	ADD COLUMN has_recipe TINYINT(1) NOT NULL DEFAULT 0 AFTER item_kind,
	CHANGE COLUMN uom purchase_pack_unit VARCHAR(32) NOT NULL DEFAULT 'each',
	ADD COLUMN consumption_uom VARCHAR(32) NOT NULL DEFAULT 'each' AFTER purchase_pack_unit,
	CHANGE COLUMN units_per_uom units_per_purchase_pack DECIMAL(18,6) NOT NULL DEFAULT 1,
	ADD COLUMN transfer_unit VARCHAR(32) NOT NULL DEFAULT 'each',
	ADD COLUMN transfer_quantity DECIMAL(18,6) NOT NULL DEFAULT 1,
	ADD COLUMN purchase_unit_mass DECIMAL(18,6) NULL,
	ADD COLUMN purchase_unit_mass_uom VARCHAR(32) NULL,
	ADD COLUMN outlet_order_visible TINYINT(1) NOT NULL DEFAULT 1`, t.products)},
		{table: t.products, index: "idx_products_visible_name", stmt: fmt.Sprintf(`ALTER TABLE %s
	DROP INDEX idx_products_name,
	ADD INDEX idx_products_visible_name (active, outlet_order_visible, name)`, t.products)},
		{table: t.variations, column: "outlet_order_visible", stmt: fmt.Sprintf(`ALTER TABLE %s
	ADD COLUMN sku VARCHAR(64) NULL AFTER product_id,
	CHANGE COLUMN uom purchase_pack_unit VARCHAR(32) NOT NULL DEFAULT 'each',
	ADD COLUMN consumption_uom VARCHAR(32) NOT NULL DEFAULT 'each' AFTER purchase_pack_unit,
	CHANGE COLUMN units_per_uom units_per_purchase_pack DECIMAL(18,6) NOT NULL DEFAULT 1,
	ADD COLUMN transfer_unit VARCHAR(32) NOT NULL DEFAULT 'each',
	ADD COLUMN transfer_quantity DECIMAL(18,6) NOT NULL DEFAULT 1,
	ADD COLUMN purchase_unit_mass DECIMAL(18,6) NULL,
	ADD COLUMN purchase_unit_mass_uom VARCHAR(32) NULL,
	ADD COLUMN outlet_order_visible TINYINT(1) NOT NULL DEFAULT 1`, t.variations)},
		{table: t.variations, index: "idx_variations_visible", stmt: fmt.Sprintf(`ALTER TABLE %s
	DROP INDEX idx_variations_product,
	ADD INDEX idx_variations_visible (product_id, active, outlet_order_visible, name)`, t.variations)},
		{table: t.cart, column: "consumption_uom", stmt: fmt.Sprintf(`ALTER TABLE %s
	CHANGE COLUMN uom purchase_pack_unit VARCHAR(32) NOT NULL DEFAULT 'each',
	ADD COLUMN consumption_uom VARCHAR(32) NOT NULL DEFAULT 'each' AFTER purchase_pack_unit,
	CHANGE COLUMN units_per_uom units_per_purchase_pack DECIMAL(18,6) NOT NULL DEFAULT 1`, t.cart)},
	}
}
