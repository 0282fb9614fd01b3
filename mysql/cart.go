package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/afterten/orderbox"
)

// UpsertLine writes a cart line keyed by line.Key, overwriting any prior
// line with the same key. A zero quantity removes the line, so quantity
// steppers can drive the cart through this single call.
func (s *Store) UpsertLine(ctx context.Context, line orderbox.CartLine) error {
	if line.Key == "" {
		line.Key = orderbox.LineKey(line.ProductID, line.VariationID)
	}
	if err := line.Validate(); err != nil {
		return err
	}
	if line.Qty == 0 {
		return s.DeleteLine(ctx, line.Key)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(
			ctx,
			s.queries.upsertLine,
			line.Key,
			line.ProductID,
			nullStr(line.VariationID),
			line.Name,
			line.PurchasePackUnit,
			line.ConsumptionUOM,
			line.UnitPrice,
			line.Qty,
			line.UnitsPerPurchasePack,
		)
		if err != nil {
			return fmt.Errorf("orderbox mysql: upsert cart line failed: %w", err)
		}

		return nil
	}, orderbox.TableCart)
}

// DeleteLine removes one cart line. Deleting an absent key is a no-op
// that still notifies, which at worst costs one redundant recompute.
func (s *Store) DeleteLine(ctx context.Context, key string) error {
	if key == "" {
		return orderbox.ErrLineKeyRequired
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.queries.deleteLine, key); err != nil {
			return fmt.Errorf("orderbox mysql: delete cart line failed: %w", err)
		}

		return nil
	}, orderbox.TableCart)
}

// ClearCart removes every line of the draft cart.
func (s *Store) ClearCart(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.queries.clearCart); err != nil {
			return fmt.Errorf("orderbox mysql: clear cart failed: %w", err)
		}

		return nil
	}, orderbox.TableCart)
}

// CartLines returns the draft cart sorted by line name.
func (s *Store) CartLines(ctx context.Context) ([]orderbox.CartLine, error) {
	rows, err := s.db.QueryContext(ctx, s.queries.cartLines)
	if err != nil {
		return nil, fmt.Errorf("orderbox mysql: select cart failed: %w", err)
	}
	defer rows.Close()

	lines := make([]orderbox.CartLine, 0)
	for rows.Next() {
		var (
			line        orderbox.CartLine
			variationID sql.NullString
		)
		if err := rows.Scan(
			&line.Key,
			&line.ProductID,
			&variationID,
			&line.Name,
			&line.PurchasePackUnit,
			&line.ConsumptionUOM,
			&line.UnitPrice,
			&line.Qty,
			&line.UnitsPerPurchasePack,
		); err != nil {
			return nil, fmt.Errorf("orderbox mysql: scan cart line failed: %w", err)
		}
		line.VariationID = variationID.String
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("orderbox mysql: cart rows failed: %w", err)
	}

	return lines, nil
}
