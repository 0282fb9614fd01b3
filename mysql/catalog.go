package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/afterten/orderbox"
)

// ReplaceProducts atomically swaps the cached product list for the given
// snapshot. Either the whole snapshot lands or the previous catalog stays
// intact; a single notification is published after the swap commits.
func (s *Store) ReplaceProducts(ctx context.Context, products []orderbox.Product) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.queries.deleteProducts); err != nil {
			return fmt.Errorf("orderbox mysql: clear products failed: %w", err)
		}
		for _, p := range products {
			if err := s.insertProduct(ctx, tx, p); err != nil {
				return err
			}
		}

		return nil
	}, orderbox.TableProducts)
}

// ReplaceVariations atomically swaps the entire cached variation list.
func (s *Store) ReplaceVariations(ctx context.Context, variations []orderbox.Variation) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.queries.deleteVariations); err != nil {
			return fmt.Errorf("orderbox mysql: clear variations failed: %w", err)
		}
		for _, v := range variations {
			if err := s.insertVariation(ctx, tx, v); err != nil {
				return err
			}
		}

		return nil
	}, orderbox.TableVariations)
}

// ReplaceProductVariations swaps only the variations of one product,
// leaving other products' variations untouched. Used when a product
// detail screen refreshes a single product.
func (s *Store) ReplaceProductVariations(ctx context.Context, productID string, variations []orderbox.Variation) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.queries.deleteProductVariations, productID); err != nil {
			return fmt.Errorf("orderbox mysql: clear product variations failed: %w", err)
		}
		for _, v := range variations {
			if err := s.insertVariation(ctx, tx, v); err != nil {
				return err
			}
		}

		return nil
	}, orderbox.TableVariations)
}

// ClearCatalog removes all cached products and variations.
func (s *Store) ClearCatalog(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.queries.deleteVariations); err != nil {
			return fmt.Errorf("orderbox mysql: clear variations failed: %w", err)
		}
		if _, err := tx.ExecContext(ctx, s.queries.deleteProducts); err != nil {
			return fmt.Errorf("orderbox mysql: clear products failed: %w", err)
		}

		return nil
	}, orderbox.TableProducts, orderbox.TableVariations)
}

// VisibleProducts returns the products shown on the ordering screen,
// sorted by name. Hidden and inactive products are filtered in SQL.
func (s *Store) VisibleProducts(ctx context.Context) ([]orderbox.Product, error) {
	rows, err := s.db.QueryContext(ctx, s.queries.visibleProducts)
	if err != nil {
		return nil, fmt.Errorf("orderbox mysql: select products failed: %w", err)
	}
	defer rows.Close()

	products := make([]orderbox.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("orderbox mysql: product rows failed: %w", err)
	}

	return products, nil
}

// VisibleProductVariations returns the visible variations of one product,
// sorted by name.
func (s *Store) VisibleProductVariations(ctx context.Context, productID string) ([]orderbox.Variation, error) {
	return s.selectVariations(ctx, s.queries.visibleProductVariations, productID)
}

// AllVisibleVariations returns every visible variation across the whole
// catalog. Callers that need grouping bucket the result by ProductID.
func (s *Store) AllVisibleVariations(ctx context.Context) ([]orderbox.Variation, error) {
	return s.selectVariations(ctx, s.queries.visibleVariations)
}

func (s *Store) selectVariations(ctx context.Context, query string, args ...any) ([]orderbox.Variation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("orderbox mysql: select variations failed: %w", err)
	}
	defer rows.Close()

	variations := make([]orderbox.Variation, 0)
	for rows.Next() {
		v, err := scanVariation(rows)
		if err != nil {
			return nil, err
		}
		variations = append(variations, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("orderbox mysql: variation rows failed: %w", err)
	}

	return variations, nil
}

func (s *Store) insertProduct(ctx context.Context, exec Executor, p orderbox.Product) error {
	_, err := exec.ExecContext(
		ctx,
		s.queries.insertProduct,
		p.ID,
		nullStr(p.SKU),
		p.Name,
		nullStr(p.ImageURL),
		nullStr(p.ItemKind),
		p.HasRecipe,
		p.PurchasePackUnit,
		p.ConsumptionUOM,
		p.UnitsPerPurchasePack,
		p.TransferUnit,
		p.TransferQuantity,
		p.PurchaseUnitMass,
		nullStr(p.PurchaseUnitMassUOM),
		p.Cost,
		p.HasVariations,
		p.OutletOrderVisible,
		p.Active,
		nullStr(p.DefaultWarehouseID),
	)
	if err != nil {
		return fmt.Errorf("orderbox mysql: insert product %q failed: %w", p.ID, err)
	}

	return nil
}

func (s *Store) insertVariation(ctx context.Context, exec Executor, v orderbox.Variation) error {
	_, err := exec.ExecContext(
		ctx,
		s.queries.insertVariation,
		v.ID,
		v.ProductID,
		nullStr(v.SKU),
		v.Name,
		nullStr(v.ImageURL),
		v.PurchasePackUnit,
		v.ConsumptionUOM,
		v.UnitsPerPurchasePack,
		v.TransferUnit,
		v.TransferQuantity,
		v.PurchaseUnitMass,
		nullStr(v.PurchaseUnitMassUOM),
		v.Cost,
		v.OutletOrderVisible,
		v.Active,
		nullStr(v.DefaultWarehouseID),
	)
	if err != nil {
		return fmt.Errorf("orderbox mysql: insert variation %q failed: %w", v.ID, err)
	}

	return nil
}

func scanProduct(rows *sql.Rows) (orderbox.Product, error) {
	var (
		p                       orderbox.Product
		sku, imageURL, itemKind sql.NullString
		massUOM, warehouseID    sql.NullString
		mass                    decimal.NullDecimal
	)

	if err := rows.Scan(
		&p.ID,
		&sku,
		&p.Name,
		&imageURL,
		&itemKind,
		&p.HasRecipe,
		&p.PurchasePackUnit,
		&p.ConsumptionUOM,
		&p.UnitsPerPurchasePack,
		&p.TransferUnit,
		&p.TransferQuantity,
		&mass,
		&massUOM,
		&p.Cost,
		&p.HasVariations,
		&p.OutletOrderVisible,
		&p.Active,
		&warehouseID,
	); err != nil {
		return orderbox.Product{}, fmt.Errorf("orderbox mysql: scan product failed: %w", err)
	}

	p.SKU = sku.String
	p.ImageURL = imageURL.String
	p.ItemKind = itemKind.String
	p.PurchaseUnitMass = mass
	p.PurchaseUnitMassUOM = massUOM.String
	p.DefaultWarehouseID = warehouseID.String

	return p, nil
}

func scanVariation(rows *sql.Rows) (orderbox.Variation, error) {
	var (
		v                    orderbox.Variation
		sku, imageURL        sql.NullString
		massUOM, warehouseID sql.NullString
		mass                 decimal.NullDecimal
	)

	if err := rows.Scan(
		&v.ID,
		&v.ProductID,
		&sku,
		&v.Name,
		&imageURL,
		&v.PurchasePackUnit,
		&v.ConsumptionUOM,
		&v.UnitsPerPurchasePack,
		&v.TransferUnit,
		&v.TransferQuantity,
		&mass,
		&massUOM,
		&v.Cost,
		&v.OutletOrderVisible,
		&v.Active,
		&warehouseID,
	); err != nil {
		return orderbox.Variation{}, fmt.Errorf("orderbox mysql: scan variation failed: %w", err)
	}

	v.SKU = sku.String
	v.ImageURL = imageURL.String
	v.PurchaseUnitMass = mass
	v.PurchaseUnitMassUOM = massUOM.String
	v.DefaultWarehouseID = warehouseID.String

	return v, nil
}
