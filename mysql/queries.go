package mysql

import "fmt"

const (
	productCols = "id, sku, name, image_url, item_kind, has_recipe, purchase_pack_unit, consumption_uom, " +
		"units_per_purchase_pack, transfer_unit, transfer_quantity, purchase_unit_mass, purchase_unit_mass_uom, " +
		"cost, has_variations, outlet_order_visible, active, default_warehouse_id"
	variationCols = "id, product_id, sku, name, image_url, purchase_pack_unit, consumption_uom, " +
		"units_per_purchase_pack, transfer_unit, transfer_quantity, purchase_unit_mass, purchase_unit_mass_uom, " +
		"cost, outlet_order_visible, active, default_warehouse_id"
	cartCols = "line_key, product_id, variation_id, name, purchase_pack_unit, consumption_uom, " +
		"unit_price, qty, units_per_purchase_pack"
	pendingCols = "id, outlet_id, employee_name, client_ref, items_json, created_at_millis, attempts, next_attempt_at_millis"

	visiblePredicate = "active = TRUE AND outlet_order_visible = TRUE"
)

type queries struct {
	insertProduct   string
	deleteProducts  string
	visibleProducts string

	insertVariation          string
	deleteVariations         string
	deleteProductVariations  string
	visibleProductVariations string
	visibleVariations        string

	upsertLine string
	deleteLine string
	clearCart  string
	cartLines  string

	insertOrder   string
	selectDue     string
	selectOrders  string
	selectOrder   string
	updateBackoff string
	deleteOrder   string
	countPending  string
}

func newQueries(t tables) queries {
	return queries{
		insertProduct: fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			t.products, productCols,
		),
		deleteProducts: fmt.Sprintf("DELETE FROM %s", t.products),
		visibleProducts: fmt.Sprintf(
			"SELECT %s FROM %s WHERE %s ORDER BY name",
			productCols, t.products, visiblePredicate,
		),

		insertVariation: fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			t.variations, variationCols,
		),
		deleteVariations:        fmt.Sprintf("DELETE FROM %s", t.variations),
		deleteProductVariations: fmt.Sprintf("DELETE FROM %s WHERE product_id = ?", t.variations),
		visibleProductVariations: fmt.Sprintf(
			"SELECT %s FROM %s WHERE product_id = ? AND %s ORDER BY name",
			variationCols, t.variations, visiblePredicate,
		),
		visibleVariations: fmt.Sprintf(
			"SELECT %s FROM %s WHERE %s",
			variationCols, t.variations, visiblePredicate,
		),

		upsertLine: fmt.Sprintf(
			"REPLACE INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			t.cart, cartCols,
		),
		deleteLine: fmt.Sprintf("DELETE FROM %s WHERE line_key = ?", t.cart),
		clearCart:  fmt.Sprintf("DELETE FROM %s", t.cart),
		cartLines:  fmt.Sprintf("SELECT %s FROM %s ORDER BY name", cartCols, t.cart),

		insertOrder: fmt.Sprintf(
			"INSERT INTO %s (outlet_id, employee_name, client_ref, items_json, created_at_millis, attempts, next_attempt_at_millis) "+
				"VALUES (?, ?, ?, ?, ?, 0, ?)",
			t.pending,
		),
		selectDue: fmt.Sprintf(
			"SELECT %s FROM %s WHERE next_attempt_at_millis <= ? ORDER BY created_at_millis ASC, id ASC",
			pendingCols, t.pending,
		),
		selectOrders: fmt.Sprintf(
			"SELECT %s FROM %s ORDER BY created_at_millis ASC, id ASC",
			pendingCols, t.pending,
		),
		selectOrder: fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", pendingCols, t.pending),
		// GREATEST keeps the stored state monotonic: attempts never
		// decrease and the retry time never moves backwards, whatever
		// the caller passes.
		updateBackoff: fmt.Sprintf(
			"UPDATE %s SET attempts = GREATEST(attempts, ?), next_attempt_at_millis = GREATEST(next_attempt_at_millis, ?) WHERE id = ?",
			t.pending,
		),
		deleteOrder:  fmt.Sprintf("DELETE FROM %s WHERE id = ?", t.pending),
		countPending: fmt.Sprintf("SELECT COUNT(*) FROM %s", t.pending),
	}
}
