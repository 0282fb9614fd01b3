package orderbox

import "github.com/shopspring/decimal"

// CartLine is one line of the in-progress draft order. Name, units, price
// and pack size are snapshots taken when the line was added, so a later
// catalog refresh does not retroactively change a line the staff member
// already reviewed.
type CartLine struct {
	// Key is caller-constructed, normally via LineKey, so re-adding the
	// same selection overwrites the quantity instead of duplicating a row.
	Key                  string
	ProductID            string
	VariationID          string
	Name                 string
	PurchasePackUnit     string
	ConsumptionUOM       string
	UnitPrice            decimal.Decimal
	Qty                  int
	UnitsPerPurchasePack decimal.Decimal
}

// Validate checks required fields.
func (l CartLine) Validate() error {
	if l.Key == "" {
		return ErrLineKeyRequired
	}
	if l.ProductID == "" {
		return ErrLineProductRequired
	}
	if l.Qty < 0 {
		return ErrNegativeQty
	}

	return nil
}

// LineKey derives the cart line key for a product/variation selection.
// Lines without a variation key to the bare product ID.
func LineKey(productID, variationID string) string {
	if variationID == "" {
		return productID
	}

	return productID + ":" + variationID
}
