package orderbox

import "github.com/shopspring/decimal"

// Product is one catalog row as served by the backend. The catalog is
// server-authoritative: rows are replaced wholesale on refresh, never
// patched in place.
type Product struct {
	ID                   string
	SKU                  string
	Name                 string
	ImageURL             string
	ItemKind             string
	HasRecipe            bool
	PurchasePackUnit     string
	ConsumptionUOM       string
	UnitsPerPurchasePack decimal.Decimal
	TransferUnit         string
	TransferQuantity     decimal.Decimal
	PurchaseUnitMass     decimal.NullDecimal
	PurchaseUnitMassUOM  string
	Cost                 decimal.Decimal
	HasVariations        bool
	OutletOrderVisible   bool
	Active               bool
	DefaultWarehouseID   string
}

// Visible reports whether the product may appear in ordering screens.
func (p Product) Visible() bool {
	return p.Active && p.OutletOrderVisible
}

// Variation is a purchasable variant of a product. ProductID is a loose
// reference: a variation whose product disappeared from the catalog is kept
// in storage and simply never surfaces through product-filtered views.
type Variation struct {
	ID                   string
	ProductID            string
	SKU                  string
	Name                 string
	ImageURL             string
	PurchasePackUnit     string
	ConsumptionUOM       string
	UnitsPerPurchasePack decimal.Decimal
	TransferUnit         string
	TransferQuantity     decimal.Decimal
	PurchaseUnitMass     decimal.NullDecimal
	PurchaseUnitMassUOM  string
	Cost                 decimal.Decimal
	OutletOrderVisible   bool
	Active               bool
	DefaultWarehouseID   string
}

// Visible reports whether the variation may appear in ordering screens.
func (v Variation) Visible() bool {
	return v.Active && v.OutletOrderVisible
}
