// Package pricing computes cart totals. Everything here is pure: the
// settlement pipeline and the preview endpoint both call into it and
// must agree on the result.
package pricing

import "math"

// TaxKind enumerates supported tax policies.
type TaxKind string

const (
	// TaxKindPercentage applies value as a percentage of the subtotal.
	TaxKindPercentage TaxKind = "percentage"
	// TaxKindFixed applies value as a flat addend.
	TaxKindFixed TaxKind = "fixed"
)

// TaxPolicy is owned by the store configuration.
type TaxPolicy struct {
	Enabled bool
	Kind    TaxKind
	Value   float64
}

// Line is one cart entry. UnitPrice may be a manual override;
// CatalogPrice and CostPrice are retained for margin comparison.
type Line struct {
	ProductID    int64
	Quantity     int64
	UnitPrice    float64
	CatalogPrice float64
	CostPrice    float64
}

// Total returns the line total.
func (l Line) Total() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

// Totals is the result of a quote. Values carry full float precision;
// rounding happens only at presentation via Round2.
type Totals struct {
	Subtotal   float64
	Tax        float64
	Discount   float64
	GrandTotal float64
}

// Quote computes totals for a cart. redemptionDiscount is the fixed
// in-sale redemption quantum; it is applied only when redeemPoints is
// set. The grand total never goes below zero.
func Quote(lines []Line, policy TaxPolicy, redeemPoints bool, redemptionDiscount float64) Totals {
	var subtotal float64
	for _, line := range lines {
		subtotal += line.Total()
	}

	var tax float64
	if policy.Enabled {
		switch policy.Kind {
		case TaxKindPercentage:
			tax = subtotal * policy.Value / 100
		case TaxKindFixed:
			tax = policy.Value
		}
	}

	var discount float64
	if redeemPoints {
		discount = redemptionDiscount
	}

	grand := subtotal + tax - discount
	if grand < 0 {
		grand = 0
	}

	return Totals{
		Subtotal:   subtotal,
		Tax:        tax,
		Discount:   discount,
		GrandTotal: grand,
	}
}

// BelowCostLines returns the product ids of lines whose overridden
// unit price undercuts the recorded cost price. Checkout surfaces
// these as margin warnings; they never block a sale.
func BelowCostLines(lines []Line) []int64 {
	var ids []int64
	for _, line := range lines {
		if line.CostPrice > 0 && line.UnitPrice < line.CostPrice {
			ids = append(ids, line.ProductID)
		}
	}
	return ids
}

// Round2 rounds a monetary amount to two decimal places for display
// and persistence of final figures.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
