package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func cartWithSubtotal(amount float64) []Line {
	return []Line{{ProductID: 1, Quantity: 1, UnitPrice: amount}}
}

func TestQuotePercentageTax(t *testing.T) {
	policy := TaxPolicy{Enabled: true, Kind: TaxKindPercentage, Value: 8}
	totals := Quote(cartWithSubtotal(100), policy, false, 0)

	require.InDelta(t, 100.00, totals.Subtotal, 0.0001)
	require.InDelta(t, 8.00, totals.Tax, 0.0001)
	require.InDelta(t, 0.0, totals.Discount, 0.0001)
	require.InDelta(t, 108.00, totals.GrandTotal, 0.0001)
}

func TestQuoteFixedTax(t *testing.T) {
	policy := TaxPolicy{Enabled: true, Kind: TaxKindFixed, Value: 5}
	totals := Quote(cartWithSubtotal(50), policy, false, 0)

	require.InDelta(t, 50.00, totals.Subtotal, 0.0001)
	require.InDelta(t, 55.00, totals.GrandTotal, 0.0001)
}

func TestQuoteTaxDisabled(t *testing.T) {
	policy := TaxPolicy{Enabled: false, Kind: TaxKindPercentage, Value: 8}
	totals := Quote(cartWithSubtotal(100), policy, false, 0)

	require.InDelta(t, 0.0, totals.Tax, 0.0001)
	require.InDelta(t, 100.00, totals.GrandTotal, 0.0001)
}

func TestQuoteAccumulatesLines(t *testing.T) {
	lines := []Line{
		{ProductID: 1, Quantity: 3, UnitPrice: 2.50},
		{ProductID: 2, Quantity: 2, UnitPrice: 10.25},
		{ProductID: 3, Quantity: 1, UnitPrice: 0.99},
	}
	totals := Quote(lines, TaxPolicy{}, false, 0)
	require.InDelta(t, 28.99, totals.Subtotal, 0.0001)
	require.InDelta(t, totals.Subtotal+totals.Tax-totals.Discount, totals.GrandTotal, 0.0001)
}

func TestQuoteRedemptionDiscount(t *testing.T) {
	totals := Quote(cartWithSubtotal(20), TaxPolicy{}, true, 5)
	require.InDelta(t, 5.0, totals.Discount, 0.0001)
	require.InDelta(t, 15.0, totals.GrandTotal, 0.0001)
}

func TestQuoteClampsAtZero(t *testing.T) {
	totals := Quote(cartWithSubtotal(3), TaxPolicy{}, true, 5)
	require.InDelta(t, 0.0, totals.GrandTotal, 0.0001)
}

func TestQuoteEmptyCart(t *testing.T) {
	totals := Quote(nil, TaxPolicy{Enabled: true, Kind: TaxKindPercentage, Value: 8}, false, 0)
	require.InDelta(t, 0.0, totals.Subtotal, 0.0001)
	require.InDelta(t, 0.0, totals.GrandTotal, 0.0001)
}

func TestBelowCostLines(t *testing.T) {
	lines := []Line{
		{ProductID: 1, Quantity: 1, UnitPrice: 4.00, CatalogPrice: 6.00, CostPrice: 5.00},
		{ProductID: 2, Quantity: 1, UnitPrice: 6.00, CatalogPrice: 6.00, CostPrice: 5.00},
		{ProductID: 3, Quantity: 1, UnitPrice: 1.00},
	}
	require.Equal(t, []int64{1}, BelowCostLines(lines))
}

func TestRound2(t *testing.T) {
	require.InDelta(t, 10.67, Round2(10.666), 0.0001)
	require.InDelta(t, 10.66, Round2(10.664), 0.0001)
	require.InDelta(t, 0.0, Round2(0.001), 0.0001)
}
