package loyalty

import (
	"errors"
	"math"
	"time"
)

// EntryKind enumerates ledger entry types.
type EntryKind string

const (
	// EntryKindEarned credits points after a sale.
	EntryKindEarned EntryKind = "earned"
	// EntryKindRedeemed debits points, in-sale or manually.
	EntryKindRedeemed EntryKind = "redeemed"
)

// Entry is one append-only loyalty_logs row. Points is signed:
// positive for earned, negative for redeemed.
type Entry struct {
	ID          int64
	StoreID     int64
	CustomerID  int64
	Points      int64
	Kind        EntryKind
	Description string
	CreatedAt   time.Time
}

// In-sale redemption quantum: a fixed pairing of points debited and
// currency discounted. Deliberately independent of the configurable
// redemption_rate used nowhere else; see DESIGN.md on the asymmetry.
const (
	RedemptionQuantumPoints   int64   = 100
	RedemptionQuantumDiscount float64 = 5.0
)

// EarnedPoints computes accrual for a settled sale.
func EarnedPoints(grandTotal, earnRate float64) int64 {
	if grandTotal <= 0 || earnRate <= 0 {
		return 0
	}
	return int64(math.Floor(grandTotal * earnRate))
}

// Redemption errors, all raised before any write.
var (
	ErrCustomerNotFound    = errors.New("loyalty: customer not found")
	ErrBelowMinimumBalance = errors.New("loyalty: balance below redemption minimum")
	ErrInsufficientBalance = errors.New("loyalty: insufficient balance")
	ErrInvalidAmount       = errors.New("loyalty: points must be positive")
	ErrProgramDisabled     = errors.New("loyalty: program disabled for store")
)
