package loyalty

import "time"

// RedeemRequest is the staff-initiated redemption payload.
type RedeemRequest struct {
	Phone  string `json:"phone" validate:"required,min=7"`
	Points int64  `json:"points" validate:"required,gt=0"`
	Reason string `json:"reason" validate:"required,max=250"`
}

// RedeemResponse reports the outcome.
type RedeemResponse struct {
	CustomerID int64 `json:"customer_id"`
	Redeemed   int64 `json:"redeemed"`
	NewBalance int64 `json:"new_balance"`
}

// BalanceResponse returns cached and reconciled balances.
type BalanceResponse struct {
	CustomerID int64  `json:"customer_id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Points     int64  `json:"points"`
	Reconciled int64  `json:"reconciled_points"`
}

// EntryResponse is one ledger row.
type EntryResponse struct {
	ID          int64     `json:"id"`
	Points      int64     `json:"points"`
	Kind        string    `json:"type"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
