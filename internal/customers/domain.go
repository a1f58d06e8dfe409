package customers

import (
	"errors"
	"time"
)

// Customer is a loyalty-enrolled shopper, soft-unique by phone within
// a store. Points is a cached balance; loyalty_logs remains the
// authoritative history.
type Customer struct {
	ID          int64
	StoreID     int64
	Phone       string
	Name        string
	Points      int64
	TotalSpent  float64
	TotalVisits int64
	LastVisit   *time.Time
	CreatedAt   time.Time
}

// VisitUpdate carries the per-sale totals mutation.
type VisitUpdate struct {
	CustomerID int64
	Spent      float64
	VisitedAt  time.Time
}

var (
	// ErrNotFound indicates no customer matches the lookup.
	ErrNotFound = errors.New("customers: not found")
	// ErrPhoneRequired indicates a create without a phone number.
	ErrPhoneRequired = errors.New("customers: phone required")
	// ErrInsufficientPoints indicates a conditional debit found less
	// balance than requested.
	ErrInsufficientPoints = errors.New("customers: insufficient points")
)
