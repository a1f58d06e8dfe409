package stock

import (
	"errors"
	"time"
)

// Product is the inventory view of a catalog item.
type Product struct {
	ID        int64
	StoreID   int64
	SKU       string
	Name      string
	Price     float64
	CostPrice float64
	Stock     int64
	CreatedAt time.Time
}

// Movement records the outcome of an atomic stock change. NewStock is
// the value returned by the database, never a client-side computation.
type Movement struct {
	ProductID   int64
	ProductName string
	Change      int64
	NewStock    int64
}

// LowStock reports whether a post-sale stock level should raise a
// low-stock signal. Zero and negative levels are reported separately
// as depletion.
func (m Movement) LowStock(threshold int64) bool {
	return m.NewStock > 0 && m.NewStock <= threshold
}

// Depleted reports stock at or below zero after the movement.
func (m Movement) Depleted() bool {
	return m.NewStock <= 0
}

// AdjustmentInput describes a manual stock adjustment or restock.
type AdjustmentInput struct {
	StoreID   int64
	ProductID int64
	Change    int64
	Note      string
	ActorID   int64
}

// ErrProductNotFound indicates an unknown product for the store.
var ErrProductNotFound = errors.New("stock: product not found")

// ErrInvalidChange indicates a zero-quantity adjustment.
var ErrInvalidChange = errors.New("stock: change must be non zero")
