// Package sequence issues store-scoped, human-readable receipt
// numbers. Allocation is a single atomic increment on the store row,
// so two terminals settling at the same time can never draw the same
// number.
package sequence

import (
	"context"
	"fmt"
)

// DefaultPrefix is used when a store has not configured one.
const DefaultPrefix = "TRX"

// Receipt is an allocated transaction identifier.
type Receipt struct {
	Number int64
	Prefix string
	Suffix string
}

// String renders the identifier as `{prefix}-{number:05d}{suffix}`.
func (r Receipt) String() string {
	prefix := r.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return fmt.Sprintf("%s-%05d%s", prefix, r.Number, r.Suffix)
}

// Allocator hands out the next receipt identifier for a store.
type Allocator struct {
	repo Repository
}

// NewAllocator constructs an Allocator.
func NewAllocator(repo Repository) *Allocator {
	return &Allocator{repo: repo}
}

// Next increments the store counter and returns the formatted id.
// Numbers are gap-tolerant: a rolled-back settlement may burn one.
func (a *Allocator) Next(ctx context.Context, storeID int64) (Receipt, error) {
	receipt, err := a.repo.NextNumber(ctx, storeID)
	if err != nil {
		return Receipt{}, fmt.Errorf("sequence: next number: %w", err)
	}
	return receipt, nil
}
