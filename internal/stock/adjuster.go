package stock

import (
	"context"
	"fmt"
	"log/slog"
)

// Adjuster coordinates stock movements outside of settlement:
// receiving, corrections, spoilage. Settlement decrements go through
// the same repository inside the checkout transaction.
type Adjuster struct {
	repo   Repository
	logger *slog.Logger
}

// NewAdjuster builds an Adjuster.
func NewAdjuster(repo Repository, logger *slog.Logger) *Adjuster {
	return &Adjuster{repo: repo, logger: logger}
}

// Adjust applies a manual stock change and returns the movement.
func (a *Adjuster) Adjust(ctx context.Context, input AdjustmentInput) (Movement, error) {
	if input.Change == 0 {
		return Movement{}, ErrInvalidChange
	}
	if input.StoreID == 0 || input.ProductID == 0 {
		return Movement{}, fmt.Errorf("stock: store and product required")
	}

	var movement Movement
	err := a.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		m, err := repo.ApplyChange(ctx, input.StoreID, input.ProductID, input.Change)
		if err != nil {
			return err
		}
		movement = m
		return nil
	})
	if err != nil {
		return Movement{}, fmt.Errorf("stock: adjust: %w", err)
	}

	a.logger.Info("stock adjusted",
		slog.Int64("store_id", input.StoreID),
		slog.Int64("product_id", input.ProductID),
		slog.Int64("change", input.Change),
		slog.Int64("new_stock", movement.NewStock),
		slog.Int64("actor_id", input.ActorID),
		slog.String("note", input.Note),
	)
	return movement, nil
}

// Sell decrements stock for a sold quantity. Exposed for callers that
// settle outside the full checkout pipeline (e.g. corrections).
func (a *Adjuster) Sell(ctx context.Context, storeID, productID, quantity int64) (Movement, error) {
	if quantity <= 0 {
		return Movement{}, ErrInvalidChange
	}
	return a.Adjust(ctx, AdjustmentInput{StoreID: storeID, ProductID: productID, Change: -quantity, Note: "sale"})
}
