package stores

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads and writes store configuration.
type Repository interface {
	GetSettings(ctx context.Context, storeID int64) (*Settings, error)
	UpdateSettings(ctx context.Context, storeID int64, input UpdateSettingsInput) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) GetSettings(ctx context.Context, storeID int64) (*Settings, error) {
	const query = `
		SELECT id, name,
		       COALESCE(receipt_prefix, ''), COALESCE(receipt_suffix, ''),
		       tax_enabled, tax_kind, tax_value,
		       loyalty_enabled, earn_rate, redemption_rate, min_redemption_points,
		       low_stock_threshold, COALESCE(owner_phone, '')
		FROM stores
		WHERE id = $1`

	var s Settings
	err := r.pool.QueryRow(ctx, query, storeID).Scan(
		&s.StoreID, &s.Name,
		&s.ReceiptPrefix, &s.ReceiptSuffix,
		&s.Tax.Enabled, &s.Tax.Kind, &s.Tax.Value,
		&s.Loyalty.Enabled, &s.Loyalty.EarnRate, &s.Loyalty.RedemptionRate, &s.Loyalty.MinRedemptionPoints,
		&s.LowStockThreshold, &s.OwnerPhone,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *repository) UpdateSettings(ctx context.Context, storeID int64, input UpdateSettingsInput) error {
	query := "UPDATE stores SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	appendSet := func(column string, value interface{}) {
		query += fmt.Sprintf(", %s = $%d", column, argPos)
		args = append(args, value)
		argPos++
	}

	if input.ReceiptPrefix != nil {
		appendSet("receipt_prefix", *input.ReceiptPrefix)
	}
	if input.ReceiptSuffix != nil {
		appendSet("receipt_suffix", *input.ReceiptSuffix)
	}
	if input.TaxEnabled != nil {
		appendSet("tax_enabled", *input.TaxEnabled)
	}
	if input.TaxKind != nil {
		appendSet("tax_kind", string(*input.TaxKind))
	}
	if input.TaxValue != nil {
		appendSet("tax_value", *input.TaxValue)
	}
	if input.LoyaltyEnabled != nil {
		appendSet("loyalty_enabled", *input.LoyaltyEnabled)
	}
	if input.EarnRate != nil {
		appendSet("earn_rate", *input.EarnRate)
	}
	if input.RedemptionRate != nil {
		appendSet("redemption_rate", *input.RedemptionRate)
	}
	if input.MinRedemptionPoints != nil {
		appendSet("min_redemption_points", *input.MinRedemptionPoints)
	}
	if input.LowStockThreshold != nil {
		appendSet("low_stock_threshold", *input.LowStockThreshold)
	}

	if len(args) == 0 {
		return nil
	}

	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, storeID)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStoreNotFound
	}
	return nil
}
