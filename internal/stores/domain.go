package stores

import (
	"errors"

	"github.com/tillward/tillward/internal/pricing"
)

// LoyaltyProgram is the per-store loyalty configuration.
type LoyaltyProgram struct {
	Enabled             bool    `json:"enabled"`
	EarnRate            float64 `json:"earn_rate"`
	RedemptionRate      float64 `json:"redemption_rate"`
	MinRedemptionPoints int64   `json:"min_redemption_points"`
}

// Settings is the read model checkout and loyalty consult on every
// sale. It is cached aggressively; writes invalidate.
type Settings struct {
	StoreID           int64             `json:"store_id"`
	Name              string            `json:"name"`
	ReceiptPrefix     string            `json:"receipt_prefix"`
	ReceiptSuffix     string            `json:"receipt_suffix"`
	Tax               pricing.TaxPolicy `json:"tax"`
	Loyalty           LoyaltyProgram    `json:"loyalty"`
	LowStockThreshold int64             `json:"low_stock_threshold"`
	OwnerPhone        string            `json:"owner_phone"`
}

// UpdateSettingsInput applies partial changes; nil fields are left
// untouched.
type UpdateSettingsInput struct {
	ReceiptPrefix       *string
	ReceiptSuffix       *string
	TaxEnabled          *bool
	TaxKind             *pricing.TaxKind
	TaxValue            *float64
	LoyaltyEnabled      *bool
	EarnRate            *float64
	RedemptionRate      *float64
	MinRedemptionPoints *int64
	LowStockThreshold   *int64
}

// ErrStoreNotFound indicates an unknown store id.
var ErrStoreNotFound = errors.New("stores: not found")
