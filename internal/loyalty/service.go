package loyalty

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tillward/tillward/internal/customers"
	"github.com/tillward/tillward/internal/stores"
)

// SettingsSource provides the store's loyalty configuration.
type SettingsSource interface {
	GetSettings(ctx context.Context, storeID int64) (*stores.Settings, error)
}

// Service handles staff-initiated redemption and balance reads.
type Service struct {
	ledger    Repository
	customers customers.Repository
	settings  SettingsSource
	logger    *slog.Logger
}

// NewService constructs a Service.
func NewService(ledger Repository, customerRepo customers.Repository, settings SettingsSource, logger *slog.Logger) *Service {
	return &Service{ledger: ledger, customers: customerRepo, settings: settings, logger: logger}
}

// RedemptionResult reports a successful manual redemption.
type RedemptionResult struct {
	CustomerID int64
	Redeemed   int64
	NewBalance int64
}

// Redeem debits points against a non-purchase reward. Eligibility is
// checked in order before any write: the customer must exist, their
// balance must reach the program minimum, and the requested amount
// must be covered. The conversion to currency value is left to staff
// judgment in the free-text reason; redemption_rate is intentionally
// not consulted here.
func (s *Service) Redeem(ctx context.Context, storeID int64, phone string, points int64, reason string) (*RedemptionResult, error) {
	if points <= 0 {
		return nil, ErrInvalidAmount
	}

	customer, err := s.customers.GetByPhone(ctx, storeID, customers.NormalizePhone(phone))
	if err != nil {
		if errors.Is(err, customers.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("loyalty: lookup customer: %w", err)
	}

	settings, err := s.settings.GetSettings(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("loyalty: load settings: %w", err)
	}
	if customer.Points < settings.Loyalty.MinRedemptionPoints {
		return nil, ErrBelowMinimumBalance
	}
	if points > customer.Points {
		return nil, ErrInsufficientBalance
	}

	result := &RedemptionResult{CustomerID: customer.ID, Redeemed: points}
	err = s.ledger.WithTx(ctx, func(ctx context.Context, ops TxOps) error {
		balance, err := ops.DebitPoints(ctx, customer.ID, points)
		if err != nil {
			if errors.Is(err, customers.ErrInsufficientPoints) {
				return ErrInsufficientBalance
			}
			return err
		}
		result.NewBalance = balance

		_, err = ops.Append(ctx, Entry{
			StoreID:     storeID,
			CustomerID:  customer.ID,
			Points:      -points,
			Kind:        EntryKindRedeemed,
			Description: reason,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("points redeemed",
		slog.Int64("store_id", storeID),
		slog.Int64("customer_id", customer.ID),
		slog.Int64("points", points),
		slog.Int64("new_balance", result.NewBalance),
	)
	return result, nil
}

// Balance returns the cached balance alongside the reconciled ledger
// sum so callers can detect drift.
type Balance struct {
	Customer   *customers.Customer
	Cached     int64
	Reconciled int64
}

// GetBalance loads a customer's balance by phone.
func (s *Service) GetBalance(ctx context.Context, storeID int64, phone string) (*Balance, error) {
	customer, err := s.customers.GetByPhone(ctx, storeID, customers.NormalizePhone(phone))
	if err != nil {
		if errors.Is(err, customers.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	reconciled, err := s.ledger.SumPoints(ctx, storeID, customer.ID)
	if err != nil {
		return nil, fmt.Errorf("loyalty: reconcile balance: %w", err)
	}
	if reconciled != customer.Points {
		s.logger.Warn("loyalty balance drift",
			slog.Int64("customer_id", customer.ID),
			slog.Int64("cached", customer.Points),
			slog.Int64("reconciled", reconciled),
		)
	}
	return &Balance{Customer: customer, Cached: customer.Points, Reconciled: reconciled}, nil
}

// History lists recent ledger entries for a customer.
func (s *Service) History(ctx context.Context, storeID int64, phone string, limit int) ([]Entry, error) {
	customer, err := s.customers.GetByPhone(ctx, storeID, customers.NormalizePhone(phone))
	if err != nil {
		if errors.Is(err, customers.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return s.ledger.ListByCustomer(ctx, storeID, customer.ID, limit)
}
