package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/tillward/tillward/internal/customers"
	"github.com/tillward/tillward/internal/loyalty"
	"github.com/tillward/tillward/internal/notify"
	"github.com/tillward/tillward/internal/pricing"
	"github.com/tillward/tillward/internal/shared"
	"github.com/tillward/tillward/internal/stock"
	"github.com/tillward/tillward/internal/stores"
)

// SettingsSource yields the store configuration a settlement consults.
// Satisfied by stores.Service.
type SettingsSource interface {
	GetSettings(ctx context.Context, storeID int64) (*stores.Settings, error)
}

// IdempotencyGuard claims and releases attempt keys. Satisfied by
// shared.IdempotencyStore.
type IdempotencyGuard interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

const idempotencyModule = "checkout"

// Service runs the sale settlement pipeline.
type Service struct {
	repo      Repository
	products  stock.Repository
	customers *customers.Service
	settings  SettingsSource
	idem      IdempotencyGuard
	emitter   notify.Emitter
	logger    *slog.Logger
}

// NewService constructs a Service.
func NewService(
	repo Repository,
	products stock.Repository,
	customerSvc *customers.Service,
	settings SettingsSource,
	idem IdempotencyGuard,
	emitter notify.Emitter,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		products:  products,
		customers: customerSvc,
		settings:  settings,
		idem:      idem,
		emitter:   emitter,
		logger:    logger,
	}
}

// Settle runs one checkout attempt end to end. All durable writes
// happen in a single transaction; everything after commit degrades to
// warnings on the result instead of failing the sale.
func (s *Service) Settle(ctx context.Context, req SettleRequest) (*SettlementResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	settings, err := s.settings.GetSettings(ctx, req.StoreID)
	if err != nil {
		return nil, fmt.Errorf("checkout: load settings: %w", err)
	}

	lines, err := s.priceLines(ctx, req.StoreID, req.Lines)
	if err != nil {
		return nil, err
	}

	result := &SettlementResult{}

	// Customer resolution degrades to a guest sale on infrastructure
	// failure. A redemption cannot degrade: it needs a member balance.
	var customer *customers.Customer
	if req.CustomerPhone != "" {
		resolution, err := s.customers.Resolve(ctx, req.StoreID, req.CustomerPhone, req.CustomerName)
		switch {
		case err == nil:
			customer = resolution.Customer
			result.IsNewCustomer = resolution.IsNew
		case errors.Is(err, customers.ErrPhoneRequired):
			return nil, err
		default:
			if req.RedeemPoints {
				return nil, fmt.Errorf("checkout: resolve customer: %w", err)
			}
			s.logger.Warn("customer lookup failed, continuing as guest",
				slog.Int64("store_id", req.StoreID), slog.Any("error", err))
			result.Warnings = append(result.Warnings, Warning{
				Code:    WarnCustomerLookupFailed,
				Message: "customer lookup failed, sale recorded without loyalty",
			})
		}
	}

	if req.RedeemPoints {
		if customer == nil {
			return nil, ErrRedeemRequiresMember
		}
		if !settings.Loyalty.Enabled {
			return nil, loyalty.ErrProgramDisabled
		}
		if customer.Points < loyalty.RedemptionQuantumPoints {
			return nil, loyalty.ErrInsufficientBalance
		}
	}

	totals := pricing.Quote(lines, settings.Tax, req.RedeemPoints, loyalty.RedemptionQuantumDiscount)
	for _, id := range pricing.BelowCostLines(lines) {
		result.Warnings = append(result.Warnings, Warning{
			Code:    WarnBelowCostPrice,
			Message: fmt.Sprintf("product %d sold below cost price", id),
		})
	}

	accrue := settings.Loyalty.Enabled && customer != nil
	var pointsEarned int64
	if accrue {
		pointsEarned = loyalty.EarnedPoints(totals.GrandTotal, settings.Loyalty.EarnRate)
	}

	if err := s.idem.CheckAndInsert(ctx, req.IdempotencyKey, idempotencyModule); err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			return s.replaySettled(ctx, req)
		}
		return nil, fmt.Errorf("checkout: idempotency check: %w", err)
	}

	var movements []stock.Movement
	txErr := s.repo.WithTx(ctx, func(ctx context.Context, ops TxOps) error {
		receipt, err := ops.AllocateReceipt(ctx, req.StoreID)
		if err != nil {
			return fmt.Errorf("allocate receipt: %w", err)
		}
		result.ReceiptNo = receipt.String()
		result.PublicID = uuid.New()

		sale := Sale{
			PublicID:       result.PublicID,
			StoreID:        req.StoreID,
			ReceiptNo:      result.ReceiptNo,
			TotalAmount:    pricing.Round2(totals.GrandTotal),
			PaymentMethod:  req.PaymentMethod,
			EmployeeID:     req.EmployeeID,
			Status:         SaleStatusCompleted,
			IdempotencyKey: req.IdempotencyKey,
		}
		if customer != nil {
			sale.CustomerID = &customer.ID
		}
		saleID, err := ops.InsertSale(ctx, sale)
		if err != nil {
			if errors.Is(err, ErrDuplicateCheckout) {
				return err
			}
			return fmt.Errorf("%w: %v", ErrSaleWrite, err)
		}
		result.SaleID = saleID

		items := make([]SaleItem, 0, len(lines))
		for _, line := range lines {
			items = append(items, SaleItem{
				SaleID:      saleID,
				ProductID:   line.ProductID,
				Quantity:    line.Quantity,
				PriceAtSale: line.UnitPrice,
				Subtotal:    pricing.Round2(line.Total()),
			})
		}
		if err := ops.InsertItems(ctx, saleID, items); err != nil {
			return fmt.Errorf("%w: %v", ErrSaleWrite, err)
		}

		for _, line := range lines {
			movement, err := ops.DecrementStock(ctx, req.StoreID, line.ProductID, line.Quantity)
			if err != nil {
				return fmt.Errorf("decrement stock for product %d: %w", line.ProductID, err)
			}
			movements = append(movements, movement)
		}

		if customer != nil {
			balance := customer.Points

			if req.RedeemPoints {
				balance, err = ops.DebitPoints(ctx, customer.ID, loyalty.RedemptionQuantumPoints)
				if err != nil {
					if errors.Is(err, customers.ErrInsufficientPoints) {
						return loyalty.ErrInsufficientBalance
					}
					return fmt.Errorf("debit points: %w", err)
				}
				if _, err := ops.AppendLedger(ctx, loyalty.Entry{
					StoreID:     req.StoreID,
					CustomerID:  customer.ID,
					Points:      -loyalty.RedemptionQuantumPoints,
					Kind:        loyalty.EntryKindRedeemed,
					Description: fmt.Sprintf("redeemed at sale %s", result.ReceiptNo),
				}); err != nil {
					return fmt.Errorf("append redemption entry: %w", err)
				}
			}

			if pointsEarned > 0 {
				balance, err = ops.CreditPoints(ctx, customer.ID, pointsEarned)
				if err != nil {
					return fmt.Errorf("credit points: %w", err)
				}
				if _, err := ops.AppendLedger(ctx, loyalty.Entry{
					StoreID:     req.StoreID,
					CustomerID:  customer.ID,
					Points:      pointsEarned,
					Kind:        loyalty.EntryKindEarned,
					Description: fmt.Sprintf("earned at sale %s", result.ReceiptNo),
				}); err != nil {
					return fmt.Errorf("append earn entry: %w", err)
				}
			}

			if err := ops.RecordVisit(ctx, customers.VisitUpdate{
				CustomerID: customer.ID,
				Spent:      pricing.Round2(totals.GrandTotal),
				VisitedAt:  time.Now().UTC(),
			}); err != nil {
				return fmt.Errorf("record visit: %w", err)
			}
			result.PointsBalance = balance
		}
		return nil
	})
	if txErr != nil {
		// The attempt did not settle, so the key must not block a retry.
		if delErr := s.idem.Delete(ctx, req.IdempotencyKey); delErr != nil {
			s.logger.Error("idempotency key rollback failed",
				slog.String("key", req.IdempotencyKey), slog.Any("error", delErr))
		}
		if errors.Is(txErr, ErrDuplicateCheckout) {
			return s.replaySettled(ctx, req)
		}
		return nil, fmt.Errorf("checkout: settle: %w", txErr)
	}

	result.Subtotal = pricing.Round2(totals.Subtotal)
	result.Tax = pricing.Round2(totals.Tax)
	result.Discount = pricing.Round2(totals.Discount)
	result.GrandTotal = pricing.Round2(totals.GrandTotal)
	result.PointsEarned = pointsEarned

	s.appendStockWarnings(result, movements, settings.LowStockThreshold)
	s.emitNotifications(ctx, req, settings, customer, movements, result)

	s.logger.Info("sale settled",
		slog.Int64("store_id", req.StoreID),
		slog.Int64("sale_id", result.SaleID),
		slog.String("receipt_no", result.ReceiptNo),
		slog.Float64("grand_total", result.GrandTotal),
		slog.Int("warnings", len(result.Warnings)),
	)
	return result, nil
}

// replaySettled resolves a duplicate attempt. If the original attempt
// committed, the retry is answered with the recorded sale; if it
// rolled back after claiming the key, the client gets an explicit
// conflict rather than a second sale.
func (s *Service) replaySettled(ctx context.Context, req SettleRequest) (*SettlementResult, error) {
	sale, err := s.repo.GetSaleByIdempotencyKey(ctx, req.StoreID, req.IdempotencyKey)
	if err != nil {
		if errors.Is(err, ErrSaleNotFound) {
			return nil, ErrDuplicateCheckout
		}
		return nil, fmt.Errorf("checkout: replay lookup: %w", err)
	}
	s.logger.Info("duplicate checkout replayed",
		slog.Int64("store_id", req.StoreID), slog.Int64("sale_id", sale.ID))
	return &SettlementResult{
		SaleID:     sale.ID,
		PublicID:   sale.PublicID,
		ReceiptNo:  sale.ReceiptNo,
		GrandTotal: sale.TotalAmount,
	}, nil
}

// priceLines validates the cart against the catalog and produces
// pricing input. Every product must belong to the store.
func (s *Service) priceLines(ctx context.Context, storeID int64, cart []CartLine) ([]pricing.Line, error) {
	ids := make([]int64, 0, len(cart))
	for _, line := range cart {
		ids = append(ids, line.ProductID)
	}
	products, err := s.products.GetProducts(ctx, storeID, ids)
	if err != nil {
		return nil, fmt.Errorf("checkout: load products: %w", err)
	}

	lines := make([]pricing.Line, 0, len(cart))
	for _, line := range cart {
		product, ok := products[line.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownProduct, line.ProductID)
		}
		unitPrice := product.Price
		if line.UnitPrice != nil {
			unitPrice = *line.UnitPrice
		}
		lines = append(lines, pricing.Line{
			ProductID:    line.ProductID,
			Quantity:     line.Quantity,
			UnitPrice:    unitPrice,
			CatalogPrice: product.Price,
			CostPrice:    product.CostPrice,
		})
	}
	return lines, nil
}

func (s *Service) appendStockWarnings(result *SettlementResult, movements []stock.Movement, threshold int64) {
	for _, m := range movements {
		switch {
		case m.NewStock < 0:
			result.Warnings = append(result.Warnings, Warning{
				Code:    WarnNegativeStock,
				Message: fmt.Sprintf("%s oversold, recorded stock is %d", m.ProductName, m.NewStock),
			})
		case m.NewStock == 0:
			result.Warnings = append(result.Warnings, Warning{
				Code:    WarnOutOfStock,
				Message: fmt.Sprintf("%s is out of stock", m.ProductName),
			})
		case m.LowStock(threshold):
			result.Warnings = append(result.Warnings, Warning{
				Code:    WarnLowStock,
				Message: fmt.Sprintf("%s is low on stock (%d left)", m.ProductName, m.NewStock),
			})
		}
	}
}

// emitNotifications enqueues post-commit dispatch tasks. Failures are
// surfaced as warnings on the result; the sale is already durable.
func (s *Service) emitNotifications(
	ctx context.Context,
	req SettleRequest,
	settings *stores.Settings,
	customer *customers.Customer,
	movements []stock.Movement,
	result *SettlementResult,
) {
	emit := func(task *asynq.Task, buildErr error, what string) {
		if buildErr != nil {
			s.logger.Error("notification build failed", slog.String("what", what), slog.Any("error", buildErr))
			result.Warnings = append(result.Warnings, Warning{
				Code:    WarnNotificationFailed,
				Message: fmt.Sprintf("%s notification not sent", what),
			})
			return
		}
		if err := s.emitter.Emit(ctx, task); err != nil {
			s.logger.Error("notification enqueue failed", slog.String("what", what), slog.Any("error", err))
			result.Warnings = append(result.Warnings, Warning{
				Code:    WarnNotificationFailed,
				Message: fmt.Sprintf("%s notification not sent", what),
			})
		}
	}

	if customer != nil && result.IsNewCustomer {
		task, err := notify.NewWelcomeTask(notify.WelcomePayload{
			StoreID:      req.StoreID,
			StoreName:    settings.Name,
			CustomerID:   customer.ID,
			CustomerName: customer.Name,
			Phone:        customer.Phone,
		})
		emit(task, err, "welcome")
	}

	receipt := notify.SaleReceiptPayload{
		StoreID:       req.StoreID,
		StoreName:     settings.Name,
		SaleID:        result.SaleID,
		ReceiptNo:     result.ReceiptNo,
		GrandTotal:    result.GrandTotal,
		PaymentMethod: req.PaymentMethod,
		OwnerPhone:    settings.OwnerPhone,
		PointsEarned:  result.PointsEarned,
		PointsBalance: result.PointsBalance,
	}
	if customer != nil {
		receipt.CustomerID = customer.ID
		receipt.Phone = customer.Phone
	}
	task, err := notify.NewSaleReceiptTask(receipt)
	emit(task, err, "receipt")

	for _, m := range movements {
		if m.NewStock > 0 && !m.LowStock(settings.LowStockThreshold) {
			continue
		}
		task, err := notify.NewLowStockTask(notify.LowStockPayload{
			StoreID:     req.StoreID,
			ProductID:   m.ProductID,
			ProductName: m.ProductName,
			NewStock:    m.NewStock,
			OwnerPhone:  settings.OwnerPhone,
		})
		emit(task, err, "low stock")
	}
}

// Preview prices a cart without writing anything. Settings and the
// optional customer load concurrently; the same quote code path as
// Settle keeps the two in agreement.
func (s *Service) Preview(ctx context.Context, req SettleRequest) (*SettlementResult, error) {
	if len(req.Lines) == 0 {
		return nil, ErrEmptyCart
	}
	for _, line := range req.Lines {
		if line.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
	}

	var (
		settings *stores.Settings
		customer *customers.Customer
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		settings, err = s.settings.GetSettings(gctx, req.StoreID)
		return err
	})
	if req.CustomerPhone != "" {
		g.Go(func() error {
			found, err := s.customers.GetByPhone(gctx, req.StoreID, req.CustomerPhone)
			if err != nil {
				if errors.Is(err, customers.ErrNotFound) {
					return nil
				}
				return err
			}
			customer = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("checkout: preview: %w", err)
	}

	lines, err := s.priceLines(ctx, req.StoreID, req.Lines)
	if err != nil {
		return nil, err
	}

	if req.RedeemPoints {
		if customer == nil {
			return nil, ErrRedeemRequiresMember
		}
		if !settings.Loyalty.Enabled {
			return nil, loyalty.ErrProgramDisabled
		}
		if customer.Points < loyalty.RedemptionQuantumPoints {
			return nil, loyalty.ErrInsufficientBalance
		}
	}

	totals := pricing.Quote(lines, settings.Tax, req.RedeemPoints, loyalty.RedemptionQuantumDiscount)
	result := &SettlementResult{
		Subtotal:   pricing.Round2(totals.Subtotal),
		Tax:        pricing.Round2(totals.Tax),
		Discount:   pricing.Round2(totals.Discount),
		GrandTotal: pricing.Round2(totals.GrandTotal),
	}
	if settings.Loyalty.Enabled && customer != nil {
		result.PointsEarned = loyalty.EarnedPoints(totals.GrandTotal, settings.Loyalty.EarnRate)
		result.PointsBalance = customer.Points
	}
	for _, id := range pricing.BelowCostLines(lines) {
		result.Warnings = append(result.Warnings, Warning{
			Code:    WarnBelowCostPrice,
			Message: fmt.Sprintf("product %d sold below cost price", id),
		})
	}
	return result, nil
}

// GetSale loads a settled sale with its items.
func (s *Service) GetSale(ctx context.Context, storeID, saleID int64) (*Sale, []SaleItem, error) {
	return s.repo.GetSale(ctx, storeID, saleID)
}

// ListSales pages through a store's sales, newest first.
func (s *Service) ListSales(ctx context.Context, storeID int64, limit, offset int) ([]Sale, int, error) {
	return s.repo.ListSales(ctx, storeID, limit, offset)
}

// DeleteSale removes a sale record. Stock and loyalty are not
// reversed; corrections are explicit adjustments.
func (s *Service) DeleteSale(ctx context.Context, storeID, saleID int64) error {
	if err := s.repo.DeleteSale(ctx, storeID, saleID); err != nil {
		return err
	}
	s.logger.Info("sale deleted", slog.Int64("store_id", storeID), slog.Int64("sale_id", saleID))
	return nil
}

func validateRequest(req SettleRequest) error {
	if len(req.Lines) == 0 {
		return ErrEmptyCart
	}
	for _, line := range req.Lines {
		if line.Quantity < 1 {
			return ErrInvalidQuantity
		}
	}
	if req.PaymentMethod == "" {
		return ErrPaymentMethodRequired
	}
	if _, err := uuid.Parse(req.IdempotencyKey); err != nil {
		return ErrIdempotencyKeyInvalid
	}
	return nil
}
