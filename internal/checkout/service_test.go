package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/tillward/tillward/internal/customers"
	"github.com/tillward/tillward/internal/loyalty"
	"github.com/tillward/tillward/internal/notify"
	"github.com/tillward/tillward/internal/pricing"
	"github.com/tillward/tillward/internal/sequence"
	"github.com/tillward/tillward/internal/shared"
	"github.com/tillward/tillward/internal/stock"
	"github.com/tillward/tillward/internal/stores"
)

// fakeWorld holds all durable state the pipeline touches. WithTx
// snapshots it and restores the snapshot on error, mirroring the
// rollback semantics of the real transaction.
type fakeWorld struct {
	products   map[int64]*stock.Product
	customers  map[int64]*customers.Customer
	ledger     []loyalty.Entry
	sales      []Sale
	items      map[int64][]SaleItem
	counter    int64
	nextSaleID int64
	nextCustID int64

	failInsertSale error
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		products:  map[int64]*stock.Product{},
		customers: map[int64]*customers.Customer{},
		items:     map[int64][]SaleItem{},
	}
}

func (w *fakeWorld) clone() *fakeWorld {
	c := newFakeWorld()
	for id, p := range w.products {
		cp := *p
		c.products[id] = &cp
	}
	for id, cu := range w.customers {
		cc := *cu
		c.customers[id] = &cc
	}
	c.ledger = append([]loyalty.Entry(nil), w.ledger...)
	c.sales = append([]Sale(nil), w.sales...)
	for id, items := range w.items {
		c.items[id] = append([]SaleItem(nil), items...)
	}
	c.counter = w.counter
	c.nextSaleID = w.nextSaleID
	c.nextCustID = w.nextCustID
	c.failInsertSale = w.failInsertSale
	return c
}

func (w *fakeWorld) restore(snap *fakeWorld) {
	w.products = snap.products
	w.customers = snap.customers
	w.ledger = snap.ledger
	w.sales = snap.sales
	w.items = snap.items
	w.counter = snap.counter
	w.nextSaleID = snap.nextSaleID
	w.nextCustID = snap.nextCustID
}

type fakeRepo struct {
	world *fakeWorld
}

func (r *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, TxOps) error) error {
	snap := r.world.clone()
	if err := fn(ctx, &fakeTxOps{world: r.world}); err != nil {
		r.world.restore(snap)
		return err
	}
	return nil
}

func (r *fakeRepo) GetSale(ctx context.Context, storeID, saleID int64) (*Sale, []SaleItem, error) {
	for i := range r.world.sales {
		s := r.world.sales[i]
		if s.StoreID == storeID && s.ID == saleID {
			return &s, r.world.items[saleID], nil
		}
	}
	return nil, nil, ErrSaleNotFound
}

func (r *fakeRepo) GetSaleByIdempotencyKey(ctx context.Context, storeID int64, key string) (*Sale, error) {
	for i := range r.world.sales {
		s := r.world.sales[i]
		if s.StoreID == storeID && s.IdempotencyKey == key {
			return &s, nil
		}
	}
	return nil, ErrSaleNotFound
}

func (r *fakeRepo) ListSales(ctx context.Context, storeID int64, limit, offset int) ([]Sale, int, error) {
	var out []Sale
	for _, s := range r.world.sales {
		if s.StoreID == storeID {
			out = append(out, s)
		}
	}
	return out, len(out), nil
}

func (r *fakeRepo) DeleteSale(ctx context.Context, storeID, saleID int64) error {
	for i, s := range r.world.sales {
		if s.StoreID == storeID && s.ID == saleID {
			r.world.sales = append(r.world.sales[:i], r.world.sales[i+1:]...)
			delete(r.world.items, saleID)
			return nil
		}
	}
	return ErrSaleNotFound
}

type fakeTxOps struct {
	world *fakeWorld
}

func (o *fakeTxOps) AllocateReceipt(ctx context.Context, storeID int64) (sequence.Receipt, error) {
	o.world.counter++
	return sequence.Receipt{Number: o.world.counter, Prefix: "TRX"}, nil
}

func (o *fakeTxOps) InsertSale(ctx context.Context, sale Sale) (int64, error) {
	if o.world.failInsertSale != nil {
		return 0, o.world.failInsertSale
	}
	for _, existing := range o.world.sales {
		if existing.StoreID == sale.StoreID && existing.IdempotencyKey == sale.IdempotencyKey {
			return 0, ErrDuplicateCheckout
		}
	}
	o.world.nextSaleID++
	sale.ID = o.world.nextSaleID
	sale.CreatedAt = time.Now().UTC()
	o.world.sales = append(o.world.sales, sale)
	return sale.ID, nil
}

func (o *fakeTxOps) InsertItems(ctx context.Context, saleID int64, items []SaleItem) error {
	o.world.items[saleID] = append(o.world.items[saleID], items...)
	return nil
}

func (o *fakeTxOps) DecrementStock(ctx context.Context, storeID, productID, quantity int64) (stock.Movement, error) {
	p, ok := o.world.products[productID]
	if !ok || p.StoreID != storeID {
		return stock.Movement{}, stock.ErrProductNotFound
	}
	p.Stock -= quantity
	return stock.Movement{ProductID: productID, ProductName: p.Name, Change: -quantity, NewStock: p.Stock}, nil
}

func (o *fakeTxOps) CreditPoints(ctx context.Context, customerID, points int64) (int64, error) {
	c, ok := o.world.customers[customerID]
	if !ok {
		return 0, customers.ErrNotFound
	}
	c.Points += points
	return c.Points, nil
}

func (o *fakeTxOps) DebitPoints(ctx context.Context, customerID, points int64) (int64, error) {
	c, ok := o.world.customers[customerID]
	if !ok {
		return 0, customers.ErrNotFound
	}
	if c.Points < points {
		return 0, customers.ErrInsufficientPoints
	}
	c.Points -= points
	return c.Points, nil
}

func (o *fakeTxOps) AppendLedger(ctx context.Context, entry loyalty.Entry) (int64, error) {
	entry.ID = int64(len(o.world.ledger) + 1)
	o.world.ledger = append(o.world.ledger, entry)
	return entry.ID, nil
}

func (o *fakeTxOps) RecordVisit(ctx context.Context, update customers.VisitUpdate) error {
	c, ok := o.world.customers[update.CustomerID]
	if !ok {
		return customers.ErrNotFound
	}
	c.TotalSpent += update.Spent
	c.TotalVisits++
	c.LastVisit = &update.VisitedAt
	return nil
}

// fakeProducts serves catalog reads outside the transaction.
type fakeProducts struct {
	world *fakeWorld
}

func (f *fakeProducts) WithTx(ctx context.Context, fn func(context.Context, stock.Repository) error) error {
	return fn(ctx, f)
}

func (f *fakeProducts) GetProduct(ctx context.Context, storeID, productID int64) (*stock.Product, error) {
	p, ok := f.world.products[productID]
	if !ok || p.StoreID != storeID {
		return nil, stock.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) GetProducts(ctx context.Context, storeID int64, ids []int64) (map[int64]*stock.Product, error) {
	out := map[int64]*stock.Product{}
	for _, id := range ids {
		if p, ok := f.world.products[id]; ok && p.StoreID == storeID {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

func (f *fakeProducts) ApplyChange(ctx context.Context, storeID, productID, change int64) (stock.Movement, error) {
	return (&fakeTxOps{world: f.world}).DecrementStock(ctx, storeID, productID, -change)
}

// fakeCustomerRepo backs customers.Service for checkout resolution.
type fakeCustomerRepo struct {
	world      *fakeWorld
	failLookup error
}

func (f *fakeCustomerRepo) WithTx(ctx context.Context, fn func(context.Context, customers.Repository) error) error {
	return fn(ctx, f)
}

func (f *fakeCustomerRepo) Get(ctx context.Context, storeID, id int64) (*customers.Customer, error) {
	c, ok := f.world.customers[id]
	if !ok || c.StoreID != storeID {
		return nil, customers.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCustomerRepo) GetByPhone(ctx context.Context, storeID int64, phone string) (*customers.Customer, error) {
	if f.failLookup != nil {
		return nil, f.failLookup
	}
	for _, c := range f.world.customers {
		if c.StoreID == storeID && c.Phone == phone {
			cp := *c
			return &cp, nil
		}
	}
	return nil, customers.ErrNotFound
}

func (f *fakeCustomerRepo) Create(ctx context.Context, c customers.Customer) (int64, error) {
	f.world.nextCustID++
	c.ID = f.world.nextCustID
	c.CreatedAt = time.Now().UTC()
	f.world.customers[c.ID] = &c
	return c.ID, nil
}

func (f *fakeCustomerRepo) CreditPoints(ctx context.Context, customerID, points int64) (int64, error) {
	return (&fakeTxOps{world: f.world}).CreditPoints(ctx, customerID, points)
}

func (f *fakeCustomerRepo) DebitPoints(ctx context.Context, customerID, points int64) (int64, error) {
	return (&fakeTxOps{world: f.world}).DebitPoints(ctx, customerID, points)
}

func (f *fakeCustomerRepo) RecordVisit(ctx context.Context, update customers.VisitUpdate) error {
	return (&fakeTxOps{world: f.world}).RecordVisit(ctx, update)
}

func (f *fakeCustomerRepo) Search(ctx context.Context, storeID int64, query string, limit int) ([]customers.Customer, error) {
	return nil, nil
}

type fakeSettings struct {
	settings stores.Settings
}

func (f *fakeSettings) GetSettings(ctx context.Context, storeID int64) (*stores.Settings, error) {
	cp := f.settings
	return &cp, nil
}

type memIdem struct {
	keys map[string]bool
}

func (m *memIdem) CheckAndInsert(ctx context.Context, key, module string) error {
	if m.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	m.keys[key] = true
	return nil
}

func (m *memIdem) Delete(ctx context.Context, key string) error {
	delete(m.keys, key)
	return nil
}

// emitFail fails every enqueue; settlement must still commit.
type emitFail struct{}

func (emitFail) Emit(ctx context.Context, task *asynq.Task) error {
	return errors.New("redis down")
}

type fixture struct {
	world    *fakeWorld
	svc      *Service
	idem     *memIdem
	custRepo *fakeCustomerRepo
	settings *fakeSettings
}

const testStoreID = int64(1)

func newFixture(t *testing.T, emitter notify.Emitter) *fixture {
	t.Helper()

	world := newFakeWorld()
	world.products[10] = &stock.Product{ID: 10, StoreID: testStoreID, SKU: "COLA-50", Name: "Cola 50cl", Price: 100, CostPrice: 60, Stock: 20}
	world.products[11] = &stock.Product{ID: 11, StoreID: testStoreID, SKU: "BREAD", Name: "Bread", Price: 50, CostPrice: 30, Stock: 5}
	world.customers[1] = &customers.Customer{ID: 1, StoreID: testStoreID, Phone: "08030000001", Name: "Ada", Points: 150}
	world.nextCustID = 1

	custRepo := &fakeCustomerRepo{world: world}
	settings := &fakeSettings{settings: stores.Settings{
		StoreID:       testStoreID,
		Name:          "Corner Shop",
		ReceiptPrefix: "TRX",
		Tax:           pricing.TaxPolicy{Enabled: true, Kind: pricing.TaxKindPercentage, Value: 8},
		Loyalty: stores.LoyaltyProgram{
			Enabled:             true,
			EarnRate:            0.1,
			RedemptionRate:      0.05,
			MinRedemptionPoints: 100,
		},
		LowStockThreshold: 3,
	}}
	idem := &memIdem{keys: map[string]bool{}}
	if emitter == nil {
		emitter = notify.NopEmitter{}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(
		&fakeRepo{world: world},
		&fakeProducts{world: world},
		customers.NewService(custRepo),
		settings,
		idem,
		emitter,
		logger,
	)
	return &fixture{world: world, svc: svc, idem: idem, custRepo: custRepo, settings: settings}
}

func cartRequest(lines ...CartLine) SettleRequest {
	return SettleRequest{
		StoreID:        testStoreID,
		EmployeeID:     7,
		IdempotencyKey: uuid.NewString(),
		PaymentMethod:  "cash",
		Lines:          lines,
	}
}

func TestSettleHappyPath(t *testing.T) {
	f := newFixture(t, nil)

	req := cartRequest(CartLine{ProductID: 10, Quantity: 1})
	req.CustomerPhone = "08030000001"

	result, err := f.svc.Settle(context.Background(), req)
	require.NoError(t, err)

	// 100 subtotal, 8% tax, accrual at 0.1 per unit of grand total.
	require.Equal(t, 100.0, result.Subtotal)
	require.Equal(t, 8.0, result.Tax)
	require.Equal(t, 108.0, result.GrandTotal)
	require.Equal(t, int64(10), result.PointsEarned)
	require.Equal(t, int64(160), result.PointsBalance)
	require.Equal(t, "TRX-00001", result.ReceiptNo)
	require.NotEqual(t, uuid.Nil, result.PublicID)
	require.False(t, result.IsNewCustomer)
	require.Empty(t, result.Warnings)

	require.Len(t, f.world.sales, 1)
	require.Equal(t, req.IdempotencyKey, f.world.sales[0].IdempotencyKey)
	require.Len(t, f.world.items[result.SaleID], 1)
	require.Equal(t, int64(19), f.world.products[10].Stock)

	require.Len(t, f.world.ledger, 1)
	require.Equal(t, int64(10), f.world.ledger[0].Points)
	require.Equal(t, loyalty.EntryKindEarned, f.world.ledger[0].Kind)

	cust := f.world.customers[1]
	require.Equal(t, int64(160), cust.Points)
	require.Equal(t, 108.0, cust.TotalSpent)
	require.Equal(t, int64(1), cust.TotalVisits)
	require.NotNil(t, cust.LastVisit)
}

func TestSettleGuestSale(t *testing.T) {
	f := newFixture(t, nil)

	result, err := f.svc.Settle(context.Background(), cartRequest(CartLine{ProductID: 11, Quantity: 2}))
	require.NoError(t, err)

	require.Equal(t, 108.0, result.GrandTotal)
	require.Zero(t, result.PointsEarned)
	require.Zero(t, result.PointsBalance)
	require.Empty(t, f.world.ledger)
	require.Nil(t, f.world.sales[0].CustomerID)
}

func TestSettleEnrollsNewCustomer(t *testing.T) {
	f := newFixture(t, nil)

	req := cartRequest(CartLine{ProductID: 10, Quantity: 1})
	req.CustomerPhone = "0803 111 2222"
	req.CustomerName = "Bola"

	result, err := f.svc.Settle(context.Background(), req)
	require.NoError(t, err)
	require.True(t, result.IsNewCustomer)

	created, err := f.custRepo.GetByPhone(context.Background(), testStoreID, "08031112222")
	require.NoError(t, err)
	require.Equal(t, "Bola", created.Name)
	require.Equal(t, result.PointsBalance, created.Points)
}

func TestSettleRedemption(t *testing.T) {
	f := newFixture(t, nil)

	req := cartRequest(CartLine{ProductID: 10, Quantity: 1})
	req.CustomerPhone = "08030000001"
	req.RedeemPoints = true

	result, err := f.svc.Settle(context.Background(), req)
	require.NoError(t, err)

	// 100 + 8 tax - 5 redemption discount.
	require.Equal(t, 5.0, result.Discount)
	require.Equal(t, 103.0, result.GrandTotal)
	require.Equal(t, int64(10), result.PointsEarned)
	// 150 - 100 quantum + 10 earned.
	require.Equal(t, int64(60), result.PointsBalance)

	require.Len(t, f.world.ledger, 2)
	require.Equal(t, int64(-100), f.world.ledger[0].Points)
	require.Equal(t, loyalty.EntryKindRedeemed, f.world.ledger[0].Kind)
	require.Equal(t, int64(10), f.world.ledger[1].Points)
	require.Equal(t, loyalty.EntryKindEarned, f.world.ledger[1].Kind)
}

func TestSettleRedemptionInsufficientBalance(t *testing.T) {
	f := newFixture(t, nil)
	f.world.customers[1].Points = 80

	req := cartRequest(CartLine{ProductID: 10, Quantity: 1})
	req.CustomerPhone = "08030000001"
	req.RedeemPoints = true

	_, err := f.svc.Settle(context.Background(), req)
	require.ErrorIs(t, err, loyalty.ErrInsufficientBalance)

	require.Empty(t, f.world.sales)
	require.Equal(t, int64(20), f.world.products[10].Stock)
	require.Equal(t, int64(80), f.world.customers[1].Points)
}

func TestSettleRedeemRequiresMember(t *testing.T) {
	f := newFixture(t, nil)

	req := cartRequest(CartLine{ProductID: 10, Quantity: 1})
	req.RedeemPoints = true

	_, err := f.svc.Settle(context.Background(), req)
	require.ErrorIs(t, err, ErrRedeemRequiresMember)
}

func TestSettleRedemptionWithProgramDisabled(t *testing.T) {
	f := newFixture(t, nil)
	f.settings.settings.Loyalty.Enabled = false

	req := cartRequest(CartLine{ProductID: 10, Quantity: 1})
	req.CustomerPhone = "08030000001"
	req.RedeemPoints = true

	_, err := f.svc.Settle(context.Background(), req)
	require.ErrorIs(t, err, loyalty.ErrProgramDisabled)
}

func TestSettleAccrualDisabled(t *testing.T) {
	f := newFixture(t, nil)
	f.settings.settings.Loyalty.Enabled = false

	req := cartRequest(CartLine{ProductID: 10, Quantity: 1})
	req.CustomerPhone = "08030000001"

	result, err := f.svc.Settle(context.Background(), req)
	require.NoError(t, err)
	require.Zero(t, result.PointsEarned)
	require.Empty(t, f.world.ledger)
	require.Equal(t, int64(150), f.world.customers[1].Points)
}

func TestSettleDuplicateKeyReplaysSale(t *testing.T) {
	f := newFixture(t, nil)

	req := cartRequest(CartLine{ProductID: 10, Quantity: 2})
	first, err := f.svc.Settle(context.Background(), req)
	require.NoError(t, err)

	second, err := f.svc.Settle(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, first.SaleID, second.SaleID)
	require.Equal(t, first.ReceiptNo, second.ReceiptNo)

	// The retry must not touch stock or create a second sale.
	require.Len(t, f.world.sales, 1)
	require.Equal(t, int64(18), f.world.products[10].Stock)
}

func TestSettleSaleWriteFailureLeavesNothing(t *testing.T) {
	f := newFixture(t, nil)
	f.world.failInsertSale = errors.New("connection reset")

	req := cartRequest(CartLine{ProductID: 10, Quantity: 1})
	req.CustomerPhone = "08030000001"

	_, err := f.svc.Settle(context.Background(), req)
	require.ErrorIs(t, err, ErrSaleWrite)

	require.Empty(t, f.world.sales)
	require.Equal(t, int64(20), f.world.products[10].Stock)
	require.Equal(t, int64(150), f.world.customers[1].Points)
	require.Empty(t, f.world.ledger)

	// The key was released, so the retry settles cleanly.
	f.world.failInsertSale = nil
	result, err := f.svc.Settle(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, f.world.sales, 1)
	require.Equal(t, int64(19), f.world.products[10].Stock)
	require.NotZero(t, result.SaleID)
}

func TestSettleNegativeStockWarns(t *testing.T) {
	f := newFixture(t, nil)
	f.world.products[11].Stock = 1

	result, err := f.svc.Settle(context.Background(), cartRequest(CartLine{ProductID: 11, Quantity: 3}))
	require.NoError(t, err)

	require.Equal(t, int64(-2), f.world.products[11].Stock)
	require.Len(t, result.Warnings, 1)
	require.Equal(t, WarnNegativeStock, result.Warnings[0].Code)
}

func TestSettleLowStockWarns(t *testing.T) {
	f := newFixture(t, nil)

	// 5 - 3 = 2, at or below the threshold of 3.
	result, err := f.svc.Settle(context.Background(), cartRequest(CartLine{ProductID: 11, Quantity: 3}))
	require.NoError(t, err)

	require.Len(t, result.Warnings, 1)
	require.Equal(t, WarnLowStock, result.Warnings[0].Code)
}

func TestSettleDepletionWarns(t *testing.T) {
	f := newFixture(t, nil)

	// 5 - 5 = 0, depletion rather than a low-stock nudge.
	result, err := f.svc.Settle(context.Background(), cartRequest(CartLine{ProductID: 11, Quantity: 5}))
	require.NoError(t, err)

	require.Len(t, result.Warnings, 1)
	require.Equal(t, WarnOutOfStock, result.Warnings[0].Code)
	require.Contains(t, result.Warnings[0].Message, "out of stock")
}

func TestSettleBelowCostWarns(t *testing.T) {
	f := newFixture(t, nil)

	price := 40.0
	result, err := f.svc.Settle(context.Background(),
		cartRequest(CartLine{ProductID: 10, Quantity: 1, UnitPrice: &price}))
	require.NoError(t, err)

	require.Len(t, f.world.sales, 1)
	found := false
	for _, warning := range result.Warnings {
		if warning.Code == WarnBelowCostPrice {
			found = true
		}
	}
	require.True(t, found)
}

func TestSettleCustomerLookupFailureDegradesToGuest(t *testing.T) {
	f := newFixture(t, nil)
	f.custRepo.failLookup = errors.New("timeout")

	req := cartRequest(CartLine{ProductID: 10, Quantity: 1})
	req.CustomerPhone = "08030000001"

	result, err := f.svc.Settle(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	require.Equal(t, WarnCustomerLookupFailed, result.Warnings[0].Code)
	require.Nil(t, f.world.sales[0].CustomerID)
	require.Equal(t, int64(150), f.world.customers[1].Points)
}

func TestSettleCustomerLookupFailureBlocksRedemption(t *testing.T) {
	f := newFixture(t, nil)
	f.custRepo.failLookup = errors.New("timeout")

	req := cartRequest(CartLine{ProductID: 10, Quantity: 1})
	req.CustomerPhone = "08030000001"
	req.RedeemPoints = true

	_, err := f.svc.Settle(context.Background(), req)
	require.Error(t, err)
	require.Empty(t, f.world.sales)
}

func TestSettleValidation(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name    string
		mutate  func(*SettleRequest)
		wantErr error
	}{
		{"empty cart", func(r *SettleRequest) { r.Lines = nil }, ErrEmptyCart},
		{"zero quantity", func(r *SettleRequest) { r.Lines[0].Quantity = 0 }, ErrInvalidQuantity},
		{"no payment method", func(r *SettleRequest) { r.PaymentMethod = "" }, ErrPaymentMethodRequired},
		{"bad idempotency key", func(r *SettleRequest) { r.IdempotencyKey = "attempt-1" }, ErrIdempotencyKeyInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := cartRequest(CartLine{ProductID: 10, Quantity: 1})
			tt.mutate(&req)
			_, err := f.svc.Settle(context.Background(), req)
			require.ErrorIs(t, err, tt.wantErr)
			require.Empty(t, f.world.sales)
		})
	}
}

func TestSettleUnknownProduct(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Settle(context.Background(), cartRequest(CartLine{ProductID: 999, Quantity: 1}))
	require.ErrorIs(t, err, ErrUnknownProduct)
	require.Empty(t, f.world.sales)
}

func TestSettleNotificationFailureWarns(t *testing.T) {
	f := newFixture(t, emitFail{})

	req := cartRequest(CartLine{ProductID: 10, Quantity: 1})
	req.CustomerPhone = "08030000001"

	result, err := f.svc.Settle(context.Background(), req)
	require.NoError(t, err)

	// The sale is durable even though dispatch failed.
	require.Len(t, f.world.sales, 1)
	found := false
	for _, warning := range result.Warnings {
		if warning.Code == WarnNotificationFailed {
			found = true
		}
	}
	require.True(t, found)
}

func TestRepeatedSettlementsAggregateStock(t *testing.T) {
	f := newFixture(t, nil)

	for i := 0; i < 5; i++ {
		result, err := f.svc.Settle(context.Background(), cartRequest(CartLine{ProductID: 10, Quantity: 2}))
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("TRX-%05d", i+1), result.ReceiptNo)
	}

	require.Equal(t, int64(10), f.world.products[10].Stock)
	require.Len(t, f.world.sales, 5)
}

func TestPreviewMatchesSettle(t *testing.T) {
	f := newFixture(t, nil)

	req := cartRequest(CartLine{ProductID: 10, Quantity: 2}, CartLine{ProductID: 11, Quantity: 1})
	req.CustomerPhone = "08030000001"
	req.RedeemPoints = true

	preview, err := f.svc.Preview(context.Background(), req)
	require.NoError(t, err)
	require.Empty(t, f.world.sales)
	require.Equal(t, int64(20), f.world.products[10].Stock)

	settled, err := f.svc.Settle(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, preview.Subtotal, settled.Subtotal)
	require.Equal(t, preview.Tax, settled.Tax)
	require.Equal(t, preview.Discount, settled.Discount)
	require.Equal(t, preview.GrandTotal, settled.GrandTotal)
	require.Equal(t, preview.PointsEarned, settled.PointsEarned)
}

func TestDeleteSale(t *testing.T) {
	f := newFixture(t, nil)

	result, err := f.svc.Settle(context.Background(), cartRequest(CartLine{ProductID: 10, Quantity: 1}))
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteSale(context.Background(), testStoreID, result.SaleID))
	_, _, err = f.svc.GetSale(context.Background(), testStoreID, result.SaleID)
	require.ErrorIs(t, err, ErrSaleNotFound)

	require.ErrorIs(t, f.svc.DeleteSale(context.Background(), testStoreID, 999), ErrSaleNotFound)
}
