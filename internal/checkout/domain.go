package checkout

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SaleStatus enumerates persisted sale states.
type SaleStatus string

const (
	// SaleStatusCompleted is the terminal state of a settled sale.
	SaleStatusCompleted SaleStatus = "completed"
)

// Sale is the durable record of a settlement.
type Sale struct {
	ID             int64
	PublicID       uuid.UUID
	StoreID        int64
	ReceiptNo      string
	TotalAmount    float64
	PaymentMethod  string
	EmployeeID     int64
	CustomerID     *int64
	Status         SaleStatus
	IdempotencyKey string
	CreatedAt      time.Time
}

// SaleItem is one line of a sale, one row per cart line.
type SaleItem struct {
	ID          int64
	SaleID      int64
	ProductID   int64
	Quantity    int64
	PriceAtSale float64
	Subtotal    float64
}

// CartLine is the client-owned cart entry. UnitPrice overrides the
// catalog price when set; the catalog price is still consulted for
// margin warnings.
type CartLine struct {
	ProductID int64
	Quantity  int64
	UnitPrice *float64
}

// SettleRequest is everything the pipeline needs for one attempt. The
// IdempotencyKey is generated client-side per checkout attempt so a
// retried or ambiguous submit cannot create a second sale.
type SettleRequest struct {
	StoreID        int64
	EmployeeID     int64
	IdempotencyKey string
	PaymentMethod  string
	Lines          []CartLine
	CustomerPhone  string
	CustomerName   string
	RedeemPoints   bool
}

// Warning codes carried in a partial-success settlement result.
const (
	WarnCustomerLookupFailed = "customer_lookup_failed"
	WarnBelowCostPrice       = "below_cost_price"
	WarnLowStock             = "low_stock"
	WarnOutOfStock           = "out_of_stock"
	WarnNegativeStock        = "negative_stock"
	WarnNotificationFailed   = "notification_failed"
	WarnPaymentLinkFailed    = "payment_link_failed"
)

// Warning describes a non-fatal degradation the operator should see
// instead of a silent console line.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SettlementResult is the structured outcome of a settlement: the
// sale identity plus everything the receipt needs, and the warnings
// accumulated along the way.
type SettlementResult struct {
	SaleID        int64
	PublicID      uuid.UUID
	ReceiptNo     string
	Subtotal      float64
	Tax           float64
	Discount      float64
	GrandTotal    float64
	PointsEarned  int64
	PointsBalance int64
	IsNewCustomer bool
	Warnings      []Warning
}

// Settlement errors surfaced to the operator.
var (
	ErrEmptyCart             = errors.New("checkout: cart is empty")
	ErrInvalidQuantity       = errors.New("checkout: quantity must be at least 1")
	ErrUnknownProduct        = errors.New("checkout: unknown product in cart")
	ErrPaymentMethodRequired = errors.New("checkout: payment method required")
	ErrIdempotencyKeyInvalid = errors.New("checkout: idempotency key must be a uuid")
	ErrDuplicateCheckout     = errors.New("checkout: attempt already settled")
	ErrSaleWrite             = errors.New("checkout: sale could not be recorded")
	ErrRedeemRequiresMember  = errors.New("checkout: redemption requires an enrolled customer")
	ErrSaleNotFound          = errors.New("checkout: sale not found")
)
