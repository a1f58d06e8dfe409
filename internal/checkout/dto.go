package checkout

import (
	"time"

	"github.com/google/uuid"
)

// CartLineRequest is one line of the submitted cart.
type CartLineRequest struct {
	ProductID int64    `json:"product_id" validate:"required,gt=0"`
	Quantity  int64    `json:"quantity" validate:"required,gte=1"`
	UnitPrice *float64 `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
}

// SettleSaleRequest is the checkout submission body. The idempotency
// key is generated by the terminal per attempt.
type SettleSaleRequest struct {
	IdempotencyKey string            `json:"idempotency_key" validate:"required,uuid4"`
	PaymentMethod  string            `json:"payment_method" validate:"required,oneof=cash card transfer"`
	Lines          []CartLineRequest `json:"lines" validate:"required,min=1,dive"`
	CustomerPhone  string            `json:"customer_phone,omitempty"`
	CustomerName   string            `json:"customer_name,omitempty"`
	RedeemPoints   bool              `json:"redeem_points,omitempty"`
}

// PreviewSaleRequest quotes a cart without settling it.
type PreviewSaleRequest struct {
	Lines         []CartLineRequest `json:"lines" validate:"required,min=1,dive"`
	CustomerPhone string            `json:"customer_phone,omitempty"`
	RedeemPoints  bool              `json:"redeem_points,omitempty"`
}

// SettleSaleResponse is the structured settlement outcome, warnings
// included.
type SettleSaleResponse struct {
	SaleID        int64     `json:"sale_id"`
	PublicID      uuid.UUID `json:"public_id"`
	ReceiptNo     string    `json:"receipt_no"`
	Subtotal      float64   `json:"subtotal"`
	Tax           float64   `json:"tax"`
	Discount      float64   `json:"discount"`
	GrandTotal    float64   `json:"grand_total"`
	PointsEarned  int64     `json:"points_earned"`
	PointsBalance int64     `json:"points_balance"`
	IsNewCustomer bool      `json:"is_new_customer"`
	PaymentURL    string    `json:"payment_url,omitempty"`
	Warnings      []Warning `json:"warnings"`
}

// PreviewSaleResponse is the quote for an unsettled cart.
type PreviewSaleResponse struct {
	Subtotal      float64   `json:"subtotal"`
	Tax           float64   `json:"tax"`
	Discount      float64   `json:"discount"`
	GrandTotal    float64   `json:"grand_total"`
	PointsEarned  int64     `json:"points_earned"`
	PointsBalance int64     `json:"points_balance"`
	Warnings      []Warning `json:"warnings"`
}

// SaleItemResponse is one persisted line of a sale.
type SaleItemResponse struct {
	ProductID   int64   `json:"product_id"`
	Quantity    int64   `json:"quantity"`
	PriceAtSale float64 `json:"price_at_sale"`
	Subtotal    float64 `json:"subtotal"`
}

// SaleResponse is a persisted sale with its items.
type SaleResponse struct {
	ID            int64              `json:"id"`
	PublicID      uuid.UUID          `json:"public_id"`
	ReceiptNo     string             `json:"receipt_no"`
	TotalAmount   float64            `json:"total_amount"`
	PaymentMethod string             `json:"payment_method"`
	EmployeeID    int64              `json:"employee_id"`
	CustomerID    *int64             `json:"customer_id,omitempty"`
	Status        string             `json:"status"`
	CreatedAt     time.Time          `json:"created_at"`
	Items         []SaleItemResponse `json:"items,omitempty"`
}

// ListSalesResponse is a page of sales.
type ListSalesResponse struct {
	Sales  []SaleResponse `json:"sales"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

func newSaleResponse(sale *Sale, items []SaleItem) SaleResponse {
	resp := SaleResponse{
		ID:            sale.ID,
		PublicID:      sale.PublicID,
		ReceiptNo:     sale.ReceiptNo,
		TotalAmount:   sale.TotalAmount,
		PaymentMethod: sale.PaymentMethod,
		EmployeeID:    sale.EmployeeID,
		CustomerID:    sale.CustomerID,
		Status:        string(sale.Status),
		CreatedAt:     sale.CreatedAt,
	}
	for _, item := range items {
		resp.Items = append(resp.Items, SaleItemResponse{
			ProductID:   item.ProductID,
			Quantity:    item.Quantity,
			PriceAtSale: item.PriceAtSale,
			Subtotal:    item.Subtotal,
		})
	}
	return resp
}
