// Package notify is the settlement side of the notification boundary:
// it builds and enqueues dispatch tasks, and persists notification
// rows. Delivery happens in the worker; nothing here may fail a sale.
package notify

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the queue name for notification jobs.
	QueueDefault = "default"

	// TaskTypeWelcome greets a first-time customer.
	TaskTypeWelcome = "notify:welcome"
	// TaskTypeSaleReceipt sends the post-sale receipt summary.
	TaskTypeSaleReceipt = "notify:sale"
	// TaskTypeLowStock alerts the owner about a depleting product.
	TaskTypeLowStock = "notify:low_stock"
)

// WelcomePayload greets a newly enrolled customer.
type WelcomePayload struct {
	StoreID      int64  `json:"store_id"`
	StoreName    string `json:"store_name"`
	CustomerID   int64  `json:"customer_id"`
	CustomerName string `json:"customer_name"`
	Phone        string `json:"phone"`
}

// SaleReceiptPayload summarises a settled sale for the customer and
// the store owner.
type SaleReceiptPayload struct {
	StoreID       int64   `json:"store_id"`
	StoreName     string  `json:"store_name"`
	SaleID        int64   `json:"sale_id"`
	ReceiptNo     string  `json:"receipt_no"`
	GrandTotal    float64 `json:"grand_total"`
	PaymentMethod string  `json:"payment_method"`
	CustomerID    int64   `json:"customer_id,omitempty"`
	Phone         string  `json:"phone,omitempty"`
	OwnerPhone    string  `json:"owner_phone,omitempty"`
	PointsEarned  int64   `json:"points_earned"`
	PointsBalance int64   `json:"points_balance"`
}

// LowStockPayload alerts on a product crossing the low threshold.
type LowStockPayload struct {
	StoreID     int64  `json:"store_id"`
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	NewStock    int64  `json:"new_stock"`
	OwnerPhone  string `json:"owner_phone,omitempty"`
}

// NewWelcomeTask constructs an Asynq task.
func NewWelcomeTask(payload WelcomePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeWelcome, data), nil
}

// NewSaleReceiptTask constructs an Asynq task.
func NewSaleReceiptTask(payload SaleReceiptPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSaleReceipt, data), nil
}

// NewLowStockTask constructs an Asynq task.
func NewLowStockTask(payload LowStockPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeLowStock, data), nil
}
