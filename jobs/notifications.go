package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/tillward/tillward/internal/notify"
)

// Notifier handles notification tasks: one in-app row per event plus
// SMS where a phone number is available. Payloads that fail to decode
// are not retried; everything else follows Asynq's retry policy.
type Notifier struct {
	repo   notify.Repository
	sms    SMSSender
	logger *slog.Logger
}

// NewNotifier constructs a Notifier.
func NewNotifier(repo notify.Repository, sms SMSSender, logger *slog.Logger) *Notifier {
	if sms == nil {
		sms = NopSMSSender{}
	}
	return &Notifier{repo: repo, sms: sms, logger: logger}
}

// HandleWelcome greets a first-time customer.
func (n *Notifier) HandleWelcome(ctx context.Context, task *asynq.Task) error {
	var payload notify.WelcomePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode welcome payload: %v: %w", err, asynq.SkipRetry)
	}

	name := payload.CustomerName
	if name == "" {
		name = "there"
	}
	message := fmt.Sprintf("Hi %s, welcome to %s! You now earn loyalty points on every purchase.",
		name, payload.StoreName)

	if _, err := n.repo.Insert(ctx, notify.Notification{
		StoreID: payload.StoreID,
		Type:    notify.TaskTypeWelcome,
		Title:   "New customer enrolled",
		Message: fmt.Sprintf("%s (%s) joined the loyalty program", name, payload.Phone),
	}); err != nil {
		return fmt.Errorf("persist welcome notification: %w", err)
	}

	if payload.Phone == "" {
		return nil
	}
	if err := n.sms.Send(ctx, payload.Phone, message); err != nil {
		return fmt.Errorf("send welcome sms: %w", err)
	}
	return nil
}

// HandleSaleReceipt sends the post-sale summary to the customer.
func (n *Notifier) HandleSaleReceipt(ctx context.Context, task *asynq.Task) error {
	var payload notify.SaleReceiptPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode receipt payload: %v: %w", err, asynq.SkipRetry)
	}

	amount := notify.FormatAmount(payload.GrandTotal)
	metadata, _ := json.Marshal(map[string]any{
		"sale_id":    payload.SaleID,
		"receipt_no": payload.ReceiptNo,
	})
	if _, err := n.repo.Insert(ctx, notify.Notification{
		StoreID:  payload.StoreID,
		Type:     notify.TaskTypeSaleReceipt,
		Title:    "Sale " + payload.ReceiptNo,
		Message:  fmt.Sprintf("%s via %s", amount, payload.PaymentMethod),
		Metadata: metadata,
	}); err != nil {
		return fmt.Errorf("persist receipt notification: %w", err)
	}

	if payload.Phone == "" {
		return nil
	}
	message := fmt.Sprintf("Thanks for shopping at %s! Receipt %s, total %s.",
		payload.StoreName, payload.ReceiptNo, amount)
	if payload.PointsEarned > 0 {
		message += fmt.Sprintf(" You earned %d points (balance %d).",
			payload.PointsEarned, payload.PointsBalance)
	}
	if err := n.sms.Send(ctx, payload.Phone, message); err != nil {
		return fmt.Errorf("send receipt sms: %w", err)
	}
	return nil
}

// HandleLowStock alerts the owner about a depleting product.
func (n *Notifier) HandleLowStock(ctx context.Context, task *asynq.Task) error {
	var payload notify.LowStockPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode low stock payload: %v: %w", err, asynq.SkipRetry)
	}

	var message string
	if payload.NewStock <= 0 {
		message = fmt.Sprintf("%s is out of stock (recorded level %d)", payload.ProductName, payload.NewStock)
	} else {
		message = fmt.Sprintf("%s is running low (%d left)", payload.ProductName, payload.NewStock)
	}

	metadata, _ := json.Marshal(map[string]any{
		"product_id": payload.ProductID,
		"new_stock":  payload.NewStock,
	})
	if _, err := n.repo.Insert(ctx, notify.Notification{
		StoreID:  payload.StoreID,
		Type:     notify.TaskTypeLowStock,
		Title:    "Low stock",
		Message:  message,
		Metadata: metadata,
	}); err != nil {
		return fmt.Errorf("persist low stock notification: %w", err)
	}

	if payload.OwnerPhone == "" {
		return nil
	}
	if err := n.sms.Send(ctx, payload.OwnerPhone, message); err != nil {
		n.logger.Warn("low stock sms failed",
			slog.Int64("product_id", payload.ProductID), slog.Any("error", err))
		return fmt.Errorf("send low stock sms: %w", err)
	}
	return nil
}
