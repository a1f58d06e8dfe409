package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/tillward/tillward/internal/notify"
)

type memNotifyRepo struct {
	rows []notify.Notification
}

func (m *memNotifyRepo) Insert(ctx context.Context, n notify.Notification) (int64, error) {
	n.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, n)
	return n.ID, nil
}

func (m *memNotifyRepo) ListUnread(ctx context.Context, storeID int64, limit int) ([]notify.Notification, error) {
	return m.rows, nil
}

func (m *memNotifyRepo) MarkRead(ctx context.Context, storeID, id int64) error {
	return nil
}

type recordingSMS struct {
	sent []string
	fail error
}

func (r *recordingSMS) Send(ctx context.Context, phone, message string) error {
	if r.fail != nil {
		return r.fail
	}
	r.sent = append(r.sent, phone+": "+message)
	return nil
}

func newNotifier(repo *memNotifyRepo, sms *recordingSMS) *Notifier {
	return NewNotifier(repo, sms, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHandleSaleReceipt(t *testing.T) {
	repo := &memNotifyRepo{}
	sms := &recordingSMS{}
	n := newNotifier(repo, sms)

	task, err := notify.NewSaleReceiptTask(notify.SaleReceiptPayload{
		StoreID:       1,
		StoreName:     "Corner Shop",
		SaleID:        42,
		ReceiptNo:     "TRX-00042",
		GrandTotal:    1250.5,
		PaymentMethod: "cash",
		Phone:         "08030000001",
		PointsEarned:  12,
		PointsBalance: 62,
	})
	require.NoError(t, err)

	require.NoError(t, n.HandleSaleReceipt(context.Background(), task))

	require.Len(t, repo.rows, 1)
	require.Equal(t, notify.TaskTypeSaleReceipt, repo.rows[0].Type)
	require.Contains(t, repo.rows[0].Title, "TRX-00042")

	require.Len(t, sms.sent, 1)
	require.Contains(t, sms.sent[0], "1,250.50")
	require.Contains(t, sms.sent[0], "earned 12 points")
}

func TestHandleSaleReceiptGuestSkipsSMS(t *testing.T) {
	repo := &memNotifyRepo{}
	sms := &recordingSMS{}
	n := newNotifier(repo, sms)

	task, err := notify.NewSaleReceiptTask(notify.SaleReceiptPayload{
		StoreID: 1, ReceiptNo: "TRX-00001", GrandTotal: 50, PaymentMethod: "cash",
	})
	require.NoError(t, err)

	require.NoError(t, n.HandleSaleReceipt(context.Background(), task))
	require.Len(t, repo.rows, 1)
	require.Empty(t, sms.sent)
}

func TestHandleWelcome(t *testing.T) {
	repo := &memNotifyRepo{}
	sms := &recordingSMS{}
	n := newNotifier(repo, sms)

	task, err := notify.NewWelcomeTask(notify.WelcomePayload{
		StoreID: 1, StoreName: "Corner Shop", CustomerID: 9,
		CustomerName: "Ada", Phone: "08030000001",
	})
	require.NoError(t, err)

	require.NoError(t, n.HandleWelcome(context.Background(), task))
	require.Len(t, repo.rows, 1)
	require.Len(t, sms.sent, 1)
	require.Contains(t, sms.sent[0], "welcome to Corner Shop")
}

func TestHandleLowStockOutOfStock(t *testing.T) {
	repo := &memNotifyRepo{}
	sms := &recordingSMS{}
	n := newNotifier(repo, sms)

	task, err := notify.NewLowStockTask(notify.LowStockPayload{
		StoreID: 1, ProductID: 10, ProductName: "Cola 50cl",
		NewStock: -2, OwnerPhone: "08030009999",
	})
	require.NoError(t, err)

	require.NoError(t, n.HandleLowStock(context.Background(), task))
	require.Len(t, repo.rows, 1)
	require.Contains(t, repo.rows[0].Message, "out of stock")

	var meta map[string]any
	require.NoError(t, json.Unmarshal(repo.rows[0].Metadata, &meta))
	require.EqualValues(t, -2, meta["new_stock"])
}

func TestHandleBadPayloadSkipsRetry(t *testing.T) {
	n := newNotifier(&memNotifyRepo{}, &recordingSMS{})

	task := asynq.NewTask(notify.TaskTypeSaleReceipt, []byte("{not json"))
	err := n.HandleSaleReceipt(context.Background(), task)
	require.Error(t, err)
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleSMSFailureIsRetryable(t *testing.T) {
	repo := &memNotifyRepo{}
	sms := &recordingSMS{fail: errors.New("gateway 502")}
	n := newNotifier(repo, sms)

	task, err := notify.NewWelcomeTask(notify.WelcomePayload{
		StoreID: 1, StoreName: "Corner Shop", Phone: "08030000001",
	})
	require.NoError(t, err)

	err = n.HandleWelcome(context.Background(), task)
	require.Error(t, err)
	require.NotErrorIs(t, err, asynq.SkipRetry)
	// The in-app row is still written; only delivery retries.
	require.Len(t, repo.rows, 1)
}
