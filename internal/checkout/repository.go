package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tillward/tillward/internal/customers"
	"github.com/tillward/tillward/internal/loyalty"
	"github.com/tillward/tillward/internal/platform/db"
	"github.com/tillward/tillward/internal/sequence"
	"github.com/tillward/tillward/internal/stock"
)

// TxOps is the set of writes a settlement performs. Every call runs
// on the same transaction, so the sale, its items, the stock
// decrements, the counter and the ledger commit or roll back as one.
type TxOps interface {
	AllocateReceipt(ctx context.Context, storeID int64) (sequence.Receipt, error)
	InsertSale(ctx context.Context, sale Sale) (int64, error)
	InsertItems(ctx context.Context, saleID int64, items []SaleItem) error
	DecrementStock(ctx context.Context, storeID, productID, quantity int64) (stock.Movement, error)
	CreditPoints(ctx context.Context, customerID, points int64) (int64, error)
	DebitPoints(ctx context.Context, customerID, points int64) (int64, error)
	AppendLedger(ctx context.Context, entry loyalty.Entry) (int64, error)
	RecordVisit(ctx context.Context, update customers.VisitUpdate) error
}

// Repository persists sales and exposes the settlement transaction.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxOps) error) error
	GetSale(ctx context.Context, storeID, saleID int64) (*Sale, []SaleItem, error)
	GetSaleByIdempotencyKey(ctx context.Context, storeID int64, key string) (*Sale, error)
	ListSales(ctx context.Context, storeID int64, limit, offset int) ([]Sale, int, error)
	DeleteSale(ctx context.Context, storeID, saleID int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

type txOps struct {
	tx        pgx.Tx
	stock     stock.Repository
	customers customers.Repository
	ledger    loyalty.Repository
	sequence  sequence.Repository
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxOps) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		ops := &txOps{
			tx:        tx,
			stock:     stock.NewTxRepository(tx),
			customers: customers.NewTxRepository(tx),
			ledger:    loyalty.NewTxRepository(tx),
			sequence:  sequence.NewTxRepository(tx),
		}
		return fn(ctx, ops)
	})
}

func (o *txOps) AllocateReceipt(ctx context.Context, storeID int64) (sequence.Receipt, error) {
	return o.sequence.NextNumber(ctx, storeID)
}

func (o *txOps) InsertSale(ctx context.Context, sale Sale) (int64, error) {
	const query = `
		INSERT INTO sales (public_id, store_id, receipt_no, total_amount, payment_method,
		                   employee_id, customer_id, status, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	createdAt := sale.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var id int64
	err := o.tx.QueryRow(ctx, query,
		sale.PublicID, sale.StoreID, sale.ReceiptNo, sale.TotalAmount, sale.PaymentMethod,
		sale.EmployeeID, sale.CustomerID, string(sale.Status), sale.IdempotencyKey, createdAt,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrDuplicateCheckout
		}
		return 0, err
	}
	return id, nil
}

func (o *txOps) InsertItems(ctx context.Context, saleID int64, items []SaleItem) error {
	const query = `
		INSERT INTO sale_items (sale_id, product_id, quantity, price_at_sale, subtotal)
		VALUES ($1, $2, $3, $4, $5)`

	for _, item := range items {
		if _, err := o.tx.Exec(ctx, query, saleID, item.ProductID, item.Quantity, item.PriceAtSale, item.Subtotal); err != nil {
			return err
		}
	}
	return nil
}

func (o *txOps) DecrementStock(ctx context.Context, storeID, productID, quantity int64) (stock.Movement, error) {
	return o.stock.ApplyChange(ctx, storeID, productID, -quantity)
}

func (o *txOps) CreditPoints(ctx context.Context, customerID, points int64) (int64, error) {
	return o.customers.CreditPoints(ctx, customerID, points)
}

func (o *txOps) DebitPoints(ctx context.Context, customerID, points int64) (int64, error) {
	return o.customers.DebitPoints(ctx, customerID, points)
}

func (o *txOps) AppendLedger(ctx context.Context, entry loyalty.Entry) (int64, error) {
	return o.ledger.Append(ctx, entry)
}

func (o *txOps) RecordVisit(ctx context.Context, update customers.VisitUpdate) error {
	return o.customers.RecordVisit(ctx, update)
}

const saleColumns = `id, public_id, store_id, receipt_no, total_amount, payment_method,
	employee_id, customer_id, status, idempotency_key, created_at`

func scanSale(row pgx.Row) (*Sale, error) {
	var s Sale
	var status string
	err := row.Scan(&s.ID, &s.PublicID, &s.StoreID, &s.ReceiptNo, &s.TotalAmount, &s.PaymentMethod,
		&s.EmployeeID, &s.CustomerID, &status, &s.IdempotencyKey, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSaleNotFound
		}
		return nil, err
	}
	s.Status = SaleStatus(status)
	return &s, nil
}

func (r *repository) GetSale(ctx context.Context, storeID, saleID int64) (*Sale, []SaleItem, error) {
	sale, err := scanSale(r.pool.QueryRow(ctx,
		`SELECT `+saleColumns+` FROM sales WHERE store_id = $1 AND id = $2`, storeID, saleID))
	if err != nil {
		return nil, nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, sale_id, product_id, quantity, price_at_sale, subtotal
		 FROM sale_items WHERE sale_id = $1 ORDER BY id`, saleID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var items []SaleItem
	for rows.Next() {
		var item SaleItem
		if err := rows.Scan(&item.ID, &item.SaleID, &item.ProductID, &item.Quantity, &item.PriceAtSale, &item.Subtotal); err != nil {
			return nil, nil, err
		}
		items = append(items, item)
	}
	return sale, items, rows.Err()
}

func (r *repository) GetSaleByIdempotencyKey(ctx context.Context, storeID int64, key string) (*Sale, error) {
	return scanSale(r.pool.QueryRow(ctx,
		`SELECT `+saleColumns+` FROM sales WHERE store_id = $1 AND idempotency_key = $2`, storeID, key))
}

func (r *repository) ListSales(ctx context.Context, storeID int64, limit, offset int) ([]Sale, int, error) {
	if limit <= 0 {
		limit = 50
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sales WHERE store_id = $1`, storeID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+saleColumns+` FROM sales WHERE store_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		storeID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		var s Sale
		var status string
		if err := rows.Scan(&s.ID, &s.PublicID, &s.StoreID, &s.ReceiptNo, &s.TotalAmount, &s.PaymentMethod,
			&s.EmployeeID, &s.CustomerID, &status, &s.IdempotencyKey, &s.CreatedAt); err != nil {
			return nil, 0, err
		}
		s.Status = SaleStatus(status)
		sales = append(sales, s)
	}
	return sales, total, rows.Err()
}

// DeleteSale removes a sale; sale_items cascade on the foreign key.
func (r *repository) DeleteSale(ctx context.Context, storeID, saleID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sales WHERE store_id = $1 AND id = $2`, storeID, saleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSaleNotFound
	}
	return nil
}
