package stock

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tillward/tillward/internal/platform/db"
)

// Repository mutates and reads product stock.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	GetProduct(ctx context.Context, storeID, productID int64) (*Product, error)
	GetProducts(ctx context.Context, storeID int64, ids []int64) (map[int64]*Product, error)
	ApplyChange(ctx context.Context, storeID, productID, change int64) (Movement, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs the pool-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

// NewTxRepository binds stock operations to an open settlement
// transaction.
func NewTxRepository(tx pgx.Tx) Repository {
	return &repository{db: tx}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	if r.pool == nil {
		return fn(ctx, r)
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx})
	})
}

func (r *repository) GetProduct(ctx context.Context, storeID, productID int64) (*Product, error) {
	const query = `
		SELECT id, store_id, sku, name, price, cost_price, stock, created_at
		FROM products
		WHERE store_id = $1 AND id = $2`

	var p Product
	err := r.db.QueryRow(ctx, query, storeID, productID).Scan(
		&p.ID, &p.StoreID, &p.SKU, &p.Name, &p.Price, &p.CostPrice, &p.Stock, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) GetProducts(ctx context.Context, storeID int64, ids []int64) (map[int64]*Product, error) {
	const query = `
		SELECT id, store_id, sku, name, price, cost_price, stock, created_at
		FROM products
		WHERE store_id = $1 AND id = ANY($2)`

	rows, err := r.db.Query(ctx, query, storeID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make(map[int64]*Product, len(ids))
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.StoreID, &p.SKU, &p.Name, &p.Price, &p.CostPrice, &p.Stock, &p.CreatedAt); err != nil {
			return nil, err
		}
		products[p.ID] = &p
	}
	return products, rows.Err()
}

// ApplyChange performs the atomic server-side stock mutation. The
// decrement and the returned level happen in one statement, so
// concurrent settlements serialize on the row instead of losing an
// update. Stock is allowed to go negative; callers decide what to
// signal when it does.
func (r *repository) ApplyChange(ctx context.Context, storeID, productID, change int64) (Movement, error) {
	const query = `
		UPDATE products
		SET stock = stock + $1
		WHERE store_id = $2 AND id = $3
		RETURNING stock, name`

	m := Movement{ProductID: productID, Change: change}
	err := r.db.QueryRow(ctx, query, change, storeID, productID).Scan(&m.NewStock, &m.ProductName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Movement{}, ErrProductNotFound
		}
		return Movement{}, err
	}
	return m, nil
}
