package loyalty

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tillward/tillward/internal/customers"
	"github.com/tillward/tillward/internal/platform/db"
)

// TxOps is the pair of writes behind one manual redemption. Both run
// on the same transaction, so the balance debit and its ledger entry
// commit or roll back together.
type TxOps interface {
	DebitPoints(ctx context.Context, customerID, points int64) (int64, error)
	Append(ctx context.Context, entry Entry) (int64, error)
}

// Repository appends and reads the loyalty ledger. The table is
// append-only; balance corrections are new entries, never updates.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxOps) error) error
	Append(ctx context.Context, entry Entry) (int64, error)
	ListByCustomer(ctx context.Context, storeID, customerID int64, limit int) ([]Entry, error)
	SumPoints(ctx context.Context, storeID, customerID int64) (int64, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	tx   pgx.Tx
	pool *pgxpool.Pool
}

// NewRepository constructs the pool-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

// NewTxRepository binds ledger appends to an open transaction.
func NewTxRepository(tx pgx.Tx) Repository {
	return &repository{db: tx, tx: tx}
}

type txOps struct {
	customers customers.Repository
	ledger    *repository
}

func (o *txOps) DebitPoints(ctx context.Context, customerID, points int64) (int64, error) {
	return o.customers.DebitPoints(ctx, customerID, points)
}

func (o *txOps) Append(ctx context.Context, entry Entry) (int64, error) {
	return o.ledger.Append(ctx, entry)
}

func newTxOps(tx pgx.Tx) *txOps {
	return &txOps{
		customers: customers.NewTxRepository(tx),
		ledger:    &repository{db: tx, tx: tx},
	}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxOps) error) error {
	if r.pool == nil {
		return fn(ctx, newTxOps(r.tx))
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, newTxOps(tx))
	})
}

func (r *repository) Append(ctx context.Context, entry Entry) (int64, error) {
	const query = `
		INSERT INTO loyalty_logs (store_id, customer_id, points, type, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var id int64
	err := r.db.QueryRow(ctx, query,
		entry.StoreID, entry.CustomerID, entry.Points, string(entry.Kind), entry.Description, createdAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) ListByCustomer(ctx context.Context, storeID, customerID int64, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT id, store_id, customer_id, points, type, COALESCE(description, ''), created_at
		FROM loyalty_logs
		WHERE store_id = $1 AND customer_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, storeID, customerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var kind string
		if err := rows.Scan(&e.ID, &e.StoreID, &e.CustomerID, &e.Points, &kind, &e.Description, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Kind = EntryKind(kind)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SumPoints reconciles the balance from the ledger itself. This is
// the race-safe source of truth the cached customers.points column
// approximates.
func (r *repository) SumPoints(ctx context.Context, storeID, customerID int64) (int64, error) {
	const query = `
		SELECT COALESCE(SUM(points), 0)
		FROM loyalty_logs
		WHERE store_id = $1 AND customer_id = $2`

	var total int64
	if err := r.db.QueryRow(ctx, query, storeID, customerID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
