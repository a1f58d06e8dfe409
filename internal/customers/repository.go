package customers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tillward/tillward/internal/platform/db"
)

// Repository persists customers and their cached point balance. Point
// mutations are single-statement, conditional where needed, so the
// cached balance can only move together with its ledger entry inside
// the caller's transaction.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, storeID, id int64) (*Customer, error)
	GetByPhone(ctx context.Context, storeID int64, phone string) (*Customer, error)
	Create(ctx context.Context, c Customer) (int64, error)
	CreditPoints(ctx context.Context, customerID, points int64) (int64, error)
	DebitPoints(ctx context.Context, customerID, points int64) (int64, error)
	RecordVisit(ctx context.Context, update VisitUpdate) error
	Search(ctx context.Context, storeID int64, query string, limit int) ([]Customer, error)
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

// NewTxRepository binds customer operations to an open transaction.
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

const customerColumns = `id, store_id, phone, COALESCE(name, ''), points, total_spent, total_visits, last_visit, created_at`

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.StoreID, &c.Phone, &c.Name, &c.Points, &c.TotalSpent, &c.TotalVisits, &c.LastVisit, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) Get(ctx context.Context, storeID, id int64) (*Customer, error) {
	return scanCustomer(r.db.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE store_id = $1 AND id = $2`, storeID, id))
}

func (r *repository) GetByPhone(ctx context.Context, storeID int64, phone string) (*Customer, error) {
	return scanCustomer(r.db.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE store_id = $1 AND phone = $2`, storeID, phone))
}

func (r *repository) Create(ctx context.Context, c Customer) (int64, error) {
	if strings.TrimSpace(c.Phone) == "" {
		return 0, ErrPhoneRequired
	}
	const query = `
		INSERT INTO customers (store_id, phone, name, points, total_spent, total_visits, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)
		RETURNING id`

	var id int64
	err := r.db.QueryRow(ctx, query,
		c.StoreID, c.Phone, c.Name, c.Points, c.TotalSpent, c.TotalVisits, time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) CreditPoints(ctx context.Context, customerID, points int64) (int64, error) {
	const query = `
		UPDATE customers SET points = points + $1 WHERE id = $2
		RETURNING points`

	var balance int64
	err := r.db.QueryRow(ctx, query, points, customerID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return balance, nil
}

// DebitPoints subtracts points only when the balance covers them. The
// guard is part of the statement, so a concurrent accrual or
// redemption cannot slip between check and write.
func (r *repository) DebitPoints(ctx context.Context, customerID, points int64) (int64, error) {
	const query = `
		UPDATE customers SET points = points - $1
		WHERE id = $2 AND points >= $1
		RETURNING points`

	var balance int64
	err := r.db.QueryRow(ctx, query, points, customerID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrInsufficientPoints
		}
		return 0, err
	}
	return balance, nil
}

func (r *repository) RecordVisit(ctx context.Context, update VisitUpdate) error {
	const query = `
		UPDATE customers
		SET total_spent = total_spent + $1,
		    total_visits = total_visits + 1,
		    last_visit = $2
		WHERE id = $3`

	tag, err := r.db.Exec(ctx, query, update.Spent, update.VisitedAt, update.CustomerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Search(ctx context.Context, storeID int64, query string, limit int) ([]Customer, error) {
	if limit <= 0 {
		limit = 25
	}
	const sql = `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE store_id = $1 AND (phone LIKE $2 OR name ILIKE $2)
		ORDER BY last_visit DESC NULLS LAST
		LIMIT $3`

	rows, err := r.db.Query(ctx, sql, storeID, "%"+query+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.StoreID, &c.Phone, &c.Name, &c.Points, &c.TotalSpent, &c.TotalVisits, &c.LastVisit, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
