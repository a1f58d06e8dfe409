package sequence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tillward/tillward/internal/shared"
)

// Repository allocates receipt numbers.
type Repository interface {
	NextNumber(ctx context.Context, storeID int64) (Receipt, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db dbtx
}

// NewRepository constructs a pool-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

// NewTxRepository binds the allocator to an open transaction so a
// settlement draws its number inside the same commit boundary.
func NewTxRepository(tx pgx.Tx) Repository {
	return &repository{db: tx}
}

func (r *repository) NextNumber(ctx context.Context, storeID int64) (Receipt, error) {
	const query = `
		UPDATE stores
		SET last_transaction_number = last_transaction_number + 1
		WHERE id = $1
		RETURNING last_transaction_number, COALESCE(receipt_prefix, ''), COALESCE(receipt_suffix, '')`

	var receipt Receipt
	err := r.db.QueryRow(ctx, query, storeID).Scan(&receipt.Number, &receipt.Prefix, &receipt.Suffix)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Receipt{}, shared.ErrNotFound
		}
		return Receipt{}, err
	}
	return receipt, nil
}
