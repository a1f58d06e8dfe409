package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tillward/tillward/internal/shared"
)

// Repository loads terminal credentials.
type Repository interface {
	GetTerminalKey(ctx context.Context, id int64) (*TerminalKey, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) GetTerminalKey(ctx context.Context, id int64) (*TerminalKey, error) {
	const query = `
		SELECT tk.id, tk.store_id, tk.employee_id, tk.key_hash, tk.is_active, tk.created_at,
		       e.name, e.role
		FROM terminal_keys tk
		JOIN employees e ON e.id = tk.employee_id
		WHERE tk.id = $1 AND e.is_active`

	var k TerminalKey
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&k.ID, &k.StoreID, &k.EmployeeID, &k.KeyHash, &k.IsActive, &k.CreatedAt,
		&k.EmployeeName, &k.EmployeeRole,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &k, nil
}
