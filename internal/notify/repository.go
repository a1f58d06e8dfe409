package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Notification is a persisted in-app message for the store.
type Notification struct {
	ID        int64           `json:"id"`
	StoreID   int64           `json:"store_id"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	IsRead    bool            `json:"is_read"`
	CreatedAt time.Time       `json:"created_at"`
}

// Repository persists notification rows written by the worker.
type Repository interface {
	Insert(ctx context.Context, n Notification) (int64, error)
	ListUnread(ctx context.Context, storeID int64, limit int) ([]Notification, error)
	MarkRead(ctx context.Context, storeID, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Insert(ctx context.Context, n Notification) (int64, error) {
	const query = `
		INSERT INTO notifications (store_id, type, title, message, metadata, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6)
		RETURNING id`

	createdAt := n.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	metadata := n.Metadata
	if len(metadata) == 0 {
		metadata = json.RawMessage(`{}`)
	}

	var id int64
	err := r.pool.QueryRow(ctx, query, n.StoreID, n.Type, n.Title, n.Message, metadata, createdAt).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) ListUnread(ctx context.Context, storeID int64, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT id, store_id, type, title, message, metadata, is_read, created_at
		FROM notifications
		WHERE store_id = $1 AND NOT is_read
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, storeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.StoreID, &n.Type, &n.Title, &n.Message, &n.Metadata, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *repository) MarkRead(ctx context.Context, storeID, id int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE store_id = $1 AND id = $2`, storeID, id)
	return err
}
