package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// TaskTypePurgeIdempotencyKeys removes settled idempotency keys that
// passed retention. The sales table keeps its own unique key column,
// so a purged key can never resurrect a duplicate sale.
const TaskTypePurgeIdempotencyKeys = "maintenance:purge_idempotency_keys"

// IdempotencyCleaner is satisfied by shared.IdempotencyStore.
type IdempotencyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// Maintenance runs scheduled housekeeping tasks.
type Maintenance struct {
	idempotency IdempotencyCleaner
	retention   time.Duration
	logger      *slog.Logger
}

// NewMaintenance constructs the maintenance handlers.
func NewMaintenance(idempotency IdempotencyCleaner, retention time.Duration, logger *slog.Logger) *Maintenance {
	if retention <= 0 {
		retention = 48 * time.Hour
	}
	return &Maintenance{idempotency: idempotency, retention: retention, logger: logger}
}

// HandlePurgeIdempotencyKeys deletes keys older than retention.
func (m *Maintenance) HandlePurgeIdempotencyKeys(ctx context.Context, task *asynq.Task) error {
	if err := m.idempotency.Cleanup(ctx, m.retention); err != nil {
		return fmt.Errorf("purge idempotency keys: %w", err)
	}
	m.logger.Info("idempotency keys purged", slog.Duration("retention", m.retention))
	return nil
}

// Handlers returns the mux registrations for maintenance tasks.
func (m *Maintenance) Handlers() []TaskHandler {
	return []TaskHandler{
		{Type: TaskTypePurgeIdempotencyKeys, Handler: m.HandlePurgeIdempotencyKeys},
	}
}

// Cron returns the maintenance schedule: one purge run nightly.
func (m *Maintenance) Cron() []CronRegistration {
	return []CronRegistration{
		{Spec: "0 3 * * *", Task: asynq.NewTask(TaskTypePurgeIdempotencyKeys, nil)},
	}
}
