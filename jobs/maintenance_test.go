package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

type recordingCleaner struct {
	calls []time.Duration
	fail  error
}

func (c *recordingCleaner) Cleanup(ctx context.Context, olderThan time.Duration) error {
	c.calls = append(c.calls, olderThan)
	return c.fail
}

func newMaintenance(cleaner *recordingCleaner, retention time.Duration) *Maintenance {
	return NewMaintenance(cleaner, retention, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestPurgeIdempotencyKeys(t *testing.T) {
	cleaner := &recordingCleaner{}
	m := newMaintenance(cleaner, 72*time.Hour)

	task := asynq.NewTask(TaskTypePurgeIdempotencyKeys, nil)
	require.NoError(t, m.HandlePurgeIdempotencyKeys(context.Background(), task))
	require.Equal(t, []time.Duration{72 * time.Hour}, cleaner.calls)
}

func TestPurgeIdempotencyKeysDefaultRetention(t *testing.T) {
	cleaner := &recordingCleaner{}
	m := newMaintenance(cleaner, 0)

	task := asynq.NewTask(TaskTypePurgeIdempotencyKeys, nil)
	require.NoError(t, m.HandlePurgeIdempotencyKeys(context.Background(), task))
	require.Equal(t, []time.Duration{48 * time.Hour}, cleaner.calls)
}

func TestPurgeIdempotencyKeysFailureRetries(t *testing.T) {
	cleaner := &recordingCleaner{fail: errors.New("postgres down")}
	m := newMaintenance(cleaner, time.Hour)

	task := asynq.NewTask(TaskTypePurgeIdempotencyKeys, nil)
	err := m.HandlePurgeIdempotencyKeys(context.Background(), task)
	require.Error(t, err)
	require.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestMaintenanceRegistrations(t *testing.T) {
	m := newMaintenance(&recordingCleaner{}, time.Hour)

	handlers := m.Handlers()
	require.Len(t, handlers, 1)
	require.Equal(t, TaskTypePurgeIdempotencyKeys, handlers[0].Type)
	require.NotNil(t, handlers[0].Handler)

	cron := m.Cron()
	require.Len(t, cron, 1)
	require.Equal(t, "0 3 * * *", cron[0].Spec)
	require.Equal(t, TaskTypePurgeIdempotencyKeys, cron[0].Task.Type())
}
