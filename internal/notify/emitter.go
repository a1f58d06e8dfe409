package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Emitter enqueues notification tasks. Fire-and-forget: callers log
// the error, attach a warning, and move on.
type Emitter interface {
	Emit(ctx context.Context, task *asynq.Task) error
}

// AsynqEmitter pushes tasks onto the Redis-backed queue.
type AsynqEmitter struct {
	client *asynq.Client
	logger *slog.Logger
}

// NewAsynqEmitter constructs an AsynqEmitter.
func NewAsynqEmitter(client *asynq.Client, logger *slog.Logger) *AsynqEmitter {
	return &AsynqEmitter{client: client, logger: logger}
}

// Emit enqueues a task on the default queue.
func (e *AsynqEmitter) Emit(ctx context.Context, task *asynq.Task) error {
	info, err := e.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	if err != nil {
		return fmt.Errorf("notify: enqueue %s: %w", task.Type(), err)
	}
	e.logger.Debug("notification enqueued",
		slog.String("type", task.Type()),
		slog.String("task_id", info.ID),
	)
	return nil
}

// NopEmitter drops every task. Used when Redis is unavailable and in
// tests: settlement must behave identically either way.
type NopEmitter struct{}

// Emit discards the task.
func (NopEmitter) Emit(ctx context.Context, task *asynq.Task) error {
	return nil
}
