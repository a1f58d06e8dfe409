package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/tillward/tillward/internal/app"
	"github.com/tillward/tillward/internal/notify"
	"github.com/tillward/tillward/internal/platform/db"
	"github.com/tillward/tillward/internal/shared"
	"github.com/tillward/tillward/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	var sms jobs.SMSSender = jobs.NopSMSSender{}
	if cfg.SMSGatewayURL != "" {
		sms = jobs.NewHTTPSMSSender(cfg.SMSGatewayURL, cfg.SMSGatewayToken, cfg.SMSSenderID, logger)
	} else {
		logger.Warn("no sms gateway configured, dropping outbound messages")
	}

	notifier := jobs.NewNotifier(notify.NewRepository(pool), sms, logger)
	maintenance := jobs.NewMaintenance(shared.NewIdempotencyStore(pool), cfg.IdempotencyRetention, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Notifier:  notifier,
		Handlers:  maintenance.Handlers(),
		Cron:      maintenance.Cron(),
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("notification worker started", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
