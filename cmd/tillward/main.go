package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/tillward/tillward/internal/app"
	"github.com/tillward/tillward/internal/auth"
	"github.com/tillward/tillward/internal/checkout"
	"github.com/tillward/tillward/internal/customers"
	"github.com/tillward/tillward/internal/loyalty"
	"github.com/tillward/tillward/internal/notify"
	"github.com/tillward/tillward/internal/payments"
	"github.com/tillward/tillward/internal/platform/cache"
	"github.com/tillward/tillward/internal/platform/db"
	"github.com/tillward/tillward/internal/shared"
	"github.com/tillward/tillward/internal/stock"
	"github.com/tillward/tillward/internal/stores"
	"github.com/tillward/tillward/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	var emitter notify.Emitter = notify.NopEmitter{}
	var settingsCache *stores.Cache
	var jobHandler *jobs.Handler
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		// The pipeline runs without Redis: no settings cache, no
		// notification dispatch, warnings on every sale instead.
		logger.Warn("redis unavailable, running degraded", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		settingsCache = stores.NewCache(redisClient, cfg.SettingsCacheTTL)

		asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer func() {
			if err := asynqClient.Close(); err != nil {
				logger.Warn("asynq close", slog.Any("error", err))
			}
		}()
		emitter = notify.NewAsynqEmitter(asynqClient, logger)
		jobHandler = jobs.NewHandler(asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr}), logger)
	}

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)

	storesRepo := stores.NewRepository(pool)
	storesService := stores.NewService(storesRepo, settingsCache, logger)
	storesHandler := stores.NewHandler(logger, storesService)

	stockRepo := stock.NewRepository(pool)
	adjuster := stock.NewAdjuster(stockRepo, logger)
	stockHandler := stock.NewHandler(logger, adjuster, stockRepo)

	customersRepo := customers.NewRepository(pool)
	customersService := customers.NewService(customersRepo)
	customersHandler := customers.NewHandler(logger, customersService)

	ledgerRepo := loyalty.NewRepository(pool)
	loyaltyService := loyalty.NewService(ledgerRepo, customersRepo, storesService, logger)
	loyaltyHandler := loyalty.NewHandler(logger, loyaltyService)

	notifyHandler := notify.NewHandler(logger, notify.NewRepository(pool))

	idempotencyStore := shared.NewIdempotencyStore(pool)

	var gateway payments.Gateway
	if cfg.PaymentGatewayKey != "" {
		gateway = payments.NewHTTPGateway(cfg.PaymentGatewayURL, cfg.PaymentGatewayKey, cfg.PaymentTimeout, logger)
	}

	checkoutRepo := checkout.NewRepository(pool)
	checkoutService := checkout.NewService(
		checkoutRepo,
		stockRepo,
		customersService,
		storesService,
		idempotencyStore,
		emitter,
		logger,
	)
	checkoutHandler := checkout.NewHandler(logger, checkoutService, gateway)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AuthService:      authService,
		CheckoutHandler:  checkoutHandler,
		LoyaltyHandler:   loyaltyHandler,
		CustomersHandler: customersHandler,
		StockHandler:     stockHandler,
		StoresHandler:    storesHandler,
		NotifyHandler:    notifyHandler,
		JobHandler:       jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", slog.Any("error", err))
	}
}
