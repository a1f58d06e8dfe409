package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tillward/tillward/internal/auth"
	"github.com/tillward/tillward/internal/checkout"
	"github.com/tillward/tillward/internal/customers"
	"github.com/tillward/tillward/internal/loyalty"
	"github.com/tillward/tillward/internal/notify"
	"github.com/tillward/tillward/internal/stock"
	"github.com/tillward/tillward/internal/stores"
	"github.com/tillward/tillward/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	AuthService      *auth.Service
	CheckoutHandler  *checkout.Handler
	LoyaltyHandler   *loyalty.Handler
	CustomersHandler *customers.Handler
	StockHandler     *stock.Handler
	StoresHandler    *stores.Handler
	NotifyHandler    *notify.Handler
	JobHandler       *jobs.Handler
}

// NewRouter constructs the chi router. Everything under /api/v1
// requires a terminal key; /healthz and the queue probe do not.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware(params.AuthService, params.Logger))

		r.Route("/sales", params.CheckoutHandler.MountRoutes)
		r.Route("/loyalty", params.LoyaltyHandler.MountRoutes)
		r.Route("/customers", params.CustomersHandler.MountRoutes)
		r.Route("/stock", params.StockHandler.MountRoutes)
		r.Route("/store", params.StoresHandler.MountRoutes)
		r.Route("/notifications", params.NotifyHandler.MountRoutes)
	})

	return r
}
