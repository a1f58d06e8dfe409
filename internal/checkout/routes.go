package checkout

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/tillward/tillward/internal/auth"
	"github.com/tillward/tillward/internal/platform/httpx"
)

// MountRoutes registers checkout routes.
func (h *Handler) MountRoutes(r chi.Router) {
	limiter := httprate.Limit(60, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "checkout rate limit exceeded")
		}),
	)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequirePermission(auth.PermProcessSale))
		r.With(limiter).Post("/", h.Settle)
		r.Post("/preview", h.Preview)
		r.Get("/", h.ListSales)
		r.Get("/{saleID}", h.GetSale)
	})
	r.Group(func(r chi.Router) {
		r.Use(auth.RequirePermission(auth.PermDeleteSale))
		r.Delete("/{saleID}", h.DeleteSale)
	})
}
