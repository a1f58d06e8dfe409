package loyalty

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/tillward/tillward/internal/auth"
	"github.com/tillward/tillward/internal/platform/httpx"
)

// MountRoutes registers loyalty routes.
func (h *Handler) MountRoutes(r chi.Router) {
	limiter := httprate.Limit(30, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "redemption rate limit exceeded")
		}),
	)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequirePermission(auth.PermViewCustomers))
		r.Get("/balance", h.Balance)
		r.Get("/history", h.History)
	})
	r.Group(func(r chi.Router) {
		r.Use(auth.RequirePermission(auth.PermRedeemPoints))
		r.Use(limiter)
		r.Post("/redeem", h.Redeem)
	})
}
