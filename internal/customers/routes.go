package customers

import (
	"github.com/go-chi/chi/v5"

	"github.com/tillward/tillward/internal/auth"
)

// MountRoutes registers customer lookup routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequirePermission(auth.PermViewCustomers))
		r.Get("/", h.Search)
		r.Get("/lookup", h.Lookup)
		r.Get("/{customerID}", h.Get)
	})
}
