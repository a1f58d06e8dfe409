package stock

import (
	"github.com/go-chi/chi/v5"

	"github.com/tillward/tillward/internal/auth"
)

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{productID}", h.GetProduct)
	r.With(auth.RequirePermission(auth.PermAdjustStock)).Post("/adjust", h.Adjust)
}
