package stores

import (
	"github.com/go-chi/chi/v5"

	"github.com/tillward/tillward/internal/auth"
)

// MountRoutes registers store settings routes. Reads are open to any
// authenticated terminal; writes need the manage permission.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/settings", h.GetSettings)
	r.With(auth.RequirePermission(auth.PermManageStore)).Patch("/settings", h.UpdateSettings)
}
