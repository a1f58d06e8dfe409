package notify

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the notification feed. Any authenticated
// terminal can read and acknowledge its store's feed.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.ListUnread)
	r.Post("/{notificationID}/read", h.MarkRead)
}
