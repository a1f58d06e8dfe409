package customers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tillward/tillward/internal/platform/httpx"
	"github.com/tillward/tillward/internal/shared"
)

// CustomerResponse is the API shape of a customer.
type CustomerResponse struct {
	ID          int64      `json:"id"`
	Phone       string     `json:"phone"`
	Name        string     `json:"name"`
	Points      int64      `json:"points"`
	TotalSpent  float64    `json:"total_spent"`
	TotalVisits int64      `json:"total_visits"`
	LastVisit   *time.Time `json:"last_visit,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func newCustomerResponse(c *Customer) CustomerResponse {
	return CustomerResponse{
		ID:          c.ID,
		Phone:       c.Phone,
		Name:        c.Name,
		Points:      c.Points,
		TotalSpent:  c.TotalSpent,
		TotalVisits: c.TotalVisits,
		LastVisit:   c.LastVisit,
		CreatedAt:   c.CreatedAt,
	}
}

// Handler wires HTTP endpoints for customer lookup.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if actor == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "customerID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid customer id", httpx.ErrValidation))
		return
	}

	customer, err := h.service.Get(r.Context(), actor.StoreID, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newCustomerResponse(customer))
}

func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if actor == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	phone := r.URL.Query().Get("phone")
	if phone == "" {
		httpx.RespondError(w, fmt.Errorf("%w: phone required", httpx.ErrValidation))
		return
	}

	customer, err := h.service.GetByPhone(r.Context(), actor.StoreID, phone)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newCustomerResponse(customer))
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if actor == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	query := r.URL.Query().Get("q")
	limit := 25
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	results, err := h.service.Search(r.Context(), actor.StoreID, query, limit)
	if err != nil {
		h.respondError(w, err)
		return
	}

	out := make([]CustomerResponse, 0, len(results))
	for i := range results {
		out = append(out, newCustomerResponse(&results[i]))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Customer Not Found", err.Error())
	case errors.Is(err, ErrPhoneRequired):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("customer request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
