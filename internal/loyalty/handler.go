package loyalty

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/tillward/tillward/internal/platform/httpx"
	"github.com/tillward/tillward/internal/shared"
)

// Handler wires HTTP endpoints for the loyalty ledger.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if actor == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	var req RedeemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid body", httpx.ErrValidation))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error()))
		return
	}

	result, err := h.service.Redeem(r.Context(), actor.StoreID, req.Phone, req.Points, req.Reason)
	if err != nil {
		h.respondRedemptionError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, RedeemResponse{
		CustomerID: result.CustomerID,
		Redeemed:   result.Redeemed,
		NewBalance: result.NewBalance,
	})
}

// respondRedemptionError maps rejection reasons to client-facing
// problems; anything else degrades to a 500.
func (h *Handler) respondRedemptionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrCustomerNotFound):
		httpx.Problem(w, http.StatusNotFound, "Customer Not Found", err.Error())
	case errors.Is(err, ErrBelowMinimumBalance),
		errors.Is(err, ErrInsufficientBalance),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrProgramDisabled):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Redemption Rejected", err.Error())
	default:
		h.logger.Error("redemption failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
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

	balance, err := h.service.GetBalance(r.Context(), actor.StoreID, phone)
	if err != nil {
		h.respondRedemptionError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, BalanceResponse{
		CustomerID: balance.Customer.ID,
		Name:       balance.Customer.Name,
		Phone:      balance.Customer.Phone,
		Points:     balance.Cached,
		Reconciled: balance.Reconciled,
	})
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
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
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries, err := h.service.History(r.Context(), actor.StoreID, phone, limit)
	if err != nil {
		h.respondRedemptionError(w, err)
		return
	}

	out := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, EntryResponse{
			ID:          e.ID,
			Points:      e.Points,
			Kind:        string(e.Kind),
			Description: e.Description,
			CreatedAt:   e.CreatedAt,
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}
