package stores

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/tillward/tillward/internal/platform/httpx"
	"github.com/tillward/tillward/internal/pricing"
	"github.com/tillward/tillward/internal/shared"
)

// UpdateSettingsRequest is the partial settings update body.
type UpdateSettingsRequest struct {
	ReceiptPrefix       *string  `json:"receipt_prefix,omitempty" validate:"omitempty,max=10"`
	ReceiptSuffix       *string  `json:"receipt_suffix,omitempty" validate:"omitempty,max=10"`
	TaxEnabled          *bool    `json:"tax_enabled,omitempty"`
	TaxKind             *string  `json:"tax_kind,omitempty" validate:"omitempty,oneof=percentage fixed"`
	TaxValue            *float64 `json:"tax_value,omitempty" validate:"omitempty,gte=0"`
	LoyaltyEnabled      *bool    `json:"loyalty_enabled,omitempty"`
	EarnRate            *float64 `json:"earn_rate,omitempty" validate:"omitempty,gte=0"`
	RedemptionRate      *float64 `json:"redemption_rate,omitempty" validate:"omitempty,gte=0"`
	MinRedemptionPoints *int64   `json:"min_redemption_points,omitempty" validate:"omitempty,gte=0"`
	LowStockThreshold   *int64   `json:"low_stock_threshold,omitempty" validate:"omitempty,gte=0"`
}

// Handler wires HTTP endpoints for store settings.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if actor == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	settings, err := h.service.GetSettings(r.Context(), actor.StoreID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, settings)
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if actor == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	var req UpdateSettingsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid body", httpx.ErrValidation))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error()))
		return
	}

	input := UpdateSettingsInput{
		ReceiptPrefix:       req.ReceiptPrefix,
		ReceiptSuffix:       req.ReceiptSuffix,
		TaxEnabled:          req.TaxEnabled,
		TaxValue:            req.TaxValue,
		LoyaltyEnabled:      req.LoyaltyEnabled,
		EarnRate:            req.EarnRate,
		RedemptionRate:      req.RedemptionRate,
		MinRedemptionPoints: req.MinRedemptionPoints,
		LowStockThreshold:   req.LowStockThreshold,
	}
	if req.TaxKind != nil {
		kind := pricing.TaxKind(*req.TaxKind)
		input.TaxKind = &kind
	}

	settings, err := h.service.UpdateSettings(r.Context(), actor.StoreID, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, settings)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrStoreNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Store Not Found", err.Error())
		return
	}
	h.logger.Error("store settings request failed", slog.Any("error", err))
	httpx.RespondError(w, err)
}
