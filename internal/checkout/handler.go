package checkout

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tillward/tillward/internal/customers"
	"github.com/tillward/tillward/internal/loyalty"
	"github.com/tillward/tillward/internal/payments"
	"github.com/tillward/tillward/internal/platform/httpx"
	"github.com/tillward/tillward/internal/shared"
)

// Handler wires HTTP endpoints for settlement.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	gateway  payments.Gateway
	validate *validator.Validate
}

// NewHandler constructs a Handler. gateway may be nil when no payment
// provider is configured; non-cash sales then settle without a link.
func NewHandler(logger *slog.Logger, service *Service, gateway payments.Gateway) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		gateway:  gateway,
		validate: validator.New(),
	}
}

func (h *Handler) Settle(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if actor == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	var req SettleSaleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid body", httpx.ErrValidation))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error()))
		return
	}

	result, err := h.service.Settle(r.Context(), SettleRequest{
		StoreID:        actor.StoreID,
		EmployeeID:     actor.EmployeeID,
		IdempotencyKey: req.IdempotencyKey,
		PaymentMethod:  req.PaymentMethod,
		Lines:          toCartLines(req.Lines),
		CustomerPhone:  req.CustomerPhone,
		CustomerName:   req.CustomerName,
		RedeemPoints:   req.RedeemPoints,
	})
	if err != nil {
		h.respondSettlementError(w, err)
		return
	}

	resp := SettleSaleResponse{
		SaleID:        result.SaleID,
		PublicID:      result.PublicID,
		ReceiptNo:     result.ReceiptNo,
		Subtotal:      result.Subtotal,
		Tax:           result.Tax,
		Discount:      result.Discount,
		GrandTotal:    result.GrandTotal,
		PointsEarned:  result.PointsEarned,
		PointsBalance: result.PointsBalance,
		IsNewCustomer: result.IsNewCustomer,
		Warnings:      result.Warnings,
	}
	if resp.Warnings == nil {
		resp.Warnings = []Warning{}
	}

	if req.PaymentMethod != "cash" && h.gateway != nil && result.GrandTotal > 0 {
		auth, err := h.gateway.InitializePayment(r.Context(), payments.InitializeInput{
			Amount:      result.GrandTotal,
			Reference:   result.ReceiptNo,
			CustomerRef: req.CustomerPhone,
			Description: "sale " + result.ReceiptNo,
		})
		if err != nil {
			h.logger.Error("payment link failed", slog.String("receipt_no", result.ReceiptNo), slog.Any("error", err))
			resp.Warnings = append(resp.Warnings, Warning{
				Code:    WarnPaymentLinkFailed,
				Message: "sale recorded, payment link could not be created",
			})
		} else {
			resp.PaymentURL = auth.CheckoutURL
		}
	}

	httpx.JSON(w, http.StatusCreated, resp)
}

func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if actor == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	var req PreviewSaleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid body", httpx.ErrValidation))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error()))
		return
	}

	result, err := h.service.Preview(r.Context(), SettleRequest{
		StoreID:       actor.StoreID,
		Lines:         toCartLines(req.Lines),
		CustomerPhone: req.CustomerPhone,
		RedeemPoints:  req.RedeemPoints,
	})
	if err != nil {
		h.respondSettlementError(w, err)
		return
	}

	warnings := result.Warnings
	if warnings == nil {
		warnings = []Warning{}
	}
	httpx.JSON(w, http.StatusOK, PreviewSaleResponse{
		Subtotal:      result.Subtotal,
		Tax:           result.Tax,
		Discount:      result.Discount,
		GrandTotal:    result.GrandTotal,
		PointsEarned:  result.PointsEarned,
		PointsBalance: result.PointsBalance,
		Warnings:      warnings,
	})
}

func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if actor == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	saleID, err := strconv.ParseInt(chi.URLParam(r, "saleID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid sale id", httpx.ErrValidation))
		return
	}

	sale, items, err := h.service.GetSale(r.Context(), actor.StoreID, saleID)
	if err != nil {
		h.respondSettlementError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newSaleResponse(sale, items))
}

func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if actor == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	limit, offset := 50, 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	sales, total, err := h.service.ListSales(r.Context(), actor.StoreID, limit, offset)
	if err != nil {
		h.respondSettlementError(w, err)
		return
	}

	out := make([]SaleResponse, 0, len(sales))
	for i := range sales {
		out = append(out, newSaleResponse(&sales[i], nil))
	}
	httpx.JSON(w, http.StatusOK, ListSalesResponse{Sales: out, Total: total, Limit: limit, Offset: offset})
}

func (h *Handler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if actor == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	saleID, err := strconv.ParseInt(chi.URLParam(r, "saleID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid sale id", httpx.ErrValidation))
		return
	}

	if err := h.service.DeleteSale(r.Context(), actor.StoreID, saleID); err != nil {
		h.respondSettlementError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// respondSettlementError maps pipeline failures onto the operator
// error taxonomy. Duplicates are conflicts, loyalty rejections are
// unprocessable, anything unexpected is a 500 without detail leakage.
func (h *Handler) respondSettlementError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrPaymentMethodRequired),
		errors.Is(err, ErrIdempotencyKeyInvalid),
		errors.Is(err, customers.ErrPhoneRequired):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrUnknownProduct):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Unknown Product", err.Error())
	case errors.Is(err, ErrDuplicateCheckout):
		httpx.Problem(w, http.StatusConflict, "Duplicate Checkout", err.Error())
	case errors.Is(err, ErrRedeemRequiresMember),
		errors.Is(err, loyalty.ErrInsufficientBalance),
		errors.Is(err, loyalty.ErrBelowMinimumBalance),
		errors.Is(err, loyalty.ErrProgramDisabled):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Redemption Rejected", err.Error())
	case errors.Is(err, ErrSaleNotFound):
		httpx.Problem(w, http.StatusNotFound, "Sale Not Found", err.Error())
	default:
		h.logger.Error("settlement failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func toCartLines(lines []CartLineRequest) []CartLine {
	out := make([]CartLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, CartLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	return out
}
