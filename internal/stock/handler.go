package stock

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tillward/tillward/internal/platform/httpx"
	"github.com/tillward/tillward/internal/shared"
)

// AdjustRequest is a manual stock change: restock, correction or
// spoilage. Change is signed.
type AdjustRequest struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Change    int64  `json:"change" validate:"required"`
	Note      string `json:"note,omitempty" validate:"max=200"`
}

// ProductResponse is the inventory view returned to terminals.
type ProductResponse struct {
	ID        int64   `json:"id"`
	SKU       string  `json:"sku"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	CostPrice float64 `json:"cost_price"`
	Stock     int64   `json:"stock"`
}

// MovementResponse is the recorded outcome of a stock change.
type MovementResponse struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Change      int64  `json:"change"`
	NewStock    int64  `json:"new_stock"`
}

// Handler wires HTTP endpoints for inventory adjustments.
type Handler struct {
	logger   *slog.Logger
	adjuster *Adjuster
	repo     Repository
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, adjuster *Adjuster, repo Repository) *Handler {
	return &Handler{logger: logger, adjuster: adjuster, repo: repo, validate: validator.New()}
}

func (h *Handler) Adjust(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if actor == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	var req AdjustRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid body", httpx.ErrValidation))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error()))
		return
	}

	movement, err := h.adjuster.Adjust(r.Context(), AdjustmentInput{
		StoreID:   actor.StoreID,
		ProductID: req.ProductID,
		Change:    req.Change,
		Note:      req.Note,
		ActorID:   actor.EmployeeID,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, MovementResponse{
		ProductID:   movement.ProductID,
		ProductName: movement.ProductName,
		Change:      movement.Change,
		NewStock:    movement.NewStock,
	})
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	if actor == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid product id", httpx.ErrValidation))
		return
	}

	product, err := h.repo.GetProduct(r.Context(), actor.StoreID, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ProductResponse{
		ID:        product.ID,
		SKU:       product.SKU,
		Name:      product.Name,
		Price:     product.Price,
		CostPrice: product.CostPrice,
		Stock:     product.Stock,
	})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrProductNotFound):
		httpx.Problem(w, http.StatusNotFound, "Product Not Found", err.Error())
	case errors.Is(err, ErrInvalidChange):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("stock request failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
