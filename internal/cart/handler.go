package cart

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/Snkb-ch/store/internal/auth"
	"github.com/Snkb-ch/store/internal/domain"
)

type Store interface {
	Add(ctx context.Context, customerID, productID string, quantity int) (*domain.CartItem, error)
	Remove(ctx context.Context, customerID, productID string) error
	Increase(ctx context.Context, customerID, productID string) (*domain.CartItem, error)
	Decrease(ctx context.Context, customerID, productID string) (*domain.CartItem, error)
	SetQuantity(ctx context.Context, customerID, productID string, quantity int) (*domain.CartItem, error)
	Clear(ctx context.Context, customerID string) error
	List(ctx context.Context, customerID string) (*domain.Cart, error)
}

type Handler struct {
	store  Store
	logger *slog.Logger
}

func NewHandler(store Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

type addRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.CustomerFrom(r.Context())

	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ProductID == "" {
		h.writeError(w, http.StatusBadRequest, "product_id is required")
		return
	}
	if !validProductID(req.ProductID) {
		h.writeError(w, http.StatusBadRequest, "invalid product_id")
		return
	}
	if req.Quantity < 1 {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidQuantity.Error())
		return
	}

	item, err := h.store.Add(r.Context(), principal.ID, req.ProductID, req.Quantity)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.writeError(w, http.StatusBadRequest, "product not found")
			return
		}
		h.logger.Error("failed to add cart item", "error", err, "customer_id", principal.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("cart item added", "customer_id", principal.ID, "product_id", req.ProductID, "quantity", req.Quantity)
	h.writeJSON(w, http.StatusOK, item)
}

type productRequest struct {
	ProductID string `json:"product_id"`
}

func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.CustomerFrom(r.Context())

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !validProductID(req.ProductID) {
		h.writeError(w, http.StatusBadRequest, "invalid product_id")
		return
	}

	if err := h.store.Remove(r.Context(), principal.ID, req.ProductID); err != nil {
		h.logger.Error("failed to remove cart item", "error", err, "customer_id", principal.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("cart item removed", "customer_id", principal.ID, "product_id", req.ProductID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleIncrease(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.store.Increase, "cart item increased")
}

func (h *Handler) HandleDecrease(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, h.store.Decrease, "cart item decreased")
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request, op func(context.Context, string, string) (*domain.CartItem, error), msg string) {
	principal, _ := auth.CustomerFrom(r.Context())

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !validProductID(req.ProductID) {
		h.writeError(w, http.StatusBadRequest, "invalid product_id")
		return
	}

	item, err := op(r.Context(), principal.ID, req.ProductID)
	if err != nil {
		h.logger.Error("failed to adjust cart item", "error", err, "customer_id", principal.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info(msg, "customer_id", principal.ID, "product_id", req.ProductID)
	h.writeJSON(w, http.StatusOK, item)
}

type updateQuantityRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// HandleUpdateQuantity sets an absolute quantity. Zero and negative values
// are rejected; removing a line goes through remove or decrease.
func (h *Handler) HandleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.CustomerFrom(r.Context())

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !validProductID(req.ProductID) {
		h.writeError(w, http.StatusBadRequest, "invalid product_id")
		return
	}
	if req.Quantity < 1 {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidQuantity.Error())
		return
	}

	item, err := h.store.SetQuantity(r.Context(), principal.ID, req.ProductID, req.Quantity)
	if err != nil {
		h.logger.Error("failed to update cart quantity", "error", err, "customer_id", principal.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("cart quantity updated", "customer_id", principal.ID, "product_id", req.ProductID, "quantity", req.Quantity)
	h.writeJSON(w, http.StatusOK, item)
}

func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.CustomerFrom(r.Context())

	if err := h.store.Clear(r.Context(), principal.ID); err != nil {
		h.logger.Error("failed to clear cart", "error", err, "customer_id", principal.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("cart cleared", "customer_id", principal.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.CustomerFrom(r.Context())

	cart, err := h.store.List(r.Context(), principal.ID)
	if err != nil {
		h.logger.Error("failed to list cart", "error", err, "customer_id", principal.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, cart)
}

// Product ids are UUID columns; anything else would error inside the
// database instead of reading as a missing product.
func validProductID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
