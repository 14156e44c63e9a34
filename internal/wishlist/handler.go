package wishlist

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/Snkb-ch/store/internal/auth"
	"github.com/Snkb-ch/store/internal/domain"
)

type Handler struct {
	repo   *Repository
	logger *slog.Logger
}

func NewHandler(repo *Repository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	customer, _ := auth.CustomerFrom(r.Context())

	items, err := h.repo.List(r.Context(), customer.ID)
	if err != nil {
		h.logger.Error("failed to list wishlist", "error", err, "customer_id", customer.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, items)
}

type addRequest struct {
	ProductID string `json:"product_id"`
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	customer, _ := auth.CustomerFrom(r.Context())

	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID == "" {
		h.writeError(w, http.StatusBadRequest, "missing product_id")
		return
	}
	if !validProductID(req.ProductID) {
		h.writeError(w, http.StatusBadRequest, "unknown product")
		return
	}

	item, err := h.repo.Add(r.Context(), customer.ID, req.ProductID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicate):
			h.writeError(w, http.StatusBadRequest, "product already in wishlist")
		case errors.Is(err, domain.ErrNotFound):
			h.writeError(w, http.StatusBadRequest, "unknown product")
		default:
			h.logger.Error("failed to add wishlist item", "error", err, "product_id", req.ProductID)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.logger.Info("wishlist item added", "customer_id", customer.ID, "product_id", req.ProductID)
	h.writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	customer, _ := auth.CustomerFrom(r.Context())
	productID := r.PathValue("productId")
	if !validProductID(productID) {
		h.writeError(w, http.StatusBadRequest, "product not in wishlist")
		return
	}

	if err := h.repo.Remove(r.Context(), customer.ID, productID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.writeError(w, http.StatusBadRequest, "product not in wishlist")
			return
		}
		h.logger.Error("failed to remove wishlist item", "error", err, "product_id", productID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("wishlist item removed", "customer_id", customer.ID, "product_id", productID)
	w.WriteHeader(http.StatusNoContent)
}

// Product ids are UUID columns; a malformed id cannot match any wishlist
// row, and must not reach the database as a cast error.
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
