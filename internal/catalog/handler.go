package catalog

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

func (h *Handler) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	categoryID := r.URL.Query().Get("category")
	if categoryID != "" && !validID(categoryID) {
		h.writeError(w, http.StatusBadRequest, "invalid category")
		return
	}

	products, err := h.repo.ListProducts(r.Context(), categoryID)
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, products)
}

func (h *Handler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("id")
	if !validID(productID) {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	product, err := h.repo.GetProduct(r.Context(), productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("failed to get product", "error", err, "product_id", productID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, product)
}

type productRequest struct {
	Name              string  `json:"name"`
	Price             int64   `json:"price"`
	CategoryID        *string `json:"category_id"`
	Description       string  `json:"description"`
	AvailableQuantity int     `json:"available_quantity"`
}

func (h *Handler) HandleCreateProduct(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "missing product name")
		return
	}
	if req.Price < 0 {
		h.writeError(w, http.StatusBadRequest, "price must not be negative")
		return
	}
	if req.CategoryID != nil && !validID(*req.CategoryID) {
		h.writeError(w, http.StatusBadRequest, "unknown category")
		return
	}

	product, err := h.repo.CreateProduct(r.Context(), domain.Product{
		Name:              req.Name,
		Price:             req.Price,
		CategoryID:        req.CategoryID,
		Description:       req.Description,
		AvailableQuantity: req.AvailableQuantity,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.writeError(w, http.StatusBadRequest, "unknown category")
			return
		}
		h.logger.Error("failed to create product", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("product created", "product_id", product.ID)
	h.writeJSON(w, http.StatusCreated, product)
}

func (h *Handler) HandleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	productID := r.PathValue("id")
	if !validID(productID) {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	var patch ProductPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if patch.Price != nil && *patch.Price < 0 {
		h.writeError(w, http.StatusBadRequest, "price must not be negative")
		return
	}
	if patch.CategoryID.Value != nil && !validID(*patch.CategoryID.Value) {
		h.writeError(w, http.StatusBadRequest, "unknown category")
		return
	}

	product, err := h.repo.UpdateProduct(r.Context(), productID, patch)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("failed to update product", "error", err, "product_id", productID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("product updated", "product_id", productID)
	h.writeJSON(w, http.StatusOK, product)
}

func (h *Handler) HandleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	productID := r.PathValue("id")
	if !validID(productID) {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	if err := h.repo.DeleteProduct(r.Context(), productID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("failed to delete product", "error", err, "product_id", productID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("product deleted", "product_id", productID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repo.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("failed to list categories", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, categories)
}

type categoryRequest struct {
	Name string `json:"name"`
}

func (h *Handler) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "missing category name")
		return
	}

	category, err := h.repo.CreateCategory(r.Context(), req.Name)
	if err != nil {
		h.logger.Error("failed to create category", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("category created", "category_id", category.ID)
	h.writeJSON(w, http.StatusCreated, category)
}

func (h *Handler) HandleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	categoryID := r.PathValue("id")
	if !validID(categoryID) {
		h.writeError(w, http.StatusNotFound, "category not found")
		return
	}

	if err := h.repo.DeleteCategory(r.Context(), categoryID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "category not found")
			return
		}
		h.logger.Error("failed to delete category", "error", err, "category_id", categoryID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("category deleted", "category_id", categoryID)
	w.WriteHeader(http.StatusNoContent)
}

// Product and category ids are UUID columns; reject malformed ids before
// they reach the database as a cast error.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	customer, ok := auth.CustomerFrom(r.Context())
	if !ok || !customer.Admin {
		h.writeError(w, http.StatusForbidden, "admin access required")
		return false
	}
	return true
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
