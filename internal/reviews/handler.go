package reviews

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

func (h *Handler) HandleListForProduct(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("id")
	if !validID(productID) {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	reviews, err := h.repo.ListByProduct(r.Context(), productID)
	if err != nil {
		h.logger.Error("failed to list reviews", "error", err, "product_id", productID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, reviews)
}

func (h *Handler) HandleListOwn(w http.ResponseWriter, r *http.Request) {
	customer, _ := auth.CustomerFrom(r.Context())

	reviews, err := h.repo.ListByCustomer(r.Context(), customer.ID)
	if err != nil {
		h.logger.Error("failed to list reviews", "error", err, "customer_id", customer.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, reviews)
}

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (req reviewRequest) validate() string {
	if req.Rating < 1 || req.Rating > 5 {
		return "rating must be between 1 and 5"
	}
	return ""
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	customer, _ := auth.CustomerFrom(r.Context())
	productID := r.PathValue("id")
	if !validID(productID) {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		h.writeError(w, http.StatusBadRequest, msg)
		return
	}

	review, err := h.repo.Create(r.Context(), productID, customer.ID, req.Rating, req.Comment)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("failed to create review", "error", err, "product_id", productID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("review created", "review_id", review.ID, "product_id", productID)
	h.writeJSON(w, http.StatusCreated, review)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	customer, _ := auth.CustomerFrom(r.Context())
	reviewID := r.PathValue("id")
	if !validID(reviewID) {
		h.writeError(w, http.StatusNotFound, "review not found")
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		h.writeError(w, http.StatusBadRequest, msg)
		return
	}

	review, err := h.repo.Update(r.Context(), reviewID, customer.ID, req.Rating, req.Comment)
	if err != nil {
		h.writeRepoError(w, err, reviewID)
		return
	}

	h.logger.Info("review updated", "review_id", reviewID)
	h.writeJSON(w, http.StatusOK, review)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	customer, _ := auth.CustomerFrom(r.Context())
	reviewID := r.PathValue("id")
	if !validID(reviewID) {
		h.writeError(w, http.StatusNotFound, "review not found")
		return
	}

	if err := h.repo.Delete(r.Context(), reviewID, customer.ID); err != nil {
		h.writeRepoError(w, err, reviewID)
		return
	}

	h.logger.Info("review deleted", "review_id", reviewID)
	w.WriteHeader(http.StatusNoContent)
}

// Review and product ids are UUID columns; a malformed id is handled as a
// row that cannot exist rather than a database cast error.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (h *Handler) writeRepoError(w http.ResponseWriter, err error, reviewID string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "review not found")
	case errors.Is(err, domain.ErrForbidden):
		h.writeError(w, http.StatusForbidden, "not your review")
	default:
		h.logger.Error("review operation failed", "error", err, "review_id", reviewID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
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
