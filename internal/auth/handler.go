package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/Snkb-ch/store/internal/domain"
)

type Store interface {
	CreateCustomer(ctx context.Context, username, email string, passwordHash []byte, admin bool) (*domain.Customer, error)
	CredentialsByEmail(ctx context.Context, email string) (*domain.Customer, string, error)
	CreateToken(ctx context.Context, customerID string) (string, error)
}

type Handler struct {
	store  Store
	logger *slog.Logger
}

func NewHandler(store Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		h.writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("failed to hash password", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	customer, err := h.store.CreateCustomer(r.Context(), req.Username, req.Email, hash, false)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			h.writeError(w, http.StatusBadRequest, "email already registered")
			return
		}
		h.logger.Error("failed to create customer", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("customer registered", "customer_id", customer.ID)
	h.writeJSON(w, http.StatusCreated, customer)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	customer, hash, err := h.store.CredentialsByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.writeError(w, http.StatusBadRequest, "invalid credentials")
			return
		}
		h.logger.Error("failed to look up customer", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		h.writeError(w, http.StatusBadRequest, "invalid credentials")
		return
	}

	token, err := h.store.CreateToken(r.Context(), customer.ID)
	if err != nil {
		h.logger.Error("failed to create token", "error", err, "customer_id", customer.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("customer logged in", "customer_id", customer.ID)
	h.writeJSON(w, http.StatusOK, map[string]string{"token": token})
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
