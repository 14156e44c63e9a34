package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Snkb-ch/store/internal/domain"
)

type TokenStore interface {
	CustomerByToken(ctx context.Context, token string) (*domain.Customer, error)
}

// Middleware resolves the Authorization bearer token to a customer and puts
// it in the request context.
type Middleware struct {
	store  TokenStore
	logger *slog.Logger
}

func NewMiddleware(store TokenStore, logger *slog.Logger) *Middleware {
	return &Middleware{store: store, logger: logger}
}

func (m *Middleware) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			m.unauthorized(w)
			return
		}

		customer, err := m.store.CustomerByToken(r.Context(), token)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				m.unauthorized(w)
				return
			}
			m.logger.Error("failed to resolve token", "error", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
			return
		}

		next(w, r.WithContext(WithCustomer(r.Context(), *customer)))
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}

func (m *Middleware) unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "authentication required"})
}
