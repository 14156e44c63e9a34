package auth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Snkb-ch/store/internal/domain"
)

type fakeTokenStore map[string]domain.Customer

func (s fakeTokenStore) CustomerByToken(_ context.Context, token string) (*domain.Customer, error) {
	customer, ok := s[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &customer, nil
}

func TestMiddleware_Require(t *testing.T) {
	store := fakeTokenStore{
		"good-token": {ID: "c1", Email: "c1@example.com"},
	}
	mw := NewMiddleware(store, slog.New(slog.NewTextHandler(io.Discard, nil)))

	var seen *domain.Customer
	next := func(w http.ResponseWriter, r *http.Request) {
		if customer, ok := CustomerFrom(r.Context()); ok {
			seen = &customer
		}
		w.WriteHeader(http.StatusOK)
	}

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer good-token", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/cart", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			mw.Require(next)(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus == http.StatusOK {
				if seen == nil || seen.ID != "c1" {
					t.Fatalf("expected principal c1 in context, got %+v", seen)
				}
			} else if seen != nil {
				t.Fatal("handler ran without authentication")
			}
		})
	}
}
