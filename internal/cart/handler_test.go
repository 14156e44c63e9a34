package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Snkb-ch/store/internal/auth"
	"github.com/Snkb-ch/store/internal/domain"
)

const (
	p1 = "4b8f2b61-57d5-4f78-9c5a-0d2e9a3a9f01"
	p2 = "9c2f7a10-3be4-4d0a-8f05-6f0b8a4e2c02"
)

type fakeProduct struct {
	name  string
	price int64
}

type fakeStore struct {
	products map[string]fakeProduct
	lines    map[string]map[string]*domain.CartItem // customer -> product -> line
}

func newFakeStore(products map[string]fakeProduct) *fakeStore {
	return &fakeStore{
		products: products,
		lines:    make(map[string]map[string]*domain.CartItem),
	}
}

func (s *fakeStore) customerLines(customerID string) map[string]*domain.CartItem {
	if s.lines[customerID] == nil {
		s.lines[customerID] = make(map[string]*domain.CartItem)
	}
	return s.lines[customerID]
}

func (s *fakeStore) withTotals(productID string, item *domain.CartItem) *domain.CartItem {
	p := s.products[productID]
	out := *item
	out.Name = p.name
	out.UnitPrice = p.price
	out.Total = p.price * int64(out.Quantity)
	return &out
}

func (s *fakeStore) Add(_ context.Context, customerID, productID string, quantity int) (*domain.CartItem, error) {
	if _, ok := s.products[productID]; !ok {
		return nil, domain.ErrNotFound
	}
	lines := s.customerLines(customerID)
	if line, ok := lines[productID]; ok {
		line.Quantity += quantity
	} else {
		pid := productID
		lines[productID] = &domain.CartItem{ID: "line-" + productID, ProductID: &pid, Quantity: quantity, CreatedAt: time.Now()}
	}
	return s.withTotals(productID, lines[productID]), nil
}

func (s *fakeStore) Remove(_ context.Context, customerID, productID string) error {
	delete(s.customerLines(customerID), productID)
	return nil
}

func (s *fakeStore) Increase(_ context.Context, customerID, productID string) (*domain.CartItem, error) {
	line, ok := s.customerLines(customerID)[productID]
	if !ok {
		return nil, nil
	}
	line.Quantity++
	return s.withTotals(productID, line), nil
}

func (s *fakeStore) Decrease(_ context.Context, customerID, productID string) (*domain.CartItem, error) {
	lines := s.customerLines(customerID)
	line, ok := lines[productID]
	if !ok {
		return nil, nil
	}
	if line.Quantity <= 1 {
		delete(lines, productID)
		return nil, nil
	}
	line.Quantity--
	return s.withTotals(productID, line), nil
}

func (s *fakeStore) SetQuantity(_ context.Context, customerID, productID string, quantity int) (*domain.CartItem, error) {
	line, ok := s.customerLines(customerID)[productID]
	if !ok {
		return nil, nil
	}
	line.Quantity = quantity
	return s.withTotals(productID, line), nil
}

func (s *fakeStore) Clear(_ context.Context, customerID string) error {
	s.lines[customerID] = make(map[string]*domain.CartItem)
	return nil
}

func (s *fakeStore) List(_ context.Context, customerID string) (*domain.Cart, error) {
	cart := &domain.Cart{Items: []domain.CartItem{}}
	for productID, line := range s.customerLines(customerID) {
		item := s.withTotals(productID, line)
		cart.Items = append(cart.Items, *item)
		cart.Total += item.Total
	}
	return cart, nil
}

func testHandler(store Store) *Handler {
	return NewHandler(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func authedRequest(method, target, body string) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	principal := domain.Customer{ID: "customer-1", Email: "c1@example.com"}
	return r.WithContext(auth.WithCustomer(r.Context(), principal))
}

func addBody(productID string, quantity int) string {
	return fmt.Sprintf(`{"product_id":%q,"quantity":%d}`, productID, quantity)
}

func productBody(productID string) string {
	return fmt.Sprintf(`{"product_id":%q}`, productID)
}

func decodeItem(t *testing.T, rec *httptest.ResponseRecorder) *domain.CartItem {
	t.Helper()
	var item *domain.CartItem
	if err := json.NewDecoder(rec.Body).Decode(&item); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return item
}

func TestHandler_HandleAdd(t *testing.T) {
	t.Run("repeated adds merge into one line", func(t *testing.T) {
		store := newFakeStore(map[string]fakeProduct{p1: {name: "Widget", price: 1000}})
		handler := testHandler(store)

		rec := httptest.NewRecorder()
		handler.HandleAdd(rec, authedRequest(http.MethodPost, "/cart/add", addBody(p1, 2)))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}

		rec = httptest.NewRecorder()
		handler.HandleAdd(rec, authedRequest(http.MethodPost, "/cart/add", addBody(p1, 3)))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}

		item := decodeItem(t, rec)
		if item == nil || item.Quantity != 5 {
			t.Fatalf("expected merged quantity 5, got %+v", item)
		}
		if len(store.customerLines("customer-1")) != 1 {
			t.Fatalf("expected exactly one line, got %d", len(store.customerLines("customer-1")))
		}
	})

	t.Run("unknown product returns 400", func(t *testing.T) {
		handler := testHandler(newFakeStore(nil))

		rec := httptest.NewRecorder()
		handler.HandleAdd(rec, authedRequest(http.MethodPost, "/cart/add", addBody(p2, 1)))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("malformed product id returns 400", func(t *testing.T) {
		store := newFakeStore(map[string]fakeProduct{p1: {name: "Widget", price: 1000}})
		handler := testHandler(store)

		rec := httptest.NewRecorder()
		handler.HandleAdd(rec, authedRequest(http.MethodPost, "/cart/add", `{"product_id":"not-a-uuid","quantity":1}`))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "invalid product_id") {
			t.Fatalf("expected invalid product_id error, got %s", rec.Body.String())
		}
		if len(store.customerLines("customer-1")) != 0 {
			t.Fatal("expected no line to be created")
		}
	})

	t.Run("quantity below 1 returns 400", func(t *testing.T) {
		store := newFakeStore(map[string]fakeProduct{p1: {name: "Widget", price: 1000}})
		handler := testHandler(store)

		rec := httptest.NewRecorder()
		handler.HandleAdd(rec, authedRequest(http.MethodPost, "/cart/add", addBody(p1, 0)))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
		if len(store.customerLines("customer-1")) != 0 {
			t.Fatal("expected no line to be created")
		}
	})
}

func TestHandler_HandleDecrease(t *testing.T) {
	t.Run("quantity above 1 decrements", func(t *testing.T) {
		store := newFakeStore(map[string]fakeProduct{p1: {name: "Widget", price: 1000}})
		handler := testHandler(store)
		_, _ = store.Add(context.Background(), "customer-1", p1, 3)

		rec := httptest.NewRecorder()
		handler.HandleDecrease(rec, authedRequest(http.MethodPatch, "/cart/decrease", productBody(p1)))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		item := decodeItem(t, rec)
		if item == nil || item.Quantity != 2 {
			t.Fatalf("expected quantity 2, got %+v", item)
		}
	})

	t.Run("quantity 1 deletes the line", func(t *testing.T) {
		store := newFakeStore(map[string]fakeProduct{p1: {name: "Widget", price: 1000}})
		handler := testHandler(store)
		_, _ = store.Add(context.Background(), "customer-1", p1, 1)

		rec := httptest.NewRecorder()
		handler.HandleDecrease(rec, authedRequest(http.MethodPatch, "/cart/decrease", productBody(p1)))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if item := decodeItem(t, rec); item != nil {
			t.Fatalf("expected null line, got %+v", item)
		}
		if len(store.customerLines("customer-1")) != 0 {
			t.Fatal("expected the line to be deleted")
		}
	})

	t.Run("absent line is a no-op", func(t *testing.T) {
		handler := testHandler(newFakeStore(nil))

		rec := httptest.NewRecorder()
		handler.HandleDecrease(rec, authedRequest(http.MethodPatch, "/cart/decrease", productBody(p1)))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if item := decodeItem(t, rec); item != nil {
			t.Fatalf("expected null line, got %+v", item)
		}
	})

	t.Run("malformed product id returns 400", func(t *testing.T) {
		handler := testHandler(newFakeStore(nil))

		rec := httptest.NewRecorder()
		handler.HandleDecrease(rec, authedRequest(http.MethodPatch, "/cart/decrease", `{"product_id":"abc"}`))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
	})
}

func TestHandler_HandleUpdateQuantity(t *testing.T) {
	t.Run("sets absolute quantity", func(t *testing.T) {
		store := newFakeStore(map[string]fakeProduct{p1: {name: "Widget", price: 1000}})
		handler := testHandler(store)
		_, _ = store.Add(context.Background(), "customer-1", p1, 2)

		rec := httptest.NewRecorder()
		handler.HandleUpdateQuantity(rec, authedRequest(http.MethodPatch, "/cart/update_quantity", addBody(p1, 7)))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		item := decodeItem(t, rec)
		if item == nil || item.Quantity != 7 {
			t.Fatalf("expected quantity 7, got %+v", item)
		}
	})

	t.Run("zero quantity is rejected", func(t *testing.T) {
		store := newFakeStore(map[string]fakeProduct{p1: {name: "Widget", price: 1000}})
		handler := testHandler(store)
		_, _ = store.Add(context.Background(), "customer-1", p1, 2)

		rec := httptest.NewRecorder()
		handler.HandleUpdateQuantity(rec, authedRequest(http.MethodPatch, "/cart/update_quantity", addBody(p1, 0)))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
		if store.customerLines("customer-1")[p1].Quantity != 2 {
			t.Fatal("expected quantity to be unchanged")
		}
	})

	t.Run("malformed product id returns 400", func(t *testing.T) {
		handler := testHandler(newFakeStore(nil))

		rec := httptest.NewRecorder()
		handler.HandleUpdateQuantity(rec, authedRequest(http.MethodPatch, "/cart/update_quantity", `{"product_id":"abc","quantity":3}`))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("absent line is a no-op", func(t *testing.T) {
		handler := testHandler(newFakeStore(nil))

		rec := httptest.NewRecorder()
		handler.HandleUpdateQuantity(rec, authedRequest(http.MethodPatch, "/cart/update_quantity", addBody(p1, 3)))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if item := decodeItem(t, rec); item != nil {
			t.Fatalf("expected null line, got %+v", item)
		}
	})
}

func TestHandler_HandleRemoveAndClear(t *testing.T) {
	t.Run("remove returns 204 even when absent", func(t *testing.T) {
		handler := testHandler(newFakeStore(nil))

		rec := httptest.NewRecorder()
		handler.HandleRemove(rec, authedRequest(http.MethodPost, "/cart/remove", productBody(p1)))

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected status 204, got %d", rec.Code)
		}
	})

	t.Run("remove rejects a malformed product id", func(t *testing.T) {
		handler := testHandler(newFakeStore(nil))

		rec := httptest.NewRecorder()
		handler.HandleRemove(rec, authedRequest(http.MethodPost, "/cart/remove", `{"product_id":"abc"}`))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("clear empties the cart", func(t *testing.T) {
		store := newFakeStore(map[string]fakeProduct{
			p1: {name: "Widget", price: 1000},
			p2: {name: "Gadget", price: 500},
		})
		handler := testHandler(store)
		_, _ = store.Add(context.Background(), "customer-1", p1, 2)
		_, _ = store.Add(context.Background(), "customer-1", p2, 1)

		rec := httptest.NewRecorder()
		handler.HandleClear(rec, authedRequest(http.MethodDelete, "/cart/clear_cart", ""))

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected status 204, got %d", rec.Code)
		}

		rec = httptest.NewRecorder()
		handler.HandleList(rec, authedRequest(http.MethodGet, "/cart", ""))

		var cart domain.Cart
		if err := json.NewDecoder(rec.Body).Decode(&cart); err != nil {
			t.Fatalf("failed to decode cart: %v", err)
		}
		if len(cart.Items) != 0 || cart.Total != 0 {
			t.Fatalf("expected empty cart, got %+v", cart)
		}
	})
}

func TestHandler_HandleList(t *testing.T) {
	store := newFakeStore(map[string]fakeProduct{
		p1: {name: "Widget", price: 1000},
		p2: {name: "Gadget", price: 500},
	})
	handler := testHandler(store)
	_, _ = store.Add(context.Background(), "customer-1", p1, 2)
	_, _ = store.Add(context.Background(), "customer-1", p2, 1)

	rec := httptest.NewRecorder()
	handler.HandleList(rec, authedRequest(http.MethodGet, "/cart", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var cart domain.Cart
	if err := json.NewDecoder(rec.Body).Decode(&cart); err != nil {
		t.Fatalf("failed to decode cart: %v", err)
	}

	if len(cart.Items) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(cart.Items))
	}
	if cart.Total != 2500 {
		t.Fatalf("expected grand total 2500, got %d", cart.Total)
	}
}
