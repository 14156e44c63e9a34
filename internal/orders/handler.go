package orders

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/Snkb-ch/store/internal/auth"
	"github.com/Snkb-ch/store/internal/domain"
	"github.com/Snkb-ch/store/internal/messaging"
)

type Store interface {
	Place(ctx context.Context, customer domain.Customer) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, requester domain.Customer) ([]domain.Order, error)
	ListActive(ctx context.Context, customerID string) ([]domain.Order, error)
	Cancel(ctx context.Context, orderID string, requester domain.Customer) error
	UpdateStatus(ctx context.Context, orderID string, next domain.OrderStatus) (*domain.Order, error)
}

type Handler struct {
	store    Store
	producer *messaging.Producer
	logger   *slog.Logger
}

func NewHandler(store Store, producer *messaging.Producer, logger *slog.Logger) *Handler {
	return &Handler{
		store:    store,
		producer: producer,
		logger:   logger,
	}
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.CustomerFrom(r.Context())

	order, err := h.store.Place(r.Context(), principal)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyCart) {
			h.writeError(w, http.StatusBadRequest, "cart empty")
			return
		}
		h.logger.Error("failed to place order", "error", err, "customer_id", principal.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if h.producer != nil {
		event := domain.OrderCreatedEvent{
			OrderID:    order.ID,
			CustomerID: principal.ID,
			Timestamp:  order.CreatedAt,
		}
		for _, item := range order.Items {
			if item.ProductID == nil {
				continue
			}
			event.Items = append(event.Items, domain.OrderCreatedItem{
				ProductID: *item.ProductID,
				Quantity:  item.Quantity,
			})
		}
		if err := h.producer.Publish(r.Context(), order.ID, event); err != nil {
			h.logger.Error("failed to publish order created event", "error", err, "order_id", order.ID)
		}
	}

	h.logger.Info("order placed", "order_id", order.ID, "customer_id", principal.ID, "items", len(order.Items))
	h.writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.CustomerFrom(r.Context())

	orders, err := h.store.List(r.Context(), principal)
	if err != nil {
		h.logger.Error("failed to list orders", "error", err, "customer_id", principal.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) HandleListActive(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.CustomerFrom(r.Context())

	orders, err := h.store.ListActive(r.Context(), principal.ID)
	if err != nil {
		h.logger.Error("failed to list active orders", "error", err, "customer_id", principal.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.CustomerFrom(r.Context())
	id := r.PathValue("id")
	if !validOrderID(id) {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	order, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.Error("failed to get order", "error", err, "order_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	owner := order.CustomerID != nil && *order.CustomerID == principal.ID
	if !owner && !principal.Admin {
		h.writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.CustomerFrom(r.Context())
	id := r.PathValue("id")
	if !validOrderID(id) {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	err := h.store.Cancel(r.Context(), id, principal)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			h.writeError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, domain.ErrForbidden):
			h.writeError(w, http.StatusForbidden, "forbidden")
		case errors.Is(err, domain.ErrInvalidTransition):
			h.writeError(w, http.StatusBadRequest, "cannot cancel a shipped or completed order")
		default:
			h.logger.Error("failed to cancel order", "error", err, "order_id", id)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.logger.Info("order cancelled", "order_id", id, "customer_id", principal.ID)
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "order cancelled"})
}

type updateStatusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

// HandleUpdateStatus is the administrator transition endpoint; cancellation
// by owners goes through HandleCancel.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.CustomerFrom(r.Context())
	if !principal.Admin {
		h.writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	id := r.PathValue("id")
	if !validOrderID(id) {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Status.Valid() {
		h.writeError(w, http.StatusBadRequest, "unknown status")
		return
	}

	order, err := h.store.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			h.writeError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, domain.ErrInvalidTransition):
			h.writeError(w, http.StatusBadRequest, "invalid status transition")
		default:
			h.logger.Error("failed to update order status", "error", err, "order_id", id)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.logger.Info("order status updated", "order_id", id, "status", order.Status)
	h.writeJSON(w, http.StatusOK, order)
}

// Order ids are UUID columns; a malformed path segment can only be an order
// that does not exist.
func validOrderID(id string) bool {
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
