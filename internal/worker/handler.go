package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Snkb-ch/store/internal/domain"
)

// FulfillmentHandler picks up freshly placed orders and moves them into
// Processing through the API's admin status endpoint.
type FulfillmentHandler struct {
	apiURL     string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewFulfillmentHandler(apiURL, token string, client *http.Client, logger *slog.Logger) *FulfillmentHandler {
	return &FulfillmentHandler{
		apiURL:     apiURL,
		token:      token,
		httpClient: client,
		logger:     logger,
	}
}

func (h *FulfillmentHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderCreatedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order created event: %w", err)
	}

	h.logger.Info("processing order created event", "order_id", event.OrderID, "customer_id", event.CustomerID, "items", len(event.Items))

	if err := h.updateOrderStatus(ctx, event.OrderID, domain.OrderStatusProcessing); err != nil {
		h.logger.Error("failed to move order to processing", "error", err, "order_id", event.OrderID)
		return fmt.Errorf("update order status: %w", err)
	}

	h.logger.Info("order moved to processing", "order_id", event.OrderID)
	return nil
}

func (h *FulfillmentHandler) updateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	data, err := json.Marshal(map[string]string{"status": string(status)})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/orders/%s/status", h.apiURL, orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.token)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	// A 400 means the order already left Created; skip instead of retrying.
	if resp.StatusCode == http.StatusBadRequest {
		h.logger.Warn("order already past Created, skipping", "order_id", orderID)
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("api returned status %d", resp.StatusCode)
	}

	return nil
}
