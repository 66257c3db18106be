package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/canteenhq/settlement/internal/cart"
	"github.com/canteenhq/settlement/internal/domain"
)

// SettlementHandler runs the side effects of a settled order off the
// hot path: clearing the customer's cart and sending a receipt. A cart
// failure is logged and swallowed; a receipt failure fails the message
// so the broker redelivers it.
type SettlementHandler struct {
	carts      *cart.Repository
	mailURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewSettlementHandler(carts *cart.Repository, mailURL string, client *http.Client, logger *slog.Logger) *SettlementHandler {
	return &SettlementHandler{
		carts:      carts,
		mailURL:    mailURL,
		httpClient: client,
		logger:     logger,
	}
}

func (h *SettlementHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderConfirmedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order confirmed event: %w", err)
	}

	h.logger.Info("processing order confirmed event", "order_id", event.OrderID, "user_id", event.UserID)

	if err := h.carts.Clear(ctx, event.UserID); err != nil {
		h.logger.Error("failed to clear cart", "error", err, "user_id", event.UserID, "order_id", event.OrderID)
	}

	if err := h.sendReceipt(ctx, event); err != nil {
		h.logger.Error("failed to send receipt", "error", err, "order_id", event.OrderID)
		return fmt.Errorf("send receipt: %w", err)
	}

	h.logger.Info("settlement side effects complete", "order_id", event.OrderID)
	return nil
}

func (h *SettlementHandler) sendReceipt(ctx context.Context, event domain.OrderConfirmedEvent) error {
	body := map[string]string{
		"to":      event.UserID + "@example.com",
		"subject": "Payment Receipt: " + event.OrderID,
		"body": fmt.Sprintf("Your payment of %d via %s for order %s is confirmed.",
			event.TotalAmount, event.Method, event.OrderID),
	}

	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.mailURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mail service returned status %d", resp.StatusCode)
	}

	return nil
}
