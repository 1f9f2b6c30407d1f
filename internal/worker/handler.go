package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/varnwear/storefront/internal/domain"
	"github.com/varnwear/storefront/internal/mailer"
)

// NotificationHandler turns order lifecycle events into customer emails.
// Stock was already settled synchronously at checkout, so the worker only
// notifies.
type NotificationHandler struct {
	mail   *mailer.Client
	logger *slog.Logger
}

func NewNotificationHandler(mail *mailer.Client, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		mail:   mail,
		logger: logger,
	}
}

func (h *NotificationHandler) HandleCreated(ctx context.Context, payload []byte) error {
	var event domain.OrderCreatedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order created event: %w", err)
	}

	h.logger.Info("processing order created event", "order_id", event.OrderID, "user_id", event.UserID)

	msg := mailer.Message{
		To:      event.Email,
		Subject: "Order Confirmation: " + event.OrderID,
		Body: fmt.Sprintf("Your order %s has been placed with %d items for a total of %d.",
			event.OrderID, len(event.Items), event.Total),
	}
	if err := h.mail.Send(ctx, msg); err != nil {
		h.logger.Error("failed to send confirmation email", "error", err, "order_id", event.OrderID)
		return fmt.Errorf("send confirmation email: %w", err)
	}

	h.logger.Info("confirmation email sent", "order_id", event.OrderID, "to", event.Email)
	return nil
}

func (h *NotificationHandler) HandleCancelled(ctx context.Context, payload []byte) error {
	var event domain.OrderCancelledEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order cancelled event: %w", err)
	}

	h.logger.Info("processing order cancelled event", "order_id", event.OrderID, "user_id", event.UserID)

	msg := mailer.Message{
		To:      event.Email,
		Subject: "Order Cancelled: " + event.OrderID,
		Body: fmt.Sprintf("Your order %s has been cancelled. Any amount paid will be refunded.",
			event.OrderID),
	}
	if err := h.mail.Send(ctx, msg); err != nil {
		h.logger.Error("failed to send cancellation email", "error", err, "order_id", event.OrderID)
		return fmt.Errorf("send cancellation email: %w", err)
	}

	h.logger.Info("cancellation email sent", "order_id", event.OrderID, "to", event.Email)
	return nil
}
