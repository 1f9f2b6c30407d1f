package worker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/varnwear/storefront/internal/domain"
	"github.com/varnwear/storefront/internal/mailer"
)

type capturedEmail struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func newTestHandler(t *testing.T, status int) (*NotificationHandler, *capturedEmail) {
	t.Helper()

	captured := &capturedEmail{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
			t.Fatalf("decode email request: %v", err)
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mail := mailer.NewClient(server.URL, server.Client())
	return NewNotificationHandler(mail, logger), captured
}

func TestHandleCreatedSendsConfirmation(t *testing.T) {
	handler, captured := newTestHandler(t, http.StatusOK)

	event := domain.OrderCreatedEvent{
		OrderID:   "order-1",
		UserID:    "user-1",
		Email:     "customer@example.com",
		Items:     []domain.OrderItem{{ProductID: "p1", Quantity: 2}},
		Total:     1300,
		Timestamp: time.Now().UTC(),
	}
	payload, _ := json.Marshal(event)

	if err := handler.HandleCreated(context.Background(), payload); err != nil {
		t.Fatalf("HandleCreated returned error: %v", err)
	}

	if captured.To != "customer@example.com" {
		t.Errorf("expected recipient customer@example.com, got %s", captured.To)
	}
	if captured.Subject != "Order Confirmation: order-1" {
		t.Errorf("unexpected subject: %s", captured.Subject)
	}
}

func TestHandleCancelledSendsCancellation(t *testing.T) {
	handler, captured := newTestHandler(t, http.StatusOK)

	event := domain.OrderCancelledEvent{
		OrderID:   "order-2",
		UserID:    "user-1",
		Email:     "customer@example.com",
		Total:     900,
		Timestamp: time.Now().UTC(),
	}
	payload, _ := json.Marshal(event)

	if err := handler.HandleCancelled(context.Background(), payload); err != nil {
		t.Fatalf("HandleCancelled returned error: %v", err)
	}

	if captured.Subject != "Order Cancelled: order-2" {
		t.Errorf("unexpected subject: %s", captured.Subject)
	}
}

func TestHandleCreatedSurfacesEmailFailure(t *testing.T) {
	handler, _ := newTestHandler(t, http.StatusInternalServerError)

	payload, _ := json.Marshal(domain.OrderCreatedEvent{OrderID: "order-3", Email: "customer@example.com"})

	if err := handler.HandleCreated(context.Background(), payload); err == nil {
		t.Fatal("expected error when email service fails")
	}
}

func TestHandleCreatedRejectsMalformedPayload(t *testing.T) {
	handler, _ := newTestHandler(t, http.StatusOK)

	if err := handler.HandleCreated(context.Background(), []byte("{not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
