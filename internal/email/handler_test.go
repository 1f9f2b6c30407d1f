package email

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestHandler() *Handler {
	return NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHandleSend(t *testing.T) {
	handler := newTestHandler()

	body := `{"to":"customer@example.com","subject":"Order Confirmation: o1","body":"hi"}`
	req := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.HandleSend(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"sent"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestHandleSendRejectsMissingRecipient(t *testing.T) {
	handler := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(`{"subject":"x"}`))
	rec := httptest.NewRecorder()

	handler.HandleSend(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestHandleSendRejectsBadJSON(t *testing.T) {
	handler := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader("{bad"))
	rec := httptest.NewRecorder()

	handler.HandleSend(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}
