package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_Send(t *testing.T) {
	t.Run("posts the message to /send", func(t *testing.T) {
		var received Message
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/send" {
				t.Errorf("expected /send, got %s", r.URL.Path)
			}
			if r.Method != http.MethodPost {
				t.Errorf("expected POST, got %s", r.Method)
			}
			if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
				t.Fatalf("failed to decode request: %v", err)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"sent"}`))
		}))
		defer server.Close()

		client := NewClient(server.URL, server.Client())
		err := client.Send(context.Background(), Message{
			To:      "shopper@example.com",
			Subject: "Your OTP Code",
			Body:    "Your OTP is 123456. Valid for 5 minutes.",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if received.To != "shopper@example.com" {
			t.Errorf("unexpected recipient: %s", received.To)
		}
		if received.Subject != "Your OTP Code" {
			t.Errorf("unexpected subject: %s", received.Subject)
		}
	})

	t.Run("surfaces non-200 responses as errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := NewClient(server.URL, server.Client())
		if err := client.Send(context.Background(), Message{To: "x@example.com"}); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("fails when the service is unreachable", func(t *testing.T) {
		client := NewClient("http://localhost:99999", &http.Client{})
		if err := client.Send(context.Background(), Message{To: "x@example.com"}); err == nil {
			t.Fatal("expected an error")
		}
	})
}
