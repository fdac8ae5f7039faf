package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNotifyPostsJSONPayload(t *testing.T) {
	var got payload
	var secret string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secret = r.Header.Get("X-Webhook-Secret")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	hook := NewWebhook(server.URL, "s3cret")
	if err := hook.Notify(context.Background(), "u-1", "task done"); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if got.OwnerID != "u-1" || got.Message != "task done" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if secret != "s3cret" {
		t.Fatalf("secret header = %q", secret)
	}
}

func TestNotifyReportsHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	hook := NewWebhook(server.URL, "")
	if err := hook.Notify(context.Background(), "u-1", "msg"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNotifyNoopWithoutEndpoint(t *testing.T) {
	hook := NewWebhook("", "")
	if err := hook.Notify(context.Background(), "u-1", "msg"); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
}
