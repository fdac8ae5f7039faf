// Package notify posts task completion signals to a configured webhook.
// Delivery is best effort, callers log failures and move on.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ramay1243/docscan/internal/core/ports"
)

type Webhook struct {
	endpoint string
	secret   string
	client   *http.Client
}

var _ ports.Notifier = (*Webhook)(nil)

func NewWebhook(endpoint, secret string) *Webhook {
	return &Webhook{
		endpoint: endpoint,
		secret:   secret,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

type payload struct {
	OwnerID string `json:"owner_id"`
	Message string `json:"message"`
	SentAt  string `json:"sent_at"`
}

func (w *Webhook) Notify(ctx context.Context, ownerID, message string) error {
	if w.endpoint == "" {
		return nil
	}

	body, err := json.Marshal(payload{
		OwnerID: ownerID,
		Message: message,
		SentAt:  time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.secret != "" {
		req.Header.Set("X-Webhook-Secret", w.secret)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook error: %s", resp.Status)
	}
	return nil
}
