package alerts

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookNotifier posts alerts to a generic HTTP endpoint as a flat JSON
// document, so receivers can route on kind/level without unpacking a nested
// envelope.
type WebhookNotifier struct {
	url    string
	secret string
	client *http.Client
}

// webhookPayload is the wire format. Usage fields are flattened to the top
// level alongside the alert text.
type webhookPayload struct {
	Event     string  `json:"event"`
	ID        string  `json:"id,omitempty"`
	Kind      Kind    `json:"kind"`
	Level     Level   `json:"level"`
	Subject   string  `json:"subject"`
	Message   string  `json:"message"`
	MonthlyGB float64 `json:"monthly_gb"`
	LimitGB   float64 `json:"limit_gb"`
	UsagePct  float64 `json:"usage_pct"`
	At        string  `json:"at"`
	Timestamp string  `json:"timestamp"`
}

// NewWebhookNotifier creates a generic webhook notifier.
// If secret is non-empty, requests are signed with HMAC-SHA256.
func NewWebhookNotifier(url, secret string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		secret: secret,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (w *WebhookNotifier) Name() string { return "webhook" }

func (w *WebhookNotifier) Send(ctx context.Context, event Event) error {
	body, err := json.Marshal(webhookPayload{
		Event:     "traffic_alert",
		ID:        event.ID,
		Kind:      event.Kind,
		Level:     event.Level,
		Subject:   event.Subject,
		Message:   event.Message,
		MonthlyGB: event.MonthlyGB,
		LimitGB:   event.LimitGB,
		UsagePct:  event.UsagePct(),
		At:        event.At.UTC().Format(time.RFC3339),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Traffic-Guardian/1.0")

	if w.secret != "" {
		sig := computeHMAC(body, []byte(w.secret))
		req.Header.Set("X-Signature-256", "sha256="+sig)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func computeHMAC(message, key []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}
