// Package webhook posts decision notifications to an HTTP endpoint
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/newthinker/augur/internal/notifier"
)

// Webhook implements the Notifier interface for HTTP webhooks
type Webhook struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// New creates a new Webhook notifier
func New(url string, headers map[string]string) *Webhook {
	return &Webhook{
		url:     url,
		headers: headers,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Init(cfg notifier.Config) error {
	if url, ok := cfg.Params["url"].(string); ok {
		w.url = url
	}
	if headers, ok := cfg.Params["headers"].(map[string]string); ok {
		w.headers = headers
	}

	if w.url == "" {
		return fmt.Errorf("webhook: url is required")
	}

	if w.client == nil {
		w.client = &http.Client{Timeout: 30 * time.Second}
	}

	return nil
}

func (w *Webhook) Send(ctx context.Context, n notifier.Notification) error {
	return w.post(ctx, payload{Type: "decision", Decision: &n})
}

func (w *Webhook) SendBatch(ctx context.Context, ns []notifier.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	return w.post(ctx, payload{Type: "batch", Count: len(ns), Decisions: ns})
}

// Notify posts a plain text message such as a health alert.
func (w *Webhook) Notify(ctx context.Context, msg string) error {
	return w.post(ctx, payload{Type: "alert", Message: msg})
}

type payload struct {
	Type      string                  `json:"type"`
	Message   string                  `json:"message,omitempty"`
	Count     int                     `json:"count,omitempty"`
	Decision  *notifier.Notification  `json:"decision,omitempty"`
	Decisions []notifier.Notification `json:"decisions,omitempty"`
}

func (w *Webhook) post(ctx context.Context, p payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("webhook: failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: server returned %d", resp.StatusCode)
	}

	return nil
}
