package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/newthinker/augur/internal/core"
	"github.com/newthinker/augur/internal/notifier"
)

func TestWebhook_ImplementsNotifier(t *testing.T) {
	var _ notifier.Notifier = (*Webhook)(nil)
}

func TestWebhook_Name(t *testing.T) {
	w := New("http://example.com/hook", nil)
	if w.Name() != "webhook" {
		t.Errorf("expected 'webhook', got %s", w.Name())
	}
}

func TestWebhook_Init_RequiresURL(t *testing.T) {
	w := &Webhook{}
	if err := w.Init(notifier.Config{Params: map[string]any{}}); err == nil {
		t.Error("expected error for missing URL")
	}
}

func TestWebhook_Init_WithURL(t *testing.T) {
	w := &Webhook{}
	err := w.Init(notifier.Config{
		Params: map[string]any{
			"url": "http://example.com/hook",
		},
	})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if w.url != "http://example.com/hook" {
		t.Errorf("expected url, got %s", w.url)
	}
}

func TestWebhook_Send(t *testing.T) {
	var received map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	w := New(server.URL, nil)

	n := notifier.Notification{
		SignalID:    "S3",
		Symbol:      "NIFTY",
		Strike:      22500,
		OptionType:  core.OptionPut,
		Decision:    core.DecisionBuy,
		Confidence:  74.5,
		GeneratedAt: time.Now(),
	}

	if err := w.Send(context.Background(), n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if received["type"] != "decision" {
		t.Errorf("expected type decision, got %v", received["type"])
	}
	decision, _ := received["decision"].(map[string]any)
	if decision["signal_id"] != "S3" {
		t.Errorf("expected signal_id S3, got %v", decision["signal_id"])
	}
	if decision["decision"] != "BUY" {
		t.Errorf("expected decision BUY, got %v", decision["decision"])
	}
}

func TestWebhook_SendBatch(t *testing.T) {
	var received map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	w := New(server.URL, nil)

	ns := []notifier.Notification{
		{SignalID: "S1", Decision: core.DecisionBuy},
		{SignalID: "S2", Decision: core.DecisionStrongBuy},
	}

	if err := w.SendBatch(context.Background(), ns); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if received["type"] != "batch" {
		t.Errorf("expected type batch, got %v", received["type"])
	}
	if received["count"].(float64) != 2 {
		t.Errorf("expected count 2, got %v", received["count"])
	}
}

func TestWebhook_SendBatch_Empty(t *testing.T) {
	w := New("http://example.com/hook", nil)
	if err := w.SendBatch(context.Background(), nil); err != nil {
		t.Errorf("empty batch should not error: %v", err)
	}
}

func TestWebhook_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	w := New(server.URL, nil)

	if err := w.Send(context.Background(), notifier.Notification{SignalID: "S1"}); err == nil {
		t.Error("expected error for server error response")
	}
}

func TestWebhook_CustomHeaders(t *testing.T) {
	var receivedHeaders http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedHeaders = r.Header
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	headers := map[string]string{
		"Authorization": "Bearer test-token",
		"X-Custom":      "value",
	}
	w := New(server.URL, headers)

	w.Send(context.Background(), notifier.Notification{SignalID: "S1"})

	if receivedHeaders.Get("Authorization") != "Bearer test-token" {
		t.Error("expected Authorization header")
	}
	if receivedHeaders.Get("X-Custom") != "value" {
		t.Error("expected X-Custom header")
	}
}

func TestWebhook_Notify(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	w := New(server.URL, nil)
	if err := w.Notify(context.Background(), "[INFO] low_confidence: low"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if received["type"] != "alert" {
		t.Errorf("expected type alert, got %v", received["type"])
	}
	if received["message"] != "[INFO] low_confidence: low" {
		t.Errorf("unexpected message %v", received["message"])
	}
	if _, ok := received["decision"]; ok {
		t.Error("alert payload should not carry a decision")
	}
}
