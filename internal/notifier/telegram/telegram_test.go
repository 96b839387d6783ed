package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/augur/internal/core"
	"github.com/newthinker/augur/internal/notifier"
)

func TestTelegram_ImplementsNotifier(t *testing.T) {
	var _ notifier.Notifier = (*Telegram)(nil)
}

func TestTelegram_Name(t *testing.T) {
	tg := New("token", "chatid")
	if tg.Name() != "telegram" {
		t.Errorf("expected 'telegram', got '%s'", tg.Name())
	}
}

func TestTelegram_Init(t *testing.T) {
	tg := &Telegram{}

	cfg := notifier.Config{
		Params: map[string]any{
			"bot_token": "test-token",
			"chat_id":   "test-chat",
		},
	}

	if err := tg.Init(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tg.botToken != "test-token" {
		t.Errorf("expected bot_token 'test-token', got '%s'", tg.botToken)
	}
	if tg.chatID != "test-chat" {
		t.Errorf("expected chat_id 'test-chat', got '%s'", tg.chatID)
	}
	if tg.apiBase != defaultAPIBase || tg.client == nil {
		t.Error("expected defaults to be filled in")
	}
}

func TestTelegram_Init_MissingToken(t *testing.T) {
	tg := &Telegram{}
	if err := tg.Init(notifier.Config{Params: map[string]any{"chat_id": "test-chat"}}); err == nil {
		t.Error("expected error for missing bot_token")
	}
}

func TestTelegram_Init_MissingChatID(t *testing.T) {
	tg := &Telegram{}
	if err := tg.Init(notifier.Config{Params: map[string]any{"bot_token": "test-token"}}); err == nil {
		t.Error("expected error for missing chat_id")
	}
}

func TestTelegram_Send(t *testing.T) {
	var receivedPath string
	var receivedPayload map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&receivedPayload)
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer server.Close()

	tg := New("test-token", "test-chat")
	tg.apiBase = server.URL

	n := notifier.Notification{
		SignalID:       "S3",
		Symbol:         "NIFTY",
		Strike:         22500,
		OptionType:     core.OptionPut,
		Decision:       core.DecisionBuy,
		Confidence:     74.5,
		PositionSize:   0.82,
		AdaptiveWeight: 1.1,
		RiskLevel:      core.RiskLow,
		Assessment:     "Good conditions for position entry with standard size",
		GeneratedAt:    time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC),
	}

	if err := tg.Send(context.Background(), n); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receivedPath != "/bottest-token/sendMessage" {
		t.Errorf("unexpected path %s", receivedPath)
	}
	if receivedPayload["chat_id"] != "test-chat" {
		t.Errorf("unexpected chat id %v", receivedPayload["chat_id"])
	}

	text, _ := receivedPayload["text"].(string)
	for _, want := range []string{"NIFTY 22500PE", "BUY", "74.5%", "0.82x", "S3", "Good conditions", "2025-03-04 10:30:00"} {
		if !strings.Contains(text, want) {
			t.Errorf("message should contain %q: %s", want, text)
		}
	}
}

func TestTelegram_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"ok": false, "description": "Unauthorized"})
	}))
	defer server.Close()

	tg := New("bad", "chat")
	tg.apiBase = server.URL

	if err := tg.Send(context.Background(), notifier.Notification{}); err == nil {
		t.Error("expected error for API failure")
	}
}

func TestTelegram_DecisionEmoji(t *testing.T) {
	tests := map[core.DecisionLabel]string{
		core.DecisionStrongBuy:  "📈",
		core.DecisionWeakBuy:    "📈",
		core.DecisionHold:       "⏸️",
		core.DecisionSell:       "📉",
		core.DecisionStrongSell: "📉",
	}
	for d, want := range tests {
		if got := decisionEmoji(d); got != want {
			t.Errorf("decisionEmoji(%s) = %s, want %s", d, got, want)
		}
	}
}

func TestTelegram_SendBatch_Empty(t *testing.T) {
	tg := New("token", "chat")
	if err := tg.SendBatch(context.Background(), nil); err != nil {
		t.Errorf("empty batch should not return error: %v", err)
	}
}

func TestTelegram_SendBatch(t *testing.T) {
	var text string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p map[string]any
		json.NewDecoder(r.Body).Decode(&p)
		text, _ = p["text"].(string)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tg := New("token", "chat")
	tg.apiBase = server.URL

	ns := []notifier.Notification{
		{Symbol: "NIFTY", Decision: core.DecisionBuy},
		{Symbol: "BANKNIFTY", Decision: core.DecisionStrongBuy},
	}
	if err := tg.SendBatch(context.Background(), ns); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(text, "2 Trading Decisions") || !strings.Contains(text, "BANKNIFTY") {
		t.Errorf("unexpected batch message: %s", text)
	}
}

func TestTelegram_Notify(t *testing.T) {
	var receivedPayload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&receivedPayload)
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer server.Close()

	tg := New("test-token", "test-chat")
	tg.apiBase = server.URL

	if err := tg.Notify(context.Background(), "[WARNING] signals_degraded: too many"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text, _ := receivedPayload["text"].(string)
	if !strings.Contains(text, "signals_degraded") {
		t.Errorf("unexpected text %q", text)
	}
}
