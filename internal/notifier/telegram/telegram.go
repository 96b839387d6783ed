package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/newthinker/augur/internal/core"
	"github.com/newthinker/augur/internal/notifier"
)

const defaultAPIBase = "https://api.telegram.org"

// Telegram implements the Notifier interface for Telegram Bot API
type Telegram struct {
	botToken string
	chatID   string
	apiBase  string
	client   *http.Client
}

// New creates a new Telegram notifier
func New(botToken, chatID string) *Telegram {
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  defaultAPIBase,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (t *Telegram) Name() string {
	return "telegram"
}

func (t *Telegram) Init(cfg notifier.Config) error {
	if token, ok := cfg.Params["bot_token"].(string); ok {
		t.botToken = token
	}
	if chatID, ok := cfg.Params["chat_id"].(string); ok {
		t.chatID = chatID
	}

	if t.botToken == "" {
		return fmt.Errorf("telegram: bot_token is required")
	}
	if t.chatID == "" {
		return fmt.Errorf("telegram: chat_id is required")
	}
	if t.apiBase == "" {
		t.apiBase = defaultAPIBase
	}
	if t.client == nil {
		t.client = &http.Client{Timeout: 30 * time.Second}
	}

	return nil
}

func (t *Telegram) Send(ctx context.Context, n notifier.Notification) error {
	return t.sendMessage(ctx, t.format(n))
}

func (t *Telegram) SendBatch(ctx context.Context, ns []notifier.Notification) error {
	if len(ns) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 *%d Trading Decisions*\n\n", len(ns)))

	for i, n := range ns {
		sb.WriteString(t.format(n))
		if i < len(ns)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return t.sendMessage(ctx, sb.String())
}

// Notify sends a plain text message such as a health alert. The text is sent
// as inline code so rule and metric names are not read as Markdown.
func (t *Telegram) Notify(ctx context.Context, msg string) error {
	return t.sendMessage(ctx, "⚠️ `"+strings.ReplaceAll(msg, "`", "'")+"`")
}

func decisionEmoji(d core.DecisionLabel) string {
	switch d {
	case core.DecisionStrongBuy, core.DecisionBuy, core.DecisionWeakBuy:
		return "📈"
	case core.DecisionHold:
		return "⏸️"
	default:
		return "📉"
	}
}

func (t *Telegram) format(n notifier.Notification) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s *%s %d%s* - %s\n", decisionEmoji(n.Decision), n.Symbol, n.Strike, n.OptionType, n.Decision))
	sb.WriteString(fmt.Sprintf("📊 Confidence: %.1f%%\n", n.Confidence))
	sb.WriteString(fmt.Sprintf("⚖️ Size: %.2fx, weight %.2f, risk %s\n", n.PositionSize, n.AdaptiveWeight, n.RiskLevel))

	if n.SignalID != "" {
		sb.WriteString(fmt.Sprintf("🎯 Signal: %s\n", n.SignalID))
	}
	if n.Assessment != "" {
		sb.WriteString(fmt.Sprintf("💡 %s\n", n.Assessment))
	}
	if n.Commentary != "" {
		sb.WriteString(fmt.Sprintf("📝 %s\n", n.Commentary))
	}

	sb.WriteString(fmt.Sprintf("⏰ Time: %s", n.GeneratedAt.Format("2006-01-02 15:04:05")))

	return sb.String()
}

func (t *Telegram) sendMessage(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.botToken)

	payload := map[string]any{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var result map[string]any
		json.NewDecoder(resp.Body).Decode(&result)
		return fmt.Errorf("telegram: API error (status %d): %v", resp.StatusCode, result)
	}

	return nil
}
