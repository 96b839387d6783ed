package notifier

import (
	"context"
	"time"

	"github.com/newthinker/augur/internal/core"
)

// Config holds notifier configuration
type Config struct {
	Type   string         `mapstructure:"type"`
	Params map[string]any `mapstructure:"params"`
}

// Notification is an actionable decision pushed to operators.
type Notification struct {
	ID             string             `json:"id"`
	SignalID       string             `json:"signal_id"`
	Symbol         string             `json:"symbol"`
	Strike         int                `json:"strike"`
	OptionType     core.OptionType    `json:"option_type"`
	Action         string             `json:"action"`
	Decision       core.DecisionLabel `json:"decision"`
	Confidence     float64            `json:"confidence"`
	PositionSize   float64            `json:"position_size"`
	RiskLevel      core.RiskLevel     `json:"risk_level"`
	AdaptiveWeight float64            `json:"adaptive_weight"`
	Assessment     string             `json:"assessment,omitempty"`
	Commentary     string             `json:"commentary,omitempty"`
	GeneratedAt    time.Time          `json:"generated_at"`
}

// FromResponse flattens a processed alert into a notification. It returns
// false when the response carries no decision.
func FromResponse(resp *core.SignalResponse) (Notification, bool) {
	if resp == nil || resp.Decision == nil {
		return Notification{}, false
	}
	n := Notification{
		SignalID:     resp.Decision.SignalID,
		Symbol:       resp.Alert.Symbol(),
		Strike:       resp.Alert.Strike,
		OptionType:   resp.Alert.Option(),
		Action:       resp.Alert.Action,
		Decision:     resp.Decision.Decision,
		Confidence:   resp.Decision.Confidence,
		PositionSize: resp.Decision.SuggestedPositionSize,
		RiskLevel:    resp.Decision.RiskLevel,
		GeneratedAt:  resp.Decision.Timestamp,
	}
	if resp.Signal != nil {
		n.ID = resp.Signal.ID
	}
	if resp.Weighting != nil {
		n.AdaptiveWeight = resp.Weighting.AdaptiveWeight
	}
	if resp.Report != nil {
		n.Assessment = resp.Report.OverallAssessment
		n.Commentary = resp.Report.Commentary
	}
	return n, true
}

// Notifier delivers decision notifications to one channel.
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	// Init initializes the notifier with configuration
	Init(cfg Config) error

	// Send delivers a single notification
	Send(ctx context.Context, n Notification) error

	// SendBatch delivers several notifications at once
	SendBatch(ctx context.Context, ns []Notification) error
}
