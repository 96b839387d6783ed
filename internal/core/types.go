package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OptionType is the option leg an alert refers to
type OptionType string

const (
	OptionCall OptionType = "CE"
	OptionPut  OptionType = "PE"
)

// Alert actions
const (
	ActionEntry    = "Entry"
	ActionStoploss = "Stoploss"
)

// DefaultSymbol is used when an alert does not name its index
const DefaultSymbol = "NIFTY"

// Alert is an externally generated trading instruction
type Alert struct {
	ID           string     `json:"id,omitempty"`
	StrategyName string     `json:"strategy_name,omitempty"`
	Strike       int        `json:"strike"`
	Type         OptionType `json:"type"`
	Signal       string     `json:"signal"`
	Action       string     `json:"action"`
	Index        string     `json:"index,omitempty"`
	Timestamp    time.Time  `json:"timestamp"`
	Source       string     `json:"source,omitempty"`
}

// Validate checks the fields the pipeline depends on
func (a Alert) Validate() error {
	if a.Signal == "" {
		return WrapError(ErrInvalidAlert, fmt.Errorf("signal identifier is required"))
	}
	if a.Strike <= 0 {
		return WrapError(ErrInvalidAlert, fmt.Errorf("strike must be positive, got %d", a.Strike))
	}
	switch a.Option() {
	case OptionCall, OptionPut:
	default:
		return WrapError(ErrInvalidAlert, fmt.Errorf("option type must be CE or PE, got %q", a.Type))
	}
	return nil
}

// Option returns the normalised option type.
func (a Alert) Option() OptionType {
	return OptionType(strings.ToUpper(strings.TrimSpace(string(a.Type))))
}

// IsEntry reports whether the alert opens a position.
func (a Alert) IsEntry() bool {
	return strings.EqualFold(a.Action, ActionEntry)
}

// Direction is +1 for put alerts (bullish, premium is sold), -1 for calls
// and 0 when the option type is unknown.
func (a Alert) Direction() int {
	switch a.Option() {
	case OptionPut:
		return 1
	case OptionCall:
		return -1
	}
	return 0
}

// Symbol returns the underlying index, falling back to DefaultSymbol.
func (a Alert) Symbol() string {
	if a.Index == "" {
		return DefaultSymbol
	}
	return strings.ToUpper(a.Index)
}

// OHLCV represents a candlestick/bar
type OHLCV struct {
	Symbol   string
	Interval string // "1m", "5m", "1d"
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   int64
	Time     time.Time
}

// Body is the absolute distance between open and close.
func (c OHLCV) Body() float64 {
	if c.Close > c.Open {
		return c.Close - c.Open
	}
	return c.Open - c.Close
}

// Range is the high-low span of the candle.
func (c OHLCV) Range() float64 { return c.High - c.Low }

// UpperShadow is the wick above the body.
func (c OHLCV) UpperShadow() float64 { return c.High - max(c.Open, c.Close) }

// LowerShadow is the wick below the body.
func (c OHLCV) LowerShadow() float64 { return min(c.Open, c.Close) - c.Low }

// IsBullish reports a close above the open.
func (c OHLCV) IsBullish() bool { return c.Close > c.Open }

// IsBearish reports a close below the open.
func (c OHLCV) IsBearish() bool { return c.Close < c.Open }

// MarketSnapshot is the current state of the underlying.
type MarketSnapshot struct {
	Symbol          string    `json:"symbol"`
	UnderlyingPrice float64   `json:"underlying_price"`
	Change          float64   `json:"change"`
	VIX             float64   `json:"vix"`
	Trend           string    `json:"trend"`
	Volume          int64     `json:"volume"`
	Timestamp       time.Time `json:"timestamp"`
}

// TechnicalIndicators is a point-in-time indicator snapshot.
type TechnicalIndicators struct {
	RSI          float64 `json:"rsi"`
	MACD         float64 `json:"macd"`
	BandPosition float64 `json:"band_position"` // 0 at lower band, 1 at upper band
	SMA20        float64 `json:"sma20"`
	SMA50        float64 `json:"sma50"`
	ATR          float64 `json:"atr"`
	Stochastic   float64 `json:"stochastic"`
	WilliamsR    float64 `json:"williams_r"`
}

// HistoricalStats summarises closed trades for one signal identifier.
// WinRate is a percentage.
type HistoricalStats struct {
	WinRate           float64 `json:"win_rate"`
	AvgReturn         float64 `json:"avg_return"`
	RecentPerformance float64 `json:"recent_performance"`
	MaxDrawdown       float64 `json:"max_drawdown"`
	SharpeRatio       float64 `json:"sharpe_ratio"`
	TotalTrades       int     `json:"total_trades"`
}

// TradeOutcome is the lifecycle state recorded in the trade log
type TradeOutcome string

const (
	OutcomeOpen TradeOutcome = "OPEN"
	OutcomeWin  TradeOutcome = "WIN"
	OutcomeLoss TradeOutcome = "LOSS"
)

// Trade is one row of the trade log.
type Trade struct {
	ID         string              `json:"id"`
	SignalID   string              `json:"signal_id"`
	Symbol     string              `json:"symbol"`
	Strike     int                 `json:"strike"`
	OptionType OptionType          `json:"option_type"`
	Direction  int                 `json:"direction"`
	Outcome    TradeOutcome        `json:"outcome"`
	EntryTime  time.Time           `json:"entry_time"`
	ExitTime   *time.Time          `json:"exit_time,omitempty"`
	EntryPrice decimal.Decimal     `json:"entry_price"`
	ExitPrice  decimal.NullDecimal `json:"exit_price"`
	PnL        decimal.NullDecimal `json:"pnl"`
	Quantity   int                 `json:"quantity"`
	VIXAtEntry float64             `json:"vix_at_entry,omitempty"` // 0 when not recorded
}

// PnLFloat returns the realised P&L, or 0 and false when none is recorded.
func (t Trade) PnLFloat() (float64, bool) {
	if !t.PnL.Valid {
		return 0, false
	}
	return t.PnL.Decimal.InexactFloat64(), true
}

// IsClosed reports whether the trade has a final outcome.
func (t Trade) IsClosed() bool { return t.Outcome != OutcomeOpen }

// Position is an open exposure as seen by diversification scoring.
type Position struct {
	SignalID   string       `json:"signal_id"`
	OptionType OptionType   `json:"option_type"`
	Status     TradeOutcome `json:"status"`
}

// NewsHeadline is one item of a news feed.
type NewsHeadline struct {
	Title       string    `json:"title"`
	Summary     string    `json:"summary,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// SocialPost is one item of a social media feed.
type SocialPost struct {
	Content    string    `json:"content"`
	Platform   string    `json:"platform"`
	Engagement int       `json:"engagement"`
	Author     string    `json:"author,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// MarketMood carries market-data derived sub-scores, each in [-100, 100].
type MarketMood struct {
	Momentum   float64 `json:"momentum"`
	Volume     float64 `json:"volume"`
	Volatility float64 `json:"volatility"`
}

// EconomicIndicators are macro levels in percent.
type EconomicIndicators struct {
	GDPGrowth    float64 `json:"gdp_growth"`
	Inflation    float64 `json:"inflation"`
	InterestRate float64 `json:"interest_rate"`
}

// VIXReading is the volatility index level and its change on the day.
type VIXReading struct {
	Level  float64 `json:"level"`
	Change float64 `json:"change"`
}

// CorporateAction is a dividend, split, buyback or similar event.
type CorporateAction struct {
	Symbol      string    `json:"symbol"`
	Kind        string    `json:"kind"`
	Description string    `json:"description,omitempty"`
	Sentiment   float64   `json:"sentiment"`
	ExDate      time.Time `json:"ex_date"`
}
