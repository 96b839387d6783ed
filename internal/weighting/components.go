package weighting

import (
	"sort"
	"time"

	sigctx "github.com/newthinker/augur/internal/context"
	"github.com/newthinker/augur/internal/core"
)

// Component names, also the keys of WeightResult.Components.
const (
	Performance     = "Performance"
	MarketCondition = "MarketCondition"
	TimeBased       = "TimeBased"
	Volatility      = "Volatility"
	Sentiment       = "Sentiment"
	Confidence      = "Confidence"
	Diversification = "Diversification"
)

// Coefficient is the share of one component in the composite weight.
type Coefficient struct {
	Name  string
	Value float64
}

// Coefficients are applied in this order. They sum to 1.
var Coefficients = []Coefficient{
	{Performance, 0.25},
	{MarketCondition, 0.20},
	{TimeBased, 0.15},
	{Volatility, 0.15},
	{Sentiment, 0.10},
	{Confidence, 0.10},
	{Diversification, 0.05},
}

const (
	performanceWindow = 30 * 24 * time.Hour
	conditionWindow   = 90 * 24 * time.Hour
	performanceSample = 20
)

// closedWithPnL keeps closed trades that carry a P&L, newest first.
func closedWithPnL(trades []core.Trade) []core.Trade {
	var out []core.Trade
	for _, tr := range trades {
		if _, ok := tr.PnLFloat(); ok && tr.IsClosed() {
			out = append(out, tr)
		}
	}
	sortNewestFirst(out)
	return out
}

func winRateAndPnL(trades []core.Trade) (winRate float64, pnls []float64) {
	wins := 0
	for _, tr := range trades {
		if tr.Outcome == core.OutcomeWin {
			wins++
		}
		p, _ := tr.PnLFloat()
		pnls = append(pnls, p)
	}
	return float64(wins) / float64(len(trades)), pnls
}

// PerformanceWeight rewards a strong record over the last 30 days (at most
// 20 closed trades), decayed by the average trade age. No trades yields 1.
func PerformanceWeight(trades []core.Trade, asOf time.Time) float64 {
	var recent []core.Trade
	for _, tr := range closedWithPnL(trades) {
		if tr.EntryTime.Before(asOf.Add(-performanceWindow)) || tr.EntryTime.After(asOf) {
			continue
		}
		recent = append(recent, tr)
		if len(recent) == performanceSample {
			break
		}
	}
	if len(recent) == 0 {
		return 1.0
	}

	winRate, pnls := winRateAndPnL(recent)
	w := 0.5 + (winRate-0.5)*0.8
	w += core.Clamp(sigctx.Mean(pnls)/1000, -0.3, 0.3)
	w += core.Clamp(sigctx.SharpeRatio(pnls)*0.1, -0.2, 0.2)

	var ageDays float64
	for _, tr := range recent {
		ageDays += asOf.Sub(tr.EntryTime).Hours() / 24
	}
	ageDays /= float64(len(recent))
	w *= max(0.7, 1-ageDays/30)

	return core.Clamp(w, 0.1, 2.0)
}

// MarketConditionWeight scores the 90-day record in comparable markets and
// scales it by the regime multiplier. Every past trade currently counts as
// comparable.
func MarketConditionWeight(t Tables, trades []core.Trade, trend string, asOf time.Time) float64 {
	w := 1.0
	var similar []core.Trade
	for _, tr := range closedWithPnL(trades) {
		if !tr.EntryTime.Before(asOf.Add(-conditionWindow)) && !tr.EntryTime.After(asOf) {
			similar = append(similar, tr)
		}
	}
	if len(similar) > 0 {
		winRate, pnls := winRateAndPnL(similar)
		w = 0.5 + (winRate-0.5)*0.6
		w += core.Clamp(sigctx.Mean(pnls)/1000, -0.2, 0.2)
	}
	w *= t.regime(trend)
	return core.Clamp(w, 0.2, 1.8)
}

// TimeWeight multiplies the hour, weekday, expiry and session tables.
func TimeWeight(t Tables, f core.SignalFeatures, inSession bool) float64 {
	w := t.hour(f.HourOfDay) * t.weekday(f.DayOfWeek) * t.expiry(f.TimeToExpiry)
	if inSession {
		w *= t.InSession
	} else {
		w *= t.OutOfSession
	}
	return core.Clamp(w, 0.3, 1.5)
}

// VolatilityWeight applies the VIX table and, when past trades recorded the
// index at entry, the win rate in the current volatility regime.
func VolatilityWeight(t Tables, vix float64, trades []core.Trade) float64 {
	w := t.vix(vix)

	regime := VolatilityRegime(vix)
	var wins, total int
	for _, tr := range trades {
		if !tr.IsClosed() || tr.VIXAtEntry <= 0 || VolatilityRegime(tr.VIXAtEntry) != regime {
			continue
		}
		total++
		if tr.Outcome == core.OutcomeWin {
			wins++
		}
	}
	if total > 0 {
		winRate := float64(wins) / float64(total)
		w *= core.Clamp(winRate/0.5, 0.5, 1.5)
	}
	return core.Clamp(w, 0.3, 1.7)
}

// SentimentWeight rewards entries that agree with market sentiment. Puts
// are bullish and calls bearish; exits carry no direction.
func SentimentWeight(alert core.Alert, sentiment float64) float64 {
	w := 1.0
	direction := 0
	if alert.IsEntry() {
		direction = alert.Direction()
	}
	sentDir := 0
	switch {
	case sentiment > 0:
		sentDir = 1
	case sentiment < 0:
		sentDir = -1
	}

	strength := min(100, abs(sentiment)) / 100
	if direction != 0 && sentDir != 0 {
		alignment := -1.0
		if direction == sentDir {
			alignment = 1.0
		}
		w += alignment * strength * 0.3
	}
	w *= 0.8 + strength*0.4
	return core.Clamp(w, 0.4, 1.6)
}

// ConfidenceWeight is linear in the validation confidence with a bonus
// above 80 and a penalty below 40.
func ConfidenceWeight(confidence float64) float64 {
	w := 0.3 + confidence/100*0.7
	if confidence > 80 {
		w += 0.2
	}
	if confidence < 40 {
		w *= 0.7
	}
	return core.Clamp(w, 0.2, 1.3)
}

// DiversificationWeight penalizes concentration of open positions in the
// same signal identifier (above 30%) or option type (above 70%).
func DiversificationWeight(positions []core.Position, signalID string, option core.OptionType) float64 {
	w := 1.0
	var open []core.Position
	for _, p := range positions {
		if p.Status == "" || p.Status == core.OutcomeOpen {
			open = append(open, p)
		}
	}
	if len(open) == 0 {
		return w
	}

	var sameSignal, sameType int
	for _, p := range open {
		if p.SignalID == signalID {
			sameSignal++
		}
		if p.OptionType == option {
			sameType++
		}
	}
	n := float64(len(open))
	if c := float64(sameSignal) / n; c > 0.3 {
		w *= max(0.5, 1-(c-0.3)*2)
	}
	if c := float64(sameType) / n; c > 0.7 {
		w *= max(0.7, 1-(c-0.7)*1.5)
	}
	return core.Clamp(w, 0.3, 1.2)
}

// Composite sums each component times its coefficient. Missing components
// count as 1.
func Composite(components map[string]float64) float64 {
	var w float64
	for _, c := range Coefficients {
		v, ok := components[c.Name]
		if !ok {
			v = 1.0
		}
		w += v * c.Value
	}
	return w
}

// Constraint thresholds applied after compositing.
const (
	MinWeight           = 0.1
	MaxWeight           = 2.0
	HighRiskThreshold   = 30
	HighRiskCap         = 0.5
	LowQualityThreshold = 40
	LowQualityCap       = 0.7
	AfterHoursFactor    = 0.6
)

// ApplyConstraints bounds the composite weight and caps it for risky or
// low-quality signals and for alerts outside market hours.
func ApplyConstraints(w, overallRisk, quality float64, inSession bool) float64 {
	w = core.Clamp(w, MinWeight, MaxWeight)
	if overallRisk < HighRiskThreshold {
		w = min(w, HighRiskCap)
	}
	if quality < LowQualityThreshold {
		w = min(w, LowQualityCap)
	}
	if !inSession {
		w *= AfterHoursFactor
	}
	return core.Clamp(w, MinWeight, MaxWeight)
}

func sortNewestFirst(trades []core.Trade) {
	sort.Slice(trades, func(i, j int) bool { return trades[i].EntryTime.After(trades[j].EntryTime) })
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
