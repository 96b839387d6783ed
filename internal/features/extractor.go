// Package features turns an alert and its market snapshots into the flat
// feature record consumed by validation scoring.
package features

import (
	"math"
	"time"

	"github.com/newthinker/augur/internal/core"
)

// Config holds the weekly expiry schedule.
type Config struct {
	ExpiryWeekday time.Weekday
	// ExpiryCutoff is the offset from midnight after which a same-day alert
	// rolls to the following expiry.
	ExpiryCutoff time.Duration
	// Location converts timestamps before reading hour and weekday. Nil keeps
	// the timestamp's own zone.
	Location *time.Location
}

// DefaultConfig returns the weekly Thursday expiry with a 15:30 cutoff.
func DefaultConfig() Config {
	return Config{
		ExpiryWeekday: time.Thursday,
		ExpiryCutoff:  15*time.Hour + 30*time.Minute,
	}
}

// Extractor builds SignalFeatures. It holds no mutable state.
type Extractor struct {
	cfg Config
}

// NewExtractor creates an extractor.
func NewExtractor(cfg Config) *Extractor {
	return &Extractor{cfg: cfg}
}

// Extract builds the feature record. Nil snapshots leave their fields at zero.
func (e *Extractor) Extract(alert core.Alert, market *core.MarketSnapshot, ind *core.TechnicalIndicators, stats *core.HistoricalStats) core.SignalFeatures {
	ts := e.local(alert.Timestamp)

	f := core.SignalFeatures{
		SignalID:     alert.Signal,
		Strike:       alert.Strike,
		OptionType:   alert.Option(),
		Action:       alert.Action,
		Timestamp:    alert.Timestamp,
		HourOfDay:    ts.Hour(),
		DayOfWeek:    ts.Weekday(),
		TimeToExpiry: float64(e.DaysToExpiry(alert.Timestamp)),
	}

	if market != nil {
		f.UnderlyingPrice = market.UnderlyingPrice
		f.UnderlyingChange = market.Change
		f.VIX = market.VIX
		f.MarketTrend = market.Trend
		f.Volume = market.Volume
		f.VolatilityRegime = VolatilityRegime(market.VIX)
	}

	if ind != nil {
		f.RSI = ind.RSI
		f.MACD = ind.MACD
		f.BollingerBandPosition = ind.BandPosition
		f.SMA20 = ind.SMA20
		f.SMA50 = ind.SMA50
		f.MarketRegime = MarketRegime(*ind)
	}

	if stats != nil {
		f.HistoricalWinRate = stats.WinRate
		f.HistoricalAvgReturn = stats.AvgReturn
		f.RecentPerformance = stats.RecentPerformance
		f.HistoricalTrades = stats.TotalTrades
	}

	return f
}

// DaysToExpiry counts whole days to the next expiry weekday. An alert on
// expiry day after the cutoff rolls to the following week.
func (e *Extractor) DaysToExpiry(t time.Time) int {
	ts := e.local(t)
	days := (int(e.cfg.ExpiryWeekday) - int(ts.Weekday()) + 7) % 7
	if days == 0 && sinceMidnight(ts) > e.cfg.ExpiryCutoff {
		days = 7
	}
	return days
}

func (e *Extractor) local(t time.Time) time.Time {
	if e.cfg.Location == nil {
		return t
	}
	return t.In(e.cfg.Location)
}

func sinceMidnight(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second
}

// VolatilityRegime buckets a volatility index level. Zero means unknown.
func VolatilityRegime(vix float64) string {
	switch {
	case vix <= 0:
		return ""
	case vix < 12:
		return "Low"
	case vix < 20:
		return "Normal"
	case vix < 30:
		return "High"
	default:
		return "Extreme"
	}
}

// MarketRegime labels the market Trending when the 20 and 50 period moving
// averages are more than 0.1% apart, Ranging otherwise.
func MarketRegime(ind core.TechnicalIndicators) string {
	if ind.SMA20 == 0 || ind.SMA50 == 0 {
		return ""
	}
	if math.Abs(ind.SMA20-ind.SMA50)/ind.SMA50 > 0.001 {
		return "Trending"
	}
	return "Ranging"
}
