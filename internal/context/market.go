// internal/context/market.go
package context

import (
	"math"
	"time"

	"github.com/newthinker/augur/internal/core"
)

// Session is the regular trading window in a given location.
type Session struct {
	Open     time.Duration // offset from midnight
	Close    time.Duration
	Location *time.Location
}

// DefaultSession is the 09:15-15:30 IST cash session.
func DefaultSession() Session {
	return Session{
		Open:     9*time.Hour + 15*time.Minute,
		Close:    15*time.Hour + 30*time.Minute,
		Location: time.FixedZone("IST", 5*3600+1800),
	}
}

// IsOpen reports whether t falls inside the session on a weekday.
func (s Session) IsOpen(t time.Time) bool {
	if s.Location != nil {
		t = t.In(s.Location)
	}
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return s.InHours(t)
}

// InHours reports whether the time of day of t is inside the session,
// ignoring the weekday.
func (s Session) InHours(t time.Time) bool {
	if s.Location != nil {
		t = t.In(s.Location)
	}
	offset := time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
	return offset >= s.Open && offset <= s.Close
}

// MarketContextService labels the market around an alert.
type MarketContextService struct {
	session Session
}

// NewMarketContextService creates a new market context service.
func NewMarketContextService(session Session) *MarketContextService {
	return &MarketContextService{session: session}
}

// Build returns the market context. A nil snapshot produces a context with
// empty labels.
func (s *MarketContextService) Build(snap *core.MarketSnapshot, regime string, at time.Time) core.MarketContext {
	mc := core.MarketContext{
		MarketHours: "Closed",
		Regime:      regime,
	}
	if s.session.IsOpen(at) {
		mc.MarketHours = "Open"
	}
	if snap == nil {
		return mc
	}

	mc.Trend = snap.Trend
	mc.UnderlyingPrice = snap.UnderlyingPrice
	mc.VIX = snap.VIX
	mc.VolatilityLevel = VolatilityLevel(snap.VIX)
	mc.LiquidityLevel = LiquidityLevel(snap.Volume)
	return mc
}

// VolatilityLevel buckets the volatility index into Low, Medium or High.
func VolatilityLevel(vix float64) string {
	switch {
	case vix < 15:
		return "Low"
	case vix < 25:
		return "Medium"
	default:
		return "High"
	}
}

// LiquidityLevel buckets traded volume.
func LiquidityLevel(volume int64) string {
	switch {
	case volume >= 1_000_000:
		return "High"
	case volume >= 100_000:
		return "Medium"
	default:
		return "Low"
	}
}

// SnapshotFromCandles derives a market snapshot from recent candles. VIX is
// left at zero; callers overlay it from a volatility index feed.
func SnapshotFromCandles(symbol string, candles []core.OHLCV) (core.MarketSnapshot, bool) {
	if len(candles) == 0 {
		return core.MarketSnapshot{}, false
	}

	last := candles[len(candles)-1]
	snap := core.MarketSnapshot{
		Symbol:          symbol,
		UnderlyingPrice: last.Close,
		Trend:           calculateTrend(candles),
		Volume:          last.Volume,
		Timestamp:       last.Time,
	}
	if len(candles) > 1 {
		if prev := candles[len(candles)-2].Close; prev > 0 {
			snap.Change = (last.Close - prev) / prev * 100
		}
	}
	return snap, true
}

// calculateTrend compares the last 10 closes to the 20 before them.
func calculateTrend(data []core.OHLCV) string {
	if len(data) < 30 {
		return TrendSideways
	}

	recent := avgClose(data[len(data)-10:])
	earlier := avgClose(data[len(data)-30 : len(data)-10])
	if earlier == 0 {
		return TrendSideways
	}

	change := (recent - earlier) / earlier
	if change > 0.005 {
		return TrendBullish
	} else if change < -0.005 {
		return TrendBearish
	}
	return TrendSideways
}

// RealizedVolatility is the annualized standard deviation of close-to-close
// returns, in percent. It stands in for the volatility index when no feed
// is configured.
func RealizedVolatility(data []core.OHLCV) float64 {
	if len(data) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(data)-1)
	for i := 1; i < len(data); i++ {
		if data[i-1].Close > 0 {
			returns = append(returns, (data[i].Close-data[i-1].Close)/data[i-1].Close)
		}
	}
	if len(returns) == 0 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))

	// ~252 trading days
	return math.Sqrt(variance) * math.Sqrt(252) * 100
}

func avgClose(data []core.OHLCV) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, d := range data {
		sum += d.Close
	}
	return sum / float64(len(data))
}
