package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/newthinker/augur/internal/core"
)

// 2024-01-04 is a Thursday.
func at(day, hour, minute int) time.Time {
	return time.Date(2024, 1, day, hour, minute, 0, 0, time.UTC)
}

func TestExtractor_DaysToExpiry(t *testing.T) {
	e := NewExtractor(DefaultConfig())

	tests := []struct {
		name string
		ts   time.Time
		want int
	}{
		{"monday", at(1, 10, 0), 3},
		{"wednesday", at(3, 10, 0), 1},
		{"thursday before cutoff", at(4, 15, 0), 0},
		{"thursday at cutoff", at(4, 15, 30), 0},
		{"thursday after cutoff", at(4, 15, 31), 7},
		{"friday", at(5, 10, 0), 6},
		{"sunday", at(7, 10, 0), 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.DaysToExpiry(tt.ts))
		})
	}
}

func TestExtractor_ConfigurableExpiry(t *testing.T) {
	e := NewExtractor(Config{ExpiryWeekday: time.Tuesday, ExpiryCutoff: 15 * time.Hour})

	assert.Equal(t, 1, e.DaysToExpiry(at(1, 10, 0))) // Monday
	assert.Equal(t, 7, e.DaysToExpiry(at(2, 15, 5))) // Tuesday after cutoff
	assert.Equal(t, 6, e.DaysToExpiry(at(3, 9, 0)))  // Wednesday
}

func TestExtractor_Extract(t *testing.T) {
	e := NewExtractor(DefaultConfig())
	alert := core.Alert{Strike: 22500, Type: "pe", Signal: "S3", Action: "Entry", Timestamp: at(2, 11, 0)}

	market := &core.MarketSnapshot{UnderlyingPrice: 22500, Change: 0.5, VIX: 15.5, Trend: "Bullish", Volume: 1_000_000}
	ind := &core.TechnicalIndicators{RSI: 55, MACD: 0.25, BandPosition: 0.6, SMA20: 22480, SMA50: 22450}
	stats := &core.HistoricalStats{WinRate: 62, AvgReturn: 120, RecentPerformance: 40}

	f := e.Extract(alert, market, ind, stats)

	assert.Equal(t, "S3", f.SignalID)
	assert.Equal(t, core.OptionPut, f.OptionType)
	assert.Equal(t, 11, f.HourOfDay)
	assert.Equal(t, time.Tuesday, f.DayOfWeek)
	assert.Equal(t, 2.0, f.TimeToExpiry)
	assert.Equal(t, 15.5, f.VIX)
	assert.Equal(t, "Bullish", f.MarketTrend)
	assert.Equal(t, 55.0, f.RSI)
	assert.Equal(t, 62.0, f.HistoricalWinRate)
	assert.Equal(t, "Trending", f.MarketRegime)
	assert.Equal(t, "Normal", f.VolatilityRegime)
}

func TestExtractor_MissingSnapshots(t *testing.T) {
	e := NewExtractor(DefaultConfig())
	alert := core.Alert{Strike: 22500, Type: "CE", Signal: "S1", Action: "Entry", Timestamp: at(1, 10, 0)}

	f := e.Extract(alert, nil, nil, nil)

	assert.Zero(t, f.VIX)
	assert.Zero(t, f.RSI)
	assert.Zero(t, f.HistoricalWinRate)
	assert.Empty(t, f.MarketTrend)
	assert.Empty(t, f.MarketRegime)
	assert.Equal(t, 3.0, f.TimeToExpiry)
}

func TestExtractor_Deterministic(t *testing.T) {
	e := NewExtractor(DefaultConfig())
	alert := core.Alert{Strike: 22500, Type: "PE", Signal: "S3", Action: "Entry", Timestamp: at(3, 13, 45)}
	market := &core.MarketSnapshot{VIX: 18}

	assert.Equal(t, e.Extract(alert, market, nil, nil), e.Extract(alert, market, nil, nil))
}

func TestRegimes(t *testing.T) {
	assert.Equal(t, "", VolatilityRegime(0))
	assert.Equal(t, "Low", VolatilityRegime(11))
	assert.Equal(t, "High", VolatilityRegime(25))
	assert.Equal(t, "Extreme", VolatilityRegime(35))

	assert.Equal(t, "Ranging", MarketRegime(core.TechnicalIndicators{SMA20: 100, SMA50: 100.05}))
}
