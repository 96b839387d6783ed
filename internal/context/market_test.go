// internal/context/market_test.go
package context

import (
	"testing"
	"time"

	"github.com/newthinker/augur/internal/core"
)

func TestSession_IsOpen(t *testing.T) {
	s := DefaultSession()
	ist := s.Location

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"mid session", time.Date(2025, 3, 4, 11, 0, 0, 0, ist), true},
		{"at open", time.Date(2025, 3, 4, 9, 15, 0, 0, ist), true},
		{"before open", time.Date(2025, 3, 4, 9, 0, 0, 0, ist), false},
		{"after close", time.Date(2025, 3, 4, 15, 45, 0, 0, ist), false},
		{"saturday", time.Date(2025, 3, 8, 11, 0, 0, 0, ist), false},
		{"utc converted", time.Date(2025, 3, 4, 5, 0, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.IsOpen(tt.at); got != tt.want {
				t.Errorf("IsOpen() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMarketContextService_Build(t *testing.T) {
	svc := NewMarketContextService(DefaultSession())
	at := time.Date(2025, 3, 4, 11, 0, 0, 0, DefaultSession().Location)

	snap := &core.MarketSnapshot{UnderlyingPrice: 22500, VIX: 15.5, Trend: TrendBullish, Volume: 1_000_000}
	mc := svc.Build(snap, "Trending", at)

	if mc.Trend != TrendBullish {
		t.Errorf("expected bullish trend, got %s", mc.Trend)
	}
	if mc.VolatilityLevel != "Medium" {
		t.Errorf("expected Medium volatility, got %s", mc.VolatilityLevel)
	}
	if mc.LiquidityLevel != "High" {
		t.Errorf("expected High liquidity, got %s", mc.LiquidityLevel)
	}
	if mc.MarketHours != "Open" {
		t.Errorf("expected Open, got %s", mc.MarketHours)
	}
	if mc.Regime != "Trending" {
		t.Errorf("expected Trending regime, got %s", mc.Regime)
	}

	empty := svc.Build(nil, "", at.Add(12*time.Hour))
	if empty.MarketHours != "Closed" || empty.Trend != "" {
		t.Errorf("unexpected context without snapshot: %+v", empty)
	}
}

func TestLevels(t *testing.T) {
	if VolatilityLevel(10) != "Low" || VolatilityLevel(20) != "Medium" || VolatilityLevel(30) != "High" {
		t.Error("volatility buckets wrong")
	}
	if LiquidityLevel(50_000) != "Low" || LiquidityLevel(500_000) != "Medium" || LiquidityLevel(2_000_000) != "High" {
		t.Error("liquidity buckets wrong")
	}
}

func rampCandles(n int, step float64) []core.OHLCV {
	start := time.Date(2025, 3, 3, 9, 15, 0, 0, time.UTC)
	data := make([]core.OHLCV, n)
	for i := range data {
		c := 22000 + float64(i)*step
		data[i] = core.OHLCV{Open: c - step/2, High: c + 5, Low: c - 5, Close: c, Volume: 1000, Time: start.Add(time.Duration(i) * 5 * time.Minute)}
	}
	return data
}

func TestSnapshotFromCandles(t *testing.T) {
	snap, ok := SnapshotFromCandles("NIFTY", rampCandles(40, 10))
	if !ok {
		t.Fatal("expected snapshot")
	}
	if snap.Trend != TrendBullish {
		t.Errorf("expected bullish trend, got %s", snap.Trend)
	}
	if snap.UnderlyingPrice != 22390 {
		t.Errorf("unexpected price %f", snap.UnderlyingPrice)
	}
	if snap.Change <= 0 {
		t.Errorf("expected positive change, got %f", snap.Change)
	}

	down, _ := SnapshotFromCandles("NIFTY", rampCandles(40, -10))
	if down.Trend != TrendBearish {
		t.Errorf("expected bearish trend, got %s", down.Trend)
	}

	if _, ok := SnapshotFromCandles("NIFTY", nil); ok {
		t.Error("expected no snapshot from empty candles")
	}
}

func TestRealizedVolatility(t *testing.T) {
	data := []core.OHLCV{{Close: 100}, {Close: 101}, {Close: 100}, {Close: 102}, {Close: 101}}
	vol := RealizedVolatility(data)
	if vol < 10 || vol > 50 {
		t.Errorf("volatility %f seems unreasonable", vol)
	}
	if RealizedVolatility(data[:1]) != 0 {
		t.Error("single candle should have zero volatility")
	}
}
