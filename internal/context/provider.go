package context

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/newthinker/augur/internal/cache"
	"github.com/newthinker/augur/internal/core"
	"github.com/newthinker/augur/internal/indicator"
)

// StaticMarketData serves a fixed snapshot. It is the fallback when no feed
// has published data for a symbol.
type StaticMarketData struct {
	Snapshot   core.MarketSnapshot
	Indicators core.TechnicalIndicators
	Candles    []core.OHLCV
}

// NewStaticMarketData returns the default NIFTY snapshot.
func NewStaticMarketData() *StaticMarketData {
	return &StaticMarketData{
		Snapshot: core.MarketSnapshot{
			UnderlyingPrice: 22500,
			Change:          0.5,
			VIX:             15.5,
			Trend:           TrendBullish,
			Volume:          1_000_000,
		},
		Indicators: core.TechnicalIndicators{
			RSI:          55,
			MACD:         0.25,
			BandPosition: 0.6,
			SMA20:        22480,
			SMA50:        22450,
		},
	}
}

func (s *StaticMarketData) GetMarketSnapshot(ctx context.Context, symbol string) (core.MarketSnapshot, error) {
	snap := s.Snapshot
	snap.Symbol = symbol
	snap.Timestamp = time.Now()
	return snap, nil
}

func (s *StaticMarketData) GetTechnicalIndicators(ctx context.Context, symbol string) (core.TechnicalIndicators, error) {
	return s.Indicators, nil
}

func (s *StaticMarketData) GetRecentCandles(ctx context.Context, symbol string, lookback int) ([]core.OHLCV, error) {
	if lookback > 0 && len(s.Candles) > lookback {
		return s.Candles[len(s.Candles)-lookback:], nil
	}
	return s.Candles, nil
}

// StoreMarketData serves market data published into the cache by upstream
// feeds. Explicit snapshots win over values derived from candles; anything
// missing falls through to the fallback provider.
type StoreMarketData struct {
	store      cache.Cache
	fallback   MarketDataProvider
	maxCandles int
	ttl        time.Duration
}

// NewStoreMarketData creates a cache-backed provider. fallback may be nil.
func NewStoreMarketData(store cache.Cache, fallback MarketDataProvider, maxCandles int, ttl time.Duration) *StoreMarketData {
	if maxCandles <= 0 {
		maxCandles = 500
	}
	return &StoreMarketData{
		store:      store,
		fallback:   fallback,
		maxCandles: maxCandles,
		ttl:        ttl,
	}
}

func snapshotKey(symbol string) string   { return "market:" + strings.ToUpper(symbol) + ":snapshot" }
func indicatorsKey(symbol string) string { return "market:" + strings.ToUpper(symbol) + ":indicators" }
func candlesKey(symbol string) string    { return "market:" + strings.ToUpper(symbol) + ":candles" }

const vixKey = "market:vix"

// PutSnapshot publishes a snapshot for its symbol.
func (p *StoreMarketData) PutSnapshot(ctx context.Context, snap core.MarketSnapshot) error {
	return cache.SetJSON(ctx, p.store, snapshotKey(snap.Symbol), snap, p.ttl)
}

// PutIndicators publishes an indicator snapshot.
func (p *StoreMarketData) PutIndicators(ctx context.Context, symbol string, ind core.TechnicalIndicators) error {
	return cache.SetJSON(ctx, p.store, indicatorsKey(symbol), ind, p.ttl)
}

// PutVIX publishes the volatility index reading.
func (p *StoreMarketData) PutVIX(ctx context.Context, vix core.VIXReading) error {
	return cache.SetJSON(ctx, p.store, vixKey, vix, p.ttl)
}

// GetVIX returns the last published volatility index reading.
func (p *StoreMarketData) GetVIX(ctx context.Context) (core.VIXReading, error) {
	var vix core.VIXReading
	if err := cache.GetJSON(ctx, p.store, vixKey, &vix); err != nil {
		return core.VIXReading{}, err
	}
	return vix, nil
}

// PushCandles appends candles to the symbol's rolling window.
func (p *StoreMarketData) PushCandles(ctx context.Context, symbol string, candles ...core.OHLCV) error {
	for _, c := range candles {
		if c.Symbol == "" {
			c.Symbol = symbol
		}
		if err := cache.PushJSON(ctx, p.store, candlesKey(symbol), c, p.maxCandles); err != nil {
			return fmt.Errorf("push candle: %w", err)
		}
	}
	return nil
}

func (p *StoreMarketData) GetRecentCandles(ctx context.Context, symbol string, lookback int) ([]core.OHLCV, error) {
	raw, err := p.store.List(ctx, candlesKey(symbol), lookback)
	if err != nil {
		return nil, core.WrapError(core.ErrDataUnavailable, err)
	}

	candles := make([]core.OHLCV, 0, len(raw))
	for _, b := range raw {
		var c core.OHLCV
		if err := json.Unmarshal(b, &c); err != nil {
			continue
		}
		candles = append(candles, c)
	}

	if len(candles) == 0 && p.fallback != nil {
		return p.fallback.GetRecentCandles(ctx, symbol, lookback)
	}
	return candles, nil
}

func (p *StoreMarketData) GetMarketSnapshot(ctx context.Context, symbol string) (core.MarketSnapshot, error) {
	var snap core.MarketSnapshot
	err := cache.GetJSON(ctx, p.store, snapshotKey(symbol), &snap)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		return core.MarketSnapshot{}, core.WrapError(core.ErrDataUnavailable, err)
	}

	candles, err := p.GetRecentCandles(ctx, symbol, p.maxCandles)
	if err == nil {
		if derived, ok := SnapshotFromCandles(symbol, candles); ok {
			if vix, err := p.GetVIX(ctx); err == nil {
				derived.VIX = vix.Level
			} else {
				derived.VIX = RealizedVolatility(candles)
			}
			return derived, nil
		}
	}

	if p.fallback != nil {
		return p.fallback.GetMarketSnapshot(ctx, symbol)
	}
	return core.MarketSnapshot{}, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("no snapshot for %s", symbol))
}

func (p *StoreMarketData) GetTechnicalIndicators(ctx context.Context, symbol string) (core.TechnicalIndicators, error) {
	var ind core.TechnicalIndicators
	err := cache.GetJSON(ctx, p.store, indicatorsKey(symbol), &ind)
	if err == nil {
		return ind, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		return core.TechnicalIndicators{}, core.WrapError(core.ErrDataUnavailable, err)
	}

	candles, err := p.GetRecentCandles(ctx, symbol, p.maxCandles)
	if err == nil && len(candles) >= indicator.MinCandles {
		return indicator.Snapshot(candles), nil
	}

	if p.fallback != nil {
		return p.fallback.GetTechnicalIndicators(ctx, symbol)
	}
	return core.TechnicalIndicators{}, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("no indicators for %s", symbol))
}
