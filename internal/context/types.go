// internal/context/types.go
package context

import (
	"context"
	"time"

	"github.com/newthinker/augur/internal/core"
)

// Trend labels as reported by market data feeds.
const (
	TrendBullish  = "Bullish"
	TrendBearish  = "Bearish"
	TrendSideways = "Sideways"
)

// SnapshotProvider returns the current state of an underlying.
type SnapshotProvider interface {
	GetMarketSnapshot(ctx context.Context, symbol string) (core.MarketSnapshot, error)
}

// IndicatorProvider returns the current technical indicator snapshot.
type IndicatorProvider interface {
	GetTechnicalIndicators(ctx context.Context, symbol string) (core.TechnicalIndicators, error)
}

// CandleProvider returns the most recent candles, oldest first.
type CandleProvider interface {
	GetRecentCandles(ctx context.Context, symbol string, lookback int) ([]core.OHLCV, error)
}

// MarketDataProvider is everything the pipeline reads about the market.
type MarketDataProvider interface {
	SnapshotProvider
	IndicatorProvider
	CandleProvider
}

// HistoricalStatsProvider summarises the track record of a signal identifier.
type HistoricalStatsProvider interface {
	GetHistoricalStats(ctx context.Context, signalID string) (core.HistoricalStats, error)
}

// TradeLog is the read side of the trade log.
type TradeLog interface {
	// GetTradeLog returns trades for signalID entered in [from, to]. An
	// empty signalID matches every signal.
	GetTradeLog(ctx context.Context, signalID string, from, to time.Time) ([]core.Trade, error)
	GetOpenPositions(ctx context.Context) ([]core.Position, error)
}

// NewsFeed returns recent headlines for a symbol.
type NewsFeed interface {
	GetHeadlines(ctx context.Context, symbol string) ([]core.NewsHeadline, error)
}

// SocialFeed returns recent social media posts for a symbol.
type SocialFeed interface {
	GetSocialPosts(ctx context.Context, symbol string) ([]core.SocialPost, error)
}

// MarketMoodFeed returns market-data derived mood sub-scores.
type MarketMoodFeed interface {
	GetMarketMood(ctx context.Context, symbol string) (core.MarketMood, error)
}

// EconomicFeed returns the current macro indicators.
type EconomicFeed interface {
	GetEconomicIndicators(ctx context.Context) (core.EconomicIndicators, error)
}

// VIXFeed returns the volatility index reading.
type VIXFeed interface {
	GetVIX(ctx context.Context) (core.VIXReading, error)
}

// CorporateActionFeed returns pending corporate actions for a symbol.
type CorporateActionFeed interface {
	GetCorporateActions(ctx context.Context, symbol string) ([]core.CorporateAction, error)
}

// SentimentFeeds bundles every input of the sentiment sources.
type SentimentFeeds interface {
	NewsFeed
	SocialFeed
	MarketMoodFeed
	EconomicFeed
	VIXFeed
	CorporateActionFeed
}
