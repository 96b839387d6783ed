// internal/context/feeds.go
package context

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/newthinker/augur/internal/cache"
	"github.com/newthinker/augur/internal/core"
)

// StaticFeeds serves fixed sentiment inputs. Items carry timestamps relative
// to the call time.
type StaticFeeds struct {
	Headlines        []core.NewsHeadline
	Posts            []core.SocialPost
	Mood             core.MarketMood
	Economic         core.EconomicIndicators
	VIX              core.VIXReading
	CorporateActions []core.CorporateAction

	now func() time.Time
}

// NewStaticFeeds returns the default inputs used when no live feed is wired.
func NewStaticFeeds() *StaticFeeds {
	return &StaticFeeds{
		Headlines: []core.NewsHeadline{
			{Title: "Market shows strong bullish sentiment", Summary: "Positive economic indicators drive market optimism"},
			{Title: "Technology sector leads gains", Summary: "Tech stocks show strong performance"},
		},
		Posts: []core.SocialPost{
			{Content: "Market looking bullish today!", Platform: "Twitter", Engagement: 150, Author: "TraderX"},
		},
		Mood:     core.MarketMood{Momentum: 25, Volume: 15, Volatility: -10},
		Economic: core.EconomicIndicators{GDPGrowth: 6.5, Inflation: 4.2, InterestRate: 6.5},
		VIX:      core.VIXReading{Level: 15.5, Change: -0.8},
		now:      time.Now,
	}
}

func (f *StaticFeeds) GetHeadlines(ctx context.Context, symbol string) ([]core.NewsHeadline, error) {
	now := f.clock()
	out := make([]core.NewsHeadline, len(f.Headlines))
	for i, h := range f.Headlines {
		if h.PublishedAt.IsZero() {
			h.PublishedAt = now.Add(-time.Duration(2*(i+1)) * time.Hour)
		}
		out[i] = h
	}
	return out, nil
}

func (f *StaticFeeds) GetSocialPosts(ctx context.Context, symbol string) ([]core.SocialPost, error) {
	now := f.clock()
	out := make([]core.SocialPost, len(f.Posts))
	for i, p := range f.Posts {
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now.Add(-30 * time.Minute)
		}
		out[i] = p
	}
	return out, nil
}

func (f *StaticFeeds) GetMarketMood(ctx context.Context, symbol string) (core.MarketMood, error) {
	return f.Mood, nil
}

func (f *StaticFeeds) GetEconomicIndicators(ctx context.Context) (core.EconomicIndicators, error) {
	return f.Economic, nil
}

func (f *StaticFeeds) GetVIX(ctx context.Context) (core.VIXReading, error) {
	return f.VIX, nil
}

func (f *StaticFeeds) GetCorporateActions(ctx context.Context, symbol string) ([]core.CorporateAction, error) {
	var out []core.CorporateAction
	for _, a := range f.CorporateActions {
		if a.Symbol == "" || strings.EqualFold(a.Symbol, symbol) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *StaticFeeds) clock() time.Time {
	if f.now == nil {
		return time.Now()
	}
	return f.now()
}

// StoreFeeds serves sentiment inputs published into the cache, falling back
// per feed when nothing has been published.
type StoreFeeds struct {
	store    cache.Cache
	fallback SentimentFeeds
	ttl      time.Duration
}

// NewStoreFeeds creates cache-backed feeds. fallback may be nil, in which
// case a missing feed is reported as ErrDataUnavailable.
func NewStoreFeeds(store cache.Cache, fallback SentimentFeeds, ttl time.Duration) *StoreFeeds {
	return &StoreFeeds{store: store, fallback: fallback, ttl: ttl}
}

func feedKey(kind, symbol string) string {
	if symbol == "" {
		return "feeds:" + kind
	}
	return "feeds:" + kind + ":" + strings.ToUpper(symbol)
}

// PutHeadlines publishes headlines for a symbol.
func (s *StoreFeeds) PutHeadlines(ctx context.Context, symbol string, v []core.NewsHeadline) error {
	return cache.SetJSON(ctx, s.store, feedKey("news", symbol), v, s.ttl)
}

// PutSocialPosts publishes social posts for a symbol.
func (s *StoreFeeds) PutSocialPosts(ctx context.Context, symbol string, v []core.SocialPost) error {
	return cache.SetJSON(ctx, s.store, feedKey("social", symbol), v, s.ttl)
}

// PutMarketMood publishes mood sub-scores for a symbol.
func (s *StoreFeeds) PutMarketMood(ctx context.Context, symbol string, v core.MarketMood) error {
	return cache.SetJSON(ctx, s.store, feedKey("mood", symbol), v, s.ttl)
}

// PutEconomicIndicators publishes macro indicators.
func (s *StoreFeeds) PutEconomicIndicators(ctx context.Context, v core.EconomicIndicators) error {
	return cache.SetJSON(ctx, s.store, feedKey("economic", ""), v, s.ttl)
}

// PutVIX publishes the volatility index reading. It shares its key with
// StoreMarketData so both see the same value.
func (s *StoreFeeds) PutVIX(ctx context.Context, v core.VIXReading) error {
	return cache.SetJSON(ctx, s.store, vixKey, v, s.ttl)
}

// PutCorporateActions publishes corporate actions for a symbol.
func (s *StoreFeeds) PutCorporateActions(ctx context.Context, symbol string, v []core.CorporateAction) error {
	return cache.SetJSON(ctx, s.store, feedKey("corporate", symbol), v, s.ttl)
}

func (s *StoreFeeds) GetHeadlines(ctx context.Context, symbol string) ([]core.NewsHeadline, error) {
	var v []core.NewsHeadline
	return load(ctx, s, feedKey("news", symbol), &v, func(fb SentimentFeeds) ([]core.NewsHeadline, error) {
		return fb.GetHeadlines(ctx, symbol)
	})
}

func (s *StoreFeeds) GetSocialPosts(ctx context.Context, symbol string) ([]core.SocialPost, error) {
	var v []core.SocialPost
	return load(ctx, s, feedKey("social", symbol), &v, func(fb SentimentFeeds) ([]core.SocialPost, error) {
		return fb.GetSocialPosts(ctx, symbol)
	})
}

func (s *StoreFeeds) GetMarketMood(ctx context.Context, symbol string) (core.MarketMood, error) {
	var v core.MarketMood
	return load(ctx, s, feedKey("mood", symbol), &v, func(fb SentimentFeeds) (core.MarketMood, error) {
		return fb.GetMarketMood(ctx, symbol)
	})
}

func (s *StoreFeeds) GetEconomicIndicators(ctx context.Context) (core.EconomicIndicators, error) {
	var v core.EconomicIndicators
	return load(ctx, s, feedKey("economic", ""), &v, func(fb SentimentFeeds) (core.EconomicIndicators, error) {
		return fb.GetEconomicIndicators(ctx)
	})
}

func (s *StoreFeeds) GetVIX(ctx context.Context) (core.VIXReading, error) {
	var v core.VIXReading
	return load(ctx, s, vixKey, &v, func(fb SentimentFeeds) (core.VIXReading, error) {
		return fb.GetVIX(ctx)
	})
}

func (s *StoreFeeds) GetCorporateActions(ctx context.Context, symbol string) ([]core.CorporateAction, error) {
	var v []core.CorporateAction
	return load(ctx, s, feedKey("corporate", symbol), &v, func(fb SentimentFeeds) ([]core.CorporateAction, error) {
		return fb.GetCorporateActions(ctx, symbol)
	})
}

func load[T any](ctx context.Context, s *StoreFeeds, key string, dest *T, fallback func(SentimentFeeds) (T, error)) (T, error) {
	err := cache.GetJSON(ctx, s.store, key, dest)
	if err == nil {
		return *dest, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		var zero T
		return zero, core.WrapError(core.ErrDataUnavailable, err)
	}
	if s.fallback == nil {
		var zero T
		return zero, core.WrapError(core.ErrDataUnavailable, errors.New(key+" not published"))
	}
	return fallback(s.fallback)
}
