package context

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/augur/internal/cache"
	"github.com/newthinker/augur/internal/core"
)

func TestStaticFeeds_Defaults(t *testing.T) {
	f := NewStaticFeeds()
	now := time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return now }
	ctx := context.Background()

	headlines, err := f.GetHeadlines(ctx, "NIFTY")
	require.NoError(t, err)
	require.Len(t, headlines, 2)
	assert.Equal(t, now.Add(-2*time.Hour), headlines[0].PublishedAt)

	posts, err := f.GetSocialPosts(ctx, "NIFTY")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, 150, posts[0].Engagement)

	vix, err := f.GetVIX(ctx)
	require.NoError(t, err)
	assert.Equal(t, 15.5, vix.Level)

	actions, err := f.GetCorporateActions(ctx, "NIFTY")
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestStoreFeeds_PublishedWinsOverFallback(t *testing.T) {
	ctx := context.Background()
	s := NewStoreFeeds(cache.NewMemoryCache(), NewStaticFeeds(), time.Hour)

	mood, err := s.GetMarketMood(ctx, "NIFTY")
	require.NoError(t, err)
	assert.Equal(t, 25.0, mood.Momentum)

	require.NoError(t, s.PutMarketMood(ctx, "nifty", core.MarketMood{Momentum: -40}))
	mood, err = s.GetMarketMood(ctx, "NIFTY")
	require.NoError(t, err)
	assert.Equal(t, -40.0, mood.Momentum)

	require.NoError(t, s.PutCorporateActions(ctx, "NIFTY", []core.CorporateAction{{Kind: "Dividend", Sentiment: 30}}))
	actions, err := s.GetCorporateActions(ctx, "NIFTY")
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, 30.0, actions[0].Sentiment)
}

func TestStoreFeeds_SharedVIXKey(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryCache()
	feeds := NewStoreFeeds(store, nil, 0)
	market := NewStoreMarketData(store, nil, 100, 0)

	require.NoError(t, feeds.PutVIX(ctx, core.VIXReading{Level: 21, Change: 1.2}))
	vix, err := market.GetVIX(ctx)
	require.NoError(t, err)
	assert.Equal(t, 21.0, vix.Level)

	_, err = feeds.GetEconomicIndicators(ctx)
	assert.ErrorIs(t, err, core.ErrDataUnavailable)
}
