package sentiment

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/augur/internal/cache"
	sigctx "github.com/newthinker/augur/internal/context"
	"github.com/newthinker/augur/internal/core"
)

type fakeSource struct {
	name   string
	weight float64
	res    core.SourceResult
	err    error
	delay  time.Duration
	panics bool
	calls  atomic.Int32
}

func (f *fakeSource) Name() string    { return f.name }
func (f *fakeSource) Weight() float64 { return f.weight }

func (f *fakeSource) Analyze(ctx context.Context, symbol string) (core.SourceResult, error) {
	f.calls.Add(1)
	if f.panics {
		panic("boom")
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.res, f.err
}

func TestAnalyzeText(t *testing.T) {
	tests := []struct {
		text       string
		score      float64
		confidence float64
		keywords   []string
	}{
		{"Market shows strong bullish sentiment", 100, 60, []string{"strong", "bullish"}},
		{"weak demand, prices fall", -100, 60, []string{"weak", "fall"}},
		{"Strong open but weak close", 0, 60, []string{"strong", "weak"}},
		{"nothing to see here", 0, 30, nil},
		{"Looking bullish today!", 100, 50, []string{"bullish"}},
		{"up up up and away", 100, 70, []string{"up"}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := AnalyzeText(tt.text)
			assert.InDelta(t, tt.score, got.Score, 1e-9)
			assert.InDelta(t, tt.confidence, got.Confidence, 1e-9)
			assert.Equal(t, tt.keywords, got.Keywords)
		})
	}
}

func TestAnalyzeText_ConfidenceCap(t *testing.T) {
	got := AnalyzeText("good good good good good good good")
	assert.Equal(t, 90.0, got.Confidence)
}

func TestScoreHeadlines(t *testing.T) {
	res := ScoreHeadlines([]core.NewsHeadline{
		{Title: "Strong rally", Summary: "buyers return"},
		{Title: "Weak breadth", Summary: ""},
	})
	assert.Equal(t, 2, res.ItemCount)
	assert.InDelta(t, 0, res.Score, 1e-9)
	// Mean absolute deviation of {100, -100} is 100.
	assert.InDelta(t, 0, res.Confidence, 1e-9)

	empty := ScoreHeadlines(nil)
	assert.Zero(t, empty.Score)
	assert.Zero(t, empty.Confidence)
}

func TestScorePosts_EngagementWeighting(t *testing.T) {
	res := ScorePosts([]core.SocialPost{
		{Content: "bullish and strong, then weak", Platform: "Twitter", Engagement: 500},
	})
	require.Len(t, res.Items, 1)
	// (2-1)/3*100 = 33.33, amplified by 1.5.
	assert.InDelta(t, 50, res.Score, 1e-9)
	assert.Equal(t, 100.0, res.Confidence)
	assert.Equal(t, "Twitter", res.Items[0].Labels["platform"])

	capped := ScorePosts([]core.SocialPost{{Content: "bullish", Engagement: 5000}})
	assert.Equal(t, 100.0, capped.Score)
}

func TestScoreTables(t *testing.T) {
	mood := ScoreMood(core.MarketMood{Momentum: 25, Volume: 15, Volatility: -10})
	assert.InDelta(t, 11.5, mood.Score, 1e-9)
	assert.Equal(t, 75.0, mood.Confidence)
	assert.Equal(t, 3, mood.ItemCount)

	econ := ScoreEconomy(core.EconomicIndicators{GDPGrowth: 6.5, Inflation: 4.2, InterestRate: 6.5})
	assert.InDelta(t, 8, econ.Score, 1e-9)
	assert.Equal(t, 85.0, econ.Confidence)

	assert.Equal(t, 10.0, GDPScore(6))
	assert.Equal(t, -10.0, GDPScore(4))
	assert.Equal(t, -15.0, InflationScore(7))
	assert.Equal(t, -10.0, InterestRateScore(8.5))

	vix := ScoreVIX(core.VIXReading{Level: 15.5, Change: -0.8})
	assert.InDelta(t, 10, vix.Score, 1e-9)
	assert.Equal(t, "VIX Level: 15.50", vix.Items[0].Text)
	assert.Equal(t, "Normal", vix.Items[0].Labels["vix_regime"])
	assert.InDelta(t, -12.5, VIXScore(31, 2), 1e-9)

	corp := ScoreCorporateActions(nil)
	assert.Zero(t, corp.Score)
	assert.Equal(t, 70.0, corp.Confidence)
	corp = ScoreCorporateActions([]core.CorporateAction{{Kind: "Dividend", Sentiment: 40}, {Kind: "Split", Sentiment: 0}})
	assert.InDelta(t, 20, corp.Score, 1e-9)
	assert.Equal(t, "dividend", corp.Items[0].Keywords[0])
}

func TestVIXRegime(t *testing.T) {
	assert.Equal(t, "Complacency", VIXRegime(11))
	assert.Equal(t, "Normal", VIXRegime(12))
	assert.Equal(t, "Elevated", VIXRegime(20))
	assert.Equal(t, "Panic", VIXRegime(30))
}

func TestDirection(t *testing.T) {
	tests := map[float64]string{
		55:    StronglyBullish,
		20:    Bullish,
		10:    Neutral,
		0:     Neutral,
		-10:   Bearish,
		-20:   StronglyBearish,
		-60.5: StronglyBearish,
	}
	for score, want := range tests {
		assert.Equal(t, want, Direction(score), "score %v", score)
	}
}

func TestDefaultWeightsSumToOne(t *testing.T) {
	var sum float64
	for _, w := range DefaultWeights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestAggregator_DefaultFeeds(t *testing.T) {
	agg := NewAggregator(DefaultSources(sigctx.NewStaticFeeds()), Config{}, nil)
	res := agg.Analyze(context.Background(), "NIFTY")

	require.Len(t, res.Sources, 6)
	assert.InDelta(t, 48.545/0.8775, res.Score, 1e-6)
	assert.Equal(t, StronglyBullish, res.Direction)
	assert.InDelta(t, 46.75, res.Confidence, 1e-9)
	assert.Equal(t, []string{
		"Strong bullish sentiment across multiple indicators",
		"Strongest positive sentiment from NewsHeadlines",
	}, res.Insights)
}

func TestAggregator_AllZeroConfidence(t *testing.T) {
	var sources []Source
	for name, w := range DefaultWeights {
		sources = append(sources, &fakeSource{name: name, weight: w, res: core.SourceResult{Score: 80}})
	}
	res := NewAggregator(sources, Config{}, nil).Analyze(context.Background(), "NIFTY")

	assert.Zero(t, res.Score)
	assert.Equal(t, Neutral, res.Direction)
	assert.Zero(t, res.Confidence)
}

func TestAggregator_CompositeBoundedBySources(t *testing.T) {
	scores := []float64{-40, 10, 35, 60, -5, 20}
	var sources []Source
	i := 0
	for name, w := range DefaultWeights {
		sources = append(sources, &fakeSource{name: name, weight: w, res: core.SourceResult{Score: scores[i], Confidence: 60}})
		i++
	}
	res := NewAggregator(sources, Config{}, nil).Analyze(context.Background(), "NIFTY")

	assert.GreaterOrEqual(t, res.Score, -40.0)
	assert.LessOrEqual(t, res.Score, 60.0)
}

func TestAggregator_FailuresDegradeToZero(t *testing.T) {
	slow := &fakeSource{name: "slow", weight: 0.5, res: core.SourceResult{Score: 90, Confidence: 90}, delay: 200 * time.Millisecond}
	broken := &fakeSource{name: "broken", weight: 0.2, err: errors.New("feed down")}
	panicky := &fakeSource{name: "panicky", weight: 0.1, panics: true}
	good := &fakeSource{name: "good", weight: 0.2, res: core.SourceResult{Score: -30, Confidence: 50}}

	agg := NewAggregator([]Source{slow, broken, panicky, good}, Config{SourceTimeout: 20 * time.Millisecond}, nil)
	var mu sync.Mutex
	var failed []string
	agg.OnSourceFailure(func(name string) {
		mu.Lock()
		failed = append(failed, name)
		mu.Unlock()
	})

	start := time.Now()
	res := agg.Analyze(context.Background(), "NIFTY")
	assert.Less(t, time.Since(start), 150*time.Millisecond)

	assert.InDelta(t, -30, res.Score, 1e-9)
	assert.Equal(t, StronglyBearish, res.Direction)
	for _, name := range []string{"slow", "broken", "panicky"} {
		assert.Zero(t, res.Sources[name].Confidence, name)
		assert.NotEmpty(t, res.Sources[name].Error, name)
	}
	assert.Len(t, failed, 3)
	assert.Equal(t, []string{"Strong bearish sentiment across multiple indicators"}, res.Insights)
}

func TestAggregator_Cache(t *testing.T) {
	src := &fakeSource{name: SourceNews, weight: 1, res: core.SourceResult{Score: 15, Confidence: 80}}
	agg := NewAggregator([]Source{src}, Config{CacheTTL: time.Minute}, nil).WithCache(cache.NewMemoryCache())

	first := agg.Analyze(context.Background(), "nifty")
	second := agg.Analyze(context.Background(), "NIFTY")

	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, Bullish, second.Direction)
}
