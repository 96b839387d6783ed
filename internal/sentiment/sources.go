package sentiment

import (
	"context"
	"fmt"
	"math"
	"strings"

	sigctx "github.com/newthinker/augur/internal/context"
	"github.com/newthinker/augur/internal/core"
)

// Source names, also the keys of SentimentResult.Sources.
const (
	SourceNews      = "NewsHeadlines"
	SourceSocial    = "SocialMedia"
	SourceMarket    = "MarketData"
	SourceEconomic  = "EconomicIndicators"
	SourceVIX       = "VIXSentiment"
	SourceCorporate = "CorporateActions"
)

// Source is one independent sentiment input.
type Source interface {
	Name() string
	Weight() float64
	Analyze(ctx context.Context, symbol string) (core.SourceResult, error)
}

// DefaultWeights are the composite weights per source. They sum to 1.
var DefaultWeights = map[string]float64{
	SourceNews:      0.25,
	SourceSocial:    0.20,
	SourceMarket:    0.20,
	SourceEconomic:  0.15,
	SourceVIX:       0.10,
	SourceCorporate: 0.10,
}

// DefaultSources builds the six standard sources over one feed bundle.
func DefaultSources(feeds sigctx.SentimentFeeds) []Source {
	return []Source{
		&NewsSource{Feed: feeds},
		&SocialSource{Feed: feeds},
		&MarketDataSource{Feed: feeds},
		&EconomicSource{Feed: feeds},
		&VIXSource{Feed: feeds},
		&CorporateSource{Feed: feeds},
	}
}

// NewsSource scores headline text with the lexicon.
type NewsSource struct {
	Feed sigctx.NewsFeed
}

func (s *NewsSource) Name() string    { return SourceNews }
func (s *NewsSource) Weight() float64 { return DefaultWeights[SourceNews] }

func (s *NewsSource) Analyze(ctx context.Context, symbol string) (core.SourceResult, error) {
	headlines, err := s.Feed.GetHeadlines(ctx, symbol)
	if err != nil {
		return core.SourceResult{}, err
	}
	return ScoreHeadlines(headlines), nil
}

// ScoreHeadlines averages the per-headline polarity. Confidence drops with
// the mean absolute deviation of the headline scores.
func ScoreHeadlines(headlines []core.NewsHeadline) core.SourceResult {
	res := core.SourceResult{ItemCount: len(headlines)}
	if len(headlines) == 0 {
		return res
	}

	scores := make([]float64, 0, len(headlines))
	for _, h := range headlines {
		ts := AnalyzeText(h.Title + " " + h.Summary)
		scores = append(scores, ts.Score)
		res.Items = append(res.Items, core.SentimentItem{
			Text:       h.Title,
			Score:      ts.Score,
			Confidence: ts.Confidence,
			Keywords:   ts.Keywords,
		})
	}

	avg := mean(scores)
	var dev float64
	for _, v := range scores {
		dev += math.Abs(v - avg)
	}
	res.Score = avg
	res.Confidence = math.Max(0, 100-dev/float64(len(scores)))
	return res
}

// SocialSource scores posts with the lexicon, amplified by engagement.
type SocialSource struct {
	Feed sigctx.SocialFeed
}

func (s *SocialSource) Name() string    { return SourceSocial }
func (s *SocialSource) Weight() float64 { return DefaultWeights[SourceSocial] }

func (s *SocialSource) Analyze(ctx context.Context, symbol string) (core.SourceResult, error) {
	posts, err := s.Feed.GetSocialPosts(ctx, symbol)
	if err != nil {
		return core.SourceResult{}, err
	}
	return ScorePosts(posts), nil
}

// ScorePosts weights each post score by 1 + engagement/1000, clamped to
// [-100, 100]. Confidence is 100 minus the standard deviation of the scores.
func ScorePosts(posts []core.SocialPost) core.SourceResult {
	res := core.SourceResult{ItemCount: len(posts)}
	if len(posts) == 0 {
		return res
	}

	scores := make([]float64, 0, len(posts))
	for _, p := range posts {
		ts := AnalyzeText(p.Content)
		weighted := core.Clamp(ts.Score*(1+float64(p.Engagement)/1000), -100, 100)
		scores = append(scores, weighted)
		res.Items = append(res.Items, core.SentimentItem{
			Text:       p.Content,
			Score:      weighted,
			Confidence: ts.Confidence,
			Keywords:   ts.Keywords,
			Metrics:    map[string]float64{"engagement": float64(p.Engagement)},
			Labels:     map[string]string{"platform": p.Platform, "author": p.Author},
		})
	}

	res.Score = mean(scores)
	res.Confidence = math.Max(0, 100-stddev(scores))
	return res
}

// MarketDataSource blends momentum, volume and volatility mood sub-scores.
type MarketDataSource struct {
	Feed sigctx.MarketMoodFeed
}

func (s *MarketDataSource) Name() string    { return SourceMarket }
func (s *MarketDataSource) Weight() float64 { return DefaultWeights[SourceMarket] }

func (s *MarketDataSource) Analyze(ctx context.Context, symbol string) (core.SourceResult, error) {
	mood, err := s.Feed.GetMarketMood(ctx, symbol)
	if err != nil {
		return core.SourceResult{}, err
	}
	return ScoreMood(mood), nil
}

// ScoreMood weights momentum 40%, volume 30% and volatility 30%.
func ScoreMood(m core.MarketMood) core.SourceResult {
	items := []core.SentimentItem{
		{Text: "Price Momentum", Score: m.Momentum, Confidence: 80, Keywords: []string{"momentum", "price", "trend"}},
		{Text: "Volume Analysis", Score: m.Volume, Confidence: 70, Keywords: []string{"volume", "liquidity", "participation"}},
		{Text: "Volatility Analysis", Score: m.Volatility, Confidence: 75, Keywords: []string{"volatility", "risk", "uncertainty"}},
	}
	return core.SourceResult{
		Score:      core.Clamp(m.Momentum*0.4+m.Volume*0.3+m.Volatility*0.3, -100, 100),
		Confidence: 75,
		ItemCount:  len(items),
		Items:      items,
	}
}

// EconomicSource maps macro levels through threshold tables.
type EconomicSource struct {
	Feed sigctx.EconomicFeed
}

func (s *EconomicSource) Name() string    { return SourceEconomic }
func (s *EconomicSource) Weight() float64 { return DefaultWeights[SourceEconomic] }

func (s *EconomicSource) Analyze(ctx context.Context, symbol string) (core.SourceResult, error) {
	ind, err := s.Feed.GetEconomicIndicators(ctx)
	if err != nil {
		return core.SourceResult{}, err
	}
	return ScoreEconomy(ind), nil
}

// threshold maps a value to the score of the first band it falls below.
type threshold struct {
	below float64
	score float64
}

var (
	inflationBands = []threshold{{4, 10}, {6, 0}, {math.Inf(1), -15}}
	rateBands      = []threshold{{7, 5}, {8, 0}, {math.Inf(1), -10}}
	vixLevelBands  = []threshold{{15, 20}, {20, 10}, {25, 0}, {math.Inf(1), -15}}
)

func band(v float64, bands []threshold) float64 {
	for _, b := range bands {
		if v < b.below {
			return b.score
		}
	}
	return bands[len(bands)-1].score
}

// GDPScore is 20 above 6% growth, 10 above 4%, else -10.
func GDPScore(gdp float64) float64 {
	if gdp > 6 {
		return 20
	}
	if gdp > 4 {
		return 10
	}
	return -10
}

// InflationScore is 10 below 4%, 0 below 6%, else -15.
func InflationScore(inflation float64) float64 { return band(inflation, inflationBands) }

// InterestRateScore is 5 below 7%, 0 below 8%, else -10.
func InterestRateScore(rate float64) float64 { return band(rate, rateBands) }

// ScoreEconomy weights GDP 30%, inflation 30% and rates 40%.
func ScoreEconomy(ind core.EconomicIndicators) core.SourceResult {
	gdp := GDPScore(ind.GDPGrowth)
	infl := InflationScore(ind.Inflation)
	rates := InterestRateScore(ind.InterestRate)
	items := []core.SentimentItem{
		{Text: "GDP Growth", Score: gdp, Confidence: 90, Keywords: []string{"gdp", "growth", "economy"},
			Metrics: map[string]float64{"level": ind.GDPGrowth}},
		{Text: "Inflation Rate", Score: infl, Confidence: 85, Keywords: []string{"inflation", "cpi", "prices"},
			Metrics: map[string]float64{"level": ind.Inflation}},
		{Text: "Interest Rates", Score: rates, Confidence: 95, Keywords: []string{"rates", "rbi", "monetary"},
			Metrics: map[string]float64{"level": ind.InterestRate}},
	}
	return core.SourceResult{
		Score:      gdp*0.3 + infl*0.3 + rates*0.4,
		Confidence: 85,
		ItemCount:  len(items),
		Items:      items,
	}
}

// VIXSource scores the volatility index level and its daily change.
type VIXSource struct {
	Feed sigctx.VIXFeed
}

func (s *VIXSource) Name() string    { return SourceVIX }
func (s *VIXSource) Weight() float64 { return DefaultWeights[SourceVIX] }

func (s *VIXSource) Analyze(ctx context.Context, symbol string) (core.SourceResult, error) {
	v, err := s.Feed.GetVIX(ctx)
	if err != nil {
		return core.SourceResult{}, err
	}
	return ScoreVIX(v), nil
}

// VIXScore averages the level band score with +10 for a falling index and
// -10 for a rising one.
func VIXScore(level, change float64) float64 {
	var changeScore float64
	switch {
	case change < 0:
		changeScore = 10
	case change > 0:
		changeScore = -10
	}
	return (band(level, vixLevelBands) + changeScore) / 2
}

// VIXRegime labels the fear regime implied by the index level.
func VIXRegime(level float64) string {
	switch {
	case level < 12:
		return "Complacency"
	case level < 20:
		return "Normal"
	case level < 30:
		return "Elevated"
	default:
		return "Panic"
	}
}

// ScoreVIX returns a single-item result for the reading.
func ScoreVIX(v core.VIXReading) core.SourceResult {
	score := VIXScore(v.Level, v.Change)
	return core.SourceResult{
		Score:      score,
		Confidence: 80,
		ItemCount:  1,
		Items: []core.SentimentItem{{
			Text:       fmt.Sprintf("VIX Level: %.2f", v.Level),
			Score:      score,
			Confidence: 80,
			Keywords:   []string{"vix", "volatility", "fear", "uncertainty"},
			Metrics:    map[string]float64{"vix_level": v.Level, "vix_change": v.Change},
			Labels:     map[string]string{"vix_regime": VIXRegime(v.Level)},
		}},
	}
}

// CorporateSource averages the sentiment of pending corporate actions.
type CorporateSource struct {
	Feed sigctx.CorporateActionFeed
}

func (s *CorporateSource) Name() string    { return SourceCorporate }
func (s *CorporateSource) Weight() float64 { return DefaultWeights[SourceCorporate] }

func (s *CorporateSource) Analyze(ctx context.Context, symbol string) (core.SourceResult, error) {
	actions, err := s.Feed.GetCorporateActions(ctx, symbol)
	if err != nil {
		return core.SourceResult{}, err
	}
	return ScoreCorporateActions(actions), nil
}

// ScoreCorporateActions averages each action's sentiment. An empty list
// scores 0 with the source's usual confidence.
func ScoreCorporateActions(actions []core.CorporateAction) core.SourceResult {
	res := core.SourceResult{Confidence: 70, ItemCount: len(actions)}
	if len(actions) == 0 {
		return res
	}
	var sum float64
	for _, a := range actions {
		s := core.Clamp(a.Sentiment, -100, 100)
		sum += s
		res.Items = append(res.Items, core.SentimentItem{
			Text:       a.Kind + ": " + a.Description,
			Score:      s,
			Confidence: 70,
			Keywords:   []string{strings.ToLower(a.Kind), "corporate", "action"},
		})
	}
	res.Score = sum / float64(len(actions))
	return res
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func stddev(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	m := mean(vals)
	var sq float64
	for _, v := range vals {
		sq += (v - m) * (v - m)
	}
	return math.Sqrt(sq / float64(len(vals)))
}
