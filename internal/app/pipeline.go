package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	sigctx "github.com/newthinker/augur/internal/context"
	"github.com/newthinker/augur/internal/core"
	"github.com/newthinker/augur/internal/decision"
	"github.com/newthinker/augur/internal/features"
	"github.com/newthinker/augur/internal/metrics"
	"github.com/newthinker/augur/internal/pattern"
	"github.com/newthinker/augur/internal/router"
	"github.com/newthinker/augur/internal/sentiment"
	"github.com/newthinker/augur/internal/storage/archive"
	signalstore "github.com/newthinker/augur/internal/storage/signal"
	"github.com/newthinker/augur/internal/storage/tradelog"
	"github.com/newthinker/augur/internal/validation"
	"github.com/newthinker/augur/internal/weighting"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Stage names used in logs and metrics.
const (
	StageFeatures   = "features"
	StageValidation = "validation"
	StagePatterns   = "patterns"
	StageSentiment  = "sentiment"
	StageWeighting  = "weighting"
	StageDecision   = "decision"
	StageArchive    = "archive"
	StageStorage    = "storage"
)

// Degraded signal values returned when orchestration itself fails.
const (
	DegradedConfidence = 20.0
	DegradedRecommend  = core.RecommendCaution
)

// routeTimeout bounds notification delivery, which runs after the response
// has been returned.
const routeTimeout = 10 * time.Second

// Config bounds the per-alert work.
type Config struct {
	Symbol         string
	CandleLookback int
	FetchTimeout   time.Duration
	RecentSignals  int
}

// DefaultConfig returns the NIFTY defaults.
func DefaultConfig() Config {
	return Config{
		Symbol:         core.DefaultSymbol,
		CandleLookback: 50,
		FetchTimeout:   3 * time.Second,
		RecentSignals:  50,
	}
}

// Deps are the collaborators of the pipeline. Nil fields fall back to
// in-memory or static implementations.
type Deps struct {
	Market      sigctx.MarketDataProvider
	Session     *sigctx.Session
	Extractor   *features.Extractor
	Scorer      *validation.Scorer
	Patterns    *pattern.Engine
	Sentiment   *sentiment.Aggregator
	Weighter    *weighting.Weighter
	Synthesizer *decision.Synthesizer
	TradeLog    tradelog.Store
	Summaries   signalstore.Store
	Reports     *archive.Reports
	Router      *router.Router
	Metrics     *metrics.Registry

	TrainerConfig validation.TrainerConfig
}

// Pipeline scores alerts and turns them into trading decisions.
type Pipeline struct {
	cfg    Config
	logger *zap.Logger
	now    func() time.Time

	market    sigctx.MarketDataProvider
	history   *sigctx.TrackRecord
	marketCtx *sigctx.MarketContextService
	extractor *features.Extractor
	scorer    *validation.Scorer
	patterns  *pattern.Engine
	sentiment *sentiment.Aggregator
	weighter  *weighting.Weighter
	synth     *decision.Synthesizer
	trainer   *validation.Trainer
	trades    tradelog.Store
	summaries signalstore.Store
	reports   *archive.Reports
	router    *router.Router
	metrics   *metrics.Registry

	processed    atomic.Int64
	degradedSigs atomic.Int64
	stageErrors  atomic.Int64
}

// NewPipeline wires a pipeline from deps.
func NewPipeline(deps Deps, cfg Config, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultConfig()
	if cfg.Symbol == "" {
		cfg.Symbol = def.Symbol
	}
	if cfg.CandleLookback <= 0 {
		cfg.CandleLookback = def.CandleLookback
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = def.FetchTimeout
	}
	if cfg.RecentSignals <= 0 {
		cfg.RecentSignals = def.RecentSignals
	}

	if deps.Market == nil {
		deps.Market = sigctx.NewStaticMarketData()
	}
	session := sigctx.DefaultSession()
	if deps.Session != nil {
		session = *deps.Session
	}
	if deps.Extractor == nil {
		fcfg := features.DefaultConfig()
		fcfg.Location = session.Location
		deps.Extractor = features.NewExtractor(fcfg)
	}
	if deps.Scorer == nil {
		deps.Scorer = validation.NewScorer(nil, logger.Named("validation"))
	}
	if deps.Patterns == nil {
		deps.Patterns = pattern.NewDefaultEngine(logger.Named("patterns"))
	}
	if deps.Sentiment == nil {
		deps.Sentiment = sentiment.NewAggregator(
			sentiment.DefaultSources(sigctx.NewStaticFeeds()), sentiment.Config{}, logger.Named("sentiment"))
	}
	if deps.TradeLog == nil {
		deps.TradeLog = tradelog.NewMemoryStore(0)
	}
	if deps.Weighter == nil {
		wcfg := weighting.DefaultConfig()
		wcfg.Session = session
		deps.Weighter = weighting.NewWeighter(deps.TradeLog, wcfg, logger.Named("weighting"))
	}
	if deps.Synthesizer == nil {
		deps.Synthesizer = decision.NewSynthesizer(nil, logger.Named("decision"), decision.SynthesizerConfig{})
	}
	if deps.Summaries == nil {
		deps.Summaries = signalstore.NewMemoryStore(cfg.RecentSignals)
	}

	return &Pipeline{
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		market:    deps.Market,
		history:   sigctx.NewTrackRecord(deps.TradeLog),
		marketCtx: sigctx.NewMarketContextService(session),
		extractor: deps.Extractor,
		scorer:    deps.Scorer,
		patterns:  deps.Patterns,
		sentiment: deps.Sentiment,
		weighter:  deps.Weighter,
		synth:     deps.Synthesizer,
		trainer: validation.NewTrainer(deps.TradeLog, deps.TradeLog, deps.Extractor,
			deps.TrainerConfig, logger.Named("trainer")),
		trades:    deps.TradeLog,
		summaries: deps.Summaries,
		reports:   deps.Reports,
		router:    deps.Router,
		metrics:   deps.Metrics,
	}
}

// Symbol returns the default underlying.
func (p *Pipeline) Symbol() string { return p.cfg.Symbol }

// ProcessSignal runs an alert through every stage. It never fails: when the
// orchestration breaks the response carries a degraded signal instead.
func (p *Pipeline) ProcessSignal(ctx context.Context, alert core.Alert) (resp *core.SignalResponse) {
	started := p.now()
	if alert.Timestamp.IsZero() {
		alert.Timestamp = started
	}
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}

	stage := StageValidation
	counted := false
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err := core.WrapError(core.ErrPipelineFailed, fmt.Errorf("panic: %v", r))
		p.logger.Error("signal pipeline failed",
			zap.String("stage", stage),
			zap.String("signal_id", alert.Signal),
			zap.Error(err),
		)
		p.metrics.RecordDegradation(stage)
		p.degradedSigs.Add(1)
		if !counted {
			p.processed.Add(1)
		}
		resp = p.degradedResponse(alert, started, err)
	}()

	resp = &core.SignalResponse{StartedAt: started, Alert: alert}

	var (
		sig      *core.EnhancedSignal
		patterns []core.DetectedPattern
		mood     *core.SentimentResult
	)

	// Only validation reports an error; patterns and sentiment degrade on
	// their own and keep running when it fails.
	var g errgroup.Group
	g.Go(func() error {
		var err error
		sig, err = p.validate(ctx, alert)
		return err
	})
	g.Go(func() error {
		patterns = p.detectPatterns(ctx, alert.Symbol())
		return nil
	})
	g.Go(func() error {
		mood = p.analyzeSentiment(ctx, alert.Symbol())
		return nil
	})

	if err := g.Wait(); err != nil {
		p.logger.Error("signal pipeline failed",
			zap.String("stage", StageValidation),
			zap.String("signal_id", alert.Signal),
			zap.Error(err),
		)
		p.metrics.RecordDegradation(StageValidation)
		p.degradedSigs.Add(1)
		sig = degradedSignal(alert, started, err)
	}
	if mood == nil {
		mood = p.neutralSentiment(alert.Symbol())
	}

	sig.Patterns = patterns
	sig.SentimentScore = mood.Score
	sig.Scores.Pattern = core.Clamp(decision.PatternConfirmation(patterns)*100, 0, 100)
	sig.Scores.Sentiment = mood.Score

	stage = StageWeighting
	stageStart := p.now()
	weight := p.weighter.Weigh(ctx, sig)
	sig.AdaptiveWeight = weight.AdaptiveWeight
	p.metrics.ObserveStage(StageWeighting, p.now().Sub(stageStart))

	stage = StageDecision
	stageStart = p.now()
	d, report := p.synth.Synthesize(ctx, sig, mood, weight)
	p.metrics.ObserveStage(StageDecision, p.now().Sub(stageStart))

	resp.Signal = sig
	resp.Sentiment = mood
	resp.Weighting = weight
	resp.Decision = d
	resp.Report = report
	resp.FinishedAt = p.now()
	resp.ProcessingTime = resp.FinishedAt.Sub(started)
	sig.ProcessingTime = resp.ProcessingTime

	p.persist(ctx, resp)
	p.processed.Add(1)
	counted = true
	p.metrics.RecordDecision(string(d.Decision), d.Confidence, weight.AdaptiveWeight)

	p.logger.Info("signal processed",
		zap.String("id", sig.ID),
		zap.String("signal_id", sig.SignalID),
		zap.String("decision", string(d.Decision)),
		zap.Float64("confidence", d.Confidence),
		zap.Float64("adaptive_weight", weight.AdaptiveWeight),
		zap.Int("patterns", len(patterns)),
		zap.Duration("duration", resp.ProcessingTime),
	)
	return resp
}

// validate builds features and scores them. A panic anywhere in here is
// returned as ErrPipelineFailed.
func (p *Pipeline) validate(ctx context.Context, alert core.Alert) (sig *core.EnhancedSignal, err error) {
	start := p.now()
	defer func() {
		if r := recover(); r != nil {
			sig = nil
			err = core.WrapError(core.ErrPipelineFailed, fmt.Errorf("panic: %v", r))
		}
		p.metrics.ObserveStage(StageValidation, p.now().Sub(start))
	}()

	if err := alert.Validate(); err != nil {
		return nil, err
	}

	symbol := alert.Symbol()
	snap := p.fetchSnapshot(ctx, symbol)
	ind := p.fetchIndicators(ctx, symbol)
	stats := p.fetchStats(ctx, alert.Signal)

	f := p.extractor.Extract(alert, snap, ind, stats)
	res := p.scorer.Score(f)

	sig = &core.EnhancedSignal{
		ID:              uuid.NewString(),
		Alert:           alert,
		Timestamp:       start,
		SignalID:        alert.Signal,
		ConfidenceScore: res.Confidence,
		Recommendation:  res.Recommendation,
		Scores:          res.Scores,
		Features:        f,
		MarketContext:   p.marketCtx.Build(snap, f.MarketRegime, alert.Timestamp),
		Performance:     p.fetchPerformance(ctx, alert.Signal),
		AdaptiveWeight:  weighting.BaseWeight,
		Validated:       res.Validated,
		Risk:            res.Risk,
	}
	return sig, nil
}

// degradedResponse is the neutral HOLD answer for an alert whose
// orchestration panicked. It is built without calling any stage.
func (p *Pipeline) degradedResponse(alert core.Alert, started time.Time, cause error) *core.SignalResponse {
	finished := p.now()
	sig := degradedSignal(alert, started, cause)
	sig.ProcessingTime = finished.Sub(started)
	return &core.SignalResponse{
		StartedAt:      started,
		FinishedAt:     finished,
		ProcessingTime: sig.ProcessingTime,
		Alert:          alert,
		Signal:         sig,
		Sentiment:      p.neutralSentiment(alert.Symbol()),
		Weighting: &core.WeightResult{
			SignalID:       alert.Signal,
			Timestamp:      finished,
			BaseWeight:     weighting.BaseWeight,
			AdaptiveWeight: weighting.BaseWeight,
			Components:     map[string]float64{},
			Reasoning:      "Neutral weighting across all factors",
		},
		Decision: &core.TradingDecision{
			Timestamp:             finished,
			SignalID:              alert.Signal,
			Decision:              core.DecisionHold,
			Confidence:            DegradedConfidence,
			SuggestedPositionSize: 0,
			RiskLevel:             core.RiskHigh,
			Factors:               []core.DecisionFactor{},
		},
		Report: &core.Report{
			GeneratedAt:        finished,
			SignalID:           alert.Signal,
			OverallAssessment:  "Signal could not be evaluated; holding until the pipeline recovers",
			KeyStrengths:       []string{},
			KeyWeaknesses:      []string{"Signal processing failed: " + cause.Error()},
			Recommendations:    []string{"Suggested action: " + string(core.DecisionHold)},
			RiskConsiderations: []string{},
			MarketContext:      []string{},
			Technical:          []string{},
			Timeframe:          []string{"Wait for better timing or higher confidence"},
		},
	}
}

func degradedSignal(alert core.Alert, at time.Time, cause error) *core.EnhancedSignal {
	return &core.EnhancedSignal{
		ID:              uuid.NewString(),
		Alert:           alert,
		Timestamp:       at,
		SignalID:        alert.Signal,
		ConfidenceScore: DegradedConfidence,
		Recommendation:  DegradedRecommend,
		Scores: core.ValidationScores{
			Quality:         validation.NeutralScore,
			Outcome:         validation.NeutralScore,
			MarketCondition: validation.NeutralScore,
			Timing:          validation.NeutralScore,
			Risk:            validation.NeutralScore,
		},
		AdaptiveWeight: weighting.BaseWeight,
		Risk: core.RiskAssessment{
			OverallRiskScore: validation.NeutralScore,
			RiskLevel:        core.RiskHigh,
		},
		Error: cause.Error(),
	}
}

func (p *Pipeline) fetchSnapshot(ctx context.Context, symbol string) *core.MarketSnapshot {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.FetchTimeout)
	defer cancel()
	snap, err := p.market.GetMarketSnapshot(ctx, symbol)
	if err != nil {
		p.degraded(StageFeatures, "market snapshot unavailable", symbol, err)
		return nil
	}
	return &snap
}

func (p *Pipeline) fetchIndicators(ctx context.Context, symbol string) *core.TechnicalIndicators {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.FetchTimeout)
	defer cancel()
	ind, err := p.market.GetTechnicalIndicators(ctx, symbol)
	if err != nil {
		p.degraded(StageFeatures, "technical indicators unavailable", symbol, err)
		return nil
	}
	return &ind
}

func (p *Pipeline) fetchStats(ctx context.Context, signalID string) *core.HistoricalStats {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.FetchTimeout)
	defer cancel()
	stats, err := p.history.GetHistoricalStats(ctx, signalID)
	if err != nil {
		p.degraded(StageFeatures, "historical stats unavailable", signalID, err)
		return nil
	}
	return &stats
}

func (p *Pipeline) fetchPerformance(ctx context.Context, signalID string) core.PerformanceContext {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.FetchTimeout)
	defer cancel()
	perf, err := p.history.GetPerformanceContext(ctx, signalID)
	if err != nil {
		p.degraded(StageFeatures, "performance context unavailable", signalID, err)
		return core.PerformanceContext{}
	}
	return perf
}

func (p *Pipeline) detectPatterns(ctx context.Context, symbol string) (patterns []core.DetectedPattern) {
	start := p.now()
	defer func() {
		if r := recover(); r != nil {
			p.degraded(StagePatterns, "pattern detection failed", symbol,
				core.WrapError(core.ErrComputation, fmt.Errorf("panic: %v", r)))
			patterns = []core.DetectedPattern{}
		}
		p.metrics.ObserveStage(StagePatterns, p.now().Sub(start))
	}()

	fetchCtx, cancel := context.WithTimeout(ctx, p.cfg.FetchTimeout)
	candles, err := p.market.GetRecentCandles(fetchCtx, symbol, p.cfg.CandleLookback)
	cancel()
	if err != nil {
		p.degraded(StagePatterns, "candles unavailable", symbol, err)
		return []core.DetectedPattern{}
	}
	return p.patterns.Detect(ctx, candles)
}

// analyzeSentiment returns nil only when the aggregator panics.
func (p *Pipeline) analyzeSentiment(ctx context.Context, symbol string) (result *core.SentimentResult) {
	start := p.now()
	defer func() {
		if r := recover(); r != nil {
			p.degraded(StageSentiment, "sentiment analysis failed", symbol,
				core.WrapError(core.ErrComputation, fmt.Errorf("panic: %v", r)))
			result = nil
		}
		p.metrics.ObserveStage(StageSentiment, p.now().Sub(start))
	}()
	return p.sentiment.Analyze(ctx, symbol)
}

// persist stores the alert, the summary and the archived report, then
// routes the decision. Failures here never change the response.
func (p *Pipeline) persist(ctx context.Context, resp *core.SignalResponse) {
	defer func() {
		if r := recover(); r != nil {
			p.degraded(StageStorage, "signal persistence failed", resp.Alert.Signal,
				core.WrapError(core.ErrComputation, fmt.Errorf("panic: %v", r)))
		}
	}()

	if err := p.trades.RecordAlert(ctx, resp.Alert); err != nil {
		p.degraded(StageStorage, "alert history write failed", resp.Alert.Signal, err)
	}

	summary := core.SignalSummary{
		ID:              resp.Signal.ID,
		SignalID:        resp.Signal.SignalID,
		Timestamp:       resp.StartedAt,
		ConfidenceScore: resp.Decision.Confidence,
		Decision:        resp.Decision.Decision,
		AdaptiveWeight:  resp.Weighting.AdaptiveWeight,
	}
	if err := p.summaries.Save(ctx, summary); err != nil {
		p.degraded(StageStorage, "signal summary write failed", resp.Signal.SignalID, err)
	}

	if p.reports != nil {
		path, err := p.reports.Save(ctx, resp)
		if err != nil {
			p.degraded(StageArchive, "report archive failed", resp.Signal.SignalID, err)
		} else {
			p.logger.Debug("report archived", zap.String("path", path))
		}
	}

	if p.router != nil {
		go p.route(ctx, resp)
	}
}

// route delivers notifications detached from the request so a slow or
// cancelled caller does not hold up or abort delivery.
func (p *Pipeline) route(ctx context.Context, resp *core.SignalResponse) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), routeTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			p.degraded(StageDecision, "decision routing failed", resp.Alert.Signal,
				core.WrapError(core.ErrComputation, fmt.Errorf("panic: %v", r)))
		}
	}()
	p.router.Route(ctx, resp)
}

func (p *Pipeline) degraded(stage, msg, key string, err error) {
	p.logger.Warn(msg,
		zap.String("stage", stage),
		zap.String("key", key),
		zap.Error(err),
	)
	p.stageErrors.Add(1)
	p.metrics.RecordDegradation(stage)
}

// AnalyzePatterns runs pattern detection only.
func (p *Pipeline) AnalyzePatterns(ctx context.Context, alert core.Alert) *core.PatternAnalysis {
	symbol := alert.Symbol()
	analysis := pattern.Analyze(symbol, p.detectPatterns(ctx, symbol))
	analysis.Timestamp = p.now()
	return &analysis
}

// GetMarketSentiment returns the composite sentiment for symbol, or for the
// default symbol when empty.
func (p *Pipeline) GetMarketSentiment(ctx context.Context, symbol string) *core.SentimentResult {
	if symbol == "" {
		symbol = p.cfg.Symbol
	}
	if result := p.analyzeSentiment(ctx, symbol); result != nil {
		return result
	}
	return p.neutralSentiment(symbol)
}

func (p *Pipeline) neutralSentiment(symbol string) *core.SentimentResult {
	return &core.SentimentResult{
		Symbol:    symbol,
		Timestamp: p.now(),
		Direction: sentiment.Direction(0),
		Sources:   map[string]core.SourceResult{},
		Insights:  []string{},
		Error:     "sentiment unavailable",
	}
}

// TrainModels replays alert history in [from, to] against recorded trades.
func (p *Pipeline) TrainModels(ctx context.Context, from, to time.Time) (*core.TrainingResult, error) {
	result, err := p.trainer.Train(ctx, from, to)
	if err != nil {
		p.metrics.RecordTraining("error")
		return &result, err
	}
	p.metrics.RecordTraining("success")
	return &result, nil
}

// RecentSignals returns the latest processed signal summaries.
func (p *Pipeline) RecentSignals(ctx context.Context, limit int) ([]core.SignalSummary, error) {
	if limit <= 0 {
		limit = p.cfg.RecentSignals
	}
	return p.summaries.List(ctx, signalstore.ListFilter{Limit: limit})
}

// Dashboard combines market sentiment, model performance and recent signals.
func (p *Pipeline) Dashboard(ctx context.Context) (*core.Dashboard, error) {
	recent, err := p.RecentSignals(ctx, 0)
	if err != nil {
		return nil, err
	}
	return &core.Dashboard{
		GeneratedAt:   p.now(),
		Sentiment:     p.GetMarketSentiment(ctx, ""),
		Performance:   p.GetModelPerformance(),
		RecentSignals: recent,
	}, nil
}

// Health returns the metrics the health rules are evaluated against.
// Averages cover the recent signal summaries.
func (p *Pipeline) Health(ctx context.Context) map[string]float64 {
	processed := float64(p.processed.Load())
	degraded := float64(p.degradedSigs.Load())

	h := map[string]float64{
		"signals_processed":   processed,
		"signals_degraded":    degraded,
		"stage_degradations":  float64(p.stageErrors.Load()),
		"degraded_ratio":      0,
		"avg_adaptive_weight": p.weighter.Store().MeanLastWeight(),
	}
	if processed > 0 {
		h["degraded_ratio"] = degraded / processed
	}

	recent, err := p.RecentSignals(ctx, 0)
	if err != nil {
		p.degraded(StageStorage, "recent signals unavailable", "health", err)
		return h
	}
	h["recent_signals"] = float64(len(recent))
	if len(recent) == 0 {
		return h
	}

	var confidence, actionable float64
	for _, s := range recent {
		confidence += s.ConfidenceScore
		if s.Decision.IsActionable() {
			actionable++
		}
	}
	h["avg_confidence"] = confidence / float64(len(recent))
	h["actionable_ratio"] = actionable / float64(len(recent))
	return h
}

// Close releases the trade log.
func (p *Pipeline) Close() {
	p.trades.Close()
}
