package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/newthinker/augur/internal/cache"
	"github.com/newthinker/augur/internal/collector"
	"github.com/newthinker/augur/internal/collector/yahoo"
	"github.com/newthinker/augur/internal/config"
	sigctx "github.com/newthinker/augur/internal/context"
	"github.com/newthinker/augur/internal/core"
	"github.com/newthinker/augur/internal/decision"
	"github.com/newthinker/augur/internal/features"
	"github.com/newthinker/augur/internal/health"
	"github.com/newthinker/augur/internal/llm/factory"
	"github.com/newthinker/augur/internal/metrics"
	"github.com/newthinker/augur/internal/notifier"
	"github.com/newthinker/augur/internal/notifier/kafka"
	"github.com/newthinker/augur/internal/notifier/telegram"
	"github.com/newthinker/augur/internal/notifier/webhook"
	"github.com/newthinker/augur/internal/pattern"
	"github.com/newthinker/augur/internal/router"
	"github.com/newthinker/augur/internal/sentiment"
	"github.com/newthinker/augur/internal/storage/archive"
	signalstore "github.com/newthinker/augur/internal/storage/signal"
	"github.com/newthinker/augur/internal/storage/tradelog"
	"github.com/newthinker/augur/internal/validation"
	"github.com/newthinker/augur/internal/weighting"
	"go.uber.org/zap"
)

// cooldownSweep is how often expired routing cooldowns are dropped.
const cooldownSweep = 5 * time.Minute

// App is the main application orchestrator
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	pipeline  *Pipeline
	notifiers *notifier.Registry
	router    *router.Router
	metrics   *metrics.Registry
	cache     cache.Cache
	market    *sigctx.StoreMarketData
	feeds     *sigctx.StoreFeeds
	poller    *collector.Poller
	health    *health.Evaluator
	closers   []func() error

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
}

// New wires every component from cfg. Connections to Redis and Postgres
// are opened here, so ctx bounds start-up.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{cfg: cfg, logger: logger}

	if cfg.Metrics.Enabled {
		a.metrics = metrics.NewRegistry()
	}

	store, err := a.openCache(ctx)
	if err != nil {
		return nil, err
	}
	a.cache = store
	a.closers = append(a.closers, store.Close)

	trades, err := a.openTradeLog(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, func() error { trades.Close(); return nil })

	weekday, _ := config.ParseWeekday(cfg.Features.ExpiryWeekday)
	cutoff, _ := config.ParseClock(cfg.Features.ExpiryCutoff)
	loc := cfg.Features.Location()
	extractor := features.NewExtractor(features.Config{
		ExpiryWeekday: weekday,
		ExpiryCutoff:  cutoff,
		Location:      loc,
	})

	open, _ := config.ParseClock(cfg.Weighting.SessionOpen)
	closing, _ := config.ParseClock(cfg.Weighting.SessionClose)
	session := sigctx.Session{Open: open, Close: closing, Location: loc}

	a.market = sigctx.NewStoreMarketData(store, sigctx.NewStaticMarketData(), 0, 0)
	a.feeds = sigctx.NewStoreFeeds(store, sigctx.NewStaticFeeds(), 0)

	if cfg.Collector.Enabled {
		if err := a.buildCollector(); err != nil {
			a.Close()
			return nil, err
		}
	}

	agg := sentiment.NewAggregator(sentiment.DefaultSources(a.feeds), sentiment.Config{
		SourceTimeout: cfg.Sentiment.SourceTimeout,
		CacheTTL:      cfg.Sentiment.CacheTTL,
	}, logger.Named("sentiment")).WithCache(store)
	agg.OnSourceFailure(a.metrics.RecordSourceFailure)

	wcfg := weighting.DefaultConfig()
	wcfg.Session = session
	wcfg.FetchTimeout = cfg.Pipeline.FetchTimeout
	if cfg.Weighting.Shards > 0 {
		wcfg.Shards = cfg.Weighting.Shards
	}
	if cfg.Weighting.HistoryLimit > 0 {
		wcfg.HistoryLimit = cfg.Weighting.HistoryLimit
	}

	provider, err := factory.New(cfg.LLM)
	if err != nil {
		a.Close()
		return nil, err
	}
	synth := decision.NewSynthesizer(provider, logger.Named("decision"), decision.SynthesizerConfig{
		CommentaryTimeout: cfg.LLM.Timeout,
	})

	var reports *archive.Reports
	if cfg.Storage.Archive.Enabled {
		backend, err := archive.New(cfg.Storage.Archive)
		if err != nil {
			a.Close()
			return nil, err
		}
		reports = archive.NewReports(backend)
	}

	a.notifiers = notifier.NewRegistry()
	if err := a.registerNotifiers(); err != nil {
		a.Close()
		return nil, err
	}

	routerCfg := router.DefaultConfig()
	routerCfg.MinConfidence = cfg.Router.MinConfidence
	routerCfg.CooldownDuration = time.Duration(cfg.Router.CooldownMinutes) * time.Minute
	a.router = router.New(routerCfg, a.notifiers, logger.Named("router"))
	a.router.SetMetrics(a.metrics)

	a.pipeline = NewPipeline(Deps{
		Market:      a.market,
		Session:     &session,
		Extractor:   extractor,
		Scorer:      validation.NewScorer(validation.StaticMarketCondition(cfg.Validation.MarketConditionScore), logger.Named("validation")),
		Patterns:    pattern.NewDefaultEngine(logger.Named("patterns")),
		Sentiment:   agg,
		Weighter:    weighting.NewWeighter(trades, wcfg, logger.Named("weighting")),
		Synthesizer: synth,
		TradeLog:    trades,
		Summaries:   signalstore.NewMemoryStore(cfg.Pipeline.RecentSignals),
		Reports:     reports,
		Router:      a.router,
		Metrics:     a.metrics,
		TrainerConfig: validation.TrainerConfig{
			MinSamples: cfg.Validation.MinTrainingSamples,
			Tolerance:  cfg.Validation.PairingTolerance,
		},
	}, Config{
		Symbol:         cfg.Pipeline.Symbol,
		CandleLookback: cfg.Pipeline.CandleLookback,
		FetchTimeout:   cfg.Pipeline.FetchTimeout,
		RecentSignals:  cfg.Pipeline.RecentSignals,
	}, logger)

	if cfg.Alerts.Enabled {
		a.buildHealth()
	}

	providerName := "none"
	if provider != nil {
		providerName = provider.Name()
	}
	logger.Info("pipeline ready",
		zap.String("symbol", a.pipeline.Symbol()),
		zap.String("trade_log", cfg.Storage.TradeLog.Type),
		zap.Bool("redis", cfg.Cache.Enabled),
		zap.Bool("archive", reports != nil),
		zap.Bool("collector", a.poller != nil),
		zap.Bool("health_alerts", a.health != nil),
		zap.String("llm", providerName),
		zap.Int("notifiers", a.notifiers.Len()),
	)
	return a, nil
}

func (a *App) openCache(ctx context.Context) (cache.Cache, error) {
	if !a.cfg.Cache.Enabled {
		return cache.NewMemoryCache(), nil
	}
	c, err := cache.NewRedisCache(ctx, cache.RedisConfig{
		Addr:     a.cfg.Cache.Addr,
		Password: a.cfg.Cache.Password,
		DB:       a.cfg.Cache.DB,
		Prefix:   a.cfg.Cache.Prefix,
	})
	if err != nil {
		return nil, core.WrapError(core.ErrDataUnavailable, err)
	}
	return c, nil
}

func (a *App) openTradeLog(ctx context.Context) (tradelog.Store, error) {
	switch a.cfg.Storage.TradeLog.Type {
	case "postgres":
		store, err := tradelog.NewPostgresStore(ctx, a.cfg.Storage.TradeLog.DSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "", "memory":
		return tradelog.NewMemoryStore(0), nil
	default:
		return nil, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown trade_log type %q", a.cfg.Storage.TradeLog.Type))
	}
}

// buildCollector builds the market data poller that feeds a.market.
func (a *App) buildCollector() error {
	sources := collector.NewRegistry()
	sources.Register(yahoo.New())

	cc := a.cfg.Collector
	src, ok := sources.Get(cc.Provider)
	if !ok {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown collector provider %q", cc.Provider))
	}
	if err := src.Init(collector.Config{Timeout: a.cfg.Pipeline.FetchTimeout}); err != nil {
		return core.WrapError(core.ErrConfigInvalid, err)
	}

	a.poller = collector.NewPoller(src, a.market, collector.PollerConfig{
		Symbols:      cc.Symbols,
		Interval:     cc.Interval,
		PollInterval: cc.PollInterval,
		Lookback:     cc.Lookback,
		VIX:          cc.VIX,
	}, a.logger.Named("collector"))
	a.poller.SetMetrics(a.metrics)
	return nil
}

// buildHealth sends health alerts to every registered notifier that can
// deliver plain text.
func (a *App) buildHealth() {
	var targets []health.Notifier
	for _, n := range a.notifiers.GetAll() {
		if hn, ok := n.(health.Notifier); ok {
			targets = append(targets, hn)
		}
	}
	a.health = health.NewEvaluator(targets, a.logger.Named("health"))
	if a.cfg.Alerts.Cooldown > 0 {
		a.health.SetCooldown(a.cfg.Alerts.Cooldown)
	}
}

// CheckHealth evaluates the health rules against the current pipeline
// metrics and returns how many fired.
func (a *App) CheckHealth(ctx context.Context) int {
	if a.health == nil {
		return 0
	}
	a.health.SetMetrics(a.pipeline.Health(ctx))
	return a.health.EvaluateAll(ctx, a.cfg.Alerts.Rules)
}

// registerNotifiers builds every enabled notifier from the config map.
func (a *App) registerNotifiers() error {
	for name, nc := range a.cfg.Notifiers {
		if !nc.Enabled {
			continue
		}

		var n notifier.Notifier
		switch name {
		case "webhook":
			n = webhook.New(nc.URL, nc.Headers)
		case "telegram":
			n = telegram.New(nc.BotToken, nc.ChatID)
		case "kafka":
			k := kafka.New(nc.Brokers, nc.Topic)
			a.closers = append(a.closers, k.Close)
			n = k
		default:
			a.logger.Warn("unknown notifier ignored", zap.String("notifier", name))
			continue
		}

		if err := n.Init(notifier.Config{Type: name}); err != nil {
			return core.WrapError(core.ErrConfigInvalid, err)
		}
		if err := a.notifiers.Register(n); err != nil {
			return err
		}
	}
	return nil
}

// Pipeline returns the signal pipeline.
func (a *App) Pipeline() *Pipeline { return a.pipeline }

// Metrics returns the metrics registry, nil when metrics are disabled.
func (a *App) Metrics() *metrics.Registry { return a.metrics }

// MarketData returns the cache-backed market data so feeds can publish.
func (a *App) MarketData() *sigctx.StoreMarketData { return a.market }

// SentimentFeeds returns the cache-backed sentiment feeds.
func (a *App) SentimentFeeds() *sigctx.StoreFeeds { return a.feeds }

// Start runs the background work until ctx is cancelled. Cooldown cleanup
// and the periodic training run always happen; market data collection and
// health alerts only when enabled.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("app already running")
	}
	a.running = true

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.mu.Unlock()

	a.router.StartCleanupRoutine(ctx, cooldownSweep)
	if a.poller != nil {
		go a.poller.Run(ctx)
	}

	interval := a.cfg.Pipeline.TrainInterval
	a.logger.Info("AUGUR starting", zap.Duration("train_interval", interval))

	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	var healthTick <-chan time.Time
	if a.health != nil {
		every := a.cfg.Alerts.Interval
		if every <= 0 {
			every = time.Minute
		}
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		healthTick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("AUGUR shutting down")
			a.mu.Lock()
			a.running = false
			a.mu.Unlock()
			return ctx.Err()
		case <-tick:
			a.RunTraining(ctx)
		case <-healthTick:
			a.CheckHealth(ctx)
		}
	}
}

// RunTraining trains over the configured window ending now. Insufficient
// data is logged and otherwise ignored.
func (a *App) RunTraining(ctx context.Context) {
	window := a.cfg.Pipeline.TrainWindow
	if window <= 0 {
		window = 30 * 24 * time.Hour
	}
	to := a.pipeline.now()
	result, err := a.pipeline.TrainModels(ctx, to.Add(-window), to)
	if err != nil {
		a.logger.Warn("scheduled training skipped",
			zap.String("stage", "training"),
			zap.Int("samples", result.TotalSamples),
			zap.Error(err),
		)
		return
	}
	a.logger.Info("scheduled training completed",
		zap.Int("samples", result.TotalSamples),
		zap.Time("last_trained", a.pipeline.lastTrained()),
	)
}

// Stop stops the background loop
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
}

// Close releases connections in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", zap.Error(err))
		}
	}
	a.closers = nil
}

// GetStats returns application statistics
func (a *App) GetStats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	names := []string{}
	for _, n := range a.notifiers.GetAll() {
		names = append(names, n.Name())
	}
	return map[string]any{
		"running":   a.running,
		"symbol":    a.pipeline.Symbol(),
		"notifiers": names,
		"router":    a.router.GetStats(),
		"collector": a.poller != nil,
		"health":    a.health != nil,
	}
}
