package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/newthinker/augur/internal/core"
	"github.com/newthinker/augur/internal/metrics"
)

// VIXSymbol is the volatility index polled alongside the configured indices.
const VIXSymbol = "INDIAVIX"

const maxConcurrentFetches = 4

// MarketSink receives collected data. *context.StoreMarketData satisfies it.
type MarketSink interface {
	PushCandles(ctx context.Context, symbol string, candles ...core.OHLCV) error
	PutVIX(ctx context.Context, vix core.VIXReading) error
}

// PollerConfig controls what is collected and how often.
type PollerConfig struct {
	Symbols      []string
	Interval     string
	PollInterval time.Duration
	Lookback     time.Duration
	VIX          bool
}

// Poller periodically pulls closed candles and the VIX level from a
// Collector and publishes them to a MarketSink. Each candle is published
// once; the bar still forming is held back until it closes.
type Poller struct {
	source  Collector
	sink    MarketSink
	cfg     PollerConfig
	logger  *zap.Logger
	metrics *metrics.Registry
	now     func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

// NewPoller creates a poller. logger may be nil.
func NewPoller(source Collector, sink MarketSink, cfg PollerConfig, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Minute
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = 5 * 24 * time.Hour
	}
	if cfg.Interval == "" {
		cfg.Interval = "15m"
	}
	return &Poller{
		source: source,
		sink:   sink,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		last:   make(map[string]time.Time),
	}
}

// SetMetrics records collection failures as degradations of the
// "collector" stage.
func (p *Poller) SetMetrics(reg *metrics.Registry) {
	p.metrics = reg
}

// Run collects immediately and then on every tick until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("collector started",
		zap.String("source", p.source.Name()),
		zap.Strings("symbols", p.cfg.Symbols),
		zap.Duration("every", p.cfg.PollInterval),
	)

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		p.Collect(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Collect runs one pass over every symbol. Failures are logged per symbol
// and returned joined; the other symbols still publish.
func (p *Poller) Collect(ctx context.Context) error {
	var (
		mu   sync.Mutex
		errs []error
	)
	fail := func(symbol string, err error) {
		p.logger.Warn("market data collection failed",
			zap.String("stage", "collector"),
			zap.String("symbol", symbol),
			zap.Error(err),
		)
		p.metrics.RecordDegradation("collector")
		mu.Lock()
		errs = append(errs, fmt.Errorf("%s: %w", symbol, err))
		mu.Unlock()
	}

	var g errgroup.Group
	g.SetLimit(maxConcurrentFetches)

	for _, symbol := range p.cfg.Symbols {
		symbol := strings.ToUpper(symbol)
		g.Go(func() error {
			if err := p.collectCandles(ctx, symbol); err != nil {
				fail(symbol, err)
			}
			return nil
		})
	}
	if p.cfg.VIX {
		g.Go(func() error {
			if err := p.collectVIX(ctx); err != nil {
				fail(VIXSymbol, err)
			}
			return nil
		})
	}
	g.Wait()

	return errors.Join(errs...)
}

func (p *Poller) collectCandles(ctx context.Context, symbol string) error {
	now := p.now()
	candles, err := p.source.FetchHistory(ctx, symbol, now.Add(-p.cfg.Lookback), now, p.cfg.Interval)
	if err != nil {
		return err
	}

	p.mu.Lock()
	since := p.last[symbol]
	p.mu.Unlock()

	bar := barLength(p.cfg.Interval)
	fresh := make([]core.OHLCV, 0, len(candles))
	for _, c := range candles {
		if !c.Time.After(since) || c.Time.Add(bar).After(now) {
			continue
		}
		fresh = append(fresh, c)
	}
	if len(fresh) == 0 {
		return nil
	}

	if err := p.sink.PushCandles(ctx, symbol, fresh...); err != nil {
		return err
	}

	p.mu.Lock()
	p.last[symbol] = fresh[len(fresh)-1].Time
	p.mu.Unlock()

	p.logger.Debug("candles published", zap.String("symbol", symbol), zap.Int("count", len(fresh)))
	return nil
}

func (p *Poller) collectVIX(ctx context.Context) error {
	q, err := p.source.FetchQuote(ctx, VIXSymbol)
	if err != nil {
		return err
	}
	return p.sink.PutVIX(ctx, core.VIXReading{Level: q.Price, Change: q.Change()})
}

// barLength converts a candle interval such as 15m or 1d to a duration.
func barLength(interval string) time.Duration {
	if strings.HasSuffix(interval, "d") {
		var days int
		if _, err := fmt.Sscanf(interval, "%dd", &days); err == nil && days > 0 {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	if d, err := time.ParseDuration(interval); err == nil && d > 0 {
		return d
	}
	return 15 * time.Minute
}
