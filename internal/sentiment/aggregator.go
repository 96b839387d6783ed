// internal/sentiment/aggregator.go
package sentiment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/newthinker/augur/internal/cache"
	"github.com/newthinker/augur/internal/core"
)

// Direction labels.
const (
	StronglyBullish = "Strongly Bullish"
	Bullish         = "Bullish"
	Neutral         = "Neutral"
	Bearish         = "Bearish"
	StronglyBearish = "Strongly Bearish"
)

// DefaultSourceTimeout bounds a single source when no timeout is configured.
const DefaultSourceTimeout = 5 * time.Second

// Config tunes the aggregator.
type Config struct {
	SourceTimeout time.Duration
	CacheTTL      time.Duration
}

// Aggregator runs every source concurrently and merges their results into a
// composite score.
type Aggregator struct {
	sources   []Source
	timeout   time.Duration
	cache     cache.Cache
	ttl       time.Duration
	logger    *zap.Logger
	now       func() time.Time
	onFailure func(source string)
}

// NewAggregator creates an aggregator over sources.
func NewAggregator(sources []Source, cfg Config, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.SourceTimeout
	if timeout <= 0 {
		timeout = DefaultSourceTimeout
	}
	return &Aggregator{
		sources: sources,
		timeout: timeout,
		ttl:     cfg.CacheTTL,
		logger:  logger,
		now:     time.Now,
	}
}

// WithCache stores composite results in c for the configured TTL. A zero
// TTL disables caching.
func (a *Aggregator) WithCache(c cache.Cache) *Aggregator {
	a.cache = c
	return a
}

// OnSourceFailure registers a callback invoked with the name of every source
// that failed or timed out.
func (a *Aggregator) OnSourceFailure(fn func(source string)) {
	a.onFailure = fn
}

// Sources returns the configured source names in evaluation order.
func (a *Aggregator) Sources() []string {
	names := make([]string, len(a.sources))
	for i, s := range a.sources {
		names[i] = s.Name()
	}
	return names
}

func cacheKey(symbol string) string {
	return "sentiment:" + strings.ToUpper(symbol)
}

// Analyze returns the composite sentiment for symbol. It never fails: a
// source that errors or exceeds its timeout contributes a zero-confidence
// result.
func (a *Aggregator) Analyze(ctx context.Context, symbol string) (result *core.SentimentResult) {
	if a.cacheEnabled() {
		var cached core.SentimentResult
		err := cache.GetJSON(ctx, a.cache, cacheKey(symbol), &cached)
		if err == nil {
			return &cached
		}
		if !errors.Is(err, cache.ErrMiss) {
			a.logger.Warn("sentiment cache read failed", zap.String("symbol", symbol), zap.Error(err))
		}
	}

	defer func() {
		if r := recover(); r != nil {
			err := core.WrapError(core.ErrComputation, fmt.Errorf("panic: %v", r))
			a.logger.Error("sentiment aggregation failed", zap.String("stage", "sentiment"), zap.Error(err))
			result = &core.SentimentResult{
				Symbol:    symbol,
				Timestamp: a.now(),
				Direction: Neutral,
				Sources:   map[string]core.SourceResult{},
				Insights:  []string{},
				Error:     err.Error(),
			}
		}
	}()

	results := make([]core.SourceResult, len(a.sources))
	var g errgroup.Group
	for i, src := range a.sources {
		g.Go(func() error {
			res, err := a.run(ctx, src, symbol)
			if err != nil {
				a.logger.Warn("sentiment source failed",
					zap.String("stage", "sentiment"),
					zap.String("source", src.Name()),
					zap.Error(err),
				)
				if a.onFailure != nil {
					a.onFailure(src.Name())
				}
				res = core.SourceResult{Error: err.Error()}
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	result = a.compose(symbol, results)

	if a.cacheEnabled() {
		if err := cache.SetJSON(ctx, a.cache, cacheKey(symbol), result, a.ttl); err != nil {
			a.logger.Warn("sentiment cache write failed", zap.String("symbol", symbol), zap.Error(err))
		}
	}
	return result
}

func (a *Aggregator) cacheEnabled() bool {
	return a.cache != nil && a.ttl > 0
}

// run executes one source under its own deadline. The source runs in a
// separate goroutine so one that ignores ctx still cannot stall the caller.
func (a *Aggregator) run(ctx context.Context, src Source, symbol string) (core.SourceResult, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	type outcome struct {
		res core.SourceResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: core.WrapError(core.ErrComputation, fmt.Errorf("panic: %v", r))}
			}
		}()
		res, err := src.Analyze(ctx, symbol)
		done <- outcome{res: res, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			return core.SourceResult{}, o.err
		}
		o.res.Score = core.Clamp(o.res.Score, -100, 100)
		o.res.Confidence = core.Clamp(o.res.Confidence, 0, 100)
		return o.res, nil
	case <-ctx.Done():
		return core.SourceResult{}, core.WrapError(core.ErrDataUnavailable, ctx.Err())
	}
}

func (a *Aggregator) compose(symbol string, results []core.SourceResult) *core.SentimentResult {
	out := &core.SentimentResult{
		Symbol:    symbol,
		Timestamp: a.now(),
		Sources:   make(map[string]core.SourceResult, len(results)),
	}

	var weighted, total, confSum, absSum float64
	bestIdx := -1
	for i, res := range results {
		src := a.sources[i]
		out.Sources[src.Name()] = res

		w := src.Weight() * res.Confidence / 100
		weighted += res.Score * w
		total += w
		confSum += res.Confidence
		if res.Score < 0 {
			absSum -= res.Score
		} else {
			absSum += res.Score
		}
		if bestIdx < 0 || res.Score > results[bestIdx].Score {
			bestIdx = i
		}
	}

	if total > 0 {
		out.Score = core.Clamp(weighted/total, -100, 100)
	}
	out.Direction = Direction(out.Score)
	if n := float64(len(results)); n > 0 {
		out.Confidence = core.Clamp(confSum/n-absSum/n, 0, 100)
	}

	out.Insights = []string{}
	switch {
	case out.Score > 20:
		out.Insights = append(out.Insights, "Strong bullish sentiment across multiple indicators")
	case out.Score < -20:
		out.Insights = append(out.Insights, "Strong bearish sentiment across multiple indicators")
	}
	if bestIdx >= 0 && results[bestIdx].Score > 0 {
		out.Insights = append(out.Insights, "Strongest positive sentiment from "+a.sources[bestIdx].Name())
	}
	return out
}

// Direction maps a composite score to its label.
func Direction(score float64) string {
	switch {
	case score > 20:
		return StronglyBullish
	case score > 10:
		return Bullish
	case score > -10:
		return Neutral
	case score > -20:
		return Bearish
	default:
		return StronglyBearish
	}
}
