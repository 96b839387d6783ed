// internal/weighting/weighter.go
package weighting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	sigctx "github.com/newthinker/augur/internal/context"
	"github.com/newthinker/augur/internal/core"
)

// BaseWeight is the neutral weight every signal starts from.
const BaseWeight = 1.0

// Config tunes the weighter.
type Config struct {
	Session      sigctx.Session
	Tables       Tables
	Shards       int
	HistoryLimit int
	FetchTimeout time.Duration
}

// DefaultConfig returns the stock session, tables and store sizing.
func DefaultConfig() Config {
	return Config{
		Session:      sigctx.DefaultSession(),
		Tables:       DefaultTables(),
		Shards:       16,
		HistoryLimit: DefaultHistoryLimit,
		FetchTimeout: 2 * time.Second,
	}
}

// Weighter turns a scored signal into a bounded adaptive weight and keeps
// the rolling weight history per signal identifier.
type Weighter struct {
	trades sigctx.TradeLog
	store  *Store
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

// NewWeighter creates a weighter. trades may be nil, in which case the
// history-driven components stay neutral.
func NewWeighter(trades sigctx.TradeLog, cfg Config, logger *zap.Logger) *Weighter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 2 * time.Second
	}
	return &Weighter{
		trades: trades,
		store:  NewStore(cfg.Shards, cfg.HistoryLimit),
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Store exposes the rolling history.
func (w *Weighter) Store() *Store { return w.store }

// Weigh computes the adaptive weight for sig and records it. Windows are
// measured back from the alert time so the result does not depend on when
// the alert is processed.
func (w *Weighter) Weigh(ctx context.Context, sig *core.EnhancedSignal) (result *core.WeightResult) {
	now := w.now()
	asOf := sig.Features.Timestamp
	if asOf.IsZero() {
		asOf = now
	}

	defer func() {
		if r := recover(); r != nil {
			err := core.WrapError(core.ErrComputation, fmt.Errorf("panic: %v", r))
			w.logger.Error("adaptive weighting failed",
				zap.String("stage", "weighting"),
				zap.String("signal_id", sig.SignalID),
				zap.Error(err),
			)
			result = &core.WeightResult{
				SignalID:       sig.SignalID,
				Timestamp:      now,
				BaseWeight:     BaseWeight,
				AdaptiveWeight: BaseWeight,
				Components:     map[string]float64{},
				Reasoning:      "Error in weight calculation: " + err.Error(),
			}
		}
	}()

	trades, tradesErr := w.fetchTrades(ctx, sig.SignalID, asOf)
	positions, posErr := w.fetchPositions(ctx)
	inSession := w.cfg.Session.InHours(asOf)

	components := map[string]float64{
		Performance:     1.0,
		MarketCondition: 1.0,
		Volatility:      1.0,
		Diversification: 1.0,
	}
	if tradesErr == nil {
		components[Performance] = w.safe(Performance, sig.SignalID, func() float64 {
			return PerformanceWeight(trades, asOf)
		})
		components[MarketCondition] = w.safe(MarketCondition, sig.SignalID, func() float64 {
			return MarketConditionWeight(w.cfg.Tables, trades, sig.MarketContext.Trend, asOf)
		})
		components[Volatility] = w.safe(Volatility, sig.SignalID, func() float64 {
			return VolatilityWeight(w.cfg.Tables, sig.Features.VIX, trades)
		})
	} else {
		w.degraded("trade_log", sig.SignalID, tradesErr)
		components[Volatility] = core.Clamp(w.cfg.Tables.vix(sig.Features.VIX), 0.3, 1.7)
	}
	if posErr == nil {
		components[Diversification] = w.safe(Diversification, sig.SignalID, func() float64 {
			return DiversificationWeight(positions, sig.SignalID, sig.Alert.Option())
		})
	} else {
		w.degraded("open_positions", sig.SignalID, posErr)
	}
	components[TimeBased] = w.safe(TimeBased, sig.SignalID, func() float64 {
		return TimeWeight(w.cfg.Tables, sig.Features, inSession)
	})
	components[Sentiment] = w.safe(Sentiment, sig.SignalID, func() float64 {
		return SentimentWeight(sig.Alert, sig.SentimentScore)
	})
	components[Confidence] = w.safe(Confidence, sig.SignalID, func() float64 {
		return ConfidenceWeight(sig.ConfidenceScore)
	})

	weight := ApplyConstraints(Composite(components), sig.Risk.OverallRiskScore, sig.Scores.Quality, inSession)
	reason := Reasoning(components, weight)
	w.store.Record(sig.SignalID, now, weight, reason)

	w.logger.Debug("adaptive weight computed",
		zap.String("signal_id", sig.SignalID),
		zap.Float64("weight", weight),
	)

	return &core.WeightResult{
		SignalID:       sig.SignalID,
		Timestamp:      now,
		BaseWeight:     BaseWeight,
		AdaptiveWeight: weight,
		Components:     components,
		Reasoning:      reason,
	}
}

func (w *Weighter) fetchTrades(ctx context.Context, signalID string, asOf time.Time) ([]core.Trade, error) {
	if w.trades == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, w.cfg.FetchTimeout)
	defer cancel()
	trades, err := w.trades.GetTradeLog(ctx, signalID, asOf.Add(-conditionWindow), asOf)
	if err != nil {
		return nil, core.WrapError(core.ErrDataUnavailable, err)
	}
	return trades, nil
}

func (w *Weighter) fetchPositions(ctx context.Context) ([]core.Position, error) {
	if w.trades == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, w.cfg.FetchTimeout)
	defer cancel()
	positions, err := w.trades.GetOpenPositions(ctx)
	if err != nil {
		return nil, core.WrapError(core.ErrDataUnavailable, err)
	}
	return positions, nil
}

func (w *Weighter) degraded(source, signalID string, err error) {
	w.logger.Warn("weighting input unavailable, using neutral components",
		zap.String("stage", "weighting"),
		zap.String("source", source),
		zap.String("signal_id", signalID),
		zap.Error(err),
	)
}

// safe runs one component, falling back to 1 on panic.
func (w *Weighter) safe(component, signalID string, fn func() float64) (v float64) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Warn("weight component failed",
				zap.String("stage", "weighting"),
				zap.String("component", component),
				zap.String("signal_id", signalID),
				zap.Error(core.WrapError(core.ErrComputation, fmt.Errorf("panic: %v", r))),
			)
			v = 1.0
		}
	}()
	return fn()
}

// Reasoning explains which components moved the weight.
func Reasoning(components map[string]float64, weight float64) string {
	var reasons []string
	for _, c := range Coefficients {
		v, ok := components[c.Name]
		if !ok {
			continue
		}
		switch {
		case v > 1.1:
			reasons = append(reasons, fmt.Sprintf("Strong %s factor (+%.1f%%)", c.Name, (v-1)*100))
		case v < 0.9:
			reasons = append(reasons, fmt.Sprintf("Weak %s factor (%.1f%%)", c.Name, (v-1)*100))
		}
	}
	switch {
	case weight > 1.2:
		reasons = append(reasons, "Overall strong conviction")
	case weight < 0.8:
		reasons = append(reasons, "Overall reduced conviction")
	}
	if len(reasons) == 0 {
		return "Neutral weighting across all factors"
	}
	return strings.Join(reasons, "; ")
}
