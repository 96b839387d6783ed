package validation

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	sigctx "github.com/newthinker/augur/internal/context"
	"github.com/newthinker/augur/internal/core"
	"github.com/newthinker/augur/internal/features"
)

// AlertHistory returns alerts received in a time range.
type AlertHistory interface {
	ListAlerts(ctx context.Context, from, to time.Time) ([]core.Alert, error)
}

// TrainerConfig controls sample pairing.
type TrainerConfig struct {
	MinSamples int
	Tolerance  time.Duration
}

// DefaultTrainerConfig requires 100 samples paired within 30 minutes.
func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{MinSamples: 100, Tolerance: 30 * time.Minute}
}

// Sample is one alert paired with its recorded outcome.
type Sample struct {
	Features     core.SignalFeatures
	QualityLabel float64
	Win          bool
}

// Trainer replays historical alerts through the scoring rules and measures
// how often they agree with recorded outcomes. Nothing is fitted.
type Trainer struct {
	alerts    AlertHistory
	trades    sigctx.TradeLog
	extractor *features.Extractor
	cfg       TrainerConfig
	logger    *zap.Logger
	now       func() time.Time

	mu   sync.RWMutex
	last *core.TrainingResult
}

// NewTrainer creates a trainer.
func NewTrainer(alerts AlertHistory, trades sigctx.TradeLog, extractor *features.Extractor, cfg TrainerConfig, logger *zap.Logger) *Trainer {
	if cfg.MinSamples <= 0 {
		cfg.MinSamples = DefaultTrainerConfig().MinSamples
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = DefaultTrainerConfig().Tolerance
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trainer{
		alerts:    alerts,
		trades:    trades,
		extractor: extractor,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Train pairs alerts in [from, to] with closed trades and reports accuracy.
// With fewer than MinSamples pairs it returns the partial result alongside
// ErrInsufficientTrainingData and keeps the previous result.
func (t *Trainer) Train(ctx context.Context, from, to time.Time) (core.TrainingResult, error) {
	result := core.TrainingResult{StartTime: t.now(), From: from, To: to}

	fail := func(err error) (core.TrainingResult, error) {
		result.EndTime = t.now()
		result.Error = err.Error()
		t.logger.Warn("training failed", zap.Error(err), zap.Int("samples", result.TotalSamples))
		return result, err
	}

	samples, err := t.Samples(ctx, from, to)
	if err != nil {
		return fail(err)
	}
	result.TotalSamples = len(samples)

	if len(samples) < t.cfg.MinSamples {
		return fail(core.WrapError(core.ErrInsufficientTrainingData,
			fmt.Errorf("%d paired samples, need %d", len(samples), t.cfg.MinSamples)))
	}

	var qualityHits, outcomeHits, wins int
	for _, s := range samples {
		if math.Abs(QualityScore(s.Features)-s.QualityLabel) < 20 {
			qualityHits++
		}
		if (OutcomeScore(s.Features) > 50) == s.Win {
			outcomeHits++
		}
		if s.Win {
			wins++
		}
	}

	n := float64(len(samples))
	result.QualityAccuracy = float64(qualityHits) / n
	result.OutcomeAccuracy = float64(outcomeHits) / n
	result.Success = true
	result.EndTime = t.now()
	result.Metrics = map[string]float64{
		"samples":          n,
		"win_rate":         float64(wins) / n * 100,
		"quality_accuracy": result.QualityAccuracy,
		"outcome_accuracy": result.OutcomeAccuracy,
	}

	t.mu.Lock()
	saved := result
	t.last = &saved
	t.mu.Unlock()

	t.logger.Info("training completed",
		zap.Int("samples", len(samples)),
		zap.Float64("quality_accuracy", result.QualityAccuracy),
		zap.Float64("outcome_accuracy", result.OutcomeAccuracy),
	)
	return result, nil
}

// LastResult returns the most recent successful training run.
func (t *Trainer) LastResult() (core.TrainingResult, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.last == nil {
		return core.TrainingResult{}, false
	}
	return *t.last, true
}

// Samples pairs each alert with the closest unused closed trade of the same
// signal whose entry lies within the tolerance.
func (t *Trainer) Samples(ctx context.Context, from, to time.Time) ([]Sample, error) {
	alerts, err := t.alerts.ListAlerts(ctx, from, to)
	if err != nil {
		return nil, core.WrapError(core.ErrDataUnavailable, err)
	}
	trades, err := t.trades.GetTradeLog(ctx, "", time.Time{}, to.Add(t.cfg.Tolerance))
	if err != nil {
		return nil, core.WrapError(core.ErrDataUnavailable, err)
	}

	bySignal := make(map[string][]core.Trade)
	for _, tr := range trades {
		if tr.IsClosed() {
			bySignal[tr.SignalID] = append(bySignal[tr.SignalID], tr)
		}
	}
	for id := range bySignal {
		list := bySignal[id]
		sort.Slice(list, func(i, j int) bool { return list[i].EntryTime.Before(list[j].EntryTime) })
	}

	sort.Slice(alerts, func(i, j int) bool { return alerts[i].Timestamp.Before(alerts[j].Timestamp) })

	used := make(map[string]bool)
	samples := make([]Sample, 0, len(alerts))
	for _, a := range alerts {
		candidates := bySignal[a.Signal]
		match := -1
		best := t.cfg.Tolerance + 1
		for i, tr := range candidates {
			if used[tradeKey(tr, i)] {
				continue
			}
			d := tr.EntryTime.Sub(a.Timestamp)
			if d < 0 {
				d = -d
			}
			if d <= t.cfg.Tolerance && d < best {
				best, match = d, i
			}
		}
		if match < 0 {
			continue
		}

		tr := candidates[match]
		used[tradeKey(tr, match)] = true

		stats := sigctx.ComputeStats(tradesBefore(candidates, a.Timestamp))
		var market *core.MarketSnapshot
		if tr.VIXAtEntry > 0 {
			market = &core.MarketSnapshot{VIX: tr.VIXAtEntry}
		}

		samples = append(samples, Sample{
			Features:     t.extractor.Extract(a, market, nil, &stats),
			QualityLabel: QualityLabel(tr),
			Win:          tr.Outcome == core.OutcomeWin,
		})
	}
	return samples, nil
}

// QualityLabel converts a closed trade into the 0-100 quality target.
func QualityLabel(tr core.Trade) float64 {
	pnl, _ := tr.PnLFloat()
	if tr.Outcome == core.OutcomeWin {
		if pnl > 0 {
			return math.Min(100, 50+pnl/10)
		}
		return 50
	}
	return core.Clamp(50+pnl/10, 0, 100)
}

func tradeKey(tr core.Trade, idx int) string {
	if tr.ID != "" {
		return tr.ID
	}
	return fmt.Sprintf("%s#%d", tr.SignalID, idx)
}

// tradesBefore returns the prefix of a time-sorted slice entered before t.
func tradesBefore(sorted []core.Trade, t time.Time) []core.Trade {
	i := sort.Search(len(sorted), func(i int) bool { return !sorted[i].EntryTime.Before(t) })
	return sorted[:i]
}
