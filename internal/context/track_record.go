// internal/context/track_record.go
package context

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/newthinker/augur/internal/core"
)

const (
	recentStatsWindow       = 10
	performanceContextDepth = 20
)

// TrackRecord derives historical statistics from the trade log.
type TrackRecord struct {
	log TradeLog
	now func() time.Time
}

// NewTrackRecord creates a track record over the given trade log.
func NewTrackRecord(log TradeLog) *TrackRecord {
	return &TrackRecord{log: log, now: time.Now}
}

// GetHistoricalStats summarises every closed trade of signalID.
func (t *TrackRecord) GetHistoricalStats(ctx context.Context, signalID string) (core.HistoricalStats, error) {
	trades, err := t.log.GetTradeLog(ctx, signalID, time.Time{}, t.now())
	if err != nil {
		return core.HistoricalStats{}, core.WrapError(core.ErrDataUnavailable, err)
	}
	return ComputeStats(trades), nil
}

// GetPerformanceContext summarises the 20 most recent trades of signalID,
// open ones included.
func (t *TrackRecord) GetPerformanceContext(ctx context.Context, signalID string) (core.PerformanceContext, error) {
	trades, err := t.log.GetTradeLog(ctx, signalID, time.Time{}, t.now())
	if err != nil {
		return core.PerformanceContext{}, core.WrapError(core.ErrDataUnavailable, err)
	}

	recent := newestFirst(trades)
	if len(recent) > performanceContextDepth {
		recent = recent[:performanceContextDepth]
	}
	if len(recent) == 0 {
		return core.PerformanceContext{}, nil
	}

	var wins int
	var pnl float64
	for _, tr := range recent {
		if tr.Outcome == core.OutcomeWin {
			wins++
		}
		v, _ := tr.PnLFloat()
		pnl += v
	}

	last := recent[0].EntryTime
	return core.PerformanceContext{
		RecentWinRate: float64(wins) * 100 / float64(len(recent)),
		RecentAvgPnL:  pnl / float64(len(recent)),
		TotalTrades:   len(recent),
		LastTradeDate: &last,
	}, nil
}

// ComputeStats summarises the closed trades in trades. Open trades are
// ignored and a missing P&L counts as zero.
func ComputeStats(trades []core.Trade) core.HistoricalStats {
	closed := make([]core.Trade, 0, len(trades))
	for _, tr := range trades {
		if tr.IsClosed() {
			closed = append(closed, tr)
		}
	}
	if len(closed) == 0 {
		return core.HistoricalStats{}
	}

	sort.Slice(closed, func(i, j int) bool { return closed[i].EntryTime.Before(closed[j].EntryTime) })

	var wins int
	pnls := make([]float64, len(closed))
	for i, tr := range closed {
		if tr.Outcome == core.OutcomeWin {
			wins++
		}
		pnls[i], _ = tr.PnLFloat()
	}

	recent := pnls
	if len(recent) > recentStatsWindow {
		recent = recent[len(recent)-recentStatsWindow:]
	}

	return core.HistoricalStats{
		WinRate:           float64(wins) * 100 / float64(len(closed)),
		AvgReturn:         Mean(pnls),
		RecentPerformance: Mean(recent),
		MaxDrawdown:       MaxDrawdown(pnls),
		SharpeRatio:       SharpeRatio(pnls),
		TotalTrades:       len(closed),
	}
}

func newestFirst(trades []core.Trade) []core.Trade {
	out := make([]core.Trade, len(trades))
	copy(out, trades)
	sort.Slice(out, func(i, j int) bool { return out[i].EntryTime.After(out[j].EntryTime) })
	return out
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// SharpeRatio is the mean over the population standard deviation of
// per-trade P&L, with a zero risk-free rate. It is not annualized.
func SharpeRatio(pnls []float64) float64 {
	if len(pnls) == 0 {
		return 0
	}

	mean := Mean(pnls)
	var variance float64
	for _, r := range pnls {
		variance += (r - mean) * (r - mean)
	}
	stdDev := math.Sqrt(variance / float64(len(pnls)))
	if stdDev == 0 {
		return 0
	}
	return mean / stdDev
}

// MaxDrawdown is the largest peak-to-trough decline of cumulative P&L, in
// P&L units.
func MaxDrawdown(pnls []float64) float64 {
	var maxDD, peak, cumulative float64
	for _, p := range pnls {
		cumulative += p
		if cumulative > peak {
			peak = cumulative
		}
		if dd := peak - cumulative; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}
