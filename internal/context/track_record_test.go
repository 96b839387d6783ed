// internal/context/track_record_test.go
package context

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/newthinker/augur/internal/core"
)

type fakeTradeLog struct {
	trades []core.Trade
	err    error
}

func (f *fakeTradeLog) GetTradeLog(ctx context.Context, signalID string, from, to time.Time) ([]core.Trade, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []core.Trade
	for _, t := range f.trades {
		if signalID != "" && t.SignalID != signalID {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTradeLog) GetOpenPositions(ctx context.Context) ([]core.Position, error) {
	return nil, nil
}

func trade(signal string, outcome core.TradeOutcome, pnl float64, at time.Time) core.Trade {
	t := core.Trade{SignalID: signal, Outcome: outcome, EntryTime: at}
	if outcome != core.OutcomeOpen {
		t.PnL = decimal.NewNullDecimal(decimal.NewFromFloat(pnl))
	}
	return t
}

func TestComputeStats(t *testing.T) {
	base := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	trades := []core.Trade{
		trade("S3", core.OutcomeWin, 100, base),
		trade("S3", core.OutcomeLoss, -50, base.Add(time.Hour)),
		trade("S3", core.OutcomeWin, 150, base.Add(2*time.Hour)),
		trade("S3", core.OutcomeOpen, 0, base.Add(3*time.Hour)),
	}

	stats := ComputeStats(trades)

	if stats.TotalTrades != 3 {
		t.Errorf("expected 3 closed trades, got %d", stats.TotalTrades)
	}
	if math.Abs(stats.WinRate-66.6667) > 0.01 {
		t.Errorf("expected win rate ~66.67, got %f", stats.WinRate)
	}
	if math.Abs(stats.AvgReturn-66.6667) > 0.01 {
		t.Errorf("expected avg return ~66.67, got %f", stats.AvgReturn)
	}
	if stats.MaxDrawdown != 50 {
		t.Errorf("expected drawdown 50, got %f", stats.MaxDrawdown)
	}
	if stats.SharpeRatio <= 0 {
		t.Errorf("expected positive sharpe, got %f", stats.SharpeRatio)
	}
}

func TestComputeStats_RecentWindow(t *testing.T) {
	base := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	var trades []core.Trade
	// 5 old losers followed by 10 winners
	for i := 0; i < 5; i++ {
		trades = append(trades, trade("S1", core.OutcomeLoss, -100, base.Add(time.Duration(i)*time.Hour)))
	}
	for i := 5; i < 15; i++ {
		trades = append(trades, trade("S1", core.OutcomeWin, 20, base.Add(time.Duration(i)*time.Hour)))
	}

	stats := ComputeStats(trades)
	if stats.RecentPerformance != 20 {
		t.Errorf("expected recent performance 20, got %f", stats.RecentPerformance)
	}
}

func TestComputeStats_Empty(t *testing.T) {
	stats := ComputeStats([]core.Trade{trade("S1", core.OutcomeOpen, 0, time.Now())})
	if stats != (core.HistoricalStats{}) {
		t.Errorf("expected zero stats, got %+v", stats)
	}
}

func TestTrackRecord_GetPerformanceContext(t *testing.T) {
	base := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	log := &fakeTradeLog{}
	for i := 0; i < 25; i++ {
		outcome := core.OutcomeLoss
		if i >= 15 {
			outcome = core.OutcomeWin
		}
		log.trades = append(log.trades, trade("S3", outcome, 10, base.Add(time.Duration(i)*time.Hour)))
	}
	log.trades = append(log.trades, trade("S9", core.OutcomeWin, 10, base.Add(48*time.Hour)))

	tr := NewTrackRecord(log)
	tr.now = func() time.Time { return base.Add(72 * time.Hour) }

	pc, err := tr.GetPerformanceContext(context.Background(), "S3")
	if err != nil {
		t.Fatal(err)
	}
	if pc.TotalTrades != 20 {
		t.Errorf("expected 20 recent trades, got %d", pc.TotalTrades)
	}
	if pc.RecentWinRate != 50 {
		t.Errorf("expected 50%% recent win rate, got %f", pc.RecentWinRate)
	}
	if pc.LastTradeDate == nil || !pc.LastTradeDate.Equal(base.Add(24*time.Hour)) {
		t.Errorf("unexpected last trade date %v", pc.LastTradeDate)
	}
}

func TestTrackRecord_LogError(t *testing.T) {
	tr := NewTrackRecord(&fakeTradeLog{err: errors.New("db down")})

	_, err := tr.GetHistoricalStats(context.Background(), "S3")
	if !errors.Is(err, core.ErrDataUnavailable) {
		t.Errorf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestSharpeRatio(t *testing.T) {
	if SharpeRatio(nil) != 0 {
		t.Error("empty sharpe should be 0")
	}
	if SharpeRatio([]float64{5, 5, 5}) != 0 {
		t.Error("zero variance sharpe should be 0")
	}
	// mean 1, population stddev 1
	if got := SharpeRatio([]float64{0, 2}); got != 1 {
		t.Errorf("expected 1, got %f", got)
	}
}
