package validation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/augur/internal/core"
	"github.com/newthinker/augur/internal/features"
)

type stubAlerts []core.Alert

func (s stubAlerts) ListAlerts(ctx context.Context, from, to time.Time) ([]core.Alert, error) {
	var out []core.Alert
	for _, a := range s {
		if !a.Timestamp.Before(from) && !a.Timestamp.After(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

type stubTrades []core.Trade

func (s stubTrades) GetTradeLog(ctx context.Context, signalID string, from, to time.Time) ([]core.Trade, error) {
	var out []core.Trade
	for _, t := range s {
		if signalID != "" && t.SignalID != signalID {
			continue
		}
		if t.EntryTime.After(to) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s stubTrades) GetOpenPositions(ctx context.Context) ([]core.Position, error) { return nil, nil }

func closedTrade(id, signal string, outcome core.TradeOutcome, pnl float64, at time.Time) core.Trade {
	return core.Trade{
		ID:        id,
		SignalID:  signal,
		Outcome:   outcome,
		EntryTime: at,
		PnL:       decimal.NewNullDecimal(decimal.NewFromFloat(pnl)),
	}
}

func history(n int) (stubAlerts, stubTrades, time.Time) {
	base := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	var alerts stubAlerts
	var trades stubTrades
	for i := 0; i < n; i++ {
		at := base.Add(time.Duration(i) * 24 * time.Hour)
		alerts = append(alerts, core.Alert{Strike: 22500, Type: "PE", Signal: "S3", Action: "Entry", Timestamp: at})
		outcome, pnl := core.OutcomeWin, 200.0
		if i%3 == 0 {
			outcome, pnl = core.OutcomeLoss, -150
		}
		trades = append(trades, closedTrade(fmt.Sprintf("t%d", i), "S3", outcome, pnl, at.Add(5*time.Minute)))
	}
	return alerts, trades, base
}

func TestTrainer_InsufficientSamples(t *testing.T) {
	alerts, trades, base := history(5)
	tr := NewTrainer(alerts, trades, features.NewExtractor(features.DefaultConfig()), DefaultTrainerConfig(), nil)

	res, err := tr.Train(context.Background(), base, base.Add(30*24*time.Hour))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInsufficientTrainingData)
	assert.Equal(t, 5, res.TotalSamples)
	assert.False(t, res.Success)

	_, ok := tr.LastResult()
	assert.False(t, ok, "failed run must not replace the last result")
}

func TestTrainer_Success(t *testing.T) {
	alerts, trades, base := history(9)
	tr := NewTrainer(alerts, trades, features.NewExtractor(features.DefaultConfig()),
		TrainerConfig{MinSamples: 9, Tolerance: 30 * time.Minute}, nil)

	res, err := tr.Train(context.Background(), base, base.Add(30*24*time.Hour))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 9, res.TotalSamples)
	assert.GreaterOrEqual(t, res.QualityAccuracy, 0.0)
	assert.LessOrEqual(t, res.QualityAccuracy, 1.0)
	assert.GreaterOrEqual(t, res.OutcomeAccuracy, 0.0)
	assert.LessOrEqual(t, res.OutcomeAccuracy, 1.0)
	assert.InDelta(t, 66.666, res.Metrics["win_rate"], 0.01)

	last, ok := tr.LastResult()
	require.True(t, ok)
	assert.Equal(t, res.TotalSamples, last.TotalSamples)
}

func TestTrainer_Pairing(t *testing.T) {
	base := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	alerts := stubAlerts{
		{Strike: 22500, Type: "PE", Signal: "S1", Action: "Entry", Timestamp: base},
		{Strike: 22500, Type: "PE", Signal: "S1", Action: "Entry", Timestamp: base.Add(10 * time.Minute)},
		{Strike: 22500, Type: "CE", Signal: "S2", Action: "Entry", Timestamp: base},
	}
	trades := stubTrades{
		closedTrade("a", "S1", core.OutcomeWin, 100, base.Add(2*time.Minute)),
		// too far from any alert
		closedTrade("b", "S2", core.OutcomeLoss, -50, base.Add(45*time.Minute)),
		{ID: "c", SignalID: "S1", Outcome: core.OutcomeOpen, EntryTime: base.Add(11 * time.Minute)},
	}

	tr := NewTrainer(alerts, trades, features.NewExtractor(features.DefaultConfig()), DefaultTrainerConfig(), nil)
	samples, err := tr.Samples(context.Background(), base.Add(-time.Hour), base.Add(time.Hour))
	require.NoError(t, err)

	// Only the first S1 alert pairs: the trade is used once and open trades never pair.
	require.Len(t, samples, 1)
	assert.True(t, samples[0].Win)
	assert.Equal(t, 60.0, samples[0].QualityLabel)
	assert.Equal(t, 0, samples[0].Features.HistoricalTrades)
}

func TestQualityLabel(t *testing.T) {
	now := time.Now()
	assert.Equal(t, 100.0, QualityLabel(closedTrade("", "S1", core.OutcomeWin, 900, now)))
	assert.Equal(t, 50.0, QualityLabel(closedTrade("", "S1", core.OutcomeWin, 0, now)))
	assert.Equal(t, 30.0, QualityLabel(closedTrade("", "S1", core.OutcomeLoss, -200, now)))
	assert.Equal(t, 0.0, QualityLabel(closedTrade("", "S1", core.OutcomeLoss, -900, now)))
}
