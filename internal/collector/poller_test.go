package collector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/augur/internal/core"
)

type recordingSink struct {
	mu      sync.Mutex
	candles map[string][]core.OHLCV
	vix     []core.VIXReading
}

func newRecordingSink() *recordingSink {
	return &recordingSink{candles: map[string][]core.OHLCV{}}
}

func (s *recordingSink) PushCandles(ctx context.Context, symbol string, candles ...core.OHLCV) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candles[symbol] = append(s.candles[symbol], candles...)
	return nil
}

func (s *recordingSink) PutVIX(ctx context.Context, vix core.VIXReading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vix = append(s.vix, vix)
	return nil
}

var pollStart = time.Date(2025, 3, 5, 6, 0, 0, 0, time.UTC)

func bars(n int) []core.OHLCV {
	out := make([]core.OHLCV, n)
	for i := range out {
		out[i] = core.OHLCV{Open: 100, High: 101, Low: 99, Close: 100, Time: pollStart.Add(time.Duration(i) * 15 * time.Minute)}
	}
	return out
}

func TestPoller_PublishesClosedCandlesOnce(t *testing.T) {
	source := &mockCollector{name: "mock", candles: bars(4)}
	sink := newRecordingSink()
	p := NewPoller(source, sink, PollerConfig{Symbols: []string{"nifty"}, Interval: "15m"}, nil)

	// the fourth bar opened at 06:45 and is still forming at 06:50
	now := pollStart.Add(50 * time.Minute)
	p.now = func() time.Time { return now }

	require.NoError(t, p.Collect(context.Background()))
	assert.Len(t, sink.candles["NIFTY"], 3)

	require.NoError(t, p.Collect(context.Background()))
	assert.Len(t, sink.candles["NIFTY"], 3, "no duplicates on repeat poll")

	now = pollStart.Add(61 * time.Minute)
	require.NoError(t, p.Collect(context.Background()))
	require.Len(t, sink.candles["NIFTY"], 4)
	assert.Equal(t, pollStart.Add(45*time.Minute), sink.candles["NIFTY"][3].Time)
}

func TestPoller_PublishesVIX(t *testing.T) {
	source := &mockCollector{name: "mock", quote: &Quote{Symbol: VIXSymbol, Price: 16.5, PreviousClose: 15}}
	sink := newRecordingSink()
	p := NewPoller(source, sink, PollerConfig{VIX: true}, nil)

	require.NoError(t, p.Collect(context.Background()))
	require.Len(t, sink.vix, 1)
	assert.Equal(t, 16.5, sink.vix[0].Level)
	assert.InDelta(t, 10, sink.vix[0].Change, 1e-9)
}

func TestPoller_FailuresAreJoined(t *testing.T) {
	source := &mockCollector{name: "mock", err: core.ErrDataUnavailable}
	sink := newRecordingSink()
	p := NewPoller(source, sink, PollerConfig{Symbols: []string{"NIFTY", "BANKNIFTY"}, VIX: true}, nil)

	err := p.Collect(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrDataUnavailable))
	assert.Contains(t, err.Error(), "BANKNIFTY")
	assert.Contains(t, err.Error(), VIXSymbol)
	assert.Empty(t, sink.vix)
}

func TestPoller_RunStopsOnCancel(t *testing.T) {
	sink := newRecordingSink()
	p := NewPoller(&mockCollector{name: "mock"}, sink, PollerConfig{VIX: true, PollInterval: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.vix) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}

func TestBarLength(t *testing.T) {
	assert.Equal(t, 15*time.Minute, barLength("15m"))
	assert.Equal(t, time.Hour, barLength("1h"))
	assert.Equal(t, 24*time.Hour, barLength("1d"))
	assert.Equal(t, 15*time.Minute, barLength("bogus"))
}
