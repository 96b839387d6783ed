package collector

import (
	"context"
	"testing"
	"time"

	"github.com/newthinker/augur/internal/core"
)

// mockCollector for testing
type mockCollector struct {
	name    string
	candles []core.OHLCV
	quote   *Quote
	err     error
}

func (m *mockCollector) Name() string          { return m.name }
func (m *mockCollector) Init(cfg Config) error { return nil }
func (m *mockCollector) FetchQuote(ctx context.Context, symbol string) (*Quote, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.quote != nil {
		return m.quote, nil
	}
	return &Quote{Symbol: symbol, Price: 100}, nil
}
func (m *mockCollector) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.candles, nil
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	mock := &mockCollector{name: "mock"}
	r.Register(mock)

	c, ok := r.Get("mock")
	if !ok {
		t.Fatal("expected to find registered collector")
	}

	if c.Name() != "mock" {
		t.Errorf("expected name 'mock', got '%s'", c.Name())
	}

	if _, ok := r.Get("missing"); ok {
		t.Error("unexpected collector")
	}
}

func TestRegistry_GetAll(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockCollector{name: "b"})
	r.Register(&mockCollector{name: "a"})

	all := r.GetAll()
	if len(all) != 2 {
		t.Fatalf("expected 2 collectors, got %d", len(all))
	}
	if all[0].Name() != "a" {
		t.Errorf("expected sorted collectors, got %s first", all[0].Name())
	}
}

func TestQuote_Change(t *testing.T) {
	q := Quote{Price: 16.5, PreviousClose: 15}
	if got := q.Change(); got != 10 {
		t.Errorf("expected 10%%, got %f", got)
	}
	if (Quote{Price: 16}).Change() != 0 {
		t.Error("expected zero change without previous close")
	}
}
