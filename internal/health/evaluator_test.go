package health

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type mockNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (m *mockNotifier) Name() string { return "mock" }

func (m *mockNotifier) Notify(ctx context.Context, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return m.err
}

func (m *mockNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

func TestEvaluator_EvaluateRule(t *testing.T) {
	notifier := &mockNotifier{}
	e := NewEvaluator([]Notifier{notifier}, nil)

	rule := Rule{
		Name:     "signals_degraded",
		Expr:     "degraded_ratio > 0.5",
		Severity: "warning",
		Message:  "degraded signals",
	}

	e.SetMetrics(map[string]float64{"degraded_ratio": 0.75})

	if !e.Evaluate(context.Background(), rule) {
		t.Error("expected rule to fire")
	}
	if notifier.count() != 1 {
		t.Fatalf("expected 1 message, got %d", notifier.count())
	}
	if !strings.Contains(notifier.messages[0], "degraded_ratio=0.75") {
		t.Errorf("message should carry the metric value: %s", notifier.messages[0])
	}
}

func TestEvaluator_Cooldown(t *testing.T) {
	notifier := &mockNotifier{}
	e := NewEvaluator([]Notifier{notifier}, nil)
	e.SetCooldown(time.Hour)

	rule := Rule{Name: "low_confidence", Expr: "avg_confidence < 40"}
	e.SetMetrics(map[string]float64{"avg_confidence": 20})

	ctx := context.Background()
	e.Evaluate(ctx, rule)
	e.Evaluate(ctx, rule)

	if notifier.count() != 1 {
		t.Errorf("expected 1 message (cooldown), got %d", notifier.count())
	}

	e.advanceTime(2 * time.Hour)
	e.Evaluate(ctx, rule)
	if notifier.count() != 2 {
		t.Errorf("expected a second message after cooldown, got %d", notifier.count())
	}
}

func TestEvaluator_RuleNotTriggered(t *testing.T) {
	notifier := &mockNotifier{}
	e := NewEvaluator([]Notifier{notifier}, nil)

	rule := Rule{Name: "signals_degraded", Expr: "degraded_ratio > 0.5"}
	e.SetMetrics(map[string]float64{"degraded_ratio": 0.1})

	if e.Evaluate(context.Background(), rule) {
		t.Error("expected rule not to fire")
	}
	if notifier.count() != 0 {
		t.Errorf("expected 0 messages, got %d", notifier.count())
	}
}

func TestEvaluator_MissingMetric(t *testing.T) {
	e := NewEvaluator(nil, nil)
	e.SetMetrics(map[string]float64{})

	if e.Evaluate(context.Background(), Rule{Name: "r", Expr: "avg_confidence < 40"}) {
		t.Error("missing metric should not fire")
	}
}

func TestEvaluator_EvaluateAll(t *testing.T) {
	notifier := &mockNotifier{}
	e := NewEvaluator([]Notifier{notifier}, nil)

	rules := []Rule{
		{Name: "rule1", Expr: "degraded_ratio > 0.5"},
		{Name: "rule2", Expr: "avg_confidence < 40"},
		{Name: "rule3", Expr: "recent_signals > 100"},
	}
	e.SetMetrics(map[string]float64{
		"degraded_ratio": 0.6,
		"avg_confidence": 30,
		"recent_signals": 10,
	})

	if fired := e.EvaluateAll(context.Background(), rules); fired != 2 {
		t.Errorf("expected 2 rules to fire, got %d", fired)
	}
	if notifier.count() != 2 {
		t.Errorf("expected 2 messages, got %d", notifier.count())
	}
}

func TestEvaluator_NotifierFailureDoesNotBlock(t *testing.T) {
	failing := &mockNotifier{err: errors.New("down")}
	ok := &mockNotifier{}
	e := NewEvaluator([]Notifier{failing, ok}, nil)
	e.SetMetrics(map[string]float64{"degraded_ratio": 1})

	if !e.Evaluate(context.Background(), Rule{Name: "r", Expr: "degraded_ratio > 0.5"}) {
		t.Error("expected rule to fire")
	}
	if ok.count() != 1 {
		t.Errorf("second notifier should still be called, got %d", ok.count())
	}
}

func TestEvaluator_PendingFor(t *testing.T) {
	notifier := &mockNotifier{}
	e := NewEvaluator([]Notifier{notifier}, nil)

	rule := Rule{
		Name: "signals_degraded",
		Expr: "degraded_ratio > 0.5",
		For:  10 * time.Minute,
	}
	e.SetMetrics(map[string]float64{"degraded_ratio": 0.9})

	ctx := context.Background()
	if e.Evaluate(ctx, rule) {
		t.Error("should be pending on first breach")
	}

	e.advanceTime(5 * time.Minute)
	if e.Evaluate(ctx, rule) {
		t.Error("should still be pending")
	}

	e.advanceTime(6 * time.Minute)
	if !e.Evaluate(ctx, rule) {
		t.Error("should fire after the for duration")
	}
	if notifier.count() != 1 {
		t.Errorf("expected 1 message, got %d", notifier.count())
	}
}

func TestEvaluator_PendingClears(t *testing.T) {
	notifier := &mockNotifier{}
	e := NewEvaluator([]Notifier{notifier}, nil)

	rule := Rule{Name: "r", Expr: "degraded_ratio > 0.5", For: 10 * time.Minute}
	ctx := context.Background()

	e.SetMetrics(map[string]float64{"degraded_ratio": 0.9})
	e.Evaluate(ctx, rule)

	e.SetMetrics(map[string]float64{"degraded_ratio": 0.1})
	e.Evaluate(ctx, rule)

	e.advanceTime(15 * time.Minute)
	e.SetMetrics(map[string]float64{"degraded_ratio": 0.9})
	if e.Evaluate(ctx, rule) {
		t.Error("pending state should have been cleared")
	}
	if notifier.count() != 0 {
		t.Errorf("expected 0 messages, got %d", notifier.count())
	}
}
