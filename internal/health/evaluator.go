package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Notifier delivers a plain text message. The telegram and webhook
// notifiers satisfy it.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, msg string) error
}

// Evaluator evaluates rules and sends notifications.
type Evaluator struct {
	notifiers []Notifier
	metrics   map[string]float64
	cooldown  time.Duration
	logger    *zap.Logger

	// rules waiting out their "for" duration
	pending map[string]time.Time
	// last fired time for cooldown
	lastFired map[string]time.Time

	now func() time.Time

	mu sync.RWMutex
}

// NewEvaluator creates a new rule evaluator. logger may be nil.
func NewEvaluator(notifiers []Notifier, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{
		notifiers: notifiers,
		metrics:   make(map[string]float64),
		cooldown:  5 * time.Minute,
		logger:    logger,
		pending:   make(map[string]time.Time),
		lastFired: make(map[string]time.Time),
		now:       time.Now,
	}
}

// SetMetrics updates the current metrics.
func (e *Evaluator) SetMetrics(metrics map[string]float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.metrics = metrics
}

// SetCooldown sets the cooldown duration between alerts.
func (e *Evaluator) SetCooldown(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cooldown = d
}

// Evaluate evaluates a single rule and reports whether it fired.
func (e *Evaluator) Evaluate(ctx context.Context, rule Rule) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()

	if !rule.Evaluate(e.metrics) {
		delete(e.pending, rule.Name)
		return false
	}

	if rule.For > 0 {
		pendingSince, isPending := e.pending[rule.Name]
		if !isPending {
			e.pending[rule.Name] = now
			return false
		}
		if now.Sub(pendingSince) < rule.For {
			return false
		}
	}

	lastFired, hasFired := e.lastFired[rule.Name]
	if hasFired && now.Sub(lastFired) < e.cooldown {
		return false
	}

	msg := rule.FormatMessage(e.metrics)
	e.logger.Warn("health rule fired",
		zap.String("rule", rule.Name),
		zap.String("severity", rule.Severity),
		zap.String("message", msg),
	)
	for _, n := range e.notifiers {
		if err := n.Notify(ctx, msg); err != nil {
			e.logger.Warn("health notification failed",
				zap.String("notifier", n.Name()),
				zap.String("rule", rule.Name),
				zap.Error(err),
			)
		}
	}

	e.lastFired[rule.Name] = now
	delete(e.pending, rule.Name)
	return true
}

// EvaluateAll evaluates all rules and returns how many fired.
func (e *Evaluator) EvaluateAll(ctx context.Context, rules []Rule) int {
	fired := 0
	for _, rule := range rules {
		if e.Evaluate(ctx, rule) {
			fired++
		}
	}
	return fired
}

// advanceTime is for testing - advances the internal clock.
func (e *Evaluator) advanceTime(d time.Duration) {
	oldNow := e.now
	e.now = func() time.Time {
		return oldNow().Add(d)
	}
}
