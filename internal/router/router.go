package router

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/augur/internal/core"
	"github.com/newthinker/augur/internal/metrics"
	"github.com/newthinker/augur/internal/notifier"
)

// Config holds router configuration
type Config struct {
	MinConfidence    float64              // percent
	CooldownDuration time.Duration        // per signal identifier
	EnabledDecisions []core.DecisionLabel // empty means every actionable decision
}

// DefaultConfig returns default router configuration
func DefaultConfig() Config {
	return Config{
		MinConfidence:    70,
		CooldownDuration: 30 * time.Minute,
		EnabledDecisions: []core.DecisionLabel{core.DecisionBuy, core.DecisionStrongBuy},
	}
}

// Router forwards actionable decisions to notifiers with filtering
type Router struct {
	cfg       Config
	registry  *notifier.Registry
	metrics   *metrics.Registry
	logger    *zap.Logger
	cooldowns map[string]time.Time // signal id -> last routed time
	now       func() time.Time
	mu        sync.Mutex
}

// New creates a new decision router
func New(cfg Config, registry *notifier.Registry, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		cfg:       cfg,
		registry:  registry,
		logger:    logger,
		cooldowns: make(map[string]time.Time),
		now:       time.Now,
	}
}

// SetMetrics attaches a metrics registry
func (r *Router) SetMetrics(reg *metrics.Registry) {
	r.metrics = reg
}

// Route sends the decision in resp to every notifier when it passes the
// filters. It reports whether the decision was routed.
func (r *Router) Route(ctx context.Context, resp *core.SignalResponse) bool {
	n, ok := notifier.FromResponse(resp)
	if !ok {
		return false
	}

	if !r.claim(n) {
		r.logger.Debug("decision filtered out",
			zap.String("signal_id", n.SignalID),
			zap.String("decision", string(n.Decision)),
			zap.Float64("confidence", n.Confidence),
		)
		return false
	}

	// Nil registry is allowed
	if r.registry == nil {
		return true
	}

	errors := r.registry.NotifyAll(ctx, n)
	for _, nt := range r.registry.GetAll() {
		status := "success"
		if err, failed := errors[nt.Name()]; failed {
			status = "error"
			r.logger.Error("notifier failed",
				zap.String("stage", "routing"),
				zap.String("notifier", nt.Name()),
				zap.Error(err),
			)
		}
		r.metrics.RecordSignalRouted(nt.Name(), status)
	}

	r.logger.Info("decision routed",
		zap.String("signal_id", n.SignalID),
		zap.String("decision", string(n.Decision)),
		zap.Float64("confidence", n.Confidence),
		zap.Int("notifiers", r.registry.Len()),
		zap.Int("errors", len(errors)),
	)

	return true
}

// claim checks the filters and, when they pass, starts the cooldown in the
// same critical section so concurrent duplicates route once.
func (r *Router) claim(n notifier.Notification) bool {
	if !r.passesFilters(n) {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if last, exists := r.cooldowns[n.SignalID]; exists && now.Sub(last) < r.cfg.CooldownDuration {
		return false
	}
	r.cooldowns[n.SignalID] = now
	return true
}

// passesFilters checks the decision label and confidence
func (r *Router) passesFilters(n notifier.Notification) bool {
	if !n.Decision.IsActionable() {
		return false
	}
	if n.Confidence < r.cfg.MinConfidence {
		return false
	}
	if len(r.cfg.EnabledDecisions) > 0 {
		for _, d := range r.cfg.EnabledDecisions {
			if n.Decision == d {
				return true
			}
		}
		return false
	}
	return true
}

// ClearCooldown removes cooldown for a specific signal identifier
func (r *Router) ClearCooldown(signalID string) {
	r.mu.Lock()
	delete(r.cooldowns, signalID)
	r.mu.Unlock()
}

// ClearAllCooldowns removes all cooldowns
func (r *Router) ClearAllCooldowns() {
	r.mu.Lock()
	r.cooldowns = make(map[string]time.Time)
	r.mu.Unlock()
}

// CleanupExpiredCooldowns removes cooldown entries older than 2x the cooldown duration.
func (r *Router) CleanupExpiredCooldowns() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	expiry := r.cfg.CooldownDuration * 2
	removed := 0

	for id, lastTime := range r.cooldowns {
		if now.Sub(lastTime) > expiry {
			delete(r.cooldowns, id)
			removed++
		}
	}

	return removed
}

// StartCleanupRoutine starts a background goroutine that periodically cleans up expired cooldowns.
func (r *Router) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed := r.CleanupExpiredCooldowns()
				if removed > 0 {
					r.logger.Debug("cleaned up expired cooldowns", zap.Int("removed", removed))
				}
			}
		}
	}()
}

// GetStats returns router statistics
func (r *Router) GetStats() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()

	return map[string]any{
		"cooldowns_active":  len(r.cooldowns),
		"min_confidence":    r.cfg.MinConfidence,
		"cooldown_seconds":  r.cfg.CooldownDuration.Seconds(),
		"enabled_decisions": r.cfg.EnabledDecisions,
	}
}
