// Package pattern detects candlestick and chart patterns in recent candles.
package pattern

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/newthinker/augur/internal/core"
)

const (
	// MinCandles is the shortest series the engine analyses.
	MinCandles = 20
	// ConfidenceFloor drops weaker patterns from the output.
	ConfidenceFloor = 60.0
	// HighConfidence marks a pattern as strong confirmation.
	HighConfidence = 75.0
)

// Detector finds zero or more patterns in an ordered candle series.
type Detector interface {
	Name() string
	Detect(candles []core.OHLCV) []core.DetectedPattern
}

type detectorFunc struct {
	name string
	fn   func([]core.OHLCV) []core.DetectedPattern
}

func (d detectorFunc) Name() string { return d.name }

func (d detectorFunc) Detect(candles []core.OHLCV) []core.DetectedPattern { return d.fn(candles) }

// NewDetector adapts a function to the Detector interface.
func NewDetector(name string, fn func([]core.OHLCV) []core.DetectedPattern) Detector {
	return detectorFunc{name: name, fn: fn}
}

// Engine manages and runs detectors
type Engine struct {
	mu        sync.RWMutex
	detectors []Detector
	logger    *zap.Logger
}

// NewEngine creates an engine with no detectors registered.
func NewEngine(logger ...*zap.Logger) *Engine {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &Engine{logger: l}
}

// NewDefaultEngine creates an engine with every built-in detector.
func NewDefaultEngine(logger ...*zap.Logger) *Engine {
	e := NewEngine(logger...)
	for _, d := range Builtin() {
		e.Register(d)
	}
	return e
}

// Register adds a detector. A detector with the same name is replaced.
func (e *Engine) Register(d Detector) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, existing := range e.detectors {
		if existing.Name() == d.Name() {
			e.detectors[i] = d
			return
		}
	}
	e.detectors = append(e.detectors, d)
}

// Names returns registered detector names in registration order.
func (e *Engine) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, len(e.detectors))
	for i, d := range e.detectors {
		names[i] = d.Name()
	}
	return names
}

// Detect runs every detector over candles and returns the patterns at or
// above ConfidenceFloor. Fewer than MinCandles candles yield an empty list.
// A detector that panics is logged and skipped.
func (e *Engine) Detect(ctx context.Context, candles []core.OHLCV) []core.DetectedPattern {
	out := []core.DetectedPattern{}
	if len(candles) < MinCandles {
		e.logger.Debug("insufficient candles for pattern detection", zap.Int("candles", len(candles)))
		return out
	}

	e.mu.RLock()
	detectors := make([]Detector, len(e.detectors))
	copy(detectors, e.detectors)
	e.mu.RUnlock()

	for _, d := range detectors {
		select {
		case <-ctx.Done():
			return out
		default:
		}

		for _, p := range e.run(d, candles) {
			if p.Confidence >= ConfidenceFloor {
				p.Confidence = core.Clamp(p.Confidence, 0, 100)
				out = append(out, p)
			}
		}
	}
	return out
}

func (e *Engine) run(d Detector, candles []core.OHLCV) (patterns []core.DetectedPattern) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("pattern detector failed",
				zap.String("detector", d.Name()),
				zap.Error(core.WrapError(core.ErrComputation, fmt.Errorf("%v", r))),
			)
			patterns = nil
		}
	}()
	return d.Detect(candles)
}

// Analyze wraps detected patterns with their count and strong subset.
func Analyze(symbol string, patterns []core.DetectedPattern) core.PatternAnalysis {
	strong := []core.DetectedPattern{}
	for _, p := range patterns {
		if p.Confidence >= HighConfidence {
			strong = append(strong, p)
		}
	}
	return core.PatternAnalysis{
		Symbol:         symbol,
		Patterns:       patterns,
		Count:          len(patterns),
		HighConfidence: strong,
	}
}

// Builtin returns the standard detector set. Detectors without behaviour
// yet are registered so they show up by name and return nothing.
func Builtin() []Detector {
	return []Detector{
		NewDetector("doji", single(Doji)),
		NewDetector("hammer", single(Hammer)),
		NewDetector("engulfing", single(Engulfing)),
		NewDetector("star", single(Star)),
		NewDetector("shooting_star", single(ShootingStar)),
		NewDetector("head_and_shoulders", single(HeadAndShoulders)),
		NewDetector("support_resistance", SupportResistance),
		Unimplemented("double_top_bottom"),
		Unimplemented("triangle"),
		Unimplemented("channel"),
		Unimplemented("cup_and_handle"),
		Unimplemented("volume_breakout"),
		Unimplemented("volume_divergence"),
		Unimplemented("on_balance_volume"),
		Unimplemented("volatility_squeeze"),
		Unimplemented("volatility_expansion"),
	}
}

// Unimplemented is a named extension point that never reports a pattern.
func Unimplemented(name string) Detector {
	return NewDetector(name, func([]core.OHLCV) []core.DetectedPattern { return nil })
}

func single(fn func([]core.OHLCV) (core.DetectedPattern, bool)) func([]core.OHLCV) []core.DetectedPattern {
	return func(c []core.OHLCV) []core.DetectedPattern {
		if p, ok := fn(c); ok {
			return []core.DetectedPattern{p}
		}
		return nil
	}
}
