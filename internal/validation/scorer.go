// Package validation scores alerts with a transparent rule-based ensemble
// and maps the composite confidence to a recommendation.
package validation

import (
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/augur/internal/core"
)

const (
	// NeutralScore replaces a sub-score that could not be computed.
	NeutralScore = 50.0
	// DegradedConfidence is reported when validation as a whole failed.
	DegradedConfidence = 20.0

	qualityConfidence = 75.0
	outcomeConfidence = 70.0
)

// Weights are the ensemble coefficients. They sum to 1.
type Weights struct {
	Quality         float64
	Outcome         float64
	MarketCondition float64
	Timing          float64
	Risk            float64
}

// DefaultWeights returns the standard ensemble weighting.
func DefaultWeights() Weights {
	return Weights{Quality: 0.25, Outcome: 0.25, MarketCondition: 0.20, Timing: 0.15, Risk: 0.15}
}

// Sum returns the total of all coefficients.
func (w Weights) Sum() float64 {
	return w.Quality + w.Outcome + w.MarketCondition + w.Timing + w.Risk
}

// MarketConditionScorer rates how well current conditions suit a signal.
// The shipped implementation is a configured constant; a regime-matching
// model plugs in here.
type MarketConditionScorer interface {
	MarketCondition(f core.SignalFeatures) float64
}

// StaticMarketCondition returns the same score for every signal.
type StaticMarketCondition float64

func (s StaticMarketCondition) MarketCondition(core.SignalFeatures) float64 { return float64(s) }

// Result is the outcome of scoring one feature record.
type Result struct {
	Scores         core.ValidationScores
	Confidence     float64
	Recommendation core.Recommendation
	Risk           core.RiskAssessment
	Validated      bool
}

// Scorer runs the five sub-scorers and combines them.
type Scorer struct {
	weights Weights
	market  MarketConditionScorer
	logger  *zap.Logger
}

// NewScorer creates a scorer. A nil market scorer falls back to a constant 75.
func NewScorer(market MarketConditionScorer, logger *zap.Logger) *Scorer {
	if market == nil {
		market = StaticMarketCondition(75)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{
		weights: DefaultWeights(),
		market:  market,
		logger:  logger,
	}
}

// Score evaluates the feature record. It never fails: a sub-scorer that
// panics or yields a non-finite value is replaced by NeutralScore.
func (s *Scorer) Score(f core.SignalFeatures) Result {
	scores := core.ValidationScores{
		Quality:           s.safe("quality", f.SignalID, func() float64 { return QualityScore(f) }),
		QualityConfidence: qualityConfidence,
		Outcome:           s.safe("outcome", f.SignalID, func() float64 { return OutcomeScore(f) }),
		OutcomeConfidence: outcomeConfidence,
		MarketCondition:   s.safe("market_condition", f.SignalID, func() float64 { return s.market.MarketCondition(f) }),
		Timing:            s.safe("timing", f.SignalID, func() float64 { return TimingScore(f) }),
		Risk:              s.safe("risk", f.SignalID, func() float64 { return RiskScore(f) }),
	}
	scores.EnsembleAgreement = EnsembleAgreement(scores)

	confidence := s.Composite(scores)
	rec := Recommend(confidence, scores.Risk)

	return Result{
		Scores:         scores,
		Confidence:     confidence,
		Recommendation: rec,
		Risk:           AssessRisk(f, scores),
		Validated:      rec >= core.RecommendWeakBuy,
	}
}

// Composite is the weighted sum of the five sub-scores, clamped to [0,100].
func (s *Scorer) Composite(scores core.ValidationScores) float64 {
	w := s.weights
	v := scores.Quality*w.Quality +
		scores.Outcome*w.Outcome +
		scores.MarketCondition*w.MarketCondition +
		scores.Timing*w.Timing +
		scores.Risk*w.Risk
	return core.Clamp(v, 0, 100)
}

func (s *Scorer) safe(stage, signalID string, fn func() float64) (score float64) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("sub-scorer failed",
				zap.String("stage", stage),
				zap.String("signal_id", signalID),
				zap.Error(core.WrapError(core.ErrComputation, fmt.Errorf("%v", r))),
			)
			score = NeutralScore
		}
	}()

	v := fn()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		s.logger.Warn("sub-scorer returned non-finite value", zap.String("stage", stage), zap.String("signal_id", signalID))
		return NeutralScore
	}
	return core.Clamp(v, 0, 100)
}

// QualityScore rates the signal on its track record, volatility and the
// time of day. The win rate rule only applies once the signal has closed
// trades.
func QualityScore(f core.SignalFeatures) float64 {
	score := 50.0

	if f.HistoricalTrades > 0 {
		switch {
		case f.HistoricalWinRate > 60:
			score += 20
		case f.HistoricalWinRate > 50:
			score += 10
		case f.HistoricalWinRate < 40:
			score -= 15
		}
	}

	if f.VIX < 20 && f.RSI > 30 && f.RSI < 70 {
		score += 15
	}
	if f.HourOfDay >= 10 && f.HourOfDay <= 14 {
		score += 10
	}

	return core.Clamp(score, 0, 100)
}

// OutcomeScore estimates the chance the trade closes profitably.
func OutcomeScore(f core.SignalFeatures) float64 {
	score := 50.0

	if f.RecentPerformance > 0 {
		score += 15
	} else if f.RecentPerformance < 0 {
		score -= 15
	}

	// Selling puts profits from a rising market, selling calls from a falling one.
	if strings.EqualFold(f.MarketTrend, "Bullish") && f.OptionType == core.OptionPut {
		score += 10
	} else if strings.EqualFold(f.MarketTrend, "Bearish") && f.OptionType == core.OptionCall {
		score += 10
	}

	if f.VIX >= 15 && f.VIX <= 25 {
		score += 10
	}

	return core.Clamp(score, 0, 100)
}

// TimingScore favours the regular session and mid-week expiry days.
func TimingScore(f core.SignalFeatures) float64 {
	score := 50.0

	if f.HourOfDay >= 9 && f.HourOfDay <= 15 {
		score += 20
	}
	switch f.DayOfWeek {
	case time.Tuesday, time.Wednesday, time.Thursday:
		score += 15
	}

	return math.Min(100, score)
}

// RiskScore is higher when the position is safer.
func RiskScore(f core.SignalFeatures) float64 {
	score := 50.0

	if f.TimeToExpiry > 2 {
		score += 20
	}
	if f.VIX < 20 {
		score += 15
	}

	return math.Min(100, score)
}

// EnsembleAgreement is 100 minus the population standard deviation of the
// five sub-scores.
func EnsembleAgreement(s core.ValidationScores) float64 {
	values := []float64{s.Quality, s.Outcome, s.MarketCondition, s.Timing, s.Risk}

	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))

	return core.Clamp(100-math.Sqrt(variance), 0, 100)
}
