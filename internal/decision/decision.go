// internal/decision/decision.go
package decision

import (
	"time"

	"github.com/newthinker/augur/internal/core"
)

// Factor weights of the decision score.
const (
	ConfidenceFactorWeight = 0.40
	SentimentFactorWeight  = 0.25
	PatternFactorWeight    = 0.20
	RiskFactorWeight       = 0.15
)

// Factor names as reported on the decision.
const (
	FactorConfidence = "AI Confidence"
	FactorSentiment  = "Sentiment Alignment"
	FactorPattern    = "Pattern Confirmation"
	FactorRisk       = "Risk Assessment"
)

// NoPatternFactor is the pattern confirmation used when nothing was detected.
const NoPatternFactor = 0.3

// StrongPatternConfidence marks a pattern that boosts confirmation.
const StrongPatternConfidence = 75

type labelRule struct {
	min   float64
	label core.DecisionLabel
}

// labelRules are evaluated in order; the first rule whose minimum the
// confidence reaches wins.
var labelRules = []labelRule{
	{80, core.DecisionStrongBuy},
	{70, core.DecisionBuy},
	{60, core.DecisionWeakBuy},
	{40, core.DecisionHold},
	{30, core.DecisionWeakSell},
	{20, core.DecisionSell},
}

// Label maps a decision confidence to its label.
func Label(confidence float64) core.DecisionLabel {
	for _, r := range labelRules {
		if confidence >= r.min {
			return r.label
		}
	}
	return core.DecisionStrongSell
}

// SentimentAlignment is |sentiment|/100 when the alert direction agrees with
// the sentiment sign, else 0. Puts are bullish, calls bearish.
func SentimentAlignment(alert core.Alert, sentiment float64) float64 {
	dir := alert.Direction()
	if dir == 0 || sentiment == 0 {
		return 0
	}
	if (dir > 0) != (sentiment > 0) {
		return 0
	}
	if sentiment < 0 {
		sentiment = -sentiment
	}
	return min(100, sentiment) / 100
}

// PatternConfirmation is the mean pattern confidence over 100, raised by
// 10% per strong pattern, or NoPatternFactor without patterns.
func PatternConfirmation(patterns []core.DetectedPattern) float64 {
	if len(patterns) == 0 {
		return NoPatternFactor
	}
	var sum float64
	strong := 0
	for _, p := range patterns {
		sum += p.Confidence
		if p.Confidence >= StrongPatternConfidence {
			strong++
		}
	}
	avg := sum / float64(len(patterns))
	return avg / 100 * (1 + 0.1*float64(strong))
}

// PositionSize scales a standard position by confidence and weight.
func PositionSize(confidence, weight float64) float64 {
	return max(0.3, confidence/100) * max(0.5, weight)
}

// RiskLevel grades the decision from the risk score and its confidence.
func RiskLevel(riskScore, confidence float64) core.RiskLevel {
	switch {
	case riskScore < 30 || confidence < 40:
		return core.RiskHigh
	case riskScore < 60 || confidence < 60:
		return core.RiskMedium
	default:
		return core.RiskLow
	}
}

// Decide combines the scored signal, market sentiment and adaptive weight
// into the final decision. It is a pure function of its inputs.
func Decide(sig *core.EnhancedSignal, sentiment *core.SentimentResult, weight *core.WeightResult, at time.Time) *core.TradingDecision {
	var sentimentScore float64
	if sentiment != nil {
		sentimentScore = sentiment.Score
	}
	adaptive := 1.0
	if weight != nil {
		adaptive = weight.AdaptiveWeight
	}

	factors := []core.DecisionFactor{
		{Name: FactorConfidence, Score: sig.ConfidenceScore / 100, Weight: ConfidenceFactorWeight},
		{Name: FactorSentiment, Score: SentimentAlignment(sig.Alert, sentimentScore), Weight: SentimentFactorWeight},
		{Name: FactorPattern, Score: PatternConfirmation(sig.Patterns), Weight: PatternFactorWeight},
		{Name: FactorRisk, Score: sig.Risk.OverallRiskScore / 100, Weight: RiskFactorWeight},
	}

	var score float64
	for _, f := range factors {
		score += f.Score * f.Weight
	}
	confidence := core.Clamp(score*adaptive*100, 0, 100)

	return &core.TradingDecision{
		Timestamp:             at,
		SignalID:              sig.SignalID,
		Decision:              Label(confidence),
		Confidence:            confidence,
		SuggestedPositionSize: PositionSize(confidence, adaptive),
		RiskLevel:             RiskLevel(sig.Risk.OverallRiskScore, confidence),
		Factors:               factors,
	}
}
