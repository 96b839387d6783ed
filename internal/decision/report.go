// internal/decision/report.go
package decision

import (
	"fmt"
	"time"

	"github.com/newthinker/augur/internal/core"
)

var assessments = map[core.DecisionLabel]string{
	core.DecisionStrongBuy:  "Highly favorable conditions for aggressive position entry",
	core.DecisionBuy:        "Good conditions for position entry with standard size",
	core.DecisionWeakBuy:    "Moderately favorable conditions for small position entry",
	core.DecisionHold:       "Mixed signals suggest holding current positions",
	core.DecisionWeakSell:   "Slightly unfavorable conditions suggest position reduction",
	core.DecisionSell:       "Unfavorable conditions suggest position exit",
	core.DecisionStrongSell: "Highly unfavorable conditions require immediate position exit",
}

// BuildReport renders the deterministic narrative for a decision.
func BuildReport(sig *core.EnhancedSignal, sentiment *core.SentimentResult, weight *core.WeightResult, d *core.TradingDecision, at time.Time) *core.Report {
	if sentiment == nil {
		sentiment = &core.SentimentResult{Direction: "Neutral"}
	}
	adaptive := 1.0
	if weight != nil {
		adaptive = weight.AdaptiveWeight
	}

	assessment, ok := assessments[d.Decision]
	if !ok {
		assessment = "Neutral assessment"
	}

	return &core.Report{
		GeneratedAt:        at,
		SignalID:           sig.SignalID,
		OverallAssessment:  assessment,
		KeyStrengths:       strengths(sig, sentiment, adaptive),
		KeyWeaknesses:      weaknesses(sig, sentiment, adaptive),
		Recommendations:    recommendations(d),
		RiskConsiderations: riskConsiderations(sig.Risk),
		MarketContext:      marketContext(sentiment),
		Technical:          technical(sig.Patterns),
		Timeframe:          timeframe(d.Confidence),
	}
}

// SentimentReportThreshold is the alignment above which sentiment is called
// out in the report.
const SentimentReportThreshold = 0.2

func strengths(sig *core.EnhancedSignal, sentiment *core.SentimentResult, weight float64) []string {
	out := []string{}
	if sig.ConfidenceScore >= 80 {
		out = append(out, "High AI confidence score")
	}
	if SentimentAlignment(sig.Alert, sentiment.Score) > SentimentReportThreshold {
		out = append(out, "Market sentiment aligned with signal direction")
	}
	if weight > 1.2 {
		out = append(out, "Favorable adaptive weighting")
	}
	for _, p := range sig.Patterns {
		if p.Confidence >= 80 {
			out = append(out, "Strong technical patterns detected")
			break
		}
	}
	return out
}

func weaknesses(sig *core.EnhancedSignal, sentiment *core.SentimentResult, weight float64) []string {
	out := []string{}
	if sig.ConfidenceScore < 50 {
		out = append(out, "Low AI confidence score")
	}
	// Opposition is alignment against the flipped score.
	if SentimentAlignment(sig.Alert, -sentiment.Score) > SentimentReportThreshold {
		out = append(out, "Market sentiment opposes signal direction")
	}
	if weight < 0.8 {
		out = append(out, "Unfavorable adaptive weighting")
	}
	if sig.Risk.OverallRiskScore < 40 {
		out = append(out, "High risk assessment")
	}
	return out
}

func recommendations(d *core.TradingDecision) []string {
	out := []string{
		"Suggested action: " + string(d.Decision),
		fmt.Sprintf("Position size: %.2fx standard", d.SuggestedPositionSize),
		"Risk level: " + string(d.RiskLevel),
	}
	if d.Confidence < 60 {
		out = append(out, "Consider waiting for higher confidence signals")
	}
	return out
}

func riskConsiderations(r core.RiskAssessment) []string {
	out := []string{
		fmt.Sprintf("Overall risk score: %.1f/100", r.OverallRiskScore),
		fmt.Sprintf("Volatility risk: %.1f/100", r.VolatilityRisk),
		fmt.Sprintf("Timing risk: %.1f/100", r.TimingRisk),
	}
	return append(out, r.RiskFactors...)
}

func marketContext(s *core.SentimentResult) []string {
	return []string{
		"Market sentiment: " + s.Direction,
		fmt.Sprintf("Sentiment score: %.1f/100", s.Score),
		fmt.Sprintf("Confidence level: %.1f%%", s.Confidence),
	}
}

func technical(patterns []core.DetectedPattern) []string {
	out := []string{fmt.Sprintf("Detected patterns: %d", len(patterns))}
	if len(patterns) == 0 {
		return out
	}
	top := patterns[0]
	for _, p := range patterns[1:] {
		if p.Confidence > top.Confidence {
			top = p
		}
	}
	return append(out, fmt.Sprintf("Top pattern: %s (%.1f%% confidence)", top.Name, top.Confidence))
}

func timeframe(confidence float64) []string {
	switch {
	case confidence >= 80:
		return []string{"Suitable for immediate execution"}
	case confidence >= 60:
		return []string{"Consider execution within next 30 minutes"}
	default:
		return []string{"Wait for better timing or higher confidence"}
	}
}
