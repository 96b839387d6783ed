package validation

import (
	"fmt"
	"math"

	"github.com/newthinker/augur/internal/core"
)

// AssessRisk breaks the risk sub-score into its drivers. OverallRiskScore is
// the risk sub-score itself, so higher means safer; the component risks are
// 0-100 where higher means riskier.
func AssessRisk(f core.SignalFeatures, scores core.ValidationScores) core.RiskAssessment {
	ra := core.RiskAssessment{
		OverallRiskScore: scores.Risk,
		VolatilityRisk:   core.Clamp(f.VIX*4, 0, 100),
		TimingRisk:       core.Clamp(100-scores.Timing, 0, 100),
		LiquidityRisk:    liquidityRisk(f.Volume),
		MarketRisk:       core.Clamp(math.Abs(f.UnderlyingChange)*20, 0, 100),
		RiskFactors:      []string{},
	}

	if f.VIX >= 25 {
		ra.RiskFactors = append(ra.RiskFactors, fmt.Sprintf("Elevated volatility (VIX %.1f)", f.VIX))
	}
	if f.TimeToExpiry <= 2 {
		ra.RiskFactors = append(ra.RiskFactors, fmt.Sprintf("Close to expiry (%.0f days)", f.TimeToExpiry))
	}
	if f.Volume < 100_000 {
		ra.RiskFactors = append(ra.RiskFactors, "Thin liquidity")
	}
	if math.Abs(f.UnderlyingChange) >= 1.5 {
		ra.RiskFactors = append(ra.RiskFactors, fmt.Sprintf("Large underlying move (%.2f%%)", f.UnderlyingChange))
	}
	if f.HourOfDay < 9 || f.HourOfDay > 15 {
		ra.RiskFactors = append(ra.RiskFactors, "Outside regular trading hours")
	}

	switch {
	case ra.OverallRiskScore < 40:
		ra.RiskLevel = core.RiskHigh
	case ra.OverallRiskScore < 70:
		ra.RiskLevel = core.RiskMedium
	default:
		ra.RiskLevel = core.RiskLow
	}
	ra.SuggestedPositionSize = core.Clamp(ra.OverallRiskScore/100, 0.25, 1)

	return ra
}

func liquidityRisk(volume int64) float64 {
	switch {
	case volume >= 1_000_000:
		return 20
	case volume >= 100_000:
		return 50
	default:
		return 80
	}
}
