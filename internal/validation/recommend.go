package validation

import "github.com/newthinker/augur/internal/core"

type recommendationRule struct {
	name  string
	match func(confidence, risk float64) bool
	rec   core.Recommendation
}

// recommendationRules are evaluated in order; the first match wins.
var recommendationRules = []recommendationRule{
	{"strong_buy", func(c, r float64) bool { return c >= 80 && r >= 70 }, core.RecommendStrongBuy},
	{"buy", func(c, r float64) bool { return c >= 70 && r >= 60 }, core.RecommendBuy},
	{"weak_buy", func(c, r float64) bool { return c >= 60 && r >= 50 }, core.RecommendWeakBuy},
	{"hold", func(c, _ float64) bool { return c >= 40 && c < 60 }, core.RecommendHold},
	{"caution", func(c, r float64) bool { return c < 40 || r < 40 }, core.RecommendCaution},
}

// Recommend maps a composite confidence and risk sub-score to a
// recommendation. Unmatched combinations are Hold.
func Recommend(confidence, risk float64) core.Recommendation {
	for _, rule := range recommendationRules {
		if rule.match(confidence, risk) {
			return rule.rec
		}
	}
	return core.RecommendHold
}
