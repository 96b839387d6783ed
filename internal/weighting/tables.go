package weighting

import "time"

// Step is one band of an ascending threshold table.
type Step struct {
	Limit      float64
	Multiplier float64
}

// Tables holds the multiplier tables behind the time, volatility and
// market-condition components. They are defaults, not business rules, and
// can be replaced per deployment.
type Tables struct {
	Hour        map[int]float64
	HourDefault float64

	Weekday        map[time.Weekday]float64
	WeekdayDefault float64

	// Expiry applies the first step whose Limit is >= days to expiry.
	Expiry        []Step
	ExpiryDefault float64

	InSession    float64
	OutOfSession float64

	// VIX applies the first step whose Limit is > the index level.
	VIX        []Step
	VIXDefault float64

	Regime map[string]float64
}

// DefaultTables returns the stock multipliers.
func DefaultTables() Tables {
	return Tables{
		Hour: map[int]float64{
			9: 1.2, 10: 1.2, 11: 1.2,
			12: 1.1, 13: 1.1, 14: 1.1,
			15: 1.0, 16: 1.0,
		},
		HourDefault: 0.7,
		Weekday: map[time.Weekday]float64{
			time.Monday:    0.9,
			time.Tuesday:   1.1,
			time.Wednesday: 1.2,
			time.Thursday:  1.1,
			time.Friday:    0.8,
		},
		WeekdayDefault: 0.5,
		Expiry: []Step{
			{Limit: 0.5, Multiplier: 0.6},
			{Limit: 1, Multiplier: 0.8},
			{Limit: 2, Multiplier: 1.0},
			{Limit: 3, Multiplier: 1.1},
		},
		ExpiryDefault: 0.9,
		InSession:     1.0,
		OutOfSession:  0.5,
		VIX: []Step{
			{Limit: 12, Multiplier: 0.8},
			{Limit: 20, Multiplier: 1.0},
			{Limit: 30, Multiplier: 1.1},
		},
		VIXDefault: 0.9,
		Regime: map[string]float64{
			"Strongly Bullish": 1.2,
			"Bullish":          1.1,
			"Neutral":          1.0,
			"Bearish":          0.9,
			"Strongly Bearish": 0.8,
		},
	}
}

func (t Tables) hour(h int) float64 {
	if m, ok := t.Hour[h]; ok {
		return m
	}
	return t.HourDefault
}

func (t Tables) weekday(d time.Weekday) float64 {
	if m, ok := t.Weekday[d]; ok {
		return m
	}
	return t.WeekdayDefault
}

func (t Tables) expiry(days float64) float64 {
	for _, s := range t.Expiry {
		if days <= s.Limit {
			return s.Multiplier
		}
	}
	return t.ExpiryDefault
}

func (t Tables) vix(level float64) float64 {
	for _, s := range t.VIX {
		if level < s.Limit {
			return s.Multiplier
		}
	}
	return t.VIXDefault
}

func (t Tables) regime(trend string) float64 {
	if m, ok := t.Regime[trend]; ok {
		return m
	}
	return 1.0
}

// VolatilityRegime buckets the index level for per-regime performance.
func VolatilityRegime(vix float64) string {
	switch {
	case vix < 12:
		return "Low"
	case vix < 20:
		return "Normal"
	case vix < 30:
		return "High"
	default:
		return "Extreme"
	}
}
