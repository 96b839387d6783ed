package pattern

import (
	"math"
	"sort"
	"time"

	"github.com/newthinker/augur/internal/core"
)

const (
	headShouldersWindow = 20
	levelTolerance      = 0.01
	maxLevelsPerSide    = 3
)

type extremum struct {
	index int
	price float64
}

// localMaxima returns indices whose value exceeds both neighbours on each side.
func localMaxima(values []float64) []extremum {
	var out []extremum
	for i := 2; i < len(values)-2; i++ {
		v := values[i]
		if v > values[i-1] && v > values[i-2] && v > values[i+1] && v > values[i+2] {
			out = append(out, extremum{i, v})
		}
	}
	return out
}

func localMinima(values []float64) []extremum {
	neg := make([]float64, len(values))
	for i, v := range values {
		neg[i] = -v
	}
	out := localMaxima(neg)
	for i := range out {
		out[i].price = -out[i].price
	}
	return out
}

// HeadAndShoulders looks for three or more peaks in the last 20 candles,
// takes the tallest as the head and its nearest peaks as the shoulders.
func HeadAndShoulders(candles []core.OHLCV) (core.DetectedPattern, bool) {
	if len(candles) < headShouldersWindow {
		return core.DetectedPattern{}, false
	}
	recent := candles[len(candles)-headShouldersWindow:]
	highs := make([]float64, len(recent))
	for i, c := range recent {
		highs[i] = c.High
	}

	peaks := localMaxima(highs)
	if len(peaks) < 3 {
		return core.DetectedPattern{}, false
	}

	headIdx := 0
	for i, p := range peaks {
		if p.price > peaks[headIdx].price {
			headIdx = i
		}
	}
	// peaks are in index order, so the neighbours are the nearest shoulders
	if headIdx == 0 || headIdx == len(peaks)-1 {
		return core.DetectedPattern{}, false
	}
	head, left, right := peaks[headIdx], peaks[headIdx-1], peaks[headIdx+1]
	if head.price <= 0 {
		return core.DetectedPattern{}, false
	}

	symmetry := math.Abs(left.price-right.price) / head.price
	return core.DetectedPattern{
		Name:              "Head and Shoulders",
		Confidence:        math.Max(60, 90-symmetry*1000),
		Direction:         core.Bearish,
		ExpectedMagnitude: head.price - math.Min(left.price, right.price),
		ExpectedDuration:  12 * time.Hour,
		Metrics: map[string]float64{
			"head_price":           head.price,
			"left_shoulder_price":  left.price,
			"right_shoulder_price": right.price,
			"symmetry":             symmetry,
		},
	}, true
}

// Level is a price touched repeatedly by local extremes.
type Level struct {
	Price      float64
	Touches    int
	Strength   float64
	Confidence float64
}

// SupportLevels clusters local lows within 1% and keeps the three
// strongest with at least two touches.
func SupportLevels(candles []core.OHLCV) []Level {
	lows := make([]float64, len(candles))
	for i, c := range candles {
		lows[i] = c.Low
	}
	return levels(lows, localMinima(lows))
}

// ResistanceLevels is SupportLevels over local highs.
func ResistanceLevels(candles []core.OHLCV) []Level {
	highs := make([]float64, len(candles))
	for i, c := range candles {
		highs[i] = c.High
	}
	return levels(highs, localMaxima(highs))
}

func levels(values []float64, extremes []extremum) []Level {
	var out []Level
	for _, ex := range extremes {
		if clustered(out, ex.price) {
			continue
		}
		touches := 0
		for _, v := range values {
			if math.Abs(v-ex.price) < ex.price*levelTolerance {
				touches++
			}
		}
		if touches < 2 {
			continue
		}
		out = append(out, Level{
			Price:      ex.price,
			Touches:    touches,
			Strength:   math.Min(100, float64(touches)*20),
			Confidence: math.Min(90, 50+float64(touches)*10),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Strength > out[j].Strength })
	if len(out) > maxLevelsPerSide {
		out = out[:maxLevelsPerSide]
	}
	return out
}

func clustered(levels []Level, price float64) bool {
	for _, l := range levels {
		if math.Abs(l.Price-price) < l.Price*levelTolerance {
			return true
		}
	}
	return false
}

// SupportResistance reports support levels as bullish and resistance
// levels as bearish patterns.
func SupportResistance(candles []core.OHLCV) []core.DetectedPattern {
	var out []core.DetectedPattern
	for _, l := range SupportLevels(candles) {
		out = append(out, levelPattern("Support Level", core.Bullish, "support_level", l))
	}
	for _, l := range ResistanceLevels(candles) {
		out = append(out, levelPattern("Resistance Level", core.Bearish, "resistance_level", l))
	}
	return out
}

func levelPattern(name string, dir core.PatternDirection, key string, l Level) core.DetectedPattern {
	return core.DetectedPattern{
		Name:              name,
		Confidence:        l.Confidence,
		Direction:         dir,
		ExpectedMagnitude: l.Strength,
		ExpectedDuration:  4 * time.Hour,
		Metrics: map[string]float64{
			key:        l.Price,
			"touches":  float64(l.Touches),
			"strength": l.Strength,
		},
	}
}
