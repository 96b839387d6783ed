package pattern

import (
	"time"

	"github.com/newthinker/augur/internal/core"
)

// Doji reports a last candle whose body is under 10% of its range.
func Doji(candles []core.OHLCV) (core.DetectedPattern, bool) {
	if len(candles) == 0 {
		return core.DetectedPattern{}, false
	}
	c := candles[len(candles)-1]

	rng := c.Range()
	if rng <= 0 {
		return core.DetectedPattern{}, false
	}
	ratio := c.Body() / rng
	if ratio >= 0.1 {
		return core.DetectedPattern{}, false
	}

	return core.DetectedPattern{
		Name:              "Doji",
		Confidence:        80 - ratio*100,
		Direction:         core.Neutral,
		ExpectedMagnitude: rng * 0.5,
		ExpectedDuration:  2 * time.Hour,
		Metrics: map[string]float64{
			"body_ratio":   ratio,
			"total_range":  rng,
			"upper_shadow": c.UpperShadow(),
			"lower_shadow": c.LowerShadow(),
		},
	}, true
}

// Hammer reports a long lower shadow under a small body.
func Hammer(candles []core.OHLCV) (core.DetectedPattern, bool) {
	if len(candles) == 0 {
		return core.DetectedPattern{}, false
	}
	c := candles[len(candles)-1]

	body, lower, upper := c.Body(), c.LowerShadow(), c.UpperShadow()
	if body <= 0 || lower <= body*2 || upper >= body*0.5 {
		return core.DetectedPattern{}, false
	}

	return core.DetectedPattern{
		Name:              "Hammer",
		Confidence:        min(90, 60+(lower/body)*5),
		Direction:         core.Bullish,
		ExpectedMagnitude: lower * 0.7,
		ExpectedDuration:  4 * time.Hour,
		Metrics: map[string]float64{
			"lower_shadow_ratio": lower / body,
			"upper_shadow_ratio": upper / body,
			"body_size":          body,
		},
	}, true
}

// ShootingStar mirrors Hammer with a long upper shadow.
func ShootingStar(candles []core.OHLCV) (core.DetectedPattern, bool) {
	if len(candles) == 0 {
		return core.DetectedPattern{}, false
	}
	c := candles[len(candles)-1]

	body, lower, upper := c.Body(), c.LowerShadow(), c.UpperShadow()
	if body <= 0 || upper <= body*2 || lower >= body*0.5 {
		return core.DetectedPattern{}, false
	}

	return core.DetectedPattern{
		Name:              "Shooting Star",
		Confidence:        min(90, 60+(upper/body)*5),
		Direction:         core.Bearish,
		ExpectedMagnitude: upper * 0.7,
		ExpectedDuration:  4 * time.Hour,
		Metrics: map[string]float64{
			"upper_shadow_ratio": upper / body,
			"lower_shadow_ratio": lower / body,
			"body_size":          body,
		},
	}, true
}

// Engulfing reports a last candle whose body engulfs the previous,
// opposite-coloured body and is at least 1.2 times its size.
func Engulfing(candles []core.OHLCV) (core.DetectedPattern, bool) {
	if len(candles) < 2 {
		return core.DetectedPattern{}, false
	}
	cur, prev := candles[len(candles)-1], candles[len(candles)-2]

	curBody, prevBody := cur.Body(), prev.Body()
	if prevBody <= 0 || curBody <= prevBody*1.2 {
		return core.DetectedPattern{}, false
	}

	p := core.DetectedPattern{
		Confidence:        75,
		ExpectedMagnitude: curBody * 1.5,
		ExpectedDuration:  6 * time.Hour,
		Metrics:           map[string]float64{"body_size_ratio": curBody / prevBody},
	}

	switch {
	case prev.IsBearish() && cur.IsBullish() && cur.Open < prev.Close && cur.Close > prev.Open:
		p.Name = "Bullish Engulfing"
		p.Direction = core.Bullish
		p.Metrics["engulfment"] = (cur.Close - prev.Open) / prevBody
	case prev.IsBullish() && cur.IsBearish() && cur.Open > prev.Close && cur.Close < prev.Open:
		p.Name = "Bearish Engulfing"
		p.Direction = core.Bearish
		p.Metrics["engulfment"] = (prev.Open - cur.Close) / prevBody
	default:
		return core.DetectedPattern{}, false
	}
	return p, true
}

// Star reports a Morning Star or Evening Star over the last three candles.
func Star(candles []core.OHLCV) (core.DetectedPattern, bool) {
	if len(candles) < 3 {
		return core.DetectedPattern{}, false
	}
	first, star, third := candles[len(candles)-3], candles[len(candles)-2], candles[len(candles)-1]

	firstBody := first.Body()
	if firstBody <= 0 || star.Body() >= firstBody*0.5 {
		return core.DetectedPattern{}, false
	}
	mid := (first.Open + first.Close) / 2

	p := core.DetectedPattern{
		Confidence:        80,
		ExpectedMagnitude: firstBody * 1.2,
		ExpectedDuration:  8 * time.Hour,
		Metrics:           map[string]float64{"star_body_ratio": star.Body() / firstBody},
	}

	switch {
	case first.IsBearish() && star.High < first.Close && third.IsBullish() && third.Close > mid:
		p.Name = "Morning Star"
		p.Direction = core.Bullish
		p.Metrics["gap_size"] = first.Close - star.High
		p.Metrics["penetration"] = (third.Close - mid) / firstBody
	case first.IsBullish() && star.Low > first.Close && third.IsBearish() && third.Close < mid:
		p.Name = "Evening Star"
		p.Direction = core.Bearish
		p.Metrics["gap_size"] = star.Low - first.Close
		p.Metrics["penetration"] = (mid - third.Close) / firstBody
	default:
		return core.DetectedPattern{}, false
	}
	return p, true
}
