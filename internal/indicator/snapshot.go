package indicator

import "github.com/newthinker/augur/internal/core"

// Standard periods used for the indicator snapshot.
const (
	RSIPeriod       = 14
	ATRPeriod       = 14
	WilliamsPeriod  = 14
	BollingerPeriod = 20
	MACDFast        = 12
	MACDSlow        = 26
	MACDSignal      = 9
)

// MinCandles is the shortest series worth computing a snapshot from.
const MinCandles = 20

// Snapshot computes the latest indicator values from an ordered candle
// series. Indicators that need more history than is available are zero.
func Snapshot(candles []core.OHLCV) core.TechnicalIndicators {
	var out core.TechnicalIndicators
	if len(candles) == 0 {
		return out
	}

	closes := make([]float64, len(candles))
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
	}

	out.RSI = Last(RSI(closes, RSIPeriod))
	out.SMA20 = Last(SMA(closes, 20))
	out.SMA50 = Last(SMA(closes, 50))

	if line, _ := MACD(closes, MACDFast, MACDSlow, MACDSignal); len(line) > 0 {
		out.MACD = Last(line)
	}

	upper, _, lower := BollingerBands(closes, BollingerPeriod)
	if len(upper) > 0 && len(lower) > 0 {
		u, l := Last(upper), Last(lower)
		if u > l {
			out.BandPosition = core.Clamp((closes[len(closes)-1]-l)/(u-l), 0, 1)
		}
	}

	out.ATR = Last(ATR(highs, lows, closes, ATRPeriod))
	if k, _ := Stochastic(highs, lows, closes); len(k) > 0 {
		out.Stochastic = Last(k)
	}
	out.WilliamsR = WilliamsR(highs, lows, closes, WilliamsPeriod)

	return out
}
