package indicator

import (
	"sync"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"
	"github.com/cinar/indicator/v2/volatility"
)

// RSI calculates the Relative Strength Index.
func RSI(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period+1 {
		return []float64{}
	}
	rsi := momentum.NewRsiWithPeriod[float64](period)
	return helper.ChanToSlice(rsi.Compute(helper.SliceToChan(prices)))
}

// MACD returns the MACD line and its signal line.
func MACD(prices []float64, fast, slow, signal int) ([]float64, []float64) {
	if len(prices) < slow {
		return []float64{}, []float64{}
	}
	macd := trend.NewMacdWithPeriod[float64](fast, slow, signal)
	line, sig := macd.Compute(helper.SliceToChan(prices))

	// Both outputs share one upstream and must be drained together.
	var (
		lineValues   []float64
		signalValues []float64
		wg           sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		lineValues = helper.ChanToSlice(line)
	}()
	go func() {
		defer wg.Done()
		signalValues = helper.ChanToSlice(sig)
	}()
	wg.Wait()

	return lineValues, signalValues
}

// BollingerBands returns the upper, middle and lower bands.
func BollingerBands(prices []float64, period int) ([]float64, []float64, []float64) {
	if period <= 0 || len(prices) < period {
		return []float64{}, []float64{}, []float64{}
	}
	bb := volatility.NewBollingerBandsWithPeriod[float64](period)
	upper, middle, lower := bb.Compute(helper.SliceToChan(prices))

	var (
		upperValues  []float64
		middleValues []float64
		lowerValues  []float64
		wg           sync.WaitGroup
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		upperValues = helper.ChanToSlice(upper)
	}()
	go func() {
		defer wg.Done()
		middleValues = helper.ChanToSlice(middle)
	}()
	go func() {
		defer wg.Done()
		lowerValues = helper.ChanToSlice(lower)
	}()
	wg.Wait()

	return upperValues, middleValues, lowerValues
}

// ATR calculates the Average True Range.
func ATR(high, low, closing []float64, period int) []float64 {
	if period <= 0 || len(high) < period || len(low) < period || len(closing) < period {
		return []float64{}
	}
	atr := volatility.NewAtrWithPeriod[float64](period)
	return helper.ChanToSlice(atr.Compute(
		helper.SliceToChan(high),
		helper.SliceToChan(low),
		helper.SliceToChan(closing),
	))
}

// Stochastic returns the %K and %D lines of the stochastic oscillator.
func Stochastic(high, low, closing []float64) ([]float64, []float64) {
	if len(high) == 0 || len(high) != len(low) || len(low) != len(closing) {
		return []float64{}, []float64{}
	}
	stoch := momentum.NewStochasticOscillator[float64]()
	k, d := stoch.Compute(
		helper.SliceToChan(high),
		helper.SliceToChan(low),
		helper.SliceToChan(closing),
	)

	var (
		kValues []float64
		dValues []float64
		wg      sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		kValues = helper.ChanToSlice(k)
	}()
	go func() {
		defer wg.Done()
		dValues = helper.ChanToSlice(d)
	}()
	wg.Wait()

	return kValues, dValues
}

// WilliamsR is %R over the trailing period ending at the last bar, in
// [-100, 0].
func WilliamsR(high, low, closing []float64, period int) float64 {
	n := len(closing)
	if period <= 0 || n < period || len(high) != n || len(low) != n {
		return 0
	}
	hh, ll := high[n-period], low[n-period]
	for i := n - period + 1; i < n; i++ {
		hh = max(hh, high[i])
		ll = min(ll, low[i])
	}
	if hh == ll {
		return 0
	}
	return (hh - closing[n-1]) / (hh - ll) * -100
}
