package indicator

import "math"

// Bands is a Bollinger band triple aligned with the source series.
type Bands struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// Bollinger returns the middle SMA with upper and lower bands k sample
// standard deviations away.
func Bollinger(series []float64, period int, k float64) Bands {
	mid := Sma(series, period)
	std := rollingStd(series, period)
	upper := nanSlice(len(series))
	lower := nanSlice(len(series))
	for i := range series {
		if math.IsNaN(mid[i]) || math.IsNaN(std[i]) {
			continue
		}
		upper[i] = mid[i] + k*std[i]
		lower[i] = mid[i] - k*std[i]
	}
	return Bands{Upper: upper, Middle: mid, Lower: lower}
}

// MacdResult holds the MACD line, its signal line and the histogram.
type MacdResult struct {
	Line      []float64
	Signal    []float64
	Histogram []float64
}

// Macd is Ema(fast)-Ema(slow) with an Ema(signal) of the difference.
func Macd(series []float64, fast, slow, signal int) MacdResult {
	fastEma := Ema(series, fast)
	slowEma := Ema(series, slow)
	line := nanSlice(len(series))
	for i := range series {
		line[i] = fastEma[i] - slowEma[i]
	}
	sig := Ema(line, signal)
	hist := nanSlice(len(series))
	for i := range series {
		hist[i] = line[i] - sig[i]
	}
	return MacdResult{Line: line, Signal: sig, Histogram: hist}
}

// Atr is the SMA of true range over period bars. True range at bar i compares
// the bar's own range with the gap from the previous close.
func Atr(high, low, close []float64, period int) []float64 {
	n := len(close)
	tr := nanSlice(n)
	for i := 0; i < n; i++ {
		hl := high[i] - low[i]
		if i == 0 {
			tr[i] = hl
			continue
		}
		hc := math.Abs(high[i] - close[i-1])
		lc := math.Abs(low[i] - close[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	return Sma(tr, period)
}

// Stochastic returns %K, the position of the close inside the trailing
// period-bar high/low range, scaled to 0..100.
func Stochastic(high, low, close []float64, period int) []float64 {
	n := len(close)
	out := nanSlice(n)
	for i := period - 1; i < n; i++ {
		hi, lo := math.Inf(-1), math.Inf(1)
		bad := false
		for j := i - period + 1; j <= i; j++ {
			if math.IsNaN(high[j]) || math.IsNaN(low[j]) {
				bad = true
				break
			}
			hi = math.Max(hi, high[j])
			lo = math.Min(lo, low[j])
		}
		if bad || math.IsNaN(close[i]) || hi == lo {
			continue
		}
		out[i] = 100 * (close[i] - lo) / (hi - lo)
	}
	return out
}

// rollingStd is the trailing sample standard deviation (n-1 denominator).
func rollingStd(series []float64, period int) []float64 {
	out := nanSlice(len(series))
	if period < 2 {
		return out
	}
	for i := period - 1; i < len(series); i++ {
		mean := windowMean(series, i, period)
		if math.IsNaN(mean) {
			continue
		}
		ss := 0.0
		for j := i - period + 1; j <= i; j++ {
			d := series[j] - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(period-1))
	}
	return out
}
