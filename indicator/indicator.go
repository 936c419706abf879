// Package indicator implements the technical indicators available to the
// strategy language. Every function takes aligned series, returns a series of
// the same length, and marks warm-up positions with NaN. Inputs are never
// mutated.
package indicator

import (
	"fmt"
	"math"
)

// Kind identifies one indicator in the closed registry. The set is fixed, so
// dispatch is an exhaustive switch rather than an open function table.
type Kind int

const (
	SMA Kind = iota
	EMA
	RSI
	Prev
)

func (k Kind) String() string {
	switch k {
	case SMA:
		return "sma"
	case EMA:
		return "ema"
	case RSI:
		return "rsi"
	case Prev:
		return "prev"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

var registry = map[string]Kind{
	"sma":  SMA,
	"ema":  EMA,
	"rsi":  RSI,
	"prev": Prev,
}

// Lookup resolves a lowercase indicator name to its Kind.
func Lookup(name string) (Kind, bool) {
	k, ok := registry[name]
	return k, ok
}

// Names returns the registry names, sorted.
func Names() []string {
	return []string{"ema", "prev", "rsi", "sma"}
}

// DefaultPeriod returns the implied period parameter for kinds that allow a
// single-argument call, and ok=false for kinds that require it explicitly.
func DefaultPeriod(k Kind) (int, bool) {
	switch k {
	case RSI:
		return 14, true
	case Prev:
		return 1, true
	}
	return 0, false
}

// Compute dispatches to the indicator implementation for k.
func Compute(k Kind, series []float64, period int) ([]float64, error) {
	switch k {
	case SMA:
		return Sma(series, period), nil
	case EMA:
		return Ema(series, period), nil
	case RSI:
		return Rsi(series, period), nil
	case Prev:
		return Shift(series, period), nil
	}
	return nil, fmt.Errorf("unhandled indicator kind %v", k)
}

// Sma is the trailing arithmetic mean over period bars. Undefined until
// period bars exist; a window containing NaN stays undefined.
func Sma(series []float64, period int) []float64 {
	out := nanSlice(len(series))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(series); i++ {
		out[i] = windowMean(series, i, period)
	}
	return out
}

// Ema is the exponentially weighted mean with span=period (alpha=2/(period+1)),
// seeded at the first defined value and undefined until period defined values
// have been folded in.
func Ema(series []float64, period int) []float64 {
	out := nanSlice(len(series))
	if period <= 0 {
		return out
	}
	alpha := 2.0 / (float64(period) + 1.0)
	start := -1
	for i, v := range series {
		if !math.IsNaN(v) {
			start = i
			break
		}
	}
	if start < 0 {
		return out
	}
	ema := series[start]
	for i := start; i < len(series); i++ {
		if i > start && !math.IsNaN(series[i]) {
			ema = alpha*series[i] + (1-alpha)*ema
		}
		if i-start+1 >= period {
			out[i] = ema
		}
	}
	return out
}

// Rsi is 100 - 100/(1+RS) where RS is the ratio of average gain to average
// loss over trailing period-bar windows. The first delta has no predecessor,
// so the first defined value lands at index period.
func Rsi(series []float64, period int) []float64 {
	n := len(series)
	out := nanSlice(n)
	if period <= 0 || n == 0 {
		return out
	}
	gains := nanSlice(n)
	losses := nanSlice(n)
	for i := 1; i < n; i++ {
		d := series[i] - series[i-1]
		if math.IsNaN(d) {
			continue
		}
		if d > 0 {
			gains[i], losses[i] = d, 0
		} else {
			gains[i], losses[i] = 0, -d
		}
	}
	avgGain := Sma(gains, period)
	avgLoss := Sma(losses, period)
	for i := 0; i < n; i++ {
		if math.IsNaN(avgGain[i]) || math.IsNaN(avgLoss[i]) {
			continue
		}
		// avgLoss 0 with any gain gives rs=+Inf, i.e. RSI 100; 0/0 stays NaN.
		rs := avgGain[i] / avgLoss[i]
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// Shift returns the value exactly n bars prior; the first n bars are
// undefined. It backs the prev() indicator.
func Shift(series []float64, n int) []float64 {
	out := nanSlice(len(series))
	if n < 0 {
		return out
	}
	for i := n; i < len(series); i++ {
		out[i] = series[i-n]
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// windowMean averages series[i-period+1..i], NaN if the window has any NaN.
func windowMean(series []float64, i, period int) float64 {
	sum := 0.0
	for j := i - period + 1; j <= i; j++ {
		sum += series[j]
	}
	return sum / float64(period)
}
