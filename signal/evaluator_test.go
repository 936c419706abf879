package signal

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"stratdsl/dsl"
	"stratdsl/market"
)

func tableFromCloses(closes []float64) *market.Table {
	n := len(closes)
	tbl := &market.Table{
		Times:  make([]time.Time, n),
		Open:   make([]float64, n),
		High:   make([]float64, n),
		Low:    make([]float64, n),
		Close:  closes,
		Volume: make([]float64, n),
	}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		tbl.Times[i] = base.AddDate(0, 0, i)
		tbl.Open[i] = closes[i]
		tbl.High[i] = closes[i] + 1
		tbl.Low[i] = closes[i] - 1
		tbl.Volume[i] = 1000
	}
	return tbl
}

func compile(t *testing.T, text string) *Evaluator {
	t.Helper()
	s, err := dsl.Parse(text)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	e, err := Compile(s)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	return e
}

func TestCrossingSemantics(t *testing.T) {
	// Left 1,3,2,5 against constant 2: strictly above at bars 1 and 3, and at
	// or below on the bar before each, so both bars fire.
	e := compile(t, "ENTRY: close CROSSES_ABOVE 2\nEXIT: close CROSSES_BELOW 2")
	sig, err := e.Evaluate(tableFromCloses([]float64{1, 3, 2, 5}))
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	wantEntry := []bool{false, true, false, true}
	if !reflect.DeepEqual(sig.Entry, wantEntry) {
		t.Fatalf("entry = %v, want %v", sig.Entry, wantEntry)
	}
	wantExit := []bool{false, false, false, false}
	if !reflect.DeepEqual(sig.Exit, wantExit) {
		t.Fatalf("exit = %v, want %v", sig.Exit, wantExit)
	}
}

func TestWarmupBarsAreFalse(t *testing.T) {
	e := compile(t, "ENTRY: sma(close, 3) > 0\nEXIT: FALSE")
	sig, err := e.Evaluate(tableFromCloses([]float64{10, 11, 12, 13}))
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	want := []bool{false, false, true, true}
	if !reflect.DeepEqual(sig.Entry, want) {
		t.Fatalf("entry = %v, want %v", sig.Entry, want)
	}
}

func TestIndicatorCacheDeduplicates(t *testing.T) {
	e := compile(t, `
		ENTRY: sma(close, 3) > 10 AND sma(close, 3) < 20 OR sma(close, 5) > 0
		EXIT: sma(close, 3) < 5
	`)
	keys := e.IndicatorKeys()
	want := []string{"sma(close,3)", "sma(close,5)"}
	if !reflect.DeepEqual(keys, want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	ctx, _, err := e.run(tableFromCloses([]float64{10, 11, 12, 13, 14, 15}))
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if ctx.computed != 2 {
		t.Fatalf("computed %d indicator series, want 2", ctx.computed)
	}
}

func TestNestedIndicatorResolvesThroughCache(t *testing.T) {
	// The outer key sorts before the inner one, so the nested resolution path
	// has to compute the inner series on demand.
	e := compile(t, "ENTRY: ema(sma(close, 2), 2) > 0\nEXIT: FALSE")
	keys := e.IndicatorKeys()
	want := []string{"ema(sma(close,2),2)", "sma(close,2)"}
	if !reflect.DeepEqual(keys, want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	ctx, sig, err := e.run(tableFromCloses([]float64{10, 11, 12, 13, 14}))
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	if ctx.computed != 2 {
		t.Fatalf("computed %d series, want 2", ctx.computed)
	}
	if !sig.Entry[4] {
		t.Fatalf("entry = %v, want true on final bar", sig.Entry)
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	e := compile(t, `
		ENTRY: sma(close, 3) CROSSES_ABOVE sma(close, 5) AND rsi(close, 3) < 80
		EXIT: close < prev(close, 1)
	`)
	tbl := tableFromCloses([]float64{10, 9, 11, 12, 10, 13, 14, 12, 15, 16})
	first, err := e.Evaluate(tbl)
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := e.Evaluate(tbl)
		if err != nil {
			t.Fatalf("Evaluate error: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d diverged: %v vs %v", i, first, again)
		}
	}
}

func TestDefaultPeriods(t *testing.T) {
	e := compile(t, "ENTRY: close > prev(close)\nEXIT: rsi(close) > 70")
	keys := e.IndicatorKeys()
	want := []string{"prev(close)", "rsi(close)"}
	if !reflect.DeepEqual(keys, want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	if _, err := e.Evaluate(tableFromCloses([]float64{1, 2, 3})); err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
}

func TestMissingPeriodIsRuntimeError(t *testing.T) {
	e := compile(t, "ENTRY: sma(close) > 0\nEXIT: FALSE")
	_, err := e.Evaluate(tableFromCloses([]float64{1, 2, 3}))
	var re *RuntimeError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v, want *RuntimeError", err)
	}
	if re.Indicator != "sma" {
		t.Fatalf("error names %q, want sma", re.Indicator)
	}
}

func TestFractionalPeriodIsRuntimeError(t *testing.T) {
	e := compile(t, "ENTRY: sma(close, 2.5) > 0\nEXIT: FALSE")
	_, err := e.Evaluate(tableFromCloses([]float64{1, 2, 3}))
	var re *RuntimeError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v, want *RuntimeError", err)
	}
}

func TestIntegerSpelledWithDecimalPoint(t *testing.T) {
	// 3.0 has a zero fractional part and counts as an integer period.
	e := compile(t, "ENTRY: sma(close, 3.0) > 0\nEXIT: FALSE")
	if got := e.IndicatorKeys(); got[0] != "sma(close,3)" {
		t.Fatalf("key = %q", got[0])
	}
	if _, err := e.Evaluate(tableFromCloses([]float64{1, 2, 3, 4})); err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
}

func TestDivisionByZeroIsUndefined(t *testing.T) {
	e := compile(t, "ENTRY: close / volume > 0\nEXIT: FALSE")
	tbl := tableFromCloses([]float64{5, 5})
	tbl.Volume = []float64{0, 10}
	sig, err := e.Evaluate(tbl)
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	if sig.Entry[0] {
		t.Fatal("division by zero produced a firing signal")
	}
	if !sig.Entry[1] {
		t.Fatal("well-defined division did not fire")
	}
}

func TestNaNNeverFires(t *testing.T) {
	e := compile(t, "ENTRY: close == close\nEXIT: FALSE")
	closes := []float64{1, math.NaN(), 3}
	sig, err := e.Evaluate(tableFromCloses(closes))
	if err != nil {
		t.Fatalf("Evaluate error: %v", err)
	}
	want := []bool{true, false, true}
	if !reflect.DeepEqual(sig.Entry, want) {
		t.Fatalf("entry = %v, want %v", sig.Entry, want)
	}
}
