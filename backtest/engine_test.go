package backtest

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"stratdsl/market"
	"stratdsl/signal"
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

func signals(entry, exit []bool) *signal.Signals {
	return &signal.Signals{Entry: entry, Exit: exit}
}

func TestSingleRoundTrip(t *testing.T) {
	tbl := tableFromCloses([]float64{50, 60, 60, 58})
	sig := signals(
		[]bool{true, false, false, false},
		[]bool{false, true, false, false},
	)
	res, err := NewEngine(10000).Run(tbl, sig)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.TotalTrades != 1 {
		t.Fatalf("trades = %d, want 1", res.TotalTrades)
	}
	tr := res.Trades[0]
	if tr.Shares != 200 {
		t.Fatalf("shares = %v, want 200", tr.Shares)
	}
	if tr.PnL != 2000 {
		t.Fatalf("pnl = %v, want 2000", tr.PnL)
	}
	if tr.PnLPct != 0.2 {
		t.Fatalf("pnl_pct = %v, want 0.2", tr.PnLPct)
	}
	if res.FinalEquity != 12000 {
		t.Fatalf("final equity = %v, want 12000", res.FinalEquity)
	}
	if res.WinRatePct != 100 {
		t.Fatalf("win rate = %v", res.WinRatePct)
	}
}

func TestNoTradesIsIdempotent(t *testing.T) {
	tbl := tableFromCloses([]float64{50, 55, 60, 58})
	sig := signals(make([]bool, 4), make([]bool, 4))
	res, err := NewEngine(10000).Run(tbl, sig)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.TotalTrades != 0 {
		t.Fatalf("trades = %d, want 0", res.TotalTrades)
	}
	if res.FinalEquity != 10000 {
		t.Fatalf("final equity = %v, want 10000", res.FinalEquity)
	}
	if res.MaxDrawdownPct != 0 {
		t.Fatalf("max drawdown = %v, want 0", res.MaxDrawdownPct)
	}
	if len(res.EquityCurve) != 4 {
		t.Fatalf("curve length = %d, want 4", len(res.EquityCurve))
	}
}

func TestNoSameBarRoundTrip(t *testing.T) {
	// Entry and exit both true on bar 1: entry wins from flat, the exit is
	// only honored on a later bar.
	tbl := tableFromCloses([]float64{50, 50, 60})
	sig := signals(
		[]bool{false, true, false},
		[]bool{false, true, true},
	)
	res, err := NewEngine(10000).Run(tbl, sig)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.TotalTrades != 1 {
		t.Fatalf("trades = %d, want 1", res.TotalTrades)
	}
	tr := res.Trades[0]
	if tr.EntryTime == tr.ExitTime {
		t.Fatalf("same-bar round trip: %+v", tr)
	}
	if tr.EntryPrice != 50 || tr.ExitPrice != 60 {
		t.Fatalf("trade = %+v", tr)
	}
}

func TestOpenPositionMarkedToMarket(t *testing.T) {
	tbl := tableFromCloses([]float64{50, 55, 40})
	sig := signals(
		[]bool{true, false, false},
		[]bool{false, false, false},
	)
	res, err := NewEngine(10000).Run(tbl, sig)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	// Open position never reaches the ledger.
	if res.TotalTrades != 0 {
		t.Fatalf("trades = %d, want 0", res.TotalTrades)
	}
	curve := res.EquityCurve
	if curve[1].Equity != 11000 || curve[2].Equity != 8000 {
		t.Fatalf("curve = %v", curve)
	}
}

func TestMaxDrawdown(t *testing.T) {
	// Enter at 100 and ride to 120 (peak 12000), drop to 90 (marked 9000),
	// exit at 90. The exit books the trade loss against the marked equity,
	// bottoming at 8000 against the 12000 peak.
	tbl := tableFromCloses([]float64{100, 120, 90, 90})
	sig := signals(
		[]bool{true, false, false, false},
		[]bool{false, false, false, true},
	)
	res, err := NewEngine(10000).Run(tbl, sig)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.MaxDrawdownPct != -33.33 {
		t.Fatalf("max drawdown = %v, want -33.33", res.MaxDrawdownPct)
	}
}

func TestProfitFactorInfiniteWithoutLosers(t *testing.T) {
	tbl := tableFromCloses([]float64{50, 60, 50, 60})
	sig := signals(
		[]bool{true, false, true, false},
		[]bool{false, true, false, true},
	)
	res, err := NewEngine(10000).Run(tbl, sig)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.WinningTrades != 2 || res.LosingTrades != 0 {
		t.Fatalf("win/loss = %d/%d", res.WinningTrades, res.LosingTrades)
	}
	if !math.IsInf(res.ProfitFactor, 1) {
		t.Fatalf("profit factor = %v, want +Inf", res.ProfitFactor)
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, res); err != nil {
		t.Fatalf("WriteJSON error: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("result JSON does not round-trip: %v", err)
	}
	if decoded["profit_factor"] != "inf" {
		t.Fatalf("profit_factor encoded as %v", decoded["profit_factor"])
	}
}

func TestSharpeNeedsTwoTrades(t *testing.T) {
	tbl := tableFromCloses([]float64{50, 60, 60})
	sig := signals(
		[]bool{true, false, false},
		[]bool{false, true, false},
	)
	res, err := NewEngine(10000).Run(tbl, sig)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.TotalTrades != 1 || res.SharpeRatio != 0 {
		t.Fatalf("sharpe = %v with %d trades, want 0", res.SharpeRatio, res.TotalTrades)
	}
}

func TestSharpeScaling(t *testing.T) {
	// Two trades: +20% and +10%. Mean 15, population stdev 5,
	// sharpe = 15/5*sqrt(252/2).
	tbl := tableFromCloses([]float64{50, 60, 100, 110})
	sig := signals(
		[]bool{true, false, true, false},
		[]bool{false, true, false, true},
	)
	res, err := NewEngine(10000).Run(tbl, sig)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	want := round2(15.0 / 5.0 * math.Sqrt(126))
	if res.SharpeRatio != want {
		t.Fatalf("sharpe = %v, want %v", res.SharpeRatio, want)
	}
}

func TestSignalLengthMismatch(t *testing.T) {
	tbl := tableFromCloses([]float64{1, 2, 3})
	if _, err := NewEngine(10000).Run(tbl, signals(make([]bool, 2), make([]bool, 3))); err == nil {
		t.Fatal("mismatched signal length accepted")
	}
}

func TestWriteText(t *testing.T) {
	tbl := tableFromCloses([]float64{50, 60})
	sig := signals([]bool{true, false}, []bool{false, true})
	res, err := NewEngine(10000).Run(tbl, sig)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	var buf bytes.Buffer
	if err := WriteText(&buf, res); err != nil {
		t.Fatalf("WriteText error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"BACKTEST RESULTS", "Profit Factor:    inf", "Total Trades:     1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
}

func TestRenderEquitySVG(t *testing.T) {
	tbl := tableFromCloses([]float64{50, 55, 60, 58})
	sig := signals(
		[]bool{true, false, false, false},
		[]bool{false, false, true, false},
	)
	res, err := NewEngine(10000).Run(tbl, sig)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	svg, err := RenderEquitySVG("demo", res, SVGChartOptions{})
	if err != nil {
		t.Fatalf("RenderEquitySVG error: %v", err)
	}
	s := string(svg)
	if !strings.Contains(s, "<svg") || !strings.Contains(s, "polyline") {
		t.Fatalf("svg output malformed:\n%s", s[:120])
	}
	if !strings.Contains(s, "circle") {
		t.Fatal("trade marker missing from chart")
	}
}
