package backtest

import (
	"fmt"
	"math"

	"stratdsl/market"
	"stratdsl/signal"
)

const timeLayout = "2006-01-02"

// Engine runs signal-driven simulations. It holds only configuration; all
// mutable run state lives in a per-run context, so one Engine can be reused
// across runs without contamination.
type Engine struct {
	InitialCapital float64
}

// NewEngine returns an engine with the given starting capital. Zero or
// negative capital falls back to 10000.
func NewEngine(initialCapital float64) *Engine {
	if initialCapital <= 0 {
		initialCapital = 10000
	}
	return &Engine{InitialCapital: initialCapital}
}

// Run walks the table bar by bar, applying entry and exit signals at each
// bar's close. From NoPosition only the entry signal is consulted, from
// InPosition only the exit signal, so a single bar can never complete a
// round trip. A position still open after the last bar stays marked to
// market in final equity but produces no ledger entry.
func (e *Engine) Run(tbl *market.Table, sig *signal.Signals) (*Result, error) {
	n := tbl.Len()
	if len(sig.Entry) != n || len(sig.Exit) != n {
		return nil, fmt.Errorf("signal length %d/%d does not match %d bars",
			len(sig.Entry), len(sig.Exit), n)
	}

	sim := &simContext{
		equity:     e.InitialCapital,
		peakEquity: e.InitialCapital,
		state:      NoPosition,
	}

	for i := 0; i < n; i++ {
		price := tbl.Close[i]
		ts := tbl.Times[i]

		// Closes with no price (NaN) carry equity forward untouched.
		if math.IsNaN(price) {
			sim.curve = append(sim.curve, Point{Time: ts.Format(timeLayout), Equity: sim.equity})
			continue
		}

		if sim.state == NoPosition && sig.Entry[i] {
			sim.pos = Position{
				EntryTime:  ts,
				EntryPrice: price,
				EntryIndex: i,
				Shares:     sim.equity / price,
			}
			sim.state = InPosition
		} else if sim.state == InPosition && sig.Exit[i] {
			pnl := sim.pos.Shares * (price - sim.pos.EntryPrice)
			pnlPct := (price - sim.pos.EntryPrice) / sim.pos.EntryPrice
			sim.equity += pnl
			sim.trades = append(sim.trades, Trade{
				EntryTime:  sim.pos.EntryTime.Format(timeLayout),
				ExitTime:   ts.Format(timeLayout),
				EntryPrice: round2(sim.pos.EntryPrice),
				ExitPrice:  round2(price),
				Shares:     sim.pos.Shares,
				PnL:        round2(pnl),
				PnLPct:     pnlPct,
				ReturnPct:  round2(pnlPct * 100),
			})
			sim.pos = Position{}
			sim.state = NoPosition
		} else if sim.state == InPosition {
			sim.equity = sim.pos.Shares * price
		}

		if sim.equity > sim.peakEquity {
			sim.peakEquity = sim.equity
		}
		if dd := (sim.equity - sim.peakEquity) / sim.peakEquity; dd < sim.maxDrawdown {
			sim.maxDrawdown = dd
		}
		sim.curve = append(sim.curve, Point{Time: ts.Format(timeLayout), Equity: round2(sim.equity)})
	}

	return e.metrics(sim), nil
}

// simContext is the mutable state of one run.
type simContext struct {
	equity      float64
	peakEquity  float64
	maxDrawdown float64
	state       State
	pos         Position
	trades      []Trade
	curve       []Point
}

func (e *Engine) metrics(sim *simContext) *Result {
	res := &Result{
		MaxDrawdownPct: round2(sim.maxDrawdown * 100),
		InitialEquity:  e.InitialCapital,
		FinalEquity:    round2(e.InitialCapital),
		Trades:         []Trade{},
		EquityCurve:    sim.curve,
	}
	if len(sim.trades) == 0 {
		return res
	}

	res.Trades = sim.trades
	res.TotalTrades = len(sim.trades)

	// Metrics aggregate the unrounded percent returns; only the reported
	// figures are rounded.
	var sumRet, sumWinRet, sumLossRet float64
	var winPnL, lossPnL float64
	for _, t := range sim.trades {
		ret := t.PnLPct * 100
		sumRet += ret
		switch {
		case t.PnL > 0:
			res.WinningTrades++
			sumWinRet += ret
			winPnL += t.PnL
		case t.PnL < 0:
			res.LosingTrades++
			sumLossRet += ret
			lossPnL += -t.PnL
		}
	}

	final := e.InitialCapital
	if len(sim.curve) > 0 {
		final = sim.curve[len(sim.curve)-1].Equity
	}
	res.FinalEquity = round2(final)
	res.TotalReturn = round2(final - e.InitialCapital)
	res.TotalReturnPct = round2((final - e.InitialCapital) / e.InitialCapital * 100)

	res.WinRatePct = round2(float64(res.WinningTrades) / float64(res.TotalTrades) * 100)
	res.AvgReturnPct = round2(sumRet / float64(res.TotalTrades))
	if res.WinningTrades > 0 {
		res.AvgWinPct = round2(sumWinRet / float64(res.WinningTrades))
	}
	if res.LosingTrades > 0 {
		res.AvgLossPct = round2(sumLossRet / float64(res.LosingTrades))
	}

	if lossPnL > 0 {
		res.ProfitFactor = round2(winPnL / lossPnL)
	} else {
		res.ProfitFactor = math.Inf(1)
	}

	res.SharpeRatio = round2(sharpeLike(sim.trades))
	return res
}

// sharpeLike is mean/stdev of per-trade percent returns scaled by
// sqrt(252/N). The annualization factor is fixed by trade count, not by
// elapsed calendar time; downstream consumers rely on that exact scaling.
func sharpeLike(trades []Trade) float64 {
	n := len(trades)
	if n < 2 {
		return 0
	}
	mean := 0.0
	for _, t := range trades {
		mean += t.PnLPct * 100
	}
	mean /= float64(n)
	variance := 0.0
	for _, t := range trades {
		d := t.PnLPct*100 - mean
		variance += d * d
	}
	variance /= float64(n)
	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(252/float64(n))
}
