package backtest

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
)

// WriteJSON writes the result as indented JSON.
func WriteJSON(w io.Writer, res *Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// WriteText writes a human-readable summary.
func WriteText(w io.Writer, res *Result) error {
	pf := fmt.Sprintf("%.2f", res.ProfitFactor)
	if math.IsInf(res.ProfitFactor, 1) {
		pf = "inf"
	}
	_, err := fmt.Fprintf(w, `============================================================
 BACKTEST RESULTS
============================================================

Initial Capital:  %12.2f
Final Equity:     %12.2f
Total Return:     %12.2f (%.2f%%)
Max Drawdown:     %11.2f%%

Total Trades:     %d
Winning Trades:   %d
Losing Trades:    %d
Win Rate:         %.2f%%

Average Return:   %.2f%%
Average Win:      %.2f%%
Average Loss:     %.2f%%
Profit Factor:    %s
Sharpe Ratio:     %.2f
`,
		res.InitialEquity, res.FinalEquity, res.TotalReturn, res.TotalReturnPct,
		res.MaxDrawdownPct,
		res.TotalTrades, res.WinningTrades, res.LosingTrades, res.WinRatePct,
		res.AvgReturnPct, res.AvgWinPct, res.AvgLossPct, pf, res.SharpeRatio)
	if err != nil {
		return err
	}
	if len(res.Trades) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "\nTrades:\n"); err != nil {
		return err
	}
	for i, t := range res.Trades {
		_, err := fmt.Fprintf(w, "%3d. %s -> %s  %.2f -> %.2f  pnl %.2f (%.2f%%)\n",
			i+1, t.EntryTime, t.ExitTime, t.EntryPrice, t.ExitPrice, t.PnL, t.ReturnPct)
		if err != nil {
			return err
		}
	}
	return nil
}
