// Package backtest simulates a compiled strategy's signals over a price table
// and reports trade-level and portfolio-level performance.
package backtest

import (
	"encoding/json"
	"math"
	"time"
)

// State of the simulator between bars. Long-only, so two states suffice.
type State int

const (
	NoPosition State = iota
	InPosition
)

func (s State) String() string {
	if s == InPosition {
		return "in_position"
	}
	return "no_position"
}

// Position is the open holding while the simulator is InPosition. Shares may
// be fractional: entries deploy all available equity at the entry close.
type Position struct {
	EntryTime  time.Time
	EntryPrice float64
	EntryIndex int
	Shares     float64
}

// Trade is one closed round trip.
type Trade struct {
	EntryTime  string  `json:"entry_time"`
	ExitTime   string  `json:"exit_time"`
	EntryPrice float64 `json:"entry_price"`
	ExitPrice  float64 `json:"exit_price"`
	Shares     float64 `json:"shares"`
	PnL        float64 `json:"pnl"`
	PnLPct     float64 `json:"pnl_pct"`
	ReturnPct  float64 `json:"return_pct"`
}

// Point is one equity curve sample.
type Point struct {
	Time   string  `json:"time"`
	Equity float64 `json:"equity"`
}

// Result is the full simulation outcome. Numeric summary fields are rounded
// to two decimals; the equity curve and trade ledger keep full precision
// timing but rounded prices.
type Result struct {
	TotalTrades    int     `json:"total_trades"`
	WinningTrades  int     `json:"winning_trades"`
	LosingTrades   int     `json:"losing_trades"`
	WinRatePct     float64 `json:"win_rate"`
	TotalReturn    float64 `json:"total_return"`
	TotalReturnPct float64 `json:"total_return_pct"`
	MaxDrawdownPct float64 `json:"max_drawdown"`
	AvgReturnPct   float64 `json:"average_return"`
	AvgWinPct      float64 `json:"average_win"`
	AvgLossPct     float64 `json:"average_loss"`
	ProfitFactor   float64 `json:"profit_factor"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	InitialEquity  float64 `json:"initial_equity"`
	FinalEquity    float64 `json:"final_equity"`
	Trades         []Trade `json:"trades"`
	EquityCurve    []Point `json:"equity_curve"`
}

// MarshalJSON special-cases an infinite profit factor, which encoding/json
// cannot represent as a number.
func (r Result) MarshalJSON() ([]byte, error) {
	type alias Result
	if math.IsInf(r.ProfitFactor, 1) {
		return json.Marshal(struct {
			alias
			ProfitFactor string `json:"profit_factor"`
		}{alias: alias(r), ProfitFactor: "inf"})
	}
	return json.Marshal(alias(r))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
