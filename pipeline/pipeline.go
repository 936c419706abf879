// Package pipeline wires the full translation chain: natural language or DSL
// text in, backtest results out. Each stage is synchronous; the first typed
// error aborts the run.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"stratdsl/backtest"
	"stratdsl/dsl"
	"stratdsl/ir"
	"stratdsl/llm"
	"stratdsl/market"
	"stratdsl/signal"
)

// Pipeline holds the collaborators of one translation chain. The LLM client
// may be nil when only RunFromDSL is used.
type Pipeline struct {
	LLM            *llm.Client
	InitialCapital float64
	Logger         *zap.Logger
}

func New(client *llm.Client, initialCapital float64, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{LLM: client, InitialCapital: initialCapital, Logger: logger}
}

// Outcome bundles every intermediate artifact alongside the final result so
// callers can show the full chain.
type Outcome struct {
	Rule     string           `json:"rule,omitempty"`
	Strategy *ir.StrategyJSON `json:"strategy_json,omitempty"`
	DSLText  string           `json:"dsl"`
	Result   *backtest.Result `json:"result"`
}

// RunFromNL translates a natural-language rule all the way to a backtest.
func (p *Pipeline) RunFromNL(ctx context.Context, rule string, tbl *market.Table) (*Outcome, error) {
	if p.LLM == nil {
		return nil, fmt.Errorf("no llm client configured")
	}
	p.Logger.Info("extracting strategy", zap.String("rule", rule))
	strat, err := p.LLM.ExtractStrategy(ctx, rule)
	if err != nil {
		return nil, fmt.Errorf("extract strategy: %w", err)
	}

	text := strat.Render()
	p.Logger.Info("rendered dsl", zap.String("dsl", text))

	out, err := p.RunFromDSL(text, tbl)
	if err != nil {
		return nil, err
	}
	out.Rule = rule
	out.Strategy = strat
	return out, nil
}

// RunFromDSL parses, compiles, evaluates and simulates a DSL strategy.
func (p *Pipeline) RunFromDSL(text string, tbl *market.Table) (*Outcome, error) {
	strategy, err := dsl.Parse(text)
	if err != nil {
		return nil, err
	}

	eval, err := signal.Compile(strategy)
	if err != nil {
		return nil, err
	}
	p.Logger.Info("compiled strategy",
		zap.Strings("indicators", eval.IndicatorKeys()),
		zap.Int("bars", tbl.Len()))

	sig, err := eval.Evaluate(tbl)
	if err != nil {
		return nil, err
	}
	p.Logger.Info("evaluated signals",
		zap.Int("entries", countTrue(sig.Entry)),
		zap.Int("exits", countTrue(sig.Exit)))

	res, err := backtest.NewEngine(p.InitialCapital).Run(tbl, sig)
	if err != nil {
		return nil, err
	}
	p.Logger.Info("backtest complete",
		zap.Int("trades", res.TotalTrades),
		zap.Float64("final_equity", res.FinalEquity))

	return &Outcome{DSLText: text, Result: res}, nil
}

func countTrue(v []bool) int {
	n := 0
	for _, b := range v {
		if b {
			n++
		}
	}
	return n
}
