package signal

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"stratdsl/dsl"
	"stratdsl/indicator"
	"stratdsl/market"
)

// RuntimeError reports a failure while evaluating a compiled strategy against
// a concrete table, usually a bad indicator parameter.
type RuntimeError struct {
	Indicator string
	Err       error
}

func (e *RuntimeError) Error() string {
	if e.Indicator != "" {
		return fmt.Sprintf("evaluate %s: %v", e.Indicator, e.Err)
	}
	return fmt.Sprintf("evaluate: %v", e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

// Signals are the evaluator output: one entry and one exit flag per bar.
type Signals struct {
	Entry []bool
	Exit  []bool
}

// Evaluator is a compiled strategy. Compilation walks both expression trees
// once and records every distinct indicator invocation under a canonical key,
// so repeated mentions of the same invocation share one computation.
// An Evaluator holds no per-run state and is safe to reuse across tables.
type Evaluator struct {
	strategy *dsl.Strategy
	calls    map[string]*dsl.IndicatorCall
	keys     []string
}

// Compile prepares a validated strategy for evaluation.
func Compile(s *dsl.Strategy) (*Evaluator, error) {
	e := &Evaluator{strategy: s, calls: map[string]*dsl.IndicatorCall{}}
	collect(s.Entry, e.calls)
	collect(s.Exit, e.calls)
	for k := range e.calls {
		e.keys = append(e.keys, k)
	}
	sort.Strings(e.keys)
	return e, nil
}

// IndicatorKeys returns the canonical keys of every distinct indicator
// invocation, sorted. The order is also the materialization order.
func (e *Evaluator) IndicatorKeys() []string {
	out := make([]string, len(e.keys))
	copy(out, e.keys)
	return out
}

// Evaluate runs the compiled strategy over tbl. Each call starts from a fresh
// cache, so evaluating the same table twice yields identical signals.
func (e *Evaluator) Evaluate(tbl *market.Table) (*Signals, error) {
	_, sig, err := e.run(tbl)
	return sig, err
}

func (e *Evaluator) run(tbl *market.Table) (*runContext, *Signals, error) {
	ctx := &runContext{tbl: tbl, columns: map[string][]float64{}}
	for _, key := range e.keys {
		if _, err := ctx.indicatorSeries(key, e.calls[key]); err != nil {
			return ctx, nil, err
		}
	}
	entry, err := ctx.evalBool(e.strategy.Entry)
	if err != nil {
		return ctx, nil, err
	}
	exit, err := ctx.evalBool(e.strategy.Exit)
	if err != nil {
		return ctx, nil, err
	}
	return ctx, &Signals{Entry: entry, Exit: exit}, nil
}

// CanonicalKey renders an indicator invocation as name(arg,...) with
// normalized argument spelling. Two invocations with the same key are the
// same computation.
func CanonicalKey(call *dsl.IndicatorCall) string {
	args := make([]string, len(call.Args))
	for i, a := range call.Args {
		args[i] = renderArg(a)
	}
	return call.Name + "(" + strings.Join(args, ",") + ")"
}

func renderArg(n dsl.Node) string {
	switch n := n.(type) {
	case *dsl.FieldRef:
		return n.Name
	case *dsl.NumberLit:
		if n.IsInt {
			return strconv.FormatInt(int64(n.Value), 10)
		}
		return strconv.FormatFloat(n.Value, 'g', -1, 64)
	case *dsl.IndicatorCall:
		return CanonicalKey(n)
	case *dsl.Arithmetic:
		return "(" + renderArg(n.Left) + n.Op + renderArg(n.Right) + ")"
	}
	return fmt.Sprintf("%v", n)
}

func collect(n dsl.Node, into map[string]*dsl.IndicatorCall) {
	switch n := n.(type) {
	case *dsl.IndicatorCall:
		into[CanonicalKey(n)] = n
		for _, a := range n.Args {
			collect(a, into)
		}
	case *dsl.Arithmetic:
		collect(n.Left, into)
		collect(n.Right, into)
	case *dsl.Comparison:
		collect(n.Left, into)
		collect(n.Right, into)
	case *dsl.BoolExpr:
		for _, c := range n.Children {
			collect(c, into)
		}
	}
}

// runContext is the per-evaluation state: the table under evaluation and the
// indicator cache. It is built fresh for every Evaluate call.
type runContext struct {
	tbl      *market.Table
	columns  map[string][]float64
	computed int
}

// indicatorSeries returns the cached series for key, computing it on first
// request. Nested invocations resolve through the same cache, so a key is
// computed at most once per run regardless of materialization order.
func (c *runContext) indicatorSeries(key string, call *dsl.IndicatorCall) ([]float64, error) {
	if s, ok := c.columns[key]; ok {
		return s, nil
	}
	s, err := c.computeIndicator(call)
	if err != nil {
		return nil, err
	}
	c.columns[key] = s
	c.computed++
	return s, nil
}

func (c *runContext) computeIndicator(call *dsl.IndicatorCall) ([]float64, error) {
	kind, ok := indicator.Lookup(call.Name)
	if !ok {
		return nil, &RuntimeError{Indicator: call.Name, Err: fmt.Errorf("unknown indicator")}
	}
	if len(call.Args) == 0 {
		return nil, &RuntimeError{Indicator: call.Name, Err: fmt.Errorf("needs a source series argument")}
	}
	src, err := c.evalSeries(call.Args[0])
	if err != nil {
		return nil, err
	}
	period, err := c.callPeriod(kind, call)
	if err != nil {
		return nil, err
	}
	out, err := indicator.Compute(kind, src, period)
	if err != nil {
		return nil, &RuntimeError{Indicator: call.Name, Err: err}
	}
	return out, nil
}

func (c *runContext) callPeriod(kind indicator.Kind, call *dsl.IndicatorCall) (int, error) {
	switch len(call.Args) {
	case 1:
		if p, ok := indicator.DefaultPeriod(kind); ok {
			return p, nil
		}
		return 0, &RuntimeError{Indicator: call.Name, Err: fmt.Errorf("needs an explicit period")}
	case 2:
		lit, ok := call.Args[1].(*dsl.NumberLit)
		if !ok || !lit.IsInt {
			return 0, &RuntimeError{Indicator: call.Name, Err: fmt.Errorf("period must be an integer literal")}
		}
		if lit.Value < 1 {
			return 0, &RuntimeError{Indicator: call.Name, Err: fmt.Errorf("period must be positive, got %v", lit.Value)}
		}
		return int(lit.Value), nil
	}
	return 0, &RuntimeError{Indicator: call.Name, Err: fmt.Errorf("takes at most 2 arguments, got %d", len(call.Args))}
}

func (c *runContext) evalSeries(n dsl.Node) ([]float64, error) {
	switch n := n.(type) {
	case *dsl.NumberLit:
		return fillFloat(c.tbl.Len(), n.Value), nil
	case *dsl.FieldRef:
		col, ok := c.tbl.Column(n.Name)
		if !ok {
			return nil, &RuntimeError{Err: fmt.Errorf("unknown column %q", n.Name)}
		}
		return col, nil
	case *dsl.IndicatorCall:
		return c.indicatorSeries(CanonicalKey(n), n)
	case *dsl.Arithmetic:
		l, err := c.evalSeries(n.Left)
		if err != nil {
			return nil, err
		}
		r, err := c.evalSeries(n.Right)
		if err != nil {
			return nil, err
		}
		return arith(n.Op, l, r), nil
	}
	return nil, &RuntimeError{Err: fmt.Errorf("node %T is not a numeric series", n)}
}

func (c *runContext) evalBool(n dsl.Node) ([]bool, error) {
	switch n := n.(type) {
	case *dsl.BoolLit:
		return fillBool(c.tbl.Len(), n.Value), nil
	case *dsl.Comparison:
		l, err := c.evalSeries(n.Left)
		if err != nil {
			return nil, err
		}
		r, err := c.evalSeries(n.Right)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case dsl.OpCrossAbove:
			return crossAbove(l, r), nil
		case dsl.OpCrossBelow:
			return crossBelow(l, r), nil
		}
		return compare(n.Op, l, r), nil
	case *dsl.BoolExpr:
		out, err := c.evalBool(n.Children[0])
		if err != nil {
			return nil, err
		}
		acc := make([]bool, len(out))
		copy(acc, out)
		for _, child := range n.Children[1:] {
			cv, err := c.evalBool(child)
			if err != nil {
				return nil, err
			}
			if n.Op == dsl.OpAnd {
				andInto(acc, cv)
			} else {
				orInto(acc, cv)
			}
		}
		return acc, nil
	}
	return nil, &RuntimeError{Err: fmt.Errorf("node %T is not a boolean condition", n)}
}
