package dsl

import (
	"math"
	"strconv"
	"strings"
)

// Parse compiles DSL text into a validated Strategy.
//
// Grammar, loosest binding first:
//
//	strategy:   "ENTRY:" expression "EXIT:" expression
//	expression: and_expr ("OR" and_expr)*
//	and_expr:   comparison ("AND" comparison)*
//	comparison: term (COMPARE_OP term)?
//	term:       primary (ARITH_OP primary)*
//	primary:    field | indicator "(" term ("," term)* ")" | number | "(" expression ")"
//
// Keywords are case-insensitive and identifiers are normalized to lowercase.
// Grammar violations return a *SyntaxError; unknown field or indicator names
// are grammatically fine and return a *ValidationError instead.
func Parse(text string) (*Strategy, error) {
	toks, err := lex(text)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}

	entry, err := p.section("ENTRY")
	if err != nil {
		return nil, err
	}
	exit, err := p.section("EXIT")
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf(t, "expected end of input")
	}

	entry, err = normalize(entry)
	if err != nil {
		return nil, err
	}
	exit, err = normalize(exit)
	if err != nil {
		return nil, err
	}
	return &Strategy{Entry: entry, Exit: exit}, nil
}

// Valid reports whether text parses and validates cleanly.
func Valid(text string) bool {
	_, err := Parse(text)
	return err == nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(t token, msg string) error {
	return &SyntaxError{Line: t.line, Col: t.col, Token: t.text, Msg: msg}
}

func (p *parser) section(keyword string) (Node, error) {
	t := p.next()
	if !isKeyword(t, keyword) {
		return nil, p.errorf(t, "expected "+keyword+": section")
	}
	if t := p.next(); t.kind != tokColon {
		return nil, p.errorf(t, "expected ':' after "+keyword)
	}
	start := p.peek()
	expr, err := p.expression()
	if err != nil {
		return nil, err
	}
	if !isBoolean(expr) {
		return nil, p.errorf(start, "expected a boolean condition")
	}
	return expr, nil
}

func (p *parser) expression() (Node, error) {
	firstStart := p.peek()
	first, err := p.andExpr()
	if err != nil {
		return nil, err
	}
	children := []Node{first}
	for isKeyword(p.peek(), "OR") {
		p.next()
		start := p.peek()
		child, err := p.andExpr()
		if err != nil {
			return nil, err
		}
		if !isBoolean(child) {
			return nil, p.errorf(start, "OR operand must be a boolean condition")
		}
		children = append(children, child)
	}
	if len(children) == 1 {
		return children[0], nil
	}
	if !isBoolean(children[0]) {
		return nil, p.errorf(firstStart, "OR operand must be a boolean condition")
	}
	return &BoolExpr{Op: OpOr, Children: children}, nil
}

func (p *parser) andExpr() (Node, error) {
	firstStart := p.peek()
	first, err := p.comparison()
	if err != nil {
		return nil, err
	}
	children := []Node{first}
	for isKeyword(p.peek(), "AND") {
		p.next()
		start := p.peek()
		child, err := p.comparison()
		if err != nil {
			return nil, err
		}
		if !isBoolean(child) {
			return nil, p.errorf(start, "AND operand must be a boolean condition")
		}
		children = append(children, child)
	}
	if len(children) == 1 {
		return children[0], nil
	}
	if !isBoolean(children[0]) {
		return nil, p.errorf(firstStart, "AND operand must be a boolean condition")
	}
	return &BoolExpr{Op: OpAnd, Children: children}, nil
}

func (p *parser) comparison() (Node, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	op, ok := p.compareOp()
	if !ok {
		return left, nil
	}
	right, err := p.term()
	if err != nil {
		return nil, err
	}
	return &Comparison{Op: op, Left: left, Right: right}, nil
}

func (p *parser) compareOp() (string, bool) {
	t := p.peek()
	switch {
	case t.kind == tokCompareOp:
		p.next()
		return t.text, true
	case isKeyword(t, OpCrossAbove):
		p.next()
		return OpCrossAbove, true
	case isKeyword(t, OpCrossBelow):
		p.next()
		return OpCrossBelow, true
	}
	return "", false
}

// term handles arithmetic. All four operators share one precedence level and
// associate left; parentheses group anything tighter.
func (p *parser) term() (Node, error) {
	left, err := p.primary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokArithOp {
		op := p.next().text
		right, err := p.primary()
		if err != nil {
			return nil, err
		}
		left = &Arithmetic{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) primary() (Node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return numberLit(t.text)
	case tokArithOp:
		// Unary minus on a numeric literal.
		if t.text == "-" && p.peek().kind == tokNumber {
			n := p.next()
			lit, err := numberLit(n.text)
			if err != nil {
				return nil, err
			}
			lit.Value = -lit.Value
			return lit, nil
		}
		return nil, p.errorf(t, "expected a field, indicator, number or '('")
	case tokIdent:
		name := strings.ToLower(t.text)
		if p.peek().kind == tokLParen {
			p.next()
			return p.callArgs(name)
		}
		return &FieldRef{Name: name}, nil
	case tokLParen:
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		if t := p.next(); t.kind != tokRParen {
			return nil, p.errorf(t, "expected ')'")
		}
		return expr, nil
	}
	return nil, p.errorf(t, "expected a field, indicator, number or '('")
}

func (p *parser) callArgs(name string) (Node, error) {
	var args []Node
	for {
		arg, err := p.term()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		t := p.next()
		if t.kind == tokRParen {
			break
		}
		if t.kind != tokComma {
			return nil, p.errorf(t, "expected ',' or ')' in argument list")
		}
	}
	return &IndicatorCall{Name: name, Args: args}, nil
}

func numberLit(text string) (*NumberLit, error) {
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, &SyntaxError{Token: text, Msg: "invalid number"}
	}
	return &NumberLit{Value: v, IsInt: v == math.Trunc(v)}, nil
}

// isBoolean reports whether a parsed node can stand in boolean position.
// Bare TRUE/FALSE identifiers are still FieldRefs at this point.
func isBoolean(n Node) bool {
	switch n := n.(type) {
	case *Comparison, *BoolExpr, *BoolLit:
		return true
	case *FieldRef:
		return n.Name == "true" || n.Name == "false"
	}
	return false
}
