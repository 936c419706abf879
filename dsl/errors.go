package dsl

import (
	"fmt"
	"strings"
)

// SyntaxError reports a grammar violation, naming the offending token and
// where it sits in the source text.
type SyntaxError struct {
	Line  int
	Col   int
	Token string
	Msg   string
}

func (e *SyntaxError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("syntax error at %d:%d: %s", e.Line, e.Col, e.Msg)
	}
	return fmt.Sprintf("syntax error at %d:%d near %q: %s", e.Line, e.Col, e.Token, e.Msg)
}

// ValidationError reports a grammatically valid name that is not in the
// allowed set. Valid holds the sorted alternatives.
type ValidationError struct {
	Kind  string // "field", "indicator" or "operator"
	Value string
	Valid []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("unknown %s: %s (valid: %s)", e.Kind, e.Value, strings.Join(e.Valid, ", "))
}
