// Package ir is the JSON intermediate form sitting between natural-language
// extraction and DSL text. The structured form is validated before any text
// is rendered, so a bad model response fails loudly instead of producing a
// strategy that parses into something unintended.
package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"stratdsl/dsl"
)

// StrategyJSON is the document an extraction model must produce: ordered
// condition lists for entry and exit. An empty list renders as an
// always-true entry or never-true exit.
type StrategyJSON struct {
	Entry []Condition `json:"entry"`
	Exit  []Condition `json:"exit"`
}

// Condition is one comparison. Connector joins this condition to the next
// one in the list and is ignored on the last condition; it defaults to AND.
type Condition struct {
	Left      Term   `json:"left"`
	Operator  string `json:"operator"`
	Right     Term   `json:"right"`
	Connector string `json:"connector,omitempty"`
}

// Term is either an expression string ("sma(close, 20)", "close") or a bare
// number.
type Term struct {
	Expr     string
	Number   float64
	IsNumber bool
	IsInt    bool
}

func (t *Term) UnmarshalJSON(raw []byte) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	switch v := v.(type) {
	case string:
		t.Expr = v
		return nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return err
		}
		t.Number = f
		t.IsNumber = true
		t.IsInt = !strings.ContainsAny(v.String(), ".eE")
		return nil
	}
	return fmt.Errorf("term must be a string or number, got %s", raw)
}

func (t Term) MarshalJSON() ([]byte, error) {
	if t.IsNumber {
		if t.IsInt {
			return json.Marshal(int64(t.Number))
		}
		return json.Marshal(t.Number)
	}
	return json.Marshal(t.Expr)
}

var validOperators = []string{
	"<", "<=", "==", ">", ">=", "crosses_above", "crosses_below",
}

// Parse decodes and validates a strategy document. Unknown JSON fields are
// rejected so schema drift in model output surfaces immediately.
func Parse(raw []byte) (*StrategyJSON, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	dec.UseNumber()

	var s StrategyJSON
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("invalid strategy json: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks every condition's operator and connector against the
// closed operator set.
func (s *StrategyJSON) Validate() error {
	for _, section := range [][]Condition{s.Entry, s.Exit} {
		for _, c := range section {
			if !isValidOperator(c.Operator) {
				return &dsl.ValidationError{Kind: "operator", Value: c.Operator, Valid: validOperators}
			}
			if c.Connector != "" && !strings.EqualFold(c.Connector, "AND") && !strings.EqualFold(c.Connector, "OR") {
				return &dsl.ValidationError{Kind: "connector", Value: c.Connector, Valid: []string{"AND", "OR"}}
			}
			if !c.Left.IsNumber && strings.TrimSpace(c.Left.Expr) == "" {
				return fmt.Errorf("condition has an empty left term")
			}
			if !c.Right.IsNumber && strings.TrimSpace(c.Right.Expr) == "" {
				return fmt.Errorf("condition has an empty right term")
			}
		}
	}
	return nil
}

func isValidOperator(op string) bool {
	low := strings.ToLower(strings.TrimSpace(op))
	for _, v := range validOperators {
		if low == v {
			return true
		}
	}
	return false
}
