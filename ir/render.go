package ir

import (
	"strconv"
	"strings"
)

// Render produces DSL text from a validated document. Indicator names come
// out UPPERCASE and field names lowercase; an empty entry list renders as
// TRUE and an empty exit list as FALSE.
func (s *StrategyJSON) Render() string {
	var b strings.Builder
	b.WriteString("ENTRY:\n  ")
	b.WriteString(renderSection(s.Entry, "TRUE"))
	b.WriteString("\n\nEXIT:\n  ")
	b.WriteString(renderSection(s.Exit, "FALSE"))
	b.WriteString("\n")
	return b.String()
}

func renderSection(conds []Condition, empty string) string {
	if len(conds) == 0 {
		return empty
	}
	var parts []string
	for i, c := range conds {
		parts = append(parts, renderTerm(c.Left), renderOperator(c.Operator), renderTerm(c.Right))
		if i < len(conds)-1 {
			parts = append(parts, renderConnector(c.Connector))
		}
	}
	return strings.Join(parts, " ")
}

func renderTerm(t Term) string {
	if t.IsNumber {
		if t.IsInt {
			return strconv.FormatInt(int64(t.Number), 10)
		}
		return strconv.FormatFloat(t.Number, 'g', -1, 64)
	}
	expr := strings.TrimSpace(t.Expr)
	if open := strings.Index(expr, "("); open >= 0 && strings.HasSuffix(expr, ")") {
		name := strings.ToUpper(strings.TrimSpace(expr[:open]))
		return name + expr[open:]
	}
	if strings.ContainsAny(expr, "+-*/") {
		return expr
	}
	return strings.ToLower(expr)
}

func renderOperator(op string) string {
	low := strings.ToLower(strings.TrimSpace(op))
	switch low {
	case "crosses_above":
		return "CROSSES_ABOVE"
	case "crosses_below":
		return "CROSSES_BELOW"
	}
	return low
}

func renderConnector(c string) string {
	if strings.EqualFold(c, "OR") {
		return "OR"
	}
	return "AND"
}
