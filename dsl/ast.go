package dsl

// Node is one vertex of a strategy expression tree. The concrete types form a
// closed union; evaluation switches exhaustively over them.
type Node interface {
	node()
}

// NumberLit is a numeric literal. A literal written with a zero fractional
// part (20, 20.0) keeps IsInt=true so it can feed integer lookback periods.
type NumberLit struct {
	Value float64
	IsInt bool
}

// BoolLit is a TRUE/FALSE literal, used for empty entry or exit sections.
type BoolLit struct {
	Value bool
}

// FieldRef names one column of the price table.
type FieldRef struct {
	Name string
}

// IndicatorCall applies a registry indicator to ordered arguments.
type IndicatorCall struct {
	Name string
	Args []Node
}

// Arithmetic combines two numeric terms with * / + or -.
type Arithmetic struct {
	Op    string
	Left  Node
	Right Node
}

// Comparison relates two terms. Op is one of the plain comparison symbols or
// CROSSES_ABOVE / CROSSES_BELOW.
type Comparison struct {
	Op    string
	Left  Node
	Right Node
}

// BoolOp selects the combinator of a BoolExpr.
type BoolOp int

const (
	OpAnd BoolOp = iota
	OpOr
)

func (op BoolOp) String() string {
	if op == OpAnd {
		return "AND"
	}
	return "OR"
}

// BoolExpr combines two or more boolean children with AND or OR. A would-be
// single-child combinator is collapsed to the child at parse time.
type BoolExpr struct {
	Op       BoolOp
	Children []Node
}

func (*NumberLit) node()     {}
func (*BoolLit) node()       {}
func (*FieldRef) node()      {}
func (*IndicatorCall) node() {}
func (*Arithmetic) node()    {}
func (*Comparison) node()    {}
func (*BoolExpr) node()      {}

// Comparison operators.
const (
	OpGT         = ">"
	OpLT         = "<"
	OpGE         = ">="
	OpLE         = "<="
	OpEQ         = "=="
	OpCrossAbove = "CROSSES_ABOVE"
	OpCrossBelow = "CROSSES_BELOW"
)

// Strategy pairs a validated entry expression with a validated exit
// expression. It is immutable once built.
type Strategy struct {
	Entry Node
	Exit  Node
}

// ValidFields lists the price table columns the language accepts, sorted.
var ValidFields = []string{"close", "high", "low", "open", "volume"}

func isValidField(name string) bool {
	for _, f := range ValidFields {
		if f == name {
			return true
		}
	}
	return false
}
