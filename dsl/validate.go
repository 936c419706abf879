package dsl

import (
	"stratdsl/indicator"
)

// normalize rewrites raw parse output into its validated form: TRUE/FALSE
// identifiers become BoolLit nodes, and every remaining field or indicator
// name is checked against its closed set. Unknown names fail here, not at
// evaluation time.
func normalize(n Node) (Node, error) {
	switch n := n.(type) {
	case *NumberLit, *BoolLit:
		return n, nil
	case *FieldRef:
		switch n.Name {
		case "true":
			return &BoolLit{Value: true}, nil
		case "false":
			return &BoolLit{Value: false}, nil
		}
		if !isValidField(n.Name) {
			return nil, &ValidationError{Kind: "field", Value: n.Name, Valid: ValidFields}
		}
		return n, nil
	case *IndicatorCall:
		if _, ok := indicator.Lookup(n.Name); !ok {
			return nil, &ValidationError{Kind: "indicator", Value: n.Name, Valid: indicator.Names()}
		}
		for i, arg := range n.Args {
			norm, err := normalize(arg)
			if err != nil {
				return nil, err
			}
			n.Args[i] = norm
		}
		return n, nil
	case *Arithmetic:
		left, err := normalize(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := normalize(n.Right)
		if err != nil {
			return nil, err
		}
		n.Left, n.Right = left, right
		return n, nil
	case *Comparison:
		left, err := normalize(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := normalize(n.Right)
		if err != nil {
			return nil, err
		}
		n.Left, n.Right = left, right
		return n, nil
	case *BoolExpr:
		for i, child := range n.Children {
			norm, err := normalize(child)
			if err != nil {
				return nil, err
			}
			n.Children[i] = norm
		}
		if len(n.Children) == 1 {
			return n.Children[0], nil
		}
		return n, nil
	}
	return n, nil
}
