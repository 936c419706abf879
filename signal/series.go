// Package signal compiles validated strategy trees into per-bar boolean entry
// and exit vectors. Evaluation is columnar: every node produces one slice
// spanning the whole table, and every comparison involving an undefined
// (NaN) operand yields false for that bar.
package signal

import "math"

func fillBool(n int, v bool) []bool {
	out := make([]bool, n)
	if v {
		for i := range out {
			out[i] = true
		}
	}
	return out
}

func fillFloat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func arith(op string, l, r []float64) []float64 {
	out := make([]float64, len(l))
	for i := range l {
		switch op {
		case "+":
			out[i] = l[i] + r[i]
		case "-":
			out[i] = l[i] - r[i]
		case "*":
			out[i] = l[i] * r[i]
		case "/":
			if r[i] == 0 {
				out[i] = math.NaN()
			} else {
				out[i] = l[i] / r[i]
			}
		}
	}
	return out
}

// compare applies a plain comparison elementwise. Go comparisons with a NaN
// operand are false, which is exactly the warm-up behavior wanted here.
func compare(op string, l, r []float64) []bool {
	out := make([]bool, len(l))
	for i := range l {
		switch op {
		case ">":
			out[i] = l[i] > r[i]
		case "<":
			out[i] = l[i] < r[i]
		case ">=":
			out[i] = l[i] >= r[i]
		case "<=":
			out[i] = l[i] <= r[i]
		case "==":
			out[i] = l[i] == r[i]
		}
	}
	return out
}

// crossAbove is true at bar i when l was at or below r on bar i-1 and is
// strictly above on bar i. Bar 0 has no predecessor and is always false, as
// is any bar where either side of either bar is NaN.
func crossAbove(l, r []float64) []bool {
	out := make([]bool, len(l))
	for i := 1; i < len(l); i++ {
		out[i] = l[i] > r[i] && l[i-1] <= r[i-1]
	}
	return out
}

func crossBelow(l, r []float64) []bool {
	out := make([]bool, len(l))
	for i := 1; i < len(l); i++ {
		out[i] = l[i] < r[i] && l[i-1] >= r[i-1]
	}
	return out
}

func andInto(dst, src []bool) {
	for i := range dst {
		dst[i] = dst[i] && src[i]
	}
}

func orInto(dst, src []bool) {
	for i := range dst {
		dst[i] = dst[i] || src[i]
	}
}
