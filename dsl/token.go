package dsl

import (
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokColon
	tokComma
	tokLParen
	tokRParen
	tokCompareOp // > < >= <= ==
	tokArithOp   // * / + -
)

type token struct {
	kind tokenKind
	text string
	line int
	col  int
}

// lex splits DSL source into tokens. Whitespace (including newlines) is
// insignificant; identifiers keep their original case for error messages and
// are lowercased later.
func lex(src string) ([]token, error) {
	var toks []token
	line, col := 1, 1
	i := 0
	emit := func(kind tokenKind, text string, startCol int) {
		toks = append(toks, token{kind: kind, text: text, line: line, col: startCol})
	}
	for i < len(src) {
		c := src[i]
		switch {
		case c == '\n':
			line++
			col = 1
			i++
		case c == ' ' || c == '\t' || c == '\r':
			col++
			i++
		case c == ':':
			emit(tokColon, ":", col)
			col++
			i++
		case c == ',':
			emit(tokComma, ",", col)
			col++
			i++
		case c == '(':
			emit(tokLParen, "(", col)
			col++
			i++
		case c == ')':
			emit(tokRParen, ")", col)
			col++
			i++
		case c == '>' || c == '<':
			start := col
			op := string(c)
			i++
			col++
			if i < len(src) && src[i] == '=' {
				op += "="
				i++
				col++
			}
			emit(tokCompareOp, op, start)
		case c == '=':
			start := col
			if i+1 < len(src) && src[i+1] == '=' {
				emit(tokCompareOp, "==", start)
				i += 2
				col += 2
			} else {
				return nil, &SyntaxError{Line: line, Col: col, Token: "=", Msg: "single '=' is not an operator, use '=='"}
			}
		case c == '*' || c == '/' || c == '+' || c == '-':
			emit(tokArithOp, string(c), col)
			col++
			i++
		case c >= '0' && c <= '9':
			start := i
			startCol := col
			for i < len(src) && (src[i] >= '0' && src[i] <= '9') {
				i++
				col++
			}
			if i < len(src) && src[i] == '.' {
				i++
				col++
				for i < len(src) && (src[i] >= '0' && src[i] <= '9') {
					i++
					col++
				}
			}
			emit(tokNumber, src[start:i], startCol)
		case isIdentStart(rune(c)):
			start := i
			startCol := col
			for i < len(src) && isIdentPart(rune(src[i])) {
				i++
				col++
			}
			emit(tokIdent, src[start:i], startCol)
		default:
			return nil, &SyntaxError{Line: line, Col: col, Token: string(c), Msg: "unexpected character"}
		}
	}
	toks = append(toks, token{kind: tokEOF, line: line, col: col})
	return toks, nil
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// keyword matching is case-insensitive.
func isKeyword(t token, kw string) bool {
	return t.kind == tokIdent && strings.EqualFold(t.text, kw)
}
