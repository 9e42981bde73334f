package parser

import (
	"strconv"
	"strings"

	"github.com/logica-lang/logica/internal/ast"
	"github.com/logica-lang/logica/internal/lexer"
)

func isLower(c byte) bool { return c >= 'a' && c <= 'z' }
func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return isLower(c) || isUpper(c) }

// ParseVariable matches a lowercase identifier (§4.2).
func ParseVariable(s lexer.Source) *ast.Variable {
	t := s.Text
	if t == "" {
		return nil
	}
	if !(isLower(t[0]) || t[0] == '_') {
		return nil
	}
	for i := 0; i < len(t); i++ {
		c := t[i]
		if !(isLower(c) || isDigit(c) || c == '_') {
			return nil
		}
	}
	return &ast.Variable{Name: t, Source: s.Span}
}

// ParseNumber matches an integer or float literal, with an optional
// trailing `u` (unsigned marker, kept verbatim in Text).
func ParseNumber(s lexer.Source) *ast.NumberLiteral {
	t := s.Text
	check := t
	if strings.HasSuffix(check, "u") {
		check = check[:len(check)-1]
	}
	if check == "" {
		return nil
	}
	if _, err := strconv.ParseFloat(check, 64); err != nil {
		return nil
	}
	return &ast.NumberLiteral{Text: t, Source: s.Span}
}

// ParseStringLiteral matches a `"..."` or `"""..."""` string literal.
// Escape sequences are intentionally left unprocessed, matching Logica
// source semantics rather than a general-purpose string grammar.
func ParseStringLiteral(s lexer.Source) *ast.StringLiteral {
	t := s.Text
	if len(t) >= 6 && strings.HasPrefix(t, `"""`) && strings.HasSuffix(t, `"""`) &&
		!strings.Contains(t[3:len(t)-3], `"""`) {
		return &ast.StringLiteral{Value: t[3 : len(t)-3], Source: s.Span}
	}
	if len(t) >= 2 && t[0] == '"' && t[len(t)-1] == '"' && !strings.Contains(t[1:len(t)-1], `"`) {
		return &ast.StringLiteral{Value: t[1 : len(t)-1], Source: s.Span}
	}
	return nil
}

// ParseBoolLiteral matches `true`/`false`.
func ParseBoolLiteral(s lexer.Source) *ast.BoolLiteral {
	switch s.Text {
	case "true":
		return &ast.BoolLiteral{Value: true, Source: s.Span}
	case "false":
		return &ast.BoolLiteral{Value: false, Source: s.Span}
	}
	return nil
}

// ParseNullLiteral matches `null`.
func ParseNullLiteral(s lexer.Source) *ast.NullLiteral {
	if s.Text == "null" {
		return &ast.NullLiteral{Source: s.Span}
	}
	return nil
}

// ParseListLiteral matches `[e1, e2, ...]`.
func ParseListLiteral(s lexer.Source) (*ast.ListLiteral, error) {
	t := s.Text
	if len(t) < 2 || t[0] != '[' || t[len(t)-1] != ']' {
		return nil, nil
	}
	inside := s.Slice(1, len(t)-1)
	if !lexer.IsWhole(inside.Text) {
		return nil, nil
	}
	inside = lexer.Strip(inside)
	if inside.Text == "" {
		return &ast.ListLiteral{Source: s.Span}, nil
	}
	parts, err := lexer.Split(inside, ",")
	if err != nil {
		return nil, err
	}
	elems := make([]ast.Expr, len(parts))
	for i, p := range parts {
		e, err := ParseExpression(p)
		if err != nil {
			return nil, err
		}
		elems[i] = e
	}
	return &ast.ListLiteral{Elements: elems, Source: s.Span}, nil
}

// ParsePredicateLiteral matches a capitalized predicate name, `nil`, or
// `++?` used as a first-class value (functor application argument).
func ParsePredicateLiteral(s lexer.Source) *ast.PredicateLiteral {
	t := s.Text
	if t == "++?" || t == "nil" {
		return &ast.PredicateLiteral{Name: t, Source: s.Span}
	}
	if t == "" || !isUpper(t[0]) {
		return nil
	}
	for i := 0; i < len(t); i++ {
		c := t[i]
		if !(isLetter(c) || isDigit(c) || c == '_') {
			return nil
		}
	}
	return &ast.PredicateLiteral{Name: t, Source: s.Span}
}

// ParseLiteral tries every literal kind in the order the original grammar
// does: number, string, list, bool, null, predicate literal.
func ParseLiteral(s lexer.Source) (ast.Expr, error) {
	if v := ParseNumber(s); v != nil {
		return v, nil
	}
	if v := ParseStringLiteral(s); v != nil {
		return v, nil
	}
	if v, err := ParseListLiteral(s); err != nil {
		return nil, err
	} else if v != nil {
		return v, nil
	}
	if v := ParseBoolLiteral(s); v != nil {
		return v, nil
	}
	if v := ParseNullLiteral(s); v != nil {
		return v, nil
	}
	if v := ParsePredicateLiteral(s); v != nil {
		return v, nil
	}
	return nil, nil
}
