package parser

import (
	"strings"

	"github.com/logica-lang/logica/internal/ast"
	"github.com/logica-lang/logica/internal/lexer"
)

var defaultInfixOperators = []string{
	"||", "&&", "->", "==", "<=", ">=", "<", ">", "!=",
	"++?", "++", "+", "-", "*", "/", "%", "^", " in ", "!",
}

var unaryOperators = map[string]bool{"-": true, "!": true}

// ParseInfix matches a left-associative chain of infix operators, folding
// it into a call to the operator's name (§4.6 treats these as regular
// predicate calls with `left`/`right` fields).
func ParseInfix(s lexer.Source, operators []string) (ast.Expr, error) {
	if operators == nil {
		operators = defaultInfixOperators
	}
	for _, op := range operators {
		parts, err := lexer.SplitRaw(s, op)
		if err != nil {
			return nil, err
		}
		if len(parts) <= 1 {
			continue
		}
		last := parts[len(parts)-1]
		splitAt := last.Span.Start - s.Span.Start
		left := lexer.Strip(s.Slice(0, splitAt))
		right := lexer.Strip(last)

		if unaryOperators[op] && left.Text == "" {
			rec, err := ParseRecordInternals(right, false)
			if err != nil {
				return nil, err
			}
			return &ast.Call{Predicate: op, Args: rec, Source: s.Span}, nil
		}

		leftExpr, err := ParseExpression(left)
		if err != nil {
			return nil, err
		}
		rightExpr, err := ParseExpression(right)
		if err != nil {
			return nil, err
		}
		rec := &ast.Record{Fields: []ast.FieldValue{
			{Field: ast.NamedField("left"), Expr: leftExpr},
			{Field: ast.NamedField("right"), Expr: rightExpr},
		}}
		return &ast.Call{Predicate: strings.TrimSpace(op), Args: rec, Source: s.Span}, nil
	}
	return nil, nil
}
