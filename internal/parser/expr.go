package parser

import (
	"strings"

	"github.com/logica-lang/logica/internal/ast"
	"github.com/logica-lang/logica/internal/lexer"
)

// BuildTreeForCombine assembles the `Combine(...) :- body` rule underlying
// a `combine Op= expr [:- body]` expression (spec glossary: "Combine").
func BuildTreeForCombine(parsedExpr ast.Expr, operator string, parsedBody *ast.Conjunction, fullText lexer.Source) *ast.Combine {
	rule := &ast.Rule{
		Head: &ast.PredicateCall{
			Name: "Combine",
			Args: &ast.Record{Fields: []ast.FieldValue{{
				Field: ast.NamedField(ast.LogicaValueField),
				Agg:   &ast.Aggregation{Op: operator, Arg: parsedExpr},
			}}},
		},
		DistinctDenoted: true,
		FullText:        fullText.Span,
	}
	if parsedBody != nil {
		rule.Body = parsedBody
	}
	return &ast.Combine{Rule: rule, Source: fullText.Span}
}

// ParseCombine matches `combine Op= expr [:- body]`.
func ParseCombine(s lexer.Source) (*ast.Combine, error) {
	if !strings.HasPrefix(s.Text, "combine ") {
		return nil, nil
	}
	s = s.Slice(len("combine "), len(s.Text))
	single, left, right, hasBody, err := lexer.SplitInOneOrTwo(s, ":-")
	if err != nil {
		return nil, err
	}
	var value, bodySrc lexer.Source
	if hasBody {
		value, bodySrc = left, right
	} else {
		value = single
	}
	operator, expression, err := lexer.SplitInTwo(value, "=")
	if err != nil {
		return nil, err
	}
	operator = lexer.Strip(operator)
	parsedExpr, err := ParseExpression(expression)
	if err != nil {
		return nil, err
	}
	var parsedBody *ast.Conjunction
	if hasBody {
		parsedBody, err = ParseConjunction(bodySrc, true)
		if err != nil {
			return nil, err
		}
	}
	return BuildTreeForCombine(parsedExpr, operator.Text, parsedBody, s), nil
}

// ParseConciseCombine matches `x Op= expr [:- body]`, equivalent to
// `x == (combine Op= expr [:- body])`.
func ParseConciseCombine(s lexer.Source) (*ast.UnificationConjunct, error) {
	parts, err := lexer.Split(s, "=")
	if err != nil {
		return nil, err
	}
	if len(parts) != 2 {
		return nil, nil
	}
	lhsAndOp, combine := parts[0], parts[1]
	leftParts, err := lexer.SplitOnWhitespace(lhsAndOp)
	if err != nil {
		return nil, err
	}
	if len(leftParts) <= 1 {
		return nil, nil
	}
	secondToLast := leftParts[len(leftParts)-2]
	operator := leftParts[len(leftParts)-1]
	switch operator.Text {
	case "!", "<", ">":
		return nil, nil
	}
	lhs := s.Slice(0, secondToLast.Span.Stop-s.Span.Start)
	leftExpr, err := ParseExpression(lhs)
	if err != nil {
		return nil, err
	}
	single, left, right, hasBody, err := lexer.SplitInOneOrTwo(combine, ":-")
	if err != nil {
		return nil, err
	}
	var expression, bodySrc lexer.Source
	if hasBody {
		expression, bodySrc = left, right
	} else {
		expression = single
	}
	parsedExpr, err := ParseExpression(expression)
	if err != nil {
		return nil, err
	}
	var parsedBody *ast.Conjunction
	if hasBody {
		parsedBody, err = ParseConjunction(bodySrc, true)
		if err != nil {
			return nil, err
		}
	}
	combineExpr := BuildTreeForCombine(parsedExpr, operator.Text, parsedBody, s)
	return &ast.UnificationConjunct{LHS: leftExpr, RHS: combineExpr, Source: s.Span}, nil
}

// ParseImplication matches `if C1 then V1 else if C2 then V2 else V3`.
func ParseImplication(s lexer.Source) (*ast.Implication, error) {
	if !(strings.HasPrefix(s.Text, "if ") || strings.HasPrefix(s.Text, "if\n")) {
		return nil, nil
	}
	inner := s.Slice(3, len(s.Text))
	ifThens, err := lexer.Split(inner, "else if")
	if err != nil {
		return nil, err
	}
	lastIfThen, lastElse, err := lexer.SplitInTwo(ifThens[len(ifThens)-1], "else")
	if err != nil {
		return nil, err
	}
	ifThens[len(ifThens)-1] = lastIfThen

	branches := make([]ast.IfThen, len(ifThens))
	for i, cc := range ifThens {
		cond, cons, err := lexer.SplitInTwo(cc, "then")
		if err != nil {
			return nil, err
		}
		condExpr, err := ParseExpression(cond)
		if err != nil {
			return nil, err
		}
		consExpr, err := ParseExpression(cons)
		if err != nil {
			return nil, err
		}
		branches[i] = ast.IfThen{Cond: condExpr, Then: consExpr}
	}
	elseExpr, err := ParseExpression(lastElse)
	if err != nil {
		return nil, err
	}
	return &ast.Implication{Branches: branches, Else: elseExpr, Source: s.Span}, nil
}

// ParseSubscript matches `record_expr.field_name`.
func ParseSubscript(s lexer.Source) (*ast.Subscript, error) {
	pathParts, err := lexer.SplitRaw(s, ".")
	if err != nil {
		return nil, err
	}
	if len(pathParts) < 2 {
		return nil, nil
	}
	secondToLast := pathParts[len(pathParts)-2]
	recordStr := s.Slice(0, secondToLast.Span.Stop-s.Span.Start)
	record, err := ParseExpression(lexer.Strip(recordStr))
	if err != nil {
		return nil, err
	}
	field := pathParts[len(pathParts)-1]
	for i := 0; i < len(field.Text); i++ {
		c := field.Text[i]
		if !(isLower(c) || c == '_' || isDigit(c)) {
			return nil, errAt(s, "subscript must be lowercase")
		}
	}
	return &ast.Subscript{Record: record, Field: field.Text, Source: s.Span}, nil
}

// ParseNegationExpression wraps ParseNegation's IsNull(...) proposition
// back up as an expression, for use inside a larger expression context.
func ParseNegationExpression(s lexer.Source) (ast.Expr, error) {
	neg, err := ParseNegation(s)
	if err != nil {
		return nil, err
	}
	if neg == nil {
		return nil, nil
	}
	pc := neg.(*ast.PredicateConjunct)
	return &ast.Call{Predicate: pc.Call.Name, Args: pc.Call.Args, Source: s.Span}, nil
}

// ParseExpression parses a Logica value expression (§4.2, §4.6).
func ParseExpression(s lexer.Source) (ast.Expr, error) {
	if v, err := ParseCombine(s); err != nil {
		return nil, err
	} else if v != nil {
		return v, nil
	}
	if v, err := ParseImplication(s); err != nil {
		return nil, err
	} else if v != nil {
		return v, nil
	}
	if v, err := ParseLiteral(s); err != nil {
		return nil, err
	} else if v != nil {
		return v, nil
	}
	if v := ParseVariable(s); v != nil {
		return v, nil
	}
	if v, err := ParseRecordExpr(s); err != nil {
		return nil, err
	} else if v != nil {
		return v, nil
	}
	if v, err := ParseCall(s); err != nil {
		return nil, err
	} else if v != nil {
		return &ast.Call{Predicate: v.Name, Args: v.Args, Source: v.Source}, nil
	}
	if v, err := ParseInfix(s, nil); err != nil {
		return nil, err
	} else if v != nil {
		return v, nil
	}
	if v, err := ParseSubscript(s); err != nil {
		return nil, err
	} else if v != nil {
		return v, nil
	}
	if v, err := ParseNegationExpression(s); err != nil {
		return nil, err
	} else if v != nil {
		return v, nil
	}
	return nil, errAt(s, "could not parse expression of a value")
}
