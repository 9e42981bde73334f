package parser

import (
	"github.com/logica-lang/logica/internal/ast"
	"github.com/logica-lang/logica/internal/lexer"
)

func isGoodPredicatePrefix(s string) bool {
	if s == "!" || s == "++?" {
		return true
	}
	if len(s) >= 2 && s[0] == '`' && s[len(s)-1] == '`' {
		return true
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case isLetter(c), isDigit(c):
		case c == '@' || c == '_' || c == '.' || c == '$' || c == '{' || c == '}' ||
			c == '+' || c == '-' || c == '`':
		default:
			return false
		}
	}
	return true
}

// ParseCall matches `predicate_name(...)`, including the `->` definition
// operator and the `!`/`++?` unary-operator-as-predicate spellings.
func ParseCall(s lexer.Source) (*ast.PredicateCall, error) {
	s = lexer.Strip(s)
	text := s.Text
	if text == "" {
		return nil, nil
	}

	predicate := ""
	idx := 0
	if len(text) >= 2 && text[:2] == "->" {
		idx = 2
		predicate = "->"
	} else {
		found := false
		var travErr error
		lexer.Traverse(text, func(e lexer.Event) bool {
			if e.Status == lexer.StatusUnmatched {
				travErr = errRange(s, e.Index, e.Index+1, "parenthesis matches nothing")
				return false
			}
			if e.Status != lexer.StatusOK {
				return true
			}
			if text[e.Index] != '(' || e.Depth != 1 {
				return true
			}
			prefix := text[:e.Index]
			if isGoodPredicatePrefix(prefix) {
				predicate = prefix
				idx = e.Index
				found = true
			}
			return false
		})
		if travErr != nil {
			return nil, travErr
		}
		if !found {
			return nil, nil
		}
	}
	if idx >= len(text) || text[idx] != '(' || text[len(text)-1] != ')' {
		return nil, nil
	}
	inside := s.Slice(idx+1, len(text)-1)
	if !lexer.IsWhole(inside.Text) {
		return nil, nil
	}
	rec, err := ParseRecordInternals(inside, false)
	if err != nil {
		return nil, err
	}
	return &ast.PredicateCall{Name: predicate, Args: rec, Source: s.Span}, nil
}

// ParseHeadCall parses a rule head, excluding the leading `distinct` marker
// which the caller has already stripped. It returns the parsed call plus
// whether the head denotes an aggregation (§4.2).
func ParseHeadCall(s lexer.Source) (*ast.PredicateCall, bool, error) {
	text := s.Text
	sawOpen := false
	endIdx := -1
	var travErr error
	lexer.Traverse(text, func(e lexer.Event) bool {
		if e.Status != lexer.StatusOK {
			travErr = errRange(s, e.Index, e.Index+1, "parenthesis matches nothing")
			return false
		}
		if text[e.Index] == '(' {
			sawOpen = true
		}
		if sawOpen && e.AtZero {
			endIdx = e.Index
			return false
		}
		return true
	})
	if travErr != nil {
		return nil, false, travErr
	}
	if endIdx < 0 {
		return nil, false, errAt(s, "found no call in rule head")
	}

	callStr := s.Slice(0, endIdx+1)
	postCallStr := s.Slice(endIdx+1, len(text))
	call, err := ParseCall(callStr)
	if err != nil {
		return nil, false, err
	}
	if call == nil {
		return nil, false, errAt(callStr, "could not parse predicate call")
	}

	opExpr, err := lexer.Split(postCallStr, "=")
	if err != nil {
		return nil, false, err
	}
	if len(opExpr) == 1 {
		if opExpr[0].Text != "" {
			return nil, false, errAt(opExpr[0], "unexpected text in the head of a rule")
		}
		return call, false, nil
	}
	if len(opExpr) > 2 {
		return nil, false, errAt(postCallStr, "too many '=' in predicate value")
	}

	operatorStr, exprStr := opExpr[0], opExpr[1]
	if operatorStr.Text == "" {
		expr, err := ParseExpression(exprStr)
		if err != nil {
			return nil, false, err
		}
		call.Args.Fields = append(call.Args.Fields, ast.FieldValue{
			Field: ast.NamedField(ast.LogicaValueField),
			Expr:  expr,
		})
		return call, false, nil
	}

	expr, err := ParseExpression(exprStr)
	if err != nil {
		return nil, false, err
	}
	call.Args.Fields = append(call.Args.Fields, ast.FieldValue{
		Field: ast.NamedField(ast.LogicaValueField),
		Agg:   &ast.Aggregation{Op: operatorStr.Text, Arg: expr},
	})
	return call, true, nil
}
