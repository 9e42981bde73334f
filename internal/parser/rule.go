package parser

import (
	"github.com/logica-lang/logica/internal/ast"
	"github.com/logica-lang/logica/internal/heritage"
	"github.com/logica-lang/logica/internal/lexer"
)

func freshSource(text string) lexer.Source {
	return lexer.NewSource(heritage.NewBuffer("<synthetic>", text))
}

const functorSyntaxErrorMessage = "functor definition must have the form " +
	"NewPredicateName := DefiningPredicate(args...)"

// ParseFunctorRule matches `NewName := Predicate(args)`, the concise
// spelling of an `@Make` rule (§4.4).
func ParseFunctorRule(s lexer.Source) (*ast.Rule, error) {
	parts, err := lexer.Split(s, ":=")
	if err != nil {
		return nil, err
	}
	if len(parts) != 2 {
		return nil, nil
	}
	newPredicate, err := ParseExpression(parts[0])
	if err != nil {
		return nil, err
	}
	definitionExpr, err := ParseExpression(parts[1])
	if err != nil {
		return nil, err
	}
	definition, ok := definitionExpr.(*ast.Call)
	if !ok {
		return nil, errAt(parts[1], functorSyntaxErrorMessage)
	}
	newPredicateLiteral, ok := newPredicate.(*ast.PredicateLiteral)
	if !ok {
		return nil, errAt(parts[0], functorSyntaxErrorMessage)
	}

	return &ast.Rule{
		FullText: s.Span,
		Head: &ast.PredicateCall{
			Name: "@Make",
			Args: &ast.Record{Fields: []ast.FieldValue{
				{Field: ast.PositionalField(0), Expr: newPredicateLiteral},
				{Field: ast.PositionalField(1), Expr: &ast.PredicateLiteral{Name: definition.Predicate, Source: definition.Source}},
				{Field: ast.PositionalField(2), Expr: &ast.RecordExpr{Record: definition.Args, Source: definition.Source}},
			}},
			Source: s.Span,
		},
	}, nil
}

// ParseFunctionRule matches `Call(args) --> expr`, sugar for a UDF-style
// single-valued predicate (§4.2).
func ParseFunctionRule(s lexer.Source) ([]*ast.Rule, error) {
	parts, err := lexer.SplitRaw(s, "-->")
	if err != nil {
		return nil, err
	}
	if len(parts) != 2 {
		return nil, nil
	}
	thisCall, err := ParseCall(parts[0])
	if err != nil {
		return nil, err
	}
	if thisCall == nil {
		return nil, errAt(parts[0], "left hand side of function definition must be a predicate call")
	}
	annotation, err := ParseRule(freshSource("@CompileAsUdf(" + thisCall.Name + ")"))
	if err != nil {
		return nil, err
	}
	rule, err := ParseRule(freshSource(parts[0].Text + " = " + parts[1].Text))
	if err != nil {
		return nil, err
	}
	return []*ast.Rule{annotation, rule}, nil
}

// ParseRule matches a full rule: `head [:- body]`, with an optional
// `distinct` marker before the head's call.
func ParseRule(s lexer.Source) (*ast.Rule, error) {
	parts, err := lexer.Split(s, ":-")
	if err != nil {
		return nil, err
	}
	if len(parts) > 2 {
		return nil, errAt(s, "too many :- in a rule; did you forget a semicolon?")
	}
	head := parts[0]
	headDistinct, err := lexer.Split(head, "distinct")
	if err != nil {
		return nil, err
	}

	var call *ast.PredicateCall
	distinct := false
	if len(headDistinct) == 1 {
		c, isAgg, err := ParseHeadCall(head)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, errAt(head, "could not parse head of a rule")
		}
		call = c
		distinct = isAgg
	} else {
		if len(headDistinct) != 2 {
			return nil, errAt(head, "can not parse rule head; something is "+
				"wrong with how 'distinct' is used")
		}
		headCall := headDistinct[0]
		if headDistinct[1].Text != "" {
			// `Call distinct Op= Expr`: the value part follows the marker.
			headCall = freshSource(headDistinct[0].Text + " " + headDistinct[1].Text)
		}
		c, _, err := ParseHeadCall(headCall)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, errAt(head, "could not parse head of a rule")
		}
		call = c
		distinct = true
	}

	rule := &ast.Rule{Head: call, DistinctDenoted: distinct, FullText: s.Span}
	if len(parts) == 2 {
		body, err := ParseConjunction(parts[1], true)
		if err != nil {
			return nil, err
		}
		rule.Body = body
	}
	return rule, nil
}
