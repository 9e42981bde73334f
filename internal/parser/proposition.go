package parser

import (
	"github.com/logica-lang/logica/internal/ast"
	"github.com/logica-lang/logica/internal/lexer"
)

// ParseInclusion matches `element in list`.
func ParseInclusion(s lexer.Source) (*ast.InclusionConjunct, error) {
	parts, err := lexer.Split(s, " in ")
	if err != nil {
		return nil, err
	}
	if len(parts) != 2 {
		return nil, nil
	}
	element, err := ParseExpression(parts[0])
	if err != nil {
		return nil, err
	}
	list, err := ParseExpression(parts[1])
	if err != nil {
		return nil, err
	}
	return &ast.InclusionConjunct{Element: element, List: list, Source: s.Span}, nil
}

// ParseUnification matches `lhs == rhs`.
func ParseUnification(s lexer.Source) (*ast.UnificationConjunct, error) {
	parts, err := lexer.Split(s, "==")
	if err != nil {
		return nil, err
	}
	if len(parts) != 2 {
		return nil, nil
	}
	left, err := ParseExpression(parts[0])
	if err != nil {
		return nil, err
	}
	right, err := ParseExpression(parts[1])
	if err != nil {
		return nil, err
	}
	return &ast.UnificationConjunct{LHS: left, RHS: right, Source: s.Span}, nil
}

// ParseNegation rewrites `~P` into `IsNull(combine Min= 1 :- P)` (spec
// §4.2, glossary "Negation").
func ParseNegation(s lexer.Source) (ast.Conjunct, error) {
	parts, err := lexer.Split(s, "~")
	if err != nil {
		return nil, err
	}
	if len(parts) == 1 {
		return nil, nil
	}
	if len(parts) != 2 || parts[0].Text != "" {
		return nil, errAt(s, "negation \"~\" is a unary operator")
	}
	negated := lexer.Strip(parts[1])
	negatedBody, err := ParseConjunction(negated, true)
	if err != nil {
		return nil, err
	}
	one := &ast.NumberLiteral{Text: "1", Source: s.Span}
	combine := BuildTreeForCombine(one, "Min", negatedBody, s)
	call := &ast.PredicateCall{
		Name: "IsNull",
		Args: &ast.Record{Fields: []ast.FieldValue{{
			Field: ast.PositionalField(0),
			Expr:  combine,
		}}},
		Source: s.Span,
	}
	return &ast.PredicateConjunct{Call: call, Source: s.Span}, nil
}

// ParseProposition parses one conjunct: a disjunction, conjunction,
// predicate call, infix boolean operator, unification, inclusion, concise
// combine, or negation, in the order the original grammar tries them.
func ParseProposition(s lexer.Source) (ast.Conjunct, error) {
	if d, err := ParseDisjunction(s); err != nil {
		return nil, err
	} else if d != nil {
		return d, nil
	}
	strConjuncts, err := lexer.Split(s, ",")
	if err != nil {
		return nil, err
	}
	if len(strConjuncts) > 1 {
		return ParseConjunction(s, false)
	}
	if impl, err := ParseImplication(s); err != nil {
		return nil, err
	} else if impl != nil {
		return nil, errAt(s, "if-then-else clause is only supported as an "+
			"expression, not as a proposition")
	}
	if call, err := ParseCall(s); err != nil {
		return nil, err
	} else if call != nil {
		return &ast.PredicateConjunct{Call: call, Source: s.Span}, nil
	}
	if expr, err := ParseInfix(s, []string{"&&", "||"}); err != nil {
		return nil, err
	} else if expr != nil {
		call := expr.(*ast.Call)
		return &ast.PredicateConjunct{
			Call:   &ast.PredicateCall{Name: call.Predicate, Args: call.Args, Source: call.Source},
			Source: s.Span,
		}, nil
	}
	if u, err := ParseUnification(s); err != nil {
		return nil, err
	} else if u != nil {
		return u, nil
	}
	if in, err := ParseInclusion(s); err != nil {
		return nil, err
	} else if in != nil {
		return in, nil
	}
	if u, err := ParseConciseCombine(s); err != nil {
		return nil, err
	} else if u != nil {
		return u, nil
	}
	if expr, err := ParseInfix(s, nil); err != nil {
		return nil, err
	} else if expr != nil {
		call := expr.(*ast.Call)
		return &ast.PredicateConjunct{
			Call:   &ast.PredicateCall{Name: call.Predicate, Args: call.Args, Source: call.Source},
			Source: s.Span,
		}, nil
	}
	if neg, err := ParseNegation(s); err != nil {
		return nil, err
	} else if neg != nil {
		return neg, nil
	}
	return nil, errAt(s, "could not parse proposition")
}

// ParseConjunction splits s on `,` at depth zero and parses each piece as a
// proposition. When allowSingleton is false, a single un-split piece is
// reported as "not a conjunction" by returning nil (the caller tries
// something else), matching the original grammar's greediness.
func ParseConjunction(s lexer.Source, allowSingleton bool) (*ast.Conjunction, error) {
	strConjuncts, err := lexer.Split(s, ",")
	if err != nil {
		return nil, err
	}
	if len(strConjuncts) == 1 && !allowSingleton {
		return nil, nil
	}
	conjuncts := make([]ast.Conjunct, len(strConjuncts))
	for i, c := range strConjuncts {
		conj, err := ParseProposition(c)
		if err != nil {
			return nil, err
		}
		conjuncts[i] = conj
	}
	return &ast.Conjunction{Conjuncts: conjuncts, Source: s.Span}, nil
}

// ParseDisjunction splits s on `|` at depth zero and parses each piece as a
// proposition.
func ParseDisjunction(s lexer.Source) (*ast.DisjunctionConjunct, error) {
	strDisjuncts, err := lexer.Split(s, "|")
	if err != nil {
		return nil, err
	}
	if len(strDisjuncts) == 1 {
		return nil, nil
	}
	disjuncts := make([]ast.Conjunction, len(strDisjuncts))
	for i, d := range strDisjuncts {
		conj, err := ParseProposition(d)
		if err != nil {
			return nil, err
		}
		disjuncts[i] = ast.Conjunction{Conjuncts: []ast.Conjunct{conj}}
	}
	return &ast.DisjunctionConjunct{Disjuncts: disjuncts, Source: s.Span}, nil
}
