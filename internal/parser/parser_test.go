package parser_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/logica-lang/logica/internal/ast"
	"github.com/logica-lang/logica/internal/heritage"
	"github.com/logica-lang/logica/internal/lexer"
	"github.com/logica-lang/logica/internal/parser"
)

func src(text string) lexer.Source {
	return lexer.NewSource(heritage.NewBuffer("test.l", text))
}

func TestParseRuleFact(t *testing.T) {
	rule, err := parser.ParseRule(src(`Parent("alice", "bob")`))
	require.NoError(t, err)
	require.Equal(t, "Parent", rule.Head.Name)
	require.Nil(t, rule.Body)
	require.Len(t, rule.Head.Args.Fields, 2)
}

func TestParseRuleWithBody(t *testing.T) {
	rule, err := parser.ParseRule(src(`Grandparent(x, z) :- Parent(x, y), Parent(y, z)`))
	require.NoError(t, err)
	require.Equal(t, "Grandparent", rule.Head.Name)
	require.NotNil(t, rule.Body)
	require.Len(t, rule.Body.Conjuncts, 2)
	for _, c := range rule.Body.Conjuncts {
		pc, ok := c.(*ast.PredicateConjunct)
		require.True(t, ok)
		require.Equal(t, "Parent", pc.Call.Name)
	}
}

func TestParseRuleDistinctAggregation(t *testing.T) {
	rule, err := parser.ParseRule(src(`Sum(x) distinct += y :- Values(x, y)`))
	require.NoError(t, err)
	require.True(t, rule.DistinctDenoted)
	fv, ok := rule.Head.Args.Get(ast.LogicaValueField)
	require.True(t, ok)
	require.NotNil(t, fv.Agg)
	require.Equal(t, "+", fv.Agg.Op)
}

func TestParseExpressionArithmetic(t *testing.T) {
	e, err := parser.ParseExpression(src(`a + b * c`))
	require.NoError(t, err)
	call, ok := e.(*ast.Call)
	require.True(t, ok)
	require.Equal(t, "+", call.Predicate)
}

func TestParseExpressionImplication(t *testing.T) {
	e, err := parser.ParseExpression(src(`if x > 0 then 1 else 0`))
	require.NoError(t, err)
	impl, ok := e.(*ast.Implication)
	require.True(t, ok)
	require.Len(t, impl.Branches, 1)
}

func TestParseNegation(t *testing.T) {
	conj, err := parser.ParseProposition(src(`~Excluded(x)`))
	require.NoError(t, err)
	pc, ok := conj.(*ast.PredicateConjunct)
	require.True(t, ok)
	require.Equal(t, "IsNull", pc.Call.Name)
}

func TestParseInclusion(t *testing.T) {
	conj, err := parser.ParseProposition(src(`x in [1, 2, 3]`))
	require.NoError(t, err)
	in, ok := conj.(*ast.InclusionConjunct)
	require.True(t, ok)
	list, ok := in.List.(*ast.ListLiteral)
	require.True(t, ok)
	require.Len(t, list.Elements, 3)
}

func TestParseFunctorRule(t *testing.T) {
	rule, err := parser.ParseFunctorRule(src(`DoubleRange := Map(Range)`))
	require.NoError(t, err)
	require.Equal(t, "@Make", rule.Head.Name)
	require.Len(t, rule.Head.Args.Fields, 3)
}

func TestParseFileSimpleProgram(t *testing.T) {
	file, err := parser.ParseFile(`
Parent("alice", "bob");
Parent("bob", "carol");
Grandparent(x, z) :- Parent(x, y), Parent(y, z);
`, "main")
	require.NoError(t, err)
	require.Len(t, file.Rules, 3)
}

func TestParseFileImport(t *testing.T) {
	file, err := parser.ParseFile(`import a.b.Predicate as P;`, "main")
	require.NoError(t, err)
	require.Len(t, file.Imports, 1)
	require.Equal(t, []string{"a", "b"}, file.Imports[0].Path)
	require.Equal(t, "Predicate", file.Imports[0].Predicate)
	require.Equal(t, "P", file.Imports[0].As)
}

func TestParseConciseCombine(t *testing.T) {
	conj, err := parser.ParseProposition(src(`total += amount`))
	require.NoError(t, err)
	u, ok := conj.(*ast.UnificationConjunct)
	require.True(t, ok)
	_, ok = u.RHS.(*ast.Combine)
	require.True(t, ok)
}
