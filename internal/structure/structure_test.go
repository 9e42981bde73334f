package structure_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/logica-lang/logica/internal/ast"
	"github.com/logica-lang/logica/internal/desugar"
	"github.com/logica-lang/logica/internal/heritage"
	"github.com/logica-lang/logica/internal/lexer"
	"github.com/logica-lang/logica/internal/parser"
	"github.com/logica-lang/logica/internal/structure"
)

func mustRule(t *testing.T, text string) *ast.Rule {
	t.Helper()
	rule, err := parser.ParseRule(lexer.NewSource(heritage.NewBuffer("test.l", text)))
	require.NoError(t, err)
	return rule
}

func TestExtractRuleStructureJoinsTwoPredicates(t *testing.T) {
	rule := mustRule(t, `Grandparent(x, z) :- Parent(x, y), Parent(y, z)`)
	alloc := structure.NewNamesAllocator(nil)
	s, err := structure.ExtractRuleStructure(rule, alloc, nil)
	require.NoError(t, err)
	require.Len(t, s.Tables, 2)
	require.Len(t, s.Select, 2)

	require.NoError(t, s.ElliminateInternalVariables(false))
	require.NoError(t, s.SortUnnestings())
	s.UnificationsToConstraints()

	vocab := s.VarsVocabulary()
	for _, f := range s.Select {
		v, ok := f.Expr.(*ast.Variable)
		require.True(t, ok)
		_, bound := vocab[v.Name]
		require.True(t, bound, "expected %s to resolve to a table column", v.Name)
	}
}

func TestExtractRuleStructureComparisonBecomesConstraint(t *testing.T) {
	rule := mustRule(t, `Adult(x) :- Person(x, age), age >= 18`)
	alloc := structure.NewNamesAllocator(nil)
	s, err := structure.ExtractRuleStructure(rule, alloc, nil)
	require.NoError(t, err)
	require.NoError(t, s.ElliminateInternalVariables(false))

	require.Len(t, s.Constraints, 1)
	require.Equal(t, ">=", s.Constraints[0].Name)
}

func TestExtractRuleStructureContainerBecomesInConstraint(t *testing.T) {
	rule := mustRule(t, `Teen(x) :- Person(x, age), age in Container(13, 14, 15, 16, 17, 18, 19)`)
	alloc := structure.NewNamesAllocator(nil)
	alloc.IsBuiltinFunction = func(name string) bool { return name == "Container" }
	s, err := structure.ExtractRuleStructure(rule, alloc, nil)
	require.NoError(t, err)
	require.NoError(t, s.ElliminateInternalVariables(false))

	require.Empty(t, s.Unnestings)
	require.Len(t, s.Constraints, 1)
	require.Equal(t, "In", s.Constraints[0].Name)
}

func TestExtractRuleStructureUnnestsListLiteral(t *testing.T) {
	rule := mustRule(t, `Teen(x) :- Person(x, age), age in [13, 14, 15, 16, 17, 18, 19]`)
	alloc := structure.NewNamesAllocator(nil)
	s, err := structure.ExtractRuleStructure(rule, alloc, nil)
	require.NoError(t, err)
	require.NoError(t, s.ElliminateInternalVariables(false))

	require.Len(t, s.Unnestings, 1)
}

func TestExtractRuleStructureUnnestsSubquery(t *testing.T) {
	rule := mustRule(t, `Flat(x) :- x in Values(y)`)
	alloc := structure.NewNamesAllocator(nil)
	s, err := structure.ExtractRuleStructure(rule, alloc, nil)
	require.NoError(t, err)
	require.NoError(t, s.ElliminateInternalVariables(false))

	require.Len(t, s.Unnestings, 1)
}

func TestExtractRuleStructureAggregationRequiresDistinct(t *testing.T) {
	rule := mustRule(t, `Total(x) += y :- Values(x, y)`)
	rewritten := desugar.AggregationsAsExpressions([]*ast.Rule{rule})
	alloc := structure.NewNamesAllocator(nil)
	_, err := structure.ExtractRuleStructure(rewritten[0], alloc, nil)
	require.Error(t, err)
}

func TestExtractRuleStructureDistinctAggregationComputesDistinctVars(t *testing.T) {
	rule := mustRule(t, `Total(k, x) distinct += y :- Values(k, x, y)`)
	rewritten := desugar.AggregationsAsExpressions([]*ast.Rule{rule})
	alloc := structure.NewNamesAllocator(nil)
	s, err := structure.ExtractRuleStructure(rewritten[0], alloc, nil)
	require.NoError(t, err)
	require.True(t, s.DistinctDenoted)
	require.Equal(t, []string{"0", "1"}, s.DistinctVars)
}

func TestExtractRuleStructureInlinesValuePositionCall(t *testing.T) {
	rule := mustRule(t, `Doubled(y) :- y == Double(x), Values(x)`)
	alloc := structure.NewNamesAllocator(nil)
	s, err := structure.ExtractRuleStructure(rule, alloc, nil)
	require.NoError(t, err)

	// Double(x) is not a known function, so it is inlined as a predicate
	// call joined against its own table, not left as a value-position call.
	var sawDouble bool
	for _, tbl := range s.Tables {
		if tbl.Predicate == "Double" {
			sawDouble = true
		}
	}
	require.True(t, sawDouble)
}

func TestExtractRuleStructureKnownFunctionStaysInline(t *testing.T) {
	rule := mustRule(t, `Doubled(y) :- y == Double(x), Values(x)`)
	alloc := structure.NewNamesAllocator(nil)
	alloc.IsBuiltinFunction = func(name string) bool { return name == "Double" }
	s, err := structure.ExtractRuleStructure(rule, alloc, nil)
	require.NoError(t, err)

	for _, tbl := range s.Tables {
		require.NotEqual(t, "Double", tbl.Predicate)
	}
}

func TestSortUnnestingsDetectsCycle(t *testing.T) {
	alloc := structure.NewNamesAllocator(nil)
	s := structure.NewRuleStructure(alloc, nil)
	s.Unnestings = []structure.Unnesting{
		{Element: &ast.Variable{Name: "a"}, List: &ast.Variable{Name: "b"}},
		{Element: &ast.Variable{Name: "b"}, List: &ast.Variable{Name: "a"}},
	}
	err := s.SortUnnestings()
	require.Error(t, err)
}

func TestExtractRuleStructureUnassignedVariableErrors(t *testing.T) {
	rule := mustRule(t, `Bad(x) :- Values(y)`)
	alloc := structure.NewNamesAllocator(nil)
	s, err := structure.ExtractRuleStructure(rule, alloc, nil)
	require.NoError(t, err)
	require.Error(t, s.ElliminateInternalVariables(true))
}

// TestExtractRuleStructureDropsAggregationFromSelect asserts the head
// half of §8's invariant 3: once a rule reaches RuleStructure, its
// Select fields hold plain expressions, never a surviving Aggregation
// node. HeadToSelect reads fv.Agg.Arg straight into SelectField.Expr and
// never carries the Agg wrapper itself into s.Select.
func TestExtractRuleStructureDropsAggregationFromSelect(t *testing.T) {
	rule := mustRule(t, `Total(k) distinct += y :- Values(k, y)`)
	rewritten := desugar.AggregationsAsExpressions([]*ast.Rule{rule})
	alloc := structure.NewNamesAllocator(nil)
	s, err := structure.ExtractRuleStructure(rewritten[0], alloc, nil)
	require.NoError(t, err)
	require.Len(t, s.Select, 2)
	var sawAggCall bool
	for _, f := range s.Select {
		if call, ok := f.Expr.(*ast.Call); ok && call.Predicate == "Agg+" {
			sawAggCall = true
		}
	}
	require.True(t, sawAggCall, "expected one select field to be the Agg+(...) call, not a wrapping Aggregation node")
}

// TestExtractRuleStructureSelectVarsAreBound asserts §8's invariant 4:
// every variable name referenced in s.Select resolves through
// VarsVocabulary (vars_map after unifications and unnestings feed back
// into it), i.e. select never names a purely free variable.
func TestExtractRuleStructureSelectVarsAreBound(t *testing.T) {
	rule := mustRule(t, `Grandparent(x, z) :- Parent(x, y), Parent(y, z)`)
	alloc := structure.NewNamesAllocator(nil)
	s, err := structure.ExtractRuleStructure(rule, alloc, nil)
	require.NoError(t, err)
	require.NoError(t, s.ElliminateInternalVariables(false))

	bound := s.VarsVocabulary()
	for _, f := range s.Select {
		v, ok := f.Expr.(*ast.Variable)
		require.True(t, ok, "expected select field to be a plain variable reference")
		_, isBound := bound[v.Name]
		require.True(t, isBound, "select variable %q is not in vars_map", v.Name)
	}
}
