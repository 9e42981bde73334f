package desugar_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/logica-lang/logica/internal/ast"
	"github.com/logica-lang/logica/internal/desugar"
	"github.com/logica-lang/logica/internal/heritage"
	"github.com/logica-lang/logica/internal/lexer"
	"github.com/logica-lang/logica/internal/parser"
)

func mustRule(t *testing.T, text string) *ast.Rule {
	t.Helper()
	rule, err := parser.ParseRule(lexer.NewSource(heritage.NewBuffer("test.l", text)))
	require.NoError(t, err)
	return rule
}

func TestDisjunctiveNormalFormSplitsRule(t *testing.T) {
	rule := mustRule(t, `P(x) :- A(x) | B(x)`)
	rewritten := desugar.DisjunctiveNormalForm([]*ast.Rule{rule})
	require.Len(t, rewritten, 2)
	for _, r := range rewritten {
		require.Len(t, r.Body.Conjuncts, 1)
	}
}

func TestDisjunctiveNormalFormDistributesOverConjunction(t *testing.T) {
	rule := mustRule(t, `P(x) :- (A(x) | B(x)), C(x)`)
	rewritten := desugar.DisjunctiveNormalForm([]*ast.Rule{rule})
	require.Len(t, rewritten, 2)
	for _, r := range rewritten {
		require.Len(t, r.Body.Conjuncts, 2)
	}
}

func TestAggregationsAsExpressionsConvertsPlus(t *testing.T) {
	rule := mustRule(t, `Sum(x) += y :- Values(x, y)`)
	rewritten := desugar.AggregationsAsExpressions([]*ast.Rule{rule})
	fv, ok := rewritten[0].Head.Args.Get(ast.LogicaValueField)
	require.True(t, ok)
	require.NotNil(t, fv.Agg)
	require.Nil(t, fv.Expr)
	call, ok := fv.Agg.Arg.(*ast.Call)
	require.True(t, ok)
	require.Equal(t, "Agg+", call.Predicate)
}

func TestMultiBodyAggregationMergesBodies(t *testing.T) {
	r1 := mustRule(t, `Count(k) distinct += 1 :- A(k)`)
	r2 := mustRule(t, `Count(k) distinct += 1 :- B(k)`)
	rewritten, err := desugar.MultiBodyAggregation([]*ast.Rule{r1, r2})
	require.NoError(t, err)
	// Two aux rules plus one aggregating rule over the aux predicate.
	require.Len(t, rewritten, 3)
	names := map[string]int{}
	for _, r := range rewritten {
		names[r.Head.Name]++
	}
	require.Equal(t, 2, names["Count_MultBodyAggAux"])
	require.Equal(t, 1, names["Count"])
}

func TestDisjunctiveNormalFormClonesSharedCombineSubRule(t *testing.T) {
	rule := mustRule(t, `P(x, y) :- (A(x) | B(x)), y == (combine += z :- C(x, z))`)
	rewritten := desugar.DisjunctiveNormalForm([]*ast.Rule{rule})
	require.Len(t, rewritten, 2)

	combineOf := func(r *ast.Rule) *ast.Combine {
		for _, conj := range r.Body.Conjuncts {
			u, ok := conj.(*ast.UnificationConjunct)
			if !ok {
				continue
			}
			if c, ok := u.RHS.(*ast.Combine); ok {
				return c
			}
		}
		t.Fatal("no combine sub-rule found")
		return nil
	}
	first, second := combineOf(rewritten[0]), combineOf(rewritten[1])
	require.NotSame(t, first.Rule, second.Rule)

	desugar.AggregationsAsExpressions(rewritten)
	fv, ok := first.Rule.Head.Args.Get(ast.LogicaValueField)
	require.True(t, ok)
	call, ok := fv.Agg.Arg.(*ast.Call)
	require.True(t, ok)
	require.Equal(t, "Agg+", call.Predicate)
	// The aggregation must be wrapped exactly once, not once per disjunct
	// that happened to share the sub-rule before cloning.
	inner, ok := call.Args.Fields[0].Expr.(*ast.Variable)
	require.True(t, ok)
	require.Equal(t, "z", inner.Name)
}

func TestMultiBodyAggregationRejectsOperatorMismatch(t *testing.T) {
	r1 := mustRule(t, `Agg(k) distinct += v :- A(k, v)`)
	r2 := mustRule(t, `Agg(k) distinct max= v :- B(k, v)`)
	_, err := desugar.MultiBodyAggregation([]*ast.Rule{r1, r2})
	require.Error(t, err)
	require.Contains(t, err.Error(), "identical head signatures")
}

// TestDisjunctiveNormalFormIsIdempotent asserts applying DNF expansion a
// second time leaves an already-expanded rule set unchanged, the
// property §8's invariant 2 requires of every desugaring pass bar
// recursion unfolding.
func TestDisjunctiveNormalFormIsIdempotent(t *testing.T) {
	rule := mustRule(t, `P(x) :- (A(x) | B(x)), (C(x) | D(x))`)
	once := desugar.DisjunctiveNormalForm([]*ast.Rule{rule})
	twice := desugar.DisjunctiveNormalForm(once)
	require.Len(t, twice, len(once))
	for i := range once {
		require.Equal(t, once[i].Body.Conjuncts, twice[i].Body.Conjuncts)
	}
}

// TestRewriteLeavesNoDisjunction asserts the body half of §8's invariant
// 3: after the full desugaring chain runs, no rule body contains a
// Disjunction node. (The head half, that no Aggregation node survives,
// is a property of the later rule-structuring step rather than of
// desugar.Rewrite: AggregationsAsExpressions deliberately keeps a
// field's Agg marker, only rewriting its Arg, so structure.HeadToSelect
// can still tell an aggregated field apart from a plain one; see
// TestExtractRuleStructureDropsAggregationFromSelect in the structure
// package for that half.)
func TestRewriteLeavesNoDisjunction(t *testing.T) {
	rules := []*ast.Rule{
		mustRule(t, `P(x) :- (A(x) | B(x)), C(x)`),
		mustRule(t, `Q(k) distinct += v :- A(k, v)`),
		mustRule(t, `Q(k) distinct += v :- B(k, v)`),
	}
	rewritten, err := desugar.Rewrite(rules)
	require.NoError(t, err)
	for _, r := range rewritten {
		requireNoDisjunction(t, r.Body)
	}
}

func requireNoDisjunction(t *testing.T, c *ast.Conjunction) {
	t.Helper()
	if c == nil {
		return
	}
	for _, conj := range c.Conjuncts {
		switch v := conj.(type) {
		case *ast.DisjunctionConjunct:
			t.Fatalf("rule body still has a Disjunction node")
		case *ast.Conjunction:
			requireNoDisjunction(t, v)
		}
	}
}
