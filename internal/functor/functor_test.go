package functor_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/logica-lang/logica/internal/ast"
	"github.com/logica-lang/logica/internal/functor"
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

func mustFile(t *testing.T, text string) []*ast.Rule {
	t.Helper()
	file, err := parser.ParseFile(text, "test.l")
	require.NoError(t, err)
	return file.Rules
}

func TestArgsOfTransitiveClosure(t *testing.T) {
	rules := mustFile(t, `
		A(x) :- B(x);
		B(x) :- C(x);
		C(x) :- D(x);
		D(0);
	`)
	f := functor.New(rules)
	args := f.ArgsOf("A")
	for _, want := range []string{"B", "C", "D"} {
		_, ok := args[want]
		require.True(t, ok, "expected %s in ArgsOf(A)", want)
	}
}

func TestArgsOfDetectsSelfRecursion(t *testing.T) {
	rules := mustFile(t, `
		A(x) :- B(x);
		B(x) :- A(x);
	`)
	f := functor.New(rules)
	args := f.ArgsOf("A")
	_, ok := args["A"]
	require.True(t, ok, "a recursive predicate is its own transitive argument")

	_, err := f.AllRulesOf("A")
	require.Error(t, err)
}

func TestCallKeyOnlyKeepsRelevantArgs(t *testing.T) {
	rules := mustFile(t, `
		Map(x) :- Source(x);
	`)
	f := functor.New(rules)
	key1 := f.CallKey("Map", map[string]string{"Source": "Foo", "Irrelevant": "Bar"})
	key2 := f.CallKey("Map", map[string]string{"Source": "Foo"})
	require.Equal(t, key1, key2)
}

func TestMakeInstantiatesFunctorUnderNewName(t *testing.T) {
	rules := mustFile(t, `
		Double(x) = y :- Source(x), y == x + x;
	`)
	makeRule := mustRule(t, `Tripled := Double(Source: Triples)`)

	f := functor.New(rules)
	require.NoError(t, f.Make(makeRule))

	found := false
	for _, r := range f.Rules() {
		if r.Head.Name == "Tripled" {
			found = true
		}
	}
	require.True(t, found, "expected a Tripled rule after Make")
}

func TestMakeAllRejectsUnknownArgument(t *testing.T) {
	rules := mustFile(t, `
		Double(x) = y :- Source(x), y == x + x;
	`)
	makeRule := mustRule(t, `Tripled := Double(NotAnArg: Triples)`)
	f := functor.New(rules)
	require.Error(t, f.Make(makeRule))
}

func TestRemoveRulesProvenToBeNilFlagsUserPredicate(t *testing.T) {
	rules := mustFile(t, `
		Broken(x) :- nil(x);
	`)
	f := functor.New(rules)
	_, err := f.RemoveRulesProvenToBeNil(f.Rules())
	require.Error(t, err)
}

func TestIsCutOfCoverSingleCutVertex(t *testing.T) {
	rules := mustFile(t, `
		A(x) :- B(x);
		B(x) :- C(x);
		C(x) :- A(x);
	`)
	f := functor.New(rules)
	cover := map[string]struct{}{"A": {}, "B": {}, "C": {}}
	require.True(t, f.IsCutOfCover("A", cover))
}

func TestRecursiveAnalysisPicksVerticalForSimpleCycle(t *testing.T) {
	rules := mustFile(t, `
		A(x) :- B(x);
		B(x) :- A(x);
	`)
	f := functor.New(rules)
	depthMap := map[string]functor.DepthSpec{}
	should, cover := f.RecursiveAnalysis(depthMap, false, 5)
	require.NotEmpty(t, should)
	for p, style := range should {
		require.Equal(t, "vertical", style)
		require.Contains(t, cover[p], "A")
	}
}

func TestUnfoldRecursionsVerticalProducesBoundedRules(t *testing.T) {
	rules := mustFile(t, `
		A(x) :- B(x);
		B(x) :- A(x);
		A(0);
	`)
	f := functor.New(rules)
	unfolded, err := f.UnfoldRecursions(map[string]functor.DepthSpec{}, false, 3)
	require.NoError(t, err)

	names := map[string]int{}
	for name := range parser.MadePredicates(unfolded) {
		names[name]++
	}
	require.Greater(t, names["A_r0"]+names["A_r1"]+names["A_r2"]+names["A_r3"], 0)
}
