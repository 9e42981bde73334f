package universe_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/logica-lang/logica/internal/ast"
	"github.com/logica-lang/logica/internal/heritage"
	"github.com/logica-lang/logica/internal/lexer"
	"github.com/logica-lang/logica/internal/parser"
	"github.com/logica-lang/logica/internal/universe"
)

func mustRule(t *testing.T, text string) *ast.Rule {
	t.Helper()
	rule, err := parser.ParseRule(lexer.NewSource(heritage.NewBuffer("test.l", text)))
	require.NoError(t, err)
	return rule
}

func TestLimitOfReadsAnnotatedValue(t *testing.T) {
	rules := []*ast.Rule{
		mustRule(t, `Foo(x) :- Bar(x)`),
		mustRule(t, `@Limit(Foo, 10)`),
	}
	a, err := universe.NewAnnotations(rules, nil)
	require.NoError(t, err)

	limit, ok, err := a.LimitOf("Foo")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 10, limit)

	clause, err := a.LimitClause("Foo")
	require.NoError(t, err)
	require.Equal(t, " LIMIT 10", clause)
}

func TestOrderByClauseRendersDescMarker(t *testing.T) {
	rules := []*ast.Rule{
		mustRule(t, `Foo(x) :- Bar(x)`),
		mustRule(t, `@OrderBy(Foo, "cost", "name", "DESC")`),
	}
	a, err := universe.NewAnnotations(rules, nil)
	require.NoError(t, err)

	clause, err := a.OrderByClause("Foo")
	require.NoError(t, err)
	require.Equal(t, " ORDER BY cost, name DESC", clause)
}

func TestGroundDefaultsTableNameToDatasetAndPredicate(t *testing.T) {
	rules := []*ast.Rule{
		mustRule(t, `Foo(x) :- Bar(x)`),
		mustRule(t, `@Ground(Foo)`),
	}
	a, err := universe.NewAnnotations(rules, nil)
	require.NoError(t, err)

	ground, err := a.Ground("Foo")
	require.NoError(t, err)
	require.NotNil(t, ground)
	require.Equal(t, "logica_test.Foo", ground.TableName)
	require.True(t, ground.Overwrite)
}

func TestGroundHonorsExplicitTableNameAndOverwrite(t *testing.T) {
	rules := []*ast.Rule{
		mustRule(t, `Foo(x) :- Bar(x)`),
		mustRule(t, `@Ground(Foo, "mydataset.foo_table", overwrite: false)`),
	}
	a, err := universe.NewAnnotations(rules, nil)
	require.NoError(t, err)

	ground, err := a.Ground("Foo")
	require.NoError(t, err)
	require.Equal(t, "mydataset.foo_table", ground.TableName)
	require.False(t, ground.Overwrite)
}

func TestWithIsFalseForGroundedPredicate(t *testing.T) {
	rules := []*ast.Rule{
		mustRule(t, `Foo(x) :- Bar(x)`),
		mustRule(t, `@Ground(Foo)`),
	}
	a, err := universe.NewAnnotations(rules, nil)
	require.NoError(t, err)

	isWith, err := a.With("Foo")
	require.NoError(t, err)
	require.False(t, isWith)
}

func TestWithAndNoWithTogetherErrors(t *testing.T) {
	rules := []*ast.Rule{
		mustRule(t, `Foo(x) :- Bar(x)`),
		mustRule(t, `@With(Foo)`),
		mustRule(t, `@NoWith(Foo)`),
	}
	a, err := universe.NewAnnotations(rules, nil)
	require.NoError(t, err)

	_, err = a.With("Foo")
	require.Error(t, err)
}

func TestEngineRejectsUnknownDialect(t *testing.T) {
	rules := []*ast.Rule{
		mustRule(t, `Foo(x) :- Bar(x)`),
		mustRule(t, `@Engine("not_a_real_engine")`),
	}
	a, err := universe.NewAnnotations(rules, nil)
	require.NoError(t, err)

	_, err = a.Engine()
	require.Error(t, err)
}

func TestEngineDefaultsToBigquery(t *testing.T) {
	rules := []*ast.Rule{
		mustRule(t, `Foo(x) :- Bar(x)`),
	}
	a, err := universe.NewAnnotations(rules, nil)
	require.NoError(t, err)

	engine, err := a.Engine()
	require.NoError(t, err)
	require.Equal(t, "bigquery", engine)
}

func TestNewAnnotationsRejectsUndefinedUserFlag(t *testing.T) {
	rules := []*ast.Rule{
		mustRule(t, `Foo(x) :- Bar(x)`),
	}
	_, err := universe.NewAnnotations(rules, map[string]string{"threshold": "5"})
	require.Error(t, err)
}

func TestBuildFlagValuesAppliesDefaultThenUserOverride(t *testing.T) {
	rules := []*ast.Rule{
		mustRule(t, `Foo(x) :- Bar(x)`),
		mustRule(t, `@DefineFlag("threshold", "3")`),
	}
	a, err := universe.NewAnnotations(rules, nil)
	require.NoError(t, err)
	require.Equal(t, "3", a.FlagValues()["threshold"])

	a, err = universe.NewAnnotations(rules, map[string]string{"threshold": "9"})
	require.NoError(t, err)
	require.Equal(t, "9", a.FlagValues()["threshold"])
}

func TestCheckAnnotatedObjectsRejectsUnknownPredicate(t *testing.T) {
	rules := []*ast.Rule{
		mustRule(t, `Foo(x) :- Bar(x)`),
		mustRule(t, `@Limit(Ghost, 5)`),
	}
	_, err := universe.NewAnnotations(rules, nil)
	require.Error(t, err)
}

func TestOkInjectionFalseWhenLimited(t *testing.T) {
	rules := []*ast.Rule{
		mustRule(t, `Foo(x) :- Bar(x)`),
		mustRule(t, `@Limit(Foo, 5)`),
	}
	a, err := universe.NewAnnotations(rules, nil)
	require.NoError(t, err)

	ok, err := a.OkInjection("Foo")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = a.OkInjection("Bar")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestOnlyKnownAnnotationPredicatesAllowed(t *testing.T) {
	rules := []*ast.Rule{
		mustRule(t, `Foo(x) :- Bar(x)`),
		mustRule(t, `@NotARealAnnotation(Foo)`),
	}
	_, err := universe.NewAnnotations(rules, nil)
	require.Error(t, err)
}
