package universe_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/logica-lang/logica/internal/ast"
	"github.com/logica-lang/logica/internal/universe"
)

func TestNewProgramCompilesSingleRulePredicate(t *testing.T) {
	rules := []*ast.Rule{
		mustRule(t, `Foo(x) :- Bar(x)`),
	}
	p, err := universe.NewProgram(rules, nil, nil)
	require.NoError(t, err)

	result, err := p.FormattedPredicateSql("Foo")
	require.NoError(t, err)
	require.Contains(t, result.SQL, "SELECT")
	require.Contains(t, result.SQL, "Bar")
}

func TestNewProgramUnionsMultipleRules(t *testing.T) {
	rules := []*ast.Rule{
		mustRule(t, `Foo(x) :- Bar(x)`),
		mustRule(t, `Foo(x) :- Baz(x)`),
	}
	p, err := universe.NewProgram(rules, nil, nil)
	require.NoError(t, err)

	result, err := p.FormattedPredicateSql("Foo")
	require.NoError(t, err)
	require.Contains(t, result.SQL, "UNION ALL")
	require.Contains(t, result.SQL, "Bar")
	require.Contains(t, result.SQL, "Baz")
}

func TestNewProgramGroundProducesExportStatement(t *testing.T) {
	rules := []*ast.Rule{
		mustRule(t, `Foo(x) :- Bar(x)`),
		mustRule(t, `@Ground(Foo)`),
		mustRule(t, `Main(x) :- Foo(x)`),
	}
	p, err := universe.NewProgram(rules, nil, nil)
	require.NoError(t, err)

	result, err := p.FormattedPredicateSql("Main")
	require.NoError(t, err)
	require.Len(t, result.ExportStatements, 1)
	require.Contains(t, result.ExportStatements[0], "CREATE TABLE")
	require.Contains(t, result.ExportStatements[0], "logica_test.Foo")
	require.Contains(t, result.SQL, "logica_test.Foo")
}

func TestNewProgramWithProducesWithClause(t *testing.T) {
	rules := []*ast.Rule{
		mustRule(t, `Foo(x) :- Bar(x)`),
		mustRule(t, `@With(Foo)`),
		mustRule(t, `Main(x) :- Foo(x)`),
	}
	p, err := universe.NewProgram(rules, nil, nil)
	require.NoError(t, err)

	result, err := p.FormattedPredicateSql("Main")
	require.NoError(t, err)
	require.Contains(t, result.SQL, "WITH")
	require.Contains(t, result.SQL, "Bar")
}

func TestNewProgramResolvesFlagPlaceholderToFixedPoint(t *testing.T) {
	rules := []*ast.Rule{
		mustRule(t, `Threshold(x) :- x == "${threshold}"`),
		mustRule(t, `@DefineFlag("threshold", "3")`),
	}
	p, err := universe.NewProgram(rules, nil, nil)
	require.NoError(t, err)

	result, err := p.FormattedPredicateSql("Threshold")
	require.NoError(t, err)
	require.Contains(t, result.SQL, `"3"`)
	require.NotContains(t, result.SQL, "${threshold}")
}

func TestNewProgramCompilesCustomUdf(t *testing.T) {
	rules := []*ast.Rule{
		mustRule(t, `Double(x) = x + x`),
		mustRule(t, `@CompileAsUdf(Double)`),
		mustRule(t, `Main(y) :- Bar(x), y == Double(x)`),
	}
	p, err := universe.NewProgram(rules, nil, nil)
	require.NoError(t, err)

	result, err := p.FormattedPredicateSql("Main")
	require.NoError(t, err)
	require.Contains(t, result.SQL, "CREATE TEMP FUNCTION Double")
	require.Contains(t, result.SQL, "Double(")
	require.True(t, strings.Contains(result.SQL, "x + x") || strings.Contains(result.SQL, "(x + x)"))
}

func TestFormattedPredicateSqlRejectsUndefinedFlag(t *testing.T) {
	rules := []*ast.Rule{
		mustRule(t, `Foo(x) :- x == "${missing}"`),
	}
	_, err := universe.NewProgram(rules, nil, nil)
	require.Error(t, err)
}

func TestFormattedPredicateSqlRejectsUnknownPredicate(t *testing.T) {
	rules := []*ast.Rule{
		mustRule(t, `Foo(x) :- Bar(x)`),
	}
	p, err := universe.NewProgram(rules, nil, nil)
	require.NoError(t, err)

	_, err = p.FormattedPredicateSql("Ghost")
	require.Error(t, err)
}
