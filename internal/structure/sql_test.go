package structure_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/logica-lang/logica/internal/ast"
	"github.com/logica-lang/logica/internal/desugar"
	"github.com/logica-lang/logica/internal/dialect"
	"github.com/logica-lang/logica/internal/structure"
)

type stubEncoder struct {
	tables map[string]string
}

func (e stubEncoder) TranslateTable(predicate string, _ map[string]string) (string, error) {
	if sql, ok := e.tables[predicate]; ok {
		return sql, nil
	}
	return predicate, nil
}

func (e stubEncoder) TranslateCombine(rule *ast.Rule, vocabulary map[string]string) (string, error) {
	return "", errNoCombine
}

var errNoCombine = &structure.Error{Message: "combine not supported in this test"}

func bigQueryDialect(t *testing.T) *dialect.Dialect {
	t.Helper()
	d, err := dialect.Get("bigquery")
	require.NoError(t, err)
	return d
}

func TestAsSqlRendersJoin(t *testing.T) {
	rule := mustRule(t, `Grandparent(x, z) :- Parent(x, y), Parent(y, z)`)
	alloc := structure.NewNamesAllocator(nil)
	s, err := structure.ExtractRuleStructure(rule, alloc, nil)
	require.NoError(t, err)
	require.NoError(t, s.ElliminateInternalVariables(false))
	s.UnificationsToConstraints()

	sql, err := s.AsSql(stubEncoder{tables: map[string]string{"Parent": "parent_table"}}, bigQueryDialect(t), nil, nil)
	require.NoError(t, err)
	require.Contains(t, sql, "SELECT")
	require.Contains(t, sql, "FROM")
	require.Contains(t, sql, "parent_table AS")
	require.Contains(t, sql, "WHERE")
}

func TestAsSqlEmptySelectErrors(t *testing.T) {
	alloc := structure.NewNamesAllocator(nil)
	s := structure.NewRuleStructure(alloc, nil)
	_, err := s.AsSql(stubEncoder{}, bigQueryDialect(t), nil, nil)
	require.Error(t, err)
}

func TestAsSqlRendersDistinctAggregationGroupBy(t *testing.T) {
	rule := mustRule(t, `Total(k, x) distinct += y :- Values(k, x, y)`)
	rewritten := desugar.AggregationsAsExpressions([]*ast.Rule{rule})
	alloc := structure.NewNamesAllocator(nil)
	s, err := structure.ExtractRuleStructure(rewritten[0], alloc, nil)
	require.NoError(t, err)
	require.NoError(t, s.ElliminateInternalVariables(false))
	s.UnificationsToConstraints()

	sql, err := s.AsSql(stubEncoder{tables: map[string]string{"Values": "values_table"}}, bigQueryDialect(t), nil, nil)
	require.NoError(t, err)
	require.Contains(t, sql, "GROUP BY")
}

func TestAsSqlFallsBackToSingletonWhenNoTables(t *testing.T) {
	rule := mustRule(t, `Constant(x) :- x == 5, x > 3`)
	alloc := structure.NewNamesAllocator(nil)
	s, err := structure.ExtractRuleStructure(rule, alloc, nil)
	require.NoError(t, err)
	require.NoError(t, s.ElliminateInternalVariables(false))
	s.UnificationsToConstraints()

	sql, err := s.AsSql(stubEncoder{}, bigQueryDialect(t), nil, nil)
	require.NoError(t, err)
	require.Contains(t, sql, "unused_singleton")
}
