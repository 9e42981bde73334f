package dialect_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/logica-lang/logica/internal/ast"
	"github.com/logica-lang/logica/internal/dialect"
)

func TestGetKnownDialects(t *testing.T) {
	for _, name := range []string{"bigquery", "sqlite", "psql", "trino", "presto", "duckdb", "clickhouse"} {
		d, err := dialect.Get(name)
		require.NoError(t, err, name)
		require.NotEmpty(t, d.Name(), name)
		require.NotEmpty(t, d.LibraryProgram(), name)
	}
}

func TestGetUnknownDialect(t *testing.T) {
	_, err := dialect.Get("oracle")
	require.Error(t, err)
	var unknown *dialect.UnknownDialectError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, "oracle", unknown.Name)
}

func TestSqliteSubscriptDistinguishesTableVsJSON(t *testing.T) {
	d, err := dialect.Get("sqlite")
	require.NoError(t, err)
	require.Equal(t, "t.x", d.Subscript("t", "x", true))
	require.Equal(t, `JSON_EXTRACT(r, "$.x")`, d.Subscript("r", "x", false))
}

func TestPostgresCascadingDeletion(t *testing.T) {
	d, err := dialect.Get("psql")
	require.NoError(t, err)
	require.Equal(t, " CASCADE", d.MaybeCascadingDeletionWord())
}

func TestBigQueryPredicateLiteral(t *testing.T) {
	d, err := dialect.Get("bigquery")
	require.NoError(t, err)
	require.Equal(t, `STRUCT("Foo" AS predicate_name)`, d.PredicateLiteral("Foo"))
}

func TestDefaultPredicateLiteral(t *testing.T) {
	d, err := dialect.Get("trino")
	require.NoError(t, err)
	require.Equal(t, `'predicate_name:Foo'`, d.PredicateLiteral("Foo"))
}

func TestMagicallyEntangleCombineRuleOnlyOnSqliteAndPostgres(t *testing.T) {
	rule := &ast.Rule{
		Head: &ast.PredicateCall{
			Name: "Total",
			Args: &ast.Record{Fields: []ast.FieldValue{
				{Field: ast.PositionalField(0), Expr: &ast.Call{
					Predicate: "Agg+",
					Args: &ast.Record{Fields: []ast.FieldValue{
						{Field: ast.PositionalField(0), Expr: &ast.Variable{Name: "y"}},
					}},
				}},
			}},
		},
		Body: &ast.Conjunction{},
	}

	bq, err := dialect.Get("bigquery")
	require.NoError(t, err)
	require.Same(t, rule, bq.DecorateCombineRule(rule, "v"))

	sqlite, err := dialect.Get("sqlite")
	require.NoError(t, err)
	decorated := sqlite.DecorateCombineRule(rule, "v")
	require.NotSame(t, rule, decorated)
	require.Len(t, decorated.Body.Conjuncts, 1)
	_, ok := decorated.Body.Conjuncts[0].(*ast.InclusionConjunct)
	require.True(t, ok)
	call := decorated.Head.Args.Fields[0].Expr.(*ast.Call)
	inner := call.Args.Fields[0].Expr.(*ast.Call)
	require.Equal(t, "MagicalEntangle", inner.Predicate)
}
