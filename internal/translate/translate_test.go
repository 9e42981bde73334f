package translate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/logica-lang/logica/internal/ast"
	"github.com/logica-lang/logica/internal/dialect"
	"github.com/logica-lang/logica/internal/heritage"
	"github.com/logica-lang/logica/internal/lexer"
	"github.com/logica-lang/logica/internal/parser"
	"github.com/logica-lang/logica/internal/translate"
)

func mustExpr(t *testing.T, text string) ast.Expr {
	t.Helper()
	e, err := parser.ParseExpression(lexer.NewSource(heritage.NewBuffer("test.l", text)))
	require.NoError(t, err)
	require.NotNil(t, e)
	return e
}

func bigQuery(t *testing.T) *dialect.Dialect {
	t.Helper()
	d, err := dialect.Get("bigquery")
	require.NoError(t, err)
	return d
}

func TestConvertVariableFromVocabulary(t *testing.T) {
	e := mustExpr(t, "x")
	tr := translate.New(map[string]string{"x": "t_0.col0"}, nil, bigQuery(t), nil, nil)
	sql, err := tr.Convert(e)
	require.NoError(t, err)
	require.Equal(t, "t_0.col0", sql)
}

func TestConvertUndefinedVariableErrors(t *testing.T) {
	e := mustExpr(t, "x")
	tr := translate.New(map[string]string{}, nil, bigQuery(t), nil, nil)
	_, err := tr.Convert(e)
	require.Error(t, err)
}

func TestConvertStringLiteral(t *testing.T) {
	e := mustExpr(t, `"hi"`)
	tr := translate.New(nil, nil, bigQuery(t), nil, nil)
	sql, err := tr.Convert(e)
	require.NoError(t, err)
	require.Equal(t, `"hi"`, sql)
}

func TestConvertPostgresStringLiteralUsesSingleQuotes(t *testing.T) {
	e := mustExpr(t, `"hi"`)
	d, err := dialect.Get("psql")
	require.NoError(t, err)
	tr := translate.New(nil, nil, d, nil, nil)
	sql, err := tr.Convert(e)
	require.NoError(t, err)
	require.Equal(t, `'hi'`, sql)
}

func TestConvertInfixComparison(t *testing.T) {
	e := mustExpr(t, "1 < 2")
	tr := translate.New(nil, nil, bigQuery(t), nil, nil)
	sql, err := tr.Convert(e)
	require.NoError(t, err)
	require.Equal(t, "(1 < 2)", sql)
}

func TestConvertEqualityIsNotParenthesized(t *testing.T) {
	e := mustExpr(t, "1 == 2")
	tr := translate.New(nil, nil, bigQuery(t), nil, nil)
	sql, err := tr.Convert(e)
	require.NoError(t, err)
	require.Equal(t, "1 = 2", sql)
}

func TestConvertBuiltInFunctionSingleArg(t *testing.T) {
	e := mustExpr(t, "Size(x)")
	tr := translate.New(map[string]string{"x": "arr"}, nil, bigQuery(t), nil, nil)
	sql, err := tr.Convert(e)
	require.NoError(t, err)
	require.Equal(t, "ARRAY_LENGTH(arr)", sql)
}

func TestConvertBuiltInFunctionWrongArityErrors(t *testing.T) {
	e := mustExpr(t, "Size(x, y)")
	tr := translate.New(map[string]string{"x": "a", "y": "b"}, nil, bigQuery(t), nil, nil)
	_, err := tr.Convert(e)
	require.Error(t, err)
}

func TestConvertListLiteral(t *testing.T) {
	e := mustExpr(t, "[1, 2, 3]")
	tr := translate.New(nil, nil, bigQuery(t), nil, nil)
	sql, err := tr.Convert(e)
	require.NoError(t, err)
	require.Equal(t, "ARRAY[1, 2, 3]", sql)
}

func TestConvertRecordLiteral(t *testing.T) {
	e := mustExpr(t, "{a: 1, b: 2}")
	tr := translate.New(nil, nil, bigQuery(t), nil, nil)
	sql, err := tr.Convert(e)
	require.NoError(t, err)
	require.Equal(t, "STRUCT(1 AS a, 2 AS b)", sql)
}

func TestConvertSubscriptOptimizesRecordLiteral(t *testing.T) {
	e := mustExpr(t, "{a: 1, b: 2}.a")
	tr := translate.New(nil, nil, bigQuery(t), nil, nil)
	sql, err := tr.Convert(e)
	require.NoError(t, err)
	require.Equal(t, "1", sql)
}

func TestConvertImplication(t *testing.T) {
	e := mustExpr(t, "if x > 0 then 1 else 0")
	tr := translate.New(map[string]string{"x": "t_0.col0"}, nil, bigQuery(t), nil, nil)
	sql, err := tr.Convert(e)
	require.NoError(t, err)
	require.Equal(t, "CASE WHEN (t_0.col0 > 0) THEN 1 ELSE 0 END", sql)
}

func TestConvertCustomUdf(t *testing.T) {
	e := mustExpr(t, "DoubleIt(x)")
	tr := translate.New(map[string]string{"x": "t_0.col0"}, nil, bigQuery(t),
		map[string]string{"DoubleIt": "{col0} * 2"}, nil)
	sql, err := tr.Convert(e)
	require.NoError(t, err)
	require.Equal(t, "t_0.col0 * 2", sql)
}

func TestConvertFlagValue(t *testing.T) {
	e := mustExpr(t, `FlagValue("threshold")`)
	tr := translate.New(nil, nil, bigQuery(t), nil, map[string]string{"threshold": "42"})
	sql, err := tr.Convert(e)
	require.NoError(t, err)
	require.Equal(t, `"42"`, sql)
}

func TestConvertFlagValueUnspecifiedErrors(t *testing.T) {
	e := mustExpr(t, `FlagValue("threshold")`)
	tr := translate.New(nil, nil, bigQuery(t), nil, nil)
	_, err := tr.Convert(e)
	require.Error(t, err)
}

func TestConvertCast(t *testing.T) {
	e := mustExpr(t, `Cast(x, "STRING")`)
	tr := translate.New(map[string]string{"x": "t_0.col0"}, nil, bigQuery(t), nil, nil)
	sql, err := tr.Convert(e)
	require.NoError(t, err)
	require.Equal(t, "CAST(t_0.col0 AS STRING)", sql)
}

func TestConvertSqlExpr(t *testing.T) {
	e := mustExpr(t, `SqlExpr("UPPER({s})", {s: x})`)
	tr := translate.New(map[string]string{"x": "t_0.col0"}, nil, bigQuery(t), nil, nil)
	sql, err := tr.Convert(e)
	require.NoError(t, err)
	require.Equal(t, "UPPER(t_0.col0)", sql)
}

type stubSubquery struct {
	sql string
	err error
}

func (s stubSubquery) TranslateCombine(rule *ast.Rule, vocabulary map[string]string) (string, error) {
	return s.sql, s.err
}

func TestConvertCombineDelegatesToSubqueryTranslator(t *testing.T) {
	e := mustExpr(t, "combine += y :- Values(y)")
	tr := translate.New(nil, stubSubquery{sql: "SELECT SUM(y) FROM t"}, bigQuery(t), nil, nil)
	sql, err := tr.Convert(e)
	require.NoError(t, err)
	require.Equal(t, "(SELECT SUM(y) FROM t)", sql)
}

func TestConvertCombineWithoutTranslatorErrors(t *testing.T) {
	e := mustExpr(t, "combine += y :- Values(y)")
	tr := translate.New(nil, nil, bigQuery(t), nil, nil)
	_, err := tr.Convert(e)
	require.Error(t, err)
}
