package dialect

const duckdbLibrary = `
->(left:, right:) = {arg: left, value: right};
` + "`=`" + `(left:, right:) = right :- left == right;

Arrow(left, right) = arrow :-
  left == arrow.arg,
  right == arrow.value;

PrintToConsole(message) :- 1 == SqlExpr("PrintToConsole({message})", {message:});

ArgMin(arr) = SqlExpr(
    "argmin({a}, {v})", {a:, v:}) :- Arrow(a, v) == arr;

ArgMax(arr) = SqlExpr(
    "argmax({a}, {v})", {a:, v:}) :- Arrow(a, v) == arr;

ArgMaxK(a, l) = SqlExpr(
  "(array_agg({arg} order by {value} desc))[1:{lim}]",
  {arg: a.arg, value: a.value, lim: l});

ArgMinK(a, l) = SqlExpr(
  "(array_agg({arg} order by {value}))[1:{lim}]",
  {arg: a.arg, value: a.value, lim: l});

Array(arr) =
    SqlExpr("ArgMin({v}, {a})", {a:, v:}) :- Arrow(a, v) == arr;

RecordAsJson(r) = SqlExpr(
  "ROW_TO_JSON({r})", {r:});

Fingerprint(s) = SqlExpr("('x' || substr(md5({s}), 1, 16))::bit(64)::bigint", {s:});

ReadFile(filename) = SqlExpr("pg_read_file({filename})", {filename:});

Chr(x) = SqlExpr("Chr({x})", {x:});

Num(a) = a;
Str(a) = a;
`

// DuckDB's SQL surface is Postgres-like (array subscripting, ARRAY_AGG,
// bracket slicing), so its Subscript/InfixOperators/GroupBySpecBy mirror
// PostgreSQL's dialect in dialects.py; its BuiltInFunctions and library
// program are grounded on duckdb_library.py directly. dialects.py's own
// DIALECTS registry (original_source/compiler/dialects.py) does not list
// a DuckDB class despite duckdb_library.py existing alongside the other
// engines' libraries, so this dialect is assembled the same way the
// other engines' classes are, following the pattern rather than a
// missing class body.
func duckdbSubscript(record, subscript string, _ bool) string {
	return "(" + record + ")." + subscript
}

func init() {
	Register("duckdb", NewBuilder("DuckDB").
		WithBuiltInFunctions(map[string]string{
			"ArgMin":        "argmin({0}, {1})",
			"ArgMax":        "argmax({0}, {1})",
			"Range":         "(SELECT ARRAY_AGG(x) FROM RANGE(0, {0}) as t(x))",
			"ToString":      "CAST(%s AS TEXT)",
			"ToInt64":       "CAST(%s AS BIGINT)",
			"Element":       "({0})[{1} + 1]",
			"Size":          "ARRAY_LENGTH({0})",
			"Count":         "COUNT(DISTINCT {0})",
			"RecordAsJson":  "ROW_TO_JSON({0})",
			"Fingerprint":   "(('x' || substr(md5({0}), 1, 16))::bit(64)::bigint)",
			"ArrayConcat":   "{0} || {1}",
		}).
		WithInfixOperators(map[string]string{
			"++": "CONCAT(%s, %s)",
		}).
		WithSubscript(duckdbSubscript).
		WithLibraryProgram(duckdbLibrary).
		WithUnnestPhrase("UNNEST({0}) as {1}").
		WithArrayPhrase("ARRAY[%s]").
		WithGroupBySpecBy("expr").
		Build())
}
