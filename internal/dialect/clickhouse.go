package dialect

const clickhouseLibrary = `
->(left:, right:) = {arg: left, value: right};
` + "`=`" + `(left:, right:) = right :- left == right;

Arrow(left, right) = arrow :-
  left == arrow.arg,
  right == arrow.value;

# Aggregates.
ArgMin(arr) = SqlExpr(
    "argMin({a}, {v})", {a:, v:}) :- Arrow(a, v) == arr;

ArgMax(arr) = SqlExpr(
    "argMax({a}, {v})", {a:, v:}) :- Arrow(a, v) == arr;

# Best-effort top-k helpers using tuple sorting.
ArgMaxK(a, l) = SqlExpr(
  "arraySlice(arrayMap(x -> x.2, arrayReverseSort(groupArray(({value}, {arg})))), 1, {lim})",
  {arg: a.arg, value: a.value, lim: l});

ArgMinK(a, l) = SqlExpr(
  "arraySlice(arrayMap(x -> x.2, arraySort(groupArray(({value}, {arg})))), 1, {lim})",
  {arg: a.arg, value: a.value, lim: l});

Array(a) = SqlExpr(
  "arrayMap(x -> x.2, arraySort(groupArray(({arg}, {value}))))",
  {arg: a.arg, value: a.value});

RecordAsJson(r) = SqlExpr("toJSONString({x})", {x: r});

# Hash helpers.
Fingerprint(s) = SqlExpr("reinterpretAsInt64(cityHash64(toString({s})))", {s:});
NaturalHash(x) = Fingerprint(x);

Chr(x) = SqlExpr("char({x})", {x:});

Num(a) = a;
Str(a) = a;
`

// ClickHouse, like DuckDB, has a dialect_libraries file
// (clickhouse_library.py) but no corresponding class in dialects.py's
// DIALECTS registry in this retrieval pack; its BuiltInFunctions below
// are grounded directly on that library file's SqlExpr-based helpers
// (argMin/argMax/groupArray/arraySort, ClickHouse's own array function
// names rather than Postgres/SQLite equivalents) plus ClickHouse's
// native array subscripting and concatenation syntax.
func clickhouseSubscript(record, subscript string, _ bool) string {
	return record + "." + subscript
}

func init() {
	Register("clickhouse", NewBuilder("ClickHouse").
		WithBuiltInFunctions(map[string]string{
			"ArgMin":       "argMin({0}, {1})",
			"ArgMax":       "argMax({0}, {1})",
			"Range":        "range(0, {0})",
			"ToString":     "CAST(%s AS String)",
			"ToInt64":      "CAST(%s AS Int64)",
			"Element":      "arrayElement({0}, {1} + 1)",
			"Size":         "length({0})",
			"Count":        "COUNT(DISTINCT {0})",
			"RecordAsJson": "toJSONString({0})",
			"Fingerprint":  "reinterpretAsInt64(cityHash64(toString({0})))",
			"ArrayConcat":  "arrayConcat({0}, {1})",
		}).
		WithInfixOperators(map[string]string{
			"++": "concat(%s, %s)",
		}).
		WithSubscript(clickhouseSubscript).
		WithLibraryProgram(clickhouseLibrary).
		WithUnnestPhrase("arrayJoin({0}) as {1}").
		WithArrayPhrase("[%s]").
		WithGroupBySpecBy("expr").
		Build())
}
