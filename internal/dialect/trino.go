package dialect

const trinoLibrary = `
->(left:, right:) = {arg: left, value: right};

ArgMin(a) = SqlExpr("(ARRAY_AGG({arg} order by {value}))[1]",
                    {arg: a.arg, value: a.value});

ArgMax(a) = SqlExpr(
  "(ARRAY_AGG({arg} order by {value} desc))[1]",
  {arg: a.arg, value: a.value});

ArgMaxK(a, l) = SqlExpr(
  "SLICE(ARRAY_AGG({arg} order by {value} desc), 1, {lim})",
  {arg: a.arg, value: a.value, lim: l});

ArgMinK(a, l) = SqlExpr(
  "SLICE(ARRAY_AGG({arg} order by {value}), 1, {lim})",
  {arg: a.arg, value: a.value, lim: l});

Array(a) = SqlExpr(
  "ARRAY_AGG({value} order by {arg})",
  {arg: a.arg, value: a.value});
`

func init() {
	Register("trino", NewBuilder("Trino").
		WithBuiltInFunctions(map[string]string{
			"Range":       "SEQUENCE(0, %s - 1)",
			"ToString":    "CAST(%s AS VARCHAR)",
			"ToInt64":     "CAST(%s AS BIGINT)",
			"ToFloat64":   "CAST(%s AS DOUBLE)",
			"AnyValue":    "ARBITRARY(%s)",
			"ArrayConcat": "{0} || {1}",
		}).
		WithInfixOperators(map[string]string{
			"++": "CONCAT(%s, %s)",
		}).
		WithLibraryProgram(trinoLibrary).
		WithUnnestPhrase("UNNEST({0}) as pushkin({1})").
		WithArrayPhrase("ARRAY[%s]").
		WithGroupBySpecBy("index").
		Build())
}
