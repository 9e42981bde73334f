package dialect

const psqlLibrary = `
->(left:, right:) = {arg: left, value: right};

ArgMin(a) = SqlExpr("(ARRAY_AGG({arg} order by {value}))[1]",
                    {arg: a.arg, value: a.value});

ArgMax(a) = SqlExpr(
  "(ARRAY_AGG({arg} order by {value} desc))[1]",
  {arg: a.arg, value: a.value});

ArgMaxK(a, l) = SqlExpr(
  "(ARRAY_AGG({arg} order by {value} desc))[1:{lim}]",
  {arg: a.arg, value: a.value, lim: l});

ArgMinK(a, l) = SqlExpr(
  "(ARRAY_AGG({arg} order by {value}))[1:{lim}]",
  {arg: a.arg, value: a.value, lim: l});

Array(a) = SqlExpr(
  "ARRAY_AGG({value} order by {arg})",
  {arg: a.arg, value: a.value});
`

func psqlSubscript(record, subscript string, _ bool) string {
	return "(" + record + ")." + subscript
}

func init() {
	Register("psql", NewBuilder("PostgreSQL").
		WithBuiltInFunctions(map[string]string{
			"Range":           "(SELECT ARRAY_AGG(x) FROM GENERATE_SERIES(0, {0} - 1) as x)",
			"ToString":        "CAST(%s AS TEXT)",
			"ToInt64":         "CAST(%s AS BIGINT)",
			"Element":         "({0})[{1} + 1]",
			"Size":            "COALESCE(ARRAY_LENGTH({0}, 1), 0)",
			"Count":           "COUNT(DISTINCT {0})",
			"MagicalEntangle": "(CASE WHEN {1} = 0 THEN {0} ELSE NULL END)",
			"ArrayConcat":     "{0} || {1}",
			"Split":           "STRING_TO_ARRAY({0}, {1})",
		}).
		WithInfixOperators(map[string]string{
			"++": "CONCAT(%s, %s)",
		}).
		WithSubscript(psqlSubscript).
		WithLibraryProgram(psqlLibrary).
		WithUnnestPhrase("UNNEST({0}) as {1}").
		WithArrayPhrase("ARRAY[%s]").
		WithGroupBySpecBy("expr").
		WithDecorateCombineRule(magicallyEntangleCombineRule).
		WithMaybeCascadingDeletionWord(" CASCADE").
		Build())
}
