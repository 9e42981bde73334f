package dialect

const sqliteLibrary = `
->(left:, right:) = {arg: left, value: right};

Arrow(left, right) = arrow :-
  left == arrow.arg,
  right == arrow.value;

PrintToConsole(message) :- 1 == SqlExpr("PrintToConsole({message})", {message:});

ArgMin(arr) = Element(
    SqlExpr("ArgMin({a}, {v}, 1)", {a:, v:}), 0) :- Arrow(a, v) == arr;

ArgMax(arr) = Element(
    SqlExpr("ArgMax({a}, {v}, 1)", {a:, v:}), 0) :- Arrow(a, v) == arr;

ArgMinK(arr, k) =
    SqlExpr("ArgMin({a}, {v}, {k})", {a:, v:, k:}) :-
  Arrow(a, v) == arr;

ArgMaxK(arr, k) =
    SqlExpr("ArgMax({a}, {v}, {k})", {a:, v:, k:}) :- Arrow(a, v) == arr;

ReadFile(filename) = SqlExpr("ReadFile({filename})", {filename:});

ReadJson(filename) = ReadFile(filename);

WriteFile(filename, content:) = SqlExpr("WriteFile({filename}, {content})",
                                        {filename:, content:});
`

func sqliteSubscript(record, subscript string, recordIsTable bool) string {
	if recordIsTable {
		return record + "." + subscript
	}
	return `JSON_EXTRACT(` + record + `, "$.` + subscript + `")`
}

func init() {
	Register("sqlite", NewBuilder("SqLite").
		WithBuiltInFunctions(map[string]string{
			"Set":     "DistinctListAgg({0})",
			"Element": `JSON_EXTRACT({0}, '$[' || {1} || ']')`,
			"Range": "(select json_group_array(n) from (with recursive t as" +
				"(select 0 as n union all " +
				"select n + 1 as n from t where n + 1 < {0}) " +
				"select n from t) where n < {0})",
			"ValueOfUnnested": "{0}.value",
			"List":            "JSON_GROUP_ARRAY({0})",
			"Size":            "JSON_ARRAY_LENGTH({0})",
			"Join":            "JOIN_STRINGS({0}, {1})",
			"Count":           "COUNT(DISTINCT {0})",
			"StringAgg":       "GROUP_CONCAT(%s)",
			"Sort":            "SortList({0})",
			"MagicalEntangle": "MagicalEntangle({0}, {1})",
			"Format":          "Printf(%s)",
			"Least":           "MIN(%s)",
			"Greatest":        "MAX(%s)",
			"ToString":        "CAST(%s AS TEXT)",
		}).
		WithInfixOperators(map[string]string{
			"++": "(%s) || (%s)",
			"%":  "(%s) %% (%s)",
			"in": "IN_LIST(%s, %s)",
		}).
		WithSubscript(sqliteSubscript).
		WithLibraryProgram(sqliteLibrary).
		WithUnnestPhrase("JSON_EACH({0}) as {1}").
		WithArrayPhrase("JSON_ARRAY(%s)").
		WithGroupBySpecBy("expr").
		WithDecorateCombineRule(magicallyEntangleCombineRule).
		Build())
}
