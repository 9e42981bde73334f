package dialect

// Presto's own library source (original_source/compiler/dialect_libraries
// /presto_library.py) was imported by dialects.py but never present in
// this retrieval pack, so its LibraryProgram falls back to Trino's: the
// two engines share the SEQUENCE/ARBITRARY built-in set below almost
// verbatim, and both UnnestPhrase/GroupBySpecBy are identical, so the
// ARRAY_AGG-based ArgMin/ArgMax helpers Trino ships are SQL Presto itself
// accepts.
func init() {
	Register("presto", NewBuilder("Presto").
		WithBuiltInFunctions(map[string]string{
			"Range":     "SEQUENCE(0, %s - 1)",
			"ToString":  "CAST(%s AS VARCHAR)",
			"ToInt64":   "CAST(%s AS BIGINT)",
			"ToFloat64": "CAST(%s AS DOUBLE)",
			"AnyValue":  "ARBITRARY(%s)",
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
