package universe

import (
	"fmt"
	"sort"
	"strings"

	"github.com/logica-lang/logica/internal/ast"
	"github.com/logica-lang/logica/internal/structure"
)

// formatSql appends the statement terminator Logica's compiled SQL
// always carries, grounded on universe.py's FormatSql.
func formatSql(s string) string { return s + ";" }

func indent2(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}

// executionState accumulates the side effects of compiling one
// top-level predicate to SQL: DEFINE/EXPORT statements for @Ground'ed
// tables, WITH-table bookkeeping for @With'ed ones, and the dependency
// graph between grounded tables, grounded on universe.py's Logica
// class (renamed from "Logica" since this package already is
// universe, and the name would collide with the language itself).
type executionState struct {
	defines           []string
	exportStatements  []string
	definesAndExports []string

	tableToDefinedTable map[string]string
	tableToWithSql      map[string]string
	tableToWithDeps     map[string][]string
	withDoneForParent   map[string]map[string]struct{}

	dependencyEdges  [][2]string
	tableToExportMap map[string]string

	preamble      string
	workflowStack []string
	flagsComment  string
	compilingUDF  bool
}

func newExecutionState() *executionState {
	return &executionState{
		tableToDefinedTable: map[string]string{},
		tableToWithSql:      map[string]string{},
		tableToWithDeps:     map[string][]string{},
		withDoneForParent:   map[string]map[string]struct{}{},
		tableToExportMap:    map[string]string{},
	}
}

func (e *executionState) addDefine(s string) { e.defines = append(e.defines, s) }

func (e *executionState) peek() string {
	if len(e.workflowStack) == 0 {
		return ""
	}
	return e.workflowStack[len(e.workflowStack)-1]
}

func (e *executionState) push(p string) { e.workflowStack = append(e.workflowStack, p) }
func (e *executionState) pop()          { e.workflowStack = e.workflowStack[:len(e.workflowStack)-1] }

// with reports whether predicate should be compiled as a WITH-table,
// grounded on Logica.With: a UDF body never gets WITH-tables of its
// own, regardless of annotation.
func (e *executionState) with(a *Annotations, predicate string) (bool, error) {
	if e.compilingUDF {
		return false, nil
	}
	return a.With(predicate)
}

// neededUdfDefinitions returns, sorted, the SQL definitions of every
// custom UDF actually used while compiling this predicate, grounded on
// Logica.NeededUdfDefinitions.
func (e *executionState) neededUdfDefinitions(usedPredicates map[string]struct{}, customUDFDefinitions map[string]string) []string {
	var defs []string
	for name := range usedPredicates {
		if d, ok := customUDFDefinitions[name]; ok {
			defs = append(defs, d)
		}
	}
	sort.Strings(defs)
	return defs
}

// SubqueryTranslator renders FROM-clause tables and nested `combine`
// rules for one Program compile, grounded on universe.py's
// SubqueryTranslator. It implements structure.SubqueryEncoder.
type SubqueryTranslator struct {
	program   *Program
	allocator *structure.NamesAllocator
	exec      *executionState
}

func (p *Program) makeSubqueryTranslator(allocator *structure.NamesAllocator) *SubqueryTranslator {
	return &SubqueryTranslator{program: p, allocator: allocator, exec: p.exec}
}

// TranslateCombine renders a `combine` expression's inner rule as a
// parenthesized SELECT, grounded on SubqueryTranslator.TranslateRule.
func (t *SubqueryTranslator) TranslateCombine(rule *ast.Rule, vocabulary map[string]string) (string, error) {
	return t.program.singleRuleSql(rule, t.allocator, vocabulary)
}

// TranslateTable turns one FROM-clause table allocation into SQL,
// grounded on SubqueryTranslator.TranslateTable.
func (t *SubqueryTranslator) TranslateTable(table string, externalVocabulary map[string]string) (string, error) {
	if alias, ok := t.program.tableAliases[table]; ok {
		return alias, nil
	}
	ground, err := t.program.annotations.Ground(table)
	if err != nil {
		return "", err
	}
	if ground != nil {
		return t.translateTableAttachedToFile(table, ground, externalVocabulary)
	}
	if _, defined := t.program.definedPredicates[table]; defined {
		isWith, err := t.exec.with(t.program.annotations, table)
		if err != nil {
			return "", err
		}
		if isWith {
			return t.translateWithedTable(table)
		}
		sql, err := t.program.predicateSql(table, t.allocator, externalVocabulary)
		if err != nil {
			return "", err
		}
		return "(" + sql + ")", nil
	}
	return unquoteParenthesised(table), nil
}

// unquoteParenthesised lets a bare FROM-clause reference be written as
// a literal SQL string, grounded on
// SubqueryTranslator.UnquoteParenthesised.
func unquoteParenthesised(table string) string {
	if len(table) > 4 && strings.HasPrefix(table, "`(") && strings.HasSuffix(table, ")`") {
		return table[2 : len(table)-2]
	}
	return table
}

// translateTableAttachedToFile compiles a @Ground'ed predicate's own
// SQL once, records it as a CREATE TABLE export, and returns the
// physical table name its FROM clause should reference, grounded on
// SubqueryTranslator.TranslateTableAttachedToFile.
func (t *SubqueryTranslator) translateTableAttachedToFile(table string, ground *Ground, externalVocabulary map[string]string) (string, error) {
	t.exec.dependencyEdges = append(t.exec.dependencyEdges, [2]string{table, t.exec.peek()})
	if name, ok := t.exec.tableToDefinedTable[table]; ok {
		return name, nil
	}

	tableName := ground.TableName
	t.exec.tableToDefinedTable[table] = tableName
	defineStatement := "-- Interacting with table " + tableName
	t.exec.addDefine(defineStatement)

	var exportStatement string
	if _, defined := t.program.definedPredicates[table]; defined {
		t.exec.push(table)
		dependencySql, err := t.program.predicateSql(table, t.allocator, externalVocabulary)
		if err != nil {
			return "", err
		}
		withSignature, err := t.program.generateWithClauses(table)
		if err != nil {
			return "", err
		}
		if withSignature != "" {
			dependencySql = withSignature + "\n" + dependencySql
		}
		dependencySql, err = t.program.useFlagsAsParameters(dependencySql)
		if err != nil {
			return "", err
		}
		t.exec.pop()

		maybeDropTable := ""
		if ground.Overwrite {
			maybeDropTable = "DROP TABLE IF EXISTS " + ground.TableName + ";\n"
		}
		exportStatement = maybeDropTable + fmt.Sprintf("CREATE TABLE %s AS %s", ground.TableName, formatSql(dependencySql))
		exportStatement, err = t.program.useFlagsAsParameters(exportStatement)
		if err != nil {
			return "", err
		}
		t.exec.tableToExportMap[table] = exportStatement
		t.exec.exportStatements = append(t.exec.exportStatements, exportStatement)
	}
	if exportStatement != "" {
		t.exec.definesAndExports = append(t.exec.definesAndExports, exportStatement)
	}
	t.exec.definesAndExports = append(t.exec.definesAndExports, defineStatement)
	return tableName, nil
}

// translateWithedTable allocates (or reuses) a WITH-table alias for an
// @With'ed predicate and records the dependency so GenerateWithClauses
// can later emit them in the right order, grounded on
// SubqueryTranslator.TranslateWithedTable.
func (t *SubqueryTranslator) translateWithedTable(table string) (string, error) {
	parent := t.exec.peek()
	if _, ok := t.exec.tableToDefinedTable[table]; !ok {
		tableName := t.allocator.AllocateTable(table)
		t.exec.tableToDefinedTable[table] = tableName
		implementation, err := t.program.predicateSql(table, t.allocator, nil)
		if err != nil {
			return "", err
		}
		t.exec.tableToWithSql[tableName] = implementation
	} else {
		done := t.exec.withDoneForParent[parent]
		if _, ok := done[table]; !ok {
			if _, err := t.program.predicateSql(table, t.allocator, nil); err != nil {
				return "", err
			}
			if done == nil {
				done = map[string]struct{}{}
				t.exec.withDoneForParent[parent] = done
			}
			done[table] = struct{}{}
		}
	}

	deps := t.exec.tableToWithDeps[parent]
	found := false
	for _, d := range deps {
		if d == table {
			found = true
			break
		}
	}
	if !found {
		t.exec.tableToWithDeps[parent] = append(deps, table)
	}
	return t.exec.tableToDefinedTable[table], nil
}
