package cli

import (
	"strings"

	"github.com/logica-lang/logica/internal/concertina"
	"github.com/logica-lang/logica/internal/universe"
)

// compiledExecution adapts one predicate's universe.CompileResult into
// concertina.Execution, the narrow view ExecuteLogicaProgram needs to
// assemble and schedule a run. universe's dependency edges don't
// distinguish "backed by raw input data" from "backed by compiled SQL" the
// way concertina.Execution's two edge sets do — concertinaConfig already
// reclassifies any edge whose source never appears in TableToExportMap as
// data, so leaving DataDependencyEdges empty here loses nothing.
type compiledExecution struct {
	mainPredicate string
	tableToExport map[string]string
	dependencies  map[concertina.Edge]struct{}
	preamble      string
}

// newExecution builds the Execution for mainPredicate from its compile
// result.
func newExecution(mainPredicate string, result *universe.CompileResult) *compiledExecution {
	edges := make(map[concertina.Edge]struct{}, len(result.DependencyEdges))
	for _, e := range result.DependencyEdges {
		edges[concertina.Edge{From: e[0], To: e[1]}] = struct{}{}
	}
	return &compiledExecution{
		mainPredicate: mainPredicate,
		tableToExport: result.TableToExportMap,
		dependencies:  edges,
		preamble:      strings.Join(result.Defines, "\n\n"),
	}
}

func (e *compiledExecution) MainPredicate() string               { return e.mainPredicate }
func (e *compiledExecution) TableToExportMap() map[string]string { return e.tableToExport }
func (e *compiledExecution) DependencyEdges() map[concertina.Edge]struct{} {
	return e.dependencies
}
func (e *compiledExecution) DataDependencyEdges() map[concertina.Edge]struct{} {
	return map[concertina.Edge]struct{}{}
}
func (e *compiledExecution) Preamble() string                           { return e.preamble }
func (e *compiledExecution) PredicateSpecificPreamble(mainPredicate string) string { return "" }
