package concertina

import (
	"context"
	"database/sql"
	"fmt"
)

// Edge is a directed dependency: From must run (or exist, for a data
// edge) before To.
type Edge struct{ From, To string }

// RenamePredicate rewrites every occurrence of fromName in a compiled
// predicate's export map and its dependency edges to toName. It is used
// to disambiguate a predicate that is exported under its own name by one
// execution but is also a dependency of another execution in the same
// Concertina run, following the original's '⤓'-prefixing convention
// (ExecuteLogicaProgram).
func RenamePredicate(
	tableToExportMap map[string]string,
	dependencyEdges, dataDependencyEdges map[Edge]struct{},
	fromName, toName string,
) (map[string]string, map[Edge]struct{}, map[Edge]struct{}) {
	renamed := func(name string) string {
		if name == fromName {
			return toName
		}
		return name
	}

	newMap := make(map[string]string, len(tableToExportMap))
	for k, v := range tableToExportMap {
		newMap[renamed(k)] = v
	}

	renameEdges := func(edges map[Edge]struct{}) map[Edge]struct{} {
		out := make(map[Edge]struct{}, len(edges))
		for e := range edges {
			out[Edge{From: renamed(e.From), To: renamed(e.To)}] = struct{}{}
		}
		return out
	}

	return newMap, renameEdges(dependencyEdges), renameEdges(dataDependencyEdges)
}

// Execution is one compiled program's worth of predicates to export,
// grounded on the original's LogicaProgram execution object: a main
// predicate, the SQL each exported predicate compiles to, the
// dependency graph between them, which edges are backed by raw input
// data rather than compiled SQL, and a shared preamble plus a
// per-predicate preamble fragment prepended to that predicate's SQL.
type Execution interface {
	MainPredicate() string
	TableToExportMap() map[string]string
	DependencyEdges() map[Edge]struct{}
	DataDependencyEdges() map[Edge]struct{}
	Preamble() string
	PredicateSpecificPreamble(mainPredicate string) string
}

// ExecuteLogicaProgram assembles one or more Executions into a single
// Concertina run, runs it to completion, and returns the rows of every
// execution's main predicate (§4.9's composition with the universe
// compiler's output).
func ExecuteLogicaProgram(
	ctx context.Context,
	executions []Execution,
	runner Runner,
	sqlEngine string,
	display Display,
) (map[string]*sql.Rows, error) {
	tableToExportMap := map[string]string{}
	dependencyEdges := map[Edge]struct{}{}
	dataDependencyEdges := map[Edge]struct{}{}
	finalPredicates := make(map[string]struct{}, len(executions))
	for _, e := range executions {
		finalPredicates[e.MainPredicate()] = struct{}{}
	}

	var preamble string
	preambleSeen := false
	for _, e := range executions {
		pMap, pDeps, pDataDeps := e.TableToExportMap(), e.DependencyEdges(), e.DataDependencyEdges()
		for p := range finalPredicates {
			if e.MainPredicate() != p {
				if _, exported := pMap[p]; exported {
					pMap, pDeps, pDataDeps = RenamePredicate(pMap, pDeps, pDataDeps, p, "⤓"+p)
				}
			}
		}

		for k, v := range pMap {
			tableToExportMap[k] = e.PredicateSpecificPreamble(e.MainPredicate()) + v
		}
		for edge := range pDeps {
			dependencyEdges[edge] = struct{}{}
		}
		for edge := range pDataDeps {
			dataDependencyEdges[edge] = struct{}{}
		}

		if !preambleSeen {
			preamble = e.Preamble()
			preambleSeen = true
		} else if e.Preamble() != preamble {
			return nil, fmt.Errorf("concertina: inconsistent preambles across executions")
		}
	}

	config := concertinaConfig(tableToExportMap, dependencyEdges, dataDependencyEdges, finalPredicates, sqlEngine)

	engine := NewQueryEngine(keys(finalPredicates), runner, display == nil, nil)

	if preamble != "" {
		if _, err := runner(ctx, preamble, sqlEngine, false); err != nil {
			return nil, fmt.Errorf("concertina: running preamble: %w", err)
		}
	}

	c, err := New(ctx, config, engine, display)
	if err != nil {
		return nil, err
	}
	if err := c.Run(ctx); err != nil {
		return nil, err
	}
	return engine.FinalResult, nil
}

func concertinaConfig(
	tableToExportMap map[string]string,
	dependencyEdges, dataDependencyEdges map[Edge]struct{},
	finalPredicates map[string]struct{},
	sqlEngine string,
) []Action {
	dependsOn := map[string]map[string]struct{}{}
	addEdge := func(e Edge) {
		if dependsOn[e.To] == nil {
			dependsOn[e.To] = map[string]struct{}{}
		}
		dependsOn[e.To][e.From] = struct{}{}
	}
	for e := range dependencyEdges {
		addEdge(e)
	}
	for e := range dataDependencyEdges {
		addEdge(e)
	}

	data := map[string]struct{}{}
	for e := range dataDependencyEdges {
		data[e.From] = struct{}{}
	}
	for e := range dependencyEdges {
		if _, exported := tableToExportMap[e.From]; !exported {
			data[e.From] = struct{}{}
		}
	}

	var actions []Action
	for d := range data {
		actions = append(actions, Action{
			Name:      d,
			Type:      ActionData,
			Requires:  nil,
			Launcher:  LauncherNone,
			Predicate: d,
		})
	}
	for t, sqlText := range tableToExportMap {
		typ := ActionIntermediate
		if _, final := finalPredicates[t]; final {
			typ = ActionFinal
		}
		actions = append(actions, Action{
			Name:      t,
			Type:      typ,
			Requires:  keys(dependsOn[t]),
			Launcher:  LauncherQuery,
			Engine:    sqlEngine,
			Predicate: t,
			SQL:       sqlText,
		})
	}
	return actions
}

func keys[T any](m map[string]T) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
