package concertina

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"
)

// Runner executes one SQL statement against engineName and returns its
// rows; isFinal tells the runner whether the caller actually needs the
// result set materialized (intermediate queries are typically DDL/CTAS
// statements with nothing useful to scan).
type Runner func(ctx context.Context, sqlText, engineName string, isFinal bool) (*sql.Rows, error)

// QueryEngine drives actions through a real Runner, collecting the rows
// of every predicate in finalPredicates (§4.9).
type QueryEngine struct {
	FinalPredicates map[string]struct{}
	Run_            Runner
	PrintProgress   bool
	Out             io.Writer

	FinalResult map[string]*sql.Rows
}

// NewQueryEngine builds a QueryEngine over finalPredicates, the set of
// predicate names whose rows the caller wants back.
func NewQueryEngine(finalPredicates []string, runner Runner, printProgress bool, out io.Writer) *QueryEngine {
	set := make(map[string]struct{}, len(finalPredicates))
	for _, p := range finalPredicates {
		set[p] = struct{}{}
	}
	return &QueryEngine{
		FinalPredicates: set,
		Run_:            runner,
		PrintProgress:   printProgress,
		Out:             out,
		FinalResult:     map[string]*sql.Rows{},
	}
}

// Run executes action.SQL via the Runner when Launcher is "query";
// "none" actions (raw input data) are no-ops.
func (e *QueryEngine) Run(ctx context.Context, action Action) error {
	if action.Launcher != LauncherQuery {
		return nil
	}
	_, isFinal := e.FinalPredicates[action.Predicate]
	if e.PrintProgress && e.Out != nil {
		fmt.Fprintf(e.Out, "Running predicate: %s", action.Predicate)
	}
	start := time.Now()
	rows, err := e.Run_(ctx, action.SQL, action.Engine, isFinal)
	elapsed := time.Since(start)
	if e.PrintProgress && e.Out != nil {
		fmt.Fprintf(e.Out, " (%d seconds)\n", int(elapsed.Seconds()))
	}
	if err != nil {
		return fmt.Errorf("running predicate %s: %w", action.Predicate, err)
	}
	if isFinal {
		e.FinalResult[action.Predicate] = rows
	}
	return nil
}

// DryRunEngine prints every action instead of executing it, for `logica
// print`-style inspection of the compiled plan without a database.
type DryRunEngine struct {
	Out io.Writer
}

func (e *DryRunEngine) Run(_ context.Context, action Action) error {
	if e.Out == nil {
		return nil
	}
	fmt.Fprintf(e.Out, "%+v\n", action)
	return nil
}
