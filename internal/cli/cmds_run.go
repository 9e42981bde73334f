package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/logica-lang/logica/internal/concertina"
	"github.com/logica-lang/logica/internal/config"
	"github.com/logica-lang/logica/internal/universe"

	"github.com/logica-lang/logica/pkg/runner"
)

// buildExecutions compiles every requested predicate and wraps its
// result in a concertina.Execution, returning the program's resolved
// engine name alongside them.
func buildExecutions(
	fileArg string, predicates []string, userFlags map[string]string, cfg *config.Config,
) (string, []concertina.Execution, error) {
	rules, err := desugaredProgram(fileArg, cfg.SearchPaths)
	if err != nil {
		return "", nil, err
	}
	program, err := universe.NewProgram(rules, nil, userFlags)
	if err != nil {
		return "", nil, err
	}
	engine, err := program.Engine()
	if err != nil {
		return "", nil, err
	}

	executions := make([]concertina.Execution, 0, len(predicates))
	for _, name := range predicates {
		result, err := program.FormattedPredicateSql(name)
		if err != nil {
			return "", nil, fmt.Errorf("compiling %s: %w", name, err)
		}
		executions = append(executions, newExecution(name, result))
	}
	return engine, executions, nil
}

func cmdRun(fileArg string, predicates []string, userFlags map[string]string, cfg *config.Config) error {
	engine, executions, err := buildExecutions(fileArg, predicates, userFlags, cfg)
	if err != nil {
		return err
	}
	sqlRunner, closeFn, err := runner.New(engine, cfg.ConnectionFor(engine))
	if err != nil {
		return fmt.Errorf("opening %s connection: %w", engine, err)
	}
	defer closeFn() //nolint:errcheck

	rowsByPredicate, err := concertina.ExecuteLogicaProgram(ctx(), executions, sqlRunner, engine, concertina.NoopDisplay{})
	if err != nil {
		return err
	}
	for _, p := range predicates {
		rows := rowsByPredicate[p]
		if rows == nil {
			continue
		}
		if err := renderTable(os.Stdout, rows); err != nil {
			return err
		}
		rows.Close() //nolint:errcheck
	}
	return nil
}

func cmdRunToCSV(fileArg string, predicates []string, userFlags map[string]string, cfg *config.Config) error {
	engine, executions, err := buildExecutions(fileArg, predicates, userFlags, cfg)
	if err != nil {
		return err
	}
	sqlRunner, closeFn, err := runner.New(engine, cfg.ConnectionFor(engine))
	if err != nil {
		return fmt.Errorf("opening %s connection: %w", engine, err)
	}
	defer closeFn() //nolint:errcheck

	rowsByPredicate, err := concertina.ExecuteLogicaProgram(ctx(), executions, sqlRunner, engine, concertina.NoopDisplay{})
	if err != nil {
		return err
	}
	for _, p := range predicates {
		rows := rowsByPredicate[p]
		if rows == nil {
			continue
		}
		if err := renderCSV(os.Stdout, rows); err != nil {
			return err
		}
		rows.Close() //nolint:errcheck
	}
	return nil
}

// cmdRunInTerminal is 'run' with a live TTYDisplay tracking the
// dependency graph's progress while it executes, mirroring the
// original's tools.run_in_terminal module.
func cmdRunInTerminal(fileArg string, predicates []string, userFlags map[string]string, cfg *config.Config) error {
	engine, executions, err := buildExecutions(fileArg, predicates, userFlags, cfg)
	if err != nil {
		return err
	}
	sqlRunner, closeFn, err := runner.New(engine, cfg.ConnectionFor(engine))
	if err != nil {
		return fmt.Errorf("opening %s connection: %w", engine, err)
	}
	defer closeFn() //nolint:errcheck

	display := concertina.NewTTYDisplay()

	rowsByPredicate, err := concertina.ExecuteLogicaProgram(ctx(), executions, sqlRunner, engine, display)
	if closeErr := display.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	for _, p := range predicates {
		rows := rowsByPredicate[p]
		if rows == nil {
			continue
		}
		if err := renderTable(os.Stdout, rows); err != nil {
			return err
		}
		rows.Close() //nolint:errcheck
	}
	return nil
}

// cmdBuildSchema prints the statically inferred field kinds of the
// requested predicates as JSON, mirroring the original's build_schema
// command without its live-database schema reflection (see
// signatureJSON's doc comment).
func cmdBuildSchema(fileArg string, predicates []string, cfg *config.Config) error {
	_, rules, err := parseProgram(fileArg, cfg.SearchPaths)
	if err != nil {
		return err
	}
	sigs, diags := buildSignatures(rules)
	if len(diags) > 0 {
		for _, d := range diags {
			fmt.Fprintln(os.Stderr, d.Error())
		}
		return fmt.Errorf("type inference found %d error(s)", len(diags))
	}
	out := signatureJSON(sigs, predicates)
	data, err := json.MarshalIndent(out, "", " ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func ctx() context.Context { return context.Background() }
