package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/logica-lang/logica/internal/concertina"
	"github.com/logica-lang/logica/internal/config"
	"github.com/logica-lang/logica/pkg/runner"
)

// runProgram compiles and executes program for the given predicates
// against a real, in-process engine connection (no mocks), returning
// one *sqlRows per predicate. This is the same path cmdRun takes.
func runProgram(t *testing.T, program string, predicates []string) map[string]*sqlRows {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.l")
	require.NoError(t, os.WriteFile(path, []byte(program), 0o600))

	cfg := &config.Config{}
	engine, executions, err := buildExecutions(path, predicates, nil, cfg)
	require.NoError(t, err)

	sqlRunner, closeFn, err := runner.New(engine, cfg.ConnectionFor(engine))
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeFn() })

	rowsByPredicate, err := concertina.ExecuteLogicaProgram(ctx(), executions, sqlRunner, engine, concertina.NoopDisplay{})
	require.NoError(t, err)

	out := make(map[string]*sqlRows, len(predicates))
	for _, p := range predicates {
		rows := rowsByPredicate[p]
		require.NotNilf(t, rows, "predicate %q produced no rows object", p)
		cols, err := rows.Columns()
		require.NoError(t, err)
		out[p] = &sqlRows{rows: rows, cols: cols}
		t.Cleanup(func() { _ = rows.Close() })
	}
	return out
}

// sqlRows is a small test helper wrapping *sql.Rows plus its column
// names, so assertions can scan into a generic []interface{} without
// each test needing to know the result's shape ahead of time.
type sqlRows struct {
	rows interface {
		Next() bool
		Scan(dest ...interface{}) error
	}
	cols []string
}

func (r *sqlRows) all(t *testing.T) [][]interface{} {
	t.Helper()
	var out [][]interface{}
	for r.rows.Next() {
		vals := make([]interface{}, len(r.cols))
		ptrs := make([]interface{}, len(r.cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		require.NoError(t, r.rows.Scan(ptrs...))
		out = append(out, vals)
	}
	return out
}

// TestScenarioArgMaxPicksTopScorer runs §8's ArgMax scenario end-to-end:
// Grade facts feed an ArgMax-aggregating predicate that should reduce to
// the single top-scoring student, compiled for --engine=sqlite and
// executed against a real modernc.org/sqlite connection rather than a
// mock, the gap the missing UDF registration shipped under.
func TestScenarioArgMaxPicksTopScorer(t *testing.T) {
	program := `
@Engine("sqlite");
Grade(student:, score:) :- student == "a", score == 90;
Grade(student:, score:) :- student == "b", score == 70;
Top(s) ArgMax= (score -> student) :- Grade(student: s, score:);
`
	results := runProgram(t, program, []string{"Top"})
	rows := results["Top"].all(t)
	require.Len(t, rows, 1)
	require.Equal(t, "a", rows[0][0])
}

// TestScenarioArgMinPicksBottomScorer mirrors the ArgMax scenario with
// ArgMin, exercising the other half of the registered aggregate pair.
func TestScenarioArgMinPicksBottomScorer(t *testing.T) {
	program := `
@Engine("sqlite");
Grade(student:, score:) :- student == "a", score == 90;
Grade(student:, score:) :- student == "b", score == 70;
Bottom(s) ArgMin= (score -> student) :- Grade(student: s, score:);
`
	results := runProgram(t, program, []string{"Bottom"})
	rows := results["Bottom"].all(t)
	require.Len(t, rows, 1)
	require.Equal(t, "b", rows[0][0])
}
