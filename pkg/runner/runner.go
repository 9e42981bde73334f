// Package runner defines the narrow SQL-execution contract §6 treats
// as an external collaborator to the compiler core (connection pooling
// and result decoding stay out of scope), plus a registry of concrete
// backends: a package-level sync.RWMutex-guarded map, with each
// concrete backend self-registering from its own init().
package runner

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"github.com/logica-lang/logica/internal/concertina"
)

// Opener opens a connection to one SQL engine from a backend-specific
// DSN (a file path for sqlite/duckdb, a libpq conninfo string for
// postgres) and returns a concertina.Runner closure bound to it plus a
// function that releases the connection.
type Opener func(dsn string) (concertina.Runner, func() error, error)

var (
	mu       sync.RWMutex
	registry = map[string]Opener{}
)

// Register adds a backend's Opener under engine name. Called by each
// backend subpackage's init() (pkg/runner/sqlite, pkg/runner/duckdb,
// pkg/runner/postgres); importing a backend package for its side effect
// is what makes New accept its engine name.
func Register(engine string, open Opener) {
	mu.Lock()
	defer mu.Unlock()
	registry[engine] = open
}

// Get retrieves a backend's Opener by engine name.
func Get(engine string) (Opener, bool) {
	mu.RLock()
	defer mu.RUnlock()
	o, ok := registry[engine]
	return o, ok
}

// Names lists every registered engine name, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New opens a Runner for engine using dsn. bigquery, trino, presto, and
// clickhouse are accepted by the dialect registry and the @Engine
// annotation for compilation and `print`, but ship no bundled
// runner; New returns UnknownEngineError for those rather than
// fabricating a driver.
func New(engine, dsn string) (concertina.Runner, func() error, error) {
	open, ok := Get(engine)
	if !ok {
		return nil, nil, &UnknownEngineError{Engine: engine, Available: Names()}
	}
	return open(dsn)
}

// UnknownEngineError is returned when no runner is registered for the
// requested engine.
type UnknownEngineError struct {
	Engine    string
	Available []string
}

func (e *UnknownEngineError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("no runner registered for engine %q (no backends imported)", e.Engine)
	}
	return fmt.Sprintf("no runner registered for engine %q (available: %v)", e.Engine, e.Available)
}

// SQLRunner adapts a database/sql *sql.DB into a concertina.Runner: a
// non-final action (intermediate @Ground DDL/CTAS, preamble statements)
// executes via ExecContext and returns no rows, while a final action
// executes via QueryContext so its rows reach Concertina's
// FinalResult, grounded on §4.9/§6 ("only final queries return
// rows") and engine.go's QueryEngine.Run.
func SQLRunner(db *sql.DB) concertina.Runner {
	return func(ctx context.Context, sqlText, _ string, isFinal bool) (*sql.Rows, error) {
		if !isFinal {
			if _, err := db.ExecContext(ctx, sqlText); err != nil {
				return nil, err
			}
			return nil, nil
		}
		return db.QueryContext(ctx, sqlText)
	}
}
