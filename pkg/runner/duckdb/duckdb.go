// Package duckdb registers the "duckdb" engine with pkg/runner, backed
// by github.com/marcboeker/go-duckdb, per §6's duckdb engine.
package duckdb

import (
	"database/sql"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/logica-lang/logica/internal/concertina"
	"github.com/logica-lang/logica/pkg/runner"
)

func init() {
	runner.Register("duckdb", Open)
}

// Open opens a DuckDB database at dsn. An empty dsn opens an in-memory
// database, go-duckdb's own default.
func Open(dsn string) (concertina.Runner, func() error, error) {
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, nil, err
	}
	return runner.SQLRunner(db), db.Close, nil
}
