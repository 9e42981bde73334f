// Package postgres registers the "psql" engine with pkg/runner, backed by
// github.com/jackc/pgx/v5's database/sql driver, matching
// internal/dialect/postgres.go's dialect.Register("psql", ...) name and
// §6's psql engine + LOGICA_PSQL_CONNECTION environment variable.
package postgres

import (
	"database/sql"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/logica-lang/logica/internal/concertina"
	"github.com/logica-lang/logica/pkg/runner"
)

func init() {
	runner.Register("psql", Open)
}

// Open opens a PostgreSQL connection. An empty dsn falls back to
// LOGICA_PSQL_CONNECTION, matching the original logica.py's lookup of the
// same variable when no connection string was given on the command line.
func Open(dsn string) (concertina.Runner, func() error, error) {
	if dsn == "" {
		dsn = os.Getenv("LOGICA_PSQL_CONNECTION")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, err
	}
	return runner.SQLRunner(db), db.Close, nil
}
