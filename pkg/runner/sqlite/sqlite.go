// Package sqlite registers the "sqlite" engine with pkg/runner, backed by
// modernc.org/sqlite's pure-Go driver (no cgo), grounded on §6's
// sqlite engine and the original's common/sqlite3_logica.py connection
// handling.
package sqlite

import (
	"database/sql"
	"sync"

	sqlite3 "modernc.org/sqlite"

	"github.com/logica-lang/logica/internal/concertina"
	"github.com/logica-lang/logica/pkg/runner"
)

func init() {
	runner.Register("sqlite", Open)
}

var registerUDFsOnce sync.Once

// registerUDFs installs the user-defined functions internal/dialect's
// sqlite library program compiles calls to (ArgMin, ArgMax,
// PrintToConsole, ReadFile, WriteFile), mirroring
// common/sqlite3_logica.py's SqliteConnect. modernc.org/sqlite
// registers functions process-wide rather than per connection, so this
// only needs to run once no matter how many times Open is called.
func registerUDFs() {
	registerUDFsOnce.Do(func() {
		mustRegisterAggregate("ArgMin", 3, newArgAggregate(argMinLess))
		mustRegisterAggregate("ArgMax", 3, newArgAggregate(argMaxLess))
		mustRegisterScalar("PrintToConsole", 1, printToConsole)
		mustRegisterScalar("ReadFile", 1, readFile)
		mustRegisterScalar("WriteFile", 2, writeFile)
		mustRegisterScalar("JOIN_STRINGS", 2, joinStrings)
	})
}

// mustRegisterScalar registers a plain (non-deterministic) scalar
// function: PrintToConsole/ReadFile/WriteFile all have side effects or
// read mutable external state, so none qualify for
// RegisterDeterministicScalarFunction.
func mustRegisterScalar(name string, nArgs int32, fn sqlite3.ScalarFunction) {
	if err := sqlite3.RegisterScalarFunction(name, nArgs, fn); err != nil {
		panic(err)
	}
}

func mustRegisterAggregate(name string, nArgs int32, newFn sqlite3.NewAggregateFunction) {
	if err := sqlite3.RegisterAggregateFunction(name, nArgs, newFn); err != nil {
		panic(err)
	}
}

// Open opens a SQLite database at dsn. An empty dsn opens an in-memory
// database, matching the original's default of running against a
// throwaway database when no file is given.
func Open(dsn string) (concertina.Runner, func() error, error) {
	registerUDFs()
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, err
	}
	return runner.SQLRunner(db), db.Close, nil
}
