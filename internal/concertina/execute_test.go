package concertina_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/logica-lang/logica/internal/concertina"
)

type fakeExecution struct {
	main     string
	exports  map[string]string
	deps     map[concertina.Edge]struct{}
	dataDeps map[concertina.Edge]struct{}
}

func (e fakeExecution) MainPredicate() string                    { return e.main }
func (e fakeExecution) TableToExportMap() map[string]string      { return e.exports }
func (e fakeExecution) DependencyEdges() map[concertina.Edge]struct{}     { return e.deps }
func (e fakeExecution) DataDependencyEdges() map[concertina.Edge]struct{} { return e.dataDeps }
func (e fakeExecution) Preamble() string                         { return "" }
func (e fakeExecution) PredicateSpecificPreamble(string) string  { return "" }

func TestExecuteLogicaProgramRunsDependenciesThenMain(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT 1 AS base").WillReturnRows(sqlmock.NewRows([]string{"x"}).AddRow(1))
	mock.ExpectQuery("SELECT x FROM base").WillReturnRows(sqlmock.NewRows([]string{"x"}).AddRow(1))

	runner := func(ctx context.Context, sqlText, engine string, isFinal bool) (*sql.Rows, error) {
		return db.QueryContext(ctx, sqlText)
	}

	exec := fakeExecution{
		main: "Main",
		exports: map[string]string{
			"Base": "SELECT 1 AS base",
			"Main": "SELECT x FROM base",
		},
		deps: map[concertina.Edge]struct{}{
			{From: "Base", To: "Main"}: {},
		},
		dataDeps: map[concertina.Edge]struct{}{},
	}

	results, err := concertina.ExecuteLogicaProgram(
		context.Background(), []concertina.Execution{exec}, runner, "sqlite", nil)
	require.NoError(t, err)
	require.Contains(t, results, "Main")
	require.NoError(t, mock.ExpectationsWereMet())
}
