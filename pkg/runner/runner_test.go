package runner_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/logica-lang/logica/internal/concertina"
	"github.com/logica-lang/logica/pkg/runner"
)

func TestSQLRunnerNonFinalExecutesWithoutRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))

	run := runner.SQLRunner(db)
	rows, err := run(context.Background(), "CREATE TABLE foo (x INT)", "sqlite", false)
	require.NoError(t, err)
	require.Nil(t, rows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRunnerFinalReturnsRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"x"}).AddRow(1))

	run := runner.SQLRunner(db)
	rows, err := run(context.Background(), "SELECT x FROM foo", "sqlite", true)
	require.NoError(t, err)
	require.NotNil(t, rows)
	require.NoError(t, rows.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRunnerPropagatesExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("syntax error"))

	run := runner.SQLRunner(db)
	_, err = run(context.Background(), "CREATE TABLE broken", "sqlite", false)
	require.Error(t, err)
}

func TestRegisterAndGetRoundTrip(t *testing.T) {
	called := false
	runner.Register("test-fixture-engine", func(dsn string) (concertina.Runner, func() error, error) {
		called = true
		return nil, func() error { return nil }, nil
	})

	open, ok := runner.Get("test-fixture-engine")
	require.True(t, ok)
	_, _, err := open("")
	require.NoError(t, err)
	require.True(t, called)
	require.Contains(t, runner.Names(), "test-fixture-engine")
}

func TestNewUnknownEngineError(t *testing.T) {
	_, _, err := runner.New("no-such-engine-registered", "")
	require.Error(t, err)
	var unknown *runner.UnknownEngineError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, "no-such-engine-registered", unknown.Engine)
}
