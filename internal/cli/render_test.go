package cli

import (
	"bytes"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestRenderTableWritesRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"name", "age"}).
			AddRow("ann", 30).
			AddRow("bo", 41),
	)
	rows, err := db.Query("SELECT name, age FROM people")
	require.NoError(t, err)
	defer rows.Close()

	var buf bytes.Buffer
	require.NoError(t, renderTable(&buf, rows))

	out := buf.String()
	require.Contains(t, out, "name")
	require.Contains(t, out, "ann")
	require.Contains(t, out, "bo")
}

func TestRenderCSVWritesHeaderAndRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"name", "age"}).
			AddRow("ann", 30),
	)
	rows, err := db.Query("SELECT name, age FROM people")
	require.NoError(t, err)
	defer rows.Close()

	var buf bytes.Buffer
	require.NoError(t, renderCSV(&buf, rows))

	require.Equal(t, "name,age\nann,30\n", buf.String())
}

func TestCellStringHandlesNilAndBytes(t *testing.T) {
	require.Equal(t, "", cellString(nil))
	require.Equal(t, "hi", cellString([]byte("hi")))
	require.Equal(t, "hi", cellString("hi"))
	require.Equal(t, "7", cellString(7))
}
