package cli

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// renderTable writes rows as a boxed table, the Go analogue of the
// original's sqlite3_logica.ArtisticTable ('run' command's default
// format).
func renderTable(w io.Writer, rows *sql.Rows) error {
	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	header := make(table.Row, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	t.AppendHeader(header)

	vals := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		row := make(table.Row, len(cols))
		for i, v := range vals {
			row[i] = cellString(v)
		}
		t.AppendRow(row)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	t.Render()
	return nil
}

// renderCSV writes rows as CSV, the Go analogue of the original's
// 'run_to_csv' command.
func renderCSV(w io.Writer, rows *sql.Rows) error {
	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return err
	}

	vals := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		record := make([]string, len(cols))
		for i, v := range vals {
			record[i] = cellString(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// cellString renders a scanned cell the way both output formats display
// it: nil as an empty string, byte slices as their raw text, everything
// else via its default fmt verb.
func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	default:
		return fmt.Sprintf("%v", x)
	}
}
