package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sqlterm/sqlterm/internal/db"
)

// renderResult writes a query result in the requested format: table
// (default), json, csv, or md.
func renderResult(w io.Writer, result *db.QueryResult, format string) error {
	switch format {
	case "json":
		return renderJSON(w, result)
	case "csv":
		return renderCSV(w, result)
	case "md", "markdown":
		return renderMarkdown(w, result)
	default:
		return renderTable(w, result)
	}
}

func renderTable(w io.Writer, result *db.QueryResult) error {
	if result.RowCount == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(result.Columns))
	for i, col := range result.Columns {
		header[i] = col.Name
	}
	t.AppendHeader(header)

	for _, row := range result.Rows {
		cells := make(table.Row, len(row))
		for i, v := range row {
			cells[i] = v.String()
		}
		t.AppendRow(cells)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows in %.2fms)\n",
		result.RowCount, float64(result.ExecutionTime.Microseconds())/1000.0)
	return nil
}

func renderJSON(w io.Writer, result *db.QueryResult) error {
	out := make([]map[string]any, 0, len(result.Rows))
	for _, row := range result.Rows {
		obj := make(map[string]any, len(result.Columns))
		for i, col := range result.Columns {
			if i >= len(row) {
				break
			}
			if row[i].IsNull() {
				obj[col.Name] = nil
			} else {
				obj[col.Name] = row[i].String()
			}
		}
		out = append(out, obj)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func renderCSV(w io.Writer, result *db.QueryResult) error {
	names := make([]string, len(result.Columns))
	for i, col := range result.Columns {
		names[i] = col.Name
	}
	_, _ = fmt.Fprintln(w, strings.Join(names, ","))

	for _, row := range result.Rows {
		values := make([]string, len(row))
		for i, v := range row {
			values[i] = escapeCSV(v.String())
		}
		_, _ = fmt.Fprintln(w, strings.Join(values, ","))
	}
	return nil
}

func renderMarkdown(w io.Writer, result *db.QueryResult) error {
	if result.RowCount == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	names := make([]string, len(result.Columns))
	seps := make([]string, len(result.Columns))
	for i, col := range result.Columns {
		names[i] = col.Name
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(names, " | "))
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	for _, row := range result.Rows {
		values := make([]string, len(row))
		for i, v := range row {
			values[i] = v.String()
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(values, " | "))
	}
	return nil
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
