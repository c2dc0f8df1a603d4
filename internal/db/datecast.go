package db

import (
	"context"
	"fmt"
	"strings"
)

// The driver cannot decode the DATE wire type, so a SELECT * against a
// table with a DATE column fails outright. The rewriter is a best-effort
// pre-execution text transform that casts affected columns to VARCHAR
// before the query ever reaches the wire. It is not a SQL parser; any
// catalog failure falls back to the original text.

// IsSelectStar reports whether the query selects every column: it starts
// with SELECT and contains either a bare star or a TOP clause with a
// standalone star.
func IsSelectStar(query string) bool {
	upper := strings.TrimSpace(strings.ToUpper(query))
	if !strings.HasPrefix(upper, "SELECT") {
		return false
	}
	return strings.Contains(upper, "SELECT *") ||
		(strings.Contains(upper, "SELECT TOP") && strings.Contains(upper, " * "))
}

// TryFixDateColumns rewrites query so that DATE columns of the referenced
// table are selected as CONVERT(VARCHAR(10), [col], 23). It returns the
// rewritten text, or "" when no rewrite applies or any catalog lookup
// fails.
func TryFixDateColumns(ctx context.Context, conn *Conn, query string) string {
	upper := strings.ToUpper(query)
	if !strings.HasPrefix(strings.TrimSpace(upper), "SELECT") {
		return ""
	}

	tableRef := extractTableName(query)
	if tableRef == "" {
		return ""
	}

	dateCols, err := dateColumns(ctx, conn, tableRef)
	if err != nil || len(dateCols) == 0 {
		return ""
	}

	if IsSelectStar(query) {
		return buildSelectWithCasts(ctx, conn, query, tableRef, dateCols)
	}

	// Not star-shaped: wrap the first reference to each affected column.
	fixed := query
	for _, col := range dateCols {
		replacement := fmt.Sprintf("CONVERT(VARCHAR(10), [%s], 23) AS [%s]", col, col)
		for _, pattern := range []string{"[" + col + "]", col} {
			if strings.Contains(fixed, pattern) {
				fixed = strings.Replace(fixed, pattern, replacement, 1)
				break
			}
		}
	}
	if fixed == query {
		return ""
	}
	return fixed
}

// extractTableName pulls the table reference after the first FROM clause:
// the token up to the next whitespace, parenthesis, or semicolon.
func extractTableName(query string) string {
	upper := strings.ToUpper(query)
	fromPos := strings.Index(upper, " FROM ")
	if fromPos < 0 {
		return ""
	}
	afterFrom := strings.TrimSpace(query[fromPos+len(" FROM "):])

	var table strings.Builder
	for _, r := range afterFrom {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '(' || r == ';' {
			break
		}
		table.WriteRune(r)
	}
	return table.String()
}

// parseTableName splits a possibly bracketed table reference into schema
// and table. Three-part names (database.schema.table) keep the last two
// parts.
func parseTableName(tableRef string) (schema, table string) {
	clean := strings.NewReplacer("[", "", "]", "").Replace(tableRef)
	parts := strings.Split(clean, ".")
	switch len(parts) {
	case 1:
		return "", parts[0]
	case 2:
		return parts[0], parts[1]
	case 3:
		return parts[1], parts[2]
	default:
		return "", clean
	}
}

// dateColumns lists the DATE-typed columns of a table from the catalog.
func dateColumns(ctx context.Context, conn *Conn, tableRef string) ([]string, error) {
	schema, table := parseTableName(tableRef)

	query := "SELECT COLUMN_NAME FROM INFORMATION_SCHEMA.COLUMNS " +
		"WHERE TABLE_NAME = @p1 AND DATA_TYPE = 'date'"
	args := []any{table}
	if schema != "" {
		query += " AND TABLE_SCHEMA = @p2"
		args = append(args, schema)
	}

	records, err := conn.QueryStrings(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	cols := make([]string, 0, len(records))
	for _, record := range records {
		if len(record) > 0 && record[0] != "" {
			cols = append(cols, record[0])
		}
	}
	return cols, nil
}

// buildSelectWithCasts expands SELECT * into the table's full ordered
// column list, casting DATE columns and bracket-quoting the rest. The TOP
// clause and everything from FROM onward are preserved verbatim.
func buildSelectWithCasts(ctx context.Context, conn *Conn, query, tableRef string, dateCols []string) string {
	schema, table := parseTableName(tableRef)

	catalogQuery := "SELECT COLUMN_NAME, DATA_TYPE FROM INFORMATION_SCHEMA.COLUMNS " +
		"WHERE TABLE_NAME = @p1"
	args := []any{table}
	if schema != "" {
		catalogQuery += " AND TABLE_SCHEMA = @p2"
		args = append(args, schema)
	}
	catalogQuery += " ORDER BY ORDINAL_POSITION"

	records, err := conn.QueryStrings(ctx, catalogQuery, args...)
	if err != nil || len(records) == 0 {
		return ""
	}

	dateSet := make(map[string]bool, len(dateCols))
	for _, c := range dateCols {
		dateSet[c] = true
	}

	columnDefs := make([]string, 0, len(records))
	for _, record := range records {
		if len(record) == 0 || record[0] == "" {
			continue
		}
		name := record[0]
		if dateSet[name] {
			columnDefs = append(columnDefs, fmt.Sprintf("CONVERT(VARCHAR(10), [%s], 23) AS [%s]", name, name))
		} else {
			columnDefs = append(columnDefs, fmt.Sprintf("[%s]", name))
		}
	}
	if len(columnDefs) == 0 {
		return ""
	}

	upper := strings.ToUpper(query)

	topClause := ""
	if topPos := strings.Index(upper, "TOP "); topPos >= 0 {
		afterTop := strings.TrimSpace(query[topPos+len("TOP "):])
		var value strings.Builder
		for _, r := range afterTop {
			if (r < '0' || r > '9') && r != ' ' {
				break
			}
			value.WriteRune(r)
		}
		if v := strings.TrimSpace(value.String()); v != "" {
			topClause = "TOP " + v + " "
		}
	}

	fromPos := strings.Index(upper, " FROM ")
	if fromPos < 0 {
		return ""
	}
	fromClause := strings.TrimSpace(query[fromPos:])

	return fmt.Sprintf("SELECT %s%s\n%s", topClause, strings.Join(columnDefs, ",\n    "), fromClause)
}
