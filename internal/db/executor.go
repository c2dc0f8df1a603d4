package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Execute runs a single query batch and materializes the complete result.
// SELECT*-shaped queries are first offered to the date-cast rewriter;
// rewriter failures are swallowed and the original text is sent. The
// result is always complete or absent, never partial.
func Execute(ctx context.Context, conn *Conn, query string) (*QueryResult, error) {
	start := time.Now()

	toExecute := query
	if IsSelectStar(query) {
		if fixed := TryFixDateColumns(ctx, conn, query); fixed != "" {
			conn.logger.Debug("rewrote query for DATE columns", slog.String("query", fixed))
			toExecute = fixed
		}
	}

	result := &QueryResult{}
	err := conn.Exclusive(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, toExecute)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()
		return collectRows(rows, result)
	})
	if err != nil {
		if isDateTypeError(err) {
			return nil, ErrDateColumns
		}
		return nil, fmt.Errorf("query failed: %w", err)
	}

	result.RowCount = len(result.Rows)
	result.ExecutionTime = time.Since(start)

	conn.logger.Debug("query executed",
		slog.Int("rows", result.RowCount),
		slog.Duration("elapsed", result.ExecutionTime))

	return result, nil
}

// collectRows consumes every result set and row in order. Columns are
// captured from the first row encountered; all result sets of one batch
// are assumed to share them.
func collectRows(rows *sql.Rows, result *QueryResult) error {
	for {
		colTypes, err := rows.ColumnTypes()
		if err != nil {
			return err
		}

		for rows.Next() {
			if len(result.Columns) == 0 {
				result.Columns = make([]ColumnInfo, len(colTypes))
				for i, ct := range colTypes {
					result.Columns[i] = NewColumnInfo(ct.Name(), ct.DatabaseTypeName())
				}
			}

			values := make([]any, len(colTypes))
			ptrs := make([]any, len(colTypes))
			for i := range values {
				ptrs[i] = &values[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return err
			}

			row := make([]Value, len(colTypes))
			for i, ct := range colTypes {
				v := DecodeValue(ct.DatabaseTypeName(), values[i])
				if i < len(result.Columns) {
					if width := len(v.String()); width > result.Columns[i].MaxWidth {
						result.Columns[i].MaxWidth = width
					}
				}
				row[i] = v
			}
			result.Rows = append(result.Rows, row)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		if !rows.NextResultSet() {
			return rows.Err()
		}
	}
}

// ExecuteBatch runs queries sequentially through Execute, stopping at the
// first failure. Results are returned only when every query succeeds.
func ExecuteBatch(ctx context.Context, conn *Conn, queries []string) ([]*QueryResult, error) {
	results := make([]*QueryResult, 0, len(queries))
	for _, query := range queries {
		result, err := Execute(ctx, conn, query)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}
