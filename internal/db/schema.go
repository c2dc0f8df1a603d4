package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// ObjectType classifies a catalog object.
type ObjectType int

const (
	ObjectDatabase ObjectType = iota
	ObjectSchema
	ObjectTable
	ObjectView
	ObjectProcedure
	ObjectFunction
	ObjectColumn
)

func (t ObjectType) String() string {
	switch t {
	case ObjectDatabase:
		return "Database"
	case ObjectSchema:
		return "Schema"
	case ObjectTable:
		return "Table"
	case ObjectView:
		return "View"
	case ObjectProcedure:
		return "Procedure"
	case ObjectFunction:
		return "Function"
	case ObjectColumn:
		return "Column"
	default:
		return "Object"
	}
}

// DatabaseObject is one named object from the catalog.
type DatabaseObject struct {
	Name   string
	Schema string
	Type   ObjectType
}

// ColumnDef describes one table column from the catalog.
type ColumnDef struct {
	Name         string
	DataType     string
	IsNullable   bool
	IsPrimaryKey bool
	MaxLength    int
	Precision    int
	Scale        int
}

// Databases lists online databases on the server.
func Databases(ctx context.Context, conn *Conn) ([]string, error) {
	records, err := conn.QueryStrings(ctx,
		"SELECT name FROM sys.databases WHERE state = 0 ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}
	return firstColumn(records), nil
}

// Schemas lists user schemas in the current database.
func Schemas(ctx context.Context, conn *Conn) ([]string, error) {
	records, err := conn.QueryStrings(ctx,
		"SELECT name FROM sys.schemas WHERE schema_id < 16384 ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	return firstColumn(records), nil
}

// Tables lists tables, optionally filtered to one schema.
func Tables(ctx context.Context, conn *Conn, schemaFilter string) ([]DatabaseObject, error) {
	return listObjects(ctx, conn, "sys.tables", "t", schemaFilter, ObjectTable)
}

// Views lists views, optionally filtered to one schema.
func Views(ctx context.Context, conn *Conn, schemaFilter string) ([]DatabaseObject, error) {
	return listObjects(ctx, conn, "sys.views", "v", schemaFilter, ObjectView)
}

// Procedures lists stored procedures, optionally filtered to one schema.
func Procedures(ctx context.Context, conn *Conn, schemaFilter string) ([]DatabaseObject, error) {
	return listObjects(ctx, conn, "sys.procedures", "p", schemaFilter, ObjectProcedure)
}

func listObjects(ctx context.Context, conn *Conn, view, alias, schemaFilter string, objType ObjectType) ([]DatabaseObject, error) {
	query := fmt.Sprintf(
		"SELECT s.name AS schema_name, %s.name AS object_name FROM %s %s "+
			"INNER JOIN sys.schemas s ON %s.schema_id = s.schema_id",
		alias, view, alias, alias)
	var args []any
	if schemaFilter != "" {
		query += " WHERE s.name = @p1"
		args = append(args, schemaFilter)
	}
	query += fmt.Sprintf(" ORDER BY s.name, %s.name", alias)

	records, err := conn.QueryStrings(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %ss: %w", strings.ToLower(objType.String()), err)
	}

	objects := make([]DatabaseObject, 0, len(records))
	for _, record := range records {
		if len(record) < 2 {
			continue
		}
		schema := record[0]
		if schema == "" {
			schema = "dbo"
		}
		objects = append(objects, DatabaseObject{Name: record[1], Schema: schema, Type: objType})
	}
	return objects, nil
}

// Columns retrieves the column definitions of one table.
func Columns(ctx context.Context, conn *Conn, schema, table string) ([]ColumnDef, error) {
	query := `SELECT
		c.name AS column_name,
		t.name AS data_type,
		c.is_nullable,
		ISNULL(pk.is_primary_key, 0) AS is_primary_key,
		c.max_length,
		c.precision,
		c.scale
	FROM sys.columns c
	INNER JOIN sys.types t ON c.user_type_id = t.user_type_id
	INNER JOIN sys.tables tbl ON c.object_id = tbl.object_id
	INNER JOIN sys.schemas s ON tbl.schema_id = s.schema_id
	LEFT JOIN (
		SELECT ic.column_id, ic.object_id, 1 AS is_primary_key
		FROM sys.index_columns ic
		INNER JOIN sys.indexes i ON ic.object_id = i.object_id AND ic.index_id = i.index_id
		WHERE i.is_primary_key = 1
	) pk ON c.object_id = pk.object_id AND c.column_id = pk.column_id
	WHERE s.name = @p1 AND tbl.name = @p2
	ORDER BY c.column_id`

	var columns []ColumnDef
	err := conn.Exclusive(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, query, schema, table)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var col ColumnDef
			var nullable, pk bool
			var maxLength, precision, scale sql.NullInt64
			if err := rows.Scan(&col.Name, &col.DataType, &nullable, &pk,
				&maxLength, &precision, &scale); err != nil {
				return err
			}
			col.IsNullable = nullable
			col.IsPrimaryKey = pk
			col.MaxLength = int(maxLength.Int64)
			col.Precision = int(precision.Int64)
			col.Scale = int(scale.Int64)
			columns = append(columns, col)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read columns for %s.%s: %w", schema, table, err)
	}
	return columns, nil
}

// TableRowCount returns the partition-based row count estimate.
func TableRowCount(ctx context.Context, conn *Conn, schema, table string) (int64, error) {
	query := `SELECT SUM(p.rows) AS row_count
	FROM sys.partitions p
	INNER JOIN sys.tables t ON p.object_id = t.object_id
	INNER JOIN sys.schemas s ON t.schema_id = s.schema_id
	WHERE s.name = @p1 AND t.name = @p2 AND p.index_id IN (0, 1)`

	var count sql.NullInt64
	err := conn.Exclusive(func(db *sql.DB) error {
		return db.QueryRowContext(ctx, query, schema, table).Scan(&count)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read row count for %s.%s: %w", schema, table, err)
	}
	return count.Int64, nil
}

// TableDDL reconstructs a CREATE TABLE statement from catalog metadata.
func TableDDL(ctx context.Context, conn *Conn, schema, table string) (string, error) {
	columns, err := Columns(ctx, conn, schema, table)
	if err != nil {
		return "", err
	}

	var ddl strings.Builder
	fmt.Fprintf(&ddl, "CREATE TABLE [%s].[%s] (\n", schema, table)

	for i, col := range columns {
		typeStr := strings.ToUpper(col.DataType)
		switch col.DataType {
		case "varchar", "nvarchar":
			if col.MaxLength == -1 {
				typeStr += "(MAX)"
			} else {
				typeStr += "(" + strconv.Itoa(col.MaxLength) + ")"
			}
		case "decimal", "numeric":
			typeStr += fmt.Sprintf("(%d, %d)", col.Precision, col.Scale)
		}

		nullable := "NULL"
		if !col.IsNullable {
			nullable = "NOT NULL"
		}
		pk := ""
		if col.IsPrimaryKey {
			pk = " PRIMARY KEY"
		}
		comma := ","
		if i == len(columns)-1 {
			comma = ""
		}
		fmt.Fprintf(&ddl, "    [%s] %s %s%s%s\n", col.Name, typeStr, nullable, pk, comma)
	}

	ddl.WriteString(");")
	return ddl.String(), nil
}

// SearchObjects finds tables, views, procedures, and functions whose name
// contains the search term.
func SearchObjects(ctx context.Context, conn *Conn, term string) ([]DatabaseObject, error) {
	query := `SELECT s.name AS schema_name, o.name AS object_name, o.type_desc
	FROM sys.objects o
	INNER JOIN sys.schemas s ON o.schema_id = s.schema_id
	WHERE o.name LIKE @p1 AND o.type IN ('U', 'V', 'P', 'FN', 'IF', 'TF')
	ORDER BY o.type, s.name, o.name`

	records, err := conn.QueryStrings(ctx, query, "%"+term+"%")
	if err != nil {
		return nil, fmt.Errorf("object search failed: %w", err)
	}

	objects := make([]DatabaseObject, 0, len(records))
	for _, record := range records {
		if len(record) < 3 {
			continue
		}
		objType := ObjectFunction
		switch record[2] {
		case "USER_TABLE":
			objType = ObjectTable
		case "VIEW":
			objType = ObjectView
		case "SQL_STORED_PROCEDURE":
			objType = ObjectProcedure
		}
		objects = append(objects, DatabaseObject{Name: record[1], Schema: record[0], Type: objType})
	}
	return objects, nil
}

func firstColumn(records [][]string) []string {
	out := make([]string, 0, len(records))
	for _, record := range records {
		if len(record) > 0 && record[0] != "" {
			out = append(out, record[0])
		}
	}
	return out
}
