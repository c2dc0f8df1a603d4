package db

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabases(t *testing.T) {
	conn, mock := newMockConn(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT name FROM sys.databases")).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).
			AddRow("master").AddRow("Northwind"))

	got, err := Databases(context.Background(), conn)
	require.NoError(t, err)
	assert.Equal(t, []string{"master", "Northwind"}, got)
}

func TestSchemas(t *testing.T) {
	conn, mock := newMockConn(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT name FROM sys.schemas")).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).
			AddRow("dbo").AddRow("sales"))

	got, err := Schemas(context.Background(), conn)
	require.NoError(t, err)
	assert.Equal(t, []string{"dbo", "sales"}, got)
}

func TestTablesFiltersBySchema(t *testing.T) {
	conn, mock := newMockConn(t)

	mock.ExpectQuery("FROM sys.tables t").
		WithArgs("sales").
		WillReturnRows(sqlmock.NewRows([]string{"schema_name", "object_name"}).
			AddRow("sales", "Orders").
			AddRow("sales", "OrderLines"))

	got, err := Tables(context.Background(), conn, "sales")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, DatabaseObject{Name: "Orders", Schema: "sales", Type: ObjectTable}, got[0])
}

func TestViewsDefaultsMissingSchemaToDbo(t *testing.T) {
	conn, mock := newMockConn(t)

	mock.ExpectQuery("FROM sys.views v").
		WillReturnRows(sqlmock.NewRows([]string{"schema_name", "object_name"}).
			AddRow("", "ActiveOrders"))

	got, err := Views(context.Background(), conn, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "dbo", got[0].Schema)
	assert.Equal(t, ObjectView, got[0].Type)
}

func TestProceduresWrapsError(t *testing.T) {
	conn, mock := newMockConn(t)

	mock.ExpectQuery("FROM sys.procedures p").
		WillReturnError(errors.New("timeout"))

	_, err := Procedures(context.Background(), conn, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list procedures")
}

func TestColumns(t *testing.T) {
	conn, mock := newMockConn(t)

	mock.ExpectQuery("FROM sys.columns c").
		WithArgs("dbo", "Orders").
		WillReturnRows(sqlmock.NewRows([]string{
			"column_name", "data_type", "is_nullable", "is_primary_key",
			"max_length", "precision", "scale",
		}).
			AddRow("Id", "int", false, true, 4, 10, 0).
			AddRow("Total", "decimal", true, false, 9, 18, 2))

	got, err := Columns(context.Background(), conn, "dbo", "Orders")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Id", got[0].Name)
	assert.True(t, got[0].IsPrimaryKey)
	assert.False(t, got[0].IsNullable)
	assert.Equal(t, 18, got[1].Precision)
	assert.Equal(t, 2, got[1].Scale)
}

func TestTableRowCount(t *testing.T) {
	conn, mock := newMockConn(t)

	mock.ExpectQuery("FROM sys.partitions p").
		WithArgs("dbo", "Orders").
		WillReturnRows(sqlmock.NewRows([]string{"row_count"}).AddRow(int64(1234)))

	got, err := TableRowCount(context.Background(), conn, "dbo", "Orders")
	require.NoError(t, err)
	assert.Equal(t, int64(1234), got)
}

func TestTableDDL(t *testing.T) {
	conn, mock := newMockConn(t)

	mock.ExpectQuery("FROM sys.columns c").
		WithArgs("dbo", "Orders").
		WillReturnRows(sqlmock.NewRows([]string{
			"column_name", "data_type", "is_nullable", "is_primary_key",
			"max_length", "precision", "scale",
		}).
			AddRow("Id", "int", false, true, 4, 10, 0).
			AddRow("Note", "nvarchar", true, false, -1, 0, 0).
			AddRow("Total", "decimal", false, false, 9, 18, 2))

	ddl, err := TableDDL(context.Background(), conn, "dbo", "Orders")
	require.NoError(t, err)

	assert.Contains(t, ddl, "CREATE TABLE [dbo].[Orders] (")
	assert.Contains(t, ddl, "[Id] INT NOT NULL PRIMARY KEY,")
	assert.Contains(t, ddl, "[Note] NVARCHAR(MAX) NULL,")
	assert.Contains(t, ddl, "[Total] DECIMAL(18, 2) NOT NULL\n")
	assert.Contains(t, ddl, ");")
}

func TestSearchObjects(t *testing.T) {
	conn, mock := newMockConn(t)

	mock.ExpectQuery("FROM sys.objects o").
		WithArgs("%ord%").
		WillReturnRows(sqlmock.NewRows([]string{"schema_name", "object_name", "type_desc"}).
			AddRow("dbo", "Orders", "USER_TABLE").
			AddRow("dbo", "ActiveOrders", "VIEW").
			AddRow("dbo", "GetOrders", "SQL_STORED_PROCEDURE").
			AddRow("dbo", "OrderTotal", "SQL_SCALAR_FUNCTION"))

	got, err := SearchObjects(context.Background(), conn, "ord")
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, ObjectTable, got[0].Type)
	assert.Equal(t, ObjectView, got[1].Type)
	assert.Equal(t, ObjectProcedure, got[2].Type)
	assert.Equal(t, ObjectFunction, got[3].Type)
}
