package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlterm/sqlterm/internal/db"
)

func sampleResult() *db.QueryResult {
	return &db.QueryResult{
		Columns: []db.ColumnInfo{
			db.NewColumnInfo("id", "INT"),
			db.NewColumnInfo("name", "NVARCHAR"),
		},
		Rows: [][]db.Value{
			{db.IntValue(1), db.TextValue("alice")},
			{db.IntValue(2), db.Null()},
			{db.IntValue(3), db.TextValue("with,comma")},
		},
		RowCount: 3,
	}
}

func TestCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, CSV(sampleResult(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "id,name\n1,alice\n2,NULL\n3,\"with,comma\"\n", string(data))
}

func TestJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, JSON(sampleResult(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 3)

	assert.Equal(t, "1", rows[0]["id"])
	assert.Equal(t, "alice", rows[0]["name"])

	v, present := rows[1]["name"]
	assert.True(t, present)
	assert.Nil(t, v)
}

func TestJSONEmptyResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, JSON(db.EmptyResult(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestCSVCreateFailure(t *testing.T) {
	err := CSV(sampleResult(), filepath.Join(t.TempDir(), "no", "such", "dir", "out.csv"))
	require.Error(t, err)
}
