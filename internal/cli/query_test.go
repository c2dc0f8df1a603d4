package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitObjectName(t *testing.T) {
	tests := []struct {
		name       string
		wantSchema string
		wantTable  string
	}{
		{"dbo.Orders", "dbo", "Orders"},
		{"Orders", "dbo", "Orders"},
		{"[sales].[OrderLines]", "sales", "OrderLines"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, table := splitObjectName(tt.name)
			assert.Equal(t, tt.wantSchema, schema)
			assert.Equal(t, tt.wantTable, table)
		})
	}
}
