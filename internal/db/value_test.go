package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueString(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"null", Null(), "NULL"},
		{"bool true", BoolValue(true), "true"},
		{"bool false", BoolValue(false), "false"},
		{"int", IntValue(-42), "-42"},
		{"float fixed precision", FloatValue(3.14), "3.140000"},
		{"text", TextValue("hello"), "hello"},
		{"temporal", TemporalValue("2024-01-15 10:30:00"), "2024-01-15 10:30:00"},
		{"binary uppercase hex", BinaryValue([]byte{0xde, 0xad, 0xbe, 0xef}), "0xDEADBEEF"},
		{"binary empty", BinaryValue(nil), "0x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.value.String())
		})
	}
}

func TestValueIsNull(t *testing.T) {
	assert.True(t, Null().IsNull())
	assert.False(t, IntValue(0).IsNull())
	assert.False(t, TextValue("").IsNull())
}

func TestNewColumnInfo(t *testing.T) {
	// Width seeds from the name, with a floor of 4.
	col := NewColumnInfo("id", "INT")
	assert.Equal(t, 4, col.MaxWidth)

	col = NewColumnInfo("customer_name", "NVARCHAR")
	assert.Equal(t, len("customer_name"), col.MaxWidth)
	assert.Equal(t, "NVARCHAR", col.TypeName)
}
