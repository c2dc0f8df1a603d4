package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDecodeValueDispatch(t *testing.T) {
	ts := time.Date(2024, 3, 7, 14, 25, 9, 0, time.UTC)

	tests := []struct {
		name     string
		typeName string
		raw      any
		want     Value
	}{
		{"nil is null", "INT", nil, Null()},
		{"bit", "BIT", true, BoolValue(true)},
		{"bit from int", "BIT", int64(1), BoolValue(true)},
		{"tinyint widens unsigned", "TINYINT", uint8(255), IntValue(255)},
		{"smallint", "SMALLINT", int64(-32768), IntValue(-32768)},
		{"int", "INT", int64(7), IntValue(7)},
		{"bigint", "BIGINT", int64(1 << 40), IntValue(1 << 40)},
		{"real", "REAL", float64(1.5), FloatValue(1.5)},
		{"float", "FLOAT", float64(-0.25), FloatValue(-0.25)},
		{"decimal keeps exact text", "DECIMAL", []byte("123.4500"), TextValue("123.4500")},
		{"numeric keeps exact text", "NUMERIC", []byte("-0.0001"), TextValue("-0.0001")},
		{"money", "MONEY", float64(19.99), FloatValue(19.99)},
		{"datetime", "DATETIME", ts, TemporalValue("2024-03-07 14:25:09")},
		{"datetime2", "DATETIME2", ts, TemporalValue("2024-03-07 14:25:09")},
		{"date", "DATE", ts, TemporalValue("2024-03-07")},
		{"time", "TIME", ts, TemporalValue("14:25:09")},
		{"varchar", "VARCHAR", "hello", TextValue("hello")},
		{"nvarchar bytes", "NVARCHAR", []byte("héllo"), TextValue("héllo")},
		{"xml", "XML", "<a/>", TextValue("<a/>")},
		{"varbinary", "VARBINARY", []byte{0x01, 0x02}, BinaryValue([]byte{0x01, 0x02})},
		{"case insensitive type tag", "int", int64(3), IntValue(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeValue(tt.typeName, tt.raw))
		})
	}
}

func TestDecodeValueMalformedYieldsNull(t *testing.T) {
	// A bad cell never aborts the row: malformed raw for a known type
	// downgrades to Null.
	tests := []struct {
		typeName string
		raw      any
	}{
		{"BIT", "not a bool"},
		{"INT", "abc"},
		{"FLOAT", struct{}{}},
		{"DATETIME", "2024-01-01"},
		{"DATE", int64(5)},
		{"VARBINARY", 42},
		{"UNIQUEIDENTIFIER", []byte{0x01}},
	}

	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			assert.Equal(t, Null(), DecodeValue(tt.typeName, tt.raw))
		})
	}
}

func TestDecodeValueGUID(t *testing.T) {
	raw := []byte{
		0x33, 0x22, 0x11, 0x00,
		0x55, 0x44,
		0x77, 0x66,
		0x88, 0x99,
		0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff,
	}
	got := DecodeValue("UNIQUEIDENTIFIER", raw)
	assert.Equal(t, TextValue("00112233-4455-6677-8899-AABBCCDDEEFF"), got)
}

func TestDecodeValueUnknownTypeProbes(t *testing.T) {
	// Probe order: text, temporal, integer, float, decimal-as-text.
	ts := time.Date(2023, 12, 31, 23, 59, 58, 0, time.UTC)

	assert.Equal(t, TextValue("sql_variant data"), DecodeValue("SQL_VARIANT", "sql_variant data"))
	assert.Equal(t, TemporalValue("2023-12-31 23:59:58"), DecodeValue("SQL_VARIANT", ts))
	assert.Equal(t, IntValue(99), DecodeValue("SQL_VARIANT", int64(99)))
	assert.Equal(t, FloatValue(2.5), DecodeValue("SQL_VARIANT", float64(2.5)))
}

func TestDecodeValueUnknownTypeAllProbesFail(t *testing.T) {
	// The decoder stays total: an undecodable value of an unknown type
	// renders the type tag itself.
	got := DecodeValue("GEOGRAPHY", struct{}{})
	assert.Equal(t, TextValue("<GEOGRAPHY>"), got)
}
