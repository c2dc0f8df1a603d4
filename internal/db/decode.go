package db

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Display formats for temporal wire types.
const (
	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
	layoutTime     = "15:04:05"
)

// DecodeValue maps one driver wire type and raw column value into exactly
// one Value. It is total: malformed raw values for a known type become
// Null, and unrecognized wire types fall through a fixed probe sequence,
// ending in a bracketed rendering of the type tag. It never returns an
// error and never panics.
func DecodeValue(typeName string, raw any) Value {
	if raw == nil {
		return Null()
	}

	switch strings.ToUpper(typeName) {
	case "BIT":
		if v, ok := asBool(raw); ok {
			return BoolValue(v)
		}
		return Null()

	case "TINYINT", "SMALLINT", "INT", "BIGINT":
		if v, ok := asInt64(raw); ok {
			return IntValue(v)
		}
		return Null()

	case "REAL", "FLOAT":
		if v, ok := asFloat64(raw); ok {
			return FloatValue(v)
		}
		return Null()

	case "DECIMAL", "NUMERIC":
		// Exact textual form, never lossy float conversion.
		if v, ok := asString(raw); ok {
			return TextValue(v)
		}
		return Null()

	case "MONEY", "SMALLMONEY":
		if v, ok := asFloat64(raw); ok {
			return FloatValue(v)
		}
		return Null()

	case "DATETIME", "DATETIME2", "SMALLDATETIME", "DATETIMEOFFSET":
		if v, ok := asTime(raw); ok {
			return TemporalValue(v.Format(layoutDateTime))
		}
		return Null()

	case "DATE":
		if v, ok := asTime(raw); ok {
			return TemporalValue(v.Format(layoutDate))
		}
		return Null()

	case "TIME":
		if v, ok := asTime(raw); ok {
			return TemporalValue(v.Format(layoutTime))
		}
		return Null()

	case "CHAR", "VARCHAR", "NCHAR", "NVARCHAR", "TEXT", "NTEXT", "XML":
		if v, ok := asString(raw); ok {
			return TextValue(v)
		}
		return Null()

	case "UNIQUEIDENTIFIER":
		if v, ok := asGUID(raw); ok {
			return TextValue(v)
		}
		return Null()

	case "BINARY", "VARBINARY", "IMAGE":
		if v, ok := asBytes(raw); ok {
			return BinaryValue(v)
		}
		return Null()

	default:
		return probeUnknown(typeName, raw)
	}
}

// probeUnknown decodes a value whose wire type is outside the dispatch
// table. Probe order: text, temporal, integer, float, decimal-as-text.
// The first probe that succeeds wins. If all fail, the type tag itself is
// rendered so the decoder stays total.
func probeUnknown(typeName string, raw any) Value {
	if v, ok := asString(raw); ok {
		return TextValue(v)
	}
	if v, ok := asTime(raw); ok {
		return TemporalValue(v.Format(layoutDateTime))
	}
	if v, ok := asInt64(raw); ok {
		return IntValue(v)
	}
	if v, ok := asFloat64(raw); ok {
		return FloatValue(v)
	}
	if v, ok := asDecimalText(raw); ok {
		return TextValue(v)
	}
	return TextValue(fmt.Sprintf("<%s>", typeName))
}

func asBool(raw any) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case int64:
		return v != 0, true
	case []byte:
		b, err := strconv.ParseBool(string(v))
		return b, err == nil
	default:
		return false, false
	}
}

func asInt64(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case int16:
		return int64(v), true
	case int8:
		return int64(v), true
	case int:
		return int64(v), true
	case uint8:
		// TINYINT is unsigned on the wire; widen without sign extension.
		return int64(v), true
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func asFloat64(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case []byte:
		f, err := strconv.ParseFloat(string(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func asString(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	default:
		return "", false
	}
}

func asTime(raw any) (time.Time, bool) {
	if v, ok := raw.(time.Time); ok {
		return v, true
	}
	return time.Time{}, false
}

func asBytes(raw any) ([]byte, bool) {
	if v, ok := raw.([]byte); ok {
		return v, true
	}
	return nil, false
}

// asGUID renders a 16-byte GUID in its canonical textual form. go-mssqldb
// hands UNIQUEIDENTIFIER columns over as raw bytes in mixed-endian order:
// the first three groups are little-endian, the rest big-endian.
func asGUID(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case []byte:
		if len(v) != 16 {
			return "", false
		}
		return fmt.Sprintf("%08X-%04X-%04X-%04X-%012X",
			uint32(v[0])|uint32(v[1])<<8|uint32(v[2])<<16|uint32(v[3])<<24,
			uint16(v[4])|uint16(v[5])<<8,
			uint16(v[6])|uint16(v[7])<<8,
			v[8:10],
			v[10:16]), true
	default:
		return "", false
	}
}

// asDecimalText accepts anything numeric-looking and returns its exact
// textual form.
func asDecimalText(raw any) (string, bool) {
	s, ok := asString(raw)
	if !ok {
		return "", false
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return "", false
	}
	return s, true
}
