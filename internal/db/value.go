// Package db implements the query pipeline for SQL Server: the cell value
// model, the wire-type row decoder, the DATE-cast query rewriter, and the
// query executor.
package db

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind identifies which variant of a Value is active.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindText
	KindTemporal
	KindBinary
)

// Value is one cell of a result set. Exactly one variant is active,
// selected by Kind. Temporal carries an already-rendered textual form
// (YYYY-MM-DD, optionally with HH:MM:SS); it is never re-parsed.
type Value struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Float float64
	Text  string
	Bytes []byte
}

func Null() Value                 { return Value{Kind: KindNull} }
func BoolValue(v bool) Value      { return Value{Kind: KindBool, Bool: v} }
func IntValue(v int64) Value      { return Value{Kind: KindInt, Int: v} }
func FloatValue(v float64) Value  { return Value{Kind: KindFloat, Float: v} }
func TextValue(v string) Value    { return Value{Kind: KindText, Text: v} }
func TemporalValue(v string) Value { return Value{Kind: KindTemporal, Text: v} }
func BinaryValue(v []byte) Value  { return Value{Kind: KindBinary, Bytes: v} }

// IsNull reports whether the value is the Null variant.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// String renders the value for display. It is total: every variant has a
// defined rendering.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "NULL"
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return fmt.Sprintf("%.6f", v.Float)
	case KindText, KindTemporal:
		return v.Text
	case KindBinary:
		return "0x" + strings.ToUpper(fmt.Sprintf("%x", v.Bytes))
	default:
		return "NULL"
	}
}

// ColumnInfo holds metadata for one result column. MaxWidth is a running
// maximum of rendered cell widths, used only for layout.
type ColumnInfo struct {
	Name     string
	TypeName string
	MaxWidth int
}

// NewColumnInfo seeds MaxWidth from the column name.
func NewColumnInfo(name, typeName string) ColumnInfo {
	width := len(name)
	if width < 4 {
		width = 4
	}
	return ColumnInfo{Name: name, TypeName: typeName, MaxWidth: width}
}

// QueryResult is the complete, immutable outcome of one successful
// execution. Every row has exactly len(Columns) values, in column order.
type QueryResult struct {
	Columns       []ColumnInfo
	Rows          [][]Value
	RowCount      int
	ExecutionTime time.Duration
	AffectedRows  *int64
	Messages      []string
}

// EmptyResult returns a zero-row result.
func EmptyResult() *QueryResult {
	return &QueryResult{}
}
