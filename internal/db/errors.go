package db

import (
	"errors"
	"strings"
)

// ErrInterrupted is reported when a background execution ends without
// delivering a result.
var ErrInterrupted = errors.New("query execution was interrupted")

// ErrDateColumns is the guidance surfaced when the driver rejects a
// DATE column that the rewriter could not work around.
var ErrDateColumns = errors.New(
	"table contains DATE columns which are not supported by the driver; " +
		"cast DATE columns to VARCHAR manually, e.g.:\n" +
		"SELECT CONVERT(VARCHAR(10), date_column, 23) AS date_column FROM table")

// isDateTypeError matches the driver's unsupported DATE wire-type
// signature.
func isDateTypeError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "unsupported column type: 40") ||
		strings.Contains(msg, "column type: 40")
}
