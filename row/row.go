package row

import (
	"errors"
	"fmt"

	"github.com/danthegoodman1/cirecord/record"
)

type (
	// Row is a single row of tabular data: an ordered list of named columns.
	// ColumnName and ValueAt are called with indexes in [0, ColumnCount()).
	Row interface {
		ColumnCount() int
		ColumnName(i int) string
		ValueAt(i int) any
	}
)

var (
	ErrColumnMismatch = errors.New("column names and values differ in length")
)

// FromRow reads every column of r, in order, into a new record keyed by column name.
// Column names that differ only by case are a fault in the source row and fail
// with record.ErrDuplicateKey.
func FromRow(r Row) (*record.Record, error) {
	rec := record.New()
	n := r.ColumnCount()
	for i := 0; i < n; i++ {
		if err := rec.Add(r.ColumnName(i), r.ValueAt(i)); err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
	}
	return rec, nil
}
