package row

import "fmt"

type (
	SliceRow struct {
		// The list of column names, same order as Values
		Names []string
		// The list of column values, same order as Names
		Values []any
	}
)

func NewSliceRow(names []string, values []any) (SliceRow, error) {
	if len(names) != len(values) {
		return SliceRow{}, fmt.Errorf("%d names, %d values: %w", len(names), len(values), ErrColumnMismatch)
	}
	return SliceRow{Names: names, Values: values}, nil
}

// ColumnCount is the shorter of Names and Values, so a literal with mismatched
// lengths reads its aligned prefix. NewSliceRow rejects the mismatch instead.
func (r SliceRow) ColumnCount() int {
	return min(len(r.Names), len(r.Values))
}

func (r SliceRow) ColumnName(i int) string {
	return r.Names[i]
}

func (r SliceRow) ValueAt(i int) any {
	return r.Values[i]
}
