package row

import (
	"database/sql"
	"fmt"

	"github.com/danthegoodman1/cirecord/record"
	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
)

// FromSQLRows drains rows into records, one per result row, and closes rows.
func FromSQLRows(rows *sql.Rows) ([]*record.Record, error) {
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("error in rows.Columns: %w", err)
	}

	var records []*record.Record
	for rows.Next() {
		values := make([]any, len(names))
		dest := make([]any, len(names))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("error in rows.Scan: %w", err)
		}
		rec, err := FromRow(SliceRow{Names: names, Values: values})
		if err != nil {
			return nil, fmt.Errorf("error in FromRow for row %d: %w", len(records), err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return records, nil
}

// FromPgxRows drains a pgx result set into records, one per result row, and
// closes rows.
func FromPgxRows(rows pgx.Rows) ([]*record.Record, error) {
	defer rows.Close()

	fields := rows.FieldDescriptions()
	names := make([]string, len(fields))
	for i, field := range fields {
		names[i] = string(field.Name)
	}

	var records []*record.Record
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("error in rows.Values: %w", err)
		}
		for i := range values {
			values[i] = normalizePgValue(values[i])
		}
		rec, err := FromRow(SliceRow{Names: names, Values: values})
		if err != nil {
			return nil, fmt.Errorf("error in FromRow for row %d: %w", len(records), err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return records, nil
}

// normalizePgValue turns the pgtype values that have no native Go form into plain
// scalars, so records serialize the same way regardless of the driver.
func normalizePgValue(v any) any {
	switch val := v.(type) {
	case pgtype.Numeric:
		var f float64
		if err := val.AssignTo(&f); err != nil {
			return val
		}
		return f
	case pgtype.TextArray:
		var ss []string
		if err := val.AssignTo(&ss); err != nil {
			return val
		}
		return ss
	case [16]byte:
		return uuid.UUID(val).String()
	default:
		return v
	}
}
