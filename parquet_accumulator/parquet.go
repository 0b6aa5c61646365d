package parquet_accumulator

import (
	"errors"
	"fmt"
	"io"

	"github.com/danthegoodman1/cirecord/record"
	"github.com/danthegoodman1/cirecord/row"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/schema"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

const parallelism = 4

// ErrNoColumns is returned when none of the rows carry a value parquet can type,
// e.g. every value is null
var ErrNoColumns = errors.New("no typed columns")

// EncodeRecords writes rows as a single parquet file to w and returns the
// accumulator holding the schema that was used.
func EncodeRecords(w io.Writer, rows []*record.Record) (ParquetSchemaAccumulator, error) {
	acc := NewParquetAccumulator()
	for _, r := range rows {
		acc.WriteRow(r)
	}
	if len(acc.schema.Fields) == 0 {
		return acc, ErrNoColumns
	}

	parquetSchema, err := acc.GetSchemaString()
	if err != nil {
		return acc, fmt.Errorf("error in GetSchemaString: %w", err)
	}

	pw, err := writer.NewJSONWriterFromWriter(parquetSchema, w, parallelism)
	if err != nil {
		return acc, fmt.Errorf("error in NewJSONWriterFromWriter: %w", err)
	}

	for _, r := range rows {
		rowJSON, err := acc.RowJSON(r)
		if err != nil {
			return acc, err
		}
		if err := pw.Write(rowJSON); err != nil {
			return acc, fmt.Errorf("error in pw.Write for row %s: %w", rowJSON, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return acc, fmt.Errorf("error in pw.WriteStop: %w", err)
	}
	return acc, nil
}

// DecodeRecords reads every row of a parquet file into records. Columns are named
// as they are in the file's schema, not as parquet-go names its Go struct fields.
func DecodeRecords(pf source.ParquetFile) ([]*record.Record, error) {
	pr, err := reader.NewParquetReader(pf, nil, parallelism)
	if err != nil {
		return nil, fmt.Errorf("error in reader.NewParquetReader: %w", err)
	}
	defer pr.ReadStop()

	columnNames := topLevelColumnNames(pr.SchemaHandler)

	num := int(pr.GetNumRows())
	res, err := pr.ReadByNumber(num)
	if err != nil {
		return nil, fmt.Errorf("error in pr.ReadByNumber: %w", err)
	}

	records := make([]*record.Record, 0, len(res))
	for i, item := range res {
		sr, err := row.NewStructRow(item)
		if err != nil {
			return nil, fmt.Errorf("error in row.NewStructRow for row %d: %w", i, err)
		}
		named := row.SliceRow{
			Names:  make([]string, sr.ColumnCount()),
			Values: make([]any, sr.ColumnCount()),
		}
		for c := range named.Names {
			named.Names[c] = sr.ColumnName(c)
			if exName, ok := columnNames[named.Names[c]]; ok {
				named.Names[c] = exName
			}
			named.Values[c] = sr.ValueAt(c)
		}
		rec, err := row.FromRow(named)
		if err != nil {
			return nil, fmt.Errorf("error in row.FromRow for row %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// topLevelColumnNames maps the Go field name parquet-go generates for each column
// of the root to the column name stored in the file.
func topLevelColumnNames(sh *schema.SchemaHandler) map[string]string {
	names := make(map[string]string)
	elems := sh.SchemaElements
	if len(elems) == 0 {
		return names
	}
	idx := 1
	for c := 0; c < int(elems[0].GetNumChildren()) && idx < len(elems); c++ {
		names[sh.Infos[idx].InName] = elems[idx].GetName()
		idx = skipSubtree(elems, idx)
	}
	return names
}

// skipSubtree returns the index just past the element at idx and all its
// descendants. Elements are stored depth first.
func skipSubtree(elems []*parquet.SchemaElement, idx int) int {
	children := int(elems[idx].GetNumChildren())
	idx++
	for c := 0; c < children && idx < len(elems); c++ {
		idx = skipSubtree(elems, idx)
	}
	return idx
}
