package parquet_accumulator

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/danthegoodman1/cirecord/record"
)

type (
	// ParquetSchemaAccumulator grows a parquet schema from the records written to
	// it. Columns are matched ignoring case; the first spelling seen wins.
	ParquetSchemaAccumulator struct {
		schema ParquetSchema
		// folded record key -> parquet column name
		columns map[string]string
	}

	ParquetSchema struct {
		TagStructs SchemaTag        `json:"-,omitempty"`
		Fields     []*ParquetSchema `json:",omitempty"`
	}

	ParquetJSONSchema struct {
		Tag    string               `json:",omitempty"`
		Fields []*ParquetJSONSchema `json:",omitempty"`
	}

	SchemaTag struct {
		Name           string         `json:"name,omitempty"`
		Type           string         `json:"type,omitempty"`
		ConvertedType  string         `json:"convertedtype,omitempty"`
		RepetitionType RepetitionType `json:"repetitiontype,omitempty"`
		Encoding       string         `json:"encoding,omitempty"`
	}

	RepetitionType string
)

var (
	Optional RepetitionType = "OPTIONAL"
	Required RepetitionType = "REQUIRED"
)

func NewParquetAccumulator() ParquetSchemaAccumulator {
	return ParquetSchemaAccumulator{
		schema: ParquetSchema{
			TagStructs: SchemaTag{
				Name:           "parquet_go_root",
				RepetitionType: Required,
			},
		},
		columns: make(map[string]string),
	}
}

// WriteRow adds any column of row not seen before. Columns whose value is nil (or
// an empty list) are left out until a row carries a value for them.
func (pa *ParquetSchemaAccumulator) WriteRow(row *record.Record) {
	for key, val := range row.All() {
		folded := record.Fold(key)
		if _, exists := pa.columns[folded]; exists {
			continue
		}
		rowSchema := pa.getParquetSchema(key, val)
		if rowSchema != nil {
			pa.schema.Fields = append(pa.schema.Fields, rowSchema)
			pa.columns[folded] = rowSchema.TagStructs.Name
		}
	}
}

// capitalize upper-cases the first rune of key, the form parquet-go gives the
// column when reading it back
func capitalize(key string) string {
	if key == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(key)
	return string(unicode.ToUpper(r)) + key[size:]
}

// getParquetSchema returns the schema for a single column, or nil when no type can
// be inferred from item
func (pa *ParquetSchemaAccumulator) getParquetSchema(key string, item any) *ParquetSchema {
	if item == nil || key == "" {
		return nil
	}
	schema := &ParquetSchema{
		TagStructs: SchemaTag{
			Name:           capitalize(key),
			RepetitionType: Optional,
		},
	}
	reflectType := reflect.TypeOf(item)
	if reflectType.Kind() == reflect.Ptr {
		val := reflect.ValueOf(item)
		if val.IsNil() {
			return nil
		}
		item = val.Elem().Interface()
		reflectType = reflectType.Elem()
	}

	if reflectType.Kind() == reflect.Slice {
		val := reflect.ValueOf(item)
		var element *ParquetSchema
		for i := 0; i < val.Len() && element == nil; i++ {
			element = pa.getParquetSchema("Element", val.Index(i).Interface())
		}
		if element == nil {
			return nil
		}
		schema.TagStructs.Type = "LIST"
		schema.Fields = append(schema.Fields, element)
	} else if _, isStr := item.(string); isStr {
		schema.TagStructs.Type = "BYTE_ARRAY"
		schema.TagStructs.ConvertedType = "UTF8"
		schema.TagStructs.Encoding = "PLAIN"
	} else if _, isBool := item.(bool); isBool {
		schema.TagStructs.Type = "BOOLEAN"
	} else {
		// Float otherwise since we can't tell the difference in JSON
		schema.TagStructs.Type = "DOUBLE"
	}

	return schema
}

func (pa *ParquetSchemaAccumulator) GetColumnNames() []string {
	var cols []string
	for _, field := range pa.schema.Fields {
		cols = append(cols, field.TagStructs.Name)
	}
	return cols
}

func (ps *ParquetSchema) GetType() string {
	switch ps.TagStructs.Type {
	case "BYTE_ARRAY":
		return "string"
	case "DOUBLE":
		return "float"
	case "BOOLEAN":
		return "bool"
	case "LIST":
		return fmt.Sprintf("list(%s)", ps.Fields[0].GetType())
	default:
		return "unknown"
	}
}

// GetColumnTypes returns the types of columns in the same order as GetColumnNames:
// `string`, `float`, `bool` or `list(x)`
func (pa *ParquetSchemaAccumulator) GetColumnTypes() []string {
	var cols []string
	for _, field := range pa.schema.Fields {
		cols = append(cols, field.GetType())
	}
	return cols
}

// ToParquetJSONSchema recursively converts the schema into the tag form parquet-go
// expects
func (ps *ParquetSchema) ToParquetJSONSchema() *ParquetJSONSchema {
	var tagArr []string
	if ps.TagStructs.Type != "" {
		tagArr = append(tagArr, "type="+ps.TagStructs.Type)
	}
	if ps.TagStructs.ConvertedType != "" {
		tagArr = append(tagArr, "convertedtype="+ps.TagStructs.ConvertedType)
	}
	if ps.TagStructs.Encoding != "" {
		tagArr = append(tagArr, "encoding="+ps.TagStructs.Encoding)
	}
	if ps.TagStructs.Name != "" {
		tagArr = append(tagArr, "name="+ps.TagStructs.Name)
	}
	if string(ps.TagStructs.RepetitionType) != "" {
		tagArr = append(tagArr, "repetitiontype="+string(ps.TagStructs.RepetitionType))
	}
	var fields []*ParquetJSONSchema
	for _, field := range ps.Fields {
		fields = append(fields, field.ToParquetJSONSchema())
	}
	return &ParquetJSONSchema{
		Tag:    strings.Join(tagArr, ", "),
		Fields: fields,
	}
}

// GetSchemaString returns the JSON formatted schema string
func (pa *ParquetSchemaAccumulator) GetSchemaString() (string, error) {
	var fields []*ParquetJSONSchema
	for _, field := range pa.schema.Fields {
		fields = append(fields, field.ToParquetJSONSchema())
	}
	pjs := ParquetJSONSchema{
		Tag:    "name=parquet_go_root, repetitiontype=REQUIRED",
		Fields: fields,
	}

	b, err := json.Marshal(pjs)
	if err != nil {
		return "", fmt.Errorf("error in json.Marshal: %w", err)
	}
	return string(b), nil
}

// RowJSON encodes row as a JSON object keyed by the accumulated column names, so
// rows spelling a column differently still land in the same parquet column.
// Columns the schema does not know are dropped.
func (pa *ParquetSchemaAccumulator) RowJSON(row *record.Record) (string, error) {
	out := record.New()
	for key, val := range row.All() {
		col, exists := pa.columns[record.Fold(key)]
		if !exists {
			continue
		}
		out.Set(col, val)
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("error in json.Marshal of row: %w", err)
	}
	return string(b), nil
}
