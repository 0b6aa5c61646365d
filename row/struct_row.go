package row

import (
	"errors"
	"reflect"
	"strings"
)

var ErrNotAStruct = errors.New("not a struct")

type (
	// StructRow exposes the exported fields of a struct as columns. A `record:"name"`
	// tag renames a column and `record:"-"` skips the field. Pointer fields read as
	// the value they point to, or nil. Slices of pointers read as []any holding the
// pointed-to values.
	StructRow struct {
		v      reflect.Value
		fields []int
		names  []string
	}
)

func NewStructRow(s any) (*StructRow, error) {
	v := reflect.ValueOf(s)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, ErrNotAStruct
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, ErrNotAStruct
	}

	sr := &StructRow{v: v}
	typeOf := v.Type()
	for i := 0; i < typeOf.NumField(); i++ {
		field := typeOf.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if tag, ok := field.Tag.Lookup("record"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		sr.fields = append(sr.fields, i)
		sr.names = append(sr.names, name)
	}
	return sr, nil
}

func (r *StructRow) ColumnCount() int {
	return len(r.fields)
}

func (r *StructRow) ColumnName(i int) string {
	return r.names[i]
}

func (r *StructRow) ValueAt(i int) any {
	return deref(r.v.Field(r.fields[i]))
}

func deref(v reflect.Value) any {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		out := make([]any, v.Len())
		for i := range out {
			out[i] = deref(v.Index(i))
		}
		return out
	}
	return v.Interface()
}
