package row

import (
	"errors"
	"testing"

	"github.com/danthegoodman1/cirecord/record"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgproto3/v2"
	"github.com/jackc/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRow(t *testing.T) {
	r, err := NewSliceRow(
		[]string{"Id", "Name", "Email"},
		[]any{7, "Ann", "ann@example.com"},
	)
	require.NoError(t, err)

	rec, err := FromRow(r)
	require.NoError(t, err)

	id, err := rec.Get("id")
	require.NoError(t, err)
	assert.Equal(t, 7, id)

	name, err := rec.Get("NAME")
	require.NoError(t, err)
	assert.Equal(t, "Ann", name)

	assert.Equal(t, []string{"Id", "Name", "Email"}, rec.Keys())
	assert.Equal(t, 3, rec.Len())
}

func TestFromRowDuplicateColumns(t *testing.T) {
	rec, err := FromRow(SliceRow{Names: []string{"A", "a"}, Values: []any{1, 2}})
	assert.Nil(t, rec)
	require.Error(t, err)
	assert.True(t, errors.Is(err, record.ErrDuplicateKey))
}

func TestFromRowDoesNotTouchSource(t *testing.T) {
	r := SliceRow{Names: []string{"a", "b"}, Values: []any{1, 2}}
	rec, err := FromRow(r)
	require.NoError(t, err)
	rec.Set("a", 100)
	rec.Remove("b")

	assert.Equal(t, []string{"a", "b"}, r.Names)
	assert.Equal(t, []any{1, 2}, r.Values)
}

func TestNewSliceRowMismatch(t *testing.T) {
	_, err := NewSliceRow([]string{"a", "b"}, []any{1})
	assert.True(t, errors.Is(err, ErrColumnMismatch))
}

func TestSliceRowLiteralMismatch(t *testing.T) {
	rec, err := FromRow(SliceRow{Names: []string{"a", "b", "c"}, Values: []any{1}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, rec.Keys())

	rec, err = FromRow(SliceRow{Names: []string{"a"}, Values: []any{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Len())
}

func TestStructRow(t *testing.T) {
	name := "Ann"
	type user struct {
		ID       int64 `record:"id"`
		Name     *string
		Nickname *string
		Password string `record:"-"`
		internal int
	}

	sr, err := NewStructRow(&user{ID: 7, Name: &name, Password: "secret", internal: 1})
	require.NoError(t, err)

	rec, err := FromRow(sr)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "Name", "Nickname"}, rec.Keys())
	assert.Equal(t, []any{int64(7), "Ann", nil}, rec.Values())
}

func TestStructRowDereferencesSliceElements(t *testing.T) {
	a, b := "a", "b"
	type tagged struct {
		Tags   []*string
		None   []*string
		Scores []float64
	}

	sr, err := NewStructRow(tagged{Tags: []*string{&a, nil, &b}, Scores: []float64{1.5}})
	require.NoError(t, err)

	rec, err := FromRow(sr)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", nil, "b"}, rec.Field("tags"))
	assert.Nil(t, rec.Field("none"))
	assert.Equal(t, []float64{1.5}, rec.Field("scores"))
}

func TestNewStructRowRejectsNonStructs(t *testing.T) {
	scenarios := []struct {
		Name  string
		Value any
	}{
		{Name: "int", Value: 1},
		{Name: "map", Value: map[string]any{}},
		{Name: "nil pointer", Value: (*struct{})(nil)},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.Name, func(t *testing.T) {
			_, err := NewStructRow(scenario.Value)
			assert.True(t, errors.Is(err, ErrNotAStruct))
		})
	}
}

type fakePgxRows struct {
	names  []string
	values [][]any
	pos    int
	closed bool
}

func (f *fakePgxRows) Close()                        { f.closed = true }
func (f *fakePgxRows) Err() error                    { return nil }
func (f *fakePgxRows) CommandTag() pgconn.CommandTag { return nil }
func (f *fakePgxRows) Scan(...interface{}) error     { return nil }
func (f *fakePgxRows) RawValues() [][]byte           { return nil }

func (f *fakePgxRows) FieldDescriptions() []pgproto3.FieldDescription {
	fields := make([]pgproto3.FieldDescription, len(f.names))
	for i, name := range f.names {
		fields[i] = pgproto3.FieldDescription{Name: []byte(name)}
	}
	return fields
}

func (f *fakePgxRows) Next() bool {
	if f.pos >= len(f.values) {
		return false
	}
	f.pos++
	return true
}

func (f *fakePgxRows) Values() ([]interface{}, error) {
	return f.values[f.pos-1], nil
}

func TestFromPgxRows(t *testing.T) {
	var price pgtype.Numeric
	require.NoError(t, price.Set(12.5))
	var tags pgtype.TextArray
	require.NoError(t, tags.Set([]string{"a", "b"}))

	rows := &fakePgxRows{
		names: []string{"ID", "Price", "Ref", "Tags"},
		values: [][]any{
			{int64(1), price, [16]byte{0x6b, 0xa7, 0xb8, 0x10, 0x9d, 0xad, 0x11, 0xd1, 0x80, 0xb4, 0x00, 0xc0, 0x4f, 0xd4, 0x30, 0xc8}, tags},
			{int64(2), nil, nil, nil},
		},
	}

	records, err := FromPgxRows(rows)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.True(t, rows.closed)

	assert.Equal(t, int64(1), records[0].Field("id"))
	assert.Equal(t, 12.5, records[0].Field("price"))
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", records[0].Field("REF"))
	assert.Equal(t, []string{"a", "b"}, records[0].Field("tags"))

	v, found := records[1].Member("price")
	assert.True(t, found)
	assert.Nil(t, v)
}

func TestFromPgxRowsDuplicateColumns(t *testing.T) {
	rows := &fakePgxRows{
		names:  []string{"id", "ID"},
		values: [][]any{{1, 2}},
	}
	_, err := FromPgxRows(rows)
	assert.True(t, errors.Is(err, record.ErrDuplicateKey))
}
