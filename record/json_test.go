package record

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalJSONKeepsOrderAndCasing(t *testing.T) {
	r := New()
	r.Set("Zeta", 1)
	r.Set("Alpha", "a")
	r.Set("mid", nil)

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `{"Zeta":1,"Alpha":"a","mid":null}`, string(b))
}

func TestUnmarshalJSON(t *testing.T) {
	var r Record
	require.NoError(t, json.Unmarshal([]byte(`{"B": 1, "a": {"x": true}, "C": [1, 2]}`), &r))

	assert.Equal(t, []string{"B", "a", "C"}, r.Keys())
	assert.Equal(t, float64(1), r.Field("b"))
	assert.Equal(t, map[string]any{"x": true}, r.Field("A"))
	assert.Equal(t, []any{float64(1), float64(2)}, r.Field("c"))
}

func TestUnmarshalJSONReplacesContents(t *testing.T) {
	r := New()
	r.Set("old", 1)
	require.NoError(t, json.Unmarshal([]byte(`{"new": 2}`), r))
	assert.Equal(t, []string{"new"}, r.Keys())
}

func TestUnmarshalJSONErrors(t *testing.T) {
	scenarios := []struct {
		Name  string
		Input string
		Err   error
	}{
		{Name: "case duplicate", Input: `{"a": 1, "A": 2}`, Err: ErrDuplicateKey},
		{Name: "array", Input: `[1, 2]`, Err: ErrNotAnObject},
		{Name: "scalar", Input: `"x"`, Err: ErrNotAnObject},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.Name, func(t *testing.T) {
			r := New()
			r.Set("keep", true)
			err := r.UnmarshalJSON([]byte(scenario.Input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, scenario.Err))
			assert.Equal(t, []string{"keep"}, r.Keys())
		})
	}
}

func TestDecode(t *testing.T) {
	type user struct {
		ID    int64  `record:"id"`
		Name  string
		Email string
		Admin bool
	}

	r := New()
	r.Set("ID", 7)
	r.Set("NAME", "Ann")
	r.Set("email", "ann@example.com")
	r.Set("Admin", "true")

	var u user
	require.NoError(t, r.Decode(&u))
	assert.Equal(t, user{ID: 7, Name: "Ann", Email: "ann@example.com", Admin: true}, u)
}
