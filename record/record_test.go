package record

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetThenGetIgnoresCase(t *testing.T) {
	scenarios := []struct {
		Name   string
		SetKey string
		GetKey string
	}{
		{Name: "same case", SetKey: "name", GetKey: "name"},
		{Name: "upper then lower", SetKey: "NAME", GetKey: "name"},
		{Name: "mixed", SetKey: "eMaIl", GetKey: "EmAiL"},
		{Name: "accented", SetKey: "ÉCOLE", GetKey: "école"},
		{Name: "greek final sigma", SetKey: "ΣΊΣΥΦΟΣ", GetKey: "σίσυφος"},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.Name, func(t *testing.T) {
			r := New()
			r.Set(scenario.SetKey, 42)

			v, err := r.Get(scenario.GetKey)
			require.NoError(t, err)
			assert.Equal(t, 42, v)
			assert.Equal(t, 1, r.Len())
		})
	}
}

func TestSetKeepsStoredCasingAndPosition(t *testing.T) {
	r := New()
	r.Set("Id", 1)
	r.Set("Name", "Ann")
	r.Set("NAME", "Bob")

	assert.Equal(t, []string{"Id", "Name"}, r.Keys())
	assert.Equal(t, []any{1, "Bob"}, r.Values())
}

func TestGetMissingKey(t *testing.T) {
	r := New()
	_, err := r.Get("missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrKeyNotFound))

	var notFound *KeyNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "missing", notFound.Key)
}

func TestTryGet(t *testing.T) {
	r := New()
	r.Set("a", nil)

	v, found := r.TryGet("A")
	assert.True(t, found)
	assert.Nil(t, v)

	v, found = r.TryGet("b")
	assert.False(t, found)
	assert.Nil(t, v)
}

func TestAddDuplicateKeepsOriginalValue(t *testing.T) {
	r := New()
	require.NoError(t, r.Add("Key", "v"))

	err := r.Add("KEY", "v2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateKey))

	var dup *DuplicateKeyError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "KEY", dup.Key)
	assert.Equal(t, "Key", dup.Existing)

	v, err := r.Get("key")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
	assert.Equal(t, 1, r.Len())
}

func TestRemove(t *testing.T) {
	r := New()
	r.Set("a", 1)
	r.Set("b", 2)

	assert.False(t, r.Remove("c"))
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"a", "b"}, r.Keys())

	assert.True(t, r.Remove("A"))
	assert.False(t, r.ContainsKey("a"))
	assert.Equal(t, []string{"b"}, r.Keys())

	assert.False(t, r.Remove("a"))
}

func TestRemoveThenAddAppends(t *testing.T) {
	r := New()
	r.Set("a", 1)
	r.Set("b", 2)
	r.Remove("a")
	r.Set("A", 3)

	assert.Equal(t, []string{"b", "A"}, r.Keys())
}

func TestFromPairsRejectsDuplicates(t *testing.T) {
	r, err := FromPairs(Entry{Key: "X", Value: 1}, Entry{Key: "x", Value: 2})
	assert.Nil(t, r)
	assert.True(t, errors.Is(err, ErrDuplicateKey))

	r, err = FromPairs(Entry{Key: "X", Value: 1}, Entry{Key: "Y", Value: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "Y"}, r.Keys())
}

func TestFromMap(t *testing.T) {
	r, err := FromMap(map[string]any{"b": 2, "a": 1, "c": 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, r.Keys())

	_, err = FromMap(map[string]any{"a": 1, "A": 2})
	assert.True(t, errors.Is(err, ErrDuplicateKey))
}

func TestContainsEntry(t *testing.T) {
	r := New()
	r.Set("Tags", []string{"x", "y"})
	r.Set("Count", 3)

	assert.True(t, r.ContainsEntry(Entry{Key: "tags", Value: []string{"x", "y"}}))
	assert.False(t, r.ContainsEntry(Entry{Key: "tags", Value: []string{"x"}}))
	assert.True(t, r.ContainsEntry(Entry{Key: "COUNT", Value: 3}))
	assert.False(t, r.ContainsEntry(Entry{Key: "COUNT", Value: int64(3)}))
	assert.False(t, r.ContainsEntry(Entry{Key: "missing", Value: nil}))
}

func TestRemoveEntryRequiresValueMatch(t *testing.T) {
	r := New()
	require.NoError(t, r.AddEntry(Entry{Key: "a", Value: 1}))

	assert.False(t, r.RemoveEntry(Entry{Key: "A", Value: 2}))
	assert.True(t, r.ContainsKey("a"))
	assert.True(t, r.RemoveEntry(Entry{Key: "A", Value: 1}))
	assert.Equal(t, 0, r.Len())
}

func TestClear(t *testing.T) {
	r := New()
	r.Set("a", 1)
	r.Set("b", 2)
	r.Clear()

	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Keys())
	assert.False(t, r.ContainsKey("a"))
}

func TestZeroValueIsUsable(t *testing.T) {
	var r Record
	assert.Equal(t, 0, r.Len())
	assert.False(t, r.Remove("a"))
	assert.Nil(t, r.Field("a"))
	r.Set("a", 1)
	assert.Equal(t, 1, r.Field("A"))
}

func TestMemberAccess(t *testing.T) {
	r := New()
	r.SetMember("FirstName", "Ann")

	v, found := r.Member("firstname")
	assert.True(t, found)
	assert.Equal(t, "Ann", v)
	assert.Equal(t, "Ann", r.Field("FIRSTNAME"))

	v, found = r.Member("LastName")
	assert.False(t, found)
	assert.Nil(t, v)
	assert.Nil(t, r.Field("LastName"))

	// writes never fail, even over an existing key
	r.SetMember("FIRSTNAME", "Bob")
	assert.Equal(t, "Bob", r.Field("firstName"))
	assert.Equal(t, []string{"FirstName"}, r.Keys())
}

func TestAllIsRestartable(t *testing.T) {
	r, err := FromPairs(
		Entry{Key: "Id", Value: 7},
		Entry{Key: "Name", Value: "Ann"},
	)
	require.NoError(t, err)

	collect := func() []Entry {
		var out []Entry
		for k, v := range r.All() {
			out = append(out, Entry{Key: k, Value: v})
		}
		return out
	}

	first := collect()
	second := collect()
	assert.Equal(t, first, second)
	assert.Equal(t, []Entry{{Key: "Id", Value: 7}, {Key: "Name", Value: "Ann"}}, first)
}

func TestAllAllowsValueUpdates(t *testing.T) {
	r := New()
	r.Set("a", 1)
	r.Set("b", 2)

	assert.NotPanics(t, func() {
		for k, v := range r.All() {
			r.Set(k, v.(int)*10)
		}
	})
	assert.Equal(t, []any{10, 20}, r.Values())
}

func TestAllPanicsOnStructuralChange(t *testing.T) {
	scenarios := []struct {
		Name   string
		Mutate func(r *Record)
	}{
		{Name: "add", Mutate: func(r *Record) { r.Set("c", 3) }},
		{Name: "remove", Mutate: func(r *Record) { r.Remove("b") }},
		{Name: "clear", Mutate: func(r *Record) { r.Clear() }},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.Name, func(t *testing.T) {
			r := New()
			r.Set("a", 1)
			r.Set("b", 2)

			defer func() {
				recovered := recover()
				require.NotNil(t, recovered)
				err, ok := recovered.(error)
				require.True(t, ok)
				assert.True(t, errors.Is(err, ErrConcurrentModification))
			}()
			for range r.All() {
				scenario.Mutate(r)
			}
			t.Fatal("expected a panic")
		})
	}
}

func TestEntriesSnapshotToleratesMutation(t *testing.T) {
	r := New()
	r.Set("a", 1)
	r.Set("b", 2)

	for _, e := range r.Entries() {
		r.Remove(e.Key)
		r.Set(e.Key+"2", e.Value)
	}
	assert.Equal(t, []string{"a2", "b2"}, r.Keys())
}

func TestCopyTo(t *testing.T) {
	r := New()
	r.Set("a", 1)
	r.Set("b", 2)

	dst := make([]Entry, 3)
	require.NoError(t, r.CopyTo(dst, 1))
	assert.Equal(t, []Entry{{}, {Key: "a", Value: 1}, {Key: "b", Value: 2}}, dst)

	assert.True(t, errors.Is(r.CopyTo(dst, 2), ErrCopyOutOfRange))
	assert.True(t, errors.Is(r.CopyTo(dst, -1), ErrCopyOutOfRange))
	assert.True(t, errors.Is(r.CopyTo(dst, 4), ErrCopyOutOfRange))
}

func TestCloneIsIndependent(t *testing.T) {
	r := New()
	r.Set("a", 1)
	c := r.Clone()
	c.Set("A", 2)
	c.Set("b", 3)

	assert.Equal(t, 1, r.Field("a"))
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, []string{"a", "b"}, c.Keys())
	assert.Equal(t, 2, c.Field("a"))
}

func TestString(t *testing.T) {
	r := New()
	r.Set("Id", 7)
	r.Set("Name", "Ann")
	assert.Equal(t, "{Id: 7, Name: Ann}", r.String())
}

func TestFoldFromManyGoroutines(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				assert.Equal(t, Fold("école"), Fold("ÉCOLE"))
				assert.Equal(t, Fold("σίσυφος"), Fold("ΣΊΣΥΦΟΣ"))
			}
		}()
	}
	wg.Wait()
}
