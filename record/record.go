// Package record implements Record, a string-keyed container whose keys compare
// case-insensitively. A Record can be used as an ordered map (Get, Set, Add, Remove)
// or through member-style access (Member, Field, SetMember), both backed by the same
// store. It is meant to hold one row of tabular data where the column names are not
// known ahead of time.
//
// A Record is not safe for concurrent use.
package record

import (
	"fmt"
	"iter"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"golang.org/x/text/cases"
)

// The Caser returned by cases.Fold keeps no state between calls, unlike most
// Casers, so one is shared by every record.
var folder = cases.Fold()

type (
	Entry struct {
		Key   string
		Value any
	}

	Record struct {
		// folded key -> Entry, in insertion order
		entries *linkedhashmap.Map
		// bumped on every add, remove and clear
		version uint64
	}
)

// Fold returns the normalized form of key. Two keys denote the same entry exactly
// when their folded forms are equal.
func Fold(key string) string {
	return folder.String(key)
}

func New() *Record {
	return &Record{
		entries: linkedhashmap.New(),
	}
}

// FromPairs builds a record from pairs, in order. If two pairs share a key the
// record is discarded and a *DuplicateKeyError is returned.
func FromPairs(pairs ...Entry) (*Record, error) {
	r := New()
	for _, pair := range pairs {
		if err := r.Add(pair.Key, pair.Value); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// FromMap builds a record from m. Keys are inserted in sorted order so that the
// resulting enumeration order does not depend on map iteration.
func FromMap(m map[string]any) (*Record, error) {
	r := New()
	for _, key := range slices.Sorted(maps.Keys(m)) {
		if err := r.Add(key, m[key]); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Record) store() *linkedhashmap.Map {
	if r.entries == nil {
		r.entries = linkedhashmap.New()
	}
	return r.entries
}

func (r *Record) lookup(key string) (Entry, bool) {
	if r.entries == nil {
		return Entry{}, false
	}
	v, found := r.entries.Get(Fold(key))
	if !found {
		return Entry{}, false
	}
	return v.(Entry), true
}

// Get returns the value stored under key, or a *KeyNotFoundError.
func (r *Record) Get(key string) (any, error) {
	e, found := r.lookup(key)
	if !found {
		return nil, &KeyNotFoundError{Key: key}
	}
	return e.Value, nil
}

func (r *Record) TryGet(key string) (any, bool) {
	e, found := r.lookup(key)
	return e.Value, found
}

// Set inserts or replaces the value for key. When an entry already exists its
// stored casing and position are kept.
func (r *Record) Set(key string, value any) {
	folded := Fold(key)
	store := r.store()
	if v, found := store.Get(folded); found {
		existing := v.(Entry)
		store.Put(folded, Entry{Key: existing.Key, Value: value})
		return
	}
	store.Put(folded, Entry{Key: key, Value: value})
	r.version++
}

// Add inserts a new entry. It fails with a *DuplicateKeyError, leaving the record
// untouched, if the key is already present in any casing.
func (r *Record) Add(key string, value any) error {
	folded := Fold(key)
	store := r.store()
	if v, found := store.Get(folded); found {
		return &DuplicateKeyError{Key: key, Existing: v.(Entry).Key}
	}
	store.Put(folded, Entry{Key: key, Value: value})
	r.version++
	return nil
}

func (r *Record) AddEntry(e Entry) error {
	return r.Add(e.Key, e.Value)
}

func (r *Record) Remove(key string) bool {
	if r.entries == nil {
		return false
	}
	folded := Fold(key)
	if _, found := r.entries.Get(folded); !found {
		return false
	}
	r.entries.Remove(folded)
	r.version++
	return true
}

// RemoveEntry removes the entry only if both its key and its value match e.
func (r *Record) RemoveEntry(e Entry) bool {
	if !r.ContainsEntry(e) {
		return false
	}
	return r.Remove(e.Key)
}

func (r *Record) ContainsKey(key string) bool {
	_, found := r.lookup(key)
	return found
}

// ContainsEntry reports whether key is present and holds a value deeply equal to
// e.Value.
func (r *Record) ContainsEntry(e Entry) bool {
	existing, found := r.lookup(e.Key)
	if !found {
		return false
	}
	return reflect.DeepEqual(existing.Value, e.Value)
}

func (r *Record) Len() int {
	if r.entries == nil {
		return 0
	}
	return r.entries.Size()
}

func (r *Record) Clear() {
	if r.Len() == 0 {
		return
	}
	r.entries.Clear()
	r.version++
}

// Keys returns the stored keys in insertion order.
func (r *Record) Keys() []string {
	keys := make([]string, 0, r.Len())
	for k := range r.All() {
		keys = append(keys, k)
	}
	return keys
}

// Values returns the values in insertion order, aligned with Keys.
func (r *Record) Values() []any {
	values := make([]any, 0, r.Len())
	for _, v := range r.All() {
		values = append(values, v)
	}
	return values
}

// Entries returns a snapshot of the record. The record may be freely mutated while
// ranging over the result.
func (r *Record) Entries() []Entry {
	entries := make([]Entry, 0, r.Len())
	for k, v := range r.All() {
		entries = append(entries, Entry{Key: k, Value: v})
	}
	return entries
}

// All returns a live sequence over the entries in insertion order. It may be ranged
// over any number of times. Replacing the value of an existing key while ranging is
// allowed; adding or removing entries makes the next step panic with a
// *ConcurrentModificationError. Use Entries to iterate over a snapshot instead.
func (r *Record) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if r.entries == nil {
			return
		}
		version := r.version
		it := r.entries.Iterator()
		for it.Next() {
			e := it.Value().(Entry)
			if !yield(e.Key, e.Value) {
				return
			}
			if r.version != version {
				panic(&ConcurrentModificationError{Expected: version, Actual: r.version})
			}
		}
	}
}

// CopyTo copies the entries into dst starting at index.
func (r *Record) CopyTo(dst []Entry, index int) error {
	if index < 0 || index > len(dst) {
		return fmt.Errorf("index %d for destination of length %d: %w", index, len(dst), ErrCopyOutOfRange)
	}
	if len(dst)-index < r.Len() {
		return fmt.Errorf("%d entries do not fit at index %d of destination of length %d: %w", r.Len(), index, len(dst), ErrCopyOutOfRange)
	}
	for k, v := range r.All() {
		dst[index] = Entry{Key: k, Value: v}
		index++
	}
	return nil
}

// Clone returns a shallow copy: values are shared, the store is not.
func (r *Record) Clone() *Record {
	c := New()
	for k, v := range r.All() {
		c.entries.Put(Fold(k), Entry{Key: k, Value: v})
	}
	return c
}

// Member reads key as if it were a field of the record. Absence is reported through
// the boolean, never as an error.
func (r *Record) Member(name string) (any, bool) {
	return r.TryGet(name)
}

// Field is Member without the found flag: a member that was never set reads as nil.
func (r *Record) Field(name string) any {
	v, _ := r.TryGet(name)
	return v
}

// SetMember writes a member. It always succeeds and is the same as Set.
func (r *Record) SetMember(name string, value any) {
	r.Set(name, value)
}

func (r *Record) String() string {
	var b strings.Builder
	b.WriteString("{")
	first := true
	for k, v := range r.All() {
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(fmt.Sprint(v))
	}
	b.WriteString("}")
	return b.String()
}
