package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

var ErrNotAnObject = errors.New("json value is not an object")

// MarshalJSON writes the record as a JSON object with the stored keys in insertion
// order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	first := true
	for k, v := range r.All() {
		if !first {
			b.WriteByte(',')
		}
		first = false
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("error in json.Marshal for key %q: %w", k, err)
		}
		vb, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("error in json.Marshal for value of %q: %w", k, err)
		}
		b.Write(kb)
		b.WriteByte(':')
		b.Write(vb)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// UnmarshalJSON replaces the contents of the record with the members of a JSON
// object, keeping document order. Members whose names differ only by case fail
// with a *DuplicateKeyError.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("error in dec.Token: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return ErrNotAnObject
	}

	loaded := New()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("error in dec.Token: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v: %w", tok, ErrNotAnObject)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("error decoding value of %q: %w", key, err)
		}
		if err := loaded.Add(key, value); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("error in dec.Token: %w", err)
	}

	r.entries = loaded.entries
	r.version++
	return nil
}

// Decode binds the record onto dst, which must be a pointer to a struct or map.
// Struct fields are matched by their `record` tag, then by name, ignoring case.
func (r *Record) Decode(dst any) error {
	m := make(map[string]any, r.Len())
	for k, v := range r.All() {
		m[k] = v
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dst,
		TagName:          "record",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("error in mapstructure.NewDecoder: %w", err)
	}
	if err := dec.Decode(m); err != nil {
		return fmt.Errorf("error in mapstructure Decode: %w", err)
	}
	return nil
}
