package record

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateKey           = errors.New("duplicate key")
	ErrKeyNotFound            = errors.New("key not found")
	ErrConcurrentModification = errors.New("record modified during iteration")
	ErrCopyOutOfRange         = errors.New("copy destination out of range")
)

type (
	// DuplicateKeyError is returned when a strict insert collides with an existing
	// entry. Existing holds the stored casing of the entry that is already there.
	DuplicateKeyError struct {
		Key      string
		Existing string
	}

	KeyNotFoundError struct {
		Key string
	}

	// ConcurrentModificationError is the panic value raised by Record.All when
	// entries are added or removed while the sequence is being consumed.
	ConcurrentModificationError struct {
		Expected uint64
		Actual   uint64
	}
)

func (e *DuplicateKeyError) Error() string {
	if e.Existing == e.Key {
		return fmt.Sprintf("duplicate key %q", e.Key)
	}
	return fmt.Sprintf("duplicate key %q (conflicts with %q)", e.Key, e.Existing)
}

func (e *DuplicateKeyError) Unwrap() error {
	return ErrDuplicateKey
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("key not found: %q", e.Key)
}

func (e *KeyNotFoundError) Unwrap() error {
	return ErrKeyNotFound
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("record modified during iteration (version %d, now %d)", e.Expected, e.Actual)
}

func (e *ConcurrentModificationError) Unwrap() error {
	return ErrConcurrentModification
}
