package utils

import "errors"

type PermError string

func (e PermError) Error() string {
	return string(e)
}

func (e PermError) IsPermanent() bool {
	return true
}

// IsPermanent reports whether err, or anything it wraps, is marked permanent and
// must not be retried.
func IsPermanent(err error) bool {
	var perm interface{ IsPermanent() bool }
	return errors.As(err, &perm) && perm.IsPermanent()
}

type permanentError struct {
	err error
}

func (e permanentError) Error() string {
	return e.err.Error()
}

func (e permanentError) Unwrap() error {
	return e.err
}

func (e permanentError) IsPermanent() bool {
	return true
}

// Permanent marks err as not worth retrying while keeping it inspectable with
// errors.Is and errors.As.
func Permanent(err error) error {
	return permanentError{err: err}
}
