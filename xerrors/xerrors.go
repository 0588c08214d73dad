// Package xerrors attaches typed data to errors so that callers further up
// the stack (loggers, batch coordinators, retry loops) can recover it.
package xerrors

import (
	"errors"
	"log/slog"
)

// ExtendedError carries a value of type T alongside the error it wraps.
type ExtendedError[T any] struct {
	Data T
	err  error
}

// Error returns the message of the wrapped error unchanged.
func (e ExtendedError[T]) Error() string {
	return e.err.Error()
}

// Unwrap returns the wrapped error.
func (e ExtendedError[T]) Unwrap() error {
	return e.err
}

// LogValue implements slog.LogValuer by logging the attached data only.
func (e ExtendedError[T]) LogValue() slog.Value {
	if logValuer, ok := any(e.Data).(slog.LogValuer); ok {
		return logValuer.LogValue()
	}
	return slog.AnyValue(e.Data)
}

// Extend wraps err together with data. A nil error stays nil.
func Extend[T any](data T, err error) error {
	if err == nil {
		return nil
	}
	return ExtendedError[T]{Data: data, err: err}
}

// Extract returns the outermost data of type T found anywhere in the chain of err.
func Extract[T any](err error) (T, bool) {
	var extendedError ExtendedError[T]
	ok := errors.As(err, &extendedError)
	return extendedError.Data, ok
}

// Unjoin returns the direct children of an error built with errors.Join,
// or the error itself as a single element otherwise.
func Unjoin(err error) []error {
	if err == nil {
		return nil
	}

	if joinedErrs, ok := err.(interface{ Unwrap() []error }); ok {
		return joinedErrs.Unwrap()
	}
	return []error{err}
}
