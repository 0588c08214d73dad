// Package calm runs functions with panics converted into errors, so that a
// misbehaving task cannot take down the goroutine that runs it.
package calm

import (
	"fmt"

	"github.com/zircuit-labs/zkr-go-executor/xerrors"
	"github.com/zircuit-labs/zkr-go-executor/xerrors/errclass"
	"github.com/zircuit-labs/zkr-go-executor/xerrors/stacktrace"
)

// frames between the panicking function and the deferred recover
const panicStackDepth = 3

// Unpanic calls f and returns its error, or the recovered panic as an
// errclass.Panic error carrying the stack of the panic site.
// WARNING: panics in goroutines started by f are not recovered.
func Unpanic(f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fromPanic(r)
		}
	}()

	return f()
}

// Value is Unpanic for functions that also produce a value.
// On panic the zero value of T is returned.
func Value[T any](f func() (T, error)) (T, error) {
	var value T
	err := Unpanic(func() error {
		var err error
		value, err = f()
		return err
	})
	if errclass.GetClass(err) == errclass.Panic {
		var zero T
		return zero, err
	}
	return value, err
}

func fromPanic(r any) error {
	var err error
	if e, ok := r.(error); ok {
		err = fmt.Errorf("panic: %w", e)
	} else {
		err = fmt.Errorf("panic: %v", r)
	}
	err = xerrors.Extend(stacktrace.GetStack(panicStackDepth+1, true), err)
	return errclass.WrapAs(err, errclass.Panic)
}
