// Package errclass tags errors with a severity class so callers can decide
// whether a failed submission or wait is worth repeating.
package errclass

import (
	"github.com/zircuit-labs/zkr-go-executor/xerrors"
)

// Class is the severity of an error.
type Class int

// Classes are strictly ordered: the higher the value, the more severe the error.
// The class of a joined error is the highest class among its children.
const (
	Nil     Class = -1
	Unknown Class = 0

	// Cancelled marks work that was withdrawn before it produced a result.
	Cancelled Class = 50

	// Transient errors may not recur if the operation is repeated (eg a timeout).
	Transient Class = 100

	// Persistent errors recur for as long as nothing else changes
	// (eg submitting to an executor that is shutting down).
	Persistent Class = 110

	// Panic marks a recovered panic.
	Panic Class = 900
)

// String implements fmt.Stringer.
func (c Class) String() string {
	switch c {
	case Nil:
		return "nil"
	case Cancelled:
		return "cancelled"
	case Transient:
		return "transient"
	case Persistent:
		return "persistent"
	case Panic:
		return "panic"
	default:
		return "unknown"
	}
}

// WrapAs attaches class to err.
func WrapAs(err error, class Class) error {
	if err == nil {
		return nil
	}
	return xerrors.Extend(class, err)
}

// GetClass returns the class of err, Nil for a nil error
// and Unknown when no class was ever attached.
func GetClass(err error) Class {
	if err == nil {
		return Nil
	}

	maxClass := Nil
	for _, joinedErr := range xerrors.Unjoin(err) {
		class, ok := xerrors.Extract[Class](joinedErr)
		switch {
		case ok && class > maxClass:
			maxClass = class
		case !ok && maxClass < Unknown:
			maxClass = Unknown
		}
	}
	return maxClass
}
