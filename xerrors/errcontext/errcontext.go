// Package errcontext attaches log attributes (task ids, batch positions, ...) to errors.
package errcontext

import (
	"errors"
	"log/slog"
	"maps"
	"slices"

	"github.com/zircuit-labs/zkr-go-executor/xerrors"
)

// Context is the set of attributes attached to an error.
type Context map[string]slog.Value

// Flatten returns the attributes sorted by key.
func (c Context) Flatten() []slog.Attr {
	attrs := make([]slog.Attr, 0, len(c))
	for _, key := range slices.Sorted(maps.Keys(c)) {
		attrs = append(attrs, slog.Attr{Key: key, Value: c[key]})
	}
	return attrs
}

// LogValue implements slog.LogValuer.
func (c Context) LogValue() slog.Value {
	if len(c) == 0 {
		return slog.Value{}
	}
	return slog.GroupValue(c.Flatten()...)
}

// Add attaches attrs to err, replacing attributes with the same key.
// Joined errors receive the attributes on each child.
func Add(err error, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}

	if joinedErrors := xerrors.Unjoin(err); len(joinedErrors) > 1 {
		children := make([]error, len(joinedErrors))
		for i, e := range joinedErrors {
			children[i] = Add(e, attrs...)
		}
		return errors.Join(children...)
	}

	var merged Context
	if existing := Get(err); existing != nil {
		merged = maps.Clone(existing)
	} else {
		merged = make(Context, len(attrs))
	}
	for _, attr := range attrs {
		merged[attr.Key] = attr.Value
	}
	return xerrors.Extend(merged, err)
}

// Get returns the most recently attached Context, or nil.
func Get(err error) Context {
	if context, ok := xerrors.Extract[Context](err); ok {
		return context
	}
	return nil
}
