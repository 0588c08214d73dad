// Package errgroup is golang.org/x/sync/errgroup with every goroutine run through calm.Unpanic.
package errgroup

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/zircuit-labs/zkr-go-executor/calm"
)

// Group is a collection of goroutines working on subtasks of a common task.
type Group struct {
	group *errgroup.Group
}

// WithContext returns a Group and a context cancelled when any goroutine fails or panics.
func WithContext(ctx context.Context) (*Group, context.Context) {
	group, ctx := errgroup.WithContext(ctx)
	return &Group{group: group}, ctx
}

// New returns a Group without an associated context.
func New() *Group {
	return &Group{group: new(errgroup.Group)}
}

// Go runs f in a new goroutine; a panic in f is reported as its error.
func (g *Group) Go(f func() error) {
	g.group.Go(func() error {
		return calm.Unpanic(f)
	})
}

// SetLimit limits the number of active goroutines.
func (g *Group) SetLimit(n int) {
	g.group.SetLimit(n)
}

// Wait blocks until all goroutines have returned and reports the first error.
func (g *Group) Wait() error {
	return g.group.Wait()
}
