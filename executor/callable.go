package executor

import "context"

//go:generate mockgen -source callable.go -destination mock_callable_test.go -package executor_test

// Runnable is a unit of work that produces no value.
// The context is cancelled when the work is interrupted,
// either by Future.Cancel(true) or by Executor.ShutdownNow.
type Runnable interface {
	Run(ctx context.Context) error
}

// Callable is a unit of work that produces a value.
type Callable[T any] interface {
	Call(ctx context.Context) (T, error)
}

// RunnableFunc adapts a function to Runnable.
type RunnableFunc func(ctx context.Context) error

// Run calls f(ctx).
func (f RunnableFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// CallableFunc adapts a function to Callable.
type CallableFunc[T any] func(ctx context.Context) (T, error)

// Call calls f(ctx).
func (f CallableFunc[T]) Call(ctx context.Context) (T, error) {
	return f(ctx)
}

// absentRunnable reports whether task is nil, including a nil RunnableFunc.
func absentRunnable(task Runnable) bool {
	switch t := task.(type) {
	case nil:
		return true
	case RunnableFunc:
		return t == nil
	default:
		return false
	}
}

// absentCallable reports whether task is nil, including a nil CallableFunc.
func absentCallable[T any](task Callable[T]) bool {
	switch t := task.(type) {
	case nil:
		return true
	case CallableFunc[T]:
		return t == nil
	default:
		return false
	}
}
