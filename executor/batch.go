package executor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/zircuit-labs/zkr-go-executor/xerrors/errclass"
	"github.com/zircuit-labs/zkr-go-executor/xerrors/errcontext"
	"github.com/zircuit-labs/zkr-go-executor/xerrors/stacktrace"
)

// InvokeAll submits every task and waits until all of them are terminal.
// The futures are returned in input order. A failing task does not stop the wait.
//
// A nil slice or nil element is rejected before anything is submitted.
// If a submission is rejected, or ctx is done while waiting, every future
// submitted so far is cancelled and the error returned.
func InvokeAll[T any](ctx context.Context, e *Executor, tasks []Callable[T]) ([]*Future[T], error) {
	return invokeAll(ctx, e, tasks, nil)
}

// InvokeAllTimeout is InvokeAll with a deadline of timeout from the call.
// When the deadline is reached every future that is not yet terminal is
// cancelled and the futures are returned at once, without an error.
func InvokeAllTimeout[T any](ctx context.Context, e *Executor, tasks []Callable[T], timeout time.Duration) ([]*Future[T], error) {
	deadline := e.opts.clock.NewTimer(timeout)
	defer deadline.Stop()

	return invokeAll(ctx, e, tasks, deadline.Chan())
}

func invokeAll[T any](ctx context.Context, e *Executor, tasks []Callable[T], deadline <-chan time.Time) ([]*Future[T], error) {
	futures, err := submitAll(e, tasks)
	if err != nil {
		return nil, err
	}

	for _, f := range futures {
		select {
		case <-f.Done():
			continue
		default:
		}

		select {
		case <-f.Done():
		case <-deadline:
			cancelAll(futures)
			return futures, nil
		case <-ctx.Done():
			cancelAll(futures)
			return nil, stacktrace.Wrap(ctx.Err())
		}
	}
	return futures, nil
}

// InvokeAny submits every task and returns the value of the first one to complete
// successfully, cancelling all others. Ties between tasks found complete at the
// same time go to the earlier task in tasks.
//
// If no task completes successfully the error of the last failed task is returned,
// or ErrNoTaskCompleted if none failed. Argument, rejection and ctx handling
// follow InvokeAll; an empty batch is an invalid argument.
func InvokeAny[T any](ctx context.Context, e *Executor, tasks []Callable[T]) (T, error) {
	return invokeAny(ctx, e, tasks, nil)
}

// InvokeAnyTimeout is InvokeAny with a deadline of timeout from the call.
// If no task has completed by then, every task is cancelled and ErrTimeout returned.
func InvokeAnyTimeout[T any](ctx context.Context, e *Executor, tasks []Callable[T], timeout time.Duration) (T, error) {
	deadline := e.opts.clock.NewTimer(timeout)
	defer deadline.Stop()

	return invokeAny(ctx, e, tasks, deadline.Chan())
}

func invokeAny[T any](ctx context.Context, e *Executor, tasks []Callable[T], deadline <-chan time.Time) (T, error) {
	var zero T
	if tasks != nil && len(tasks) == 0 {
		return zero, invalidArgument("empty batch", slog.String(executorKey, e.name))
	}

	futures, err := submitAll(e, tasks)
	if err != nil {
		return zero, err
	}
	// the winner is already terminal, so this only cancels the losers
	defer cancelAll(futures)

	// every future signals exactly once, so the buffer never fills
	completions := make(chan struct{}, len(futures))
	for _, f := range futures {
		f.onDone(func() { completions <- struct{}{} })
	}

	var lastErr error
	seen := make([]bool, len(futures))
	for remaining := len(futures); remaining > 0; {
		select {
		case <-completions:
		case <-deadline:
			return zero, newError(ErrTimeout, errclass.Transient, slog.String(executorKey, e.name))
		case <-ctx.Done():
			return zero, stacktrace.Wrap(ctx.Err())
		}

		for i, f := range futures {
			if seen[i] || !f.IsDone() {
				continue
			}
			seen[i] = true
			remaining--

			value, err := f.result()
			if err == nil {
				return value, nil
			}
			if !errors.Is(err, ErrCancelled) {
				lastErr = err
			}
		}
	}

	if lastErr != nil {
		return zero, lastErr
	}
	return zero, newError(ErrNoTaskCompleted, errclass.Cancelled, slog.String(executorKey, e.name))
}

// submitAll validates the whole batch first, then submits it in order.
// On a rejection everything already submitted is cancelled.
func submitAll[T any](e *Executor, tasks []Callable[T]) ([]*Future[T], error) {
	if tasks == nil {
		return nil, invalidArgument("nil batch", slog.String(executorKey, e.name))
	}
	for i, task := range tasks {
		if absentCallable(task) {
			return nil, invalidArgument("nil task in batch",
				slog.String(executorKey, e.name),
				slog.Int(batchIndexKey, i),
			)
		}
	}

	futures := make([]*Future[T], 0, len(tasks))
	for i, task := range tasks {
		f, err := SubmitCallable(e, task)
		if err != nil {
			cancelAll(futures)
			return nil, errcontext.Add(err, slog.Int(batchIndexKey, i))
		}
		futures = append(futures, f)
	}
	return futures, nil
}

// cancelAll cancels, with interrupt, every future that is not yet terminal.
func cancelAll[T any](futures []*Future[T]) {
	for _, f := range futures {
		f.Cancel(true)
	}
}
