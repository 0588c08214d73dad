package executor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/xid"

	"github.com/zircuit-labs/zkr-go-executor/calm"
	"github.com/zircuit-labs/zkr-go-executor/xerrors/errclass"
	"github.com/zircuit-labs/zkr-go-executor/xerrors/stacktrace"
)

// State is the lifecycle state of a Future.
type State int

const (
	Pending State = iota
	Running
	Completed
	Failed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is Completed, Failed or Cancelled.
func (s State) Terminal() bool {
	return s >= Completed
}

// Future is the handle to the outcome of a submitted task.
// It reaches a terminal state exactly once and never changes afterwards.
type Future[T any] struct {
	id    xid.ID
	call  func(ctx context.Context) (T, error)
	clock clockwork.Clock
	done  chan struct{}

	mu        sync.Mutex
	state     State
	value     T
	err       error
	interrupt context.CancelFunc
	listeners []func()
}

func newFuture[T any](call func(ctx context.Context) (T, error), clock clockwork.Clock) *Future[T] {
	return &Future[T]{
		id:    xid.New(),
		call:  call,
		clock: clock,
		done:  make(chan struct{}),
	}
}

// ID returns the task id, as used in logs and error context.
func (f *Future[T]) ID() xid.ID {
	return f.id
}

// State returns the current state.
func (f *Future[T]) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// IsDone reports whether the future has reached a terminal state.
func (f *Future[T]) IsDone() bool {
	return f.State().Terminal()
}

// IsCancelled reports whether the future was cancelled.
func (f *Future[T]) IsCancelled() bool {
	return f.State() == Cancelled
}

// Done returns a channel that is closed once the future is terminal.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Run executes the task and resolves the future with its outcome.
// It does nothing unless the future is still pending, so a task returned by
// ShutdownNow can be run by the caller at most once. The outcome is only
// reported through the future; Run always returns nil.
func (f *Future[T]) Run(ctx context.Context) error {
	f.execute(ctx)
	return nil
}

// execute is Run, reporting whether the task body was called.
func (f *Future[T]) execute(ctx context.Context) bool {
	f.mu.Lock()
	if f.state != Pending {
		f.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	f.state = Running
	f.interrupt = cancel
	f.mu.Unlock()

	value, err := calm.Value(func() (T, error) {
		return f.call(ctx)
	})
	if err != nil {
		var zero T
		f.resolve(Failed, zero, taskFailure(f.id, err))
		return true
	}
	f.resolve(Completed, value, nil)
	return true
}

// Cancel moves a pending or running future to Cancelled and reports whether it did.
// A pending task will never run. A running task keeps running, but its outcome
// is discarded; if mayInterrupt is set its context is also cancelled.
// Cancelling a terminal future does nothing and returns false.
func (f *Future[T]) Cancel(mayInterrupt bool) bool {
	var zero T
	interrupt, ok := f.transition(Cancelled, zero, nil)
	if ok && mayInterrupt && interrupt != nil {
		interrupt()
	}
	return ok
}

// Get waits for the future to become terminal and returns its outcome.
// It returns ctx.Err() if ctx is done first.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.result()
	default:
	}

	select {
	case <-f.done:
		return f.result()
	case <-ctx.Done():
		var zero T
		return zero, stacktrace.Wrap(ctx.Err())
	}
}

// GetTimeout is Get with a deadline of timeout from now.
// It returns ErrTimeout if the deadline is reached first.
func (f *Future[T]) GetTimeout(ctx context.Context, timeout time.Duration) (T, error) {
	select {
	case <-f.done:
		return f.result()
	default:
	}

	timer := f.clock.NewTimer(timeout)
	defer timer.Stop()

	var zero T
	select {
	case <-f.done:
		return f.result()
	case <-timer.Chan():
		return zero, newError(ErrTimeout, errclass.Transient, slog.String(taskIDKey, f.id.String()))
	case <-ctx.Done():
		return zero, stacktrace.Wrap(ctx.Err())
	}
}

func (f *Future[T]) result() (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var zero T
	switch f.state {
	case Completed:
		return f.value, nil
	case Failed:
		return zero, f.err
	default:
		return zero, newError(ErrCancelled, errclass.Cancelled, slog.String(taskIDKey, f.id.String()))
	}
}

func (f *Future[T]) resolve(state State, value T, err error) {
	_, _ = f.transition(state, value, err)
}

// transition moves the future to a terminal state unless it already is in one.
// It returns the interrupt func of a running task.
func (f *Future[T]) transition(state State, value T, err error) (context.CancelFunc, bool) {
	f.mu.Lock()
	if f.state.Terminal() {
		f.mu.Unlock()
		return nil, false
	}
	interrupt := f.interrupt
	listeners := f.listeners
	f.state = state
	f.value = value
	f.err = err
	f.interrupt = nil
	f.listeners = nil
	close(f.done)
	f.mu.Unlock()

	for _, listener := range listeners {
		listener()
	}
	return interrupt, true
}

// onDone registers fn to be called once the future is terminal.
// fn is called immediately if it already is.
func (f *Future[T]) onDone(fn func()) {
	f.mu.Lock()
	if f.state.Terminal() {
		f.mu.Unlock()
		fn()
		return
	}
	f.listeners = append(f.listeners, fn)
	f.mu.Unlock()
}
