package executor

import (
	"context"
	"log/slog"
	"time"

	"github.com/zircuit-labs/zkr-go-executor/xerrors/errclass"
	"github.com/zircuit-labs/zkr-go-executor/xerrors/stacktrace"
)

// Phase is the lifecycle phase of an Executor.
// Phases only ever move forward: Accepting, Draining, Terminated.
type Phase int

const (
	// Accepting executors take new submissions.
	Accepting Phase = iota
	// Draining executors reject submissions but finish queued work.
	Draining
	// Terminated executors have stopped their worker.
	Terminated
)

func (p Phase) String() string {
	switch p {
	case Accepting:
		return "accepting"
	case Draining:
		return "draining"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Phase returns the current lifecycle phase.
func (e *Executor) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// enqueue queues it if the executor is still accepting.
func (e *Executor) enqueue(it item) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase != Accepting {
		e.rejected.Add(1)
		return newError(ErrRejected, errclass.Persistent,
			slog.String(executorKey, e.name),
			slog.String(taskIDKey, it.id.String()),
			slog.String("phase", e.phase.String()),
		)
	}
	e.queue.push(it)
	return nil
}

// stopAccepting moves an accepting executor to Draining. e.mu must be held.
func (e *Executor) stopAccepting() bool {
	if e.phase != Accepting {
		return false
	}
	e.phase = Draining
	close(e.draining)
	return true
}

// Shutdown stops accepting new tasks. Queued and running tasks still complete.
// Calling Shutdown more than once has no further effect.
func (e *Executor) Shutdown() {
	e.mu.Lock()
	changed := e.stopAccepting()
	e.mu.Unlock()

	if changed {
		e.logger.Info("executor shutting down", slog.Int("queued", e.queue.size()))
	}
}

// ShutdownNow stops accepting new tasks, interrupts the running task and
// returns the queued tasks that never started, in submission order.
// Futures of the returned tasks stay pending; running them (Runnable.Run)
// or cancelling them is up to the caller.
func (e *Executor) ShutdownNow() []Runnable {
	e.mu.Lock()
	e.stopAccepting()
	items := e.queue.drain()
	e.mu.Unlock()

	e.cancel()

	tasks := make([]Runnable, 0, len(items))
	for _, it := range items {
		tasks = append(tasks, it.task)
	}
	e.logger.Info("executor stopped immediately", slog.Int("unexecuted", len(tasks)))
	return tasks
}

// IsShutdown reports whether the executor no longer accepts tasks.
func (e *Executor) IsShutdown() bool {
	return e.Phase() != Accepting
}

// IsTerminated reports whether the worker has exited.
func (e *Executor) IsTerminated() bool {
	return e.Phase() == Terminated
}

// Done returns a channel that is closed once the worker has exited.
func (e *Executor) Done() <-chan struct{} {
	return e.terminated
}

// AwaitTermination blocks until the worker has exited, timeout elapses or ctx is done.
// It reports whether the executor is terminated; the error is non-nil only when ctx ended the wait.
func (e *Executor) AwaitTermination(ctx context.Context, timeout time.Duration) (bool, error) {
	select {
	case <-e.terminated:
		return true, nil
	default:
	}

	timer := e.opts.clock.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-e.terminated:
		return true, nil
	case <-timer.Chan():
		return e.IsTerminated(), nil
	case <-ctx.Done():
		return false, stacktrace.Wrap(ctx.Err())
	}
}

// terminate is called once by the worker on exit.
func (e *Executor) terminate() {
	e.mu.Lock()
	e.phase = Terminated
	e.mu.Unlock()

	e.cancel()
	close(e.terminated)
}
