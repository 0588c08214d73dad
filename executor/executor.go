// Package executor runs submitted tasks one at a time, in submission order,
// on a single background worker.
//
// Submissions return immediately with a Future. Tasks never run concurrently
// with each other, and a failing or panicking task only fails its own Future.
package executor

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/xid"

	"github.com/zircuit-labs/zkr-go-executor/log"
)

const (
	defaultName         = "executor"
	defaultPollInterval = 200 * time.Millisecond
)

type options struct {
	name         string
	pollInterval time.Duration
	logger       *slog.Logger
	clock        clockwork.Clock
	ctx          context.Context
}

// Option is an option func for New.
type Option func(options *options)

// WithName sets the name used in logs and error context.
func WithName(name string) Option {
	return func(options *options) {
		if name != "" {
			options.name = name
		}
	}
}

// WithPollInterval sets how long the idle worker waits before re-checking
// whether it should exit. Non-positive durations are ignored.
func WithPollInterval(d time.Duration) Option {
	return func(options *options) {
		if d > 0 {
			options.pollInterval = d
		}
	}
}

// WithLogger sets the logger to be used.
func WithLogger(logger *slog.Logger) Option {
	return func(options *options) {
		options.logger = logger
	}
}

// WithClock replaces the clock used for the worker poll and every timed wait.
func WithClock(clock clockwork.Clock) Option {
	return func(options *options) {
		options.clock = clock
	}
}

// WithContext sets the parent of the context passed to every task.
func WithContext(ctx context.Context) Option {
	return func(options *options) {
		options.ctx = ctx
	}
}

// Executor owns one task queue, one worker goroutine and the lifecycle state.
// The worker is running as soon as New returns.
type Executor struct {
	id     xid.ID
	name   string
	opts   options
	logger *slog.Logger
	queue  *queue

	// mu guards phase and orders acceptance checks with pushes and drains.
	mu         sync.Mutex
	phase      Phase
	draining   chan struct{}
	terminated chan struct{}

	// ctx is passed to tasks; cancel is the worker interrupt.
	ctx    context.Context
	cancel context.CancelFunc

	executed atomic.Uint64
	skipped  atomic.Uint64
	faulted  atomic.Uint64
	rejected atomic.Uint64
}

// New creates an Executor and starts its worker.
func New(opts ...Option) *Executor {
	options := options{
		name:         defaultName,
		pollInterval: defaultPollInterval,
		logger:       log.NewNilLogger(),
		clock:        clockwork.NewRealClock(),
		ctx:          context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	id := xid.New()
	ctx, cancel := context.WithCancel(options.ctx)
	e := &Executor{
		id:   id,
		name: options.name,
		opts: options,
		logger: options.logger.With(
			slog.String(executorKey, options.name),
			slog.String("executor_id", id.String()),
		),
		queue:      newQueue(),
		phase:      Accepting,
		draining:   make(chan struct{}),
		terminated: make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}

	go e.work()
	return e
}

// Name returns the executor name.
func (e *Executor) Name() string {
	return e.name
}

// Execute queues task without a Future. An error or panic from the task is
// logged by the worker and otherwise dropped.
func (e *Executor) Execute(task Runnable) error {
	if absentRunnable(task) {
		return invalidArgument("nil task", slog.String(executorKey, e.name))
	}
	return e.enqueue(item{id: xid.New(), task: task})
}

// Submit queues task. The Future resolves to nil once the task succeeds.
func (e *Executor) Submit(task Runnable) (*Future[any], error) {
	return SubmitWithResult[any](e, task, nil)
}

// SubmitWithResult queues task. The Future resolves to result once the task succeeds.
func SubmitWithResult[T any](e *Executor, task Runnable, result T) (*Future[T], error) {
	if absentRunnable(task) {
		return nil, invalidArgument("nil task", slog.String(executorKey, e.name))
	}
	return submit(e, func(ctx context.Context) (T, error) {
		if err := task.Run(ctx); err != nil {
			var zero T
			return zero, err
		}
		return result, nil
	})
}

// SubmitCallable queues task. The Future resolves to the value task returns.
func SubmitCallable[T any](e *Executor, task Callable[T]) (*Future[T], error) {
	if absentCallable(task) {
		return nil, invalidArgument("nil task", slog.String(executorKey, e.name))
	}
	return submit(e, task.Call)
}

func submit[T any](e *Executor, call func(ctx context.Context) (T, error)) (*Future[T], error) {
	f := newFuture(call, e.opts.clock)
	if err := e.enqueue(item{id: f.id, task: f}); err != nil {
		return nil, err
	}
	return f, nil
}

// Stats is a point-in-time view of an Executor.
type Stats struct {
	Phase    Phase
	Queued   int
	Executed uint64
	Skipped  uint64
	Faulted  uint64
	Rejected uint64
}

// Stats returns counters since the executor was created.
// Executed counts tasks whose body was called. Skipped counts futures
// cancelled before the worker reached them. Faulted counts Execute tasks
// that returned an error or panicked; failures of submitted tasks are
// reported through their Future only.
func (e *Executor) Stats() Stats {
	return Stats{
		Phase:    e.Phase(),
		Queued:   e.queue.size(),
		Executed: e.executed.Load(),
		Skipped:  e.skipped.Load(),
		Faulted:  e.faulted.Load(),
		Rejected: e.rejected.Load(),
	}
}
