package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/zircuit-labs/zkr-go-executor/calm"
	"github.com/zircuit-labs/zkr-go-executor/calm/errgroup"
	"github.com/zircuit-labs/zkr-go-executor/log"
)

// ErrStopped is the context cause after Stop.
var ErrStopped = errors.New("task manager stopped")

// StopError is the context cause after a task ended the group.
// Err is nil when the task returned without error.
type StopError struct {
	Task string
	Err  error
}

func (e *StopError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("task %q stopped", e.Task)
	}
	return fmt.Sprintf("task %q failed: %v", e.Task, e.Err)
}

func (e *StopError) Unwrap() error {
	return e.Err
}

// mode decides what a task's return does to the rest of the group.
type mode int

const (
	// any return stops the group
	stopsAll mode = iota
	// only an error stops the group
	terminable
)

// Manager runs a group of tasks sharing one context.
// Context(), once done, carries the reason in context.Cause.
type Manager struct {
	ctx     context.Context
	cancel  context.CancelCauseFunc
	group   *errgroup.Group
	logger  *slog.Logger
	cleanup []func()

	mu      sync.Mutex
	running map[string]int
}

type options struct {
	logger *slog.Logger
	ctx    context.Context
}

// Option is an option func for NewManager.
type Option func(options *options)

// WithLogger sets the logger to be used.
func WithLogger(logger *slog.Logger) Option {
	return func(options *options) {
		options.logger = logger
	}
}

// WithContext sets the parent of the context shared by all tasks.
func WithContext(ctx context.Context) Option {
	return func(options *options) {
		options.ctx = ctx
	}
}

// NewManager creates a Manager.
func NewManager(opts ...Option) *Manager {
	options := options{
		logger: log.NewNilLogger(),
		ctx:    context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	ctx, cancel := context.WithCancelCause(options.ctx)
	return &Manager{
		ctx:     ctx,
		cancel:  cancel,
		group:   errgroup.New(),
		logger:  options.logger,
		running: make(map[string]int),
	}
}

// Run starts tasks immediately. The first of them to return, for any
// reason, stops every other task.
func (tm *Manager) Run(tasks ...Task) {
	tm.start(stopsAll, tasks)
}

// RunTerminable starts tasks that may return nil while the others keep
// running, such as one-shot jobs. An error still stops every task.
func (tm *Manager) RunTerminable(tasks ...Task) {
	tm.start(terminable, tasks)
}

func (tm *Manager) start(m mode, tasks []Task) {
	for _, t := range tasks {
		tm.track(t.Name(), 1)
		tm.group.Go(tm.runTask(t, m))
	}
}

// Cleanup registers f to run after all tasks have stopped,
// in reverse order of registration.
func (tm *Manager) Cleanup(f func()) {
	tm.cleanup = append(tm.cleanup, f)
}

// Wait blocks until every task has returned, runs the cleanup functions
// and returns the first error.
func (tm *Manager) Wait() error {
	err := tm.group.Wait()
	for _, f := range slices.Backward(tm.cleanup) {
		f()
	}
	return err
}

// Stop cancels the shared context and waits.
func (tm *Manager) Stop() error {
	tm.cancel(ErrStopped)
	return tm.Wait()
}

// Context returns the context shared by all tasks.
func (tm *Manager) Context() context.Context {
	return tm.ctx
}

// Running returns the sorted names of tasks that have not returned yet.
func (tm *Manager) Running() []string {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return slices.Sorted(maps.Keys(tm.running))
}

func (tm *Manager) track(name string, delta int) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	tm.running[name] += delta
	if tm.running[name] <= 0 {
		delete(tm.running, name)
	}
}

func (tm *Manager) runTask(t Task, m mode) func() error {
	return func() error {
		name := t.Name()
		defer tm.track(name, -1)

		logger := tm.logger.With(slog.String("task", name))
		logger.Info("task starting")
		start := time.Now()

		err := calm.Unpanic(func() error {
			return t.Run(tm.ctx)
		})
		elapsed := slog.Duration("elapsed", time.Since(start))

		switch {
		case err != nil:
			logger.Error("task failed", elapsed, log.ErrAttr(err))
			tm.cancel(&StopError{Task: name, Err: err})
			return err
		case m == stopsAll:
			tm.cancel(&StopError{Task: name})
		}
		logger.Info("task stopped", elapsed)
		return nil
	}
}
