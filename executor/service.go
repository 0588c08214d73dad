package executor

import (
	"context"
	"log/slog"
	"time"

	"github.com/zircuit-labs/zkr-go-executor/log"
	"github.com/zircuit-labs/zkr-go-executor/xerrors/errclass"
)

type taskOptions struct {
	logger       *slog.Logger
	drainTimeout time.Duration
}

// TaskOption is an option func for NewTask.
type TaskOption func(options *taskOptions)

// WithTaskLogger sets the logger to be used by the hosting task.
func WithTaskLogger(logger *slog.Logger) TaskOption {
	return func(options *taskOptions) {
		options.logger = logger
	}
}

// WithDrainTimeout sets how long Run waits for queued tasks after shutdown
// before abandoning them. Non-positive durations are ignored.
func WithDrainTimeout(d time.Duration) TaskOption {
	return func(options *taskOptions) {
		if d > 0 {
			options.drainTimeout = d
		}
	}
}

// Task hosts an Executor under a task.Manager.
type Task struct {
	executor *Executor
	opts     taskOptions
	logger   *slog.Logger
}

// NewTask wraps e so that it is shut down when the hosting manager stops.
func NewTask(e *Executor, opts ...TaskOption) *Task {
	options := taskOptions{
		logger:       log.NewNilLogger(),
		drainTimeout: defaultDrainTimeout,
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &Task{
		executor: e,
		opts:     options,
		logger:   options.logger.With(slog.String(executorKey, e.Name())),
	}
}

// Name returns the executor name.
func (t *Task) Name() string {
	return t.executor.Name()
}

// canceller is implemented by every Future.
type canceller interface {
	Cancel(mayInterrupt bool) bool
}

// Run blocks until ctx is done or the executor terminates by other means.
// It then shuts the executor down and waits for queued tasks to finish.
// Tasks still queued after the drain timeout are cancelled.
func (t *Task) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
	case <-t.executor.Done():
		return nil
	}

	t.executor.Shutdown()

	// ctx is already done; the drain gets its own deadline.
	terminated, err := t.executor.AwaitTermination(context.Background(), t.opts.drainTimeout)
	if err != nil {
		return err
	}
	if terminated {
		return nil
	}

	abandoned := t.executor.ShutdownNow()
	for _, task := range abandoned {
		if c, ok := task.(canceller); ok {
			c.Cancel(false)
		}
	}
	t.logger.Warn("drain timeout reached, abandoning queued tasks",
		slog.Int("abandoned", len(abandoned)),
		slog.Duration("drain_timeout", t.opts.drainTimeout),
	)

	terminated, err = t.executor.AwaitTermination(context.Background(), t.opts.drainTimeout)
	if err != nil {
		return err
	}
	if !terminated {
		err := newError(ErrTimeout, errclass.Transient, slog.String(executorKey, t.executor.Name()))
		t.logger.Error("executor did not terminate", log.ErrAttr(err))
		return err
	}
	return nil
}
