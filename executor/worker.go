package executor

import (
	"context"
	"log/slog"

	"github.com/zircuit-labs/zkr-go-executor/calm"
	"github.com/zircuit-labs/zkr-go-executor/log"
)

// work is the worker loop. It runs queued tasks one at a time until the
// executor is shut down and the queue is empty.
func (e *Executor) work() {
	e.logger.Info("worker started")
	defer func() {
		e.logger.Info("worker stopped",
			slog.Uint64("executed", e.executed.Load()),
			slog.Uint64("skipped", e.skipped.Load()),
			slog.Uint64("faulted", e.faulted.Load()),
		)
		e.terminate()
	}()

	for {
		if it, ok := e.queue.pop(); ok {
			e.runItem(it)
			continue
		}
		if e.drained() {
			return
		}
		e.idle()
	}
}

// drained reports whether the worker may exit. Once the executor stops
// accepting, nothing can be queued any more, so an empty queue stays empty.
func (e *Executor) drained() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase != Accepting && e.queue.size() == 0
}

// idle waits for a push, a shutdown, or the poll interval, whichever comes first.
func (e *Executor) idle() {
	timer := e.opts.clock.NewTimer(e.opts.pollInterval)
	defer timer.Stop()

	select {
	case <-e.queue.ready:
	case <-e.draining:
	case <-timer.Chan():
	}
}

// futureTask is implemented by every Future.
type futureTask interface {
	State() State
	execute(ctx context.Context) bool
}

func (e *Executor) runItem(it item) {
	logger := e.logger.With(slog.String(taskIDKey, it.id.String()))
	logger.Debug("task starting")

	if f, ok := it.task.(futureTask); ok {
		if !f.execute(e.ctx) {
			e.skipped.Add(1)
			logger.Debug("task skipped", slog.String("state", f.State().String()))
			return
		}
		e.executed.Add(1)
		logger.Debug("task finished", slog.String("state", f.State().String()))
		return
	}

	err := calm.Unpanic(func() error {
		return it.task.Run(e.ctx)
	})
	e.executed.Add(1)

	if err != nil {
		e.faulted.Add(1)
		logger.Error("task failed", log.ErrAttr(err))
		return
	}
	logger.Debug("task finished")
}
