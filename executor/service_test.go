package executor_test

import (
	"context"
	"testing"
	"testing/synctest"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zircuit-labs/zkr-go-executor/executor"
	"github.com/zircuit-labs/zkr-go-executor/log"
	"github.com/zircuit-labs/zkr-go-executor/task"
	"github.com/zircuit-labs/zkr-go-executor/xerrors/errclass"
)

func TestTaskDrainsOnStop(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		logger := log.NewTestLogger(t)
		e := newExecutor(t, executor.WithName("hosted"))

		tm := task.NewManager(task.WithLogger(logger))
		tm.Run(executor.NewTask(e, executor.WithTaskLogger(logger)))

		var futures []*executor.Future[int]
		for i := range 5 {
			f, err := executor.SubmitCallable(e, executor.CallableFunc[int](func(context.Context) (int, error) {
				time.Sleep(time.Second)
				return i, nil
			}))
			require.NoError(t, err)
			futures = append(futures, f)
		}

		require.NoError(t, tm.Stop())
		assert.True(t, e.IsTerminated())
		for i, f := range futures {
			v, err := f.Get(t.Context())
			require.NoError(t, err)
			assert.Equal(t, i, v)
		}
	})
}

func TestTaskName(t *testing.T) {
	t.Parallel()

	e := newExecutor(t, executor.WithName("hosted"))
	assert.Equal(t, "hosted", executor.NewTask(e).Name())
}

func TestTaskExecutorStoppedElsewhere(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		e := newExecutor(t)
		et := executor.NewTask(e)

		done := make(chan error, 1)
		go func() {
			done <- et.Run(t.Context())
		}()

		e.Shutdown()
		require.NoError(t, <-done)
	})
}

func TestTaskDrainTimeout(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		e := newExecutor(t)

		cfg := executor.DefaultConfig()
		cfg.DrainTimeout = time.Second
		opts := append(cfg.TaskOptions(), executor.WithTaskLogger(log.NewTestLogger(t)))
		et := executor.NewTask(e, opts...)

		b := newBlocker()
		_, err := e.Submit(b)
		require.NoError(t, err)
		queued, err := e.Submit(executor.RunnableFunc(noop))
		require.NoError(t, err)
		<-b.started

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		start := time.Now()
		require.NoError(t, et.Run(ctx))
		assert.Equal(t, time.Second, time.Since(start))

		assert.True(t, e.IsTerminated())
		assert.True(t, b.interrupted.Load())
		assert.True(t, queued.IsCancelled())
	})
}

// stubborn ignores interruption until released.
type stubborn struct {
	started chan struct{}
	release chan struct{}
}

func (s *stubborn) Run(context.Context) error {
	close(s.started)
	<-s.release
	return nil
}

func TestTaskNotTerminating(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	e := newExecutor(t, executor.WithClock(clock))
	et := executor.NewTask(e,
		executor.WithTaskLogger(log.NewTestLogger(t)),
		executor.WithDrainTimeout(time.Second),
	)

	s := &stubborn{started: make(chan struct{}), release: make(chan struct{})}
	require.NoError(t, e.Execute(s))
	<-s.started

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	done := make(chan error, 1)
	go func() {
		done <- et.Run(ctx)
	}()

	waitCtx, waitCancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer waitCancel()

	// first the drain, then the wait after ShutdownNow
	for range 2 {
		require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
		clock.Advance(time.Second)
	}

	err := <-done
	require.ErrorIs(t, err, executor.ErrTimeout)
	assert.Equal(t, errclass.Transient, errclass.GetClass(err))
	assert.False(t, e.IsTerminated())

	close(s.release)
	<-e.Done()
}
