package executor

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/rs/xid"

	"github.com/zircuit-labs/zkr-go-executor/xerrors/errclass"
	"github.com/zircuit-labs/zkr-go-executor/xerrors/errcontext"
	"github.com/zircuit-labs/zkr-go-executor/xerrors/stacktrace"
)

const (
	taskIDKey     = "task_id"
	executorKey   = "executor"
	batchIndexKey = "batch_index"
)

var (
	// ErrRejected is returned by every submission once the executor has been shut down.
	ErrRejected = errors.New("executor not accepting tasks")

	// ErrInvalidArgument is returned for nil tasks, nil batches and bad configuration.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrTaskFailed matches the error returned by Future.Get for a task that
	// returned an error or panicked. The fault itself is also in the chain.
	ErrTaskFailed = errors.New("task failed")

	// ErrCancelled is returned by Future.Get for a cancelled future.
	ErrCancelled = errors.New("task cancelled")

	// ErrTimeout is returned when a timed wait reaches its deadline first.
	ErrTimeout = errors.New("timed out")

	// ErrNoTaskCompleted is returned by InvokeAny when every task was cancelled
	// and none of them failed.
	ErrNoTaskCompleted = errors.New("no task completed successfully")
)

// TaskError is the fault captured from a task body.
type TaskError struct {
	TaskID xid.ID
	Err    error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %s failed: %v", e.TaskID, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrTaskFailed.
func (e *TaskError) Is(target error) bool {
	return target == ErrTaskFailed
}

// newError classifies sentinel and attaches attrs and the caller's stack.
func newError(sentinel error, class errclass.Class, attrs ...slog.Attr) error {
	err := errclass.WrapAs(sentinel, class)
	if len(attrs) > 0 {
		err = errcontext.Add(err, attrs...)
	}
	return stacktrace.Wrap(err)
}

func invalidArgument(reason string, attrs ...slog.Attr) error {
	return newError(fmt.Errorf("%w: %s", ErrInvalidArgument, reason), errclass.Persistent, attrs...)
}

// taskFailure keeps the class of the captured fault, so a panicking task
// still reports errclass.Panic.
func taskFailure(id xid.ID, fault error) error {
	err := errcontext.Add(&TaskError{TaskID: id, Err: fault}, slog.String(taskIDKey, id.String()))
	return stacktrace.Wrap(err)
}
