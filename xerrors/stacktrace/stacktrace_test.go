package stacktrace_test

import (
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zircuit-labs/zkr-go-executor/xerrors/stacktrace"
)

var errTest = errors.New("this is a test error")

func submit() error {
	return stacktrace.Wrap(enqueue())
}

func enqueue() error {
	return stacktrace.Wrap(errTest)
}

func TestWrapNil(t *testing.T) {
	t.Parallel()

	assert.NoError(t, stacktrace.Wrap(nil))
	assert.Nil(t, stacktrace.Extract(nil))
}

func TestWrapKeepsInnermostTrace(t *testing.T) {
	t.Parallel()

	err := submit()
	require.ErrorIs(t, err, errTest)

	trace := stacktrace.Extract(err)
	require.NotEmpty(t, trace)
	assert.True(t, strings.HasSuffix(trace[0].Function, "stacktrace_test.enqueue"), trace[0].Function)
	assert.True(t, strings.HasSuffix(trace[1].Function, "stacktrace_test.submit"), trace[1].Function)
	assert.True(t, strings.HasSuffix(trace[0].File, "xerrors/stacktrace/stacktrace_test.go"), trace[0].File)
	for _, frame := range trace {
		assert.NotContains(t, frame.Function, "runtime.")
	}
}

func TestWrapJoined(t *testing.T) {
	t.Parallel()

	errA := errors.New("a")
	errB := stacktrace.Wrap(errors.New("b"))
	joined := stacktrace.Wrap(errors.Join(errA, errB))

	multi, ok := joined.(interface{ Unwrap() []error })
	require.True(t, ok)
	for _, child := range multi.Unwrap() {
		assert.NotNil(t, stacktrace.Extract(child), child.Error())
	}
}

func TestDisabled(t *testing.T) { //nolint:paralleltest // uses package-level variable
	stacktrace.Disabled.Store(true)
	t.Cleanup(func() { stacktrace.Disabled.Store(false) })

	assert.Nil(t, stacktrace.Extract(submit()))
}

func TestLogValue(t *testing.T) {
	t.Parallel()

	var empty stacktrace.StackTrace
	assert.Equal(t, slog.Value{}, empty.LogValue())

	trace := stacktrace.Extract(submit())
	require.NotNil(t, trace)
	assert.Equal(t, slog.KindAny, trace.LogValue().Kind())

	marshalled := trace.Marshal()
	require.Len(t, marshalled, len(trace))
	assert.Equal(t, trace[0].Function, marshalled[0]["func"])
}

func TestGetStackSkip(t *testing.T) {
	t.Parallel()

	full := stacktrace.GetStack(1, false)
	require.NotEmpty(t, full)
	assert.Contains(t, full[0].Function, "stacktrace.GetStack")

	assert.LessOrEqual(t, len(stacktrace.GetStack(2, true)), len(full))
	assert.Empty(t, stacktrace.GetStack(1000, true))
}
