package calm_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zircuit-labs/zkr-go-executor/calm"
	"github.com/zircuit-labs/zkr-go-executor/xerrors/errclass"
	"github.com/zircuit-labs/zkr-go-executor/xerrors/stacktrace"
)

var errTest = errors.New("this is a test error")

func taskBody() error {
	panic("this is a test panic")
}

func TestUnpanic(t *testing.T) {
	t.Parallel()

	err := calm.Unpanic(taskBody)
	require.Error(t, err)
	assert.Equal(t, "panic: this is a test panic", err.Error())
	assert.Equal(t, errclass.Panic, errclass.GetClass(err))

	trace := stacktrace.Extract(err)
	require.NotEmpty(t, trace)
	assert.True(t, strings.HasSuffix(trace[0].Function, "calm_test.taskBody"), trace[0].Function)
}

func TestUnpanicPassesThrough(t *testing.T) {
	t.Parallel()

	assert.NoError(t, calm.Unpanic(func() error { return nil }))

	err := calm.Unpanic(func() error { return errTest })
	assert.ErrorIs(t, err, errTest)
	assert.Equal(t, errclass.Unknown, errclass.GetClass(err))
}

func TestUnpanicWithError(t *testing.T) {
	t.Parallel()

	err := calm.Unpanic(func() error { panic(errTest) })
	assert.ErrorIs(t, err, errTest)
	assert.Equal(t, errclass.Panic, errclass.GetClass(err))
}

func TestValue(t *testing.T) {
	t.Parallel()

	v, err := calm.Value(func() (string, error) { return "A", nil })
	require.NoError(t, err)
	assert.Equal(t, "A", v)

	v, err = calm.Value(func() (string, error) { return "partial", errTest })
	assert.ErrorIs(t, err, errTest)
	assert.Equal(t, "partial", v)

	n, err := calm.Value(func() (int, error) { panic("boom") })
	assert.Equal(t, errclass.Panic, errclass.GetClass(err))
	assert.Zero(t, n)
}
