package errcontext_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zircuit-labs/zkr-go-executor/xerrors"
	"github.com/zircuit-labs/zkr-go-executor/xerrors/errcontext"
)

var errTest = errors.New("this is a test error")

func TestAddNil(t *testing.T) {
	t.Parallel()

	assert.NoError(t, errcontext.Add(nil, slog.String("task_id", "x")))
	assert.Nil(t, errcontext.Get(nil))
	assert.Nil(t, errcontext.Get(errTest))
}

func TestAddAndGet(t *testing.T) {
	t.Parallel()

	err := errcontext.Add(errTest, slog.String("task_id", "abc"), slog.Int("batch_index", 1))
	assert.ErrorIs(t, err, errTest)

	var extended xerrors.ExtendedError[errcontext.Context]
	require.ErrorAs(t, err, &extended)

	assert.Equal(t, []slog.Attr{
		slog.Int("batch_index", 1),
		slog.String("task_id", "abc"),
	}, errcontext.Get(err).Flatten())
}

func TestAddLastEntryWins(t *testing.T) {
	t.Parallel()

	err := errcontext.Add(errTest, slog.String("executor", "first"), slog.Int("batch_index", 0))
	err = errcontext.Add(err, slog.String("executor", "second"))

	assert.Equal(t, []slog.Attr{
		slog.Int("batch_index", 0),
		slog.String("executor", "second"),
	}, errcontext.Get(err).Flatten())
}

func TestAddJoined(t *testing.T) {
	t.Parallel()

	errA := errors.New("a")
	errB := errors.New("b")

	err := errcontext.Add(errors.Join(errA, errB), slog.String("executor", "e1"))
	children := xerrors.Unjoin(err)
	require.Len(t, children, 2)
	for _, child := range children {
		assert.Equal(t, []slog.Attr{slog.String("executor", "e1")}, errcontext.Get(child).Flatten())
	}
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

func TestLogValue(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.Value{}, errcontext.Context{}.LogValue())

	value := errcontext.Context{"task_id": slog.StringValue("abc")}.LogValue()
	assert.Equal(t, slog.KindGroup, value.Kind())
	assert.Equal(t, []slog.Attr{slog.String("task_id", "abc")}, value.Group())
}
