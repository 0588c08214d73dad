// Package stacktrace records where an error was first returned.
package stacktrace

import (
	"errors"
	"log/slog"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/zircuit-labs/zkr-go-executor/xerrors"
)

const (
	maxFrames     = 50
	runtimePrefix = "runtime."
	testingPrefix = "testing."

	// frames skipped so that the trace starts at the caller of Wrap
	wrapStackDepth = 4
)

var (
	// match files of the go runtime, eg `.../go1.25.5.linux-amd64/src/runtime/panic.go`
	runtimeRegex = regexp.MustCompile(`go[^/]*/src/runtime/[^.]+\.go`)
	testingRegex = regexp.MustCompile(`go[^/]*/src/testing/[^.]+\.go`)
)

// Disabled turns Wrap into a no-op when set.
var Disabled atomic.Bool

// Frame is a single human-readable stack frame.
type Frame struct {
	File       string `json:"source"`
	LineNumber int    `json:"line"`
	Function   string `json:"func"`
}

// StackTrace is a series of frames, innermost first.
type StackTrace []Frame

// LogValue implements slog.LogValuer.
func (s StackTrace) LogValue() slog.Value {
	if len(s) == 0 {
		return slog.Value{}
	}
	return slog.AnyValue(s.Marshal())
}

// Marshal renders the trace as a list of string maps suitable for structured logs.
func (s StackTrace) Marshal() []map[string]string {
	out := make([]map[string]string, 0, len(s))
	for _, frame := range s {
		out = append(out, map[string]string{
			"source": frame.File,
			"line":   strconv.Itoa(frame.LineNumber),
			"func":   frame.Function,
		})
	}
	return out
}

// GetStack captures the current stack.
// skipFrames = 1 makes GetStack itself the first frame.
// skipRuntime drops frames from the go runtime and testing packages.
func GetStack(skipFrames int, skipRuntime bool) StackTrace {
	pc := make([]uintptr, maxFrames)
	n := runtime.Callers(skipFrames, pc)
	frames := runtime.CallersFrames(pc[:n])

	var stackTrace StackTrace
	for {
		frame, more := frames.Next()
		if frame.Function != "" && !(skipRuntime && isRuntimeFrame(frame)) {
			stackTrace = append(stackTrace, Frame{
				File:       frame.File,
				LineNumber: frame.Line,
				Function:   frame.Function,
			})
		}
		if !more {
			break
		}
	}
	return stackTrace
}

func isRuntimeFrame(frame runtime.Frame) bool {
	switch {
	case strings.HasPrefix(frame.Function, runtimePrefix):
		return runtimeRegex.MatchString(frame.File)
	case strings.HasPrefix(frame.Function, testingPrefix):
		return testingRegex.MatchString(frame.File)
	default:
		return false
	}
}

// Wrap attaches the caller's stack trace to err unless err already carries one.
// Joined errors are wrapped child by child.
func Wrap(err error) error {
	if Disabled.Load() || err == nil {
		return err
	}

	if joinedErrors := xerrors.Unjoin(err); len(joinedErrors) > 1 {
		wrapped := make([]error, len(joinedErrors))
		for i, e := range joinedErrors {
			wrapped[i] = Wrap(e)
		}
		return errors.Join(wrapped...)
	}
	return wrapSingle(err)
}

func wrapSingle(err error) error {
	if _, ok := xerrors.Extract[StackTrace](err); ok {
		return err
	}
	return xerrors.Extend(GetStack(wrapStackDepth, true), err)
}

// Extract returns the stack trace carried by err, or nil.
func Extract(err error) StackTrace {
	st, ok := xerrors.Extract[StackTrace](err)
	if !ok {
		return nil
	}
	return st
}
