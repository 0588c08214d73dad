// Package log builds the slog loggers used across the module: zerolog-backed
// JSON output in production, t.Log-backed output in tests, and a nil logger
// as the default for every component.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	slogcommon "github.com/samber/slog-common"
	slogzerolog "github.com/samber/slog-zerolog/v2"

	"github.com/zircuit-labs/zkr-go-executor/xerrors"
	"github.com/zircuit-labs/zkr-go-executor/xerrors/errclass"
	"github.com/zircuit-labs/zkr-go-executor/xerrors/errcontext"
	"github.com/zircuit-labs/zkr-go-executor/xerrors/stacktrace"
)

const (
	ErrorKey        = "error"
	ErrorContextKey = "error_context"
	SourceKey       = "source"
	StackTraceKey   = "stacktrace"
	ErrClassKey     = "class"
)

var logLevel = &slog.LevelVar{}

// SetLogLevel changes the level of every logger created by NewLogger.
// An empty level leaves the current level unchanged.
func SetLogLevel(level string) error {
	if level == "" {
		return nil
	}
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		return errclass.WrapAs(stacktrace.Wrap(err), errclass.Persistent)
	}
	return nil
}

// ErrAttr is a helper for logging error values.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrorKey, err)
}

// NewTestLogger creates a logger that writes through t.Log.
// NOTE: logging after the test has completed panics, which helps
// to find goroutines that outlive their test.
func NewTestLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slogt.New(t, slogt.JSON()).With(slog.String("test", t.Name()))
}

type options struct {
	serviceName string
	instanceID  string
	writer      io.Writer
}

// Option is an option func for NewLogger.
type Option func(options *options)

// WithServiceName sets the service name included in every entry.
func WithServiceName(name string) Option {
	return func(options *options) {
		options.serviceName = name
	}
}

// WithInstanceID overrides the generated instance id.
func WithInstanceID(id string) Option {
	return func(options *options) {
		options.instanceID = id
	}
}

// WithWriter sets the destination of the log output (stdout by default).
func WithWriter(w io.Writer) Option {
	return func(options *options) {
		options.writer = w
	}
}

// NewLogger creates a slog logger backed by zerolog.
func NewLogger(opts ...Option) *slog.Logger {
	options := options{
		serviceName: "unknown",
		instanceID:  xid.New().String(),
		writer:      os.Stdout,
	}
	for _, opt := range opts {
		opt(&options)
	}

	// ms granularity should be sufficient
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	zlogger := zerolog.
		New(options.writer).With().
		Timestamp().
		Str("service", options.serviceName).
		Str("instance", options.instanceID).
		Logger()

	return slog.New(slogzerolog.Option{
		Converter: CustomSlogConverter,
		Level:     logLevel,
		Logger:    &zlogger,
	}.NewZerologHandler())
}

// CustomSlogConverter is slogcommon.DefaultConverter with error attributes
// expanded by replaceError.
func CustomSlogConverter(addSource bool, replaceAttr func(groups []string, a slog.Attr) slog.Attr, loggerAttr []slog.Attr, groups []string, record *slog.Record) map[string]any {
	attrs := slogcommon.AppendRecordAttrsToAttrs(loggerAttr, groups, record)

	attrs = replaceError(attrs)
	if addSource {
		attrs = append(attrs, slogcommon.Source(SourceKey, record))
	}
	attrs = slogcommon.ReplaceAttrs(replaceAttr, []string{}, attrs...)

	return slogcommon.AttrsToMap(attrs...)
}

/*
replaceError rewrites a top-level "error" attribute holding an error value.

A single error becomes:

	"error": err.Error(),
	"error_context": {
		"error": err.Error(),
		"stacktrace": [...],   // when present
		"class": "transient",  // when classified
		"task_id": "...",      // each errcontext attribute
	}

A joined error becomes a list of messages under "error" and one
"error_<i>" group per child under "error_context".
*/
func replaceError(attrs []slog.Attr) []slog.Attr {
	var grouped [][]any
	replaceAttr := func(groups []string, a slog.Attr) slog.Attr {
		if len(groups) > 1 || a.Key != ErrorKey {
			return a
		}

		err, ok := a.Value.Any().(error)
		if !ok || err == nil {
			return a
		}

		joinedErrs := xerrors.Unjoin(err)
		grouped = make([][]any, len(joinedErrs))
		messages := make([]string, 0, len(joinedErrs))
		for i, joinedErr := range joinedErrs {
			grouped[i] = append(grouped[i], slog.String(ErrorKey, joinedErr.Error()))
			messages = append(messages, joinedErr.Error())

			if trace := stacktrace.Extract(joinedErr); trace != nil {
				grouped[i] = append(grouped[i], slog.Any(StackTraceKey, trace.Marshal()))
			}
			if class := errclass.GetClass(joinedErr); class != errclass.Unknown {
				grouped[i] = append(grouped[i], slog.String(ErrClassKey, class.String()))
			}
			for _, attr := range errcontext.Get(joinedErr).Flatten() {
				grouped[i] = append(grouped[i], attr)
			}
		}

		if len(joinedErrs) == 1 {
			return slog.String(ErrorKey, err.Error())
		}
		return slog.Any(a.Key, messages)
	}
	results := slogcommon.ReplaceAttrs(replaceAttr, []string{}, attrs...)

	switch len(grouped) {
	case 0:
		return results
	case 1:
		if len(grouped[0]) > 1 {
			results = append(results, slog.Group(ErrorContextKey, grouped[0]...))
		}
		return results
	}

	groups := make([]slog.Attr, len(grouped))
	for i, group := range grouped {
		groups[i] = slog.Group(fmt.Sprintf("error_%d", i), group...)
	}
	return append(results, slog.Any(ErrorContextKey, groups))
}
