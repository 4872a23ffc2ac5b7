// Package telemetry provides the structured logging infrastructure used across
// the digital twins graph service. It wraps logrus with output stream
// separation (errors to stderr, everything else to stdout) and a set of
// correlation-field helpers so that every component — the catalog, the
// dataplane, the job runner, the importer — logs with the same shape.
package telemetry

import (
	"bytes"
	"context"
	"os"

	"github.com/sirupsen/logrus"
)

// LogLevel mirrors logrus levels so callers configuring the service don't
// need to import logrus directly.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// Format selects the logrus formatter.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Config controls how NewLogger builds the root logger.
type Config struct {
	Level       LogLevel
	Format      Format
	ServiceName string
}

// DefaultConfig returns production-sane defaults: JSON output at info level.
func DefaultConfig() Config {
	return Config{
		Level:       LevelInfo,
		Format:      FormatJSON,
		ServiceName: "digitaltwins",
	}
}

// outputSplitter routes error-level log lines to stderr and everything else
// to stdout, so container log collectors can apply different handling per
// stream without parsing structured fields.
type outputSplitter struct{}

func (outputSplitter) Write(p []byte) (int, error) {
	if bytes.Contains(p, []byte("level=error")) || bytes.Contains(p, []byte(`"level":"error"`)) {
		return os.Stderr.Write(p)
	}
	return os.Stdout.Write(p)
}

// NewLogger builds a logrus.Logger configured per cfg, with service_name
// attached to every entry.
func NewLogger(cfg Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(&outputSplitter{})

	switch cfg.Format {
	case FormatText:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	switch cfg.Level {
	case LevelDebug:
		logger.SetLevel(logrus.DebugLevel)
	case LevelWarn:
		logger.SetLevel(logrus.WarnLevel)
	case LevelError:
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	name := cfg.ServiceName
	if name == "" {
		name = "digitaltwins"
	}
	logger.AddHook(&serviceNameHook{serviceName: name})
	return logger
}

// serviceNameHook stamps service_name onto every entry regardless of level,
// so multi-service log aggregation can filter by origin without each
// call site remembering to set the field itself.
type serviceNameHook struct {
	serviceName string
}

func (h *serviceNameHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *serviceNameHook) Fire(entry *logrus.Entry) error {
	entry.Data["service_name"] = h.serviceName
	return nil
}

// contextKey is an unexported type so values stored by this package never
// collide with keys set by other packages on the same context.
type contextKey int

const loggerContextKey contextKey = iota

// WithLogger attaches an entry to ctx so downstream calls can recover the
// caller's correlation fields via FromContext.
func WithLogger(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, loggerContextKey, entry)
}

// FromContext recovers the *logrus.Entry attached by WithLogger, falling
// back to base with no extra fields when ctx carries none.
func FromContext(ctx context.Context, base *logrus.Logger) *logrus.Entry {
	if entry, ok := ctx.Value(loggerContextKey).(*logrus.Entry); ok && entry != nil {
		return entry
	}
	return logrus.NewEntry(base)
}

// WithFields returns a child entry carrying the given correlation fields on
// top of whatever fields base already holds. Used at the boundary of every
// long-running operation (job runner tick, import batch, query execution)
// to stamp job_id / graph / request_id onto every subsequent log line.
func WithFields(base *logrus.Entry, fields logrus.Fields) *logrus.Entry {
	return base.WithFields(fields)
}

// JobFields builds the correlation fields attached to every log line
// emitted while internal/jobs or internal/importer is processing a batch
// job, matching the job_id/graph shape used by the job status API.
func JobFields(jobID, graph, jobType string) logrus.Fields {
	return logrus.Fields{
		"job_id": jobID,
		"graph":  graph,
		"type":   jobType,
	}
}

// RequestFields builds the correlation fields attached to a single inbound
// API call (twin/relationship CRUD, query execution).
func RequestFields(requestID, graph, operation string) logrus.Fields {
	return logrus.Fields{
		"request_id": requestID,
		"graph":      graph,
		"operation":  operation,
	}
}

// LogPanic recovers a panic captured by the caller's deferred recover() and
// logs it at error level with a stack-free summary before the caller
// re-panics or returns an error. It does not itself call recover.
func LogPanic(entry *logrus.Entry, recovered interface{}) {
	entry.WithField("panic", recovered).Error("recovered from panic")
}
