// Package logging builds the process logger and routes GPU diagnostics
// into it.
package logging

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"Vulkube/internal/gpu"
)

type Options struct {
	Level  string
	Format string // "text" or "json"
	Output io.Writer
}

// New returns a logger configured from opts and an entry tagged with a
// per-process session id.
func New(opts Options) (*logrus.Logger, *logrus.Entry, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if opts.Output != nil {
		logger.SetOutput(opts.Output)
	}

	if opts.Level != "" {
		level, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "log level %q", opts.Level)
		}
		logger.SetLevel(level)
	}

	switch opts.Format {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, nil, errors.Newf("unknown log format %q", opts.Format)
	}

	return logger, logger.WithField("session", uuid.New().String()), nil
}

// Diagnostics returns a callback that logs validation messages at the
// level matching their severity. Unknown severities log at info.
func Diagnostics(log logrus.FieldLogger) gpu.DebugCallback {
	return func(severity gpu.Severity, prefix, message string) {
		entry := log.WithFields(logrus.Fields{
			"layer":    prefix,
			"severity": severity.String(),
		})
		switch severity {
		case gpu.SeverityError:
			entry.Error(message)
		case gpu.SeverityWarning:
			entry.Warn(message)
		default:
			entry.Info(message)
		}
	}
}
