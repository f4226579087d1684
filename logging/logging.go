package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// EnvLevel is read when no explicit level is given to EnsureInitialized.
const EnvLevel = "KERNELRUN_LOG_LEVEL"

var (
	once sync.Once
	log  = logrus.New()
)

type settings struct {
	level  string
	format string
	out    io.Writer
}

// Option tweaks the logger configured by EnsureInitialized.
type Option func(*settings)

// WithLevel sets the log level ("debug", "info", "warn", "error").
func WithLevel(level string) Option {
	return func(s *settings) {
		if level != "" {
			s.level = level
		}
	}
}

// WithFormat selects "text" (default) or "json" output.
func WithFormat(format string) Option {
	return func(s *settings) {
		if format != "" {
			s.format = format
		}
	}
}

// WithOutput redirects log output. Defaults to stderr.
func WithOutput(w io.Writer) Option {
	return func(s *settings) {
		if w != nil {
			s.out = w
		}
	}
}

// EnsureInitialized configures the process-wide logger exactly once.
// Later calls, including concurrent ones, are no-ops and their options
// are ignored.
func EnsureInitialized(opts ...Option) {
	once.Do(func() {
		s := settings{
			level:  os.Getenv(EnvLevel),
			format: "text",
			out:    os.Stderr,
		}
		for _, o := range opts {
			o(&s)
		}
		apply(log, s)
	})
}

func apply(l *logrus.Logger, s settings) {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(s.level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	if s.format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
		})
	}
	l.SetOutput(s.out)
}

// Get returns the process logger. It is usable before EnsureInitialized,
// with logrus defaults.
func Get() *logrus.Logger {
	return log
}

// For returns an entry tagged with the given component name.
func For(component string) *logrus.Entry {
	return log.WithField("component", component)
}
