// Package logging configures the logrus logger shared by the server, the
// one-shot commands and the dashboard.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Options controls where log lines go and how verbose they are.
type Options struct {
	Level string
	File  string
	// Quiet drops output entirely when no file is set. The dashboard uses it
	// so log lines never land on the alt screen.
	Quiet bool
}

// New builds a logger from opts. The returned closer releases the log file,
// if one was opened.
func New(opts Options) (*logrus.Logger, io.Closer, error) {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	log.SetLevel(level)

	if opts.File == "" {
		if opts.Quiet {
			log.SetOutput(io.Discard)
		} else {
			log.SetOutput(os.Stderr)
		}
		return log, nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0700); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	log.SetOutput(f)
	return log, f, nil
}

// ParseLevel accepts error, warn, info or debug. Empty means info.
func ParseLevel(s string) (logrus.Level, error) {
	level := strings.ToLower(strings.TrimSpace(s))
	switch level {
	case "":
		return logrus.InfoLevel, nil
	case "error", "warn", "warning", "info", "debug":
		return logrus.ParseLevel(level)
	default:
		return logrus.InfoLevel, fmt.Errorf("unknown log level %q (use error, warn, info or debug)", s)
	}
}

// Component returns an entry tagged with the component name.
func Component(log logrus.FieldLogger, name string) *logrus.Entry {
	return log.WithField("component", name)
}

// Discard returns an entry that writes nowhere. Tests and callers without a
// logger use it.
func Discard() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
