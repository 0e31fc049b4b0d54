package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	fileExt = "log"

	defaultMaxSizeMB  = 100
	defaultMaxBackups = 20
)

// Fields is an alias so callers don't need to import logrus for structured fields
type Fields = logrus.Fields

// Options configures the process-wide logger
type Options struct {
	Name       string
	Level      string
	Dir        string
	Console    bool
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Setup configures the standard logrus logger: text output with RFC3339
// timestamps, written to a rotating file and optionally to stdout.
// The returned Closer releases the log file.
func Setup(opts Options) (io.Closer, error) {
	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	name := opts.Name
	if name == "" {
		name = "simplespend"
	}
	dir := opts.Dir
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	maxSize := opts.MaxSizeMB
	if maxSize == 0 {
		maxSize = defaultMaxSizeMB
	}
	maxBackups := opts.MaxBackups
	if maxBackups == 0 {
		maxBackups = defaultMaxBackups
	}

	file := &lumberjack.Logger{
		Filename:   filepath.Join(dir, fmt.Sprintf("%s.%s", name, fileExt)),
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     opts.MaxAgeDays,
		LocalTime:  true,
	}

	var out io.Writer = file
	if opts.Console {
		out = io.MultiWriter(file, os.Stdout)
	}
	logrus.SetOutput(out)

	logrus.RegisterExitHandler(func() {
		_ = file.Close()
	})

	return file, nil
}

// WithComponent returns an entry tagged with the emitting component
func WithComponent(component string) *logrus.Entry {
	return logrus.WithField("component", component)
}

// WithComponentAndFields returns an entry tagged with the component and extra fields
func WithComponentAndFields(component string, fields Fields) *logrus.Entry {
	return logrus.WithFields(fields).WithField("component", component)
}
