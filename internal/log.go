package internal

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger writes human-readable lines to stderr and JSON lines to a log file.
type Logger struct {
	zerolog.Logger
	f *os.File
}

// NewLogger truncates path and logs to it. An empty path logs to stderr only.
func NewLogger(path string, verbose bool) (*Logger, error) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	if path == "" {
		return &Logger{Logger: newZerolog(console, level)}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &Logger{Logger: newZerolog(zerolog.MultiLevelWriter(console, f), level), f: f}, nil
}

func newZerolog(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func (l *Logger) Close() error {
	if l.f == nil {
		return nil
	}
	return l.f.Close()
}
