// Package logging builds the process logger from settings.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tomz197/clicktest/internal/config"
)

// New returns a logger writing to the configured file, or to fallback when
// no file is set. The returned closer releases the file; it is a no-op for
// fallback output.
func New(s config.LogSettings, fallback io.Writer) (*log.Logger, io.Closer) {
	var out io.Writer = fallback
	var closer io.Closer = nopCloser{}
	if s.File != "" {
		lj := &lumberjack.Logger{
			Filename:   s.File,
			MaxSize:    s.MaxSize,
			MaxBackups: s.MaxBackups,
			MaxAge:     s.MaxAge,
			Compress:   s.Compress,
		}
		out, closer = lj, lj
	}
	if out == nil {
		out = os.Stderr
	}

	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           ParseLevel(s.Level),
	})
	if s.JSON {
		logger.SetFormatter(log.JSONFormatter)
	}
	return logger, closer
}

// ParseLevel maps a level name to a log level. Unknown names mean info.
func ParseLevel(name string) log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Apply updates a running logger after a settings reload. Only the level
// changes; output and format are fixed for the life of the process.
func Apply(logger *log.Logger, s config.LogSettings) {
	lvl := ParseLevel(s.Level)
	if logger.GetLevel() != lvl {
		logger.SetLevel(lvl)
		logger.Info("Log level changed", "level", lvl)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
