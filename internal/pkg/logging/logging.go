// Package logging builds the charmbracelet loggers shared by the server and the
// upload coordinator.
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

const prefix = "fileupload"

// New returns a stderr logger at the given level. Unknown levels fall back to info.
func New(level string) *log.Logger {
	return NewWithWriter(os.Stderr, level)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, level string) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	logger.SetLevel(lvl)
	if lvl == log.DebugLevel {
		logger.SetReportCaller(true)
	}
	return logger
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
