package vdjaggr

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// NewLogger returns the logger shared by one run. verbose enables debug
// output.
func NewLogger(w io.Writer, verbose bool) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}

	return logger
}

// OrDiscard returns logger, or a logger that drops everything if logger is
// nil.
func OrDiscard(logger *log.Logger) *log.Logger {
	if logger != nil {
		return logger
	}

	return log.New(io.Discard)
}
