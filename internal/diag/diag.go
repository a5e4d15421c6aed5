// Package diag holds the small amount of shared diagnostics wiring used
// by the daemon and the components that log through it: logger setup
// and human-readable byte formatting for startup and rebuild messages.
package diag

import (
	"os"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

// NewLogger builds a logrus.Logger that writes to stderr, keeping all
// diagnostics off stdout. verbose maps to debug level.
func NewLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level := logrus.InfoLevel
	if verbose {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)
	return log
}

// Size formats a byte count for a log line, e.g. "12 GB".
func Size(bytes uint64) string {
	return humanize.Bytes(bytes)
}
