// Package logging provides the diagnostic logger used across behaverun.
//
// User-facing messages go through internal/output. This package carries
// structured, leveled diagnostics: run and unit lifecycle, resolved
// settings and the runner tool's console output when xRay is enabled.
package logging

import (
	"io"
	"os"

	"github.com/acarl005/stripansi"
	"github.com/sirupsen/logrus"
)

// Field names attached to log entries.
const (
	FieldProject = "project"
	FieldRun     = "run"
	FieldUnit    = "unit"
)

// New creates a logger writing to w. xRay enables debug level diagnostics.
func New(w io.Writer, xRay bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: false,
		FullTimestamp:    true,
		DisableColors:    true,
	})
	SetXRay(logger, xRay)
	return logger
}

// Default creates a logger on stderr.
func Default(xRay bool) *logrus.Logger {
	return New(os.Stderr, xRay)
}

// SetXRay switches debug diagnostics on or off.
func SetXRay(logger *logrus.Logger, xRay bool) {
	if xRay {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
}

// Discard returns an entry that drops everything. Useful in tests.
func Discard() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

// ForProject returns an entry tagged with a project name.
func ForProject(logger *logrus.Logger, project string) *logrus.Entry {
	return logger.WithField(FieldProject, project)
}

// Clean strips terminal escape sequences from runner tool output so it can
// be logged and scanned.
func Clean(text string) string {
	return stripansi.Strip(text)
}
