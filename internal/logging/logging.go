// Package logging builds the logrus entry shared by all components.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New returns an entry tagged with the service name. Unknown levels fall back to info.
func New(level string) *logrus.Entry {
	return NewWithOutput(level, os.Stderr)
}

// NewWithOutput is New writing to w.
func NewWithOutput(level string, w io.Writer) *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger.WithField("service", "reportgen")
}

// Component derives a child entry, tolerating a nil parent.
func Component(parent *logrus.Entry, name string) *logrus.Entry {
	if parent == nil {
		parent = logrus.NewEntry(logrus.StandardLogger())
	}
	return parent.WithField("component", name)
}
