// Package logging wraps logrus with the field conventions used across the
// networking core: For returns an *logrus.Entry that already carries a
// "component" field for the subsystem that logs through it.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Options configures the root logger.
type Options struct {
	Level  logrus.Level
	Output io.Writer
	JSON   bool
}

// New builds the root *logrus.Logger for the process.
func New(opts Options) *logrus.Logger {
	l := logrus.New()
	if opts.Output != nil {
		l.SetOutput(opts.Output)
	} else {
		l.SetOutput(os.Stderr)
	}
	l.SetLevel(opts.Level)
	if opts.JSON {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}

// For returns a component-scoped entry off the root logger.
func For(l *logrus.Logger, component string) *logrus.Entry {
	return l.WithField("component", component)
}
