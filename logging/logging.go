// Package logging provides the structured logging helper shared across
// kadsim's packages, modeled on a per-package LoggerHelper idiom: every
// log line carries a package
// and function field so a simulation run with thousands of peers stays
// greppable.
package logging

import (
	"github.com/sirupsen/logrus"
)

// Logger accumulates structured fields for one logical operation.
type Logger struct {
	pkg    string
	fields logrus.Fields
}

// New creates a Logger scoped to pkg/function.
func New(pkg, function string) *Logger {
	return &Logger{
		pkg: pkg,
		fields: logrus.Fields{
			"package":  pkg,
			"function": function,
		},
	}
}

// WithField returns a copy of l with an additional field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	fields := make(logrus.Fields, len(l.fields)+1)
	for k, v := range l.fields {
		fields[k] = v
	}
	fields[key] = value
	return &Logger{pkg: l.pkg, fields: fields}
}

// WithError returns a copy of l annotated with an error and the
// operation that produced it.
func (l *Logger) WithError(err error, operation string) *Logger {
	return l.WithField("error", err.Error()).WithField("operation", operation)
}

// Debug logs a debug-level message.
func (l *Logger) Debug(msg string) {
	logrus.WithFields(l.fields).Debug(msg)
}

// Info logs an info-level message.
func (l *Logger) Info(msg string) {
	logrus.WithFields(l.fields).Info(msg)
}

// Warn logs a warning-level message.
func (l *Logger) Warn(msg string) {
	logrus.WithFields(l.fields).Warn(msg)
}

// Error logs an error-level message.
func (l *Logger) Error(msg string) {
	logrus.WithFields(l.fields).Error(msg)
}
