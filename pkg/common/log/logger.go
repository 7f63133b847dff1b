/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package log implements a module scoped logger for fmt-style log messages intended for developers & debugging.
package log

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Level is a logging level.
type Level = logrus.Level

// Log levels.
const (
	PANIC   = logrus.PanicLevel
	FATAL   = logrus.FatalLevel
	ERROR   = logrus.ErrorLevel
	WARNING = logrus.WarnLevel
	INFO    = logrus.InfoLevel
	DEBUG   = logrus.DebugLevel
)

// Format of the log output.
type Format string

const (
	// TextFormat writes human readable lines.
	TextFormat Format = "text"
	// JSONFormat writes one JSON object per line.
	JSONFormat Format = "json"
)

// Config is passed explicitly to whatever creates loggers. There is no
// process wide level registry.
type Config struct {
	Level  Level
	Format Format
	Output io.Writer
}

// Factory creates module loggers that share one backend.
type Factory struct {
	backend *logrus.Logger
}

// NewFactory builds a Factory from the given Config.
func NewFactory(cfg Config) *Factory {
	backend := logrus.New()

	backend.SetLevel(cfg.Level)

	if cfg.Output != nil {
		backend.SetOutput(cfg.Output)
	} else {
		backend.SetOutput(os.Stderr)
	}

	if cfg.Format == JSONFormat {
		backend.SetFormatter(&logrus.JSONFormatter{})
	} else {
		backend.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return &Factory{backend: backend}
}

// New returns a logger for module.
func (f *Factory) New(module string) *Log {
	l := &Log{module: module}
	l.once.Do(func() {
		l.instance = f.backend.WithField("module", module)
	})

	return l
}

// defaultConfig is used by loggers created through New without a Factory.
var defaultConfig = Config{Level: INFO, Format: TextFormat} //nolint:gochecknoglobals

// Log wraps a logrus entry carrying the module name.
// The backend is lazily created on first use.
type Log struct {
	instance *logrus.Entry
	module   string
	once     sync.Once
}

// New creates and returns a logger for the given module name, backed by a
// default INFO text logger. Components that need other settings accept a
// *Log built from a Factory.
func New(module string) *Log {
	return &Log{module: module}
}

// Module returns the module name.
func (l *Log) Module() string {
	return l.module
}

// WithField returns a derived logger that always logs the given field.
func (l *Log) WithField(key string, value interface{}) *Log {
	derived := &Log{module: l.module}
	derived.once.Do(func() {
		derived.instance = l.logger().WithField(key, value)
	})

	return derived
}

// Fatalf calls Fatalf function of underlying logger
// should possibly cause system shutdown based on implementation.
func (l *Log) Fatalf(msg string, args ...interface{}) {
	l.logger().Fatalf(msg, args...)
}

// Panicf calls Panic function of underlying logger
// should possibly cause panic based on implementation.
func (l *Log) Panicf(msg string, args ...interface{}) {
	l.logger().Panicf(msg, args...)
}

// Debugf calls Debugf function of underlying logger.
func (l *Log) Debugf(msg string, args ...interface{}) {
	l.logger().Debugf(msg, args...)
}

// Infof calls Infof function of underlying logger.
func (l *Log) Infof(msg string, args ...interface{}) {
	l.logger().Infof(msg, args...)
}

// Warnf calls Warnf function of underlying logger.
func (l *Log) Warnf(msg string, args ...interface{}) {
	l.logger().Warnf(msg, args...)
}

// Errorf calls Errorf function of underlying logger.
func (l *Log) Errorf(msg string, args ...interface{}) {
	l.logger().Errorf(msg, args...)
}

// IsEnabledFor reports whether level would be written.
func (l *Log) IsEnabledFor(level Level) bool {
	return l.logger().Logger.IsLevelEnabled(level)
}

func (l *Log) logger() *logrus.Entry {
	l.once.Do(func() {
		l.instance = NewFactory(defaultConfig).backend.WithField("module", l.module)
	})

	return l.instance
}

// ParseLevel returns the log level from a string representation.
func ParseLevel(level string) (Level, error) {
	return logrus.ParseLevel(strings.ToLower(level))
}
