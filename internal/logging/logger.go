// Package logging provides the leveled logging surface used by tracer
// lifecycle, snapshot, and registry events. Grounded structurally on the
// teacher's logger.go method surface (Debugf/Infof/Warnf/Errorf/Printf,
// package-level Default/SetDefault) with the backing implementation
// swapped from a hand-rolled stdlib `log.Logger` wrapper to
// go.uber.org/zap's SugaredLogger, matching the logger used throughout
// the broader example pack's controlplane/modules packages.
package logging

import (
	"sync"

	"go.uber.org/zap"
)

// Logger is the leveled logging surface tracecore components depend on.
type Logger struct {
	s *zap.SugaredLogger
}

// New wraps an existing zap logger.
func New(z *zap.Logger) *Logger {
	return &Logger{s: z.Sugar()}
}

// NewProduction builds a Logger with zap's production configuration
// (JSON output, info level and above).
func NewProduction() (*Logger, error) {
	z, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return New(z), nil
}

// NewNop returns a Logger that discards everything, for tests and for
// the no-op build (see the root package's noop.go).
func NewNop() *Logger {
	return New(zap.NewNop())
}

func (l *Logger) Debugf(format string, args ...any) { l.s.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.s.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.s.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.s.Errorf(format, args...) }

// Printf is an alias for Infof, kept for call-site parity with the
// teacher's logger, which several of its callers use interchangeably.
func (l *Logger) Printf(format string, args ...any) { l.s.Infof(format, args...) }

// Sync flushes any buffered log entries, matching zap's own Sync
// convention; callers should defer this after obtaining a Logger from
// NewProduction.
func (l *Logger) Sync() error { return l.s.Sync() }

var (
	mu            sync.RWMutex
	defaultLogger *Logger = NewNop()
)

// Default returns the package-level logger, creating a no-op one if
// SetDefault has never been called.
func Default() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the package-level logger.
func SetDefault(l *Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = l
}
