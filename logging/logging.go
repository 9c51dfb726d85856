// Package logging builds the zap logger shared by every component.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON production logger in release mode and a console
// development logger otherwise, both filtered at level.
func New(level string, release bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	cfg := zap.NewDevelopmentConfig()
	if release {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}

// BadgerLogger adapts a zap logger to badger's Logger interface.
type BadgerLogger struct {
	s *zap.SugaredLogger
}

// NewBadgerLogger wraps l for badger.Options.WithLogger.
func NewBadgerLogger(l *zap.Logger) *BadgerLogger {
	return &BadgerLogger{s: l.Named("badger").WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (b *BadgerLogger) Errorf(format string, args ...interface{})   { b.s.Errorf(format, args...) }
func (b *BadgerLogger) Warningf(format string, args ...interface{}) { b.s.Warnf(format, args...) }
func (b *BadgerLogger) Infof(format string, args ...interface{})    { b.s.Infof(format, args...) }
func (b *BadgerLogger) Debugf(format string, args ...interface{})   { b.s.Debugf(format, args...) }
