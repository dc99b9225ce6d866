// Package logging wraps zap for the ambient structured logging used across
// every core component (indexer, graph store, task engine, linter, agent
// loop, workflow executor). There is no package-level global logger —
// callers construct one at process start and pass it into each component,
// per the "avoid process-wide singletons" guidance.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production zap.Logger, optionally at debug level.
func New(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

// Noop returns a logger that discards everything, for tests and callers
// that don't care about log output.
func Noop() *zap.Logger {
	return zap.NewNop()
}

// Component returns a child logger tagged with the owning component name,
// used instead of the teacher's per-category log files.
func Component(base *zap.Logger, name string) *zap.Logger {
	if base == nil {
		base = Noop()
	}
	return base.With(zap.String("component", name))
}
