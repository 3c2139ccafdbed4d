package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// leveledCore replaces the enabler of the wrapped core so a derived logger
// runs at its own minimum level, above or below the one the core was built
// with.
type leveledCore struct {
	zapcore.Core

	// level is the override applied to the wrapped core.
	level zapcore.Level
}

// Enabled consults only the override level.
func (c *leveledCore) Enabled(l zapcore.Level) bool {
	return c.level.Enabled(l)
}

// Check routes the entry to the wrapped core whenever the override level
// allows it, bypassing the enabler the core was built with.
//
//nolint:gocritic // AddCore takes the entry by value.
func (c *leveledCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}

	return checked
}

// With carries the override onto the field-scoped copy of the core.
//
//nolint:ireturn,nolintlint // zapcore.Core is the integration contract.
func (c *leveledCore) With(fields []zapcore.Field) zapcore.Core {
	return &leveledCore{c.Core.With(fields), c.level}
}

// WithLevel returns an option that pins a derived logger to the given
// minimum level, independent of the global one. Used to quiet noisy
// components or to force verbosity on a single path.
//
//nolint:ireturn,nolintlint // zap.Option is the integration contract.
func WithLevel(lvl zapcore.Level) zap.Option {
	return zap.WrapCore(
		func(core zapcore.Core) zapcore.Core {
			return &leveledCore{core, lvl}
		})
}
