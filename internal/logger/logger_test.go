package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestParseLogLevel verifies mapping from strings to zapcore.Level and handling of unknown values.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"panic": zapcore.PanicLevel,
		"fatal": zapcore.FatalLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok)
		require.Equal(t, lvl, got)
	}

	_, ok := ParseLogLevel("unknown")
	require.False(t, ok)
}

// TestFromContext ensures context round-trips preserve the logger and
// a bare context falls back to the global instance.
func TestFromContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	require.Same(t, Logger(), FromContext(ctx))

	named := Logger().Named("test-component")
	ctx = ToContext(ctx, named)
	require.Same(t, named, FromContext(ctx))

	// WithName derives from whatever is already in the context.
	derived := FromContext(WithName(ctx, "child"))
	require.NotSame(t, named, derived)
}

// TestWithLevel checks that a derived logger runs at its own minimum level
// in both directions: quieting below the core level and forcing verbosity
// above it.
func TestWithLevel(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)

	quiet := zap.New(core).WithOptions(WithLevel(zapcore.WarnLevel)).Sugar()
	quiet.Info("dropped")
	quiet.Warn("kept")
	require.Len(t, logs.All(), 1)
	require.Equal(t, "kept", logs.All()[0].Message)

	// Override below the core level still emits.
	verbose := zap.New(core).WithOptions(WithLevel(zapcore.DebugLevel)).Sugar()
	verbose.Debug("verbose")
	require.Len(t, logs.FilterMessage("verbose").All(), 1)

	// Fields attached with With keep the override.
	tagged := verbose.With("component", "test")
	tagged.Debug("tagged")
	require.Len(t, logs.FilterMessage("tagged").All(), 1)
}
