package zaplog

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	prefs "github.com/goliatone/go-prefs"
)

func TestLogResolutionWritesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewResolutionLogger(zap.New(core))

	logger.LogResolution(prefs.ResolutionEvent{
		Op:           prefs.OpSet,
		Category:     prefs.CategoryLayoutAttribute,
		Name:         "minimized",
		ElementID:    "f1",
		StylesheetID: 1,
		Scope:        prefs.ScopeRequest,
		Outcome:      prefs.OutcomeWritten,
		Duration:     time.Millisecond,
	})

	entries := logs.All()
	require.Len(t, entries, 1)
	entry := entries[0]
	require.Equal(t, zapcore.InfoLevel, entry.Level)
	require.Equal(t, "preference set", entry.Message)
	require.Equal(t, "prefs", entry.LoggerName)

	fields := entry.ContextMap()
	require.Equal(t, "layout-attribute", fields["category"])
	require.Equal(t, "minimized", fields["name"])
	require.Equal(t, "f1", fields["element_id"])
	require.Equal(t, int64(1), fields["stylesheet_id"])
	require.Equal(t, "request", fields["scope"])
	require.Equal(t, "written", fields["outcome"])
}

func TestLogResolutionLevels(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := NewResolutionLogger(zap.New(core))

	logger.LogResolution(prefs.ResolutionEvent{Op: prefs.OpGet, Outcome: prefs.OutcomeHit})
	logger.LogResolution(prefs.ResolutionEvent{Op: prefs.OpGet, Outcome: prefs.OutcomeUnsupported})
	logger.LogResolution(prefs.ResolutionEvent{Op: prefs.OpSet, Outcome: prefs.OutcomeRejected, Err: errors.New("nope")})
	logger.LogResolution(prefs.ResolutionEvent{Op: prefs.OpGet, Outcome: prefs.OutcomeFailed, Err: errors.New("db down")})

	entries := logs.All()
	require.Len(t, entries, 2, "debug events must be filtered at info level")
	require.Equal(t, zapcore.WarnLevel, entries[0].Level)
	require.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	require.Equal(t, "db down", entries[1].ContextMap()["error"])
}

func TestNilLoggerDiscards(t *testing.T) {
	logger := NewResolutionLogger(nil)
	logger.LogResolution(prefs.ResolutionEvent{Op: prefs.OpGet, Outcome: prefs.OutcomeFailed})
}
