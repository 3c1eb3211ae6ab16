// Package zaplog adapts prefs resolution events to go.uber.org/zap.
package zaplog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	prefs "github.com/goliatone/go-prefs"
)

// Logger writes one structured entry per resolution event.
//
// Levels: failed -> error, rejected -> warn, written and removed -> info,
// everything else -> debug.
type Logger struct {
	logger *zap.Logger
}

var _ prefs.ResolutionLogger = (*Logger)(nil)

// NewResolutionLogger wraps logger. A nil logger discards events.
func NewResolutionLogger(logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logger{logger: logger.Named("prefs")}
}

func (l *Logger) LogResolution(event prefs.ResolutionEvent) {
	ce := l.logger.Check(level(event.Outcome), "preference "+event.Op)
	if ce == nil {
		return
	}
	fields := make([]zap.Field, 0, 9)
	fields = append(fields,
		zap.String("category", string(event.Category)),
		zap.String("outcome", string(event.Outcome)),
		zap.Duration("duration", event.Duration),
	)
	if event.Name != "" {
		fields = append(fields, zap.String("name", event.Name))
	}
	if event.ElementID != "" {
		fields = append(fields, zap.String("element_id", event.ElementID))
	}
	if event.StylesheetID != 0 {
		fields = append(fields, zap.Int64("stylesheet_id", event.StylesheetID))
	}
	if event.Scope != prefs.ScopeUnknown {
		fields = append(fields, zap.Stringer("scope", event.Scope))
	}
	if event.Err != nil {
		fields = append(fields, zap.Error(event.Err))
	}
	ce.Write(fields...)
}

func level(outcome prefs.Outcome) zapcore.Level {
	switch outcome {
	case prefs.OutcomeFailed:
		return zapcore.ErrorLevel
	case prefs.OutcomeRejected:
		return zapcore.WarnLevel
	case prefs.OutcomeWritten, prefs.OutcomeRemoved:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}
