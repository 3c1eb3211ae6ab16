package prefs

import "time"

// Outcome classifies how a resolver operation ended.
type Outcome string

const (
	OutcomeHit         Outcome = "hit"
	OutcomeMiss        Outcome = "miss"
	OutcomeWritten     Outcome = "written"
	OutcomeRemoved     Outcome = "removed"
	OutcomeUnsupported Outcome = "unsupported"
	OutcomeDisallowed  Outcome = "disallowed"
	OutcomeRejected    Outcome = "rejected"
	OutcomeFailed      Outcome = "failed"
)

// Resolver operation names reported in ResolutionEvent.Op.
const (
	OpGet      = "get"
	OpSet      = "set"
	OpRemove   = "remove"
	OpPopulate = "populate"
	OpNotify   = "notify"
)

// ResolutionEvent describes one resolver operation for logging and metrics.
type ResolutionEvent struct {
	Op           string
	Category     Category
	Name         string
	ElementID    string
	StylesheetID int64
	Scope        Scope
	Outcome      Outcome
	Duration     time.Duration
	Err          error
}

// ResolutionLogger records resolver events. Implementations must be safe for
// concurrent use.
type ResolutionLogger interface {
	LogResolution(ResolutionEvent)
}

// ResolutionLoggerFunc adapts a function to ResolutionLogger.
type ResolutionLoggerFunc func(ResolutionEvent)

// LogResolution implements ResolutionLogger.
func (f ResolutionLoggerFunc) LogResolution(event ResolutionEvent) {
	if f != nil {
		f(event)
	}
}

type noopResolutionLogger struct{}

func (noopResolutionLogger) LogResolution(ResolutionEvent) {}

type multiResolutionLogger []ResolutionLogger

func (m multiResolutionLogger) LogResolution(event ResolutionEvent) {
	for _, logger := range m {
		logger.LogResolution(event)
	}
}

// ResolutionLoggers fans events out to every non-nil logger.
func ResolutionLoggers(loggers ...ResolutionLogger) ResolutionLogger {
	out := make(multiResolutionLogger, 0, len(loggers))
	for _, logger := range loggers {
		if logger != nil {
			out = append(out, logger)
		}
	}
	switch len(out) {
	case 0:
		return noopResolutionLogger{}
	case 1:
		return out[0]
	default:
		return out
	}
}
