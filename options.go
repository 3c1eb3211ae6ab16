package prefs

import (
	"time"

	"github.com/goliatone/go-prefs/pkg/activity"
)

// Option configures a Resolver.
type Option func(*resolverConfig)

type resolverConfig struct {
	logger       ResolutionLogger
	evaluator    Evaluator
	createOnRead bool
	now          func() time.Time
	hooks        activity.Hooks
	activity     activity.Config
}

func defaultConfig() resolverConfig {
	return resolverConfig{
		logger:       noopResolutionLogger{},
		evaluator:    NewExprEvaluator(ExprWithProgramCache(NewMemoryProgramCache())),
		createOnRead: true,
		now:          time.Now,
		activity:     activity.Config{Enabled: true},
	}
}

func applyOptions(opts []Option) resolverConfig {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithLogger attaches a resolution logger. Passing nil restores the noop
// logger.
func WithLogger(logger ResolutionLogger) Option {
	return func(cfg *resolverConfig) {
		if logger == nil {
			cfg.logger = noopResolutionLogger{}
			return
		}
		cfg.logger = logger
	}
}

// WithEvaluator replaces the constraint evaluator. Passing nil disables
// constraint checks.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *resolverConfig) {
		cfg.evaluator = e
	}
}

// WithCreateOnRead controls whether a persistent read creates the missing
// preference set (the default) or simply reports no value.
func WithCreateOnRead(enabled bool) Option {
	return func(cfg *resolverConfig) {
		cfg.createOnRead = enabled
	}
}

// WithClock overrides the time source used for activity events and
// constraint contexts.
func WithClock(now func() time.Time) Option {
	return func(cfg *resolverConfig) {
		if now != nil {
			cfg.now = now
		}
	}
}
