package prefs

import (
	"context"
	"strconv"
	"time"

	"github.com/goliatone/go-prefs/pkg/activity"
)

// WithActivityHooks attaches hooks notified after every successful write or
// removal. Nil entries are dropped.
func WithActivityHooks(hooks ...activity.ActivityHook) Option {
	normalized := make(activity.Hooks, 0, len(hooks))
	for _, hook := range hooks {
		if hook != nil {
			normalized = append(normalized, hook)
		}
	}
	return func(cfg *resolverConfig) {
		cfg.hooks = append(cfg.hooks, normalized...)
	}
}

// WithActivityConfig overrides the activity emitter configuration. Emission
// is enabled by default once hooks are attached.
func WithActivityConfig(config activity.Config) Option {
	return func(cfg *resolverConfig) {
		cfg.activity = config
	}
}

func (r *Resolver) notify(ctx context.Context, b *binding, verb string, prev *string, next *string) {
	if !r.emitter.Enabled() {
		return
	}
	input := activity.PreferenceEventInput{
		Category:     string(b.descriptor.Category),
		Name:         b.descriptor.Name,
		ElementID:    b.elementID,
		Scope:        b.descriptor.Scope.String(),
		StylesheetID: b.stylesheet.ID,
		OldValue:     prev,
		NewValue:     next,
		OccurredAt:   r.cfg.now(),
	}
	if b.identity.PersonID != 0 {
		person := strconv.FormatInt(b.identity.PersonID, 10)
		input.ActorID = person
		input.UserID = person
	}
	if b.descriptor.Scope == ScopePersistent {
		input.Persistent = true
		input.ObjectID = b.key().Identifier()
	} else {
		input.ObjectID = b.transientKey()
	}

	var event activity.Event
	if verb == activity.VerbPreferenceRemoved {
		event = activity.BuildPreferenceRemovedEvent(input)
	} else {
		event = activity.BuildPreferenceUpdatedEvent(input)
	}

	start := time.Now()
	if err := r.emitter.Emit(ctx, event); err != nil {
		r.cfg.logger.LogResolution(ResolutionEvent{
			Op:           OpNotify,
			Category:     b.descriptor.Category,
			Name:         b.descriptor.Name,
			ElementID:    b.elementID,
			StylesheetID: b.stylesheet.ID,
			Scope:        b.descriptor.Scope,
			Outcome:      OutcomeFailed,
			Duration:     time.Since(start),
			Err:          err,
		})
	}
}
