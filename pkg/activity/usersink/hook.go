package usersink

import (
	"context"
	"strconv"
	"strings"

	"github.com/goliatone/go-prefs/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook forwards preference activity to a go-users ActivitySink.
type Hook struct {
	Sink usertypes.ActivitySink
	// PersonIDs maps numeric portal person ids to go-users ids. When nil,
	// ids that already parse as UUIDs are used and others become uuid.Nil.
	PersonIDs func(personID int64) uuid.UUID
}

// Notify maps the event into an ActivityRecord and forwards it to the sink.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	normalized := activity.NormalizeEvent(event)
	if normalized.Verb == "" || normalized.ObjectType == "" || normalized.ObjectID == "" {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	record := usertypes.ActivityRecord{
		ActorID:    h.resolveID(normalized.ActorID),
		UserID:     h.resolveID(normalized.UserID),
		Verb:       normalized.Verb,
		ObjectType: normalized.ObjectType,
		ObjectID:   normalized.ObjectID,
		Channel:    normalized.Channel,
		Data:       cloneMap(normalized.Metadata),
		OccurredAt: normalized.OccurredAt,
	}
	return h.Sink.Log(ctx, record)
}

func (h Hook) resolveID(input string) uuid.UUID {
	value := strings.TrimSpace(input)
	if value == "" {
		return uuid.Nil
	}
	if id, err := uuid.Parse(value); err == nil {
		return id
	}
	if h.PersonIDs != nil {
		if personID, err := strconv.ParseInt(value, 10, 64); err == nil {
			return h.PersonIDs(personID)
		}
	}
	return uuid.Nil
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
