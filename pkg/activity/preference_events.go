package activity

import (
	"strconv"
	"strings"
	"time"
)

const (
	VerbPreferenceUpdated = "preferences.updated"
	VerbPreferenceRemoved = "preferences.removed"

	// ObjectTypePersistent marks changes to stored preference sets.
	ObjectTypePersistent = "stylesheet_user_preferences"
	// ObjectTypeTransient marks changes to request or session values.
	ObjectTypeTransient = "stylesheet_user_preference"
)

// PreferenceEventInput describes one preference mutation.
type PreferenceEventInput struct {
	ActorID string
	UserID  string
	// ObjectID identifies the stored preference set (persistent) or the
	// attribute bag key (transient).
	ObjectID     string
	Persistent   bool
	Category     string
	Name         string
	ElementID    string
	Scope        string
	StylesheetID int64
	OldValue     *string
	NewValue     *string
	Channel      string
	Metadata     map[string]any
	OccurredAt   time.Time
}

func BuildPreferenceUpdatedEvent(input PreferenceEventInput) Event {
	return buildPreferenceEvent(VerbPreferenceUpdated, input)
}

func BuildPreferenceRemovedEvent(input PreferenceEventInput) Event {
	return buildPreferenceEvent(VerbPreferenceRemoved, input)
}

func buildPreferenceEvent(verb string, input PreferenceEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["category"] = input.Category
	metadata["name"] = input.Name
	if input.ElementID != "" {
		metadata["element_id"] = input.ElementID
	}
	if input.Scope != "" {
		metadata["scope"] = input.Scope
	}
	if input.StylesheetID != 0 {
		metadata["stylesheet_id"] = input.StylesheetID
	}
	if input.OldValue != nil {
		metadata["old_value"] = *input.OldValue
	}
	if input.NewValue != nil {
		metadata["new_value"] = *input.NewValue
	}

	objectType := ObjectTypeTransient
	if input.Persistent {
		objectType = ObjectTypePersistent
	}
	objectID := strings.TrimSpace(input.ObjectID)
	if objectID == "" {
		objectID = strconv.FormatInt(input.StylesheetID, 10) + "/" + input.Category + "/" + input.Name
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
