package prefs

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PreferencesKey identifies the persistent preferences of one person and
// profile for one stylesheet.
type PreferencesKey struct {
	StylesheetID int64 `json:"stylesheet_id"`
	PersonID     int64 `json:"person_id"`
	ProfileID    int64 `json:"profile_id"`
}

// Identifier returns a canonical storage key, e.g.
// "stylesheet/3/person/42/profile/1".
func (k PreferencesKey) Identifier() string {
	return fmt.Sprintf("stylesheet/%d/person/%d/profile/%d", k.StylesheetID, k.PersonID, k.ProfileID)
}

// Validate reports missing components of the key.
func (k PreferencesKey) Validate() error {
	if k.StylesheetID == 0 {
		return fmt.Errorf("prefs: preferences key requires a stylesheet id")
	}
	if k.PersonID == 0 || k.ProfileID == 0 {
		return ErrIdentityRequired
	}
	return nil
}

// PersistentPreferences is the durable preference set of one
// (stylesheet, person, profile) triple. Instances are owned by the store;
// callers receive copies and hand them back through Save.
type PersistentPreferences struct {
	ID  uuid.UUID      `json:"id"`
	Key PreferencesKey `json:"key"`

	// LayoutAttributes maps element id -> attribute name -> value.
	LayoutAttributes     map[string]map[string]string `json:"layout_attributes,omitempty"`
	OutputProperties     map[string]string            `json:"output_properties,omitempty"`
	StylesheetParameters map[string]string            `json:"stylesheet_parameters,omitempty"`

	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewPersistentPreferences returns an empty preference set with a fresh id.
// Stores call it from Create.
func NewPersistentPreferences(key PreferencesKey) *PersistentPreferences {
	return &PersistentPreferences{
		ID:  uuid.New(),
		Key: key,
	}
}

func (p *PersistentPreferences) LayoutAttribute(elementID, name string) (string, bool) {
	if p == nil {
		return "", false
	}
	value, ok := p.LayoutAttributes[elementID][name]
	return value, ok
}

// SetLayoutAttribute stores value and returns the previous value.
func (p *PersistentPreferences) SetLayoutAttribute(elementID, name, value string) (string, bool) {
	if p.LayoutAttributes == nil {
		p.LayoutAttributes = map[string]map[string]string{}
	}
	attrs := p.LayoutAttributes[elementID]
	if attrs == nil {
		attrs = map[string]string{}
		p.LayoutAttributes[elementID] = attrs
	}
	prev, ok := attrs[name]
	attrs[name] = value
	return prev, ok
}

// RemoveLayoutAttribute deletes the value and drops the element entry once
// it is empty.
func (p *PersistentPreferences) RemoveLayoutAttribute(elementID, name string) (string, bool) {
	attrs := p.LayoutAttributes[elementID]
	prev, ok := attrs[name]
	if !ok {
		return "", false
	}
	delete(attrs, name)
	if len(attrs) == 0 {
		delete(p.LayoutAttributes, elementID)
	}
	return prev, true
}

func (p *PersistentPreferences) OutputProperty(name string) (string, bool) {
	if p == nil {
		return "", false
	}
	value, ok := p.OutputProperties[name]
	return value, ok
}

func (p *PersistentPreferences) SetOutputProperty(name, value string) (string, bool) {
	return setEntry(&p.OutputProperties, name, value)
}

func (p *PersistentPreferences) RemoveOutputProperty(name string) (string, bool) {
	return removeEntry(p.OutputProperties, name)
}

func (p *PersistentPreferences) StylesheetParameter(name string) (string, bool) {
	if p == nil {
		return "", false
	}
	value, ok := p.StylesheetParameters[name]
	return value, ok
}

func (p *PersistentPreferences) SetStylesheetParameter(name, value string) (string, bool) {
	return setEntry(&p.StylesheetParameters, name, value)
}

func (p *PersistentPreferences) RemoveStylesheetParameter(name string) (string, bool) {
	return removeEntry(p.StylesheetParameters, name)
}

// Clone returns a deep copy.
func (p *PersistentPreferences) Clone() *PersistentPreferences {
	if p == nil {
		return nil
	}
	out := *p
	if p.LayoutAttributes != nil {
		out.LayoutAttributes = make(map[string]map[string]string, len(p.LayoutAttributes))
		for elementID, attrs := range p.LayoutAttributes {
			out.LayoutAttributes[elementID] = copyStrings(attrs)
		}
	}
	out.OutputProperties = copyStrings(p.OutputProperties)
	out.StylesheetParameters = copyStrings(p.StylesheetParameters)
	return &out
}

func setEntry(target *map[string]string, name, value string) (string, bool) {
	if *target == nil {
		*target = map[string]string{}
	}
	prev, ok := (*target)[name]
	(*target)[name] = value
	return prev, ok
}

func removeEntry(values map[string]string, name string) (string, bool) {
	prev, ok := values[name]
	if ok {
		delete(values, name)
	}
	return prev, ok
}

func copyStrings(origin map[string]string) map[string]string {
	if origin == nil {
		return nil
	}
	out := make(map[string]string, len(origin))
	for key, value := range origin {
		out[key] = value
	}
	return out
}
