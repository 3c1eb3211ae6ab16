package prefs

import (
	"fmt"
	"strings"
)

// Scope declares the storage tier of a preference. It decides where reads
// are served from and where writes land.
type Scope int

const (
	// ScopeUnknown guards against misconfigured descriptors.
	ScopeUnknown Scope = iota
	// ScopeRequest values live in the request attribute bag only.
	ScopeRequest
	// ScopeSession values live in the session attribute bag and are shared by
	// every request of that session.
	ScopeSession
	// ScopePersistent values are stored in the PreferencesStore keyed by
	// stylesheet, person and profile.
	ScopePersistent
)

func (s Scope) String() string {
	switch s {
	case ScopeRequest:
		return "request"
	case ScopeSession:
		return "session"
	case ScopePersistent:
		return "persistent"
	default:
		return "unknown"
	}
}

// Transient reports whether values of this scope live in an attribute bag.
func (s Scope) Transient() bool {
	return s == ScopeRequest || s == ScopeSession
}

// ParseScope converts a textual scope into a Scope. Matching is case
// insensitive; unrecognised values return ScopeUnknown.
func ParseScope(value string) Scope {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "request":
		return ScopeRequest
	case "session":
		return ScopeSession
	case "persistent":
		return ScopePersistent
	default:
		return ScopeUnknown
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Scope) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler and rejects unknown
// scope names.
func (s *Scope) UnmarshalText(text []byte) error {
	parsed := ParseScope(string(text))
	if parsed == ScopeUnknown {
		return fmt.Errorf("%w: %q", ErrUnknownScope, string(text))
	}
	*s = parsed
	return nil
}

// PreferencesScope selects which of the profile's stylesheets a lookup
// targets.
type PreferencesScope int

const (
	PreferencesScopeUnknown PreferencesScope = iota
	// PreferencesScopeStructure targets the structure transformation.
	PreferencesScopeStructure
	// PreferencesScopeTheme targets the theme transformation.
	PreferencesScopeTheme
)

func (p PreferencesScope) String() string {
	switch p {
	case PreferencesScopeStructure:
		return "structure"
	case PreferencesScopeTheme:
		return "theme"
	default:
		return "unknown"
	}
}

// ParsePreferencesScope converts "structure" or "theme" (any case).
func ParsePreferencesScope(value string) PreferencesScope {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "structure":
		return PreferencesScopeStructure
	case "theme":
		return PreferencesScopeTheme
	default:
		return PreferencesScopeUnknown
	}
}

// Category identifies one of the three preference catalogs of a stylesheet.
type Category string

const (
	CategoryLayoutAttribute     Category = "layout-attribute"
	CategoryOutputProperty      Category = "output-property"
	CategoryStylesheetParameter Category = "stylesheet-parameter"
)

// Categories lists every known category in a stable order.
func Categories() []Category {
	return []Category{CategoryLayoutAttribute, CategoryOutputProperty, CategoryStylesheetParameter}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryLayoutAttribute, CategoryOutputProperty, CategoryStylesheetParameter:
		return true
	default:
		return false
	}
}

// ParseCategory accepts the canonical names plus the short forms used by
// the CLI ("attribute", "property", "parameter").
func ParseCategory(value string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(CategoryLayoutAttribute), "attribute", "layout":
		return CategoryLayoutAttribute, nil
	case string(CategoryOutputProperty), "property", "output":
		return CategoryOutputProperty, nil
	case string(CategoryStylesheetParameter), "parameter", "param":
		return CategoryStylesheetParameter, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, value)
	}
}
