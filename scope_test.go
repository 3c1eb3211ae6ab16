package prefs

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseScope(t *testing.T) {
	cases := map[string]Scope{
		"request":     ScopeRequest,
		" Session ":   ScopeSession,
		"PERSISTENT":  ScopePersistent,
		"application": ScopeUnknown,
		"":            ScopeUnknown,
	}
	for input, want := range cases {
		if got := ParseScope(input); got != want {
			t.Fatalf("ParseScope(%q) = %s, want %s", input, got, want)
		}
	}
	if !ScopeRequest.Transient() || !ScopeSession.Transient() || ScopePersistent.Transient() {
		t.Fatalf("unexpected transient classification")
	}
}

func TestScopeTextRoundTrip(t *testing.T) {
	payload, err := json.Marshal(map[string]Scope{"scope": ScopeSession})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(payload) != `{"scope":"session"}` {
		t.Fatalf("unexpected payload %s", payload)
	}

	var decoded map[string]Scope
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["scope"] != ScopeSession {
		t.Fatalf("expected session, got %s", decoded["scope"])
	}

	var scope Scope
	if err := scope.UnmarshalText([]byte("global")); !errors.Is(err, ErrUnknownScope) {
		t.Fatalf("expected ErrUnknownScope, got %v", err)
	}
}

func TestParsePreferencesScope(t *testing.T) {
	if ParsePreferencesScope("Theme") != PreferencesScopeTheme {
		t.Fatalf("expected theme")
	}
	if ParsePreferencesScope("structure") != PreferencesScopeStructure {
		t.Fatalf("expected structure")
	}
	if got := ParsePreferencesScope("layout"); got != PreferencesScopeUnknown || got.String() != "unknown" {
		t.Fatalf("expected unknown, got %s", got)
	}
}

func TestParseCategory(t *testing.T) {
	cases := map[string]Category{
		"layout-attribute":     CategoryLayoutAttribute,
		"attribute":            CategoryLayoutAttribute,
		"Output":               CategoryOutputProperty,
		"property":             CategoryOutputProperty,
		"stylesheet-parameter": CategoryStylesheetParameter,
		"param":                CategoryStylesheetParameter,
	}
	for input, want := range cases {
		got, err := ParseCategory(input)
		if err != nil || got != want {
			t.Fatalf("ParseCategory(%q) = %s, %v", input, got, err)
		}
	}
	if _, err := ParseCategory("channel"); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	for _, category := range Categories() {
		if !category.Valid() {
			t.Fatalf("category %s should be valid", category)
		}
	}
}
