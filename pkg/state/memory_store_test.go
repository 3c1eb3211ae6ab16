package state_test

import (
	"context"
	"errors"
	"testing"

	prefs "github.com/goliatone/go-prefs"
	"github.com/goliatone/go-prefs/pkg/state"
)

func TestMemoryStoreContract(t *testing.T) {
	runStoreContract(t, func(*testing.T) contractStore {
		return state.NewMemoryStore()
	})
}

func TestMemoryStoreSaveWithoutCreate(t *testing.T) {
	store := state.NewMemoryStore()
	key := prefs.PreferencesKey{StylesheetID: 1, PersonID: 2, ProfileID: 3}
	p := &prefs.PersistentPreferences{Key: key}
	p.SetOutputProperty("indent", "yes")

	if err := store.Save(context.Background(), p); err != nil {
		t.Fatalf("save: %v", err)
	}
	if store.Len() != 1 || p.Version != 1 {
		t.Fatalf("expected one stored set at version 1, got len=%d version=%d", store.Len(), p.Version)
	}
	if err := store.Save(context.Background(), nil); !errors.Is(err, state.ErrNilPreferences) {
		t.Fatalf("expected ErrNilPreferences, got %v", err)
	}
}

func TestMemoryStoreBacksResolver(t *testing.T) {
	sd, err := prefs.NewStylesheetDescriptor(1, "Universality",
		prefs.StylesheetParameter("skin", prefs.ScopePersistent),
	)
	if err != nil {
		t.Fatalf("stylesheet: %v", err)
	}
	registry, err := prefs.NewDescriptorRegistry(sd)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	store := state.NewMemoryStore()
	resolver, err := prefs.NewResolver(prefs.Dependencies{
		Identity:    prefs.StaticIdentity(prefs.Identity{PersonID: 7, ProfileID: 1, ThemeStylesheetID: 1}),
		Descriptors: registry,
		Store:       store,
	})
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}

	ctx := context.Background()
	if _, _, err := resolver.SetStylesheetParameter(ctx, prefs.NewRequest(nil), prefs.PreferencesScopeTheme, "skin", "red"); err != nil {
		t.Fatalf("set: %v", err)
	}
	stored, ok, err := store.Get(ctx, prefs.PreferencesKey{StylesheetID: 1, PersonID: 7, ProfileID: 1})
	if err != nil || !ok {
		t.Fatalf("expected stored preferences, ok=%v err=%v", ok, err)
	}
	if value, _ := stored.StylesheetParameter("skin"); value != "red" || stored.Version != 1 {
		t.Fatalf("unexpected stored preferences %+v", stored)
	}
}
