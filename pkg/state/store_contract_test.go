package state_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	prefs "github.com/goliatone/go-prefs"
)

type contractStore interface {
	prefs.PreferencesStore
	Delete(ctx context.Context, key prefs.PreferencesKey) (bool, error)
}

// runStoreContract exercises the behaviour every PreferencesStore must
// share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) contractStore) {
	t.Helper()
	key := prefs.PreferencesKey{StylesheetID: 3, PersonID: 42, ProfileID: 1}

	t.Run("get missing", func(t *testing.T) {
		store := newStore(t)
		p, ok, err := store.Get(context.Background(), key)
		if err != nil || ok || p != nil {
			t.Fatalf("expected no preferences, got %v ok=%v err=%v", p, ok, err)
		}
	})

	t.Run("create is idempotent", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		first, err := store.Create(ctx, key)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if first.ID == uuid.Nil || first.Key != key {
			t.Fatalf("unexpected created preferences %+v", first)
		}
		second, err := store.Create(ctx, key)
		if err != nil {
			t.Fatalf("second create: %v", err)
		}
		if second.ID != first.ID {
			t.Fatalf("expected existing row, got %s and %s", first.ID, second.ID)
		}
	})

	t.Run("create rejects incomplete keys", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Create(context.Background(), prefs.PreferencesKey{StylesheetID: 3})
		if !errors.Is(err, prefs.ErrIdentityRequired) {
			t.Fatalf("expected ErrIdentityRequired, got %v", err)
		}
	})

	t.Run("save round trip", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		p, err := store.Create(ctx, key)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		p.SetLayoutAttribute("f1", "width", "50%")
		p.SetOutputProperty("media", "print")
		p.SetStylesheetParameter("skin", "red")
		p.UpdatedAt = at
		if err := store.Save(ctx, p); err != nil {
			t.Fatalf("save: %v", err)
		}
		if p.Version != 1 {
			t.Fatalf("expected version 1 after first save, got %d", p.Version)
		}

		loaded, ok, err := store.Get(ctx, key)
		if err != nil || !ok {
			t.Fatalf("get: ok=%v err=%v", ok, err)
		}
		if loaded.ID != p.ID || loaded.Version != 1 || !loaded.UpdatedAt.Equal(at) {
			t.Fatalf("unexpected header %+v", loaded)
		}
		if value, _ := loaded.LayoutAttribute("f1", "width"); value != "50%" {
			t.Fatalf("unexpected width %q", value)
		}
		if value, _ := loaded.OutputProperty("media"); value != "print" {
			t.Fatalf("unexpected media %q", value)
		}
		if value, _ := loaded.StylesheetParameter("skin"); value != "red" {
			t.Fatalf("unexpected skin %q", value)
		}

		loaded.SetStylesheetParameter("skin", "blue")
		again, _, _ := store.Get(ctx, key)
		if value, _ := again.StylesheetParameter("skin"); value != "red" {
			t.Fatalf("store must return detached copies")
		}

		loaded.RemoveStylesheetParameter("skin")
		if err := store.Save(ctx, loaded); err != nil {
			t.Fatalf("second save: %v", err)
		}
		final, _, _ := store.Get(ctx, key)
		if _, ok := final.StylesheetParameter("skin"); ok {
			t.Fatalf("expected skin removed")
		}
		if final.Version != 2 {
			t.Fatalf("expected version 2, got %d", final.Version)
		}
	})

	t.Run("keys are isolated", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		other := key
		other.ProfileID = 2
		p, _ := store.Create(ctx, key)
		p.SetStylesheetParameter("skin", "red")
		if err := store.Save(ctx, p); err != nil {
			t.Fatalf("save: %v", err)
		}
		if _, ok, _ := store.Get(ctx, other); ok {
			t.Fatalf("profile 2 must not see profile 1 preferences")
		}
	})

	t.Run("concurrent create converges", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		ids := make([]uuid.UUID, 8)
		var wg sync.WaitGroup
		for i := range ids {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				p, err := store.Create(ctx, key)
				if err != nil {
					t.Errorf("create %d: %v", i, err)
					return
				}
				ids[i] = p.ID
			}(i)
		}
		wg.Wait()
		for _, id := range ids[1:] {
			if id != ids[0] {
				t.Fatalf("concurrent creates returned different rows: %v", ids)
			}
		}
	})

	t.Run("delete", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		if _, err := store.Create(ctx, key); err != nil {
			t.Fatalf("create: %v", err)
		}
		if ok, err := store.Delete(ctx, key); err != nil || !ok {
			t.Fatalf("expected delete, got ok=%v err=%v", ok, err)
		}
		if ok, _ := store.Delete(ctx, key); ok {
			t.Fatalf("second delete must report nothing")
		}
	})
}
