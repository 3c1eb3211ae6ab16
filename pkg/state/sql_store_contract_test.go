package state_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-prefs/pkg/state"
)

func TestSQLiteStoreContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) contractStore {
		store, err := state.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "prefs.db"))
		if err != nil {
			t.Skipf("sqlite unavailable: %v", err)
		}
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}
