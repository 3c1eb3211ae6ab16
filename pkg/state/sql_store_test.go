package state

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	prefs "github.com/goliatone/go-prefs"
)

func openTestSQLite(t *testing.T) *SQLStore {
	t.Helper()
	store, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "prefs.db"))
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRebind(t *testing.T) {
	query := `SELECT id FROM t WHERE a = ? AND b = ?`
	sqlite := &SQLStore{dialect: DialectSQLite}
	require.Equal(t, query, sqlite.rebind(query))

	postgres := &SQLStore{dialect: DialectPostgres}
	require.Equal(t, `SELECT id FROM t WHERE a = $1 AND b = $2`, postgres.rebind(query))
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("PostgreSQL")
	require.NoError(t, err)
	require.Equal(t, DialectPostgres, d)

	d, err = ParseDialect("sqlite")
	require.NoError(t, err)
	require.Equal(t, "sqlite", d.String())

	_, err = ParseDialect("mysql")
	require.Error(t, err)
}

func TestSQLiteStoreCreatesTable(t *testing.T) {
	store := openTestSQLite(t)
	var name string
	err := store.DB().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", TableName).Scan(&name)
	require.NoError(t, err)
	require.Equal(t, TableName, name)

	// Opening an existing database is a no-op migration.
	_, err = NewSQLStore(context.Background(), store.DB(), DialectSQLite)
	require.NoError(t, err)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")
	ctx := context.Background()
	key := prefs.PreferencesKey{StylesheetID: 2, PersonID: 42, ProfileID: 1}

	store, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	p, err := store.Create(ctx, key)
	require.NoError(t, err)
	p.SetStylesheetParameter("skin", "red")
	require.NoError(t, store.Save(ctx, p))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	loaded, ok, err := reopened.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, p.ID, loaded.ID)
	value, _ := loaded.StylesheetParameter("skin")
	require.Equal(t, "red", value)
}

func TestSQLStoreRequiresDB(t *testing.T) {
	_, err := NewSQLStore(context.Background(), nil, DialectSQLite)
	require.Error(t, err)

	_, err = OpenPostgres(context.Background(), " ")
	require.Error(t, err)
}
