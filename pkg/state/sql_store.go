package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver

	prefs "github.com/goliatone/go-prefs"
)

// Dialect selects the SQL flavour of an SQLStore.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

func (d Dialect) String() string {
	switch d {
	case DialectSQLite:
		return "sqlite"
	case DialectPostgres:
		return "postgres"
	default:
		return "unknown"
	}
}

// ParseDialect accepts "sqlite" or "postgres" (also "postgresql", "pgx").
func ParseDialect(value string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pgx":
		return DialectPostgres, nil
	default:
		return 0, fmt.Errorf("state: unsupported dialect %q", value)
	}
}

// TableName is the table holding persistent preferences.
const TableName = "stylesheet_user_preferences"

const (
	defaultSQLitePath = "prefs.db"
	sqliteDriver      = "sqlite"
	postgresDriver    = "pgx"
)

// SQLStore persists preference sets as rows of TableName. The three
// catalogs are stored together as a JSON payload.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// OpenSQLite opens (creating if needed) a SQLite database at path and
// ensures the preferences table exists.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	if path == "" {
		path = defaultSQLitePath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("state: create dirs: %w", err)
	}
	db, err := sql.Open(sqliteDriver, path)
	if err != nil {
		return nil, fmt.Errorf("state: open sqlite: %w", err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY on
	// concurrent Create calls.
	db.SetMaxOpenConns(1)
	store, err := NewSQLStore(ctx, db, DialectSQLite)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// OpenPostgres connects through pgx and ensures the preferences table
// exists.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("state: postgres dsn is required")
	}
	db, err := sql.Open(postgresDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("state: open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("state: ping postgres: %w", err)
	}
	store, err := NewSQLStore(ctx, db, DialectPostgres)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLStore wraps an open database and applies the schema.
func NewSQLStore(ctx context.Context, db *sql.DB, dialect Dialect) (*SQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("state: db is required")
	}
	if dialect != DialectSQLite && dialect != DialectPostgres {
		return nil, fmt.Errorf("state: unsupported dialect %s", dialect)
	}
	s := &SQLStore{db: db, dialect: dialect}
	if err := s.ensureTable(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *SQLStore) DB() *sql.DB { return s.db }

func (s *SQLStore) Dialect() Dialect { return s.dialect }

func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) ensureTable(ctx context.Context) error {
	payloadType := "TEXT"
	if s.dialect == DialectPostgres {
		payloadType = "JSONB"
	}
	ddl := `CREATE TABLE IF NOT EXISTS ` + TableName + ` (
		id TEXT PRIMARY KEY,
		stylesheet_id BIGINT NOT NULL,
		person_id BIGINT NOT NULL,
		profile_id BIGINT NOT NULL,
		payload ` + payloadType + ` NOT NULL,
		version BIGINT NOT NULL DEFAULT 0,
		updated_at BIGINT NOT NULL DEFAULT 0,
		UNIQUE (stylesheet_id, person_id, profile_id)
	)`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("state: ensure %s table: %w", TableName, err)
	}
	return nil
}

// payload is the JSON document stored per row.
type payload struct {
	LayoutAttributes     map[string]map[string]string `json:"layout_attributes,omitempty"`
	OutputProperties     map[string]string            `json:"output_properties,omitempty"`
	StylesheetParameters map[string]string            `json:"stylesheet_parameters,omitempty"`
}

func (s *SQLStore) Get(ctx context.Context, key prefs.PreferencesKey) (*prefs.PersistentPreferences, bool, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT id, payload, version, updated_at FROM `+TableName+
		` WHERE stylesheet_id = ? AND person_id = ? AND profile_id = ?`),
		key.StylesheetID, key.PersonID, key.ProfileID)
	p, err := scanPreferences(row, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("state: select %s: %w", key.Identifier(), err)
	}
	return p, true, nil
}

// Create inserts an empty row for key unless one exists, then returns the
// stored row.
func (s *SQLStore) Create(ctx context.Context, key prefs.PreferencesKey) (*prefs.PersistentPreferences, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	fresh := prefs.NewPersistentPreferences(key)
	data, err := encodePayload(fresh)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO `+TableName+
		` (id, stylesheet_id, person_id, profile_id, payload, version, updated_at) VALUES (?, ?, ?, ?, ?, 0, 0)`+
		` ON CONFLICT (stylesheet_id, person_id, profile_id) DO NOTHING`),
		fresh.ID.String(), key.StylesheetID, key.PersonID, key.ProfileID, data); err != nil {
		return nil, fmt.Errorf("state: insert %s: %w", key.Identifier(), err)
	}
	p, ok, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("state: %s missing after insert", key.Identifier())
	}
	return p, nil
}

// Save upserts p and advances p.Version to the stored version.
func (s *SQLStore) Save(ctx context.Context, p *prefs.PersistentPreferences) error {
	if p == nil {
		return ErrNilPreferences
	}
	if err := p.Key.Validate(); err != nil {
		return err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	data, err := encodePayload(p)
	if err != nil {
		return err
	}
	row := s.db.QueryRowContext(ctx, s.rebind(`INSERT INTO `+TableName+
		` (id, stylesheet_id, person_id, profile_id, payload, version, updated_at) VALUES (?, ?, ?, ?, ?, 1, ?)`+
		` ON CONFLICT (stylesheet_id, person_id, profile_id) DO UPDATE SET`+
		` payload = excluded.payload, updated_at = excluded.updated_at, version = `+TableName+`.version + 1`+
		` RETURNING id, version`),
		p.ID.String(), p.Key.StylesheetID, p.Key.PersonID, p.Key.ProfileID, data, unixNano(p.UpdatedAt))
	var (
		id      string
		version int64
	)
	if err := row.Scan(&id, &version); err != nil {
		return fmt.Errorf("state: upsert %s: %w", p.Key.Identifier(), err)
	}
	storedID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("state: upsert %s: parse id: %w", p.Key.Identifier(), err)
	}
	p.ID = storedID
	p.Version = version
	return nil
}

// Delete removes the row of key. It reports whether a row existed.
func (s *SQLStore) Delete(ctx context.Context, key prefs.PreferencesKey) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM `+TableName+
		` WHERE stylesheet_id = ? AND person_id = ? AND profile_id = ?`),
		key.StylesheetID, key.PersonID, key.ProfileID)
	if err != nil {
		return false, fmt.Errorf("state: delete %s: %w", key.Identifier(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("state: delete %s: %w", key.Identifier(), err)
	}
	return n > 0, nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func scanPreferences(row *sql.Row, key prefs.PreferencesKey) (*prefs.PersistentPreferences, error) {
	var (
		id        string
		raw       []byte
		version   int64
		updatedAt int64
	)
	if err := row.Scan(&id, &raw, &version, &updatedAt); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse id: %w", err)
	}
	var doc payload
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
	}
	p := &prefs.PersistentPreferences{
		ID:                   parsed,
		Key:                  key,
		LayoutAttributes:     doc.LayoutAttributes,
		OutputProperties:     doc.OutputProperties,
		StylesheetParameters: doc.StylesheetParameters,
		Version:              version,
	}
	if updatedAt != 0 {
		p.UpdatedAt = time.Unix(0, updatedAt).UTC()
	}
	return p, nil
}

func encodePayload(p *prefs.PersistentPreferences) (string, error) {
	data, err := json.Marshal(payload{
		LayoutAttributes:     p.LayoutAttributes,
		OutputProperties:     p.OutputProperties,
		StylesheetParameters: p.StylesheetParameters,
	})
	if err != nil {
		return "", fmt.Errorf("state: encode payload: %w", err)
	}
	return string(data), nil
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}
