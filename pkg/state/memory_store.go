package state

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	prefs "github.com/goliatone/go-prefs"
)

// ErrNilPreferences is returned by Save when no preference set is given.
var ErrNilPreferences = errors.New("state: preferences are required")

var (
	_ prefs.PreferencesStore = (*MemoryStore)(nil)
	_ prefs.PreferencesStore = (*SQLStore)(nil)
)

// MemoryStore is an in-memory PreferencesStore. It uses
// PreferencesKey.Identifier() as its deterministic key.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*prefs.PersistentPreferences
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]*prefs.PersistentPreferences{}}
}

func (s *MemoryStore) Get(_ context.Context, key prefs.PreferencesKey) (*prefs.PersistentPreferences, bool, error) {
	s.mu.RLock()
	record, ok := s.records[key.Identifier()]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	return record.Clone(), true, nil
}

// Create stores an empty preference set for key, or returns the existing
// one.
func (s *MemoryStore) Create(_ context.Context, key prefs.PreferencesKey) (*prefs.PersistentPreferences, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	id := key.Identifier()

	s.mu.Lock()
	defer s.mu.Unlock()
	if record, ok := s.records[id]; ok {
		return record.Clone(), nil
	}
	record := prefs.NewPersistentPreferences(key)
	s.records[id] = record
	return record.Clone(), nil
}

// Save replaces the stored set and advances p.Version to the stored version.
func (s *MemoryStore) Save(_ context.Context, p *prefs.PersistentPreferences) error {
	if p == nil {
		return ErrNilPreferences
	}
	if err := p.Key.Validate(); err != nil {
		return err
	}
	id := p.Key.Identifier()

	s.mu.Lock()
	defer s.mu.Unlock()
	version := p.Version
	if existing, ok := s.records[id]; ok {
		version = existing.Version
		p.ID = existing.ID
	} else if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.Version = version + 1
	s.records[id] = p.Clone()
	return nil
}

// Len reports the number of stored preference sets.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Delete drops the set of key. It reports whether one existed.
func (s *MemoryStore) Delete(_ context.Context, key prefs.PreferencesKey) (bool, error) {
	id := key.Identifier()
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[id]
	delete(s.records, id)
	return ok, nil
}
