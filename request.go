package prefs

import (
	"strconv"
	"strings"
	"sync"
)

// AttributeBag is transient key/value storage owned by the hosting request or
// session infrastructure.
type AttributeBag interface {
	Attribute(key string) (string, bool)
	SetAttribute(key, value string)
	RemoveAttribute(key string)
}

// MemoryBag is a mutex guarded AttributeBag. A single MemoryBag may back a
// session shared by concurrent requests.
type MemoryBag struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryBag() *MemoryBag {
	return &MemoryBag{values: map[string]string{}}
}

func (b *MemoryBag) Attribute(key string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	value, ok := b.values[key]
	return value, ok
}

func (b *MemoryBag) SetAttribute(key, value string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.values == nil {
		b.values = map[string]string{}
	}
	b.values[key] = value
}

func (b *MemoryBag) RemoveAttribute(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.values, key)
}

// Len returns the number of stored attributes.
func (b *MemoryBag) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.values)
}

// Request carries the transient storage of one request. Attributes backs
// request scope and Session backs session scope; either may be nil when the
// host does not provide it.
type Request struct {
	Attributes AttributeBag
	Session    AttributeBag
}

// NewRequest starts a request with a fresh request bag bound to session.
func NewRequest(session AttributeBag) *Request {
	return &Request{
		Attributes: NewMemoryBag(),
		Session:    session,
	}
}

func (r *Request) bag(scope Scope) (AttributeBag, error) {
	if r == nil {
		return nil, ErrRequestRequired
	}
	var bag AttributeBag
	switch scope {
	case ScopeRequest:
		bag = r.Attributes
	case ScopeSession:
		bag = r.Session
	}
	if bag == nil {
		return nil, ErrAttributeBagRequired
	}
	return bag, nil
}

const transientKeyPrefix = "prefs"

// TransientKey builds the attribute bag key of one preference. Category and
// stylesheet keep equally named preferences apart; element id and name are
// quoted so no separator inside them can collide with another key.
func TransientKey(category Category, stylesheetID int64, elementID, name string) string {
	var b strings.Builder
	b.WriteString(transientKeyPrefix)
	b.WriteByte(':')
	b.WriteString(string(category))
	b.WriteByte(':')
	b.WriteString(strconv.FormatInt(stylesheetID, 10))
	b.WriteByte(':')
	b.WriteString(strconv.Quote(elementID))
	b.WriteByte(':')
	b.WriteString(strconv.Quote(name))
	return b.String()
}
