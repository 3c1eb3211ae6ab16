package prefs

import (
	"context"
	"fmt"
	"sync"
)

// Identity carries who is rendering and which stylesheets their profile
// selects. PersonID and ProfileID are only required for persistent scope.
type Identity struct {
	PersonID              int64
	ProfileID             int64
	ThemeStylesheetID     int64
	StructureStylesheetID int64
}

// StylesheetID returns the stylesheet selected for scope. Zero means the
// profile has no stylesheet of that kind.
func (i Identity) StylesheetID(scope PreferencesScope) (int64, error) {
	switch scope {
	case PreferencesScopeTheme:
		return i.ThemeStylesheetID, nil
	case PreferencesScopeStructure:
		return i.StructureStylesheetID, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnknownPreferencesScope, scope)
	}
}

// IdentityResolver resolves the caller identity of a request.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, req *Request) (Identity, error)
}

// IdentityResolverFunc adapts a function to IdentityResolver.
type IdentityResolverFunc func(ctx context.Context, req *Request) (Identity, error)

// ResolveIdentity implements IdentityResolver.
func (f IdentityResolverFunc) ResolveIdentity(ctx context.Context, req *Request) (Identity, error) {
	return f(ctx, req)
}

// StaticIdentity resolves every request to the same identity.
func StaticIdentity(identity Identity) IdentityResolver {
	return IdentityResolverFunc(func(context.Context, *Request) (Identity, error) {
		return identity, nil
	})
}

// DescriptorSource loads stylesheet descriptors. Implementations must wrap
// ErrStylesheetNotFound for unknown stylesheets.
type DescriptorSource interface {
	StylesheetDescriptor(ctx context.Context, id int64) (*StylesheetDescriptor, error)
	StylesheetDescriptorByName(ctx context.Context, name string) (*StylesheetDescriptor, error)
}

// LayoutTree resolves element identifiers of the user's layout to their
// element type (e.g. "folder", "channel").
type LayoutTree interface {
	ElementType(ctx context.Context, req *Request, elementID string) (elementType string, ok bool, err error)
}

// LayoutTreeFunc adapts a function to LayoutTree.
type LayoutTreeFunc func(ctx context.Context, req *Request, elementID string) (string, bool, error)

// ElementType implements LayoutTree.
func (f LayoutTreeFunc) ElementType(ctx context.Context, req *Request, elementID string) (string, bool, error) {
	return f(ctx, req, elementID)
}

// StaticLayout maps element ids to element types.
type StaticLayout map[string]string

// ElementType implements LayoutTree.
func (l StaticLayout) ElementType(_ context.Context, _ *Request, elementID string) (string, bool, error) {
	elementType, ok := l[elementID]
	return elementType, ok, nil
}

// PreferencesStore persists PersistentPreferences. Get reports ok=false when
// nothing is stored for key. Create must be safe under concurrent first
// access for the same key and return the stored instance when one already
// exists. Implementations return detached copies.
type PreferencesStore interface {
	Get(ctx context.Context, key PreferencesKey) (*PersistentPreferences, bool, error)
	Create(ctx context.Context, key PreferencesKey) (*PersistentPreferences, error)
	Save(ctx context.Context, prefs *PersistentPreferences) error
}

// DescriptorRegistry is an in-memory DescriptorSource.
type DescriptorRegistry struct {
	mu     sync.RWMutex
	byID   map[int64]*StylesheetDescriptor
	byName map[string]*StylesheetDescriptor
}

// NewDescriptorRegistry indexes the given stylesheets, rejecting duplicate
// ids or names.
func NewDescriptorRegistry(stylesheets ...*StylesheetDescriptor) (*DescriptorRegistry, error) {
	r := &DescriptorRegistry{
		byID:   map[int64]*StylesheetDescriptor{},
		byName: map[string]*StylesheetDescriptor{},
	}
	for _, sd := range stylesheets {
		if err := r.Register(sd); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds sd to the registry.
func (r *DescriptorRegistry) Register(sd *StylesheetDescriptor) error {
	if sd == nil {
		return fmt.Errorf("prefs: stylesheet descriptor is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[sd.ID]; exists {
		return fmt.Errorf("prefs: stylesheet id %d already registered", sd.ID)
	}
	if _, exists := r.byName[sd.Name]; exists {
		return fmt.Errorf("prefs: stylesheet %q already registered", sd.Name)
	}
	r.byID[sd.ID] = sd
	r.byName[sd.Name] = sd
	return nil
}

// StylesheetDescriptor implements DescriptorSource.
func (r *DescriptorRegistry) StylesheetDescriptor(_ context.Context, id int64) (*StylesheetDescriptor, error) {
	r.mu.RLock()
	sd, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrStylesheetNotFound, id)
	}
	return sd, nil
}

// StylesheetDescriptorByName implements DescriptorSource.
func (r *DescriptorRegistry) StylesheetDescriptorByName(_ context.Context, name string) (*StylesheetDescriptor, error) {
	r.mu.RLock()
	sd, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrStylesheetNotFound, name)
	}
	return sd, nil
}
