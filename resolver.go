// Package prefs resolves and mutates per-user stylesheet preferences.
//
// Every preference key (layout attribute, output property, stylesheet
// parameter) is declared by a PreferenceDescriptor on its stylesheet. The
// descriptor scope decides the storage tier:
//
//	request    -> Request.Attributes (one request)
//	session    -> Request.Session (shared by the session's requests)
//	persistent -> PreferencesStore keyed by (stylesheet, person, profile)
//
// Unknown keys, missing stylesheets and layout attributes addressed at an
// element type the descriptor does not target are not errors: reads report
// no value and writes are no-ops.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-prefs/pkg/activity"
)

// Dependencies are the collaborators a Resolver consumes. Identity and
// Descriptors are required; Store is needed for persistent preferences and
// Layout for layout attributes.
type Dependencies struct {
	Identity    IdentityResolver
	Descriptors DescriptorSource
	Store       PreferencesStore
	Layout      LayoutTree
}

// Resolver reads and writes preferences according to their declared scope.
// It holds no per-user state and is safe for concurrent use when its
// collaborators are.
type Resolver struct {
	identity    IdentityResolver
	descriptors DescriptorSource
	store       PreferencesStore
	layout      LayoutTree

	cfg     resolverConfig
	emitter *activity.Emitter
}

func NewResolver(deps Dependencies, opts ...Option) (*Resolver, error) {
	if deps.Identity == nil {
		return nil, fmt.Errorf("prefs: identity resolver is required")
	}
	if deps.Descriptors == nil {
		return nil, fmt.Errorf("prefs: descriptor source is required")
	}
	cfg := applyOptions(opts)
	return &Resolver{
		identity:    deps.Identity,
		descriptors: deps.Descriptors,
		store:       deps.Store,
		layout:      deps.Layout,
		cfg:         cfg,
		emitter:     activity.NewEmitter(cfg.hooks, cfg.activity),
	}, nil
}

// GetLayoutAttribute returns the value of attribute name on elementID.
func (r *Resolver) GetLayoutAttribute(ctx context.Context, req *Request, scope PreferencesScope, elementID, name string) (string, bool, error) {
	return r.get(ctx, req, scope, target{category: CategoryLayoutAttribute, elementID: elementID, name: name})
}

// SetLayoutAttribute stores value and returns the previous value.
func (r *Resolver) SetLayoutAttribute(ctx context.Context, req *Request, scope PreferencesScope, elementID, name, value string) (string, bool, error) {
	return r.mutate(ctx, req, scope, target{category: CategoryLayoutAttribute, elementID: elementID, name: name}, mutation{value: value})
}

// RemoveLayoutAttribute clears the value and returns the previous value.
func (r *Resolver) RemoveLayoutAttribute(ctx context.Context, req *Request, scope PreferencesScope, elementID, name string) (string, bool, error) {
	return r.mutate(ctx, req, scope, target{category: CategoryLayoutAttribute, elementID: elementID, name: name}, mutation{remove: true})
}

func (r *Resolver) GetOutputProperty(ctx context.Context, req *Request, scope PreferencesScope, name string) (string, bool, error) {
	return r.get(ctx, req, scope, target{category: CategoryOutputProperty, name: name})
}

func (r *Resolver) SetOutputProperty(ctx context.Context, req *Request, scope PreferencesScope, name, value string) (string, bool, error) {
	return r.mutate(ctx, req, scope, target{category: CategoryOutputProperty, name: name}, mutation{value: value})
}

func (r *Resolver) RemoveOutputProperty(ctx context.Context, req *Request, scope PreferencesScope, name string) (string, bool, error) {
	return r.mutate(ctx, req, scope, target{category: CategoryOutputProperty, name: name}, mutation{remove: true})
}

func (r *Resolver) GetStylesheetParameter(ctx context.Context, req *Request, scope PreferencesScope, name string) (string, bool, error) {
	return r.get(ctx, req, scope, target{category: CategoryStylesheetParameter, name: name})
}

func (r *Resolver) SetStylesheetParameter(ctx context.Context, req *Request, scope PreferencesScope, name, value string) (string, bool, error) {
	return r.mutate(ctx, req, scope, target{category: CategoryStylesheetParameter, name: name}, mutation{value: value})
}

func (r *Resolver) RemoveStylesheetParameter(ctx context.Context, req *Request, scope PreferencesScope, name string) (string, bool, error) {
	return r.mutate(ctx, req, scope, target{category: CategoryStylesheetParameter, name: name}, mutation{remove: true})
}

type target struct {
	category  Category
	elementID string
	name      string
}

type mutation struct {
	value  string
	remove bool
}

// binding is a target matched against its stylesheet and descriptor.
type binding struct {
	identity    Identity
	stylesheet  *StylesheetDescriptor
	descriptor  PreferenceDescriptor
	elementID   string
	elementType string
}

func (b *binding) key() PreferencesKey {
	return PreferencesKey{
		StylesheetID: b.stylesheet.ID,
		PersonID:     b.identity.PersonID,
		ProfileID:    b.identity.ProfileID,
	}
}

func (b *binding) transientKey() string {
	return TransientKey(b.descriptor.Category, b.stylesheet.ID, b.elementID, b.descriptor.Name)
}

// accessor reaches one category inside PersistentPreferences. Stylesheet
// scoped categories ignore the element id.
type accessor struct {
	get    func(p *PersistentPreferences, elementID, name string) (string, bool)
	set    func(p *PersistentPreferences, elementID, name, value string) (string, bool)
	remove func(p *PersistentPreferences, elementID, name string) (string, bool)
}

var accessors = map[Category]accessor{
	CategoryLayoutAttribute: {
		get:    (*PersistentPreferences).LayoutAttribute,
		set:    (*PersistentPreferences).SetLayoutAttribute,
		remove: (*PersistentPreferences).RemoveLayoutAttribute,
	},
	CategoryOutputProperty: {
		get: func(p *PersistentPreferences, _, name string) (string, bool) { return p.OutputProperty(name) },
		set: func(p *PersistentPreferences, _, name, value string) (string, bool) {
			return p.SetOutputProperty(name, value)
		},
		remove: func(p *PersistentPreferences, _, name string) (string, bool) { return p.RemoveOutputProperty(name) },
	},
	CategoryStylesheetParameter: {
		get: func(p *PersistentPreferences, _, name string) (string, bool) { return p.StylesheetParameter(name) },
		set: func(p *PersistentPreferences, _, name, value string) (string, bool) {
			return p.SetStylesheetParameter(name, value)
		},
		remove: func(p *PersistentPreferences, _, name string) (string, bool) { return p.RemoveStylesheetParameter(name) },
	},
}

// persistentMemo keeps the preference set loaded during one call so
// populate reads the store once.
type persistentMemo struct {
	loaded bool
	prefs  *PersistentPreferences
	ok     bool
}

func (r *Resolver) get(ctx context.Context, req *Request, pscope PreferencesScope, t target) (value string, found bool, err error) {
	event := &ResolutionEvent{Op: OpGet, Category: t.category, Name: t.name, ElementID: t.elementID}
	defer r.logEvent(event, time.Now(), &err)

	b, outcome, err := r.bind(ctx, req, pscope, t)
	if err != nil {
		return "", false, resolutionError(OpGet, t, ScopeUnknown, err)
	}
	if b == nil {
		event.Outcome = outcome
		return "", false, nil
	}
	event.StylesheetID = b.stylesheet.ID
	event.Scope = b.descriptor.Scope

	value, found, err = r.read(ctx, req, b, &persistentMemo{})
	if err != nil {
		return "", false, resolutionError(OpGet, t, b.descriptor.Scope, err)
	}
	event.Outcome = OutcomeMiss
	if found {
		event.Outcome = OutcomeHit
	}
	return value, found, nil
}

func (r *Resolver) mutate(ctx context.Context, req *Request, pscope PreferencesScope, t target, m mutation) (prev string, had bool, err error) {
	op := OpSet
	if m.remove {
		op = OpRemove
	}
	event := &ResolutionEvent{Op: op, Category: t.category, Name: t.name, ElementID: t.elementID}
	defer r.logEvent(event, time.Now(), &err)

	b, outcome, err := r.bind(ctx, req, pscope, t)
	if err != nil {
		return "", false, resolutionError(op, t, ScopeUnknown, err)
	}
	if b == nil {
		event.Outcome = outcome
		return "", false, nil
	}
	event.StylesheetID = b.stylesheet.ID
	event.Scope = b.descriptor.Scope

	if !m.remove {
		cc := ConstraintContext{
			Value:        m.value,
			Name:         b.descriptor.Name,
			Category:     b.descriptor.Category,
			Scope:        b.descriptor.Scope,
			ElementID:    b.elementID,
			ElementType:  b.elementType,
			StylesheetID: b.stylesheet.ID,
			Stylesheet:   b.stylesheet.Name,
			Now:          r.cfg.now(),
		}
		if err := checkConstraint(r.cfg.evaluator, b.descriptor, cc); err != nil {
			event.Outcome = OutcomeRejected
			return "", false, resolutionError(op, t, b.descriptor.Scope, err)
		}
	}

	prev, had, changed, err := r.write(ctx, req, b, m)
	if err != nil {
		return "", false, resolutionError(op, t, b.descriptor.Scope, err)
	}

	switch {
	case m.remove && changed:
		event.Outcome = OutcomeRemoved
		r.notify(ctx, b, activity.VerbPreferenceRemoved, &prev, nil)
	case m.remove:
		event.Outcome = OutcomeMiss
	default:
		event.Outcome = OutcomeWritten
		var old *string
		if had {
			old = &prev
		}
		value := m.value
		r.notify(ctx, b, activity.VerbPreferenceUpdated, old, &value)
	}
	return prev, had, nil
}

// bind resolves the stylesheet, descriptor and element of t. A nil binding
// with a nil error means the target is unsupported or disallowed; the
// returned outcome says which.
func (r *Resolver) bind(ctx context.Context, req *Request, pscope PreferencesScope, t target) (*binding, Outcome, error) {
	identity, err := r.identity.ResolveIdentity(ctx, req)
	if err != nil {
		return nil, "", fmt.Errorf("resolve identity: %w", err)
	}
	sd, err := r.stylesheet(ctx, identity, pscope)
	if err != nil {
		return nil, "", err
	}
	if sd == nil {
		return nil, OutcomeUnsupported, nil
	}
	d, ok := sd.Descriptor(t.category, t.name)
	if !ok {
		return nil, OutcomeUnsupported, nil
	}

	b := &binding{identity: identity, stylesheet: sd, descriptor: d}
	if t.category != CategoryLayoutAttribute {
		return b, "", nil
	}

	elementType, ok, err := r.elementType(ctx, req, t.elementID)
	if err != nil {
		return nil, "", err
	}
	if !ok || !d.Targets(elementType) {
		return nil, OutcomeDisallowed, nil
	}
	b.elementID = t.elementID
	b.elementType = elementType
	return b, "", nil
}

// stylesheet returns the descriptor the profile selects for pscope, or nil
// when there is none.
func (r *Resolver) stylesheet(ctx context.Context, identity Identity, pscope PreferencesScope) (*StylesheetDescriptor, error) {
	id, err := identity.StylesheetID(pscope)
	if err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, nil
	}
	sd, err := r.descriptors.StylesheetDescriptor(ctx, id)
	if errors.Is(err, ErrStylesheetNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load stylesheet %d: %w", id, err)
	}
	return sd, nil
}

func (r *Resolver) elementType(ctx context.Context, req *Request, elementID string) (string, bool, error) {
	if r.layout == nil {
		return "", false, ErrLayoutTreeRequired
	}
	if elementID == "" {
		return "", false, nil
	}
	elementType, ok, err := r.layout.ElementType(ctx, req, elementID)
	if err != nil {
		return "", false, fmt.Errorf("resolve element %q: %w", elementID, err)
	}
	return elementType, ok, nil
}

func (r *Resolver) read(ctx context.Context, req *Request, b *binding, memo *persistentMemo) (string, bool, error) {
	if b.descriptor.Scope.Transient() {
		bag, err := req.bag(b.descriptor.Scope)
		if err != nil {
			return "", false, err
		}
		value, ok := bag.Attribute(b.transientKey())
		return value, ok, nil
	}

	if !memo.loaded {
		prefs, ok, err := r.load(ctx, b.key(), r.cfg.createOnRead)
		if err != nil {
			return "", false, err
		}
		*memo = persistentMemo{loaded: true, prefs: prefs, ok: ok}
	}
	if !memo.ok {
		return "", false, nil
	}
	value, ok := accessors[b.descriptor.Category].get(memo.prefs, b.elementID, b.descriptor.Name)
	return value, ok, nil
}

// write applies m to the tier of b. changed is false only for removals of
// values that did not exist.
func (r *Resolver) write(ctx context.Context, req *Request, b *binding, m mutation) (prev string, had bool, changed bool, err error) {
	if b.descriptor.Scope.Transient() {
		bag, err := req.bag(b.descriptor.Scope)
		if err != nil {
			return "", false, false, err
		}
		key := b.transientKey()
		prev, had = bag.Attribute(key)
		if m.remove {
			if had {
				bag.RemoveAttribute(key)
			}
			return prev, had, had, nil
		}
		bag.SetAttribute(key, m.value)
		return prev, had, true, nil
	}

	prefs, ok, err := r.load(ctx, b.key(), !m.remove)
	if err != nil {
		return "", false, false, err
	}
	if !ok {
		return "", false, false, nil
	}
	acc := accessors[b.descriptor.Category]
	if m.remove {
		prev, had = acc.remove(prefs, b.elementID, b.descriptor.Name)
		if !had {
			return "", false, false, nil
		}
	} else {
		prev, had = acc.set(prefs, b.elementID, b.descriptor.Name, m.value)
	}
	prefs.UpdatedAt = r.cfg.now()
	if err := r.store.Save(ctx, prefs); err != nil {
		return "", false, false, fmt.Errorf("save preferences %s: %w", prefs.Key.Identifier(), err)
	}
	return prev, had, true, nil
}

// load fetches the preference set of key, creating it when create is set
// and the store has none.
func (r *Resolver) load(ctx context.Context, key PreferencesKey, create bool) (*PersistentPreferences, bool, error) {
	if r.store == nil {
		return nil, false, ErrStoreRequired
	}
	if err := key.Validate(); err != nil {
		return nil, false, err
	}
	prefs, ok, err := r.store.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("get preferences %s: %w", key.Identifier(), err)
	}
	if ok {
		return prefs, true, nil
	}
	if !create {
		return nil, false, nil
	}
	prefs, err = r.store.Create(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("create preferences %s: %w", key.Identifier(), err)
	}
	return prefs, true, nil
}

func (r *Resolver) logEvent(event *ResolutionEvent, start time.Time, errp *error) {
	event.Duration = time.Since(start)
	if errp != nil && *errp != nil {
		event.Err = *errp
		if event.Outcome == "" {
			event.Outcome = OutcomeFailed
		}
	}
	r.cfg.logger.LogResolution(*event)
}

func resolutionError(op string, t target, scope Scope, err error) error {
	return &ResolutionError{
		Op:        op,
		Category:  t.category,
		Name:      t.name,
		ElementID: t.elementID,
		Scope:     scope,
		Err:       err,
	}
}
