package prefs

import (
	"context"
	"time"
)

// PopulateLayoutAttributes reports the effective value of every layout
// attribute that targets the type of elementID.
func (r *Resolver) PopulateLayoutAttributes(ctx context.Context, req *Request, scope PreferencesScope, elementID string) (Effective, error) {
	return r.populate(ctx, req, scope, CategoryLayoutAttribute, elementID)
}

// PopulateOutputProperties reports the effective value of every output
// property of the selected stylesheet.
func (r *Resolver) PopulateOutputProperties(ctx context.Context, req *Request, scope PreferencesScope) (Effective, error) {
	return r.populate(ctx, req, scope, CategoryOutputProperty, "")
}

// PopulateStylesheetParameters reports the effective value of every
// stylesheet parameter of the selected stylesheet.
func (r *Resolver) PopulateStylesheetParameters(ctx context.Context, req *Request, scope PreferencesScope) (Effective, error) {
	return r.populate(ctx, req, scope, CategoryStylesheetParameter, "")
}

func (r *Resolver) populate(ctx context.Context, req *Request, pscope PreferencesScope, category Category, elementID string) (out Effective, err error) {
	t := target{category: category, elementID: elementID}
	event := &ResolutionEvent{Op: OpPopulate, Category: category, ElementID: elementID}
	defer r.logEvent(event, time.Now(), &err)

	out = Effective{Category: category, ElementID: elementID, Values: map[string]string{}}

	identity, err := r.identity.ResolveIdentity(ctx, req)
	if err != nil {
		return Effective{}, resolutionError(OpPopulate, t, ScopeUnknown, err)
	}
	sd, err := r.stylesheet(ctx, identity, pscope)
	if err != nil {
		return Effective{}, resolutionError(OpPopulate, t, ScopeUnknown, err)
	}
	if sd == nil {
		event.Outcome = OutcomeUnsupported
		return out, nil
	}
	out.StylesheetID = sd.ID
	event.StylesheetID = sd.ID

	var elementType string
	if category == CategoryLayoutAttribute {
		var ok bool
		elementType, ok, err = r.elementType(ctx, req, elementID)
		if err != nil {
			return Effective{}, resolutionError(OpPopulate, t, ScopeUnknown, err)
		}
		if !ok {
			event.Outcome = OutcomeDisallowed
			return out, nil
		}
	}

	memo := &persistentMemo{}
	for _, d := range sd.Descriptors(category) {
		if category == CategoryLayoutAttribute && !d.Targets(elementType) {
			continue
		}
		b := &binding{identity: identity, stylesheet: sd, descriptor: d, elementType: elementType}
		if category == CategoryLayoutAttribute {
			b.elementID = elementID
		}
		value, found, err := r.read(ctx, req, b, memo)
		if err != nil {
			t.name = d.Name
			return Effective{}, resolutionError(OpPopulate, t, d.Scope, err)
		}
		prov := Provenance{Name: d.Name, Scope: d.Scope}
		switch {
		case found:
			prov.Value, prov.Explicit, prov.Found = value, true, true
			out.Values[d.Name] = value
		case d.DefaultValue != "":
			prov.Value, prov.Found = d.DefaultValue, true
			out.Values[d.Name] = d.DefaultValue
		}
		out.Provenance = append(out.Provenance, prov)
	}
	event.Outcome = OutcomeHit
	return out, nil
}
