package prefs

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

var (
	// ErrDescriptorNameRequired indicates a descriptor without a name.
	ErrDescriptorNameRequired = errors.New("prefs: descriptor name must be provided")
	// ErrDuplicateDescriptor indicates two descriptors share a key within one
	// catalog of the same stylesheet.
	ErrDuplicateDescriptor = errors.New("prefs: descriptor names must be unique per catalog")
)

// PreferenceDescriptor declares one preference key of a stylesheet. The
// Category tags which catalog the descriptor belongs to; TargetElements is
// only meaningful for layout attributes.
type PreferenceDescriptor struct {
	Category       Category
	Name           string
	Scope          Scope
	DefaultValue   string
	Description    string
	TargetElements []string
	// Constraint is an optional boolean expression checked before a value
	// is written. See Evaluator for the variables in scope.
	Constraint string
}

// DescriptorOption configures optional fields on descriptor creation.
type DescriptorOption func(*PreferenceDescriptor)

// WithDefaultValue sets the value reported by the populate operations when
// no explicit value exists.
func WithDefaultValue(value string) DescriptorOption {
	return func(d *PreferenceDescriptor) {
		d.DefaultValue = value
	}
}

// WithDescription attaches a human readable description.
func WithDescription(description string) DescriptorOption {
	return func(d *PreferenceDescriptor) {
		d.Description = description
	}
}

// WithConstraint attaches a boolean expression every written value must
// satisfy.
func WithConstraint(expr string) DescriptorOption {
	return func(d *PreferenceDescriptor) {
		d.Constraint = strings.TrimSpace(expr)
	}
}

// LayoutAttribute declares an element scoped attribute. Leaving targets empty
// makes the attribute applicable to every element type.
func LayoutAttribute(name string, scope Scope, targets []string, opts ...DescriptorOption) PreferenceDescriptor {
	d := newDescriptor(CategoryLayoutAttribute, name, scope, opts)
	d.TargetElements = normalizeTargets(targets)
	return d
}

// OutputProperty declares a stylesheet scoped output property.
func OutputProperty(name string, scope Scope, opts ...DescriptorOption) PreferenceDescriptor {
	return newDescriptor(CategoryOutputProperty, name, scope, opts)
}

// StylesheetParameter declares a stylesheet scoped transformation parameter.
func StylesheetParameter(name string, scope Scope, opts ...DescriptorOption) PreferenceDescriptor {
	return newDescriptor(CategoryStylesheetParameter, name, scope, opts)
}

func newDescriptor(category Category, name string, scope Scope, opts []DescriptorOption) PreferenceDescriptor {
	d := PreferenceDescriptor{
		Category: category,
		Name:     strings.TrimSpace(name),
		Scope:    scope,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&d)
	}
	return d
}

// Targets reports whether the descriptor applies to elements of the given
// type. Descriptors without target elements apply everywhere.
func (d PreferenceDescriptor) Targets(elementType string) bool {
	if len(d.TargetElements) == 0 {
		return true
	}
	return slices.Contains(d.TargetElements, elementType)
}

func (d PreferenceDescriptor) validate() error {
	if d.Name == "" {
		return ErrDescriptorNameRequired
	}
	if !d.Category.Valid() {
		return fmt.Errorf("%w: %q (descriptor %q)", ErrUnknownCategory, d.Category, d.Name)
	}
	if d.Scope == ScopeUnknown {
		return fmt.Errorf("%w: descriptor %q", ErrUnknownScope, d.Name)
	}
	if d.Category != CategoryLayoutAttribute && len(d.TargetElements) > 0 {
		return fmt.Errorf("prefs: %s %q cannot declare target elements", d.Category, d.Name)
	}
	return nil
}

func (d PreferenceDescriptor) clone() PreferenceDescriptor {
	out := d
	if d.TargetElements != nil {
		out.TargetElements = append([]string(nil), d.TargetElements...)
	}
	return out
}

func normalizeTargets(targets []string) []string {
	if len(targets) == 0 {
		return nil
	}
	out := make([]string, 0, len(targets))
	for _, target := range targets {
		target = strings.TrimSpace(target)
		if target == "" || slices.Contains(out, target) {
			continue
		}
		out = append(out, target)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}

// StylesheetDescriptor identifies a transformation stylesheet and owns the
// catalogs of preferences it understands. It is immutable once built and
// safe for concurrent use.
type StylesheetDescriptor struct {
	ID          int64
	Name        string
	Description string

	catalogs map[Category]map[string]PreferenceDescriptor
}

// NewStylesheetDescriptor validates descriptors and indexes them by category
// and name.
func NewStylesheetDescriptor(id int64, name string, descriptors ...PreferenceDescriptor) (*StylesheetDescriptor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("prefs: stylesheet %d: name must be provided", id)
	}
	sd := &StylesheetDescriptor{
		ID:       id,
		Name:     name,
		catalogs: make(map[Category]map[string]PreferenceDescriptor, 3),
	}
	for _, category := range Categories() {
		sd.catalogs[category] = map[string]PreferenceDescriptor{}
	}
	for _, d := range descriptors {
		if err := d.validate(); err != nil {
			return nil, fmt.Errorf("prefs: stylesheet %q: %w", name, err)
		}
		catalog := sd.catalogs[d.Category]
		if _, exists := catalog[d.Name]; exists {
			return nil, fmt.Errorf("%w: stylesheet %q %s %q", ErrDuplicateDescriptor, name, d.Category, d.Name)
		}
		catalog[d.Name] = d.clone()
	}
	return sd, nil
}

// Descriptor looks up name in the catalog of category. A miss is not an
// error: callers treat the preference as unsupported.
func (s *StylesheetDescriptor) Descriptor(category Category, name string) (PreferenceDescriptor, bool) {
	if s == nil {
		return PreferenceDescriptor{}, false
	}
	d, ok := s.catalogs[category][name]
	if !ok {
		return PreferenceDescriptor{}, false
	}
	return d.clone(), true
}

// Descriptors returns the catalog of category sorted by name.
func (s *StylesheetDescriptor) Descriptors(category Category) []PreferenceDescriptor {
	if s == nil {
		return nil
	}
	catalog := s.catalogs[category]
	out := make([]PreferenceDescriptor, 0, len(catalog))
	for _, d := range catalog {
		out = append(out, d.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LayoutAttributeDescriptor is shorthand for Descriptor(CategoryLayoutAttribute, name).
func (s *StylesheetDescriptor) LayoutAttributeDescriptor(name string) (PreferenceDescriptor, bool) {
	return s.Descriptor(CategoryLayoutAttribute, name)
}

// OutputPropertyDescriptor is shorthand for Descriptor(CategoryOutputProperty, name).
func (s *StylesheetDescriptor) OutputPropertyDescriptor(name string) (PreferenceDescriptor, bool) {
	return s.Descriptor(CategoryOutputProperty, name)
}

// StylesheetParameterDescriptor is shorthand for Descriptor(CategoryStylesheetParameter, name).
func (s *StylesheetDescriptor) StylesheetParameterDescriptor(name string) (PreferenceDescriptor, bool) {
	return s.Descriptor(CategoryStylesheetParameter, name)
}
