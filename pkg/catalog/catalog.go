// Package catalog loads stylesheet descriptors from YAML files.
//
// A catalog document lists stylesheets and the preferences each declares:
//
//	stylesheets:
//	  - id: 1
//	    name: DLMXHTML
//	    layout_attributes:
//	      - name: minimized
//	        scope: request
//	        targets: [folder]
//	    stylesheet_parameters:
//	      - name: skin
//	        scope: persistent
//	        default: uportal3
//	        constraint: 'value in ["uportal3", "red"]'
//
// Catalog implements prefs.DescriptorSource. FileSource keeps the catalog of
// one file current across reloads.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	prefs "github.com/goliatone/go-prefs"
)

// ErrInvalidCatalog wraps every structural problem found while parsing.
var ErrInvalidCatalog = errors.New("catalog: invalid catalog")

// Document is the YAML shape of a catalog file.
type Document struct {
	Stylesheets []StylesheetEntry `yaml:"stylesheets"`
}

type StylesheetEntry struct {
	ID                   int64             `yaml:"id"`
	Name                 string            `yaml:"name"`
	Description          string            `yaml:"description,omitempty"`
	LayoutAttributes     []DescriptorEntry `yaml:"layout_attributes,omitempty"`
	OutputProperties     []DescriptorEntry `yaml:"output_properties,omitempty"`
	StylesheetParameters []DescriptorEntry `yaml:"stylesheet_parameters,omitempty"`
}

type DescriptorEntry struct {
	Name        string   `yaml:"name"`
	Scope       string   `yaml:"scope"`
	Default     string   `yaml:"default,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Targets     []string `yaml:"targets,omitempty"`
	Constraint  string   `yaml:"constraint,omitempty"`
}

// Catalog is an immutable set of stylesheet descriptors.
type Catalog struct {
	registry    *prefs.DescriptorRegistry
	stylesheets []*prefs.StylesheetDescriptor
}

var _ prefs.DescriptorSource = (*Catalog)(nil)

// Parse decodes a catalog document. Unknown fields are rejected.
func Parse(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidCatalog)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	return FromDocument(doc)
}

// Load reads and parses the catalog file at path.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	c, err := Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return c, nil
}

// FromDocument validates doc and builds its descriptors.
func FromDocument(doc Document) (*Catalog, error) {
	c := &Catalog{stylesheets: make([]*prefs.StylesheetDescriptor, 0, len(doc.Stylesheets))}
	for i, entry := range doc.Stylesheets {
		if entry.ID <= 0 {
			return nil, fmt.Errorf("%w: stylesheets[%d]: id must be positive", ErrInvalidCatalog, i)
		}
		descriptors, err := entry.descriptors()
		if err != nil {
			return nil, fmt.Errorf("%w: stylesheet %q: %w", ErrInvalidCatalog, entry.Name, err)
		}
		sd, err := prefs.NewStylesheetDescriptor(entry.ID, entry.Name, descriptors...)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
		}
		sd.Description = entry.Description
		c.stylesheets = append(c.stylesheets, sd)
	}
	registry, err := prefs.NewDescriptorRegistry(c.stylesheets...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	c.registry = registry
	return c, nil
}

func (e StylesheetEntry) descriptors() ([]prefs.PreferenceDescriptor, error) {
	var out []prefs.PreferenceDescriptor
	groups := []struct {
		category prefs.Category
		entries  []DescriptorEntry
	}{
		{prefs.CategoryLayoutAttribute, e.LayoutAttributes},
		{prefs.CategoryOutputProperty, e.OutputProperties},
		{prefs.CategoryStylesheetParameter, e.StylesheetParameters},
	}
	for _, group := range groups {
		for _, entry := range group.entries {
			d, err := entry.descriptor(group.category)
			if err != nil {
				return nil, err
			}
			out = append(out, d)
		}
	}
	return out, nil
}

func (e DescriptorEntry) descriptor(category prefs.Category) (prefs.PreferenceDescriptor, error) {
	scope := prefs.ParseScope(e.Scope)
	if scope == prefs.ScopeUnknown {
		return prefs.PreferenceDescriptor{}, fmt.Errorf("%s %q: %w %q", category, e.Name, prefs.ErrUnknownScope, e.Scope)
	}
	opts := []prefs.DescriptorOption{
		prefs.WithDefaultValue(e.Default),
		prefs.WithDescription(e.Description),
		prefs.WithConstraint(e.Constraint),
	}
	switch category {
	case prefs.CategoryLayoutAttribute:
		return prefs.LayoutAttribute(e.Name, scope, e.Targets, opts...), nil
	case prefs.CategoryOutputProperty:
		if len(e.Targets) > 0 {
			return prefs.PreferenceDescriptor{}, fmt.Errorf("output property %q cannot declare targets", e.Name)
		}
		return prefs.OutputProperty(e.Name, scope, opts...), nil
	default:
		if len(e.Targets) > 0 {
			return prefs.PreferenceDescriptor{}, fmt.Errorf("stylesheet parameter %q cannot declare targets", e.Name)
		}
		return prefs.StylesheetParameter(e.Name, scope, opts...), nil
	}
}

// Stylesheets lists the catalog's stylesheets in file order.
func (c *Catalog) Stylesheets() []*prefs.StylesheetDescriptor {
	return append([]*prefs.StylesheetDescriptor(nil), c.stylesheets...)
}

func (c *Catalog) StylesheetDescriptor(ctx context.Context, id int64) (*prefs.StylesheetDescriptor, error) {
	return c.registry.StylesheetDescriptor(ctx, id)
}

func (c *Catalog) StylesheetDescriptorByName(ctx context.Context, name string) (*prefs.StylesheetDescriptor, error) {
	return c.registry.StylesheetDescriptorByName(ctx, name)
}
