// Package catalog holds the in-memory registry of service descriptors and
// resolves loose user queries to descriptor sets.
//
// The catalog is built once at startup from a YAML file and is read-only for
// its lifetime. Resolution is tolerant: normalization, prefix stripping, and
// substring containment let users write "auth" and land on "hub-us-auth".
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/logai/logai/pkg/discover"
)

// Descriptor describes one service known to the engine.
type Descriptor struct {
	// Name uniquely identifies the service within the catalog.
	Name string `yaml:"name"`

	// AltName is an optional alternate name matched during resolution.
	AltName string `yaml:"alt_name,omitempty"`

	// Type is a free-form service classification (e.g. "aws-ecs").
	Type string `yaml:"type,omitempty"`

	// Description is shown in listings and suggestions.
	Description string `yaml:"description,omitempty"`

	// PathTemplate is the log file layout on disk. It may contain
	// {YYYY}, {MM}, {DD}, {HH} and {guid} placeholders.
	PathTemplate string `yaml:"path_template"`

	// Tracking holds optional external-tracking attributes (error
	// tracker DSNs and the like). The engine carries them but never
	// interprets them.
	Tracking map[string]string `yaml:"tracking,omitempty"`
}

// Catalog is an ordered, immutable set of descriptors.
type Catalog struct {
	services []Descriptor
	byName   map[string]int // normalized name -> index into services

	// sourcePath and sourceMTime support cache invalidation by callers
	// that watch the catalog file (see coord.LocalCache).
	sourcePath string
}

type catalogFile struct {
	Services []Descriptor `yaml:"services"`
}

// Load reads and validates a catalog file.
//
// Validation errors are fatal at startup: duplicate names and unknown path
// template placeholders are configuration mistakes, not runtime conditions.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	c, err := New(file.Services)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	c.sourcePath = path
	return c, nil
}

// New builds a catalog from descriptors, validating uniqueness and templates.
func New(services []Descriptor) (*Catalog, error) {
	byName := make(map[string]int, len(services))
	for i, svc := range services {
		if svc.Name == "" {
			return nil, fmt.Errorf("service at index %d has no name", i)
		}
		norm := NormalizeName(svc.Name)
		if prev, dup := byName[norm]; dup {
			return nil, fmt.Errorf("duplicate service name %q (conflicts with %q)", svc.Name, services[prev].Name)
		}
		byName[norm] = i

		if svc.PathTemplate == "" {
			return nil, fmt.Errorf("service %q has no path_template", svc.Name)
		}
		if _, err := discover.CompileTemplate(svc.PathTemplate); err != nil {
			return nil, fmt.Errorf("service %q: %w", svc.Name, err)
		}
	}

	return &Catalog{services: services, byName: byName}, nil
}

// Services returns the descriptors in catalog order.
//
// The returned slice must not be mutated.
func (c *Catalog) Services() []Descriptor {
	return c.services
}

// Len returns the number of descriptors.
func (c *Catalog) Len() int {
	return len(c.services)
}

// SourcePath returns the file the catalog was loaded from, or "" if the
// catalog was built in memory.
func (c *Catalog) SourcePath() string {
	return c.sourcePath
}

// Lookup returns the descriptor with the exact (normalized) name.
func (c *Catalog) Lookup(name string) (Descriptor, bool) {
	i, ok := c.byName[NormalizeName(name)]
	if !ok {
		return Descriptor{}, false
	}
	return c.services[i], true
}
