package binding

import (
	"fmt"

	"github.com/entitybind/entitybind/internal/core/ecs"
)

// Semantic type indices. These are stable across host builds; the registry
// binds each of them to whatever raw index the host reports at runtime.
type (
	ComponentType       uint16
	QueryType           uint16
	SystemType          uint16
	ResourceManagerType uint16
)

// ComponentDescriptor is what the engine statically knows about a component
// type: the engine class name it expects to find in the metadata, and the
// layout it reads the host's memory with.
type ComponentDescriptor struct {
	Type        ComponentType
	Name        string
	EngineClass string
	Size        int
	Proxy       bool
	Schema      *Schema
}

// Layout returns the tagged storage variant of the descriptor.
func (d ComponentDescriptor) Layout() ecs.Layout {
	if d.Proxy {
		return ecs.Proxy{}
	}
	return ecs.Inline{Size: d.Size}
}

type QueryDescriptor struct {
	Type       QueryType
	Name       string
	EngineName string
}

type SystemDescriptor struct {
	Type       SystemType
	Name       string
	EngineName string
}

type ResourceDescriptor struct {
	Type       ResourceManagerType
	Name       string
	EngineName string
}

// GuidMapping names the query and component that carry the GUID→handle table.
type GuidMapping struct {
	Query     QueryType
	Component ComponentType
}

// Catalog is the fixed table of semantic types driving the final binding
// pass. Every descriptor's Type must equal its position in its slice.
type Catalog struct {
	components []ComponentDescriptor
	queries    []QueryDescriptor
	systems    []SystemDescriptor
	resources  []ResourceDescriptor
	guid       *GuidMapping

	byName map[string]ComponentType
}

// CatalogDef lists the descriptors for NewCatalog.
type CatalogDef struct {
	Components []ComponentDescriptor
	Queries    []QueryDescriptor
	Systems    []SystemDescriptor
	Resources  []ResourceDescriptor
	Guid       *GuidMapping
}

func NewCatalog(def CatalogDef) (*Catalog, error) {
	c := &Catalog{
		components: def.Components,
		queries:    def.Queries,
		systems:    def.Systems,
		resources:  def.Resources,
		guid:       def.Guid,
		byName:     make(map[string]ComponentType, 2*len(def.Components)),
	}
	for i, d := range def.Components {
		if int(d.Type) != i {
			return nil, fmt.Errorf("component %s: type %d at position %d", d.Name, d.Type, i)
		}
		if !d.Proxy && d.Size <= 0 {
			return nil, fmt.Errorf("component %s: inline layout needs a positive size", d.Name)
		}
		c.byName[d.Name] = d.Type
		c.byName[d.EngineClass] = d.Type
	}
	for i, d := range def.Queries {
		if int(d.Type) != i {
			return nil, fmt.Errorf("query %s: type %d at position %d", d.Name, d.Type, i)
		}
	}
	for i, d := range def.Systems {
		if int(d.Type) != i {
			return nil, fmt.Errorf("system %s: type %d at position %d", d.Name, d.Type, i)
		}
	}
	for i, d := range def.Resources {
		if int(d.Type) != i {
			return nil, fmt.Errorf("resource manager %s: type %d at position %d", d.Name, d.Type, i)
		}
	}
	if g := def.Guid; g != nil {
		if int(g.Query) >= len(def.Queries) || int(g.Component) >= len(def.Components) {
			return nil, fmt.Errorf("guid mapping refers to unknown query %d or component %d", g.Query, g.Component)
		}
	}
	return c, nil
}

// MustCatalog is NewCatalog for package-level tables.
func MustCatalog(def CatalogDef) *Catalog {
	c, err := NewCatalog(def)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Components() []ComponentDescriptor { return c.components }
func (c *Catalog) Queries() []QueryDescriptor        { return c.queries }
func (c *Catalog) Systems() []SystemDescriptor       { return c.systems }
func (c *Catalog) Resources() []ResourceDescriptor   { return c.resources }
func (c *Catalog) Guid() *GuidMapping                { return c.guid }

func (c *Catalog) Component(t ComponentType) (ComponentDescriptor, bool) {
	if int(t) >= len(c.components) {
		return ComponentDescriptor{}, false
	}
	return c.components[t], true
}

// ComponentByName accepts either the short name or the engine class name.
func (c *Catalog) ComponentByName(name string) (ComponentDescriptor, bool) {
	t, ok := c.byName[name]
	if !ok {
		return ComponentDescriptor{}, false
	}
	return c.components[t], true
}
