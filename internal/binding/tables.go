package binding

import (
	"go.uber.org/zap"

	"github.com/entitybind/entitybind/internal/core/ecs"
)

// UndefinedIndex marks an unbound query, system or static-data slot.
const UndefinedIndex int32 = -1

// ComponentMeta is the binding of one semantic component type.
type ComponentMeta struct {
	ComponentIndex   ecs.ComponentTypeIndex
	ReplicationIndex ecs.ReplicationTypeIndex
	Size             int
	Layout           ecs.Layout
}

var undefinedMeta = ComponentMeta{
	ComponentIndex:   ecs.UndefinedComponent,
	ReplicationIndex: ecs.UndefinedReplication,
}

func (m ComponentMeta) Bound() bool { return m.ComponentIndex != ecs.UndefinedComponent }

type indexMappings struct {
	Component   ecs.ComponentTypeIndex
	Replication ecs.ReplicationTypeIndex
}

// Tables is one complete, immutable set of index mappings. A Registry
// publishes a new Tables value per rebuild and never mutates a published one.
type Tables struct {
	Version uint64

	Components []ComponentMeta
	Queries    []int32
	Systems    []int32
	StaticData []int32

	// Missing lists "kind name" for every catalog entry left unbound.
	Missing []string

	componentNames         map[string]indexMappings
	componentIndexToName   map[ecs.ComponentTypeIndex]string
	componentIndexToType   map[ecs.ComponentTypeIndex]ComponentType
	replicationIndexToType map[ecs.ReplicationTypeIndex]ComponentType

	queryNames      map[string]int32
	queryIndexNames map[int32]string
	systemNames     map[string]int32
	systemIndexName map[int32]string
	staticNames     map[string]int32
	staticIndexName map[int32]string
}

func newTables(c *Catalog) *Tables {
	t := &Tables{
		Components:             make([]ComponentMeta, len(c.Components())),
		Queries:                make([]int32, len(c.Queries())),
		Systems:                make([]int32, len(c.Systems())),
		StaticData:             make([]int32, len(c.Resources())),
		componentNames:         make(map[string]indexMappings),
		componentIndexToName:   make(map[ecs.ComponentTypeIndex]string),
		componentIndexToType:   make(map[ecs.ComponentTypeIndex]ComponentType),
		replicationIndexToType: make(map[ecs.ReplicationTypeIndex]ComponentType),
		queryNames:             make(map[string]int32),
		queryIndexNames:        make(map[int32]string),
		systemNames:            make(map[string]int32),
		systemIndexName:        make(map[int32]string),
		staticNames:            make(map[string]int32),
		staticIndexName:        make(map[int32]string),
	}
	for i := range t.Components {
		t.Components[i] = undefinedMeta
	}
	for _, s := range [][]int32{t.Queries, t.Systems, t.StaticData} {
		for i := range s {
			s[i] = UndefinedIndex
		}
	}
	return t
}

// Component returns the binding of t, undefined when t is out of range.
func (t *Tables) Component(ct ComponentType) ComponentMeta {
	if int(ct) >= len(t.Components) {
		return undefinedMeta
	}
	return t.Components[ct]
}

func lookupIndex(s []int32, i int) int32 {
	if i < 0 || i >= len(s) {
		return UndefinedIndex
	}
	return s[i]
}

func (t *Tables) Query(qt QueryType) int32                     { return lookupIndex(t.Queries, int(qt)) }
func (t *Tables) System(st SystemType) int32                   { return lookupIndex(t.Systems, int(st)) }
func (t *Tables) ResourceManager(rt ResourceManagerType) int32 { return lookupIndex(t.StaticData, int(rt)) }

// The bind* methods record raw metadata; a later symbol with the same
// normalized name overwrites an earlier one.

func (t *Tables) bindComponent(name string, index int32) {
	m, ok := t.componentNames[name]
	if !ok {
		m.Replication = ecs.UndefinedReplication
	}
	m.Component = ecs.ComponentTypeIndex(index)
	t.componentNames[name] = m
	t.componentIndexToName[m.Component] = name
}

func (t *Tables) bindReplication(name string, index int32) {
	m, ok := t.componentNames[name]
	if !ok {
		m.Component = ecs.UndefinedComponent
	}
	m.Replication = ecs.ReplicationTypeIndex(index)
	t.componentNames[name] = m
}

func bindNamed(names map[string]int32, reverse map[int32]string, name string, index int32) {
	names[name] = index
	reverse[index] = name
}

// mapCatalog resolves every catalog entry against the bound names. Misses
// are isolated: each leaves only its own slot undefined.
func (t *Tables) mapCatalog(c *Catalog, log *zap.Logger) {
	for _, d := range c.Components() {
		m, ok := t.componentNames[d.EngineClass]
		if !ok {
			t.miss(log, "component", d.EngineClass)
			continue
		}
		meta := ComponentMeta{
			ComponentIndex:   m.Component,
			ReplicationIndex: m.Replication,
			Size:             d.Size,
			Layout:           d.Layout(),
		}
		if m.Component != ecs.UndefinedComponent {
			t.componentIndexToType[m.Component] = d.Type
		}
		if m.Replication != ecs.UndefinedReplication {
			t.replicationIndexToType[m.Replication] = d.Type
		}
		t.Components[d.Type] = meta
		if !meta.Bound() {
			t.miss(log, "component", d.EngineClass)
			continue
		}
		log.Debug("bound component",
			zap.String("name", d.EngineClass),
			zap.Uint16("index", uint16(m.Component)),
			zap.Uint16("replication", uint16(m.Replication)))
	}

	for _, d := range c.Queries() {
		if idx, ok := t.queryNames[d.EngineName]; ok {
			t.Queries[d.Type] = idx
		} else {
			t.miss(log, "query", d.EngineName)
		}
	}
	for _, d := range c.Systems() {
		if idx, ok := t.systemNames[d.EngineName]; ok {
			t.Systems[d.Type] = idx
		} else {
			t.miss(log, "system", d.EngineName)
		}
	}
	for _, d := range c.Resources() {
		if idx, ok := t.staticNames[d.EngineName]; ok {
			t.StaticData[d.Type] = idx
		} else {
			t.miss(log, "resource manager", d.EngineName)
		}
	}
}

func (t *Tables) miss(log *zap.Logger, kind, name string) {
	t.Missing = append(t.Missing, kind+" "+name)
	log.Warn("could not find index", zap.String("kind", kind), zap.String("name", name))
}
