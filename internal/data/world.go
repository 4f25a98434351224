package data

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/entitybind/entitybind/internal/core/ecs"
	"github.com/entitybind/entitybind/internal/core/mem"
)

// ComponentDecl declares one component type stored by an entity class.
type ComponentDecl struct {
	Type  uint16 `yaml:"type"`
	Size  int    `yaml:"size"`
	Proxy bool   `yaml:"proxy"`
}

func (d ComponentDecl) layout() ecs.Layout {
	if d.Proxy {
		return ecs.Proxy{}
	}
	return ecs.Inline{Size: d.Size}
}

// ClassDecl declares an entity class.
type ClassDecl struct {
	Name       string          `yaml:"name"`
	Components []ComponentDecl `yaml:"components"`
}

// ComponentValue is the initial content of one component: Hex for raw bytes,
// Text for a string payload. Proxy components get a fresh buffer holding the
// payload; inline ones have it copied into class storage.
type ComponentValue struct {
	Type uint16 `yaml:"type"`
	Hex  string `yaml:"hex"`
	Text string `yaml:"text"`
}

func (v ComponentValue) bytes() ([]byte, error) {
	if v.Hex != "" {
		return hex.DecodeString(v.Hex)
	}
	return []byte(v.Text), nil
}

// EntityDecl declares an entity of a class. Name is only used to refer to the
// entity from global pool entries.
type EntityDecl struct {
	Name       string           `yaml:"name"`
	Class      string           `yaml:"class"`
	Guid       string           `yaml:"guid"`
	Components []ComponentValue `yaml:"components"`
}

// GlobalDecl attaches a component to an entity through a global pool.
type GlobalDecl struct {
	Pool   string `yaml:"pool"` // primary | transient
	Entity string `yaml:"entity"`
	Type   uint16 `yaml:"type"`
	Size   int    `yaml:"size"`
	Hex    string `yaml:"hex"`
}

type QueryDecl struct {
	Name  string   `yaml:"name"`
	Types []uint16 `yaml:"types"`
}

type ResourceDecl struct {
	Index int32  `yaml:"index"`
	Name  string `yaml:"name"`
}

// GuidMappingDecl names the class and proxy component type that receive the
// GUID→handle table built from every entity's guid.
type GuidMappingDecl struct {
	Class string `yaml:"class"`
	Type  uint16 `yaml:"type"`
}

// WorldFixture is a host world described in YAML: the entity classes, their
// entities and everything a binding pass can look up.
type WorldFixture struct {
	BucketBits       uint             `yaml:"bucket_bits"`
	ReplicationTypes int              `yaml:"replication_types"`
	Classes          []ClassDecl      `yaml:"classes"`
	Entities         []EntityDecl     `yaml:"entities"`
	Globals          []GlobalDecl     `yaml:"globals"`
	Queries          []QueryDecl      `yaml:"queries"`
	Systems          []string         `yaml:"systems"`
	Resources        []ResourceDecl   `yaml:"resources"`
	GuidMapping      *GuidMappingDecl `yaml:"guid_mapping"`
}

// LoadWorldFixture loads a world fixture (world.yaml).
func LoadWorldFixture(path string) (*WorldFixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read world fixture: %w", err)
	}
	var f WorldFixture
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse world fixture: %w", err)
	}
	return &f, nil
}

// Build materializes the fixture. bucketBits applies unless the fixture sets
// its own.
func (f *WorldFixture) Build(bucketBits uint) (*ecs.EntityWorld, error) {
	if f.BucketBits != 0 {
		bucketBits = f.BucketBits
	}
	w := ecs.NewWorld(bucketBits)
	if f.ReplicationTypes > 0 {
		w.EnableReplication(f.ReplicationTypes)
	}

	for _, cd := range f.Classes {
		def := ecs.ClassDef{Name: cd.Name}
		for _, c := range cd.Components {
			def.Components = append(def.Components, ecs.ComponentDef{Type: ecs.ComponentTypeIndex(c.Type), Layout: c.layout()})
		}
		if _, err := w.AddClass(def); err != nil {
			return nil, fmt.Errorf("build class %s: %w", cd.Name, err)
		}
	}

	named := make(map[string]ecs.EntityHandle)
	guids := make(map[uuid.UUID]ecs.EntityHandle)
	for i, ed := range f.Entities {
		h, err := f.buildEntity(w, i, ed)
		if err != nil {
			return nil, err
		}
		if ed.Name != "" {
			named[ed.Name] = h
		}
		if ed.Guid != "" {
			id, err := uuid.Parse(ed.Guid)
			if err != nil {
				return nil, fmt.Errorf("build entity %d: guid: %w", i, err)
			}
			guids[id] = h
		}
	}

	if err := f.buildGlobals(w, named); err != nil {
		return nil, err
	}
	if f.GuidMapping != nil {
		if err := f.buildGuidMapping(w, guids); err != nil {
			return nil, err
		}
	}

	for _, q := range f.Queries {
		types := make([]ecs.ComponentTypeIndex, len(q.Types))
		for i, t := range q.Types {
			types[i] = ecs.ComponentTypeIndex(t)
		}
		w.AddQuery(q.Name, types...)
	}
	for _, s := range f.Systems {
		w.AddSystem(s, s)
	}
	for _, r := range f.Resources {
		w.SetResourceManager(r.Index, r.Name)
	}
	return w, nil
}

func (f *WorldFixture) buildEntity(w *ecs.EntityWorld, i int, ed EntityDecl) (ecs.EntityHandle, error) {
	c, ok := w.ClassByName(ed.Class)
	if !ok {
		return ecs.NullHandle, fmt.Errorf("build entity %d: class %q: %w", i, ed.Class, ecs.ErrNoSuchClass)
	}
	h, err := w.CreateEntity(c.Index())
	if err != nil {
		return ecs.NullHandle, fmt.Errorf("build entity %d: %w", i, err)
	}
	for _, v := range ed.Components {
		t := ecs.ComponentTypeIndex(v.Type)
		payload, err := v.bytes()
		if err != nil {
			return ecs.NullHandle, fmt.Errorf("build entity %d: component %d: %w", i, v.Type, err)
		}
		slot, ok := c.ComponentSlot(t)
		if !ok {
			return ecs.NullHandle, fmt.Errorf("build entity %d: component %d: %w", i, v.Type, ecs.ErrUnknownComponent)
		}
		layout := c.Components()[slot].Layout
		if layout.IsProxy() {
			buf := mem.WrapBuffer(fmt.Sprintf("%s/%d/%d", ed.Class, h.Index(), v.Type), payload)
			if err := c.SetProxy(h, t, buf.Whole()); err != nil {
				return ecs.NullHandle, fmt.Errorf("build entity %d: %w", i, err)
			}
			continue
		}
		if len(payload) > layout.ElementSize() {
			return ecs.NullHandle, fmt.Errorf("build entity %d: component %d: %d bytes exceed size %d",
				i, v.Type, len(payload), layout.ElementSize())
		}
		copy(c.HostComponent(h, t).Bytes(), payload)
	}
	return h, nil
}

func (f *WorldFixture) buildGlobals(w *ecs.EntityWorld, named map[string]ecs.EntityHandle) error {
	for _, g := range f.Globals {
		var pool *ecs.ComponentPool
		switch g.Pool {
		case "primary":
			pool = w.Primary
		case "transient":
			pool = w.Transient
		default:
			return fmt.Errorf("build global component %d: unknown pool %q", g.Type, g.Pool)
		}
		h, ok := named[g.Entity]
		if !ok {
			return fmt.Errorf("build global component %d: unknown entity %q", g.Type, g.Entity)
		}
		payload, err := hex.DecodeString(g.Hex)
		if err != nil {
			return fmt.Errorf("build global component %d: %w", g.Type, err)
		}
		buf := mem.NewBuffer(fmt.Sprintf("%s/%s/%d", g.Pool, g.Entity, g.Type), g.Size)
		copy(buf.Bytes(), payload)

		t := ecs.ComponentTypeIndex(g.Type)
		pool.Register(t, g.Size)
		if err := pool.Set(h, t, buf.Whole()); err != nil {
			return fmt.Errorf("build global component %d: %w", g.Type, err)
		}
	}
	return nil
}

func (f *WorldFixture) buildGuidMapping(w *ecs.EntityWorld, guids map[uuid.UUID]ecs.EntityHandle) error {
	c, ok := w.ClassByName(f.GuidMapping.Class)
	if !ok {
		return fmt.Errorf("build guid mapping: class %q: %w", f.GuidMapping.Class, ecs.ErrNoSuchClass)
	}
	h, err := w.CreateEntity(c.Index())
	if err != nil {
		return fmt.Errorf("build guid mapping: %w", err)
	}
	buf := mem.WrapBuffer("uuid mapping", ecs.EncodeUuidMappings(guids))
	if err := c.SetProxy(h, ecs.ComponentTypeIndex(f.GuidMapping.Type), buf.Whole()); err != nil {
		return fmt.Errorf("build guid mapping: %w", err)
	}
	return nil
}
