package ecs

import (
	"fmt"

	"github.com/entitybind/entitybind/internal/core/mem"
)

// ComponentDef declares one component type stored by an entity class.
type ComponentDef struct {
	Type   ComponentTypeIndex
	Layout Layout
}

// ClassDef declares an entity class: a set of entities sharing the same
// component buffers and layout.
type ClassDef struct {
	Name       string
	Components []ComponentDef
}

// InstanceComponentPointer locates an instance inside the class pages.
type InstanceComponentPointer struct {
	PageIndex  uint32
	EntryIndex uint32
}

// EntityClass owns a slot pool and, per pool bucket, one page of buffers per
// component type. Slot s lives in page s>>bucketBits at entry s&(bucket-1).
type EntityClass struct {
	index uint32
	name  string
	pool  *SlotPool

	componentTypeToIndex map[ComponentTypeIndex]uint8
	defs                 []ComponentDef
	pages                [][]ComponentBuffer
	live                 int
}

func newEntityClass(index uint32, def ClassDef, bucketBits uint) (*EntityClass, error) {
	if len(def.Components) > 0xff {
		return nil, fmt.Errorf("class %s: %d component types: %w", def.Name, len(def.Components), ErrTooManyComponents)
	}
	c := &EntityClass{
		index:                index,
		name:                 def.Name,
		pool:                 NewSlotPool(bucketBits),
		componentTypeToIndex: make(map[ComponentTypeIndex]uint8, len(def.Components)),
		defs:                 make([]ComponentDef, 0, len(def.Components)),
	}
	for _, cd := range def.Components {
		if cd.Layout == nil {
			return nil, fmt.Errorf("class %s: component %d has no layout", def.Name, cd.Type)
		}
		if _, dup := c.componentTypeToIndex[cd.Type]; dup {
			return nil, fmt.Errorf("class %s: component %d declared twice", def.Name, cd.Type)
		}
		c.componentTypeToIndex[cd.Type] = uint8(len(c.defs))
		c.defs = append(c.defs, cd)
	}
	return c, nil
}

func (c *EntityClass) Index() uint32   { return c.index }
func (c *EntityClass) Name() string    { return c.name }
func (c *EntityClass) Len() int        { return c.live }
func (c *EntityClass) Pool() *SlotPool { return c.pool }

// Components returns the declared component types in slot order.
func (c *EntityClass) Components() []ComponentDef { return c.defs }

// ComponentSlot returns the per-class buffer slot of t.
func (c *EntityClass) ComponentSlot(t ComponentTypeIndex) (uint8, bool) {
	slot, ok := c.componentTypeToIndex[t]
	return slot, ok
}

// Has reports whether h is a live instance of this class.
func (c *EntityClass) Has(h EntityHandle) bool {
	return h.Class() == c.index && c.pool.Owns(h.Index(), h.Salt())
}

func (c *EntityClass) locate(slot uint32) InstanceComponentPointer {
	bits := c.pool.BucketBits()
	return InstanceComponentPointer{PageIndex: slot >> bits, EntryIndex: slot & (1<<bits - 1)}
}

// GetComponent resolves component t of h using the caller's view of the
// layout. The class's own layout is not consulted, so a caller whose layout
// disagrees with the host reads mis-sized records.
func (c *EntityClass) GetComponent(h EntityHandle, t ComponentTypeIndex, layout Layout) mem.Ref {
	if !c.Has(h) {
		return mem.Ref{}
	}
	slot, ok := c.componentTypeToIndex[t]
	if !ok {
		return mem.Ref{}
	}
	return c.componentAt(c.locate(h.Index()), slot, layout)
}

func (c *EntityClass) componentAt(ptr InstanceComponentPointer, componentSlot uint8, layout Layout) mem.Ref {
	if int(ptr.PageIndex) >= len(c.pages) {
		return mem.Ref{}
	}
	buf := &c.pages[ptr.PageIndex][componentSlot]
	return layout.locate(buf, ptr.EntryIndex)
}

// HostComponent returns the storage of component t for h under the class's
// own layout. Host-side writers use it to fill component data.
func (c *EntityClass) HostComponent(h EntityHandle, t ComponentTypeIndex) mem.Ref {
	slot, ok := c.componentTypeToIndex[t]
	if !ok {
		return mem.Ref{}
	}
	return c.GetComponent(h, t, c.defs[slot].Layout)
}

// SetProxy points the proxy component t of h at host memory ref.
func (c *EntityClass) SetProxy(h EntityHandle, t ComponentTypeIndex, ref mem.Ref) error {
	if !c.Has(h) {
		return ErrInvalidHandle
	}
	slot, ok := c.componentTypeToIndex[t]
	if !ok {
		return ErrUnknownComponent
	}
	if !c.defs[slot].Layout.IsProxy() {
		return ErrNotProxy
	}
	ptr := c.locate(h.Index())
	c.pages[ptr.PageIndex][slot].Ptrs[ptr.EntryIndex] = ref
	return nil
}

// Buffer returns the component buffer of t in the given page.
func (c *EntityClass) Buffer(page int, t ComponentTypeIndex) (*ComponentBuffer, bool) {
	slot, ok := c.componentTypeToIndex[t]
	if !ok || page < 0 || page >= len(c.pages) {
		return nil, false
	}
	return &c.pages[page][slot], true
}

// Instances lists live handles in slot order.
func (c *EntityClass) Instances() []EntityHandle {
	out := make([]EntityHandle, 0, c.live)
	c.each(func(h EntityHandle) bool {
		out = append(out, h)
		return true
	})
	return out
}

func (c *EntityClass) each(fn func(EntityHandle) bool) {
	for slot := uint32(0); slot < c.pool.Len(); slot++ {
		rec, _ := c.pool.Record(slot)
		if uint32(rec) != slot {
			continue
		}
		if !fn(NewEntityHandle(c.index, rec)) {
			return
		}
	}
}

func (c *EntityClass) add() EntityHandle {
	rec := c.pool.Add()
	for len(c.pages) < c.pool.NumBuckets() {
		page := make([]ComponentBuffer, len(c.defs))
		for i, cd := range c.defs {
			name := fmt.Sprintf("%s/%d/%d", c.name, len(c.pages), cd.Type)
			page[i] = newComponentBuffer(name, cd.Layout, c.pool.BucketSize())
		}
		c.pages = append(c.pages, page)
	}
	c.live++
	return NewEntityHandle(c.index, rec)
}

func (c *EntityClass) release(h EntityHandle) bool {
	if !c.Has(h) {
		return false
	}
	ptr := c.locate(h.Index())
	for i, cd := range c.defs {
		c.pages[ptr.PageIndex][i].clear(cd.Layout, ptr.EntryIndex)
	}
	c.pool.Release(h.Index(), h.Salt())
	c.live--
	return true
}
