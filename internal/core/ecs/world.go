package ecs

import (
	"fmt"

	"github.com/entitybind/entitybind/internal/core/mem"
)

// SystemEntry is a host system registered under a system index.
type SystemEntry struct {
	Name   string
	System any
}

// EntityWorld is the host-side entity store: entity classes with their slot
// pools and component pages, the primary and transient global component
// pools, queries, systems, resource managers, replication flags and a
// deferred destruction queue flushed by CleanupSystem each tick.
//
// All structural mutation (class registration, entity create/destroy) must
// come from the owning goroutine. Lookups may run on other goroutines only
// while no mutation is in flight.
type EntityWorld struct {
	bucketBits uint
	classes    []*EntityClass
	queries    []*Query
	systems    []SystemEntry
	resources  map[int32]any

	Primary     *ComponentPool
	Transient   *ComponentPool
	Replication *Replication

	stores       StoreSet
	destroyQueue []EntityHandle
}

func NewWorld(bucketBits uint) *EntityWorld {
	w := &EntityWorld{
		bucketBits:   bucketBits,
		resources:    make(map[int32]any),
		Primary:      NewComponentPool("primary"),
		Transient:    NewComponentPool("transient"),
		destroyQueue: make([]EntityHandle, 0, 64),
	}
	w.stores.Register("primary", w.Primary)
	w.stores.Register("transient", w.Transient)
	return w
}

// Stores returns the handle-keyed stores cleared on destroy.
func (w *EntityWorld) Stores() *StoreSet { return &w.stores }

// EnableReplication creates the replication flag pools for the given number
// of replicated types, replacing any previous ones.
func (w *EntityWorld) EnableReplication(types int) *Replication {
	w.Replication = NewReplication(types)
	w.stores.Register("replication", w.Replication)
	return w.Replication
}

// AddClass registers an entity class. Its index is the class part of every
// handle it mints.
func (w *EntityWorld) AddClass(def ClassDef) (*EntityClass, error) {
	if len(w.classes) >= MaxEntityClasses {
		return nil, ErrTooManyClasses
	}
	c, err := newEntityClass(uint32(len(w.classes)), def, w.bucketBits)
	if err != nil {
		return nil, err
	}
	w.classes = append(w.classes, c)
	for _, q := range w.queries {
		q.match(c)
	}
	return c, nil
}

func (w *EntityWorld) Classes() []*EntityClass { return w.classes }

func (w *EntityWorld) Class(index uint32) (*EntityClass, bool) {
	if int(index) >= len(w.classes) {
		return nil, false
	}
	return w.classes[index], true
}

// ClassByName finds a class by its declared name.
func (w *EntityWorld) ClassByName(name string) (*EntityClass, bool) {
	for _, c := range w.classes {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

func (w *EntityWorld) CreateEntity(class uint32) (EntityHandle, error) {
	c, ok := w.Class(class)
	if !ok {
		return NullHandle, fmt.Errorf("create entity in class %d: %w", class, ErrNoSuchClass)
	}
	return c.add(), nil
}

// DestroyEntity releases h immediately. The slot generation is bumped so h
// and every copy of it go stale.
func (w *EntityWorld) DestroyEntity(h EntityHandle) bool {
	c := w.GetEntityClass(h)
	if c == nil {
		return false
	}
	w.stores.RemoveAll(h)
	return c.release(h)
}

// MarkForDestruction queues an entity for end-of-tick cleanup.
func (w *EntityWorld) MarkForDestruction(h EntityHandle) {
	w.destroyQueue = append(w.destroyQueue, h)
}

// FlushDestroyQueue destroys all queued entities and returns how many were
// still live. Called by CleanupSystem at the end of each tick.
func (w *EntityWorld) FlushDestroyQueue() int {
	n := 0
	for _, h := range w.destroyQueue {
		if w.DestroyEntity(h) {
			n++
		}
	}
	w.destroyQueue = w.destroyQueue[:0]
	return n
}

// IsValid reports whether h refers to a live entity: the class index is in
// range and registered, the slot is inside the class salt table, and the
// stored record carries both the handle's salt and its slot index.
func (w *EntityWorld) IsValid(h EntityHandle) bool {
	class := h.Class()
	if class >= MaxEntityClasses || int(class) >= len(w.classes) {
		return false
	}
	return w.classes[class].pool.Owns(h.Index(), h.Salt())
}

// GetEntityClass resolves the owning class of a valid handle.
func (w *EntityWorld) GetEntityClass(h EntityHandle) *EntityClass {
	if !w.IsValid(h) {
		return nil
	}
	return w.classes[h.Class()]
}

// GetRawComponent resolves component t of h. Class-local storage wins over
// the primary global pool, which wins over the transient pool.
func (w *EntityWorld) GetRawComponent(h EntityHandle, t ComponentTypeIndex, layout Layout) mem.Ref {
	if c := w.GetEntityClass(h); c != nil {
		if ref := c.GetComponent(h, t, layout); !ref.IsNil() {
			return ref
		}
	}
	if ref, ok := w.Primary.Find(h, t); ok && !ref.IsNil() {
		return ref
	}
	if ref, ok := w.Transient.Find(h, t); ok && !ref.IsNil() {
		return ref
	}
	return mem.Ref{}
}

// AddQuery registers a query over every class (present and future) that
// stores all of types. The first type is the one returned by the matching
// helpers.
func (w *EntityWorld) AddQuery(name string, types ...ComponentTypeIndex) int32 {
	q := &Query{name: name, types: types}
	for _, c := range w.classes {
		q.match(c)
	}
	w.queries = append(w.queries, q)
	return int32(len(w.queries) - 1)
}

func (w *EntityWorld) Query(index int32) (*Query, bool) {
	if index < 0 || int(index) >= len(w.queries) {
		return nil, false
	}
	return w.queries[index], true
}

func (w *EntityWorld) AddSystem(name string, sys any) int32 {
	w.systems = append(w.systems, SystemEntry{Name: name, System: sys})
	return int32(len(w.systems) - 1)
}

func (w *EntityWorld) System(index int32) (SystemEntry, bool) {
	if index < 0 || int(index) >= len(w.systems) {
		return SystemEntry{}, false
	}
	return w.systems[index], true
}

// SetResourceManager installs the resource bank stored under a static-data
// index.
func (w *EntityWorld) SetResourceManager(index int32, mgr any) {
	w.resources[index] = mgr
}

func (w *EntityWorld) ResourceManager(index int32) (any, bool) {
	mgr, ok := w.resources[index]
	return mgr, ok
}
