package ecs

import (
	"sort"

	"github.com/entitybind/entitybind/internal/core/mem"
)

// Removable is implemented by every handle-keyed store so the world can
// bulk-remove an entity's data on destroy.
type Removable interface {
	Remove(h EntityHandle)
}

// SparsePool is a generic handle-keyed map store.
type SparsePool[T any] struct {
	data map[EntityHandle]T
}

func NewSparsePool[T any]() *SparsePool[T] {
	return &SparsePool[T]{
		data: make(map[EntityHandle]T, 64),
	}
}

func (s *SparsePool[T]) Set(h EntityHandle, v T) {
	s.data[h] = v
}

func (s *SparsePool[T]) Get(h EntityHandle) (T, bool) {
	v, ok := s.data[h]
	return v, ok
}

func (s *SparsePool[T]) Remove(h EntityHandle) {
	delete(s.data, h)
}

func (s *SparsePool[T]) Has(h EntityHandle) bool {
	_, ok := s.data[h]
	return ok
}

func (s *SparsePool[T]) Clear() {
	clear(s.data)
}

func (s *SparsePool[T]) Len() int {
	return len(s.data)
}

// Each visits every entry in unspecified order.
func (s *SparsePool[T]) Each(fn func(EntityHandle, T)) {
	for h, v := range s.data {
		fn(h, v)
	}
}

// Keys returns the stored handles in ascending order.
func (s *SparsePool[T]) Keys() []EntityHandle {
	keys := make([]EntityHandle, 0, len(s.data))
	for h := range s.data {
		keys = append(keys, h)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// TypePool maps handles to components of one type that live outside any
// entity class. ElementSize is the host's declared size for the type.
type TypePool struct {
	ElementSize int
	Components  *SparsePool[mem.Ref]
}

// ComponentPool is a sparse, type-indexed global component pool. A type is
// "available" once the host registered it.
type ComponentPool struct {
	name   string
	byType map[ComponentTypeIndex]*TypePool
}

func NewComponentPool(name string) *ComponentPool {
	return &ComponentPool{
		name:   name,
		byType: make(map[ComponentTypeIndex]*TypePool, 32),
	}
}

func (p *ComponentPool) Name() string { return p.name }

// Register makes a type available. Registering twice keeps the existing pool.
func (p *ComponentPool) Register(t ComponentTypeIndex, elemSize int) *TypePool {
	if tp, ok := p.byType[t]; ok {
		return tp
	}
	tp := &TypePool{ElementSize: elemSize, Components: NewSparsePool[mem.Ref]()}
	p.byType[t] = tp
	return tp
}

func (p *ComponentPool) Type(t ComponentTypeIndex) (*TypePool, bool) {
	tp, ok := p.byType[t]
	return tp, ok
}

func (p *ComponentPool) Available(t ComponentTypeIndex) bool {
	_, ok := p.byType[t]
	return ok
}

// Set stores ref for (h, t). It fails when the type was never registered.
func (p *ComponentPool) Set(h EntityHandle, t ComponentTypeIndex, ref mem.Ref) error {
	tp, ok := p.byType[t]
	if !ok {
		return ErrUnknownComponent
	}
	tp.Components.Set(h, ref)
	return nil
}

func (p *ComponentPool) Find(h EntityHandle, t ComponentTypeIndex) (mem.Ref, bool) {
	tp, ok := p.byType[t]
	if !ok {
		return mem.Ref{}, false
	}
	return tp.Components.Get(h)
}

func (p *ComponentPool) RemoveComponent(h EntityHandle, t ComponentTypeIndex) {
	if tp, ok := p.byType[t]; ok {
		tp.Components.Remove(h)
	}
}

// Remove drops h from every type.
func (p *ComponentPool) Remove(h EntityHandle) {
	for _, tp := range p.byType {
		tp.Components.Remove(h)
	}
}

// Types lists the available types in ascending order.
func (p *ComponentPool) Types() []ComponentTypeIndex {
	types := make([]ComponentTypeIndex, 0, len(p.byType))
	for t := range p.byType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
