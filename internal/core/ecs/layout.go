package ecs

import "github.com/entitybind/entitybind/internal/core/mem"

// PointerSize is the element size of a proxy component buffer.
const PointerSize = 8

// Layout describes how a component type is stored in a class buffer: Inline
// records of a fixed size, or Proxy pointers whose payload lives elsewhere.
type Layout interface {
	ElementSize() int
	IsProxy() bool
	locate(buf *ComponentBuffer, entry uint32) mem.Ref
}

// Inline stores contiguous records of Size bytes indexed by entry.
type Inline struct {
	Size int
}

func (l Inline) ElementSize() int { return l.Size }
func (Inline) IsProxy() bool      { return false }

func (l Inline) locate(buf *ComponentBuffer, entry uint32) mem.Ref {
	if buf.Data == nil {
		return mem.Ref{}
	}
	return buf.Data.Ref(int(entry)*l.Size, l.Size)
}

// Proxy stores one pointer per entry; the pointee is owned by the host.
type Proxy struct{}

func (Proxy) ElementSize() int { return PointerSize }
func (Proxy) IsProxy() bool    { return true }

func (Proxy) locate(buf *ComponentBuffer, entry uint32) mem.Ref {
	if int(entry) >= len(buf.Ptrs) {
		return mem.Ref{}
	}
	return buf.Ptrs[entry]
}

// ComponentBuffer is one page of one component type inside an entity class.
// ElementSize is what the host actually allocated per entry.
type ComponentBuffer struct {
	ElementSize int
	Data        *mem.Buffer
	Ptrs        []mem.Ref
}

func newComponentBuffer(name string, layout Layout, entries uint32) ComponentBuffer {
	if layout.IsProxy() {
		return ComponentBuffer{ElementSize: PointerSize, Ptrs: make([]mem.Ref, entries)}
	}
	size := layout.ElementSize()
	return ComponentBuffer{ElementSize: size, Data: mem.NewBuffer(name, size*int(entries))}
}

func (b *ComponentBuffer) clear(layout Layout, entry uint32) {
	if layout.IsProxy() {
		if int(entry) < len(b.Ptrs) {
			b.Ptrs[entry] = mem.Ref{}
		}
		return
	}
	clear(layout.locate(b, entry).Bytes())
}
