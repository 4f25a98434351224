package mem

import "fmt"

// Buffer is a byte region owned by the host environment. The engine reads and
// indexes into it through Refs but never resizes or frees it.
type Buffer struct {
	name string
	data []byte
}

// NewBuffer allocates a zeroed host buffer of the given size.
func NewBuffer(name string, size int) *Buffer {
	if size < 0 {
		size = 0
	}
	return &Buffer{name: name, data: make([]byte, size)}
}

// WrapBuffer adopts an existing byte slice as host memory without copying.
func WrapBuffer(name string, data []byte) *Buffer {
	return &Buffer{name: name, data: data}
}

func (b *Buffer) Name() string  { return b.name }
func (b *Buffer) Len() int      { return len(b.data) }
func (b *Buffer) Bytes() []byte { return b.data }

// Ref returns a view of size bytes starting at off, or the null Ref when the
// range does not fit inside the buffer.
func (b *Buffer) Ref(off, size int) Ref {
	if b == nil || off < 0 || size < 0 || off+size > len(b.data) {
		return Ref{}
	}
	return Ref{buf: b, off: off, size: size}
}

// Whole returns a view covering the entire buffer.
func (b *Buffer) Whole() Ref {
	return b.Ref(0, b.Len())
}

// Ref is a non-owning view into a host Buffer. The zero Ref is the null
// pointer. Refs are comparable: two Refs are equal iff they view the same
// range of the same buffer.
type Ref struct {
	buf  *Buffer
	off  int
	size int
}

func (r Ref) IsNil() bool     { return r.buf == nil }
func (r Ref) Buffer() *Buffer { return r.buf }
func (r Ref) Offset() int     { return r.off }
func (r Ref) Size() int       { return r.size }

// Bytes returns the viewed bytes. Writes through the slice are visible to
// every other view of the same range.
func (r Ref) Bytes() []byte {
	if r.buf == nil {
		return nil
	}
	return r.buf.data[r.off : r.off+r.size : r.off+r.size]
}

func (r Ref) String() string {
	if r.buf == nil {
		return "Ref(nil)"
	}
	return fmt.Sprintf("Ref(%s+%d:%d)", r.buf.name, r.off, r.size)
}
