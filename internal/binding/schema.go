package binding

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/entitybind/entitybind/internal/core/ecs"
)

// FieldKind is the storage kind of one schema field.
type FieldKind int

const (
	FieldInt32 FieldKind = iota
	FieldUint32
	FieldFloat32
	FieldBool
	FieldHandle
)

// Width is the encoded size of a field of kind k.
func (k FieldKind) Width() int {
	switch k {
	case FieldBool:
		return 1
	case FieldHandle:
		return 8
	default:
		return 4
	}
}

func (k FieldKind) String() string {
	switch k {
	case FieldInt32:
		return "int32"
	case FieldUint32:
		return "uint32"
	case FieldFloat32:
		return "float32"
	case FieldBool:
		return "bool"
	case FieldHandle:
		return "handle"
	default:
		return fmt.Sprintf("FieldKind(%d)", int(k))
	}
}

// Field is one property of a component record.
type Field struct {
	Name   string
	Offset int
	Kind   FieldKind
}

// Raw returns the bytes of f within the record data, or false when the field
// does not lie inside it.
func (f Field) Raw(data []byte) ([]byte, bool) {
	end := f.Offset + f.Kind.Width()
	if f.Offset < 0 || end > len(data) {
		return nil, false
	}
	return data[f.Offset:end], true
}

// Schema is the property map of a component type. Validate checks a raw
// record against it: bools must be 0 or 1, floats finite, handles null or
// carrying an in-range class.
type Schema struct {
	Fields []Field
}

func (s *Schema) Validate(data []byte) error {
	if s == nil {
		return nil
	}
	for _, f := range s.Fields {
		raw, ok := f.Raw(data)
		if !ok {
			return fmt.Errorf("field %s: offset %d outside %d-byte record", f.Name, f.Offset, len(data))
		}
		switch f.Kind {
		case FieldBool:
			if raw[0] > 1 {
				return fmt.Errorf("field %s: bool holds %d", f.Name, raw[0])
			}
		case FieldFloat32:
			v := math.Float32frombits(binary.LittleEndian.Uint32(raw))
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				return fmt.Errorf("field %s: non-finite float %v", f.Name, v)
			}
		case FieldHandle:
			h := ecs.EntityHandle(binary.LittleEndian.Uint64(raw))
			if !h.IsNull() && h.Class() >= ecs.MaxEntityClasses {
				return fmt.Errorf("field %s: handle %#x has class %d", f.Name, uint64(h), h.Class())
			}
		}
	}
	return nil
}
