package ecs

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/google/uuid"

	"github.com/entitybind/entitybind/internal/core/mem"
)

// UuidMappingRecordSize is the size of one GUID→handle record in the mapping
// component payload: 16 bytes of UUID followed by the handle, little endian.
const UuidMappingRecordSize = 24

// EncodeUuidMappings lays out a mapping table the way the host stores it:
// records sorted by UUID bytes.
func EncodeUuidMappings(m map[uuid.UUID]EntityHandle) []byte {
	ids := make([]uuid.UUID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })

	out := make([]byte, len(ids)*UuidMappingRecordSize)
	for i, id := range ids {
		rec := out[i*UuidMappingRecordSize:]
		copy(rec, id[:])
		binary.LittleEndian.PutUint64(rec[16:], uint64(m[id]))
	}
	return out
}

// UuidMappingView reads a mapping table in place.
type UuidMappingView struct {
	data []byte
}

func NewUuidMappingView(ref mem.Ref) UuidMappingView {
	return UuidMappingView{data: ref.Bytes()}
}

func (v UuidMappingView) Len() int {
	return len(v.data) / UuidMappingRecordSize
}

func (v UuidMappingView) record(i int) []byte {
	return v.data[i*UuidMappingRecordSize : (i+1)*UuidMappingRecordSize]
}

// Lookup finds the handle registered for id.
func (v UuidMappingView) Lookup(id uuid.UUID) (EntityHandle, bool) {
	n := v.Len()
	i := sort.Search(n, func(i int) bool {
		return bytes.Compare(v.record(i)[:16], id[:]) >= 0
	})
	if i >= n || !bytes.Equal(v.record(i)[:16], id[:]) {
		return NullHandle, false
	}
	return EntityHandle(binary.LittleEndian.Uint64(v.record(i)[16:])), true
}
