package ecs

import "fmt"

// EntityHandle packs a 32-bit slot index in the low bits, a 22-bit salt in
// bits 32..53 and the entity class in the top bits. The salt is the slot's
// generation at allocation time, so a handle to a released slot never
// resolves again.
type EntityHandle uint64

const (
	SaltBits         = 22
	saltMask         = 1<<SaltBits - 1
	classShift       = 54
	MaxEntityClasses = 0x40

	NullHandle EntityHandle = ^EntityHandle(0)
)

// ComponentTypeIndex is the host's (unstable) index of a component type.
type ComponentTypeIndex uint16

// ReplicationTypeIndex is the host's index of a replicated component type.
type ReplicationTypeIndex uint16

const (
	UndefinedComponent   ComponentTypeIndex   = 0xffff
	UndefinedReplication ReplicationTypeIndex = 0xffff
)

// NewEntityHandle combines a class index with a slot record as returned by
// SlotPool.Add.
func NewEntityHandle(class uint32, record uint64) EntityHandle {
	salt := (record >> 32) & saltMask
	return EntityHandle(uint64(class)<<classShift | salt<<32 | record&0xffffffff)
}

func (h EntityHandle) Class() uint32 { return uint32(h >> classShift) }
func (h EntityHandle) Index() uint32 { return uint32(h) }
func (h EntityHandle) Salt() uint32  { return uint32(h>>32) & saltMask }
func (h EntityHandle) IsNull() bool  { return h == NullHandle }

func (h EntityHandle) String() string {
	if h.IsNull() {
		return "Entity(null)"
	}
	return fmt.Sprintf("Entity(%d:%d@%d)", h.Class(), h.Index(), h.Salt())
}
