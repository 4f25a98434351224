package binding

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/entitybind/entitybind/internal/core/ecs"
)

// GetReplicationFlags returns the changed-field set of component t on h, or
// nil when t has no replication binding or nothing is pending for h.
func (r *Registry) GetReplicationFlags(h ecs.EntityHandle, t ComponentType) *bitset.BitSet {
	meta := r.ComponentMeta(t)
	if meta.ReplicationIndex == ecs.UndefinedReplication {
		return nil
	}
	return r.GetReplicationFlagsByIndex(h, meta.ReplicationIndex)
}

func (r *Registry) GetReplicationFlagsByIndex(h ecs.EntityHandle, idx ecs.ReplicationTypeIndex) *bitset.BitSet {
	pool := r.replicationPool(idx)
	if pool == nil {
		return nil
	}
	flags, _ := pool.Get(h)
	return flags
}

// GetOrCreateReplicationFlags returns the changed-field set of component t
// on h, inserting an empty one when none exists yet.
func (r *Registry) GetOrCreateReplicationFlags(h ecs.EntityHandle, t ComponentType) *bitset.BitSet {
	meta := r.ComponentMeta(t)
	if meta.ReplicationIndex == ecs.UndefinedReplication {
		return nil
	}
	return r.GetOrCreateReplicationFlagsByIndex(h, meta.ReplicationIndex)
}

func (r *Registry) GetOrCreateReplicationFlagsByIndex(h ecs.EntityHandle, idx ecs.ReplicationTypeIndex) *bitset.BitSet {
	pool := r.replicationPool(idx)
	if pool == nil {
		return nil
	}
	if flags, ok := pool.Get(h); ok {
		return flags
	}
	flags := bitset.New(0)
	pool.Set(h, flags)
	return flags
}

// NotifyReplicationFlagsDirtied tells the host that at least one flag set
// changed since its last sync.
func (r *Registry) NotifyReplicationFlagsDirtied() {
	if w := r.currentWorld(); w != nil && w.Replication != nil {
		w.Replication.Dirty = true
	}
}

// MarkDirty sets the given field bits for component t on h and raises the
// dirty marker. It reports false when t cannot be replicated.
func (r *Registry) MarkDirty(h ecs.EntityHandle, t ComponentType, fields ...uint) bool {
	flags := r.GetOrCreateReplicationFlags(h, t)
	if flags == nil {
		return false
	}
	for _, f := range fields {
		flags.Set(f)
	}
	r.NotifyReplicationFlagsDirtied()
	return true
}

func (r *Registry) replicationPool(idx ecs.ReplicationTypeIndex) *ecs.SparsePool[*bitset.BitSet] {
	w := r.currentWorld()
	if w == nil || w.Replication == nil {
		return nil
	}
	pool, _ := w.Replication.Pool(idx)
	return pool
}
