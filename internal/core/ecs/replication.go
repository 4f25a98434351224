package ecs

import "github.com/bits-and-blooms/bitset"

// Replication holds, per replicated type, the set of entities whose fields
// changed since the last sync, with one bit per changed field.
type Replication struct {
	ComponentPools []*SparsePool[*bitset.BitSet]
	Dirty          bool
}

func NewReplication(types int) *Replication {
	r := &Replication{ComponentPools: make([]*SparsePool[*bitset.BitSet], types)}
	for i := range r.ComponentPools {
		r.ComponentPools[i] = NewSparsePool[*bitset.BitSet]()
	}
	return r
}

// Pool returns the flag pool of a replicated type.
func (r *Replication) Pool(t ReplicationTypeIndex) (*SparsePool[*bitset.BitSet], bool) {
	if int(t) >= len(r.ComponentPools) {
		return nil, false
	}
	return r.ComponentPools[t], true
}

func (r *Replication) Remove(h EntityHandle) {
	for _, p := range r.ComponentPools {
		p.Remove(h)
	}
}

// Sync drains every flag set and clears Dirty. It returns the number of
// entity entries that were pending.
func (r *Replication) Sync() int {
	n := 0
	for _, p := range r.ComponentPools {
		n += p.Len()
		p.Clear()
	}
	r.Dirty = false
	return n
}
