package ecs

import "github.com/entitybind/entitybind/internal/core/mem"

// QueryClass is one candidate class of a query with the class-local buffer
// slots of the query's component types.
type QueryClass struct {
	Class          *EntityClass
	ComponentSlots []uint8
}

func (qc QueryClass) ComponentSlot(i int) uint8 {
	return qc.ComponentSlots[i]
}

// Query is a host-registered filter over entity classes. Its candidate list
// follows class registration order; first-match and all-match results are
// ordered by class then slot and nothing more.
type Query struct {
	name    string
	types   []ComponentTypeIndex
	classes []QueryClass
}

func (q *Query) Name() string                { return q.name }
func (q *Query) Types() []ComponentTypeIndex { return q.types }
func (q *Query) Classes() []QueryClass       { return q.classes }

func (q *Query) match(c *EntityClass) {
	if len(q.types) == 0 {
		return
	}
	slots := make([]uint8, len(q.types))
	for i, t := range q.types {
		slot, ok := c.ComponentSlot(t)
		if !ok {
			return
		}
		slots[i] = slot
	}
	q.classes = append(q.classes, QueryClass{Class: c, ComponentSlots: slots})
}

// GetFirstMatchingComponent returns the first query component of the first
// instance of the first non-empty candidate class.
func (q *Query) GetFirstMatchingComponent(layout Layout) mem.Ref {
	for _, qc := range q.classes {
		if qc.Class.Len() == 0 {
			continue
		}
		var ref mem.Ref
		qc.Class.each(func(h EntityHandle) bool {
			ref = qc.Class.componentAt(qc.Class.locate(h.Index()), qc.ComponentSlot(0), layout)
			return false
		})
		return ref
	}
	return mem.Ref{}
}

// GetAllMatchingComponents returns the first query component of every
// instance of every candidate class.
func (q *Query) GetAllMatchingComponents(layout Layout) []mem.Ref {
	var hits []mem.Ref
	for _, qc := range q.classes {
		slot := qc.ComponentSlot(0)
		qc.Class.each(func(h EntityHandle) bool {
			hits = append(hits, qc.Class.componentAt(qc.Class.locate(h.Index()), slot, layout))
			return true
		})
	}
	return hits
}

// Handles returns every matching instance handle.
func (q *Query) Handles() []EntityHandle {
	var out []EntityHandle
	for _, qc := range q.classes {
		out = append(out, qc.Class.Instances()...)
	}
	return out
}
