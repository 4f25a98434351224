package ecs

// StoreSet tracks every handle-keyed store of a world under a name so that
// destroying an entity clears it everywhere. Registering a name again
// replaces the previous store.
type StoreSet struct {
	names  []string
	stores []Removable
}

func (s *StoreSet) Register(name string, store Removable) {
	for i, n := range s.names {
		if n == name {
			s.stores[i] = store
			return
		}
	}
	s.names = append(s.names, name)
	s.stores = append(s.stores, store)
}

// Names lists registered stores in registration order.
func (s *StoreSet) Names() []string { return s.names }

// RemoveAll clears h from every registered store.
func (s *StoreSet) RemoveAll(h EntityHandle) {
	for _, st := range s.stores {
		st.Remove(h)
	}
}
