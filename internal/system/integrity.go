package system

import (
	"time"

	"github.com/entitybind/entitybind/internal/binding"
	coresys "github.com/entitybind/entitybind/internal/core/system"
)

// IntegritySystem runs the registry's per-tick integrity pass. The registry
// logs each mismatch itself; the system only keeps a running total.
// Phase 1 (Update).
type IntegritySystem struct {
	reg    *binding.Registry
	issues int
}

func NewIntegritySystem(reg *binding.Registry) *IntegritySystem {
	return &IntegritySystem{reg: reg}
}

func (s *IntegritySystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *IntegritySystem) Update(_ time.Duration) {
	s.issues += len(s.reg.Update())
}

// Issues is the number of mismatches reported since startup.
func (s *IntegritySystem) Issues() int { return s.issues }

// ReplicationCheckSystem validates components flagged for replication.
// Phase 2 (PostUpdate).
type ReplicationCheckSystem struct {
	reg    *binding.Registry
	issues int
}

func NewReplicationCheckSystem(reg *binding.Registry) *ReplicationCheckSystem {
	return &ReplicationCheckSystem{reg: reg}
}

func (s *ReplicationCheckSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *ReplicationCheckSystem) Update(_ time.Duration) {
	s.issues += len(s.reg.PostUpdate())
}

func (s *ReplicationCheckSystem) Issues() int { return s.issues }
