package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/entitybind/entitybind/internal/core/ecs"
	coresys "github.com/entitybind/entitybind/internal/core/system"
)

// CleanupSystem flushes the deferred entity destruction queue at tick end.
// Phase 3 (Cleanup).
type CleanupSystem struct {
	world *ecs.EntityWorld
	log   *zap.Logger
}

func NewCleanupSystem(world *ecs.EntityWorld, log *zap.Logger) *CleanupSystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &CleanupSystem{world: world, log: log}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	if n := s.world.FlushDestroyQueue(); n > 0 {
		s.log.Debug("destroyed queued entities", zap.Int("count", n))
	}
}
