package system

import (
	"time"

	"github.com/entitybind/entitybind/internal/core/event"
	coresys "github.com/entitybind/entitybind/internal/core/system"
)

// EventDispatchSystem swaps the bus buffers and delivers last tick's events.
// Phase 0 (Events).
type EventDispatchSystem struct {
	bus *event.Bus
}

func NewEventDispatchSystem(bus *event.Bus) *EventDispatchSystem {
	return &EventDispatchSystem{bus: bus}
}

func (s *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhaseEvents }

func (s *EventDispatchSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}
