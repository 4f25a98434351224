package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseEvents     Phase = iota // 0: swap and dispatch last tick's events
	PhaseUpdate                  // 1: integrity checks against the host world
	PhasePostUpdate              // 2: replication flag validation
	PhaseCleanup                 // 3: destroy queued entities
)

func (p Phase) String() string {
	switch p {
	case PhaseEvents:
		return "events"
	case PhaseUpdate:
		return "update"
	case PhasePostUpdate:
		return "post-update"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// System is the interface every engine system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
