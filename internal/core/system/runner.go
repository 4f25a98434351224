package system

import (
	"time"

	"go.uber.org/zap"
)

const phaseCount = int(PhaseCleanup) + 1

// Runner executes systems in phase order each tick. Systems sharing a phase
// run in registration order.
type Runner struct {
	phases [phaseCount][]System

	last time.Duration
	slow time.Duration
	log  *zap.Logger
}

func NewRunner() *Runner {
	return &Runner{log: zap.NewNop()}
}

// WarnSlowTicks logs a warning for every tick that takes longer than
// threshold. Zero disables the warning.
func (r *Runner) WarnSlowTicks(threshold time.Duration, log *zap.Logger) {
	r.slow = threshold
	if log != nil {
		r.log = log
	}
}

// Register adds s to the end of its phase. It panics on a phase outside the
// known range.
func (r *Runner) Register(s System) {
	p := s.Phase()
	if p < PhaseEvents || int(p) >= phaseCount {
		panic("system: unknown phase " + p.String())
	}
	r.phases[p] = append(r.phases[p], s)
}

// Len returns the number of systems registered for a phase.
func (r *Runner) Len(p Phase) int {
	if p < PhaseEvents || int(p) >= phaseCount {
		return 0
	}
	return len(r.phases[p])
}

func (r *Runner) Tick(dt time.Duration) {
	start := time.Now()
	for p := range r.phases {
		for _, s := range r.phases[p] {
			s.Update(dt)
		}
	}
	r.last = time.Since(start)
	if r.slow > 0 && r.last > r.slow {
		r.log.Warn("slow tick", zap.Duration("took", r.last), zap.Duration("budget", r.slow))
	}
}

// TickPhase runs only the systems of one phase.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	if phase < PhaseEvents || int(phase) >= phaseCount {
		return
	}
	for _, s := range r.phases[phase] {
		s.Update(dt)
	}
}

// LastTick is the wall time the previous Tick took.
func (r *Runner) LastTick() time.Duration { return r.last }
