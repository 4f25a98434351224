package lifecycle

import (
	"go.uber.org/zap"

	"github.com/entitybind/entitybind/internal/binding"
	"github.com/entitybind/entitybind/internal/core/event"
)

// Binder is the part of the binding registry the observer drives.
type Binder interface {
	Rebuild() *binding.Tables
}

// Observer turns host game-state transitions into binding rebuilds:
//   - the first state past early startup binds for the first time;
//   - leaving LoadModule rebinds, since a module load can register types;
//   - entering Init or UnloadSession resets, so the next qualifying state
//     binds again.
//
// A MetadataChanged event rebinds unconditionally. Observer is driven from
// the tick goroutine.
type Observer struct {
	reg   Binder
	bus   *event.Bus
	log   *zap.Logger
	state GameState
	bound bool
}

func NewObserver(reg Binder, bus *event.Bus, log *zap.Logger) *Observer {
	if log == nil {
		log = zap.NewNop()
	}
	o := &Observer{reg: reg, bus: bus, log: log}
	event.Subscribe(bus, func(e event.MetadataChanged) {
		o.rebind("metadata changed: " + e.Source)
	})
	return o
}

func (o *Observer) State() GameState { return o.state }

// Bound reports whether bindings were built since the last reset.
func (o *Observer) Bound() bool { return o.bound }

func (o *Observer) OnGameStateChanged(from, to GameState) {
	o.state = to
	o.log.Info("game state changed",
		zap.Stringer("from", from),
		zap.Stringer("to", to),
		zap.Bool("loading", IsLoadingState(to)))
	event.Emit(o.bus, event.GameStateChanged{From: from.String(), To: to.String()})

	switch to {
	case StateInit, StateUnloadSession:
		o.bound = false
	}

	switch {
	case !o.bound && to != StateUnknown && to != StateStartLoading && to != StateInitMenu:
		o.rebind("post-startup")
	case from == StateLoadModule:
		o.rebind("module loaded")
	}
}

func (o *Observer) rebind(reason string) {
	t := o.reg.Rebuild()
	o.bound = true
	o.log.Debug("rebind", zap.String("reason", reason), zap.Uint64("version", t.Version))
	event.Emit(o.bus, event.BindingsRebuilt{Version: t.Version, Missing: len(t.Missing)})
}
