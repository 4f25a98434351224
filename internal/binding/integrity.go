package binding

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/entitybind/entitybind/internal/core/ecs"
	"github.com/entitybind/entitybind/internal/core/mem"
)

// CheckLevel selects how much runtime verification the registry performs.
type CheckLevel int

const (
	CheckNone CheckLevel = iota
	// CheckOnce runs the size check on the first Update after each rebuild.
	CheckOnce
	// CheckAlways runs the size check on every Update.
	CheckAlways
	// CheckFull adds schema validation of transient components and the
	// PostUpdate replication pass.
	CheckFull
)

func (l CheckLevel) String() string {
	switch l {
	case CheckNone:
		return "none"
	case CheckOnce:
		return "once"
	case CheckAlways:
		return "always"
	case CheckFull:
		return "full"
	default:
		return fmt.Sprintf("CheckLevel(%d)", int(l))
	}
}

func ParseCheckLevel(s string) (CheckLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CheckNone, nil
	case "once":
		return CheckOnce, nil
	case "always":
		return CheckAlways, nil
	case "full":
		return CheckFull, nil
	}
	return CheckNone, fmt.Errorf("unknown check level %q", s)
}

var errNoComponent = errors.New("flagged entity has no live component")

// IntegrityKind tells which check produced an IntegrityError.
type IntegrityKind string

const (
	IntegritySize        IntegrityKind = "size"
	IntegrityLayout      IntegrityKind = "layout"
	IntegritySchema      IntegrityKind = "schema"
	IntegrityReplication IntegrityKind = "replication"
)

// IntegrityError reports a disagreement between what the engine expects of a
// component type and what the host world actually stores.
type IntegrityError struct {
	Kind      IntegrityKind
	Component ComponentType
	Name      string
	Class     string
	Entity    ecs.EntityHandle
	Local     int
	Host      int
	Err       error
}

func (e *IntegrityError) Error() string {
	switch e.Kind {
	case IntegritySize:
		return fmt.Sprintf("component %s: local size %d, host size %d", e.Name, e.Local, e.Host)
	case IntegrityLayout:
		return fmt.Sprintf("component %s in class %s: local size %d, host size %d", e.Name, e.Class, e.Local, e.Host)
	default:
		return fmt.Sprintf("component %s of %s: %s: %v", e.Name, e.Entity, e.Kind, e.Err)
	}
}

func (e *IntegrityError) Unwrap() error { return e.Err }

// Update runs the per-tick integrity pass selected by the check level.
func (r *Registry) Update() []*IntegrityError {
	if r.level == CheckNone {
		return nil
	}
	w := r.currentWorld()
	if w == nil {
		return nil
	}
	if r.level == CheckOnce && r.checked.Swap(true) {
		return nil
	}

	t := r.Tables()
	var errs []*IntegrityError
	for _, d := range r.catalog.Components() {
		meta := t.Component(d.Type)
		if !meta.Bound() {
			continue
		}
		errs = append(errs, checkSize(w, d, meta)...)
		if r.level >= CheckFull && d.Schema != nil {
			errs = append(errs, checkTransient(w, d, meta)...)
		}
	}
	r.report(errs)
	return errs
}

func checkSize(w *ecs.EntityWorld, d ComponentDescriptor, meta ComponentMeta) []*IntegrityError {
	var errs []*IntegrityError
	want := meta.Layout.ElementSize()
	if tp, ok := w.Primary.Type(meta.ComponentIndex); ok && tp.ElementSize != want {
		errs = append(errs, &IntegrityError{
			Kind: IntegritySize, Component: d.Type, Name: d.EngineClass,
			Entity: ecs.NullHandle, Local: want, Host: tp.ElementSize,
		})
	}
	for _, c := range w.Classes() {
		for _, def := range c.Components() {
			if def.Type != meta.ComponentIndex {
				continue
			}
			if def.Layout.IsProxy() != meta.Layout.IsProxy() || def.Layout.ElementSize() != want {
				errs = append(errs, &IntegrityError{
					Kind: IntegrityLayout, Component: d.Type, Name: d.EngineClass, Class: c.Name(),
					Entity: ecs.NullHandle, Local: want, Host: def.Layout.ElementSize(),
				})
			}
		}
	}
	return errs
}

func checkTransient(w *ecs.EntityWorld, d ComponentDescriptor, meta ComponentMeta) []*IntegrityError {
	tp, ok := w.Transient.Type(meta.ComponentIndex)
	if !ok {
		return nil
	}
	var errs []*IntegrityError
	for _, h := range tp.Components.Keys() {
		ref, _ := tp.Components.Get(h)
		if err := d.Schema.Validate(ref.Bytes()); err != nil {
			errs = append(errs, &IntegrityError{
				Kind: IntegritySchema, Component: d.Type, Name: d.EngineClass, Entity: h, Err: err,
			})
		}
	}
	return errs
}

// PostUpdate validates every component flagged for replication since the
// last sync. It runs only at CheckFull and only while the host reports dirty
// flags. The dirty marker is left for the host's own sync to clear.
func (r *Registry) PostUpdate() []*IntegrityError {
	if r.level < CheckFull {
		return nil
	}
	w := r.currentWorld()
	if w == nil || w.Replication == nil || !w.Replication.Dirty {
		return nil
	}

	t := r.Tables()
	var errs []*IntegrityError
	for i, pool := range w.Replication.ComponentPools {
		ct, ok := t.replicationIndexToType[ecs.ReplicationTypeIndex(i)]
		if !ok {
			continue
		}
		d, _ := r.catalog.Component(ct)
		meta := t.Component(ct)
		if !meta.Bound() {
			continue
		}
		for _, h := range pool.Keys() {
			ref := w.GetRawComponent(h, meta.ComponentIndex, meta.Layout)
			if err := validateReplicated(d, ref); err != nil {
				errs = append(errs, &IntegrityError{
					Kind: IntegrityReplication, Component: ct, Name: d.EngineClass, Entity: h, Err: err,
				})
			}
		}
	}
	r.report(errs)
	return errs
}

func validateReplicated(d ComponentDescriptor, ref mem.Ref) error {
	if ref.IsNil() {
		return errNoComponent
	}
	return d.Schema.Validate(ref.Bytes())
}

func (r *Registry) report(errs []*IntegrityError) {
	for _, e := range errs {
		r.log.Error("component integrity mismatch",
			zap.String("kind", string(e.Kind)),
			zap.String("component", e.Name),
			zap.Stringer("entity", e.Entity),
			zap.Error(e))
	}
}
