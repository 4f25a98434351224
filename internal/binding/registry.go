package binding

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/entitybind/entitybind/internal/core/ecs"
	"github.com/entitybind/entitybind/internal/core/mem"
)

// Options configures a Registry.
type Options struct {
	Catalog    *Catalog
	Symbols    SymbolSource
	World      func() *ecs.EntityWorld
	CheckLevel CheckLevel
	Logger     *zap.Logger
}

// Registry maps the engine's semantic types onto the raw indices the host
// assigned in the current build. Tables are rebuilt from scratch on every
// Rebuild and published atomically, so lookups on other goroutines always
// see one complete table set.
type Registry struct {
	catalog *Catalog
	world   func() *ecs.EntityWorld
	level   CheckLevel
	log     *zap.Logger

	mu      sync.Mutex // serializes Rebuild and SetSymbols
	symbols SymbolSource

	tables  atomic.Pointer[Tables]
	version atomic.Uint64
	checked atomic.Bool
}

func NewRegistry(opts Options) *Registry {
	if opts.Catalog == nil {
		opts.Catalog = DefaultCatalog
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	r := &Registry{
		catalog: opts.Catalog,
		world:   opts.World,
		level:   opts.CheckLevel,
		log:     opts.Logger,
		symbols: opts.Symbols,
	}
	r.tables.Store(newTables(r.catalog))
	return r
}

func (r *Registry) Catalog() *Catalog     { return r.catalog }
func (r *Registry) CheckLevel() CheckLevel { return r.level }

// Version is the version stamped on the currently published tables. Zero
// means nothing has been bound yet.
func (r *Registry) Version() uint64 { return r.Tables().Version }

// Tables returns the currently published index tables.
func (r *Registry) Tables() *Tables { return r.tables.Load() }

// SetSymbols replaces the metadata source used by the next Rebuild.
func (r *Registry) SetSymbols(src SymbolSource) {
	r.mu.Lock()
	r.symbols = src
	r.mu.Unlock()
}

// Rebuild discards all previous bindings, binds every classified symbol of
// the current metadata and maps the catalog onto the result. Missing names
// leave only their own entry undefined.
func (r *Registry) Rebuild() *Tables {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := newTables(r.catalog)
	if r.symbols != nil {
		r.bindSymbols(t, r.symbols)
	}
	t.mapCatalog(r.catalog, r.log)
	t.Version = r.version.Add(1)

	r.tables.Store(t)
	r.checked.Store(false)

	r.log.Info("bindings rebuilt",
		zap.Uint64("version", t.Version),
		zap.Int("components", len(t.componentNames)),
		zap.Int("queries", len(t.queryNames)),
		zap.Int("systems", len(t.systemNames)),
		zap.Int("static_data", len(t.staticNames)),
		zap.Int("missing", len(t.Missing)))
	return t
}

func (r *Registry) bindSymbols(t *Tables, src SymbolSource) {
	kinds := make(map[ContextID]ContextKind)
	for _, c := range src.Contexts() {
		kind := ClassifyContext(c.Name)
		if kind == ContextUnknown {
			continue
		}
		kinds[c.ID] = kind
	}

	for _, s := range src.Symbols() {
		name := Normalize(s.Name)
		if isQueryName(name) {
			bindNamed(t.queryNames, t.queryIndexNames, name, s.Index)
			continue
		}
		switch kind := kinds[s.Context]; kind {
		case ContextComponent, ContextOneFrameComponent:
			if r.typeIndexInRange(kind, name, s.Index) {
				t.bindComponent(name, s.Index)
			}
		case ContextReplication:
			if r.typeIndexInRange(kind, name, s.Index) {
				t.bindReplication(name, s.Index)
			}
		case ContextSystem:
			bindNamed(t.systemNames, t.systemIndexName, name, s.Index)
		case ContextStaticData:
			bindNamed(t.staticNames, t.staticIndexName, name, s.Index)
		}
	}
}

// typeIndexInRange reports whether a component or replication index fits the
// 16-bit type index without colliding with the undefined marker.
func (r *Registry) typeIndexInRange(kind ContextKind, name string, index int32) bool {
	if index >= 0 && index < int32(ecs.UndefinedComponent) {
		return true
	}
	r.log.Warn("type index out of range",
		zap.Stringer("context", kind),
		zap.String("name", name),
		zap.Int32("index", index))
	return false
}

func (r *Registry) currentWorld() *ecs.EntityWorld {
	if r.world == nil {
		return nil
	}
	return r.world()
}

// ComponentMeta returns the current binding of t.
func (r *Registry) ComponentMeta(t ComponentType) ComponentMeta {
	return r.Tables().Component(t)
}

// GetRawComponent resolves component t of entity h in the host world. The
// null Ref means the type is unbound, the handle is stale, or the entity has
// no such component.
func (r *Registry) GetRawComponent(h ecs.EntityHandle, t ComponentType) mem.Ref {
	meta := r.ComponentMeta(t)
	if !meta.Bound() {
		return mem.Ref{}
	}
	w := r.currentWorld()
	if w == nil {
		return mem.Ref{}
	}
	return w.GetRawComponent(h, meta.ComponentIndex, meta.Layout)
}

func (r *Registry) GetRawComponentByGUID(id uuid.UUID, t ComponentType) mem.Ref {
	h, ok := r.GetEntityHandle(id)
	if !ok {
		return mem.Ref{}
	}
	return r.GetRawComponent(h, t)
}

func (r *Registry) GetRawComponentByGUIDString(s string, t ComponentType) mem.Ref {
	id, err := uuid.Parse(s)
	if err != nil {
		return mem.Ref{}
	}
	return r.GetRawComponentByGUID(id, t)
}

// GetEntityHandle finds the entity registered for a GUID through the host's
// mapping component.
func (r *Registry) GetEntityHandle(id uuid.UUID) (ecs.EntityHandle, bool) {
	g := r.catalog.Guid()
	if g == nil {
		return ecs.NullHandle, false
	}
	q := r.GetQuery(g.Query)
	if q == nil {
		return ecs.NullHandle, false
	}
	meta := r.ComponentMeta(g.Component)
	if !meta.Bound() {
		return ecs.NullHandle, false
	}
	ref := q.GetFirstMatchingComponent(meta.Layout)
	if ref.IsNil() {
		return ecs.NullHandle, false
	}
	return ecs.NewUuidMappingView(ref).Lookup(id)
}

func (r *Registry) GetEntityHandleString(s string) (ecs.EntityHandle, bool) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ecs.NullHandle, false
	}
	return r.GetEntityHandle(id)
}

// GetQuery returns the host query bound to t, or nil.
func (r *Registry) GetQuery(t QueryType) *ecs.Query {
	idx := r.Tables().Query(t)
	w := r.currentWorld()
	if idx == UndefinedIndex || w == nil {
		return nil
	}
	q, _ := w.Query(idx)
	return q
}

// GetRawSystem returns the host system bound to t, or nil.
func (r *Registry) GetRawSystem(t SystemType) any {
	idx := r.Tables().System(t)
	w := r.currentWorld()
	if idx == UndefinedIndex || w == nil {
		return nil
	}
	entry, ok := w.System(idx)
	if !ok {
		return nil
	}
	return entry.System
}

// GetRawResourceManager returns the resource bank bound to t, or nil.
func (r *Registry) GetRawResourceManager(t ResourceManagerType) any {
	idx := r.Tables().ResourceManager(t)
	if idx == UndefinedIndex {
		name := ""
		if int(t) < len(r.catalog.Resources()) {
			name = r.catalog.Resources()[t].EngineName
		}
		r.log.Error("resource manager not bound", zap.Uint16("type", uint16(t)), zap.String("name", name))
		return nil
	}
	w := r.currentWorld()
	if w == nil {
		return nil
	}
	mgr, _ := w.ResourceManager(idx)
	return mgr
}

// ComponentTypeOf maps a raw component index back to its semantic type.
func (r *Registry) ComponentTypeOf(idx ecs.ComponentTypeIndex) (ComponentType, bool) {
	ct, ok := r.Tables().componentIndexToType[idx]
	return ct, ok
}

// ComponentTypeOfReplication maps a raw replication index back to its
// semantic type.
func (r *Registry) ComponentTypeOfReplication(idx ecs.ReplicationTypeIndex) (ComponentType, bool) {
	ct, ok := r.Tables().replicationIndexToType[idx]
	return ct, ok
}

// ComponentName returns the normalized name bound to a raw component index,
// or "" when none is.
func (r *Registry) ComponentName(idx ecs.ComponentTypeIndex) string {
	return r.Tables().componentIndexToName[idx]
}

func (r *Registry) QueryName(idx int32) string      { return r.Tables().queryIndexNames[idx] }
func (r *Registry) SystemName(idx int32) string     { return r.Tables().systemIndexName[idx] }
func (r *Registry) StaticDataName(idx int32) string { return r.Tables().staticIndexName[idx] }
