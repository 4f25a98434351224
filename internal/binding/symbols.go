package binding

import "strings"

// ContextID identifies the owning context of an index symbol. Zero means the
// symbol has no context.
type ContextID uint32

// Symbol is one entry of the host's reflection metadata: an opaque index
// together with the raw type name it was generated for.
type Symbol struct {
	Index   int32
	Name    string
	Context ContextID
}

// Context names the type-id context that owns a group of symbols.
type Context struct {
	ID   ContextID
	Name string
}

// SymbolSource is the read-only reflection metadata the registry binds from.
type SymbolSource interface {
	Contexts() []Context
	Symbols() []Symbol
}

// ContextKind buckets symbols by what their index addresses.
type ContextKind int

const (
	ContextUnknown ContextKind = iota
	ContextComponent
	ContextOneFrameComponent
	ContextSystem
	ContextReplication
	ContextStaticData
)

func (k ContextKind) String() string {
	switch k {
	case ContextComponent:
		return "component"
	case ContextOneFrameComponent:
		return "one-frame component"
	case ContextSystem:
		return "system"
	case ContextReplication:
		return "replication"
	case ContextStaticData:
		return "static data"
	default:
		return "unknown"
	}
}

// QuerySpecPrefix marks query symbols independently of their context.
const QuerySpecPrefix = "ecs::query::spec::Spec<"

var contextKinds = map[string]ContextKind{
	"ecs::ComponentTypeIdContext":         ContextComponent,
	"ecs::OneFrameComponentTypeIdContext": ContextOneFrameComponent,
	"ecs::EntityWorld::SystemsContext":    ContextSystem,
	"ecs::sync::ReplicatedTypeContext":    ContextReplication,
	"ls::ImmutableDataHeadmaster":         ContextStaticData,
}

// ClassifyContext maps a raw context name to its kind.
func ClassifyContext(raw string) ContextKind {
	return contextKinds[Normalize(raw)]
}

func isQueryName(name string) bool {
	return strings.HasPrefix(name, QuerySpecPrefix)
}

// StaticSymbols is an in-memory SymbolSource.
type StaticSymbols struct {
	ContextList []Context
	SymbolList  []Symbol
}

func (s *StaticSymbols) Contexts() []Context { return s.ContextList }
func (s *StaticSymbols) Symbols() []Symbol   { return s.SymbolList }
