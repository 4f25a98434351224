package binding

import (
	"encoding/binary"
	"maps"
	"slices"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/entitybind/entitybind/internal/core/ecs"
	"github.com/entitybind/entitybind/internal/core/mem"
)

const (
	ctxComponent ContextID = iota + 1
	ctxOneFrame
	ctxSystems
	ctxReplication
	ctxStatic
	ctxOther
)

const (
	rawMapping     ecs.ComponentTypeIndex = 12
	rawDisplayName ecs.ComponentTypeIndex = 13
	rawHealth      ecs.ComponentTypeIndex = 40
	rawLevel       ecs.ComponentTypeIndex = 41
	rawDamage      ecs.ComponentTypeIndex = 50
)

func typeName(kind, name string) string {
	return "class ls::_StringView<char> __cdecl ls::GetTypeName<" + kind + " " + name + ">(void)"
}

func testSymbols() *StaticSymbols {
	return &StaticSymbols{
		ContextList: []Context{
			{ID: ctxComponent, Name: typeName("struct", "ecs::ComponentTypeIdContext")},
			{ID: ctxOneFrame, Name: typeName("struct", "ecs::OneFrameComponentTypeIdContext")},
			{ID: ctxSystems, Name: typeName("struct", "ecs::EntityWorld::SystemsContext")},
			{ID: ctxReplication, Name: typeName("struct", "ecs::sync::ReplicatedTypeContext")},
			{ID: ctxStatic, Name: typeName("class", "ls::ImmutableDataHeadmaster")},
			{ID: ctxOther, Name: typeName("struct", "ecs::SomethingElse")},
		},
		SymbolList: []Symbol{
			{Index: int32(rawMapping), Name: typeName("struct", "ls::uuid::ToHandleMappingComponent"), Context: ctxComponent},
			{Index: int32(rawDisplayName), Name: typeName("struct", "eoc::DisplayNameComponent"), Context: ctxComponent},
			{Index: int32(rawHealth), Name: typeName("struct", "eoc::HealthComponent"), Context: ctxComponent},
			{Index: int32(rawLevel), Name: typeName("struct", "eoc::LevelComponent"), Context: ctxComponent},
			{Index: int32(rawDamage), Name: typeName("struct", "esv::DamageEventOneFrameComponent"), Context: ctxOneFrame},
			{Index: 2, Name: typeName("struct", "eoc::HealthComponent"), Context: ctxReplication},
			{Index: 0, Name: typeName("struct", UuidMappingQueryName), Context: ctxOther},
			{Index: 0, Name: "class ecs::query::spec::Spec<struct ecs::Nothing>", Context: ctxOther},
			{Index: 1, Name: typeName("class", "ecl::UISystem"), Context: ctxSystems},
			{Index: 3, Name: typeName("class", "resource::Race"), Context: ctxStatic},
			{Index: 9, Name: typeName("struct", "eoc::ArmorComponent"), Context: ctxOther},
		},
	}
}

type fixture struct {
	world   *ecs.EntityWorld
	class   *ecs.EntityClass
	player  ecs.EntityHandle
	guid    uuid.UUID
	uiSys   *struct{ Name string }
	symbols *StaticSymbols
}

func newFixture(t *testing.T, healthLayout ecs.Layout) *fixture {
	t.Helper()
	f := &fixture{
		world:   ecs.NewWorld(4),
		guid:    uuid.MustParse("5f1c7d1e-3a8b-4c52-9d0e-7b6a2c4e8f10"),
		uiSys:   &struct{ Name string }{Name: "ui"},
		symbols: testSymbols(),
	}
	c, err := f.world.AddClass(ecs.ClassDef{Name: "character", Components: []ecs.ComponentDef{
		{Type: rawHealth, Layout: healthLayout},
		{Type: rawLevel, Layout: ecs.Inline{Size: 4}},
		{Type: rawDisplayName, Layout: ecs.Proxy{}},
	}})
	require.NoError(t, err)
	f.class = c

	mapping, err := f.world.AddClass(ecs.ClassDef{Name: "uuid mapping", Components: []ecs.ComponentDef{
		{Type: rawMapping, Layout: ecs.Proxy{}},
	}})
	require.NoError(t, err)

	f.player, err = f.world.CreateEntity(c.Index())
	require.NoError(t, err)
	m, err := f.world.CreateEntity(mapping.Index())
	require.NoError(t, err)

	table := ecs.EncodeUuidMappings(map[uuid.UUID]ecs.EntityHandle{f.guid: f.player})
	require.NoError(t, mapping.SetProxy(m, rawMapping, mem.WrapBuffer("uuids", table).Whole()))

	require.Equal(t, int32(0), f.world.AddQuery("uuid mapping", rawMapping))
	f.world.AddSystem("other", nil)
	require.Equal(t, int32(1), f.world.AddSystem("ui", f.uiSys))
	f.world.SetResourceManager(3, "races")
	f.world.EnableReplication(4)
	return f
}

func (f *fixture) registry(level CheckLevel) *Registry {
	return NewRegistry(Options{
		Catalog:    DefaultCatalog,
		Symbols:    f.symbols,
		World:      func() *ecs.EntityWorld { return f.world },
		CheckLevel: level,
	})
}

func TestRebuildBindsCatalog(t *testing.T) {
	f := newFixture(t, ecs.Inline{Size: 20})
	reg := f.registry(CheckNone)
	require.Zero(t, reg.Version())

	tables := reg.Rebuild()
	require.Equal(t, uint64(1), tables.Version)
	require.Same(t, tables, reg.Tables())

	require.Equal(t, ComponentMeta{
		ComponentIndex:   rawHealth,
		ReplicationIndex: 2,
		Size:             20,
		Layout:           ecs.Inline{Size: 20},
	}, reg.ComponentMeta(ComponentHealth))
	require.Equal(t, ComponentMeta{
		ComponentIndex:   rawDisplayName,
		ReplicationIndex: ecs.UndefinedReplication,
		Layout:           ecs.Proxy{},
	}, reg.ComponentMeta(ComponentDisplayName))
	require.Equal(t, rawDamage, reg.ComponentMeta(ComponentDamageEvent).ComponentIndex)

	require.Equal(t, int32(0), tables.Query(QueryUuidToHandleMapping))
	require.Equal(t, int32(1), tables.System(SystemUI))
	require.Equal(t, int32(3), tables.ResourceManager(ResourceRace))

	require.Equal(t, []string{
		"component ls::uuid::Component",
		"component ls::TransformComponent",
		"component eoc::ArmorComponent",
		"component eoc::StatsComponent",
		"system esv::CharacterManager",
		"resource manager resource::ClassDescription",
		"resource manager resource::Progression",
	}, tables.Missing)
}

func TestRebuildIsIdempotent(t *testing.T) {
	f := newFixture(t, ecs.Inline{Size: 20})
	reg := f.registry(CheckNone)

	first := reg.Rebuild()
	second := reg.Rebuild()
	require.Equal(t, uint64(2), second.Version)
	require.NotSame(t, first, second)

	diff := cmp.Diff(first, second,
		cmp.AllowUnexported(Tables{}),
		cmpopts.IgnoreFields(Tables{}, "Version"))
	require.Empty(t, diff)
}

// withoutComponent copies t with one component's bindings dropped.
func withoutComponent(t *Tables, ct ComponentType, name string, raw ecs.ComponentTypeIndex) *Tables {
	c := *t
	c.Components = slices.Clone(t.Components)
	c.Components[ct] = undefinedMeta
	c.componentNames = maps.Clone(t.componentNames)
	delete(c.componentNames, name)
	c.componentIndexToName = maps.Clone(t.componentIndexToName)
	delete(c.componentIndexToName, raw)
	c.componentIndexToType = maps.Clone(t.componentIndexToType)
	delete(c.componentIndexToType, raw)
	return &c
}

func TestRebuildDiscardsPreviousBindings(t *testing.T) {
	f := newFixture(t, ecs.Inline{Size: 20})
	reg := f.registry(CheckNone)
	before := reg.Rebuild()
	require.True(t, reg.ComponentMeta(ComponentLevel).Bound())

	var kept []Symbol
	for _, s := range f.symbols.SymbolList {
		if Normalize(s.Name) != "eoc::LevelComponent" {
			kept = append(kept, s)
		}
	}
	reg.SetSymbols(&StaticSymbols{ContextList: f.symbols.ContextList, SymbolList: kept})
	after := reg.Rebuild()

	require.False(t, reg.ComponentMeta(ComponentLevel).Bound())
	require.Contains(t, after.Missing, "component eoc::LevelComponent")
	require.True(t, reg.GetRawComponent(f.player, ComponentLevel).IsNil())
	require.False(t, reg.GetRawComponent(f.player, ComponentHealth).IsNil())

	diff := cmp.Diff(withoutComponent(before, ComponentLevel, "eoc::LevelComponent", rawLevel), after,
		cmp.AllowUnexported(Tables{}),
		cmpopts.IgnoreFields(Tables{}, "Version", "Missing"))
	require.Empty(t, diff)
}

func TestRebuildSkipsOutOfRangeTypeIndices(t *testing.T) {
	f := newFixture(t, ecs.Inline{Size: 20})
	for i, s := range f.symbols.SymbolList {
		if Normalize(s.Name) == "eoc::LevelComponent" {
			f.symbols.SymbolList[i].Index = 1<<16 + int32(rawHealth)
		}
	}
	f.symbols.SymbolList = append(f.symbols.SymbolList,
		Symbol{Index: -1, Name: typeName("struct", "eoc::HealthComponent"), Context: ctxReplication},
		Symbol{Index: int32(ecs.UndefinedComponent), Name: typeName("struct", "eoc::DisplayNameComponent"), Context: ctxComponent},
	)
	core, logs := observer.New(zapcore.WarnLevel)
	reg := NewRegistry(Options{
		Symbols: f.symbols,
		World:   func() *ecs.EntityWorld { return f.world },
		Logger:  zap.New(core),
	})
	tables := reg.Rebuild()

	require.False(t, reg.ComponentMeta(ComponentLevel).Bound())
	require.Contains(t, tables.Missing, "component eoc::LevelComponent")
	require.True(t, reg.GetRawComponent(f.player, ComponentLevel).IsNil())

	health := reg.ComponentMeta(ComponentHealth)
	require.Equal(t, rawHealth, health.ComponentIndex)
	require.Equal(t, ecs.ReplicationTypeIndex(2), health.ReplicationIndex)
	require.Equal(t, "eoc::HealthComponent", reg.ComponentName(rawHealth))
	require.Equal(t, rawDisplayName, reg.ComponentMeta(ComponentDisplayName).ComponentIndex)

	require.Equal(t, 3, logs.FilterMessage("type index out of range").Len())
}

func TestOneFrameSymbolOverwritesComponent(t *testing.T) {
	f := newFixture(t, ecs.Inline{Size: 20})
	f.symbols.SymbolList = append(f.symbols.SymbolList,
		Symbol{Index: 60, Name: typeName("struct", "eoc::HealthComponent"), Context: ctxOneFrame},
	)
	reg := f.registry(CheckNone)
	reg.Rebuild()

	require.Equal(t, ecs.ComponentTypeIndex(60), reg.ComponentMeta(ComponentHealth).ComponentIndex)
	require.Equal(t, ecs.ReplicationTypeIndex(2), reg.ComponentMeta(ComponentHealth).ReplicationIndex)
	require.Equal(t, "eoc::HealthComponent", reg.ComponentName(60))
}

func TestDuplicateNamesLastWriteWins(t *testing.T) {
	f := newFixture(t, ecs.Inline{Size: 20})
	f.symbols.SymbolList = append(f.symbols.SymbolList,
		Symbol{Index: 45, Name: "struct eoc::HealthComponent", Context: ctxComponent},
		Symbol{Index: 7, Name: typeName("class", "ecl::UISystem"), Context: ctxSystems},
	)
	reg := f.registry(CheckNone)
	tables := reg.Rebuild()

	require.Equal(t, ecs.ComponentTypeIndex(45), reg.ComponentMeta(ComponentHealth).ComponentIndex)
	require.Equal(t, ecs.ReplicationTypeIndex(2), reg.ComponentMeta(ComponentHealth).ReplicationIndex)
	require.Equal(t, int32(7), tables.System(SystemUI))
}

func TestUnboundLookupsReturnNull(t *testing.T) {
	f := newFixture(t, ecs.Inline{Size: 20})
	reg := f.registry(CheckNone)

	require.False(t, reg.ComponentMeta(ComponentHealth).Bound())
	require.True(t, reg.GetRawComponent(f.player, ComponentHealth).IsNil())
	require.Nil(t, reg.GetQuery(QueryUuidToHandleMapping))
	require.Nil(t, reg.GetRawSystem(SystemUI))
	require.Nil(t, reg.GetRawResourceManager(ResourceRace))
	_, ok := reg.GetEntityHandle(f.guid)
	require.False(t, ok)

	reg.Rebuild()
	require.True(t, reg.GetRawComponent(f.player, ComponentArmor).IsNil())
	require.Nil(t, reg.GetRawSystem(SystemCharacterManager))
	require.Nil(t, reg.GetRawResourceManager(ResourceProgression))
	require.True(t, reg.ComponentMeta(ComponentType(200)).ComponentIndex == ecs.UndefinedComponent)

	noWorld := NewRegistry(Options{Symbols: f.symbols})
	noWorld.Rebuild()
	require.True(t, noWorld.GetRawComponent(f.player, ComponentHealth).IsNil())
	require.Nil(t, noWorld.GetQuery(QueryUuidToHandleMapping))
}

func TestLookupsThroughBinding(t *testing.T) {
	f := newFixture(t, ecs.Inline{Size: 20})
	reg := f.registry(CheckNone)
	reg.Rebuild()

	hp := f.class.HostComponent(f.player, rawHealth)
	binary.LittleEndian.PutUint32(hp.Bytes(), 31)
	require.Equal(t, hp, reg.GetRawComponent(f.player, ComponentHealth))

	h, ok := reg.GetEntityHandle(f.guid)
	require.True(t, ok)
	require.Equal(t, f.player, h)
	h, ok = reg.GetEntityHandleString(f.guid.String())
	require.True(t, ok)
	require.Equal(t, f.player, h)
	_, ok = reg.GetEntityHandleString("not-a-guid")
	require.False(t, ok)
	_, ok = reg.GetEntityHandle(uuid.New())
	require.False(t, ok)

	require.Equal(t, hp, reg.GetRawComponentByGUID(f.guid, ComponentHealth))
	require.Equal(t, hp, reg.GetRawComponentByGUIDString(f.guid.String(), ComponentHealth))
	require.True(t, reg.GetRawComponentByGUIDString("garbage", ComponentHealth).IsNil())

	require.Same(t, f.uiSys, reg.GetRawSystem(SystemUI))
	require.Equal(t, "races", reg.GetRawResourceManager(ResourceRace))
	require.NotNil(t, reg.GetQuery(QueryUuidToHandleMapping))

	require.True(t, f.world.DestroyEntity(f.player))
	require.True(t, reg.GetRawComponent(f.player, ComponentHealth).IsNil())
}

func TestReverseLookups(t *testing.T) {
	f := newFixture(t, ecs.Inline{Size: 20})
	reg := f.registry(CheckNone)
	reg.Rebuild()

	ct, ok := reg.ComponentTypeOf(rawHealth)
	require.True(t, ok)
	require.Equal(t, ComponentHealth, ct)
	ct, ok = reg.ComponentTypeOfReplication(2)
	require.True(t, ok)
	require.Equal(t, ComponentHealth, ct)
	_, ok = reg.ComponentTypeOf(99)
	require.False(t, ok)

	require.Equal(t, "eoc::HealthComponent", reg.ComponentName(rawHealth))
	require.Equal(t, "", reg.ComponentName(99))
	require.Equal(t, "ecs::query::spec::Spec<struct ecs::Nothing>", reg.QueryName(0))
	require.Equal(t, "ecl::UISystem", reg.SystemName(1))
	require.Equal(t, "resource::Race", reg.StaticDataName(3))
}

func TestConcurrentReadersDuringRebuild(t *testing.T) {
	f := newFixture(t, ecs.Inline{Size: 20})
	reg := f.registry(CheckNone)
	reg.Rebuild()
	want := f.class.HostComponent(f.player, rawHealth)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				if got := reg.GetRawComponent(f.player, ComponentHealth); got != want {
					t.Errorf("reader saw %v", got)
					return
				}
			}
		}()
	}
	for i := 0; i < 50; i++ {
		reg.Rebuild()
	}
	wg.Wait()
	require.Equal(t, uint64(51), reg.Version())
}
