package ecs

import (
	"encoding/binary"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/entitybind/entitybind/internal/core/mem"
)

const (
	typeHealth    ComponentTypeIndex = 3
	typeName      ComponentTypeIndex = 7
	typeTransient ComponentTypeIndex = 11
)

func newTestWorld(t *testing.T) (*EntityWorld, *EntityClass) {
	t.Helper()
	w := NewWorld(6)
	c, err := w.AddClass(ClassDef{
		Name: "character",
		Components: []ComponentDef{
			{Type: typeHealth, Layout: Inline{Size: 8}},
			{Type: typeName, Layout: Proxy{}},
		},
	})
	require.NoError(t, err)
	return w, c
}

func TestEntityHandleRoundTrip(t *testing.T) {
	h := NewEntityHandle(5, uint64(9)<<32|123)
	require.Equal(t, uint32(5), h.Class())
	require.Equal(t, uint32(123), h.Index())
	require.Equal(t, uint32(9), h.Salt())
	require.False(t, h.IsNull())
	require.True(t, NullHandle.IsNull())
	require.Equal(t, "Entity(5:123@9)", h.String())
}

func TestWorldValidatorSoundness(t *testing.T) {
	w, c := newTestWorld(t)

	h, err := w.CreateEntity(c.Index())
	require.NoError(t, err)
	require.True(t, w.IsValid(h))
	require.Same(t, c, w.GetEntityClass(h))

	require.True(t, w.DestroyEntity(h))
	require.False(t, w.IsValid(h))
	require.Nil(t, w.GetEntityClass(h))
	require.False(t, w.DestroyEntity(h))

	reused, err := w.CreateEntity(c.Index())
	require.NoError(t, err)
	require.Equal(t, h.Index(), reused.Index())
	require.NotEqual(t, h, reused)
	require.False(t, w.IsValid(h))
	require.True(t, w.IsValid(reused))
}

func TestWorldRejectsOutOfRangeHandles(t *testing.T) {
	w, c := newTestWorld(t)
	h, err := w.CreateEntity(c.Index())
	require.NoError(t, err)

	require.False(t, w.IsValid(NullHandle))
	require.False(t, w.IsValid(NewEntityHandle(MaxEntityClasses, uint64(h.Salt())<<32|uint64(h.Index()))))
	require.False(t, w.IsValid(NewEntityHandle(1, uint64(h.Salt())<<32|uint64(h.Index()))))
	require.False(t, w.IsValid(NewEntityHandle(0, uint64(h.Salt())<<32|100000)))
	require.False(t, w.IsValid(NewEntityHandle(0, uint64(h.Salt()+1)<<32|uint64(h.Index()))))

	_, err = w.CreateEntity(9)
	require.ErrorIs(t, err, ErrNoSuchClass)
}

func TestWorldClassLimit(t *testing.T) {
	w := NewWorld(2)
	for i := 0; i < MaxEntityClasses; i++ {
		_, err := w.AddClass(ClassDef{Name: "c"})
		require.NoError(t, err)
	}
	_, err := w.AddClass(ClassDef{Name: "overflow"})
	require.ErrorIs(t, err, ErrTooManyClasses)
}

func TestAddClassRejectsDuplicateTypes(t *testing.T) {
	w := NewWorld(2)
	_, err := w.AddClass(ClassDef{Name: "dup", Components: []ComponentDef{
		{Type: 1, Layout: Inline{Size: 4}},
		{Type: 1, Layout: Proxy{}},
	}})
	require.Error(t, err)
}

func TestGetRawComponentInlineAndProxy(t *testing.T) {
	w, c := newTestWorld(t)
	a, _ := w.CreateEntity(c.Index())
	b, _ := w.CreateEntity(c.Index())

	binary.LittleEndian.PutUint64(c.HostComponent(b, typeHealth).Bytes(), 77)
	hp := w.GetRawComponent(b, typeHealth, Inline{Size: 8})
	require.Equal(t, uint64(77), binary.LittleEndian.Uint64(hp.Bytes()))
	require.Equal(t, 8, hp.Offset())

	name := mem.WrapBuffer("name", []byte("Shadowheart"))
	require.NoError(t, c.SetProxy(a, typeName, name.Whole()))
	require.Equal(t, name.Whole(), w.GetRawComponent(a, typeName, Proxy{}))

	require.ErrorIs(t, c.SetProxy(a, typeHealth, name.Whole()), ErrNotProxy)
	require.ErrorIs(t, c.SetProxy(a, typeTransient, name.Whole()), ErrUnknownComponent)

	require.True(t, w.GetRawComponent(b, typeName, Proxy{}).IsNil())
	require.True(t, w.GetRawComponent(a, typeTransient, Inline{Size: 4}).IsNil())
}

func TestGetRawComponentPrecedence(t *testing.T) {
	w, c := newTestWorld(t)
	h, _ := w.CreateEntity(c.Index())

	primary := mem.NewBuffer("primary", 8).Whole()
	transient := mem.NewBuffer("transient", 8).Whole()
	w.Primary.Register(typeHealth, 8)
	w.Transient.Register(typeHealth, 8)
	require.NoError(t, w.Primary.Set(h, typeHealth, primary))
	require.NoError(t, w.Transient.Set(h, typeHealth, transient))

	local := c.HostComponent(h, typeHealth)
	require.Equal(t, local, w.GetRawComponent(h, typeHealth, Inline{Size: 8}))

	w.Primary.Register(typeTransient, 8)
	w.Transient.Register(typeTransient, 8)
	require.NoError(t, w.Transient.Set(h, typeTransient, transient))
	require.Equal(t, transient, w.GetRawComponent(h, typeTransient, Inline{Size: 8}))

	require.NoError(t, w.Primary.Set(h, typeTransient, primary))
	require.Equal(t, primary, w.GetRawComponent(h, typeTransient, Inline{Size: 8}))
}

func TestGlobalPoolsServeClasslessHandles(t *testing.T) {
	w := NewWorld(2)
	ref := mem.NewBuffer("x", 4).Whole()
	h := NewEntityHandle(3, 1<<32|5)

	require.ErrorIs(t, w.Primary.Set(h, typeHealth, ref), ErrUnknownComponent)
	w.Primary.Register(typeHealth, 4)
	require.NoError(t, w.Primary.Set(h, typeHealth, ref))
	require.Equal(t, ref, w.GetRawComponent(h, typeHealth, Inline{Size: 4}))
	require.Equal(t, []ComponentTypeIndex{typeHealth}, w.Primary.Types())
}

func TestDestroyClearsStoresAndStorage(t *testing.T) {
	w, c := newTestWorld(t)
	w.EnableReplication(2)
	h, _ := w.CreateEntity(c.Index())

	binary.LittleEndian.PutUint64(c.HostComponent(h, typeHealth).Bytes(), 5)
	w.Transient.Register(typeTransient, 4)
	require.NoError(t, w.Transient.Set(h, typeTransient, mem.NewBuffer("t", 4).Whole()))
	pool, _ := w.Replication.Pool(1)
	pool.Set(h, nil)

	w.MarkForDestruction(h)
	w.MarkForDestruction(h)
	require.True(t, w.IsValid(h))
	require.Equal(t, 1, w.FlushDestroyQueue())
	require.False(t, w.IsValid(h))

	_, found := w.Transient.Find(h, typeTransient)
	require.False(t, found)
	require.False(t, pool.Has(h))

	again, _ := w.CreateEntity(c.Index())
	require.Equal(t, h.Index(), again.Index())
	require.Equal(t, uint64(0), binary.LittleEndian.Uint64(c.HostComponent(again, typeHealth).Bytes()))
}

func TestInstancesInSlotOrderAcrossPages(t *testing.T) {
	w := NewWorld(1)
	c, err := w.AddClass(ClassDef{Name: "item", Components: []ComponentDef{{Type: typeHealth, Layout: Inline{Size: 4}}}})
	require.NoError(t, err)

	var hs []EntityHandle
	for i := 0; i < 5; i++ {
		h, err := w.CreateEntity(c.Index())
		require.NoError(t, err)
		binary.LittleEndian.PutUint32(c.HostComponent(h, typeHealth).Bytes(), uint32(i))
		hs = append(hs, h)
	}
	require.True(t, w.DestroyEntity(hs[1]))

	inst := c.Instances()
	require.Len(t, inst, 4)
	for i := 1; i < len(inst); i++ {
		require.Less(t, inst[i-1].Index(), inst[i].Index())
	}
	for _, h := range inst {
		require.True(t, w.IsValid(h))
	}
	require.Equal(t, 4, c.Len())
}

func TestUuidMappingLookup(t *testing.T) {
	m := map[uuid.UUID]EntityHandle{}
	for i := 0; i < 20; i++ {
		m[uuid.New()] = NewEntityHandle(1, uint64(i+1)<<32|uint64(i))
	}
	view := NewUuidMappingView(mem.WrapBuffer("uuids", EncodeUuidMappings(m)).Whole())
	require.Equal(t, 20, view.Len())

	for id, h := range m {
		got, ok := view.Lookup(id)
		require.True(t, ok)
		require.Equal(t, h, got)
	}
	_, ok := view.Lookup(uuid.New())
	require.False(t, ok)

	empty := NewUuidMappingView(mem.Ref{})
	_, ok = empty.Lookup(uuid.New())
	require.False(t, ok)
}

func TestReplicationSyncClearsDirty(t *testing.T) {
	r := NewReplication(2)
	pool, ok := r.Pool(0)
	require.True(t, ok)
	pool.Set(NewEntityHandle(0, 1<<32), nil)
	r.Dirty = true

	require.Equal(t, 1, r.Sync())
	require.False(t, r.Dirty)
	require.Zero(t, pool.Len())

	_, ok = r.Pool(5)
	require.False(t, ok)
}

func TestEnableReplicationReplacesStore(t *testing.T) {
	w, c := newTestWorld(t)
	first := w.EnableReplication(1)
	second := w.EnableReplication(2)
	require.Equal(t, []string{"primary", "transient", "replication"}, w.Stores().Names())

	h, _ := w.CreateEntity(c.Index())
	stale, _ := first.Pool(0)
	stale.Set(h, nil)
	current, _ := second.Pool(1)
	current.Set(h, nil)

	require.True(t, w.DestroyEntity(h))
	require.False(t, current.Has(h))
	require.True(t, stale.Has(h))
}
