package ecs

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlotPoolFirstAddOnEmptyPool(t *testing.T) {
	p := NewSlotPool(6)
	rec := p.Add()

	require.Equal(t, uint32(0), uint32(rec))
	require.Equal(t, uint32(1), uint32(rec>>32))
	require.Equal(t, uint32(64), p.Cap())
	require.Equal(t, uint32(63), p.NumFree())
}

func TestSlotPoolReleaseReusesSlotWithHigherSalt(t *testing.T) {
	p := NewSlotPool(6)
	first := p.Add()
	h := NewEntityHandle(0, first)

	require.True(t, p.Release(h.Index(), h.Salt()))
	again := p.Add()
	h2 := NewEntityHandle(0, again)

	require.Equal(t, uint32(0), h2.Index())
	require.Greater(t, h2.Salt(), h.Salt())
	require.False(t, p.Owns(h.Index(), h.Salt()))
	require.True(t, p.Owns(h2.Index(), h2.Salt()))
}

func TestSlotPoolRejectsStaleAndDoubleRelease(t *testing.T) {
	p := NewSlotPool(2)
	h := NewEntityHandle(0, p.Add())

	require.True(t, p.Release(h.Index(), h.Salt()))
	require.False(t, p.Release(h.Index(), h.Salt()))
	require.False(t, p.Release(99, 1))
}

func TestSlotPoolGrowsByOneBucketBeforeRunningLow(t *testing.T) {
	p := NewSlotPool(3) // 8 slots, grow when fewer than 4 free
	for i := 0; i < 4; i++ {
		p.Add()
	}
	require.Equal(t, 1, p.NumBuckets())
	require.Equal(t, uint32(4), p.NumFree())

	p.Add()
	require.Equal(t, 1, p.NumBuckets())
	require.Equal(t, uint32(3), p.NumFree())

	p.Add()
	require.Equal(t, 2, p.NumBuckets())
	require.Equal(t, uint32(10), p.NumFree())
}

func TestSlotPoolFreeSlotsDoNotValidate(t *testing.T) {
	p := NewSlotPool(2)
	p.Add()
	for slot := uint32(1); slot < p.Len(); slot++ {
		require.False(t, p.Owns(slot, 1), "free slot %d", slot)
	}
}

func TestSlotPoolCapacityInvariant(t *testing.T) {
	for _, bits := range []uint{1, 2, 4, 6} {
		p := NewSlotPool(bits)
		for n := uint32(1); n <= 500; n++ {
			p.Add()
			require.GreaterOrEqual(t, p.Cap(), n)
			require.Zero(t, p.Cap()%p.BucketSize())
			require.Equal(t, p.Cap(), p.Len())
		}
	}
}

func TestSlotPoolRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	p := NewSlotPool(2)

	live := map[uint32]uint32{}
	var retired []EntityHandle

	for step := 0; step < 5000; step++ {
		if len(live) == 0 || rng.Intn(3) > 0 {
			h := NewEntityHandle(0, p.Add())
			_, taken := live[h.Index()]
			require.False(t, taken, "slot %d handed out twice", h.Index())
			live[h.Index()] = h.Salt()
		} else {
			for slot, salt := range live {
				require.True(t, p.Release(slot, salt))
				retired = append(retired, NewEntityHandle(0, uint64(salt)<<32|uint64(slot)))
				delete(live, slot)
				break
			}
		}

		require.Equal(t, p.NumFree(), p.freeChainLen())
		require.Equal(t, p.Len(), p.NumFree()+uint32(len(live)))
	}

	for slot, salt := range live {
		require.True(t, p.Owns(slot, salt))
	}
	for _, h := range retired {
		require.False(t, p.Owns(h.Index(), h.Salt()), "retired handle %v still resolves", h)
	}
}

func TestSlotPoolGenerationStrictlyIncreases(t *testing.T) {
	p := NewSlotPool(1)
	var last uint32
	for i := 0; i < 50; i++ {
		h := NewEntityHandle(0, p.Add())
		gen, ok := p.Generation(h.Index())
		require.True(t, ok)
		if h.Index() == 0 {
			require.Greater(t, gen, last)
			last = gen
		}
		require.True(t, p.Release(h.Index(), h.Salt()))
	}
}

func TestSlotPoolBucketBitsClamped(t *testing.T) {
	require.Equal(t, uint32(2), NewSlotPool(0).BucketSize())
	require.Equal(t, uint(maxBucketBits), NewSlotPool(40).BucketBits())
}
