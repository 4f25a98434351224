package ecs

const (
	genMask uint64 = 0xffffffff00000000
	// noSlot terminates the free chain; no live record ever carries it.
	noSlot uint32 = 0xffffffff

	minBucketBits = 1
	maxBucketBits = 16
)

// SlotPool is a bucketed generational free-list allocator. Each record packs
// the slot generation in the high word and, while free, the next free slot
// in the low word. An allocated record stores its own index in the low word.
type SlotPool struct {
	bitsPerBucket uint
	buckets       [][]uint64
	used          uint32
	numFree       uint32
	nextFree      uint32
	tail          uint32
}

func NewSlotPool(bitsPerBucket uint) *SlotPool {
	if bitsPerBucket < minBucketBits {
		bitsPerBucket = minBucketBits
	}
	if bitsPerBucket > maxBucketBits {
		bitsPerBucket = maxBucketBits
	}
	return &SlotPool{bitsPerBucket: bitsPerBucket, nextFree: noSlot, tail: noSlot}
}

func (p *SlotPool) BucketSize() uint32 { return 1 << p.bitsPerBucket }
func (p *SlotPool) BucketBits() uint   { return p.bitsPerBucket }
func (p *SlotPool) NumBuckets() int    { return len(p.buckets) }
func (p *SlotPool) NumFree() uint32    { return p.numFree }

// Len is the number of materialized slot records (the salt table size).
func (p *SlotPool) Len() uint32 { return p.used }

// Cap is the number of slots the current buckets can hold.
func (p *SlotPool) Cap() uint32 { return uint32(len(p.buckets)) << p.bitsPerBucket }

func (p *SlotPool) at(slot uint32) *uint64 {
	return &p.buckets[slot>>p.bitsPerBucket][slot&(p.BucketSize()-1)]
}

// Add pops the free-list head and returns its record. The pool grows by one
// bucket first whenever fewer than half a bucket of slots remain free.
func (p *SlotPool) Add() uint64 {
	if p.numFree == 0 || p.numFree < p.BucketSize()/2 {
		p.grow()
	}

	p.numFree--
	slot := p.nextFree
	rec := p.at(slot)
	p.nextFree = uint32(*rec)
	*rec = *rec&genMask | uint64(slot)
	if p.numFree == 0 {
		p.nextFree, p.tail = noSlot, noSlot
	}
	return *rec
}

func (p *SlotPool) grow() {
	size := p.BucketSize()
	p.buckets = append(p.buckets, make([]uint64, size))

	for i := uint32(0); i < size; i++ {
		slot := p.used
		p.used++
		*p.at(slot) = 1<<32 | uint64(noSlot)

		if p.numFree > 0 {
			tail := p.at(p.tail)
			*tail = *tail&genMask | uint64(slot)
		} else {
			p.nextFree = slot
		}
		p.tail = slot
		p.numFree++
	}
}

// Record returns the raw record of slot, bounds-checked against Len.
func (p *SlotPool) Record(slot uint32) (uint64, bool) {
	if slot >= p.used {
		return 0, false
	}
	return *p.at(slot), true
}

// Owns reports whether slot is allocated with the given salt.
func (p *SlotPool) Owns(slot, salt uint32) bool {
	rec, ok := p.Record(slot)
	if !ok {
		return false
	}
	return uint32(rec) == slot && uint32(rec>>32)&saltMask == salt&saltMask
}

// Release returns an allocated slot to the pool. The slot generation is
// bumped so every handle minted for the previous generation goes stale, and
// the slot becomes the next one handed out. Stale or double releases are
// rejected.
func (p *SlotPool) Release(slot, salt uint32) bool {
	if !p.Owns(slot, salt) {
		return false
	}

	rec := p.at(slot)
	gen := uint32(*rec>>32) + 1
	if gen&saltMask == 0 {
		gen++
	}

	next := p.nextFree
	if p.numFree == 0 {
		next = noSlot
		p.tail = slot
	}
	*rec = uint64(gen)<<32 | uint64(next)
	p.nextFree = slot
	p.numFree++
	return true
}

// Generation returns the full generation counter stored for slot.
func (p *SlotPool) Generation(slot uint32) (uint32, bool) {
	rec, ok := p.Record(slot)
	return uint32(rec >> 32), ok
}

func (p *SlotPool) freeChainLen() uint32 {
	var n uint32
	for slot := p.nextFree; slot != noSlot && n <= p.used; n++ {
		slot = uint32(*p.at(slot))
	}
	return n
}
