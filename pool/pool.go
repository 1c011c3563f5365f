// Package pool implements a generic free-list arena: a slice of slots,
// each carrying a salt that is bumped every time the slot is freed, so a
// stale index captured before a free can be detected instead of
// silently resolving to whatever was allocated into the same slot next.
//
// NavMesh uses it for its shared link pool and its off-mesh connection
// registry; tile slots keep their own free list inside NavMesh.
package pool

import "github.com/arl/assertgo"

// Slot holds one arena entry: the user Value plus the bookkeeping the
// Pool needs to track allocation state and detect stale handles.
type Slot[T any] struct {
	Value     T
	Salt      uint32
	allocated bool
	next      int32 // free-list link when !allocated, -1 if tail
}

// Allocated reports whether this slot currently holds a live value.
func (s *Slot[T]) Allocated() bool { return s.allocated }

// Pool is a generic free-list arena of Slot[T]. The zero value is not
// usable; construct with New.
type Pool[T any] struct {
	slots     []Slot[T]
	freeHead  int32 // -1 when the free list is empty
	allocated int32
}

// New creates an empty Pool with no slots yet allocated. Slots are
// created lazily by Alloc up to max.
func New[T any](max int) *Pool[T] {
	return &Pool[T]{
		slots:    make([]Slot[T], 0, max),
		freeHead: -1,
	}
}

// Cap returns the maximum number of slots this pool may hold.
func (p *Pool[T]) Cap() int { return cap(p.slots) }

// Len returns the number of currently allocated slots.
func (p *Pool[T]) Len() int { return int(p.allocated) }

// Alloc reserves a slot and returns its index and current salt. Salt
// starts at 1 for a never-before-used slot (0 is reserved so a zero
// NodeRef can never be mistaken for a valid handle). Returns ok=false
// if the pool is at capacity.
func (p *Pool[T]) Alloc() (index int32, salt uint32, ok bool) {
	if p.freeHead != -1 {
		index = p.freeHead
		slot := &p.slots[index]
		p.freeHead = slot.next
		slot.allocated = true
		p.allocated++
		return index, slot.Salt, true
	}
	if len(p.slots) >= cap(p.slots) {
		return 0, 0, false
	}
	p.slots = append(p.slots, Slot[T]{Salt: 1, allocated: true})
	p.allocated++
	return int32(len(p.slots) - 1), 1, true
}

// Free releases the slot at index, bumping its salt so any NodeRef
// captured before this call is recognized as stale on the next lookup.
// Salt 0 is skipped on wraparound: it is the sentinel for "never
// allocated" and must never be reissued to a real allocation.
func (p *Pool[T]) Free(index int32) {
	assert.True(index >= 0 && int(index) < len(p.slots), "pool: free out-of-range index %d", index)
	slot := &p.slots[index]
	assert.True(slot.allocated, "pool: double free of index %d", index)

	var zero T
	slot.Value = zero
	slot.allocated = false
	slot.Salt++
	if slot.Salt == 0 {
		slot.Salt = 1
	}
	slot.next = p.freeHead
	p.freeHead = index
	p.allocated--
}

// At returns a pointer to the slot's value and whether it is currently
// allocated with the given salt. A mismatched salt means the handle is
// stale (the slot was freed and reused, or freed and left empty).
func (p *Pool[T]) At(index int32, salt uint32) (*T, bool) {
	if index < 0 || int(index) >= len(p.slots) {
		return nil, false
	}
	slot := &p.slots[index]
	if !slot.allocated || slot.Salt != salt {
		return nil, false
	}
	return &slot.Value, true
}

// AtIndex returns a pointer to the slot's value regardless of salt, and
// whether the slot is allocated. Used internally where the caller
// already holds a verified index (e.g. iterating all live tiles).
func (p *Pool[T]) AtIndex(index int32) (*T, bool) {
	if index < 0 || int(index) >= len(p.slots) {
		return nil, false
	}
	slot := &p.slots[index]
	if !slot.allocated {
		return nil, false
	}
	return &slot.Value, true
}

// SaltAt returns the current salt of the slot at index, regardless of
// its allocation state. Used when re-deriving a NodeRef for a slot the
// caller already holds by index.
func (p *Pool[T]) SaltAt(index int32) uint32 {
	assert.True(index >= 0 && int(index) < len(p.slots), "pool: salt out-of-range index %d", index)
	return p.slots[index].Salt
}

// Each calls fn for every currently allocated slot, in index order.
func (p *Pool[T]) Each(fn func(index int32, v *T)) {
	for i := range p.slots {
		if p.slots[i].allocated {
			fn(int32(i), &p.slots[i].Value)
		}
	}
}
