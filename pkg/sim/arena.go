package sim

// arena is a slot store handing out generation-checked indices. Slots are
// reused after removal with a bumped generation, so a stale Handle held
// across a removal resolves to nothing instead of to the new occupant.
// Iteration runs in slot order, which keeps frame processing
// deterministic.
type arena[T any] struct {
	slots []arenaSlot[T]
	free  []uint32
	live  int
}

type arenaSlot[T any] struct {
	value T
	gen   uint32
	used  bool
}

// insert stores a value and returns its slot index and generation.
// Generation zero is never issued; a zero Handle stays invalid forever.
func (a *arena[T]) insert(v T) (uint32, uint32) {
	a.live++
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		slot := &a.slots[idx]
		slot.value = v
		slot.used = true
		return idx, slot.gen
	}
	a.slots = append(a.slots, arenaSlot[T]{value: v, gen: 1, used: true})
	return uint32(len(a.slots) - 1), 1
}

// get resolves an index/generation pair, failing on stale generations.
func (a *arena[T]) get(idx, gen uint32) (T, bool) {
	var zero T
	if int(idx) >= len(a.slots) {
		return zero, false
	}
	slot := &a.slots[idx]
	if !slot.used || slot.gen != gen {
		return zero, false
	}
	return slot.value, true
}

// remove frees a slot and invalidates every handle pointing at it.
func (a *arena[T]) remove(idx, gen uint32) bool {
	if int(idx) >= len(a.slots) {
		return false
	}
	slot := &a.slots[idx]
	if !slot.used || slot.gen != gen {
		return false
	}
	var zero T
	slot.value = zero
	slot.used = false
	slot.gen++
	a.free = append(a.free, idx)
	a.live--
	return true
}

// each visits live slots in index order. Returning false stops the walk.
// Removing the visited slot during the walk is allowed; inserting during
// the walk is not.
func (a *arena[T]) each(fn func(idx, gen uint32, v T) bool) {
	for i := range a.slots {
		slot := &a.slots[i]
		if !slot.used {
			continue
		}
		if !fn(uint32(i), slot.gen, slot.value) {
			return
		}
	}
}

// count is the number of live slots.
func (a *arena[T]) count() int { return a.live }
