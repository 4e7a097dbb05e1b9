package tac

import "iter"

// Handle is the generation-tagged slot reference shared by InstId and BBId.
// The two public handle types are thin, distinctly-named views over Handle
// so the compiler keeps block and instruction references from being
// accidentally interchanged, while both are served by one arena
// implementation underneath.
type Handle struct {
	index      uint32
	generation uint32
}

func (h Handle) isNil() bool { return h.index == nilIndex }

// linked is implemented by arena payload types that participate in the
// intrusive doubly-linked list overlay (Tac and BasicBlock).
type linked interface {
	linkPrev() Handle
	linkSetPrev(Handle)
	linkNext() Handle
	linkSetNext(Handle)
}

type slot[T any] struct {
	generation uint32
	occupied   bool
	value      T
}

// arena is a generational slotted store with an intrusive doubly-linked
// list overlay: every occupied slot's payload carries its own prev/next
// handles, so splicing never allocates a separate list node. Handles stay
// valid (and detectably stale once recycled) for the arena's lifetime.
//
// All methods here panic on a malformed handle; translating that into a
// reportable error is the caller's job (see FuncEditor).
type arena[T linked] struct {
	slots    []*slot[T]
	freeList []uint32
}

func newArena[T linked]() *arena[T] {
	return &arena[T]{}
}

// insert stores item and returns a fresh handle. item should be
// freestanding (NilHandle links); insert does not link it to anything.
func (a *arena[T]) insert(item T) Handle {
	if n := len(a.freeList); n > 0 {
		idx := a.freeList[n-1]
		a.freeList = a.freeList[:n-1]
		s := a.slots[idx]
		s.generation++
		s.occupied = true
		s.value = item
		return Handle{index: idx, generation: s.generation}
	}
	idx := uint32(len(a.slots))
	a.slots = append(a.slots, &slot[T]{generation: 1, occupied: true, value: item})
	return Handle{index: idx, generation: 1}
}

func (a *arena[T]) lookup(h Handle) *slot[T] {
	if h.isNil() || int(h.index) >= len(a.slots) {
		return nil
	}
	s := a.slots[h.index]
	if !s.occupied || s.generation != h.generation {
		return nil
	}
	return s
}

// get returns a mutable pointer to the stored item, or ok=false if the
// handle is stale or unknown. This is the only non-panicking accessor;
// editor-level code uses it to surface NoSuchBB/NoSuchInst.
func (a *arena[T]) get(h Handle) (item *T, ok bool) {
	s := a.lookup(h)
	if s == nil {
		return nil, false
	}
	return &s.value, true
}

// mustGet panics if h does not name a live slot.
func (a *arena[T]) mustGet(h Handle) *T {
	s := a.lookup(h)
	if s == nil {
		panic("tac: use of invalid or stale handle " + handleString(h))
	}
	return &s.value
}

// get2Mut returns disjoint pointers to two live slots, panicking if the
// handles are equal (aliasing) or either is invalid.
func (a *arena[T]) get2Mut(h1, h2 Handle) (*T, *T) {
	if h1 == h2 {
		panic("tac: get2Mut called with identical handles " + handleString(h1))
	}
	return a.mustGet(h1), a.mustGet(h2)
}

// remove deletes the item named by h. The item must already be detached
// from any list (both prev and next absent); this is a caller invariant,
// not re-validated here, mirroring the arena's "infallible given a valid
// call" contract.
func (a *arena[T]) remove(h Handle) T {
	s := a.lookup(h)
	if s == nil {
		panic("tac: remove of invalid or stale handle " + handleString(h))
	}
	item := s.value
	var zero T
	s.value = zero
	s.occupied = false
	a.freeList = append(a.freeList, h.index)
	return item
}

// attachAfter splices freestanding item x into the list right after anchor.
func (a *arena[T]) attachAfter(anchor, x Handle) {
	anchorItem := a.mustGet(anchor)
	xItem := a.mustGet(x)

	oldNext := anchorItem.linkNext()
	xItem.linkSetPrev(anchor)
	xItem.linkSetNext(oldNext)
	anchorItem.linkSetNext(x)
	if !oldNext.isNil() {
		a.mustGet(oldNext).linkSetPrev(x)
	}
}

// attachBefore splices freestanding item x into the list right before anchor.
func (a *arena[T]) attachBefore(anchor, x Handle) {
	anchorItem := a.mustGet(anchor)
	xItem := a.mustGet(x)

	oldPrev := anchorItem.linkPrev()
	xItem.linkSetNext(anchor)
	xItem.linkSetPrev(oldPrev)
	anchorItem.linkSetPrev(x)
	if !oldPrev.isNil() {
		a.mustGet(oldPrev).linkSetNext(x)
	}
}

// connect links two items already present in the arena: tail.next = head,
// head.prev = tail. Panics if tail == head.
func (a *arena[T]) connect(tail, head Handle) {
	if tail == head {
		panic("tac: connect called with identical handles " + handleString(tail))
	}
	a.mustGet(tail).linkSetNext(head)
	a.mustGet(head).linkSetPrev(tail)
}

// detach unlinks h from its neighbours, clearing its own prev/next.
func (a *arena[T]) detach(h Handle) {
	item := a.mustGet(h)
	prev := item.linkPrev()
	next := item.linkNext()
	if !prev.isNil() {
		a.mustGet(prev).linkSetNext(next)
	}
	if !next.isNil() {
		a.mustGet(next).linkSetPrev(prev)
	}
	item.linkSetPrev(NilHandle)
	item.linkSetNext(NilHandle)
}

// itemsIter lazily walks the list from start (inclusive) following
// linkNext, stopping before end (exclusive) or at the end of the chain if
// end is the nil handle. The sequence is finite and not restartable.
func (a *arena[T]) itemsIter(start, end Handle) iter.Seq[Handle] {
	return func(yield func(Handle) bool) {
		cur := start
		for !cur.isNil() && cur != end {
			if !yield(cur) {
				return
			}
			cur = a.mustGet(cur).linkNext()
		}
	}
}

// NilHandle is the reserved handle shared by NilInstId/NilBBId.
var NilHandle = Handle{index: nilIndex}

func handleString(h Handle) string {
	if h.isNil() {
		return "<nil>"
	}
	return InstId(h).String()
}
