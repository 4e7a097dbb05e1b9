package tac

import "testing"

type stubItem struct {
	prev, next Handle
	tag        int
}

func (s *stubItem) linkPrev() Handle     { return s.prev }
func (s *stubItem) linkSetPrev(h Handle) { s.prev = h }
func (s *stubItem) linkNext() Handle     { return s.next }
func (s *stubItem) linkSetNext(h Handle) { s.next = h }

func newStub(tag int) stubItem {
	return stubItem{prev: NilHandle, next: NilHandle, tag: tag}
}

func TestArenaInsertGetRemove(t *testing.T) {
	a := newArena[stubItem]()
	h := a.insert(newStub(1))

	item, ok := a.get(h)
	if !ok || item.tag != 1 {
		t.Fatalf("expected to find tag 1, got %+v ok=%v", item, ok)
	}

	removed := a.remove(h)
	if removed.tag != 1 {
		t.Fatalf("expected removed tag 1, got %d", removed.tag)
	}
	if _, ok := a.get(h); ok {
		t.Fatalf("expected stale handle to be invalid after remove")
	}
}

func TestArenaGenerationDetectsStaleHandle(t *testing.T) {
	a := newArena[stubItem]()
	h1 := a.insert(newStub(1))
	a.remove(h1)
	h2 := a.insert(newStub(2))

	if h1.index != h2.index {
		t.Fatalf("expected slot reuse, got different indices %d vs %d", h1.index, h2.index)
	}
	if h1.generation == h2.generation {
		t.Fatalf("expected generation to change across reuse")
	}
	if _, ok := a.get(h1); ok {
		t.Fatalf("old handle should not resolve to the new item")
	}
	item, ok := a.get(h2)
	if !ok || item.tag != 2 {
		t.Fatalf("new handle should resolve to the new item, got %+v ok=%v", item, ok)
	}
}

func TestArenaGet2MutPanicsOnAliasing(t *testing.T) {
	a := newArena[stubItem]()
	h := a.insert(newStub(1))

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on aliasing get2Mut")
		}
	}()
	a.get2Mut(h, h)
}

func TestArenaAttachAndDetachRoundTrip(t *testing.T) {
	a := newArena[stubItem]()
	x := a.insert(newStub(1))
	y := a.insert(newStub(2))

	a.attachBefore(x, y)
	xi := a.mustGet(x)
	yi := a.mustGet(y)
	if yi.linkNext() != x || xi.linkPrev() != y {
		t.Fatalf("attachBefore did not link y -> x")
	}

	a.detach(y)
	xi = a.mustGet(x)
	yi = a.mustGet(y)
	if !xi.linkPrev().isNil() || !yi.linkNext().isNil() {
		t.Fatalf("detach left stale links: x.prev=%v y.next=%v", xi.linkPrev(), yi.linkNext())
	}
}

func TestArenaConnectPanicsOnSelfConnect(t *testing.T) {
	a := newArena[stubItem]()
	h := a.insert(newStub(1))

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on self-connect")
		}
	}()
	a.connect(h, h)
}

func TestArenaItemsIterIsFiniteAndOrdered(t *testing.T) {
	a := newArena[stubItem]()
	h1 := a.insert(newStub(1))
	h2 := a.insert(newStub(2))
	h3 := a.insert(newStub(3))
	a.attachAfter(h1, h2)
	a.attachAfter(h2, h3)

	var seen []int
	for h := range a.itemsIter(h1, NilHandle) {
		seen = append(seen, a.mustGet(h).tag)
	}
	if len(seen) != 3 || seen[0] != 1 || seen[1] != 2 || seen[2] != 3 {
		t.Fatalf("unexpected iteration order: %v", seen)
	}
}
