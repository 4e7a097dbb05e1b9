package tac

// BasicBlock holds the linked-list head/tail of its instructions, the
// inter-block linked-list neighbours giving blocks a default iteration
// order, and the outgoing Jumps list. Successor edges are always derived
// from Jumps rather than stored redundantly (invariant I2/I3 in spec
// terms), so edge bookkeeping can never drift out of sync with the
// terminators that define it.
type BasicBlock struct {
	head InstId
	tail InstId

	prev BBId
	next BBId

	Jumps []Branch
}

func newBasicBlock() BasicBlock {
	return BasicBlock{head: NilInstId, tail: NilInstId, prev: NilBBId, next: NilBBId}
}

// Head returns the first instruction in the block, if any.
func (b *BasicBlock) Head() (InstId, bool) { return b.head, !b.head.IsNil() }

// Tail returns the last instruction in the block, if any.
func (b *BasicBlock) Tail() (InstId, bool) { return b.tail, !b.tail.IsNil() }

// IsEmpty reports whether the block holds no instructions.
func (b *BasicBlock) IsEmpty() bool { return b.head.IsNil() }

// Successors returns the set of blocks reachable by taking some branch in
// Jumps, in jump-list order with duplicates collapsed.
func (b *BasicBlock) Successors() []BBId {
	seen := make(map[BBId]struct{}, len(b.Jumps))
	var out []BBId
	for _, j := range b.Jumps {
		for _, t := range j.Targets() {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

func (b *BasicBlock) linkPrev() Handle     { return Handle(b.prev) }
func (b *BasicBlock) linkSetPrev(h Handle) { b.prev = BBId(h) }
func (b *BasicBlock) linkNext() Handle     { return Handle(b.next) }
func (b *BasicBlock) linkSetNext(h Handle) { b.next = BBId(h) }
