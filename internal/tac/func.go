package tac

// TacFunc is a function made of TAC instructions, represented as an
// indirect doubly linked list inside two arenas: every basic block holds
// the start and end handle of its instructions, and every instruction
// holds the handle of its owning block. All methods here panic on an
// invalid handle; FuncEditor is the layer that turns "unknown bb/inst"
// into a reportable error.
type TacFunc struct {
	Name string
	Ty   Ty

	insts  *arena[Tac]
	blocks *arena[BasicBlock]

	FirstBlock BBId
}

// NewTacFunc creates an empty function with no blocks.
func NewTacFunc(name string, ty Ty) *TacFunc {
	return &TacFunc{
		Name:       name,
		Ty:         ty,
		insts:      newArena[Tac](),
		blocks:     newArena[BasicBlock](),
		FirstBlock: NilBBId,
	}
}

// Program maps unique function names to their TacFunc.
type Program struct {
	Functions map[string]*TacFunc
}

// NewProgram creates an empty Program.
func NewProgram() *Program {
	return &Program{Functions: make(map[string]*TacFunc)}
}

// ---- instruction-level access ----------------------------------------

// InstNew allocates inst as a freestanding instruction (not yet placed in
// any block) and returns its handle.
func (f *TacFunc) InstNew(inst Inst) InstId {
	return InstId(f.insts.insert(Tac{Inst: inst, bb: NilBBId, prev: NilInstId, next: NilInstId}))
}

// InstExists reports whether idx names a live instruction.
func (f *TacFunc) InstExists(idx InstId) bool {
	_, ok := f.insts.get(Handle(idx))
	return ok
}

// TacGet returns the envelope (instruction + position) for idx. Panics if
// idx is invalid.
func (f *TacFunc) TacGet(idx InstId) *Tac {
	return f.insts.mustGet(Handle(idx))
}

// InstGet returns the instruction body for idx. Panics if idx is invalid.
func (f *TacFunc) InstGet(idx InstId) *Inst {
	return &f.TacGet(idx).Inst
}

// InstSetAfter places the freestanding instruction inst immediately after
// after in after's block, fixing the block's tail pointer if after was the
// tail. Panics if inst already has list neighbours.
func (f *TacFunc) InstSetAfter(after, inst InstId) {
	if t := f.TacGet(inst); !t.prev.IsNil() || !t.next.IsNil() {
		panic("tac: InstSetAfter requires a freestanding instruction")
	}
	f.insts.attachAfter(Handle(after), Handle(inst))
	bb := f.TacGet(after).bb
	f.TacGet(inst).bb = bb

	blk := f.BBGetMut(bb)
	if blk.tail == after {
		blk.tail = inst
	}
}

// InstSetBefore places the freestanding instruction inst immediately
// before before in before's block, fixing the block's head pointer if
// before was the head. Panics if inst already has list neighbours.
func (f *TacFunc) InstSetBefore(before, inst InstId) {
	if t := f.TacGet(inst); !t.prev.IsNil() || !t.next.IsNil() {
		panic("tac: InstSetBefore requires a freestanding instruction")
	}
	f.insts.attachBefore(Handle(before), Handle(inst))
	bb := f.TacGet(before).bb
	f.TacGet(inst).bb = bb

	blk := f.BBGetMut(bb)
	if blk.head == before {
		blk.head = inst
	}
}

// InstAppendInBB appends the freestanding instruction inst as the new last
// instruction of bb.
func (f *TacFunc) InstAppendInBB(inst InstId, bb BBId) {
	t := f.TacGet(inst)
	t.bb = bb
	blk := f.BBGetMut(bb)
	oldTail := blk.tail
	blk.tail = inst
	if blk.head.IsNil() {
		blk.head = inst
	}
	if !oldTail.IsNil() {
		f.InstSetAfter(oldTail, inst)
	}
}

// InstPrependInBB prepends the freestanding instruction inst as the new
// first instruction of bb.
func (f *TacFunc) InstPrependInBB(inst InstId, bb BBId) {
	t := f.TacGet(inst)
	t.bb = bb
	blk := f.BBGetMut(bb)
	oldHead := blk.head
	blk.head = inst
	if blk.tail.IsNil() {
		blk.tail = inst
	}
	if !oldHead.IsNil() {
		f.InstSetBefore(oldHead, inst)
	}
}

// InstDetach unlinks idx from its block's instruction chain, leaving it
// freestanding. If idx was its block's head or tail, the block's head/tail
// pointers are fixed up so they keep naming the (possibly now empty)
// remaining chain, per invariant I1.
func (f *TacFunc) InstDetach(idx InstId) {
	t := f.TacGet(idx)
	bb := t.bb
	prev, next := t.prev, t.next

	f.insts.detach(Handle(idx))
	t.bb = NilBBId

	if bb.IsNil() {
		return
	}
	blk := f.BBGetMut(bb)
	if blk.head == idx {
		blk.head = next
	}
	if blk.tail == idx {
		blk.tail = prev
	}
}

// InstRemove deletes idx from the arena. idx must already be detached
// (both prev and next absent); violating this is a programmer error.
func (f *TacFunc) InstRemove(idx InstId) Inst {
	t := f.TacGet(idx)
	if !t.prev.IsNil() || !t.next.IsNil() {
		panic("tac: InstRemove requires a detached instruction")
	}
	return f.insts.remove(Handle(idx)).Inst
}

// InstConnect links tail.next = head, head.prev = tail for two instructions
// already present in the arena. Panics if tail == head.
func (f *TacFunc) InstConnect(tail, head InstId) {
	f.insts.connect(Handle(tail), Handle(head))
}

// instSplitOffAfter detaches and returns the chain following pos, if any.
func (f *TacFunc) instSplitOffAfter(pos InstId) InstId {
	t := f.TacGet(pos)
	next := t.next
	t.next = NilInstId
	if !next.IsNil() {
		f.TacGet(next).prev = NilInstId
	}
	return next
}

// AllInstUnordered returns every live (handle, block, instruction) triple
// in arena order, which carries no control-flow meaning.
func (f *TacFunc) AllInstUnordered() []struct {
	Id   InstId
	BB   BBId
	Inst *Inst
} {
	var out []struct {
		Id   InstId
		BB   BBId
		Inst *Inst
	}
	for i := range f.insts.slots {
		s := f.insts.slots[i]
		if !s.occupied {
			continue
		}
		h := Handle{index: uint32(i), generation: s.generation}
		out = append(out, struct {
			Id   InstId
			BB   BBId
			Inst *Inst
		}{InstId(h), s.value.bb, &s.value.Inst})
	}
	return out
}

// ---- basic-block-level access ------------------------------------------

// BBNew allocates a new, empty, freestanding basic block.
func (f *TacFunc) BBNew() BBId {
	return BBId(f.blocks.insert(newBasicBlock()))
}

// BBExists reports whether idx names a live block.
func (f *TacFunc) BBExists(idx BBId) bool {
	_, ok := f.blocks.get(Handle(idx))
	return ok
}

// BBGet returns the block named by idx. Panics if idx is invalid.
func (f *TacFunc) BBGet(idx BBId) *BasicBlock { return f.blocks.mustGet(Handle(idx)) }

// BBGetMut is an alias of BBGet kept for symmetry with the mutable/
// immutable accessor pairs elsewhere in this package.
func (f *TacFunc) BBGetMut(idx BBId) *BasicBlock { return f.blocks.mustGet(Handle(idx)) }

// BBGet2Mut returns disjoint pointers to two blocks, panicking if i1 == i2.
func (f *TacFunc) BBGet2Mut(i1, i2 BBId) (*BasicBlock, *BasicBlock) {
	return f.blocks.get2Mut(Handle(i1), Handle(i2))
}

// BBSetFirst sets bb as the function's entry block, returning the previous
// entry (if any).
func (f *TacFunc) BBSetFirst(bb BBId) BBId {
	prev := f.FirstBlock
	f.FirstBlock = bb
	return prev
}

// BBSetBefore/BBSetAfter splice a freestanding block into the inter-block
// chain, purely for default iteration order (§3: "a convenience, not a
// correctness property").
func (f *TacFunc) BBSetBefore(before, bb BBId) { f.blocks.attachBefore(Handle(before), Handle(bb)) }
func (f *TacFunc) BBSetAfter(after, bb BBId)   { f.blocks.attachAfter(Handle(after), Handle(bb)) }

// BBDetach removes bb from the inter-block chain.
func (f *TacFunc) BBDetach(bb BBId) { f.blocks.detach(Handle(bb)) }

// AllBBUnordered returns every live (handle, block) pair in arena order.
func (f *TacFunc) AllBBUnordered() []struct {
	Id BBId
	BB *BasicBlock
} {
	var out []struct {
		Id BBId
		BB *BasicBlock
	}
	for i := range f.blocks.slots {
		s := f.blocks.slots[i]
		if !s.occupied {
			continue
		}
		h := Handle{index: uint32(i), generation: s.generation}
		out = append(out, struct {
			Id BBId
			BB *BasicBlock
		}{BBId(h), &s.value})
	}
	return out
}

// BBSplitAfter splits off every instruction after inst (within inst's own
// block) into a new block, optionally carrying the original block's jump
// list along with it, and returns the new block's handle.
func (f *TacFunc) BBSplitAfter(inst InstId, transferBranches bool) BBId {
	afterHead := f.instSplitOffAfter(inst)
	firstBBId := f.TacGet(inst).bb
	firstBB := f.BBGetMut(firstBBId)
	origTail := firstBB.tail
	firstBB.tail = inst

	var jumps []Branch
	if transferBranches {
		jumps = firstBB.Jumps
		firstBB.Jumps = nil
	}

	newBBId := f.BBNew()
	newBB := f.BBGetMut(newBBId)
	if !afterHead.IsNil() {
		newBB.tail = origTail
	}
	newBB.head = afterHead
	newBB.Jumps = jumps

	for it := afterHead; !it.IsNil(); {
		t := f.TacGet(it)
		t.bb = newBBId
		it = t.next
	}

	return newBBId
}

// BBConnect appends back's instructions to the end of front and moves
// back's jump list into front, replacing front's own; back is left with no
// instructions and no jumps. It returns front's
// original jump list, since front was back's predecessor and the caller
// decides what (if anything) to do with the branches that used to leave
// front. Panics if front == back.
func (f *TacFunc) BBConnect(front, back BBId) []Branch {
	if front == back {
		panic("tac: BBConnect requires front != back")
	}

	frontBB, backBB := f.BBGet2Mut(front, back)

	backJumps := backBB.Jumps
	backBB.Jumps = nil
	branches := frontBB.Jumps
	frontBB.Jumps = backJumps

	frontTail := frontBB.tail
	backHead := backBB.head

	if !backHead.IsNil() {
		if !frontTail.IsNil() {
			frontBB.tail = backBB.tail
			backBB.tail = NilInstId
			backBB.head = NilInstId
			f.InstConnect(frontTail, backHead)
		} else {
			frontBB.head = backBB.head
			frontBB.tail = backBB.tail
			backBB.head = NilInstId
			backBB.tail = NilInstId
		}

		for it := backHead; !it.IsNil(); {
			t := f.TacGet(it)
			t.bb = front
			it = t.next
		}
	}

	return branches
}
