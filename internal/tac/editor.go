package tac

// FuncEditor is a cursor-based mutator over a single TacFunc. It holds an
// exclusive borrow of the function (single-threaded, §5) plus a current
// block and a current instruction position within that block, and is the
// only supported way to insert, move, split, or splice instructions and
// blocks while keeping block/instruction linkage consistent.
//
// All errors returned here are reportable ("no such block/instruction");
// a call that would otherwise violate a structural invariant (inserting a
// claimed-freestanding instruction that has neighbours, connecting a block
// to itself, using a stale handle) panics instead, per spec §4.2/§7.
type FuncEditor struct {
	Func *TacFunc

	currentBB  BBId
	currentIdx InstId
}

// NewFuncEditor creates an editor positioned at the tail of fn's entry
// block (or with an absent position if the function has no blocks yet).
func NewFuncEditor(fn *TacFunc) *FuncEditor {
	e := &FuncEditor{Func: fn, currentBB: fn.FirstBlock}
	if !fn.FirstBlock.IsNil() {
		e.currentIdx = fn.BBGet(fn.FirstBlock).tail
	} else {
		e.currentIdx = NilInstId
	}
	return e
}

// CurrentBB returns the block the editor is currently working on.
func (e *FuncEditor) CurrentBB() BBId { return e.currentBB }

// CurrentIdx returns the instruction the editor is currently positioned
// at, or false if the current block is empty.
func (e *FuncEditor) CurrentIdx() (InstId, bool) {
	return e.currentIdx, !e.currentIdx.IsNil()
}

// NewBB creates and returns a freestanding, empty basic block: not linked
// into the inter-block chain, with no jumps.
func (e *FuncEditor) NewBB() BBId {
	return e.Func.BBNew()
}

// SetCurrentBB repositions the cursor to the tail of bb. Returns whether
// the position was unchanged.
func (e *FuncEditor) SetCurrentBB(bb BBId) (unchanged bool, err error) {
	if !e.Func.BBExists(bb) {
		return false, ErrNoSuchBB(bb)
	}
	blk := e.Func.BBGet(bb)
	same := bb == e.currentBB && blk.tail == e.currentIdx
	e.currentBB = bb
	e.currentIdx = blk.tail
	return same, nil
}

// SetCurrentBBStart repositions the cursor to the head of bb. Returns
// whether the position was unchanged.
func (e *FuncEditor) SetCurrentBBStart(bb BBId) (unchanged bool, err error) {
	if !e.Func.BBExists(bb) {
		return false, ErrNoSuchBB(bb)
	}
	blk := e.Func.BBGet(bb)
	same := bb == e.currentBB && blk.head == e.currentIdx
	e.currentBB = bb
	e.currentIdx = blk.head
	return same, nil
}

// SetPositionAtInstruction repositions the cursor to exactly inst. Returns
// whether the position was unchanged.
func (e *FuncEditor) SetPositionAtInstruction(inst InstId) (unchanged bool, err error) {
	if !e.Func.InstExists(inst) {
		return false, ErrNoSuchInst(inst)
	}
	bb := e.Func.TacGet(inst).bb
	same := bb == e.currentBB && inst == e.currentIdx
	e.currentBB = bb
	e.currentIdx = inst
	return same, nil
}

// InsertAfterCurrentPlace allocates inst, splices it right after the
// cursor (or as the block's sole instruction if the block is empty), and
// advances the cursor to the newly-inserted instruction.
func (e *FuncEditor) InsertAfterCurrentPlace(inst Inst) InstId {
	idx := e.Func.InstNew(inst)
	if !e.currentIdx.IsNil() {
		cur := e.currentIdx
		e.Func.InstSetAfter(cur, idx)
	} else {
		blk := e.Func.BBGetMut(e.currentBB)
		blk.head = idx
		blk.tail = idx
		e.Func.TacGet(idx).bb = e.currentBB
	}
	e.currentIdx = idx
	return idx
}

// InsertBeforeCurrentPlace allocates inst, splices it right before the
// cursor (or as the block's sole instruction if the block is empty), and
// advances the cursor to the newly-inserted instruction.
func (e *FuncEditor) InsertBeforeCurrentPlace(inst Inst) InstId {
	idx := e.Func.InstNew(inst)
	if !e.currentIdx.IsNil() {
		cur := e.currentIdx
		e.Func.InstSetBefore(cur, idx)
	} else {
		blk := e.Func.BBGetMut(e.currentBB)
		blk.head = idx
		blk.tail = idx
		e.Func.TacGet(idx).bb = e.currentBB
	}
	e.currentIdx = idx
	return idx
}

// InsertAtEndOf inserts inst at the end of bb, temporarily retargeting the
// cursor and restoring it afterwards if it had to move.
func (e *FuncEditor) InsertAtEndOf(inst Inst, bb BBId) (InstId, error) {
	curBB, curIdx := e.currentBB, e.currentIdx
	same, err := e.SetCurrentBB(bb)
	if err != nil {
		return NilInstId, err
	}
	idx := e.InsertAfterCurrentPlace(inst)
	if !same {
		e.currentBB, e.currentIdx = curBB, curIdx
	}
	return idx, nil
}

// InsertAtStartOf inserts inst at the start of bb, temporarily retargeting
// the cursor and restoring it afterwards if it had to move.
func (e *FuncEditor) InsertAtStartOf(inst Inst, bb BBId) (InstId, error) {
	curBB, curIdx := e.currentBB, e.currentIdx
	same, err := e.SetCurrentBBStart(bb)
	if err != nil {
		return NilInstId, err
	}
	idx := e.InsertBeforeCurrentPlace(inst)
	if !same {
		e.currentBB, e.currentIdx = curBB, curIdx
	}
	return idx, nil
}

// AddBranch appends branch to bb's jump list and records each of its
// targets as a successor edge.
func (e *FuncEditor) AddBranch(branch Branch, bb BBId) error {
	if !e.Func.BBExists(bb) {
		return ErrNoSuchBB(bb)
	}
	blk := e.Func.BBGetMut(bb)
	blk.Jumps = append(blk.Jumps, branch)
	return nil
}

// ModifyBranch replaces bb's jump list under f, then recomputes successor
// edges from the new list. Since successor edges are always derived from
// Jumps (never stored separately), this is atomic by construction: there
// is no intermediate state where the two could disagree.
func (e *FuncEditor) ModifyBranch(bb BBId, f func(jumps []Branch) []Branch) error {
	if !e.Func.BBExists(bb) {
		return ErrNoSuchBB(bb)
	}
	blk := e.Func.BBGetMut(bb)
	blk.Jumps = f(blk.Jumps)
	return nil
}

// PredOfBB returns every block with an edge into bb.
func (e *FuncEditor) PredOfBB(bb BBId) []BBId {
	var preds []BBId
	for _, entry := range e.Func.AllBBUnordered() {
		for _, t := range entry.BB.Successors() {
			if t == bb {
				preds = append(preds, entry.Id)
				break
			}
		}
	}
	return preds
}

// SuccOfBB returns bb's successor blocks, derived from its Jumps.
func (e *FuncEditor) SuccOfBB(bb BBId) []BBId {
	return e.Func.BBGet(bb).Successors()
}

// Edge is a materialized control-flow edge. This package derives
// successor/predecessor edges from each block's Jumps rather than from a
// separate graph structure, so an Edge carries no identity beyond its
// endpoints.
type Edge struct {
	From, To BBId
}

// PredEdgeOfBB returns every edge incoming to bb.
func (e *FuncEditor) PredEdgeOfBB(bb BBId) []Edge {
	var edges []Edge
	for _, from := range e.PredOfBB(bb) {
		edges = append(edges, Edge{From: from, To: bb})
	}
	return edges
}

// SuccEdgeOfBB returns every edge outgoing from bb.
func (e *FuncEditor) SuccEdgeOfBB(bb BBId) []Edge {
	var edges []Edge
	for _, to := range e.SuccOfBB(bb) {
		edges = append(edges, Edge{From: bb, To: to})
	}
	return edges
}

// BBSplitAfter creates a new block, moves every instruction after inst
// (within inst's own block) into it, optionally moves the jumps list
// along too, and rewrites the moved instructions' owning block. Returns
// the new block's handle.
func (e *FuncEditor) BBSplitAfter(inst InstId, transferBranches bool) (BBId, error) {
	if !e.Func.InstExists(inst) {
		return NilBBId, ErrNoSuchInst(inst)
	}
	return e.Func.BBSplitAfter(inst, transferBranches), nil
}

// BBConnect appends back's instructions to front, moves back's jumps into
// front (replacing front's), and returns front's original jumps for the
// caller to dispose of (typically discarded, since front was back's
// predecessor). Panics if front == back.
func (e *FuncEditor) BBConnect(front, back BBId) []Branch {
	return e.Func.BBConnect(front, back)
}
