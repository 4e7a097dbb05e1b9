package ssa

import (
	"testing"

	"tacir/internal/tac"
)

// TestStraightLineNoPhi covers S1: a single block with no branches never
// needs a phi; ReadVariable just returns the last write.
func TestStraightLineNoPhi(t *testing.T) {
	fn := tac.NewTacFunc("f", tac.TyUnit)
	e := tac.NewFuncEditor(fn)
	entry := e.NewBB()
	fn.BBSetFirst(entry)
	e.SetCurrentBB(entry)

	b := NewBuilder(e)
	b.DeclareVariable("x", tac.TyInt(64))
	b.SealBlock(entry)

	def := e.InsertAfterCurrentPlace(tac.Inst{Kind: tac.Assign{Value: tac.Imm(7)}, Ty: tac.TyInt(64)})
	b.WriteVariable("x", entry, tac.Dest(def))

	got := b.ReadVariable("x", entry)
	want := tac.Dest(def)
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if problems := tac.CheckInvariants(fn); len(problems) != 0 {
		t.Fatalf("invariants violated: %v", problems)
	}
}

// TestDiamondJoinInsertsPhi covers S3: an if/else that both assign x needs a
// phi at the join block, because its two predecessors disagree.
func TestDiamondJoinInsertsPhi(t *testing.T) {
	fn := tac.NewTacFunc("f", tac.TyUnit)
	e := tac.NewFuncEditor(fn)
	entry := e.NewBB()
	fn.BBSetFirst(entry)
	thenBB := e.NewBB()
	elseBB := e.NewBB()
	joinBB := e.NewBB()

	b := NewBuilder(e)
	b.DeclareVariable("x", tac.TyInt(64))

	e.SetCurrentBB(entry)
	e.AddBranch(tac.CondJump{Cond: tac.Imm(1), Target: thenBB}, entry)
	e.AddBranch(tac.Jump{Target: elseBB}, entry)
	b.SealBlock(entry)

	e.SetCurrentBB(thenBB)
	thenDef := e.InsertAfterCurrentPlace(tac.Inst{Kind: tac.Assign{Value: tac.Imm(1)}, Ty: tac.TyInt(64)})
	b.WriteVariable("x", thenBB, tac.Dest(thenDef))
	e.AddBranch(tac.Jump{Target: joinBB}, thenBB)
	b.SealBlock(thenBB)

	e.SetCurrentBB(elseBB)
	elseDef := e.InsertAfterCurrentPlace(tac.Inst{Kind: tac.Assign{Value: tac.Imm(2)}, Ty: tac.TyInt(64)})
	b.WriteVariable("x", elseBB, tac.Dest(elseDef))
	e.AddBranch(tac.Jump{Target: joinBB}, elseBB)
	b.SealBlock(elseBB)

	b.SealBlock(joinBB)
	got := b.ReadVariable("x", joinBB)

	dest, ok := got.AsDest()
	if !ok {
		t.Fatalf("expected a phi result, got immediate %v", got)
	}
	phi, ok := fn.InstGet(dest).Kind.(tac.Phi)
	if !ok {
		t.Fatalf("expected join read to resolve to a Phi instruction, got %T", fn.InstGet(dest).Kind)
	}
	if phi.Inputs[thenBB] != thenDef || phi.Inputs[elseBB] != elseDef {
		t.Fatalf("phi operands don't match the two arms: %+v", phi.Inputs)
	}
	if problems := tac.CheckInvariants(fn); len(problems) != 0 {
		t.Fatalf("invariants violated: %v", problems)
	}
}

// TestLoopCounterPhiIsNotTrivial covers S4: a while loop that increments a
// counter produces a genuinely non-trivial phi at the loop header, because
// the header's two inputs (the initial value, and the incremented value fed
// back from the loop body) differ.
func TestLoopCounterPhiIsNotTrivial(t *testing.T) {
	fn := tac.NewTacFunc("f", tac.TyUnit)
	e := tac.NewFuncEditor(fn)
	entry := e.NewBB()
	fn.BBSetFirst(entry)
	condBB := e.NewBB()
	bodyBB := e.NewBB()
	nextBB := e.NewBB()

	b := NewBuilder(e)
	b.DeclareVariable("i", tac.TyInt(64))

	e.SetCurrentBB(entry)
	initDef := e.InsertAfterCurrentPlace(tac.Inst{Kind: tac.Assign{Value: tac.Imm(0)}, Ty: tac.TyInt(64)})
	b.WriteVariable("i", entry, tac.Dest(initDef))
	e.AddBranch(tac.Jump{Target: condBB}, entry)
	b.SealBlock(entry)

	// condBB has two predecessors (entry, bodyBB) but bodyBB isn't built
	// yet, so condBB cannot be sealed until the back-edge is added.
	e.SetCurrentBB(condBB)
	iAtCond := b.ReadVariable("i", condBB)
	e.AddBranch(tac.CondJump{Cond: iAtCond, Target: bodyBB}, condBB)
	e.AddBranch(tac.Jump{Target: nextBB}, condBB)

	e.SetCurrentBB(bodyBB)
	iAtBody := b.ReadVariable("i", bodyBB)
	incDef := e.InsertAfterCurrentPlace(tac.Inst{Kind: tac.Binary{Op: tac.Add, Lhs: iAtBody, Rhs: tac.Imm(1)}, Ty: tac.TyInt(64)})
	b.WriteVariable("i", bodyBB, tac.Dest(incDef))
	e.AddBranch(tac.Jump{Target: condBB}, bodyBB)
	b.SealBlock(bodyBB)
	b.SealBlock(condBB) // now both of condBB's predecessors are known
	b.SealBlock(nextBB)

	dest, ok := iAtCond.AsDest()
	if !ok {
		t.Fatalf("expected the loop counter read to resolve to a phi, got immediate %v", iAtCond)
	}
	phi, ok := fn.InstGet(dest).Kind.(tac.Phi)
	if !ok {
		t.Fatalf("expected a surviving (non-trivial) Phi, got %T", fn.InstGet(dest).Kind)
	}
	if phi.Inputs[entry] != initDef {
		t.Fatalf("expected phi's entry-edge operand to be the initial definition")
	}
	if phi.Inputs[bodyBB] != incDef {
		t.Fatalf("expected phi's back-edge operand to be the incremented definition")
	}
	if problems := tac.CheckInvariants(fn); len(problems) != 0 {
		t.Fatalf("invariants violated: %v", problems)
	}
}

// TestMarkFilledIsIndependentOfSealed checks that filled and sealed track
// separately: a loop header can be filled (its own instructions placed)
// long before it can be sealed (all predecessors known), since the
// back-edge predecessor doesn't exist until the loop body is lowered.
func TestMarkFilledIsIndependentOfSealed(t *testing.T) {
	fn := tac.NewTacFunc("f", tac.TyUnit)
	e := tac.NewFuncEditor(fn)
	entry := e.NewBB()
	fn.BBSetFirst(entry)
	condBB := e.NewBB()
	bodyBB := e.NewBB()

	b := NewBuilder(e)

	e.SetCurrentBB(entry)
	e.AddBranch(tac.Jump{Target: condBB}, entry)
	b.SealBlock(entry)
	b.MarkFilled(entry)
	if !b.IsFilled(entry) {
		t.Fatalf("expected entry to be filled")
	}

	e.SetCurrentBB(condBB)
	e.AddBranch(tac.CondJump{Cond: tac.Imm(1), Target: bodyBB}, condBB)
	e.AddBranch(tac.Jump{Target: entry}, condBB)
	b.MarkFilled(condBB)
	if !b.IsFilled(condBB) {
		t.Fatalf("expected condBB to be filled once its branches are placed")
	}
	if b.IsSealed(condBB) {
		t.Fatalf("condBB should not be sealed yet: its back-edge from bodyBB isn't known")
	}

	e.SetCurrentBB(bodyBB)
	e.AddBranch(tac.Jump{Target: condBB}, bodyBB)
	b.SealBlock(bodyBB)
	b.SealBlock(condBB) // now both of condBB's predecessors are known
	if !b.IsSealed(condBB) {
		t.Fatalf("expected condBB to be sealed after its back-edge predecessor is added")
	}
	if !b.IsFilled(condBB) {
		t.Fatalf("sealing must not clear the filled flag set earlier")
	}

	if b.IsFilled(bodyBB) {
		t.Fatalf("bodyBB was never marked filled")
	}
	if problems := tac.CheckInvariants(fn); len(problems) != 0 {
		t.Fatalf("invariants violated: %v", problems)
	}
}

// TestTrivialPhiIsElided covers S6: a loop whose body never actually
// reassigns the variable produces a phi with only one distinct real
// operand, which collapses to that operand instead of surviving as a phi.
func TestTrivialPhiIsElided(t *testing.T) {
	fn := tac.NewTacFunc("f", tac.TyUnit)
	e := tac.NewFuncEditor(fn)
	entry := e.NewBB()
	fn.BBSetFirst(entry)
	condBB := e.NewBB()
	bodyBB := e.NewBB()
	nextBB := e.NewBB()

	b := NewBuilder(e)
	b.DeclareVariable("x", tac.TyInt(64))

	e.SetCurrentBB(entry)
	xDef := e.InsertAfterCurrentPlace(tac.Inst{Kind: tac.Assign{Value: tac.Imm(9)}, Ty: tac.TyInt(64)})
	b.WriteVariable("x", entry, tac.Dest(xDef))
	e.AddBranch(tac.Jump{Target: condBB}, entry)
	b.SealBlock(entry)

	e.SetCurrentBB(condBB)
	xAtCond := b.ReadVariable("x", condBB)
	e.AddBranch(tac.CondJump{Cond: tac.Imm(1), Target: bodyBB}, condBB)
	e.AddBranch(tac.Jump{Target: nextBB}, condBB)

	// Body reads x but never writes it: it flows straight back to condBB
	// carrying the same definition it read, which is exactly what makes
	// condBB's phi trivial once both edges are known.
	e.SetCurrentBB(bodyBB)
	e.AddBranch(tac.Jump{Target: condBB}, bodyBB)
	b.SealBlock(bodyBB)
	b.SealBlock(condBB)
	b.SealBlock(nextBB)

	xAtCond = b.ReadVariable("x", condBB)
	dest, ok := xAtCond.AsDest()
	if !ok || dest != xDef {
		t.Fatalf("expected trivial phi to collapse to entry's definition %v, got %v", xDef, xAtCond)
	}
	for _, entry := range fn.AllInstUnordered() {
		if _, isPhi := entry.Inst.Kind.(tac.Phi); isPhi {
			t.Fatalf("expected no surviving phi, found one at %v", entry.Id)
		}
	}
	if problems := tac.CheckInvariants(fn); len(problems) != 0 {
		t.Fatalf("invariants violated: %v", problems)
	}
}
