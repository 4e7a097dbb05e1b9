package tac

import "testing"

func TestCheckInvariantsCleanOnWellFormedFunction(t *testing.T) {
	fn := NewTacFunc("f", TyUnit)
	e := NewFuncEditor(fn)
	entry := e.NewBB()
	fn.BBSetFirst(entry)
	e.SetCurrentBB(entry)

	a := e.InsertAfterCurrentPlace(Inst{Kind: Assign{Value: Imm(1)}, Ty: TyInt(64)})
	e.InsertAfterCurrentPlace(Inst{Kind: Binary{Op: Add, Lhs: Dest(a), Rhs: Imm(2)}, Ty: TyInt(64)})
	e.AddBranch(Return{HasValue: false}, entry)

	if problems := CheckInvariants(fn); len(problems) != 0 {
		t.Fatalf("expected no invariant violations, got %v", problems)
	}
}

func TestCheckInvariantsCatchesDanglingDest(t *testing.T) {
	fn := NewTacFunc("f", TyUnit)
	e := NewFuncEditor(fn)
	entry := e.NewBB()
	fn.BBSetFirst(entry)
	e.SetCurrentBB(entry)

	ghost := InstId{index: 999, generation: 1}
	e.InsertAfterCurrentPlace(Inst{Kind: Binary{Op: Add, Lhs: Dest(ghost), Rhs: Imm(1)}, Ty: TyInt(64)})

	problems := CheckInvariants(fn)
	if len(problems) == 0 {
		t.Fatalf("expected a dangling Dest violation to be reported")
	}
}

func TestCheckInvariantsCatchesJumpToDeadBlock(t *testing.T) {
	fn := NewTacFunc("f", TyUnit)
	e := NewFuncEditor(fn)
	entry := e.NewBB()
	fn.BBSetFirst(entry)
	e.SetCurrentBB(entry)
	e.InsertAfterCurrentPlace(Inst{Kind: Assign{Value: Imm(1)}, Ty: TyInt(64)})

	ghostBB := BBId{index: 999, generation: 1}
	e.AddBranch(Jump{Target: ghostBB}, entry)

	problems := CheckInvariants(fn)
	if len(problems) == 0 {
		t.Fatalf("expected a jump-to-dead-block violation to be reported")
	}
}
