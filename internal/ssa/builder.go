// Package ssa constructs SSA form directly on top of package tac, without a
// separate dominance analysis pass, following Braun, Buchwald, Hack, Leißa,
// Mehofer and Zwinkau, "Simple and Efficient Construction of Static Single
// Assignment Form" (CC 2013): write-variable/read-variable, on-demand phi
// insertion, and trivial-phi elimination, layered over tac.FuncEditor
// instead of driving the arena directly.
package ssa

import "tacir/internal/tac"

// Builder tracks, for a single function under construction, the current
// definition of every source-level variable in every block that has been
// visited so far, plus the sealed/filled lifecycle of each block. One
// Builder is created per tac.TacFunc; a multi-function program uses one
// Builder per function (§4.4).
type Builder struct {
	Editor *tac.FuncEditor

	// currentDef[variable][block] is that variable's reaching definition at
	// the end of block, or the zero Value if undefined there yet.
	currentDef map[string]map[tac.BBId]tac.Value

	// incompletePhis[block][variable] is a placeholder phi inserted because
	// block was not yet sealed when variable was read there; its operands
	// are filled in once the block seals.
	incompletePhis map[tac.BBId]map[string]tac.InstId

	// varTypes records each source-level variable's type, so a phi can be
	// given a Ty at the moment it's created rather than after its operands
	// (which is when, in the general case, the type would otherwise first
	// become available).
	varTypes map[string]tac.Ty

	sealed map[tac.BBId]bool
	filled map[tac.BBId]bool
}

// NewBuilder creates a Builder driving editor. The function must already
// have at least an entry block (typically editor.NewBB() followed by
// tac.TacFunc.BBSetFirst); DeclareParams below is the usual first call.
func NewBuilder(editor *tac.FuncEditor) *Builder {
	return &Builder{
		Editor:         editor,
		currentDef:     make(map[string]map[tac.BBId]tac.Value),
		incompletePhis: make(map[tac.BBId]map[string]tac.InstId),
		varTypes:       make(map[string]tac.Ty),
		sealed:         make(map[tac.BBId]bool),
		filled:         make(map[tac.BBId]bool),
	}
}

// DeclareVariable records variable's type, which later phi insertions for it
// need. The front-end driver calls this once per local when it first comes
// into scope (parameter binding or local declaration), before any read.
func (b *Builder) DeclareVariable(variable string, ty tac.Ty) {
	b.varTypes[variable] = ty
}

// DeclareParams inserts one Param instruction per name at the start of
// entry, and records each as that variable's definition in entry. Each
// Param is inserted ahead of the previous one, so entry lists them in
// reverse order (the last parameter first); Param.Index gives the position.
func (b *Builder) DeclareParams(entry tac.BBId, names []string, ty tac.Ty) {
	for i, name := range names {
		b.DeclareVariable(name, ty)
		id, err := b.Editor.InsertAtStartOf(tac.Inst{Kind: tac.Param{Index: i}, Ty: ty}, entry)
		if err != nil {
			panic(err)
		}
		b.WriteVariable(name, entry, tac.Dest(id))
	}
}

// WriteVariable records value as variable's current definition at the end
// of block.
func (b *Builder) WriteVariable(variable string, block tac.BBId, value tac.Value) {
	perBlock, ok := b.currentDef[variable]
	if !ok {
		perBlock = make(map[tac.BBId]tac.Value)
		b.currentDef[variable] = perBlock
	}
	perBlock[block] = value
}

// ReadVariable resolves variable's reaching definition at the end of block,
// recursing into predecessors (and inserting phis) when block itself has no
// local definition yet.
func (b *Builder) ReadVariable(variable string, block tac.BBId) tac.Value {
	if perBlock, ok := b.currentDef[variable]; ok {
		if v, ok := perBlock[block]; ok {
			return v
		}
	}
	return b.readVariableRecursive(variable, block)
}

func (b *Builder) readVariableRecursive(variable string, block tac.BBId) tac.Value {
	var value tac.Value

	if !b.sealed[block] {
		// block isn't sealed: we don't yet know all its predecessors, so
		// park an incomplete phi and come back to it at SealBlock time.
		phiID := b.newPhi(block, variable)
		b.recordIncompletePhi(block, variable, phiID)
		value = tac.Dest(phiID)
	} else if preds := b.Editor.PredOfBB(block); len(preds) == 1 {
		// Exactly one predecessor: no phi needed, just forward the read.
		value = b.ReadVariable(variable, preds[0])
	} else {
		// Multiple (or zero) predecessors: create a phi placeholder first,
		// to break reference cycles for variables live around loops, then
		// fill in its operands from every predecessor.
		phiID := b.newPhi(block, variable)
		b.WriteVariable(variable, block, tac.Dest(phiID))
		value = b.addPhiOperands(variable, block, phiID)
	}

	b.WriteVariable(variable, block, value)
	return value
}

// newPhi inserts an empty phi for variable at the start of block, typed
// from the variable's declared type.
func (b *Builder) newPhi(block tac.BBId, variable string) tac.InstId {
	ty := b.varTypes[variable]
	id, err := b.Editor.InsertAtStartOf(tac.Inst{Kind: tac.Phi{Inputs: make(map[tac.BBId]tac.InstId)}, Ty: ty}, block)
	if err != nil {
		panic(err)
	}
	return id
}

func (b *Builder) recordIncompletePhi(block tac.BBId, variable string, phi tac.InstId) {
	perVar, ok := b.incompletePhis[block]
	if !ok {
		perVar = make(map[string]tac.InstId)
		b.incompletePhis[block] = perVar
	}
	perVar[variable] = phi
}

// addPhiOperands fills phi (which lives in block) with one operand per
// predecessor of block, then tries to collapse it if it turns out trivial.
func (b *Builder) addPhiOperands(variable string, block tac.BBId, phi tac.InstId) tac.Value {
	for _, pred := range b.Editor.PredOfBB(block) {
		operand := b.ReadVariable(variable, pred)
		dest, ok := operand.AsDest()
		if !ok {
			// A predecessor's reaching definition is a bare immediate with
			// no defining instruction of its own (e.g. a literal never
			// bound to a local): materialize it so the phi has a handle to
			// point at, matching the "phi operands are instruction handles
			// only" restriction documented on tac.Phi.
			imm, _ := operand.AsImm()
			matID, err := b.Editor.InsertAtEndOf(tac.Inst{Kind: tac.Assign{Value: tac.Imm(imm)}, Ty: b.varTypes[variable]}, pred)
			if err != nil {
				panic(err)
			}
			dest = matID
		}
		b.setPhiOperand(phi, pred, dest)
	}
	return b.tryRemoveTrivialPhi(phi)
}

func (b *Builder) setPhiOperand(phi tac.InstId, pred tac.BBId, operand tac.InstId) {
	inst := b.Editor.Func.InstGet(phi)
	p := inst.Kind.(tac.Phi)
	if p.Inputs == nil {
		p.Inputs = make(map[tac.BBId]tac.InstId)
	}
	p.Inputs[pred] = operand
	inst.Kind = p
}

// tryRemoveTrivialPhi collapses phi to its unique non-self operand when it
// has one, rewriting every other reference to phi (including other phis,
// whose own triviality is then re-checked — the recursive step Braun et al.
// call "trivial phi elimination may cascade"). If phi has more than one
// distinct non-self operand, or none at all, it is kept as-is and
// Dest(phi) is returned.
func (b *Builder) tryRemoveTrivialPhi(phi tac.InstId) tac.Value {
	p := b.Editor.Func.InstGet(phi).Kind.(tac.Phi)

	var same tac.InstId
	sameSet := false
	for _, op := range p.Inputs {
		if op == phi {
			continue // self-reference: ignore, per the trivial-phi test
		}
		if sameSet && op != same {
			return tac.Dest(phi) // two distinct real operands: not trivial
		}
		same = op
		sameSet = true
	}
	if !sameSet {
		// Unreachable block or a phi with no predecessors yet: leave it.
		return tac.Dest(phi)
	}

	users := b.phiUsers(phi)
	b.replaceAllUses(phi, same)

	b.Editor.Func.InstGet(phi).Kind = tac.Dead{}
	b.Editor.Func.InstDetach(phi)
	b.Editor.Func.InstRemove(phi)

	for _, user := range users {
		if user == phi {
			continue
		}
		b.tryRemoveTrivialPhi(user)
	}

	return tac.Dest(same)
}

// phiUsers returns every other live phi in the function whose Inputs
// mentions phi, which is exactly the set of instructions that need
// re-checking after phi collapses (per Braun et al.'s cascade step).
func (b *Builder) phiUsers(phi tac.InstId) []tac.InstId {
	var out []tac.InstId
	for _, entry := range b.Editor.Func.AllInstUnordered() {
		if entry.Id == phi {
			continue
		}
		if p, ok := entry.Inst.Kind.(tac.Phi); ok {
			for _, op := range p.Inputs {
				if op == phi {
					out = append(out, entry.Id)
					break
				}
			}
		}
	}
	return out
}

// replaceAllUses rewrites every operand in the function that names old as
// Dest(old) to instead name Dest(with), and every phi input equal to old to
// with.
func (b *Builder) replaceAllUses(old, with tac.InstId) {
	for _, entry := range b.Editor.Func.AllInstUnordered() {
		switch k := entry.Inst.Kind.(type) {
		case tac.Binary:
			k.Lhs = replaceDest(k.Lhs, old, with)
			k.Rhs = replaceDest(k.Rhs, old, with)
			entry.Inst.Kind = k
		case tac.FunctionCall:
			for i, p := range k.Params {
				k.Params[i] = replaceDest(p, old, with)
			}
			entry.Inst.Kind = k
		case tac.Assign:
			k.Value = replaceDest(k.Value, old, with)
			entry.Inst.Kind = k
		case tac.Phi:
			for bb, op := range k.Inputs {
				if op == old {
					k.Inputs[bb] = with
				}
			}
			entry.Inst.Kind = k
		}
	}

	for _, entry := range b.Editor.Func.AllBBUnordered() {
		for i, j := range entry.BB.Jumps {
			switch br := j.(type) {
			case tac.Return:
				if br.HasValue {
					br.Value = replaceDest(br.Value, old, with)
					entry.BB.Jumps[i] = br
				}
			case tac.CondJump:
				br.Cond = replaceDest(br.Cond, old, with)
				entry.BB.Jumps[i] = br
			}
		}
	}

	for _, perBlock := range b.currentDef {
		for block, v := range perBlock {
			perBlock[block] = replaceDest(v, old, with)
		}
	}
}

func replaceDest(v tac.Value, old, with tac.InstId) tac.Value {
	if dest, ok := v.AsDest(); ok && dest == old {
		return tac.Dest(with)
	}
	return v
}

// SealBlock declares that every predecessor of block is now known: it
// completes every incomplete phi recorded for block (inserted by earlier
// reads that ran ahead of predecessor discovery) and marks block sealed.
// Callers must only seal a block once every one of its predecessor edges
// has been added; sealing early loses phi operands permanently.
func (b *Builder) SealBlock(block tac.BBId) {
	for variable, phi := range b.incompletePhis[block] {
		b.addPhiOperands(variable, block, phi)
	}
	delete(b.incompletePhis, block)
	b.sealed[block] = true
}

// MarkFilled records that block's own instructions (aside from later phi
// completion) are finished. Filled is tracked separately from sealed so a
// driver can fill a block before all of its predecessors exist (the common
// case for a loop header) and seal it later once the back-edge is known.
func (b *Builder) MarkFilled(block tac.BBId) {
	b.filled[block] = true
}

// IsSealed reports whether block has been sealed.
func (b *Builder) IsSealed(block tac.BBId) bool { return b.sealed[block] }

// IsFilled reports whether block has been marked filled.
func (b *Builder) IsFilled(block tac.BBId) bool { return b.filled[block] }
