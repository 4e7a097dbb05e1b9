package tac

import "fmt"

// CheckInvariants walks fn and reports every violation of three structural
// invariants: I1 (each block's instruction chain is consistent), the part
// of I2 that every jump target is a live block, and I6 (no Dest reference
// to a missing or Dead instruction). It does not check predecessor
// consistency (I3), phi operand domains (I4), trivial phis (I5) or SSA
// dominance. It never mutates fn. Intended for tests and debugging, not
// for the hot construction path.
func CheckInvariants(fn *TacFunc) []string {
	c := &checker{fn: fn}
	c.run()
	return c.problems
}

type checker struct {
	fn       *TacFunc
	problems []string
}

func (c *checker) report(format string, args ...any) {
	c.problems = append(c.problems, fmt.Sprintf(format, args...))
}

func (c *checker) run() {
	blocks := c.fn.AllBBUnordered()
	liveBlocks := make(map[BBId]bool, len(blocks))
	for _, b := range blocks {
		liveBlocks[b.Id] = true
	}

	for _, entry := range blocks {
		c.checkBlockChain(entry.Id, entry.BB)
		c.checkSuccessorTargetsLive(entry.Id, entry.BB, liveBlocks)
	}

	c.checkLiveDestUses(blocks)
}

// checkBlockChain is invariant I1: every instruction in bb's chain has
// inst.bb == bb, head has no predecessor, tail has no successor, and
// walking next from head reaches tail in finitely many steps.
func (c *checker) checkBlockChain(id BBId, bb *BasicBlock) {
	head, hasHead := bb.Head()
	tail, hasTail := bb.Tail()
	if hasHead != hasTail {
		c.report("block %s: head present=%v but tail present=%v", id, hasHead, hasTail)
		return
	}
	if !hasHead {
		return
	}

	if h := c.fn.TacGet(head); !h.prev.IsNil() {
		c.report("block %s: head %s has a predecessor %s", id, head, h.prev)
	}
	if t := c.fn.TacGet(tail); !t.next.IsNil() {
		c.report("block %s: tail %s has a successor %s", id, tail, t.next)
	}

	seen := make(map[InstId]bool)
	cur := head
	reached := false
	for i := 0; i < len(c.fn.insts.slots)+1; i++ {
		if seen[cur] {
			c.report("block %s: instruction chain cycles at %s", id, cur)
			return
		}
		seen[cur] = true

		t := c.fn.TacGet(cur)
		if t.bb != id {
			c.report("block %s: instruction %s claims owning block %s", id, cur, t.bb)
		}
		if cur == tail {
			reached = true
			break
		}
		if t.next.IsNil() {
			c.report("block %s: chain ended before reaching tail %s", id, tail)
			return
		}
		cur = t.next
	}
	if !reached {
		c.report("block %s: did not reach tail %s within arena size", id, tail)
	}
}

// checkSuccessorTargetsLive is part of I2: every target named in bb.Jumps
// must be a live block.
func (c *checker) checkSuccessorTargetsLive(id BBId, bb *BasicBlock, live map[BBId]bool) {
	for _, j := range bb.Jumps {
		for _, t := range j.Targets() {
			if !live[t] {
				c.report("block %s: jump targets dead block %s", id, t)
			}
		}
	}
}

// checkLiveDestUses is invariant I6: every Value::Dest(i) appearing
// anywhere must reference a live, non-Dead instruction.
func (c *checker) checkLiveDestUses(blocks []struct {
	Id BBId
	BB *BasicBlock
}) {
	check := func(v Value) {
		dest, ok := v.AsDest()
		if !ok {
			return
		}
		inst, ok := c.fn.insts.get(Handle(dest))
		if !ok {
			c.report("dangling Dest reference to %s", dest)
			return
		}
		if _, dead := inst.Inst.Kind.(Dead); dead {
			c.report("Dest reference to Dead instruction %s", dest)
		}
	}

	for _, b := range blocks {
		for h := range c.fn.insts.itemsIter(Handle(must(b.BB.Head())), NilHandle) {
			inst := c.fn.insts.mustGet(h)
			switch k := inst.Inst.Kind.(type) {
			case Binary:
				check(k.Lhs)
				check(k.Rhs)
			case FunctionCall:
				for _, p := range k.Params {
					check(p)
				}
			case Assign:
				check(k.Value)
			case Phi:
				// Phi operands are InstId, always checked against liveness directly.
				for _, src := range k.Inputs {
					if inst2, ok := c.fn.insts.get(Handle(src)); !ok {
						c.report("phi operand %s is dangling", src)
					} else if _, dead := inst2.Inst.Kind.(Dead); dead {
						c.report("phi operand %s is Dead", src)
					}
				}
			}
		}
		for _, j := range b.BB.Jumps {
			switch br := j.(type) {
			case Return:
				if br.HasValue {
					check(br.Value)
				}
			case CondJump:
				check(br.Cond)
			}
		}
	}
}

func must(h InstId, ok bool) InstId {
	if !ok {
		return NilInstId
	}
	return h
}
