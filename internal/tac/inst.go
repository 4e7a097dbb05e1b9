package tac

// InstKind is the sum of instruction payloads an Inst can carry. It is a
// sealed interface: every case lives in this file and implements the
// unexported marker method so no outside package can add a new kind (the
// editor and SSA builder switch over the closed set exhaustively).
type InstKind interface {
	instKind()
}

// BinaryOp enumerates the arithmetic and comparison operators a Binary
// instruction can carry.
type BinaryOp int

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	Lt
	Gt
	Le
	Ge
	Eq
	Ne
)

// IsComparison reports whether op is one of the six comparison operators,
// whose result is always TyInt(1) regardless of its operands' width: this
// type system has no separate boolean type, so comparisons just produce a
// single-bit integer.
func (op BinaryOp) IsComparison() bool {
	switch op {
	case Lt, Gt, Le, Ge, Eq, Ne:
		return true
	default:
		return false
	}
}

func (op BinaryOp) String() string {
	switch op {
	case Add:
		return "add"
	case Sub:
		return "sub"
	case Mul:
		return "mul"
	case Div:
		return "div"
	case Lt:
		return "lt"
	case Gt:
		return "gt"
	case Le:
		return "le"
	case Ge:
		return "ge"
	case Eq:
		return "eq"
	case Ne:
		return "ne"
	default:
		return "?"
	}
}

// Binary is a two-operand arithmetic or comparison instruction.
type Binary struct {
	Op       BinaryOp
	Lhs, Rhs Value
}

func (Binary) instKind() {}

// FunctionCall invokes a named function with the given argument values. The
// callee is carried by name, never by handle: cross-function references do
// not exist in this IR.
type FunctionCall struct {
	Name   string
	Params []Value
}

func (FunctionCall) instKind() {}

// Assign is a pure copy/forward of another value, given its own identity so
// it can be a Phi operand or otherwise referenced by InstId.
type Assign struct {
	Value Value
}

func (Assign) instKind() {}

// Phi selects an operand per predecessor block. The operand coming from a
// given predecessor is itself an instruction handle, never an immediate
// Value; an immediate operand must be materialized with a preceding
// Assign(Imm(k)).
//
// The map's domain must equal the predecessor set of the block holding this
// Phi once that block is sealed (invariant I4); while the block is
// unsealed the map may be a strict subset (§4.3).
type Phi struct {
	Inputs map[BBId]InstId
}

func (Phi) instKind() {}

// Param is a formal parameter, numbered by its position in the function
// signature.
type Param struct {
	Index int
}

func (Param) instKind() {}

// Dead marks a removed or trivially-replaced definition. Its InstId may
// still be referenced by stale bookkeeping (e.g. a Phi's operand map
// before the map itself is rewritten); readers must never treat a Dead
// instruction's value as live.
type Dead struct{}

func (Dead) instKind() {}

// Inst is a plain instruction record: a payload plus its result type. Unit
// type on a side-effecting instruction (Assign/FunctionCall used for
// effect/Phi with no consumers) has no particular meaning beyond "this
// instruction produces no usable value".
type Inst struct {
	Kind InstKind
	Ty   Ty
}

// Tac wraps an Inst with its position: owning block and intrusive
// doubly-linked list neighbours. An instruction whose prev and next are
// both absent and whose bb is the null handle is freestanding: allocated
// but not yet placed in any block.
type Tac struct {
	Inst Inst
	bb   BBId
	prev InstId
	next InstId
}

// BB returns the block this instruction currently belongs to, or NilBBId
// if it is freestanding.
func (t *Tac) BB() BBId { return t.bb }

// Prev returns the preceding instruction in its block's list, if any.
func (t *Tac) Prev() (InstId, bool) { return t.prev, !t.prev.IsNil() }

// Next returns the following instruction in its block's list, if any.
func (t *Tac) Next() (InstId, bool) { return t.next, !t.next.IsNil() }

// IsFreestanding reports whether t has been allocated but not placed into
// any block's instruction list.
func (t *Tac) IsFreestanding() bool {
	return t.bb.IsNil() && t.prev.IsNil() && t.next.IsNil()
}

func (t *Tac) linkPrev() Handle     { return Handle(t.prev) }
func (t *Tac) linkSetPrev(h Handle) { t.prev = InstId(h) }
func (t *Tac) linkNext() Handle     { return Handle(t.next) }
func (t *Tac) linkSetNext(h Handle) { t.next = InstId(h) }

// Branch is a basic block terminator: Return, Jump, or CondJump. A block
// may hold zero or more branches; the last is unconditional in effect, and
// a CondJump falls through to the next-listed branch in the same block
// when its condition is zero.
type Branch interface {
	branch()
	// Targets returns the block(s) control transfers to when this branch
	// is the one taken. A CondJump's fallthrough is a separate Branch
	// entry in the block's jump list, not part of this Targets() result.
	Targets() []BBId
}

// Return exits the function, optionally with a value.
type Return struct {
	Value    Value
	HasValue bool
}

func (Return) branch()         {}
func (Return) Targets() []BBId { return nil }

// Jump unconditionally transfers control to Target.
type Jump struct {
	Target BBId
}

func (Jump) branch()           {}
func (j Jump) Targets() []BBId { return []BBId{j.Target} }

// CondJump transfers control to Target when Cond is non-zero; otherwise
// control falls through to the next branch listed in the same block.
type CondJump struct {
	Cond   Value
	Target BBId
}

func (CondJump) branch()           {}
func (c CondJump) Targets() []BBId { return []BBId{c.Target} }
