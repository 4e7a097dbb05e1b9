package tac

import "fmt"

// InstId is a stable, copyable reference to an instruction stored in a
// TacFunc's instruction arena. It carries a generation counter so that a
// handle captured before an instruction was removed and replaced can be
// detected as stale rather than silently aliasing an unrelated entry.
//
// InstId is defined as a distinct named type over the shared Handle layout
// (see arena.go) rather than a second hand-rolled struct, so the arena
// implementation is written once and InstId/BBId stay compiler-distinct.
type InstId Handle

// BBId is the basic-block analogue of InstId.
type BBId Handle

// nilIndex marks "no slot" inside a handle. Generation 0 is reserved for the
// null handle value, so any live slot carries generation >= 1.
const nilIndex = ^uint32(0)

// NilInstId is the reserved handle that never refers to a live instruction.
var NilInstId = InstId(NilHandle)

// NilBBId is the reserved handle that never refers to a live block.
var NilBBId = BBId(NilHandle)

// IsNil reports whether id is the reserved null handle.
func (id InstId) IsNil() bool { return Handle(id).isNil() }

// IsNil reports whether id is the reserved null handle.
func (id BBId) IsNil() bool { return Handle(id).isNil() }

func (id InstId) String() string {
	if id.IsNil() {
		return "inst<nil>"
	}
	return fmt.Sprintf("inst%d.%d", id.index, id.generation)
}

func (id BBId) String() string {
	if id.IsNil() {
		return "bb%<nil>"
	}
	return fmt.Sprintf("bb%d.%d", id.index, id.generation)
}
