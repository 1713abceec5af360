// Package pipeline provides the out-of-order APEX pipeline for timing
// simulation.
package pipeline

import "github.com/sarchlab/apexsim/insts"

// NoPhys marks an operand or mapping that does not name a physical register.
const NoPhys = -1

// maxSources is the largest number of register sources an instruction reads
// (STR reads two address registers and its data register).
const maxSources = 3

// Entry is one in-flight instruction. Entries are copied by value between
// latches; the reorder buffer slot is the copy that tracks completion.
type Entry struct {
	// Valid indicates the latch or slot holds an instruction.
	Valid bool

	// Seq is the dynamic sequence number assigned at decode. It increases
	// monotonically in program order and is never reused.
	Seq uint64

	// PC is the address the instruction was fetched from.
	PC uint32

	// Inst is the decoded instruction record.
	Inst insts.Instruction

	// Class routes the entry to the issue queue or straight to the ROB.
	Class insts.Class

	// Pd is the renamed destination, or NoPhys.
	Pd int
	// PrevPd is the mapping Pd displaced. It is freed when this entry
	// retires and restored when it is squashed.
	PrevPd int

	// Srcs holds the physical register of each source in the order of
	// insts.Instruction.Sources. NoPhys means the committed value was
	// captured into Values at decode.
	Srcs    [maxSources]int
	NumSrcs int
	Values  [maxSources]int32

	// CompareSeq is the CMP a BZ or BNZ consumes, 0 when none was in flight.
	CompareSeq uint64

	// Result is the value produced for Pd, or the difference for CMP.
	Result int32

	// Memory access fields.
	Address   int32
	StoreData int32
	Issued    bool // sent to the memory pipeline
	Reserved  bool // holds the address-hazard bit of Address

	// Branch outcome.
	Taken  bool
	Target uint32

	// Done is set once the entry may retire.
	Done bool
	// Dropped marks an unrecognized instruction discarded at dispatch.
	Dropped bool

	// Stalled is set while decode cannot admit the entry.
	Stalled bool
}

// Clear resets the entry to empty state.
func (e *Entry) Clear() {
	*e = Entry{}
}

// newEntry creates an un-renamed entry for inst fetched at pc.
func newEntry(inst insts.Instruction, pc uint32) Entry {
	e := Entry{
		Valid:  true,
		PC:     pc,
		Inst:   inst,
		Class:  inst.Op.Class(),
		Pd:     NoPhys,
		PrevPd: NoPhys,
	}
	for i := range e.Srcs {
		e.Srcs[i] = NoPhys
	}
	return e
}

// Latch is a pipeline register holding at most one entry.
type Latch struct {
	Entry Entry
}

// Occupied returns true if the latch holds an instruction.
func (l *Latch) Occupied() bool {
	return l.Entry.Valid
}

// Put stores e in the latch.
func (l *Latch) Put(e Entry) {
	l.Entry = e
}

// Take returns the held entry and empties the latch.
func (l *Latch) Take() Entry {
	e := l.Entry
	l.Entry.Clear()
	return e
}

// Clear empties the latch.
func (l *Latch) Clear() {
	l.Entry.Clear()
}
