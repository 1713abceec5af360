package pipeline

import (
	"github.com/sarchlab/apexsim/emu"
	"github.com/sarchlab/apexsim/insts"
)

// FetchStage supplies one instruction per cycle in program order.
type FetchStage struct {
	prog  *insts.Program
	pc    uint32
	latch Latch
	stats *Statistics

	// skip idles fetch for the cycle in which the PC is redirected.
	skip bool
	// halted stops fetch once HALT has been decoded.
	halted bool
}

// NewFetchStage creates a fetch stage starting at the program base.
func NewFetchStage(prog *insts.Program, stats *Statistics) *FetchStage {
	return &FetchStage{
		prog:  prog,
		pc:    prog.Base,
		stats: stats,
	}
}

// PC returns the address of the next instruction to fetch.
func (s *FetchStage) PC() uint32 {
	return s.pc
}

// Fetch reads the instruction at the PC and hands it to decode. If decode
// is occupied the fetched entry is held and handed over on a later cycle.
func (s *FetchStage) Fetch(decode *Latch) {
	if s.skip {
		s.skip = false
		return
	}

	if !s.latch.Occupied() {
		if s.halted {
			return
		}
		inst, ok := s.prog.At(s.pc)
		if !ok {
			return
		}
		s.latch.Put(newEntry(inst, s.pc))
		s.pc += insts.InstSize
	}

	if decode.Occupied() {
		s.latch.Entry.Stalled = true
		s.stats.FetchStalls++
		return
	}

	e := s.latch.Take()
	e.Stalled = false
	decode.Put(e)
}

// Redirect restarts fetch at target on the next cycle.
func (s *FetchStage) Redirect(target uint32) {
	s.pc = target
	s.latch.Clear()
	s.skip = true
	s.halted = false
}

// Halt stops fetch and discards the held entry.
func (s *FetchStage) Halt() {
	s.halted = true
	s.latch.Clear()
}

// StallCause tells why decode could not admit an entry.
type StallCause int

// Decode stall causes.
const (
	StallNone StallCause = iota
	StallFreeList
	StallIssueQueue
	StallROB
)

func (c StallCause) String() string {
	switch c {
	case StallFreeList:
		return "free list empty"
	case StallIssueQueue:
		return "issue queue full"
	case StallROB:
		return "reorder buffer full"
	default:
		return "none"
	}
}

// DecodeStage renames the resident entry and admits it to the issue queue
// and the reorder buffer.
type DecodeStage struct {
	latch Latch

	table   *RenameTable
	free    *FreeList
	regs    *PhysRegFile
	arch    *emu.RegFile
	queue   *IssueQueue
	rob     *ReorderBuffer
	fetch   *FetchStage
	stats   *Statistics
	numArch int

	nextSeq     uint64
	lastCompare uint64
	lastStall   StallCause
}

// NewDecodeStage creates a decode stage.
func NewDecodeStage(
	table *RenameTable,
	free *FreeList,
	regs *PhysRegFile,
	arch *emu.RegFile,
	queue *IssueQueue,
	rob *ReorderBuffer,
	fetch *FetchStage,
	stats *Statistics,
	numArch int,
) *DecodeStage {
	return &DecodeStage{
		table:   table,
		free:    free,
		regs:    regs,
		arch:    arch,
		queue:   queue,
		rob:     rob,
		fetch:   fetch,
		stats:   stats,
		numArch: numArch,
	}
}

// Latch returns the decode input latch.
func (s *DecodeStage) Latch() *Latch {
	return &s.latch
}

// LastStall returns the cause of the most recent decode stall.
func (s *DecodeStage) LastStall() StallCause {
	return s.lastStall
}

// Decode renames the resident entry. When a structure it needs is full the
// entry is marked stalled and nothing else changes.
func (s *DecodeStage) Decode() {
	if !s.latch.Occupied() {
		return
	}

	e := &s.latch.Entry
	if cause := s.admission(e); cause != StallNone {
		e.Stalled = true
		s.lastStall = cause
		s.countStall(cause)
		return
	}
	e.Stalled = false

	s.nextSeq++
	e.Seq = s.nextSeq

	s.renameSources(e)
	s.renameDest(e)

	switch e.Inst.Op {
	case insts.OpCMP:
		s.lastCompare = e.Seq
	case insts.OpHALT:
		e.Done = true
		s.fetch.Halt()
	case insts.OpNOP:
		e.Done = true
	}

	if e.Class == insts.ClassScheduled {
		s.queue.Push(*e)
	}
	s.rob.Push(*e)
	s.latch.Clear()
}

func (s *DecodeStage) hasDest(inst insts.Instruction) bool {
	return inst.Op.WritesRegister() && int(inst.Rd) < s.numArch
}

// admission checks every structure the entry needs before any of them is
// touched.
func (s *DecodeStage) admission(e *Entry) StallCause {
	if s.hasDest(e.Inst) && s.free.Empty() {
		return StallFreeList
	}
	if e.Class == insts.ClassScheduled && s.queue.Full() {
		return StallIssueQueue
	}
	if s.rob.Full() {
		return StallROB
	}
	return StallNone
}

func (s *DecodeStage) renameSources(e *Entry) {
	srcs := e.Inst.Sources()
	e.NumSrcs = len(srcs)
	for i, r := range srcs {
		p := s.table.Lookup(r)
		e.Srcs[i] = p
		if p == NoPhys {
			e.Values[i] = s.arch.ReadReg(r)
		}
	}

	switch e.Inst.Op {
	case insts.OpBZ, insts.OpBNZ:
		e.CompareSeq = s.lastCompare
	}
}

func (s *DecodeStage) renameDest(e *Entry) {
	if !s.hasDest(e.Inst) {
		return
	}
	pd, _ := s.free.Pop()
	s.regs.Invalidate(pd)
	e.Pd = pd
	e.PrevPd = s.table.Map(e.Inst.Rd, pd)
}

func (s *DecodeStage) countStall(cause StallCause) {
	s.stats.Stalls++
	switch cause {
	case StallFreeList:
		s.stats.FreeListStalls++
	case StallIssueQueue:
		s.stats.IssueQueueStalls++
	case StallROB:
		s.stats.ROBStalls++
	}
}

// flush discards the resident entry after a recovery. No compare is in
// flight afterwards since the reorder buffer is empty.
func (s *DecodeStage) flush() {
	s.latch.Clear()
	s.lastCompare = 0
}
