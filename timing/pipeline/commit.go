package pipeline

import (
	"github.com/sarchlab/apexsim/emu"
	"github.com/sarchlab/apexsim/insts"
)

// flushable is a unit whose in-flight work is discarded on recovery.
type flushable interface {
	Flush()
}

// CommitStage retires reorder buffer entries in program order, schedules
// memory instructions that reach the head, and performs recovery.
type CommitStage struct {
	rob      *ReorderBuffer
	queue    *IssueQueue
	table    *RenameTable
	free     *FreeList
	regs     *PhysRegFile
	arch     *emu.RegFile
	compares *CompareTable
	hazards  *AddressHazards
	memory   *MemoryUnit
	units    []flushable
	decode   *DecodeStage
	fetch    *FetchStage
	stats    *Statistics
	probe    Probe
	width    int
}

// Commit retires up to width entries from the head. It returns true once
// HALT has retired.
func (s *CommitStage) Commit() bool {
	for n := 0; n < s.width; n++ {
		head := s.rob.Head()
		if head == nil {
			return false
		}

		if head.Inst.Op.IsMemory() && !head.Issued {
			s.scheduleMemory(head)
			return false
		}

		if !head.Done {
			return false
		}

		e := s.rob.Pop()
		s.retire(e)

		switch {
		case e.Inst.Op == insts.OpHALT:
			s.squash()
			s.fetch.Halt()
			return true
		case e.Taken:
			squashed := s.squash()
			s.fetch.Redirect(e.Target)
			s.stats.Flushes++
			if s.probe != nil {
				s.probe.OnFlush(s.stats.Cycles, e, squashed)
			}
			return false
		}
	}
	return false
}

// scheduleMemory sends the memory instruction at the head into the memory
// pipeline once its sources are produced and its address is not reserved.
func (s *CommitStage) scheduleMemory(head *Entry) {
	if !s.memory.CanAccept() {
		return
	}

	for i := 0; i < head.NumSrcs; i++ {
		if p := head.Srcs[i]; p != NoPhys && !s.regs.Valid(p) {
			return
		}
	}
	for i := 0; i < head.NumSrcs; i++ {
		if p := head.Srcs[i]; p != NoPhys {
			head.Values[i] = s.regs.Read(p)
		}
	}

	if s.hazards.Busy(addressOf(head)) {
		s.stats.HazardWaits++
		return
	}

	head.Issued = true
	s.stats.MemoryDispatches++
	s.memory.Accept(*head)
}

// retire makes the effects of e architectural.
func (s *CommitStage) retire(e Entry) {
	if e.Dropped {
		s.stats.Dropped++
		return
	}

	if e.Pd != NoPhys {
		s.arch.WriteReg(e.Inst.Rd, s.regs.Read(e.Pd))
		s.free.Push(e.PrevPd)
	}

	switch {
	case e.Inst.Op == insts.OpCMP:
		s.arch.Flag = emu.Flag{Diff: e.Result, Set: true}
		s.compares.Retire(e.Seq)
	case e.Inst.Op.IsMemory() && e.Reserved:
		s.hazards.Release(e.Address)
	}

	if e.Taken {
		s.arch.PC = e.Target
	} else {
		s.arch.PC = e.PC + insts.InstSize
	}

	s.stats.Instructions++
	if s.probe != nil {
		s.probe.OnRetire(s.stats.Cycles, e)
	}
}

// squash discards every entry younger than the one just retired. Entries
// are undone youngest first so each architectural register ends up mapped
// as it was before the oldest discarded writer. It returns the number of
// reorder buffer entries discarded.
func (s *CommitStage) squash() int {
	squashed := 0
	s.rob.SquashAll(func(e Entry) {
		squashed++
		if e.Pd != NoPhys {
			s.table.Restore(e.Inst.Rd, e.PrevPd)
			s.free.Push(e.Pd)
		}
		if e.Reserved {
			s.hazards.Release(e.Address)
		}
		if e.Inst.Op == insts.OpCMP {
			s.compares.Discard(e.Seq)
		}
	})

	s.queue.Clear()
	for _, u := range s.units {
		u.Flush()
	}
	s.decode.flush()

	s.stats.Squashed += uint64(squashed)
	return squashed
}
