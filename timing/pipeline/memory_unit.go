package pipeline

import (
	"github.com/sarchlab/apexsim/emu"
)

// MemoryUnit is the two-stage memory pipeline. Memory instructions enter
// it from the reorder buffer head. The first stage computes the effective
// address and reserves the address-hazard bit of stores; the second stage
// accesses data memory.
type MemoryUnit struct {
	stage1 Latch
	stage2 Latch

	memory  *emu.Memory
	hazards *AddressHazards
	regs    *PhysRegFile
	done    completer
	stats   *Statistics
}

// NewMemoryUnit creates the memory pipeline.
func NewMemoryUnit(
	memory *emu.Memory,
	hazards *AddressHazards,
	regs *PhysRegFile,
	done completer,
	stats *Statistics,
) *MemoryUnit {
	return &MemoryUnit{
		memory:  memory,
		hazards: hazards,
		regs:    regs,
		done:    done,
		stats:   stats,
	}
}

// CanAccept returns true if the first stage is free.
func (u *MemoryUnit) CanAccept() bool {
	return !u.stage1.Occupied()
}

// Accept places e in the first stage. The source values of e must already
// be captured.
func (u *MemoryUnit) Accept(e Entry) {
	u.stage1.Put(e)
}

// TickStage2 performs the access of the instruction in the second stage.
func (u *MemoryUnit) TickStage2() {
	if !u.stage2.Occupied() {
		return
	}

	e := u.stage2.Take()
	if e.Inst.Op.IsStore() {
		if err := u.memory.Write(e.Address, e.StoreData); err != nil {
			u.stats.MemFaults++
		}
	} else {
		value, err := u.memory.Read(e.Address)
		if err != nil {
			u.stats.MemFaults++
		}
		e.Result = value
		if e.Pd != NoPhys {
			u.regs.Write(e.Pd, value)
		}
	}

	u.done.complete(e)
}

// TickStage1 computes the address of the instruction in the first stage and
// moves it on.
func (u *MemoryUnit) TickStage1() {
	if !u.stage1.Occupied() || u.stage2.Occupied() {
		return
	}

	e := u.stage1.Take()
	srcs := e.Values[:e.NumSrcs]
	e.Address = emu.EffectiveAddress(e.Inst, srcs)
	if e.Inst.Op.IsStore() {
		e.StoreData = emu.StoreData(e.Inst, srcs)
		e.Reserved = u.hazards.Reserve(e.Address)
	}

	u.stage2.Put(e)
}

// Flush empties both stages and releases their reservations.
func (u *MemoryUnit) Flush() {
	for _, l := range []*Latch{&u.stage1, &u.stage2} {
		if l.Occupied() && l.Entry.Reserved {
			u.hazards.Release(l.Entry.Address)
		}
		l.Clear()
	}
}

// Entries returns the entries held in the first and second stage.
func (u *MemoryUnit) Entries() []Entry {
	var out []Entry
	for _, l := range []*Latch{&u.stage1, &u.stage2} {
		if l.Occupied() {
			out = append(out, l.Entry)
		}
	}
	return out
}

// addressOf computes the effective address of a memory entry whose sources
// are captured.
func addressOf(e *Entry) int32 {
	return emu.EffectiveAddress(e.Inst, e.Values[:e.NumSrcs])
}
