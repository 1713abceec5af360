package pipeline

import (
	"github.com/sarchlab/apexsim/emu"
	"github.com/sarchlab/apexsim/insts"
	"github.com/sarchlab/apexsim/timing/latency"
)

// completer is notified when a unit finishes an entry.
type completer interface {
	complete(e Entry)
}

// ExecUnit is a non-pipelined functional unit. It holds one entry for the
// latency of its operation and publishes the result when the latency has
// elapsed.
type ExecUnit struct {
	name      string
	latencies *latency.Table
	alu       *emu.ALU
	regs      *PhysRegFile
	compares  *CompareTable
	done      completer
	stats     *Statistics

	entry     Entry
	remaining uint64
}

// NewExecUnit creates a functional unit.
func NewExecUnit(
	name string,
	latencies *latency.Table,
	regs *PhysRegFile,
	compares *CompareTable,
	done completer,
	stats *Statistics,
) *ExecUnit {
	return &ExecUnit{
		name:      name,
		latencies: latencies,
		alu:       emu.NewALU(),
		regs:      regs,
		compares:  compares,
		done:      done,
		stats:     stats,
	}
}

// Name returns the unit name.
func (u *ExecUnit) Name() string {
	return u.name
}

// Busy returns true while the unit holds an entry.
func (u *ExecUnit) Busy() bool {
	return u.entry.Valid
}

// Current returns the entry in execution and the cycles it still needs.
func (u *ExecUnit) Current() (Entry, uint64) {
	return u.entry, u.remaining
}

// CanAccept returns true if a new entry can be dispatched this cycle.
func (u *ExecUnit) CanAccept() bool {
	return !u.entry.Valid
}

// Accept starts executing e.
func (u *ExecUnit) Accept(e Entry) {
	u.entry = e
	u.remaining = u.latencies.GetLatency(e.Inst.Op)
}

// Tick advances the unit by one cycle and completes the entry when its
// latency has elapsed.
func (u *ExecUnit) Tick() {
	if !u.entry.Valid {
		return
	}

	u.remaining--
	if u.remaining > 0 {
		return
	}

	e := u.entry
	u.entry.Clear()

	inst := e.Inst
	res := u.alu.Compute(inst.Op, e.Values[0], e.Values[1], inst.Imm)
	if res.DivideByZero {
		u.stats.DivideByZero++
	}
	e.Result = res.Value

	switch inst.Op {
	case insts.OpCMP:
		u.compares.Put(e.Seq, e.Result)
	default:
		if e.Pd != NoPhys {
			u.regs.Write(e.Pd, e.Result)
		}
	}

	u.done.complete(e)
}

// Flush discards the entry in execution.
func (u *ExecUnit) Flush() {
	u.entry.Clear()
	u.remaining = 0
}

// BranchUnit is the two-stage control unit. The first stage decides the
// branch outcome; the second stage delays the decision one cycle before it
// reaches the reorder buffer.
type BranchUnit struct {
	stage1 Latch
	stage2 Latch

	regs     *PhysRegFile
	compares *CompareTable
	flag     func() emu.Flag
	done     completer
}

// NewBranchUnit creates a branch unit. flag returns the committed
// comparison flag.
func NewBranchUnit(
	regs *PhysRegFile,
	compares *CompareTable,
	flag func() emu.Flag,
	done completer,
) *BranchUnit {
	return &BranchUnit{
		regs:     regs,
		compares: compares,
		flag:     flag,
		done:     done,
	}
}

// CanAccept returns true if the first stage is free.
func (u *BranchUnit) CanAccept() bool {
	return !u.stage1.Occupied()
}

// Accept places e in the first stage.
func (u *BranchUnit) Accept(e Entry) {
	u.stage1.Put(e)
}

// TickStage2 hands the resolved branch in the second stage to the reorder
// buffer.
func (u *BranchUnit) TickStage2() {
	if !u.stage2.Occupied() {
		return
	}
	u.done.complete(u.stage2.Take())
}

// TickStage1 resolves the branch in the first stage and moves it on.
func (u *BranchUnit) TickStage1() {
	if !u.stage1.Occupied() || u.stage2.Occupied() {
		return
	}

	e := u.stage1.Take()
	flag := u.compares.Flag(e.CompareSeq, u.flag())
	res := emu.ResolveBranch(e.Inst, e.PC, e.Values[0], flag)
	e.Taken = res.Taken
	e.Target = res.Target

	if e.Inst.Op == insts.OpJAL && e.Pd != NoPhys {
		e.Result = res.Link
		u.regs.Write(e.Pd, e.Result)
	}

	u.stage2.Put(e)
}

// Flush empties both stages.
func (u *BranchUnit) Flush() {
	u.stage1.Clear()
	u.stage2.Clear()
}

// Entries returns the entries held in the first and second stage.
func (u *BranchUnit) Entries() []Entry {
	var out []Entry
	for _, l := range []*Latch{&u.stage1, &u.stage2} {
		if l.Occupied() {
			out = append(out, l.Entry)
		}
	}
	return out
}
