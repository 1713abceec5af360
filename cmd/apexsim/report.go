package main

import (
	"fmt"
	"io"

	"github.com/sarchlab/apexsim/emu"
	"github.com/sarchlab/apexsim/timing/pipeline"
)

// printRegisters prints the architectural registers, four per line.
func printRegisters(w io.Writer, regs *emu.RegFile) {
	fmt.Fprintf(w, "\nRegisters:\n")
	for i, v := range regs.Values {
		status := "VALID"
		if !regs.Valid[i] {
			status = "INVALID"
		}
		fmt.Fprintf(w, "  R%-2d = %-8d %-8s", i, v, status)
		if i%4 == 3 || i == len(regs.Values)-1 {
			fmt.Fprintln(w)
		}
	}

	flag := "unset"
	if regs.Flag.Set {
		flag = fmt.Sprintf("diff=%d zero=%t", regs.Flag.Diff, regs.Flag.Zero())
	}
	fmt.Fprintf(w, "  PC  = %d, flag: %s\n", regs.PC, flag)
}

// printMemory prints the requested addresses followed by every non-zero
// data memory cell.
func printMemory(w io.Writer, memory *emu.Memory, addrs []int32) {
	if len(addrs) > 0 {
		fmt.Fprintf(w, "\nMemory:\n")
		for _, addr := range addrs {
			if !memory.Contains(addr) {
				fmt.Fprintf(w, "  MEM[%d] = out of range\n", addr)
				continue
			}
			fmt.Fprintf(w, "  MEM[%d] = %d\n", addr, memory.Peek(addr))
		}
	}

	cells := memory.NonZero()
	fmt.Fprintf(w, "\nNon-zero memory (%d cells):\n", len(cells))
	for _, c := range cells {
		fmt.Fprintf(w, "  MEM[%d] = %d\n", c.Addr, c.Value)
	}
}

// printStats prints the pipeline statistics.
func printStats(w io.Writer, stats pipeline.Statistics) {
	fmt.Fprintf(w, "\nTotal Cycles: %d\n", stats.Cycles)
	fmt.Fprintf(w, "Total Instructions: %d\n", stats.Instructions)
	fmt.Fprintf(w, "CPI: %.3f\n", stats.CPI())

	fmt.Fprintf(w, "\nPipeline Events:\n")
	fmt.Fprintf(w, "  Flushes: %d (%d entries squashed)\n", stats.Flushes, stats.Squashed)
	fmt.Fprintf(w, "  Decode stalls: %d (free list %d, issue queue %d, ROB %d)\n",
		stats.Stalls, stats.FreeListStalls, stats.IssueQueueStalls, stats.ROBStalls)
	fmt.Fprintf(w, "  Fetch stalls: %d\n", stats.FetchStalls)
	fmt.Fprintf(w, "  Hazard waits: %d\n", stats.HazardWaits)
	fmt.Fprintf(w, "  Dispatches: int %d, mul %d, branch %d, mem %d\n",
		stats.IntegerDispatches, stats.MultiplyDispatches,
		stats.BranchDispatches, stats.MemoryDispatches)

	if stats.Dropped > 0 || stats.MemFaults > 0 || stats.DivideByZero > 0 {
		fmt.Fprintf(w, "  Dropped: %d, memory faults: %d, divide by zero: %d\n",
			stats.Dropped, stats.MemFaults, stats.DivideByZero)
	}
}

// printPipeline prints the occupancy of the pipeline structures.
func printPipeline(w io.Writer, pipe *pipeline.Pipeline) {
	fmt.Fprintf(w, "\nCycle %d, fetch PC %d\n", pipe.Stats().Cycles, pipe.PC())

	if e, ok := pipe.DecodeEntry(); ok {
		fmt.Fprintf(w, "Decode: %s (pc %d)", e.Inst, e.PC)
		if e.Stalled {
			fmt.Fprintf(w, " stalled: %s", pipe.LastStall())
		}
		fmt.Fprintln(w)
	} else {
		fmt.Fprintf(w, "Decode: empty\n")
	}

	fmt.Fprintf(w, "Issue queue (%d):\n", pipe.IssueQueueLen())
	for _, e := range pipe.IssueQueueEntries() {
		fmt.Fprintf(w, "  #%-4d %s\n", e.Seq, e.Inst)
	}

	for _, u := range pipe.ExecUnits() {
		if !u.Busy() {
			fmt.Fprintf(w, "Unit %s: idle\n", u.Name())
			continue
		}
		e, left := u.Current()
		fmt.Fprintf(w, "Unit %s: #%d %s (%d cycles left)\n", u.Name(), e.Seq, e.Inst, left)
	}

	fmt.Fprintf(w, "ROB (%d/%d):\n", pipe.ROBLen(), pipe.ROBCap())
	for _, e := range pipe.ROBEntries() {
		state := "waiting"
		if e.Done {
			state = "done"
		}
		fmt.Fprintf(w, "  #%-4d %-20s %s\n", e.Seq, e.Inst, state)
	}

	fmt.Fprintf(w, "Rename table:")
	for r, p := range pipe.RenameTable() {
		if p != pipeline.NoPhys {
			fmt.Fprintf(w, " R%d->P%d", r, p)
		}
	}
	fmt.Fprintf(w, "\nFree physical registers: %d\n", pipe.FreeRegs())
}

// traceProbe prints one line per retirement and flush.
type traceProbe struct {
	out io.Writer
}

func (t *traceProbe) OnComplete(cycle uint64, e pipeline.Entry) {}

func (t *traceProbe) OnRetire(cycle uint64, e pipeline.Entry) {
	fmt.Fprintf(t.out, "[%6d] retire #%d pc=%d %s\n", cycle, e.Seq, e.PC, e.Inst)
}

func (t *traceProbe) OnFlush(cycle uint64, branch pipeline.Entry, squashed int) {
	fmt.Fprintf(t.out, "[%6d] flush  #%d -> %d, %d squashed\n",
		cycle, branch.Seq, branch.Target, squashed)
}
