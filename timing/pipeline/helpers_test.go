package pipeline_test

import (
	"strings"

	. "github.com/onsi/gomega"

	"github.com/sarchlab/apexsim/insts"
	"github.com/sarchlab/apexsim/loader"
	"github.com/sarchlab/apexsim/timing/pipeline"
)

func assemble(lines ...string) *insts.Program {
	prog, err := loader.Parse(strings.NewReader(strings.Join(lines, "\n")))
	Expect(err).NotTo(HaveOccurred())
	return prog
}

type flushEvent struct {
	cycle    uint64
	branch   pipeline.Entry
	squashed int
}

// recorder is a Probe that keeps every event.
type recorder struct {
	completed     []pipeline.Entry
	completeCycle []uint64
	retired       []pipeline.Entry
	retireCycle   []uint64
	flushes       []flushEvent
}

func (r *recorder) OnComplete(cycle uint64, e pipeline.Entry) {
	r.completed = append(r.completed, e)
	r.completeCycle = append(r.completeCycle, cycle)
}

func (r *recorder) OnRetire(cycle uint64, e pipeline.Entry) {
	r.retired = append(r.retired, e)
	r.retireCycle = append(r.retireCycle, cycle)
}

func (r *recorder) OnFlush(cycle uint64, branch pipeline.Entry, squashed int) {
	r.flushes = append(r.flushes, flushEvent{cycle: cycle, branch: branch, squashed: squashed})
}

func (r *recorder) retiredPCs() []uint32 {
	pcs := make([]uint32, len(r.retired))
	for i, e := range r.retired {
		pcs[i] = e.PC
	}
	return pcs
}

// completionCycles returns the cycles in which instructions of op
// completed, in completion order.
func (r *recorder) completionCycles(op insts.Op) []uint64 {
	var cycles []uint64
	for i, e := range r.completed {
		if e.Inst.Op == op {
			cycles = append(cycles, r.completeCycle[i])
		}
	}
	return cycles
}

// retireCycleOf returns the cycle in which the instruction at pc last
// retired.
func (r *recorder) retireCycleOf(pc uint32) (uint64, bool) {
	for i := len(r.retired) - 1; i >= 0; i-- {
		if r.retired[i].PC == pc {
			return r.retireCycle[i], true
		}
	}
	return 0, false
}

var sumLoop = []string{
	"MOVC,R0,#0",
	"MOVC,R1,#5",
	"MOVC,R2,#0",
	"ADD,R0,R0,R1",
	"SUBL,R1,R1,#1",
	"CMP,R1,R2",
	"BNZ,#-12",
	"STORE,R0,R2,#100",
	"HALT",
}

var squaresLoop = []string{
	"MOVC,R0,#0",
	"MOVC,R1,#8",
	"MOVC,R5,#1",
	"MUL,R2,R0,R0",
	"STORE,R2,R0,#16",
	"ADDL,R0,R0,#1",
	"CMP,R0,R1",
	"BNZ,#-16",
	"MOVC,R3,#0",
	"MOVC,R0,#0",
	"LOAD,R4,R0,#16",
	"ADD,R3,R3,R4",
	"ADDL,R0,R0,#1",
	"CMP,R0,R1",
	"BNZ,#-16",
	"HALT",
}

var registerMemory = []string{
	"MOVC,R0,#7",
	"MOVC,R1,#20",
	"MOVC,R2,#3",
	"STR,R0,R1,R2",
	"LDR,R3,R1,R2",
	"LOAD,R4,R1,#3",
	"MUL,R5,R3,R4",
	"DIV,R6,R5,R2",
	"XOR,R7,R6,R0",
	"OR,R8,R7,R2",
	"AND,R9,R8,R1",
	"SUB,R10,R9,R5",
	"STORE,R10,R1,#10",
	"HALT",
}

var callReturn = []string{
	"MOVC,R1,#4016",
	"JAL,R2,R1,#0",
	"MOVC,R3,#1",
	"HALT",
	"MOVC,R4,#2",
	"JUMP,R2,#0",
}

var takenBranch = []string{
	"MOVC,R0,#0",
	"CMP,R0,R0",
	"BZ,#8",
	"MOVC,R1,#99",
	"MOVC,R1,#1",
	"HALT",
}

var multiplies = []string{
	"MOVC,R0,#2",
	"MOVC,R1,#3",
	"MUL,R2,R0,R1",
	"MUL,R3,R0,R1",
	"MUL,R4,R0,R1",
	"MUL,R5,R2,R3",
	"HALT",
}
