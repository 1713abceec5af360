// Package emu provides functional APEX emulation.
package emu

import (
	"errors"
	"fmt"

	"github.com/sarchlab/apexsim/insts"
)

// Emulation errors.
var (
	ErrMaxInstructions = errors.New("max instructions reached")
	ErrPCOutOfRange    = errors.New("program counter outside program")
)

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Halted is true if the instruction was HALT.
	Halted bool

	// Err is set if an error occurred during execution.
	Err error
}

// Statistics holds functional emulation counters.
type Statistics struct {
	Instructions uint64
	MemFaults    uint64
	DivideByZero uint64
}

// Emulator executes APEX instructions functionally, one at a time and in
// program order. It is the reference model for the timing pipeline.
type Emulator struct {
	prog    *insts.Program
	regFile *RegFile
	memory  *Memory
	alu     *ALU

	stats           Statistics
	maxInstructions uint64 // 0 means no limit
	halted          bool
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithRegFile sets the register file the emulator updates.
func WithRegFile(regFile *RegFile) EmulatorOption {
	return func(e *Emulator) {
		e.regFile = regFile
	}
}

// WithMemory sets the data memory the emulator updates.
func WithMemory(memory *Memory) EmulatorOption {
	return func(e *Emulator) {
		e.memory = memory
	}
}

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// NewEmulator creates a new emulator for prog with the PC at its base.
func NewEmulator(prog *insts.Program, opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		prog: prog,
		alu:  NewALU(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.regFile == nil {
		e.regFile = NewRegFile(DefaultNumRegs)
	}
	if e.memory == nil {
		e.memory = NewMemory(DefaultMemoryWords)
	}
	e.regFile.PC = prog.Base

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Memory returns the emulator's data memory.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// Stats returns the emulation counters.
func (e *Emulator) Stats() Statistics {
	return e.stats
}

// InstructionCount returns the number of instructions executed.
func (e *Emulator) InstructionCount() uint64 {
	return e.stats.Instructions
}

// Halted returns true once HALT has executed.
func (e *Emulator) Halted() bool {
	return e.halted
}

// Step executes a single instruction.
func (e *Emulator) Step() StepResult {
	if e.halted {
		return StepResult{Halted: true}
	}

	if e.maxInstructions > 0 && e.stats.Instructions >= e.maxInstructions {
		return StepResult{Err: ErrMaxInstructions}
	}

	pc := e.regFile.PC
	inst, ok := e.prog.At(pc)
	if !ok {
		return StepResult{Err: fmt.Errorf("%w: %d", ErrPCOutOfRange, pc)}
	}

	e.stats.Instructions++
	e.regFile.PC = e.execute(inst, pc)

	return StepResult{Halted: e.halted}
}

// Run executes instructions until HALT or an error.
func (e *Emulator) Run() error {
	for {
		result := e.Step()
		if result.Halted {
			return nil
		}
		if result.Err != nil {
			return result.Err
		}
	}
}

// execute performs inst and returns the next PC.
func (e *Emulator) execute(inst insts.Instruction, pc uint32) uint32 {
	srcs := e.readSources(inst)
	next := pc + insts.InstSize

	switch inst.Op {
	case insts.OpADD, insts.OpSUB, insts.OpMUL, insts.OpDIV,
		insts.OpAND, insts.OpOR, insts.OpXOR:
		e.writeALU(inst, srcs[0], srcs[1])
	case insts.OpADDL, insts.OpSUBL:
		e.writeALU(inst, srcs[0], 0)
	case insts.OpMOVC:
		e.writeALU(inst, 0, 0)
	case insts.OpCMP:
		res := e.alu.Compute(inst.Op, srcs[0], srcs[1], inst.Imm)
		e.regFile.Flag = Flag{Diff: res.Value, Set: true}
	case insts.OpLOAD, insts.OpLDR:
		value, err := e.memory.Read(EffectiveAddress(inst, srcs))
		if err != nil {
			e.stats.MemFaults++
		}
		e.regFile.WriteReg(inst.Rd, value)
	case insts.OpSTORE, insts.OpSTR:
		err := e.memory.Write(EffectiveAddress(inst, srcs), StoreData(inst, srcs))
		if err != nil {
			e.stats.MemFaults++
		}
	case insts.OpBZ, insts.OpBNZ, insts.OpJUMP, insts.OpJAL:
		var rs1 int32
		if len(srcs) > 0 {
			rs1 = srcs[0]
		}
		res := ResolveBranch(inst, pc, rs1, e.regFile.Flag)
		if inst.Op == insts.OpJAL {
			e.regFile.WriteReg(inst.Rd, res.Link)
		}
		next = res.Target
	case insts.OpHALT:
		e.halted = true
	case insts.OpNOP, insts.OpUnknown:
	}

	return next
}

func (e *Emulator) writeALU(inst insts.Instruction, x, y int32) {
	res := e.alu.Compute(inst.Op, x, y, inst.Imm)
	if res.DivideByZero {
		e.stats.DivideByZero++
	}
	e.regFile.WriteReg(inst.Rd, res.Value)
}

func (e *Emulator) readSources(inst insts.Instruction) []int32 {
	regs := inst.Sources()
	values := make([]int32, len(regs))
	for i, r := range regs {
		values[i] = e.regFile.ReadReg(r)
	}
	return values
}
