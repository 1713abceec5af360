// Package insts provides APEX instruction definitions and decoding.
//
// This package turns the textual APEX instruction format into structured
// instruction records. It supports:
//   - Register arithmetic: ADD, SUB, MUL, DIV, AND, OR, XOR
//   - Immediate arithmetic: ADDL, SUBL, MOVC
//   - Memory: LOAD, STORE (immediate offset), LDR, STR (register offset)
//   - Control: CMP, BZ, BNZ, JUMP, JAL, HALT, NOP
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst, err := decoder.Decode("ADDL,R1,R0,#42")
//	fmt.Printf("Op: %v, Rd: %d, Rs1: %d, Imm: %d\n", inst.Op, inst.Rd, inst.Rs1, inst.Imm)
package insts

// DefaultCodeBase is the address of the first instruction of a program.
const DefaultCodeBase uint32 = 4000

// InstSize is the distance in bytes between consecutive instructions.
const InstSize uint32 = 4

// Program is a fixed, already-decoded instruction array. It is produced once
// by the loader and read-only afterwards.
type Program struct {
	// Base is the address of Insts[0].
	Base uint32

	// Insts holds the decoded instructions in program order.
	Insts []Instruction
}

// NewProgram creates a program starting at DefaultCodeBase.
func NewProgram(instructions ...Instruction) *Program {
	return &Program{Base: DefaultCodeBase, Insts: instructions}
}

// Len returns the number of instructions.
func (p *Program) Len() int {
	return len(p.Insts)
}

// PCOf returns the address of the instruction at the given index.
func (p *Program) PCOf(index int) uint32 {
	return p.Base + uint32(index)*InstSize
}

// At returns the instruction stored at pc. The second result is false when
// pc is outside the program or not instruction aligned.
func (p *Program) At(pc uint32) (Instruction, bool) {
	if pc < p.Base {
		return Instruction{}, false
	}
	offset := pc - p.Base
	if offset%InstSize != 0 {
		return Instruction{}, false
	}
	index := int(offset / InstSize)
	if index >= len(p.Insts) {
		return Instruction{}, false
	}
	return p.Insts[index], true
}
