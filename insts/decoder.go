// Package insts provides APEX instruction definitions and decoding.
package insts

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Op represents an APEX opcode.
type Op uint8

// APEX opcodes.
const (
	OpUnknown Op = iota
	OpADD
	OpSUB
	OpMUL
	OpDIV
	OpAND
	OpOR
	OpXOR
	OpADDL
	OpSUBL
	OpMOVC
	OpLOAD
	OpSTORE
	OpLDR
	OpSTR
	OpCMP
	OpBZ
	OpBNZ
	OpJUMP
	OpJAL
	OpHALT
	OpNOP

	numOps
)

// NoReg marks an unused register operand.
const NoReg uint8 = 0xFF

// NumArchRegs is the number of architectural registers, R0 to R15.
const NumArchRegs = 16

// Class tells the decode stage where an instruction is routed.
type Class uint8

// Instruction classes.
const (
	// ClassScheduled instructions enter both the issue queue and the
	// reorder buffer and wait there for operands and a functional unit.
	ClassScheduled Class = iota
	// ClassDirect instructions enter only the reorder buffer. Memory
	// operations are scheduled from the reorder buffer head.
	ClassDirect
)

// Unit identifies the functional unit class that executes an instruction.
type Unit uint8

// Functional unit classes.
const (
	UnitNone Unit = iota
	UnitInteger
	UnitMultiply
	UnitBranch
	UnitMemory
)

// String returns the unit name.
func (u Unit) String() string {
	switch u {
	case UnitInteger:
		return "int"
	case UnitMultiply:
		return "mul"
	case UnitBranch:
		return "branch"
	case UnitMemory:
		return "mem"
	default:
		return "none"
	}
}

// opInfo describes the routing of an opcode and its textual operand list.
// In layout, 'd' is a destination register, 't' the data register of STR,
// 's' a source register and 'i' an immediate.
type opInfo struct {
	name   string
	layout string
	class  Class
	unit   Unit
	writes bool
}

var opTable = [numOps]opInfo{
	OpUnknown: {name: "UNKNOWN", class: ClassScheduled, unit: UnitNone},
	OpADD:     {name: "ADD", layout: "dss", class: ClassScheduled, unit: UnitInteger, writes: true},
	OpSUB:     {name: "SUB", layout: "dss", class: ClassScheduled, unit: UnitInteger, writes: true},
	OpMUL:     {name: "MUL", layout: "dss", class: ClassScheduled, unit: UnitMultiply, writes: true},
	OpDIV:     {name: "DIV", layout: "dss", class: ClassScheduled, unit: UnitInteger, writes: true},
	OpAND:     {name: "AND", layout: "dss", class: ClassScheduled, unit: UnitInteger, writes: true},
	OpOR:      {name: "OR", layout: "dss", class: ClassScheduled, unit: UnitInteger, writes: true},
	OpXOR:     {name: "XOR", layout: "dss", class: ClassScheduled, unit: UnitInteger, writes: true},
	OpADDL:    {name: "ADDL", layout: "dsi", class: ClassScheduled, unit: UnitInteger, writes: true},
	OpSUBL:    {name: "SUBL", layout: "dsi", class: ClassScheduled, unit: UnitInteger, writes: true},
	OpMOVC:    {name: "MOVC", layout: "di", class: ClassScheduled, unit: UnitInteger, writes: true},
	OpLOAD:    {name: "LOAD", layout: "dsi", class: ClassDirect, unit: UnitMemory, writes: true},
	OpSTORE:   {name: "STORE", layout: "ssi", class: ClassDirect, unit: UnitMemory},
	OpLDR:     {name: "LDR", layout: "dss", class: ClassDirect, unit: UnitMemory, writes: true},
	OpSTR:     {name: "STR", layout: "tss", class: ClassDirect, unit: UnitMemory},
	OpCMP:     {name: "CMP", layout: "ss", class: ClassScheduled, unit: UnitInteger},
	OpBZ:      {name: "BZ", layout: "i", class: ClassScheduled, unit: UnitBranch},
	OpBNZ:     {name: "BNZ", layout: "i", class: ClassScheduled, unit: UnitBranch},
	OpJUMP:    {name: "JUMP", layout: "si", class: ClassScheduled, unit: UnitBranch},
	OpJAL:     {name: "JAL", layout: "dsi", class: ClassScheduled, unit: UnitBranch, writes: true},
	OpHALT:    {name: "HALT", class: ClassDirect, unit: UnitNone},
	OpNOP:     {name: "NOP", class: ClassDirect, unit: UnitNone},
}

// String returns the mnemonic.
func (o Op) String() string {
	if o >= numOps {
		return opTable[OpUnknown].name
	}
	return opTable[o].name
}

// Class returns the routing class of the opcode.
func (o Op) Class() Class {
	if o >= numOps {
		return ClassScheduled
	}
	return opTable[o].class
}

// Unit returns the functional unit class for the opcode.
func (o Op) Unit() Unit {
	if o >= numOps {
		return UnitNone
	}
	return opTable[o].unit
}

// WritesRegister reports whether the opcode produces a register result.
func (o Op) WritesRegister() bool {
	return o < numOps && opTable[o].writes
}

// IsMemory reports whether the opcode accesses data memory.
func (o Op) IsMemory() bool {
	return o.Unit() == UnitMemory
}

// IsStore reports whether the opcode writes data memory.
func (o Op) IsStore() bool {
	return o == OpSTORE || o == OpSTR
}

// IsControl reports whether the opcode may redirect the program counter.
func (o Op) IsControl() bool {
	return o.Unit() == UnitBranch
}

// ParseOp returns the opcode for a mnemonic. Matching is case insensitive.
func ParseOp(mnemonic string) (Op, bool) {
	m := strings.ToUpper(strings.TrimSpace(mnemonic))
	for op := OpADD; op < numOps; op++ {
		if opTable[op].name == m {
			return op, true
		}
	}
	return OpUnknown, false
}

// Instruction represents a decoded APEX instruction.
type Instruction struct {
	Op Op

	// Register operands. Unused operands hold NoReg.
	Rd  uint8 // Destination register (STR: register holding the data to store)
	Rs1 uint8 // First source register (STORE: register holding the data)
	Rs2 uint8 // Second source register (STORE: base address register)

	Imm int32 // Immediate value or offset

	// Text is the mnemonic text the instruction was decoded from.
	Text string
}

// Sources returns the architectural source registers read by the
// instruction. For STR the data register (Rd) comes last.
func (i Instruction) Sources() []uint8 {
	switch i.Op {
	case OpADD, OpSUB, OpMUL, OpDIV, OpAND, OpOR, OpXOR, OpLDR, OpCMP, OpSTORE:
		return []uint8{i.Rs1, i.Rs2}
	case OpADDL, OpSUBL, OpLOAD, OpJUMP, OpJAL:
		return []uint8{i.Rs1}
	case OpSTR:
		return []uint8{i.Rs1, i.Rs2, i.Rd}
	case OpMOVC, OpBZ, OpBNZ, OpHALT, OpNOP, OpUnknown:
		return nil
	default:
		return nil
	}
}

// Dest returns the destination register, or NoReg when the instruction does
// not write a register.
func (i Instruction) Dest() uint8 {
	if !i.Op.WritesRegister() {
		return NoReg
	}
	return i.Rd
}

// String formats the instruction in APEX syntax.
func (i Instruction) String() string {
	info := opTable[OpUnknown]
	if i.Op < numOps {
		info = opTable[i.Op]
	}

	parts := []string{info.name}
	regs := i.layoutRegs()
	for n, kind := range info.layout {
		switch kind {
		case 'i':
			parts = append(parts, fmt.Sprintf("#%d", i.Imm))
		default:
			parts = append(parts, fmt.Sprintf("R%d", regs[n]))
		}
	}
	return strings.Join(parts, ",")
}

// layoutRegs returns register fields in textual operand order.
func (i Instruction) layoutRegs() []uint8 {
	switch i.Op {
	case OpSTORE, OpCMP:
		return []uint8{i.Rs1, i.Rs2, NoReg}
	case OpJUMP:
		return []uint8{i.Rs1, NoReg}
	case OpMOVC:
		return []uint8{i.Rd, NoReg}
	default:
		return []uint8{i.Rd, i.Rs1, i.Rs2}
	}
}

// Decoding errors.
var (
	ErrUnknownMnemonic = errors.New("unknown mnemonic")
	ErrOperandCount    = errors.New("wrong number of operands")
	ErrBadRegister     = errors.New("malformed register operand")
	ErrBadImmediate    = errors.New("malformed immediate operand")
)

// Decoder decodes APEX instruction text into instructions.
type Decoder struct{}

// NewDecoder creates a new APEX instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes one line of APEX assembly, for example "ADDL,R1,R0,#42".
// Operands may be separated by commas, whitespace or both.
func (d *Decoder) Decode(text string) (Instruction, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) == 0 {
		return Instruction{}, fmt.Errorf("%w: empty instruction", ErrUnknownMnemonic)
	}

	op, ok := ParseOp(fields[0])
	if !ok {
		return Instruction{}, fmt.Errorf("%w: %q", ErrUnknownMnemonic, fields[0])
	}

	inst := Instruction{
		Op:   op,
		Rd:   NoReg,
		Rs1:  NoReg,
		Rs2:  NoReg,
		Text: strings.TrimSpace(text),
	}

	layout := opTable[op].layout
	operands := fields[1:]
	if len(operands) != len(layout) {
		return Instruction{}, fmt.Errorf("%w: %s takes %d, got %d",
			ErrOperandCount, op, len(layout), len(operands))
	}

	var srcs []uint8
	for n, kind := range layout {
		switch kind {
		case 'i':
			imm, err := parseImmediate(operands[n])
			if err != nil {
				return Instruction{}, err
			}
			inst.Imm = imm
		case 'd', 't':
			reg, err := parseRegister(operands[n])
			if err != nil {
				return Instruction{}, err
			}
			inst.Rd = reg
		case 's':
			reg, err := parseRegister(operands[n])
			if err != nil {
				return Instruction{}, err
			}
			srcs = append(srcs, reg)
		}
	}

	if len(srcs) > 0 {
		inst.Rs1 = srcs[0]
	}
	if len(srcs) > 1 {
		inst.Rs2 = srcs[1]
	}

	return inst, nil
}

func parseRegister(s string) (uint8, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || (s[0] != 'R' && s[0] != 'r') {
		return 0, fmt.Errorf("%w: %q", ErrBadRegister, s)
	}
	n, err := strconv.ParseUint(s[1:], 10, 8)
	if err != nil || n >= NumArchRegs {
		return 0, fmt.Errorf("%w: %q", ErrBadRegister, s)
	}
	return uint8(n), nil
}

func parseImmediate(s string) (int32, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '#' {
		return 0, fmt.Errorf("%w: %q", ErrBadImmediate, s)
	}
	n, err := strconv.ParseInt(s[1:], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadImmediate, s)
	}
	return int32(n), nil
}
