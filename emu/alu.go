package emu

import "github.com/sarchlab/apexsim/insts"

// ALUResult is the outcome of an integer operation.
type ALUResult struct {
	// Value is the computed result. For CMP it is the difference rs1 - rs2.
	Value int32

	// DivideByZero is set when DIV had a zero divisor. Value is 0 then.
	DivideByZero bool
}

// ALU implements APEX arithmetic and logic operations. All arithmetic
// wraps at 32 bits; DIV truncates toward zero.
type ALU struct{}

// NewALU creates a new ALU.
func NewALU() *ALU {
	return &ALU{}
}

// Compute evaluates op on operands x (rs1), y (rs2) and imm.
func (a *ALU) Compute(op insts.Op, x, y, imm int32) ALUResult {
	switch op {
	case insts.OpADD:
		return ALUResult{Value: x + y}
	case insts.OpSUB, insts.OpCMP:
		return ALUResult{Value: x - y}
	case insts.OpMUL:
		return ALUResult{Value: x * y}
	case insts.OpDIV:
		if y == 0 {
			return ALUResult{DivideByZero: true}
		}
		return ALUResult{Value: x / y}
	case insts.OpAND:
		return ALUResult{Value: x & y}
	case insts.OpOR:
		return ALUResult{Value: x | y}
	case insts.OpXOR:
		return ALUResult{Value: x ^ y}
	case insts.OpADDL:
		return ALUResult{Value: x + imm}
	case insts.OpSUBL:
		return ALUResult{Value: x - imm}
	case insts.OpMOVC:
		return ALUResult{Value: imm}
	default:
		return ALUResult{}
	}
}
