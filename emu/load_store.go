package emu

import "github.com/sarchlab/apexsim/insts"

// EffectiveAddress computes the data memory address of a memory
// instruction. srcs holds the source register values in the order returned
// by insts.Instruction.Sources.
func EffectiveAddress(inst insts.Instruction, srcs []int32) int32 {
	switch inst.Op {
	case insts.OpLOAD:
		return srcs[0] + inst.Imm
	case insts.OpSTORE:
		return srcs[1] + inst.Imm
	case insts.OpLDR, insts.OpSTR:
		return srcs[0] + srcs[1]
	default:
		return 0
	}
}

// StoreData returns the value a store instruction writes.
func StoreData(inst insts.Instruction, srcs []int32) int32 {
	switch inst.Op {
	case insts.OpSTORE:
		return srcs[0]
	case insts.OpSTR:
		return srcs[2]
	default:
		return 0
	}
}
