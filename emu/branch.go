package emu

import "github.com/sarchlab/apexsim/insts"

// BranchResult is the resolved outcome of a control instruction.
type BranchResult struct {
	Taken  bool
	Target uint32

	// Link is the return address written by JAL.
	Link int32
}

// ResolveBranch evaluates a control instruction at pc. rs1 is the value of
// the first source register (JUMP, JAL) and flag the comparison flag the
// instruction depends on (BZ, BNZ).
func ResolveBranch(inst insts.Instruction, pc uint32, rs1 int32, flag Flag) BranchResult {
	switch inst.Op {
	case insts.OpBZ:
		if flag.Zero() {
			return BranchResult{Taken: true, Target: offsetPC(pc, inst.Imm)}
		}
	case insts.OpBNZ:
		if !flag.Zero() {
			return BranchResult{Taken: true, Target: offsetPC(pc, inst.Imm)}
		}
	case insts.OpJUMP:
		return BranchResult{Taken: true, Target: uint32(rs1 + inst.Imm)}
	case insts.OpJAL:
		return BranchResult{
			Taken:  true,
			Target: uint32(rs1 + inst.Imm),
			Link:   int32(pc + insts.InstSize),
		}
	}

	return BranchResult{Target: pc + insts.InstSize}
}

func offsetPC(pc uint32, offset int32) uint32 {
	return uint32(int64(pc) + int64(offset))
}
