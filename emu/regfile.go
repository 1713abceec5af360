package emu

// DefaultNumRegs is the number of architectural registers (R0-R15).
const DefaultNumRegs = 16

// Flag holds the comparison result consumed by BZ and BNZ.
// Diff is the signed difference rs1 - rs2 of the most recent CMP; Set is
// false until a CMP has completed.
type Flag struct {
	Diff int32
	Set  bool
}

// Zero reports whether the last comparison found its operands equal.
func (f Flag) Zero() bool {
	return f.Set && f.Diff == 0
}

// RegFile represents the APEX architectural register file.
// It contains the integer registers with their valid bits, the comparison
// flag, and the program counter.
type RegFile struct {
	// Values holds the committed register values.
	Values []int32

	// Valid holds one bit per register. A register is valid once its
	// latest value has been committed.
	Valid []bool

	// Flag is the committed comparison flag.
	Flag Flag

	// PC is the program counter.
	PC uint32
}

// NewRegFile creates a register file with n registers, all zero and valid.
func NewRegFile(n int) *RegFile {
	r := &RegFile{
		Values: make([]int32, n),
		Valid:  make([]bool, n),
	}
	for i := range r.Valid {
		r.Valid[i] = true
	}
	return r
}

// NumRegs returns the number of registers.
func (r *RegFile) NumRegs() int {
	return len(r.Values)
}

// ReadReg reads a register value. Out of range registers read as 0.
func (r *RegFile) ReadReg(reg uint8) int32 {
	if int(reg) >= len(r.Values) {
		return 0
	}
	return r.Values[reg]
}

// WriteReg writes a register value and marks it valid. Writes to out of
// range registers are ignored.
func (r *RegFile) WriteReg(reg uint8, value int32) {
	if int(reg) >= len(r.Values) {
		return
	}
	r.Values[reg] = value
	r.Valid[reg] = true
}

// Snapshot returns a copy of the register values.
func (r *RegFile) Snapshot() []int32 {
	out := make([]int32, len(r.Values))
	copy(out, r.Values)
	return out
}
