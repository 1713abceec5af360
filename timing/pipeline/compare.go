package pipeline

import "github.com/sarchlab/apexsim/emu"

// CompareTable holds the results of executed but unretired CMP
// instructions, keyed by sequence number so re-executions of the same CMP
// never alias.
type CompareTable struct {
	results     map[uint64]int32
	lastRetired uint64
}

// NewCompareTable creates an empty compare table.
func NewCompareTable() *CompareTable {
	return &CompareTable{results: make(map[uint64]int32)}
}

// Put records the difference produced by CMP seq.
func (t *CompareTable) Put(seq uint64, diff int32) {
	t.results[seq] = diff
}

// Ready reports whether the flag produced by CMP seq is available. A zero
// seq means no CMP was in flight and the committed flag applies.
func (t *CompareTable) Ready(seq uint64) bool {
	if seq == 0 || seq <= t.lastRetired {
		return true
	}
	_, ok := t.results[seq]
	return ok
}

// Flag returns the flag produced by CMP seq, falling back to committed once
// that CMP has retired.
func (t *CompareTable) Flag(seq uint64, committed emu.Flag) emu.Flag {
	if diff, ok := t.results[seq]; ok {
		return emu.Flag{Diff: diff, Set: true}
	}
	return committed
}

// Retire drops the result of CMP seq once it is architectural.
func (t *CompareTable) Retire(seq uint64) {
	delete(t.results, seq)
	t.lastRetired = seq
}

// Discard drops the result of a squashed CMP.
func (t *CompareTable) Discard(seq uint64) {
	delete(t.results, seq)
}

// Len returns the number of pending results.
func (t *CompareTable) Len() int {
	return len(t.results)
}
