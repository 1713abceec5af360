package pipeline

// PhysReg is a snapshot of one physical register.
type PhysReg struct {
	Value int32
	Valid bool
}

// PhysRegFile is the physical register value array with its valid bits. A
// register is valid once its producer has written it.
type PhysRegFile struct {
	values []int32
	valid  []bool
}

// NewPhysRegFile creates n physical registers, all zero and valid.
func NewPhysRegFile(n int) *PhysRegFile {
	f := &PhysRegFile{
		values: make([]int32, n),
		valid:  make([]bool, n),
	}
	for i := range f.valid {
		f.valid[i] = true
	}
	return f
}

// Len returns the number of physical registers.
func (f *PhysRegFile) Len() int {
	return len(f.values)
}

// Read returns the value of p.
func (f *PhysRegFile) Read(p int) int32 {
	return f.values[p]
}

// Valid reports whether p has been produced.
func (f *PhysRegFile) Valid(p int) bool {
	return f.valid[p]
}

// Write stores the value of p and marks it valid.
func (f *PhysRegFile) Write(p int, value int32) {
	f.values[p] = value
	f.valid[p] = true
}

// Invalidate marks p as awaiting its producer.
func (f *PhysRegFile) Invalidate(p int) {
	f.valid[p] = false
}

// Snapshot returns a copy of every register.
func (f *PhysRegFile) Snapshot() []PhysReg {
	out := make([]PhysReg, len(f.values))
	for i := range f.values {
		out[i] = PhysReg{Value: f.values[i], Valid: f.valid[i]}
	}
	return out
}

// FreeList is the FIFO of unallocated physical registers.
type FreeList struct {
	regs  []int
	head  int
	count int
	free  []bool
}

// NewFreeList creates a free list holding physical registers 0..n-1.
func NewFreeList(n int) *FreeList {
	l := &FreeList{
		regs: make([]int, n),
		free: make([]bool, n),
	}
	for p := 0; p < n; p++ {
		l.Push(p)
	}
	return l
}

// Len returns the number of free registers.
func (l *FreeList) Len() int {
	return l.count
}

// Empty returns true if no register can be allocated.
func (l *FreeList) Empty() bool {
	return l.count == 0
}

// Contains reports whether p is free.
func (l *FreeList) Contains(p int) bool {
	return p >= 0 && p < len(l.free) && l.free[p]
}

// Pop removes the oldest free register.
func (l *FreeList) Pop() (int, bool) {
	if l.count == 0 {
		return NoPhys, false
	}
	p := l.regs[l.head]
	l.head = (l.head + 1) % len(l.regs)
	l.count--
	l.free[p] = false
	return p, true
}

// Push returns p to the list. Pushing NoPhys or an already free register
// has no effect.
func (l *FreeList) Push(p int) {
	if p == NoPhys || l.Contains(p) {
		return
	}
	tail := (l.head + l.count) % len(l.regs)
	l.regs[tail] = p
	l.count++
	l.free[p] = true
}

// Snapshot returns the free registers in allocation order.
func (l *FreeList) Snapshot() []int {
	out := make([]int, l.count)
	for i := range out {
		out[i] = l.regs[(l.head+i)%len(l.regs)]
	}
	return out
}

// RenameTable maps each architectural register to its current physical
// register. An unmapped register reads its committed value.
type RenameTable struct {
	mapping []int
}

// NewRenameTable creates a table for n architectural registers with no
// mappings.
func NewRenameTable(n int) *RenameTable {
	t := &RenameTable{mapping: make([]int, n)}
	for i := range t.mapping {
		t.mapping[i] = NoPhys
	}
	return t
}

// Lookup returns the physical register r maps to, or NoPhys.
func (t *RenameTable) Lookup(r uint8) int {
	if int(r) >= len(t.mapping) {
		return NoPhys
	}
	return t.mapping[r]
}

// Map makes p the current mapping of r and returns the displaced mapping.
func (t *RenameTable) Map(r uint8, p int) int {
	if int(r) >= len(t.mapping) {
		return NoPhys
	}
	prev := t.mapping[r]
	t.mapping[r] = p
	return prev
}

// Restore reinstates a mapping displaced by a squashed instruction.
func (t *RenameTable) Restore(r uint8, p int) {
	if int(r) < len(t.mapping) {
		t.mapping[r] = p
	}
}

// Mapped reports whether p is the current mapping of any register.
func (t *RenameTable) Mapped(p int) bool {
	for _, m := range t.mapping {
		if m == p {
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the table indexed by architectural register.
func (t *RenameTable) Snapshot() []int {
	out := make([]int, len(t.mapping))
	copy(out, t.mapping)
	return out
}
