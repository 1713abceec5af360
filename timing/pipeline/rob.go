package pipeline

// ReorderBuffer is the bounded FIFO of in-flight instructions in program
// order. Only the head may retire.
type ReorderBuffer struct {
	slots []Entry
	head  int
	count int
}

// NewReorderBuffer creates a reorder buffer with the given capacity.
func NewReorderBuffer(capacity int) *ReorderBuffer {
	return &ReorderBuffer{slots: make([]Entry, capacity)}
}

// Len returns the number of occupied slots.
func (r *ReorderBuffer) Len() int {
	return r.count
}

// Cap returns the capacity.
func (r *ReorderBuffer) Cap() int {
	return len(r.slots)
}

// Full returns true if no entry can be allocated.
func (r *ReorderBuffer) Full() bool {
	return r.count == len(r.slots)
}

func (r *ReorderBuffer) at(i int) *Entry {
	return &r.slots[(r.head+i)%len(r.slots)]
}

// Push appends e at the tail.
func (r *ReorderBuffer) Push(e Entry) bool {
	if r.Full() {
		return false
	}
	*r.at(r.count) = e
	r.count++
	return true
}

// Head returns the oldest entry, or nil when empty.
func (r *ReorderBuffer) Head() *Entry {
	if r.count == 0 {
		return nil
	}
	return r.at(0)
}

// Pop removes and returns the oldest entry.
func (r *ReorderBuffer) Pop() Entry {
	e := *r.at(0)
	r.at(0).Clear()
	r.head = (r.head + 1) % len(r.slots)
	r.count--
	return e
}

// Lookup returns the slot holding seq, or nil. The pointer is valid until
// the entry leaves the buffer.
func (r *ReorderBuffer) Lookup(seq uint64) *Entry {
	for i := 0; i < r.count; i++ {
		if e := r.at(i); e.Seq == seq {
			return e
		}
	}
	return nil
}

// SquashAll removes every entry, visiting them youngest first.
func (r *ReorderBuffer) SquashAll(visit func(e Entry)) {
	for r.count > 0 {
		tail := r.at(r.count - 1)
		visit(*tail)
		tail.Clear()
		r.count--
	}
	r.head = 0
}

// Entries returns copies of the entries, oldest first.
func (r *ReorderBuffer) Entries() []Entry {
	out := make([]Entry, r.count)
	for i := range out {
		out[i] = *r.at(i)
	}
	return out
}
