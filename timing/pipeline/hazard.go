package pipeline

// AddressHazards holds one busy bit per data memory cell. A store reserves
// the bit of its address in the first memory stage and releases it when it
// retires; no other memory instruction may access that address meanwhile.
type AddressHazards struct {
	busy  []bool
	count int
}

// NewAddressHazards creates hazard bits for words memory cells, all clear.
func NewAddressHazards(words int) *AddressHazards {
	return &AddressHazards{busy: make([]bool, words)}
}

func (h *AddressHazards) inRange(addr int32) bool {
	return addr >= 0 && int(addr) < len(h.busy)
}

// Busy reports whether addr is reserved. Out of range addresses are never
// busy.
func (h *AddressHazards) Busy(addr int32) bool {
	return h.inRange(addr) && h.busy[addr]
}

// Reserve sets the bit of addr. It returns false if addr is out of range or
// already reserved.
func (h *AddressHazards) Reserve(addr int32) bool {
	if !h.inRange(addr) || h.busy[addr] {
		return false
	}
	h.busy[addr] = true
	h.count++
	return true
}

// Release clears the bit of addr.
func (h *AddressHazards) Release(addr int32) {
	if !h.inRange(addr) || !h.busy[addr] {
		return
	}
	h.busy[addr] = false
	h.count--
}

// Count returns the number of reserved addresses.
func (h *AddressHazards) Count() int {
	return h.count
}

// Held returns the reserved addresses in ascending order.
func (h *AddressHazards) Held() []int32 {
	out := make([]int32, 0, h.count)
	for addr, busy := range h.busy {
		if busy {
			out = append(out, int32(addr))
		}
	}
	return out
}
