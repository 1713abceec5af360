package pipeline

import (
	"fmt"

	"github.com/sarchlab/apexsim/insts"
)

// CheckInvariants verifies the bookkeeping of the renaming and memory
// structures. It is meant to be called between cycles.
//
// Every physical register is exactly one of: free, the current mapping of
// an architectural register, or the displaced mapping of an in-flight
// entry. No two in-flight entries share a destination, and no two share a
// reserved address.
func (p *Pipeline) CheckInvariants() error {
	entries := p.rob.Entries()

	owners := make(map[int]uint64)
	displaced := 0
	for _, e := range entries {
		if e.Pd != NoPhys {
			if seq, ok := owners[e.Pd]; ok {
				return fmt.Errorf("physical register %d allocated to %d and %d",
					e.Pd, seq, e.Seq)
			}
			owners[e.Pd] = e.Seq
			if p.freeList.Contains(e.Pd) {
				return fmt.Errorf("physical register %d of %d is free", e.Pd, e.Seq)
			}
		}
		if e.PrevPd != NoPhys {
			displaced++
		}
	}

	mapped := 0
	for _, m := range p.table.Snapshot() {
		if m == NoPhys {
			continue
		}
		mapped++
		if p.freeList.Contains(m) {
			return fmt.Errorf("mapped physical register %d is free", m)
		}
	}

	total := p.freeList.Len() + mapped + displaced
	if total != p.physRegs.Len() {
		return fmt.Errorf("physical registers not conserved: %d free + %d mapped + %d displaced != %d",
			p.freeList.Len(), mapped, displaced, p.physRegs.Len())
	}

	if err := p.checkReservations(entries); err != nil {
		return err
	}

	return p.checkQueue()
}

func (p *Pipeline) checkReservations(entries []Entry) error {
	inFlight := append(entries, p.memoryUnit.Entries()...)

	holders := make(map[int32]uint64)
	for _, e := range inFlight {
		if !e.Reserved {
			continue
		}
		if seq, ok := holders[e.Address]; ok && seq != e.Seq {
			return fmt.Errorf("address %d reserved by %d and %d", e.Address, seq, e.Seq)
		}
		holders[e.Address] = e.Seq
	}

	if len(holders) != p.hazards.Count() {
		return fmt.Errorf("%d addresses reserved but %d held by in-flight entries",
			p.hazards.Count(), len(holders))
	}
	return nil
}

// checkQueue verifies every issue queue entry is tracked by the reorder
// buffer and belongs to the scheduled class.
func (p *Pipeline) checkQueue() error {
	for _, e := range p.queue.Entries() {
		if e.Class != insts.ClassScheduled {
			return fmt.Errorf("entry %d (%s) in issue queue is not scheduled", e.Seq, e.Inst.Op)
		}
		if p.rob.Lookup(e.Seq) == nil {
			return fmt.Errorf("issue queue entry %d has no reorder buffer slot", e.Seq)
		}
	}
	return nil
}
