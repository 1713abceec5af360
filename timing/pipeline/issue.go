package pipeline

import "github.com/sarchlab/apexsim/insts"

// IssueQueue holds scheduled-class entries waiting for operands and a free
// unit. Arrival order is preserved for scanning.
type IssueQueue struct {
	entries  []Entry
	capacity int
}

// NewIssueQueue creates an issue queue with the given capacity.
func NewIssueQueue(capacity int) *IssueQueue {
	return &IssueQueue{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
	}
}

// Len returns the number of queued entries.
func (q *IssueQueue) Len() int {
	return len(q.entries)
}

// Full returns true if no entry can be admitted.
func (q *IssueQueue) Full() bool {
	return len(q.entries) >= q.capacity
}

// Push appends e.
func (q *IssueQueue) Push(e Entry) bool {
	if q.Full() {
		return false
	}
	q.entries = append(q.entries, e)
	return true
}

func (q *IssueQueue) removeAt(i int) {
	q.entries = append(q.entries[:i], q.entries[i+1:]...)
}

// Clear discards every entry.
func (q *IssueQueue) Clear() {
	q.entries = q.entries[:0]
}

// Entries returns copies of the queued entries in arrival order.
func (q *IssueQueue) Entries() []Entry {
	out := make([]Entry, len(q.entries))
	copy(out, q.entries)
	return out
}

// unitPort is the dispatch side of a functional unit.
type unitPort interface {
	CanAccept() bool
	Accept(e Entry)
}

// IssueStage selects ready entries out of order and dispatches at most one
// per unit class per cycle.
type IssueStage struct {
	queue    *IssueQueue
	regs     *PhysRegFile
	rob      *ReorderBuffer
	compares *CompareTable
	units    map[insts.Unit]unitPort
	stats    *Statistics
}

// NewIssueStage creates an issue stage dispatching into units.
func NewIssueStage(
	queue *IssueQueue,
	regs *PhysRegFile,
	rob *ReorderBuffer,
	compares *CompareTable,
	units map[insts.Unit]unitPort,
	stats *Statistics,
) *IssueStage {
	return &IssueStage{
		queue:    queue,
		regs:     regs,
		rob:      rob,
		compares: compares,
		units:    units,
		stats:    stats,
	}
}

// Issue scans the queue in arrival order and dispatches every entry whose
// operands are ready and whose unit class has not dispatched this cycle.
func (s *IssueStage) Issue() {
	dispatched := make(map[insts.Unit]bool, len(s.units))

	for i := 0; i < s.queue.Len(); {
		e := &s.queue.entries[i]

		unit, ok := s.units[e.Inst.Op.Unit()]
		if !ok {
			s.drop(e)
			s.queue.removeAt(i)
			continue
		}

		class := e.Inst.Op.Unit()
		if dispatched[class] || !s.ready(e) || !unit.CanAccept() {
			i++
			continue
		}

		s.capture(e)
		unit.Accept(*e)
		dispatched[class] = true
		s.countDispatch(class)
		s.queue.removeAt(i)
	}
}

// ready reports whether every source of e has been produced.
func (s *IssueStage) ready(e *Entry) bool {
	for i := 0; i < e.NumSrcs; i++ {
		if p := e.Srcs[i]; p != NoPhys && !s.regs.Valid(p) {
			return false
		}
	}

	switch e.Inst.Op {
	case insts.OpBZ, insts.OpBNZ:
		return s.compares.Ready(e.CompareSeq)
	}

	return true
}

// capture reads the live source values into the entry.
func (s *IssueStage) capture(e *Entry) {
	for i := 0; i < e.NumSrcs; i++ {
		if p := e.Srcs[i]; p != NoPhys {
			e.Values[i] = s.regs.Read(p)
		}
	}
}

// drop discards an entry no unit can execute. Its ROB slot retires without
// effect.
func (s *IssueStage) drop(e *Entry) {
	if slot := s.rob.Lookup(e.Seq); slot != nil {
		slot.Dropped = true
		slot.Done = true
	}
}

func (s *IssueStage) countDispatch(unit insts.Unit) {
	switch unit {
	case insts.UnitInteger:
		s.stats.IntegerDispatches++
	case insts.UnitMultiply:
		s.stats.MultiplyDispatches++
	case insts.UnitBranch:
		s.stats.BranchDispatches++
	}
}
