package core

import (
	"github.com/rs/xid"
	"github.com/sarchlab/akita/v4/tracing"

	"github.com/sarchlab/apexsim/timing/pipeline"
)

// TaskKind is the akita task kind of an instruction's commit wait.
const TaskKind = "inst"

// taskProbe reports each instruction as an akita task on the core. A task
// starts when a unit completes the instruction and ends when it retires or
// is squashed, so a tracer measures how long finished work waits at the
// reorder buffer.
type taskProbe struct {
	core *Core
	next pipeline.Probe
	open map[uint64]string
}

func newTaskProbe(c *Core, next pipeline.Probe) *taskProbe {
	return &taskProbe{
		core: c,
		next: next,
		open: make(map[uint64]string),
	}
}

func (t *taskProbe) OnComplete(cycle uint64, e pipeline.Entry) {
	id := xid.New().String()
	t.open[e.Seq] = id
	tracing.StartTask(id, "", t.core, TaskKind, e.Inst.Op.String(), e.Inst)

	if t.next != nil {
		t.next.OnComplete(cycle, e)
	}
}

func (t *taskProbe) OnRetire(cycle uint64, e pipeline.Entry) {
	if id, ok := t.open[e.Seq]; ok {
		tracing.EndTask(id, t.core)
		delete(t.open, e.Seq)
	}

	if t.next != nil {
		t.next.OnRetire(cycle, e)
	}
}

func (t *taskProbe) OnFlush(cycle uint64, branch pipeline.Entry, squashed int) {
	for seq, id := range t.open {
		if seq <= branch.Seq {
			continue
		}
		tracing.AddTaskStep(id, t.core, "squashed")
		tracing.EndTask(id, t.core)
		delete(t.open, seq)
	}

	if t.next != nil {
		t.next.OnFlush(cycle, branch, squashed)
	}
}

// OpenTasks returns the number of completed instructions not yet retired.
func (c *Core) OpenTasks() int {
	return len(c.tasks.open)
}
