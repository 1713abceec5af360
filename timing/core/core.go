// Package core provides the cycle-accurate APEX core model.
// It wraps the pipeline as an akita ticking component so it can be driven
// by an akita simulation engine, and reports instructions as akita tracing
// tasks to any tracer attached with tracing.CollectTrace.
package core

import (
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/apexsim/timing/pipeline"
)

// Stats holds performance statistics for the core.
type Stats struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions retired.
	Instructions uint64
	// Stalls is the number of decode stall cycles.
	Stalls uint64
	// Flushes is the number of pipeline flushes.
	Flushes uint64
}

// Core represents a cycle-accurate APEX core.
// Each engine tick advances the pipeline by one cycle.
type Core struct {
	*sim.TickingComponent

	pipe  *pipeline.Pipeline
	tasks *taskProbe
}

// NewCore creates a core named name that ticks pipe at freq on engine.
func NewCore(name string, engine sim.Engine, freq sim.Freq, pipe *pipeline.Pipeline) *Core {
	c := &Core{pipe: pipe}
	c.TickingComponent = sim.NewTickingComponent(name, engine, freq, c)
	c.tasks = newTaskProbe(c, pipe.Probe())
	pipe.SetProbe(c.tasks)
	return c
}

// Start schedules the first tick.
func (c *Core) Start() {
	c.TickLater()
}

// Tick advances the pipeline one cycle. It returns false once HALT has
// retired or the cycle limit is reached, which stops further ticks.
func (c *Core) Tick() bool {
	if c.pipe.Halted() || c.pipe.AtCycleLimit() {
		return false
	}

	c.pipe.Tick()
	return !c.pipe.Halted()
}

// Pipeline returns the underlying pipeline.
func (c *Core) Pipeline() *pipeline.Pipeline {
	return c.pipe
}

// Halted returns true if HALT has retired.
func (c *Core) Halted() bool {
	return c.pipe.Halted()
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	pipeStats := c.pipe.Stats()
	return Stats{
		Cycles:       pipeStats.Cycles,
		Instructions: pipeStats.Instructions,
		Stalls:       pipeStats.Stalls,
		Flushes:      pipeStats.Flushes,
	}
}
