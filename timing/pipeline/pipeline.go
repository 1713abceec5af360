package pipeline

import (
	"errors"
	"fmt"

	"github.com/sarchlab/apexsim/emu"
	"github.com/sarchlab/apexsim/insts"
	"github.com/sarchlab/apexsim/timing/latency"
)

// Construction errors.
var (
	ErrEmptyProgram  = errors.New("program has no instructions")
	ErrInvalidConfig = errors.New("invalid pipeline configuration")
	ErrRegisterRange = errors.New("register outside the configured register file")
)

// Statistics holds pipeline performance statistics.
type Statistics struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Instructions is the number of instructions retired, HALT included.
	Instructions uint64
	// Flushes is the number of recoveries caused by taken branches and jumps.
	Flushes uint64
	// Squashed is the number of reorder buffer entries discarded by recovery.
	Squashed uint64
	// Dropped is the number of unrecognized instructions discarded at
	// dispatch.
	Dropped uint64

	// Stalls is the number of cycles decode could not admit its entry,
	// split by cause below.
	Stalls           uint64
	FreeListStalls   uint64
	IssueQueueStalls uint64
	ROBStalls        uint64
	// FetchStalls is the number of cycles fetch held an entry because
	// decode was occupied.
	FetchStalls uint64
	// HazardWaits is the number of cycles a memory instruction waited at
	// the reorder buffer head for an address-hazard bit.
	HazardWaits uint64

	// Dispatches per unit class.
	IntegerDispatches  uint64
	MultiplyDispatches uint64
	BranchDispatches   uint64
	MemoryDispatches   uint64

	// MemFaults counts accesses outside data memory. Such loads read 0
	// and such stores are dropped.
	MemFaults uint64
	// DivideByZero counts DIV instructions with a zero divisor. They
	// produce 0.
	DivideByZero uint64
}

// CPI returns the cycles per instruction.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// Probe observes per-instruction events. Callbacks run inside Tick and
// must not call back into the pipeline.
type Probe interface {
	// OnComplete is called when a unit finishes an entry.
	OnComplete(cycle uint64, e Entry)
	// OnRetire is called when an entry retires.
	OnRetire(cycle uint64, e Entry)
	// OnFlush is called after a taken branch retires and squashed younger
	// entries were discarded.
	OnFlush(cycle uint64, branch Entry, squashed int)
}

// PipelineOption is a functional option for configuring the Pipeline.
type PipelineOption func(*Pipeline)

// WithConfig sets the sizes of the pipeline structures.
func WithConfig(config *Config) PipelineOption {
	return func(p *Pipeline) {
		p.config = config
	}
}

// WithLatencyTable sets a custom latency table for functional unit timing.
func WithLatencyTable(table *latency.Table) PipelineOption {
	return func(p *Pipeline) {
		p.latencyTable = table
	}
}

// WithRegFile sets the architectural register file, for example to start
// from preset register values.
func WithRegFile(regFile *emu.RegFile) PipelineOption {
	return func(p *Pipeline) {
		p.regFile = regFile
	}
}

// WithMemory sets the data memory.
func WithMemory(memory *emu.Memory) PipelineOption {
	return func(p *Pipeline) {
		p.memory = memory
	}
}

// WithProbe installs an event observer.
func WithProbe(probe Probe) PipelineOption {
	return func(p *Pipeline) {
		p.probe = probe
	}
}

// WithCycleLimit makes Run give up after the given number of cycles.
// A value of 0 means no limit.
func WithCycleLimit(cycles uint64) PipelineOption {
	return func(p *Pipeline) {
		p.cycleLimit = cycles
	}
}

// Pipeline implements the out-of-order APEX pipeline.
// Stages: Fetch -> Decode/Rename -> Issue Queue -> {Integer, Multiply,
// Branch} units, with memory instructions scheduled from the reorder buffer
// head into a two-stage memory pipeline, and in-order commit.
type Pipeline struct {
	config       *Config
	latencyTable *latency.Table
	probe        Probe
	cycleLimit   uint64

	// Shared resources
	regFile  *emu.RegFile
	memory   *emu.Memory
	physRegs *PhysRegFile
	freeList *FreeList
	table    *RenameTable
	queue    *IssueQueue
	rob      *ReorderBuffer
	compares *CompareTable
	hazards  *AddressHazards

	// Stages and units
	fetchStage  *FetchStage
	decodeStage *DecodeStage
	issueStage  *IssueStage
	commitStage *CommitStage
	intUnit     *ExecUnit
	mulUnit     *ExecUnit
	branchUnit  *BranchUnit
	memoryUnit  *MemoryUnit

	stats  Statistics
	halted bool
}

// NewPipeline creates a pipeline ready to run prog from its base address.
// All registers start valid, the free list holds every physical register
// and every address-hazard bit is clear.
func NewPipeline(prog *insts.Program, opts ...PipelineOption) (*Pipeline, error) {
	if prog == nil || prog.Len() == 0 {
		return nil, ErrEmptyProgram
	}

	p := &Pipeline{}
	for _, opt := range opts {
		opt(p)
	}

	if p.config == nil {
		p.config = DefaultConfig()
	}
	if err := p.config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := checkRegisters(prog, p.config.ArchRegs); err != nil {
		return nil, err
	}
	if p.latencyTable == nil {
		p.latencyTable = latency.NewTable()
	}
	if err := p.latencyTable.Config().Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if p.regFile == nil {
		p.regFile = emu.NewRegFile(p.config.ArchRegs)
	}
	if p.memory == nil {
		p.memory = emu.NewMemory(p.config.DataMemoryWords)
	}

	p.build(prog)

	return p, nil
}

// checkRegisters rejects programs naming a register the pipeline does not
// have.
func checkRegisters(prog *insts.Program, archRegs int) error {
	for i, inst := range prog.Insts {
		regs := inst.Sources()
		if d := inst.Dest(); d != insts.NoReg {
			regs = append(regs, d)
		}
		for _, r := range regs {
			if int(r) >= archRegs {
				return fmt.Errorf("%w: R%d at pc %d (arch_regs %d)",
					ErrRegisterRange, r, prog.PCOf(i), archRegs)
			}
		}
	}
	return nil
}

func (p *Pipeline) build(prog *insts.Program) {
	cfg := p.config

	p.regFile.PC = prog.Base
	p.physRegs = NewPhysRegFile(cfg.PhysRegs)
	p.freeList = NewFreeList(cfg.PhysRegs)
	p.table = NewRenameTable(cfg.ArchRegs)
	p.queue = NewIssueQueue(cfg.IssueQueueSize)
	p.rob = NewReorderBuffer(cfg.ROBSize)
	p.compares = NewCompareTable()
	p.hazards = NewAddressHazards(p.memory.Words())

	p.intUnit = NewExecUnit("int", p.latencyTable, p.physRegs, p.compares, p, &p.stats)
	p.mulUnit = NewExecUnit("mul", p.latencyTable, p.physRegs, p.compares, p, &p.stats)
	p.branchUnit = NewBranchUnit(p.physRegs, p.compares,
		func() emu.Flag { return p.regFile.Flag }, p)
	p.memoryUnit = NewMemoryUnit(p.memory, p.hazards, p.physRegs, p, &p.stats)

	p.fetchStage = NewFetchStage(prog, &p.stats)
	p.decodeStage = NewDecodeStage(p.table, p.freeList, p.physRegs, p.regFile,
		p.queue, p.rob, p.fetchStage, &p.stats, cfg.ArchRegs)
	p.issueStage = NewIssueStage(p.queue, p.physRegs, p.rob, p.compares,
		map[insts.Unit]unitPort{
			insts.UnitInteger:  p.intUnit,
			insts.UnitMultiply: p.mulUnit,
			insts.UnitBranch:   p.branchUnit,
		}, &p.stats)
	p.commitStage = &CommitStage{
		rob:      p.rob,
		queue:    p.queue,
		table:    p.table,
		free:     p.freeList,
		regs:     p.physRegs,
		arch:     p.regFile,
		compares: p.compares,
		hazards:  p.hazards,
		memory:   p.memoryUnit,
		units:    []flushable{p.intUnit, p.mulUnit, p.branchUnit, p.memoryUnit},
		decode:   p.decodeStage,
		fetch:    p.fetchStage,
		stats:    &p.stats,
		probe:    p.probe,
		width:    cfg.CommitWidth,
	}
}

// complete marks the reorder buffer slot of e finished.
func (p *Pipeline) complete(e Entry) {
	slot := p.rob.Lookup(e.Seq)
	if slot == nil {
		return
	}

	slot.Result = e.Result
	slot.Values = e.Values
	slot.Address = e.Address
	slot.StoreData = e.StoreData
	slot.Reserved = e.Reserved
	slot.Taken = e.Taken
	slot.Target = e.Target
	slot.Done = true

	if p.probe != nil {
		p.probe.OnComplete(p.stats.Cycles, *slot)
	}
}

// Tick executes one pipeline cycle.
//
// Stages are evaluated from the end of the pipeline backward (units ->
// commit -> branch -> memory -> issue -> decode -> fetch) so each stage
// observes the state its downstream neighbour had at the end of the
// previous cycle. Recovery happens inside commit, before any younger stage
// runs in the same cycle.
func (p *Pipeline) Tick() {
	if p.halted {
		return
	}

	p.stats.Cycles++

	p.mulUnit.Tick()
	p.intUnit.Tick()

	if p.commitStage.Commit() {
		p.halted = true
		return
	}

	p.branchUnit.TickStage2()
	p.branchUnit.TickStage1()
	p.memoryUnit.TickStage2()
	p.memoryUnit.TickStage1()
	p.issueStage.Issue()
	p.decodeStage.Decode()
	p.fetchStage.Fetch(p.decodeStage.Latch())
}

// Step executes one cycle and returns true once HALT has retired.
func (p *Pipeline) Step() bool {
	p.Tick()
	return p.halted
}

// RunCycles executes the pipeline for the specified number of cycles.
// Returns true if still running, false if halted.
func (p *Pipeline) RunCycles(cycles uint64) bool {
	for i := uint64(0); i < cycles && !p.halted; i++ {
		p.Tick()
	}
	return !p.halted
}

// Run executes the pipeline until HALT retires. It returns false if the
// cycle limit was reached first.
func (p *Pipeline) Run() bool {
	for !p.halted {
		if p.AtCycleLimit() {
			return false
		}
		p.Tick()
	}
	return true
}

// AtCycleLimit returns true if a cycle limit is set and has been reached.
func (p *Pipeline) AtCycleLimit() bool {
	return p.cycleLimit > 0 && p.stats.Cycles >= p.cycleLimit
}

// Halted returns true if HALT has retired.
func (p *Pipeline) Halted() bool {
	return p.halted
}

// PC returns the address of the next instruction to fetch.
func (p *Pipeline) PC() uint32 {
	return p.fetchStage.PC()
}

// Probe returns the installed event observer, or nil.
func (p *Pipeline) Probe() Probe {
	return p.probe
}

// SetProbe replaces the event observer.
func (p *Pipeline) SetProbe(probe Probe) {
	p.probe = probe
	p.commitStage.probe = probe
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() *Config {
	return p.config
}

// Stats returns pipeline statistics.
func (p *Pipeline) Stats() Statistics {
	return p.stats
}

// RegFile returns the architectural register file.
func (p *Pipeline) RegFile() *emu.RegFile {
	return p.regFile
}

// Memory returns the data memory.
func (p *Pipeline) Memory() *emu.Memory {
	return p.memory
}

// ReadMemory returns the data memory cell at addr, or 0 if addr is out of
// range.
func (p *Pipeline) ReadMemory(addr int32) int32 {
	return p.memory.Peek(addr)
}

// NonZeroMemory returns every data memory cell holding a non-zero value.
func (p *Pipeline) NonZeroMemory() []emu.Cell {
	return p.memory.NonZero()
}

// IssueQueueLen returns the number of entries in the issue queue.
func (p *Pipeline) IssueQueueLen() int {
	return p.queue.Len()
}

// ROBLen returns the number of entries in the reorder buffer.
func (p *Pipeline) ROBLen() int {
	return p.rob.Len()
}

// ROBCap returns the capacity of the reorder buffer.
func (p *Pipeline) ROBCap() int {
	return p.rob.Cap()
}

// ExecUnits returns the integer and multiply units.
func (p *Pipeline) ExecUnits() []*ExecUnit {
	return []*ExecUnit{p.intUnit, p.mulUnit}
}

// FreeRegs returns the number of free physical registers.
func (p *Pipeline) FreeRegs() int {
	return p.freeList.Len()
}

// FreeList returns the free physical registers in allocation order.
func (p *Pipeline) FreeList() []int {
	return p.freeList.Snapshot()
}

// ROBEntries returns the reorder buffer contents, oldest first.
func (p *Pipeline) ROBEntries() []Entry {
	return p.rob.Entries()
}

// IssueQueueEntries returns the issue queue contents in arrival order.
func (p *Pipeline) IssueQueueEntries() []Entry {
	return p.queue.Entries()
}

// PhysRegs returns a snapshot of the physical register file.
func (p *Pipeline) PhysRegs() []PhysReg {
	return p.physRegs.Snapshot()
}

// RenameTable returns the current mapping of each architectural register,
// NoPhys for registers that read their committed value.
func (p *Pipeline) RenameTable() []int {
	return p.table.Snapshot()
}

// Hazards returns the reserved data memory addresses.
func (p *Pipeline) Hazards() []int32 {
	return p.hazards.Held()
}

// DecodeEntry returns the entry waiting in decode, if any.
func (p *Pipeline) DecodeEntry() (Entry, bool) {
	l := p.decodeStage.Latch()
	return l.Entry, l.Occupied()
}

// LastStall returns the cause of the most recent decode stall.
func (p *Pipeline) LastStall() StallCause {
	return p.decodeStage.LastStall()
}
