// Package benchmarks provides timing benchmark infrastructure for APEXSim.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/sarchlab/apexsim/emu"
	"github.com/sarchlab/apexsim/loader"
	"github.com/sarchlab/apexsim/timing/latency"
	"github.com/sarchlab/apexsim/timing/pipeline"
)

// BenchmarkResult holds the timing results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// SimulatedCycles is the total cycle count from the timing simulator
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired is the number of retired instructions, HALT included
	InstructionsRetired uint64 `json:"instructions_retired"`

	// CPI is cycles per instruction
	CPI float64 `json:"cpi"`

	// StallCycles is the number of cycles decode could not admit its entry
	StallCycles      uint64 `json:"stall_cycles"`
	FreeListStalls   uint64 `json:"free_list_stalls"`
	IssueQueueStalls uint64 `json:"issue_queue_stalls"`
	ROBStalls        uint64 `json:"rob_stalls"`

	// HazardWaits counts cycles a memory instruction waited on an address
	HazardWaits uint64 `json:"hazard_waits"`

	// PipelineFlushes is the number of taken-branch recoveries
	PipelineFlushes uint64 `json:"pipeline_flushes"`
	Squashed        uint64 `json:"squashed"`

	// Result is the value of the benchmark's result register
	Result int32 `json:"result"`

	// Correct is true when Result matches the expected value and the final
	// architectural state matches the functional emulator
	Correct bool `json:"correct"`

	// Error describes a load or run failure
	Error string `json:"error,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Source is the APEX assembly text of the program
	Source []string

	// ResultReg is the register holding the answer at HALT
	ResultReg uint8

	// Expected is the value ResultReg must hold
	Expected int32
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Pipeline sizes the pipeline structures (default: pipeline.DefaultConfig)
	Pipeline *pipeline.Config

	// Latency sets functional unit latencies (default: latency.DefaultTimingConfig)
	Latency *latency.TimingConfig

	// MaxCycles bounds each run
	MaxCycles uint64

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Pipeline:  pipeline.DefaultConfig(),
		Latency:   latency.DefaultTimingConfig(),
		MaxCycles: 100000,
		Output:    os.Stdout,
	}
}

// Harness runs timing benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Pipeline == nil {
		config.Pipeline = pipeline.DefaultConfig()
	}
	if config.Latency == nil {
		config.Latency = latency.DefaultTimingConfig()
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result := h.runBenchmark(bench)
		if h.config.Verbose {
			_, _ = fmt.Fprintf(h.config.Output, "ran %s: %d cycles\n",
				result.Name, result.SimulatedCycles)
		}
		results = append(results, result)
	}

	return results
}

// runBenchmark executes a single benchmark on the pipeline and checks its
// final state against the functional emulator.
func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	result := BenchmarkResult{
		Name:        bench.Name,
		Description: bench.Description,
	}

	prog, err := loader.Parse(strings.NewReader(strings.Join(bench.Source, "\n")))
	if err != nil {
		result.Error = err.Error()
		return result
	}

	pipe, err := pipeline.NewPipeline(prog,
		pipeline.WithConfig(h.config.Pipeline.Clone()),
		pipeline.WithLatencyTable(latency.NewTableWithConfig(h.config.Latency)),
		pipeline.WithCycleLimit(h.config.MaxCycles),
	)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	start := time.Now()
	halted := pipe.Run()
	result.WallTime = time.Since(start)

	stats := pipe.Stats()
	result.SimulatedCycles = stats.Cycles
	result.InstructionsRetired = stats.Instructions
	result.CPI = stats.CPI()
	result.StallCycles = stats.Stalls
	result.FreeListStalls = stats.FreeListStalls
	result.IssueQueueStalls = stats.IssueQueueStalls
	result.ROBStalls = stats.ROBStalls
	result.HazardWaits = stats.HazardWaits
	result.PipelineFlushes = stats.Flushes
	result.Squashed = stats.Squashed
	result.Result = pipe.RegFile().ReadReg(bench.ResultReg)

	if !halted {
		result.Error = fmt.Sprintf("no HALT within %d cycles", h.config.MaxCycles)
		return result
	}

	emulator := emu.NewEmulator(prog,
		emu.WithRegFile(emu.NewRegFile(h.config.Pipeline.ArchRegs)),
		emu.WithMemory(emu.NewMemory(h.config.Pipeline.DataMemoryWords)),
		emu.WithMaxInstructions(h.config.MaxCycles))
	if err := emulator.Run(); err != nil {
		result.Error = err.Error()
		return result
	}

	result.Correct = result.Result == bench.Expected &&
		slices.Equal(pipe.RegFile().Snapshot(), emulator.RegFile().Snapshot()) &&
		slices.Equal(pipe.NonZeroMemory(), emulator.Memory().NonZero()) &&
		stats.Instructions == emulator.InstructionCount()

	return result
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== APEXSim Timing Benchmark Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		if r.Error != "" {
			_, _ = fmt.Fprintf(h.config.Output, "  Error: %s\n", r.Error)
		}
		_, _ = fmt.Fprintf(h.config.Output, "  Result: %d (correct: %t)\n", r.Result, r.Correct)
		_, _ = fmt.Fprintln(h.config.Output, "  --- Timing ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Simulated Cycles:     %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Instructions Retired: %d\n", r.InstructionsRetired)
		_, _ = fmt.Fprintf(h.config.Output, "  CPI:                  %.3f\n", r.CPI)
		_, _ = fmt.Fprintf(h.config.Output, "  Stall Cycles:         %d\n", r.StallCycles)
		if r.StallCycles > 0 {
			_, _ = fmt.Fprintf(h.config.Output, "    Free List:          %d\n", r.FreeListStalls)
			_, _ = fmt.Fprintf(h.config.Output, "    Issue Queue:        %d\n", r.IssueQueueStalls)
			_, _ = fmt.Fprintf(h.config.Output, "    ROB:                %d\n", r.ROBStalls)
		}
		_, _ = fmt.Fprintf(h.config.Output, "  Hazard Waits:         %d\n", r.HazardWaits)
		_, _ = fmt.Fprintf(h.config.Output, "  Pipeline Flushes:     %d\n", r.PipelineFlushes)
		_, _ = fmt.Fprintf(h.config.Output, "  Squashed:             %d\n", r.Squashed)
		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,cycles,instructions,cpi,stalls,free_list_stalls,iq_stalls,rob_stalls,hazard_waits,flushes,squashed,result,correct")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%.3f,%d,%d,%d,%d,%d,%d,%d,%d,%t\n",
			r.Name,
			r.SimulatedCycles,
			r.InstructionsRetired,
			r.CPI,
			r.StallCycles,
			r.FreeListStalls,
			r.IssueQueueStalls,
			r.ROBStalls,
			r.HazardWaits,
			r.PipelineFlushes,
			r.Squashed,
			r.Result,
			r.Correct,
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Pipeline and Latency are the configurations used
	Pipeline *pipeline.Config      `json:"pipeline"`
	Latency  *latency.TimingConfig `json:"latency"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	TotalBenchmarks   int           `json:"total_benchmarks"`
	Correct           int           `json:"correct"`
	TotalCycles       uint64        `json:"total_cycles"`
	TotalInstructions uint64        `json:"total_instructions"`
	AverageCPI        float64       `json:"average_cpi"`
	TotalWallTime     time.Duration `json:"total_wall_time_ns"`
}

// Summarize aggregates results.
func Summarize(results []BenchmarkResult) ReportSummary {
	s := ReportSummary{TotalBenchmarks: len(results)}
	for _, r := range results {
		s.TotalCycles += r.SimulatedCycles
		s.TotalInstructions += r.InstructionsRetired
		s.TotalWallTime += r.WallTime
		if r.Correct {
			s.Correct++
		}
	}
	if s.TotalInstructions > 0 {
		s.AverageCPI = float64(s.TotalCycles) / float64(s.TotalInstructions)
	}
	return s
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Pipeline:  h.config.Pipeline,
			Latency:   h.config.Latency,
		},
		Results: results,
		Summary: Summarize(results),
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
