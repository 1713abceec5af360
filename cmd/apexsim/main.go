// Package main provides the entry point for APEXSim.
// APEXSim is a cycle-level simulator of an out-of-order APEX processor.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/apexsim/emu"
	"github.com/sarchlab/apexsim/insts"
	"github.com/sarchlab/apexsim/loader"
	"github.com/sarchlab/apexsim/timing/latency"
	"github.com/sarchlab/apexsim/timing/pipeline"
)

var (
	timing      = flag.Bool("timing", true, "Enable timing simulation mode (false runs the functional emulator)")
	configPath  = flag.String("config", "", "Path to pipeline configuration JSON file")
	latencyPath = flag.String("latency", "", "Path to functional unit latency JSON file")
	cycles      = flag.Uint64("cycles", 0, "Simulate this many cycles and stop (0 = run to HALT)")
	memList     = flag.String("mem", "", "Comma separated data memory addresses to display")
	interactive = flag.Bool("i", false, "Interactive mode")
	verbose     = flag.Bool("v", false, "Verbose output")
	maxCycles   = flag.Uint64("max-cycles", 1000000, "Give up after this many cycles (0 = no limit)")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: apexsim [options] <program.asm>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	programPath := flag.Arg(0)

	prog, err := loader.Load(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	addrs, err := parseAddresses(*memList)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing -mem: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Loaded: %s\n", programPath)
		fmt.Printf("Code base: %d\n", prog.Base)
		fmt.Printf("Instructions: %d\n", prog.Len())
	}

	if !*timing {
		os.Exit(runEmulation(prog, programPath, addrs))
	}

	opts, err := pipelineOptions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if *interactive {
		sess := newSession(prog, opts, os.Stdout)
		if err := sess.run(os.Stdin); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	os.Exit(runTiming(prog, programPath, opts, addrs))
}

// pipelineOptions builds the pipeline options selected by the flags.
func pipelineOptions() ([]pipeline.PipelineOption, error) {
	var opts []pipeline.PipelineOption

	if *configPath != "" {
		cfg, err := pipeline.LoadConfig(*configPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithConfig(cfg))
	}

	if *latencyPath != "" {
		timingConfig, err := latency.LoadConfig(*latencyPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithLatencyTable(latency.NewTableWithConfig(timingConfig)))
	}

	opts = append(opts, pipeline.WithCycleLimit(*maxCycles))

	if *verbose {
		opts = append(opts, pipeline.WithProbe(&traceProbe{out: os.Stdout}))
	}

	return opts, nil
}

// runEmulation runs the program in functional emulation mode.
func runEmulation(prog *insts.Program, programPath string, addrs []int32) int {
	emulator := emu.NewEmulator(prog, emu.WithMaxInstructions(*maxCycles))

	err := emulator.Run()

	fmt.Printf("\nProgram: %s\n", programPath)
	printRegisters(os.Stdout, emulator.RegFile())
	printMemory(os.Stdout, emulator.Memory(), addrs)

	stats := emulator.Stats()
	fmt.Printf("Instructions executed: %d\n", stats.Instructions)
	if stats.MemFaults > 0 || stats.DivideByZero > 0 {
		fmt.Printf("Memory faults: %d, divide by zero: %d\n",
			stats.MemFaults, stats.DivideByZero)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// runTiming runs the program in timing simulation mode.
func runTiming(
	prog *insts.Program,
	programPath string,
	opts []pipeline.PipelineOption,
	addrs []int32,
) int {
	pipe, err := pipeline.NewPipeline(prog, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating pipeline: %v\n", err)
		return 1
	}

	completed := true
	if *cycles > 0 {
		pipe.RunCycles(*cycles)
	} else {
		completed = pipe.Run()
	}

	fmt.Printf("\nProgram: %s\n", programPath)
	printRegisters(os.Stdout, pipe.RegFile())
	printMemory(os.Stdout, pipe.Memory(), addrs)
	printStats(os.Stdout, pipe.Stats())

	if !completed {
		fmt.Fprintf(os.Stderr, "Stopped at cycle limit %d before HALT\n", *maxCycles)
		return 2
	}
	return 0
}

// parseAddresses parses a comma separated list of data memory addresses.
func parseAddresses(list string) ([]int32, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}

	var addrs []int32
	for _, field := range strings.Split(list, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.ParseInt(field, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("bad address %q: %w", field, err)
		}
		addrs = append(addrs, int32(n))
	}
	return addrs, nil
}
