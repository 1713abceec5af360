// Command benchmark runs the APEXSim timing benchmark harness.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-csv      Output results in CSV format (default: human-readable)
//	-json     Output results as a JSON report
//	-config   Pipeline configuration JSON file
//	-latency  Functional unit latency JSON file
//	-core     Run only the core benchmarks
//
// Example:
//
//	# Compare a small reorder buffer against the default
//	go run ./cmd/benchmark -config small_rob.json -csv > small.csv
//
// Every benchmark is checked against the functional emulator; the exit
// status is 1 if any result is incorrect.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/apexsim/benchmarks"
	"github.com/sarchlab/apexsim/timing/latency"
	"github.com/sarchlab/apexsim/timing/pipeline"
)

func main() {
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	jsonOutput := flag.Bool("json", false, "Output results as JSON")
	configPath := flag.String("config", "", "Pipeline configuration JSON file")
	latencyPath := flag.String("latency", "", "Functional unit latency JSON file")
	coreOnly := flag.Bool("core", false, "Run only the core benchmarks")
	flag.Parse()

	config := benchmarks.DefaultConfig()
	config.Output = os.Stdout

	if *configPath != "" {
		cfg, err := pipeline.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading pipeline config: %v\n", err)
			os.Exit(1)
		}
		config.Pipeline = cfg
	}

	if *latencyPath != "" {
		cfg, err := latency.LoadConfig(*latencyPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading latency config: %v\n", err)
			os.Exit(1)
		}
		config.Latency = cfg
	}

	harness := benchmarks.NewHarness(config)
	if *coreOnly {
		harness.AddBenchmarks(benchmarks.GetCoreBenchmarks())
	} else {
		harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
	}

	if !*csvOutput && !*jsonOutput {
		fmt.Println("APEXSim Timing Benchmark Harness")
		fmt.Println("================================")
		fmt.Printf("Physical registers: %d, IQ: %d, ROB: %d, commit width: %d\n",
			config.Pipeline.PhysRegs, config.Pipeline.IssueQueueSize,
			config.Pipeline.ROBSize, config.Pipeline.CommitWidth)
		fmt.Printf("Latency: int %d, mul %d, div %d\n",
			config.Latency.IntegerLatency, config.Latency.MultiplyLatency,
			config.Latency.DivideLatency)
		fmt.Println("")
	}

	results := harness.RunAll()

	switch {
	case *jsonOutput:
		if err := harness.PrintJSON(results); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON: %v\n", err)
			os.Exit(1)
		}
	case *csvOutput:
		harness.PrintCSV(results)
	default:
		harness.PrintResults(results)

		summary := benchmarks.Summarize(results)
		fmt.Println("=== Summary ===")
		fmt.Printf("Correct: %d/%d\n", summary.Correct, summary.TotalBenchmarks)
		fmt.Printf("Total cycles: %d, instructions: %d, average CPI: %.3f\n",
			summary.TotalCycles, summary.TotalInstructions, summary.AverageCPI)
	}

	if benchmarks.Summarize(results).Correct != len(results) {
		os.Exit(1)
	}
}
