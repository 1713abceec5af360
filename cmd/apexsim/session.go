package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sarchlab/apexsim/insts"
	"github.com/sarchlab/apexsim/timing/pipeline"
)

// session drives a pipeline from interactive commands.
type session struct {
	prog *insts.Program
	opts []pipeline.PipelineOption
	out  io.Writer
	pipe *pipeline.Pipeline
}

func newSession(prog *insts.Program, opts []pipeline.PipelineOption, out io.Writer) *session {
	return &session{prog: prog, opts: opts, out: out}
}

// run reads commands until quit or end of input.
func (s *session) run(in io.Reader) error {
	if err := s.init(); err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	fmt.Fprintf(s.out, "apexsim> ")
	for scanner.Scan() {
		quit, err := s.exec(scanner.Text())
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
		fmt.Fprintf(s.out, "apexsim> ")
	}
	return scanner.Err()
}

func (s *session) init() error {
	pipe, err := pipeline.NewPipeline(s.prog, s.opts...)
	if err != nil {
		return err
	}
	s.pipe = pipe
	return nil
}

// exec runs one command line. It returns true when the session should end.
func (s *session) exec(line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	cmd := strings.ToLower(fields[0])
	switch cmd {
	case "init":
		if err := s.init(); err != nil {
			return false, err
		}
		fmt.Fprintf(s.out, "Pipeline reset to PC %d\n", s.pipe.PC())
	case "step":
		s.pipe.Step()
		printPipeline(s.out, s.pipe)
	case "sim":
		if len(fields) != 2 {
			return false, fmt.Errorf("usage: sim <cycles>")
		}
		n, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return false, fmt.Errorf("bad cycle count %q", fields[1])
		}
		s.pipe.RunCycles(n)
		printPipeline(s.out, s.pipe)
	case "run":
		if !s.pipe.Run() {
			fmt.Fprintf(s.out, "Stopped at cycle limit\n")
		}
		s.report()
	case "show":
		printPipeline(s.out, s.pipe)
		printRegisters(s.out, s.pipe.RegFile())
	case "mem":
		if len(fields) != 2 {
			return false, fmt.Errorf("usage: mem <address>")
		}
		addrs, err := parseAddresses(fields[1])
		if err != nil {
			return false, err
		}
		for _, addr := range addrs {
			if !s.pipe.Memory().Contains(addr) {
				return false, fmt.Errorf("address %d out of range", addr)
			}
			fmt.Fprintf(s.out, "MEM[%d] = %d\n", addr, s.pipe.ReadMemory(addr))
		}
	case "quit", "q", "exit":
		s.report()
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q (init, step, sim N, run, show, mem A, quit)", fields[0])
	}

	if s.pipe.Halted() && cmd != "run" {
		fmt.Fprintf(s.out, "HALT retired at cycle %d\n", s.pipe.Stats().Cycles)
	}
	return false, nil
}

func (s *session) report() {
	printRegisters(s.out, s.pipe.RegFile())
	printMemory(s.out, s.pipe.Memory(), nil)
	printStats(s.out, s.pipe.Stats())
}
