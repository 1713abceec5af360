package core_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/akita/v4/tracing"

	"github.com/sarchlab/apexsim/loader"
	"github.com/sarchlab/apexsim/timing/core"
	"github.com/sarchlab/apexsim/timing/pipeline"
)

var _ = Describe("Core", func() {
	var (
		engine sim.Engine
		pipe   *pipeline.Pipeline
		c      *core.Core
	)

	build := func(src string, opts ...pipeline.PipelineOption) {
		prog, err := loader.Parse(strings.NewReader(src))
		Expect(err).NotTo(HaveOccurred())

		pipe, err = pipeline.NewPipeline(prog, opts...)
		Expect(err).NotTo(HaveOccurred())

		engine = sim.NewSerialEngine()
		c = core.NewCore("Core", engine, 1*sim.GHz, pipe)
	}

	It("should create a core with pipeline", func() {
		build("HALT")

		Expect(c).NotTo(BeNil())
		Expect(c.Pipeline()).To(BeIdenticalTo(pipe))
		Expect(c.Name()).To(Equal("Core"))
	})

	It("should not be halted initially", func() {
		build("HALT")
		Expect(c.Halted()).To(BeFalse())
	})

	It("should run a program to halt on the engine", func() {
		build("MOVC,R0,#5\nMOVC,R1,#10\nADD,R2,R0,R1\nHALT\n")

		c.Start()
		Expect(engine.Run()).To(Succeed())

		Expect(c.Halted()).To(BeTrue())
		Expect(pipe.RegFile().ReadReg(2)).To(Equal(int32(15)))
	})

	It("should return stats", func() {
		build("MOVC,R0,#0\nCMP,R0,R0\nBZ,#8\nMOVC,R1,#99\nMOVC,R1,#1\nHALT\n")

		c.Start()
		Expect(engine.Run()).To(Succeed())

		stats := c.Stats()
		Expect(stats.Instructions).To(Equal(uint64(5)))
		Expect(stats.Flushes).To(Equal(uint64(1)))
		Expect(stats.Cycles).To(Equal(pipe.Stats().Cycles))
	})

	It("should stop ticking at the cycle limit", func() {
		build("BNZ,#0\n", pipeline.WithCycleLimit(20))

		c.Start()
		Expect(engine.Run()).To(Succeed())

		Expect(c.Halted()).To(BeFalse())
		Expect(c.Stats().Cycles).To(Equal(uint64(20)))
	})

	Describe("tracing", func() {
		It("should report completed instructions as tasks", func() {
			build("MOVC,R0,#5\nMOVC,R1,#10\nMUL,R2,R0,R1\nHALT\n")
			tracer := tracing.NewAverageTimeTracer(engine,
				func(t tracing.Task) bool { return t.Kind == core.TaskKind })
			tracing.CollectTrace(c, tracer)

			c.Start()
			Expect(engine.Run()).To(Succeed())

			// HALT retires without passing through a unit.
			Expect(tracer.TotalCount()).To(Equal(uint64(3)))
			Expect(c.OpenTasks()).To(BeZero())
		})

		It("should end tasks of squashed instructions", func() {
			build("MOVC,R0,#0\nCMP,R0,R0\nBZ,#8\nMOVC,R1,#99\nMOVC,R1,#1\nHALT\n")

			c.Start()
			Expect(engine.Run()).To(Succeed())

			Expect(c.OpenTasks()).To(BeZero())
			Expect(pipe.RegFile().ReadReg(1)).To(Equal(int32(1)))
		})

		It("should keep forwarding events to an installed probe", func() {
			rec := &countingProbe{}
			build("MOVC,R0,#1\nHALT\n", pipeline.WithProbe(rec))

			c.Start()
			Expect(engine.Run()).To(Succeed())

			Expect(rec.retired).To(Equal(2))
			Expect(rec.completed).To(Equal(1))
		})
	})
})

type countingProbe struct {
	completed int
	retired   int
}

func (p *countingProbe) OnComplete(uint64, pipeline.Entry) { p.completed++ }

func (p *countingProbe) OnRetire(uint64, pipeline.Entry) { p.retired++ }

func (p *countingProbe) OnFlush(uint64, pipeline.Entry, int) {}
