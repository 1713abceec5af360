package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/apexsim/emu"
	"github.com/sarchlab/apexsim/timing/pipeline"
)

func tightConfig() *pipeline.Config {
	config := pipeline.DefaultConfig()
	config.PhysRegs = 20
	config.IssueQueueSize = 3
	config.ROBSize = 6
	config.CommitWidth = 1
	return config
}

var programs = map[string][]string{
	"sum loop":        sumLoop,
	"squares loop":    squaresLoop,
	"register memory": registerMemory,
	"call and return": callReturn,
	"taken branch":    takenBranch,
	"multiplies":      multiplies,
}

var _ = Describe("Pipeline properties", func() {
	for name, lines := range programs {
		for configName, config := range map[string]func() *pipeline.Config{
			"default config": pipeline.DefaultConfig,
			"tight config":   tightConfig,
		} {
			Context(name+" with "+configName, func() {
				var (
					pipe  *pipeline.Pipeline
					probe *recorder
				)

				BeforeEach(func() {
					probe = &recorder{}

					var err error
					pipe, err = pipeline.NewPipeline(assemble(lines...),
						pipeline.WithConfig(config()),
						pipeline.WithProbe(probe),
						pipeline.WithCycleLimit(20000))
					Expect(err).NotTo(HaveOccurred())
				})

				It("should keep its bookkeeping consistent every cycle", func() {
					flushes := 0
					for !pipe.Step() {
						Expect(pipe.AtCycleLimit()).To(BeFalse())
						Expect(pipe.CheckInvariants()).To(Succeed())
						Expect(pipe.FreeRegs()).To(BeNumerically("<=", pipe.Config().PhysRegs))
						Expect(pipe.ROBLen()).To(BeNumerically("<=", pipe.Config().ROBSize))
						Expect(pipe.IssueQueueLen()).To(BeNumerically("<=", pipe.Config().IssueQueueSize))

						if len(probe.flushes) > flushes {
							flushes = len(probe.flushes)
							Expect(pipe.ROBEntries()).To(BeEmpty())
							Expect(pipe.IssueQueueEntries()).To(BeEmpty())
						}
					}
					Expect(pipe.CheckInvariants()).To(Succeed())
				})

				It("should retire in program order", func() {
					Expect(pipe.Run()).To(BeTrue())

					for i := 1; i < len(probe.retired); i++ {
						Expect(probe.retired[i].Seq).To(BeNumerically(">", probe.retired[i-1].Seq))
					}
				})

				It("should never allocate a physical register twice", func() {
					for !pipe.Step() {
						owners := make(map[int]uint64)
						for _, e := range pipe.ROBEntries() {
							if e.Pd == pipeline.NoPhys {
								continue
							}
							Expect(owners).NotTo(HaveKey(e.Pd))
							owners[e.Pd] = e.Seq
						}
					}
				})

				It("should match the functional emulator", func() {
					golden := emu.NewEmulator(assemble(lines...), emu.WithMaxInstructions(100000))
					Expect(golden.Run()).To(Succeed())

					Expect(pipe.Run()).To(BeTrue())

					Expect(pipe.RegFile().Values).To(Equal(golden.RegFile().Values))
					Expect(pipe.RegFile().Flag).To(Equal(golden.RegFile().Flag))
					Expect(pipe.RegFile().PC).To(Equal(golden.RegFile().PC))
					Expect(pipe.NonZeroMemory()).To(Equal(golden.Memory().NonZero()))
					Expect(pipe.Stats().Instructions).To(Equal(golden.InstructionCount()))
					Expect(pipe.Stats().MemFaults).To(Equal(golden.Stats().MemFaults))
				})
			})
		}
	}

	It("should stall decode when the reorder buffer is full", func() {
		config := pipeline.DefaultConfig()
		config.ROBSize = 2

		pipe, err := pipeline.NewPipeline(assemble(multiplies...),
			pipeline.WithConfig(config), pipeline.WithCycleLimit(1000))
		Expect(err).NotTo(HaveOccurred())

		Expect(pipe.Run()).To(BeTrue())
		Expect(pipe.Stats().ROBStalls).To(BeNumerically(">", 0))
		Expect(pipe.RegFile().ReadReg(5)).To(Equal(int32(36)))
	})

	It("should stall decode when no physical register is free", func() {
		config := pipeline.DefaultConfig()
		config.ArchRegs = 6
		config.PhysRegs = 7

		pipe, err := pipeline.NewPipeline(assemble(squaresLoop...),
			pipeline.WithConfig(config), pipeline.WithCycleLimit(20000))
		Expect(err).NotTo(HaveOccurred())

		Expect(pipe.Run()).To(BeTrue())
		Expect(pipe.Stats().FreeListStalls).To(BeNumerically(">", 0))
		Expect(pipe.RegFile().ReadReg(3)).To(Equal(int32(140)))
	})
})
