package pipeline_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/apexsim/emu"
	"github.com/sarchlab/apexsim/timing/pipeline"
)

var _ = Describe("FreeList", func() {
	var free *pipeline.FreeList

	BeforeEach(func() {
		free = pipeline.NewFreeList(4)
	})

	It("should hand out registers in order", func() {
		for want := 0; want < 4; want++ {
			p, ok := free.Pop()
			Expect(ok).To(BeTrue())
			Expect(p).To(Equal(want))
		}
		_, ok := free.Pop()
		Expect(ok).To(BeFalse())
		Expect(free.Empty()).To(BeTrue())
	})

	It("should return released registers last", func() {
		p, _ := free.Pop()
		free.Push(p)

		Expect(free.Snapshot()).To(Equal([]int{1, 2, 3, 0}))
	})

	It("should ignore double frees and NoPhys", func() {
		free.Push(2)
		free.Push(pipeline.NoPhys)

		Expect(free.Len()).To(Equal(4))
	})
})

var _ = Describe("RenameTable", func() {
	var table *pipeline.RenameTable

	BeforeEach(func() {
		table = pipeline.NewRenameTable(16)
	})

	It("should start unmapped", func() {
		Expect(table.Lookup(3)).To(Equal(pipeline.NoPhys))
	})

	It("should return the displaced mapping", func() {
		Expect(table.Map(3, 10)).To(Equal(pipeline.NoPhys))
		Expect(table.Map(3, 11)).To(Equal(10))
		Expect(table.Lookup(3)).To(Equal(11))
		Expect(table.Mapped(10)).To(BeFalse())
	})

	It("should restore a displaced mapping", func() {
		table.Map(3, 10)
		table.Map(3, 11)
		table.Restore(3, 10)

		Expect(table.Lookup(3)).To(Equal(10))
	})
})

var _ = Describe("ReorderBuffer", func() {
	var rob *pipeline.ReorderBuffer

	BeforeEach(func() {
		rob = pipeline.NewReorderBuffer(3)
	})

	push := func(seq uint64) {
		Expect(rob.Push(pipeline.Entry{Valid: true, Seq: seq})).To(BeTrue())
	}

	It("should retire in allocation order across wrap-around", func() {
		push(1)
		push(2)
		push(3)
		Expect(rob.Full()).To(BeTrue())
		Expect(rob.Push(pipeline.Entry{Seq: 4})).To(BeFalse())

		Expect(rob.Pop().Seq).To(Equal(uint64(1)))
		push(4)
		Expect(rob.Head().Seq).To(Equal(uint64(2)))

		var seqs []uint64
		for _, e := range rob.Entries() {
			seqs = append(seqs, e.Seq)
		}
		Expect(seqs).To(Equal([]uint64{2, 3, 4}))
	})

	It("should find slots by sequence number", func() {
		push(7)
		push(8)

		slot := rob.Lookup(8)
		Expect(slot).NotTo(BeNil())
		slot.Done = true
		Expect(rob.Entries()[1].Done).To(BeTrue())
		Expect(rob.Lookup(9)).To(BeNil())
	})

	It("should squash youngest first", func() {
		push(1)
		push(2)
		push(3)

		var order []uint64
		rob.SquashAll(func(e pipeline.Entry) { order = append(order, e.Seq) })

		Expect(order).To(Equal([]uint64{3, 2, 1}))
		Expect(rob.Len()).To(BeZero())
		Expect(rob.Head()).To(BeNil())
	})
})

var _ = Describe("IssueQueue", func() {
	It("should bound its size and keep arrival order", func() {
		queue := pipeline.NewIssueQueue(2)
		Expect(queue.Push(pipeline.Entry{Seq: 1})).To(BeTrue())
		Expect(queue.Push(pipeline.Entry{Seq: 2})).To(BeTrue())
		Expect(queue.Push(pipeline.Entry{Seq: 3})).To(BeFalse())

		entries := queue.Entries()
		Expect(entries[0].Seq).To(Equal(uint64(1)))
		Expect(entries[1].Seq).To(Equal(uint64(2)))

		queue.Clear()
		Expect(queue.Len()).To(BeZero())
	})
})

var _ = Describe("AddressHazards", func() {
	var hazards *pipeline.AddressHazards

	BeforeEach(func() {
		hazards = pipeline.NewAddressHazards(16)
	})

	It("should let only one instruction hold an address", func() {
		Expect(hazards.Reserve(4)).To(BeTrue())
		Expect(hazards.Busy(4)).To(BeTrue())
		Expect(hazards.Reserve(4)).To(BeFalse())
		Expect(hazards.Count()).To(Equal(1))

		hazards.Release(4)
		Expect(hazards.Busy(4)).To(BeFalse())
		Expect(hazards.Count()).To(BeZero())
	})

	It("should never reserve out of range addresses", func() {
		Expect(hazards.Reserve(-1)).To(BeFalse())
		Expect(hazards.Reserve(16)).To(BeFalse())
		Expect(hazards.Busy(16)).To(BeFalse())
	})

	It("should list held addresses", func() {
		hazards.Reserve(9)
		hazards.Reserve(2)

		Expect(hazards.Held()).To(Equal([]int32{2, 9}))
	})
})

var _ = Describe("CompareTable", func() {
	var compares *pipeline.CompareTable

	BeforeEach(func() {
		compares = pipeline.NewCompareTable()
	})

	It("should be ready when no compare is in flight", func() {
		Expect(compares.Ready(0)).To(BeTrue())
	})

	It("should wait for the producing compare", func() {
		Expect(compares.Ready(5)).To(BeFalse())

		compares.Put(5, 0)
		Expect(compares.Ready(5)).To(BeTrue())
		Expect(compares.Flag(5, emu.Flag{}).Zero()).To(BeTrue())
	})

	It("should fall back to the committed flag after retirement", func() {
		compares.Put(5, 3)
		compares.Retire(5)

		committed := emu.Flag{Diff: 3, Set: true}
		Expect(compares.Ready(5)).To(BeTrue())
		Expect(compares.Flag(5, committed)).To(Equal(committed))
		Expect(compares.Len()).To(BeZero())
	})

	It("should keep separate results per dynamic compare", func() {
		compares.Put(5, 0)
		compares.Put(9, 1)

		Expect(compares.Flag(5, emu.Flag{}).Zero()).To(BeTrue())
		Expect(compares.Flag(9, emu.Flag{}).Zero()).To(BeFalse())

		compares.Discard(9)
		Expect(compares.Ready(9)).To(BeFalse())
	})
})

var _ = Describe("Config", func() {
	It("should create valid default config", func() {
		config := pipeline.DefaultConfig()
		Expect(config.Validate()).To(Succeed())
		Expect(config.PhysRegs).To(Equal(48))
		Expect(config.ROBSize).To(Equal(64))
		Expect(config.IssueQueueSize).To(Equal(24))
	})

	DescribeTable("invalid values",
		func(mutate func(*pipeline.Config)) {
			config := pipeline.DefaultConfig()
			mutate(config)
			Expect(config.Validate()).NotTo(Succeed())
		},
		Entry("no architectural registers", func(c *pipeline.Config) { c.ArchRegs = 0 }),
		Entry("too many architectural registers", func(c *pipeline.Config) { c.ArchRegs = 17 }),
		Entry("too few physical registers", func(c *pipeline.Config) { c.PhysRegs = 16 }),
		Entry("empty issue queue", func(c *pipeline.Config) { c.IssueQueueSize = 0 }),
		Entry("empty reorder buffer", func(c *pipeline.Config) { c.ROBSize = 0 }),
		Entry("zero commit width", func(c *pipeline.Config) { c.CommitWidth = 0 }),
		Entry("no data memory", func(c *pipeline.Config) { c.DataMemoryWords = 0 }),
	)

	It("should create independent copy", func() {
		original := pipeline.DefaultConfig()
		clone := original.Clone()
		clone.ROBSize = 8

		Expect(original.ROBSize).To(Equal(64))
	})

	It("should save and load config", func() {
		tempDir, err := os.MkdirTemp("", "pipeline-config-test")
		Expect(err).NotTo(HaveOccurred())
		defer func() { _ = os.RemoveAll(tempDir) }()

		original := pipeline.DefaultConfig()
		original.CommitWidth = 2
		path := filepath.Join(tempDir, "pipeline.json")
		Expect(original.SaveConfig(path)).To(Succeed())

		loaded, err := pipeline.LoadConfig(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).To(Equal(original))
	})

	It("should return error for non-existent file", func() {
		_, err := pipeline.LoadConfig("/nonexistent/path/pipeline.json")
		Expect(err).To(HaveOccurred())
	})
})
