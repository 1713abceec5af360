package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/apexsim/emu"
)

var _ = Describe("RegFile", func() {
	var regFile *emu.RegFile

	BeforeEach(func() {
		regFile = emu.NewRegFile(emu.DefaultNumRegs)
	})

	It("should start with all registers zero and valid", func() {
		Expect(regFile.NumRegs()).To(Equal(16))
		for r := 0; r < regFile.NumRegs(); r++ {
			Expect(regFile.ReadReg(uint8(r))).To(BeZero())
			Expect(regFile.Valid[r]).To(BeTrue())
		}
	})

	It("should write and read back a register", func() {
		regFile.Valid[3] = false
		regFile.WriteReg(3, -7)

		Expect(regFile.ReadReg(3)).To(Equal(int32(-7)))
		Expect(regFile.Valid[3]).To(BeTrue())
	})

	It("should ignore out of range registers", func() {
		regFile.WriteReg(200, 5)
		Expect(regFile.ReadReg(200)).To(BeZero())
	})

	It("should return an independent snapshot", func() {
		regFile.WriteReg(1, 9)
		snap := regFile.Snapshot()
		regFile.WriteReg(1, 10)

		Expect(snap[1]).To(Equal(int32(9)))
	})

	Describe("Flag", func() {
		It("should not report zero before any comparison", func() {
			Expect(emu.Flag{}.Zero()).To(BeFalse())
		})

		It("should report zero for an equal comparison", func() {
			Expect(emu.Flag{Diff: 0, Set: true}.Zero()).To(BeTrue())
			Expect(emu.Flag{Diff: -3, Set: true}.Zero()).To(BeFalse())
		})
	})
})
