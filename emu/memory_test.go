package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/apexsim/emu"
)

var _ = Describe("Memory", func() {
	var memory *emu.Memory

	BeforeEach(func() {
		memory = emu.NewMemory(64)
	})

	It("should read zero from fresh memory", func() {
		v, err := memory.Read(10)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(BeZero())
	})

	It("should store negative values", func() {
		Expect(memory.Write(5, -123456)).To(Succeed())

		v, err := memory.Read(5)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(int32(-123456)))
	})

	It("should keep neighbouring cells apart", func() {
		Expect(memory.Write(5, 1)).To(Succeed())
		Expect(memory.Write(6, 2)).To(Succeed())

		Expect(memory.Peek(5)).To(Equal(int32(1)))
		Expect(memory.Peek(6)).To(Equal(int32(2)))
	})

	It("should reject out of range addresses", func() {
		_, err := memory.Read(64)
		Expect(err).To(MatchError(emu.ErrAddressOutOfRange))
		Expect(memory.Write(-1, 3)).To(MatchError(emu.ErrAddressOutOfRange))
		Expect(memory.Peek(-1)).To(BeZero())
	})

	It("should list non-zero cells in address order", func() {
		Expect(memory.Write(40, 4)).To(Succeed())
		Expect(memory.Write(2, 7)).To(Succeed())
		Expect(memory.Write(3, 0)).To(Succeed())

		Expect(memory.NonZero()).To(Equal([]emu.Cell{
			{Addr: 2, Value: 7},
			{Addr: 40, Value: 4},
		}))
	})
})
