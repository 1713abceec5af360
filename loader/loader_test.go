package loader_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/apexsim/insts"
	"github.com/sarchlab/apexsim/loader"
)

var _ = Describe("Loader", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "apex-loader-test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = os.RemoveAll(tempDir)
	})

	Describe("Load", func() {
		Context("with a valid program file", func() {
			var path string

			BeforeEach(func() {
				path = filepath.Join(tempDir, "input.asm")
				src := "MOVC,R0,#5\nMOVC,R1,#10\n\nADD,R2,R0,R1 ; sum\nHALT\n"
				Expect(os.WriteFile(path, []byte(src), 0644)).To(Succeed())
			})

			It("should load every instruction", func() {
				prog, err := loader.Load(path)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.Len()).To(Equal(4))
				Expect(prog.Base).To(Equal(insts.DefaultCodeBase))
			})

			It("should place instructions four bytes apart", func() {
				prog, err := loader.Load(path)
				Expect(err).NotTo(HaveOccurred())

				inst, ok := prog.At(4008)
				Expect(ok).To(BeTrue())
				Expect(inst.Op).To(Equal(insts.OpADD))
				Expect(inst.Rd).To(Equal(uint8(2)))
			})
		})

		It("should fail for a missing file", func() {
			_, err := loader.Load(filepath.Join(tempDir, "missing.asm"))
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, os.ErrNotExist)).To(BeTrue())
		})

		It("should report the failing line", func() {
			path := filepath.Join(tempDir, "bad.asm")
			src := "MOVC,R0,#5\n// comment\nFOO,R1\n"
			Expect(os.WriteFile(path, []byte(src), 0644)).To(Succeed())

			_, err := loader.Load(path)
			Expect(err).To(MatchError(loader.ErrSyntax))

			var syntaxErr *loader.SyntaxError
			Expect(errors.As(err, &syntaxErr)).To(BeTrue())
			Expect(syntaxErr.Line).To(Equal(3))
			Expect(syntaxErr.Err).To(MatchError(insts.ErrUnknownMnemonic))
		})
	})

	Describe("Parse", func() {
		It("should skip blank lines and comments", func() {
			prog, err := loader.Parse(strings.NewReader(
				"; header\n\n  // note\nNOP\nHALT // stop\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Len()).To(Equal(2))
			Expect(prog.Insts[1].Op).To(Equal(insts.OpHALT))
		})

		It("should accept an empty program", func() {
			prog, err := loader.Parse(strings.NewReader(""))
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Len()).To(BeZero())
		})

		DescribeTable("malformed lines",
			func(line string, want error) {
				_, err := loader.Parse(strings.NewReader(line))
				Expect(err).To(MatchError(loader.ErrSyntax))
				Expect(err).To(MatchError(want))
			},
			Entry("wrong operand count", "ADD,R1,R2", insts.ErrOperandCount),
			Entry("bad register", "MOVC,X1,#2", insts.ErrBadRegister),
			Entry("bad immediate", "ADDL,R1,R2,5", insts.ErrBadImmediate),
			Entry("register out of range", "MOVC,R16,#1", insts.ErrBadRegister),
			Entry("unknown mnemonic", "BRANCH,#4", insts.ErrUnknownMnemonic),
		)
	})

	Describe("ParseLine", func() {
		It("should decode store operands", func() {
			inst, err := loader.ParseLine("STORE,R0,R1,#8")
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(insts.OpSTORE))
			Expect(inst.Rs1).To(Equal(uint8(0)))
			Expect(inst.Rs2).To(Equal(uint8(1)))
			Expect(inst.Imm).To(Equal(int32(8)))
		})
	})
})
