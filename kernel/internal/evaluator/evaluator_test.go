package evaluator_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/scusemua/notebook-kernel/kernel/domain"
	"github.com/scusemua/notebook-kernel/kernel/internal/capture"
	"github.com/scusemua/notebook-kernel/kernel/internal/evaluator"
)

var _ = Describe("Evaluator", func() {
	var (
		eval *evaluator.Evaluator
		seq  int
	)

	BeforeEach(func() {
		var err error
		eval, err = evaluator.New()
		Expect(err).To(BeNil())
		seq = 0
	})

	next := func(code string) domain.Outcome {
		seq++
		return eval.Evaluate(seq, code)
	}

	valueOf := func(outcome domain.Outcome) string {
		Expect(outcome).To(BeAssignableToTypeOf(domain.Value{}))
		return fmt.Sprint(outcome.(domain.Value).Value)
	}

	It("will evaluate expressions to values", func() {
		Expect(valueOf(next("1 + 2"))).To(Equal("3"))
		Expect(valueOf(next(`"42"`))).To(Equal("42"))
	})

	It("will keep declarations between evaluations", func() {
		Expect(next("x := 40")).To(Equal(domain.Unit{}))
		Expect(next("func add(a, b int) int { return a + b }")).To(Equal(domain.Unit{}))
		Expect(valueOf(next("add(x, 2)"))).To(Equal("42"))
	})

	It("will treat blank code as a silent success", func() {
		Expect(next("   ")).To(Equal(domain.Unit{}))
	})

	It("will not show the results of print calls", func() {
		c, err := capture.Begin(capture.DefaultOptions())
		Expect(err).To(BeNil())
		outcome := next(`fmt.Print("hello")`)
		Expect(c.Restore()).To(Succeed())

		Expect(outcome).To(Equal(domain.Unit{}))
		Expect(c.Stdout()).ToNot(BeNil())
		Expect(*c.Stdout()).To(Equal("hello"))
	})

	It("will accept an explicit import of a preloaded package", func() {
		Expect(next(`import "fmt"`)).To(Equal(domain.Unit{}))
		Expect(valueOf(next(`fmt.Sprint(42)`))).To(Equal("42"))
	})

	It("will report panics as runtime failures with the panic value", func() {
		c, err := capture.Begin(capture.Options{CaptureStdout: true, CaptureStderr: true})
		Expect(err).To(BeNil())
		outcome := next(`panic("boom")`)
		Expect(c.Restore()).To(Succeed())

		Expect(outcome).To(Equal(domain.RuntimeFailure{Message: "boom"}))
		Expect(c.Stderr()).To(BeNil())
	})

	It("will report runtime errors as runtime failures", func() {
		Expect(next("values := []int{1, 2}")).To(Equal(domain.Unit{}))
		Expect(next("i := 5")).To(Equal(domain.Unit{}))

		outcome := next("values[i]")
		Expect(outcome).To(BeAssignableToTypeOf(domain.RuntimeFailure{}))
		Expect(outcome.(domain.RuntimeFailure).Message).To(ContainSubstring("index out of range"))
	})

	It("will report undefined names as compile failures", func() {
		outcome := next("undefinedName + 1")
		Expect(outcome).To(BeAssignableToTypeOf(domain.CompileFailure{}))
		Expect(outcome.(domain.CompileFailure).Message).To(ContainSubstring("undefined"))
	})

	It("will report syntax errors as compile failures", func() {
		Expect(next("x := )")).To(BeAssignableToTypeOf(domain.CompileFailure{}))
	})

	It("will not evaluate incomplete code", func() {
		Expect(next("for i := 0; i < 3; i++ {")).To(Equal(domain.Incomplete{}))
	})

	It("will reject sequence ids that do not increase", func() {
		Expect(eval.Evaluate(2, "1")).To(BeAssignableToTypeOf(domain.Value{}))
		Expect(eval.Evaluate(2, "1")).To(Equal(domain.HistoryMismatch{}))
		Expect(eval.Evaluate(1, "1")).To(Equal(domain.HistoryMismatch{}))
		Expect(eval.LastSequence()).To(Equal(2))
		Expect(eval.Evaluate(5, "1")).To(BeAssignableToTypeOf(domain.Value{}))
	})

	It("will forget declarations when reset", func() {
		Expect(next("x := 1")).To(Equal(domain.Unit{}))
		Expect(eval.Reset()).To(Succeed())
		Expect(next("x")).To(BeAssignableToTypeOf(domain.CompileFailure{}))
	})

	It("will check code without running it", func() {
		Expect(eval.Check("x := 1")).To(Equal(domain.CheckComplete))
		Expect(next("x")).To(BeAssignableToTypeOf(domain.CompileFailure{}))
	})
})
