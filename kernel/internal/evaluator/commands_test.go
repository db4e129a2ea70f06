package evaluator_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/scusemua/notebook-kernel/kernel/domain"
	"github.com/scusemua/notebook-kernel/kernel/internal/evaluator"
)

var _ = Describe("Commands", func() {
	var (
		eval     *evaluator.Evaluator
		commands *evaluator.Commands
	)

	BeforeEach(func() {
		var err error
		eval, err = evaluator.New()
		Expect(err).To(BeNil())
		commands = evaluator.NewCommands(eval)
	})

	It("will recognize commands by their prefix", func() {
		Expect(commands.IsCommand(":help")).To(BeTrue())
		Expect(commands.IsCommand("  :reset\n")).To(BeTrue())
		Expect(commands.IsCommand("x := 1")).To(BeFalse())
		Expect(commands.IsCommand("")).To(BeFalse())
	})

	It("will list the commands", func() {
		resp := commands.Run(":help")
		Expect(resp.State).To(Equal(domain.StateOk))
		Expect(resp.Payload["text/plain"]).To(SatisfyAll(
			ContainSubstring(":help"),
			ContainSubstring(":reset"),
			ContainSubstring(":version"),
		))
		Expect(resp.StdErr).To(BeNil())
	})

	It("will show the versions", func() {
		resp := commands.Run(":version")
		Expect(resp.State).To(Equal(domain.StateOk))
		Expect(resp.Payload["text/plain"]).To(ContainSubstring(domain.ImplementationName))
		Expect(resp.Payload["text/plain"]).To(ContainSubstring("yaegi"))
	})

	It("will reset the interpreter silently", func() {
		Expect(eval.Evaluate(1, "x := 1")).To(Equal(domain.Unit{}))

		resp := commands.Run(":reset")
		Expect(resp.State).To(Equal(domain.StateOkSilent))

		Expect(eval.Evaluate(2, "x")).To(BeAssignableToTypeOf(domain.CompileFailure{}))
	})

	It("will fail to reset without an evaluator", func() {
		resp := evaluator.NewCommands(nil).Run(":reset")
		Expect(resp.State).To(Equal(domain.StateError))
		Expect(*resp.StdErr).To(Equal(domain.ErrNoEvaluator.Error()))
	})

	It("will reject unknown commands", func() {
		resp := commands.Run(":nope now")
		Expect(resp.State).To(Equal(domain.StateError))
		Expect(resp.Payload["text/plain"]).To(Equal("Error!"))
		Expect(*resp.StdErr).To(Equal("Unknown command: nope"))
	})
})
