package execution_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/scusemua/notebook-kernel/common/jupyter/messaging"
	"github.com/scusemua/notebook-kernel/common/test_utils"
	"github.com/scusemua/notebook-kernel/kernel/internal/evaluator"
	"github.com/scusemua/notebook-kernel/kernel/internal/execution"
)

var _ = Describe("Pipeline with the interpreter", func() {
	var (
		iopub    *test_utils.RecordingChannel
		shell    *test_utils.RecordingChannel
		pipeline *execution.Pipeline
	)

	BeforeEach(func() {
		ev, err := evaluator.New()
		Expect(err).To(BeNil())

		iopub = test_utils.NewRecordingChannel()
		shell = test_utils.NewRecordingChannel()
		pipeline = execution.NewPipeline(&execution.Counter{}, ev, evaluator.NewCommands(ev), iopub, true)
	})

	streams := func() map[string]string {
		texts := map[string]string{}
		for _, msg := range iopub.Messages() {
			if msg.JupyterMessageType() == messaging.IOStreamMessage {
				texts[msg.ContentString("name")] = msg.ContentString("text")
			}
		}
		return texts
	}

	execute := func(code string) *messaging.Message {
		Expect(pipeline.Execute(test_utils.CreateExecuteRequest(session, code), shell)).To(Succeed())
		Expect(shell.Len()).To(Equal(1))
		return shell.Messages()[0]
	}

	It("will report the output and the panic value of failed code", func() {
		reply := execute(`print("hello"); panic("boom")`)

		Expect(reply.ContentString("status")).To(Equal(messaging.MessageStatusAbort))
		Expect(streams()).To(Equal(map[string]string{
			messaging.StreamStdout: "hello",
			messaging.StreamStderr: "boom",
		}))
		Expect(iopub.Types()).ToNot(ContainElement(messaging.IOExecuteResult.String()))
	})

	It("will report run-time errors without the interpreter's trace", func() {
		reply := execute(`x := 0; _ = 1 / x`)

		Expect(reply.ContentString("status")).To(Equal(messaging.MessageStatusAbort))
		Expect(streams()).To(HaveKeyWithValue(messaging.StreamStderr, ContainSubstring("integer divide by zero")))
		Expect(streams()[messaging.StreamStderr]).ToNot(ContainSubstring("panic"))
	})

	It("will print with fmt without an explicit import", func() {
		reply := execute(`fmt.Print("hello")`)

		Expect(reply.ContentString("status")).To(Equal(messaging.MessageStatusOK))
		Expect(streams()).To(Equal(map[string]string{messaging.StreamStdout: "hello"}))
	})
})
