package messaging_test

import (
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/scusemua/notebook-kernel/common/jupyter/messaging"
)

func newRequest(msgType messaging.JupyterMessageType, content map[string]interface{}) *messaging.Message {
	return &messaging.Message{
		Identities: [][]byte{[]byte("client-identity")},
		Header: messaging.MessageHeader{
			MsgID:    "119856f2-efd6-4131-8d9f-f1081fc3c920",
			Username: "jovyan",
			Session:  "f8b1709e-51e5-46e7-9047-99a3636bef14",
			Date:     "2024-04-03T22:55:52.605Z",
			MsgType:  msgType,
			Version:  "5.3",
		},
		Metadata: map[string]interface{}{},
		Content:  content,
	}
}

var _ = Describe("Message", func() {
	It("will extract the base message type", func() {
		base, ok := messaging.ShellExecuteRequest.GetBaseMessageType()
		Expect(ok).To(BeTrue())
		Expect(base).To(Equal("execute_"))

		base, ok = messaging.KernelInfoReply.GetBaseMessageType()
		Expect(ok).To(BeTrue())
		Expect(base).To(Equal("kernel_info_"))

		_, ok = messaging.IOStatusMessage.GetBaseMessageType()
		Expect(ok).To(BeFalse())
	})

	Context("NewMessage", func() {
		It("will link the new message to its parent", func() {
			parent := newRequest(messaging.ShellExecuteRequest, map[string]interface{}{"code": "1"})

			msg := messaging.NewMessage(messaging.IOStatusMessage, parent, &messaging.MessageKernelStatus{Status: messaging.MessageKernelStatusBusy})
			Expect(msg.JupyterMessageType()).To(Equal(messaging.IOStatusMessage))
			Expect(msg.JupyterSession()).To(Equal(parent.JupyterSession()))
			Expect(msg.Header.Username).To(Equal("jovyan"))
			Expect(msg.Header.Version).To(Equal(messaging.ProtocolVersion))
			Expect(msg.JupyterMessageId()).ToNot(BeEmpty())
			Expect(msg.JupyterMessageId()).ToNot(Equal(parent.JupyterMessageId()))
			Expect(msg.ParentHeader).ToNot(BeNil())
			Expect(*msg.ParentHeader).To(Equal(parent.Header))
			Expect(msg.Identities).To(BeEmpty())
		})

		It("will not share the parent header", func() {
			parent := newRequest(messaging.ShellExecuteRequest, nil)
			msg := messaging.NewMessage(messaging.IOStatusMessage, parent, nil)

			parent.Header.MsgID = "changed"
			Expect(msg.ParentHeader.MsgID).To(Equal("119856f2-efd6-4131-8d9f-f1081fc3c920"))
		})

		It("will create unsolicited messages without a parent", func() {
			msg := messaging.NewMessage(messaging.IOStatusMessage, nil, &messaging.MessageKernelStatus{Status: messaging.MessageKernelStatusStarting})
			Expect(msg.ParentHeader).To(BeNil())
			Expect(msg.Header.Username).To(Equal(messaging.MessageHeaderDefaultUsername))
		})
	})

	It("will address replies to the identities of the request", func() {
		parent := newRequest(messaging.KernelInfoRequest, nil)
		reply := messaging.NewReply(messaging.KernelInfoReply, parent, map[string]interface{}{})

		Expect(reply.Identities).To(Equal(parent.Identities))

		parent.Identities[0][0] = 'X'
		Expect(reply.Identities[0]).To(Equal([]byte("client-identity")))
	})

	It("will echo the session of the request in the reply metadata", func() {
		parent := newRequest(messaging.KernelInfoRequest, nil)
		reply := messaging.NewReply(messaging.KernelInfoReply, parent, map[string]interface{}{})
		Expect(reply.Metadata).To(HaveKeyWithValue(messaging.MetadataSession, parent.JupyterSession()))

		broadcast := messaging.NewMessage(messaging.IOStatusMessage, parent, nil)
		Expect(broadcast.Metadata).ToNot(HaveKey(messaging.MetadataSession))
	})

	It("will expose typed content as a map", func() {
		msg := messaging.NewMessage(messaging.IOStreamMessage, nil, &messaging.MessageStream{Name: messaging.StreamStdout, Text: "hello\n"})
		Expect(msg.ContentMap()).To(HaveKeyWithValue("name", "stdout"))
		Expect(msg.ContentString("text")).To(Equal("hello\n"))
		Expect(msg.ContentString("missing")).To(BeEmpty())
	})

	It("will reject messages without a type", func() {
		msg := &messaging.Message{}
		err := msg.Validate()
		Expect(err).To(MatchError(ContainSubstring("msg_type")))
		Expect(errors.Is(err, messaging.ErrMalformedMessage)).To(BeTrue())
	})

	It("will encode the execute reply with empty placeholders", func() {
		encoded, err := json.Marshal(messaging.NewExecuteReplyOk(3))
		Expect(err).To(BeNil())
		Expect(encoded).To(MatchJSON(`{"status":"ok","execution_count":3,"user_variables":{},"user_expressions":{},"payload":[]}`))
	})
})
