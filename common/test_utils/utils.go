package test_utils

import (
	"sync"

	"github.com/google/uuid"
	. "github.com/onsi/gomega"

	"github.com/scusemua/notebook-kernel/common/jupyter/messaging"
)

const (
	SignatureScheme string = "hmac-sha256"
	SignatureKey    string = "149a41b5-0df54cf013c3035a3084a319"
)

// CreateJupyterMessage returns a request as the client would send it, from the given session.
func CreateJupyterMessage(messageType messaging.JupyterMessageType, session string) *messaging.Message {
	return CreateJupyterMessageWithContent(messageType, session, map[string]interface{}{})
}

func CreateJupyterMessageWithContent(messageType messaging.JupyterMessageType, session string, content map[string]interface{}) *messaging.Message {
	return &messaging.Message{
		Identities: [][]byte{[]byte(uuid.NewString())},
		Header: messaging.MessageHeader{
			MsgID:    uuid.NewString(),
			Username: "jovyan",
			Session:  session,
			Date:     "2024-04-03T22:55:52.605Z",
			MsgType:  messageType,
			Version:  messaging.ProtocolVersion,
		},
		Metadata: map[string]interface{}{},
		Content:  content,
	}
}

// CreateExecuteRequest returns an execute_request for code.
func CreateExecuteRequest(session string, code string) *messaging.Message {
	return CreateJupyterMessageWithContent(messaging.ShellExecuteRequest, session, map[string]interface{}{
		"code":             code,
		"silent":           false,
		"store_history":    true,
		"user_expressions": map[string]interface{}{},
		"allow_stdin":      false,
		"stop_on_error":    true,
	})
}

// CreateSignedFrames encodes msg as it would travel on the wire, signed with SignatureKey.
func CreateSignedFrames(msg *messaging.Message) [][]byte {
	frames, err := msg.Frames(SignatureScheme, []byte(SignatureKey))
	Expect(err).To(BeNil())
	return frames
}

// RecordingChannel records every message sent on it, in order.
type RecordingChannel struct {
	mu       sync.Mutex
	messages []*messaging.Message

	name     string
	timeline *Timeline

	// Err, if set, is returned by Send after recording the message.
	Err error
}

func NewRecordingChannel() *RecordingChannel {
	return &RecordingChannel{}
}

func (c *RecordingChannel) Send(msg *messaging.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages, msg)
	if c.timeline != nil {
		c.timeline.record(c.name + "/" + Describe(msg))
	}

	return c.Err
}

// Messages returns a copy of the recorded messages.
func (c *RecordingChannel) Messages() []*messaging.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]*messaging.Message(nil), c.messages...)
}

func (c *RecordingChannel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.messages)
}

// Types returns Describe of every recorded message.
func (c *RecordingChannel) Types() []string {
	messages := c.Messages()
	types := make([]string, 0, len(messages))
	for _, msg := range messages {
		types = append(types, Describe(msg))
	}

	return types
}

// Reset discards the recorded messages.
func (c *RecordingChannel) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = nil
}

// Describe returns the msg_type of msg. Status messages are described as "status:<state>",
// and stream messages as "stream:<name>".
func Describe(msg *messaging.Message) string {
	switch msg.JupyterMessageType() {
	case messaging.IOStatusMessage:
		return "status:" + msg.ContentString("execution_state")
	case messaging.IOStreamMessage:
		return "stream:" + msg.ContentString("name")
	default:
		return msg.JupyterMessageType().String()
	}
}

// Timeline interleaves the recordings of several channels, so that the relative order of replies
// and broadcasts can be asserted.
type Timeline struct {
	mu      sync.Mutex
	entries []string
}

func NewTimeline() *Timeline {
	return &Timeline{}
}

// Channel returns a channel whose messages are also recorded in the timeline as "<name>/<Describe>".
func (t *Timeline) Channel(name string) *RecordingChannel {
	return &RecordingChannel{name: name, timeline: t}
}

func (t *Timeline) Entries() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return append([]string(nil), t.entries...)
}

func (t *Timeline) record(entry string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = append(t.entries, entry)
}
