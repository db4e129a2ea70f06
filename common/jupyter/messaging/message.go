package messaging

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	MessageHeaderDefaultUsername = "kernel"

	// ProtocolVersion is the version of the Jupyter messaging protocol spoken by the kernel.
	ProtocolVersion = "5.3"

	IOStatusMessage             JupyterMessageType = "status"
	IOStreamMessage             JupyterMessageType = "stream"
	IOExecuteInput              JupyterMessageType = "execute_input"
	IOExecuteResult             JupyterMessageType = "execute_result"
	ShellExecuteRequest         JupyterMessageType = "execute_request"
	ShellExecuteReply           JupyterMessageType = "execute_reply"
	KernelInfoRequest           JupyterMessageType = "kernel_info_request"
	KernelInfoReply             JupyterMessageType = "kernel_info_reply"
	HistoryRequest              JupyterMessageType = "history_request"
	HistoryReply                JupyterMessageType = "history_reply"
	ShutdownRequest             JupyterMessageType = "shutdown_request"
	ShutdownReply               JupyterMessageType = "shutdown_reply"
	ConnectRequest              JupyterMessageType = "connect_request"
	ConnectReply                JupyterMessageType = "connect_reply"
	IsCompleteRequest           JupyterMessageType = "is_complete_request"
	IsCompleteReply             JupyterMessageType = "is_complete_reply"
	UnsupportedReply            JupyterMessageType = "unsupported"
	MessageKernelStatusIdle                        = "idle"
	MessageKernelStatusBusy                        = "busy"
	MessageKernelStatusStarting                    = "starting"
)

const (
	MessageStatusOK    = "ok"
	MessageStatusError = "error"
	MessageStatusAbort = "abort"

	StreamStdout = "stdout"
	StreamStderr = "stderr"

	MimeTextPlain = "text/plain"

	// MetadataSession is the reply metadata key echoing the session of the request.
	MetadataSession = "session"
)

var (
	ErrMalformedMessage = fmt.Errorf("malformed jupyter message")
)

type JupyterMessageType string

func (t JupyterMessageType) String() string {
	return string(t)
}

// GetBaseMessageType returns the base portion of the Jupyter message type.
//
// If the message type is "execute_request", then this returns "execute_" and true.
//
// If the message type is not of the form "{action}_request" or "{action}_reply", then this
// returns the empty string and false.
func (t JupyterMessageType) GetBaseMessageType() (string, bool) {
	if strings.HasSuffix(t.String(), "request") {
		return t.String()[0 : len(t.String())-7], true
	} else if strings.HasSuffix(t.String(), "reply") {
		return t.String()[0 : len(t.String())-5], true
	}

	return "", false
}

// MessageHeader is a Jupyter message header.
// http://jupyter-client.readthedocs.io/en/latest/messaging.html#general-message-format
type MessageHeader struct {
	MsgID    string             `json:"msg_id"`
	Username string             `json:"username"`
	Session  string             `json:"session"`
	Date     string             `json:"date"`
	MsgType  JupyterMessageType `json:"msg_type"`
	Version  string             `json:"version"`
}

func (header *MessageHeader) Clone() *MessageHeader {
	return &MessageHeader{
		MsgID:    header.MsgID,
		Username: header.Username,
		Session:  header.Session,
		Date:     header.Date,
		MsgType:  header.MsgType,
		Version:  header.Version,
	}
}

func (header *MessageHeader) String() string {
	m, err := json.Marshal(header)
	if err != nil {
		panic(err)
	}

	return string(m)
}

// Message represents an entire message in a high-level structure.
//
// Messages decoded from the wire carry their content as a map[string]interface{}.
// Messages built by the kernel carry one of the typed content structs of this package.
type Message struct {
	// Identities are the routing frames preceding the "<IDS|MSG>" delimiter.
	Identities [][]byte `json:"-"`

	Header       MessageHeader          `json:"header"`
	ParentHeader *MessageHeader         `json:"parent_header"`
	Metadata     map[string]interface{} `json:"metadata"`
	Content      interface{}            `json:"content"`

	Buffers [][]byte `json:"-"`
}

// NewMessage creates a message of the given type in response to parent.
// The parent's header becomes the parent header of the new message, and the session is carried over.
// parent may be nil for unsolicited messages such as the "starting" status broadcast.
func NewMessage(msgType JupyterMessageType, parent *Message, content interface{}) *Message {
	header := MessageHeader{
		MsgID:    uuid.NewString(),
		Username: MessageHeaderDefaultUsername,
		Date:     time.Now().UTC().Format(time.RFC3339Nano),
		MsgType:  msgType,
		Version:  ProtocolVersion,
	}

	msg := &Message{
		Header:   header,
		Metadata: make(map[string]interface{}),
		Content:  content,
	}

	if parent != nil {
		msg.Header.Session = parent.Header.Session
		if parent.Header.Username != "" {
			msg.Header.Username = parent.Header.Username
		}
		msg.ParentHeader = parent.Header.Clone()
	}

	return msg
}

// NewReply creates a reply to parent addressed to the same identities that parent arrived from.
// The session of parent is echoed in the metadata of the reply.
func NewReply(msgType JupyterMessageType, parent *Message, content interface{}) *Message {
	msg := NewMessage(msgType, parent, content)
	msg.Identities = cloneFrames(parent.Identities)
	if parent.Header.Session != "" {
		msg.Metadata[MetadataSession] = parent.Header.Session
	}
	return msg
}

// Validate checks that the fields required for routing are present.
func (msg *Message) Validate() error {
	if msg.Header.MsgType == "" {
		return errors.Wrap(ErrMalformedMessage, "header has no msg_type")
	}

	return nil
}

// JupyterMessageType is a convenience method for retrieving the message type from the header.
func (msg *Message) JupyterMessageType() JupyterMessageType {
	return msg.Header.MsgType
}

// JupyterSession is a convenience method for retrieving the session from the header.
func (msg *Message) JupyterSession() string {
	return msg.Header.Session
}

// JupyterMessageId is a convenience method for retrieving the message ID from the header.
func (msg *Message) JupyterMessageId() string {
	return msg.Header.MsgID
}

// ContentMap returns the content as a map when it was decoded from the wire (or built as one).
// Typed content is converted through its JSON encoding.
func (msg *Message) ContentMap() map[string]interface{} {
	switch c := msg.Content.(type) {
	case nil:
		return map[string]interface{}{}
	case map[string]interface{}:
		return c
	default:
		encoded, err := json.Marshal(c)
		if err != nil {
			return map[string]interface{}{}
		}

		var m map[string]interface{}
		if err = json.Unmarshal(encoded, &m); err != nil {
			return map[string]interface{}{}
		}

		return m
	}
}

// ContentString returns the string-valued content field with the given key, or "" if absent.
func (msg *Message) ContentString(key string) string {
	if v, ok := msg.ContentMap()[key].(string); ok {
		return v
	}

	return ""
}

func (msg *Message) String() string {
	m, err := json.Marshal(msg)
	if err != nil {
		panic(err)
	}

	return string(m)
}

func cloneFrames(frames [][]byte) [][]byte {
	if frames == nil {
		return nil
	}

	cloned := make([][]byte, len(frames))
	for i, frame := range frames {
		cloned[i] = make([]byte, len(frame))
		copy(cloned[i], frame)
	}

	return cloned
}
