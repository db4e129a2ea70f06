package messaging

import "encoding/json"

// MessageKernelStatus is the content of an iopub "status" message.
type MessageKernelStatus struct {
	Status string `json:"execution_state"`
}

// MessageExecuteInput is the content of an iopub "execute_input" message.
type MessageExecuteInput struct {
	Code           string `json:"code"`
	ExecutionCount int    `json:"execution_count"`
}

// MessageStream is the content of an iopub "stream" message.
type MessageStream struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// MessageExecuteResult is the content of an iopub "execute_result" message.
type MessageExecuteResult struct {
	ExecutionCount int                    `json:"execution_count"`
	Data           map[string]interface{} `json:"data"`
	Metadata       map[string]interface{} `json:"metadata"`
}

// MessageExecuteReply is the content of a successful "execute_reply".
// The user variables, user expressions and payload fields are always empty
// and only present because clients expect them.
type MessageExecuteReply struct {
	Status          string                 `json:"status"`
	ExecutionCount  int                    `json:"execution_count"`
	UserVariables   map[string]interface{} `json:"user_variables"`
	UserExpressions map[string]interface{} `json:"user_expressions"`
	Payload         []interface{}          `json:"payload"`
}

func NewExecuteReplyOk(executionCount int) *MessageExecuteReply {
	return &MessageExecuteReply{
		Status:          MessageStatusOK,
		ExecutionCount:  executionCount,
		UserVariables:   map[string]interface{}{},
		UserExpressions: map[string]interface{}{},
		Payload:         []interface{}{},
	}
}

// MessageExecuteAbort is the content of an "execute_reply" for a failed execution.
type MessageExecuteAbort struct {
	Status         string `json:"status"`
	ExecutionCount int    `json:"execution_count"`
}

// LanguageInfo describes the language embedded in the kernel.
type LanguageInfo struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	Mimetype       string `json:"mimetype"`
	FileExtension  string `json:"file_extension"`
	PygmentsLexer  string `json:"pygments_lexer,omitempty"`
	CodemirrorMode string `json:"codemirror_mode,omitempty"`
}

type HelpLink struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// MessageKernelInfoReply is the content of a "kernel_info_reply".
type MessageKernelInfoReply struct {
	Status                string       `json:"status"`
	ProtocolVersion       string       `json:"protocol_version"`
	Implementation        string       `json:"implementation"`
	ImplementationVersion string       `json:"implementation_version"`
	Language              string       `json:"language"`
	LanguageVersion       string       `json:"language_version"`
	LanguageInfo          LanguageInfo `json:"language_info"`
	Banner                string       `json:"banner"`
	HelpLinks             []HelpLink   `json:"help_links"`
}

// MessageHistoryReply is the content of a "history_reply". History is never recorded, so it is always empty.
type MessageHistoryReply struct {
	Status  string        `json:"status"`
	History []interface{} `json:"history"`
}

// MessageConnectReply is the content of a "connect_reply".
type MessageConnectReply struct {
	ShellPort   int `json:"shell_port"`
	IOPubPort   int `json:"iopub_port"`
	StdinPort   int `json:"stdin_port"`
	ControlPort int `json:"control_port"`
	HBPort      int `json:"hb_port"`
}

const (
	IsCompleteStatusComplete   = "complete"
	IsCompleteStatusIncomplete = "incomplete"
	IsCompleteStatusInvalid    = "invalid"
	IsCompleteStatusUnknown    = "unknown"
)

// MessageIsCompleteReply is the content of an "is_complete_reply".
type MessageIsCompleteReply struct {
	Status string `json:"status"`
	Indent string `json:"indent,omitempty"`
	Reason string `json:"reason,omitempty"`
}

type MessageShutdownRequest struct {
	Restart bool `json:"restart"`
}

type MessageError struct {
	Status   string `json:"status"`
	ErrName  string `json:"ename"`
	ErrValue string `json:"evalue"`
}

func (m *MessageError) String() string {
	out, err := json.Marshal(m)
	if err != nil {
		panic(err)
	}

	return string(out)
}
