package domain

import (
	"encoding/json"
	"fmt"
)

const (
	// StateOk means a result message and a success reply are emitted.
	StateOk ResponseState = iota
	// StateOkSilent means only the success reply is emitted.
	StateOkSilent
	// StateError means an abort reply is emitted.
	StateError
)

type ResponseState int

func (s ResponseState) String() string {
	switch s {
	case StateOk:
		return "Ok"
	case StateOkSilent:
		return "OkSilent"
	case StateError:
		return "Error"
	default:
		return fmt.Sprintf("ResponseState(%d)", int(s))
	}
}

// NormalizedResponse is what an execute request produced, independent of whether it ran code or a command.
// StdOut and StdErr are nil when there is nothing to show; they are never empty strings.
type NormalizedResponse struct {
	State   ResponseState          `json:"state"`
	Payload map[string]interface{} `json:"payload"`
	StdOut  *string                `json:"stdout,omitempty"`
	StdErr  *string                `json:"stderr,omitempty"`
}

func (r *NormalizedResponse) String() string {
	m, err := json.Marshal(r)
	if err != nil {
		panic(err)
	}

	return string(m)
}
