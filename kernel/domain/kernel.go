package domain

import (
	"github.com/scusemua/notebook-kernel/common/jupyter/messaging"
)

//go:generate mockgen -source=kernel.go -destination=../mock_domain/kernel.go

// Evaluator is the code-execution engine embedded in the kernel.
type Evaluator interface {
	// Check reports whether code is ready to be evaluated. It has no side effects.
	Check(code string) CheckResult

	// Evaluate runs code. seq must be greater than the seq of the previous call.
	// Failures of the evaluated code are reported through the Outcome, never by panicking.
	Evaluate(seq int, code string) Outcome
}

// CommandRunner executes administrative commands, which are not code.
type CommandRunner interface {
	IsCommand(code string) bool
	Run(code string) *NormalizedResponse
}

// Channel is a logical outbound channel of the kernel: either the reply channel of a request or the broadcast channel.
type Channel interface {
	Send(msg *messaging.Message) error
}

// ChannelFunc adapts a function to a Channel.
type ChannelFunc func(msg *messaging.Message) error

func (f ChannelFunc) Send(msg *messaging.Message) error {
	return f(msg)
}

// PortProvider reports the ports the kernel is listening on, in connect_reply order.
type PortProvider interface {
	Ports() *messaging.MessageConnectReply
}
