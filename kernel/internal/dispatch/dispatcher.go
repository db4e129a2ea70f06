package dispatch

import (
	"github.com/Scusemua/go-utils/config"
	"github.com/Scusemua/go-utils/logger"

	"github.com/scusemua/notebook-kernel/common/jupyter/messaging"
	"github.com/scusemua/notebook-kernel/common/utils"
	"github.com/scusemua/notebook-kernel/kernel/domain"
	"github.com/scusemua/notebook-kernel/kernel/internal/execution"
)

const (
	ErrNameUnsupported = "UnsupportedMessageType"
	ReasonNoEvaluator  = "no evaluator"
)

// MessageHandler handles one request. The returned error is fatal to the kernel.
type MessageHandler func(req *messaging.Message, reply domain.Channel) error

// StopFunc is called after a shutdown_request has been answered.
type StopFunc func(restart bool)

// Dispatcher routes requests to their handler by msg_type.
type Dispatcher struct {
	log logger.Logger

	pipeline  *execution.Pipeline
	evaluator domain.Evaluator
	commands  domain.CommandRunner
	broadcast domain.Channel
	ports     domain.PortProvider
	stop      StopFunc

	handlers map[messaging.JupyterMessageType]MessageHandler
}

// NewDispatcher creates a Dispatcher. evaluator, commands, ports and stop may be nil.
func NewDispatcher(pipeline *execution.Pipeline, evaluator domain.Evaluator, commands domain.CommandRunner,
	broadcast domain.Channel, ports domain.PortProvider, stop StopFunc) *Dispatcher {

	d := &Dispatcher{
		pipeline:  pipeline,
		evaluator: evaluator,
		commands:  commands,
		broadcast: broadcast,
		ports:     ports,
		stop:      stop,
	}
	config.InitLogger(&d.log, d)

	d.handlers = map[messaging.JupyterMessageType]MessageHandler{
		messaging.KernelInfoRequest: d.withStatus(d.handleKernelInfo),
		messaging.HistoryRequest:    d.withStatus(d.handleHistory),
		messaging.ShutdownRequest:   d.withStatus(d.handleShutdown),
		messaging.ConnectRequest:    d.withStatus(d.handleConnect),
		messaging.IsCompleteRequest: d.withStatus(d.handleIsComplete),
		messaging.ShellExecuteRequest: func(req *messaging.Message, reply domain.Channel) error {
			return d.pipeline.Execute(req, reply)
		},
	}

	return d
}

// Dispatch handles req, sending its reply on reply.
//
// Only a malformed request or a failure to capture the standard streams is returned as an error.
// Unknown message types are answered with an "unsupported" reply.
func (d *Dispatcher) Dispatch(req *messaging.Message, reply domain.Channel) error {
	if err := req.Validate(); err != nil {
		return err
	}

	msgType := req.JupyterMessageType()
	if current := d.pipeline.CurrentRequest(); current != nil {
		d.log.Debug("Received \"%s\" request \"%s\" while executing \"%s\".", msgType, req.JupyterMessageId(), current.MsgID)
	} else {
		d.log.Debug("Received \"%s\" request \"%s\".", msgType, req.JupyterMessageId())
	}

	handler, ok := d.handlers[msgType]
	if !ok {
		return d.withStatus(d.handleUnsupported)(req, reply)
	}

	return handler(req, reply)
}

// withStatus brackets a handler with "busy" and "idle" status broadcasts.
func (d *Dispatcher) withStatus(handler MessageHandler) MessageHandler {
	return func(req *messaging.Message, reply domain.Channel) error {
		d.publishStatus(req, messaging.MessageKernelStatusBusy)
		defer d.publishStatus(req, messaging.MessageKernelStatusIdle)

		return handler(req, reply)
	}
}

func (d *Dispatcher) handleKernelInfo(req *messaging.Message, reply domain.Channel) error {
	d.sendReply(reply, messaging.NewReply(messaging.KernelInfoReply, req, domain.KernelInfo()))
	return nil
}

func (d *Dispatcher) handleHistory(req *messaging.Message, reply domain.Channel) error {
	d.sendReply(reply, messaging.NewReply(messaging.HistoryReply, req, &messaging.MessageHistoryReply{
		Status:  messaging.MessageStatusOK,
		History: []interface{}{},
	}))
	return nil
}

func (d *Dispatcher) handleShutdown(req *messaging.Message, reply domain.Channel) error {
	content := req.ContentMap()
	d.sendReply(reply, messaging.NewReply(messaging.ShutdownReply, req, content))

	restart, _ := content["restart"].(bool)
	d.log.Info(utils.LightPurpleStyle.Render("Shutdown requested [restart=%v]."), restart)

	if d.stop != nil {
		d.stop(restart)
	}

	return nil
}

func (d *Dispatcher) handleConnect(req *messaging.Message, reply domain.Channel) error {
	ports := &messaging.MessageConnectReply{}
	if d.ports != nil {
		ports = d.ports.Ports()
	}

	d.sendReply(reply, messaging.NewReply(messaging.ConnectReply, req, ports))
	return nil
}

func (d *Dispatcher) handleIsComplete(req *messaging.Message, reply domain.Channel) error {
	code := req.ContentString("code")
	content := &messaging.MessageIsCompleteReply{}

	switch {
	case d.commands != nil && d.commands.IsCommand(code):
		content.Status = messaging.IsCompleteStatusComplete
	case d.evaluator == nil:
		content.Status = messaging.IsCompleteStatusUnknown
		content.Reason = ReasonNoEvaluator
	default:
		switch d.evaluator.Check(code) {
		case domain.CheckComplete:
			content.Status = messaging.IsCompleteStatusComplete
		case domain.CheckIncomplete:
			content.Status = messaging.IsCompleteStatusIncomplete
		case domain.CheckInvalid:
			content.Status = messaging.IsCompleteStatusInvalid
		default:
			content.Status = messaging.IsCompleteStatusUnknown
		}
	}

	d.log.Debug("Code is %s at execution count %d.", content.Status, d.pipeline.Counter().Current())
	d.sendReply(reply, messaging.NewReply(messaging.IsCompleteReply, req, content))
	return nil
}

func (d *Dispatcher) handleUnsupported(req *messaging.Message, reply domain.Channel) error {
	d.log.Warn(utils.OrangeStyle.Render("Unsupported message type \"%s\"."), req.JupyterMessageType())

	d.sendReply(reply, messaging.NewReply(messaging.UnsupportedReply, req, &messaging.MessageError{
		Status:   messaging.MessageStatusError,
		ErrName:  ErrNameUnsupported,
		ErrValue: req.JupyterMessageType().String(),
	}))
	return nil
}

func (d *Dispatcher) sendReply(reply domain.Channel, msg *messaging.Message) {
	if err := reply.Send(msg); err != nil {
		d.log.Error(utils.RedStyle.Render("Failed to send \"%s\": %v"), msg.JupyterMessageType(), err)
	}
}

func (d *Dispatcher) publishStatus(req *messaging.Message, status string) {
	if d.broadcast == nil {
		return
	}

	msg := messaging.NewMessage(messaging.IOStatusMessage, req, &messaging.MessageKernelStatus{Status: status})
	if err := d.broadcast.Send(msg); err != nil {
		d.log.Error(utils.RedStyle.Render("Failed to broadcast status \"%s\": %v"), status, err)
	}
}
