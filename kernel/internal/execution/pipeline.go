package execution

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Scusemua/go-utils/config"
	"github.com/Scusemua/go-utils/logger"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"

	"github.com/scusemua/notebook-kernel/common/jupyter/messaging"
	"github.com/scusemua/notebook-kernel/common/utils"
	"github.com/scusemua/notebook-kernel/kernel/domain"
	"github.com/scusemua/notebook-kernel/kernel/internal/capture"
	"github.com/scusemua/notebook-kernel/kernel/internal/classifier"
)

const (
	MetadataStarted = "started"
)

// Pipeline runs execute requests one at a time.
//
// For every request, the broadcast channel observes, in order: status "busy", execute_input,
// the stdout stream (if any), the stderr stream (if any), execute_result (only for StateOk) and
// status "idle". The reply is sent after execute_result and before status "idle".
type Pipeline struct {
	log logger.Logger

	counter   *Counter
	evaluator domain.Evaluator
	commands  domain.CommandRunner
	broadcast domain.Channel
	capture   capture.Options
	tracer    opentracing.Tracer

	// mu serializes the requests, as the standard streams can only be captured by one of them.
	mu sync.Mutex

	// current is the header of the request being executed, if any.
	current atomic.Pointer[messaging.MessageHeader]
}

// NewPipeline creates a Pipeline. commands and evaluator may be nil.
func NewPipeline(counter *Counter, evaluator domain.Evaluator, commands domain.CommandRunner, broadcast domain.Channel, captureStderr bool, configs ...func(*Pipeline)) *Pipeline {
	p := &Pipeline{
		counter:   counter,
		evaluator: evaluator,
		commands:  commands,
		broadcast: broadcast,
		capture:   capture.Options{CaptureStdout: true, CaptureStderr: captureStderr},
		tracer:    opentracing.NoopTracer{},
	}
	config.InitLogger(&p.log, p)

	for _, configure := range configs {
		configure(p)
	}

	return p
}

// WithTracer makes the Pipeline report one span per request to tracer.
func WithTracer(tracer opentracing.Tracer) func(*Pipeline) {
	return func(p *Pipeline) {
		if tracer != nil {
			p.tracer = tracer
		}
	}
}

// CurrentRequest returns the header of the request being executed, or nil if the Pipeline is idle.
func (p *Pipeline) CurrentRequest() *messaging.MessageHeader {
	return p.current.Load()
}

// Counter returns the execution counter of the Pipeline.
func (p *Pipeline) Counter() *Counter {
	return p.counter
}

// Execute runs the code of an execute_request and emits the reply on reply.
//
// Failures of the executed code are reported to the client and never returned. The returned error
// is non-nil only if the standard streams could not be captured or restored, in which case the
// client has still received an abort reply and the kernel must stop.
func (p *Pipeline) Execute(req *messaging.Message, reply domain.Channel) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	count := p.counter.Next()
	started := time.Now()
	p.current.Store(req.Header.Clone())
	defer p.current.Store(nil)

	code := req.ContentString("code")

	span := p.tracer.StartSpan(messaging.ShellExecuteRequest.String())
	span.SetTag("execution_count", count)
	span.SetTag("session", req.JupyterSession())
	span.SetTag("msg_id", req.JupyterMessageId())
	defer span.Finish()

	p.log.Debug("Executing request \"%s\" [execution_count=%d]: %s", req.JupyterMessageId(), count, utils.Truncate(code, 128))

	p.publish(req, messaging.IOStatusMessage, &messaging.MessageKernelStatus{Status: messaging.MessageKernelStatusBusy})
	p.publish(req, messaging.IOExecuteInput, &messaging.MessageExecuteInput{Code: code, ExecutionCount: count})

	resp, fatal := p.run(count, code)
	if fatal != nil {
		p.log.Error(utils.RedStyle.Render("Execution %d broke the standard streams: %v"), count, fatal)
		ext.Error.Set(span, true)
	}

	if resp.StdOut != nil {
		p.publish(req, messaging.IOStreamMessage, &messaging.MessageStream{Name: messaging.StreamStdout, Text: *resp.StdOut})
	}

	if resp.StdErr != nil {
		p.publish(req, messaging.IOStreamMessage, &messaging.MessageStream{Name: messaging.StreamStderr, Text: *resp.StdErr})
	}

	var content interface{}
	switch resp.State {
	case domain.StateOk:
		p.publish(req, messaging.IOExecuteResult, &messaging.MessageExecuteResult{
			ExecutionCount: count,
			Data:           resp.Payload,
			Metadata:       map[string]interface{}{},
		})
		content = messaging.NewExecuteReplyOk(count)
	case domain.StateOkSilent:
		content = messaging.NewExecuteReplyOk(count)
	default:
		content = &messaging.MessageExecuteAbort{Status: messaging.MessageStatusAbort, ExecutionCount: count}
	}

	replyMsg := messaging.NewReply(messaging.ShellExecuteReply, req, content)
	replyMsg.Metadata[MetadataStarted] = started.UTC().Format(time.RFC3339Nano)
	if err := reply.Send(replyMsg); err != nil {
		p.log.Error(utils.RedStyle.Render("Failed to send \"%s\" for execution %d: %v"), messaging.ShellExecuteReply, count, err)
	}

	p.publish(req, messaging.IOStatusMessage, &messaging.MessageKernelStatus{Status: messaging.MessageKernelStatusIdle})

	span.SetTag("state", resp.State.String())
	if resp.State == domain.StateError {
		ext.Error.Set(span, true)
	}

	p.log.Debug(utils.GrayStyle.Render("Execution %d finished with state %s in %v."), count, resp.State, time.Since(started))
	return fatal
}

// run executes a command, or evaluates code with the standard streams captured.
func (p *Pipeline) run(count int, code string) (*domain.NormalizedResponse, error) {
	if p.commands != nil && p.commands.IsCommand(code) {
		resp := p.commands.Run(code)
		if resp == nil {
			return classifier.Unexpected(nil, nil, nil), nil
		}

		return resp, nil
	}

	c, err := capture.Begin(p.capture)
	if err != nil {
		return classifier.Unexpected(nil, nil, err), err
	}
	// Covers a panic that escapes evaluate.
	defer func() {
		_ = c.Restore()
	}()

	outcome, escaped := p.evaluate(count, code)

	if err = c.Restore(); err != nil {
		return classifier.Unexpected(c.Stdout(), c.Stderr(), err), err
	}

	if escaped != nil {
		p.log.Warn(utils.OrangeStyle.Render("Evaluation %d panicked: %v"), count, escaped)
		return classifier.Unexpected(c.Stdout(), c.Stderr(), escaped), nil
	}

	return classifier.Classify(outcome, c.Stdout(), c.Stderr()), nil
}

// evaluate calls the evaluator, converting a panic into escaped.
func (p *Pipeline) evaluate(count int, code string) (outcome domain.Outcome, escaped interface{}) {
	defer func() {
		if r := recover(); r != nil {
			outcome, escaped = nil, r
		}
	}()

	if p.evaluator == nil {
		return domain.RuntimeFailure{Message: domain.ErrNoEvaluator.Error()}, nil
	}

	return p.evaluator.Evaluate(count, code), nil
}

// publish broadcasts a message in response to req. Failures are logged only.
func (p *Pipeline) publish(req *messaging.Message, msgType messaging.JupyterMessageType, content interface{}) {
	if p.broadcast == nil {
		return
	}

	if err := p.broadcast.Send(messaging.NewMessage(msgType, req, content)); err != nil {
		p.log.Error(utils.RedStyle.Render("Failed to broadcast \"%s\": %v"), msgType, err)
	}
}
