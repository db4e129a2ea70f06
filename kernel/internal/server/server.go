package server

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Scusemua/go-utils/config"
	"github.com/Scusemua/go-utils/logger"
	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-zeromq/zmq4"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/petermattis/goid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/scusemua/notebook-kernel/common/jupyter"
	"github.com/scusemua/notebook-kernel/common/jupyter/messaging"
	"github.com/scusemua/notebook-kernel/common/utils"
	"github.com/scusemua/notebook-kernel/kernel/domain"
)

var (
	ErrAlreadyStarted = errors.New("server already started")
)

// Handler handles one inbound request, sending its replies on reply.
// A returned error that satisfies domain.IsFatal stops the server.
type Handler interface {
	Dispatch(req *messaging.Message, reply domain.Channel) error
}

// Server exposes a kernel on the five sockets described by a connection file.
type Server struct {
	id   string
	info *jupyter.ConnectionInfo
	key  []byte

	sockets cmap.ConcurrentMap[string, *Socket]
	handler Handler

	status        atomic.Int32
	serving       atomic.Bool
	accepting     atomic.Bool
	stopRequested atomic.Bool
	restart       atomic.Bool

	// Held for reading by every request being dispatched.
	handling sync.RWMutex

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	done     chan struct{}
	stopOnce sync.Once

	fatalMu sync.Mutex
	fatal   error

	log  logger.Logger
	zlog *zap.Logger
}

// WithZapLogger sets the logger used for socket-level events. The default discards them.
func WithZapLogger(zlog *zap.Logger) func(*Server) {
	return func(s *Server) {
		s.zlog = zlog
	}
}

// New creates a Server for the kernel with the given id. Nothing is bound until Start is called.
func New(id string, info *jupyter.ConnectionInfo, configs ...func(*Server)) *Server {
	s := &Server{
		id:      id,
		info:    info,
		key:     []byte(info.Key),
		sockets: cmap.New[*Socket](),
		done:    make(chan struct{}),
		zlog:    zap.NewNop(),
	}
	config.InitLogger(&s.log, s)

	for _, configure := range configs {
		configure(s)
	}

	s.status.Store(int32(jupyter.KernelStatusInitializing))
	return s
}

// Status returns the lifecycle state of the server.
func (s *Server) Status() jupyter.KernelStatus {
	return jupyter.KernelStatus(s.status.Load())
}

// Start binds every socket, broadcasts the "starting" status and serves requests with handler
// until Stop is called.
func (s *Server) Start(handler Handler) error {
	if s.Status() != jupyter.KernelStatusInitializing {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(context.Background())
	for _, t := range socketTypes {
		socket, err := listen(ctx, t, s.info.Endpoint(s.configuredPort(t)), s.configuredPort(t))
		if err != nil {
			cancel()
			s.closeSockets()
			s.status.Store(int32(jupyter.KernelStatusError))
			return err
		}

		s.zlog.Debug("Listening.", zap.String("socket", t.String()), zap.Int("port", socket.Port))
		s.sockets.Set(t.String(), socket)
	}

	s.handler = handler
	s.cancel = cancel
	s.serving.Store(true)
	s.accepting.Store(true)
	s.status.Store(int32(jupyter.KernelStatusRunning))

	ports := s.PortTable()
	for el := ports.Front(); el != nil; el = el.Next() {
		s.log.Info(utils.GreenStyle.Render("Kernel %s listening on %s port %d."), s.id, el.Key, el.Value)
	}

	starting := messaging.NewMessage(messaging.IOStatusMessage, nil, &messaging.MessageKernelStatus{Status: messaging.MessageKernelStatusStarting})
	starting.Header.Session = s.id
	if err := s.Broadcast().Send(starting); err != nil {
		s.log.Warn(utils.OrangeStyle.Render("Failed to broadcast \"starting\" status: %v"), err)
	}

	s.serveAll(ShellSocket, ControlSocket, StdinSocket)

	hb, _ := s.sockets.Get(HBSocket.String())
	s.wg.Add(1)
	go s.heartbeat(hb)

	return nil
}

func (s *Server) serveAll(types ...SocketType) {
	for _, t := range types {
		socket, _ := s.sockets.Get(t.String())
		s.wg.Add(1)
		go s.serve(socket)
	}
}

// Stop closes every socket. It is safe to call more than once and from a serving goroutine.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.log.Info(utils.LightBlueStyle.Render("Stopping kernel %s [restart=%v]."), s.id, s.restart.Load())

		s.accepting.Store(false)
		s.serving.Store(false)
		if s.cancel != nil {
			s.cancel()
		}
		s.closeSockets()

		if s.Fatal() != nil {
			s.status.Store(int32(jupyter.KernelStatusError))
		} else {
			s.status.Store(int32(jupyter.KernelStatusExited))
		}

		close(s.done)
	})
}

// RequestStop stops the server once every request being handled has been fully answered.
// Requests received in the meantime are dropped.
// It matches the signature expected by the dispatcher for shutdown requests.
func (s *Server) RequestStop(restart bool) {
	s.restart.Store(restart)
	s.stopRequested.Store(true)
}

// Restart reports whether the client asked for a restart when shutting the kernel down.
func (s *Server) Restart() bool {
	return s.restart.Load()
}

// Wait blocks until the server has stopped and every serving goroutine has returned, or ctx is done.
// It returns the error that stopped the server, if any.
func (s *Server) Wait(ctx context.Context) error {
	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	finished := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-ctx.Done():
		return ctx.Err()
	}

	return s.Fatal()
}

// Fatal returns the error that stopped the server, if any.
func (s *Server) Fatal() error {
	s.fatalMu.Lock()
	defer s.fatalMu.Unlock()

	return s.fatal
}

// PortTable returns the bound ports in connect_reply order.
// Before Start, the configured ports are reported.
func (s *Server) PortTable() *orderedmap.OrderedMap[string, int] {
	ports := orderedmap.NewOrderedMap[string, int]()
	for _, t := range socketTypes {
		port := s.configuredPort(t)
		if socket, ok := s.sockets.Get(t.String()); ok {
			port = socket.Port
		}
		ports.Set(t.String(), port)
	}

	return ports
}

// Ports implements domain.PortProvider.
func (s *Server) Ports() *messaging.MessageConnectReply {
	ports := s.PortTable()
	reply := &messaging.MessageConnectReply{}
	reply.ShellPort, _ = ports.Get(ShellSocket.String())
	reply.IOPubPort, _ = ports.Get(IOPubSocket.String())
	reply.StdinPort, _ = ports.Get(StdinSocket.String())
	reply.ControlPort, _ = ports.Get(ControlSocket.String())
	reply.HBPort, _ = ports.Get(HBSocket.String())
	return reply
}

// Broadcast returns the channel publishing on the iopub socket.
// Each message is prefixed with the topic "kernel.<id>.<msg_type>".
func (s *Server) Broadcast() domain.Channel {
	return domain.ChannelFunc(func(msg *messaging.Message) error {
		socket, ok := s.sockets.Get(IOPubSocket.String())
		if !ok || !s.serving.Load() {
			return domain.ErrKernelClosed
		}

		out := *msg
		out.Identities = [][]byte{[]byte(s.topic(msg.JupyterMessageType()))}
		return s.send(socket, &out)
	})
}

func (s *Server) topic(msgType messaging.JupyterMessageType) string {
	return "kernel." + s.id + "." + msgType.String()
}

// replyChannel returns the channel answering requests received on socket.
// Replies are routed by the identities they carry.
func (s *Server) replyChannel(socket *Socket) domain.Channel {
	return domain.ChannelFunc(func(msg *messaging.Message) error {
		if !s.serving.Load() {
			return domain.ErrKernelClosed
		}

		return s.send(socket, msg)
	})
}

func (s *Server) send(socket *Socket, msg *messaging.Message) error {
	frames, err := msg.Frames(s.info.SignatureScheme, s.key)
	if err != nil {
		return err
	}

	if err = socket.SendFrames(frames); err != nil {
		s.zlog.Warn("Send failed.",
			zap.String("socket", socket.Type.String()),
			zap.String("msg_type", msg.JupyterMessageType().String()),
			zap.Error(err))
		return err
	}

	return nil
}

func (s *Server) serve(socket *Socket) {
	defer s.wg.Done()

	s.log.Debug("Serving %v socket [goroutine=%d].", socket.Type, goid.Get())
	for s.serving.Load() {
		msg, err := socket.Recv()
		if err != nil {
			if !s.serving.Load() {
				break
			}

			s.log.Error(utils.RedStyle.Render("Error on receive on %v socket: %v"), socket.Type, err)
			continue
		}

		s.handle(socket, &msg)
	}

	s.log.Debug("Stopped serving %v socket [goroutine=%d].", socket.Type, goid.Get())
}

func (s *Server) handle(socket *Socket, raw *zmq4.Msg) {
	req, err := messaging.ParseMessage(raw.Frames, s.info.SignatureScheme, s.key)
	if errors.Is(err, messaging.ErrInvalidJupyterSignature) {
		s.zlog.Warn("Dropping message with invalid signature.", zap.String("socket", socket.Type.String()))
		return
	} else if err != nil {
		s.log.Error(utils.RedStyle.Render("Dropping malformed message on %v socket: %v"), socket.Type, err)
		return
	}

	if socket.Type == StdinSocket {
		// The kernel never asks for input.
		s.log.Warn(utils.YellowStyle.Render("Ignoring unexpected \"%s\" on stdin socket."), req.JupyterMessageType())
		return
	}

	s.zlog.Debug("Received request.",
		zap.String("socket", socket.Type.String()),
		zap.String("msg_type", req.JupyterMessageType().String()),
		zap.String("msg_id", req.JupyterMessageId()),
		zap.Int64("goroutine", goid.Get()))

	s.handling.RLock()
	if !s.accepting.Load() {
		s.handling.RUnlock()
		s.log.Warn(utils.OrangeStyle.Render("Dropping \"%s\" received while shutting down."), req.JupyterMessageType())
		return
	}

	err = s.handler.Dispatch(req, s.replyChannel(socket))
	s.handling.RUnlock()

	switch {
	case domain.IsFatal(err):
		s.log.Error(utils.RedStyle.Render("Fatal error while handling \"%s\": %v"), req.JupyterMessageType(), err)
		s.fail(err)
	case err != nil:
		s.log.Error(utils.RedStyle.Render("Dropping \"%s\": %v"), req.JupyterMessageType(), err)
	}

	if s.stopRequested.Load() {
		go s.stopWhenIdle()
	}
}

// stopWhenIdle stops accepting requests, waits for the requests being dispatched to finish and
// then stops the server.
func (s *Server) stopWhenIdle() {
	s.accepting.Store(false)

	s.handling.Lock()
	s.handling.Unlock()

	s.Stop()
}

// heartbeat echoes every message it receives.
func (s *Server) heartbeat(socket *Socket) {
	defer s.wg.Done()

	for s.serving.Load() {
		msg, err := socket.Recv()
		if err != nil {
			if !s.serving.Load() {
				break
			}

			s.zlog.Warn("Heartbeat receive failed.", zap.Error(err))
			continue
		}

		if err = socket.SendFrames(msg.Frames); err != nil {
			s.zlog.Warn("Heartbeat echo failed.", zap.Error(err))
		}
	}
}

func (s *Server) fail(err error) {
	s.fatalMu.Lock()
	if s.fatal == nil {
		s.fatal = err
	}
	s.fatalMu.Unlock()

	s.Stop()
}

func (s *Server) closeSockets() {
	for _, t := range socketTypes {
		if socket, ok := s.sockets.Pop(t.String()); ok {
			if err := socket.Close(); err != nil {
				s.zlog.Debug("Close failed.", zap.String("socket", t.String()), zap.Error(err))
			}
		}
	}
}

func (s *Server) configuredPort(t SocketType) int {
	switch t {
	case ShellSocket:
		return s.info.ShellPort
	case IOPubSocket:
		return s.info.IOPubPort
	case StdinSocket:
		return s.info.StdinPort
	case ControlSocket:
		return s.info.ControlPort
	default:
		return s.info.HBPort
	}
}
