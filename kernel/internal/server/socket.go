package server

import (
	"context"
	"net"
	"sync"

	"github.com/go-zeromq/zmq4"
	"github.com/pkg/errors"
)

var (
	ErrListen = errors.New("failed to listen")
)

const (
	ShellSocket SocketType = iota
	IOPubSocket
	StdinSocket
	ControlSocket
	HBSocket
)

// SocketType identifies one of the five sockets of a kernel.
// The declaration order is the order of the ports in a connect_reply.
type SocketType int

var socketTypes = []SocketType{ShellSocket, IOPubSocket, StdinSocket, ControlSocket, HBSocket}

func (t SocketType) String() string {
	return [...]string{"shell", "iopub", "stdin", "control", "hb"}[t]
}

// newZmqSocket creates the zmq socket serving the given type.
func (t SocketType) newZmqSocket(ctx context.Context) zmq4.Socket {
	switch t {
	case IOPubSocket:
		return zmq4.NewPub(ctx)
	case HBSocket:
		return zmq4.NewRep(ctx)
	default:
		return zmq4.NewRouter(ctx)
	}
}

// Socket wraps a listening zmq socket. Sends are serialized, since replies to the shell and control
// sockets and broadcasts may be produced by different goroutines.
type Socket struct {
	zmq4.Socket
	Type SocketType
	Port int

	sendMu sync.Mutex
}

// listen creates a socket of type t and binds it to the endpoint.
// A port of 0 is chosen by the OS and resolved from the bound address.
func listen(ctx context.Context, t SocketType, endpoint string, port int) (*Socket, error) {
	socket := &Socket{Socket: t.newZmqSocket(ctx), Type: t, Port: port}
	if t != IOPubSocket && t != HBSocket {
		// Unroutable replies are reported as send errors.
		_ = socket.SetOption("ROUTER_MANDATORY", 1)
	}

	if err := socket.Listen(endpoint); err != nil {
		_ = socket.Close()
		return nil, errors.Wrapf(ErrListen, "%s socket at %s: %v", t, endpoint, err)
	}

	if addr, ok := socket.Addr().(*net.TCPAddr); ok && addr != nil {
		socket.Port = addr.Port
	}

	return socket, nil
}

// SendFrames sends one multipart message.
func (s *Socket) SendFrames(frames [][]byte) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	return s.Send(zmq4.NewMsgFrom(frames...))
}
