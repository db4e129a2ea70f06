package jupyter

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
)

const (
	DefaultTransport       = "tcp"
	DefaultIP              = "127.0.0.1"
	JupyterSignatureScheme = "hmac-sha256"
)

var (
	ErrInvalidConnection  = fmt.Errorf("invalid connection info")
	ErrUnsupportedScheme  = fmt.Errorf("unsupported signature scheme")
	ErrUnsupportedTranspt = fmt.Errorf("unsupported transport")
)

const (
	KernelStatusInitializing KernelStatus = iota
	KernelStatusRunning
	KernelStatusExited
	KernelStatusError
)

type KernelStatus int32

func (s KernelStatus) String() string {
	if s < KernelStatusInitializing || s > KernelStatusError {
		return fmt.Sprintf("Unknown(%d)", s)
	}

	return [...]string{"Initializing", "Running", "Exited", "Error"}[s]
}

// ConnectionInfo stores the contents of the kernel connection file written by the Jupyter client.
// The definition is compatible with github.com/Scusemua/go-utils/config.Options.
type ConnectionInfo struct {
	IP              string `json:"ip" name:"ip" description:"The IP address of the kernel."`
	ControlPort     int    `json:"control_port" name:"control-port" description:"The port for control messages."`
	ShellPort       int    `json:"shell_port" name:"shell-port" description:"The port for shell messages."`
	StdinPort       int    `json:"stdin_port" name:"stdin-port" description:"The port for stdin messages."`
	HBPort          int    `json:"hb_port" name:"hb-port" description:"The port for heartbeat messages."`
	IOPubPort       int    `json:"iopub_port" name:"iopub-port" description:"The port for iopub messages."`
	Transport       string `json:"transport" name:"transport"`
	SignatureScheme string `json:"signature_scheme" name:"signature-scheme"`
	Key             string `json:"key" name:"key"`
	KernelName      string `json:"kernel_name,omitempty"`
}

// LoadConnectionInfo reads and decodes the connection file at the given path.
// Missing optional fields are filled with their defaults.
func LoadConnectionInfo(path string) (*ConnectionInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read connection file \"%s\"", path)
	}

	var info ConnectionInfo
	if err = json.Unmarshal(data, &info); err != nil {
		return nil, errors.Wrapf(err, "failed to decode connection file \"%s\"", path)
	}

	if err = info.Validate(); err != nil {
		return nil, err
	}

	return &info, nil
}

// Validate fills defaults and checks that the connection info can be served.
func (info *ConnectionInfo) Validate() error {
	if info.Transport == "" {
		info.Transport = DefaultTransport
	}

	if info.IP == "" {
		info.IP = DefaultIP
	}

	if info.Transport != DefaultTransport {
		return errors.Wrapf(ErrUnsupportedTranspt, "\"%s\"", info.Transport)
	}

	if info.Key != "" && info.SignatureScheme == "" {
		info.SignatureScheme = JupyterSignatureScheme
	}

	if info.Key != "" && info.SignatureScheme != JupyterSignatureScheme {
		return errors.Wrapf(ErrUnsupportedScheme, "\"%s\"", info.SignatureScheme)
	}

	for _, port := range []int{info.ShellPort, info.IOPubPort, info.StdinPort, info.ControlPort, info.HBPort} {
		if port < 0 || port > 65535 {
			return errors.Wrapf(ErrInvalidConnection, "port %d out of range", port)
		}
	}

	return nil
}

// Endpoint returns the zmq endpoint for the given port.
func (info *ConnectionInfo) Endpoint(port int) string {
	return fmt.Sprintf("%s://%s:%d", info.Transport, info.IP, port)
}

func (info *ConnectionInfo) String() string {
	m, err := json.Marshal(info)
	if err != nil {
		panic(err)
	}

	return string(m)
}

// PrettyString is the same as String, except that PrettyString calls json.MarshalIndent instead of json.Marshal.
func (info *ConnectionInfo) PrettyString(indentSize int) string {
	indentBuilder := strings.Builder{}
	for i := 0; i < indentSize; i++ {
		indentBuilder.WriteString(" ")
	}

	m, err := json.MarshalIndent(info, "", indentBuilder.String())
	if err != nil {
		panic(err)
	}

	return string(m)
}
