package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Scusemua/go-utils/config"
	"github.com/google/uuid"

	"github.com/scusemua/notebook-kernel/common/jupyter"
)

const (
	ServiceName = "notebook-kernel"
)

// KernelOptions is the configuration of a kernel process.
// Ports given on the command line are overridden by the connection file, if one is specified.
type KernelOptions struct {
	config.LoggerOptions   `yaml:",inline" json:"logger_options"`
	jupyter.ConnectionInfo `yaml:",inline" json:"connection_info"`

	ConnectionFile string `name:"connection-file" description:"Path to the Jupyter connection file." yaml:"connection-file" json:"connection_file"`
	KernelId       string `name:"kernel-id" description:"Identifier of the kernel. A random identifier is generated if empty." yaml:"kernel-id" json:"kernel_id"`
	CaptureStderr  bool   `name:"capture-stderr" description:"Forward the standard error written by executed code to the client." yaml:"capture-stderr" json:"capture_stderr"`
	JaegerAddr     string `name:"jaeger" description:"Jaeger agent address." yaml:"jaeger" json:"jaeger_addr"`
	ConsulAddr     string `name:"consul" description:"Consul agent address." yaml:"consul" json:"consul_addr"`
}

// NewKernelOptions returns the options with their defaults set. Flags are registered with these values as defaults.
func NewKernelOptions() *KernelOptions {
	return &KernelOptions{
		ConnectionInfo: jupyter.ConnectionInfo{
			IP:              jupyter.DefaultIP,
			Transport:       jupyter.DefaultTransport,
			SignatureScheme: jupyter.JupyterSignatureScheme,
		},
		CaptureStderr: true,
	}
}

func (o *KernelOptions) Validate() error {
	if o.ConnectionFile != "" {
		info, err := jupyter.LoadConnectionInfo(o.ConnectionFile)
		if err != nil {
			return err
		}

		o.ConnectionInfo = *info
	}

	if err := o.ConnectionInfo.Validate(); err != nil {
		return err
	}

	if o.KernelId == "" {
		o.KernelId = uuid.NewString()
		fmt.Printf("[WARNING] \"kernel-id\" configuration is not set. Using generated value: \"%s\".\n", o.KernelId)
	}

	return nil
}

// PrettyString is the same as String, except that PrettyString calls json.MarshalIndent instead of json.Marshal.
func (o *KernelOptions) PrettyString(indentSize int) string {
	indentBuilder := strings.Builder{}
	for i := 0; i < indentSize; i++ {
		indentBuilder.WriteString(" ")
	}

	m, err := json.MarshalIndent(o, "", indentBuilder.String())
	if err != nil {
		panic(err)
	}

	return string(m)
}

func (o *KernelOptions) String() string {
	m, err := json.Marshal(o)
	if err != nil {
		panic(err)
	}

	return string(m)
}
