package jupyter_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/scusemua/notebook-kernel/common/jupyter"
)

const connectionFile = `{
  "shell_port": 59001,
  "iopub_port": 59002,
  "stdin_port": 59003,
  "control_port": 59004,
  "hb_port": 59005,
  "ip": "127.0.0.1",
  "key": "a0436f6c-1916-498b-8eb9-e81ab9368e84",
  "transport": "tcp",
  "signature_scheme": "hmac-sha256",
  "kernel_name": "gophernotes"
}`

func writeConnectionFile(contents string) string {
	path := filepath.Join(GinkgoT().TempDir(), "kernel.json")
	Expect(os.WriteFile(path, []byte(contents), 0o600)).To(Succeed())
	return path
}

var _ = Describe("ConnectionInfo", func() {
	It("will load a connection file", func() {
		info, err := jupyter.LoadConnectionInfo(writeConnectionFile(connectionFile))
		Expect(err).To(BeNil())
		Expect(info.ShellPort).To(Equal(59001))
		Expect(info.IOPubPort).To(Equal(59002))
		Expect(info.StdinPort).To(Equal(59003))
		Expect(info.ControlPort).To(Equal(59004))
		Expect(info.HBPort).To(Equal(59005))
		Expect(info.Key).To(Equal("a0436f6c-1916-498b-8eb9-e81ab9368e84"))
		Expect(info.KernelName).To(Equal("gophernotes"))
		Expect(info.Endpoint(info.ShellPort)).To(Equal("tcp://127.0.0.1:59001"))
	})

	It("will fill in defaults", func() {
		info, err := jupyter.LoadConnectionInfo(writeConnectionFile(`{"shell_port": 1, "key": "k"}`))
		Expect(err).To(BeNil())
		Expect(info.Transport).To(Equal(jupyter.DefaultTransport))
		Expect(info.IP).To(Equal(jupyter.DefaultIP))
		Expect(info.SignatureScheme).To(Equal(jupyter.JupyterSignatureScheme))
	})

	It("will fail on a missing file", func() {
		_, err := jupyter.LoadConnectionInfo(filepath.Join(GinkgoT().TempDir(), "missing.json"))
		Expect(err).To(MatchError(ContainSubstring("failed to read connection file")))
	})

	It("will fail on a malformed file", func() {
		_, err := jupyter.LoadConnectionInfo(writeConnectionFile(`{`))
		Expect(err).To(MatchError(ContainSubstring("failed to decode connection file")))
	})

	It("will reject unsupported transports and schemes", func() {
		info := &jupyter.ConnectionInfo{Transport: "ipc"}
		Expect(info.Validate()).To(MatchError(jupyter.ErrUnsupportedTranspt))

		info = &jupyter.ConnectionInfo{Key: "k", SignatureScheme: "hmac-md5"}
		Expect(info.Validate()).To(MatchError(jupyter.ErrUnsupportedScheme))

		info = &jupyter.ConnectionInfo{ShellPort: 70000}
		Expect(info.Validate()).To(MatchError(jupyter.ErrInvalidConnection))
	})

	It("will name kernel statuses", func() {
		Expect(jupyter.KernelStatusRunning.String()).To(Equal("Running"))
		Expect(jupyter.KernelStatus(42).String()).To(Equal("Unknown(42)"))
	})
})
