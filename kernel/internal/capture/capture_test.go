package capture_test

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/scusemua/notebook-kernel/kernel/domain"
	"github.com/scusemua/notebook-kernel/kernel/internal/capture"
)

// terminal stands in for the real standard streams so that the forwarded bytes can be inspected.
type terminal struct {
	stdout *os.File
	stderr *os.File
}

func (t *terminal) read(f *os.File) string {
	_, err := f.Seek(0, io.SeekStart)
	Expect(err).To(BeNil())

	b, err := io.ReadAll(f)
	Expect(err).To(BeNil())
	return string(b)
}

var _ = Describe("Capture", func() {
	var (
		term       *terminal
		realStdout *os.File
		realStderr *os.File
		realStdin  *os.File
	)

	BeforeEach(func() {
		realStdout, realStderr, realStdin = os.Stdout, os.Stderr, os.Stdin

		dir := GinkgoT().TempDir()
		stdout, err := os.Create(filepath.Join(dir, "stdout"))
		Expect(err).To(BeNil())
		stderr, err := os.Create(filepath.Join(dir, "stderr"))
		Expect(err).To(BeNil())

		term = &terminal{stdout: stdout, stderr: stderr}
		os.Stdout, os.Stderr = stdout, stderr
	})

	AfterEach(func() {
		os.Stdout, os.Stderr, os.Stdin = realStdout, realStderr, realStdin
		_ = term.stdout.Close()
		_ = term.stderr.Close()
	})

	It("will tee standard output into the buffer and the original stream", func() {
		c, err := capture.Begin(capture.DefaultOptions())
		Expect(err).To(BeNil())

		payload := "hello\nwörld \xff\n"
		_, _ = fmt.Fprint(os.Stdout, payload)

		Expect(c.Restore()).To(Succeed())

		Expect(c.Stdout()).ToNot(BeNil())
		Expect(*c.Stdout()).To(Equal("hello\nwörld �\n"))
		Expect(term.read(term.stdout)).To(Equal(payload))
	})

	It("will forward standard error without buffering it by default", func() {
		c, err := capture.Begin(capture.DefaultOptions())
		Expect(err).To(BeNil())

		_, _ = fmt.Fprint(os.Stderr, "warning")

		Expect(c.Restore()).To(Succeed())

		Expect(c.Stderr()).To(BeNil())
		Expect(term.read(term.stderr)).To(Equal("warning"))
	})

	It("will buffer standard error when configured to", func() {
		c, err := capture.Begin(capture.Options{CaptureStdout: true, CaptureStderr: true})
		Expect(err).To(BeNil())

		_, _ = fmt.Fprint(os.Stdout, "out")
		_, _ = fmt.Fprint(os.Stderr, "err")

		Expect(c.Restore()).To(Succeed())

		Expect(*c.Stdout()).To(Equal("out"))
		Expect(*c.Stderr()).To(Equal("err"))
		Expect(term.read(term.stdout)).To(Equal("out"))
		Expect(term.read(term.stderr)).To(Equal("err"))
	})

	It("will report blank output as absent", func() {
		c, err := capture.Begin(capture.Options{CaptureStdout: true, CaptureStderr: true})
		Expect(err).To(BeNil())

		_, _ = fmt.Fprint(os.Stdout, " \n\t\n")

		Expect(c.Restore()).To(Succeed())

		Expect(c.Stdout()).To(BeNil())
		Expect(c.Stderr()).To(BeNil())
	})

	It("will capture large writes without blocking", func() {
		c, err := capture.Begin(capture.DefaultOptions())
		Expect(err).To(BeNil())

		line := fmt.Sprintf("%01023d\n", 7)
		for i := 0; i < 1024; i++ {
			_, _ = fmt.Fprint(os.Stdout, line)
		}

		Expect(c.Restore()).To(Succeed())
		Expect(*c.Stdout()).To(HaveLen(1024 * 1024))
	})

	It("will substitute standard input with the null device", func() {
		c, err := capture.Begin(capture.DefaultOptions())
		Expect(err).To(BeNil())

		Expect(os.Stdin).ToNot(BeIdenticalTo(realStdin))
		b, err := io.ReadAll(os.Stdin)
		Expect(err).To(BeNil())
		Expect(b).To(BeEmpty())

		Expect(c.Restore()).To(Succeed())
		Expect(os.Stdin).To(BeIdenticalTo(realStdin))
	})

	It("will restore every stream exactly once", func() {
		c, err := capture.Begin(capture.DefaultOptions())
		Expect(err).To(BeNil())
		Expect(os.Stdout).ToNot(BeIdenticalTo(term.stdout))
		Expect(os.Stderr).ToNot(BeIdenticalTo(term.stderr))

		Expect(c.Restore()).To(Succeed())
		Expect(os.Stdout).To(BeIdenticalTo(term.stdout))
		Expect(os.Stderr).To(BeIdenticalTo(term.stderr))
		Expect(os.Stdin).To(BeIdenticalTo(realStdin))

		// A later redirection must not be undone by a second restore of the first capture.
		other, err := capture.Begin(capture.DefaultOptions())
		Expect(err).To(BeNil())
		redirected := os.Stdout

		Expect(c.Restore()).To(Succeed())
		Expect(os.Stdout).To(BeIdenticalTo(redirected))

		Expect(other.Restore()).To(Succeed())
		Expect(other.Restore()).To(Succeed())
		Expect(os.Stdout).To(BeIdenticalTo(term.stdout))
	})

	It("will restore the streams when the captured call panics", func() {
		run := func() (c *capture.Capture) {
			defer func() {
				_ = recover()
			}()

			var err error
			c, err = capture.Begin(capture.DefaultOptions())
			Expect(err).To(BeNil())
			defer func() {
				_ = c.Restore()
			}()

			_, _ = fmt.Fprint(os.Stdout, "partial")
			panic("boom")
		}

		c := run()
		Expect(os.Stdout).To(BeIdenticalTo(term.stdout))
		Expect(*c.Stdout()).To(Equal("partial"))
	})

	It("will refuse to capture twice at the same time", func() {
		c, err := capture.Begin(capture.DefaultOptions())
		Expect(err).To(BeNil())

		_, err = capture.Begin(capture.DefaultOptions())
		Expect(err).To(MatchError(domain.ErrCaptureActive))
		Expect(domain.IsFatal(err)).To(BeTrue())

		Expect(c.Restore()).To(Succeed())

		c, err = capture.Begin(capture.DefaultOptions())
		Expect(err).To(BeNil())
		Expect(c.Restore()).To(Succeed())
	})
})
