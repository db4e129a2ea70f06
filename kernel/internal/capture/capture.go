package capture

import (
	"bytes"
	"io"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/Scusemua/go-utils/config"
	"github.com/Scusemua/go-utils/logger"
	"github.com/petermattis/goid"
	"github.com/pkg/errors"

	"github.com/scusemua/notebook-kernel/common/utils"
	"github.com/scusemua/notebook-kernel/kernel/domain"
)

var (
	// active guards the process-wide standard streams. At most one Capture may hold it.
	active sync.Mutex
)

type Options struct {
	// CaptureStdout buffers what is written to standard output, in addition to forwarding it.
	CaptureStdout bool
	// CaptureStderr buffers what is written to standard error, in addition to forwarding it.
	CaptureStderr bool
}

// DefaultOptions captures standard output only.
func DefaultOptions() Options {
	return Options{CaptureStdout: true}
}

// Capture redirects os.Stdout and os.Stderr into tees for the duration of one evaluation,
// and substitutes os.Stdin with the null device. Bytes are always forwarded to the original
// streams; they are additionally buffered if the stream is configured as capturing.
type Capture struct {
	log logger.Logger

	stdout *stream
	stderr *stream

	originalStdin *os.File
	nullStdin     *os.File

	owner      int64
	restoreMu  sync.Mutex
	restored   bool
	restoreErr error
}

// Begin swaps the standard streams. The returned Capture must be restored exactly once, although
// calling Restore again is harmless. Begin fails with domain.ErrCaptureActive if another Capture
// has not been restored yet.
func Begin(opts Options) (*Capture, error) {
	if !active.TryLock() {
		return nil, domain.ErrCaptureActive
	}

	c := &Capture{
		owner:         goid.Get(),
		originalStdin: os.Stdin,
	}
	config.InitLogger(&c.log, c)

	var err error
	if c.stdout, err = newStream(os.Stdout, opts.CaptureStdout); err != nil {
		active.Unlock()
		return nil, errors.Wrapf(domain.ErrCaptureSetup, "stdout: %v", err)
	}

	if c.stderr, err = newStream(os.Stderr, opts.CaptureStderr); err != nil {
		c.stdout.abort()
		active.Unlock()
		return nil, errors.Wrapf(domain.ErrCaptureSetup, "stderr: %v", err)
	}

	if c.nullStdin, err = os.Open(os.DevNull); err != nil {
		c.stdout.abort()
		c.stderr.abort()
		active.Unlock()
		return nil, errors.Wrapf(domain.ErrCaptureSetup, "stdin: %v", err)
	}

	os.Stdout = c.stdout.writer
	os.Stderr = c.stderr.writer
	os.Stdin = c.nullStdin

	c.log.Trace("Standard streams captured by goroutine %d.", c.owner)
	return c, nil
}

// Restore puts back the streams that were in place when Begin was called, then waits until every
// byte written so far has been forwarded and buffered. Only the first call has an effect; later calls
// return the result of the first one.
func (c *Capture) Restore() error {
	c.restoreMu.Lock()
	defer c.restoreMu.Unlock()

	if c.restored {
		return c.restoreErr
	}
	c.restored = true
	defer active.Unlock()

	if gid := goid.Get(); gid != c.owner {
		c.log.Warn("Standard streams captured by goroutine %d are being restored by goroutine %d.", c.owner, gid)
	}

	os.Stdout = c.stdout.original
	os.Stderr = c.stderr.original
	os.Stdin = c.originalStdin

	var failures []string
	if err := c.stdout.close(); err != nil {
		failures = append(failures, "stdout: "+err.Error())
	}

	if err := c.stderr.close(); err != nil {
		failures = append(failures, "stderr: "+err.Error())
	}

	if err := c.nullStdin.Close(); err != nil {
		failures = append(failures, "stdin: "+err.Error())
	}

	if len(failures) > 0 {
		c.restoreErr = errors.Wrap(domain.ErrStreamRestore, strings.Join(failures, "; "))
		c.log.Error(utils.RedStyle.Render("Failed to restore the standard streams: %v"), c.restoreErr)
	}

	return c.restoreErr
}

// Stdout returns the buffered standard output, or nil if nothing but blanks was written.
// It must be called after Restore.
func (c *Capture) Stdout() *string {
	return c.stdout.text()
}

// Stderr returns the buffered standard error, or nil if nothing but blanks was written or
// standard error is not captured. It must be called after Restore.
func (c *Capture) Stderr() *string {
	return c.stderr.text()
}

// stream tees everything written to its pipe into the original file and, optionally, a buffer.
type stream struct {
	original *os.File
	reader   *os.File
	writer   *os.File

	capture bool
	buffer  bytes.Buffer

	done   chan struct{}
	pumpMu sync.Mutex
	err    error
}

func newStream(original *os.File, capture bool) (*stream, error) {
	reader, writer, err := os.Pipe()
	if err != nil {
		return nil, err
	}

	s := &stream{
		original: original,
		reader:   reader,
		writer:   writer,
		capture:  capture,
		done:     make(chan struct{}),
	}
	go s.pump()

	return s, nil
}

func (s *stream) Write(p []byte) (int, error) {
	// Failing to forward must not lose the buffered copy.
	if s.original != nil {
		_, _ = s.original.Write(p)
	}

	if s.capture {
		s.buffer.Write(p)
	}

	return len(p), nil
}

func (s *stream) pump() {
	defer close(s.done)

	if _, err := io.Copy(s, s.reader); err != nil {
		s.pumpMu.Lock()
		s.err = err
		s.pumpMu.Unlock()
	}
}

// close closes the write end, which ends the pump once the pipe is drained.
func (s *stream) close() error {
	writeErr := s.writer.Close()
	<-s.done
	readErr := s.reader.Close()

	s.pumpMu.Lock()
	defer s.pumpMu.Unlock()

	if writeErr != nil {
		return writeErr
	}

	if s.err != nil {
		return s.err
	}

	return readErr
}

// abort releases a stream that was never installed.
func (s *stream) abort() {
	_ = s.close()
}

func (s *stream) text() *string {
	if !s.capture {
		return nil
	}

	return normalize(s.buffer.Bytes())
}

// normalize decodes b as UTF-8, replacing invalid sequences. Blank text is absent.
func normalize(b []byte) *string {
	text := string(b)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, string(utf8.RuneError))
	}

	if strings.TrimSpace(text) == "" {
		return nil
	}

	return &text
}
