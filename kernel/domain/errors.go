package domain

import (
	"errors"
)

var (
	// Capture errors. These are fatal to the kernel.

	ErrCaptureSetup  = errors.New("failed to redirect the standard streams")
	ErrStreamRestore = errors.New("failed to restore the standard streams")
	ErrCaptureActive = errors.New("standard streams are already captured")

	// Internal errors

	ErrNoEvaluator  = errors.New("no evaluator")
	ErrKernelClosed = errors.New("kernel closed")
)

// IsFatal returns true if err breaks the I/O contract of the kernel, in which case the kernel must stop.
func IsFatal(err error) bool {
	return errors.Is(err, ErrStreamRestore) || errors.Is(err, ErrCaptureSetup) || errors.Is(err, ErrCaptureActive)
}
