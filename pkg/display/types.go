package display

import "errors"

// ErrStartupFailed is the fatal condition reported when the display server
// does not become verifiably alive within the readiness window. It is
// never retried within the same container lifecycle.
var ErrStartupFailed = errors.New("display startup failed")

// ProbeResult is the typed outcome of a readiness wait.
type ProbeResult int

const (
	// ProbeReady means the display server is alive and serving.
	ProbeReady ProbeResult = iota
	// ProbeTimedOut means the server never became ready within the
	// probe timeout, though its process had not been observed to exit.
	ProbeTimedOut
	// ProbeProcessExited means the server process terminated before
	// becoming ready.
	ProbeProcessExited
)

// String implements fmt.Stringer.
func (r ProbeResult) String() string {
	switch r {
	case ProbeReady:
		return "ready"
	case ProbeTimedOut:
		return "timed out"
	case ProbeProcessExited:
		return "process exited"
	default:
		return "unknown"
	}
}
