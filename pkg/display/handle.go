package display

import (
	"os/exec"
	"sync"
	"syscall"
)

// Handle owns a running display server process. It is created by
// Provisioner.Start and remains valid for the lifetime of the container;
// Stop is only used on the supervisor's failure path, since normal
// teardown is the container process tree exiting.
type Handle struct {
	cmd        *exec.Cmd
	identifier string
	socketPath string

	mu       sync.Mutex
	exited   bool
	exitCode int
}

// Identifier returns the display identifier, e.g. ":99". This is the
// value the application receives via DISPLAY.
func (h *Handle) Identifier() string {
	return h.identifier
}

// Pid returns the display server's process id, or 0 if unknown.
func (h *Handle) Pid() int {
	if h.cmd == nil || h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

// reap waits for the child and records its exit state so that Alive and
// ExitState are cheap local checks. Runs in its own goroutine for the
// lifetime of the process.
func (h *Handle) reap() {
	err := h.cmd.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.exited = true
	h.exitCode = 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			h.exitCode = exitErr.ExitCode()
		} else {
			h.exitCode = -1
		}
	}
}

// ExitState reports whether the display server process has terminated,
// and with which code.
func (h *Handle) ExitState() (code int, exited bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exitCode, h.exited
}

// Alive reports whether the display server process is currently running.
// This is a process-existence probe, not a protocol handshake.
func (h *Handle) Alive() bool {
	if _, exited := h.ExitState(); exited {
		return false
	}
	if h.cmd == nil || h.cmd.Process == nil {
		return false
	}
	// Signal 0 probes for existence without delivering anything.
	return h.cmd.Process.Signal(syscall.Signal(0)) == nil
}

// Stop kills the display server. Only called when startup fails and the
// supervisor is about to exit, so the child does not outlive it.
func (h *Handle) Stop() {
	if _, exited := h.ExitState(); exited {
		return
	}
	if h.cmd != nil && h.cmd.Process != nil {
		_ = h.cmd.Process.Kill()
	}
}
