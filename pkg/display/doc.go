// Package display provisions the X virtual framebuffer that the agent's
// browser renders into.
//
// A container runs exactly one display for its whole lifetime. The
// provisioner spawns the server as a direct child in the supervisor's
// process group, so a container-level signal reaches both and nothing is
// left orphaned on restart. Liveness is a process-existence probe, not an
// X11 handshake: the handle reaps its child and answers from the recorded
// exit state, optionally cross-checked against the display's unix socket.
//
// Readiness is a settle delay followed by a bounded backoff loop with an
// explicit timeout, returning a typed ProbeResult so callers can tell a
// slow start (ProbeTimedOut) from a crashed server (ProbeProcessExited).
//
// There is no re-provisioning path: if the display fails, the supervisor
// aborts and the container orchestrator restarts the whole container.
package display
