package supervisor

// Exit codes produced by the supervisor itself. Both occur strictly
// before APP_RUNNING, which is what makes them distinguishable from
// anything the application could produce.
const (
	// ExitDisplayFailed is returned when the display server never
	// becomes verifiably alive. Value is sysexits EX_UNAVAILABLE.
	ExitDisplayFailed = 69

	// ExitUsage is returned for invalid invocations and configuration.
	// Value is sysexits EX_USAGE.
	ExitUsage = 64

	// ExitAppStartFailed is returned when the application command itself
	// cannot be spawned (e.g. binary not found), following the shell
	// convention for exec failures.
	ExitAppStartFailed = 127
)

// State is the supervisor's position in its linear lifecycle.
type State int32

const (
	// StateInit is the state before Run is called.
	StateInit State = iota
	// StateDisplayStarting means the display server has been spawned
	// and the readiness wait is in progress.
	StateDisplayStarting
	// StateDisplayReady means the display passed its readiness probe.
	StateDisplayReady
	// StateDisplayFailed is terminal: the display never became ready.
	StateDisplayFailed
	// StateAppRunning means control has transferred to the application;
	// the supervisor has no further responsibility.
	StateAppRunning
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateDisplayStarting:
		return "display_starting"
	case StateDisplayReady:
		return "display_ready"
	case StateDisplayFailed:
		return "display_failed"
	case StateAppRunning:
		return "app_running"
	default:
		return "unknown"
	}
}
