// Package supervisor sequences display provisioning before application
// launch and makes the application's exit code the container's exit code.
//
// The state machine is strictly linear and never re-entered:
//
//	INIT → DISPLAY_STARTING → DISPLAY_READY → APP_RUNNING → app exit code
//	                        ↘ DISPLAY_FAILED → ExitDisplayFailed
//
// Any failure before APP_RUNNING is fatal to the supervisor itself; there
// is no partial-success mode and no in-process restart path. Recovery is
// the container orchestrator's job, and re-running after a failure is
// equivalent to a fresh run because no state persists.
//
// Two hand-off modes exist. Exec replaces the supervisor's own process
// image so signals and exit codes pass through without wrapping; the
// display server child is inherited across the exec. Forward runs the
// application as a child, relays SIGINT/SIGTERM, and exits with the
// child's code, which is required when the health server must outlive
// the hand-off.
package supervisor
