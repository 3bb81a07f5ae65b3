package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

// sysExec is the default process-image replacement primitive.
func sysExec(argv0 string, argv []string, env []string) error {
	return syscall.Exec(argv0, argv, env)
}

// execHandoff replaces the supervisor's process image with the
// application. The display server child is inherited by the new image
// (exec preserves the pid and its children), so process-group semantics
// are unchanged. On success this never returns.
func (s *Supervisor) execHandoff(appCmd []string, env []string) (int, error) {
	path, err := exec.LookPath(appCmd[0])
	if err != nil {
		return ExitAppStartFailed, fmt.Errorf("application command not found: %w", err)
	}

	s.logger.Info("handing off via exec",
		zap.String("command", path),
		zap.Strings("args", appCmd[1:]),
	)
	s.setState(StateAppRunning)

	if err := s.execFn(path, appCmd, env); err != nil {
		// exec failed; we are still the supervisor.
		s.setState(StateDisplayReady)
		return ExitAppStartFailed, fmt.Errorf("exec failed: %w", err)
	}
	return 0, nil
}

// forwardHandoff spawns the application as a child, forwards termination
// signals to it, and returns its exit code once it terminates. This gives
// exec-equivalent semantics while keeping the supervisor (and its health
// server) alive.
func (s *Supervisor) forwardHandoff(ctx context.Context, appCmd []string, env []string) (int, error) {
	cmd := exec.Command(appCmd[0], appCmd[1:]...)
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return ExitAppStartFailed, fmt.Errorf("failed to start application: %w", err)
	}

	s.logger.Info("application started",
		zap.String("command", appCmd[0]),
		zap.Int("pid", cmd.Process.Pid),
	)
	s.setState(StateAppRunning)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	ctxDone := ctx.Done()
	for {
		select {
		case sig := <-sigCh:
			_ = cmd.Process.Signal(sig)
		case <-ctxDone:
			// Context cancellation stands in for a stop signal when the
			// caller is driving shutdown programmatically.
			_ = cmd.Process.Signal(syscall.SIGTERM)
			ctxDone = nil
		case err := <-done:
			return exitCodeFromWait(err)
		}
	}
}

// exitCodeFromWait maps a Wait error onto the application's exit code,
// passing it through verbatim. Signal deaths map to the 128+N shell
// convention so the orchestrator sees a conventional code.
func exitCodeFromWait(err error) (int, error) {
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code, nil
		}
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			return 128 + int(status.Signal()), nil
		}
	}
	return 1, fmt.Errorf("application wait failed: %w", err)
}
