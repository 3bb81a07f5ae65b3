package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/sixxer/launchpad/pkg/config"
	"github.com/sixxer/launchpad/pkg/display"
	"github.com/sixxer/launchpad/pkg/logging"
)

// ReadyCheck is an optional verification step run after the display
// becomes ready and before the confirmation diagnostic is printed. A
// failing check is treated exactly like a display startup failure. The
// browser preflight is wired in through this hook.
type ReadyCheck func(ctx context.Context, displayID string) error

// Supervisor owns the one display and the one application process of a
// container instance.
type Supervisor struct {
	cfg    *config.Config
	prov   *display.Provisioner
	logger *zap.Logger

	stdout     io.Writer
	readyCheck ReadyCheck
	execFn     func(argv0 string, argv []string, env []string) error

	state   atomic.Int32
	started time.Time

	mu     sync.Mutex
	handle *display.Handle
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithStdout redirects the two diagnostic lines (display ready / display
// failed), which default to os.Stdout.
func WithStdout(w io.Writer) Option {
	return func(s *Supervisor) { s.stdout = w }
}

// WithReadyCheck adds a verification step between display readiness and
// hand-off.
func WithReadyCheck(check ReadyCheck) Option {
	return func(s *Supervisor) { s.readyCheck = check }
}

// WithExecFunc replaces the process-image replacement primitive, which
// defaults to syscall.Exec.
func WithExecFunc(fn func(argv0 string, argv []string, env []string) error) Option {
	return func(s *Supervisor) { s.execFn = fn }
}

// New creates a supervisor for the given configuration.
func New(cfg *config.Config, opts ...Option) *Supervisor {
	s := &Supervisor{
		cfg:    cfg,
		logger: logging.ComponentLogger("supervisor"),
		stdout: os.Stdout,
		execFn: sysExec,
	}
	s.prov = display.NewProvisioner(cfg.Display, logging.ComponentLogger("display"))

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the supervisor's current lifecycle state.
func (s *Supervisor) State() State {
	return State(s.state.Load())
}

func (s *Supervisor) setState(st State) {
	s.state.Store(int32(st))
	s.logger.Debug("state transition", zap.Stringer("state", st))
}

// StartedAt returns when Run was invoked, for uptime reporting.
func (s *Supervisor) StartedAt() time.Time {
	return s.started
}

// DisplayID returns the provisioned display identifier, or "" before
// provisioning.
func (s *Supervisor) DisplayID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil {
		return ""
	}
	return s.handle.Identifier()
}

// DisplayPid returns the display server pid, or 0 before provisioning.
func (s *Supervisor) DisplayPid() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil {
		return 0
	}
	return s.handle.Pid()
}

func (s *Supervisor) storeHandle(h *display.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handle = h
}

// Run performs the launch sequence: provision the display, wait for
// readiness, then transfer control to appCmd with DISPLAY set. The
// returned code is the process exit code: the application's own code
// after a successful hand-off, ExitDisplayFailed if the display never
// became ready. Display readiness is always verified before appCmd is
// invoked; the ordering is the entire point of this component.
//
// In exec hand-off mode a successful Run never returns.
func (s *Supervisor) Run(ctx context.Context, appCmd []string) (int, error) {
	if len(appCmd) == 0 {
		return ExitUsage, errors.New("no application command given")
	}

	s.started = time.Now()
	s.setState(StateDisplayStarting)

	h, err := s.prov.Start(ctx)
	if err != nil {
		s.setState(StateDisplayFailed)
		fmt.Fprintf(s.stdout, "ERROR: display startup failed: %v\n", err)
		return ExitDisplayFailed, fmt.Errorf("%w: %v", display.ErrStartupFailed, err)
	}
	s.storeHandle(h)

	if result := s.prov.WaitReady(ctx, h); result != display.ProbeReady {
		s.setState(StateDisplayFailed)
		fmt.Fprintf(s.stdout, "ERROR: display %s failed to start (%s)\n", h.Identifier(), result)
		h.Stop()
		return ExitDisplayFailed, fmt.Errorf("%w: probe result %s", display.ErrStartupFailed, result)
	}

	if s.readyCheck != nil {
		if err := s.readyCheck(ctx, h.Identifier()); err != nil {
			s.setState(StateDisplayFailed)
			fmt.Fprintf(s.stdout, "ERROR: display %s failed readiness check: %v\n", h.Identifier(), err)
			h.Stop()
			return ExitDisplayFailed, fmt.Errorf("%w: ready check: %v", display.ErrStartupFailed, err)
		}
	}

	s.setState(StateDisplayReady)
	fmt.Fprintf(s.stdout, "Display %s ready, starting application\n", h.Identifier())

	// Sole data hand-off between provisioner and application.
	env := append(os.Environ(), "DISPLAY="+h.Identifier())

	switch s.cfg.EffectiveHandoff() {
	case config.HandoffExec:
		return s.execHandoff(appCmd, env)
	default:
		return s.forwardHandoff(ctx, appCmd, env)
	}
}
