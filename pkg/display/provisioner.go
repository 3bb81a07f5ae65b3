package display

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/sixxer/launchpad/pkg/config"
	"github.com/sixxer/launchpad/pkg/retry"
)

var errNotServing = errors.New("display server not serving yet")

// Provisioner starts the virtual display server and verifies readiness.
type Provisioner struct {
	cfg    config.DisplayConfig
	logger *zap.Logger
}

// NewProvisioner creates a provisioner for the given display configuration.
func NewProvisioner(cfg config.DisplayConfig, logger *zap.Logger) *Provisioner {
	return &Provisioner{cfg: cfg, logger: logger}
}

// socketPath returns the display's unix socket path, or "" when the
// socket check is disabled.
func (p *Provisioner) socketPath() string {
	if p.cfg.SocketDir == "" {
		return ""
	}
	return filepath.Join(p.cfg.SocketDir, fmt.Sprintf("X%d", p.cfg.Number))
}

// lockPath returns the display's lock file path, or "" when the collision
// check is disabled.
func (p *Provisioner) lockPath() string {
	if p.cfg.LockDir == "" {
		return ""
	}
	return filepath.Join(p.cfg.LockDir, fmt.Sprintf(".X%d-lock", p.cfg.Number))
}

// Start spawns the display server detached from the caller's foreground
// flow, bound to the configured display number and geometry, with TCP
// listening disabled. The child stays in the caller's process group so a
// container-level signal reaches both.
//
// The display identifier is a single fixed slot: if another server already
// holds it (its lock or socket exists), Start fails fast instead of
// fighting over the handle.
func (p *Provisioner) Start(ctx context.Context) (*Handle, error) {
	identifier := p.cfg.Identifier()

	for _, path := range []string{p.lockPath(), p.socketPath()} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return nil, fmt.Errorf("display %s already in use: %s exists", identifier, path)
		}
	}

	args := []string{
		identifier,
		"-screen", "0", p.cfg.Geometry(),
		"-nolisten", "tcp",
	}

	cmd := exec.CommandContext(ctx, p.cfg.ServerBinary, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start display server %s: %w", p.cfg.ServerBinary, err)
	}

	h := &Handle{
		cmd:        cmd,
		identifier: identifier,
		socketPath: p.socketPath(),
	}
	go h.reap()

	p.logger.Info("display server spawned",
		zap.String("display", identifier),
		zap.String("geometry", p.cfg.Geometry()),
		zap.Int("pid", h.Pid()),
	)

	return h, nil
}

// WaitReady blocks until the display server is verifiably alive, its
// process exits, or the probe timeout elapses. A fixed settle delay
// precedes the first probe because process start is asynchronous and an
// immediate check would race the server's own initialization.
func (p *Provisioner) WaitReady(ctx context.Context, h *Handle) ProbeResult {
	select {
	case <-time.After(p.cfg.SettleDelay):
	case <-ctx.Done():
		return ProbeTimedOut
	}

	probeCtx, cancel := context.WithTimeout(ctx, p.cfg.ProbeTimeout)
	defer cancel()

	policy := retry.Policy{
		MaxAttempts: p.probeAttempts(),
		BaseDelay:   p.cfg.ProbeInterval,
		MaxDelay:    4 * p.cfg.ProbeInterval,
	}

	err := retry.Do(probeCtx, policy, func() error {
		if code, exited := h.ExitState(); exited {
			return retry.Permanent(fmt.Errorf("display server exited with code %d", code))
		}
		if !h.Alive() {
			return errNotServing
		}
		if sock := h.socketPath; sock != "" {
			if _, statErr := os.Stat(sock); statErr != nil {
				return errNotServing
			}
		}
		return nil
	})

	switch {
	case err == nil:
		p.logger.Info("display server ready", zap.String("display", h.Identifier()))
		return ProbeReady
	case errors.Is(err, errNotServing), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		p.logger.Error("display server readiness probe timed out",
			zap.String("display", h.Identifier()),
			zap.Duration("timeout", p.cfg.ProbeTimeout),
		)
		return ProbeTimedOut
	default:
		p.logger.Error("display server exited during startup", zap.Error(err))
		return ProbeProcessExited
	}
}

// probeAttempts sizes the retry loop so the deadline, not the attempt
// count, is what normally ends an unsuccessful wait.
func (p *Provisioner) probeAttempts() int {
	attempts := int(p.cfg.ProbeTimeout/p.cfg.ProbeInterval) + 1
	if attempts < 2 {
		attempts = 2
	}
	return attempts
}
