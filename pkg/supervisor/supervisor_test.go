package supervisor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sixxer/launchpad/pkg/config"
	"github.com/sixxer/launchpad/pkg/display"
)

// writeFakeServer writes an executable shell script that stands in for
// the display server binary.
func writeFakeServer(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fake-display-server")
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0700))
	return path
}

// testConfig returns a forward-handoff configuration backed by a
// long-running fake display server. The socket check is disabled because
// the fake cannot speak X11; process existence is the probe.
func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Display.Number = 77
	cfg.Display.ServerBinary = writeFakeServer(t, "exec sleep 30")
	cfg.Display.SocketDir = ""
	cfg.Display.LockDir = t.TempDir()
	cfg.Display.SettleDelay = 10 * time.Millisecond
	cfg.Display.ProbeInterval = 20 * time.Millisecond
	cfg.Display.ProbeTimeout = 2 * time.Second
	cfg.Handoff = config.HandoffForward
	cfg.Health.Enabled = false
	return cfg
}

func markerPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "app-ran")
}

// testCtx is canceled on test cleanup so spawned fake servers are
// reaped with the test instead of outliving it.
func testCtx(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

func TestRunSuccessPassesThroughZeroExit(t *testing.T) {
	cfg := testConfig(t)
	marker := markerPath(t)

	var out bytes.Buffer
	sup := New(cfg, WithStdout(&out))

	code, err := sup.Run(testCtx(t), []string{
		"/bin/sh", "-c", "echo ran > " + marker,
	})

	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, StateAppRunning, sup.State())

	// The ready diagnostic is the observable ordering contract: it names
	// the display and precedes the application run.
	assert.Contains(t, out.String(), "Display :77 ready")
	assert.FileExists(t, marker)
}

func TestRunPassesThroughNonzeroExit(t *testing.T) {
	cfg := testConfig(t)

	sup := New(cfg, WithStdout(&bytes.Buffer{}))

	code, err := sup.Run(testCtx(t), []string{"/bin/sh", "-c", "exit 7"})

	require.NoError(t, err)
	assert.Equal(t, 7, code)
}

func TestRunSetsDisplayEnvironment(t *testing.T) {
	cfg := testConfig(t)
	marker := markerPath(t)

	sup := New(cfg, WithStdout(&bytes.Buffer{}))

	code, err := sup.Run(testCtx(t), []string{
		"/bin/sh", "-c", fmt.Sprintf(`printf %%s "$DISPLAY" > %s`, marker),
	})

	require.NoError(t, err)
	assert.Equal(t, 0, code)

	content, err := os.ReadFile(marker)
	require.NoError(t, err)
	assert.Equal(t, ":77", string(content))
}

func TestRunDisplayFailureNeverInvokesApp(t *testing.T) {
	cfg := testConfig(t)
	cfg.Display.ServerBinary = writeFakeServer(t, "exit 1")
	marker := markerPath(t)

	var out bytes.Buffer
	sup := New(cfg, WithStdout(&out))

	code, err := sup.Run(testCtx(t), []string{
		"/bin/sh", "-c", "echo ran > " + marker,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, display.ErrStartupFailed)
	assert.Equal(t, ExitDisplayFailed, code)
	assert.Equal(t, StateDisplayFailed, sup.State())

	assert.Contains(t, out.String(), "failed to start")
	assert.NoFileExists(t, marker)
}

func TestRunSpawnFailureNeverInvokesApp(t *testing.T) {
	cfg := testConfig(t)
	cfg.Display.ServerBinary = filepath.Join(t.TempDir(), "missing-binary")
	marker := markerPath(t)

	var out bytes.Buffer
	sup := New(cfg, WithStdout(&out))

	code, err := sup.Run(testCtx(t), []string{
		"/bin/sh", "-c", "echo ran > " + marker,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, display.ErrStartupFailed)
	assert.Equal(t, ExitDisplayFailed, code)
	assert.NoFileExists(t, marker)
}

func TestRunFailedThenFreshRunBehavesLikeSingleRun(t *testing.T) {
	// A failed run carries no state into the next container start; a
	// fresh supervisor after a failure is indistinguishable from a
	// first run.
	failedCfg := testConfig(t)
	failedCfg.Display.ServerBinary = writeFakeServer(t, "exit 1")

	failed := New(failedCfg, WithStdout(&bytes.Buffer{}))
	code, err := failed.Run(testCtx(t), []string{"/bin/sh", "-c", "exit 0"})
	require.Error(t, err)
	assert.Equal(t, ExitDisplayFailed, code)

	okCfg := testConfig(t)
	marker := markerPath(t)

	var out bytes.Buffer
	ok := New(okCfg, WithStdout(&out))
	code, err = ok.Run(testCtx(t), []string{
		"/bin/sh", "-c", "echo ran > " + marker,
	})

	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "Display :77 ready")
	assert.FileExists(t, marker)
}

func TestRunReadyCheckFailureAbortsBeforeApp(t *testing.T) {
	cfg := testConfig(t)
	marker := markerPath(t)

	var out bytes.Buffer
	sup := New(cfg,
		WithStdout(&out),
		WithReadyCheck(func(ctx context.Context, displayID string) error {
			assert.Equal(t, ":77", displayID)
			return errors.New("browser cannot render")
		}),
	)

	code, err := sup.Run(testCtx(t), []string{
		"/bin/sh", "-c", "echo ran > " + marker,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, display.ErrStartupFailed)
	assert.Equal(t, ExitDisplayFailed, code)
	assert.Contains(t, out.String(), "readiness check")
	assert.NoFileExists(t, marker)
}

func TestRunNoAppCommand(t *testing.T) {
	sup := New(testConfig(t), WithStdout(&bytes.Buffer{}))

	code, err := sup.Run(testCtx(t), nil)

	require.Error(t, err)
	assert.Equal(t, ExitUsage, code)
	assert.Equal(t, StateInit, sup.State())
}

func TestRunAppCommandNotFound(t *testing.T) {
	cfg := testConfig(t)

	sup := New(cfg, WithStdout(&bytes.Buffer{}))

	code, err := sup.Run(testCtx(t), []string{"/definitely/not/a/binary"})

	require.Error(t, err)
	assert.Equal(t, ExitAppStartFailed, code)
}

func TestRunSignalDeathMapsToShellConvention(t *testing.T) {
	cfg := testConfig(t)

	sup := New(cfg, WithStdout(&bytes.Buffer{}))

	code, err := sup.Run(testCtx(t), []string{"/bin/sh", "-c", "kill -TERM $$"})

	require.NoError(t, err)
	assert.Equal(t, 143, code) // 128 + SIGTERM
}

func TestRunExecHandoff(t *testing.T) {
	cfg := testConfig(t)
	cfg.Handoff = config.HandoffExec

	var gotArgv0 string
	var gotArgv, gotEnv []string

	var out bytes.Buffer
	sup := New(cfg,
		WithStdout(&out),
		WithExecFunc(func(argv0 string, argv []string, env []string) error {
			gotArgv0 = argv0
			gotArgv = argv
			gotEnv = env
			return nil
		}),
	)

	code, err := sup.Run(testCtx(t), []string{"/bin/echo", "agent"})

	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, StateAppRunning, sup.State())

	assert.Equal(t, "/bin/echo", gotArgv0)
	assert.Equal(t, []string{"/bin/echo", "agent"}, gotArgv)
	assert.Contains(t, gotEnv, "DISPLAY=:77")

	// Ready diagnostic still precedes the hand-off.
	assert.Contains(t, out.String(), "Display :77 ready")
}

func TestRunExecHandoffFailure(t *testing.T) {
	cfg := testConfig(t)
	cfg.Handoff = config.HandoffExec

	sup := New(cfg,
		WithStdout(&bytes.Buffer{}),
		WithExecFunc(func(argv0 string, argv []string, env []string) error {
			return errors.New("exec blocked")
		}),
	)

	code, err := sup.Run(testCtx(t), []string{"/bin/echo"})

	require.Error(t, err)
	assert.Equal(t, ExitAppStartFailed, code)
}

func TestStateReporting(t *testing.T) {
	cfg := testConfig(t)

	sup := New(cfg, WithStdout(&bytes.Buffer{}))
	assert.Equal(t, StateInit, sup.State())
	assert.Empty(t, sup.DisplayID())
	assert.Zero(t, sup.DisplayPid())

	_, err := sup.Run(testCtx(t), []string{"/bin/sh", "-c", "exit 0"})
	require.NoError(t, err)

	assert.Equal(t, ":77", sup.DisplayID())
	assert.NotZero(t, sup.DisplayPid())
	assert.False(t, sup.StartedAt().IsZero())
}
