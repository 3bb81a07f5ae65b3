// Package config defines the launcher configuration: the virtual display
// slot and geometry, the hand-off mode, the health surface, the optional
// browser preflight, and the workspace layout root. Values come from
// built-in defaults, an optional YAML file, environment variables, and
// command-line flags, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// HandoffMode selects how the supervisor transfers control to the
// application once the display is ready.
type HandoffMode string

const (
	// HandoffAuto resolves to forward when the health server is enabled,
	// exec otherwise.
	HandoffAuto HandoffMode = ""
	// HandoffExec replaces the supervisor's process image with the
	// application, so signals and exit codes pass through natively.
	HandoffExec HandoffMode = "exec"
	// HandoffForward runs the application as a child, forwards
	// termination signals, and exits with the child's exit code.
	HandoffForward HandoffMode = "forward"
)

// Config is the top-level launcher configuration.
type Config struct {
	Display   DisplayConfig   `yaml:"display"`
	Handoff   HandoffMode     `yaml:"handoff"`
	Health    HealthConfig    `yaml:"health"`
	Browser   BrowserConfig   `yaml:"browser"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DisplayConfig describes the virtual display slot, its geometry, and the
// readiness probe schedule.
type DisplayConfig struct {
	// Number is the X display number; the display identifier is ":<number>".
	Number int `yaml:"number"`

	// Screen geometry.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	Depth  int `yaml:"depth"`

	// ServerBinary is the display server executable.
	ServerBinary string `yaml:"server_binary"`

	// SocketDir is where the server creates the display's unix socket
	// (X<number>). When set, the readiness probe also requires the
	// socket to exist; empty disables the socket check.
	SocketDir string `yaml:"socket_dir"`

	// LockDir is where the server takes its .X<number>-lock file, used
	// to detect display identifier collisions before spawning. Empty
	// disables the collision check.
	LockDir string `yaml:"lock_dir"`

	// SettleDelay is the wait before the first liveness probe; process
	// start is asynchronous and an immediate check would race the
	// server's own initialization.
	SettleDelay time.Duration `yaml:"settle_delay"`

	// ProbeInterval is the base backoff between probe attempts.
	ProbeInterval time.Duration `yaml:"probe_interval"`

	// ProbeTimeout bounds the whole readiness wait after the settle
	// delay. Once exceeded the startup is abandoned and reported failed.
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
}

// Identifier returns the display identifier in ":<number>" form, the value
// handed to the application via DISPLAY.
func (d DisplayConfig) Identifier() string {
	return fmt.Sprintf(":%d", d.Number)
}

// Geometry returns the WxHxD geometry string in the display server's
// screen syntax.
func (d DisplayConfig) Geometry() string {
	return fmt.Sprintf("%dx%dx%d", d.Width, d.Height, d.Depth)
}

// HealthConfig controls the HTTP health surface.
type HealthConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// BrowserConfig controls the optional browser preflight and the agent's
// persistent browser profile location.
type BrowserConfig struct {
	// Preflight launches and closes a browser against the fresh display
	// before hand-off, converting "browser cannot render" into a fast
	// startup failure.
	Preflight bool   `yaml:"preflight"`
	DataDir   string `yaml:"data_dir"`
	Headless  bool   `yaml:"headless"`
}

// WorkspaceConfig locates the directories the agent expects at runtime.
type WorkspaceConfig struct {
	Root string `yaml:"root"`
}

// LoggingConfig controls structured logging verbosity: quiet, normal,
// verbose, or debug.
type LoggingConfig struct {
	Verbosity string `yaml:"verbosity"`
}

// DefaultConfig returns the configuration used when nothing is overridden:
// display :99 at 1920x1080x24 served by Xvfb, health on :8080, forward
// hand-off implied by the enabled health server.
func DefaultConfig() *Config {
	return &Config{
		Display: DisplayConfig{
			Number:        99,
			Width:         1920,
			Height:        1080,
			Depth:         24,
			ServerBinary:  "Xvfb",
			SocketDir:     "/tmp/.X11-unix",
			LockDir:       "/tmp",
			SettleDelay:   time.Second,
			ProbeInterval: 500 * time.Millisecond,
			ProbeTimeout:  15 * time.Second,
		},
		Handoff: HandoffAuto,
		Health: HealthConfig{
			Enabled: true,
			Port:    8080,
		},
		Browser: BrowserConfig{
			Preflight: false,
			DataDir:   "data/browser_data",
			Headless:  false,
		},
		Workspace: WorkspaceConfig{
			Root: "data",
		},
		Logging: LoggingConfig{
			Verbosity: "normal",
		},
	}
}

// LoadFile loads configuration from a YAML file, layered over defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides configuration from environment variables. PORT is the
// platform-assigned health port; the LAUNCHPAD_* variables mirror the YAML
// fields that commonly vary per deployment.
func (c *Config) ApplyEnv() error {
	if port := os.Getenv("PORT"); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PORT value %q: %w", port, err)
		}
		c.Health.Port = n
	}

	if num := os.Getenv("DISPLAY_NUMBER"); num != "" {
		n, err := strconv.Atoi(num)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_NUMBER value %q: %w", num, err)
		}
		c.Display.Number = n
	}

	if mode := os.Getenv("LAUNCHPAD_HANDOFF"); mode != "" {
		c.Handoff = HandoffMode(mode)
	}

	if pf := os.Getenv("LAUNCHPAD_BROWSER_PREFLIGHT"); pf != "" {
		v, err := strconv.ParseBool(pf)
		if err != nil {
			return fmt.Errorf("invalid LAUNCHPAD_BROWSER_PREFLIGHT value %q: %w", pf, err)
		}
		c.Browser.Preflight = v
	}

	if verbosity := os.Getenv("LAUNCHPAD_VERBOSITY"); verbosity != "" {
		c.Logging.Verbosity = verbosity
	}

	return nil
}

// EffectiveHandoff resolves HandoffAuto: forward when the health server is
// enabled (so the surface outlives the hand-off), exec otherwise.
func (c *Config) EffectiveHandoff() HandoffMode {
	if c.Handoff != HandoffAuto {
		return c.Handoff
	}
	if c.Health.Enabled {
		return HandoffForward
	}
	return HandoffExec
}

// ParseGeometry parses a "WIDTHxHEIGHTxDEPTH" string, e.g. "1920x1080x24".
func ParseGeometry(s string) (width, height, depth int, err error) {
	parts := strings.Split(s, "x")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid geometry %q (want WIDTHxHEIGHTxDEPTH)", s)
	}

	dims := make([]int, 3)
	for i, part := range parts {
		n, convErr := strconv.Atoi(part)
		if convErr != nil || n <= 0 {
			return 0, 0, 0, fmt.Errorf("invalid geometry %q (want WIDTHxHEIGHTxDEPTH)", s)
		}
		dims[i] = n
	}

	return dims[0], dims[1], dims[2], nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Display.Number < 0 {
		return fmt.Errorf("display number cannot be negative")
	}

	if c.Display.Width <= 0 || c.Display.Height <= 0 || c.Display.Depth <= 0 {
		return fmt.Errorf("display geometry must be positive, got %s", c.Display.Geometry())
	}

	if c.Display.ServerBinary == "" {
		return fmt.Errorf("display server binary is required")
	}

	if c.Display.SettleDelay < 0 {
		return fmt.Errorf("settle_delay cannot be negative")
	}

	if c.Display.ProbeInterval <= 0 {
		return fmt.Errorf("probe_interval must be positive")
	}

	if c.Display.ProbeTimeout <= 0 {
		return fmt.Errorf("probe_timeout must be positive")
	}

	switch c.Handoff {
	case HandoffAuto, HandoffExec, HandoffForward:
	default:
		return fmt.Errorf("invalid handoff mode: %s (must be 'exec' or 'forward')", c.Handoff)
	}

	if c.Health.Enabled && (c.Health.Port < 1 || c.Health.Port > 65535) {
		return fmt.Errorf("invalid health port: %d", c.Health.Port)
	}

	if c.Workspace.Root == "" {
		return fmt.Errorf("workspace root is required")
	}

	validLevels := map[string]bool{
		"":        true,
		"quiet":   true,
		"normal":  true,
		"verbose": true,
		"debug":   true,
	}
	if !validLevels[c.Logging.Verbosity] {
		return fmt.Errorf("invalid logging verbosity: %s (must be 'quiet', 'normal', 'verbose', or 'debug')", c.Logging.Verbosity)
	}

	return nil
}
