// Package main provides launchpad, the container entrypoint for the
// headless browser-automation agent. It provisions an X virtual
// framebuffer, verifies it is serving, optionally checks that a browser
// can render against it, then hands control to the agent process with
// DISPLAY set so the agent's exit code becomes the container's exit code.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/sixxer/launchpad/pkg/browser"
	"github.com/sixxer/launchpad/pkg/config"
	"github.com/sixxer/launchpad/pkg/health"
	"github.com/sixxer/launchpad/pkg/logging"
	"github.com/sixxer/launchpad/pkg/supervisor"
	"github.com/sixxer/launchpad/pkg/workspace"
)

const version = "0.1.0"

// CLIConfig holds command-line configuration.
type CLIConfig struct {
	ConfigFile    string
	DisplayNumber int
	Geometry      string
	Handoff       string
	HealthPort    int
	NoHealth      bool
	Preflight     bool
	Verbosity     string
	ShowVersion   bool
}

func main() {
	cliConfig, appCmd := parseFlags()

	if cliConfig.ShowVersion {
		fmt.Printf("Launchpad v%s\n", version)
		return
	}

	// Create context with signal handling so a container stop during the
	// display-starting phase tears down the spawned server too.
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	code, err := run(ctx, cliConfig, appCmd)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "launchpad: %v\n", err)
	}
	logging.Sync()
	os.Exit(code)
}

// parseFlags parses command line flags. Everything after the flags (or an
// explicit "--") is the application command.
func parseFlags() (*CLIConfig, []string) {
	cliConfig := &CLIConfig{}

	flag.StringVar(&cliConfig.ConfigFile, "config", "", "Path to configuration file (YAML)")
	flag.IntVar(&cliConfig.DisplayNumber, "display", -1, "X display number (default from config)")
	flag.StringVar(&cliConfig.Geometry, "geometry", "", "Display geometry as WIDTHxHEIGHTxDEPTH")
	flag.StringVar(&cliConfig.Handoff, "handoff", "", "Hand-off mode: exec or forward")
	flag.IntVar(&cliConfig.HealthPort, "health-port", 0, "HTTP health server port (default from config)")
	flag.BoolVar(&cliConfig.NoHealth, "no-health", false, "Disable the HTTP health server")
	flag.BoolVar(&cliConfig.Preflight, "preflight", false, "Verify a browser can start against the display before hand-off")
	flag.StringVar(&cliConfig.Verbosity, "verbosity", "", "Logging verbosity: quiet, normal, verbose, debug")
	flag.BoolVar(&cliConfig.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Launchpad - virtual display provisioner and process supervisor\n\n")
		fmt.Fprintf(os.Stderr, "Usage: launchpad [options] -- <command> [args...]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Start the agent behind display :99\n")
		fmt.Fprintf(os.Stderr, "  launchpad -- python main.py\n\n")
		fmt.Fprintf(os.Stderr, "  # Custom display slot and geometry\n")
		fmt.Fprintf(os.Stderr, "  launchpad -display 42 -geometry 1280x720x24 -- ./agent\n\n")
	}

	flag.Parse()
	return cliConfig, flag.Args()
}

// run wires configuration, logging, workspace, health, and the supervisor
// together, returning the process exit code. With exec hand-off a
// successful run never returns.
func run(ctx context.Context, cliConfig *CLIConfig, appCmd []string) (int, error) {
	cfg, err := loadConfig(cliConfig)
	if err != nil {
		return supervisor.ExitUsage, err
	}

	if err := logging.Init(cfg.Logging.Verbosity); err != nil {
		return supervisor.ExitUsage, err
	}
	logger := logging.ComponentLogger("launchpad")
	logger.Info("starting", zap.String("version", version))

	layout := workspace.DefaultLayout(cfg.Workspace.Root)
	if err := layout.Ensure(); err != nil {
		return supervisor.ExitUsage, fmt.Errorf("failed to prepare workspace: %w", err)
	}

	opts := []supervisor.Option{}
	if cfg.Browser.Preflight {
		opts = append(opts, supervisor.WithReadyCheck(func(ctx context.Context, displayID string) error {
			return browser.Preflight(ctx, displayID, cfg.Browser.Headless)
		}))
	}

	sup := supervisor.New(cfg, opts...)

	// The health surface comes up before provisioning so orchestrator
	// probes see the port immediately. With exec hand-off it ends at
	// hand-off; forward mode keeps it alive for the application's life.
	if cfg.Health.Enabled {
		srv := health.NewServer(cfg.Health.Port, sup)
		srv.Start()
		defer func() {
			if err := srv.Stop(); err != nil {
				logger.Warn("health server shutdown failed", zap.Error(err))
			}
		}()
	}

	return sup.Run(ctx, appCmd)
}

// loadConfig layers defaults, config file, environment, and CLI flags.
func loadConfig(cliConfig *CLIConfig) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if cliConfig.ConfigFile != "" {
		loaded, err := config.LoadFile(cliConfig.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if cliConfig.DisplayNumber >= 0 {
		cfg.Display.Number = cliConfig.DisplayNumber
	}
	if cliConfig.Geometry != "" {
		w, h, d, err := config.ParseGeometry(cliConfig.Geometry)
		if err != nil {
			return nil, err
		}
		cfg.Display.Width, cfg.Display.Height, cfg.Display.Depth = w, h, d
	}
	if cliConfig.Handoff != "" {
		cfg.Handoff = config.HandoffMode(cliConfig.Handoff)
	}
	if cliConfig.HealthPort > 0 {
		cfg.Health.Port = cliConfig.HealthPort
	}
	if cliConfig.NoHealth {
		cfg.Health.Enabled = false
	}
	if cliConfig.Preflight {
		cfg.Browser.Preflight = true
	}
	if cliConfig.Verbosity != "" {
		cfg.Logging.Verbosity = cliConfig.Verbosity
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
