// Package browser boots the agent's Chromium instance through Playwright.
//
// The engine wraps a persistent browser context so login sessions survive
// container restarts, and applies the launch arguments and fingerprint
// settings the agent relies on to avoid trivial automation detection. When
// not headless, Chromium renders into whatever DISPLAY the environment
// provides — which is exactly what the launcher provisions.
package browser

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/sixxer/launchpad/pkg/logging"
)

// Engine is a persistent Chromium browser context.
type Engine struct {
	dataDir  string
	headless bool
	logger   *zap.Logger

	pw      *playwright.Playwright
	browser playwright.BrowserContext
	page    playwright.Page
}

// NewEngine creates an engine whose profile lives in dataDir. Reusing the
// same directory across runs preserves cookies and local storage.
func NewEngine(dataDir string, headless bool) *Engine {
	return &Engine{
		dataDir:  dataDir,
		headless: headless,
		logger:   logging.ComponentLogger("browser"),
	}
}

// Start launches Chromium with the persistent profile. The Playwright
// driver is installed on first use; its output is discarded so it cannot
// interleave with the launcher's diagnostics.
func (e *Engine) Start(ctx context.Context) error {
	if err := os.MkdirAll(e.dataDir, 0750); err != nil {
		return fmt.Errorf("failed to create browser data dir: %w", err)
	}

	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if err := playwright.Install(runOpts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}
	e.pw = pw

	browser, err := pw.Chromium.LaunchPersistentContext(e.dataDir, contextOptions(e.headless))
	if err != nil {
		_ = pw.Stop()
		e.pw = nil
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	e.browser = browser

	// Chromium opens an initial page; reuse it rather than leaking it.
	if pages := browser.Pages(); len(pages) > 0 {
		e.page = pages[0]
	} else {
		page, pageErr := browser.NewPage()
		if pageErr != nil {
			_ = e.Stop()
			return fmt.Errorf("failed to create page: %w", pageErr)
		}
		e.page = page
	}

	e.logger.Info("browser started",
		zap.Bool("headless", e.headless),
		zap.String("data_dir", e.dataDir),
		zap.String("display", os.Getenv("DISPLAY")),
	)
	return nil
}

// Page returns the engine's current page.
func (e *Engine) Page() (playwright.Page, error) {
	if e.page == nil {
		return nil, fmt.Errorf("browser engine not started")
	}
	return e.page, nil
}

// Stop closes the browser context and releases the Playwright driver.
func (e *Engine) Stop() error {
	var firstErr error

	if e.browser != nil {
		if err := e.browser.Close(); err != nil {
			firstErr = fmt.Errorf("failed to close browser context: %w", err)
		}
		e.browser = nil
		e.page = nil
	}

	if e.pw != nil {
		if err := e.pw.Stop(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to stop playwright: %w", err)
		}
		e.pw = nil
	}

	e.logger.Info("browser stopped")
	return firstErr
}
