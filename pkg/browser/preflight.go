package browser

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sixxer/launchpad/pkg/retry"
)

// Preflight verifies that a browser can actually start and render against
// the given display before the agent is handed control. Without it, a
// broken display surfaces as a confusing failure deep inside the
// application instead of a fast startup error.
//
// The temporary profile is discarded; the agent's persistent profile is
// never touched here.
func Preflight(ctx context.Context, displayID string, headless bool) error {
	if !headless {
		// Chromium routes rendering through DISPLAY.
		if err := os.Setenv("DISPLAY", displayID); err != nil {
			return fmt.Errorf("failed to set DISPLAY: %w", err)
		}
	}

	dataDir, err := os.MkdirTemp("", "launchpad-preflight-")
	if err != nil {
		return fmt.Errorf("failed to create preflight profile dir: %w", err)
	}
	defer os.RemoveAll(dataDir)

	policy := retry.Policy{
		MaxAttempts: 2,
		BaseDelay:   2 * time.Second,
		MaxDelay:    5 * time.Second,
	}

	return retry.Do(ctx, policy, func() error {
		engine := NewEngine(dataDir, headless)
		if err := engine.Start(ctx); err != nil {
			return err
		}
		defer engine.Stop()

		page, err := engine.Page()
		if err != nil {
			return err
		}
		if _, err := page.Goto("about:blank"); err != nil {
			return fmt.Errorf("preflight navigation failed: %w", err)
		}
		return nil
	})
}
