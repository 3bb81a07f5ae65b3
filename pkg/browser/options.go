package browser

import (
	"github.com/playwright-community/playwright-go"
)

// Fingerprint settings for the persistent context. A consistent, realistic
// fingerprint matters more than a fresh one for a long-lived agent profile.
const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/122.0.0.0 Safari/537.36"
	locale     = "en-US"
	timezoneID = "America/New_York"

	viewportWidth  = 1920
	viewportHeight = 1080
)

// launchArgs returns the Chromium flags that strip the obvious automation
// markers from the browser surface.
func launchArgs() []string {
	return []string{
		"--disable-blink-features=AutomationControlled",
		"--disable-infobars",
		"--no-first-run",
		"--no-default-browser-check",
		"--disable-extensions",
	}
}

// contextOptions builds the persistent-context launch options for the
// given headless setting.
func contextOptions(headless bool) playwright.BrowserTypeLaunchPersistentContextOptions {
	return playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(headless),
		Viewport: &playwright.Size{
			Width:  viewportWidth,
			Height: viewportHeight,
		},
		UserAgent:         playwright.String(userAgent),
		Locale:            playwright.String(locale),
		TimezoneId:        playwright.String(timezoneID),
		Args:              launchArgs(),
		IgnoreDefaultArgs: []string{"--enable-automation"},
		AcceptDownloads:   playwright.Bool(true),
	}
}
