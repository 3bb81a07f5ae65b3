// Package workspace manages the on-disk directory contract between the
// launcher and the agent: the agent expects its profile, deliverables,
// log, and screenshot directories to exist before it starts. The launcher
// creates them; what goes inside them is entirely the agent's business.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
)

// Layout names the directories the agent expects at runtime.
type Layout struct {
	Root              string `yaml:"root"`
	BrowserProfileDir string `yaml:"browser_profile_dir"`
	DeliverablesDir   string `yaml:"deliverables_dir"`
	LogsDir           string `yaml:"logs_dir"`
	ScreenshotsDir    string `yaml:"screenshots_dir"`
}

// DefaultLayout returns the standard layout rooted at root.
func DefaultLayout(root string) Layout {
	return Layout{
		Root:              root,
		BrowserProfileDir: filepath.Join(root, "browser_data"),
		DeliverablesDir:   filepath.Join(root, "deliverables"),
		LogsDir:           filepath.Join(root, "logs"),
		ScreenshotsDir:    filepath.Join(root, "screenshots"),
	}
}

// Dirs returns every directory in the layout, root first.
func (l Layout) Dirs() []string {
	return []string{
		l.Root,
		l.BrowserProfileDir,
		l.DeliverablesDir,
		l.LogsDir,
		l.ScreenshotsDir,
	}
}

// Ensure creates every directory in the layout. Safe to call repeatedly.
func (l Layout) Ensure() error {
	for _, dir := range l.Dirs() {
		if dir == "" {
			return fmt.Errorf("workspace layout has an empty directory entry")
		}
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Validate checks that every directory exists and is a directory, without
// creating anything.
func (l Layout) Validate() error {
	for _, dir := range l.Dirs() {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("workspace directory %s: %w", dir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("workspace path %s is not a directory", dir)
		}
	}
	return nil
}
