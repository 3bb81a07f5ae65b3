package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLayout(t *testing.T) {
	l := DefaultLayout("/srv/agent/data")

	assert.Equal(t, "/srv/agent/data", l.Root)
	assert.Equal(t, "/srv/agent/data/browser_data", l.BrowserProfileDir)
	assert.Equal(t, "/srv/agent/data/deliverables", l.DeliverablesDir)
	assert.Equal(t, "/srv/agent/data/logs", l.LogsDir)
	assert.Equal(t, "/srv/agent/data/screenshots", l.ScreenshotsDir)
	assert.Len(t, l.Dirs(), 5)
}

func TestEnsureCreatesAllDirs(t *testing.T) {
	root := filepath.Join(t.TempDir(), "data")
	l := DefaultLayout(root)

	require.NoError(t, l.Ensure())

	for _, dir := range l.Dirs() {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	require.NoError(t, l.Validate())
}

func TestEnsureIsIdempotent(t *testing.T) {
	l := DefaultLayout(filepath.Join(t.TempDir(), "data"))

	require.NoError(t, l.Ensure())
	require.NoError(t, l.Ensure())
}

func TestEnsureRejectsEmptyEntry(t *testing.T) {
	l := DefaultLayout(filepath.Join(t.TempDir(), "data"))
	l.LogsDir = ""

	err := l.Ensure()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty directory entry")
}

func TestValidateMissingDir(t *testing.T) {
	l := DefaultLayout(filepath.Join(t.TempDir(), "data"))

	err := l.Validate()
	require.Error(t, err)
}

func TestValidateFileInsteadOfDir(t *testing.T) {
	root := filepath.Join(t.TempDir(), "data")
	l := DefaultLayout(root)
	require.NoError(t, l.Ensure())

	require.NoError(t, os.RemoveAll(l.LogsDir))
	require.NoError(t, os.WriteFile(l.LogsDir, []byte("not a dir"), 0600))

	err := l.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}
