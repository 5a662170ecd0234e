package prefabs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReportsPrefabFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	level := filepath.Join(dir, "level.yaml")
	require.NoError(t, os.WriteFile(level, []byte("name: level\n"), 0o644))

	select {
	case got := <-w.Events:
		assert.Equal(t, level, got)
	case <-time.After(2 * time.Second):
		t.Fatal("no event for yaml file")
	}
}

func TestWatcherClose(t *testing.T) {
	w, err := NewWatcher(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	select {
	case _, ok := <-w.Events:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("events channel not closed")
	}
}

func TestWatchDirs(t *testing.T) {
	root := t.TempDir()
	withDiskRoot(t, root)
	assert.Empty(t, WatchDirs())

	require.NoError(t, os.MkdirAll(filepath.Join(root, "levels"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "scripts"), 0o755))
	assert.Equal(t, []string{filepath.Join(root, "levels"), filepath.Join(root, "scripts")}, WatchDirs())
}

func TestNewWatcherMissingDir(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
