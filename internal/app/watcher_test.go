package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreWatcherDetectsModification(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	w := NewStoreWatcher(path, 10*time.Millisecond)
	changed := make(chan struct{})
	w.OnChanged(func() { close(changed) })
	w.Start()
	defer w.Stop()

	// Push the mtime past the baseline; filesystems with coarse timestamp
	// resolution need an explicit future time.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not report the modification")
	}
}

func TestStoreWatcherResetBaseline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	w := NewStoreWatcher(path, 10*time.Millisecond)

	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))
	assert.True(t, w.changed())

	w.ResetBaseline()
	assert.False(t, w.changed())
}

func TestStoreWatcherMissingFile(t *testing.T) {
	w := NewStoreWatcher(filepath.Join(t.TempDir(), "absent.json"), 10*time.Millisecond)
	assert.False(t, w.changed(), "a still-missing file is not a change")
}
