package mainwindow

import (
	"path/filepath"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hmi-config/internal/app"
	"hmi-config/internal/config"
	"hmi-config/internal/store"
	"hmi-config/ui/prefs"
)

// quitRecorder observes whether the exit path reached Quit.
type quitRecorder struct {
	fyne.App
	quit bool
}

func (q *quitRecorder) Quit() { q.quit = true }

func newTestWindow(t *testing.T, storePath string) (*MainWindow, *quitRecorder) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	rec := &quitRecorder{App: test.NewApp()}
	cfg := &config.Config{
		StorePath: storePath,
		Statuses:  config.DefaultStatuses,
		// Zero disables the background store watcher.
		WatchInterval: 0,
	}
	state := app.NewState(cfg, store.Open(storePath))
	return New(rec, state, prefs.Load()), rec
}

func TestCloseWithCleanStoreQuits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.json")
	mw, rec := newTestWindow(t, path)
	require.NoError(t, mw.state.Store.Save())

	mw.onQuit()
	assert.True(t, rec.quit)
}

func TestCloseWithUnsavedChangesPromptsInsteadOfQuitting(t *testing.T) {
	// A store whose document was never written counts as changed, so the
	// close path must stop at the confirmation dialog.
	path := filepath.Join(t.TempDir(), "templates.json")
	mw, rec := newTestWindow(t, path)
	require.True(t, mw.state.Store.HasChanged())

	mw.onQuit()
	assert.False(t, rec.quit)
}
