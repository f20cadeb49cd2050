package app

import (
	"os"
	"time"
)

// StoreWatcher polls the store document for modifications made outside the
// running tool, for example by the detection service writing new templates.
// When the file's modification time advances past the baseline, the callback
// fires once and the watcher stops; the caller reloads and restarts it.
type StoreWatcher struct {
	path          string
	baseline      time.Time
	checkInterval time.Duration
	stopCh        chan struct{}
	onChanged     func()
}

// NewStoreWatcher creates a watcher over the given file. A missing file
// starts from a zero baseline, so its creation counts as a change.
func NewStoreWatcher(path string, checkInterval time.Duration) *StoreWatcher {
	w := &StoreWatcher{
		path:          path,
		checkInterval: checkInterval,
		stopCh:        make(chan struct{}),
	}
	if info, err := os.Stat(path); err == nil {
		w.baseline = info.ModTime()
	}
	return w
}

// OnChanged sets the callback to invoke when the file changes. The callback
// runs on a background goroutine.
func (w *StoreWatcher) OnChanged(callback func()) {
	w.onChanged = callback
}

// Start begins watching in a background goroutine.
func (w *StoreWatcher) Start() {
	w.stopCh = make(chan struct{})
	go w.watchLoop()
}

// Stop stops the watcher goroutine.
func (w *StoreWatcher) Stop() {
	close(w.stopCh)
}

// ResetBaseline updates the baseline to the file's current modification time.
// Call after the tool itself saved the store to avoid a self-notification.
func (w *StoreWatcher) ResetBaseline() {
	if info, err := os.Stat(w.path); err == nil {
		w.baseline = info.ModTime()
	}
}

func (w *StoreWatcher) watchLoop() {
	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			if w.changed() && w.onChanged != nil {
				w.onChanged()
				return
			}
		}
	}
}

func (w *StoreWatcher) changed() bool {
	info, err := os.Stat(w.path)
	if err != nil {
		return false
	}
	return info.ModTime().After(w.baseline)
}
