package store

import (
	"path/filepath"
	"sync"
)

var (
	registryMu sync.Mutex
	registry   = make(map[string]*Store)
)

// Shared returns the process-wide store handle for a document path, opening
// it on first use. Every part of the application working on the same file
// gets the same handle and therefore the same mutex.
func Shared(path string) *Store {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if s, ok := registry[abs]; ok {
		return s
	}
	s := Open(abs)
	registry[abs] = s
	return s
}
