// Package app provides application state, events and background services for
// the configuration tool.
package app

import (
	"sync"

	"hmi-config/internal/config"
	"hmi-config/internal/matcher"
	"hmi-config/internal/store"
)

// State holds the shared application state: the open template store, the
// currently displayed template and the selection the side panel acts on.
type State struct {
	mu sync.RWMutex

	Config *config.Config
	Store  *store.Store

	// CurrentTemplate is the template shown in the canvas, 0 when none.
	CurrentTemplate store.TemplateID
	// CurrentImage is the screenshot file loaded for matching or capture.
	CurrentImage string

	// LastMatch is the outcome of the most recent match run.
	LastMatch *matcher.Result

	// SelectedCategory and SelectedItems track the item list selection.
	SelectedCategory store.Category
	SelectedItems    []store.ItemID

	listeners map[EventType][]EventListener
}

// EventType identifies application events.
type EventType int

const (
	EventStoreChanged EventType = iota
	EventTemplateSelected
	EventImageLoaded
	EventMatchComplete
	EventItemsChanged
	EventSelectionChanged
	EventConditionsChanged
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewState creates application state around an open store.
func NewState(cfg *config.Config, st *store.Store) *State {
	return &State{
		Config:           cfg,
		Store:            st,
		SelectedCategory: store.Parameters,
		listeners:        make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetCurrentTemplate switches the displayed template and clears the item
// selection.
func (s *State) SetCurrentTemplate(id store.TemplateID) {
	s.mu.Lock()
	s.CurrentTemplate = id
	s.SelectedItems = nil
	s.mu.Unlock()
	s.Emit(EventTemplateSelected, id)
}

// SetCurrentImage records the loaded screenshot path.
func (s *State) SetCurrentImage(path string) {
	s.mu.Lock()
	s.CurrentImage = path
	s.mu.Unlock()
	s.Emit(EventImageLoaded, path)
}

// SetMatchResult stores the outcome of a match run.
func (s *State) SetMatchResult(res matcher.Result) {
	s.mu.Lock()
	s.LastMatch = &res
	if res.Found {
		s.CurrentTemplate = res.TemplateID
	}
	s.mu.Unlock()
	s.Emit(EventMatchComplete, res)
}

// SetSelection records which items of which category the panel has selected.
func (s *State) SetSelection(cat store.Category, ids []store.ItemID) {
	s.mu.Lock()
	s.SelectedCategory = cat
	s.SelectedItems = ids
	s.mu.Unlock()
	s.Emit(EventSelectionChanged, ids)
}

// Selection returns the current category and selected item IDs.
func (s *State) Selection() (store.Category, []store.ItemID) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]store.ItemID, len(s.SelectedItems))
	copy(ids, s.SelectedItems)
	return s.SelectedCategory, ids
}
