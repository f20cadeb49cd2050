package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"hmi-config/internal/condition"
	"hmi-config/pkg/geometry"
)

var (
	// ErrTemplateNotFound is returned when an operation names a template ID
	// absent from the document.
	ErrTemplateNotFound = errors.New("store: template not found")
	// ErrItemNotFound is returned when an operation names an item ID absent
	// from the addressed category.
	ErrItemNotFound = errors.New("store: item not found")
	// ErrDuplicateItem is returned when an added item has the same name and
	// position as an existing item in the same category.
	ErrDuplicateItem = errors.New("store: duplicate item")
	// ErrDuplicateName is returned when an added item reuses the name of an
	// existing item in the same category. Names are unique per template so
	// OCR values and conditions can address parameters by name.
	ErrDuplicateName = errors.New("store: duplicate item name")
)

// templateImageExt is the fallback extension for copied template screenshots
// whose source path carries none.
const templateImageExt = ".tiff"

// Store is a handle on one JSON template document. All mutating operations
// take the store mutex, modify the in-memory document and write it back to
// disk before returning, so the file is never more than one operation behind.
type Store struct {
	path string

	mu  sync.Mutex
	doc *Document
}

// Open returns a store bound to the given document path and loads it.
// A missing or unreadable file yields an empty document, not an error:
// first use of the tool starts from nothing.
func Open(path string) *Store {
	s := &Store{path: path}
	s.doc = s.load()
	return s
}

// Path returns the document path the store reads and writes.
func (s *Store) Path() string { return s.path }

func (s *Store) load() *Document {
	doc := NewDocument()
	data, err := os.ReadFile(s.path)
	if err != nil {
		log.Printf("template store %s not loaded: %v", s.path, err)
		return doc
	}
	if err := json.Unmarshal(data, doc); err != nil {
		log.Printf("template store %s not parsed: %v", s.path, err)
		return NewDocument()
	}
	if doc.Images == nil {
		doc.Images = make(map[TemplateID]*Template)
	}
	return doc
}

// Reload discards the in-memory document and reads the file again.
func (s *Store) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = s.load()
}

// Save writes the in-memory document to disk.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding template store: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating store directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing template store: %w", err)
	}
	return nil
}

// HasChanged reports whether the in-memory document differs from the file on
// disk. A missing or unreadable file counts as changed.
func (s *Store) HasChanged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	onDisk := NewDocument()
	data, err := os.ReadFile(s.path)
	if err != nil {
		return true
	}
	if err := json.Unmarshal(data, onDisk); err != nil {
		return true
	}
	return !documentsEqual(s.doc, onDisk)
}

// documentsEqual compares documents by their canonical JSON form. Go sorts
// map keys when marshaling, so the encoding is deterministic.
func documentsEqual(a, b *Document) bool {
	aj, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bj, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(aj, bj)
}

// Snapshot returns a deep copy of the current document. Callers may read it
// without holding the store mutex.
func (s *Store) Snapshot() *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.clone()
}

// Template returns a deep copy of one template.
func (s *Store) Template(id TemplateID) (*Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.doc.Images[id]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrTemplateNotFound, id)
	}
	return s.doc.clone().Images[id], nil
}

// AddTemplate registers a new screenshot under a freshly allocated ID. The
// source image is copied into the directory of the store document as
// template_<id> with its original extension, so the store stays
// self-contained, and the template starts with empty parameter and feature
// maps.
func (s *Store) AddTemplate(srcImage string, size geometry.Size) (TemplateID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ext := filepath.Ext(srcImage)
	if ext == "" {
		ext = templateImageExt
	}
	id := s.doc.NextTemplateID()
	dst := filepath.Join(filepath.Dir(s.path), fmt.Sprintf("template_%d%s", id, ext))
	if err := copyFile(srcImage, dst); err != nil {
		return 0, fmt.Errorf("copying template image: %w", err)
	}

	s.doc.Images[id] = &Template{
		Path:       dst,
		Size:       size,
		Parameters: make(map[ItemID]Item),
		Features:   make(map[ItemID]Item),
	}
	if err := s.save(); err != nil {
		delete(s.doc.Images, id)
		os.Remove(dst)
		return 0, err
	}
	log.Printf("added template %d from %s", id, srcImage)
	return id, nil
}

// checkDuplicate enforces the item uniqueness rules for one category: an
// identical name+position pair is a duplicate item, and a reused name with a
// different position is a name clash.
func checkDuplicate(items map[ItemID]Item, cat Category, name string, pos geometry.Box) error {
	for _, existing := range items {
		if existing.Name != name {
			continue
		}
		if existing.Position == pos {
			return fmt.Errorf("%w: %s %q at %v", ErrDuplicateItem, cat, name, pos)
		}
		return fmt.Errorf("%w: %s %q", ErrDuplicateName, cat, name)
	}
	return nil
}

// AddItem adds a named rectangle to a template. An item whose name and
// position both match an existing item in the same category is rejected with
// ErrDuplicateItem; a reused name alone with ErrDuplicateName.
func (s *Store) AddItem(tid TemplateID, cat Category, name string, pos geometry.Box) (ItemID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.doc.Images[tid]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrTemplateNotFound, tid)
	}
	items := t.Items(cat)
	if err := checkDuplicate(items, cat, name, pos); err != nil {
		return 0, err
	}
	id := nextItemID(items)
	items[id] = Item{Name: name, Position: pos}
	if err := s.save(); err != nil {
		delete(items, id)
		return 0, err
	}
	return id, nil
}

// RemoveItem deletes one item by ID. Removing the last feature of a template
// deletes the whole template and its image file: a template with no features
// can never be matched, so keeping it would only strand data.
func (s *Store) RemoveItem(tid TemplateID, cat Category, id ItemID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.doc.Images[tid]
	if !ok {
		return fmt.Errorf("%w: %d", ErrTemplateNotFound, tid)
	}
	items := t.Items(cat)
	item, ok := items[id]
	if !ok {
		return fmt.Errorf("%w: %s %d", ErrItemNotFound, cat, id)
	}
	delete(items, id)
	if cat == Features && len(t.Features) == 0 {
		delete(s.doc.Images, tid)
		if err := s.save(); err != nil {
			s.doc.Images[tid] = t
			items[id] = item
			return err
		}
		s.removeImageFile(t)
		log.Printf("template %d removed with its last feature", tid)
		return nil
	}
	if err := s.save(); err != nil {
		items[id] = item
		return err
	}
	return nil
}

// RemoveItemByValue deletes the first item in the category whose name and
// position match. It serves UI paths that carry item values rather than IDs.
func (s *Store) RemoveItemByValue(tid TemplateID, cat Category, name string, pos geometry.Box) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.doc.Images[tid]
	if !ok {
		return fmt.Errorf("%w: %d", ErrTemplateNotFound, tid)
	}
	items := t.Items(cat)
	for id, item := range items {
		if item.Name == name && item.Position == pos {
			delete(items, id)
			if cat == Features && len(t.Features) == 0 {
				delete(s.doc.Images, tid)
				if err := s.save(); err != nil {
					s.doc.Images[tid] = t
					items[id] = item
					return err
				}
				s.removeImageFile(t)
				return nil
			}
			if err := s.save(); err != nil {
				items[id] = item
				return err
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s %q at %v", ErrItemNotFound, cat, name, pos)
}

// RemoveTemplate deletes a template and its stored image file.
func (s *Store) RemoveTemplate(tid TemplateID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.doc.Images[tid]
	if !ok {
		return fmt.Errorf("%w: %d", ErrTemplateNotFound, tid)
	}
	delete(s.doc.Images, tid)
	if err := s.save(); err != nil {
		s.doc.Images[tid] = t
		return err
	}
	s.removeImageFile(t)
	return nil
}

// removeImageFile best-effort deletes a template's backing image. Called
// only after the document without the template was written out, so a failed
// save never costs an image file. Callers hold the mutex.
func (s *Store) removeImageFile(t *Template) {
	if t == nil || t.Path == "" {
		return
	}
	if err := os.Remove(t.Path); err != nil && !os.IsNotExist(err) {
		log.Printf("removing template image %s: %v", t.Path, err)
	}
}

// SetStatusRules replaces the machine status rules of a template.
func (s *Store) SetStatusRules(tid TemplateID, rules []condition.StatusRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.doc.Images[tid]
	if !ok {
		return fmt.Errorf("%w: %d", ErrTemplateNotFound, tid)
	}
	prev := t.StatusRules
	t.StatusRules = rules
	if err := s.save(); err != nil {
		t.StatusRules = prev
		return err
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
