package store

import (
	"errors"
	"fmt"
	"sort"

	"hmi-config/pkg/geometry"
)

// ErrRangeExhausted is returned when a ranged allocator has no free ID left.
var ErrRangeExhausted = errors.New("store: id range exhausted")

// IDAllocator picks the ID for a new item given the IDs already in use.
type IDAllocator interface {
	Next(used map[ItemID]Item) (ItemID, error)
}

// Sequential allocates max(used)+1, starting at 1. Freed IDs are never
// reused, which keeps ascending ID order equal to creation order.
type Sequential struct{}

func (Sequential) Next(used map[ItemID]Item) (ItemID, error) {
	return nextItemID(used), nil
}

// StatusRange allocates the lowest free ID inside a fixed [Lo, Hi] window.
// Status items carry meaning in their ID band, so freed IDs are reused.
type StatusRange struct {
	Lo, Hi ItemID
}

func (r StatusRange) Next(used map[ItemID]Item) (ItemID, error) {
	for id := r.Lo; id <= r.Hi; id++ {
		if _, taken := used[id]; !taken {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: [%d, %d]", ErrRangeExhausted, r.Lo, r.Hi)
}

// UsedIn returns the IDs of the window already present, ascending.
func (r StatusRange) UsedIn(items map[ItemID]Item) []ItemID {
	var ids []ItemID
	for id := range items {
		if id >= r.Lo && id <= r.Hi {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// AddItemWith adds an item like AddItem but lets the caller choose the ID
// allocation strategy.
func (s *Store) AddItemWith(tid TemplateID, cat Category, name string, pos geometry.Box, alloc IDAllocator) (ItemID, error) {
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
	id, err := alloc.Next(items)
	if err != nil {
		return 0, err
	}
	items[id] = Item{Name: name, Position: pos}
	if err := s.save(); err != nil {
		delete(items, id)
		return 0, err
	}
	return id, nil
}
