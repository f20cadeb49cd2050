// Package store persists annotated screenshot templates: for each template
// the reference image, its capture size, the named parameter and feature
// rectangles, and the machine status rules defined against it. The on-disk
// form is a single JSON document {"images": {<id>: ...}}.
package store

import (
	"sort"
	"strconv"

	"hmi-config/internal/condition"
	"hmi-config/pkg/geometry"
)

// TemplateID identifies a template. IDs are positive and allocated
// monotonically, so ascending ID order doubles as insertion order. Integer
// map keys marshal as the stringified decimal keys the original schema uses.
type TemplateID int

// String returns the decimal form used in the JSON document.
func (id TemplateID) String() string { return strconv.Itoa(int(id)) }

// ItemID identifies a parameter or feature within one template.
type ItemID int

func (id ItemID) String() string { return strconv.Itoa(int(id)) }

// Category selects which item map of a template an operation targets.
type Category string

const (
	// Parameters are the regions values are extracted from.
	Parameters Category = "parameters"
	// Features are the regions used for template matching.
	Features Category = "features"
)

// Item is a named rectangle in original-image pixel coordinates.
type Item struct {
	Name     string       `json:"name"`
	Position geometry.Box `json:"position"`
}

// Template is one annotated reference screenshot.
type Template struct {
	Path        string                 `json:"path"`
	Size        geometry.Size          `json:"size"`
	Parameters  map[ItemID]Item        `json:"parameters"`
	Features    map[ItemID]Item        `json:"features"`
	StatusRules []condition.StatusRule `json:"machine_status_conditions,omitempty"`
}

// Items returns the item map for the given category.
func (t *Template) Items(cat Category) map[ItemID]Item {
	if cat == Features {
		return t.Features
	}
	return t.Parameters
}

// ParameterNames returns the parameter names in item-ID order.
func (t *Template) ParameterNames() []string {
	ids := sortedItemIDs(t.Parameters)
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, t.Parameters[id].Name)
	}
	return names
}

// Document is the full store content.
type Document struct {
	Images map[TemplateID]*Template `json:"images"`
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{Images: make(map[TemplateID]*Template)}
}

// TemplateIDs returns all template IDs in ascending order. Because IDs are
// allocated max+1, this is the original insertion order and the order the
// matcher scans in.
func (d *Document) TemplateIDs() []TemplateID {
	ids := make([]TemplateID, 0, len(d.Images))
	for id := range d.Images {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// NextTemplateID returns max(existing)+1, or 1 for an empty document.
func (d *Document) NextTemplateID() TemplateID {
	var max TemplateID
	for id := range d.Images {
		if id > max {
			max = id
		}
	}
	return max + 1
}

func sortedItemIDs(items map[ItemID]Item) []ItemID {
	ids := make([]ItemID, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// nextItemID returns max(existing)+1, or 1 for an empty item map.
func nextItemID(items map[ItemID]Item) ItemID {
	var max ItemID
	for id := range items {
		if id > max {
			max = id
		}
	}
	return max + 1
}

// clone returns a deep copy of the document, used for change detection.
func (d *Document) clone() *Document {
	out := NewDocument()
	for id, t := range d.Images {
		ct := &Template{
			Path:       t.Path,
			Size:       t.Size,
			Parameters: make(map[ItemID]Item, len(t.Parameters)),
			Features:   make(map[ItemID]Item, len(t.Features)),
		}
		for iid, item := range t.Parameters {
			ct.Parameters[iid] = item
		}
		for iid, item := range t.Features {
			ct.Features[iid] = item
		}
		for _, rule := range t.StatusRules {
			ct.StatusRules = append(ct.StatusRules, condition.StatusRule{
				Status:     rule.Status,
				Conditions: rule.Conditions.Clone(),
			})
		}
		out.Images[id] = ct
	}
	return out
}
