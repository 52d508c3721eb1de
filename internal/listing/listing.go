// Package listing orders place lists for display and reports what changed
// between two versions of the same list.
package listing

import (
	"sort"

	"github.com/ukydev/placenotes/internal/models"
)

// Sort returns a copy of places in the given order: names ascending by byte
// order, the same order the store uses, or ratings descending. Equal keys keep
// their input order.
func Sort(places []models.Place, order models.SortOrder) []models.Place {
	out := make([]models.Place, len(places))
	copy(out, places)

	switch order {
	case models.SortByRating:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Rating > out[j].Rating
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Name < out[j].Name
		})
	}
	return out
}

// Changes describes how one list of places turned into another.
type Changes struct {
	Inserted []int64 `json:"inserted,omitempty"`
	Removed  []int64 `json:"removed,omitempty"`
	Changed  []int64 `json:"changed,omitempty"`
	// Moved is set when the places present in both lists appear in a
	// different relative order.
	Moved bool `json:"moved,omitempty"`
}

// Empty reports whether the lists were identical.
func (c Changes) Empty() bool {
	return len(c.Inserted) == 0 && len(c.Removed) == 0 && len(c.Changed) == 0 && !c.Moved
}

// Diff compares old and cur by place ID. Records with the same ID but any
// differing field are reported as changed. When an ID repeats within a list
// only its first occurrence counts.
func Diff(old, cur []models.Place) Changes {
	var c Changes

	oldByID := make(map[int64]models.Place, len(old))
	for _, p := range old {
		if _, dup := oldByID[p.ID]; !dup {
			oldByID[p.ID] = p
		}
	}
	newIDs := make(map[int64]struct{}, len(cur))

	var keptNew []int64
	for _, p := range cur {
		if _, dup := newIDs[p.ID]; dup {
			continue
		}
		newIDs[p.ID] = struct{}{}
		prev, ok := oldByID[p.ID]
		if !ok {
			c.Inserted = append(c.Inserted, p.ID)
			continue
		}
		keptNew = append(keptNew, p.ID)
		if !samePlace(prev, p) {
			c.Changed = append(c.Changed, p.ID)
		}
	}

	var keptOld []int64
	seenOld := make(map[int64]struct{}, len(old))
	for _, p := range old {
		if _, dup := seenOld[p.ID]; dup {
			continue
		}
		seenOld[p.ID] = struct{}{}
		if _, ok := newIDs[p.ID]; !ok {
			c.Removed = append(c.Removed, p.ID)
			continue
		}
		keptOld = append(keptOld, p.ID)
	}

	if len(keptOld) != len(keptNew) {
		c.Moved = true
		return c
	}
	for i := range keptOld {
		if keptOld[i] != keptNew[i] {
			c.Moved = true
			break
		}
	}
	return c
}

func samePlace(a, b models.Place) bool {
	if a.Name != b.Name || a.Description != b.Description || a.Location != b.Location ||
		a.Rating != b.Rating || a.Geohash != b.Geohash {
		return false
	}
	if a.HasPhoto() != b.HasPhoto() {
		return false
	}
	return !a.HasPhoto() || *a.PhotoURL == *b.PhotoURL
}
