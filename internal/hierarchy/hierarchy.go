// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package hierarchy derives a category's ancestor chain, depth and display
// path from its parent. It performs no I/O: callers resolve the parent and
// the parent's ancestor records beforehand.
package hierarchy

import (
	"strings"

	"catalog/internal/models"
)

// Fields are the derived hierarchy fields of one category.
type Fields struct {
	Ancestors []string
	Level     int
	Path      string
}

// Compute derives the hierarchy fields for a category named selfName placed
// under parent. lineage holds the parent's ancestor records ordered root
// first; only their names are read. A nil parent yields a root.
//
// Compute does not check for cycles. Rejecting a parent that is the category
// itself or one of its descendants is the caller's job (see ContainsCycle).
func Compute(selfName string, parent *models.Category, lineage []models.Category) Fields {
	if parent == nil {
		return Fields{Ancestors: []string{}, Level: 0, Path: selfName}
	}

	ancestors := make([]string, 0, len(parent.Ancestors)+1)
	ancestors = append(ancestors, parent.Ancestors...)
	ancestors = append(ancestors, parent.ID)

	names := make([]string, 0, len(lineage)+2)
	for _, a := range lineage {
		names = append(names, a.Name)
	}
	names = append(names, parent.Name, selfName)

	return Fields{
		Ancestors: ancestors,
		Level:     len(ancestors),
		Path:      strings.Join(names, models.PathSeparator),
	}
}

// Apply copies the fields onto c.
func (f Fields) Apply(c *models.Category) {
	c.Ancestors = f.Ancestors
	c.Level = f.Level
	c.Path = f.Path
}

// Matches reports whether c already carries these fields.
func (f Fields) Matches(c *models.Category) bool {
	if c.Level != f.Level || c.Path != f.Path || len(c.Ancestors) != len(f.Ancestors) {
		return false
	}
	for i := range f.Ancestors {
		if c.Ancestors[i] != f.Ancestors[i] {
			return false
		}
	}
	return true
}

// ContainsCycle reports whether placing category id under parent would
// create a cycle: parent is the category itself or one of its descendants.
func ContainsCycle(id string, parent *models.Category) bool {
	if parent == nil {
		return false
	}
	return parent.ID == id || parent.HasAncestor(id)
}

// Lineage orders records by the ids in chain, skipping ids with no record.
// It turns an unordered lookup result into the root-first list Compute needs.
func Lineage(chain []string, records []models.Category) []models.Category {
	byID := make(map[string]models.Category, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}
	out := make([]models.Category, 0, len(chain))
	for _, id := range chain {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out
}
