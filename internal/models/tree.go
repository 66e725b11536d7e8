// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// TreeCacheID is the fixed id of the single tree snapshot document.
const TreeCacheID = "category_tree"

// CategoryTreeCache is a versioned, denormalized snapshot of the active
// hierarchy. Tree maps root category ids to their nodes.
//
// A stale document is a tombstone left by an invalidation: it carries the
// version watermark but no tree, and readers treat it as absent.
type CategoryTreeCache struct {
	ID          string                       `json:"id" bson:"id"`
	Version     int64                        `json:"version" bson:"version"`
	LastUpdated time.Time                    `json:"last_updated" bson:"last_updated"`
	Tree        map[string]*CategoryTreeNode `json:"tree" bson:"tree"`
	Stale       bool                         `json:"stale,omitempty" bson:"stale,omitempty"`
}

// CategoryTreeNode is one category in a snapshot, with its active children.
type CategoryTreeNode struct {
	ID           string                       `json:"id" bson:"id"`
	Name         string                       `json:"name" bson:"name"`
	Slug         string                       `json:"slug" bson:"slug"`
	Path         string                       `json:"path" bson:"path"`
	Level        int                          `json:"level" bson:"level"`
	ProductCount int                          `json:"product_count" bson:"product_count"`
	DisplayOrder int                          `json:"display_order" bson:"display_order"`
	Children     map[string]*CategoryTreeNode `json:"children" bson:"children"`
}

// NodeCount returns the number of nodes reachable from the snapshot roots.
func (t *CategoryTreeCache) NodeCount() int {
	n := 0
	var walk func(nodes map[string]*CategoryTreeNode)
	walk = func(nodes map[string]*CategoryTreeNode) {
		for _, node := range nodes {
			n++
			walk(node.Children)
		}
	}
	walk(t.Tree)
	return n
}
