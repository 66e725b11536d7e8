// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package importer

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"catalog/internal/models"
	"catalog/internal/slug"
)

// node is one entry of an import file. Children inherit the node's slug as
// their parent slug.
type node struct {
	models.ImportItem `yaml:",inline"`
	Children          []node `yaml:"children,omitempty"`
}

// document is the mapping form of an import file.
type document struct {
	Categories []node `yaml:"categories"`
}

// Decode reads an import batch in YAML or JSON. The file is either a list of
// items or a mapping with a "categories" list. Items may nest children
// under "children"; a nested item without parent_slug takes its
// enclosing item's slug, and an item without slug gets one generated from
// its name (prefixed by the parent slug).
func Decode(r io.Reader) ([]models.ImportItem, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse import file: %w", err)
	}

	var nodes []node
	content := &root
	if content.Kind == yaml.DocumentNode && len(content.Content) > 0 {
		content = content.Content[0]
	}
	switch content.Kind {
	case yaml.SequenceNode:
		if err := content.Decode(&nodes); err != nil {
			return nil, fmt.Errorf("decode import items: %w", err)
		}
	case yaml.MappingNode:
		var doc document
		if err := content.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode import items: %w", err)
		}
		nodes = doc.Categories
	default:
		return nil, fmt.Errorf("import file must be a list or a mapping with \"categories\"")
	}

	var items []models.ImportItem
	flatten(nodes, "", &items)
	return items, nil
}

func flatten(nodes []node, parentSlug string, out *[]models.ImportItem) {
	for _, n := range nodes {
		item := n.ImportItem
		if item.ParentSlug == "" {
			item.ParentSlug = parentSlug
		}
		if item.Slug == "" && item.Name != "" {
			item.Slug = slug.Child(item.ParentSlug, item.Name)
		}
		*out = append(*out, item)
		flatten(n.Children, item.Slug, out)
	}
}
