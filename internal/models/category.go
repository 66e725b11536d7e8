// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// Document field names shared by every store backend. JSON and BSON tags
// on the models below must match these.
const (
	FieldID           = "id"
	FieldSlug         = "slug"
	FieldName         = "name"
	FieldParentID     = "parent_id"
	FieldAncestors    = "ancestors"
	FieldLevel        = "level"
	FieldIsActive     = "is_active"
	FieldDisplayOrder = "display_order"
	FieldVersion      = "version"
)

// PathSeparator joins ancestor names in a category's display path.
const PathSeparator = " > "

// Category is a node in the product category hierarchy.
// ParentID is the only hierarchy field a caller supplies; Ancestors, Level,
// Path and ChildrenCount are derived by the store.
type Category struct {
	ID               string  `json:"id" bson:"id"`
	Slug             string  `json:"slug" bson:"slug"`
	Name             string  `json:"name" bson:"name"`
	ShortDescription string  `json:"short_description" bson:"short_description"`
	FullDescription  *string `json:"full_description,omitempty" bson:"full_description,omitempty"`

	ParentID  *string  `json:"parent_id,omitempty" bson:"parent_id,omitempty"`
	Ancestors []string `json:"ancestors" bson:"ancestors"`
	Level     int      `json:"level" bson:"level"`
	Path      string   `json:"path" bson:"path"`

	ChildrenCount int  `json:"children_count" bson:"children_count"`
	ProductCount  int  `json:"product_count" bson:"product_count"`
	IsActive      bool `json:"is_active" bson:"is_active"`
	DisplayOrder  int  `json:"display_order" bson:"display_order"`
	SEO           *SEO `json:"seo,omitempty" bson:"seo,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// SEO holds search-engine metadata for a category page.
type SEO struct {
	MetaTitle       string   `json:"meta_title" bson:"meta_title" yaml:"meta_title,omitempty"`
	MetaDescription string   `json:"meta_description" bson:"meta_description" yaml:"meta_description,omitempty"`
	Keywords        []string `json:"keywords" bson:"keywords" yaml:"keywords,omitempty"`
}

// IsRoot reports whether the category has no parent.
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

// ParentIDValue returns the parent id, or "" for a root.
func (c *Category) ParentIDValue() string {
	if c.ParentID == nil {
		return ""
	}
	return *c.ParentID
}

// HasAncestor reports whether id appears in the category's ancestor chain.
func (c *Category) HasAncestor(id string) bool {
	for _, a := range c.Ancestors {
		if a == id {
			return true
		}
	}
	return false
}
