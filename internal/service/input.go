// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"bytes"
	"encoding/json"

	"catalog/internal/models"
)

// Field limits enforced on create and update.
const (
	MaxNameLength             = 200
	MaxSlugLength             = 200
	MaxShortDescriptionLength = 500
	MaxKeywords               = 20
)

// CreateCategoryInput is the caller-supplied part of a new category.
// Hierarchy fields other than the parent are derived by the store.
type CreateCategoryInput struct {
	ID               string      `json:"id,omitempty"`
	Slug             string      `json:"slug"`
	Name             string      `json:"name"`
	ShortDescription string      `json:"short_description"`
	FullDescription  *string     `json:"full_description,omitempty"`
	ParentID         *string     `json:"parent_id,omitempty"`
	IsActive         *bool       `json:"is_active,omitempty"`
	DisplayOrder     int         `json:"display_order"`
	SEO              *models.SEO `json:"seo,omitempty"`
}

// UpdateCategoryInput changes an existing category. An empty Name or
// ShortDescription leaves the stored value unchanged. Slug may be omitted
// but not set to empty. ParentID distinguishes omission (no move) from
// null (move to root).
type UpdateCategoryInput struct {
	ID               string         `json:"id"`
	Slug             *string        `json:"slug,omitempty"`
	Name             string         `json:"name,omitempty"`
	ShortDescription string         `json:"short_description,omitempty"`
	FullDescription  OptionalString `json:"full_description"`
	ParentID         OptionalString `json:"parent_id"`
	IsActive         *bool          `json:"is_active,omitempty"`
	DisplayOrder     *int           `json:"display_order,omitempty"`
	SEO              *models.SEO    `json:"seo,omitempty"`
}

// OptionalString is a JSON string field that tells an omitted key from an
// explicit null.
//
//	{}                 → Present=false
//	{"field": null}    → Present=true, Value=nil
//	{"field": "value"} → Present=true, Value="value"
type OptionalString struct {
	Present bool
	Value   *string
}

// Set returns a present OptionalString holding v (nil for null).
func Set(v *string) OptionalString {
	return OptionalString{Present: true, Value: v}
}

// UnmarshalJSON implements json.Unmarshaler. It is only called when the
// key is present.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Present = true
	if string(bytes.TrimSpace(data)) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// MarshalJSON implements json.Marshaler.
func (o OptionalString) MarshalJSON() ([]byte, error) {
	if !o.Present || o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}
