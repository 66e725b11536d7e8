// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// ImportItem describes one category of a bulk import. The parent is
// referenced by slug, either an existing category or another item of the
// same batch.
type ImportItem struct {
	Slug             string  `json:"slug" yaml:"slug"`
	Name             string  `json:"name" yaml:"name"`
	ParentSlug       string  `json:"parent_slug,omitempty" yaml:"parent_slug,omitempty"`
	ShortDescription string  `json:"short_description,omitempty" yaml:"short_description,omitempty"`
	FullDescription  *string `json:"full_description,omitempty" yaml:"full_description,omitempty"`
	DisplayOrder     int     `json:"display_order,omitempty" yaml:"display_order,omitempty"`
	IsActive         *bool   `json:"is_active,omitempty" yaml:"is_active,omitempty"`
	SEO              *SEO    `json:"seo,omitempty" yaml:"seo,omitempty"`
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Successful     int      `json:"successful"`
	Failed         int      `json:"failed"`
	TotalProcessed int      `json:"total_processed"`
	Errors         []string `json:"errors"`

	DryRun     bool               `json:"dry_run"`
	Processed  []string           `json:"processed"`
	Created    []ImportedCategory `json:"created"`
	Unresolved []string           `json:"unresolved,omitempty"`
}

// ImportedCategory maps an imported slug to the id it was stored under.
type ImportedCategory struct {
	Slug string `json:"slug"`
	ID   string `json:"id"`
}
