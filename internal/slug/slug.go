// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug generates URL-friendly category slugs from display names.
package slug

import (
	"regexp"
	"strings"
)

// Separator joins a parent slug and a child segment in generated
// hierarchical slugs.
const Separator = "/"

var (
	// nonAlphanumeric matches anything that isn't a letter, digit, space or hyphen.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	// whitespace matches runs of spaces, tabs and newlines.
	whitespace = regexp.MustCompile(`\s+`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// Generate creates a URL-friendly slug from a display name.
// Example: "Gaming Laptops & Accessories" → "gaming-laptops-accessories"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = strings.ReplaceAll(result, "&", " ")
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = whitespace.ReplaceAllString(result, "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// Child derives a slug for a category named name under parentSlug. The
// result is the parent slug and the generated segment joined by
// Separator, or just the segment for a root.
// Example: Child("/electronics", "Computers") → "/electronics/computers"
func Child(parentSlug, name string) string {
	segment := Generate(name)
	if parentSlug == "" {
		return segment
	}
	return strings.TrimSuffix(parentSlug, Separator) + Separator + segment
}
