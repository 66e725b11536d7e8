// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package domain defines the error taxonomy shared by the category store,
// service, importer and transport.
package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sentinel errors. Use with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateSlug      = errors.New("slug already exists")
	ErrDuplicateID        = errors.New("id already exists")
	ErrParentNotFound     = errors.New("parent category not found")
	ErrHasChildren        = errors.New("category has children")
	ErrCircularDependency = errors.New("circular or unresolvable dependency")
	ErrValidation         = errors.New("validation failed")
)

// ValidationError reports caller-correctable input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Is lets errors.Is match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError from a format string.
func Invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// DuplicateSlugError names the slug that collided.
type DuplicateSlugError struct {
	Slug string
}

func (e *DuplicateSlugError) Error() string {
	return fmt.Sprintf("a category with slug %q already exists", e.Slug)
}

// Is lets errors.Is match ErrDuplicateSlug.
func (e *DuplicateSlugError) Is(target error) bool {
	return target == ErrDuplicateSlug
}

// DuplicateIDError names a caller-supplied id that is already taken.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("a category with id %q already exists", e.ID)
}

// Is lets errors.Is match ErrDuplicateID.
func (e *DuplicateIDError) Is(target error) bool {
	return target == ErrDuplicateID
}

// DependencyError lists the import items that could not be ordered.
type DependencyError struct {
	Slugs []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("circular or unresolvable dependency among: %s", joinQuoted(e.Slugs))
}

// Is lets errors.Is match ErrCircularDependency.
func (e *DependencyError) Is(target error) bool {
	return target == ErrCircularDependency
}

func joinQuoted(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = strconv.Quote(s)
	}
	return strings.Join(quoted, ", ")
}
