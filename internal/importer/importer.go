// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package importer loads batches of categories whose parents are referenced
// by slug, in any order. Items are created parents-first by a dependency
// sort over the batch; items that can never be ordered are reported as a
// circular or unresolvable dependency.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"catalog/internal/domain"
	"catalog/internal/metrics"
	"catalog/internal/models"
	"catalog/internal/service"
)

// CategoryService is the part of the category service the importer drives.
type CategoryService interface {
	Create(ctx context.Context, in service.CreateCategoryInput) (*models.Category, error)
	ValidateCreate(ctx context.Context, in service.CreateCategoryInput) error
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
}

// Importer runs bulk category imports. Imports are processed strictly
// sequentially, one item at a time.
type Importer struct {
	svc     CategoryService
	metrics *metrics.Collector
}

// New creates an importer. m may be nil.
func New(svc CategoryService, m *metrics.Collector) *Importer {
	return &Importer{svc: svc, metrics: m}
}

// run holds the state of one import.
type run struct {
	dryRun  bool
	result  *models.ImportResult
	blocked map[string][]models.ImportItem
	// resolved maps processed slugs to their ids ("" in a dry run).
	resolved map[string]string
	// existing maps parent slugs found in the store to their ids; "" marks
	// a slug looked up and not found.
	existing map[string]string
}

// Import creates items in dependency order. Each item is processed at most
// once; a failing item fails every item waiting on it. With dryRun set no
// writes happen, but ordering, slug uniqueness and parent resolution are
// checked the same way.
//
// The returned error is only set when ctx is cancelled; item failures are
// reported in the result.
func (im *Importer) Import(ctx context.Context, items []models.ImportItem, dryRun bool) (*models.ImportResult, error) {
	r := &run{
		dryRun: dryRun,
		result: &models.ImportResult{
			TotalProcessed: len(items),
			Errors:         []string{},
			DryRun:         dryRun,
			Processed:      []string{},
			Created:        []models.ImportedCategory{},
		},
		blocked:  make(map[string][]models.ImportItem),
		resolved: make(map[string]string),
		existing: make(map[string]string),
	}

	valid, rejected := im.prevalidate(r, items)

	// Partition: an item is ready when its parent is already stored (even
	// if the batch repeats that parent) or when it has none. Otherwise it
	// waits on the parent slug; a slug nothing in the batch provides is
	// reported as unresolvable once the queue drains.
	inBatch := make(map[string]bool, len(valid))
	for _, it := range valid {
		inBatch[it.Slug] = true
	}
	var ready []models.ImportItem
	for _, it := range valid {
		if it.ParentSlug == "" {
			ready = append(ready, it)
			continue
		}
		stored, err := im.lookupStored(ctx, r, it.ParentSlug)
		if err != nil {
			im.fail(r, it.Slug, err)
			im.failDependents(r, it.Slug, err)
			continue
		}
		if stored {
			ready = append(ready, it)
			continue
		}
		r.blocked[it.ParentSlug] = append(r.blocked[it.ParentSlug], it)
	}
	for slug, cause := range rejected {
		if !inBatch[slug] {
			im.failDependents(r, slug, cause)
		}
	}

	for len(ready) > 0 {
		if err := ctx.Err(); err != nil {
			return r.result, err
		}
		item := ready[0]
		ready = ready[1:]

		id, err := im.process(ctx, r, item)
		if err != nil {
			im.fail(r, item.Slug, err)
			im.failDependents(r, item.Slug, err)
			continue
		}

		r.resolved[item.Slug] = id
		r.result.Successful++
		r.result.Processed = append(r.result.Processed, item.Slug)
		if !dryRun {
			r.result.Created = append(r.result.Created, models.ImportedCategory{Slug: item.Slug, ID: id})
		}

		ready = append(ready, r.blocked[item.Slug]...)
		delete(r.blocked, item.Slug)
	}

	// Whatever is still blocked waits on a cycle or on an item that can
	// never be processed.
	var stuck []string
	for _, waiting := range r.blocked {
		for _, it := range waiting {
			stuck = append(stuck, it.Slug)
		}
	}
	if len(stuck) > 0 {
		sort.Strings(stuck)
		depErr := &domain.DependencyError{Slugs: stuck}
		for _, slug := range stuck {
			im.fail(r, slug, depErr)
		}
		r.result.Unresolved = stuck
		slog.Warn("import left items unresolved", "slugs", stuck)
	}

	slog.Info("category import finished",
		"dry_run", dryRun,
		"total", r.result.TotalProcessed,
		"successful", r.result.Successful,
		"failed", r.result.Failed,
	)
	return r.result, nil
}

// prevalidate rejects items with missing fields, repeated slugs or a
// self-referencing parent. It returns the accepted items and, for each
// rejected slug that no accepted item carries, the rejection cause.
func (im *Importer) prevalidate(r *run, items []models.ImportItem) ([]models.ImportItem, map[string]error) {
	valid := make([]models.ImportItem, 0, len(items))
	rejected := make(map[string]error)
	seen := make(map[string]bool, len(items))

	for i, it := range items {
		it.Slug = strings.TrimSpace(it.Slug)
		it.Name = strings.TrimSpace(it.Name)
		it.ParentSlug = strings.TrimSpace(it.ParentSlug)

		var err error
		switch {
		case it.Slug == "":
			im.fail(r, fmt.Sprintf("item %d", i+1), domain.Invalid("slug is required"))
			continue
		case seen[it.Slug]:
			err = domain.Invalid("duplicate slug %q in batch", it.Slug)
		case it.Name == "":
			err = domain.Invalid("name is required")
		case it.ParentSlug == it.Slug:
			err = domain.Invalid("category cannot be its own parent")
		}
		if err != nil {
			im.fail(r, it.Slug, err)
			if !seen[it.Slug] {
				rejected[it.Slug] = err
			}
			continue
		}
		seen[it.Slug] = true
		delete(rejected, it.Slug)
		valid = append(valid, it)
	}
	return valid, rejected
}

// process resolves the item's parent and creates (or validates) it,
// returning the new id.
func (im *Importer) process(ctx context.Context, r *run, item models.ImportItem) (string, error) {
	parentID, err := im.resolveParent(ctx, r, item.ParentSlug)
	if err != nil {
		return "", err
	}

	in := service.CreateCategoryInput{
		Slug:             item.Slug,
		Name:             item.Name,
		ShortDescription: item.ShortDescription,
		FullDescription:  item.FullDescription,
		ParentID:         parentID,
		IsActive:         item.IsActive,
		DisplayOrder:     item.DisplayOrder,
		SEO:              item.SEO,
	}

	if r.dryRun {
		if err := im.svc.ValidateCreate(ctx, in); err != nil {
			return "", err
		}
		im.metrics.ImportItem("validated")
		return "", nil
	}

	c, err := im.svc.Create(ctx, in)
	if err != nil {
		return "", err
	}
	im.metrics.ImportItem("created")
	return c.ID, nil
}

// lookupStored reports whether parentSlug names a stored category,
// remembering the answer for the rest of the run.
func (im *Importer) lookupStored(ctx context.Context, r *run, parentSlug string) (bool, error) {
	if id, ok := r.existing[parentSlug]; ok {
		return id != "", nil
	}
	parent, err := im.svc.GetBySlug(ctx, parentSlug)
	if errors.Is(err, domain.ErrNotFound) {
		r.existing[parentSlug] = ""
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("look up parent %q: %w", parentSlug, err)
	}
	r.existing[parentSlug] = parent.ID
	return true, nil
}

// resolveParent maps a parent slug to an id: first in the store, then
// among items already processed in this batch. In a dry run a batch parent
// has no id yet and resolves to nil.
func (im *Importer) resolveParent(ctx context.Context, r *run, parentSlug string) (*string, error) {
	if parentSlug == "" {
		return nil, nil
	}
	if id := r.existing[parentSlug]; id != "" {
		return &id, nil
	}
	if id, ok := r.resolved[parentSlug]; ok {
		if id == "" {
			return nil, nil
		}
		return &id, nil
	}
	stored, err := im.lookupStored(ctx, r, parentSlug)
	if err != nil {
		return nil, err
	}
	if !stored {
		return nil, fmt.Errorf("%w: no category with slug %q", domain.ErrParentNotFound, parentSlug)
	}
	id := r.existing[parentSlug]
	return &id, nil
}

// failDependents fails every item transitively waiting on slug.
func (im *Importer) failDependents(r *run, slug string, cause error) {
	queue := []string{slug}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		for _, dep := range r.blocked[parent] {
			im.fail(r, dep.Slug, fmt.Errorf("parent %q failed: %w", parent, cause))
			queue = append(queue, dep.Slug)
		}
		delete(r.blocked, parent)
	}
}

func (im *Importer) fail(r *run, slug string, err error) {
	r.result.Failed++
	r.result.Errors = append(r.result.Errors, fmt.Sprintf("%s: %v", slug, err))
	im.metrics.ImportItem("failed")
	slog.Debug("import item failed", "slug", slug, "error", err)
}
