// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"catalog/internal/docstore"
	"catalog/internal/domain"
	"catalog/internal/hierarchy"
	"catalog/internal/models"
)

// Invalidator drops the derived category tree snapshot.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// CategoryStore manages categories in a document collection and keeps the
// derived hierarchy fields (ancestors, level, path, children_count)
// consistent across writes.
type CategoryStore struct {
	coll docstore.Collection[models.Category]
	tree Invalidator
	log  *CacheLogStore
}

// NewCategoryStore returns a new CategoryStore. tree and log may be nil.
func NewCategoryStore(coll docstore.Collection[models.Category], tree Invalidator, log *CacheLogStore) *CategoryStore {
	return &CategoryStore{coll: coll, tree: tree, log: log}
}

var (
	siblingOrder = []docstore.SortField{docstore.Asc(models.FieldDisplayOrder), docstore.Asc(models.FieldName)}
	exportOrder  = []docstore.SortField{
		docstore.Asc(models.FieldLevel), docstore.Asc(models.FieldDisplayOrder), docstore.Asc(models.FieldName),
	}
)

// Get retrieves a category by id. Returns nil if not found.
func (s *CategoryStore) Get(ctx context.Context, id string) (*models.Category, error) {
	c, err := s.coll.FindOne(ctx, docstore.Where(docstore.Eq(models.FieldID, id)))
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// GetBySlug retrieves a category by slug. Returns nil if not found.
func (s *CategoryStore) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	c, err := s.coll.FindOne(ctx, docstore.Where(docstore.Eq(models.FieldSlug, slug)))
	if err != nil {
		return nil, fmt.Errorf("find category by slug: %w", err)
	}
	return c, nil
}

// Count returns the total number of categories.
func (s *CategoryStore) Count(ctx context.Context) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return n, nil
}

// Create inserts c, assigning an id when empty and deriving its hierarchy
// fields from the parent. Only ParentID is read from the caller's hierarchy
// fields.
func (s *CategoryStore) Create(ctx context.Context, c *models.Category) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	} else {
		taken, err := s.Get(ctx, c.ID)
		if err != nil {
			return err
		}
		if taken != nil {
			return &domain.DuplicateIDError{ID: c.ID}
		}
	}
	normalizeParent(c)

	existing, err := s.GetBySlug(ctx, c.Slug)
	if err != nil {
		return err
	}
	if existing != nil {
		return &domain.DuplicateSlugError{Slug: c.Slug}
	}

	parent, lineage, err := s.resolveParent(ctx, c.ParentID)
	if err != nil {
		return err
	}
	hierarchy.Compute(c.Name, parent, lineage).Apply(c)

	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	c.ChildrenCount = 0

	if err := s.coll.InsertOne(ctx, c); err != nil {
		if errors.Is(err, docstore.ErrDuplicateKey) {
			return s.duplicateKey(ctx, c)
		}
		return fmt.Errorf("create category: %w", err)
	}

	if parent != nil {
		s.recount(ctx, parent.ID)
	}
	s.invalidate(ctx, c.ID, "create")
	return nil
}

// Update replaces the stored record with c. When the parent or name
// changes, hierarchy fields are recomputed for c and every descendant.
// created_at, children_count and product_count are kept from the stored
// record.
func (s *CategoryStore) Update(ctx context.Context, c *models.Category) error {
	existing, err := s.Get(ctx, c.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("category %s: %w", c.ID, domain.ErrNotFound)
	}
	normalizeParent(c)

	if c.Slug != existing.Slug {
		other, err := s.GetBySlug(ctx, c.Slug)
		if err != nil {
			return err
		}
		if other != nil && other.ID != c.ID {
			return &domain.DuplicateSlugError{Slug: c.Slug}
		}
	}

	parentChanged := c.ParentIDValue() != existing.ParentIDValue()
	nameChanged := c.Name != existing.Name
	restructure := parentChanged || nameChanged

	var parent *models.Category
	var lineage []models.Category
	if restructure {
		parent, lineage, err = s.resolveParent(ctx, c.ParentID)
		if err != nil {
			return err
		}
		if hierarchy.ContainsCycle(c.ID, parent) {
			return domain.Invalid("category %q cannot be moved under itself or one of its descendants", c.Slug)
		}
		hierarchy.Compute(c.Name, parent, lineage).Apply(c)
	} else {
		c.Ancestors = existing.Ancestors
		c.Level = existing.Level
		c.Path = existing.Path
	}

	c.CreatedAt = existing.CreatedAt
	c.ChildrenCount = existing.ChildrenCount
	c.ProductCount = existing.ProductCount
	c.UpdatedAt = time.Now().UTC()

	if _, err := s.coll.ReplaceOne(ctx, docstore.Where(docstore.Eq(models.FieldID, c.ID)), c); err != nil {
		if errors.Is(err, docstore.ErrDuplicateKey) {
			return &domain.DuplicateSlugError{Slug: c.Slug}
		}
		return fmt.Errorf("update category: %w", err)
	}

	if restructure {
		known := make(map[string]models.Category, len(lineage)+1)
		for _, a := range lineage {
			known[a.ID] = a
		}
		if parent != nil {
			known[parent.ID] = *parent
		}
		n, err := s.cascade(ctx, c, known)
		if err != nil {
			return fmt.Errorf("cascade hierarchy of %s: %w", c.ID, err)
		}
		if n > 0 {
			slog.Info("category descendants updated", "id", c.ID, "updated", n)
		}
	}
	if parentChanged {
		if old := existing.ParentIDValue(); old != "" {
			s.recount(ctx, old)
		}
		if parent != nil {
			s.recount(ctx, parent.ID)
		}
	}
	s.invalidate(ctx, c.ID, "update")
	return nil
}

// Move re-parents a category. A nil newParentID makes it a root.
func (s *CategoryStore) Move(ctx context.Context, id string, newParentID *string) (*models.Category, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("category %s: %w", id, domain.ErrNotFound)
	}
	moved := *existing
	moved.ParentID = newParentID
	if err := s.Update(ctx, &moved); err != nil {
		return nil, err
	}
	return &moved, nil
}

// Delete removes a childless category.
func (s *CategoryStore) Delete(ctx context.Context, id string) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("category %s: %w", id, domain.ErrNotFound)
	}

	children, err := s.coll.CountDocuments(ctx, docstore.Where(docstore.Eq(models.FieldParentID, id)))
	if err != nil {
		return fmt.Errorf("count children: %w", err)
	}
	if children > 0 {
		return fmt.Errorf("category %q has %d children: %w", existing.Slug, children, domain.ErrHasChildren)
	}

	if _, err := s.coll.DeleteOne(ctx, docstore.Where(docstore.Eq(models.FieldID, id))); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	if parentID := existing.ParentIDValue(); parentID != "" {
		s.recount(ctx, parentID)
	}
	s.invalidate(ctx, id, "delete")
	return nil
}

// Children returns the direct children of parentID ordered by display
// order then name. An empty parentID lists the roots.
func (s *CategoryStore) Children(ctx context.Context, parentID string) ([]models.Category, error) {
	var cond docstore.Cond
	if parentID == "" {
		cond = docstore.Eq(models.FieldParentID, nil)
	} else {
		cond = docstore.Eq(models.FieldParentID, parentID)
	}
	items, err := s.coll.Find(ctx, docstore.Where(cond), docstore.FindOptions{Sort: siblingOrder})
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	return items, nil
}

// Descendants returns every category below id, shallowest first.
func (s *CategoryStore) Descendants(ctx context.Context, id string) ([]models.Category, error) {
	items, err := s.coll.Find(ctx,
		docstore.Where(docstore.Contains(models.FieldAncestors, id)),
		docstore.FindOptions{Sort: exportOrder},
	)
	if err != nil {
		return nil, fmt.Errorf("list descendants: %w", err)
	}
	return items, nil
}

// Ancestors returns the ancestor records of id, root first.
func (s *CategoryStore) Ancestors(ctx context.Context, id string) ([]models.Category, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("category %s: %w", id, domain.ErrNotFound)
	}
	return s.lineage(ctx, c.Ancestors)
}

// Breadcrumbs returns the ancestors of id followed by the category itself.
func (s *CategoryStore) Breadcrumbs(ctx context.Context, id string) ([]models.Category, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("category %s: %w", id, domain.ErrNotFound)
	}
	trail, err := s.lineage(ctx, c.Ancestors)
	if err != nil {
		return nil, err
	}
	return append(trail, *c), nil
}

// ReorderChildren assigns display_order 1..N to the direct children of
// parentID in the given order. Ids that are not direct children (or repeat)
// are skipped and returned.
func (s *CategoryStore) ReorderChildren(ctx context.Context, parentID string, orderedIDs []string) ([]string, error) {
	children, err := s.Children(ctx, parentID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*models.Category, len(children))
	for i := range children {
		byID[children[i].ID] = &children[i]
	}

	var skipped []string
	order := 1
	now := time.Now().UTC()
	for _, id := range orderedIDs {
		c, ok := byID[id]
		if !ok {
			skipped = append(skipped, id)
			continue
		}
		delete(byID, id)

		if c.DisplayOrder != order {
			c.DisplayOrder = order
			c.UpdatedAt = now
			if _, err := s.coll.ReplaceOne(ctx, docstore.Where(docstore.Eq(models.FieldID, id)), c); err != nil {
				return skipped, fmt.Errorf("reorder category %s: %w", id, err)
			}
		}
		order++
	}

	s.invalidate(ctx, parentID, "reorder")
	return skipped, nil
}

// ExportBatch returns one page of all categories ordered by level, display
// order and name.
func (s *CategoryStore) ExportBatch(ctx context.Context, batchSize, offset int) ([]models.Category, error) {
	items, err := s.coll.Find(ctx, nil, docstore.FindOptions{
		Sort:  exportOrder,
		Limit: int64(batchSize),
		Skip:  int64(offset),
	})
	if err != nil {
		return nil, fmt.Errorf("export categories: %w", err)
	}
	return items, nil
}

// ExportAll pages through every category in batches of batchSize.
func (s *CategoryStore) ExportAll(ctx context.Context, batchSize int) ([]models.Category, error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	var all []models.Category
	for offset := 0; ; offset += batchSize {
		batch, err := s.ExportBatch(ctx, batchSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < batchSize {
			return all, nil
		}
	}
}

// ListActive returns the active categories ordered by level then display
// order, the order a tree rebuild consumes them in.
func (s *CategoryStore) ListActive(ctx context.Context) ([]models.Category, error) {
	items, err := s.coll.Find(ctx,
		docstore.Where(docstore.Eq(models.FieldIsActive, true)),
		docstore.FindOptions{Sort: exportOrder},
	)
	if err != nil {
		return nil, fmt.Errorf("list active categories: %w", err)
	}
	return items, nil
}

// RecountChildren sets children_count of id from the number of records
// referencing it as parent.
func (s *CategoryStore) RecountChildren(ctx context.Context, id string) error {
	n, err := s.coll.CountDocuments(ctx, docstore.Where(docstore.Eq(models.FieldParentID, id)))
	if err != nil {
		return fmt.Errorf("count children: %w", err)
	}
	c, err := s.Get(ctx, id)
	if err != nil || c == nil {
		return err
	}
	if c.ChildrenCount == int(n) {
		return nil
	}
	c.ChildrenCount = int(n)
	if _, err := s.coll.ReplaceOne(ctx, docstore.Where(docstore.Eq(models.FieldID, id)), c); err != nil {
		return fmt.Errorf("update children count: %w", err)
	}
	return nil
}

// Repair recomputes ancestors, level, path and children_count of every
// category from the parent_id graph and returns how many records changed.
// A parent_id pointing at a missing record is cleared. Records caught in a
// parent_id cycle cannot be placed and are reported in the error.
func (s *CategoryStore) Repair(ctx context.Context) (int, error) {
	all, err := s.coll.Find(ctx, nil, docstore.FindOptions{Sort: exportOrder})
	if err != nil {
		return 0, fmt.Errorf("load categories: %w", err)
	}

	byID := make(map[string]*models.Category, len(all))
	for i := range all {
		byID[all[i].ID] = &all[i]
	}
	children := make(map[string][]*models.Category)
	var queue []*models.Category
	changed := make(map[string]bool)

	for i := range all {
		c := &all[i]
		pid := c.ParentIDValue()
		if pid != "" && byID[pid] == nil {
			slog.Warn("clearing dangling parent reference", "id", c.ID, "parent_id", pid)
			c.ParentID = nil
			changed[c.ID] = true
			pid = ""
		}
		if pid == "" {
			queue = append(queue, c)
			continue
		}
		children[pid] = append(children[pid], c)
	}

	placed := make(map[string]bool, len(all))
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		placed[c.ID] = true

		var parent *models.Category
		var lineage []models.Category
		if pid := c.ParentIDValue(); pid != "" {
			parent = byID[pid]
			lineage = make([]models.Category, 0, len(parent.Ancestors))
			for _, a := range parent.Ancestors {
				lineage = append(lineage, *byID[a])
			}
		}
		fields := hierarchy.Compute(c.Name, parent, lineage)
		if !fields.Matches(c) {
			fields.Apply(c)
			changed[c.ID] = true
		}
		if n := len(children[c.ID]); c.ChildrenCount != n {
			c.ChildrenCount = n
			changed[c.ID] = true
		}
		queue = append(queue, children[c.ID]...)
	}

	var unplaced []string
	for i := range all {
		if !placed[all[i].ID] {
			unplaced = append(unplaced, all[i].Slug)
		}
	}

	fixed := 0
	now := time.Now().UTC()
	for i := range all {
		c := &all[i]
		if !changed[c.ID] {
			continue
		}
		c.UpdatedAt = now
		if _, err := s.coll.ReplaceOne(ctx, docstore.Where(docstore.Eq(models.FieldID, c.ID)), c); err != nil {
			return fixed, fmt.Errorf("repair category %s: %w", c.ID, err)
		}
		fixed++
	}
	if fixed > 0 {
		s.invalidate(ctx, "", "repair")
	}
	slog.Info("category hierarchy repaired", "checked", len(all), "fixed", fixed)

	if len(unplaced) > 0 {
		return fixed, &domain.DependencyError{Slugs: unplaced}
	}
	return fixed, nil
}

// duplicateKey names the unique field a racing insert of c collided on.
func (s *CategoryStore) duplicateKey(ctx context.Context, c *models.Category) error {
	if taken, err := s.Get(ctx, c.ID); err == nil && taken != nil && taken.Slug != c.Slug {
		return &domain.DuplicateIDError{ID: c.ID}
	}
	return &domain.DuplicateSlugError{Slug: c.Slug}
}

// resolveParent loads the parent and its ancestor records. A nil id
// resolves to no parent.
func (s *CategoryStore) resolveParent(ctx context.Context, id *string) (*models.Category, []models.Category, error) {
	if id == nil {
		return nil, nil, nil
	}
	parent, err := s.Get(ctx, *id)
	if err != nil {
		return nil, nil, err
	}
	if parent == nil {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrParentNotFound, *id)
	}
	lineage, err := s.lineage(ctx, parent.Ancestors)
	if err != nil {
		return nil, nil, err
	}
	return parent, lineage, nil
}

// lineage loads the records of an ancestor chain, keeping chain order.
func (s *CategoryStore) lineage(ctx context.Context, chain []string) ([]models.Category, error) {
	if len(chain) == 0 {
		return []models.Category{}, nil
	}
	records, err := s.coll.Find(ctx,
		docstore.Where(docstore.In(models.FieldID, docstore.Values(chain)...)),
		docstore.FindOptions{},
	)
	if err != nil {
		return nil, fmt.Errorf("load ancestors: %w", err)
	}
	return hierarchy.Lineage(chain, records), nil
}

// cascade recomputes the hierarchy fields of every descendant of root,
// parents before children. known holds root's ancestor records.
func (s *CategoryStore) cascade(ctx context.Context, root *models.Category, known map[string]models.Category) (int, error) {
	descendants, err := s.Descendants(ctx, root.ID)
	if err != nil {
		return 0, err
	}
	known[root.ID] = *root

	updated := 0
	now := time.Now().UTC()
	for i := range descendants {
		d := &descendants[i]
		parent, ok := known[d.ParentIDValue()]
		if !ok {
			slog.Warn("descendant parent not in subtree, skipping", "id", d.ID, "parent_id", d.ParentIDValue())
			continue
		}
		lineage := make([]models.Category, 0, len(parent.Ancestors))
		for _, a := range parent.Ancestors {
			lineage = append(lineage, known[a])
		}
		fields := hierarchy.Compute(d.Name, &parent, lineage)
		if !fields.Matches(d) {
			fields.Apply(d)
			d.UpdatedAt = now
			if _, err := s.coll.ReplaceOne(ctx, docstore.Where(docstore.Eq(models.FieldID, d.ID)), d); err != nil {
				return updated, fmt.Errorf("update descendant %s: %w", d.ID, err)
			}
			updated++
		}
		known[d.ID] = *d
	}
	return updated, nil
}

// recount refreshes a parent's children_count. Failures are logged and
// left for Repair.
func (s *CategoryStore) recount(ctx context.Context, id string) {
	if err := s.RecountChildren(ctx, id); err != nil {
		slog.Warn("children count refresh failed", "id", id, "error", err)
	}
}

// invalidate drops the tree snapshot after a write. Failures are logged,
// not returned: the write itself succeeded.
func (s *CategoryStore) invalidate(ctx context.Context, id, action string) {
	if s.tree != nil {
		if err := s.tree.Invalidate(ctx); err != nil {
			slog.Warn("tree cache invalidation failed", "id", id, "action", action, "error", err)
		}
	}
	if s.log != nil {
		s.log.Log(ctx, id, action)
	}
}

// normalizeParent treats an empty parent id as no parent.
func normalizeParent(c *models.Category) {
	if c.ParentID != nil && *c.ParentID == "" {
		c.ParentID = nil
	}
	if c.Ancestors == nil {
		c.Ancestors = []string{}
	}
}
