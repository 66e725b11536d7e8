// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package service validates category requests and delegates them to the
// category store and tree cache.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"catalog/internal/cache"
	"catalog/internal/domain"
	"catalog/internal/models"
	"catalog/internal/store"
)

// DefaultExportBatchSize is used when an export request gives no batch size.
const DefaultExportBatchSize = 100

// CategoryService is the entry point for category operations.
type CategoryService struct {
	store     *store.CategoryStore
	tree      *cache.TreeCache
	batchSize int
}

// NewCategoryService creates a new category service.
func NewCategoryService(s *store.CategoryStore, tree *cache.TreeCache) *CategoryService {
	return &CategoryService{store: s, tree: tree, batchSize: DefaultExportBatchSize}
}

// SetExportBatchSize changes the batch size used when an export request
// gives none. Non-positive values are ignored.
func (s *CategoryService) SetExportBatchSize(n int) {
	if n > 0 {
		s.batchSize = n
	}
}

// ExportBatchSize returns the default export batch size.
func (s *CategoryService) ExportBatchSize() int { return s.batchSize }

// Create validates in and stores a new category.
func (s *CategoryService) Create(ctx context.Context, in CreateCategoryInput) (*models.Category, error) {
	c, err := s.prepareCreate(in)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, err
	}
	slog.Info("category created", "id", c.ID, "slug", c.Slug, "parent_id", c.ParentIDValue())
	return c, nil
}

// ValidateCreate runs every check Create would, without writing. The parent
// is only resolved when in.ParentID is set.
func (s *CategoryService) ValidateCreate(ctx context.Context, in CreateCategoryInput) error {
	c, err := s.prepareCreate(in)
	if err != nil {
		return err
	}
	existing, err := s.store.GetBySlug(ctx, c.Slug)
	if err != nil {
		return err
	}
	if existing != nil {
		return &domain.DuplicateSlugError{Slug: c.Slug}
	}
	if c.ParentID != nil {
		parent, err := s.store.Get(ctx, *c.ParentID)
		if err != nil {
			return err
		}
		if parent == nil {
			return fmt.Errorf("%w: %s", domain.ErrParentNotFound, *c.ParentID)
		}
	}
	return nil
}

func (s *CategoryService) prepareCreate(in CreateCategoryInput) (*models.Category, error) {
	in.Slug = strings.TrimSpace(in.Slug)
	in.Name = strings.TrimSpace(in.Name)
	if err := validateCreate(&in); err != nil {
		return nil, err
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	c := &models.Category{
		ID:               in.ID,
		Slug:             in.Slug,
		Name:             in.Name,
		ShortDescription: in.ShortDescription,
		FullDescription:  in.FullDescription,
		ParentID:         in.ParentID,
		IsActive:         active,
		DisplayOrder:     in.DisplayOrder,
		SEO:              defaultSEO(in.SEO, in.Name, in.ShortDescription),
	}
	return c, nil
}

// Get returns the category with the given id.
func (s *CategoryService) Get(ctx context.Context, id string) (*models.Category, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("category %s: %w", id, domain.ErrNotFound)
	}
	return c, nil
}

// GetBySlug returns the category with the given slug.
func (s *CategoryService) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	c, err := s.store.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("category %q: %w", slug, domain.ErrNotFound)
	}
	return c, nil
}

// Update applies in to the stored category.
func (s *CategoryService) Update(ctx context.Context, in UpdateCategoryInput) (*models.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Slug != nil {
		trimmed := strings.TrimSpace(*in.Slug)
		in.Slug = &trimmed
	}
	if err := validateUpdate(&in); err != nil {
		return nil, err
	}

	existing, err := s.Get(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	c := *existing

	if in.Slug != nil {
		c.Slug = *in.Slug
	}
	if in.Name != "" {
		c.Name = in.Name
	}
	if in.ShortDescription != "" {
		c.ShortDescription = in.ShortDescription
	}
	if in.FullDescription.Present {
		c.FullDescription = in.FullDescription.Value
	}
	if in.ParentID.Present {
		c.ParentID = in.ParentID.Value
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
	if in.DisplayOrder != nil {
		c.DisplayOrder = *in.DisplayOrder
	}
	if in.SEO != nil {
		c.SEO = defaultSEO(in.SEO, c.Name, c.ShortDescription)
	}

	if err := s.store.Update(ctx, &c); err != nil {
		return nil, err
	}
	slog.Info("category updated", "id", c.ID, "slug", c.Slug)
	return &c, nil
}

// Delete removes a category without children.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("category deleted", "id", id)
	return nil
}

// Move re-parents a category; a nil parentID makes it a root.
func (s *CategoryService) Move(ctx context.Context, id string, parentID *string) (*models.Category, error) {
	if id == "" {
		return nil, domain.Invalid("id is required")
	}
	c, err := s.store.Move(ctx, id, parentID)
	if err != nil {
		return nil, err
	}
	slog.Info("category moved", "id", id, "parent_id", c.ParentIDValue(), "level", c.Level)
	return c, nil
}

// Children lists direct children; an empty parentID lists roots.
func (s *CategoryService) Children(ctx context.Context, parentID string) ([]models.Category, error) {
	if parentID != "" {
		if _, err := s.Get(ctx, parentID); err != nil {
			return nil, err
		}
	}
	return s.store.Children(ctx, parentID)
}

// Descendants lists every category below id.
func (s *CategoryService) Descendants(ctx context.Context, id string) ([]models.Category, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.store.Descendants(ctx, id)
}

// Ancestors lists the ancestors of id, root first.
func (s *CategoryService) Ancestors(ctx context.Context, id string) ([]models.Category, error) {
	return s.store.Ancestors(ctx, id)
}

// Breadcrumbs lists the ancestors of id followed by the category itself.
func (s *CategoryService) Breadcrumbs(ctx context.Context, id string) ([]models.Category, error) {
	return s.store.Breadcrumbs(ctx, id)
}

// Reorder sets the display order of parentID's children. It returns the
// ids that were skipped because they are not direct children.
func (s *CategoryService) Reorder(ctx context.Context, parentID string, orderedIDs []string) ([]string, error) {
	if len(orderedIDs) == 0 {
		return nil, domain.Invalid("ids must not be empty")
	}
	if parentID != "" {
		if _, err := s.Get(ctx, parentID); err != nil {
			return nil, err
		}
	}
	skipped, err := s.store.ReorderChildren(ctx, parentID, orderedIDs)
	if err != nil {
		return nil, err
	}
	if len(skipped) > 0 {
		slog.Warn("reorder skipped non-children", "parent_id", parentID, "skipped", skipped)
	}
	return skipped, nil
}

// Export returns one page of all categories, shallowest first.
func (s *CategoryService) Export(ctx context.Context, batchSize, offset int) ([]models.Category, error) {
	if batchSize < 0 || offset < 0 {
		return nil, domain.Invalid("batch_size and offset must not be negative")
	}
	if batchSize == 0 {
		batchSize = s.batchSize
	}
	return s.store.ExportBatch(ctx, batchSize, offset)
}

// ExportAll returns every category, read in batches of batchSize.
func (s *CategoryService) ExportAll(ctx context.Context, batchSize int) ([]models.Category, error) {
	if batchSize <= 0 {
		batchSize = s.batchSize
	}
	return s.store.ExportAll(ctx, batchSize)
}

// Tree returns the cached tree snapshot, rebuilding it when absent or when
// forceRebuild is set.
func (s *CategoryService) Tree(ctx context.Context, forceRebuild bool) (*models.CategoryTreeCache, error) {
	if forceRebuild {
		return s.tree.Rebuild(ctx)
	}
	return s.tree.GetOrRebuild(ctx)
}

// RebuildTree forces a fresh tree snapshot.
func (s *CategoryService) RebuildTree(ctx context.Context) (*models.CategoryTreeCache, error) {
	return s.Tree(ctx, true)
}

// Repair recomputes derived hierarchy fields of every category.
func (s *CategoryService) Repair(ctx context.Context) (int, error) {
	fixed, err := s.store.Repair(ctx)
	var dep *domain.DependencyError
	if errors.As(err, &dep) {
		slog.Error("categories in a parent cycle could not be repaired", "slugs", dep.Slugs)
	}
	return fixed, err
}

func validateCreate(in *CreateCategoryInput) error {
	err := validation.ValidateStruct(in,
		validation.Field(&in.Slug, validation.Required, validation.Length(1, MaxSlugLength)),
		validation.Field(&in.Name, validation.Required, validation.Length(1, MaxNameLength)),
		validation.Field(&in.ShortDescription, validation.Length(0, MaxShortDescriptionLength)),
		validation.Field(&in.DisplayOrder, validation.Min(0)),
		validation.Field(&in.SEO, validation.By(validateSEO)),
	)
	return asValidation(err)
}

func validateUpdate(in *UpdateCategoryInput) error {
	err := validation.ValidateStruct(in,
		validation.Field(&in.ID, validation.Required),
		validation.Field(&in.Slug, validation.NilOrNotEmpty, validation.Length(1, MaxSlugLength)),
		validation.Field(&in.Name, validation.Length(0, MaxNameLength)),
		validation.Field(&in.ShortDescription, validation.Length(0, MaxShortDescriptionLength)),
		validation.Field(&in.DisplayOrder, validation.Min(0)),
		validation.Field(&in.SEO, validation.By(validateSEO)),
	)
	return asValidation(err)
}

func validateSEO(value any) error {
	seo, _ := value.(*models.SEO)
	if seo == nil {
		return nil
	}
	if len(seo.Keywords) > MaxKeywords {
		return fmt.Errorf("at most %d keywords are allowed", MaxKeywords)
	}
	return nil
}

// asValidation converts ozzo validation errors into a domain
// ValidationError; other errors pass through.
func asValidation(err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return &domain.ValidationError{Message: verrs.Error()}
	}
	return err
}

// defaultSEO fills missing SEO fields from the category's name and short
// description.
func defaultSEO(in *models.SEO, name, shortDescription string) *models.SEO {
	seo := models.SEO{}
	if in != nil {
		seo = *in
	}
	if seo.MetaTitle == "" {
		seo.MetaTitle = name
	}
	if seo.MetaDescription == "" {
		seo.MetaDescription = shortDescription
	}
	if seo.Keywords == nil {
		seo.Keywords = []string{}
	}
	return &seo
}
