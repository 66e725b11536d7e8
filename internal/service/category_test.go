// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"catalog/internal/cache"
	"catalog/internal/docstore/memstore"
	"catalog/internal/domain"
	"catalog/internal/models"
	"catalog/internal/store"
)

func newTestService(t *testing.T) *CategoryService {
	t.Helper()
	snaps := cache.NewDocSnapshotStore(memstore.New[models.CategoryTreeCache]())
	cs := store.NewCategoryStore(memstore.New[models.Category](models.FieldSlug), snaps, nil)
	tree := cache.NewTreeCache(snaps, cs, nil)
	return NewCategoryService(cs, tree)
}

func mustCreate(t *testing.T, s *CategoryService, in CreateCategoryInput) *models.Category {
	t.Helper()
	c, err := s.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create(%s): %v", in.Slug, err)
	}
	return c
}

func TestCreateDefaults(t *testing.T) {
	s := newTestService(t)
	c := mustCreate(t, s, CreateCategoryInput{
		Slug:             "  electronics ",
		Name:             "Electronics",
		ShortDescription: "Gadgets and devices",
	})

	if c.Slug != "electronics" {
		t.Errorf("slug = %q, want trimmed", c.Slug)
	}
	if !c.IsActive {
		t.Error("is_active should default to true")
	}
	if c.SEO == nil || c.SEO.MetaTitle != "Electronics" || c.SEO.MetaDescription != "Gadgets and devices" {
		t.Errorf("seo defaults = %+v", c.SEO)
	}
	if c.SEO.Keywords == nil || len(c.SEO.Keywords) != 0 {
		t.Errorf("keywords = %#v, want empty slice", c.SEO.Keywords)
	}

	inactive := false
	off := mustCreate(t, s, CreateCategoryInput{
		Slug: "hidden", Name: "Hidden", IsActive: &inactive,
		SEO: &models.SEO{MetaTitle: "Custom", Keywords: []string{"x"}},
	})
	if off.IsActive {
		t.Error("explicit is_active=false ignored")
	}
	if off.SEO.MetaTitle != "Custom" || off.SEO.MetaDescription != "" || len(off.SEO.Keywords) != 1 {
		t.Errorf("explicit seo = %+v", off.SEO)
	}
}

func TestCreateSmartphonesUnderElectronics(t *testing.T) {
	s := newTestService(t)
	e := mustCreate(t, s, CreateCategoryInput{Slug: "electronics", Name: "Electronics"})
	p := mustCreate(t, s, CreateCategoryInput{Slug: "smartphones", Name: "Smartphones", ParentID: &e.ID})

	if p.Level != 1 || len(p.Ancestors) != 1 || p.Ancestors[0] != e.ID {
		t.Errorf("smartphones level=%d ancestors=%v", p.Level, p.Ancestors)
	}
	if p.Path != "Electronics > Smartphones" {
		t.Errorf("path = %q", p.Path)
	}
}

func TestCreateValidation(t *testing.T) {
	s := newTestService(t)
	tooMany := make([]string, MaxKeywords+1)

	tests := []struct {
		name  string
		in    CreateCategoryInput
		field string
	}{
		{"blank name", CreateCategoryInput{Slug: "a", Name: "   "}, "name"},
		{"blank slug", CreateCategoryInput{Name: "A"}, "slug"},
		{"long name", CreateCategoryInput{Slug: "a", Name: strings.Repeat("x", MaxNameLength+1)}, "name"},
		{"negative order", CreateCategoryInput{Slug: "a", Name: "A", DisplayOrder: -1}, "display_order"},
		{"too many keywords", CreateCategoryInput{Slug: "a", Name: "A", SEO: &models.SEO{Keywords: tooMany}}, "seo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(context.Background(), tt.in)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("Create() error = %v, want validation error", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not mention %s", err, tt.field)
			}
		})
	}
}

func TestCreateDuplicateSlug(t *testing.T) {
	s := newTestService(t)
	mustCreate(t, s, CreateCategoryInput{Slug: "shoes", Name: "Shoes"})

	_, err := s.Create(context.Background(), CreateCategoryInput{Slug: "shoes", Name: "More Shoes"})
	if !errors.Is(err, domain.ErrDuplicateSlug) {
		t.Errorf("Create() error = %v, want ErrDuplicateSlug", err)
	}
}

func TestValidateCreateDoesNotWrite(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	root := mustCreate(t, s, CreateCategoryInput{Slug: "root", Name: "Root"})
	missing := "missing"

	tests := []struct {
		name string
		in   CreateCategoryInput
		want error
	}{
		{"valid", CreateCategoryInput{Slug: "new", Name: "New", ParentID: &root.ID}, nil},
		{"duplicate", CreateCategoryInput{Slug: "root", Name: "Root"}, domain.ErrDuplicateSlug},
		{"missing parent", CreateCategoryInput{Slug: "x", Name: "X", ParentID: &missing}, domain.ErrParentNotFound},
		{"invalid", CreateCategoryInput{Slug: "y"}, domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.ValidateCreate(ctx, tt.in)
			if tt.want == nil && err != nil {
				t.Fatalf("ValidateCreate() error = %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("ValidateCreate() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := s.GetBySlug(ctx, "new"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("ValidateCreate wrote a record: %v", err)
	}
}

func TestUpdate(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	root := mustCreate(t, s, CreateCategoryInput{Slug: "root", Name: "Root"})
	c := mustCreate(t, s, CreateCategoryInput{
		Slug: "child", Name: "Child", ShortDescription: "keep me", ParentID: &root.ID,
	})

	order := 5
	got, err := s.Update(ctx, UpdateCategoryInput{ID: c.ID, Name: "", ShortDescription: "", DisplayOrder: &order})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Name != "Child" || got.ShortDescription != "keep me" || got.DisplayOrder != 5 {
		t.Errorf("empty strings should leave fields unchanged: %+v", got)
	}
	if got.IsRoot() {
		t.Error("omitted parent_id moved the category")
	}

	got, err = s.Update(ctx, UpdateCategoryInput{ID: c.ID, ParentID: Set(nil)})
	if err != nil {
		t.Fatalf("Update to root: %v", err)
	}
	if !got.IsRoot() || got.Path != "Child" {
		t.Errorf("null parent_id should move to root: %+v", got)
	}

	empty := ""
	if _, err := s.Update(ctx, UpdateCategoryInput{ID: c.ID, Slug: &empty}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("empty slug error = %v, want validation", err)
	}
	if _, err := s.Update(ctx, UpdateCategoryInput{ID: "missing", Name: "X"}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing id error = %v, want ErrNotFound", err)
	}
}

func TestUpdateInputDecodesParentTriState(t *testing.T) {
	tests := []struct {
		body    string
		present bool
		isNil   bool
	}{
		{`{"id":"x"}`, false, true},
		{`{"id":"x","parent_id":null}`, true, true},
		{`{"id":"x","parent_id":"p"}`, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			var in UpdateCategoryInput
			if err := json.Unmarshal([]byte(tt.body), &in); err != nil {
				t.Fatal(err)
			}
			if in.ParentID.Present != tt.present || (in.ParentID.Value == nil) != tt.isNil {
				t.Errorf("parent_id = %+v", in.ParentID)
			}
		})
	}
}

func TestTreeReflectsWrites(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	e := mustCreate(t, s, CreateCategoryInput{Slug: "electronics", Name: "Electronics"})
	first, err := s.Tree(ctx, false)
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	if len(first.Tree) != 1 {
		t.Fatalf("roots = %d, want 1", len(first.Tree))
	}

	mustCreate(t, s, CreateCategoryInput{Slug: "phones", Name: "Phones", ParentID: &e.ID})
	second, err := s.Tree(ctx, false)
	if err != nil {
		t.Fatalf("Tree: %v", err)
	}
	if second.Version <= first.Version {
		t.Errorf("version %d -> %d after write", first.Version, second.Version)
	}
	if len(second.Tree[e.ID].Children) != 1 {
		t.Errorf("new child missing from rebuilt tree")
	}

	forced, err := s.RebuildTree(ctx)
	if err != nil {
		t.Fatalf("RebuildTree: %v", err)
	}
	if forced.Version <= second.Version {
		t.Errorf("forced rebuild version %d, want > %d", forced.Version, second.Version)
	}
}

func TestListingOperations(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	a := mustCreate(t, s, CreateCategoryInput{Slug: "a", Name: "A"})
	b := mustCreate(t, s, CreateCategoryInput{Slug: "b", Name: "B", ParentID: &a.ID})
	c := mustCreate(t, s, CreateCategoryInput{Slug: "c", Name: "C", ParentID: &b.ID})

	kids, err := s.Children(ctx, a.ID)
	if err != nil || len(kids) != 1 || kids[0].ID != b.ID {
		t.Errorf("Children = %v, %v", kids, err)
	}
	desc, err := s.Descendants(ctx, a.ID)
	if err != nil || len(desc) != 2 {
		t.Errorf("Descendants = %v, %v", desc, err)
	}
	crumbs, err := s.Breadcrumbs(ctx, c.ID)
	if err != nil || len(crumbs) != 3 || crumbs[2].ID != c.ID {
		t.Errorf("Breadcrumbs = %v, %v", crumbs, err)
	}
	if _, err := s.Children(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Children(missing) error = %v", err)
	}

	if err := s.Delete(ctx, a.ID); !errors.Is(err, domain.ErrHasChildren) {
		t.Errorf("Delete(a) error = %v, want ErrHasChildren", err)
	}
	if _, err := s.Move(ctx, a.ID, &c.ID); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Move under descendant error = %v, want validation", err)
	}
}

func TestExportAndReorderValidation(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if _, err := s.Export(ctx, -1, 0); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Export(-1) error = %v", err)
	}
	if _, err := s.Reorder(ctx, "", nil); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Reorder(empty) error = %v", err)
	}

	mustCreate(t, s, CreateCategoryInput{Slug: "a", Name: "A"})
	page, err := s.Export(ctx, 0, 0)
	if err != nil || len(page) != 1 {
		t.Errorf("Export default batch = %v, %v", page, err)
	}
}
