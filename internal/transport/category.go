// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package transport

import (
	"context"
	"strings"

	"catalog/internal/domain"
	"catalog/internal/importer"
	"catalog/internal/models"
	"catalog/internal/service"
)

// Category subjects.
const (
	SubjectCreate      = "category.create"
	SubjectGet         = "category.get"
	SubjectGetBySlug   = "category.get_by_slug"
	SubjectUpdate      = "category.update"
	SubjectDelete      = "category.delete"
	SubjectExport      = "category.export"
	SubjectImport      = "category.import"
	SubjectTree        = "category.tree"
	SubjectMove        = "category.move"
	SubjectChildren    = "category.children"
	SubjectDescendants = "category.descendants"
	SubjectAncestors   = "category.ancestors"
	SubjectBreadcrumbs = "category.breadcrumbs"
	SubjectReorder     = "category.reorder"
	SubjectTreeRebuild = "category.tree.rebuild"
	SubjectRepair      = "category.repair"
)

// Request payloads.
type (
	IDRequest struct {
		ID string `json:"id"`
	}
	SlugRequest struct {
		Slug string `json:"slug"`
	}
	ExportRequest struct {
		BatchSize int  `json:"batch_size"`
		Offset    int  `json:"offset"`
		All       bool `json:"all"`
	}
	ImportRequest struct {
		Categories []models.ImportItem `json:"categories"`
		DryRun     bool                `json:"dry_run"`
	}
	TreeRequest struct {
		ForceRebuild bool `json:"force_rebuild"`
	}
	MoveRequest struct {
		ID       string  `json:"id"`
		ParentID *string `json:"parent_id"`
	}
	ChildrenRequest struct {
		// ParentID selects the children of a category; empty selects roots.
		ParentID string `json:"parent_id"`
	}
	ReorderRequest struct {
		ParentID   string   `json:"parent_id"`
		OrderedIDs []string `json:"ordered_ids"`
	}
)

// Response payloads that are not plain models.
type (
	DeleteResponse struct {
		ID      string `json:"id"`
		Deleted bool   `json:"deleted"`
	}
	ListResponse struct {
		Categories []models.Category `json:"categories"`
		Count      int               `json:"count"`
	}
	ExportResponse struct {
		Categories []models.Category `json:"categories"`
		Count      int               `json:"count"`
		BatchSize  int               `json:"batch_size"`
		Offset     int               `json:"offset"`
	}
	ReorderResponse struct {
		Skipped []string `json:"skipped"`
	}
	RepairResponse struct {
		Repaired int `json:"repaired"`
	}
)

// categoryHandlers serves the category subjects.
type categoryHandlers struct {
	codec    Codec
	svc      *service.CategoryService
	importer *importer.Importer
}

// RegisterCategoryHandlers registers every category subject on s.
func RegisterCategoryHandlers(s *Server, svc *service.CategoryService, im *importer.Importer) {
	h := &categoryHandlers{codec: s.Codec(), svc: svc, importer: im}

	s.Handle(SubjectCreate, h.create)
	s.Handle(SubjectGet, h.get)
	s.Handle(SubjectGetBySlug, h.getBySlug)
	s.Handle(SubjectUpdate, h.update)
	s.Handle(SubjectDelete, h.delete)
	s.Handle(SubjectExport, h.export)
	s.Handle(SubjectImport, h.importBatch)
	s.Handle(SubjectTree, h.tree)
	s.Handle(SubjectMove, h.move)
	s.Handle(SubjectChildren, h.children)
	s.Handle(SubjectDescendants, h.listByID(svc.Descendants))
	s.Handle(SubjectAncestors, h.listByID(svc.Ancestors))
	s.Handle(SubjectBreadcrumbs, h.listByID(svc.Breadcrumbs))
	s.Handle(SubjectReorder, h.reorder)
	s.Handle(SubjectTreeRebuild, h.rebuild)
	s.Handle(SubjectRepair, h.repair)
}

func (h *categoryHandlers) create(ctx context.Context, payload []byte) (any, error) {
	var in service.CreateCategoryInput
	if err := h.codec.Unmarshal(payload, &in); err != nil {
		return nil, err
	}
	return h.svc.Create(ctx, in)
}

func (h *categoryHandlers) get(ctx context.Context, payload []byte) (any, error) {
	id, err := h.decodeID(payload)
	if err != nil {
		return nil, err
	}
	return h.svc.Get(ctx, id)
}

func (h *categoryHandlers) getBySlug(ctx context.Context, payload []byte) (any, error) {
	var req SlugRequest
	if err := h.codec.Unmarshal(payload, &req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Slug) == "" {
		return nil, domain.Invalid("slug is required")
	}
	return h.svc.GetBySlug(ctx, strings.TrimSpace(req.Slug))
}

func (h *categoryHandlers) update(ctx context.Context, payload []byte) (any, error) {
	var in service.UpdateCategoryInput
	if err := h.codec.Unmarshal(payload, &in); err != nil {
		return nil, err
	}
	return h.svc.Update(ctx, in)
}

func (h *categoryHandlers) delete(ctx context.Context, payload []byte) (any, error) {
	id, err := h.decodeID(payload)
	if err != nil {
		return nil, err
	}
	if err := h.svc.Delete(ctx, id); err != nil {
		return nil, err
	}
	return DeleteResponse{ID: id, Deleted: true}, nil
}

func (h *categoryHandlers) export(ctx context.Context, payload []byte) (any, error) {
	var req ExportRequest
	if err := h.codec.Unmarshal(payload, &req); err != nil {
		return nil, err
	}

	var (
		cats []models.Category
		err  error
	)
	if req.All {
		cats, err = h.svc.ExportAll(ctx, req.BatchSize)
	} else {
		cats, err = h.svc.Export(ctx, req.BatchSize, req.Offset)
	}
	if err != nil {
		return nil, err
	}
	if req.BatchSize == 0 {
		req.BatchSize = h.svc.ExportBatchSize()
	}
	return ExportResponse{Categories: nonNil(cats), Count: len(cats), BatchSize: req.BatchSize, Offset: req.Offset}, nil
}

func (h *categoryHandlers) importBatch(ctx context.Context, payload []byte) (any, error) {
	var req ImportRequest
	if err := h.codec.Unmarshal(payload, &req); err != nil {
		return nil, err
	}
	if len(req.Categories) == 0 {
		return nil, domain.Invalid("categories must contain at least one item")
	}
	return h.importer.Import(ctx, req.Categories, req.DryRun)
}

func (h *categoryHandlers) tree(ctx context.Context, payload []byte) (any, error) {
	var req TreeRequest
	if err := h.codec.Unmarshal(payload, &req); err != nil {
		return nil, err
	}
	return h.svc.Tree(ctx, req.ForceRebuild)
}

func (h *categoryHandlers) rebuild(ctx context.Context, _ []byte) (any, error) {
	return h.svc.RebuildTree(ctx)
}

func (h *categoryHandlers) move(ctx context.Context, payload []byte) (any, error) {
	var req MoveRequest
	if err := h.codec.Unmarshal(payload, &req); err != nil {
		return nil, err
	}
	if req.ID == "" {
		return nil, domain.Invalid("id is required")
	}
	return h.svc.Move(ctx, req.ID, req.ParentID)
}

func (h *categoryHandlers) children(ctx context.Context, payload []byte) (any, error) {
	var req ChildrenRequest
	if err := h.codec.Unmarshal(payload, &req); err != nil {
		return nil, err
	}
	cats, err := h.svc.Children(ctx, req.ParentID)
	if err != nil {
		return nil, err
	}
	return ListResponse{Categories: nonNil(cats), Count: len(cats)}, nil
}

// listByID adapts an id-keyed listing operation to a handler.
func (h *categoryHandlers) listByID(list func(context.Context, string) ([]models.Category, error)) HandlerFunc {
	return func(ctx context.Context, payload []byte) (any, error) {
		id, err := h.decodeID(payload)
		if err != nil {
			return nil, err
		}
		cats, err := list(ctx, id)
		if err != nil {
			return nil, err
		}
		return ListResponse{Categories: nonNil(cats), Count: len(cats)}, nil
	}
}

func (h *categoryHandlers) reorder(ctx context.Context, payload []byte) (any, error) {
	var req ReorderRequest
	if err := h.codec.Unmarshal(payload, &req); err != nil {
		return nil, err
	}
	skipped, err := h.svc.Reorder(ctx, req.ParentID, req.OrderedIDs)
	if err != nil {
		return nil, err
	}
	if skipped == nil {
		skipped = []string{}
	}
	return ReorderResponse{Skipped: skipped}, nil
}

func (h *categoryHandlers) repair(ctx context.Context, _ []byte) (any, error) {
	n, err := h.svc.Repair(ctx)
	if err != nil {
		return nil, err
	}
	return RepairResponse{Repaired: n}, nil
}

func (h *categoryHandlers) decodeID(payload []byte) (string, error) {
	var req IDRequest
	if err := h.codec.Unmarshal(payload, &req); err != nil {
		return "", err
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return "", domain.Invalid("id is required")
	}
	return id, nil
}

func nonNil(cats []models.Category) []models.Category {
	if cats == nil {
		return []models.Category{}
	}
	return cats
}
