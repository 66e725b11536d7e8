// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// tree.go maintains the denormalized category tree snapshot. The snapshot
// is disposable: it is rebuilt from the active categories on demand and
// dropped whenever a category write lands.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"catalog/internal/metrics"
	"catalog/internal/models"
)

// SnapshotStore persists the single tree snapshot together with a version
// watermark. Every Invalidate advances the watermark, so a rebuild that
// started before an invalidation cannot publish over it.
type SnapshotStore interface {
	// Load returns the current snapshot, or nil when absent or invalidated.
	Load(ctx context.Context) (*models.CategoryTreeCache, error)
	// Generation returns the current watermark (0 when nothing was stored).
	Generation(ctx context.Context) (int64, error)
	// Publish stores snap if the watermark still equals observed and
	// reports whether it did. snap.Version must be observed+1.
	Publish(ctx context.Context, snap *models.CategoryTreeCache, observed int64) (bool, error)
	// Invalidate drops the snapshot and advances the watermark.
	Invalidate(ctx context.Context) error
}

// CategorySource lists the active categories ordered by level, then
// display order.
type CategorySource interface {
	ListActive(ctx context.Context) ([]models.Category, error)
}

// TreeCache serves and rebuilds the category tree snapshot.
type TreeCache struct {
	snapshots SnapshotStore
	source    CategorySource
	metrics   *metrics.Collector
}

// NewTreeCache creates a tree cache. m may be nil.
func NewTreeCache(snapshots SnapshotStore, source CategorySource, m *metrics.Collector) *TreeCache {
	return &TreeCache{snapshots: snapshots, source: source, metrics: m}
}

// Get returns the current snapshot, or nil when there is none.
func (tc *TreeCache) Get(ctx context.Context) (*models.CategoryTreeCache, error) {
	snap, err := tc.snapshots.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tree snapshot: %w", err)
	}
	tc.metrics.CacheLookup(snap != nil)
	return snap, nil
}

// GetOrRebuild returns the current snapshot, rebuilding it when absent.
func (tc *TreeCache) GetOrRebuild(ctx context.Context) (*models.CategoryTreeCache, error) {
	snap, err := tc.Get(ctx)
	if err != nil {
		return nil, err
	}
	if snap != nil {
		slog.Debug("tree cache hit", "version", snap.Version)
		return snap, nil
	}
	return tc.Rebuild(ctx)
}

// Rebuild builds a fresh snapshot from the active categories and publishes
// it. If an invalidation lands while the rebuild runs, the publish is
// skipped and the built snapshot is still returned to the caller.
func (tc *TreeCache) Rebuild(ctx context.Context) (*models.CategoryTreeCache, error) {
	start := time.Now()

	gen, err := tc.snapshots.Generation(ctx)
	if err != nil {
		tc.metrics.TreeRebuildFailed()
		return nil, fmt.Errorf("read tree generation: %w", err)
	}
	categories, err := tc.source.ListActive(ctx)
	if err != nil {
		tc.metrics.TreeRebuildFailed()
		return nil, fmt.Errorf("list active categories: %w", err)
	}

	snap := &models.CategoryTreeCache{
		ID:          models.TreeCacheID,
		Version:     gen + 1,
		LastUpdated: time.Now().UTC(),
		Tree:        BuildTree(categories),
	}

	published, err := tc.snapshots.Publish(ctx, snap, gen)
	if err != nil {
		tc.metrics.TreeRebuildFailed()
		return nil, fmt.Errorf("publish tree snapshot: %w", err)
	}
	nodes := snap.NodeCount()
	tc.metrics.TreeRebuilt(nodes, published)

	if !published {
		slog.Warn("tree snapshot superseded by concurrent invalidation",
			"version", snap.Version, "nodes", nodes)
		return snap, nil
	}
	slog.Info("tree snapshot rebuilt",
		"version", snap.Version,
		"nodes", nodes,
		"duration", time.Since(start),
	)
	return snap, nil
}

// Invalidate drops the current snapshot.
func (tc *TreeCache) Invalidate(ctx context.Context) error {
	if err := tc.snapshots.Invalidate(ctx); err != nil {
		return fmt.Errorf("invalidate tree snapshot: %w", err)
	}
	slog.Debug("tree snapshot invalidated")
	return nil
}

// BuildTree links categories into a forest keyed by root id in one pass.
// Categories must be ordered so that parents precede children (ascending
// level). A category whose parent is not in the list is left out: with an
// active-only list it sits below an inactive ancestor.
func BuildTree(categories []models.Category) map[string]*models.CategoryTreeNode {
	roots := make(map[string]*models.CategoryTreeNode)
	nodes := make(map[string]*models.CategoryTreeNode, len(categories))

	for _, c := range categories {
		node := &models.CategoryTreeNode{
			ID:           c.ID,
			Name:         c.Name,
			Slug:         c.Slug,
			Path:         c.Path,
			Level:        c.Level,
			ProductCount: c.ProductCount,
			DisplayOrder: c.DisplayOrder,
			Children:     map[string]*models.CategoryTreeNode{},
		}

		if c.ParentID == nil {
			roots[c.ID] = node
			nodes[c.ID] = node
			continue
		}
		parent, ok := nodes[*c.ParentID]
		if !ok {
			slog.Debug("tree node skipped, parent not in active set",
				"id", c.ID, "parent_id", *c.ParentID)
			continue
		}
		parent.Children[c.ID] = node
		nodes[c.ID] = node
	}
	return roots
}
