// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog/internal/docstore"
	"catalog/internal/models"
)

// maxInvalidateAttempts bounds the compare-and-swap retries of Invalidate
// under contention.
const maxInvalidateAttempts = 8

// DocSnapshotStore keeps the tree snapshot as a single document (id
// "category_tree") in a document collection. An invalidation replaces the
// document with a stale tombstone that carries the advanced version.
type DocSnapshotStore struct {
	coll docstore.Collection[models.CategoryTreeCache]
}

// NewDocSnapshotStore returns a snapshot store over coll.
func NewDocSnapshotStore(coll docstore.Collection[models.CategoryTreeCache]) *DocSnapshotStore {
	return &DocSnapshotStore{coll: coll}
}

var _ SnapshotStore = (*DocSnapshotStore)(nil)

func (s *DocSnapshotStore) current(ctx context.Context) (*models.CategoryTreeCache, error) {
	return s.coll.FindOne(ctx, docstore.Where(docstore.Eq(models.FieldID, models.TreeCacheID)))
}

// Load returns the live snapshot, or nil.
func (s *DocSnapshotStore) Load(ctx context.Context) (*models.CategoryTreeCache, error) {
	doc, err := s.current(ctx)
	if err != nil || doc == nil || doc.Stale {
		return nil, err
	}
	return doc, nil
}

// Generation returns the stored version, live or tombstone.
func (s *DocSnapshotStore) Generation(ctx context.Context) (int64, error) {
	doc, err := s.current(ctx)
	if err != nil || doc == nil {
		return 0, err
	}
	return doc.Version, nil
}

// Publish stores snap if the stored version is still observed.
func (s *DocSnapshotStore) Publish(ctx context.Context, snap *models.CategoryTreeCache, observed int64) (bool, error) {
	snap.ID = models.TreeCacheID
	snap.Stale = false

	if observed == 0 {
		err := s.coll.InsertOne(ctx, snap)
		if errors.Is(err, docstore.ErrDuplicateKey) {
			return false, nil
		}
		return err == nil, err
	}
	return s.coll.ReplaceOne(ctx, docstore.Where(
		docstore.Eq(models.FieldID, models.TreeCacheID),
		docstore.Eq(models.FieldVersion, observed),
	), snap)
}

// Invalidate replaces the snapshot with a tombstone one version ahead.
func (s *DocSnapshotStore) Invalidate(ctx context.Context) error {
	for attempt := 0; attempt < maxInvalidateAttempts; attempt++ {
		doc, err := s.current(ctx)
		if err != nil {
			return err
		}

		tomb := &models.CategoryTreeCache{
			ID:          models.TreeCacheID,
			LastUpdated: time.Now().UTC(),
			Stale:       true,
		}
		if doc == nil {
			tomb.Version = 1
			err := s.coll.InsertOne(ctx, tomb)
			if errors.Is(err, docstore.ErrDuplicateKey) {
				continue
			}
			return err
		}

		tomb.Version = doc.Version + 1
		ok, err := s.coll.ReplaceOne(ctx, docstore.Where(
			docstore.Eq(models.FieldID, models.TreeCacheID),
			docstore.Eq(models.FieldVersion, doc.Version),
		), tomb)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return fmt.Errorf("tree snapshot invalidation contended %d times", maxInvalidateAttempts)
}
