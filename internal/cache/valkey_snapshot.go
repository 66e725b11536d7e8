// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// valkey_snapshot.go keeps the tree snapshot in Valkey instead of the
// document store. The version watermark and the snapshot live under two
// keys; publishes use WATCH/MULTI on the version key.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"catalog/internal/models"
)

const (
	// treeKeyPrefix is the Valkey key prefix for the tree snapshot.
	treeKeyPrefix = "category_tree:"

	versionKey  = treeKeyPrefix + "version"
	snapshotKey = treeKeyPrefix + "snapshot"
)

// ValkeySnapshotStore manages the tree snapshot in Valkey.
type ValkeySnapshotStore struct {
	client *redis.Client
}

// NewValkeySnapshotStore creates a snapshot store backed by the given
// Valkey client.
func NewValkeySnapshotStore(client *redis.Client) *ValkeySnapshotStore {
	return &ValkeySnapshotStore{client: client}
}

var _ SnapshotStore = (*ValkeySnapshotStore)(nil)

// Load returns the cached snapshot, or nil on miss.
func (s *ValkeySnapshotStore) Load(ctx context.Context) (*models.CategoryTreeCache, error) {
	raw, err := s.client.Get(ctx, snapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("valkey get snapshot: %w", err)
	}
	var snap models.CategoryTreeCache
	if err := json.Unmarshal(raw, &snap); err != nil {
		// A corrupt entry reads as a miss and is replaced on the next rebuild.
		slog.Warn("tree snapshot decode error", "error", err)
		return nil, nil
	}
	return &snap, nil
}

// Generation returns the version watermark.
func (s *ValkeySnapshotStore) Generation(ctx context.Context) (int64, error) {
	return generation(ctx, s.client)
}

// Publish stores snap if the watermark is still observed.
func (s *ValkeySnapshotStore) Publish(ctx context.Context, snap *models.CategoryTreeCache, observed int64) (bool, error) {
	snap.ID = models.TreeCacheID
	snap.Stale = false
	raw, err := json.Marshal(snap)
	if err != nil {
		return false, fmt.Errorf("encode snapshot: %w", err)
	}

	published := false
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		gen, err := generation(ctx, tx)
		if err != nil {
			return err
		}
		if gen != observed {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, versionKey, snap.Version, 0)
			pipe.Set(ctx, snapshotKey, raw, 0)
			return nil
		})
		if err == nil {
			published = true
		}
		return err
	}, versionKey)

	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("valkey publish snapshot: %w", err)
	}
	return published, nil
}

// Invalidate advances the watermark and deletes the snapshot atomically.
func (s *ValkeySnapshotStore) Invalidate(ctx context.Context) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey)
		pipe.Del(ctx, snapshotKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("valkey invalidate snapshot: %w", err)
	}
	return nil
}

// getter is the read half shared by *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func generation(ctx context.Context, c getter) (int64, error) {
	gen, err := c.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("valkey get version: %w", err)
	}
	return gen, nil
}
