// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// cache_log.go records tree cache invalidation events for audit and
// debugging. Each entry captures which category triggered the
// invalidation, when, and the write that caused it.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"catalog/internal/docstore"
)

// CacheLogEntry represents a single cache invalidation event.
type CacheLogEntry struct {
	ID            string    `json:"id" bson:"id"`
	EntityID      string    `json:"entity_id" bson:"entity_id"`
	Action        string    `json:"action" bson:"action"`
	Seq           int64     `json:"seq" bson:"seq"`
	InvalidatedAt time.Time `json:"invalidated_at" bson:"invalidated_at"`
}

// CacheLogStore handles cache invalidation log operations.
type CacheLogStore struct {
	coll    docstore.Collection[CacheLogEntry]
	lastSeq atomic.Int64
}

// NewCacheLogStore creates a new CacheLogStore.
func NewCacheLogStore(coll docstore.Collection[CacheLogEntry]) *CacheLogStore {
	return &CacheLogStore{coll: coll}
}

// Log records a cache invalidation event. Logging is best-effort.
func (s *CacheLogStore) Log(ctx context.Context, entityID, action string) {
	now := time.Now().UTC()
	entry := CacheLogEntry{
		ID:            uuid.NewString(),
		EntityID:      entityID,
		Action:        action,
		Seq:           s.nextSeq(now),
		InvalidatedAt: now,
	}
	if err := s.coll.InsertOne(ctx, &entry); err != nil {
		slog.Warn("failed to log cache invalidation",
			"entity_id", entityID,
			"action", action,
			"error", err,
		)
		return
	}
	slog.Debug("cache invalidation logged", "entity_id", entityID, "action", action)
}

// RecentEntries returns the most recent invalidation events, newest first.
func (s *CacheLogStore) RecentEntries(ctx context.Context, limit int) ([]CacheLogEntry, error) {
	entries, err := s.coll.Find(ctx, nil, docstore.FindOptions{
		Sort:  []docstore.SortField{docstore.Desc("seq")},
		Limit: int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("query cache log: %w", err)
	}
	return entries, nil
}

// nextSeq returns a strictly increasing sequence based on wall-clock nanos.
func (s *CacheLogStore) nextSeq(now time.Time) int64 {
	for {
		last := s.lastSeq.Load()
		next := now.UnixNano()
		if next <= last {
			next = last + 1
		}
		if s.lastSeq.CompareAndSwap(last, next) {
			return next
		}
	}
}
