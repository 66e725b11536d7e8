// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package memstore is an in-process docstore.Collection. Documents are kept
// JSON-encoded so callers never share memory with the store, and filters
// are evaluated against the decoded field map the same way the database
// backends evaluate them against stored JSON.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"catalog/internal/docstore"
)

type entry struct {
	raw    []byte
	fields map[string]any
}

// Collection holds documents of type T in memory. The "id" field is always
// unique; further unique fields are given to New.
type Collection[T any] struct {
	mu     sync.RWMutex
	docs   []*entry
	unique []string
}

// New returns an empty collection enforcing uniqueness on the given fields.
func New[T any](unique ...string) *Collection[T] {
	fields := append([]string{"id"}, unique...)
	return &Collection[T]{unique: fields}
}

var _ docstore.Collection[struct{}] = (*Collection[struct{}])(nil)

// InsertOne adds doc.
func (c *Collection[T]) InsertOne(_ context.Context, doc *T) error {
	e, err := encode(doc)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkUnique(e, nil); err != nil {
		return err
	}
	c.docs = append(c.docs, e)
	return nil
}

// FindOne returns the first matching document under sort, or nil.
func (c *Collection[T]) FindOne(_ context.Context, filter docstore.Filter, sortBy ...docstore.SortField) (*T, error) {
	c.mu.RLock()
	matches, err := c.match(filter)
	c.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	sortEntries(matches, sortBy)
	return decode[T](matches[0])
}

// Find returns matching documents.
func (c *Collection[T]) Find(_ context.Context, filter docstore.Filter, opts docstore.FindOptions) ([]T, error) {
	c.mu.RLock()
	matches, err := c.match(filter)
	c.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	sortEntries(matches, opts.Sort)

	if opts.Skip > 0 {
		if opts.Skip >= int64(len(matches)) {
			matches = nil
		} else {
			matches = matches[opts.Skip:]
		}
	}
	if opts.Limit > 0 && opts.Limit < int64(len(matches)) {
		matches = matches[:opts.Limit]
	}

	out := make([]T, 0, len(matches))
	for _, e := range matches {
		doc, err := decode[T](e)
		if err != nil {
			return nil, err
		}
		out = append(out, *doc)
	}
	return out, nil
}

// ReplaceOne replaces the first matching document.
func (c *Collection[T]) ReplaceOne(_ context.Context, filter docstore.Filter, doc *T) (bool, error) {
	e, err := encode(doc)
	if err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, err := c.firstIndex(filter)
	if err != nil || idx < 0 {
		return false, err
	}
	if err := c.checkUnique(e, c.docs[idx]); err != nil {
		return false, err
	}
	c.docs[idx] = e
	return true, nil
}

// DeleteOne removes the first matching document.
func (c *Collection[T]) DeleteOne(_ context.Context, filter docstore.Filter) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, err := c.firstIndex(filter)
	if err != nil || idx < 0 {
		return false, err
	}
	c.docs = append(c.docs[:idx], c.docs[idx+1:]...)
	return true, nil
}

// DeleteMany removes every matching document.
func (c *Collection[T]) DeleteMany(_ context.Context, filter docstore.Filter) (int64, error) {
	conds, err := normalize(filter)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.docs[:0]
	var n int64
	for _, e := range c.docs {
		if matches(e, conds) {
			n++
			continue
		}
		kept = append(kept, e)
	}
	c.docs = kept
	return n, nil
}

// CountDocuments counts matching documents.
func (c *Collection[T]) CountDocuments(_ context.Context, filter docstore.Filter) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	found, err := c.match(filter)
	return int64(len(found)), err
}

func (c *Collection[T]) match(filter docstore.Filter) ([]*entry, error) {
	conds, err := normalize(filter)
	if err != nil {
		return nil, err
	}
	var out []*entry
	for _, e := range c.docs {
		if matches(e, conds) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (c *Collection[T]) firstIndex(filter docstore.Filter) (int, error) {
	conds, err := normalize(filter)
	if err != nil {
		return -1, err
	}
	for i, e := range c.docs {
		if matches(e, conds) {
			return i, nil
		}
	}
	return -1, nil
}

// checkUnique rejects e if another document (other than self) holds the
// same non-null value in a unique field. Caller holds the write lock.
func (c *Collection[T]) checkUnique(e, self *entry) error {
	for _, field := range c.unique {
		v, ok := e.fields[field]
		if !ok || v == nil {
			continue
		}
		for _, other := range c.docs {
			if other == self {
				continue
			}
			if reflect.DeepEqual(other.fields[field], v) {
				return fmt.Errorf("%w: %s", docstore.ErrDuplicateKey, field)
			}
		}
	}
	return nil
}

func encode[T any](doc *T) (*entry, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode document fields: %w", err)
	}
	return &entry{raw: raw, fields: fields}, nil
}

func decode[T any](e *entry) (*T, error) {
	var doc T
	if err := json.Unmarshal(e.raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

// normalize round-trips filter values through JSON so they compare equal to
// decoded document fields (numbers become float64, and so on).
func normalize(filter docstore.Filter) ([]docstore.Cond, error) {
	out := make([]docstore.Cond, len(filter))
	for i, cond := range filter {
		v, err := jsonValue(cond.Value)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", cond.Field, err)
		}
		out[i] = docstore.Cond{Field: cond.Field, Op: cond.Op, Value: v}
	}
	return out, nil
}

func jsonValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	err = json.Unmarshal(raw, &out)
	return out, err
}

func matches(e *entry, conds []docstore.Cond) bool {
	for _, cond := range conds {
		got := e.fields[cond.Field]
		switch cond.Op {
		case docstore.OpEq:
			if !reflect.DeepEqual(got, cond.Value) {
				return false
			}
		case docstore.OpIn:
			list, _ := cond.Value.([]any)
			found := false
			for _, v := range list {
				if reflect.DeepEqual(got, v) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		case docstore.OpContains:
			arr, _ := got.([]any)
			found := false
			for _, v := range arr {
				if reflect.DeepEqual(v, cond.Value) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func sortEntries(entries []*entry, by []docstore.SortField) {
	if len(by) == 0 {
		return
	}
	sort.SliceStable(entries, func(i, j int) bool {
		for _, s := range by {
			c := compare(entries[i].fields[s.Field], entries[j].fields[s.Field])
			if c == 0 {
				continue
			}
			if s.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// compare orders JSON values: null first, then booleans, numbers, strings.
func compare(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra - rb
	}
	switch av := a.(type) {
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
	case string:
		bv := b.(string)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
	}
	return 0
}

func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64:
		return 2
	case string:
		return 3
	default:
		return 4
	}
}
