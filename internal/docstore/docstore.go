// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package docstore defines the document collection contract the category
// store and tree snapshot store are written against. Backends live in the
// memstore, pgstore and mongostore subpackages.
//
// Documents are addressed by their JSON/BSON field names. Every backend
// stores the document's own "id" field as an ordinary field and enforces
// uniqueness on the fields it was opened with.
package docstore

import (
	"context"
	"errors"
)

// ErrDuplicateKey is returned when an insert or replace violates a unique
// field.
var ErrDuplicateKey = errors.New("duplicate key")

// Op is a filter comparison.
type Op int

const (
	// OpEq matches equal values. A nil value matches documents where the
	// field is absent or null.
	OpEq Op = iota
	// OpIn matches any of a list of values.
	OpIn
	// OpContains matches documents whose array field holds the value.
	OpContains
)

// Cond is a single filter condition.
type Cond struct {
	Field string
	Op    Op
	Value any
}

// Filter is a conjunction of conditions. An empty filter matches everything.
type Filter []Cond

// Eq matches field == value.
func Eq(field string, value any) Cond { return Cond{Field: field, Op: OpEq, Value: value} }

// In matches field ∈ values. An empty list matches nothing.
func In(field string, values ...any) Cond { return Cond{Field: field, Op: OpIn, Value: values} }

// Contains matches documents whose array field includes value.
func Contains(field string, value any) Cond {
	return Cond{Field: field, Op: OpContains, Value: value}
}

// Where builds a filter from conditions.
func Where(conds ...Cond) Filter { return Filter(conds) }

// SortField orders results by one field.
type SortField struct {
	Field string
	Desc  bool
}

// Asc sorts ascending.
func Asc(field string) SortField { return SortField{Field: field} }

// Desc sorts descending.
func Desc(field string) SortField { return SortField{Field: field, Desc: true} }

// FindOptions controls ordering and paging of Find.
type FindOptions struct {
	Sort  []SortField
	Limit int64
	Skip  int64
}

// Collection is a set of documents of type T.
type Collection[T any] interface {
	// InsertOne adds doc. It returns ErrDuplicateKey on a unique violation.
	InsertOne(ctx context.Context, doc *T) error
	// FindOne returns the first match under the given sort, or nil, nil.
	FindOne(ctx context.Context, filter Filter, sort ...SortField) (*T, error)
	Find(ctx context.Context, filter Filter, opts FindOptions) ([]T, error)
	// ReplaceOne replaces the first match and reports whether one existed.
	ReplaceOne(ctx context.Context, filter Filter, doc *T) (bool, error)
	DeleteOne(ctx context.Context, filter Filter) (bool, error)
	DeleteMany(ctx context.Context, filter Filter) (int64, error)
	CountDocuments(ctx context.Context, filter Filter) (int64, error)
}

// Values converts a typed slice for use with In.
func Values[V any](vs []V) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}
