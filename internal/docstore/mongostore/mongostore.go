// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package mongostore implements docstore.Collection over a MongoDB
// collection. The document's "id" field is an ordinary indexed field; the
// server-assigned _id is never read.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"catalog/internal/docstore"
)

// Connect creates a MongoDB client and verifies the connection with a ping.
func Connect(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	slog.Info("mongo connected")
	return client, nil
}

// Collection stores documents of type T in a MongoDB collection.
type Collection[T any] struct {
	coll *mongo.Collection
}

// Open returns the named collection, ensuring a unique index on "id" and on
// each of the given fields.
func Open[T any](ctx context.Context, db *mongo.Database, name string, unique ...string) (*Collection[T], error) {
	coll := db.Collection(name)

	fields := append([]string{"id"}, unique...)
	models := make([]mongo.IndexModel, 0, len(fields))
	for _, f := range fields {
		models = append(models, mongo.IndexModel{
			Keys:    bson.D{{Key: f, Value: 1}},
			Options: options.Index().SetUnique(true).SetName(name + "_" + f + "_unique"),
		})
	}
	if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
		return nil, fmt.Errorf("ensure indexes on %s: %w", name, err)
	}
	return &Collection[T]{coll: coll}, nil
}

// EnsureIndex adds a non-unique index on field.
func (c *Collection[T]) EnsureIndex(ctx context.Context, field string) error {
	_, err := c.coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: field, Value: 1}}})
	if err != nil {
		return fmt.Errorf("ensure index %s: %w", field, err)
	}
	return nil
}

var _ docstore.Collection[struct{}] = (*Collection[struct{}])(nil)

// InsertOne adds doc.
func (c *Collection[T]) InsertOne(ctx context.Context, doc *T) error {
	if _, err := c.coll.InsertOne(ctx, doc); err != nil {
		return mapErr("insert document", err)
	}
	return nil
}

// FindOne returns the first matching document, or nil.
func (c *Collection[T]) FindOne(ctx context.Context, filter docstore.Filter, sort ...docstore.SortField) (*T, error) {
	opts := options.FindOne()
	if len(sort) > 0 {
		opts.SetSort(SortDoc(sort))
	}
	var doc T
	err := c.coll.FindOne(ctx, ToBSON(filter), opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find document: %w", err)
	}
	return &doc, nil
}

// Find returns matching documents.
func (c *Collection[T]) Find(ctx context.Context, filter docstore.Filter, opts docstore.FindOptions) ([]T, error) {
	fo := options.Find()
	if len(opts.Sort) > 0 {
		fo.SetSort(SortDoc(opts.Sort))
	}
	if opts.Limit > 0 {
		fo.SetLimit(opts.Limit)
	}
	if opts.Skip > 0 {
		fo.SetSkip(opts.Skip)
	}

	cur, err := c.coll.Find(ctx, ToBSON(filter), fo)
	if err != nil {
		return nil, fmt.Errorf("find documents: %w", err)
	}
	var out []T
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}
	return out, nil
}

// ReplaceOne replaces the first matching document.
func (c *Collection[T]) ReplaceOne(ctx context.Context, filter docstore.Filter, doc *T) (bool, error) {
	res, err := c.coll.ReplaceOne(ctx, ToBSON(filter), doc)
	if err != nil {
		return false, mapErr("replace document", err)
	}
	return res.MatchedCount > 0, nil
}

// DeleteOne removes the first matching document.
func (c *Collection[T]) DeleteOne(ctx context.Context, filter docstore.Filter) (bool, error) {
	res, err := c.coll.DeleteOne(ctx, ToBSON(filter))
	if err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}
	return res.DeletedCount > 0, nil
}

// DeleteMany removes every matching document.
func (c *Collection[T]) DeleteMany(ctx context.Context, filter docstore.Filter) (int64, error) {
	res, err := c.coll.DeleteMany(ctx, ToBSON(filter))
	if err != nil {
		return 0, fmt.Errorf("delete documents: %w", err)
	}
	return res.DeletedCount, nil
}

// CountDocuments counts matching documents.
func (c *Collection[T]) CountDocuments(ctx context.Context, filter docstore.Filter) (int64, error) {
	n, err := c.coll.CountDocuments(ctx, ToBSON(filter))
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

// ToBSON renders filter as a MongoDB query document. An equality match on an
// array field already matches membership, so Contains and Eq render alike.
func ToBSON(filter docstore.Filter) bson.D {
	out := bson.D{}
	for _, cond := range filter {
		switch cond.Op {
		case docstore.OpIn:
			values, _ := cond.Value.([]any)
			arr := bson.A{}
			for _, v := range values {
				arr = append(arr, v)
			}
			out = append(out, bson.E{Key: cond.Field, Value: bson.D{{Key: "$in", Value: arr}}})
		default:
			out = append(out, bson.E{Key: cond.Field, Value: cond.Value})
		}
	}
	return out
}

// SortDoc renders sort fields as a MongoDB sort document.
func SortDoc(sort []docstore.SortField) bson.D {
	out := make(bson.D, 0, len(sort))
	for _, s := range sort {
		dir := 1
		if s.Desc {
			dir = -1
		}
		out = append(out, bson.E{Key: s.Field, Value: dir})
	}
	return out
}

func mapErr(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", op, docstore.ErrDuplicateKey)
	}
	return fmt.Errorf("%s: %w", op, err)
}
